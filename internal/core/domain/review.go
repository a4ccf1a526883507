package domain

import "time"

const (
	MinRating        = 1
	MaxRating        = 5
	MaxCommentLength = 1000
)

// Review is a user's rating of a book.
type Review struct {
	ID        int64     `bson:"_id"`
	UserID    int64     `bson:"user_id"`
	Username  string    `bson:"username"`
	BookID    int64     `bson:"book_id"`
	BookTitle string    `bson:"book_title"`
	Rating    int       `bson:"rating"`
	Comment   string    `bson:"comment"`
	CreatedAt time.Time `bson:"created_at"`
}

// CanBeEditedBy reports whether p may update or delete the review.
func (r *Review) CanBeEditedBy(p Principal) bool {
	return r.Username == p.Username || p.HasRole(RoleAdmin)
}
