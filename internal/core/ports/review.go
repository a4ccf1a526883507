package ports

import (
	"context"
	"time"

	"github.com/haitebooks/bookstore-api/internal/core/domain"
)

// BookRepository is the read side of the catalogue used by reviews and
// suggestions.
type BookRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.Book, error)
	// Search matches query case-insensitively against title and author.
	Search(ctx context.Context, query string, limit int) ([]*domain.Book, error)
}

type ReviewRepository interface {
	Create(ctx context.Context, r *domain.Review) error
	FindByID(ctx context.Context, id int64) (*domain.Review, error)
	List(ctx context.Context) ([]*domain.Review, error)
	ListByUser(ctx context.Context, userID int64) ([]*domain.Review, error)
	ListByBook(ctx context.Context, bookID int64) ([]*domain.Review, error)
	Update(ctx context.Context, id int64, rating int, comment string) error
	Delete(ctx context.Context, id int64) error
}

// CreateReviewInput carries a new review; the author is the caller.
type CreateReviewInput struct {
	Author  domain.Principal
	BookID  int64
	Rating  int
	Comment string
}

// UpdateReviewInput carries an edit of an existing review.
type UpdateReviewInput struct {
	Editor  domain.Principal
	ID      int64
	Rating  int
	Comment string
}

// ReviewView is the flattened review returned to clients.
type ReviewView struct {
	ID        int64
	Rating    int
	Comment   string
	CreatedAt time.Time
	BookID    int64
	BookTitle string
	UserID    int64
	Username  string
}

type ReviewService interface {
	List(ctx context.Context) ([]ReviewView, error)
	ListByUser(ctx context.Context, userID int64) ([]ReviewView, error)
	ListByBook(ctx context.Context, bookID int64) ([]ReviewView, error)
	Create(ctx context.Context, input CreateReviewInput) (*ReviewView, error)
	Update(ctx context.Context, input UpdateReviewInput) (*ReviewView, error)
	Delete(ctx context.Context, editor domain.Principal, id int64) error
}

// SuggestionService answers the public book-suggestion endpoint.
type SuggestionService interface {
	Suggest(ctx context.Context, query string, limit int) ([]*domain.Book, error)
}
