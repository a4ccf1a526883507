package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/haitebooks/bookstore-api/internal/core/domain"
	"github.com/haitebooks/bookstore-api/internal/core/ports"
)

type ReviewService struct {
	reviews ports.ReviewRepository
	books   ports.BookRepository
	users   ports.UserRepository
	logger  zerolog.Logger
}

func NewReviewService(reviews ports.ReviewRepository, books ports.BookRepository, users ports.UserRepository, logger zerolog.Logger) *ReviewService {
	return &ReviewService{reviews: reviews, books: books, users: users, logger: logger}
}

func (s *ReviewService) List(ctx context.Context) ([]ports.ReviewView, error) {
	rs, err := s.reviews.List(ctx)
	if err != nil {
		return nil, err
	}
	return toViews(rs), nil
}

func (s *ReviewService) ListByUser(ctx context.Context, userID int64) ([]ports.ReviewView, error) {
	rs, err := s.reviews.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toViews(rs), nil
}

func (s *ReviewService) ListByBook(ctx context.Context, bookID int64) ([]ports.ReviewView, error) {
	rs, err := s.reviews.ListByBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	return toViews(rs), nil
}

// Create stores a review by the calling user. The book must exist.
func (s *ReviewService) Create(ctx context.Context, in ports.CreateReviewInput) (*ports.ReviewView, error) {
	if err := validateReview(in.Rating, in.Comment); err != nil {
		return nil, err
	}

	book, err := s.books.FindByID(ctx, in.BookID)
	if err != nil {
		return nil, err
	}
	author, err := s.users.FindByUsername(ctx, in.Author.Username)
	if err != nil {
		return nil, err
	}

	r := &domain.Review{
		UserID:    author.ID,
		Username:  author.Username,
		BookID:    book.ID,
		BookTitle: book.Title,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.reviews.Create(ctx, r); err != nil {
		s.logger.Error().Err(err).Int64("book_id", book.ID).Msg("failed to create review")
		return nil, err
	}

	s.logger.Info().Int64("review_id", r.ID).Int64("book_id", book.ID).Str("username", author.Username).Msg("review created")
	v := toView(r)
	return &v, nil
}

// Update changes rating and comment. Only the author or an ADMIN may edit.
func (s *ReviewService) Update(ctx context.Context, in ports.UpdateReviewInput) (*ports.ReviewView, error) {
	if err := validateReview(in.Rating, in.Comment); err != nil {
		return nil, err
	}

	r, err := s.reviews.FindByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	if !r.CanBeEditedBy(in.Editor) {
		return nil, domain.ErrForbidden
	}

	comment := strings.TrimSpace(in.Comment)
	if err := s.reviews.Update(ctx, in.ID, in.Rating, comment); err != nil {
		return nil, err
	}
	r.Rating = in.Rating
	r.Comment = comment

	s.logger.Info().Int64("review_id", in.ID).Str("editor", in.Editor.Username).Msg("review updated")
	v := toView(r)
	return &v, nil
}

// Delete removes a review. Only the author or an ADMIN may delete.
func (s *ReviewService) Delete(ctx context.Context, editor domain.Principal, id int64) error {
	r, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !r.CanBeEditedBy(editor) {
		return domain.ErrForbidden
	}
	if err := s.reviews.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Warn().Int64("review_id", id).Str("editor", editor.Username).Msg("review deleted")
	return nil
}

func validateReview(rating int, comment string) error {
	if rating < domain.MinRating || rating > domain.MaxRating {
		return fmt.Errorf("%w: rating must be between %d and %d", domain.ErrInvalidInput, domain.MinRating, domain.MaxRating)
	}
	if utf8.RuneCountInString(comment) > domain.MaxCommentLength {
		return fmt.Errorf("%w: comment exceeds %d characters", domain.ErrInvalidInput, domain.MaxCommentLength)
	}
	return nil
}

func toViews(rs []*domain.Review) []ports.ReviewView {
	out := make([]ports.ReviewView, 0, len(rs))
	for _, r := range rs {
		out = append(out, toView(r))
	}
	return out
}

func toView(r *domain.Review) ports.ReviewView {
	return ports.ReviewView{
		ID:        r.ID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
		BookID:    r.BookID,
		BookTitle: r.BookTitle,
		UserID:    r.UserID,
		Username:  r.Username,
	}
}
