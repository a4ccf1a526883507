package service

import (
	"context"
	"strings"

	"github.com/haitebooks/bookstore-api/internal/core/domain"
	"github.com/haitebooks/bookstore-api/internal/core/ports"
)

const (
	defaultSuggestionLimit = 5
	maxSuggestionLimit     = 20
)

// SuggestionService backs the public /api/ai endpoints.
type SuggestionService struct {
	books ports.BookRepository
}

func NewSuggestionService(books ports.BookRepository) *SuggestionService {
	return &SuggestionService{books: books}
}

// Suggest returns up to limit books whose title or author contains query.
func (s *SuggestionService) Suggest(ctx context.Context, query string, limit int) ([]*domain.Book, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrInvalidInput
	}
	if limit <= 0 {
		limit = defaultSuggestionLimit
	}
	if limit > maxSuggestionLimit {
		limit = maxSuggestionLimit
	}
	return s.books.Search(ctx, query, limit)
}
