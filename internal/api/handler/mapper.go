package handler

import (
	"github.com/haitebooks/bookstore-api/internal/core/domain"
	"github.com/haitebooks/bookstore-api/internal/core/ports"
)

// --- Service result → HTTP response ---

func toProfileResponse(u *domain.User) profileResponse {
	return profileResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
		Address:  u.Address,
		Enabled:  u.Enabled,
		Roles:    u.Roles,
	}
}

func toReviewResponse(v ports.ReviewView) reviewResponse {
	return reviewResponse{
		ID:        v.ID,
		Rating:    v.Rating,
		Comment:   v.Comment,
		CreatedAt: v.CreatedAt.UTC(),
		BookID:    v.BookID,
		BookTitle: v.BookTitle,
		UserID:    v.UserID,
		Username:  v.Username,
	}
}

func toReviewResponses(vs []ports.ReviewView) []reviewResponse {
	out := make([]reviewResponse, 0, len(vs))
	for _, v := range vs {
		out = append(out, toReviewResponse(v))
	}
	return out
}

func toSuggestionResponses(books []*domain.Book) []suggestionResponse {
	out := make([]suggestionResponse, 0, len(books))
	for _, b := range books {
		out = append(out, suggestionResponse{ID: b.ID, Title: b.Title, Author: b.Author, Price: b.Price})
	}
	return out
}
