package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/haitebooks/bookstore-api/internal/api/middleware"
	"github.com/haitebooks/bookstore-api/internal/core/domain"
	"github.com/haitebooks/bookstore-api/internal/core/ports"
)

type stubReviewService struct {
	ports.ReviewService
	listByBookFn func(ctx context.Context, bookID int64) ([]ports.ReviewView, error)
	createFn     func(ctx context.Context, in ports.CreateReviewInput) (*ports.ReviewView, error)
	deleteFn     func(ctx context.Context, editor domain.Principal, id int64) error
}

func (s *stubReviewService) ListByBook(ctx context.Context, bookID int64) ([]ports.ReviewView, error) {
	return s.listByBookFn(ctx, bookID)
}

func (s *stubReviewService) Create(ctx context.Context, in ports.CreateReviewInput) (*ports.ReviewView, error) {
	return s.createFn(ctx, in)
}

func (s *stubReviewService) Delete(ctx context.Context, editor domain.Principal, id int64) error {
	return s.deleteFn(ctx, editor, id)
}

// withPrincipal stands in for the request filter.
func withPrincipal(c echo.Context, username string, roles ...string) {
	middleware.SetPrincipal(c, &domain.Principal{Username: username, Roles: roles})
}

func TestReviewHandler_Create(t *testing.T) {
	e := newEcho()
	stub := &stubReviewService{
		createFn: func(ctx context.Context, in ports.CreateReviewInput) (*ports.ReviewView, error) {
			if in.Author.Username != "alice" || in.BookID != 7 || in.Rating != 4 {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &ports.ReviewView{ID: 1, BookID: 7, BookTitle: "Dune", Rating: 4, Username: "alice", UserID: 3}, nil
		},
	}
	h := NewReviewHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/reviews", `{"bookId":7,"rating":4,"comment":"great"}`), rec)
	withPrincipal(c, "alice", domain.RoleUser)

	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["bookTitle"] != "Dune" || resp["username"] != "alice" || resp["userId"] != float64(3) {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestReviewHandler_Create_Validation(t *testing.T) {
	e := newEcho()
	h := NewReviewHandler(&stubReviewService{})

	for _, body := range []string{`{"bookId":7,"rating":0}`, `{"bookId":7,"rating":6}`, `{"rating":3}`} {
		c := e.NewContext(jsonRequest(http.MethodPost, "/api/reviews", body), httptest.NewRecorder())
		withPrincipal(c, "alice", domain.RoleUser)
		if code := httpCode(t, h.Create(c)); code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", body, code)
		}
	}
}

func TestReviewHandler_Create_RequiresPrincipal(t *testing.T) {
	e := newEcho()
	h := NewReviewHandler(&stubReviewService{})

	c := e.NewContext(jsonRequest(http.MethodPost, "/api/reviews", `{"bookId":7,"rating":4}`), httptest.NewRecorder())
	if err := h.Create(c); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestReviewHandler_ListByBook(t *testing.T) {
	e := newEcho()
	stub := &stubReviewService{
		listByBookFn: func(ctx context.Context, bookID int64) ([]ports.ReviewView, error) {
			if bookID != 42 {
				t.Fatalf("unexpected book id %d", bookID)
			}
			return nil, nil
		},
	}
	h := NewReviewHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("bookId")
	c.SetParamValues("42")

	if err := h.ListByBook(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || rec.Body.String() != "[]\n" {
		t.Fatalf("expected empty array, got %d %q", rec.Code, rec.Body.String())
	}

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("bookId")
	c.SetParamValues("x")
	if code := httpCode(t, h.ListByBook(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestReviewHandler_Delete(t *testing.T) {
	e := newEcho()
	stub := &stubReviewService{
		deleteFn: func(ctx context.Context, editor domain.Principal, id int64) error {
			if editor.Username != "alice" {
				return domain.ErrForbidden
			}
			return nil
		},
	}
	h := NewReviewHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("5")
	withPrincipal(c, "alice", domain.RoleUser)

	if err := h.Delete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	c = e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("5")
	withPrincipal(c, "mallory", domain.RoleUser)
	if err := h.Delete(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
