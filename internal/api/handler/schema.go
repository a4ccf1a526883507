package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Auth ---

type registerRequest struct {
	Username string `json:"username"  validate:"required,min=3,max=50"`
	Password string `json:"password"  validate:"required,min=6,max=72"`
	Email    string `json:"email"     validate:"required,email"`
	FullName string `json:"full_name" validate:"max=100"`
	Address  string `json:"address"   validate:"max=255"`
}

// loginRequest is not validated: blank credentials take the same 401 path as
// wrong ones.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"tokenType"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// --- Users ---

type profileResponse struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	FullName string   `json:"fullName,omitempty"`
	Address  string   `json:"address,omitempty"`
	Enabled  bool     `json:"enabled"`
	Roles    []string `json:"roles"`
}

type updateRolesRequest struct {
	Roles []string `json:"roles" validate:"required,min=1,dive,required"`
}

type setEnabledRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// --- Reviews ---

type createReviewRequest struct {
	BookID  int64  `json:"bookId"  validate:"required,gt=0"`
	Rating  int    `json:"rating"  validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=1000"`
}

type updateReviewRequest struct {
	Rating  int    `json:"rating"  validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=1000"`
}

type reviewResponse struct {
	ID        int64     `json:"id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
	BookID    int64     `json:"bookId"`
	BookTitle string    `json:"bookTitle"`
	UserID    int64     `json:"userId"`
	Username  string    `json:"username"`
}

// --- Suggestions ---

type suggestionResponse struct {
	ID     int64   `json:"id"`
	Title  string  `json:"title"`
	Author string  `json:"author"`
	Price  float64 `json:"price"`
}
