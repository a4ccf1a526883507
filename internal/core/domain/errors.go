package domain

import "errors"

var (
	ErrUserExists         = errors.New("username is already taken")
	ErrEmailExists        = errors.New("email is already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidInput       = errors.New("invalid input")

	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("access forbidden")

	ErrBookNotFound   = errors.New("book not found")
	ErrReviewNotFound = errors.New("review not found")
)
