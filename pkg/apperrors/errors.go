package apperrors

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrNoImages     = errors.New("no images provided")
	ErrNoParts      = errors.New("no parts provided")
	ErrInvalidImage = errors.New("invalid image")
	ErrEmptyQuery   = errors.New("empty search query")
	ErrUnavailable  = errors.New("service unavailable")
)
