package httpform

import "errors"

// Common decoding errors
var (
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrMissingContentType   = errors.New("missing content type")
	ErrInvalidBody          = errors.New("invalid request body")
	ErrBodyTooLarge         = errors.New("request body too large")
)
