package api

import "errors"

var (
	ErrMissingUser          = errors.New("missing X-User-ID header")
	ErrInvalidUser          = errors.New("invalid X-User-ID header")
	ErrInvalidID            = errors.New("invalid path identifier")
	ErrMissingContentType   = errors.New("missing content type")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrInvalidJSON          = errors.New("invalid JSON")
	ErrPayloadTooLarge      = errors.New("request body too large")
	ErrForeignMember        = errors.New("member belongs to another owner")
)
