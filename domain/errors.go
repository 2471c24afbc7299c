package domain

import "errors"

// Permanent input errors. A task failing with one of these is never retried;
// everything else is treated as transient and goes back through the queue.
var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicateHash    = errors.New("content hash already admitted")
	ErrUnsupportedMedia = errors.New("unsupported media type")
	ErrEmptyExtraction  = errors.New("extracted text below minimum length")
	ErrEmptyAIResult    = errors.New("ai extraction returned no identity fields")
)

// IsPermanent reports whether err is a permanent input error that must not
// be retried through the queue.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUnsupportedMedia) ||
		errors.Is(err, ErrEmptyExtraction) ||
		errors.Is(err, ErrEmptyAIResult)
}
