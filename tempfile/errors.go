package tempfile

import "errors"

var (
	// ErrNotBound is returned when a File that never bound a field event is
	// persisted or opened.
	ErrNotBound = errors.New("tempfile: file not bound")
)
