package storage

import (
	"context"

	"github.com/dmitrymomot/formstream/tempfile"
)

// Storage persists staged form files to a durable backend.
type Storage interface {
	// Save persists a staged file under path, relative to the backend root.
	Save(ctx context.Context, f tempfile.File, path string) (*Object, error)

	// Delete removes a previously saved file.
	Delete(ctx context.Context, path string) error

	// Exists reports whether a file is present at path.
	Exists(ctx context.Context, path string) (bool, error)

	// URL returns the public URL for a saved file.
	URL(path string) string
}

// Object describes a saved file.
type Object struct {
	// Filename is the sanitized client-supplied name, "" if none was sent.
	Filename string

	// Path is the backend-relative location the file was saved under.
	Path string

	// Size is the stored content length in bytes.
	Size int64

	// ContentType is the declared media type, defaulting to
	// application/octet-stream.
	ContentType string
}

func objectFor(f tempfile.File, path string) *Object {
	obj := &Object{
		Path:        path,
		Size:        f.Len(),
		ContentType: "application/octet-stream",
	}
	if name, ok := f.FileName(); ok {
		obj.Filename = name
	}
	if ct, ok := f.ContentType(); ok {
		obj.ContentType = ct
	}
	return obj
}
