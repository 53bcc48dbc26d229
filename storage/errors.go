package storage

import "errors"

var (
	// ErrInvalidConfig is returned when a backend is constructed with incomplete configuration
	ErrInvalidConfig = errors.New("invalid storage configuration")

	// ErrInvalidPath is returned when the path contains traversal attempts or escapes the root
	ErrInvalidPath = errors.New("invalid path")

	// ErrFileNotFound is returned when a file does not exist
	ErrFileNotFound = errors.New("file not found")

	// ErrFailedToSaveFile is returned when a file cannot be persisted
	ErrFailedToSaveFile = errors.New("failed to save file")

	// ErrFailedToDeleteFile is returned when a file cannot be deleted
	ErrFailedToDeleteFile = errors.New("failed to delete file")

	// ErrFailedToCreateDirectory is returned when a directory cannot be created
	ErrFailedToCreateDirectory = errors.New("failed to create directory")
)
