// Package storage persists bound form files to durable storage.
//
// The Storage interface abstracts over local filesystem and Amazon
// S3-compatible backends. Both consume a tempfile.File produced by the form
// engine: the local backend moves the staged file into place without
// copying, the S3 backend streams it to the bucket.
//
//	store, err := storage.NewLocalStorage("./uploads", "/files")
//	...
//	obj, err := store.Save(ctx, v.Avatar, "avatars/"+userID)
//
// All paths are relative to the backend's root and validated against
// traversal.
package storage
