package tempfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/google/uuid"

	"github.com/dmitrymomot/formstream/form"
	"github.com/dmitrymomot/formstream/limits"
)

// File is a form field bound to temporary storage. It is a small copyable
// handle over shared state, so the bound value and the struct it was bound
// into observe the same location after a persist.
//
// A File is either buffered (bound from an inline value, held in memory) or
// file-backed (streamed into the staging directory). Use it as a struct
// field directly, or as form.Capped[tempfile.File] to accept truncated
// uploads.
type File struct {
	s *state
}

type state struct {
	mu sync.Mutex

	fileName    string // sanitized client-supplied name, "" if none
	contentType string
	content     []byte // buffered content; nil when file-backed
	path        string // on-disk location; "" when buffered
	temporary   bool   // still in the staging directory
	size        int64
}

// BindFormValue buffers an inline value in memory. Implements
// form.ValueBinder.
func (f *File) BindFormValue(fld form.ValueField) (form.N, error) {
	f.s = &state{
		content: []byte(fld.Value),
		size:    int64(len(fld.Value)),
	}
	return form.N{Written: limits.ByteSize(len(fld.Value)), Complete: true}, nil
}

// BindFormData streams a data field into the staging directory, stopping at
// the limit resolved for the field's content type ("file/<ext>", then
// "file", then the built-in default). Implements form.DataBinder.
func (f *File) BindFormData(ctx context.Context, fld form.DataField) (form.N, error) {
	if err := ctx.Err(); err != nil {
		return form.N{}, err
	}

	limit := fld.Env.FindLimit(limits.DefaultFile, "file", contentTypeExt(fld.ContentType))

	dir := os.TempDir()
	if fld.Env != nil && fld.Env.TempDir != "" {
		dir = fld.Env.TempDir
	}

	path := filepath.Join(dir, "formstream-"+uuid.NewString())
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return form.N{}, fmt.Errorf("create staging file: %w", err)
	}

	written, err := io.Copy(out, io.LimitReader(fld.Data, int64(limit)))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return form.N{}, fmt.Errorf("stage field data: %w", err)
	}

	complete := true
	if limits.ByteSize(written) == limit {
		// Probe one byte past the limit to tell an exact fit from a cut-off.
		var probe [1]byte
		if n, _ := fld.Data.Read(probe[:]); n > 0 {
			complete = false
		}
	}

	f.s = &state{
		fileName:    SanitizeFilename(fld.FileName),
		contentType: fld.ContentType,
		path:        path,
		temporary:   true,
		size:        written,
	}
	return form.N{Written: limits.ByteSize(written), Complete: complete}, nil
}

// Len returns the size of the staged content in bytes, without system
// calls.
func (f File) Len() int64 {
	if f.s == nil {
		return 0
	}
	return f.s.size
}

// Path returns the file's on-disk location. It reports false for a
// buffered File that never touched storage; after a successful PersistTo
// it always reports true.
func (f File) Path() (string, bool) {
	if f.s == nil || f.s.path == "" {
		return "", false
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return f.s.path, true
}

// FileName returns the sanitized client-supplied file name, if one was
// sent. The name contains no path components, so it is safe to use as the
// final component of a destination path.
func (f File) FileName() (string, bool) {
	if f.s == nil || f.s.fileName == "" {
		return "", false
	}
	return f.s.fileName, true
}

// ContentType returns the declared content type of the field, if any.
func (f File) ContentType() (string, bool) {
	if f.s == nil || f.s.contentType == "" {
		return "", false
	}
	return f.s.contentType, true
}

// Open returns a reader over the staged content.
func (f File) Open() (io.ReadCloser, error) {
	if f.s == nil {
		return nil, ErrNotBound
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.path == "" {
		return io.NopCloser(bytes.NewReader(f.s.content)), nil
	}
	return os.Open(f.s.path)
}

// PersistTo moves the staged content to dst. A file-backed File is renamed
// (its staging entry is consumed, not copied); when source and destination
// sit on different filesystems the rename falls back to a blocking
// copy-and-replace. A buffered File is materialized by writing it out
// fresh. The new destination is recorded before any fallback work begins,
// so a concurrent or retried persist observes the same target; on failure
// the location state rolls back to what it was before the call, and the
// call can be retried without leaking or duplicating storage.
//
// Calling PersistTo again moves the file from its previous destination, not
// from the long-gone staging path.
func (f File) PersistTo(dst string) error {
	if f.s == nil {
		return ErrNotBound
	}
	s := f.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		if err := writeFileNew(dst, s.content); err != nil {
			return err
		}
		s.path, s.temporary = dst, false
		return nil
	}

	prev, prevTemp := s.path, s.temporary
	if prev == dst {
		return nil
	}
	s.path, s.temporary = dst, false

	err := os.Rename(prev, dst)
	if err != nil && errors.Is(err, syscall.EXDEV) {
		err = copyAndReplace(prev, dst)
	}
	if err != nil {
		s.path, s.temporary = prev, prevTemp
		return err
	}
	return nil
}

// Discard removes the staged file if it is still in the staging directory.
// Persisted or buffered content is left alone. Discard is idempotent.
func (f File) Discard() error {
	if f.s == nil {
		return nil
	}
	s := f.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.temporary || s.path == "" {
		return nil
	}
	err := os.Remove(s.path)
	s.path, s.temporary = "", false
	s.content = nil
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// writeFileNew creates dst and writes content, removing the partial file on
// failure.
func writeFileNew(dst string, content []byte) error {
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	_, err = out.Write(content)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dst)
		return err
	}
	return nil
}

// copyAndReplace copies src to dst and removes src, for renames across
// filesystem boundaries.
func copyAndReplace(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	_, err = io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dst)
		return err
	}
	return os.Remove(src)
}

// contentTypeExt maps a declared media type to the limit-key extension:
// the preferred registered extension when one is known, otherwise the bare
// subtype ("image/png" resolves to "png" either way).
func contentTypeExt(contentType string) string {
	if contentType == "" {
		return ""
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return strings.TrimPrefix(exts[0], ".")
	}
	if _, sub, ok := strings.Cut(contentType, "/"); ok {
		if idx := strings.IndexByte(sub, ';'); idx != -1 {
			sub = sub[:idx]
		}
		return strings.TrimSpace(sub)
	}
	return ""
}

// SanitizeFilename strips path components and control bytes from a
// client-supplied file name, so the result is safe as a single path
// element. Empty or degenerate names come back as "".
func SanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "\\", "/")
	filename = filepath.Base(filename)
	filename = strings.ReplaceAll(filename, "\x00", "")

	if filename == "." || filename == ".." || filename == "/" {
		return ""
	}
	return filename
}
