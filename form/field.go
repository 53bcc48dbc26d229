package form

import (
	"io"

	"github.com/dmitrymomot/formstream/limits"
)

// Env carries the per-parse configuration a binder may consult while
// consuming a data field: the byte-size limit table and the staging
// directory for file-backed sinks. It is a read-only back-reference to the
// owning request; binders cannot mutate it.
type Env struct {
	// Limits is the keyed limit table, consulted with hierarchical keys
	// such as "file/png".
	Limits limits.Map
	// TempDir is the staging directory for streamed files. Empty means the
	// system default temporary directory.
	TempDir string
}

// FindLimit resolves a hierarchical limit key against the table, returning
// fallback when the key is absent. Safe on a nil Env.
func (e *Env) FindLimit(fallback limits.ByteSize, parts ...string) limits.ByteSize {
	if e == nil {
		return fallback
	}
	if b, ok := e.Limits.Find(parts...); ok {
		return b
	}
	return fallback
}

// ValueField is an inline field event: a name and its already-decoded text
// value. Raw preserves the text before percent-decoding for diagnostics.
// A ValueField is consumed synchronously and never persists past the parse.
type ValueField struct {
	Name  NameView
	Value string
	Raw   string
}

// Value constructs a ValueField from a raw path and decoded value. The raw
// text defaults to the decoded value; transport decoders that percent-decode
// should fill Raw themselves.
func Value(name, value string) ValueField {
	return ValueField{Name: Name(name).View(), Value: value, Raw: value}
}

// Shift returns the field with its name advanced past the current key, for
// routing to a child binder.
func (f ValueField) Shift() ValueField {
	f.Name = f.Name.Shift()
	return f
}

// Unexpected returns the structural-mismatch error for this field,
// annotated with its full path and value.
func (f ValueField) Unexpected() *Error {
	return NewError(KindUnexpected).
		WithEntity(EntityValueField).
		WithName(f.Name.Source()).
		WithValue(f.Value)
}

// unknown returns the unknown-field error for this field.
func (f ValueField) unknown() *Error {
	return NewError(KindUnknown).
		WithEntity(EntityValueField).
		WithName(f.Name.Source()).
		WithValue(f.Value)
}

// DataField is a streamed field event: a name, the declared content type,
// and the byte stream itself. The stream cannot be replayed; a binder's
// push must fully drain it (up to the resolved limit) or leave it for the
// transport to discard.
type DataField struct {
	Name NameView
	// FileName is the client-supplied file name, if any, unsanitized.
	FileName string
	// ContentType is the declared media type of the part, without
	// parameters.
	ContentType string
	// Data is the field's byte stream.
	Data io.Reader
	// Env is the read-only back-reference to per-parse configuration.
	Env *Env
}

// Shift returns the field with its name advanced past the current key.
func (f DataField) Shift() DataField {
	f.Name = f.Name.Shift()
	return f
}

// Unexpected returns the structural-mismatch error for this field.
func (f DataField) Unexpected() *Error {
	return NewError(KindUnexpected).
		WithEntity(EntityDataField).
		WithName(f.Name.Source())
}

// unknown returns the unknown-field error for this field.
func (f DataField) unknown() *Error {
	return NewError(KindUnknown).
		WithEntity(EntityDataField).
		WithName(f.Name.Source())
}
