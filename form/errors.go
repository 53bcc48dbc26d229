package form

import (
	"fmt"
	"strings"

	"github.com/dmitrymomot/formstream/limits"
)

// Kind classifies a binding error.
type Kind uint8

const (
	// KindMissing reports a required field that was never bound.
	KindMissing Kind = iota
	// KindDuplicate reports a field bound more than once under strict mode.
	KindDuplicate
	// KindUnknown reports an event whose path matches no declared field.
	KindUnknown
	// KindUnexpected reports a structural mismatch: a leaf received a still
	// nested path, or an event shape the type cannot consume.
	KindUnexpected
	// KindConversion reports a leaf parse failure; Cause holds the reason.
	KindConversion
	// KindValidation reports a post-bind validator rejection; Message holds
	// the reason.
	KindValidation
	// KindTruncated reports a stream cut off at Limit bytes by a type that
	// requires complete data.
	KindTruncated
	// KindIO reports an I/O failure while draining a data field.
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindDuplicate:
		return "duplicate"
	case KindUnknown:
		return "unknown"
	case KindUnexpected:
		return "unexpected"
	case KindConversion:
		return "conversion"
	case KindValidation:
		return "validation"
	case KindTruncated:
		return "truncated"
	case KindIO:
		return "io"
	default:
		return "invalid"
	}
}

// Entity identifies which part of the form an error refers to.
type Entity uint8

const (
	EntityForm Entity = iota
	EntityField
	EntityValueField
	EntityDataField
)

func (e Entity) String() string {
	switch e {
	case EntityForm:
		return "form"
	case EntityField:
		return "field"
	case EntityValueField:
		return "value field"
	case EntityDataField:
		return "data field"
	default:
		return "invalid"
	}
}

// Error is a single located binding failure.
//
// Name and Value annotations are monotonic: once set, typically by the
// binder closest to the failure, they are never overwritten by an enclosing
// binder. Enclosing binders only add annotations an error does not yet
// carry, which preserves the deepest and most precise diagnostic location.
type Error struct {
	// Kind classifies the failure.
	Kind Kind
	// Name is the full field path, or "" if not yet annotated.
	Name Name
	// Value is the raw value that produced the failure, or "" if not
	// captured.
	Value string
	// Entity is the part of the form the error refers to.
	Entity Entity
	// Cause holds the underlying error for KindConversion and KindIO.
	Cause error
	// Message holds the validator message for KindValidation.
	Message string
	// Limit holds the byte limit for KindTruncated.
	Limit limits.ByteSize
}

// NewError returns a bare error of the given kind with no annotations.
func NewError(kind Kind) *Error {
	return &Error{Kind: kind, Entity: EntityField}
}

// ConversionError returns a KindConversion error wrapping cause.
func ConversionError(cause error) *Error {
	return &Error{Kind: KindConversion, Entity: EntityField, Cause: cause}
}

// ValidationError returns a KindValidation error with the given message.
func ValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Entity: EntityField, Message: message}
}

// TruncatedError returns a KindTruncated error for a stream cut off at
// limit bytes.
func TruncatedError(limit limits.ByteSize) *Error {
	return &Error{Kind: KindTruncated, Entity: EntityDataField, Limit: limit}
}

// IOError returns a KindIO error wrapping cause.
func IOError(cause error) *Error {
	return &Error{Kind: KindIO, Entity: EntityDataField, Cause: cause}
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Name != "" {
		b.WriteString(string(e.Name))
		b.WriteString(": ")
	}
	switch e.Kind {
	case KindMissing:
		b.WriteString("missing required " + e.Entity.String())
	case KindDuplicate:
		b.WriteString("duplicate " + e.Entity.String())
	case KindUnknown:
		b.WriteString("unknown " + e.Entity.String())
	case KindUnexpected:
		b.WriteString("unexpected " + e.Entity.String())
	case KindConversion:
		fmt.Fprintf(&b, "invalid value: %v", e.Cause)
	case KindValidation:
		b.WriteString(e.Message)
	case KindTruncated:
		fmt.Fprintf(&b, "data truncated at %s", e.Limit)
	case KindIO:
		fmt.Fprintf(&b, "i/o error: %v", e.Cause)
	}
	if e.Value != "" {
		fmt.Fprintf(&b, " (value: %q)", e.Value)
	}
	return b.String()
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error { return e.Cause }

// WithName annotates the error with a field path unless one is already set.
func (e *Error) WithName(name Name) *Error {
	if e.Name == "" {
		e.Name = name
	}
	return e
}

// WithValue annotates the error with the offending raw value unless one is
// already captured.
func (e *Error) WithValue(value string) *Error {
	if e.Value == "" {
		e.Value = value
	}
	return e
}

// WithEntity tags the error with the form entity it refers to.
func (e *Error) WithEntity(entity Entity) *Error {
	e.Entity = entity
	return e
}

// Errors is an ordered collection of binding failures. Emptiness is the sole
// success/failure discriminant: a finalized parse never yields a non-empty
// Errors alongside a usable value.
type Errors []*Error

func (es Errors) Error() string {
	if len(es) == 0 {
		return "form binding failed"
	}
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.Error()
	}
	return "form binding failed: " + strings.Join(parts, "; ")
}

// WithName annotates every error in the collection, preserving already-set
// (deeper) paths.
func (es Errors) WithName(name Name) Errors {
	for _, e := range es {
		e.WithName(name)
	}
	return es
}

// WithValue annotates every error in the collection, preserving
// already-captured values.
func (es Errors) WithValue(value string) Errors {
	for _, e := range es {
		e.WithValue(value)
	}
	return es
}

// Has reports whether any error in the collection has the given kind.
func (es Errors) Has(kind Kind) bool {
	for _, e := range es {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

// For returns the errors annotated with the given field path.
func (es Errors) For(name Name) Errors {
	var out Errors
	for _, e := range es {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// lastIsUnexpected reports whether the most recent error is a structural
// mismatch, the condition under which a lenient parse swallows an outcome.
func (es Errors) lastIsUnexpected() bool {
	return len(es) > 0 && es[len(es)-1].Kind == KindUnexpected
}
