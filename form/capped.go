package form

import "github.com/dmitrymomot/formstream/limits"

// N records how many bytes a stream operation wrote and whether it consumed
// the stream completely. When Complete is false the stream was cut off at
// the active limit, so Written equals that limit exactly.
type N struct {
	Written  limits.ByteSize
	Complete bool
}

// Capped wraps a streamed-into value together with whether its source
// stream was truncated. Truncation is an observable, non-fatal outcome:
// binding a Capped[T] field succeeds even when the data exceeded the limit,
// and the caller decides whether the truncation is acceptable. Binding the
// bare T instead turns the same truncation into a KindTruncated error.
type Capped[T any] struct {
	Value T
	N     N
}

// NewCapped wraps a value with its stream accounting.
func NewCapped[T any](value T, n N) Capped[T] {
	return Capped[T]{Value: value, N: n}
}

// IsComplete reports whether the source stream was fully consumed.
func (c Capped[T]) IsComplete() bool { return c.N.Complete }

// Discard forwards resource cleanup to the wrapped value, if it owns any.
func (c Capped[T]) Discard() error {
	if h, ok := any(c.Value).(interface{ Discard() error }); ok {
		return h.Discard()
	}
	return nil
}

// cappedForm marks Capped instantiations for reflection-based dispatch.
func (Capped[T]) cappedForm() {}

type cappedMarker interface{ cappedForm() }
