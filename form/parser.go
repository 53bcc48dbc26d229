package form

import (
	"context"
	"fmt"
	"reflect"
)

// Options is the per-parse strictness policy. Strict parses reject unknown
// fields and duplicate bindings as hard errors; lenient parses silently
// ignore unknown fields and keep the first successful binding. Options are
// immutable for the lifetime of one parse.
type Options struct {
	Strict bool
}

// Parser binds one value of type T from a stream of field events.
//
// A parser is a single logical pipeline: pushes must be issued in the order
// events arrive, from one goroutine; PushValue never blocks, PushData may
// perform bounded I/O. Finalize consumes the parser. A parser abandoned
// before Finalize (client disconnect, handler error) should be Closed so
// staged resources such as temporary files are released.
type Parser[T any] struct {
	opts Options
	root binder
	done bool
}

// New returns a parser for T, compiling and caching its binding plan on
// first use. It panics when T violates the binding contract: not a
// bindable type, a struct with no bindable fields, duplicate declared field
// names, or a malformed validate tag. These are build-time defects of T,
// not runtime conditions.
func New[T any](opts Options) *Parser[T] {
	t := reflect.TypeOf((*T)(nil)).Elem()
	ctor, ok := binderConstructor(t)
	if !ok {
		panic(fmt.Sprintf("form: cannot bind %s", t))
	}
	return &Parser[T]{opts: opts, root: ctor(opts)}
}

// PushValue routes an inline field event into the parse. It must not be
// called after Finalize.
func (p *Parser[T]) PushValue(f ValueField) {
	p.check()
	p.root.pushValue(f)
}

// PushData routes a streamed field event into the parse, draining the
// field's stream up to its resolved limit. It must not be called after
// Finalize.
func (p *Parser[T]) PushData(ctx context.Context, f DataField) {
	p.check()
	p.root.pushData(ctx, f)
}

// Finalize consumes the parser and returns the bound value, or the ordered
// collection of everything that went wrong (as Errors). A non-nil error
// means no usable value: the returned T is the zero value.
func (p *Parser[T]) Finalize() (T, error) {
	p.check()
	p.done = true

	var out T
	rv := reflect.ValueOf(&out).Elem()
	if errs := p.root.finalize(rv); len(errs) > 0 {
		var zero T
		return zero, errs
	}
	return out, nil
}

// Close releases staged resources of a parse that was never finalized. It
// is a no-op after Finalize, so deferring it next to a normal Finalize is
// safe.
func (p *Parser[T]) Close() error {
	if !p.done {
		p.done = true
		p.root.discard()
	}
	return nil
}

func (p *Parser[T]) check() {
	if p.done {
		panic("form: parser used after Finalize")
	}
}
