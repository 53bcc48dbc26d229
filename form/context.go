package form

import (
	"context"
	"reflect"
)

// binder is the per-parse context behind one declared field position. A
// binder is created lazily on the first matching event, mutated by pushes
// in event order, and consumed exactly once by finalize. discard releases
// any staged resources of a parse that will never be finalized.
type binder interface {
	pushValue(f ValueField)
	pushData(ctx context.Context, f DataField)
	finalize(into reflect.Value) Errors
	discard()
}

// resourceHolder is implemented by bound values that own external resources
// (such as a staged temporary file) and need explicit cleanup when their
// parse is abandoned.
type resourceHolder interface {
	Discard() error
}

// leafResult is one binding attempt's outcome.
type leafResult struct {
	val  reflect.Value
	errs Errors
}

func (r *leafResult) ok() bool { return len(r.errs) == 0 }

// fieldContext accumulates pushes for a single leaf field. Only the first
// authoritative attempt is honored; under lenient options a later attempt
// that fails structurally (Unexpected) is dropped rather than allowed to
// displace a real outcome, so the first non-Unexpected outcome stays
// authoritative. The attempt counter counts every push regardless, which is
// what distinguishes "never supplied" from "supplied more than once" at
// finalize time.
type fieldContext struct {
	opts   Options
	typ    reflect.Type // declared type, possibly Capped[inner]
	inner  reflect.Type
	capped bool
	ops    *leafOps

	name     NameView
	hasName  bool
	value    string
	hasValue bool
	result   *leafResult
	pushes   int
}

// newFieldContext returns a leaf binder for t, reporting false when t has
// no leaf binding.
func newFieldContext(t reflect.Type, opts Options) (*fieldContext, bool) {
	inner, capped := t, false
	if t.Implements(cappedMarkerType) && t.Kind() == reflect.Struct {
		inner, capped = t.Field(0).Type, true
	}
	ops, ok := newLeafOps(inner)
	if !ok {
		return nil, false
	}
	return &fieldContext{opts: opts, typ: t, inner: inner, capped: capped, ops: ops}, true
}

// canPush increments the attempt counter and reports whether an outcome is
// still pending.
func (c *fieldContext) canPush() bool {
	c.pushes++
	return c.result == nil
}

// push records an attempt's outcome under first-wins semantics. A lenient
// parse swallows structurally-unexpected failures so stray form controls do
// not poison an otherwise-bindable field.
func (c *fieldContext) push(name NameView, r leafResult) {
	c.name, c.hasName = name, true
	if !c.opts.Strict && r.errs.lastIsUnexpected() {
		return
	}
	c.result = &r
}

// wrap boxes a successful attempt into the declared type, recording stream
// accounting on Capped targets.
func (c *fieldContext) wrap(scratch reflect.Value, n N) reflect.Value {
	if !c.capped {
		return scratch
	}
	cv := reflect.New(c.typ).Elem()
	cv.Field(0).Set(scratch)
	cv.Field(1).Set(reflect.ValueOf(n))
	return cv
}

func (c *fieldContext) pushValue(f ValueField) {
	if !c.canPush() {
		return
	}
	c.value, c.hasValue = f.Value, true

	if _, nested := f.Name.Key(); nested || c.ops.value == nil {
		c.push(f.Name, leafResult{errs: Errors{f.Unexpected()}})
		return
	}

	scratch := reflect.New(c.inner).Elem()
	n, ferr := c.ops.value(f, scratch)
	c.push(f.Name, c.outcome(scratch, n, ferr))
}

func (c *fieldContext) pushData(ctx context.Context, f DataField) {
	if !c.canPush() {
		return
	}

	if _, nested := f.Name.Key(); nested || c.ops.data == nil {
		c.push(f.Name, leafResult{errs: Errors{f.Unexpected()}})
		return
	}

	scratch := reflect.New(c.inner).Elem()
	n, ferr := c.ops.data(ctx, f, scratch)
	c.push(f.Name, c.outcome(scratch, n, ferr))
}

// outcome classifies one attempt: a binding error, a truncated stream on a
// type that demands complete data, or a bound value.
func (c *fieldContext) outcome(scratch reflect.Value, n N, ferr *Error) leafResult {
	switch {
	case ferr != nil:
		return leafResult{errs: Errors{ferr}}
	case !n.Complete && !c.capped:
		// The type demands complete data: the attempt is rejected and any
		// resource it staged is released.
		discardValue(scratch)
		return leafResult{errs: Errors{TruncatedError(n.Written)}}
	default:
		return leafResult{val: c.wrap(scratch, n)}
	}
}

// finalize resolves the field: exactly one successful attempt wins; a field
// never supplied falls back to the type's default before being reported
// Missing; strict mode reports Duplicate when more than one attempt
// occurred even if each succeeded individually.
func (c *fieldContext) finalize(into reflect.Value) Errors {
	var errs Errors
	switch r := c.result; {
	case r != nil && r.ok() && (!c.opts.Strict || c.pushes <= 1):
		into.Set(r.val)
		return nil
	case r != nil && r.ok():
		c.discard()
		errs = Errors{NewError(KindDuplicate)}
	case r != nil:
		errs = r.errs
	default:
		if !c.capped && c.ops.defaultInto != nil && c.ops.defaultInto(into) {
			return nil
		}
		errs = Errors{NewError(KindMissing)}
	}

	if c.hasName {
		errs.WithName(c.name.Source())
	}
	if c.hasValue {
		errs.WithValue(c.value)
	}
	return errs
}

func (c *fieldContext) discard() {
	if c.result == nil || !c.result.ok() || !c.result.val.IsValid() {
		return
	}
	discardValue(c.result.val)
}

func discardValue(v reflect.Value) {
	if h, ok := v.Interface().(resourceHolder); ok {
		_ = h.Discard()
		return
	}
	if v.CanAddr() {
		if h, ok := v.Addr().Interface().(resourceHolder); ok {
			_ = h.Discard()
		}
	}
}
