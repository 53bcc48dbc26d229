package form

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/dmitrymomot/formstream/validate"
)

// Validator is implemented by bound types that carry struct-level
// validation, run after every field bound successfully. Returning
// validate.ValidationErrors attributes each entry to its field path; any
// other error is reported against the form as a whole.
type Validator interface {
	Validate() error
}

var validatorType = reflect.TypeOf((*Validator)(nil)).Elem()

// structPlan is the compile-once dispatch table for one struct type: an
// ordered list of declared fields, each with its normalized name and child
// binder constructor. Plans are cached per type; contract violations (not a
// struct, no bindable fields, duplicate names, unsupported field types,
// malformed validate tags) panic at plan build, never at parse time.
type structPlan struct {
	typ       reflect.Type
	fields    []planField
	byName    map[string]int
	validated bool
}

type planField struct {
	name        string
	index       int
	typ         reflect.Type
	construct   func(Options) binder
	defaultInto func(dst reflect.Value) bool // nil: field is required
	rules       []fieldRule
}

var plans sync.Map // reflect.Type -> *structPlan

func planFor(t reflect.Type) *structPlan {
	if p, ok := plans.Load(t); ok {
		return p.(*structPlan)
	}
	p, _ := plans.LoadOrStore(t, compilePlan(t))
	return p.(*structPlan)
}

func compilePlan(t reflect.Type) *structPlan {
	if t.Kind() != reflect.Struct {
		panic(fmt.Sprintf("form: cannot bind %s: not a struct", t))
	}

	p := &structPlan{
		typ:       t,
		byName:    make(map[string]int),
		validated: reflect.PointerTo(t).Implements(validatorType),
	}

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name, skip := fieldName(sf)
		if skip {
			continue
		}
		if _, dup := p.byName[name]; dup {
			panic(fmt.Sprintf("form: duplicate field name %q in %s", name, t))
		}
		ctor, ok := binderConstructor(sf.Type)
		if !ok {
			panic(fmt.Sprintf("form: unsupported type %s for field %s.%s", sf.Type, t, sf.Name))
		}
		p.byName[name] = len(p.fields)
		p.fields = append(p.fields, planField{
			name:        name,
			index:       i,
			typ:         sf.Type,
			construct:   ctor,
			defaultInto: defaultFor(sf.Type),
			rules:       compileRules(t, sf),
		})
	}

	if len(p.fields) == 0 {
		panic(fmt.Sprintf("form: %s declares no bindable fields", t))
	}
	return p
}

// fieldName resolves the declared name from the `form` tag, falling back to
// the lower-cased Go field name.
func fieldName(sf reflect.StructField) (name string, skip bool) {
	tag := sf.Tag.Get("form")
	if tag == "" {
		return strings.ToLower(sf.Name), false
	}
	if tag == "-" {
		return "", true
	}
	if idx := strings.IndexByte(tag, ','); idx != -1 {
		tag = tag[:idx]
	}
	return tag, false
}

// isLeafType reports whether t binds as a single field, unwrapping a Capped
// declaration first.
func isLeafType(t reflect.Type) bool {
	if t.Implements(cappedMarkerType) && t.Kind() == reflect.Struct {
		t = t.Field(0).Type
	}
	_, ok := newLeafOps(t)
	return ok
}

// binderConstructor resolves the child binder constructor for a declared
// field type. Leaves take priority, so a struct with a leaf binding (such
// as time.Time or a ValueBinder implementation) is never treated as a
// composite.
func binderConstructor(t reflect.Type) (func(Options) binder, bool) {
	if isLeafType(t) {
		return func(o Options) binder {
			c, _ := newFieldContext(t, o)
			return c
		}, true
	}

	switch t.Kind() {
	case reflect.Pointer:
		elem, ok := binderConstructor(t.Elem())
		if !ok {
			return nil, false
		}
		elemType := t.Elem()
		return func(o Options) binder {
			return &optionBinder{opts: o, elemType: elemType, construct: elem}
		}, true

	case reflect.Slice:
		elem, ok := binderConstructor(t.Elem())
		if !ok {
			return nil, false
		}
		sliceType := t
		return func(o Options) binder {
			return &sliceBinder{opts: o, sliceType: sliceType, construct: elem}
		}, true

	case reflect.Struct:
		// Plan resolution is deferred to construction so self-referential
		// types compile.
		return func(o Options) binder {
			return newStructBinder(planFor(t), o)
		}, true
	}

	return nil, false
}

// defaultFor returns the never-supplied default for a declared type, or nil
// when absence must be reported as Missing. Optionals default to nil,
// sequences to their empty value, and leaves to whatever their binding
// declares (only bool has one).
func defaultFor(t reflect.Type) func(dst reflect.Value) bool {
	if isLeafType(t) {
		if c, ok := newFieldContext(t, Options{}); ok && !c.capped && c.ops.defaultInto != nil {
			return c.ops.defaultInto
		}
		return nil
	}
	switch t.Kind() {
	case reflect.Pointer, reflect.Slice:
		return func(reflect.Value) bool { return true }
	}
	return nil
}

// structBinder fans field events out to per-field child binders by matching
// the leading path key, then merges every child's result at finalize.
type structBinder struct {
	opts      Options
	plan      *structPlan
	children []binder
	errors   Errors
	parent   Name
}

func newStructBinder(p *structPlan, o Options) *structBinder {
	return &structBinder{opts: o, plan: p, children: make([]binder, len(p.fields))}
}

func (s *structBinder) child(i int) binder {
	if s.children[i] == nil {
		s.children[i] = s.plan.fields[i].construct(s.opts)
	}
	return s.children[i]
}

// route matches the event's leading key against declared fields. The
// "_method" key is always accepted and ignored to support method-override
// hidden inputs.
func (s *structBinder) route(v NameView) (int, bool) {
	s.parent = v.Parent()
	if i, ok := s.plan.byName[string(v.KeyLossy())]; ok {
		return i, true
	}
	return 0, false
}

func (s *structBinder) pushValue(f ValueField) {
	if i, ok := s.route(f.Name); ok {
		s.child(i).pushValue(f.Shift())
		return
	}
	if f.Name.KeyLossy() == "_method" || !s.opts.Strict {
		return
	}
	s.errors = append(s.errors, f.unknown())
}

func (s *structBinder) pushData(ctx context.Context, f DataField) {
	if i, ok := s.route(f.Name); ok {
		s.child(i).pushData(ctx, f.Shift())
		return
	}
	if f.Name.KeyLossy() == "_method" || !s.opts.Strict {
		return
	}
	s.errors = append(s.errors, f.unknown())
}

func (s *structBinder) finalize(into reflect.Value) Errors {
	errs := s.errors
	bound := make([]bool, len(s.plan.fields))

	for i := range s.plan.fields {
		pf := &s.plan.fields[i]
		target := into.Field(pf.index)

		var ferrs Errors
		if c := s.children[i]; c != nil {
			ferrs = c.finalize(target)
			bound[i] = len(ferrs) == 0
		} else if pf.defaultInto == nil || !pf.defaultInto(target) {
			ferrs = Errors{NewError(KindMissing)}
		}
		if len(ferrs) > 0 {
			// Children annotate with their deepest known path; only errors
			// without one (e.g. Missing) pick up the declared location.
			errs = append(errs, ferrs.WithName(joinName(s.parent, pf.name))...)
		}
	}

	// An invalid form never reaches its validators.
	if len(errs) > 0 {
		s.discardBound(bound)
		return errs
	}

	for i := range s.plan.fields {
		pf := &s.plan.fields[i]
		name := joinName(s.parent, pf.name)
		for _, rule := range pf.rules {
			if e := rule(name, into.Field(pf.index)); e != nil {
				errs = append(errs, e)
			}
		}
	}

	if s.plan.validated {
		errs = append(errs, structValidation(into, s.parent)...)
	}

	if len(errs) > 0 {
		s.discardBound(bound)
	}
	return errs
}

// discardBound releases resources staged into fields that finalized
// successfully when the value as a whole will never reach the caller.
// Failed children have already released their own.
func (s *structBinder) discardBound(bound []bool) {
	for i, ok := range bound {
		if ok {
			s.children[i].discard()
		}
	}
}

func (s *structBinder) discard() {
	for _, c := range s.children {
		if c != nil {
			c.discard()
		}
	}
}

// structValidation runs the bound value's Validate method and maps its
// result into located form errors.
func structValidation(v reflect.Value, parent Name) Errors {
	err := v.Addr().Interface().(Validator).Validate()
	if err == nil {
		return nil
	}

	var ves validate.ValidationErrors
	if errors.As(err, &ves) {
		out := make(Errors, 0, len(ves))
		for _, ve := range ves {
			e := ValidationError(ve.Message)
			if ve.Field != "" {
				e.WithName(joinName(parent, ve.Field))
			} else {
				e.WithEntity(EntityForm)
			}
			out = append(out, e)
		}
		return out
	}

	var fe *Error
	if errors.As(err, &fe) {
		return Errors{fe}
	}
	var fes Errors
	if errors.As(err, &fes) {
		return fes
	}

	return Errors{ValidationError(err.Error()).WithEntity(EntityForm)}
}

// optionBinder makes a field optional: a *T finalizes to nil when never
// supplied, and a failing child is swallowed rather than surfaced, which
// matches best-effort parsing of optional controls.
type optionBinder struct {
	opts      Options
	elemType  reflect.Type
	construct func(Options) binder
	elem      binder
}

func (o *optionBinder) ensure() binder {
	if o.elem == nil {
		o.elem = o.construct(o.opts)
	}
	return o.elem
}

func (o *optionBinder) pushValue(f ValueField) {
	o.ensure().pushValue(f)
}

func (o *optionBinder) pushData(ctx context.Context, f DataField) {
	o.ensure().pushData(ctx, f)
}

func (o *optionBinder) finalize(into reflect.Value) Errors {
	if o.elem == nil {
		return nil
	}
	scratch := reflect.New(o.elemType)
	if errs := o.elem.finalize(scratch.Elem()); len(errs) > 0 {
		return nil
	}
	into.Set(scratch)
	return nil
}

func (o *optionBinder) discard() {
	if o.elem != nil {
		o.elem.discard()
	}
}
