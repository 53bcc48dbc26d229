package form

import (
	"context"
	"reflect"
)

// sliceBinder binds an indexed sequence. Events are grouped into elements
// by their literal index key: consecutive events sharing a non-empty key
// ("tags[0].name", "tags[0].value") extend the current element, while a key
// change or an empty key ("tags[]") starts the next one. Index contents are
// grouping labels, not positions: elements appear in first-seen order.
type sliceBinder struct {
	opts      Options
	sliceType reflect.Type
	construct func(Options) binder

	entries  []sliceEntry
	lastKey  string
	haveLast bool
}

type sliceEntry struct {
	key string
	b   binder
}

func (s *sliceBinder) current(v NameView) binder {
	k := string(v.KeyLossy())
	if !s.haveLast || k == "" || k != s.lastKey {
		s.entries = append(s.entries, sliceEntry{key: k, b: s.construct(s.opts)})
	}
	s.lastKey, s.haveLast = k, true
	return s.entries[len(s.entries)-1].b
}

func (s *sliceBinder) pushValue(f ValueField) {
	s.current(f.Name).pushValue(f.Shift())
}

func (s *sliceBinder) pushData(ctx context.Context, f DataField) {
	s.current(f.Name).pushData(ctx, f.Shift())
}

// finalize collects every element in arrival order, merging all element
// failures. A sequence with zero events finalizes to its empty value, not
// Missing.
func (s *sliceBinder) finalize(into reflect.Value) Errors {
	out := reflect.MakeSlice(s.sliceType, len(s.entries), len(s.entries))

	var errs Errors
	bound := make([]bool, len(s.entries))
	for i, e := range s.entries {
		eerrs := e.b.finalize(out.Index(i))
		bound[i] = len(eerrs) == 0
		errs = append(errs, eerrs...)
	}
	if len(errs) > 0 {
		// Elements that did bind hold resources the caller will never
		// see; failed elements have already released their own.
		for i, ok := range bound {
			if ok {
				s.entries[i].b.discard()
			}
		}
		return errs
	}

	into.Set(out)
	return nil
}

func (s *sliceBinder) discard() {
	for _, e := range s.entries {
		e.b.discard()
	}
}
