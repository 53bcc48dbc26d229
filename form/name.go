package form

import "strings"

// Name is a complete field path as it appeared on the wire, such as
// "tags[0].value". A Name is immutable; binders navigate it through cheap
// NameView windows instead of re-slicing strings.
type Name string

// Key is one decomposed path segment: a plain identifier ("tags", "value")
// or an index ("0"). Bracket keys may carry multiple colon-separated indices
// ("k:v"), exposed through Indices.
type Key string

// Indices splits the key on ':' for index-pair addressing. A plain key
// yields itself as the only index.
func (k Key) Indices() []string {
	return strings.Split(string(k), ":")
}

// View returns a NameView positioned at the first key of the name.
func (n Name) View() NameView {
	return scanView(n, 0)
}

// String returns the raw path text.
func (n Name) String() string { return string(n) }

// NameView is a non-owning window over a Name, positioned at one key. A
// composite binder matches the current key against its declared fields and
// passes the shifted view to the child, so every binder sees only its local
// suffix without reallocation.
type NameView struct {
	name Name
	raw  int  // start of the current key's raw token, including '['
	next int  // start of the following key's raw token
	key  Key  // decoded current key
	ok   bool // false once the view is exhausted
}

// scanView decodes the key starting at pos. Keys are separated by '.' and
// '[...]' brackets; each bracket produces its own key ("a.b[0]" decomposes
// into "a", "b", "0"). A malformed tail (an unclosed bracket) degrades to a
// single opaque key rather than failing: the binder decides relevance, not
// the path scanner.
func scanView(n Name, pos int) NameView {
	s := string(n)
	if pos >= len(s) {
		return NameView{name: n, raw: pos, next: pos}
	}

	if s[pos] == '[' {
		end := strings.IndexByte(s[pos:], ']')
		if end < 0 {
			return NameView{name: n, raw: pos, next: len(s), key: Key(s[pos:]), ok: true}
		}
		end += pos
		next := end + 1
		if next < len(s) && s[next] == '.' {
			next++
		}
		return NameView{name: n, raw: pos, next: next, key: Key(s[pos+1 : end]), ok: true}
	}

	end := pos
	for end < len(s) && s[end] != '.' && s[end] != '[' {
		end++
	}
	next := end
	if next < len(s) && s[next] == '.' {
		next++
	}
	return NameView{name: n, raw: pos, next: next, key: Key(s[pos:end]), ok: true}
}

// Key returns the current key. ok is false when the view is exhausted, which
// is how a leaf binder distinguishes "path consumed" from "still nested".
func (v NameView) Key() (Key, bool) {
	return v.key, v.ok
}

// KeyLossy returns the current key, or "" when the view is exhausted. This
// is the normalized form composite binders match against declared field
// names.
func (v NameView) KeyLossy() Key {
	return v.key
}

// Shift returns the view advanced past the current key. Shifting an
// exhausted view is a no-op.
func (v NameView) Shift() NameView {
	if !v.ok {
		return v
	}
	return scanView(v.name, v.next)
}

// Parent returns the path up to, but excluding, the current key. It is ""
// for a view still at the first key.
func (v NameView) Parent() Name {
	p := string(v.name[:v.raw])
	p = strings.TrimSuffix(p, ".")
	return Name(p)
}

// Source returns the complete, unshifted path. Error annotations use the
// source so diagnostics always carry the full field location.
func (v NameView) Source() Name { return v.name }

func (v NameView) String() string { return string(v.name) }

// joinName appends a declared field name to a parent path for diagnostics on
// fields that never produced an event of their own.
func joinName(parent Name, field string) Name {
	if parent == "" {
		return Name(field)
	}
	return parent + "." + Name(field)
}
