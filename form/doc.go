// Package form implements an incremental, streaming form-binding and
// validation engine for flat-key/indexed field streams, the shape produced by
// application/x-www-form-urlencoded and multipart/form-data request bodies.
//
// A transport decoder turns a request body into an ordered sequence of field
// events and pushes them into a Parser. Each event is either a ValueField
// (an inline, already-decoded text value) or a DataField (a named byte stream
// for large or binary content). Once the event sequence ends, Finalize
// produces either the fully-bound value or an ordered collection of errors,
// each located by its full field path and, where available, the raw value
// that produced it.
//
//	p := form.New[SignupForm](form.Options{Strict: true})
//	p.PushValue(form.Value("name", "Max"))
//	p.PushValue(form.Value("age", "3"))
//	v, err := p.Finalize()
//
// Field names address arbitrarily nested and indexed structures without
// pre-buffering: "tags[0].value" routes through the "tags" field, element
// "0", leaf "value". Events for sibling fields may interleave freely.
//
// # Binding targets
//
// Struct fields are matched by the `form:"..."` tag, falling back to the
// lower-cased Go field name; `form:"-"` skips a field. Supported leaf types
// are all integer and float widths, bool (the tokens on/yes/true and
// off/no/false, case-insensitive), string, time.Time (pinned YYYY-MM-DD,
// HH:MM[:SS] and combined layouts), any encoding.TextUnmarshaler, and types
// implementing ValueBinder/DataBinder. Slices bind indexed sequences,
// pointers mark optional fields, nested structs bind dotted paths, and
// Capped[T] makes stream truncation observable instead of fatal.
//
// # Strictness
//
// Options.Strict controls tolerance: strict parses reject unknown fields and
// duplicate bindings as hard errors; lenient parses drop unknown fields and
// keep the first successful binding. The "_method" key is always accepted
// and ignored to support method-override hidden inputs.
//
// # Errors
//
// Binding never fails fast across sibling fields: every failure is collected
// so a client can fix all problems in one round trip. See Kind for the error
// taxonomy.
package form
