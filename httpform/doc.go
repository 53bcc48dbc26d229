// Package httpform decodes HTTP request bodies into structs through the
// streaming form engine.
//
// Decode recognizes application/x-www-form-urlencoded and
// multipart/form-data, turns the body into ordered field events and feeds
// them to a form.Parser. Urlencoded bodies are read under the "form" limit;
// multipart bodies under "data-form", with file parts streamed to their
// binders rather than buffered.
//
//	type SignupForm struct {
//	    Name   string        `form:"name" validate:"required"`
//	    Avatar tempfile.File `form:"avatar"`
//	}
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//	    v, err := httpform.Decode[SignupForm](r, env)
//	    ...
//	}
//
// Binding failures come back as form.Errors with full field paths;
// transport-level problems (wrong media type, oversized body) come back as
// this package's sentinel errors.
package httpform
