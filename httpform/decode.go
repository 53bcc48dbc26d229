package httpform

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/dmitrymomot/formstream/form"
	"github.com/dmitrymomot/formstream/limits"
)

// Option configures a single Decode call.
type Option func(*options)

type options struct {
	form  form.Options
	query bool
}

// WithStrict switches the parse to fail-fast semantics: unknown fields,
// duplicates and structural mismatches become errors.
func WithStrict() Option {
	return func(o *options) { o.form.Strict = true }
}

// WithQuery also feeds the request's query string into the parse, before
// the body. With first-wins semantics a query parameter takes precedence
// over a body field of the same name.
func WithQuery() Option {
	return func(o *options) { o.query = true }
}

// Decode binds the request body into a value of type T. The env supplies
// size limits and the staging directory; nil falls back to the built-in
// defaults.
//
// Supported media types are application/x-www-form-urlencoded and
// multipart/form-data. Anything else returns ErrUnsupportedMediaType.
func Decode[T any](r *http.Request, env *form.Env, opts ...Option) (T, error) {
	var zero T
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return zero, fmt.Errorf("%w: expected a form media type", ErrMissingContentType)
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return zero, fmt.Errorf("%w: malformed content type: %v", ErrInvalidBody, err)
	}

	p := form.New[T](o.form)
	defer p.Close()

	if o.query {
		pushPairs(p.PushValue, r.URL.RawQuery)
	}

	switch mediaType {
	case "application/x-www-form-urlencoded":
		body, err := readBody(r.Body, env.FindLimit(limits.DefaultForm, "form"))
		if err != nil {
			return zero, err
		}
		pushPairs(p.PushValue, string(body))
	case "multipart/form-data":
		if err := pushMultipart(r, p, env, params["boundary"]); err != nil {
			return zero, err
		}
	default:
		return zero, fmt.Errorf("%w: got %s", ErrUnsupportedMediaType, mediaType)
	}

	return p.Finalize()
}

// pushPairs splits urlencoded text into field events. The raw, pre-decoded
// value is preserved on each event for diagnostics; a value that fails
// percent-decoding is passed through as-is rather than dropped.
func pushPairs(push func(form.ValueField), raw string) {
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		rawName, rawValue, _ := strings.Cut(pair, "=")
		push(form.ValueField{
			Name:  form.Name(unescape(rawName)).View(),
			Value: unescape(rawValue),
			Raw:   rawValue,
		})
	}
}

func unescape(s string) string {
	out, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return out
}

// pushMultipart streams multipart parts into the parse. Parts that declare
// a file name or a content type become data fields and reach their binder
// as live streams; plain text parts are materialized into value events.
// The whole body, boundaries included, is capped by the "data-form" limit.
func pushMultipart[T any](r *http.Request, p *form.Parser[T], env *form.Env, boundary string) error {
	if boundary == "" {
		return fmt.Errorf("%w: multipart body without boundary", ErrInvalidBody)
	}

	body := &cappedReader{r: r.Body, remaining: int64(env.FindLimit(limits.DefaultDataForm, "data-form"))}
	mr := multipart.NewReader(body, boundary)
	ctx := r.Context()

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if body.overflowed {
				return ErrBodyTooLarge
			}
			return fmt.Errorf("%w: %v", ErrInvalidBody, err)
		}

		name := part.FormName()
		if name == "" {
			_ = part.Close()
			continue
		}

		partType := part.Header.Get("Content-Type")
		if part.FileName() == "" && partType == "" {
			value, err := io.ReadAll(part)
			_ = part.Close()
			if err != nil {
				if body.overflowed {
					return ErrBodyTooLarge
				}
				return fmt.Errorf("%w: %v", ErrInvalidBody, err)
			}
			p.PushValue(form.Value(name, string(value)))
			continue
		}

		mediaType, params, err := mime.ParseMediaType(partType)
		if err != nil {
			mediaType, params = partType, nil
		}
		data := io.Reader(part)
		if strings.HasPrefix(mediaType, "text/") {
			data = charsetReader(part, params["charset"])
		}
		p.PushData(ctx, form.DataField{
			Name:        form.Name(name).View(),
			FileName:    part.FileName(),
			ContentType: mediaType,
			Data:        data,
			Env:         env,
		})
		_ = part.Close()
		if body.overflowed {
			return ErrBodyTooLarge
		}
	}
}

// charsetReader decodes a text part into UTF-8 using the HTML repertoire of
// encodings. UTF-8 and ASCII pass through; an unknown charset label is left
// undecoded rather than failing the parse.
func charsetReader(r io.Reader, charset string) io.Reader {
	switch strings.ToLower(charset) {
	case "", "utf-8", "us-ascii":
		return r
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return r
	}
	return enc.NewDecoder().Reader(r)
}

// readBody reads the whole body, rejecting anything over the limit.
func readBody(r io.Reader, limit limits.ByteSize) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, int64(limit)+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	if limits.ByteSize(len(b)) > limit {
		return nil, ErrBodyTooLarge
	}
	return b, nil
}

// cappedReader stops reading at its limit and records whether the source
// still had data, so an oversized body is distinguishable from a clean EOF.
type cappedReader struct {
	r          io.Reader
	remaining  int64
	overflowed bool
}

func (c *cappedReader) Read(p []byte) (int, error) {
	if c.remaining <= 0 {
		var probe [1]byte
		if n, _ := c.r.Read(probe[:]); n > 0 {
			c.overflowed = true
			return 0, ErrBodyTooLarge
		}
		return 0, io.EOF
	}
	if int64(len(p)) > c.remaining {
		p = p[:c.remaining]
	}
	n, err := c.r.Read(p)
	c.remaining -= int64(n)
	return n, err
}
