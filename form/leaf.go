package form

import (
	"context"
	"encoding"
	"errors"
	"io"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrymomot/formstream/limits"
)

// ValueBinder is implemented by custom types that bind from an inline value
// field. Implement it on a pointer receiver; the engine allocates a fresh
// value per binding attempt and calls the method on its address.
type ValueBinder interface {
	BindFormValue(f ValueField) (N, error)
}

// DataBinder is implemented by custom types that bind from a streamed data
// field. The implementation must drain the stream up to the limit it
// resolves from f.Env before returning; the stream cannot be replayed.
type DataBinder interface {
	BindFormData(ctx context.Context, f DataField) (N, error)
}

var (
	valueBinderType     = reflect.TypeOf((*ValueBinder)(nil)).Elem()
	dataBinderType      = reflect.TypeOf((*DataBinder)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
	timeType            = reflect.TypeOf(time.Time{})
	cappedMarkerType    = reflect.TypeOf((*cappedMarker)(nil)).Elem()
)

// leafOps is the from-value/from-data pair for one leaf type. The value op
// is required for text-bindable types; the data op is nil for types that
// cannot consume streamed input (the context reports those pushes as
// structurally unexpected). defaultInto, when non-nil, writes the type's
// never-supplied default and is consulted before a Missing error.
type leafOps struct {
	value       func(f ValueField, dst reflect.Value) (N, *Error)
	data        func(ctx context.Context, f DataField, dst reflect.Value) (N, *Error)
	defaultInto func(dst reflect.Value) bool
}

// Pinned layouts for the date, datetime-local and time HTML input types.
var timeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"15:04:05",
	"15:04",
}

// newLeafOps resolves the leaf binding for t, reporting false when t is not
// a leaf (and should be treated as a composite). Resolution order: custom
// ValueBinder/DataBinder implementations, time.Time, encoding
// TextUnmarshaler, then the built-in kinds.
func newLeafOps(t reflect.Type) (*leafOps, bool) {
	pt := reflect.PointerTo(t)

	if pt.Implements(valueBinderType) || pt.Implements(dataBinderType) {
		ops := &leafOps{}
		if pt.Implements(valueBinderType) {
			ops.value = func(f ValueField, dst reflect.Value) (N, *Error) {
				n, err := dst.Addr().Interface().(ValueBinder).BindFormValue(f)
				return n, asFormError(err, KindConversion)
			}
		}
		if pt.Implements(dataBinderType) {
			ops.data = func(ctx context.Context, f DataField, dst reflect.Value) (N, *Error) {
				n, err := dst.Addr().Interface().(DataBinder).BindFormData(ctx, f)
				return n, asFormError(err, KindIO)
			}
		}
		return ops, true
	}

	if t == timeType {
		return &leafOps{value: bindTime}, true
	}

	if pt.Implements(textUnmarshalerType) {
		return &leafOps{value: func(f ValueField, dst reflect.Value) (N, *Error) {
			err := dst.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(f.Value))
			if err != nil {
				return N{}, ConversionError(err)
			}
			return N{Written: limits.ByteSize(len(f.Value)), Complete: true}, nil
		}}, true
	}

	switch t.Kind() {
	case reflect.String:
		return &leafOps{value: bindString, data: bindStringData}, true
	case reflect.Bool:
		return &leafOps{
			value: bindBool,
			// The only built-in non-nil default: an absent checkbox is false.
			defaultInto: func(dst reflect.Value) bool { return true },
		}, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &leafOps{value: bindInt}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &leafOps{value: bindUint}, true
	case reflect.Float32, reflect.Float64:
		return &leafOps{value: bindFloat}, true
	}

	return nil, false
}

// asFormError normalizes an error from a custom binder. *Error values pass
// through untouched so custom binders control their own kinds; anything
// else is wrapped with the given fallback kind.
func asFormError(err error, fallback Kind) *Error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}
	if fallback == KindIO {
		return IOError(err)
	}
	return ConversionError(err)
}

func bindString(f ValueField, dst reflect.Value) (N, *Error) {
	dst.SetString(f.Value)
	return N{Written: limits.ByteSize(len(f.Value)), Complete: true}, nil
}

// bindStringData drains the stream as text under the "string" limit.
func bindStringData(ctx context.Context, f DataField, dst reflect.Value) (N, *Error) {
	if err := ctx.Err(); err != nil {
		return N{}, IOError(err)
	}
	limit := f.Env.FindLimit(limits.DefaultString, "string")
	b, n, err := readCapped(f.Data, limit)
	if err != nil {
		return n, IOError(err)
	}
	dst.SetString(string(b))
	return n, nil
}

func bindBool(f ValueField, dst reflect.Value) (N, *Error) {
	switch {
	case equalsAny(f.Value, "on", "yes", "true"):
		dst.SetBool(true)
	case equalsAny(f.Value, "off", "no", "false"):
		dst.SetBool(false)
	default:
		_, err := strconv.ParseBool(f.Value)
		if err == nil {
			// Tokens like "1" are deliberately not accepted; force the
			// ParseBoolError shape for a consistent cause.
			_, err = strconv.ParseBool("")
		}
		return N{}, ConversionError(err)
	}
	return N{Complete: true}, nil
}

func equalsAny(v string, tokens ...string) bool {
	for _, t := range tokens {
		if strings.EqualFold(v, t) {
			return true
		}
	}
	return false
}

func bindInt(f ValueField, dst reflect.Value) (N, *Error) {
	n, err := strconv.ParseInt(f.Value, 10, dst.Type().Bits())
	if err != nil {
		return N{}, ConversionError(err)
	}
	dst.SetInt(n)
	return N{Complete: true}, nil
}

func bindUint(f ValueField, dst reflect.Value) (N, *Error) {
	n, err := strconv.ParseUint(f.Value, 10, dst.Type().Bits())
	if err != nil {
		return N{}, ConversionError(err)
	}
	dst.SetUint(n)
	return N{Complete: true}, nil
}

func bindFloat(f ValueField, dst reflect.Value) (N, *Error) {
	n, err := strconv.ParseFloat(f.Value, dst.Type().Bits())
	if err != nil {
		return N{}, ConversionError(err)
	}
	dst.SetFloat(n)
	return N{Complete: true}, nil
}

func bindTime(f ValueField, dst reflect.Value) (N, *Error) {
	var lastErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, f.Value)
		if err == nil {
			dst.Set(reflect.ValueOf(t))
			return N{Complete: true}, nil
		}
		lastErr = err
	}
	return N{}, ConversionError(lastErr)
}

// readCapped reads at most limit bytes from r, reporting truncation by
// probing one byte past the limit. On truncation Written equals the limit
// exactly; the remainder of the stream is left for the transport to
// discard.
func readCapped(r io.Reader, limit limits.ByteSize) ([]byte, N, error) {
	b, err := io.ReadAll(io.LimitReader(r, int64(limit)+1))
	if err != nil {
		return nil, N{}, err
	}
	if limits.ByteSize(len(b)) > limit {
		return b[:limit], N{Written: limit, Complete: false}, nil
	}
	return b, N{Written: limits.ByteSize(len(b)), Complete: true}, nil
}
