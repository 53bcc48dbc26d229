package limits

import (
	"fmt"
	"strconv"
	"strings"
)

// ByteSize is a size in bytes.
type ByteSize int64

// Common byte size units.
const (
	Byte ByteSize = 1
	KiB           = 1024 * Byte
	MiB           = 1024 * KiB
	GiB           = 1024 * MiB

	KB = 1000 * Byte
	MB = 1000 * KB
	GB = 1000 * MB
)

// Default limits for well-known field keys.
const (
	DefaultForm     = 32 * KiB // urlencoded body
	DefaultDataForm = 2 * MiB  // multipart body
	DefaultString   = 8 * KiB  // streamed text field
	DefaultFile     = 1 * MiB  // streamed file field
)

var units = []struct {
	suffix string
	size   ByteSize
}{
	{"GiB", GiB}, {"MiB", MiB}, {"KiB", KiB},
	{"GB", GB}, {"MB", MB}, {"KB", KB},
	{"B", Byte},
}

// String renders the size using the largest binary unit that divides it
// evenly, falling back to plain bytes.
func (b ByteSize) String() string {
	for _, u := range []struct {
		suffix string
		size   ByteSize
	}{{"GiB", GiB}, {"MiB", MiB}, {"KiB", KiB}} {
		if b >= u.size && b%u.size == 0 {
			return strconv.FormatInt(int64(b/u.size), 10) + u.suffix
		}
	}
	return strconv.FormatInt(int64(b), 10) + "B"
}

// UnmarshalText parses a size like "8KiB", "2MB" or "512". Unit suffixes are
// case-insensitive; a bare number is bytes. Implements encoding.TextUnmarshaler
// so ByteSize fields work with env-based configuration.
func (b *ByteSize) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" {
		return fmt.Errorf("limits: empty byte size")
	}

	for _, u := range units {
		if strings.EqualFold(s[max(0, len(s)-len(u.suffix)):], u.suffix) && len(s) > len(u.suffix) {
			n, err := strconv.ParseInt(strings.TrimSpace(s[:len(s)-len(u.suffix)]), 10, 64)
			if err != nil {
				return fmt.Errorf("limits: invalid byte size %q", s)
			}
			*b = ByteSize(n) * u.size
			return nil
		}
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("limits: invalid byte size %q", s)
	}
	*b = ByteSize(n)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (b ByteSize) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// Map holds named byte-size limits. The zero value is usable and resolves
// nothing; use Default for the standard table. A Map must not be mutated
// while a parse is in flight.
type Map map[string]ByteSize

// Default returns the standard limit table.
func Default() Map {
	return Map{
		"form":      DefaultForm,
		"data-form": DefaultDataForm,
		"string":    DefaultString,
		"file":      DefaultFile,
	}
}

// Get returns the limit for key, if one is set.
func (m Map) Get(key string) (ByteSize, bool) {
	b, ok := m[key]
	return b, ok
}

// Find resolves a hierarchical key, most specific first: Find("file", "png")
// tries "file/png", then "file".
func (m Map) Find(parts ...string) (ByteSize, bool) {
	for i := len(parts); i > 0; i-- {
		if b, ok := m[strings.Join(parts[:i], "/")]; ok {
			return b, true
		}
	}
	return 0, false
}

// With returns a copy of the map with key set to size. The receiver is not
// modified, so a shared default table stays immutable.
func (m Map) With(key string, size ByteSize) Map {
	out := make(Map, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[key] = size
	return out
}
