// Package limits provides keyed byte-size limits for streaming form parsing.
//
// A limits.Map answers "how many bytes may this field consume" by key, with
// hierarchical fallback: Find("file", "png") tries "file/png" before "file".
// Keys are resolved by binders while draining data fields; the map itself is
// read-only during a parse.
//
// ByteSize parses human-readable sizes ("8KiB", "2MB"), which makes limit
// tables configurable through environment variables.
package limits
