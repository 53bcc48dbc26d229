// Package tempfile provides a form field sink that stages incoming data in
// temporary storage until it is persisted or discarded.
//
// A File binds either kind of field event: an inline value is buffered in
// memory, while a streamed data field is written to a staging file under the
// limit resolved for its content type. PersistTo moves the staged content to
// its final location; Discard releases it. A File never deletes itself —
// tie cleanup to the owning parse (form.Parser.Close) or call Discard
// explicitly.
//
// # Hazard
//
// Staging directories are commonly swept by system temp cleaners. A staged
// file may disappear between binding and persistence; the window is
// inherent to staging in shared temporary storage and is controlled by
// configuring a staging directory the cleaner leaves alone, not by this
// package.
package tempfile
