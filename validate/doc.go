// Package validate provides composable validation rules with per-field
// error attribution.
//
// Rules pair a check with the error reported when it fails; Apply runs a
// set of rules and returns the accumulated ValidationErrors, or nil when
// everything passed. The form package consumes these rules for
// `validate:"..."` struct tags and maps ValidationErrors returned from a
// type's Validate method onto full field paths.
package validate
