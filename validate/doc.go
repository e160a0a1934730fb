// Package validate checks candidate value objects of a parameter against the
// schema: label and value coercion, number_dims shape, and the range,
// date_range, choice and when validators.
//
// Validation never stops at the first problem. Every candidate is checked and
// each failure becomes a Message in a Report, filed under the parameter name
// as an error or, for validators declared with level "warn", as a warning.
// Turning a Report into a returned error is left to the caller.
//
// Bounds that name another parameter are resolved per candidate: entries of
// the referenced parameter are taken from the in-flight batch, then from the
// current values, then from its defaults, keeping only entries that agree with
// the candidate on every label they carry. Bounds are inclusive and array
// values compare leaf by leaf.
package validate
