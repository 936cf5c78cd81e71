// Package formdata converts flat string-valued form fields into typed values.
//
// Multipart requests carry every field as text. Clients send structured
// attributes (numbers, booleans, arrays, objects) as JSON-encoded strings,
// so each value is recovered by trying, in order:
//
//  1. a strict JSON literal parse (the whole value, nothing left over)
//  2. a decimal number parse of the trimmed value, kept only if finite
//  3. the original string, unchanged
//
// Coerce never fails and never adds or removes keys.
package formdata
