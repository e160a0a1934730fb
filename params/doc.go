// Package params is the public face of paramspace: a set of parameters whose
// values vary over discrete, ordered labels, validated on every change.
//
// A Parameters value is built from a schema (see schema.LoadJSON and
// schema.LoadHCL). Its defaults are coerced and validated, and when the
// schema names a label to extend (typically a year) every parameter is
// carried forward along that label's grid, optionally grown by index rates.
//
// Mutations:
//
//	p.Adjust(adj)        // validate, merge, re-extend; all or nothing
//	p.Delete(adj)        // drop matching entries, refill the gaps
//	p.Extend(opts)       // fill gaps along any label
//	p.Transaction(fn)    // defer cross-parameter checks to the end of fn
//
// Reads take an explicit State that narrows them to some label values:
//
//	p.Specification(params.State{"year": {2019}})
//	p.ToArray("standard_deduction", nil)
//
// Validation problems come back as *ValidationError (errors.Is with
// ErrValidation or a validate.Err* kind); warnings never block unless
// WarningsAsErrors is passed.
package params
