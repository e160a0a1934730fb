// Package paramspace is an in-memory store for parameter sets whose values
// vary over discrete, ordered labels (years, filing statuses, dates), with
// validation on every change and forward extension along a chosen label.
//
// 🚀 What is paramspace?
//
//	A thread-safe library, built around a declared schema, that brings together:
//		• Typed labels and parameters: int, float, bool, str, date and custom types
//		• Label grids: ranges with steps, or explicit choices
//		• Validation: range and choice bounds, references to other parameters,
//		  conditional (when) rules, warnings versus errors
//		• Extension: carry values forward along a label, optionally indexed by rates
//		• Array bridge: dense row-major arrays over the label grids, and back
//		• Transactions: defer cross-parameter checks, restore on failure
//
// ✨ Why paramspace?
//
//   - Atomic mutations: an adjustment applies completely or not at all
//   - Auto-filled values stay distinguishable from caller-supplied ones
//   - Schemas load from JSON or HCL and dump back to JSON
//
// Layout:
//
//	registry/ - value types, coercion and ordering
//	schema/   - schema model, JSON and HCL loaders, reference resolution
//	grid/     - label grids with a per-definition cache
//	values/   - value objects, queries and per-parameter stores
//	validate/ - bound resolution and validation reports
//	extend/   - extension plans and indexing
//	ndarray/  - dense arrays over label grids
//	params/   - the Parameters API: Adjust, Delete, Extend, Transaction, reads
//	cmd/paramspace/ - load, adjust and dump from the command line
//
// Quick example, a deduction known for two years on a 2017..2020 grid:
//
//	year: 2017   2018    2019     2020
//	sd:   6350   12000   12000*   12000*     (* extended)
//
// Adjusting 2019 to 15000 re-extends 2020 to 15000 and leaves 2017-2018 alone.
//
//	go get github.com/katalvlaran/paramspace/params
package paramspace
