// Package ndarray provides a row-major N-dimensional container of label-typed
// values and the bridge between a parameter's value objects and that array.
//
// The bridge requires dense input: one entry per point of the cross product
// of the axis grids. Axis order is the declared label order and each axis is
// indexed in its label grid order, so FromArray(ToArray(vos)) returns the same
// set of label-key -> value pairs.
//
// Zero labels produce a 0-d array holding the single unlabeled value.
package ndarray
