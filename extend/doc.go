// SPDX-License-Identifier: MIT
// Package extend fills omitted values of a parameter along one ordered label
// (the "label to extend").
//
// Entries carrying the label are grouped by their other labels; each group is
// an independent line over the label grid. Walking the grid, every point after
// the first explicit point of a line that has no entry gets an auto entry
// holding the preceding point's value. Points before the first explicit point
// stay empty: there is no backward fill.
//
// With an Extrapolator (indexing), the carried value is transformed at every
// step instead of copied; RateTable implements the usual
// value * (1 + rate[preceding point]) rounded to cents and capped at 9e99.
//
// Stale decides which auto entries an adjustment invalidates, so that a new
// explicit value propagates forward on the next Plan.
//
// AI-Hints:
//   - The engine never mutates a store; callers merge Plan results and remove
//     Stale keys themselves, which keeps validation in between possible.
//   - Restrict limits the points that receive entries; values still advance
//     over the full grid, so indexing compounds over skipped points.
package extend
