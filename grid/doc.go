// Package grid derives the ordered, finite domain ("label grid") of a label
// from its validator.
//
//   - range / date_range: min, min+step, ... up to max; max is part of the grid
//     only when it falls on a step boundary. The default step is 1 (one day
//     for dates). Float grids are generated as min+i*step to avoid drift, and
//     a point within DefaultEpsilon*step of max snaps to max.
//   - choice: the declared list in declared order. That order is the carry-
//     forward and indexing order; it is never re-sorted.
//
// A Builder caches grids per label. The cache key is a fingerprint of the
// label definition, so a changed validator recomputes the grid on next use.
// The cache is a derived view and never a source of truth.
package grid
