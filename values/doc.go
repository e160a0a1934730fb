// Package values implements the per-parameter Value Store.
//
// A ValueObject pairs a set of label assignments with a value:
//
//	{"year": 2019, "marital_status": "single", "value": 12000}
//
// Labels are every key except "value" and the reserved "_auto" marker. The
// canonical label key (LabelKey) is the sorted "name=value" list over those
// labels; within one Store no two entries share a label key.
//
// Store operations:
//   - Match: indices of entries agreeing on every label of a (possibly partial) key.
//   - Merge: overwrite matches in place, delete on a nil value, append otherwise.
//     An unlabeled ValueObject broadcasts over every existing entry.
//   - Select: read-side filtering with eq/ne/gt/gte/lt/lte operators.
//   - Sort: stable reorder by a caller-supplied comparator (label grid order).
//   - Clone/Restore: deep snapshots used by transactions.
//
// Values stored here are expected to be coerced already (see package registry):
// equality is by canonical key, so int64(1) and float64(1) are distinct.
//
// A Store is not safe for concurrent mutation.
package values
