// SPDX-License-Identifier: MIT

package values

import (
	"fmt"
	"slices"
	"sort"
)

// MergeOptions controls Store.Merge.
type MergeOptions struct {
	// Clobber allows caller-supplied (non-auto) entries to be overwritten or
	// deleted. With Clobber=false only Auto entries are touched.
	Clobber bool
}

// MergeResult counts what a Merge did.
type MergeResult struct {
	Updated  int
	Deleted  int
	Appended int
	// Skipped counts matching caller-supplied entries left untouched
	// because Clobber was false.
	Skipped int
}

// Store is the ordered collection of ValueObjects of one parameter.
// Insertion order is preserved until Sort is called.
type Store struct {
	vos []ValueObject
}

// NewStore builds a store from vos in the given order.
// Returns ErrDuplicateKey if two entries share a label key.
func NewStore(vos ...ValueObject) (*Store, error) {
	s := &Store{vos: make([]ValueObject, 0, len(vos))}
	seen := make(map[string]struct{}, len(vos))
	for _, vo := range vos {
		key := vo.LabelKey()
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("values: %s: %w", vo.LabelString(), ErrDuplicateKey)
		}
		seen[key] = struct{}{}
		s.vos = append(s.vos, vo.Clone())
	}

	return s, nil
}

// Len returns the number of entries.
func (s *Store) Len() int { return len(s.vos) }

// At returns a copy of entry i.
func (s *Store) At(i int) ValueObject { return s.vos[i].Clone() }

// All returns deep copies of every entry in store order.
func (s *Store) All() []ValueObject {
	out := make([]ValueObject, len(s.vos))
	for i, vo := range s.vos {
		out[i] = vo.Clone()
	}

	return out
}

// Match returns the indices of entries equal to labels on every label present
// in labels. Entries lacking one of those labels do not match. An empty
// labels set matches every entry.
func (s *Store) Match(labels map[string]any) []int {
	idx := make([]int, 0, 1)
	for i, vo := range s.vos {
		if matches(vo, labels) {
			idx = append(idx, i)
		}
	}

	return idx
}

func matches(vo ValueObject, labels map[string]any) bool {
	for k, want := range labels {
		got, ok := vo.Labels[k]
		if !ok || KeyOf(got) != KeyOf(want) {
			return false
		}
	}

	return true
}

// Lookup returns the entry whose label key equals exactly that of labels.
func (s *Store) Lookup(labels map[string]any) (ValueObject, bool) {
	key := labelKey(labels, "")
	for _, vo := range s.vos {
		if vo.LabelKey() == key {
			return vo.Clone(), true
		}
	}

	return ValueObject{}, false
}

// Merge applies one ValueObject.
//
//   - Matching entries (Match over vo's labels) get vo's value and Auto flag.
//   - A nil value deletes the matching entries instead.
//   - Without a match vo is appended; an unlabeled vo only appends to an
//     empty store since it otherwise matches every entry.
//
// With opts.Clobber=false caller-supplied matches are skipped.
func (s *Store) Merge(vo ValueObject, opts MergeOptions) MergeResult {
	var res MergeResult
	idx := s.Match(vo.Labels)
	if vo.IsDelete() {
		drop := make(map[int]struct{}, len(idx))
		for _, i := range idx {
			if !opts.Clobber && !s.vos[i].Auto {
				res.Skipped++

				continue
			}
			drop[i] = struct{}{}
		}
		res.Deleted = len(drop)
		if res.Deleted > 0 {
			kept := s.vos[:0]
			for i, cur := range s.vos {
				if _, gone := drop[i]; !gone {
					kept = append(kept, cur)
				}
			}
			s.vos = kept
		}

		return res
	}
	if len(idx) == 0 {
		s.vos = append(s.vos, vo.Clone())
		res.Appended = 1

		return res
	}
	for _, i := range idx {
		if !opts.Clobber && !s.vos[i].Auto {
			res.Skipped++

			continue
		}
		s.vos[i].Value = CloneValue(vo.Value)
		s.vos[i].Auto = vo.Auto
		res.Updated++
	}

	return res
}

// Put stores vo under its exact label key, replacing the entry with the same
// key or appending. Unlike Merge it never broadcasts to entries carrying more
// labels.
func (s *Store) Put(vo ValueObject) {
	key := vo.LabelKey()
	for i := range s.vos {
		if s.vos[i].LabelKey() == key {
			s.vos[i] = vo.Clone()

			return
		}
	}
	s.vos = append(s.vos, vo.Clone())
}

// Remove deletes every entry for which drop returns true and reports how many
// were removed.
func (s *Store) Remove(drop func(ValueObject) bool) int {
	kept := s.vos[:0]
	n := 0
	for _, vo := range s.vos {
		if drop(vo) {
			n++

			continue
		}
		kept = append(kept, vo)
	}
	s.vos = kept

	return n
}

// Clone returns a deep snapshot.
func (s *Store) Clone() *Store {
	return &Store{vos: s.All()}
}

// Restore replaces the contents of s with a deep copy of snap.
func (s *Store) Restore(snap *Store) {
	s.vos = snap.All()
}

// Sort reorders entries stably with cmp. Sorting an already sorted store is a
// no-op.
func (s *Store) Sort(cmp func(a, b ValueObject) int) {
	slices.SortStableFunc(s.vos, cmp)
}

// ByLabels builds a Sort comparator that orders by each label of order in
// turn using cmp. Entries lacking a label sort before those carrying it.
func ByLabels(order []string, cmp func(label string, a, b any) int) func(a, b ValueObject) int {
	return func(x, y ValueObject) int {
		for _, label := range order {
			xv, xok := x.Labels[label]
			yv, yok := y.Labels[label]
			switch {
			case !xok && !yok:
				continue
			case !xok:
				return -1
			case !yok:
				return 1
			}
			if c := cmp(label, xv, yv); c != 0 {
				return c
			}
		}

		return 0
	}
}

// ConsistentLabels returns the sorted label names shared by every entry when
// all entries use the same label set; ok=false otherwise.
func (s *Store) ConsistentLabels() (names []string, ok bool) {
	if len(s.vos) == 0 {
		return nil, true
	}
	want := s.vos[0].LabelNames()
	for _, vo := range s.vos[1:] {
		if !slices.Equal(want, vo.LabelNames()) {
			return nil, false
		}
	}

	return want, true
}

// LabelValues returns the distinct values of label across the store, in
// first-seen order.
func (s *Store) LabelValues(label string) []any {
	seen := make(map[string]struct{})
	var out []any
	for _, vo := range s.vos {
		v, ok := vo.Labels[label]
		if !ok {
			continue
		}
		k := KeyOf(v)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}

	return out
}

// Keys returns the label keys of all entries, sorted.
func (s *Store) Keys() []string {
	out := make([]string, len(s.vos))
	for i, vo := range s.vos {
		out[i] = vo.LabelKey()
	}
	sort.Strings(out)

	return out
}
