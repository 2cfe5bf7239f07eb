package md

import "fmt"

// Subset is a validated, ordered set of unique atom indexes into a
// conformation, used to restrict a similarity computation to part of
// the structure (heavy atoms only, one chain, and so on). A nil *Subset
// means "all atoms".
type Subset struct {
	indexes []int
	natoms  int
}

// NewSubset validates indexes against a structure of natoms atoms and
// returns the Subset. Out-of-range or duplicate indexes fail with an
// invalid-subset error before any numeric work can happen.
func NewSubset(natoms int, indexes []int) (*Subset, error) {
	if len(indexes) == 0 {
		return nil, NewError(KindInvalidSubset, "empty index list")
	}
	seen := make(map[int]bool, len(indexes))
	for _, v := range indexes {
		if v < 0 || v >= natoms {
			return nil, NewError(KindInvalidSubset, fmt.Sprintf("index %d out of range for %d atoms", v, natoms))
		}
		if seen[v] {
			return nil, NewError(KindInvalidSubset, fmt.Sprintf("duplicate index %d", v))
		}
		seen[v] = true
	}
	s := &Subset{indexes: make([]int, len(indexes)), natoms: natoms}
	copy(s.indexes, indexes)
	return s, nil
}

// Len returns the number of selected atoms.
func (s *Subset) Len() int {
	if s == nil {
		return 0
	}
	return len(s.indexes)
}

// NAtoms returns the atom count the subset was validated against.
func (s *Subset) NAtoms() int { return s.natoms }

// Indexes returns the selected indexes, in order. The returned slice is
// the subset's own storage and must not be modified.
func (s *Subset) Indexes() []int {
	if s == nil {
		return nil
	}
	return s.indexes
}
