package md

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSubset(t *testing.T) {
	s, err := NewSubset(10, []int{0, 3, 9})
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 10, s.NAtoms())
	assert.Equal(t, []int{0, 3, 9}, s.Indexes())
}

func TestNewSubsetOutOfRange(t *testing.T) {
	//an index equal to the atom count is already out of range
	_, err := NewSubset(10, []int{0, 10})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindInvalidSubset))

	_, err = NewSubset(10, []int{-1})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindInvalidSubset))
}

func TestNewSubsetDuplicates(t *testing.T) {
	_, err := NewSubset(10, []int{1, 2, 1})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindInvalidSubset))
}

func TestNewSubsetEmpty(t *testing.T) {
	_, err := NewSubset(10, nil)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindInvalidSubset))
}

func TestSubsetCopiesInput(t *testing.T) {
	idx := []int{0, 1, 2}
	s, err := NewSubset(5, idx)
	require.NoError(t, err)
	idx[0] = 4
	assert.Equal(t, 0, s.Indexes()[0])
}

func TestNilSubsetMeansAllAtoms(t *testing.T) {
	var s *Subset
	assert.Equal(t, 0, s.Len())
	assert.Nil(t, s.Indexes())
}
