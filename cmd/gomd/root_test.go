package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAtoms(t *testing.T) {
	idx, err := parseAtoms("0-3,7,10-12")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 7, 10, 11, 12}, idx)

	idx, err = parseAtoms("5")
	require.NoError(t, err)
	assert.Equal(t, []int{5}, idx)

	idx, err = parseAtoms(" 1, 2 ,3 ")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, idx)
}

func TestParseAtomsErrors(t *testing.T) {
	for _, bad := range []string{"", ",", "a", "1-", "-3", "5-2", "1-2-3"} {
		_, err := parseAtoms(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestOpentrajUnknownFormat(t *testing.T) {
	_, err := opentraj("something.xyz")
	assert.Error(t, err)
}
