package mdplot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeries(t *testing.T) {
	name := filepath.Join(t.TempDir(), "rmsd.png")
	vals := []float64{0, 0.5, 1.2, 0.9, 1.7, 1.1}
	o := DefaultSeriesOptions()
	o.Title = "test series"
	require.NoError(t, Series(vals, name, o))
	fi, err := os.Stat(name)
	require.NoError(t, err)
	assert.Greater(t, fi.Size(), int64(0))
}

func TestSeriesDefaultExtension(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "noext")
	require.NoError(t, Series([]float64{1, 2, 3}, name, nil))
	_, err := os.Stat(name + ".png")
	assert.NoError(t, err)
}

func TestSeriesStrideAxis(t *testing.T) {
	name := filepath.Join(t.TempDir(), "strided.png")
	o := DefaultSeriesOptions()
	o.Stride = 10
	o.Begin = 5
	assert.NoError(t, Series([]float64{0.1, 0.2, 0.3}, name, o))
}

func TestSeriesEmpty(t *testing.T) {
	assert.Error(t, Series(nil, "x.png", nil))
}
