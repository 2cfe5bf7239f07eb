package dcd

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	md "github.com/gomd/gomd"
	v3 "github.com/gomd/gomd/v3"
)

func randomFrames(rnd *rand.Rand, nframes, natoms int) []*v3.Matrix {
	out := make([]*v3.Matrix, nframes)
	for i := range out {
		f := v3.Zeros(natoms)
		for a := 0; a < natoms; a++ {
			for j := 0; j < 3; j++ {
				f.Set(a, j, rnd.Float64()*100-50)
			}
		}
		out[i] = f
	}
	return out
}

func TestRoundtrip(t *testing.T) {
	name := filepath.Join(t.TempDir(), "test.dcd")
	rnd := rand.New(rand.NewSource(1))
	frames := randomFrames(rnd, 5, 7)

	w, err := NewWriter(name, 7)
	require.NoError(t, err)
	for _, f := range frames {
		require.NoError(t, w.WNext(f))
	}
	w.Close()

	r, err := New(name)
	require.NoError(t, err)
	assert.Equal(t, 7, r.Len())
	got := v3.Zeros(7)
	for _, f := range frames {
		require.NoError(t, r.Next(got))
		for a := 0; a < 7; a++ {
			for j := 0; j < 3; j++ {
				//float32 storage
				assert.InDelta(t, f.At(a, j), got.At(a, j), 1e-3)
			}
		}
	}
	err = r.Next(got)
	require.Error(t, err)
	assert.True(t, md.IsLastFrame(err))
}

func TestRoundtripWithCell(t *testing.T) {
	name := filepath.Join(t.TempDir(), "cell.dcd")
	rnd := rand.New(rand.NewSource(2))
	frames := randomFrames(rnd, 3, 4)
	cell := []float64{20, 0, 0, 0, 30, 0, 0, 0, 40}

	w, err := NewWriter(name, 4, true)
	require.NoError(t, err)
	for _, f := range frames {
		require.NoError(t, w.WNext(f, cell))
	}
	w.Close()

	r, err := New(name)
	require.NoError(t, err)
	got := v3.Zeros(4)
	box := make([]float64, 9)
	for _, f := range frames {
		require.NoError(t, r.Next(got, box))
		for k := range cell {
			assert.InDelta(t, cell[k], box[k], 1e-9, "cell element %d", k)
		}
		assert.InDelta(t, f.At(0, 0), got.At(0, 0), 1e-3)
	}
	err = r.Next(got)
	assert.True(t, md.IsLastFrame(err))
}

func TestCellWithoutBoxArgument(t *testing.T) {
	name := filepath.Join(t.TempDir(), "cell2.dcd")
	w, err := NewWriter(name, 2, true)
	require.NoError(t, err)
	cell := []float64{10, 0, 0, 0, 10, 0, 0, 0, 10}
	require.NoError(t, w.WNext(v3.Zeros(2), cell))
	w.Close()

	//reading without asking for the box just skips the cell block
	r, err := New(name)
	require.NoError(t, err)
	require.NoError(t, r.Next(v3.Zeros(2)))
	assert.True(t, md.IsLastFrame(r.Next(nil)))
}

func TestWriterValidation(t *testing.T) {
	dir := t.TempDir()
	_, err := NewWriter(filepath.Join(dir, "bad.dcd"), 0)
	assert.Error(t, err)

	w, err := NewWriter(filepath.Join(dir, "ok.dcd"), 3)
	require.NoError(t, err)
	assert.Error(t, w.WNext(nil))
	assert.Error(t, w.WNext(v3.Zeros(5)))
	w.Close()
	assert.Error(t, w.WNext(v3.Zeros(3)))
}

func TestReadableAndClose(t *testing.T) {
	name := filepath.Join(t.TempDir(), "c.dcd")
	w, err := NewWriter(name, 2)
	require.NoError(t, err)
	require.NoError(t, w.WNext(v3.Zeros(2)))
	w.Close()

	r, err := New(name)
	require.NoError(t, err)
	assert.True(t, r.Readable())
	r.Close()
	r.Close() //idempotent
	assert.False(t, r.Readable())
	err = r.Next(nil)
	require.Error(t, err)
	assert.False(t, md.IsLastFrame(err))
}

func TestOpenErrors(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing.dcd"))
	assert.Error(t, err)
}

func TestNotEnoughRows(t *testing.T) {
	name := filepath.Join(t.TempDir(), "n.dcd")
	w, err := NewWriter(name, 4)
	require.NoError(t, err)
	require.NoError(t, w.WNext(v3.Zeros(4)))
	w.Close()
	r, err := New(name)
	require.NoError(t, err)
	err = r.Next(v3.Zeros(2))
	require.Error(t, err)
	assert.True(t, md.IsKind(err, md.KindResource))
}
