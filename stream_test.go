package md

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v3 "github.com/gomd/gomd/v3"
)

func chunkReader(t *testing.T, nframes, natoms, size int, o *StreamOptions) *ChunkReader {
	t.Helper()
	r, err := NewChunkReader(NewMemSource(testTraj(t, nframes, natoms)), size, o)
	require.NoError(t, err)
	return r
}

// drain pulls every chunk until the last-frame signal.
func drain(t *testing.T, r *ChunkReader) []*Chunk {
	t.Helper()
	var chunks []*Chunk
	for {
		c, err := r.Next()
		if err != nil {
			require.True(t, IsLastFrame(err), "unexpected error: %v", err)
			return chunks
		}
		chunks = append(chunks, c)
	}
}

func TestChunkReaderExactDivision(t *testing.T) {
	r := chunkReader(t, 1000, 3, 100, nil)
	chunks := drain(t, r)
	require.Len(t, chunks, 10)
	for i, c := range chunks {
		assert.Equal(t, 100, c.NFrames())
		assert.Equal(t, i*100, c.Offset)
	}
	//frame order is preserved across chunk boundaries
	assert.Equal(t, 999.0, chunks[9].Frame(99).At(0, 0))
}

func TestChunkReaderShortFinalChunk(t *testing.T) {
	r := chunkReader(t, 1000, 3, 300, nil)
	chunks := drain(t, r)
	require.Len(t, chunks, 4)
	assert.Equal(t, 300, chunks[0].NFrames())
	assert.Equal(t, 100, chunks[3].NFrames())
	assert.Equal(t, 900, chunks[3].Offset)
}

func TestChunkReaderStride(t *testing.T) {
	r := chunkReader(t, 100, 3, 10, &StreamOptions{Stride: 3})
	chunks := drain(t, r)
	var got []float64
	for _, c := range chunks {
		for i := 0; i < c.NFrames(); i++ {
			got = append(got, c.Frame(i).At(0, 0))
		}
	}
	require.Len(t, got, 34) //frames 0,3,...,99
	for i, v := range got {
		assert.Equal(t, float64(i*3), v)
	}
}

func TestChunkReaderBegin(t *testing.T) {
	r := chunkReader(t, 100, 3, 10, &StreamOptions{Stride: 1, Begin: 95})
	chunks := drain(t, r)
	require.Len(t, chunks, 1)
	assert.Equal(t, 5, chunks[0].NFrames())
	assert.Equal(t, 95.0, chunks[0].Frame(0).At(0, 0))
	assert.Equal(t, 0, chunks[0].Offset)
}

func TestChunkReaderBeginPastEnd(t *testing.T) {
	r := chunkReader(t, 10, 3, 5, &StreamOptions{Stride: 1, Begin: 50})
	c, err := r.Next()
	assert.Nil(t, c)
	require.Error(t, err)
	assert.True(t, IsLastFrame(err))
}

func TestChunkReaderStrideAndBegin(t *testing.T) {
	r := chunkReader(t, 100, 3, 7, &StreamOptions{Stride: 10, Begin: 5})
	chunks := drain(t, r)
	var got []float64
	for _, c := range chunks {
		for i := 0; i < c.NFrames(); i++ {
			got = append(got, c.Frame(i).At(0, 0))
		}
	}
	require.Len(t, got, 10) //frames 5,15,...,95
	for i, v := range got {
		assert.Equal(t, float64(5+i*10), v)
	}
}

func TestChunkReaderExhaustedThenStreamState(t *testing.T) {
	r := chunkReader(t, 10, 3, 10, nil)
	_, err := r.Next()
	require.NoError(t, err)
	_, err = r.Next()
	require.True(t, IsLastFrame(err))
	//the last-frame signal is terminal: from here on it's a usage error
	_, err = r.Next()
	require.Error(t, err)
	assert.True(t, IsKind(err, KindStreamState))
	assert.False(t, IsLastFrame(err))
}

func TestChunkReaderClosedThenStreamState(t *testing.T) {
	r := chunkReader(t, 10, 3, 5, nil)
	_, err := r.Next()
	require.NoError(t, err)
	r.Close()
	r.Close() //idempotent
	_, err = r.Next()
	require.Error(t, err)
	assert.True(t, IsKind(err, KindStreamState))
}

func TestChunkReaderValidation(t *testing.T) {
	src := NewMemSource(testTraj(t, 10, 3))
	_, err := NewChunkReader(src, 0, nil)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindStreamState))

	_, err = NewChunkReader(src, 5, &StreamOptions{Stride: 0})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindStreamState))

	_, err = NewChunkReader(src, 5, &StreamOptions{Stride: 1, Begin: -1})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindStreamState))

	src.Close()
	_, err = NewChunkReader(src, 5, nil)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindResource))

	_, err = NewChunkReader(nil, 5, nil)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindResource))
}

func TestChunksOwnTheirStorage(t *testing.T) {
	traj := testTraj(t, 4, 3)
	r, err := NewChunkReader(NewMemSource(traj), 2, nil)
	require.NoError(t, err)
	first, err := r.Next()
	require.NoError(t, err)
	second, err := r.Next()
	require.NoError(t, err)
	//mutating an old chunk touches neither the source nor later chunks
	first.Frame(0).Set(0, 0, -1000)
	assert.Equal(t, 0.0, traj.Frame(0).At(0, 0))
	assert.Equal(t, 2.0, second.Frame(0).At(0, 0))
}

func TestChunkReaderCells(t *testing.T) {
	traj, err := NewTrajectory(2, nil)
	require.NoError(t, err)
	cell := []float64{7, 0, 0, 0, 7, 0, 0, 0, 7}
	require.NoError(t, traj.AppendFrame(v3.Zeros(2), cell))
	require.NoError(t, traj.AppendFrame(v3.Zeros(2), nil))
	r, err := NewChunkReader(NewMemSource(traj), 5, &StreamOptions{Stride: 1, ReadCell: true})
	require.NoError(t, err)
	c, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, 2, c.NFrames())
	assert.Equal(t, cell, c.Cell(0))
	assert.Nil(t, c.Cell(1))
}
