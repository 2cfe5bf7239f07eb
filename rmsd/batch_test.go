package rmsd

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	md "github.com/gomd/gomd"
	v3 "github.com/gomd/gomd/v3"
)

// randomTraj builds an nframes-frame trajectory of natoms atoms, with
// frame 0 equal to ref when withRef is set.
func randomTraj(t *testing.T, rnd *rand.Rand, nframes, natoms int, ref *v3.Matrix) *md.Trajectory {
	t.Helper()
	traj, err := md.NewTrajectory(natoms, nil)
	require.NoError(t, err)
	for i := 0; i < nframes; i++ {
		if i == 0 && ref != nil {
			require.NoError(t, traj.AppendFrame(ref.Clone(), nil))
			continue
		}
		require.NoError(t, traj.AppendFrame(randomConf(rnd, natoms), nil))
	}
	return traj
}

func TestManyAgainstOwnFirstFrame(t *testing.T) {
	rnd := rand.New(rand.NewSource(10))
	natoms := 22
	ref := randomConf(rnd, natoms)
	traj := randomTraj(t, rnd, 100, natoms, ref)
	vals, err := Many(context.Background(), traj, 0, traj, nil)
	require.NoError(t, err)
	require.Len(t, vals, 100)
	//frame 0 is the reference itself
	assert.InDelta(t, 0.0, vals[0], 1e-7)
	for i, v := range vals {
		assert.GreaterOrEqual(t, v, 0.0, "frame %d", i)
	}
}

func TestManyFramesMatchesSuperpose(t *testing.T) {
	rnd := rand.New(rand.NewSource(11))
	ref := randomConf(rnd, 15)
	targets := make([]*v3.Matrix, 20)
	for i := range targets {
		targets[i] = randomConf(rnd, 15)
	}
	vals, err := ManyFrames(context.Background(), ref, targets, nil)
	require.NoError(t, err)
	for i, tgt := range targets {
		want, err := Superpose(ref, tgt)
		require.NoError(t, err)
		assert.InDelta(t, want, vals[i], 1e-10, "frame %d", i)
	}
}

func TestManyFramesSingleWorkerMatchesParallel(t *testing.T) {
	rnd := rand.New(rand.NewSource(12))
	ref := randomConf(rnd, 22)
	targets := make([]*v3.Matrix, 37)
	for i := range targets {
		targets[i] = randomConf(rnd, 22)
	}
	serial, err := ManyFrames(context.Background(), ref, targets, &Options{Cpus: 1})
	require.NoError(t, err)
	parallel, err := ManyFrames(context.Background(), ref, targets, &Options{Cpus: 8})
	require.NoError(t, err)
	assert.Equal(t, serial, parallel)
}

func TestManyFramesSubset(t *testing.T) {
	rnd := rand.New(rand.NewSource(13))
	natoms := 10
	ref := randomConf(rnd, natoms)
	tgt := randomConf(rnd, natoms)
	idx := []int{0, 2, 4, 6, 8}
	sub, err := md.NewSubset(natoms, idx)
	require.NoError(t, err)
	vals, err := ManyFrames(context.Background(), ref, []*v3.Matrix{tgt}, &Options{Subset: sub, Cpus: 1})
	require.NoError(t, err)

	//equivalent to extracting the subset by hand and superposing
	sref := v3.Zeros(len(idx))
	sref.SomeVecs(ref, idx)
	stgt := v3.Zeros(len(idx))
	stgt.SomeVecs(tgt, idx)
	want, err := Superpose(sref, stgt)
	require.NoError(t, err)
	assert.InDelta(t, want, vals[0], 1e-10)
}

func TestManyFramesFullSubsetEqualsNil(t *testing.T) {
	rnd := rand.New(rand.NewSource(14))
	natoms := 8
	ref := randomConf(rnd, natoms)
	tgt := randomConf(rnd, natoms)
	all := []int{0, 1, 2, 3, 4, 5, 6, 7}
	sub, err := md.NewSubset(natoms, all)
	require.NoError(t, err)
	withSub, err := ManyFrames(context.Background(), ref, []*v3.Matrix{tgt}, &Options{Subset: sub, Cpus: 1})
	require.NoError(t, err)
	without, err := ManyFrames(context.Background(), ref, []*v3.Matrix{tgt}, &Options{Cpus: 1})
	require.NoError(t, err)
	assert.InDelta(t, without[0], withSub[0], 1e-12)
}

func TestManyFramesValidatesBeforeComputing(t *testing.T) {
	rnd := rand.New(rand.NewSource(15))
	ref := randomConf(rnd, 5)
	targets := []*v3.Matrix{randomConf(rnd, 5), randomConf(rnd, 6)}
	_, err := ManyFrames(context.Background(), ref, targets, nil)
	require.Error(t, err)
	assert.True(t, md.IsKind(err, md.KindDimensionMismatch))

	_, err = ManyFrames(context.Background(), ref, []*v3.Matrix{nil}, nil)
	require.Error(t, err)
	assert.True(t, md.IsKind(err, md.KindEmptyStructure))

	_, err = ManyFrames(context.Background(), nil, nil, nil)
	require.Error(t, err)
	assert.True(t, md.IsKind(err, md.KindEmptyStructure))
}

func TestPrecenteredExcludesSubset(t *testing.T) {
	sub, err := md.NewSubset(5, []int{0, 1})
	require.NoError(t, err)
	_, err = ManyFrames(context.Background(), v3.Zeros(5), nil, &Options{Precentered: true, Subset: sub})
	require.Error(t, err)
	assert.True(t, md.IsKind(err, md.KindInvalidSubset))
}

func TestManyFramesCancellation(t *testing.T) {
	rnd := rand.New(rand.NewSource(16))
	ref := randomConf(rnd, 22)
	targets := make([]*v3.Matrix, 1000)
	for i := range targets {
		targets[i] = randomConf(rnd, 22)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ManyFrames(ctx, ref, targets, &Options{Cpus: 2})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestManyChunkedEquivalence(t *testing.T) {
	rnd := rand.New(rand.NewSource(17))
	natoms := 22
	ref := randomConf(rnd, natoms)
	traj := randomTraj(t, rnd, 100, natoms, ref)
	frames := make([]*v3.Matrix, traj.NFrames())
	for i := range frames {
		frames[i] = traj.Frame(i)
	}
	want, err := ManyFrames(context.Background(), ref, frames, &Options{Cpus: 1})
	require.NoError(t, err)
	//concatenated chunked results must equal the whole-trajectory ones
	//for any chunk size, including ones that don't divide the length
	for _, size := range []int{1, 7, 50, 100, 1000} {
		got, err := ManyChunked(context.Background(), ref, md.NewMemSource(traj), size, &Options{Cpus: 1}, nil)
		require.NoError(t, err)
		require.Len(t, got, len(want), "chunk size %d", size)
		for i := range want {
			assert.InDelta(t, want[i], got[i], 1e-12, "chunk size %d, frame %d", size, i)
		}
	}
}

func TestManyChunkedStride(t *testing.T) {
	rnd := rand.New(rand.NewSource(18))
	natoms := 9
	ref := randomConf(rnd, natoms)
	traj := randomTraj(t, rnd, 30, natoms, ref)
	so := &md.StreamOptions{Stride: 3}
	got, err := ManyChunked(context.Background(), ref, md.NewMemSource(traj), 4, &Options{Cpus: 1}, so)
	require.NoError(t, err)
	require.Len(t, got, 10)
	var frames []*v3.Matrix
	for i := 0; i < 30; i += 3 {
		frames = append(frames, traj.Frame(i))
	}
	want, err := ManyFrames(context.Background(), ref, frames, &Options{Cpus: 1})
	require.NoError(t, err)
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-12)
	}
}

func TestPairwise(t *testing.T) {
	rnd := rand.New(rand.NewSource(19))
	traj := randomTraj(t, rnd, 12, 10, nil)
	m, err := Pairwise(context.Background(), traj, &Options{Cpus: 3})
	require.NoError(t, err)
	n := traj.NFrames()
	for i := 0; i < n; i++ {
		assert.Equal(t, 0.0, m.At(i, i))
		for j := i + 1; j < n; j++ {
			assert.Equal(t, m.At(i, j), m.At(j, i))
			want, err := Superpose(traj.Frame(i), traj.Frame(j))
			require.NoError(t, err)
			assert.InDelta(t, want, m.At(i, j), 1e-10)
		}
	}
}

func TestPairwiseEmpty(t *testing.T) {
	traj, err := md.NewTrajectory(3, nil)
	require.NoError(t, err)
	_, err = Pairwise(context.Background(), traj, nil)
	require.Error(t, err)
	assert.True(t, md.IsKind(err, md.KindEmptyStructure))
}
