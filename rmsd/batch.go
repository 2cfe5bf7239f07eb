package rmsd

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/mat"

	md "github.com/gomd/gomd"
	v3 "github.com/gomd/gomd/v3"
)

// Options holds the knobs shared by the batch drivers.
type Options struct {
	// Subset restricts the comparison to these atom indexes. nil
	// compares whole conformations.
	Subset *md.Subset
	// Precentered declares that reference and targets already have a
	// zero centroid (and are already restricted, so it cannot be
	// combined with Subset). It skips all centering and the cache,
	// which about doubles throughput on repeated-reference workloads.
	Precentered bool
	// Cpus bounds the worker fan-out. Zero or less means all cores.
	Cpus int
	// Cache, if given, memoizes the centered reference across calls.
	Cache *Cache
}

// DefaultOptions returns Options that compare whole conformations on
// all available cores.
func DefaultOptions() *Options {
	return &Options{Cpus: runtime.NumCPU()}
}

// Many computes the RMSD of frame frame of ref against every frame of
// targets. The returned slice preserves the frame order of targets
// regardless of how the work was scheduled internally.
func Many(ctx context.Context, ref *md.Trajectory, frame int, targets *md.Trajectory, o *Options) ([]float64, error) {
	if frame < 0 || frame >= ref.NFrames() {
		return nil, md.NewError(md.KindDimensionMismatch, fmt.Sprintf("reference frame %d out of range for %d frames", frame, ref.NFrames()))
	}
	if targets.NAtoms() != ref.NAtoms() {
		return nil, md.NewError(md.KindDimensionMismatch, fmt.Sprintf("reference has %d atoms per frame, targets have %d", ref.NAtoms(), targets.NAtoms()))
	}
	frames := make([]*v3.Matrix, targets.NFrames())
	for i := range frames {
		frames[i] = targets.Frame(i)
	}
	return ManyFrames(ctx, ref.Frame(frame), frames, o)
}

// ManyFrames is the slice-level form of Many: one reference conformation
// against every conformation in targets, in order. The per-target kernel
// calls are independent and are fanned out over Options.Cpus workers;
// cancellation is checked between frames, never mid-kernel.
func ManyFrames(ctx context.Context, ref *v3.Matrix, targets []*v3.Matrix, o *Options) ([]float64, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if o == nil {
		o = DefaultOptions()
	}
	if err := checkOptions(o); err != nil {
		return nil, err
	}
	if ref == nil || ref.NVecs() == 0 {
		return nil, md.NewError(md.KindEmptyStructure, "reference with zero atoms")
	}
	//every operand is validated before any numeric work starts
	for i, t := range targets {
		if t == nil || t.NVecs() == 0 {
			return nil, md.NewError(md.KindEmptyStructure, fmt.Sprintf("target %d has zero atoms", i))
		}
		if t.NVecs() != ref.NVecs() {
			return nil, md.NewError(md.KindDimensionMismatch, fmt.Sprintf("target %d has %d atoms, reference has %d", i, t.NVecs(), ref.NVecs()))
		}
	}
	out := make([]float64, len(targets))
	if len(targets) == 0 {
		return out, nil
	}
	cref, ga, err := prepRef(ref, o)
	if err != nil {
		return nil, err
	}
	n := cref.NVecs()
	ra := cref.RawMatrix()
	workers := o.Cpus
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if workers > len(targets) {
		workers = len(targets)
	}
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			scratch := v3.Zeros(n)
			for i := range jobs {
				if ctx.Err() != nil {
					return
				}
				cb := scratch
				if o.Precentered {
					cb = targets[i]
				} else {
					if o.Subset != nil {
						scratch.SomeVecs(targets[i], o.Subset.Indexes())
					} else {
						scratch.Copy(targets[i])
					}
					scratch.Center(nil)
				}
				s, gb := kernel(ra, cb.RawMatrix())
				out[i] = qcpRMSD(s, ga, gb, n)
			}
		}()
	}
feed:
	for i := range targets {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ManyChunked computes the RMSD of ref against every frame pulled from
// src, chunk by chunk, never holding more than one chunk of coordinates.
// Concatenated in emission order, the result equals what ManyFrames
// would return on the fully loaded trajectory, for any chunk size.
func ManyChunked(ctx context.Context, ref *v3.Matrix, src md.TrajCloser, chunkSize int, o *Options, so *md.StreamOptions) ([]float64, error) {
	r, err := md.NewChunkReader(src, chunkSize, so)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	if o == nil {
		o = DefaultOptions()
	}
	if o.Cache == nil && !o.Precentered {
		//center the reference once, not once per chunk
		oc := *o
		oc.Cache = NewCache()
		o = &oc
	}
	var out []float64
	for {
		chunk, err := r.Next()
		if err != nil {
			if md.IsLastFrame(err) {
				break
			}
			return nil, err
		}
		frames := make([]*v3.Matrix, chunk.NFrames())
		for i := range frames {
			frames[i] = chunk.Frame(i)
		}
		vals, err := ManyFrames(ctx, ref, frames, o)
		if err != nil {
			return nil, err
		}
		out = append(out, vals...)
	}
	return out, nil
}

// Pairwise computes the full NFrames x NFrames symmetric RMSD matrix of
// a trajectory. Only the upper triangle is actually computed, halving
// the kernel invocations; the diagonal is exactly zero by construction.
func Pairwise(ctx context.Context, traj *md.Trajectory, o *Options) (*mat.SymDense, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if o == nil {
		o = DefaultOptions()
	}
	if err := checkOptions(o); err != nil {
		return nil, err
	}
	nf := traj.NFrames()
	if nf == 0 {
		return nil, md.NewError(md.KindEmptyStructure, "trajectory with no frames")
	}
	centered := make([]*v3.Matrix, nf)
	norms := make([]float64, nf)
	for i := 0; i < nf; i++ {
		var err error
		if o.Precentered {
			centered[i] = traj.Frame(i)
			norms[i], err = centered[i].SquaredNorm(nil)
		} else {
			centered[i], norms[i], err = gatherCenter(traj.Frame(i), o.Subset)
		}
		if err != nil {
			return nil, err
		}
	}
	n := centered[0].NVecs()
	m := mat.NewSymDense(nf, nil)
	workers := o.Cpus
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if workers > nf {
		workers = nf
	}
	rows := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range rows {
				if ctx.Err() != nil {
					return
				}
				ra := centered[i].RawMatrix()
				for j := i + 1; j < nf; j++ {
					s, gb := kernel(ra, centered[j].RawMatrix())
					m.SetSym(i, j, qcpRMSD(s, norms[i], gb, n))
				}
			}
		}()
	}
feed:
	for i := 0; i < nf; i++ {
		select {
		case rows <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(rows)
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

func checkOptions(o *Options) error {
	if o.Precentered && o.Subset != nil {
		return md.NewError(md.KindInvalidSubset, "precentered inputs cannot be combined with a subset: restrict and center before calling")
	}
	return nil
}

// prepRef resolves the centered form and squared norm of the reference
// according to the options: direct for precentered input, memoized when
// a cache is given, computed on the spot otherwise.
func prepRef(ref *v3.Matrix, o *Options) (*v3.Matrix, float64, error) {
	if o.Precentered {
		g, err := ref.SquaredNorm(nil)
		return ref, g, err
	}
	if o.Cache != nil {
		return o.Cache.GetOrCompute(ref, o.Subset)
	}
	return gatherCenter(ref, o.Subset)
}
