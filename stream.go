package md

import (
	"fmt"
	"runtime"

	v3 "github.com/gomd/gomd/v3"
)

// Chunk is a bounded-size slice of a trajectory produced during
// out-of-core streaming. A Chunk owns its coordinate storage: it never
// aliases the reader's buffers or any other chunk, so earlier chunks can
// be dropped to reclaim memory while iteration goes on.
type Chunk struct {
	*Trajectory
	// Offset is the index, within the emitted (post-stride) frame
	// sequence, of the first frame of this chunk.
	Offset int
}

// StreamOptions holds the optional knobs of a ChunkReader.
type StreamOptions struct {
	// Stride emits every Stride-th frame of the source. 1 emits all.
	Stride int
	// Begin skips that many source frames before the first emitted one.
	Begin int
	// ReadCell asks the reader to collect the per-frame unit cell.
	ReadCell bool
}

// DefaultStreamOptions returns options that emit every frame from the
// beginning, without cells.
func DefaultStreamOptions() *StreamOptions {
	return &StreamOptions{Stride: 1, Begin: 0}
}

type readerState int

const (
	streamOpen readerState = iota
	streamExhausted
	streamClosed
)

// ChunkReader pulls fixed-size chunks of frames, in order, from a
// trajectory source. It is forward-only and single-pass: once exhausted
// or closed it cannot be rewound, a new reader must be built to re-read.
// Peak memory is one chunk of coordinates regardless of trajectory size.
//
// The reader exclusively owns its source. It must never be shared across
// concurrent pulls.
type ChunkReader struct {
	src      TrajCloser
	size     int
	stride   int
	begin    int
	readCell bool
	state    readerState
	skipped  bool //Begin frames already discarded?
	done     bool //source hit its last frame
	emitted  int
}

// NewChunkReader wraps src in a ChunkReader yielding chunks of size
// frames (the final chunk may be shorter). The reader takes ownership of
// src and will close it on Close, on a read failure, or, at the latest,
// when the reader is garbage collected.
func NewChunkReader(src TrajCloser, size int, o *StreamOptions) (*ChunkReader, error) {
	if src == nil || !src.Readable() {
		return nil, NewError(KindResource, "source is not readable")
	}
	if size < 1 {
		return nil, NewError(KindStreamState, fmt.Sprintf("chunk size must be positive, got %d", size))
	}
	if o == nil {
		o = DefaultStreamOptions()
	}
	if o.Stride < 1 || o.Begin < 0 {
		return nil, NewError(KindStreamState, fmt.Sprintf("bad stream options: stride %d, begin %d", o.Stride, o.Begin))
	}
	r := &ChunkReader{src: src, size: size, stride: o.Stride, begin: o.Begin, readCell: o.ReadCell}
	runtime.SetFinalizer(r, func(r *ChunkReader) {
		r.Close()
	})
	return r, nil
}

// Next returns the next chunk of frames. At the end of the sequence it
// returns an error satisfying LastFrameError and the reader becomes
// exhausted; any pull after that (or after Close) is a stream-state
// error.
func (r *ChunkReader) Next() (*Chunk, error) {
	switch r.state {
	case streamClosed:
		return nil, NewError(KindStreamState, "pull on a closed chunk reader")
	case streamExhausted:
		return nil, NewError(KindStreamState, "pull on an exhausted chunk reader")
	}
	if r.done {
		r.state = streamExhausted
		r.src.Close()
		return nil, newLastFrameError("", "chunk")
	}
	if !r.skipped {
		for i := 0; i < r.begin; i++ {
			if err := r.discard(); err != nil {
				return nil, err
			}
			if r.done {
				break
			}
		}
		r.skipped = true
	}
	t, err := NewTrajectory(r.src.Len(), nil)
	if err != nil {
		return nil, err
	}
	chunk := &Chunk{Trajectory: t, Offset: r.emitted}
	var box []float64
	if r.readCell {
		box = make([]float64, 9)
	}
	for t.NFrames() < r.size && !r.done {
		frame := v3.Zeros(r.src.Len())
		var err error
		if box != nil {
			err = r.src.Next(frame, box)
		} else {
			err = r.src.Next(frame)
		}
		if err != nil {
			if IsLastFrame(err) {
				r.done = true
				break
			}
			return nil, r.fail(err)
		}
		var cell []float64
		if box != nil && nonZero(box) {
			cell = make([]float64, 9)
			copy(cell, box)
		}
		if err := t.AppendFrame(frame, cell); err != nil {
			return nil, r.fail(err)
		}
		r.emitted++
		for i := 0; i < r.stride-1 && !r.done; i++ {
			if err := r.discard(); err != nil {
				return nil, err
			}
		}
	}
	if t.NFrames() == 0 {
		r.state = streamExhausted
		r.src.Close()
		return nil, newLastFrameError("", "chunk")
	}
	return chunk, nil
}

func (r *ChunkReader) discard() error {
	err := r.src.Next(nil)
	if err == nil {
		return nil
	}
	if IsLastFrame(err) {
		r.done = true
		return nil
	}
	return r.fail(err)
}

// fail transitions the reader to closed and propagates the source error.
func (r *ChunkReader) fail(err error) error {
	r.Close()
	return err
}

// Close releases the underlying source. It is idempotent, and safe to
// call however iteration terminated, including mid-chunk abandonment.
func (r *ChunkReader) Close() {
	if r.state == streamClosed {
		return
	}
	r.state = streamClosed
	r.src.Close()
}

// lastFrameError implements LastFrameError.
type lastFrameError struct {
	deco     []string
	fileName string
	format   string
}

func (E *lastFrameError) NormalLastFrameTermination() {}

func (E *lastFrameError) FileName() string { return E.fileName }

func (E *lastFrameError) Error() string { return "EOF" }

func (E *lastFrameError) Critical() bool { return false }

func (E *lastFrameError) Format() string { return E.format }

func (E *lastFrameError) Kind() Kind { return 0 }

func (E *lastFrameError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

func newLastFrameError(filename, format string) *lastFrameError {
	return &lastFrameError{fileName: filename, format: format}
}
