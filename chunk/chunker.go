// Package chunk splits an input byte stream into ordered frames cut at
// grain boundaries.
//
// A grain boundary is a whitespace or punctuation byte that is safe to cut
// at without splitting a token. Cutting frames on grain keeps the context
// tables of the predictor from learning seam artifacts, while the bounded
// search window keeps frame sizes predictable.
package chunk

import (
	"fmt"
	"iter"
)

// DefaultBoundaryWindow is the forward search window used when a frame's
// target end does not land on a grain boundary.
const DefaultBoundaryWindow = 4096

// grainBytes lists the bytes considered safe cut points.
var grainBytes = []byte{' ', '\n', '\r', '\t', '.', ',', ';', ':', '!', '?', '-', '_'}

// grainSet is a 256-bit membership table over grainBytes.
var grainSet [4]uint64

func init() {
	for _, b := range grainBytes {
		grainSet[b>>6] |= 1 << (b & 63)
	}
}

// IsGrain reports whether b is a grain-boundary byte.
func IsGrain(b byte) bool {
	return grainSet[b>>6]&(1<<(b&63)) != 0
}

// Frame is one contiguous slice of the input, produced by Frames.
// Start is inclusive, End exclusive.
type Frame struct {
	Index int
	Start int
	End   int
}

// Chunker cuts byte streams into frames of roughly frameSize bytes, ending
// each frame at the first grain boundary at or past the target size.
//
// The boundary rule is causal: a frame's end is fully determined by the
// bytes at or before it. A decoder reproducing the stream one byte at a
// time can therefore replay the exact same frame layout via EndsFrame.
type Chunker struct {
	frameSize int
	overlap   int
	window    int
}

// New creates a Chunker.
//
// frameSize is the target frame length in bytes and must be positive.
// overlap makes each frame (except the first) start that many bytes before
// the previous frame's end; it must be smaller than frameSize. Callers that
// use overlap are responsible for not double-counting the overlapped region.
// window bounds the forward grain search; a negative value selects
// DefaultBoundaryWindow, zero disables the search entirely (frames cut at
// exactly frameSize).
func New(frameSize, overlap, window int) (*Chunker, error) {
	if frameSize <= 0 {
		return nil, fmt.Errorf("chunk: frame size must be positive, got %d", frameSize)
	}
	if overlap < 0 || overlap >= frameSize {
		return nil, fmt.Errorf("chunk: overlap %d must be in [0, frame size %d)", overlap, frameSize)
	}
	if window < 0 {
		window = DefaultBoundaryWindow
	}

	return &Chunker{frameSize: frameSize, overlap: overlap, window: window}, nil
}

// FrameSize returns the configured target frame length.
func (c *Chunker) FrameSize() int { return c.frameSize }

// Window returns the configured boundary search window.
func (c *Chunker) Window() int { return c.window }

// FindBoundary returns the end offset of a frame whose target end is
// targetEnd: the smallest e > targetEnd such that data[e-1] is a grain byte
// and e <= targetEnd+window, or min(targetEnd+window, len(data)) when no
// grain byte occurs in the window. The result never exceeds len(data).
func (c *Chunker) FindBoundary(data []byte, targetEnd int) int {
	n := len(data)
	if targetEnd >= n {
		return n
	}
	limit := targetEnd + c.window
	if limit > n || limit < 0 { // limit < 0 guards int overflow
		limit = n
	}
	for i := targetEnd; i < limit; i++ {
		if IsGrain(data[i]) {
			return i + 1
		}
	}

	return limit
}

// EndsFrame reports whether a frame that currently spans frameLen bytes and
// whose last byte is b ends here. It is the streaming form of FindBoundary:
// feeding EndsFrame each byte of a frame in order fires exactly at the
// offset FindBoundary returns, which is what lets a decoder reproduce frame
// boundaries from bytes it has already decoded.
func (c *Chunker) EndsFrame(frameLen int, b byte) bool {
	if frameLen >= c.frameSize+c.window {
		return true
	}

	return frameLen > c.frameSize && IsGrain(b)
}

// Frames returns a lazy, single-use sequence of frames covering data in
// order. Consecutive frames share overlap bytes when the Chunker was
// configured with one and are otherwise gapless. The final frame always
// extends to the end of data. Empty input yields no frames.
func (c *Chunker) Frames(data []byte) iter.Seq[Frame] {
	return func(yield func(Frame) bool) {
		n := len(data)
		start := 0
		for index := 0; start < n; index++ {
			end := c.FindBoundary(data, start+c.frameSize)
			if !yield(Frame{Index: index, Start: start, End: end}) {
				return
			}
			if end == n {
				return
			}
			next := end - c.overlap
			if next <= start {
				next = start + 1
			}
			start = next
		}
	}
}
