package chunk

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, c *Chunker, data []byte) []Frame {
	t.Helper()
	var frames []Frame
	for f := range c.Frames(data) {
		frames = append(frames, f)
	}

	return frames
}

func TestNewValidation(t *testing.T) {
	_, err := New(0, 0, 16)
	require.Error(t, err)

	_, err = New(-5, 0, 16)
	require.Error(t, err)

	_, err = New(10, 10, 16)
	require.Error(t, err, "overlap must be smaller than frame size")

	_, err = New(10, -1, 16)
	require.Error(t, err)

	c, err := New(10, 0, -1)
	require.NoError(t, err)
	require.Equal(t, DefaultBoundaryWindow, c.Window())
}

func TestIsGrain(t *testing.T) {
	for _, b := range []byte(" \n\r\t.,;:!?-_") {
		require.True(t, IsGrain(b), "byte %q", b)
	}
	for _, b := range []byte("aZ09\x00\xff") {
		require.False(t, IsGrain(b), "byte %q", b)
	}
}

func TestFramesEmptyInput(t *testing.T) {
	c, err := New(16, 0, 8)
	require.NoError(t, err)

	require.Empty(t, collect(t, c, nil))
	require.Empty(t, collect(t, c, []byte{}))
}

func TestFramesSingleByte(t *testing.T) {
	c, err := New(16, 0, 8)
	require.NoError(t, err)

	frames := collect(t, c, []byte{'x'})
	require.Len(t, frames, 1)
	require.Equal(t, Frame{Index: 0, Start: 0, End: 1}, frames[0])
}

func TestFramesExactCover(t *testing.T) {
	c, err := New(16, 0, 8)
	require.NoError(t, err)

	data := []byte("the quick brown fox jumps over the lazy dog, again and again and again")
	frames := collect(t, c, data)
	require.NotEmpty(t, frames)

	pos := 0
	for i, f := range frames {
		require.Equal(t, i, f.Index)
		require.Equal(t, pos, f.Start, "frames must be gapless")
		require.Greater(t, f.End, f.Start)
		pos = f.End
	}
	require.Equal(t, len(data), pos, "final frame must reach end of data")
}

func TestBoundaryOnGrain(t *testing.T) {
	c, err := New(8, 0, 16)
	require.NoError(t, err)

	data := []byte("abcdefghij klmnop")
	// Target end is 8; the first grain byte at or past it is the space at
	// offset 10, so the frame ends just after it.
	require.Equal(t, 11, c.FindBoundary(data, 8))

	frames := collect(t, c, data)
	require.Equal(t, 11, frames[0].End)
}

func TestBoundaryWindowFallback(t *testing.T) {
	c, err := New(8, 0, 4)
	require.NoError(t, err)

	// No grain bytes anywhere: the cut falls at the window edge.
	data := bytes.Repeat([]byte{'a'}, 64)
	require.Equal(t, 8+4, c.FindBoundary(data, 8))

	frames := collect(t, c, data)
	require.Equal(t, 12, frames[0].End)
	for _, f := range frames[:len(frames)-1] {
		require.LessOrEqual(t, f.End-f.Start, 8+4, "boundary search must stay within the window")
	}
}

func TestBoundaryZeroWindow(t *testing.T) {
	c, err := New(8, 0, 0)
	require.NoError(t, err)

	data := []byte("word word word word word")
	for _, f := range collect(t, c, data)[:2] {
		require.Equal(t, 8, f.End-f.Start, "zero window cuts at exactly the frame size")
	}
}

func TestBoundaryDataShorterThanWindow(t *testing.T) {
	c, err := New(4, 0, 4096)
	require.NoError(t, err)

	data := []byte("abcdef")
	require.Equal(t, len(data), c.FindBoundary(data, 4))
	require.Equal(t, len(data), c.FindBoundary(data, 100))
}

func TestFramesOverlap(t *testing.T) {
	c, err := New(8, 3, 0)
	require.NoError(t, err)

	data := bytes.Repeat([]byte{'b'}, 40)
	frames := collect(t, c, data)
	require.Greater(t, len(frames), 1)
	for i := 1; i < len(frames); i++ {
		require.Equal(t, frames[i-1].End-3, frames[i].Start,
			"each frame starts overlap bytes before the previous end")
	}
	require.Equal(t, len(data), frames[len(frames)-1].End)
}

// TestEndsFrameMatchesFindBoundary feeds EndsFrame every byte of several
// streams and checks it fires exactly where Frames cuts. This is the
// replay contract the decoder relies on.
func TestEndsFrameMatchesFindBoundary(t *testing.T) {
	inputs := [][]byte{
		[]byte("the quick brown fox jumps over the lazy dog. " +
			"pack my box with five dozen liquor jugs, please do it now"),
		bytes.Repeat([]byte{'q'}, 100),            // no grain at all
		bytes.Repeat([]byte("ab cd"), 30),         // grain-dense
		{' '},                                     // single grain byte
		bytes.Repeat([]byte("pneumonoultra"), 20), // long tokens
	}
	for _, data := range inputs {
		for _, window := range []int{0, 3, 16} {
			c, err := New(7, 0, window)
			require.NoError(t, err)

			var cuts []int
			frameStart := 0
			for i, b := range data {
				if i+1 == len(data) || c.EndsFrame(i+1-frameStart, b) {
					cuts = append(cuts, i+1)
					frameStart = i + 1
				}
			}

			var ends []int
			for f := range c.Frames(data) {
				ends = append(ends, f.End)
			}
			require.Equal(t, ends, cuts, "window=%d data=%q", window, data)
		}
	}
}
