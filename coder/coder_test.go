package coder

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/pakt/internal/pool"
)

// dist is a cumulative view over symbol weights, small enough to keep the
// tests readable. Symbols are indexes into the weight slice.
type dist struct {
	weights []uint32
	total   uint32
}

func newDist(weights ...uint32) dist {
	var total uint32
	for _, w := range weights {
		total += w
	}

	return dist{weights: weights, total: total}
}

func (d dist) bounds(sym int) (low, high uint32) {
	for i := 0; i < sym; i++ {
		low += d.weights[i]
	}

	return low, low + d.weights[sym]
}

func (d dist) locate(target uint32) (sym int, low, high uint32) {
	var cum uint32
	for i, w := range d.weights {
		if target < cum+w {
			return i, cum, cum + w
		}
		cum += w
	}
	panic("target out of range")
}

func roundTrip(t *testing.T, d dist, syms []int) {
	t.Helper()

	buf := pool.GetStreamBuffer()
	defer pool.PutStreamBuffer(buf)

	enc := NewEncoder(buf)
	for _, s := range syms {
		low, high := d.bounds(s)
		require.NoError(t, enc.Encode(low, high, d.total))
	}
	enc.Flush()

	dec, err := NewDecoder(buf.Bytes())
	require.NoError(t, err)

	for i, want := range syms {
		got, low, high := d.locate(dec.Target(d.total))
		require.Equal(t, want, got, "symbol %d", i)
		require.NoError(t, dec.Consume(low, high, d.total))
	}
}

func TestRoundTripUniform(t *testing.T) {
	d := newDist(1, 1, 1, 1)
	roundTrip(t, d, []int{0, 1, 2, 3, 3, 2, 1, 0, 2, 2, 2})
}

func TestRoundTripSkewed(t *testing.T) {
	// A heavily skewed distribution stresses the underflow path: the
	// dominant symbol narrows the range from the top, the rare one from
	// the bottom.
	d := newDist(1, 200, 1)
	syms := make([]int, 0, 512)
	for i := 0; i < 500; i++ {
		syms = append(syms, 1)
	}
	syms = append(syms, 0, 2, 0, 2, 1, 1, 0)
	roundTrip(t, d, syms)
}

func TestRoundTripSingleSymbol(t *testing.T) {
	d := newDist(3, 5)
	roundTrip(t, d, []int{1})
	roundTrip(t, d, []int{0})
}

func TestRoundTripEmpty(t *testing.T) {
	buf := pool.GetStreamBuffer()
	defer pool.PutStreamBuffer(buf)

	enc := NewEncoder(buf)
	enc.Flush()
	require.NotEmpty(t, buf.Bytes(), "flush always emits the disambiguation bit")

	_, err := NewDecoder(buf.Bytes())
	require.NoError(t, err)
}

func TestRoundTripRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 20; trial++ {
		weights := make([]uint32, 2+rng.Intn(30))
		for i := range weights {
			weights[i] = 1 + uint32(rng.Intn(100))
		}
		d := newDist(weights...)

		syms := make([]int, 1+rng.Intn(2000))
		for i := range syms {
			syms[i] = rng.Intn(len(weights))
		}
		roundTrip(t, d, syms)
	}
}

func TestEncodeZeroDistribution(t *testing.T) {
	buf := pool.GetStreamBuffer()
	defer pool.PutStreamBuffer(buf)

	enc := NewEncoder(buf)
	require.ErrorIs(t, enc.Encode(0, 1, 0), ErrZeroDistribution)
}

func TestEncodeInvalidRange(t *testing.T) {
	buf := pool.GetStreamBuffer()
	defer pool.PutStreamBuffer(buf)

	enc := NewEncoder(buf)
	require.Error(t, enc.Encode(5, 5, 10), "empty interval")
	require.Error(t, enc.Encode(7, 3, 10), "inverted interval")
	require.Error(t, enc.Encode(0, 11, 10), "interval past total")
	require.Error(t, enc.Encode(0, 1, MaxTotal+1), "total above precision limit")
}

func TestDecoderTruncatedStream(t *testing.T) {
	d := newDist(1, 1)
	syms := make([]int, 4096)
	for i := range syms {
		syms[i] = i & 1
	}

	buf := pool.GetStreamBuffer()
	defer pool.PutStreamBuffer(buf)

	enc := NewEncoder(buf)
	for _, s := range syms {
		low, high := d.bounds(s)
		require.NoError(t, enc.Encode(low, high, d.total))
	}
	enc.Flush()

	// Cut the stream roughly in half. Decoding must fail with
	// ErrTruncatedStream once the phantom-bit budget runs out, never
	// panic or spin.
	cut := buf.Bytes()[:buf.Len()/2]
	dec, err := NewDecoder(cut)
	require.NoError(t, err)

	for i := 0; i < len(syms); i++ {
		sym, low, high := d.locate(dec.Target(d.total))
		if sym != syms[i] {
			// Desynchronized output is acceptable for a truncated
			// stream; the guarantee is on termination and the error.
			return
		}
		if err := dec.Consume(low, high, d.total); err != nil {
			require.ErrorIs(t, err, ErrTruncatedStream)
			return
		}
	}
	t.Fatal("decoding a truncated stream reproduced every symbol")
}

func TestDecoderEmptyInput(t *testing.T) {
	// 32 priming bits cannot come from zero bytes plus the phantom budget.
	_, err := NewDecoder(nil)
	require.ErrorIs(t, err, ErrTruncatedStream)
}
