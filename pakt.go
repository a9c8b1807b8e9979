// Package pakt implements a single-stream lossless byte compressor built
// from an adaptive multi-order context-mixing predictor driving a binary
// arithmetic coder.
//
// Pakt targets byte-oriented data (natural-language text and generic
// binaries) and trades a fixed, non-growing table budget for a high
// compression ratio: the predictor learns online from the bytes it has
// already coded, so no dictionary, no second pass and no stream header are
// needed. The coded stream is raw coder output; the caller tracks the
// original length externally and passes it to Decompress.
//
// # Basic Usage
//
//	import "github.com/arloliu/pakt"
//
//	coded, err := pakt.Compress(data)
//	if err != nil {
//	    return err
//	}
//	restored, err := pakt.Decompress(coded, len(data))
//	if err != nil {
//	    return err
//	}
//	// bytes.Equal(restored, data) == true
//
// For repeated use with the same configuration, create a Codec once:
//
//	codec, err := pakt.NewCodec(
//	    pakt.WithFrameSize(1<<16),
//	    pakt.WithTableSize(17711),
//	)
//
// # How It Works
//
// The input is cut into frames at whitespace/punctuation boundaries
// (package chunk). For every byte position, one hash table per context
// order — the preceding 1, 2, 3, 5, 8, 13 and 21 bytes by default — is
// consulted (package mixer); the per-order quantized probabilities are
// combined under static golden-ratio weights into a 256-symbol frequency
// table, which the arithmetic coder (package coder) uses to code the actual
// byte. The predictor then updates the touched entries with the observed
// byte and periodically requantizes them. The decoder replays the identical
// predict/update/refresh sequence against decoded bytes, keeping both
// sides' table state bit-exact.
//
// Memory is dominated by the context tables: tables use roughly
// 772 bytes x table size x number of orders (about 400 MiB with the
// defaults, matching a fixed working set independent of input size). Use
// WithTableSize to shrink it; smaller tables trade ratio for memory.
//
// Compression and decompression are strictly sequential and CPU-bound.
// A Codec instance must not be used from multiple goroutines concurrently.
package pakt

import (
	"fmt"

	"github.com/arloliu/pakt/arena"
	"github.com/arloliu/pakt/chunk"
	"github.com/arloliu/pakt/coder"
	"github.com/arloliu/pakt/internal/pool"
	"github.com/arloliu/pakt/mixer"
)

// ErrTruncatedStream is returned by Decompress when the coded stream ends
// before the expected number of bytes could be recovered.
var ErrTruncatedStream = coder.ErrTruncatedStream

// Codec compresses and decompresses byte streams with a fixed
// configuration. Each call runs from fresh predictor state, so any
// Compress output can be inverted by any Codec built with the same
// configuration.
//
// A Codec reuses internal scratch memory between calls and is therefore
// not safe for concurrent use.
type Codec struct {
	cfg      config
	chunker  *chunk.Chunker
	arena    *arena.Arena
	frameIdx [][]uint32 // per-order arena-backed index arrays, valid per frame
	idx      []uint32   // per-order indices for the current position
}

// NewCodec creates a Codec, validating the configuration.
func NewCodec(opts ...Option) (*Codec, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	chunker, err := chunk.New(cfg.frameSize, 0, cfg.boundaryWindow)
	if err != nil {
		return nil, err
	}

	return &Codec{
		cfg:      cfg,
		chunker:  chunker,
		arena:    arena.New(cfg.arenaBlockSize(), cfg.arenaMaxBytes),
		frameIdx: make([][]uint32, len(cfg.orders)),
		idx:      make([]uint32, len(cfg.orders)),
	}, nil
}

// Compress compresses data and returns the coded stream. The stream
// carries no header; keep len(data) alongside it for Decompress.
// Empty input returns nil.
func (c *Codec) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	mix, err := c.newMixer()
	if err != nil {
		return nil, err
	}

	buf := pool.GetStreamBuffer()
	defer pool.PutStreamBuffer(buf)
	enc := coder.NewEncoder(buf)

	var scores [256]uint32
	since := 0
	for frame := range c.chunker.Frames(data) {
		c.arena.Reset()
		mix.HashFrame(c.arena, data, frame.Start, frame.End, c.frameIdx)

		release := c.arena.Pin() // per-symbol loop runs allocation-free
		for pos := frame.Start; pos < frame.End; pos++ {
			for o := range c.frameIdx {
				c.idx[o] = c.frameIdx[o][pos-frame.Start]
			}
			mix.Predict(c.idx, &scores)

			sym := data[pos]
			lowCount, total := cumulate(&scores, sym)
			if err := enc.Encode(lowCount, lowCount+scores[sym], total); err != nil {
				release()
				return nil, fmt.Errorf("pakt: encode at offset %d: %w", pos, err)
			}

			mix.Update(c.idx, sym)
			since++
			if since == c.cfg.refreshInterval {
				mix.Refresh()
				since = 0
			}
		}
		release()

		mix.Refresh()
		since = 0
	}
	enc.Flush()

	return buf.Clone(), nil
}

// Decompress inverts Compress, recovering exactly originalLen bytes from
// the coded stream. It returns ErrTruncatedStream (possibly wrapped) when
// the stream is malformed or too short.
func (c *Codec) Decompress(coded []byte, originalLen int) ([]byte, error) {
	if originalLen < 0 {
		return nil, fmt.Errorf("pakt: negative original length %d", originalLen)
	}
	if originalLen == 0 {
		return nil, nil
	}

	mix, err := c.newMixer()
	if err != nil {
		return nil, err
	}
	dec, err := coder.NewDecoder(coded)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, originalLen)
	var scores [256]uint32
	since := 0
	frameStart := 0
	for i := 0; i < originalLen; i++ {
		mix.IndicesAt(out, i, c.idx)
		mix.Predict(c.idx, &scores)

		total := distTotal(&scores)
		sym, lowCount, ok := locate(&scores, dec.Target(total), total)
		if !ok {
			return nil, fmt.Errorf("pakt: corrupt stream at offset %d: %w", i, coder.ErrTruncatedStream)
		}
		if err := dec.Consume(lowCount, lowCount+scores[sym], total); err != nil {
			return nil, fmt.Errorf("pakt: decode at offset %d: %w", i, err)
		}

		out = append(out, sym)
		mix.Update(c.idx, sym)
		since++
		if since == c.cfg.refreshInterval {
			mix.Refresh()
			since = 0
		}

		// Replay the encoder's frame layout from decoded bytes: the
		// boundary rule only consults the frame length and the byte just
		// decoded, so both sides refresh at identical positions.
		if i+1 == originalLen || c.chunker.EndsFrame(i+1-frameStart, sym) {
			mix.Refresh()
			since = 0
			frameStart = i + 1
		}
	}

	return out, nil
}

// newMixer builds a fresh predictor for one encode or decode pass.
func (c *Codec) newMixer() (*mixer.Mixer, error) {
	return mixer.New(c.cfg.orders, c.cfg.tableSize, c.cfg.decayCeiling, c.cfg.rareThreshold)
}

// Compress compresses data with the given options applied over defaults.
func Compress(data []byte, opts ...Option) ([]byte, error) {
	codec, err := NewCodec(opts...)
	if err != nil {
		return nil, err
	}

	return codec.Compress(data)
}

// Decompress recovers originalLen bytes from a stream produced by Compress
// with the same options.
func Decompress(coded []byte, originalLen int, opts ...Option) ([]byte, error) {
	codec, err := NewCodec(opts...)
	if err != nil {
		return nil, err
	}

	return codec.Decompress(coded, originalLen)
}

// cumulate returns the cumulative count below sym and the distribution
// total.
func cumulate(scores *[256]uint32, sym byte) (lowCount, total uint32) {
	for s := 0; s < 256; s++ {
		v := scores[s]
		if s < int(sym) {
			lowCount += v
		}
		total += v
	}

	return lowCount, total
}

// distTotal sums the distribution.
func distTotal(scores *[256]uint32) uint32 {
	var total uint32
	for _, v := range scores {
		total += v
	}

	return total
}

// locate finds the symbol whose cumulative slice contains target.
func locate(scores *[256]uint32, target, total uint32) (sym byte, lowCount uint32, ok bool) {
	if target >= total {
		return 0, 0, false
	}
	var cum uint32
	for s := 0; s < 256; s++ {
		next := cum + scores[s]
		if target < next {
			return byte(s), cum, true
		}
		cum = next
	}

	return 0, 0, false
}

// Stats summarizes one compression pass.
type Stats struct {
	OriginalSize   int
	CompressedSize int
}

// Ratio returns compressed size over original size; values below 1.0 mean
// the stream shrank. Returns 0 for an empty input.
func (s Stats) Ratio() float64 {
	if s.OriginalSize == 0 {
		return 0
	}

	return float64(s.CompressedSize) / float64(s.OriginalSize)
}

// BitsPerByte returns the coded bits spent per input byte.
func (s Stats) BitsPerByte() float64 {
	if s.OriginalSize == 0 {
		return 0
	}

	return float64(s.CompressedSize) * 8 / float64(s.OriginalSize)
}
