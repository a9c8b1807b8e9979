// Package pool provides pooled byte buffers for coded-stream assembly.
package pool

import "sync"

const (
	// streamBufferDefaultSize is the initial capacity of pooled buffers.
	streamBufferDefaultSize = 1024 * 16 // 16 KiB
	// streamBufferMaxThreshold is the largest buffer returned to the pool;
	// bigger ones are dropped so a single huge stream does not pin memory.
	streamBufferMaxThreshold = 1024 * 1024 * 4 // 4 MiB
)

// ByteBuffer is an append-only byte accumulator. The arithmetic encoder
// packs its bitstream into one as bytes fill up.
type ByteBuffer struct {
	B []byte
}

// Bytes returns the accumulated bytes.
func (bb *ByteBuffer) Bytes() []byte { return bb.B }

// Len returns the number of accumulated bytes.
func (bb *ByteBuffer) Len() int { return len(bb.B) }

// Reset empties the buffer while keeping its capacity.
func (bb *ByteBuffer) Reset() { bb.B = bb.B[:0] }

// WriteByte appends a single byte, growing the buffer if needed.
func (bb *ByteBuffer) WriteByte(c byte) {
	bb.B = append(bb.B, c)
}

// Write appends data, growing the buffer if needed.
func (bb *ByteBuffer) Write(data []byte) {
	bb.B = append(bb.B, data...)
}

// Clone returns a copy of the accumulated bytes owned by the caller, safe
// to retain after the buffer goes back to the pool.
func (bb *ByteBuffer) Clone() []byte {
	if len(bb.B) == 0 {
		return nil
	}
	out := make([]byte, len(bb.B))
	copy(out, bb.B)

	return out
}

var streamBufferPool = sync.Pool{
	New: func() any {
		return &ByteBuffer{B: make([]byte, 0, streamBufferDefaultSize)}
	},
}

// GetStreamBuffer returns an empty buffer from the pool.
func GetStreamBuffer() *ByteBuffer {
	bb, _ := streamBufferPool.Get().(*ByteBuffer)
	bb.Reset()

	return bb
}

// PutStreamBuffer returns a buffer to the pool for reuse. Oversized buffers
// are dropped instead of pooled.
func PutStreamBuffer(bb *ByteBuffer) {
	if bb == nil || cap(bb.B) > streamBufferMaxThreshold {
		return
	}
	streamBufferPool.Put(bb)
}
