// Package arena implements a block-based bump allocator for the per-frame
// scratch memory of the pakt codec.
//
// An Arena hands out slices carved from a small number of contiguous blocks.
// Reset returns the arena to its empty state in O(1) without releasing the
// blocks, so repeated frame processing reaches a steady state with zero
// per-frame heap activity. Allocations are only valid until the next Reset;
// callers must not hold references across it.
package arena

import (
	"fmt"
	"unsafe"
)

// DefaultBlockSize is the block size used when New is given a non-positive one.
const DefaultBlockSize = 1 << 22 // 4 MiB

// allocAlign is the alignment applied to every allocation. Eight bytes
// satisfies the natural alignment of every element type the arena serves.
const allocAlign = 8

// Arena is a bump allocator over one or more fixed blocks.
//
// Not safe for concurrent use; the codec drives a single encode or decode
// pass at a time, so no locking is needed.
type Arena struct {
	blocks    [][]byte
	cur       int // index of the block currently being bumped
	off       int // allocation offset within blocks[cur]
	blockSize int
	capBytes  int // total bytes across all blocks
	maxBytes  int // hard ceiling; 0 means unbounded
	pins      int // active allocation-free scopes
}

// New creates an Arena with an initial block of blockSize bytes.
//
// maxBytes caps the total memory the arena may ever hold across all blocks;
// an allocation that would grow past it panics (the caller mis-sized the
// arena for its frame size, which is not a recoverable condition). A
// maxBytes of 0 disables the ceiling.
func New(blockSize, maxBytes int) *Arena {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	if maxBytes > 0 && blockSize > maxBytes {
		blockSize = maxBytes
	}
	a := &Arena{blockSize: blockSize, maxBytes: maxBytes}
	a.blocks = append(a.blocks, make([]byte, blockSize))
	a.capBytes = blockSize

	return a
}

// Bytes allocates n bytes from the arena. The returned slice is zeroed and
// valid until the next Reset. Allocating zero or fewer bytes returns nil.
func (a *Arena) Bytes(n int) []byte {
	if n <= 0 {
		return nil
	}
	p := a.raw(n)
	clear(p)

	return p
}

// Uint32s allocates n uint32 elements from the arena. The returned slice is
// zeroed and valid until the next Reset.
func (a *Arena) Uint32s(n int) []uint32 {
	if n <= 0 {
		return nil
	}
	p := a.raw(n * 4)
	s := unsafe.Slice((*uint32)(unsafe.Pointer(&p[0])), n)
	clear(s)

	return s
}

// Reset invalidates every allocation and makes the full capacity available
// again. Blocks are retained, so growth cost is amortized across frames.
func (a *Arena) Reset() {
	a.cur = 0
	a.off = 0
}

// Pin opens an allocation-free scope: until the returned release function
// runs, any allocation panics. It flags code that was meant to run on
// pre-allocated scratch but silently fell back to the allocator.
//
// Intended usage:
//
//	defer a.Pin()()
//
// The release function is idempotent, so it composes with early returns.
func (a *Arena) Pin() func() {
	a.pins++
	released := false

	return func() {
		if released {
			return
		}
		released = true
		a.pins--
	}
}

// Len reports the number of bytes currently allocated.
func (a *Arena) Len() int {
	n := a.off
	for i := 0; i < a.cur; i++ {
		n += len(a.blocks[i])
	}

	return n
}

// Cap reports the total capacity held by the arena across all blocks.
func (a *Arena) Cap() int {
	return a.capBytes
}

// raw returns n uninitialized bytes aligned to allocAlign.
func (a *Arena) raw(n int) []byte {
	if a.pins > 0 {
		panic("pakt/arena: allocation inside pinned scope")
	}
	for {
		block := a.blocks[a.cur]
		off := (a.off + allocAlign - 1) &^ (allocAlign - 1)
		if off+n <= len(block) {
			a.off = off + n
			return block[off : off+n : off+n]
		}
		if a.cur+1 < len(a.blocks) {
			// A block grown in an earlier cycle may fit the request.
			a.cur++
			a.off = 0
			continue
		}
		a.grow(n)
	}
}

// grow appends a block large enough for an n-byte allocation. New blocks are
// at least double the request so a burst of large allocations does not
// thrash the allocator.
func (a *Arena) grow(n int) {
	size := 2 * n
	if size < a.blockSize {
		size = a.blockSize
	}
	if a.maxBytes > 0 && a.capBytes+size > a.maxBytes {
		size = a.maxBytes - a.capBytes
		if size < n+allocAlign {
			panic(fmt.Sprintf("pakt/arena: out of memory: %d-byte allocation exceeds %d-byte capacity (%d in use)",
				n, a.maxBytes, a.capBytes))
		}
	}
	a.blocks = append(a.blocks, make([]byte, size))
	a.capBytes += size
	a.cur = len(a.blocks) - 1
	a.off = 0
}
