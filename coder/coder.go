// Package coder implements a carry-less binary arithmetic coder over
// 32-bit interval state.
//
// The Encoder narrows a [low, high] interval by each symbol's slice of a
// cumulative frequency table and emits interval bits as they become
// determined, deferring bits whose value depends on later symbols via a
// pending-bit counter (the classic underflow treatment). The Decoder runs
// the identical interval state machine against a running code value read
// from the bitstream, so encoder and decoder stay bit-exact as long as both
// sides present the same frequency tables in the same order.
package coder

import (
	"errors"
	"fmt"
)

const (
	// codeBits is the interval precision in bits.
	codeBits = 32

	topValue uint32 = 1<<codeBits - 1 // interval upper bound
	topBit   uint32 = 1 << (codeBits - 1)
	qtrBit   uint32 = 1 << (codeBits - 2)
	qtrMask  uint32 = qtrBit - 1

	// maxPhantomBits is how many bits past end-of-input a decoder may
	// consume before the stream is considered truncated. The encoder's
	// flush leaves at most codeBits-2 undetermined trailing bits, so a
	// well-formed stream never needs more than this.
	maxPhantomBits = codeBits - 2
)

// MaxTotal is the largest cumulative frequency total the coder accepts.
// Keeping totals below a quarter of the interval range guarantees every
// nonzero symbol slice maps to a nonzero sub-interval after renormalization.
const MaxTotal = qtrBit

var (
	// ErrZeroDistribution is returned when a frequency table sums to zero.
	// The predictor's probability floor makes this unreachable in normal
	// operation; hitting it indicates a predictor bug.
	ErrZeroDistribution = errors.New("coder: frequency distribution sums to zero")

	// ErrTruncatedStream is returned when the decoder needs more input
	// bits than the coded stream provides.
	ErrTruncatedStream = errors.New("coder: truncated stream")
)

// checkRange validates one symbol's cumulative slice against the total.
func checkRange(lowCount, highCount, total uint32) error {
	if total == 0 {
		return ErrZeroDistribution
	}
	if total > MaxTotal {
		return fmt.Errorf("coder: cumulative total %d exceeds limit %d", total, MaxTotal)
	}
	if lowCount >= highCount || highCount > total {
		return fmt.Errorf("coder: invalid symbol range [%d, %d) of total %d", lowCount, highCount, total)
	}

	return nil
}

// narrow maps the symbol's cumulative slice onto the current interval.
// Shared by Encoder and Decoder; the two must narrow identically or their
// interval state diverges.
func narrow(low, high, lowCount, highCount, total uint32) (uint32, uint32) {
	r := uint64(high-low) + 1
	newLow := low + uint32(r*uint64(lowCount)/uint64(total))
	newHigh := low + uint32(r*uint64(highCount)/uint64(total)) - 1
	if newHigh <= newLow {
		// Rounding collapsed the slice; keep a minimal two-value interval
		// so the coder cannot stall.
		newHigh = newLow + 1
	}

	return newLow, newHigh
}
