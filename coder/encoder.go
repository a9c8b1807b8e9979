package coder

import "github.com/arloliu/pakt/internal/pool"

// Encoder arithmetic-codes a symbol stream into a byte buffer.
//
// One Encoder codes exactly one stream: Encode is called once per symbol
// with that symbol's cumulative frequency slice, then Flush terminates the
// stream. The Encoder is not reusable after Flush.
type Encoder struct {
	low     uint32
	high    uint32
	pending uint64 // bits deferred while the interval straddles the midpoint
	cur     byte   // partially filled output byte
	nbits   uint8  // bits occupied in cur
	buf     *pool.ByteBuffer
}

// NewEncoder creates an Encoder writing its packed bitstream into buf.
func NewEncoder(buf *pool.ByteBuffer) *Encoder {
	return &Encoder{high: topValue, buf: buf}
}

// Encode codes one symbol given its cumulative slice [lowCount, highCount)
// within a distribution summing to total.
func (e *Encoder) Encode(lowCount, highCount, total uint32) error {
	if err := checkRange(lowCount, highCount, total); err != nil {
		return err
	}
	e.low, e.high = narrow(e.low, e.high, lowCount, highCount, total)

	for {
		if e.low&topBit == e.high&topBit {
			// Top bit settled; emit it plus any deferred complements.
			e.emitWithPending(e.low >> (codeBits - 1))
		} else if e.low&qtrBit != 0 && e.high&qtrBit == 0 {
			// Interval straddles the midpoint inside the middle quarters:
			// the next bit is not determined yet. Defer it and expand.
			e.pending++
			e.low &= qtrMask
			e.high |= qtrBit
		} else {
			return nil
		}
		e.low <<= 1
		e.high = e.high<<1 | 1
	}
}

// Flush terminates the stream: it commits the deferred bits, disambiguates
// the final interval, and pads the last byte with zero bits.
func (e *Encoder) Flush() {
	// Two more bits pin the final interval to one of its quarters.
	e.pending++
	e.emitWithPending((e.low >> (codeBits - 2)) & 1)

	if e.nbits > 0 {
		e.buf.WriteByte(e.cur << (8 - e.nbits))
		e.cur, e.nbits = 0, 0
	}
}

// emitWithPending writes bit followed by the deferred complement bits.
func (e *Encoder) emitWithPending(bit uint32) {
	e.emitBit(bit)
	for ; e.pending > 0; e.pending-- {
		e.emitBit(bit ^ 1)
	}
}

func (e *Encoder) emitBit(bit uint32) {
	e.cur = e.cur<<1 | byte(bit&1)
	e.nbits++
	if e.nbits == 8 {
		e.buf.WriteByte(e.cur)
		e.cur, e.nbits = 0, 0
	}
}
