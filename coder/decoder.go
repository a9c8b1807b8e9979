package coder

// Decoder runs the encoder's interval state machine in reverse, recovering
// one symbol per Target/Consume pair.
//
// The caller owns symbol resolution: Target projects the code value into
// the caller's cumulative frequency space, the caller locates the symbol
// whose slice contains it, and Consume narrows the interval with that
// slice exactly as the encoder did.
type Decoder struct {
	low     uint32
	high    uint32
	code    uint32
	data    []byte
	pos     int // bit cursor into data
	phantom int // bits consumed past end-of-input
}

// NewDecoder creates a Decoder over a coded stream and primes the code
// value with the first codeBits bits. Returns ErrTruncatedStream when the
// stream is too short to hold even one coded symbol.
func NewDecoder(data []byte) (*Decoder, error) {
	d := &Decoder{high: topValue, data: data}
	for i := 0; i < codeBits; i++ {
		bit, err := d.readBit()
		if err != nil {
			return nil, err
		}
		d.code = d.code<<1 | bit
	}

	return d, nil
}

// Target projects the current code value into a cumulative frequency space
// of the given total. The caller resolves it to the symbol whose cumulative
// slice [lowCount, highCount) contains the returned value.
func (d *Decoder) Target(total uint32) uint32 {
	r := uint64(d.high-d.low) + 1

	return uint32(((uint64(d.code-d.low)+1)*uint64(total) - 1) / r)
}

// Consume narrows the interval with the resolved symbol's cumulative slice
// and renormalizes, shifting fresh bits into the code value.
func (d *Decoder) Consume(lowCount, highCount, total uint32) error {
	if err := checkRange(lowCount, highCount, total); err != nil {
		return err
	}
	d.low, d.high = narrow(d.low, d.high, lowCount, highCount, total)

	for {
		if d.low&topBit == d.high&topBit {
			// Settled bit: drops off the top of low, high and code alike.
		} else if d.low&qtrBit != 0 && d.high&qtrBit == 0 {
			// Underflow expansion. XOR-ing the quarter bit into code is,
			// modulo 2^32, the same first-quarter subtraction applied to
			// low and high.
			d.low &= qtrMask
			d.high |= qtrBit
			d.code ^= qtrBit
		} else {
			return nil
		}
		d.low <<= 1
		d.high = d.high<<1 | 1
		bit, err := d.readBit()
		if err != nil {
			return err
		}
		d.code = d.code<<1 | bit
	}
}

// readBit returns the next stream bit. Past end-of-input it supplies zero
// bits up to the phantom budget the encoder's flush accounts for, then
// reports the stream truncated.
func (d *Decoder) readBit() (uint32, error) {
	if byteIdx := d.pos >> 3; byteIdx < len(d.data) {
		bit := uint32(d.data[byteIdx]>>(7-d.pos&7)) & 1
		d.pos++

		return bit, nil
	}
	d.phantom++
	if d.phantom > maxPhantomBits {
		return 0, ErrTruncatedStream
	}

	return 0, nil
}
