package mixer

// decayNum/decayDen approximate the inverse golden ratio (~0.618) in
// integer arithmetic. Scaling counts by it when an entry saturates lets
// recent history dominate stale history on non-stationary data.
const (
	decayNum = 40503
	decayDen = 1 << 16
)

// entry is one context-table slot: raw observation counts plus the
// quantized per-symbol probabilities derived from them.
//
// A zero entry is valid: qprob of all zeros stands for "never refreshed"
// and readers substitute the probability floor of 1 per symbol.
type entry struct {
	qprob [256]uint8
	count [256]uint16
	total uint32
}

// observe records one occurrence of sym, decaying the counts when the
// running total passes ceiling so integer growth stays bounded.
func (e *entry) observe(sym byte, ceiling uint32) {
	e.count[sym]++
	e.total++
	if e.total > ceiling {
		e.decay()
	}
}

func (e *entry) decay() {
	for s := range e.count {
		e.count[s] = uint16(uint32(e.count[s]) * decayNum / decayDen)
	}
	e.total = uint32(uint64(e.total) * decayNum / decayDen)
}

// requantize recomputes the quantized probabilities from the raw counts
// with additive smoothing: q = round((count+0.5) * 255 / (total+1)),
// clamped to [1, 255] so no symbol is ever coded with a zero-width slice.
// Symbols at or above rareThreshold are scaled down by the inverse golden
// ratio (floored at 1) to match skewed byte distributions.
func (e *entry) requantize(rareThreshold int) {
	den := 2 * (uint64(e.total) + 1)
	half := den / 2
	for s := 0; s < 256; s++ {
		num := (2*uint64(e.count[s]) + 1) * 255
		q := (num + half) / den
		if s >= rareThreshold {
			q = q * decayNum / decayDen
		}
		if q < 1 {
			q = 1
		} else if q > 255 {
			q = 255
		}
		e.qprob[s] = uint8(q)
	}
}
