package mixer

import (
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/arloliu/pakt/arena"
)

const (
	// goldenGamma is floor(2^64 / phi), the multiplicative dispersal
	// constant. Sequential byte patterns hash to well-spread table indices.
	goldenGamma = 0x9E3779B97F4A7C15

	// phiInv is the inverse golden ratio used for the static order weights.
	phiInv = 0.6180339887498949

	// weightScale is the fixed-point total the normalized weights sum to.
	weightScale = 1024
)

// table is the per-order state: the entries, the order's static mixing
// weight, and the hot set (entries touched since the last refresh) kept as
// an index list plus a presence bitmap.
type table struct {
	order   int
	weight  uint32
	entries []entry
	hot     []uint32
	hotBits []uint64
}

// Mixer is a bank of per-order context tables producing a combined
// 256-symbol distribution for every stream position.
//
// Not safe for concurrent use. A Mixer observes exactly one stream; the
// codec creates a fresh one per encode or decode pass so both sides start
// from identical state.
type Mixer struct {
	tables        []table
	tableSize     int
	decayCeiling  uint32
	rareThreshold int
}

// New creates a Mixer with one table of tableSize entries per context
// order. Orders must be positive and strictly increasing. decayCeiling
// bounds an entry's total count before golden-ratio decay. rareThreshold
// marks the first byte value treated as statistically rare during
// requantization; 256 disables the split.
func New(orders []int, tableSize int, decayCeiling uint32, rareThreshold int) (*Mixer, error) {
	if len(orders) == 0 {
		return nil, fmt.Errorf("mixer: at least one context order required")
	}
	for i, o := range orders {
		if o <= 0 {
			return nil, fmt.Errorf("mixer: context order must be positive, got %d", o)
		}
		if i > 0 && o <= orders[i-1] {
			return nil, fmt.Errorf("mixer: context orders must be strictly increasing, got %v", orders)
		}
	}
	if tableSize <= 0 {
		return nil, fmt.Errorf("mixer: table size must be positive, got %d", tableSize)
	}
	if decayCeiling == 0 || decayCeiling > 60000 {
		return nil, fmt.Errorf("mixer: decay ceiling %d out of range [1, 60000]", decayCeiling)
	}
	if rareThreshold < 0 || rareThreshold > 256 {
		return nil, fmt.Errorf("mixer: rare threshold %d out of range [0, 256]", rareThreshold)
	}

	m := &Mixer{
		tables:        make([]table, len(orders)),
		tableSize:     tableSize,
		decayCeiling:  decayCeiling,
		rareThreshold: rareThreshold,
	}
	weights := orderWeights(len(orders))
	for i, o := range orders {
		m.tables[i] = table{
			order:   o,
			weight:  weights[i],
			entries: make([]entry, tableSize),
			hot:     make([]uint32, 0, tableSize/8+1),
			hotBits: make([]uint64, (tableSize+63)/64),
		}
	}

	return m, nil
}

// orderWeights computes the static fixed-point mixing weights: each order's
// weight is phi^-1 raised to its distance from the longest order, so longer
// contexts carry proportionally more trust. Normalized to sum to
// weightScale, floored at 1 so no order is silenced by rounding.
func orderWeights(n int) []uint32 {
	ratios := make([]float64, n)
	sum := 0.0
	r := 1.0
	for i := n - 1; i >= 0; i-- {
		ratios[i] = r
		sum += r
		r *= phiInv
	}
	weights := make([]uint32, n)
	for i := range ratios {
		w := uint32(math.Round(ratios[i] / sum * weightScale))
		if w == 0 {
			w = 1
		}
		weights[i] = w
	}

	return weights
}

// Orders returns the configured context orders.
func (m *Mixer) Orders() []int {
	orders := make([]int, len(m.tables))
	for i := range m.tables {
		orders[i] = m.tables[i].order
	}

	return orders
}

// NumOrders returns the number of context orders.
func (m *Mixer) NumOrders() int { return len(m.tables) }

// indexAt hashes the context window ending just before pos for the given
// order and disperses it into table index space. The window covers the
// preceding `order` bytes, truncated at the start of the stream, so the
// index is a function of already-known bytes only — a decoder computes the
// identical index before the byte at pos is recovered.
func (m *Mixer) indexAt(data []byte, pos, order int) uint32 {
	start := pos - order
	if start < 0 {
		start = 0
	}
	h := xxhash.Sum64(data[start:pos]) * goldenGamma

	return uint32((h >> 32) % uint64(m.tableSize))
}

// IndicesAt fills dst with the per-order table index for position pos.
// dst must have NumOrders elements. data needs to be valid only up to pos.
func (m *Mixer) IndicesAt(data []byte, pos int, dst []uint32) {
	for i := range m.tables {
		dst[i] = m.indexAt(data, pos, m.tables[i].order)
	}
}

// HashFrame precomputes the per-order indices for every position in
// [start, end), storing them in arena-backed arrays written into dst (one
// array per order, indexed by position-start). Purely a throughput batch:
// the indices are identical to per-position IndicesAt results.
func (m *Mixer) HashFrame(a *arena.Arena, data []byte, start, end int, dst [][]uint32) {
	n := end - start
	for i := range m.tables {
		order := m.tables[i].order
		idx := a.Uint32s(n)
		for pos := start; pos < end; pos++ {
			idx[pos-start] = m.indexAt(data, pos, order)
		}
		dst[i] = idx
	}
}

// Predict accumulates the weighted quantized probabilities of every order
// into scores. idx holds one table index per order (from IndicesAt or
// HashFrame). Entries that were never refreshed contribute the uniform
// probability floor, so the resulting distribution always has a positive
// total.
func (m *Mixer) Predict(idx []uint32, scores *[256]uint32) {
	*scores = [256]uint32{}
	for i := range m.tables {
		t := &m.tables[i]
		e := &t.entries[idx[i]]
		w := t.weight
		for s := 0; s < 256; s++ {
			q := uint32(e.qprob[s])
			if q == 0 {
				q = 1
			}
			scores[s] += w * q
		}
	}
}

// Update records the observed symbol in every order's entry for the
// current position and marks those entries hot for the next Refresh.
func (m *Mixer) Update(idx []uint32, sym byte) {
	for i := range m.tables {
		t := &m.tables[i]
		slot := idx[i]
		word, bit := slot>>6, uint64(1)<<(slot&63)
		if t.hotBits[word]&bit == 0 {
			t.hotBits[word] |= bit
			t.hot = append(t.hot, slot)
		}
		t.entries[slot].observe(sym, m.decayCeiling)
	}
}

// Refresh requantizes every entry touched since the last Refresh and
// clears the hot sets. Predictions consult only quantized probabilities,
// so Refresh cadence trades compression ratio against per-symbol cost but
// never correctness.
func (m *Mixer) Refresh() {
	for i := range m.tables {
		t := &m.tables[i]
		for _, slot := range t.hot {
			t.entries[slot].requantize(m.rareThreshold)
			t.hotBits[slot>>6] &^= 1 << (slot & 63)
		}
		t.hot = t.hot[:0]
	}
}
