// Package mixer implements the multi-order context-mixing predictor behind
// the pakt codec.
//
// The predictor keeps one fixed-size hash table per context order. An order
// is the number of immediately preceding bytes hashed to select a table
// entry; short orders generalize, long orders specialize, and the mix of
// both is what adapts quickly on small inputs while still exploiting long
// repeats. Each entry holds raw per-symbol observation counts alongside a
// quantized probability per symbol; predictions read only the quantized
// probabilities, and a periodic refresh pass requantizes the entries whose
// counts changed since the last pass. Splitting the cheap per-symbol count
// update from the batched requantization amortizes the cost of recomputing
// a 256-wide probability vector while bounding how stale predictions can
// become.
//
// Tables resolve hash collisions by overwrite: two contexts that hash to
// the same slot share statistics. The tables are an approximate map, not a
// cache, and the arithmetic coder downstream only needs the combined
// distribution to be non-degenerate, which the per-symbol probability floor
// of 1 guarantees.
//
// Every method is deterministic in the byte sequence observed so far. The
// decode side replays Predict/Update/Refresh in the same order as the
// encode side and the table state stays bit-identical, which is the
// property the whole codec rests on.
package mixer
