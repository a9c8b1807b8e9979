package pakt

import (
	"fmt"

	"github.com/arloliu/pakt/chunk"
)

// Default configuration values. The Fibonacci flavor of the defaults comes
// from the predictor design: prime-free, mutually unaligned strides keep
// the context windows and the refresh cadence from beating against
// periodic data.
const (
	// DefaultFrameSize is the target frame length in bytes.
	DefaultFrameSize = 46368
	// DefaultTableSize is the number of entries per context-order table.
	DefaultTableSize = 75025
	// DefaultRefreshInterval is the requantization cadence in symbols.
	DefaultRefreshInterval = 233
	// DefaultDecayCeiling bounds an entry's total count before decay.
	DefaultDecayCeiling = 1024
	// DefaultRareThreshold is the first byte value scaled down as rare
	// during requantization.
	DefaultRareThreshold = 240
)

// DefaultContextOrders are the context window lengths, in bytes, of the
// predictor's tables.
var DefaultContextOrders = []int{1, 2, 3, 5, 8, 13, 21}

// Option configures a Codec.
type Option func(*config) error

type config struct {
	frameSize       int
	boundaryWindow  int
	orders          []int
	tableSize       int
	refreshInterval int
	decayCeiling    uint32
	rareThreshold   int
	arenaBlock      int // 0 derives from frame scratch needs
	arenaMaxBytes   int // 0 means unbounded
}

func defaultConfig() config {
	return config{
		frameSize:       DefaultFrameSize,
		boundaryWindow:  chunk.DefaultBoundaryWindow,
		orders:          DefaultContextOrders,
		tableSize:       DefaultTableSize,
		refreshInterval: DefaultRefreshInterval,
		decayCeiling:    DefaultDecayCeiling,
		rareThreshold:   DefaultRareThreshold,
	}
}

// validate rejects configurations the codec cannot run with. Per-field
// detail beyond these checks is validated by the owning package's
// constructor (chunk.New, mixer.New).
func (c *config) validate() error {
	if c.frameSize <= 0 {
		return fmt.Errorf("pakt: frame size must be positive, got %d", c.frameSize)
	}
	if c.boundaryWindow < 0 {
		return fmt.Errorf("pakt: boundary window must be non-negative, got %d", c.boundaryWindow)
	}
	if len(c.orders) == 0 {
		return fmt.Errorf("pakt: at least one context order required")
	}
	for i, o := range c.orders {
		if o <= 0 {
			return fmt.Errorf("pakt: context order must be positive, got %d", o)
		}
		if i > 0 && o <= c.orders[i-1] {
			return fmt.Errorf("pakt: context orders must be strictly increasing, got %v", c.orders)
		}
	}
	if c.tableSize <= 0 {
		return fmt.Errorf("pakt: table size must be positive, got %d", c.tableSize)
	}
	if c.refreshInterval <= 0 {
		return fmt.Errorf("pakt: refresh interval must be positive, got %d", c.refreshInterval)
	}
	if c.decayCeiling == 0 || c.decayCeiling > 60000 {
		return fmt.Errorf("pakt: decay ceiling %d out of range [1, 60000]", c.decayCeiling)
	}
	if c.rareThreshold < 0 || c.rareThreshold > 256 {
		return fmt.Errorf("pakt: rare threshold %d out of range [0, 256]", c.rareThreshold)
	}
	if c.arenaMaxBytes > 0 && c.arenaMaxBytes < c.frameScratchBytes() {
		return fmt.Errorf("pakt: arena capacity %d below per-frame scratch need %d",
			c.arenaMaxBytes, c.frameScratchBytes())
	}

	return nil
}

// frameScratchBytes is the arena memory one frame's hash batch needs: one
// uint32 index per position per order, at the largest possible frame
// length, plus alignment slack.
func (c *config) frameScratchBytes() int {
	return (c.frameSize+c.boundaryWindow)*4*len(c.orders) + 64*len(c.orders)
}

// arenaBlockSize returns the configured arena block size, deriving one
// that fits a whole frame's scratch when unset.
func (c *config) arenaBlockSize() int {
	if c.arenaBlock > 0 {
		return c.arenaBlock
	}

	return c.frameScratchBytes()
}

// WithFrameSize sets the target frame length in bytes.
func WithFrameSize(n int) Option {
	return func(c *config) error {
		if n <= 0 {
			return fmt.Errorf("pakt: frame size must be positive, got %d", n)
		}
		c.frameSize = n

		return nil
	}
}

// WithBoundaryWindow bounds the forward grain-boundary search past a
// frame's target end. Zero disables the search (frames cut at exactly the
// frame size).
func WithBoundaryWindow(n int) Option {
	return func(c *config) error {
		if n < 0 {
			return fmt.Errorf("pakt: boundary window must be non-negative, got %d", n)
		}
		c.boundaryWindow = n

		return nil
	}
}

// WithContextOrders sets the predictor's context window lengths. Orders
// must be positive and strictly increasing.
func WithContextOrders(orders ...int) Option {
	return func(c *config) error {
		if len(orders) == 0 {
			return fmt.Errorf("pakt: at least one context order required")
		}
		c.orders = append([]int(nil), orders...)

		return nil
	}
}

// WithTableSize sets the number of entries in each context-order table.
// Memory scales linearly with it; see the package documentation.
func WithTableSize(n int) Option {
	return func(c *config) error {
		if n <= 0 {
			return fmt.Errorf("pakt: table size must be positive, got %d", n)
		}
		c.tableSize = n

		return nil
	}
}

// WithRefreshInterval sets how many symbols pass between requantization
// sweeps of the touched table entries.
func WithRefreshInterval(n int) Option {
	return func(c *config) error {
		if n <= 0 {
			return fmt.Errorf("pakt: refresh interval must be positive, got %d", n)
		}
		c.refreshInterval = n

		return nil
	}
}

// WithDecayCeiling sets the per-entry total count that triggers
// golden-ratio decay of the raw counts.
func WithDecayCeiling(n uint32) Option {
	return func(c *config) error {
		if n == 0 || n > 60000 {
			return fmt.Errorf("pakt: decay ceiling %d out of range [1, 60000]", n)
		}
		c.decayCeiling = n

		return nil
	}
}

// WithRareThreshold sets the first byte value treated as statistically
// rare during requantization; such symbols get their quantized probability
// scaled down. Pass 256 to disable the split.
func WithRareThreshold(n int) Option {
	return func(c *config) error {
		if n < 0 || n > 256 {
			return fmt.Errorf("pakt: rare threshold %d out of range [0, 256]", n)
		}
		c.rareThreshold = n

		return nil
	}
}

// WithArenaCapacity caps the total scratch memory the codec's arena may
// grow to. Exceeding the cap during compression panics, since it means
// the arena was mis-sized for the frame configuration; the default is
// unbounded growth.
func WithArenaCapacity(maxBytes int) Option {
	return func(c *config) error {
		if maxBytes < 0 {
			return fmt.Errorf("pakt: arena capacity must be non-negative, got %d", maxBytes)
		}
		c.arenaMaxBytes = maxBytes

		return nil
	}
}

// WithArenaBlockSize sets the arena's block granularity. The default
// derives a block large enough for one frame's hash batch.
func WithArenaBlockSize(n int) Option {
	return func(c *config) error {
		if n <= 0 {
			return fmt.Errorf("pakt: arena block size must be positive, got %d", n)
		}
		c.arenaBlock = n

		return nil
	}
}
