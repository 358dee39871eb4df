package sampling

import (
	"io"
	"math/rand/v2"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stochfold/pkg/errors"
)

const (
	// DefaultTolerance is the fraction of a choice's own mass below which
	// its remaining mass counts as round-off. It sits a few orders above
	// float64 accumulation error so structures far less likely than the
	// tolerance stay reachable.
	DefaultTolerance = 1e-12

	// DefaultMaxNodes bounds the redundancy tracker of a session.
	DefaultMaxNodes = 1 << 22
)

type config struct {
	rng      *rand.Rand
	tol      float64
	maxNodes int
	logger   *log.Logger
}

// Option configures sampling.
type Option func(*config)

// WithSeed seeds a PCG source. Equal seeds reproduce equal samples.
func WithSeed(seed uint64) Option {
	return func(c *config) {
		c.rng = rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
	}
}

// WithRand uses r as the random source. r must not be shared with another
// goroutine while sampling.
func WithRand(r *rand.Rand) Option {
	return func(c *config) {
		c.rng = r
	}
}

// WithTolerance sets the fraction of a choice's mass below which its
// remainder is treated as consumed.
func WithTolerance(tol float64) Option {
	return func(c *config) {
		c.tol = tol
	}
}

// WithMaxNodes bounds the redundancy tracker. Zero means unbounded.
func WithMaxNodes(n int) Option {
	return func(c *config) {
		c.maxNodes = n
	}
}

// WithLogger sets the logger for session events.
func WithLogger(l *log.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

func newConfig(opts []Option) (*config, error) {
	c := &config{
		tol:      DefaultTolerance,
		maxNodes: DefaultMaxNodes,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		seed := rand.Uint64()
		c.rng = rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	if !(c.tol > 0 && c.tol < 1) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "tolerance must be in (0, 1), got %g", c.tol)
	}
	if c.maxNodes < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "max nodes must be non-negative, got %d", c.maxNodes)
	}
	return c, nil
}
