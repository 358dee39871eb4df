// Package pipeline runs the read → fold → sample → store sequence shared by
// the CLI and the HTTP server.
//
// # Stages
//
//  1. Fold: build a [fold.Compound] from a sequence or alignment and fill its
//     tables, reusing cached tables when the same input was folded before
//  2. Sample: draw one-shot or non-redundant samples, optionally with
//     several independent workers
//  3. Store: describe the run as an [io.Document] and persist it when the
//     runner has a [store.Store]
//
// # Usage
//
//	runner := pipeline.NewRunner(fileCache, nil, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    Sequence:     "GGGAAAUCCCAGCU",
//	    NonRedundant: true,
//	    Count:        100,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, s := range res.Samples {
//	    fmt.Println(s.Structure)
//	}
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stochfold/pkg/errors"
	"github.com/matzehuels/stochfold/pkg/fold"
	pkgio "github.com/matzehuels/stochfold/pkg/io"
	"github.com/matzehuels/stochfold/pkg/sampling"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultSeed is the default random seed for reproducibility.
	DefaultSeed = uint64(42)

	// DefaultCount is the number of structures drawn when none is requested.
	DefaultCount = 10

	// DefaultWorkers is the number of sampling workers.
	DefaultWorkers = 1

	// MaxWorkers bounds the number of sampling workers.
	MaxWorkers = 64

	// MaxCount bounds the number of structures per run.
	MaxCount = 1_000_000
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures a pipeline run. It supports JSON for API requests.
type Options struct {
	// Input: exactly one of Sequence or Alignment.
	Name      string   `json:"name,omitempty"`
	Sequence  string   `json:"sequence,omitempty"`
	Alignment []string `json:"alignment,omitempty"`

	// Model overrides the folding model. Nil selects fold.DefaultModel.
	// Unique multiloop decomposition is always enabled.
	Model *fold.Model `json:"model,omitempty"`

	// Sampling options
	NonRedundant bool    `json:"non_redundant,omitempty"`
	Count        int     `json:"count,omitempty"`
	Prefix       int     `json:"prefix,omitempty"`
	Seed         *uint64 `json:"seed,omitempty"` // nil selects DefaultSeed; 0 is a valid seed
	Tolerance    float64 `json:"tolerance,omitempty"`
	MaxNodes     int     `json:"max_nodes,omitempty"`
	Workers      int     `json:"workers,omitempty"`

	// Refresh ignores cached tables.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies the run; it is the store key when persisted.
	RunID string

	// Ensemble holds the filled tables.
	Ensemble *fold.Ensemble

	// Samples are the drawn structures in draw order.
	Samples []sampling.Draw

	// Exhausted reports that non-redundant sampling ran out of structures.
	Exhausted bool

	// Coverage is the fraction of the ensemble mass drawn, for
	// non-redundant runs.
	Coverage float64

	// Document is the exportable description of the run.
	Document *pkgio.Document

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Length       int
	Duplicates   int // cross-worker duplicates removed from non-redundant runs
	TrackerNodes int
	FoldTime     time.Duration
	SampleTime   time.Duration
}

// CacheInfo tracks cache hits.
type CacheInfo struct {
	FoldHit bool
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the options and fills in defaults.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForFold(); err != nil {
		return err
	}
	if err := o.ValidateForSample(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForFold checks the input and model.
func (o *Options) ValidateForFold() error {
	switch {
	case o.Sequence == "" && len(o.Alignment) == 0:
		return errors.New(errors.ErrCodeInvalidInput, "sequence or alignment is required")
	case o.Sequence != "" && len(o.Alignment) > 0:
		return errors.New(errors.ErrCodeInvalidInput, "sequence and alignment are mutually exclusive")
	}
	md := fold.DefaultModel()
	if o.Model != nil {
		md = *o.Model
	}
	md.UniqueML = true
	o.Model = &md
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return o.Model.Validate()
}

// ValidateForSample checks the sampling options and fills in defaults.
func (o *Options) ValidateForSample() error {
	if o.Count == 0 {
		o.Count = DefaultCount
	}
	if o.Count < 0 || o.Count > MaxCount {
		return errors.New(errors.ErrCodeInvalidInput, "count must be in 1..%d, got %d", MaxCount, o.Count)
	}
	if o.Workers == 0 {
		o.Workers = DefaultWorkers
	}
	if o.Workers < 0 || o.Workers > MaxWorkers {
		return errors.New(errors.ErrCodeInvalidInput, "workers must be in 1..%d, got %d", MaxWorkers, o.Workers)
	}
	if o.Prefix < 0 || o.Prefix > o.Length() {
		return errors.New(errors.ErrCodeInvalidInput, "prefix must be in 0..%d, got %d", o.Length(), o.Prefix)
	}
	if o.Prefix > 0 && o.NonRedundant {
		return errors.New(errors.ErrCodeInvalidInput, "prefix sampling is one-shot only")
	}
	if o.Seed == nil {
		seed := DefaultSeed
		o.Seed = &seed
	}
	if o.Tolerance == 0 {
		o.Tolerance = sampling.DefaultTolerance
	}
	if o.MaxNodes == 0 {
		o.MaxNodes = sampling.DefaultMaxNodes
	}
	return nil
}

func (o *Options) seed() uint64 {
	if o.Seed == nil {
		return DefaultSeed
	}
	return *o.Seed
}

// Length returns the input length.
func (o *Options) Length() int {
	if o.Sequence != "" {
		return len(o.Sequence)
	}
	if len(o.Alignment) > 0 {
		return len(o.Alignment[0])
	}
	return 0
}

// Compound builds the fold input described by the options.
func (o *Options) Compound() (*fold.Compound, error) {
	if err := o.ValidateForFold(); err != nil {
		return nil, err
	}
	if o.Sequence != "" {
		return fold.NewSingle(o.Sequence, *o.Model)
	}
	return fold.NewAlignment(o.Alignment, *o.Model)
}

// SamplingOptions returns the sampling options for worker w. Workers are
// seeded Seed, Seed+1 and so on.
func (o *Options) SamplingOptions(w int) []sampling.Option {
	return []sampling.Option{
		sampling.WithSeed(o.seed() + uint64(w)),
		sampling.WithTolerance(o.Tolerance),
		sampling.WithMaxNodes(o.MaxNodes),
		sampling.WithLogger(o.Logger),
	}
}
