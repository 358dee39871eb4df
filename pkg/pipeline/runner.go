package pipeline

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/stochfold/pkg/cache"
	"github.com/matzehuels/stochfold/pkg/errors"
	"github.com/matzehuels/stochfold/pkg/fold"
	pkgio "github.com/matzehuels/stochfold/pkg/io"
	"github.com/matzehuels/stochfold/pkg/observability"
	"github.com/matzehuels/stochfold/pkg/sampling"
	"github.com/matzehuels/stochfold/pkg/store"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner holds no per-run state. Multiple goroutines can safely use the
// same Runner with different options; concurrent folds of the same input
// share one computation.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Store  store.Store // optional; runs are persisted when set
	Logger *log.Logger

	// TTL is how long folded tables stay cached.
	TTL time.Duration

	folds singleflight.Group
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		TTL:    cache.TTLEnsemble,
	}
}

// Execute runs the complete fold → sample → store pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{}

	// Stage 1: Fold
	foldStart := time.Now()
	ens, hit, err := r.FoldWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Ensemble = ens
	result.Stats.Length = ens.Len()
	result.Stats.FoldTime = time.Since(foldStart)
	result.CacheInfo.FoldHit = hit

	r.Logger.Info("computed partition function",
		"length", ens.Len(),
		"kind", ens.Kind(),
		"cached", hit,
		"duration", result.Stats.FoldTime)

	// Stage 2: Sample
	sampleStart := time.Now()
	if err := r.sample(ctx, ens, opts, result); err != nil {
		return nil, err
	}
	result.Stats.SampleTime = time.Since(sampleStart)

	r.Logger.Info("sampled structures",
		"count", len(result.Samples),
		"non_redundant", opts.NonRedundant,
		"exhausted", result.Exhausted,
		"duration", result.Stats.SampleTime)

	// Stage 3: Store
	result.RunID = store.NewID()
	result.Document = NewDocument(result.RunID, ens, opts, result)
	if r.Store != nil {
		run := &store.Run{ID: result.RunID, CreatedAt: time.Now().UTC(), Document: result.Document}
		if err := r.Store.Save(ctx, run); err != nil {
			return nil, fmt.Errorf("store run: %w", err)
		}
		r.Logger.Debug("stored run", "id", result.RunID)
	}
	return result, nil
}

// FoldWithCacheInfo fills the tables for the input with caching and
// reports whether they came from the cache.
func (r *Runner) FoldWithCacheInfo(ctx context.Context, opts Options) (*fold.Ensemble, bool, error) {
	r.applyLogger(&opts)
	cmp, err := opts.Compound()
	if err != nil {
		return nil, false, err
	}
	kind := cmp.Kind().String()
	cacheKey := r.Keyer.EnsembleKey(kind, cmp.Key())
	hooks := observability.Cache()

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			ens, err := cmp.Restore(data)
			if err == nil {
				hooks.OnCacheHit(ctx, "ensemble")
				return ens, true, nil // Cache hit
			}
			// Corrupt or stale entries fall through to a recompute.
			opts.Logger.Warn("discarding cached tables", "key", cacheKey, "err", err)
		}
	}
	hooks.OnCacheMiss(ctx, "ensemble")

	v, err, _ := r.folds.Do(cacheKey, func() (any, error) {
		return foldCompound(ctx, cmp)
	})
	if err != nil {
		return nil, false, err
	}
	ens := v.(*fold.Ensemble)

	if data, err := ens.MarshalJSON(); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, r.TTL); err != nil {
			opts.Logger.Warn("cache tables", "err", err)
		} else {
			hooks.OnCacheSet(ctx, "ensemble", len(data))
		}
	}
	return ens, false, nil // Cache miss
}

// Fold is a convenience wrapper that calls FoldWithCacheInfo and discards
// the cache hit info.
func (r *Runner) Fold(ctx context.Context, opts Options) (*fold.Ensemble, error) {
	ens, _, err := r.FoldWithCacheInfo(ctx, opts)
	return ens, err
}

func foldCompound(ctx context.Context, cmp *fold.Compound) (*fold.Ensemble, error) {
	hooks := observability.Fold()
	kind := cmp.Kind().String()
	hooks.OnFoldStart(ctx, kind, cmp.Len())
	start := time.Now()
	ens, err := cmp.PF()
	hooks.OnFoldComplete(ctx, kind, cmp.Len(), time.Since(start), err)
	return ens, err
}

// Sample draws structures from ens as configured by opts.
func (r *Runner) Sample(ctx context.Context, ens *fold.Ensemble, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForSample(); err != nil {
		return nil, err
	}
	result := &Result{Ensemble: ens}
	if err := r.sample(ctx, ens, opts, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Runner) sample(ctx context.Context, ens *fold.Ensemble, opts Options, result *Result) error {
	switch {
	case !opts.NonRedundant:
		return sampleOneShot(ctx, ens, opts, result)
	case opts.Workers == 1:
		return sampleSession(ctx, ens, opts, result)
	default:
		return sampleWorkers(ctx, ens, opts, result)
	}
}

// sampleOneShot draws independent samples from one seeded generator.
func sampleOneShot(ctx context.Context, ens *fold.Ensemble, opts Options, result *Result) error {
	seed := opts.seed()
	rng := rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
	sopts := append(opts.SamplingOptions(0), sampling.WithRand(rng))
	result.Samples = make([]sampling.Draw, 0, opts.Count)
	for n := 0; n < opts.Count; n++ {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(errors.ErrCodeCanceled, err, "sampling stopped after %d structures", n)
		}
		var (
			smp sampling.Draw
			err error
		)
		if opts.Prefix > 0 {
			smp, err = sampling.SamplePrefixWeighted(ens, opts.Prefix, sopts...)
		} else {
			smp, err = sampling.SampleWeighted(ens, sopts...)
		}
		if err != nil {
			return err
		}
		result.Samples = append(result.Samples, smp)
	}
	return nil
}

func sampleSession(ctx context.Context, ens *fold.Ensemble, opts Options, result *Result) error {
	sess, err := sampling.NewSession(ens, opts.SamplingOptions(0)...)
	if err != nil {
		return err
	}
	result.Samples = make([]sampling.Draw, 0, min(opts.Count, 1024))
	if _, err := sess.Stream(ctx, opts.Count, func(s sampling.Draw) bool {
		result.Samples = append(result.Samples, s)
		return true
	}); err != nil {
		return err
	}
	result.Exhausted = sess.Exhausted()
	result.Coverage = sess.Coverage()
	result.Stats.TrackerNodes = sess.Tracker().NodeCount()
	return nil
}

// sampleWorkers runs independent sessions with consecutive seeds and merges
// their draws. Each session is non-redundant on its own; structures drawn
// by more than one worker are kept once and counted as duplicates. When
// overlap leaves fewer than Count unique structures, the first worker's
// session keeps drawing until Count is reached or it runs out.
func sampleWorkers(ctx context.Context, ens *fold.Ensemble, opts Options, result *Result) error {
	per := (opts.Count + opts.Workers - 1) / opts.Workers
	draws := make([][]sampling.Draw, opts.Workers)
	sessions := make([]*sampling.Session, opts.Workers)

	g, gctx := errgroup.WithContext(ctx)
	for w := range opts.Workers {
		g.Go(func() error {
			sess, err := sampling.NewSession(ens, opts.SamplingOptions(w)...)
			if err != nil {
				return err
			}
			sessions[w] = sess
			_, err = sess.Stream(gctx, per, func(s sampling.Draw) bool {
				draws[w] = append(draws[w], s)
				return true
			})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	seen := make(map[string]struct{}, opts.Count)
	add := func(s sampling.Draw) {
		key := s.Structure.Key()
		if _, dup := seen[key]; dup {
			result.Stats.Duplicates++
			return
		}
		seen[key] = struct{}{}
		if len(result.Samples) < opts.Count {
			result.Samples = append(result.Samples, s)
		}
	}
	exhausted := false
	for w, sess := range sessions {
		for _, s := range draws[w] {
			add(s)
		}
		// One exhausted worker has drawn every structure.
		exhausted = exhausted || sess.Exhausted()
	}

	if len(result.Samples) < opts.Count && !exhausted {
		top := sessions[0]
		short := opts.Count - len(result.Samples)
		if _, err := top.Stream(ctx, math.MaxInt, func(s sampling.Draw) bool {
			add(s)
			return len(result.Samples) < opts.Count
		}); err != nil {
			return err
		}
		exhausted = top.Exhausted()
		opts.Logger.Debug("topped up worker draws", "short", short, "unique", len(result.Samples))
	}
	result.Exhausted = exhausted
	for _, sess := range sessions {
		result.Stats.TrackerNodes += sess.Tracker().NodeCount()
	}

	var mass float64
	for _, s := range result.Samples {
		mass += s.Weight
	}
	result.Coverage = min(mass/ens.Z(), 1)
	opts.Logger.Debug("merged worker draws",
		"workers", opts.Workers,
		"unique", len(result.Samples),
		"duplicates", result.Stats.Duplicates)
	return nil
}

// Stream folds the input and passes non-redundant samples to emit as they
// are drawn. It returns the number emitted and whether the ensemble was
// exhausted.
func (r *Runner) Stream(ctx context.Context, opts Options, emit func(sampling.Draw) bool) (int, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return 0, false, err
	}
	ens, err := r.Fold(ctx, opts)
	if err != nil {
		return 0, false, err
	}
	sess, err := sampling.NewSession(ens, opts.SamplingOptions(0)...)
	if err != nil {
		return 0, false, err
	}
	n, err := sess.Stream(ctx, opts.Count, emit)
	return n, sess.Exhausted(), err
}

// NewDocument describes a run for export and storage.
func NewDocument(runID string, ens *fold.Ensemble, opts Options, result *Result) *pkgio.Document {
	kT := ens.KT()
	doc := &pkgio.Document{
		RunID:        runID,
		Name:         opts.Name,
		Sequences:    ens.Sequences(),
		Kind:         ens.Kind().String(),
		Circular:     ens.Circular(),
		NonRedundant: opts.NonRedundant,
		Temperature:  ens.Model().Temperature,
		Z:            ens.Z(),
		FreeEnergy:   -kT * math.Log(ens.Z()),
		Coverage:     result.Coverage,
		Exhausted:    result.Exhausted,
		Samples:      make([]pkgio.SampleDoc, 0, len(result.Samples)),
	}
	for _, s := range result.Samples {
		doc.Samples = append(doc.Samples, pkgio.SampleDoc{
			Structure:   s.Structure.DotBracket(),
			Energy:      energy(kT, s.Weight),
			Probability: s.Probability,
		})
	}
	return doc
}

func energy(kT, weight float64) float64 {
	if weight <= 0 {
		return 0
	}
	return -kT * math.Log(weight)
}

// Close releases resources held by the runner.
func (r *Runner) Close() error {
	var err error
	if r.Cache != nil {
		err = r.Cache.Close()
	}
	if r.Store != nil {
		if serr := r.Store.Close(context.Background()); err == nil {
			err = serr
		}
	}
	return err
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
