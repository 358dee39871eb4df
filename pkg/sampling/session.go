package sampling

import (
	"context"
	stderrors "errors"
	"iter"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stochfold/pkg/ensemble"
	"github.com/matzehuels/stochfold/pkg/errors"
	"github.com/matzehuels/stochfold/pkg/observability"
)

// Session draws non-redundant samples from one ensemble. Every structure is
// returned at most once, and each draw follows the Boltzmann distribution
// restricted to the structures not yet returned.
//
// A Session is not safe for concurrent use. Independent sessions may share
// an ensemble.
type Session struct {
	ens     ensemble.Ensemble
	eng     *engine
	tracker *Tracker
	root    frame
	logger  *log.Logger
	kind    string

	emitted   int
	exhausted bool
	err       error
}

// NewSession creates a session with an empty redundancy tracker.
func NewSession(ens ensemble.Ensemble, opts ...Option) (*Session, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	if err := checkEnsemble(ens); err != nil {
		return nil, err
	}
	eng := newEngine(ens, cfg)
	return &Session{
		ens:     ens,
		eng:     eng,
		tracker: newTracker(ens.Z(), cfg.maxNodes),
		root:    eng.wholeRoot(),
		logger:  cfg.logger,
		kind:    ens.Kind().String(),
	}, nil
}

// Next draws the next structure. It returns false once the ensemble is
// exhausted, which is not an error. A non-nil error (tracker budget) is
// sticky: later calls return it again.
func (s *Session) Next() (Draw, bool, error) {
	return s.next(context.Background())
}

func (s *Session) next(ctx context.Context) (Draw, bool, error) {
	start := time.Now()
	smp, ok, err := s.draw(ctx)
	if err != nil || !ok {
		return Draw{}, ok, err
	}
	if err := s.accept(ctx, smp, start); err != nil {
		return Draw{}, false, err
	}
	return smp, true, nil
}

// draw walks to the next unemitted structure without recording it. The
// walk stays in s.eng until the next draw; accept records it. Residual
// mass left by round-off is discarded and the walk retried.
func (s *Session) draw(ctx context.Context) (Draw, bool, error) {
	if s.err != nil {
		return Draw{}, false, s.err
	}
	if s.exhausted {
		return Draw{}, false, nil
	}

	start := time.Now()
	for {
		smp, err := s.eng.run(s.root, s.eng.g.n, s.tracker)
		switch {
		case stderrors.Is(err, errExhausted):
			s.exhausted = true
			hooks := observability.Sampling()
			hooks.OnDraw(ctx, s.kind, true, false, time.Since(start))
			hooks.OnExhausted(ctx, s.kind, s.emitted)
			s.logger.Debug("ensemble exhausted", "emitted", s.emitted, "coverage", s.tracker.Coverage())
			return Draw{}, false, nil
		case stderrors.Is(err, errDeadEnd):
		case err != nil:
			s.err = err
			return Draw{}, false, err
		case s.tracker.emitted(s.eng.path):
		default:
			if err := s.tracker.fits(s.eng.path); err != nil {
				s.err = err
				s.logger.Error("tracker budget exceeded", "nodes", s.tracker.NodeCount(), "err", err)
				return Draw{}, false, err
			}
			smp.Probability = smp.Weight / s.eng.g.value(s.root)
			return smp, true, nil
		}
		s.logger.Debug("discarding round-off residual", "mass", s.eng.residual, "depth", len(s.eng.path))
		if err := s.tracker.discard(s.eng.path, s.eng.residual); err != nil {
			s.err = err
			return Draw{}, false, err
		}
	}
}

// accept records the structure returned by the preceding draw.
func (s *Session) accept(ctx context.Context, smp Draw, start time.Time) error {
	if err := s.tracker.commit(s.eng.path, smp.Weight); err != nil {
		s.err = err
		return err
	}
	s.emitted++
	hooks := observability.Sampling()
	hooks.OnDraw(ctx, s.kind, true, true, time.Since(start))
	hooks.OnTrackerSize(ctx, s.tracker.NodeCount())
	s.logger.Debug("drew structure", "n", s.emitted, "structure", smp.Structure, "p", smp.Probability)
	return nil
}

// Stream draws up to count structures and passes each to emit. It stops
// early when emit returns false, when the ensemble is exhausted or when ctx
// is done, and returns the number of structures emitted by this call. The
// session can be resumed afterwards.
func (s *Session) Stream(ctx context.Context, count int, emit func(Draw) bool) (int, error) {
	if count < 1 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "sample count must be positive, got %d", count)
	}
	for n := 0; n < count; n++ {
		if err := ctx.Err(); err != nil {
			return n, errors.Wrap(errors.ErrCodeCanceled, err, "sampling stopped after %d structures", n)
		}
		smp, ok, err := s.next(ctx)
		if err != nil || !ok {
			return n, err
		}
		if !emit(smp) {
			return n + 1, nil
		}
	}
	return count, nil
}

// All returns an iterator over up to count structures. Check Err after
// the loop for a budget error.
func (s *Session) All(count int) iter.Seq[Draw] {
	return func(yield func(Draw) bool) {
		for range count {
			smp, ok, err := s.next(context.Background())
			if err != nil || !ok {
				return
			}
			if !yield(smp) {
				return
			}
		}
	}
}

// Chan streams up to count structures on a channel with the given buffer.
// The channel is closed when sampling ends; check Err afterwards. The
// session must not be used until the channel is closed. A structure counts
// as emitted once it is sent, so structures still buffered when ctx is
// cancelled are not returned by a resumed session. With buf 0 nothing is
// lost.
func (s *Session) Chan(ctx context.Context, count, buf int) <-chan Draw {
	ch := make(chan Draw, buf)
	go func() {
		defer close(ch)
		for range count {
			if ctx.Err() != nil {
				return
			}
			start := time.Now()
			smp, ok, err := s.draw(ctx)
			if err != nil || !ok {
				return
			}
			select {
			case ch <- smp:
			case <-ctx.Done():
				return
			}
			if err := s.accept(ctx, smp, start); err != nil {
				return
			}
		}
	}()
	return ch
}

// Err returns the error that stopped the session, if any.
func (s *Session) Err() error { return s.err }

// Emitted returns the number of structures drawn so far.
func (s *Session) Emitted() int { return s.emitted }

// Exhausted reports whether every structure has been drawn.
func (s *Session) Exhausted() bool { return s.exhausted }

// Coverage returns the fraction of the ensemble's mass already drawn.
func (s *Session) Coverage() float64 { return s.tracker.Coverage() }

// Tracker exposes the redundancy tracker for inspection.
func (s *Session) Tracker() *Tracker { return s.tracker }
