package sampling

import (
	"context"
	"time"

	"github.com/matzehuels/stochfold/pkg/ensemble"
	"github.com/matzehuels/stochfold/pkg/errors"
	"github.com/matzehuels/stochfold/pkg/observability"
	"github.com/matzehuels/stochfold/pkg/structure"
)

// Sample draws one structure of the whole molecule from the Boltzmann
// distribution. Circular ensembles are sampled with the circular exterior
// loop; comparative ensembles yield consensus structures.
func Sample(ens ensemble.Ensemble, opts ...Option) (structure.Structure, error) {
	smp, err := oneShot(ens, 0, opts)
	return smp.Structure, err
}

// SamplePrefix draws one structure of positions 1..length, treating the
// prefix as a linear chain whatever the ensemble's topology.
func SamplePrefix(ens ensemble.Ensemble, length int, opts ...Option) (structure.Structure, error) {
	smp, err := SamplePrefixWeighted(ens, length, opts...)
	return smp.Structure, err
}

// SamplePrefixWeighted is SamplePrefix returning the weight and the
// probability within the prefix ensemble Q5(length).
func SamplePrefixWeighted(ens ensemble.Ensemble, length int, opts ...Option) (Draw, error) {
	if ens != nil && (length < 1 || length > ens.Len()) {
		return Draw{}, errors.New(errors.ErrCodeInvalidInput,
			"prefix length %d out of range 1..%d", length, ens.Len())
	}
	return oneShot(ens, length, opts)
}

// SampleWeighted is Sample returning the structure's weight and probability.
func SampleWeighted(ens ensemble.Ensemble, opts ...Option) (Draw, error) {
	return oneShot(ens, 0, opts)
}

// oneShot draws without a tracker. length 0 samples the whole molecule.
func oneShot(ens ensemble.Ensemble, length int, opts []Option) (Draw, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return Draw{}, err
	}
	if err := checkEnsemble(ens); err != nil {
		return Draw{}, err
	}
	eng := newEngine(ens, cfg)
	root := eng.wholeRoot()
	if length > 0 {
		root = frame{kind: frameExterior, j: length}
	} else {
		length = ens.Len()
	}

	start := time.Now()
	smp, err := eng.run(root, length, nil)
	ok := err == nil
	observability.Sampling().OnDraw(context.Background(), ens.Kind().String(), false, ok, time.Since(start))
	if err != nil {
		// Without a tracker every frame has positive mass.
		return Draw{}, errors.Wrap(errors.ErrCodeInternal, err, "draw from %s ensemble", ens.Kind())
	}
	smp.Probability = smp.Weight / eng.g.value(root)
	return smp, nil
}

// SampleNonRedundant draws up to count distinct structures. Fewer are
// returned when the ensemble holds fewer than count structures.
func SampleNonRedundant(ens ensemble.Ensemble, count int, opts ...Option) ([]structure.Structure, error) {
	if count < 1 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "sample count must be positive, got %d", count)
	}
	s, err := NewSession(ens, opts...)
	if err != nil {
		return nil, err
	}
	out := make([]structure.Structure, 0, min(count, 1024))
	for smp := range s.All(count) {
		out = append(out, smp.Structure)
	}
	return out, s.Err()
}

// SampleNonRedundantStream draws up to count distinct structures and passes
// each to emit as soon as it is drawn. Returning false from emit stops
// sampling. The number of structures passed to emit is returned.
func SampleNonRedundantStream(ctx context.Context, ens ensemble.Ensemble, count int,
	emit func(structure.Structure) bool, opts ...Option) (int, error) {
	s, err := NewSession(ens, opts...)
	if err != nil {
		return 0, err
	}
	return s.Stream(ctx, count, func(smp Draw) bool {
		return emit(smp.Structure)
	})
}
