package bandit

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/adaptive-routing/banditsim/internal/api"
)

// priorEpsilon keeps decayed shape parameters strictly positive.
const priorEpsilon = 1e-12

// Prior holds the Beta distribution shape parameters for one arm.
type Prior struct {
	Alpha float64
	Beta  float64
}

// ThompsonSampler selects between named classifiers by sampling each arm's
// Beta posterior and returning the argmax. Priors start at Beta(1,1), the
// uniform prior. A decay rate below 1 applies exponential forgetting so
// recent feedback dominates.
type ThompsonSampler struct {
	arms      []string
	priors    map[string]*Prior
	decayRate float64
	src       rand.Source
}

// NewThompsonSampler creates a sampler over the given arms, in order. Ties in
// the (continuous) samples are broken by registration order. decayRate must
// be within (0,1].
func NewThompsonSampler(arms []string, decayRate float64, seed uint64) (*ThompsonSampler, error) {
	if decayRate <= 0 || decayRate > 1 {
		return nil, fmt.Errorf("%w: decay_rate must be within (0,1], got %v", api.ErrInvalidParameter, decayRate)
	}
	if len(arms) == 0 {
		return nil, fmt.Errorf("%w: at least one arm is required", api.ErrInvalidParameter)
	}
	priors := make(map[string]*Prior, len(arms))
	for _, name := range arms {
		if _, dup := priors[name]; dup {
			return nil, fmt.Errorf("%w: duplicate arm %q", api.ErrInvalidParameter, name)
		}
		priors[name] = &Prior{Alpha: 1.0, Beta: 1.0}
	}
	return &ThompsonSampler{
		arms:      append([]string(nil), arms...),
		priors:    priors,
		decayRate: decayRate,
		src:       rand.NewSource(seed),
	}, nil
}

// Select samples Beta(alpha, beta) for every arm and returns the name with
// the maximum sample.
func (ts *ThompsonSampler) Select() string {
	selected := ts.arms[0]
	maxSample := -1.0
	for _, name := range ts.arms {
		p := ts.priors[name]
		sample := distuv.Beta{Alpha: p.Alpha, Beta: p.Beta, Src: ts.src}.Rand()
		if sample > maxSample {
			maxSample = sample
			selected = name
		}
	}
	return selected
}

// UpdatePrior applies the Bayesian update for one observed outcome: both
// shape parameters are first multiplied by the decay rate, then alpha is
// incremented for outcome 1 (true positive) or beta for outcome 0 (false
// negative). Decay precedes the increment so the newest observation is never
// discounted by its own update.
func (ts *ThompsonSampler) UpdatePrior(name string, outcome int) error {
	if outcome != 0 && outcome != 1 {
		return fmt.Errorf("%w: outcome must be 1 (true positive) or 0 (false negative), got %d", api.ErrInvalidParameter, outcome)
	}
	p, ok := ts.priors[name]
	if !ok {
		return fmt.Errorf("%w: unknown arm %q", api.ErrInvalidParameter, name)
	}

	p.Alpha *= ts.decayRate
	p.Beta *= ts.decayRate
	if p.Alpha < priorEpsilon {
		p.Alpha = priorEpsilon
	}
	if p.Beta < priorEpsilon {
		p.Beta = priorEpsilon
	}

	if outcome == 1 {
		p.Alpha++
	} else {
		p.Beta++
	}
	return nil
}

// Prior returns a copy of the named arm's prior.
func (ts *ThompsonSampler) Prior(name string) (Prior, bool) {
	p, ok := ts.priors[name]
	if !ok {
		return Prior{}, false
	}
	return *p, true
}

// Priors returns a copy of all priors keyed by arm name.
func (ts *ThompsonSampler) Priors() map[string]Prior {
	out := make(map[string]Prior, len(ts.priors))
	for name, p := range ts.priors {
		out[name] = *p
	}
	return out
}

// Arms returns the arm names in registration order.
func (ts *ThompsonSampler) Arms() []string {
	return append([]string(nil), ts.arms...)
}

// DecayRate returns the current decay rate.
func (ts *ThompsonSampler) DecayRate() float64 {
	return ts.decayRate
}

// SetDecayRate changes the decay rate for subsequent updates.
func (ts *ThompsonSampler) SetDecayRate(d float64) error {
	if d <= 0 || d > 1 {
		return fmt.Errorf("%w: decay_rate must be within (0,1], got %v", api.ErrInvalidParameter, d)
	}
	ts.decayRate = d
	return nil
}
