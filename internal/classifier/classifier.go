package classifier

import (
	"fmt"
	"math/rand"

	"github.com/adaptive-routing/banditsim/internal/api"
)

// SyntheticClassifier simulates a fraud model with an adjustable recall rate.
// The structure is deterministic, the outcome stochastic: a fraudulent
// transaction is flagged with probability recallRate, a legitimate one is
// never flagged (perfect precision by construction).
type SyntheticClassifier struct {
	name       string
	recallRate float64
	rng        *rand.Rand
}

// New creates a classifier. recallRate must be within [0,1].
func New(name string, recallRate float64, rng *rand.Rand) (*SyntheticClassifier, error) {
	if recallRate < 0 || recallRate > 1 {
		return nil, fmt.Errorf("%w: recall rate for %s must be within [0,1], got %v", api.ErrInvalidParameter, name, recallRate)
	}
	return &SyntheticClassifier{name: name, recallRate: recallRate, rng: rng}, nil
}

// Name returns the classifier's display name.
func (c *SyntheticClassifier) Name() string {
	return c.name
}

// RecallRate returns the current simulated recall rate.
func (c *SyntheticClassifier) RecallRate() float64 {
	return c.recallRate
}

// Predict returns 1 (fraud) or 0 (legitimate) for the given transaction.
func (c *SyntheticClassifier) Predict(tx api.Transaction) int {
	if tx.Label != 1 {
		return 0
	}
	if c.rng.Float64() < c.recallRate {
		return 1
	}
	return 0
}

// UpdateRecallRate changes the recall rate, simulating concept drift. The new
// rate applies to all subsequent predictions.
func (c *SyntheticClassifier) UpdateRecallRate(r float64) error {
	if r < 0 || r > 1 {
		return fmt.Errorf("%w: recall rate for %s must be within [0,1], got %v", api.ErrInvalidParameter, c.name, r)
	}
	c.recallRate = r
	return nil
}
