package txsource

import (
	"fmt"
	"math/rand"

	"github.com/adaptive-routing/banditsim/internal/api"
)

// maxTransactionID bounds the display-only identifier range.
const maxTransactionID = 1_000_000

// Source generates labeled synthetic transactions with a configurable base
// fraud rate. Not safe for concurrent use; the owning engine serializes calls.
type Source struct {
	fraudRate float64
	rng       *rand.Rand
}

// New creates a Source. fraudRate must be within [0,1].
func New(fraudRate float64, rng *rand.Rand) (*Source, error) {
	if fraudRate < 0 || fraudRate > 1 {
		return nil, fmt.Errorf("%w: fraud_rate must be within [0,1], got %v", api.ErrInvalidParameter, fraudRate)
	}
	return &Source{fraudRate: fraudRate, rng: rng}, nil
}

// Generate produces one transaction with a Bernoulli(fraudRate) ground-truth
// label and a uniformly random id.
func (s *Source) Generate() api.Transaction {
	tx := api.Transaction{
		ID: s.rng.Int63n(maxTransactionID) + 1,
	}
	if s.rng.Float64() < s.fraudRate {
		tx.Label = 1
	}
	return tx
}

// SetFraudRate changes the base fraud rate for subsequent transactions.
func (s *Source) SetFraudRate(r float64) error {
	if r < 0 || r > 1 {
		return fmt.Errorf("%w: fraud_rate must be within [0,1], got %v", api.ErrInvalidParameter, r)
	}
	s.fraudRate = r
	return nil
}

// FraudRate returns the current base fraud rate.
func (s *Source) FraudRate() float64 {
	return s.fraudRate
}
