package api

import (
	"errors"
	"fmt"
)

// ErrInvalidParameter marks out-of-range construction or update arguments.
// Callers test with errors.Is; the wrapped message names the offending field.
var ErrInvalidParameter = errors.New("invalid parameter")

// Transaction is a single labeled synthetic event. Label is the ground truth:
// 1 for fraudulent, 0 for legitimate. Immutable once generated.
type Transaction struct {
	ID    int64 `json:"id"`
	Label int   `json:"label"`
}

// SimParams configures a simulation engine at construction time.
type SimParams struct {
	RecallA       float64 `json:"recall_a"`
	RecallB       float64 `json:"recall_b"`
	FeedbackDelay int     `json:"feedback_delay"`
	FraudRate     float64 `json:"fraud_rate"`
	DecayRate     float64 `json:"decay_rate"`
	Seed          int64   `json:"seed,omitempty"` // 0 = derive from wall clock
}

// DefaultSimParams mirrors the interactive defaults of the reference frontend.
func DefaultSimParams() SimParams {
	return SimParams{
		RecallA:       0.90,
		RecallB:       0.85,
		FeedbackDelay: 10,
		FraudRate:     0.05,
		DecayRate:     1.0,
	}
}

// Validate checks every field before any engine state is touched.
func (p SimParams) Validate() error {
	if p.RecallA < 0 || p.RecallA > 1 {
		return fmt.Errorf("%w: recall_a must be within [0,1], got %v", ErrInvalidParameter, p.RecallA)
	}
	if p.RecallB < 0 || p.RecallB > 1 {
		return fmt.Errorf("%w: recall_b must be within [0,1], got %v", ErrInvalidParameter, p.RecallB)
	}
	if p.FeedbackDelay < 0 {
		return fmt.Errorf("%w: feedback_delay must be non-negative, got %d", ErrInvalidParameter, p.FeedbackDelay)
	}
	if p.FraudRate < 0 || p.FraudRate > 1 {
		return fmt.Errorf("%w: fraud_rate must be within [0,1], got %v", ErrInvalidParameter, p.FraudRate)
	}
	if p.DecayRate <= 0 || p.DecayRate > 1 {
		return fmt.Errorf("%w: decay_rate must be within (0,1], got %v", ErrInvalidParameter, p.DecayRate)
	}
	return nil
}

// UpdateParams carries a runtime parameter change. Recall rates and the
// feedback delay are required; fraud and decay rates are optional and left
// untouched when nil. The update is atomic: validation of the whole set
// happens before any field is applied.
type UpdateParams struct {
	RecallA       float64  `json:"recall_a"`
	RecallB       float64  `json:"recall_b"`
	FeedbackDelay int      `json:"feedback_delay"`
	FraudRate     *float64 `json:"fraud_rate,omitempty"`
	DecayRate     *float64 `json:"decay_rate,omitempty"`
}

// Validate checks every provided field.
func (p UpdateParams) Validate() error {
	if p.RecallA < 0 || p.RecallA > 1 {
		return fmt.Errorf("%w: recall_a must be within [0,1], got %v", ErrInvalidParameter, p.RecallA)
	}
	if p.RecallB < 0 || p.RecallB > 1 {
		return fmt.Errorf("%w: recall_b must be within [0,1], got %v", ErrInvalidParameter, p.RecallB)
	}
	if p.FeedbackDelay < 0 {
		return fmt.Errorf("%w: feedback_delay must be non-negative, got %d", ErrInvalidParameter, p.FeedbackDelay)
	}
	if p.FraudRate != nil && (*p.FraudRate < 0 || *p.FraudRate > 1) {
		return fmt.Errorf("%w: fraud_rate must be within [0,1], got %v", ErrInvalidParameter, *p.FraudRate)
	}
	if p.DecayRate != nil && (*p.DecayRate <= 0 || *p.DecayRate > 1) {
		return fmt.Errorf("%w: decay_rate must be within (0,1], got %v", ErrInvalidParameter, *p.DecayRate)
	}
	return nil
}

// ConfusionCounts accumulates confusion-matrix tallies. Counts are
// monotonically non-decreasing across a run; the struct is passed by value so
// history snapshots are cheap copies.
type ConfusionCounts struct {
	TruePositives  int `json:"true_positives"`
	FalseNegatives int `json:"false_negatives"`
	FalsePositives int `json:"false_positives"`
	TrueNegatives  int `json:"true_negatives"`
}

// PriorState is the read-model view of one Beta prior.
type PriorState struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
}

// PriorUpdateEntry records a single Bayesian update, append-only.
type PriorUpdateEntry struct {
	Iteration int     `json:"iteration"`
	Model     string  `json:"model"`
	Outcome   string  `json:"outcome"` // "TP" or "FN"
	OldAlpha  float64 `json:"old_alpha"`
	OldBeta   float64 `json:"old_beta"`
	NewAlpha  float64 `json:"new_alpha"`
	NewBeta   float64 `json:"new_beta"`
}

// EngineState is the pull-based read model a presentation layer consumes
// after each command. All maps and slices are copies owned by the caller.
type EngineState struct {
	CurrentIteration int                    `json:"current_iteration"`
	LastSelected     string                 `json:"last_selected,omitempty"`
	Priors           map[string]PriorState  `json:"priors"`
	SelectionCounts  map[string]int         `json:"selection_counts"`
	Counts           ConfusionCounts        `json:"counts"`
	Recall           float64                `json:"recall"`
	Precision        float64                `json:"precision"`
	MetricsHistory   []ConfusionCounts      `json:"metrics_history"`
	PriorUpdateLog   []PriorUpdateEntry     `json:"prior_update_log"`
	QueueDepth       int                    `json:"queue_depth"`
}
