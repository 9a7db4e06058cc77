// Package engine orchestrates one adaptive-routing simulation: per step it
// generates a transaction, routes it to a classifier chosen by Thompson
// Sampling, queues the prediction for delayed feedback, and resolves every
// due item into Bayesian prior updates and confusion-matrix tallies.
//
// An Engine is single-threaded by design. One Step call runs to completion,
// including all due feedback resolution, before returning; hosts that allow
// concurrent commands must wrap the engine in external mutual exclusion.
package engine

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/adaptive-routing/banditsim/internal/api"
	"github.com/adaptive-routing/banditsim/internal/bandit"
	"github.com/adaptive-routing/banditsim/internal/classifier"
	"github.com/adaptive-routing/banditsim/internal/eval"
	"github.com/adaptive-routing/banditsim/internal/feedback"
	"github.com/adaptive-routing/banditsim/internal/txsource"
)

// Classifier names, fixed for the two-model setup.
const (
	ModelA = "Model A"
	ModelB = "Model B"
)

// Engine drives the simulation and owns all of its state.
type Engine struct {
	source      *txsource.Source
	classifiers map[string]*classifier.SyntheticClassifier
	sampler     *bandit.ThompsonSampler

	feedbackDelay    int
	queue            *feedback.Queue
	currentIteration int

	counts          api.ConfusionCounts
	metricsHistory  []api.ConfusionCounts
	selectionCounts map[string]int
	priorUpdateLog  []api.PriorUpdateEntry
	lastSelected    string

	logger zerolog.Logger
}

// New constructs an engine after validating every parameter; no state is
// created on failure. A zero seed derives one from the wall clock.
func New(params api.SimParams, logger zerolog.Logger) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	seed := params.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	source, err := txsource.New(params.FraudRate, rng)
	if err != nil {
		return nil, err
	}
	modelA, err := classifier.New(ModelA, params.RecallA, rng)
	if err != nil {
		return nil, err
	}
	modelB, err := classifier.New(ModelB, params.RecallB, rng)
	if err != nil {
		return nil, err
	}
	sampler, err := bandit.NewThompsonSampler([]string{ModelA, ModelB}, params.DecayRate, uint64(seed))
	if err != nil {
		return nil, err
	}

	return &Engine{
		source: source,
		classifiers: map[string]*classifier.SyntheticClassifier{
			ModelA: modelA,
			ModelB: modelB,
		},
		sampler:       sampler,
		feedbackDelay: params.FeedbackDelay,
		queue:         feedback.NewQueue(),
		selectionCounts: map[string]int{
			ModelA: 0,
			ModelB: 0,
		},
		logger: logger,
	}, nil
}

// Step executes one simulation iteration and returns the name of the
// classifier selected for it.
func (e *Engine) Step() string {
	e.currentIteration++

	tx := e.source.Generate()
	selected := e.sampler.Select()
	e.selectionCounts[selected]++
	e.lastSelected = selected

	prediction := e.classifiers[selected].Predict(tx)
	e.queue.Enqueue(feedback.Pending{
		DueAt:      e.currentIteration + e.feedbackDelay,
		Tx:         tx,
		Prediction: prediction,
		Model:      selected,
	})

	e.logger.Debug().
		Int("iteration", e.currentIteration).
		Str("model", selected).
		Int("label", tx.Label).
		Int("prediction", prediction).
		Msg("step")

	e.resolveDue()
	return selected
}

// Run executes up to n sequential steps, checking for cancellation between
// steps only. It returns the number of steps completed.
func (e *Engine) Run(ctx context.Context, n int) (int, error) {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		e.Step()
	}
	return n, nil
}

// resolveDue drains every due feedback item. Fraudulent transactions feed the
// Bayesian update, the prior-update log, and the metrics history; legitimate
// ones are dropped, as the simulation tracks fraud recall only.
func (e *Engine) resolveDue() {
	for _, item := range e.queue.DrainDue(e.currentIteration) {
		if item.Tx.Label != 1 {
			continue
		}

		outcome := 0
		outcomeLabel := "FN"
		if item.Prediction == 1 {
			outcome = 1
			outcomeLabel = "TP"
		}

		old, _ := e.sampler.Prior(item.Model)
		// The model name and outcome originate inside the engine, so the
		// update cannot fail validation.
		_ = e.sampler.UpdatePrior(item.Model, outcome)
		updated, _ := e.sampler.Prior(item.Model)

		e.priorUpdateLog = append(e.priorUpdateLog, api.PriorUpdateEntry{
			Iteration: e.currentIteration,
			Model:     item.Model,
			Outcome:   outcomeLabel,
			OldAlpha:  old.Alpha,
			OldBeta:   old.Beta,
			NewAlpha:  updated.Alpha,
			NewBeta:   updated.Beta,
		})

		e.counts = eval.Apply(e.counts, item.Tx, item.Prediction)
		e.metricsHistory = append(e.metricsHistory, e.counts)

		e.logger.Debug().
			Int("iteration", e.currentIteration).
			Str("model", item.Model).
			Str("outcome", outcomeLabel).
			Float64("alpha", updated.Alpha).
			Float64("beta", updated.Beta).
			Msg("feedback resolved")
	}
}

// UpdateParameters applies a runtime parameter change atomically: the whole
// set is validated first, and on any failure the engine keeps its last valid
// configuration. Changes take effect from the next Step; already queued
// feedback keeps its original due iteration.
func (e *Engine) UpdateParameters(params api.UpdateParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	// Validation passed for every field, so the individual setters below
	// cannot fail.
	_ = e.classifiers[ModelA].UpdateRecallRate(params.RecallA)
	_ = e.classifiers[ModelB].UpdateRecallRate(params.RecallB)
	e.feedbackDelay = params.FeedbackDelay
	if params.FraudRate != nil {
		_ = e.source.SetFraudRate(*params.FraudRate)
	}
	if params.DecayRate != nil {
		_ = e.sampler.SetDecayRate(*params.DecayRate)
	}

	e.logger.Info().
		Float64("recall_a", params.RecallA).
		Float64("recall_b", params.RecallB).
		Int("feedback_delay", params.FeedbackDelay).
		Msg("parameters updated")
	return nil
}

// CurrentIteration returns the number of steps executed so far.
func (e *Engine) CurrentIteration() int {
	return e.currentIteration
}

// FeedbackDelay returns the delay applied to newly enqueued feedback.
func (e *Engine) FeedbackDelay() int {
	return e.feedbackDelay
}

// QueueDepth returns the number of in-flight feedback items.
func (e *Engine) QueueDepth() int {
	return e.queue.Len()
}

// Snapshot returns the full read model. Every map and slice is a copy owned
// by the caller.
func (e *Engine) Snapshot() api.EngineState {
	priors := make(map[string]api.PriorState, 2)
	for name, p := range e.sampler.Priors() {
		priors[name] = api.PriorState{Alpha: p.Alpha, Beta: p.Beta}
	}

	selections := make(map[string]int, len(e.selectionCounts))
	for name, n := range e.selectionCounts {
		selections[name] = n
	}

	return api.EngineState{
		CurrentIteration: e.currentIteration,
		LastSelected:     e.lastSelected,
		Priors:           priors,
		SelectionCounts:  selections,
		Counts:           e.counts,
		Recall:           eval.Recall(e.counts),
		Precision:        eval.Precision(e.counts),
		MetricsHistory:   append([]api.ConfusionCounts(nil), e.metricsHistory...),
		PriorUpdateLog:   append([]api.PriorUpdateEntry(nil), e.priorUpdateLog...),
		QueueDepth:       e.queue.Len(),
	}
}
