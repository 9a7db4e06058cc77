// Package eval computes confusion-matrix tallies and derived performance
// metrics for resolved predictions. All functions are pure: counts go in by
// value and come back as a new value, which makes history snapshotting a
// plain copy.
package eval

import "github.com/adaptive-routing/banditsim/internal/api"

// Apply classifies one resolved prediction into exactly one confusion-matrix
// cell and returns the updated counts. The input counts are never mutated.
func Apply(counts api.ConfusionCounts, tx api.Transaction, prediction int) api.ConfusionCounts {
	switch {
	case tx.Label == 1 && prediction == 1:
		counts.TruePositives++
	case tx.Label == 1 && prediction == 0:
		counts.FalseNegatives++
	case tx.Label == 0 && prediction == 1:
		counts.FalsePositives++
	default:
		counts.TrueNegatives++
	}
	return counts
}

// Recall returns TP / (TP + FN), or 0.0 when no positives have resolved.
func Recall(c api.ConfusionCounts) float64 {
	denom := c.TruePositives + c.FalseNegatives
	if denom == 0 {
		return 0.0
	}
	return float64(c.TruePositives) / float64(denom)
}

// Precision returns TP / (TP + FP), or 0.0 when nothing has been flagged.
func Precision(c api.ConfusionCounts) float64 {
	denom := c.TruePositives + c.FalsePositives
	if denom == 0 {
		return 0.0
	}
	return float64(c.TruePositives) / float64(denom)
}

// Accuracy returns (TP + TN) / total, or 0.0 when nothing has resolved.
func Accuracy(c api.ConfusionCounts) float64 {
	total := c.TruePositives + c.TrueNegatives + c.FalsePositives + c.FalseNegatives
	if total == 0 {
		return 0.0
	}
	return float64(c.TruePositives+c.TrueNegatives) / float64(total)
}

// F1 returns the harmonic mean of precision and recall, or 0.0 when either
// is undefined.
func F1(c api.ConfusionCounts) float64 {
	p := Precision(c)
	r := Recall(c)
	if p+r == 0 {
		return 0.0
	}
	return 2 * p * r / (p + r)
}
