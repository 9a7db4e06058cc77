package eval

import (
	"math"
	"testing"

	"github.com/adaptive-routing/banditsim/internal/api"
)

func TestApplyCategories(t *testing.T) {
	tests := []struct {
		name       string
		label      int
		prediction int
		want       api.ConfusionCounts
	}{
		{"true positive", 1, 1, api.ConfusionCounts{TruePositives: 1}},
		{"false negative", 1, 0, api.ConfusionCounts{FalseNegatives: 1}},
		{"false positive", 0, 1, api.ConfusionCounts{FalsePositives: 1}},
		{"true negative", 0, 0, api.ConfusionCounts{TrueNegatives: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(api.ConfusionCounts{}, api.Transaction{ID: 1, Label: tt.label}, tt.prediction)
			if got != tt.want {
				t.Errorf("Apply = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestApplyIsPure(t *testing.T) {
	in := api.ConfusionCounts{TruePositives: 3, FalseNegatives: 2}
	tx := api.Transaction{ID: 1, Label: 1}

	first := Apply(in, tx, 1)
	second := Apply(in, tx, 1)

	if first != second {
		t.Errorf("Apply not deterministic: %+v vs %+v", first, second)
	}
	if in.TruePositives != 3 || in.FalseNegatives != 2 {
		t.Errorf("Apply mutated its input: %+v", in)
	}
	if first.TruePositives != 4 {
		t.Errorf("Expected tp=4, got %d", first.TruePositives)
	}
}

func TestRecall(t *testing.T) {
	if got := Recall(api.ConfusionCounts{}); got != 0.0 {
		t.Errorf("Recall of zero counts = %v, want 0.0", got)
	}
	if got := Recall(api.ConfusionCounts{TruePositives: 3, FalseNegatives: 1}); got != 0.75 {
		t.Errorf("Recall = %v, want 0.75", got)
	}
	if got := Recall(api.ConfusionCounts{TruePositives: 5}); got != 1.0 {
		t.Errorf("Recall = %v, want 1.0", got)
	}
}

func TestPrecision(t *testing.T) {
	if got := Precision(api.ConfusionCounts{}); got != 0.0 {
		t.Errorf("Precision of zero counts = %v, want 0.0", got)
	}
	if got := Precision(api.ConfusionCounts{TruePositives: 1, FalsePositives: 3}); got != 0.25 {
		t.Errorf("Precision = %v, want 0.25", got)
	}
}

func TestAccuracyAndF1(t *testing.T) {
	if got := Accuracy(api.ConfusionCounts{}); got != 0.0 {
		t.Errorf("Accuracy of zero counts = %v, want 0.0", got)
	}
	c := api.ConfusionCounts{TruePositives: 2, TrueNegatives: 2, FalsePositives: 1, FalseNegatives: 1}
	if got := Accuracy(c); got != 4.0/6.0 {
		t.Errorf("Accuracy = %v, want %v", got, 4.0/6.0)
	}

	if got := F1(api.ConfusionCounts{}); got != 0.0 {
		t.Errorf("F1 of zero counts = %v, want 0.0", got)
	}
	// Precision 2/3, recall 2/3 -> F1 2/3.
	if got := F1(c); math.Abs(got-2.0/3.0) > 1e-12 {
		t.Errorf("F1 = %v, want %v", got, 2.0/3.0)
	}
}
