package bandit

import (
	"errors"
	"math"
	"testing"

	"github.com/adaptive-routing/banditsim/internal/api"
)

func newSampler(t *testing.T, decay float64) *ThompsonSampler {
	t.Helper()
	ts, err := NewThompsonSampler([]string{"Model A", "Model B"}, decay, 42)
	if err != nil {
		t.Fatalf("NewThompsonSampler failed: %v", err)
	}
	return ts
}

func TestNewValidation(t *testing.T) {
	if _, err := NewThompsonSampler([]string{"A"}, 0, 1); !errors.Is(err, api.ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter for decay 0, got %v", err)
	}
	if _, err := NewThompsonSampler([]string{"A"}, 1.1, 1); !errors.Is(err, api.ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter for decay 1.1, got %v", err)
	}
	if _, err := NewThompsonSampler(nil, 1.0, 1); !errors.Is(err, api.ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter for empty arms, got %v", err)
	}
	if _, err := NewThompsonSampler([]string{"A", "A"}, 1.0, 1); !errors.Is(err, api.ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter for duplicate arms, got %v", err)
	}
}

func TestPriorsStartUniform(t *testing.T) {
	ts := newSampler(t, 1.0)
	for name, p := range ts.Priors() {
		if p.Alpha != 1.0 || p.Beta != 1.0 {
			t.Errorf("%s prior not uniform: alpha=%v beta=%v", name, p.Alpha, p.Beta)
		}
	}
}

func TestUpdatePriorNoDecay(t *testing.T) {
	ts := newSampler(t, 1.0)

	if err := ts.UpdatePrior("Model A", 1); err != nil {
		t.Fatalf("UpdatePrior failed: %v", err)
	}
	p, _ := ts.Prior("Model A")
	if p.Alpha != 2.0 || p.Beta != 1.0 {
		t.Errorf("Expected (2,1) after true positive, got (%v,%v)", p.Alpha, p.Beta)
	}

	if err := ts.UpdatePrior("Model A", 0); err != nil {
		t.Fatalf("UpdatePrior failed: %v", err)
	}
	p, _ = ts.Prior("Model A")
	if p.Alpha != 2.0 || p.Beta != 2.0 {
		t.Errorf("Expected (2,2) after false negative, got (%v,%v)", p.Alpha, p.Beta)
	}

	// The other arm is untouched.
	other, _ := ts.Prior("Model B")
	if other.Alpha != 1.0 || other.Beta != 1.0 {
		t.Errorf("Model B prior mutated: (%v,%v)", other.Alpha, other.Beta)
	}
}

func TestUpdatePriorDecayBeforeIncrement(t *testing.T) {
	const d = 0.9
	ts := newSampler(t, d)

	// Build up a non-trivial prior first.
	for i := 0; i < 3; i++ {
		if err := ts.UpdatePrior("Model A", 1); err != nil {
			t.Fatalf("UpdatePrior failed: %v", err)
		}
	}

	before, _ := ts.Prior("Model A")
	if err := ts.UpdatePrior("Model A", 0); err != nil {
		t.Fatalf("UpdatePrior failed: %v", err)
	}
	after, _ := ts.Prior("Model A")

	wantAlpha := before.Alpha * d
	wantBeta := before.Beta*d + 1
	if math.Abs(after.Alpha-wantAlpha) > 1e-12 || math.Abs(after.Beta-wantBeta) > 1e-12 {
		t.Errorf("Decay update mismatch: got (%v,%v), want (%v,%v)",
			after.Alpha, after.Beta, wantAlpha, wantBeta)
	}
}

func TestUpdatePriorValidation(t *testing.T) {
	ts := newSampler(t, 1.0)

	if err := ts.UpdatePrior("Model A", 2); !errors.Is(err, api.ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter for outcome 2, got %v", err)
	}
	if err := ts.UpdatePrior("Model C", 1); !errors.Is(err, api.ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter for unknown arm, got %v", err)
	}

	// Failed updates leave priors untouched.
	p, _ := ts.Prior("Model A")
	if p.Alpha != 1.0 || p.Beta != 1.0 {
		t.Errorf("Prior mutated by failed update: (%v,%v)", p.Alpha, p.Beta)
	}
}

func TestPriorsStayPositiveUnderDecay(t *testing.T) {
	ts := newSampler(t, 0.5)
	for i := 0; i < 200; i++ {
		if err := ts.UpdatePrior("Model A", 1); err != nil {
			t.Fatalf("UpdatePrior failed: %v", err)
		}
	}
	p, _ := ts.Prior("Model A")
	if p.Alpha <= 0 || p.Beta <= 0 {
		t.Errorf("Prior collapsed to non-positive values: (%v,%v)", p.Alpha, p.Beta)
	}
}

func TestSelectReturnsKnownArm(t *testing.T) {
	ts := newSampler(t, 1.0)
	for i := 0; i < 50; i++ {
		name := ts.Select()
		if name != "Model A" && name != "Model B" {
			t.Fatalf("Select returned unknown arm %q", name)
		}
	}
}

func TestSelectFavorsDominantPrior(t *testing.T) {
	ts := newSampler(t, 1.0)

	// Model A: Beta(201,1), Model B: Beta(1,201). A's samples concentrate
	// near 1, B's near 0.
	for i := 0; i < 200; i++ {
		if err := ts.UpdatePrior("Model A", 1); err != nil {
			t.Fatalf("UpdatePrior failed: %v", err)
		}
		if err := ts.UpdatePrior("Model B", 0); err != nil {
			t.Fatalf("UpdatePrior failed: %v", err)
		}
	}

	aCount := 0
	for i := 0; i < 100; i++ {
		if ts.Select() == "Model A" {
			aCount++
		}
	}
	if aCount < 95 {
		t.Errorf("Dominant arm selected only %d/100 times", aCount)
	}
}

func TestSetDecayRate(t *testing.T) {
	ts := newSampler(t, 1.0)
	if err := ts.SetDecayRate(0); !errors.Is(err, api.ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter, got %v", err)
	}
	if got := ts.DecayRate(); got != 1.0 {
		t.Errorf("Decay rate changed on failed update: %v", got)
	}
	if err := ts.SetDecayRate(0.8); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if got := ts.DecayRate(); got != 0.8 {
		t.Errorf("Expected decay rate 0.8, got %v", got)
	}
}
