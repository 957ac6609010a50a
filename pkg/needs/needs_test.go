package needs

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	for _, n := range All {
		got, err := Parse(string(n))
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", n, err)
		}
		if got != n {
			t.Errorf("Parse(%q) = %q, want %q", n, got, n)
		}
	}

	if _, err := Parse("boredom"); !errors.Is(err, ErrUnknownNeed) {
		t.Errorf("Parse(boredom) error = %v, want ErrUnknownNeed", err)
	}
	if _, err := Parse(""); err == nil {
		t.Error("Parse(empty) should fail")
	}
}

func TestClampWithCap(t *testing.T) {
	tests := []struct {
		name  string
		v     float64
		cap   float64
		want  float64
	}{
		{"within range", 50, 100, 50},
		{"below zero", -3, 100, 0},
		{"above max", 120, 100, 100},
		{"capped", 90, 80, 80},
		{"cap above max is noop", 99, 150, 99},
		{"zero cap pins to zero", 40, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampWithCap(tt.v, tt.cap); got != tt.want {
				t.Errorf("ClampWithCap(%v, %v) = %v, want %v", tt.v, tt.cap, got, tt.want)
			}
		})
	}
}

func TestDecayStep(t *testing.T) {
	// Hunger at 40 with the stock 1.0-per-10-minutes rate loses exactly
	// 3 points over 30 minutes.
	got := DecayStep(40, 0.10, 30, MaxValue)
	if got != 37 {
		t.Errorf("DecayStep(40, 0.10, 30) = %v, want 37", got)
	}

	// A 1.5x decay modifier makes the effective rate 0.15; the result is
	// exact, not rounded.
	got = DecayStep(40, 0.10*1.5, 30, MaxValue)
	if got != 35.5 {
		t.Errorf("DecayStep(40, 0.15, 30) = %v, want 35.5", got)
	}

	// Decay clamps at zero.
	if got := DecayStep(2, 0.15, 60, MaxValue); got != 0 {
		t.Errorf("DecayStep(2, 0.15, 60) = %v, want 0", got)
	}

	// Decay respects the intensity cap when the value sits above it.
	if got := DecayStep(95, 0.10, 10, 80); got != 80 {
		t.Errorf("DecayStep above cap = %v, want 80", got)
	}
}

func TestCravingBoost(t *testing.T) {
	tuning := DefaultTuning()

	tests := []struct {
		name      string
		relevance float64
		value     float64
		want      int
	}{
		{"moderate relevance on healthy need", 0.5, 70, 5}, // round(0.5*0.6*30*0.6) = round(5.4)
		{"satisfied need yields nothing", 1.0, 100, 0},
		{"strong relevance on starving need", 1.0, 0, 36},
		{"zero relevance", 0, 20, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tuning.CravingBoost(tt.relevance, tt.value); got != tt.want {
				t.Errorf("CravingBoost(%v, %v) = %d, want %d", tt.relevance, tt.value, got, tt.want)
			}
		})
	}

	// An uncapped product is cut to the cap.
	hot := Tuning{CravingAttention: 1, CravingScale: 1, CravingCap: DefaultCravingCap}
	if got := hot.CravingBoost(1, 0); got != DefaultCravingCap {
		t.Errorf("CravingBoost uncapped = %d, want %d", got, DefaultCravingCap)
	}
}

func TestClampCraving(t *testing.T) {
	if got := ClampCraving(130); got != 100 {
		t.Errorf("ClampCraving(130) = %d, want 100", got)
	}
	if got := ClampCraving(-5); got != 0 {
		t.Errorf("ClampCraving(-5) = %d, want 0", got)
	}
}

func TestValidateValue(t *testing.T) {
	if err := ValidateValue(50); err != nil {
		t.Errorf("ValidateValue(50) = %v, want nil", err)
	}
	for _, v := range []float64{-1, 101} {
		if err := ValidateValue(v); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("ValidateValue(%v) = %v, want ErrOutOfRange", v, err)
		}
	}
}

func TestValidateRelevance(t *testing.T) {
	if err := ValidateRelevance(0.5); err != nil {
		t.Errorf("ValidateRelevance(0.5) = %v, want nil", err)
	}
	for _, r := range []float64{-0.1, 1.1} {
		if err := ValidateRelevance(r); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("ValidateRelevance(%v) = %v, want ErrOutOfRange", r, err)
		}
	}
}
