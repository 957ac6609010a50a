package needs

import (
	"errors"
	"testing"
)

func TestModifierNormalize(t *testing.T) {
	m := Modifier{
		EntityKey:    "elara",
		Need:         Hunger,
		SourceKind:   SourceTrait,
		SourceDetail: "greedy_eater",
		Active:       true,
	}.Normalize()

	if m.DecayMultiplier != 1.0 {
		t.Errorf("DecayMultiplier = %v, want 1.0", m.DecayMultiplier)
	}
	if m.SatisfactionMultiplier != 1.0 {
		t.Errorf("SatisfactionMultiplier = %v, want 1.0", m.SatisfactionMultiplier)
	}
	if m.MaxIntensityCap != 100 {
		t.Errorf("MaxIntensityCap = %v, want 100", m.MaxIntensityCap)
	}

	// Explicit values survive normalization.
	set := Modifier{DecayMultiplier: 1.5, SatisfactionMultiplier: 0.5, MaxIntensityCap: 80}.Normalize()
	if set.DecayMultiplier != 1.5 || set.SatisfactionMultiplier != 0.5 || set.MaxIntensityCap != 80 {
		t.Errorf("Normalize changed explicit values: %+v", set)
	}
}

func TestModifierValidate(t *testing.T) {
	valid := Modifier{
		EntityKey:    "elara",
		Need:         Hunger,
		SourceKind:   SourceTemporary,
		SourceDetail: "fever",
	}.Normalize()

	tests := []struct {
		name    string
		mutate  func(m Modifier) Modifier
		wantErr bool
	}{
		{"valid", func(m Modifier) Modifier { return m }, false},
		{"missing entity", func(m Modifier) Modifier { m.EntityKey = ""; return m }, true},
		{"unknown need", func(m Modifier) Modifier { m.Need = "boredom"; return m }, true},
		{"unknown source kind", func(m Modifier) Modifier { m.SourceKind = "whim"; return m }, true},
		{"missing detail", func(m Modifier) Modifier { m.SourceDetail = ""; return m }, true},
		{"negative decay", func(m Modifier) Modifier { m.DecayMultiplier = -1; return m }, true},
		{"negative satisfaction", func(m Modifier) Modifier { m.SatisfactionMultiplier = -0.5; return m }, true},
		{"cap above scale", func(m Modifier) Modifier { m.MaxIntensityCap = 120; return m }, true},
		{"threshold out of range", func(m Modifier) Modifier { m.ThresholdAdjustment = 150; return m }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mutate(valid).Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestModifierSetComposition(t *testing.T) {
	set := ModifierSet{
		{Need: Hunger, DecayMultiplier: 1.5, SatisfactionMultiplier: 1.2, MaxIntensityCap: 100, ThresholdAdjustment: 10, Active: true},
		{Need: Hunger, DecayMultiplier: 0.5, SatisfactionMultiplier: 0.8, MaxIntensityCap: 85, ThresholdAdjustment: -4, Active: true},
		// Inactive entries are ignored everywhere.
		{Need: Hunger, DecayMultiplier: 3.0, SatisfactionMultiplier: 3.0, MaxIntensityCap: 10, ThresholdAdjustment: 50, Active: false},
	}

	if got := set.DecayMultiplier(); got != 0.75 {
		t.Errorf("DecayMultiplier = %v, want 0.75", got)
	}
	if got := set.SatisfactionMultiplier(); got != 1.2*0.8 {
		t.Errorf("SatisfactionMultiplier = %v, want %v", got, 1.2*0.8)
	}
	if got := set.IntensityCap(); got != 85 {
		t.Errorf("IntensityCap = %v, want 85", got)
	}
	if got := set.ThresholdAdjustment(); got != 6 {
		t.Errorf("ThresholdAdjustment = %v, want 6", got)
	}
}

func TestModifierSetForNeed(t *testing.T) {
	set := ModifierSet{
		{Need: Hunger, Active: true},
		{Need: Thirst, Active: true},
		{Need: Hunger, Active: true},
	}
	if got := len(set.ForNeed(Hunger)); got != 2 {
		t.Errorf("ForNeed(Hunger) returned %d modifiers, want 2", got)
	}
	if got := len(set.ForNeed(Morale)); got != 0 {
		t.Errorf("ForNeed(Morale) returned %d modifiers, want 0", got)
	}
}

func TestModifierExpiredAt(t *testing.T) {
	permanent := Modifier{}
	if permanent.ExpiredAt(1000) {
		t.Error("permanent modifier should never expire")
	}

	expiry := 10
	timed := Modifier{ExpiresAtTurn: &expiry}
	if timed.ExpiredAt(9) {
		t.Error("modifier expired before its turn")
	}
	if !timed.ExpiredAt(10) {
		t.Error("modifier should expire at its turn")
	}
	if !timed.ExpiredAt(11) {
		t.Error("modifier should stay expired after its turn")
	}
}

func TestEffectiveThreshold(t *testing.T) {
	set := ModifierSet{{ThresholdAdjustment: 15, Active: true}}
	if got := set.EffectiveThreshold(30); got != 45 {
		t.Errorf("EffectiveThreshold(30) = %v, want 45", got)
	}

	// Adjustments clamp to the need scale.
	huge := ModifierSet{{ThresholdAdjustment: 90, Active: true}}
	if got := huge.EffectiveThreshold(30); got != 100 {
		t.Errorf("EffectiveThreshold clamped = %v, want 100", got)
	}
}

func TestParseSourceKind(t *testing.T) {
	for _, k := range []string{"trait", "age", "adaptation", "custom", "temporary"} {
		if _, err := ParseSourceKind(k); err != nil {
			t.Errorf("ParseSourceKind(%q) returned error: %v", k, err)
		}
	}
	if _, err := ParseSourceKind("mood"); err == nil {
		t.Error("ParseSourceKind(mood) should fail")
	}
}

func TestAdaptationValidate(t *testing.T) {
	a := Adaptation{EntityKey: "elara", Need: Sleep, Delta: -10, Trigger: "sleeping_rough"}
	if err := a.Validate(); err != nil {
		t.Fatalf("Validate() returned error: %v", err)
	}

	a.Need = "boredom"
	if err := a.Validate(); !errors.Is(err, ErrUnknownNeed) {
		t.Errorf("Validate() error = %v, want ErrUnknownNeed", err)
	}
}
