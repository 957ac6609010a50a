package needs

import "testing"

func TestSatisfactionMultiplier(t *testing.T) {
	prefs := Preferences{
		EntityKey:      "elara",
		FoodLikes:      []string{"stew", "bread"},
		FoodDislikes:   []string{"turnip"},
		DrinkLikes:     []string{"cider"},
		Allergies:      []string{"shellfish"},
		SocialTendency: SocialIntrovert,
	}

	tests := []struct {
		name       string
		need       Need
		actionType string
		tags       []string
		want       float64
	}{
		{"liked food", Hunger, "eat", []string{"stew"}, prefLikedFactor},
		{"disliked food", Hunger, "eat", []string{"turnip"}, prefDislikedFactor},
		{"allergy dominates like", Hunger, "eat", []string{"stew", "shellfish"}, prefAllergicFactor},
		{"neutral food", Hunger, "eat", []string{"porridge"}, 1.0},
		{"liked drink", Thirst, "drink", []string{"cider"}, prefLikedFactor},
		{"introvert solo", SocialConnection, "socialize", []string{"solo"}, prefAlignedSocial},
		{"introvert group", SocialConnection, "socialize", []string{"group"}, prefCounterSocial},
		{"tags are case-insensitive", Hunger, "eat", []string{"Stew"}, prefLikedFactor},
		{"unrelated need", Stamina, "rest", []string{"stew"}, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := prefs.SatisfactionMultiplier(tt.need, tt.actionType, tt.tags)
			if got != tt.want {
				t.Errorf("SatisfactionMultiplier(%s, %s, %v) = %v, want %v", tt.need, tt.actionType, tt.tags, got, tt.want)
			}
		})
	}

	extrovert := Preferences{SocialTendency: SocialExtrovert}
	if got := extrovert.SatisfactionMultiplier(SocialConnection, "socialize", []string{"group"}); got != prefAlignedSocial {
		t.Errorf("extrovert group = %v, want %v", got, prefAlignedSocial)
	}
}

func TestHasTrait(t *testing.T) {
	prefs := Preferences{Traits: []string{TraitLoner, "Heavy_Sleeper"}}
	if !prefs.HasTrait(TraitLoner) {
		t.Error("HasTrait(loner) = false, want true")
	}
	if !prefs.HasTrait(TraitHeavySleeper) {
		t.Error("HasTrait should be case-insensitive")
	}
	if prefs.HasTrait(TraitGreedyEater) {
		t.Error("HasTrait(greedy_eater) = true, want false")
	}
}

func TestTraitModifiers(t *testing.T) {
	mods := TraitModifiers("elara", []string{TraitGreedyEater, TraitLoner, "daydreamer"})
	if len(mods) != 2 {
		t.Fatalf("TraitModifiers returned %d modifiers, want 2 (unknown traits ignored)", len(mods))
	}

	hunger := mods[0]
	if hunger.Need != Hunger || hunger.SourceKind != SourceTrait || hunger.SourceDetail != TraitGreedyEater {
		t.Errorf("unexpected hunger modifier: %+v", hunger)
	}
	if hunger.DecayMultiplier != 1.3 {
		t.Errorf("greedy_eater decay = %v, want 1.3", hunger.DecayMultiplier)
	}
	if hunger.MaxIntensityCap != 100 {
		t.Errorf("trait modifier cap = %v, want normalized 100", hunger.MaxIntensityCap)
	}
	if !hunger.Active {
		t.Error("trait modifiers start active")
	}

	social := mods[1]
	if social.Need != SocialConnection || social.DecayMultiplier != 0.6 {
		t.Errorf("unexpected loner modifier: %+v", social)
	}

	for _, m := range mods {
		if err := m.Validate(); err != nil {
			t.Errorf("trait modifier failed validation: %v", err)
		}
	}
}
