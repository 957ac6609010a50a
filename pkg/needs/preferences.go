package needs

import "strings"

// Trait flags recognized by TraitModifiers. World definitions may carry
// other flags; unknown ones simply install no modifier.
const (
	TraitGreedyEater     = "greedy_eater"
	TraitPickyEater      = "picky_eater"
	TraitSocialButterfly = "social_butterfly"
	TraitLoner           = "loner"
	TraitHighStamina     = "high_stamina"
	TraitLowStamina      = "low_stamina"
	TraitInsomniac       = "insomniac"
	TraitHeavySleeper    = "heavy_sleeper"
)

// Social tendency values.
const (
	SocialExtrovert = "extrovert"
	SocialIntrovert = "introvert"
	SocialAmbivert  = "ambivert"
)

// Preferences is the read-only taste profile of an entity. It never
// changes during simulation; narrative shifts go through adaptations
// instead. The engine consults it to price satisfaction, and entity
// seeding turns its trait flags into registry modifiers.
type Preferences struct {
	EntityKey string `json:"entity_key"`

	FoodLikes    []string `json:"food_likes,omitempty"`
	FoodDislikes []string `json:"food_dislikes,omitempty"`
	DrinkLikes   []string `json:"drink_likes,omitempty"`
	Allergies    []string `json:"allergies,omitempty"`
	DietFlags    []string `json:"diet_flags,omitempty"`

	AlcoholTolerance   int    `json:"alcohol_tolerance,omitempty"`
	SocialTendency     string `json:"social_tendency,omitempty"`
	PreferredGroupSize int    `json:"preferred_group_size,omitempty"`
	IntimacyProfile    string `json:"intimacy_profile,omitempty"`

	Traits []string `json:"traits,omitempty"`

	// Extra holds narrative quirks with no mechanical meaning.
	Extra map[string]string `json:"extra,omitempty"`
}

// Preference multiplier steps. Matches are case-insensitive on tags.
const (
	prefLikedFactor    = 1.25
	prefDislikedFactor = 0.75
	prefAllergicFactor = 0.25
	prefAlignedSocial  = 1.2
	prefCounterSocial  = 0.8
)

// SatisfactionMultiplier prices an action against this profile. It covers
// taste only; modifier-based satisfaction multipliers are composed
// separately by the engine.
//
// Tags describe the action ("stew", "group", "solo", ...). An allergy match
// dominates a like match.
func (p Preferences) SatisfactionMultiplier(n Need, actionType string, tags []string) float64 {
	switch n {
	case Hunger:
		if matchesAny(tags, p.Allergies) {
			return prefAllergicFactor
		}
		if matchesAny(tags, p.FoodDislikes) {
			return prefDislikedFactor
		}
		if matchesAny(tags, p.FoodLikes) {
			return prefLikedFactor
		}
	case Thirst:
		if matchesAny(tags, p.Allergies) {
			return prefAllergicFactor
		}
		if matchesAny(tags, p.DrinkLikes) {
			return prefLikedFactor
		}
	case SocialConnection:
		group := containsTag(tags, "group")
		solo := containsTag(tags, "solo")
		switch p.SocialTendency {
		case SocialExtrovert:
			if group {
				return prefAlignedSocial
			}
			if solo {
				return prefCounterSocial
			}
		case SocialIntrovert:
			if solo {
				return prefAlignedSocial
			}
			if group {
				return prefCounterSocial
			}
		}
	}
	return 1.0
}

// HasTrait reports whether a trait flag is set.
func (p Preferences) HasTrait(trait string) bool {
	for _, t := range p.Traits {
		if strings.EqualFold(t, trait) {
			return true
		}
	}
	return false
}

// TraitModifiers builds the standard registry modifiers for an entity's
// trait flags. Called once at entity seeding.
func TraitModifiers(entityKey string, traits []string) []Modifier {
	var mods []Modifier
	add := func(n Need, trait string, decay, satisfaction float64) {
		mods = append(mods, Modifier{
			EntityKey:              entityKey,
			Need:                   n,
			SourceKind:             SourceTrait,
			SourceDetail:           trait,
			DecayMultiplier:        decay,
			SatisfactionMultiplier: satisfaction,
			Active:                 true,
		}.Normalize())
	}
	for _, trait := range traits {
		switch strings.ToLower(trait) {
		case TraitGreedyEater:
			add(Hunger, trait, 1.3, 1.0)
		case TraitPickyEater:
			add(Hunger, trait, 1.0, 0.8)
		case TraitSocialButterfly:
			add(SocialConnection, trait, 1.3, 1.1)
		case TraitLoner:
			add(SocialConnection, trait, 0.6, 1.0)
		case TraitHighStamina:
			add(Stamina, trait, 0.7, 1.0)
		case TraitLowStamina:
			add(Stamina, trait, 1.4, 1.0)
		case TraitInsomniac:
			add(Sleep, trait, 1.0, 0.7)
		case TraitHeavySleeper:
			add(Sleep, trait, 0.9, 1.2)
		}
	}
	return mods
}

func matchesAny(tags, against []string) bool {
	for _, t := range tags {
		for _, a := range against {
			if strings.EqualFold(t, a) {
				return true
			}
		}
	}
	return false
}

func containsTag(tags []string, want string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, want) {
			return true
		}
	}
	return false
}
