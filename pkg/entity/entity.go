package entity

import (
	"encoding/json"
	"fmt"

	"github.com/jwebster45206/d20"
)

// Kind distinguishes the player from simulated actors. All kinds share the
// same needs, discovery and travel machinery.
type Kind string

const (
	KindPlayer   Kind = "player"
	KindNPC      Kind = "npc"
	KindCreature Kind = "creature"
)

func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	switch k {
	case KindPlayer, KindNPC, KindCreature:
		return k, nil
	}
	return "", fmt.Errorf("unknown entity kind %q", s)
}

// Spec is the serializable sheet of one entity.
type Spec struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Kind        Kind   `json:"kind"`
	Pronouns    string `json:"pronouns,omitempty"`
	Description string `json:"description,omitempty"`

	HP    int `json:"hp,omitempty"`
	MaxHP int `json:"max_hp,omitempty"`
	AC    int `json:"ac,omitempty"`

	// Attributes hold raw ability scores; Skills hold trained bonuses.
	// Both feed the d20 actor and through it every skill check.
	Attributes      map[string]int `json:"attributes,omitempty"`
	Skills          map[string]int `json:"skills,omitempty"`
	CombatModifiers map[string]int `json:"combat_modifiers,omitempty"`

	CurrentZone string `json:"current_zone,omitempty"`

	// Extra carries narrative odds and ends with no mechanical meaning.
	Extra map[string]string `json:"extra,omitempty"`
}

func (s Spec) Validate() error {
	if s.Key == "" {
		return fmt.Errorf("entity key is required")
	}
	if s.Name == "" {
		return fmt.Errorf("entity %s: name is required", s.Key)
	}
	if _, err := ParseKind(string(s.Kind)); err != nil {
		return fmt.Errorf("entity %s: %w", s.Key, err)
	}
	return nil
}

// Entity is the runtime sheet: a Spec plus the d20 actor built from it.
// The actor answers attribute and modifier lookups during skill checks.
type Entity struct {
	Spec  *Spec
	Actor *d20.Actor
}

// New builds an Entity and its actor from a spec.
func New(spec *Spec) (*Entity, error) {
	if spec == nil {
		return nil, fmt.Errorf("spec cannot be nil")
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	maxHP := spec.MaxHP
	if maxHP == 0 {
		maxHP = spec.HP
	}
	if maxHP == 0 {
		maxHP = 10
	}

	allAttrs := make(map[string]int, len(spec.Attributes)+len(spec.Skills))
	for k, v := range spec.Attributes {
		allAttrs[k] = v
	}
	for k, v := range spec.Skills {
		allAttrs[k] = v
	}

	actor, err := d20.NewActor(spec.Key).
		WithHP(maxHP).
		WithAC(spec.AC).
		WithAttributes(allAttrs).
		WithCombatModifiers(spec.CombatModifiers).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build actor: %w", err)
	}
	if spec.HP > 0 && spec.HP != maxHP {
		if err := actor.SetHP(spec.HP); err != nil {
			return nil, fmt.Errorf("failed to set HP: %w", err)
		}
	}

	return &Entity{Spec: spec, Actor: actor}, nil
}

// SkillBonus is the flat bonus an entity adds to a skill roll: the trained
// skill value when present, otherwise the raw attribute of the same name.
func (e *Entity) SkillBonus(skill string) int {
	if e == nil {
		return 0
	}
	if v, ok := e.Spec.Skills[skill]; ok {
		return v
	}
	if e.Actor != nil {
		if v, ok := e.Actor.Attribute(skill); ok {
			return v
		}
	}
	return 0
}

// MarshalJSON serializes the sheet, reading live HP from the actor.
func (e *Entity) MarshalJSON() ([]byte, error) {
	if e == nil {
		return []byte("null"), nil
	}
	if e.Actor == nil {
		return json.Marshal(e.Spec)
	}
	out := *e.Spec
	out.HP = e.Actor.HP()
	out.MaxHP = e.Actor.MaxHP()
	out.AC = e.Actor.AC()
	return json.Marshal(out)
}

// UnmarshalJSON reconstructs the sheet and rebuilds its actor.
func (e *Entity) UnmarshalJSON(data []byte) error {
	var spec Spec
	if err := json.Unmarshal(data, &spec); err != nil {
		return fmt.Errorf("failed to unmarshal entity spec: %w", err)
	}
	rebuilt, err := New(&spec)
	if err != nil {
		return fmt.Errorf("failed to rebuild entity: %w", err)
	}
	*e = *rebuilt
	return nil
}
