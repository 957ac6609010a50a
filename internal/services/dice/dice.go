// Package dice resolves skill checks for gated travel and the skill_check
// tool. Rolls are 1d20 plus the entity's skill bonus against a difficulty.
package dice

import (
	"math/rand"
	"sync"

	"github.com/sbstnppl/worldkeeper/pkg/entity"
)

// CheckResult is the outcome of one skill check.
type CheckResult struct {
	Roll    int  `json:"roll"`
	Bonus   int  `json:"bonus"`
	Total   int  `json:"total"`
	Success bool `json:"success"`
}

// SkillChecker rolls skill checks.
type SkillChecker interface {
	Check(ent *entity.Entity, skill string, difficulty int, advantage, disadvantage bool) CheckResult
}

// Roller is the production SkillChecker. The seed is injectable so
// replays are reproducible; 0 picks a random seed.
type Roller struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// Ensure Roller implements SkillChecker interface
var _ SkillChecker = (*Roller)(nil)

func NewRoller(seed int64) *Roller {
	if seed == 0 {
		seed = rand.Int63()
	}
	return &Roller{rng: rand.New(rand.NewSource(seed))}
}

func (r *Roller) d20() int {
	return r.rng.Intn(20) + 1
}

// Check rolls 1d20 + skill bonus against difficulty. Advantage rolls
// twice and keeps the higher die, disadvantage the lower; both at once
// cancel out.
func (r *Roller) Check(ent *entity.Entity, skill string, difficulty int, advantage, disadvantage bool) CheckResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	roll := r.d20()
	if advantage != disadvantage {
		second := r.d20()
		if advantage && second > roll {
			roll = second
		}
		if disadvantage && second < roll {
			roll = second
		}
	}

	bonus := ent.SkillBonus(skill)
	total := roll + bonus
	return CheckResult{
		Roll:    roll,
		Bonus:   bonus,
		Total:   total,
		Success: total >= difficulty,
	}
}
