package dice

import (
	"github.com/sbstnppl/worldkeeper/pkg/entity"
)

// MockChecker is a canned SkillChecker for tests. Results are keyed by
// skill; unknown skills get Default.
type MockChecker struct {
	Results map[string]CheckResult
	Default CheckResult
	Calls   []string
}

// Ensure MockChecker implements SkillChecker interface
var _ SkillChecker = (*MockChecker)(nil)

func (m *MockChecker) Check(ent *entity.Entity, skill string, difficulty int, advantage, disadvantage bool) CheckResult {
	m.Calls = append(m.Calls, skill)
	if r, ok := m.Results[skill]; ok {
		return r
	}
	return m.Default
}
