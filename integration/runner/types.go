package runner

import (
	"time"

	"github.com/google/uuid"
)

// ResetSessionTool is a special step tool value. Instead of invoking a
// simulation tool it deletes the current session and seeds a fresh one from
// the suite's world, so later steps run against seed state again.
const ResetSessionTool = "RESET_SESSION"

// TestSuite is one case file: an ordered run of tool invocations against a
// fresh session, or a named sequence of other case files.
// Either a regular test with Steps, or a sequence that references other Cases.
type TestSuite struct {
	Name  string     `json:"name"`
	World string     `json:"world,omitempty"` // world definition name, e.g. "greenhollow"
	Steps []TestStep `json:"steps,omitempty"`
	Cases []string   `json:"cases,omitempty"` // list of case files for sequences
}

// IsSequence returns true if this suite sequences other cases.
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep is one tool invocation and its expected outcome.
// Use tool: "RESET_SESSION" to throw the session away and reseed.
type TestStep struct {
	Name         string         `json:"name,omitempty"`
	Tool         string         `json:"tool"`
	Args         map[string]any `json:"args,omitempty"`
	Expectations Expectations   `json:"expect"`
}

// Expectations defines what to check after a test step executes.
//
// Data keys are dotted paths into the result payload, such as
// "route.total_minutes". Both sides of the comparison pass through JSON,
// so numbers are float64 and arrays are []any regardless of origin.
type Expectations struct {
	// Result envelope checks.
	Success           *bool          `json:"success,omitempty"`
	ReasonContains    []string       `json:"reason_contains,omitempty"`
	ReasonNotContains []string       `json:"reason_not_contains,omitempty"`
	ErrorContains     string         `json:"error_contains,omitempty"`
	Data              map[string]any `json:"data,omitempty"`

	// Session properties, fetched fresh after the step.
	Turn         *int     `json:"turn,omitempty"`
	ClockMinutes *float64 `json:"clock_minutes,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	StepName string
	Success  bool
	Error    error
	Duration time.Duration
	Reason   string // reason the tool reported, kept for failure logs
	IsReset  bool   // true for RESET_SESSION steps (not counted toward pass/fail metrics)
}

// TestJob represents a test suite to be executed
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job      TestJob
	Results  []TestResult
	Error    error
	Duration time.Duration
	Session  uuid.UUID // ID of the session used for this test
}
