package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sbstnppl/worldkeeper/pkg/tools"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner executes integration tests against a running worldkeeper API
type Runner struct {
	BaseURL           string
	Client            *http.Client
	Timeout           time.Duration
	Logger            func(format string, args ...interface{})
	ErrorHandlingMode ErrorHandlingMode
	WorldOverride     string // If set, overrides the world for all test cases
}

// NewRunner creates a new test runner
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Client:            &http.Client{Timeout: 60 * time.Second},
		Timeout:           30 * time.Second,
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a JSON file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := json.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse JSON in %s: %w", filename, err)
	}

	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
// Returns a list of actual test suites (expanded from the sequence if needed)
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	// If this is not a sequence, return it as-is
	if !suite.IsSequence() {
		return []TestJob{{
			Name:     suite.Name,
			Suite:    suite,
			CaseFile: filename,
		}}, nil
	}

	// This is a sequence - load all referenced cases
	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		// Resolve path relative to casesDir
		casePath := filepath.Join(casesDir, caseFile)

		// Recursively load (in case a sequence references another sequence)
		subJobs, err := LoadTestSuiteWithExpansion(casePath, casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}

		jobs = append(jobs, subJobs...)
	}

	return jobs, nil
}

// RunSuite executes a complete test suite against a fresh session
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job: TestJob{
			Name:  suite.Name,
			Suite: suite,
		},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	worldName := suite.World
	if r.WorldOverride != "" {
		worldName = r.WorldOverride
	}
	if worldName == "" {
		result.Error = fmt.Errorf("suite %q names no world and no override is set", suite.Name)
		result.Duration = time.Since(start)
		return result, result.Error
	}

	// Seed a fresh session for this run
	sess, err := CreateSession(ctx, r.Client, r.BaseURL, worldName)
	if err != nil {
		result.Error = fmt.Errorf("failed to create session: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}
	sessionID := sess.ID
	result.Session = sessionID

	// Execute each test step
	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)
		stepResult := r.runStep(ctx, &sessionID, worldName, step)
		result.Results = append(result.Results, stepResult)

		if stepResult.Error != nil {
			r.Logger("    [%d/%d] ✗ %s: %v", i+1, len(suite.Steps), step.Name, stepResult.Error)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s) failed: %w", i, step.Name, stepResult.Error)
			}
			// Break only if error handling mode is "exit"
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
			// Continue to next step if mode is "continue"
			continue
		}

		r.Logger("    [%d/%d] ✓ %s (%v)", i+1, len(suite.Steps), step.Name, stepResult.Duration)
	}

	// A reset step may have swapped the session; report the one steps ended on
	result.Session = sessionID
	result.Duration = time.Since(start)
	return result, result.Error
}

// runStep executes a single test step and checks expectations.
// If step.Tool is ResetSessionTool, replaces the session with a fresh one
// seeded from the same world; sessionID is updated in place.
func (r *Runner) runStep(ctx context.Context, sessionID *uuid.UUID, worldName string, step TestStep) TestResult {
	start := time.Now()
	result := TestResult{
		StepName: step.Name,
	}

	stepCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	// Check if this is a reset step
	if step.Tool == ResetSessionTool {
		if err := DeleteSession(stepCtx, r.Client, r.BaseURL, *sessionID); err != nil {
			result.Error = fmt.Errorf("failed to delete session for reset: %w", err)
			result.Duration = time.Since(start)
			return result
		}
		fresh, err := CreateSession(stepCtx, r.Client, r.BaseURL, worldName)
		if err != nil {
			result.Error = fmt.Errorf("failed to reseed session: %w", err)
			result.Duration = time.Since(start)
			return result
		}
		*sessionID = fresh.ID

		if err := r.checkSession(stepCtx, *sessionID, step.Expectations); err != nil {
			result.Error = fmt.Errorf("reset expectation failed: %w", err)
			result.Duration = time.Since(start)
			return result
		}

		result.Success = true
		result.IsReset = true
		result.Duration = time.Since(start)
		return result
	}

	var args json.RawMessage
	if len(step.Args) > 0 {
		encoded, err := json.Marshal(step.Args)
		if err != nil {
			result.Error = fmt.Errorf("failed to marshal step args: %w", err)
			result.Duration = time.Since(start)
			return result
		}
		args = encoded
	}

	res, err := InvokeTool(stepCtx, r.Client, r.BaseURL, tools.Invocation{
		SessionID: sessionID.String(),
		Tool:      step.Tool,
		Arguments: args,
	})
	if err != nil {
		result.Error = err
		result.Duration = time.Since(start)
		return result
	}
	result.Reason = res.Reason

	if err := checkResult(step.Expectations, res); err != nil {
		result.Error = fmt.Errorf("expectation failed: %w", err)
		result.Duration = time.Since(start)
		return result
	}
	if err := r.checkSession(stepCtx, *sessionID, step.Expectations); err != nil {
		result.Error = fmt.Errorf("expectation failed: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	result.Success = true
	result.Duration = time.Since(start)
	return result
}

// checkResult validates expectations against the tool result envelope
func checkResult(exp Expectations, res tools.Result) error {
	if exp.Success != nil && res.Success != *exp.Success {
		return fmt.Errorf("expected success=%t, got %t (reason: %q, error: %q)",
			*exp.Success, res.Success, res.Reason, res.Error)
	}

	lowerReason := strings.ToLower(res.Reason)
	for _, expected := range exp.ReasonContains {
		if !strings.Contains(lowerReason, strings.ToLower(expected)) {
			return fmt.Errorf("expected reason to contain %q, got %q", expected, res.Reason)
		}
	}
	for _, unexpected := range exp.ReasonNotContains {
		if strings.Contains(lowerReason, strings.ToLower(unexpected)) {
			return fmt.Errorf("expected reason to NOT contain %q, got %q", unexpected, res.Reason)
		}
	}

	if exp.ErrorContains != "" && !strings.Contains(res.Error, exp.ErrorContains) {
		return fmt.Errorf("expected error to contain %q, got %q", exp.ErrorContains, res.Error)
	}

	if len(exp.Data) == 0 {
		return nil
	}
	if len(res.Data) == 0 {
		return fmt.Errorf("expected data fields but the result carries no data")
	}
	var payload map[string]any
	if err := json.Unmarshal(res.Data, &payload); err != nil {
		return fmt.Errorf("failed to decode result data: %w", err)
	}
	for path, expected := range exp.Data {
		actual, ok := lookupPath(payload, path)
		if !ok {
			return fmt.Errorf("data path %q not present in result", path)
		}
		if !valuesEqual(expected, actual) {
			return fmt.Errorf("data path %q: expected %v, got %v", path, expected, actual)
		}
	}
	return nil
}

// checkSession validates session-level expectations with a fresh read
func (r *Runner) checkSession(ctx context.Context, sessionID uuid.UUID, exp Expectations) error {
	if exp.Turn == nil && exp.ClockMinutes == nil {
		return nil
	}
	sess, err := GetSession(ctx, r.Client, r.BaseURL, sessionID)
	if err != nil {
		return fmt.Errorf("failed to get session for expectations: %w", err)
	}
	if exp.Turn != nil && sess.Turn != *exp.Turn {
		return fmt.Errorf("expected turn %d, got %d", *exp.Turn, sess.Turn)
	}
	if exp.ClockMinutes != nil && math.Abs(sess.ClockMinutes-*exp.ClockMinutes) > 1e-6 {
		return fmt.Errorf("expected clock_minutes %.2f, got %.2f", *exp.ClockMinutes, sess.ClockMinutes)
	}
	return nil
}

// lookupPath walks a dotted path through nested JSON objects
func lookupPath(data map[string]any, path string) (any, bool) {
	var current any = data
	for _, part := range strings.Split(path, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// valuesEqual compares a case-file value against a decoded result value.
// Both sides came through encoding/json, so shapes already line up; floats
// still get a tolerance so case files can write whole numbers.
func valuesEqual(expected, actual any) bool {
	ef, eok := expected.(float64)
	af, aok := actual.(float64)
	if eok && aok {
		return math.Abs(ef-af) < 1e-6
	}
	return reflect.DeepEqual(expected, actual)
}
