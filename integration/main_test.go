//go:build integration
// +build integration

package integration

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/sbstnppl/worldkeeper/integration/runner"
)

var (
	caseFlag  = flag.String("case", "", "Comma-separated case files from integration/cases/ (for TestSingleSuite)")
	errFlag   = flag.String("err", "continue", "Error handling mode: 'continue' (run all steps) or 'exit' (stop on first failure)")
	runsFlag  = flag.Int("runs", 1, "Number of times to run each suite (useful for exercising dice-driven steps)")
	worldFlag = flag.String("world", "", "Override world definition for all cases (e.g. 'greenhollow')")
)

func apiBaseURL() string {
	if url := os.Getenv("API_BASE_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

func TestMain(m *testing.M) {
	fmt.Printf("Running Worldkeeper Integration Tests\n")
	fmt.Printf("   API Base URL: %s\n", apiBaseURL())
	os.Exit(m.Run())
}

// newSuiteRunner builds a runner from the environment and shared flags.
func newSuiteRunner(mode runner.ErrorHandlingMode) *runner.Runner {
	r := runner.NewRunner(apiBaseURL())
	r.Timeout = time.Duration(getIntEnv("TEST_TIMEOUT_SECONDS", 30)) * time.Second
	r.ErrorHandlingMode = mode
	r.WorldOverride = *worldFlag
	r.Logger = func(format string, args ...interface{}) {
		fmt.Printf(format+"\n", args...)
	}
	return r
}

// runJob executes one suite and logs its steps. Reset steps are shown but
// never count toward pass/fail.
func runJob(ctx context.Context, t *testing.T, r *runner.Runner, job runner.TestJob, label string) runner.TestRunResult {
	t.Logf("%s Running test suite: %s", label, job.Name)

	result, err := r.RunSuite(ctx, job.Suite)
	if err != nil && result.Error == nil {
		result.Error = err
	}
	result.Job = job

	t.Logf("Session ID: %s", result.Session.String())

	for _, step := range result.Results {
		switch {
		case step.IsReset:
			t.Logf("   ↻ %s (%v)", step.StepName, step.Duration)
		case step.Success:
			t.Logf("   ✓ %s (%v)", step.StepName, step.Duration)
		default:
			t.Errorf("   ✗ %s: %v", step.StepName, step.Error)
		}
	}

	if result.Error != nil {
		t.Errorf("%s FAILED: Test suite '%s' failed: %v", label, job.Name, result.Error)
	} else {
		t.Logf("%s PASSED: Test suite '%s' completed in %v", label, job.Name, result.Duration)
	}
	return result
}

func TestIntegrationSuites(t *testing.T) {
	// Continue mode so one bad suite doesn't hide the rest.
	r := newSuiteRunner(runner.ErrorHandlingContinue)
	if r.WorldOverride != "" {
		t.Logf("World override enabled: %s", r.WorldOverride)
	}

	files, err := discoverTestFiles("cases")
	if err != nil {
		t.Fatalf("Failed to discover test files: %v", err)
	}
	if len(files) == 0 {
		t.Skip("No test case files found in cases/ directory")
	}
	t.Logf("Found %d test case files", len(files))

	var jobs []runner.TestJob
	for _, file := range files {
		expanded, err := runner.LoadTestSuiteWithExpansion(file, "cases")
		if err != nil {
			t.Errorf("Failed to load test suite %s: %v", file, err)
			continue
		}
		jobs = append(jobs, expanded...)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	var failed []string
	for i, job := range jobs {
		label := fmt.Sprintf("[%d/%d]", i+1, len(jobs))
		result := runJob(ctx, t, r, job, label)
		if result.Error != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", job.Name, result.Error))
		}
		t.Logf("")
	}

	t.Logf("\nIntegration Test Summary:")
	t.Logf("   Passed: %d", len(jobs)-len(failed))
	t.Logf("   Failed: %d", len(failed))
	if len(failed) > 0 {
		t.Logf("\nFailed suites:")
		for _, f := range failed {
			t.Logf("   - %s", f)
		}
		t.Fatalf("Integration tests failed")
	}
	t.Logf("\nAll integration tests passed!")
}

// TestSingleSuite runs the cases named by -case, optionally several times,
// and reports per-suite pass rates so dice-driven flakiness shows up.
func TestSingleSuite(t *testing.T) {
	flag.Parse()
	if *caseFlag == "" {
		t.Skip("Skipping single suite test (use -case flag to run)")
	}
	if *errFlag != "exit" && *errFlag != "continue" {
		t.Fatalf("Invalid -err flag value: %s (must be 'exit' or 'continue')", *errFlag)
	}
	runs := *runsFlag
	if runs < 1 {
		t.Fatalf("Number of runs must be >= 1, got: %d", runs)
	}

	var suiteFiles []string
	for _, name := range strings.Split(*caseFlag, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !strings.HasSuffix(name, ".json") {
			name += ".json"
		}
		suiteFiles = append(suiteFiles, "cases/"+name)
	}
	if len(suiteFiles) == 0 {
		t.Fatalf("No valid test cases found in -case flag: %s", *caseFlag)
	}

	// Multi-run always continues so every run contributes to the tally.
	mode := runner.ErrorHandlingMode(*errFlag)
	if runs > 1 {
		mode = runner.ErrorHandlingContinue
	}
	r := newSuiteRunner(mode)

	t.Logf("Running %d suite file(s), %d run(s) each, error mode %q%s",
		len(suiteFiles), runs, mode, worldNote(r))

	tally := newTally()
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(runs)*10*time.Minute)
	defer cancel()

	for run := 1; run <= runs; run++ {
		if runs > 1 {
			t.Logf("=== RUN %d/%d ===", run, runs)
		}
		for i, file := range suiteFiles {
			jobs, err := runner.LoadTestSuiteWithExpansion(file, "cases")
			if err != nil {
				t.Errorf("Failed to load test suite %s: %v", file, err)
				tally.loadFailure(file)
				continue
			}
			for _, job := range jobs {
				label := fmt.Sprintf("[%d/%d]", i+1, len(suiteFiles))
				result := runJob(ctx, t, r, job, label)
				tally.record(run, job.Name, result)
				if result.Error != nil && runs == 1 && *errFlag == "exit" {
					t.Fatalf("Test suite(s) had errors")
				}
				t.Logf("--------------------------------")
			}
		}
	}

	if report := tally.report(runs); report != "" {
		t.Log(report)
	}
	if tally.failures > 0 {
		t.Fatalf("Test suite(s) had errors")
	}
}

func worldNote(r *runner.Runner) string {
	if r.WorldOverride == "" {
		return ""
	}
	return fmt.Sprintf(" [world override: %s]", r.WorldOverride)
}

// tally accumulates suite outcomes and step failures across runs.
type tally struct {
	executions int
	passes     int
	failures   int
	suites     []string // insertion order, for stable reports
	bySuite    map[string]*suiteTally
}

type suiteTally struct {
	passes   int
	failures int
	steps    []stepFailure
}

type stepFailure struct {
	step string
	run  int
	err  string
}

func newTally() *tally {
	return &tally{bySuite: make(map[string]*suiteTally)}
}

func (ta *tally) suite(name string) *suiteTally {
	st, ok := ta.bySuite[name]
	if !ok {
		st = &suiteTally{}
		ta.bySuite[name] = st
		ta.suites = append(ta.suites, name)
	}
	return st
}

func (ta *tally) loadFailure(name string) {
	ta.executions++
	ta.failures++
	ta.suite(name).failures++
}

func (ta *tally) record(run int, name string, result runner.TestRunResult) {
	ta.executions++
	st := ta.suite(name)
	if result.Error != nil {
		ta.failures++
		st.failures++
	} else {
		ta.passes++
		st.passes++
	}
	for _, step := range result.Results {
		if step.IsReset || step.Success {
			continue
		}
		st.steps = append(st.steps, stepFailure{step: step.StepName, run: run, err: step.Error.Error()})
	}
}

func (ta *tally) report(runs int) string {
	var sb strings.Builder

	if runs > 1 {
		pct := func(n int) float64 { return float64(n) / float64(ta.executions) * 100 }
		sb.WriteString("\n=== FINAL MULTI-RUN STATISTICS ===\n")
		sb.WriteString(fmt.Sprintf("Total executions: %d\n", ta.executions))
		sb.WriteString(fmt.Sprintf("Passes: %d (%.1f%%), failures: %d (%.1f%%)\n",
			ta.passes, pct(ta.passes), ta.failures, pct(ta.failures)))
		sb.WriteString("\nPer-suite:\n")
		for _, name := range ta.suites {
			st := ta.bySuite[name]
			total := st.passes + st.failures
			if total == 0 {
				continue
			}
			sb.WriteString(fmt.Sprintf("  %s: %d/%d passes (%.1f%%)\n",
				name, st.passes, total, float64(st.passes)/float64(total)*100))
			if st.passes > 0 && st.failures > 0 {
				sb.WriteString("    FLAKY: passed and failed across runs\n")
			}
		}
	} else if len(ta.suites) > 1 {
		sb.WriteString(fmt.Sprintf("Suites passed: %d, failed: %d\n", ta.passes, ta.failures))
	}

	if detail := ta.failureDetail(); detail != "" {
		sb.WriteString(detail)
	}
	return sb.String()
}

// failureDetail groups step failures by suite and step, so a step that
// fails on several runs reads as one entry.
func (ta *tally) failureDetail() string {
	var sb strings.Builder
	for _, name := range ta.suites {
		st := ta.bySuite[name]
		if len(st.steps) == 0 {
			continue
		}
		if sb.Len() == 0 {
			sb.WriteString("\nStep failures:\n")
		}
		sb.WriteString(fmt.Sprintf("%s (%d step failure(s)):\n", name, len(st.steps)))

		byStep := make(map[string][]stepFailure)
		var order []string
		for _, f := range st.steps {
			if _, seen := byStep[f.step]; !seen {
				order = append(order, f.step)
			}
			byStep[f.step] = append(byStep[f.step], f)
		}
		sort.Strings(order)
		for _, step := range order {
			fails := byStep[step]
			if len(fails) == 1 {
				sb.WriteString(fmt.Sprintf("  ✗ %s (run %d): %s\n", step, fails[0].run, fails[0].err))
				continue
			}
			sb.WriteString(fmt.Sprintf("  ✗ %s (failed %d times):\n", step, len(fails)))
			for _, f := range fails {
				sb.WriteString(fmt.Sprintf("      run %d: %s\n", f.run, f.err))
			}
		}
	}
	return sb.String()
}

func discoverTestFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".json") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func getIntEnv(name string, defaultValue int) int {
	str := os.Getenv(name)
	if str == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return defaultValue
	}
	return val
}
