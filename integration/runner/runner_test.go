package runner

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbstnppl/worldkeeper/pkg/tools"
)

func TestLookupPath(t *testing.T) {
	var data map[string]any
	raw := `{"transport": "walking", "route": {"found": true, "total_minutes": 9, "path": ["greenhollow", "mill_road"]}}`
	require.NoError(t, json.Unmarshal([]byte(raw), &data))

	v, ok := lookupPath(data, "transport")
	assert.True(t, ok)
	assert.Equal(t, "walking", v)

	v, ok = lookupPath(data, "route.total_minutes")
	assert.True(t, ok)
	assert.Equal(t, float64(9), v)

	v, ok = lookupPath(data, "route.path")
	assert.True(t, ok)
	assert.Equal(t, []any{"greenhollow", "mill_road"}, v)

	_, ok = lookupPath(data, "route.missing")
	assert.False(t, ok)

	// Descending through a scalar is not an error, just absent.
	_, ok = lookupPath(data, "transport.deeper")
	assert.False(t, ok)
}

func TestCheckResultEnvelope(t *testing.T) {
	refusal := tools.Refuse("start_travel", "Rowan does not know Whispering Fen exists; it must be discovered first")

	var exp Expectations
	require.NoError(t, json.Unmarshal([]byte(`{
		"success": false,
		"reason_contains": ["does not know", "whispering fen"],
		"reason_not_contains": ["already traveling"]
	}`), &exp))
	assert.NoError(t, checkResult(exp, refusal))

	require.NoError(t, json.Unmarshal([]byte(`{"success": true}`), &exp))
	assert.Error(t, checkResult(exp, refusal), "refusal should fail a success=true expectation")

	require.NoError(t, json.Unmarshal([]byte(`{"reason_contains": ["no route"]}`), &exp))
	assert.Error(t, checkResult(exp, refusal))
}

func TestCheckResultDataPaths(t *testing.T) {
	result := tools.Succeed("check_route", map[string]any{
		"transport": "walking",
		"route": map[string]any{
			"found":         true,
			"total_minutes": 9,
			"path":          []string{"greenhollow", "mill_road", "fairoaks_farm"},
		},
	})

	var exp Expectations
	require.NoError(t, json.Unmarshal([]byte(`{
		"data": {
			"transport": "walking",
			"route.found": true,
			"route.total_minutes": 9,
			"route.path": ["greenhollow", "mill_road", "fairoaks_farm"]
		}
	}`), &exp))
	assert.NoError(t, checkResult(exp, result))

	require.NoError(t, json.Unmarshal([]byte(`{"data": {"route.total_minutes": 10}}`), &exp))
	assert.Error(t, checkResult(exp, result))

	require.NoError(t, json.Unmarshal([]byte(`{"data": {"route.reason": "anything"}}`), &exp))
	assert.Error(t, checkResult(exp, result), "absent paths should fail")

	noData := tools.Succeed("advance_turn", nil)
	require.NoError(t, json.Unmarshal([]byte(`{"data": {"turn": 1}}`), &exp))
	assert.Error(t, checkResult(exp, noData))
}

func TestValuesEqual(t *testing.T) {
	assert.True(t, valuesEqual(float64(9), float64(9)))
	assert.True(t, valuesEqual(float64(9), float64(9)+1e-9))
	assert.False(t, valuesEqual(float64(9), float64(10)))
	assert.True(t, valuesEqual("arrived", "arrived"))
	assert.False(t, valuesEqual(true, false))
	assert.True(t, valuesEqual([]any{"a", "b"}, []any{"a", "b"}))
	assert.False(t, valuesEqual([]any{"a"}, []any{"a", "b"}))
}

func TestLoadTestSuiteWithExpansion(t *testing.T) {
	dir := t.TempDir()

	writeCase := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	writeCase("first.json", `{"name": "first", "world": "greenhollow", "steps": [{"tool": "get_needs"}]}`)
	writeCase("second.json", `{"name": "second", "world": "greenhollow", "steps": [{"tool": "get_needs"}]}`)
	writeCase("all.json", `{"name": "all", "cases": ["first.json", "second.json"]}`)

	jobs, err := LoadTestSuiteWithExpansion(filepath.Join(dir, "first.json"), dir)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "first", jobs[0].Name)

	jobs, err = LoadTestSuiteWithExpansion(filepath.Join(dir, "all.json"), dir)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "first", jobs[0].Name)
	assert.Equal(t, "second", jobs[1].Name)

	_, err = LoadTestSuiteWithExpansion(filepath.Join(dir, "absent.json"), dir)
	assert.Error(t, err)
}
