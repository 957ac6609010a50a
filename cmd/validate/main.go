package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sbstnppl/worldkeeper/pkg/entity"
	"github.com/sbstnppl/worldkeeper/pkg/world"
)

// validate checks a world definition file before it ships: strict JSON
// decoding catches misspelled fields that a lenient load would silently
// drop, Validate enforces the hard rules, and a lint pass flags things
// that are legal but probably mistakes.

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <world.json>\n", os.Args[0])
		os.Exit(1)
	}

	filename := os.Args[1]
	validator := &WorldValidator{}

	if err := validator.validateFile(filename); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	for _, w := range validator.warnings {
		fmt.Printf("Warning: %s\n", w)
	}

	fmt.Println("World definition is valid!")
}

type WorldValidator struct {
	warnings []string
}

func (v *WorldValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	baseName := filepath.Base(filename)
	if !strings.HasSuffix(baseName, ".json") {
		return fmt.Errorf("world file must have .json extension: %s", baseName)
	}

	nameWithoutExt := strings.TrimSuffix(baseName, ".json")
	if !isValidWorldFilename(nameWithoutExt) {
		return fmt.Errorf("world filename '%s' must be lowercase snake_case (e.g., river_kingdom.json, not RiverKingdom.json)", baseName)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	if !json.Valid(data) {
		return fmt.Errorf("file %s contains invalid JSON", filename)
	}

	var def world.Definition
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&def); err != nil {
		return fmt.Errorf("file %s failed strict JSON unmarshaling: %w", filename, err)
	}

	if err := def.Validate(); err != nil {
		return fmt.Errorf("file %s: %w", filename, err)
	}

	v.lintDefinition(&def)
	return nil
}

// lintDefinition flags authoring smells the hard validation allows.
func (v *WorldValidator) lintDefinition(def *world.Definition) {
	connected := make(map[string]bool)
	for _, c := range def.Connections {
		connected[c.FromKey] = true
		connected[c.ToKey] = true
	}
	for _, z := range def.Zones {
		if !connected[z.Key] && len(def.Zones) > 1 {
			v.addWarning(fmt.Sprintf("zone '%s' has no connections; travelers can never reach or leave it", z.Key))
		}
	}

	hasPlayer := false
	for _, e := range def.Entities {
		if entity.Kind(e.Kind) == entity.KindPlayer {
			hasPlayer = true
		}
		if e.HP == 0 && entity.Kind(e.Kind) != entity.KindNPC {
			v.addWarning(fmt.Sprintf("entity '%s' has no hp; skill gate penalties and combat reads will see a zero sheet", e.Key))
		}
	}
	if !hasPlayer {
		v.addWarning("no player entity defined; sessions of this world start without a protagonist")
	}

	for _, z := range def.Zones {
		if z.SkillGate != nil && z.BaseCostMinutes == 0 {
			v.addWarning(fmt.Sprintf("zone '%s' carries a skill gate but costs zero minutes to cross", z.Key))
		}
	}
}

func (v *WorldValidator) addWarning(msg string) {
	v.warnings = append(v.warnings, msg)
}

var validFilenameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)

func isValidWorldFilename(name string) bool {
	// Allow 'x.' prefix for experimental worlds
	name = strings.TrimPrefix(name, "x.")
	return validFilenameRegex.MatchString(name)
}
