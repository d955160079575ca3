package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"OrbitCS/entity"
)

var validate = validator.New()

// Load reads every *.json, *.yml and *.yaml file in dir into one catalog.
// Files are processed in name order; a key defined by two sources is a
// CatalogError, never last-writer-wins.
func Load(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading commands dir: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".json", ".yml", ".yaml":
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	c := &Catalog{commands: make(map[string]*entity.Command)}
	for _, name := range names {
		path := filepath.Join(dir, name)
		defs, err := loadFile(path)
		if err != nil {
			return nil, err
		}

		// Mapping decode order is not stable, so keys within one file
		// are sorted to keep the catalog order reproducible.
		keys := make([]string, 0, len(defs))
		for key := range defs {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			cmd := defs[key]
			cmd.Key = key
			if err := c.add(name, cmd); err != nil {
				return nil, err
			}
		}
	}

	return c, nil
}

func loadFile(path string) (map[string]*entity.Command, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	defs := make(map[string]*entity.Command)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &defs); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, &defs); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	return defs, nil
}

// validateCommand enforces the schema once at load time so the engine never
// has to defend against malformed definitions mid-conversation.
func validateCommand(cmd *entity.Command) error {
	if err := validate.Struct(cmd); err != nil {
		return &CatalogError{Key: cmd.Key, Reason: err.Error()}
	}

	switch cmd.Kind {
	case entity.KindSimple:
		if cmd.Response == "" {
			return &CatalogError{Key: cmd.Key, Reason: "simple command without response text"}
		}
		return nil
	case entity.KindConversation, entity.KindApiRequest:
		if len(cmd.Steps) == 0 {
			return &CatalogError{Key: cmd.Key, Reason: "scripted command without steps"}
		}
	}

	seen := make(map[string]bool, len(cmd.Steps))
	for i := range cmd.Steps {
		step := &cmd.Steps[i]
		if seen[step.ID] {
			return &CatalogError{Key: cmd.Key, Reason: fmt.Sprintf("duplicate step id %q", step.ID)}
		}
		seen[step.ID] = true
	}

	for i := range cmd.Steps {
		step := &cmd.Steps[i]
		for answer, target := range step.Goto {
			if !seen[target] {
				return &SchemaError{Command: cmd.Key, Step: step.ID, Target: target,
					Reason: fmt.Sprintf("goto for answer %q points to unknown step", answer)}
			}
		}
	}

	// A field-selector step implies an edit loop, which needs somewhere
	// to return to.
	if cmd.StepIndex(cmd.FieldSelectorStep()) >= 0 && cmd.StepIndex(cmd.ConfirmationStep()) < 0 {
		return &SchemaError{Command: cmd.Key, Step: cmd.FieldSelectorStep(), Target: cmd.ConfirmationStep(),
			Reason: "field selector without a confirmation step to return to"}
	}

	return nil
}
