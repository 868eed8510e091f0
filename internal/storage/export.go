package storage

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/brennhill/gasoline-scenarios/internal/scenario"
	"github.com/brennhill/gasoline-scenarios/internal/util"
)

// portableScenario is the export/import wire shape: a scenario plus its
// optional secrets, serialised as YAML for a human-diffable, hand-editable
// textual form. Grounded on other_examples/ormasoftchile-gert__scenario.go,
// which serialises an almost identical "named steps + evidence map" shape
// to YAML rather than JSON. CreatedAt/UpdatedAt are carried as plain
// strings (scenario.Scenario tags them yaml:"-") so a hand-edited document
// can use any timestamp format util.ParseTimestamp tolerates, rather than
// failing the whole import on yaml.v3's stricter built-in time decoding.
type portableScenario struct {
	Scenario  *scenario.Scenario `yaml:"scenario"`
	CreatedAt string             `yaml:"created_at,omitempty"`
	UpdatedAt string             `yaml:"updated_at,omitempty"`
	Secrets   map[string]string  `yaml:"secrets,omitempty"`
}

// Export serialises a scenario (and optionally its secrets) to a portable
// textual form (spec.md §4.5 "export").
func (s *Store) Export(name string, includeSecrets bool) (string, error) {
	sc, secrets, err := s.Load(name, includeSecrets)
	if err != nil {
		return "", err
	}
	portable := portableScenario{
		Scenario:  sc,
		CreatedAt: sc.CreatedAt.Format(time.RFC3339Nano),
	}
	if !sc.UpdatedAt.IsZero() {
		portable.UpdatedAt = sc.UpdatedAt.Format(time.RFC3339Nano)
	}
	if includeSecrets {
		portable.Secrets = secrets
	}
	out, err := yaml.Marshal(portable)
	if err != nil {
		return "", fmt.Errorf("export_marshal_failed: %w", err)
	}
	return string(out), nil
}

// Import parses a previously exported scenario and saves it, refusing to
// overwrite an existing scenario unless overwrite is true (spec.md §4.5
// "import").
func (s *Store) Import(text string, overwrite bool) (*scenario.Scenario, error) {
	var portable portableScenario
	if err := yaml.Unmarshal([]byte(text), &portable); err != nil {
		return nil, fmt.Errorf("import_parse_failed: %w", err)
	}
	if portable.Scenario == nil {
		return nil, fmt.Errorf("import_invalid: no scenario document found")
	}

	if !overwrite {
		if _, err := s.loadScenarioFile(portable.Scenario.Name); err == nil {
			return nil, fmt.Errorf("scenario_exists: %q already exists; pass overwrite to replace it", portable.Scenario.Name)
		}
	}

	portable.Scenario.CreatedAt = util.ParseTimestamp(portable.CreatedAt)
	if portable.UpdatedAt != "" {
		portable.Scenario.UpdatedAt = util.ParseTimestamp(portable.UpdatedAt)
	}

	if err := s.Save(portable.Scenario, portable.Secrets); err != nil {
		return nil, err
	}
	return portable.Scenario, nil
}
