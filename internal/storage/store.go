// Package storage implements the scenarios + secrets + index layer
// (spec.md §4.5, C5). Grounded on the teacher's
// internal/capture/recording.go persistence half: path-traversal-safe
// IDs, os.MkdirAll + os.WriteFile with 0600, json.MarshalIndent, and the
// primary/fallback-root read pattern — generalized from a single
// recordings directory into the scenarios/secrets split spec.md requires,
// with the scenario file remaining the source of truth and a SQLite-backed
// index (internal/storage/index.go) kept in step with it.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/brennhill/gasoline-scenarios/internal/scenario"
	"github.com/brennhill/gasoline-scenarios/internal/state"
)

const excluderContents = "*\n"

// validateName rejects scenario names that could escape the scenarios
// directory, mirroring the teacher's validateRecordingID.
func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("scenario_name_empty: scenario name must not be empty")
	}
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("scenario_name_invalid: scenario name contains illegal characters")
	}
	if filepath.Base(name) != name {
		return fmt.Errorf("scenario_name_invalid: scenario name must be a single path component")
	}
	return nil
}

// Store is the scenarios + secrets + index persistence layer. Safe for
// concurrent use; the index provides its own locking.
type Store struct {
	scenariosDir string
	secretsDir   string
	idx          *Index
}

// Open initialises both directories (creating the excluder sentinel file in
// the secrets directory) and opens the SQLite-backed index (spec.md §4.5
// "initialise").
func Open() (*Store, error) {
	scenariosDir, err := state.ScenariosDir()
	if err != nil {
		return nil, fmt.Errorf("cannot_determine_scenarios_dir: %w", err)
	}
	secretsDir, err := state.SecretsDir()
	if err != nil {
		return nil, fmt.Errorf("cannot_determine_secrets_dir: %w", err)
	}
	if err := os.MkdirAll(scenariosDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir_failed: %w", err)
	}
	if err := os.MkdirAll(secretsDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir_failed: %w", err)
	}

	excluderPath := filepath.Join(secretsDir, state.SecretsExcluderFile)
	if _, err := os.Stat(excluderPath); os.IsNotExist(err) {
		if err := os.WriteFile(excluderPath, []byte(excluderContents), 0o600); err != nil {
			return nil, fmt.Errorf("write_excluder_failed: %w", err)
		}
	}

	indexPath, err := state.IndexFile()
	if err != nil {
		return nil, fmt.Errorf("cannot_determine_index_file: %w", err)
	}
	idx, err := OpenIndex(indexPath)
	if err != nil {
		return nil, fmt.Errorf("index_open_failed: %w", err)
	}

	return &Store{scenariosDir: scenariosDir, secretsDir: secretsDir, idx: idx}, nil
}

// Close releases the index's underlying database handle.
func (s *Store) Close() error {
	return s.idx.Close()
}

func (s *Store) scenarioPath(name string) string {
	return filepath.Join(s.scenariosDir, name+".json")
}

func (s *Store) secretsPath(name string) string {
	return filepath.Join(s.secretsDir, name+".json")
}

// Save writes scenario and, only if non-empty, its secrets, then refreshes
// the index entry (spec.md §4.5 "save"). created_at is preserved across an
// update; updated_at is refreshed to now.
func (s *Store) Save(sc *scenario.Scenario, secrets map[string]string) error {
	if err := validateName(sc.Name); err != nil {
		return err
	}
	if len(sc.Chain) == 0 {
		return fmt.Errorf("scenario_invalid: chain must not be empty")
	}

	if existing, err := s.loadScenarioFile(sc.Name); err == nil {
		sc.CreatedAt = existing.CreatedAt
		sc.Version = existing.Version
	} else if sc.CreatedAt.IsZero() {
		sc.CreatedAt = time.Now().UTC()
	}
	if sc.Version == "" {
		sc.Version = uuid.NewString()
	}
	sc.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return fmt.Errorf("scenario_marshal_failed: %w", err)
	}
	if err := os.WriteFile(s.scenarioPath(sc.Name), data, 0o600); err != nil {
		return fmt.Errorf("scenario_write_failed: %w", err)
	}

	if len(secrets) > 0 {
		secretsData, err := json.MarshalIndent(secrets, "", "  ")
		if err != nil {
			return fmt.Errorf("secrets_marshal_failed: %w", err)
		}
		if err := os.WriteFile(s.secretsPath(sc.Name), secretsData, 0o600); err != nil {
			return fmt.Errorf("secrets_write_failed: %w", err)
		}
	}

	return s.idx.Upsert(sc, len(secrets) > 0)
}

// Load returns a scenario, optionally merged with its secrets (spec.md
// §4.5 "load").
func (s *Store) Load(name string, includeSecrets bool) (*scenario.Scenario, map[string]string, error) {
	sc, err := s.loadScenarioFile(name)
	if err != nil {
		return nil, nil, err
	}
	if !includeSecrets {
		return sc, nil, nil
	}
	secrets, err := s.loadSecretsFile(name)
	if err != nil {
		return sc, nil, err
	}
	return sc, secrets, nil
}

// Get implements executor.ScenarioLookup, loading a scenario by name
// without its secrets (dependency resolution never needs them).
func (s *Store) Get(name string) (*scenario.Scenario, error) {
	return s.loadScenarioFile(name)
}

func (s *Store) loadScenarioFile(name string) (*scenario.Scenario, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.scenarioPath(name))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("scenario_not_found: no scenario named %q", name)
	}
	if err != nil {
		return nil, fmt.Errorf("scenario_read_failed: %w", err)
	}
	var sc scenario.Scenario
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("scenario_decode_failed: %w", err)
	}
	return &sc, nil
}

func (s *Store) loadSecretsFile(name string) (map[string]string, error) {
	data, err := os.ReadFile(s.secretsPath(name))
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("secrets_read_failed: %w", err)
	}
	var secrets map[string]string
	if err := json.Unmarshal(data, &secrets); err != nil {
		return nil, fmt.Errorf("secrets_decode_failed: %w", err)
	}
	return secrets, nil
}

// Delete removes a scenario's file, secrets file (if any), and index entry.
// Idempotent (spec.md §4.5 "delete").
func (s *Store) Delete(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := os.Remove(s.scenarioPath(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("scenario_delete_failed: %w", err)
	}
	if err := os.Remove(s.secretsPath(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("secrets_delete_failed: %w", err)
	}
	return s.idx.Remove(name)
}

// Rename loads old, saves under new, then deletes old. Not transactional:
// a crash between steps can leave both names present (spec.md §4.5
// "rename", §7).
func (s *Store) Rename(oldName, newName string) error {
	sc, secrets, err := s.Load(oldName, true)
	if err != nil {
		return err
	}
	sc.Name = newName
	if err := s.Save(sc, secrets); err != nil {
		return err
	}
	return s.Delete(oldName)
}

// List returns all index summaries (spec.md §4.5 "list").
func (s *Store) List() ([]Summary, error) {
	return s.idx.List()
}

// SearchQuery is the union-of-matches search filter (spec.md §4.5
// "search").
type SearchQuery struct {
	Text      string
	Tags      []string
	DependsOn string
}

// Search filters index summaries by tag intersection, case-insensitive
// substring of name/description, or presence of a dependency edge whose
// target equals DependsOn.
func (s *Store) Search(q SearchQuery) ([]Summary, error) {
	return s.idx.Search(q)
}

// Stats reports aggregate counts across the index (spec.md §4.5 "stats").
func (s *Store) Stats() (Stats, error) {
	return s.idx.Stats()
}

// Validate reports orphan scenario files, broken dependency targets, and
// other referential inconsistencies between disk and index (spec.md §4.5
// "validate", §5 "reconciliation primitive").
func (s *Store) Validate() (Report, error) {
	return s.idx.Validate(s.scenariosDir)
}
