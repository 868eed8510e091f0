package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/brennhill/gasoline-scenarios/internal/scenario"
)

// Index is the SQLite-backed scenario index. The scenario JSON files
// remain the source of truth (spec.md §5's crash-consistency bias): Save
// and Delete write the file first and the index row second.
type Index struct {
	mu sync.Mutex
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS scenarios (
	name TEXT PRIMARY KEY,
	description TEXT NOT NULL DEFAULT '',
	tags TEXT NOT NULL DEFAULT '',
	dependencies TEXT NOT NULL DEFAULT '',
	has_secrets INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`

// OpenIndex opens (creating if needed) the SQLite index at path.
func OpenIndex(path string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir_failed: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite_open_failed: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite_migrate_failed: %w", err)
	}
	return &Index{db: db}, nil
}

func (i *Index) Close() error {
	return i.db.Close()
}

// Summary is one index row as returned by List/Search.
type Summary struct {
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Tags         []string  `json:"tags"`
	Dependencies []string  `json:"dependencies"`
	HasSecrets   bool      `json:"has_secrets"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func dependencyTargets(sc *scenario.Scenario) []string {
	targets := make([]string, 0, len(sc.Metadata.Dependencies))
	for _, dep := range sc.Metadata.Dependencies {
		targets = append(targets, dep.Scenario)
	}
	return targets
}

// Upsert normalises the index entry for sc (spec.md §4.5 "Invariant
// enforcement": every save normalises the index entry before return).
func (i *Index) Upsert(sc *scenario.Scenario, hasSecrets bool) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	tags := strings.Join(sc.Metadata.Tags, ",")
	deps := strings.Join(dependencyTargets(sc), ",")

	_, err := i.db.Exec(`
		INSERT INTO scenarios (name, description, tags, dependencies, has_secrets, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			description=excluded.description,
			tags=excluded.tags,
			dependencies=excluded.dependencies,
			has_secrets=excluded.has_secrets,
			created_at=excluded.created_at,
			updated_at=excluded.updated_at
	`, sc.Name, sc.Metadata.Description, tags, deps, boolToInt(hasSecrets),
		sc.CreatedAt.Format(time.RFC3339), sc.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("index_upsert_failed: %w", err)
	}
	return nil
}

// Remove deletes name's index entry. Idempotent.
func (i *Index) Remove(name string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, err := i.db.Exec(`DELETE FROM scenarios WHERE name = ?`, name); err != nil {
		return fmt.Errorf("index_remove_failed: %w", err)
	}
	return nil
}

func (i *Index) List() ([]Summary, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	rows, err := i.db.Query(`SELECT name, description, tags, dependencies, has_secrets, created_at, updated_at FROM scenarios ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("index_list_failed: %w", err)
	}
	defer rows.Close()
	return scanSummaries(rows)
}

func scanSummaries(rows *sql.Rows) ([]Summary, error) {
	var out []Summary
	for rows.Next() {
		var (
			s                  Summary
			tags, deps         string
			hasSecrets         int
			createdAt, updated string
		)
		if err := rows.Scan(&s.Name, &s.Description, &tags, &deps, &hasSecrets, &createdAt, &updated); err != nil {
			return nil, fmt.Errorf("index_scan_failed: %w", err)
		}
		s.Tags = splitNonEmpty(tags)
		s.Dependencies = splitNonEmpty(deps)
		s.HasSecrets = hasSecrets != 0
		s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		s.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
		out = append(out, s)
	}
	return out, rows.Err()
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Search implements the union-of-matches filter of spec.md §4.5 "search":
// tag intersection, case-insensitive name/description substring, or a
// dependency edge targeting DependsOn. All rows are read back in Go since
// the filters compose across columns stored as comma-joined text.
func (i *Index) Search(q SearchQuery) ([]Summary, error) {
	all, err := i.List()
	if err != nil {
		return nil, err
	}
	if q.Text == "" && len(q.Tags) == 0 && q.DependsOn == "" {
		return all, nil
	}

	var out []Summary
	for _, s := range all {
		if matchesSearch(s, q) {
			out = append(out, s)
		}
	}
	return out, nil
}

func matchesSearch(s Summary, q SearchQuery) bool {
	if q.Text != "" {
		text := strings.ToLower(q.Text)
		if strings.Contains(strings.ToLower(s.Name), text) || strings.Contains(strings.ToLower(s.Description), text) {
			return true
		}
	}
	if len(q.Tags) > 0 {
		want := map[string]bool{}
		for _, t := range q.Tags {
			want[t] = true
		}
		for _, t := range s.Tags {
			if want[t] {
				return true
			}
		}
	}
	if q.DependsOn != "" {
		for _, d := range s.Dependencies {
			if d == q.DependsOn {
				return true
			}
		}
	}
	return false
}

// Stats reports totals, count with secrets, count with dependencies, and
// the tag universe (spec.md §4.5 "stats").
type Stats struct {
	Total              int      `json:"total"`
	WithSecrets        int      `json:"with_secrets"`
	WithDependencies   int      `json:"with_dependencies"`
	Tags               []string `json:"tags"`
}

func (i *Index) Stats() (Stats, error) {
	all, err := i.List()
	if err != nil {
		return Stats{}, err
	}
	tagSet := map[string]bool{}
	st := Stats{Total: len(all)}
	for _, s := range all {
		if s.HasSecrets {
			st.WithSecrets++
		}
		if len(s.Dependencies) > 0 {
			st.WithDependencies++
		}
		for _, t := range s.Tags {
			tagSet[t] = true
		}
	}
	for t := range tagSet {
		st.Tags = append(st.Tags, t)
	}
	return st, nil
}

// Report is the outcome of a reconciliation pass (spec.md §4.5 "validate").
type Report struct {
	OrphanScenarioFiles []string `json:"orphan_scenario_files"`
	BrokenDependencies  []BrokenDependency `json:"broken_dependencies"`
}

// BrokenDependency names a scenario whose dependency target isn't indexed.
type BrokenDependency struct {
	Scenario string `json:"scenario"`
	Target   string `json:"target"`
}

// Validate reports orphan scenario files (present on disk, absent from the
// index) and broken dependency targets (spec.md §4.5 "validate").
func (i *Index) Validate(scenariosDir string) (Report, error) {
	all, err := i.List()
	if err != nil {
		return Report{}, err
	}
	indexed := map[string]bool{}
	for _, s := range all {
		indexed[s.Name] = true
	}

	var report Report
	entries, err := os.ReadDir(scenariosDir)
	if err != nil {
		return Report{}, fmt.Errorf("scenarios_dir_read_failed: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".json")
		if !indexed[name] {
			report.OrphanScenarioFiles = append(report.OrphanScenarioFiles, name)
		}
	}

	for _, s := range all {
		for _, dep := range s.Dependencies {
			if !indexed[dep] {
				report.BrokenDependencies = append(report.BrokenDependencies, BrokenDependency{Scenario: s.Name, Target: dep})
			}
		}
	}

	return report, nil
}
