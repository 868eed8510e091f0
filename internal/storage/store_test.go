package storage

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/brennhill/gasoline-scenarios/internal/scenario"
	"github.com/brennhill/gasoline-scenarios/internal/state"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	t.Setenv(state.StateDirEnv, t.TempDir())
	s, err := Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleScenario(name string) *scenario.Scenario {
	sc := &scenario.Scenario{Name: name}
	sc.Chain = []scenario.Action{{Kind: scenario.ActionClick, Selector: &scenario.SelectorRecord{Primary: "#go"}}}
	return sc
}

func TestSaveRejectsEmptyChain(t *testing.T) {
	s := openTestStore(t)
	if err := s.Save(&scenario.Scenario{Name: "empty"}, nil); err == nil {
		t.Fatal("expected scenario_invalid error for an empty chain")
	}
}

func TestSaveRejectsPathTraversalName(t *testing.T) {
	s := openTestStore(t)
	if err := s.Save(sampleScenario("../escape"), nil); err == nil {
		t.Fatal("expected scenario_name_invalid error")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)
	sc := sampleScenario("login")
	if err := s.Save(sc, map[string]string{"password": "hunter2"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, secrets, err := s.Load("login", true)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Name != "login" {
		t.Fatalf("Name = %q, want login", loaded.Name)
	}
	if secrets["password"] != "hunter2" {
		t.Fatalf("secrets[password] = %q, want hunter2", secrets["password"])
	}
	if loaded.Version == "" {
		t.Fatal("expected a stamped version on save")
	}
}

func TestSavePreservesCreatedAtAndVersionAcrossUpdate(t *testing.T) {
	s := openTestStore(t)
	sc := sampleScenario("checkout")
	if err := s.Save(sc, nil); err != nil {
		t.Fatalf("Save: %v", err)
	}
	firstVersion := sc.Version
	firstCreated := sc.CreatedAt

	updated := sampleScenario("checkout")
	updated.Metadata.Description = "now with a description"
	if err := s.Save(updated, nil); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	if updated.Version != firstVersion {
		t.Fatalf("Version changed across update: %q -> %q", firstVersion, updated.Version)
	}
	if !updated.CreatedAt.Equal(firstCreated) {
		t.Fatalf("CreatedAt changed across update: %v -> %v", firstCreated, updated.CreatedAt)
	}
}

func TestLoadWithoutSecretsOmitsThem(t *testing.T) {
	s := openTestStore(t)
	sc := sampleScenario("login")
	if err := s.Save(sc, map[string]string{"password": "hunter2"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	_, secrets, err := s.Load("login", false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if secrets != nil {
		t.Fatalf("secrets = %v, want nil when includeSecrets is false", secrets)
	}
}

func TestLoadMissingSecretsFileReturnsEmptyMap(t *testing.T) {
	s := openTestStore(t)
	if err := s.Save(sampleScenario("no-secrets"), nil); err != nil {
		t.Fatalf("Save: %v", err)
	}
	_, secrets, err := s.Load("no-secrets", true)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(secrets) != 0 {
		t.Fatalf("secrets = %v, want empty map", secrets)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	if err := s.Save(sampleScenario("throwaway"), nil); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Delete("throwaway"); err != nil {
		t.Fatalf("first Delete: %v", err)
	}
	if err := s.Delete("throwaway"); err != nil {
		t.Fatalf("second Delete should be a no-op, got: %v", err)
	}
}

func TestRenameMovesScenarioAndSecrets(t *testing.T) {
	s := openTestStore(t)
	if err := s.Save(sampleScenario("old-name"), map[string]string{"token": "abc"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Rename("old-name", "new-name"); err != nil {
		t.Fatalf("Rename: %v", err)
	}

	if _, _, err := s.Load("old-name", false); err == nil {
		t.Fatal("expected old-name to be gone after rename")
	}
	loaded, secrets, err := s.Load("new-name", true)
	if err != nil {
		t.Fatalf("Load new-name: %v", err)
	}
	if loaded.Name != "new-name" || secrets["token"] != "abc" {
		t.Fatalf("loaded = %+v secrets = %v", loaded, secrets)
	}
}

func TestListReflectsSavedScenarios(t *testing.T) {
	s := openTestStore(t)
	if err := s.Save(sampleScenario("a"), nil); err != nil {
		t.Fatalf("Save a: %v", err)
	}
	if err := s.Save(sampleScenario("b"), nil); err != nil {
		t.Fatalf("Save b: %v", err)
	}
	summaries, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("List returned %d summaries, want 2", len(summaries))
	}
}

func TestSearchFiltersByTagAndText(t *testing.T) {
	s := openTestStore(t)
	checkout := sampleScenario("checkout-flow")
	checkout.Metadata.Tags = []string{"ecommerce", "critical"}
	checkout.Metadata.Description = "completes a purchase"
	if err := s.Save(checkout, nil); err != nil {
		t.Fatalf("Save: %v", err)
	}
	login := sampleScenario("login-flow")
	login.Metadata.Tags = []string{"auth"}
	if err := s.Save(login, nil); err != nil {
		t.Fatalf("Save: %v", err)
	}

	byTag, err := s.Search(SearchQuery{Tags: []string{"ecommerce"}})
	if err != nil {
		t.Fatalf("Search by tag: %v", err)
	}
	if len(byTag) != 1 || byTag[0].Name != "checkout-flow" {
		t.Fatalf("Search by tag = %+v, want only checkout-flow", byTag)
	}

	byText, err := s.Search(SearchQuery{Text: "purchase"})
	if err != nil {
		t.Fatalf("Search by text: %v", err)
	}
	if len(byText) != 1 || byText[0].Name != "checkout-flow" {
		t.Fatalf("Search by text = %+v, want only checkout-flow", byText)
	}
}

func TestValidateFlagsOrphanScenarioFile(t *testing.T) {
	s := openTestStore(t)
	if err := s.Save(sampleScenario("tracked"), nil); err != nil {
		t.Fatalf("Save: %v", err)
	}
	// Write a scenario file directly, bypassing Save, so the index never
	// learns about it — this is the orphan Validate must detect.
	orphan := sampleScenario("untracked")
	data, err := json.MarshalIndent(orphan, "", "  ")
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(s.scenarioPath("untracked"), data, 0o600); err != nil {
		t.Fatalf("write orphan: %v", err)
	}

	report, err := s.Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(report.OrphanScenarioFiles) != 1 || report.OrphanScenarioFiles[0] != "untracked" {
		t.Fatalf("OrphanScenarioFiles = %v, want [untracked]", report.OrphanScenarioFiles)
	}
}
