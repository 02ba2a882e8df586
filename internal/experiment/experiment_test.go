package experiment

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestResultsMissingFile(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "experiment_results.json"))

	_, err := store.Results()
	if !errors.Is(err, ErrNoResults) {
		t.Fatalf("err = %v, want ErrNoResults", err)
	}
}

func TestResultsServedVerbatim(t *testing.T) {
	path := filepath.Join(t.TempDir(), "experiment_results.json")
	body := `{"generated_at":"2025-06-01","samples":[{"id":1,"verdict_changed":true}]}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	store := New(path)
	data, err := store.Results()
	if err != nil {
		t.Fatalf("Results: %v", err)
	}
	if string(data) != body {
		t.Errorf("data = %s, want verbatim file content", data)
	}
}

func TestResultsRejectsBrokenJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "experiment_results.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := New(path).Results(); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestResultsPicksUpRegeneratedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "experiment_results.json")
	store := New(path)

	if _, err := store.Results(); !errors.Is(err, ErrNoResults) {
		t.Fatalf("err = %v, want ErrNoResults before generation", err)
	}

	if err := os.WriteFile(path, []byte(`{"samples":[]}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Results(); err != nil {
		t.Fatalf("Results after generation: %v", err)
	}
}
