// Package experiment serves pre-generated experiment datasets. The data
// is produced offline by a separate pipeline; this package only reads it.
package experiment

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrNoResults is returned when no dataset has been generated yet.
var ErrNoResults = errors.New("experiment results not found")

// Store reads experiment results from a JSON file on demand, so a
// regenerated dataset is picked up without a restart.
type Store struct {
	path string
}

// New creates a store reading from path.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the configured dataset location.
func (s *Store) Path() string {
	return s.path
}

// Results returns the raw dataset, verbatim. The file must hold valid
// JSON; it is passed through without re-encoding.
func (s *Store) Results() (json.RawMessage, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoResults
		}
		return nil, fmt.Errorf("failed to read experiment results: %w", err)
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("experiment results at %s are not valid JSON", s.path)
	}

	return json.RawMessage(data), nil
}
