// Package loader reads case-study documents from a directory of JSON
// files. Sources load in sorted filename order, and one bad source
// never aborts the batch: each failure is reported against its source
// with the failure kind (unreadable file, invalid JSON, or schema
// violation) kept distinct.
package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"agenteval/internal/schema"
)

// FailKind distinguishes why a source could not be loaded.
type FailKind string

const (
	FailRead   FailKind = "read"
	FailJSON   FailKind = "invalid JSON"
	FailSchema FailKind = "schema error"
)

// LoadError wraps a per-source failure. The batch continues past it.
type LoadError struct {
	Source string
	Kind   FailKind
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s in %s: %v", e.Kind, e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Loaded pairs a validated case study with the source it came from.
type Loaded struct {
	Source string
	Study  *schema.CaseStudy
}

// Batch is the outcome of loading a directory: the studies that
// validated, and a failure per source that did not.
type Batch struct {
	Studies  []Loaded
	Failures []LoadError
}

// ListSources returns the .json files in dir, sorted by name. A missing
// directory yields an empty list, matching "nothing to load".
func ListSources(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// LoadDir loads every .json document under dir.
func LoadDir(dir string) (Batch, error) {
	paths, err := ListSources(dir)
	if err != nil {
		return Batch{}, err
	}
	var batch Batch
	for _, path := range paths {
		study, lerr := LoadFile(path)
		if lerr != nil {
			batch.Failures = append(batch.Failures, *lerr)
			continue
		}
		batch.Studies = append(batch.Studies, Loaded{Source: path, Study: study})
	}
	return batch, nil
}

// LoadFile reads and validates a single case-study document.
func LoadFile(path string) (*schema.CaseStudy, *LoadError) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Source: path, Kind: FailRead, Err: err}
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &LoadError{Source: path, Kind: FailJSON, Err: err}
	}
	study, err := schema.NewCaseStudy(doc)
	if err != nil {
		return nil, &LoadError{Source: path, Kind: FailSchema, Err: err}
	}
	return study, nil
}
