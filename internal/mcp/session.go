package mcp

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"agenteval/internal/evaluate"
	"agenteval/internal/loader"
	"agenteval/internal/retailer"
	"agenteval/internal/schema"
)

// Session holds one loaded batch of case studies and memoized
// evaluation results. Evaluation is pure, so results are computed on
// first request and cached for the session's lifetime.
type Session struct {
	ID       string
	Dir      string
	Failures []loader.LoadError

	mu        sync.Mutex
	order     []string
	studies   map[string]*schema.CaseStudy
	results   map[string]evaluate.Result
	evaluator *evaluate.Evaluator
}

// NewSession loads every document under dir and prepares an evaluator
// over the given catalog. Per-source failures are retained, not fatal.
func NewSession(dir string, catalog *retailer.Catalog) (*Session, error) {
	batch, err := loader.LoadDir(dir)
	if err != nil {
		return nil, err
	}
	s := &Session{
		ID:        uuid.NewString(),
		Dir:       dir,
		Failures:  batch.Failures,
		studies:   make(map[string]*schema.CaseStudy, len(batch.Studies)),
		results:   make(map[string]evaluate.Result),
		evaluator: evaluate.New(catalog),
	}
	for _, ld := range batch.Studies {
		if _, dup := s.studies[ld.Study.ID]; dup {
			s.Failures = append(s.Failures, loader.LoadError{
				Source: ld.Source,
				Kind:   loader.FailSchema,
				Err:    fmt.Errorf("duplicate case study id %q", ld.Study.ID),
			})
			continue
		}
		s.order = append(s.order, ld.Study.ID)
		s.studies[ld.Study.ID] = ld.Study
	}
	return s, nil
}

// IDs returns the loaded case-study IDs in load order.
func (s *Session) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Study returns a loaded case study by ID.
func (s *Session) Study(id string) (*schema.CaseStudy, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, ok := s.studies[id]
	return cs, ok
}

// Evaluate returns the evaluation result for a case study, computing it
// on first use.
func (s *Session) Evaluate(id string) (evaluate.Result, *schema.CaseStudy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, ok := s.studies[id]
	if !ok {
		return evaluate.Result{}, nil, fmt.Errorf("unknown case study id %q", id)
	}
	if res, done := s.results[id]; done {
		return res, cs, nil
	}
	res := s.evaluator.Evaluate(cs)
	s.results[id] = res
	return res, cs, nil
}
