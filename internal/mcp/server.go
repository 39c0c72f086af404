package mcp

import (
	"context"
	"fmt"
	"sync"

	"agenteval/internal/display"
	"agenteval/internal/evaluate"
	"agenteval/internal/logging"
	"agenteval/internal/retailer"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP SDK server and manages one loaded session of
// case studies at a time.
type Server struct {
	MCPServer *sdkmcp.Server
	Catalog   *retailer.Catalog

	mu      sync.Mutex
	session *Session
}

// NewServer creates an MCP server exposing the case-study evaluation
// tools over the given retailer catalog.
func NewServer(catalog *retailer.Catalog) *Server {
	s := &Server{Catalog: catalog}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "agenteval", Version: "dev"},
		nil,
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "load_case_studies",
		Description: "Load all case-study JSON documents from a directory. Returns a session ID, loaded case IDs, and per-source load failures.",
	}, s.handleLoadCaseStudies)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "evaluate_case_study",
		Description: "Evaluate one loaded case study. Returns the structured result and a formatted scorecard.",
	}, s.handleEvaluateCaseStudy)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_summary",
		Description: "Evaluate every loaded case study and return a summary table plus per-case results.",
	}, s.handleGetSummary)
}

// --- Tool input/output types ---

type loadCaseStudiesInput struct {
	Dir   string `json:"dir" jsonschema:"directory containing case-study .json documents"`
	Force bool   `json:"force,omitempty" jsonschema:"replace any existing session"`
}

type loadFailure struct {
	Source string `json:"source"`
	Kind   string `json:"kind"`
	Error  string `json:"error"`
}

type loadCaseStudiesOutput struct {
	SessionID string        `json:"session_id"`
	Loaded    int           `json:"loaded"`
	CaseIDs   []string      `json:"case_ids"`
	Failures  []loadFailure `json:"failures,omitempty"`
}

type evaluateCaseStudyInput struct {
	SessionID string `json:"session_id" jsonschema:"session ID from load_case_studies"`
	CaseID    string `json:"case_id" jsonschema:"case study ID to evaluate"`
}

type evaluateCaseStudyOutput struct {
	CaseID    string          `json:"case_id"`
	Result    evaluate.Result `json:"result"`
	Scorecard string          `json:"scorecard"`
}

type getSummaryInput struct {
	SessionID string `json:"session_id" jsonschema:"session ID from load_case_studies"`
}

type caseSummary struct {
	CaseID string          `json:"case_id"`
	Result evaluate.Result `json:"result"`
}

type getSummaryOutput struct {
	Summary string        `json:"summary"`
	Cases   []caseSummary `json:"cases"`
}

// --- Tool handlers ---

func (s *Server) handleLoadCaseStudies(ctx context.Context, _ *sdkmcp.CallToolRequest, input loadCaseStudiesInput) (*sdkmcp.CallToolResult, loadCaseStudiesOutput, error) {
	logger := logging.New("mcp-session")
	if input.Dir == "" {
		return nil, loadCaseStudiesOutput{}, fmt.Errorf("dir is required")
	}

	s.mu.Lock()
	if s.session != nil && !input.Force {
		id := s.session.ID
		s.mu.Unlock()
		return nil, loadCaseStudiesOutput{}, fmt.Errorf("a session is already loaded (id=%s); pass force=true to replace it", id)
	}
	if s.session != nil {
		logger.Warn("force-replacing session", "old_id", s.session.ID)
	}
	s.session = nil
	s.mu.Unlock()

	sess, err := NewSession(input.Dir, s.Catalog)
	if err != nil {
		return nil, loadCaseStudiesOutput{}, fmt.Errorf("load case studies: %w", err)
	}

	s.mu.Lock()
	s.session = sess
	s.mu.Unlock()

	out := loadCaseStudiesOutput{
		SessionID: sess.ID,
		CaseIDs:   sess.IDs(),
	}
	out.Loaded = len(out.CaseIDs)
	for _, f := range sess.Failures {
		out.Failures = append(out.Failures, loadFailure{
			Source: f.Source,
			Kind:   string(f.Kind),
			Error:  f.Err.Error(),
		})
	}
	logger.Info("session loaded", "session_id", sess.ID, "dir", input.Dir,
		"loaded", out.Loaded, "failures", len(out.Failures))
	return nil, out, nil
}

func (s *Server) handleEvaluateCaseStudy(ctx context.Context, _ *sdkmcp.CallToolRequest, input evaluateCaseStudyInput) (*sdkmcp.CallToolResult, evaluateCaseStudyOutput, error) {
	sess, err := s.getSession(input.SessionID)
	if err != nil {
		return nil, evaluateCaseStudyOutput{}, err
	}

	res, cs, err := sess.Evaluate(input.CaseID)
	if err != nil {
		return nil, evaluateCaseStudyOutput{}, err
	}

	return nil, evaluateCaseStudyOutput{
		CaseID:    input.CaseID,
		Result:    res,
		Scorecard: display.Scorecard(cs, res),
	}, nil
}

func (s *Server) handleGetSummary(ctx context.Context, _ *sdkmcp.CallToolRequest, input getSummaryInput) (*sdkmcp.CallToolResult, getSummaryOutput, error) {
	sess, err := s.getSession(input.SessionID)
	if err != nil {
		return nil, getSummaryOutput{}, err
	}

	var (
		cases []caseSummary
		rows  []display.Row
	)
	for _, id := range sess.IDs() {
		res, cs, evalErr := sess.Evaluate(id)
		if evalErr != nil {
			return nil, getSummaryOutput{}, evalErr
		}
		cases = append(cases, caseSummary{CaseID: id, Result: res})
		rows = append(rows, display.Row{Source: id, Study: cs, Result: res})
	}

	return nil, getSummaryOutput{
		Summary: display.Summary(rows),
		Cases:   cases,
	}, nil
}

// SessionID returns the current session's ID, or empty string if none.
func (s *Server) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		return s.session.ID
	}
	return ""
}

func (s *Server) getSession(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, fmt.Errorf("no session loaded (call load_case_studies first)")
	}
	if s.session.ID != id {
		return nil, fmt.Errorf("session_id mismatch: have %s, got %s", s.session.ID, id)
	}
	return s.session, nil
}
