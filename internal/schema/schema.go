// Package schema turns untyped case-study documents into a typed,
// validated entity graph.
//
// Construction is all-or-nothing: the first invalid field anywhere in
// the document aborts with a SchemaError naming the field and the kind
// it expected. A CaseStudy that came out of NewCaseStudy is never
// mutated afterwards; evaluation treats it as a pure input.
package schema

import (
	"fmt"
	"strings"
	"time"
)

// SchemaError reports a structurally invalid document field.
type SchemaError struct {
	Field string // offending field name
	Want  string // expected kind, e.g. "non-empty string"
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("expected %s for %q", e.Want, e.Field)
}

// AgentSpec identifies the agent whose output is under evaluation.
type AgentSpec struct {
	Name    string
	Version *string
	RunMode *string
}

// TaskRules are the qualification rules for a shopping task. All three
// must be literal booleans in the document; there is no defaulting.
type TaskRules struct {
	AllowThirdParty  bool
	AllowRefurbished bool
	RequireFullSet   bool
}

// ListingRef is a canonical listing the task pointed the agent at.
type ListingRef struct {
	Retailer      string
	URL           string
	ListingID     *string
	ListingIDType *string
}

// TaskSpec describes the shopping task given to the agent.
type TaskSpec struct {
	ProductName       string
	ProductVariant    *string
	BudgetUSD         *float64
	Currency          string
	AllowedRetailers  []string
	Rules             TaskRules
	CanonicalListings []ListingRef
}

// AgentOutput is the agent's free-text report, captured verbatim.
type AgentOutput struct {
	RawText    string
	CapturedAt time.Time
	Source     *string
}

// EvidenceItem is one ground-truth marketplace listing captured
// independently of the agent.
type EvidenceItem struct {
	Retailer      string
	URL           string
	PriceUSD      *float64
	Availability  *string
	Seller        *string
	Timestamp     time.Time
	VariantMatch  *bool
	ListingID     *string
	ListingIDType *string
	Notes         *string
}

// CaseStudy is the root of the validated graph: one recorded shopping
// task, the agent's report, and the ground-truth evidence.
type CaseStudy struct {
	Version   string
	ID        string
	Title     string
	CreatedAt time.Time
	Agent     AgentSpec
	Task      TaskSpec
	Output    AgentOutput
	Evidence  []EvidenceItem
	Notes     *string
}

// NewCaseStudy validates a raw document and builds the typed graph.
func NewCaseStudy(doc map[string]any) (*CaseStudy, error) {
	version, err := requireString(doc, "version")
	if err != nil {
		return nil, err
	}
	id, err := requireString(doc, "id")
	if err != nil {
		return nil, err
	}
	title, err := requireString(doc, "title")
	if err != nil {
		return nil, err
	}
	createdAt, err := requireTimestamp(doc, "created_at")
	if err != nil {
		return nil, err
	}
	agentDoc, err := requireObject(doc, "agent")
	if err != nil {
		return nil, err
	}
	agent, err := NewAgentSpec(agentDoc)
	if err != nil {
		return nil, err
	}
	taskDoc, err := requireObject(doc, "task")
	if err != nil {
		return nil, err
	}
	task, err := NewTaskSpec(taskDoc)
	if err != nil {
		return nil, err
	}
	outputDoc, err := requireObject(doc, "agent_output")
	if err != nil {
		return nil, err
	}
	output, err := NewAgentOutput(outputDoc)
	if err != nil {
		return nil, err
	}
	rawEvidence, err := requireList(doc, "evidence")
	if err != nil {
		return nil, err
	}
	evidence := make([]EvidenceItem, 0, len(rawEvidence))
	for _, raw := range rawEvidence {
		itemDoc, ok := raw.(map[string]any)
		if !ok {
			return nil, &SchemaError{Field: "evidence", Want: "list of objects"}
		}
		item, err := NewEvidenceItem(itemDoc)
		if err != nil {
			return nil, err
		}
		evidence = append(evidence, *item)
	}
	notes, err := optString(doc, "notes")
	if err != nil {
		return nil, err
	}
	return &CaseStudy{
		Version:   version,
		ID:        id,
		Title:     title,
		CreatedAt: createdAt,
		Agent:     *agent,
		Task:      *task,
		Output:    *output,
		Evidence:  evidence,
		Notes:     notes,
	}, nil
}

// NewAgentSpec validates the agent block.
func NewAgentSpec(doc map[string]any) (*AgentSpec, error) {
	name, err := requireString(doc, "name")
	if err != nil {
		return nil, err
	}
	version, err := optString(doc, "version")
	if err != nil {
		return nil, err
	}
	runMode, err := optString(doc, "run_mode")
	if err != nil {
		return nil, err
	}
	return &AgentSpec{Name: name, Version: version, RunMode: runMode}, nil
}

// NewTaskRules validates the rules block. All three booleans are
// required; truthy stand-ins like 1 or "yes" are schema errors.
func NewTaskRules(doc map[string]any) (*TaskRules, error) {
	thirdParty, err := requireBool(doc, "allow_third_party")
	if err != nil {
		return nil, err
	}
	refurb, err := requireBool(doc, "allow_refurbished")
	if err != nil {
		return nil, err
	}
	fullSet, err := requireBool(doc, "require_full_set")
	if err != nil {
		return nil, err
	}
	return &TaskRules{
		AllowThirdParty:  thirdParty,
		AllowRefurbished: refurb,
		RequireFullSet:   fullSet,
	}, nil
}

// NewListingRef validates one canonical listing reference.
func NewListingRef(doc map[string]any) (*ListingRef, error) {
	ret, err := requireString(doc, "retailer")
	if err != nil {
		return nil, err
	}
	url, err := requireString(doc, "url")
	if err != nil {
		return nil, err
	}
	listingID, err := optString(doc, "listing_id")
	if err != nil {
		return nil, err
	}
	listingIDType, err := optString(doc, "listing_id_type")
	if err != nil {
		return nil, err
	}
	return &ListingRef{Retailer: ret, URL: url, ListingID: listingID, ListingIDType: listingIDType}, nil
}

// NewTaskSpec validates the task block.
func NewTaskSpec(doc map[string]any) (*TaskSpec, error) {
	productName, err := requireString(doc, "product_name")
	if err != nil {
		return nil, err
	}
	productVariant, err := optString(doc, "product_variant")
	if err != nil {
		return nil, err
	}
	budget, err := optNumber(doc, "budget_usd")
	if err != nil {
		return nil, err
	}
	if budget != nil && *budget < 0 {
		return nil, &SchemaError{Field: "budget_usd", Want: "non-negative number"}
	}
	currency, err := requireString(doc, "currency")
	if err != nil {
		return nil, err
	}
	retailers, err := requireStringList(doc, "allowed_retailers")
	if err != nil {
		return nil, err
	}
	rulesDoc, err := requireObject(doc, "rules")
	if err != nil {
		return nil, err
	}
	rules, err := NewTaskRules(rulesDoc)
	if err != nil {
		return nil, err
	}
	rawListings, err := optList(doc, "canonical_listings")
	if err != nil {
		return nil, err
	}
	listings := make([]ListingRef, 0, len(rawListings))
	for _, raw := range rawListings {
		refDoc, ok := raw.(map[string]any)
		if !ok {
			return nil, &SchemaError{Field: "canonical_listings", Want: "list of objects"}
		}
		ref, err := NewListingRef(refDoc)
		if err != nil {
			return nil, err
		}
		listings = append(listings, *ref)
	}
	return &TaskSpec{
		ProductName:       productName,
		ProductVariant:    productVariant,
		BudgetUSD:         budget,
		Currency:          currency,
		AllowedRetailers:  retailers,
		Rules:             *rules,
		CanonicalListings: listings,
	}, nil
}

// NewAgentOutput validates the agent_output block.
func NewAgentOutput(doc map[string]any) (*AgentOutput, error) {
	rawText, err := requireString(doc, "raw_text")
	if err != nil {
		return nil, err
	}
	capturedAt, err := requireTimestamp(doc, "captured_at")
	if err != nil {
		return nil, err
	}
	source, err := optString(doc, "source")
	if err != nil {
		return nil, err
	}
	return &AgentOutput{RawText: rawText, CapturedAt: capturedAt, Source: source}, nil
}

// NewEvidenceItem validates one evidence entry.
func NewEvidenceItem(doc map[string]any) (*EvidenceItem, error) {
	ret, err := requireString(doc, "retailer")
	if err != nil {
		return nil, err
	}
	url, err := requireString(doc, "url")
	if err != nil {
		return nil, err
	}
	price, err := optNumber(doc, "price_usd")
	if err != nil {
		return nil, err
	}
	if price != nil && *price < 0 {
		return nil, &SchemaError{Field: "price_usd", Want: "non-negative number"}
	}
	availability, err := optString(doc, "availability")
	if err != nil {
		return nil, err
	}
	seller, err := optString(doc, "seller")
	if err != nil {
		return nil, err
	}
	ts, err := requireTimestamp(doc, "timestamp")
	if err != nil {
		return nil, err
	}
	variantMatch, err := optBool(doc, "variant_match")
	if err != nil {
		return nil, err
	}
	listingID, err := optString(doc, "listing_id")
	if err != nil {
		return nil, err
	}
	listingIDType, err := optString(doc, "listing_id_type")
	if err != nil {
		return nil, err
	}
	notes, err := optString(doc, "notes")
	if err != nil {
		return nil, err
	}
	return &EvidenceItem{
		Retailer:      ret,
		URL:           url,
		PriceUSD:      price,
		Availability:  availability,
		Seller:        seller,
		Timestamp:     ts,
		VariantMatch:  variantMatch,
		ListingID:     listingID,
		ListingIDType: listingIDType,
		Notes:         notes,
	}, nil
}

// timestampLayouts are the accepted ISO-8601 shapes, with and without an
// offset and fractional seconds.
var timestampLayouts = []string{
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02T15:04:05-07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp. A trailing "Z" is
// normalized to the explicit +00:00 offset before parsing.
func ParseTimestamp(value string) (time.Time, error) {
	normalized := value
	if strings.HasSuffix(normalized, "Z") {
		normalized = strings.TrimSuffix(normalized, "Z") + "+00:00"
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, normalized); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid ISO-8601 timestamp %q", value)
}

// --- field decoders ---

func requireString(doc map[string]any, key string) (string, error) {
	value, ok := doc[key].(string)
	if !ok || strings.TrimSpace(value) == "" {
		return "", &SchemaError{Field: key, Want: "non-empty string"}
	}
	return strings.TrimSpace(value), nil
}

func optString(doc map[string]any, key string) (*string, error) {
	raw, present := doc[key]
	if !present || raw == nil {
		return nil, nil
	}
	value, ok := raw.(string)
	if !ok {
		return nil, &SchemaError{Field: key, Want: "string"}
	}
	trimmed := strings.TrimSpace(value)
	return &trimmed, nil
}

func requireBool(doc map[string]any, key string) (bool, error) {
	value, ok := doc[key].(bool)
	if !ok {
		return false, &SchemaError{Field: key, Want: "boolean"}
	}
	return value, nil
}

func optBool(doc map[string]any, key string) (*bool, error) {
	raw, present := doc[key]
	if !present || raw == nil {
		return nil, nil
	}
	value, ok := raw.(bool)
	if !ok {
		return nil, &SchemaError{Field: key, Want: "boolean"}
	}
	return &value, nil
}

// optNumber accepts integer or floating-point values. Numeric strings are
// rejected: "149.99" is a schema error, not a price.
func optNumber(doc map[string]any, key string) (*float64, error) {
	raw, present := doc[key]
	if !present || raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case float64:
		return &v, nil
	case float32:
		f := float64(v)
		return &f, nil
	case int:
		f := float64(v)
		return &f, nil
	case int64:
		f := float64(v)
		return &f, nil
	default:
		return nil, &SchemaError{Field: key, Want: "number"}
	}
}

func requireObject(doc map[string]any, key string) (map[string]any, error) {
	value, ok := doc[key].(map[string]any)
	if !ok {
		return nil, &SchemaError{Field: key, Want: "object"}
	}
	return value, nil
}

func requireList(doc map[string]any, key string) ([]any, error) {
	value, ok := doc[key].([]any)
	if !ok {
		return nil, &SchemaError{Field: key, Want: "list"}
	}
	return value, nil
}

func optList(doc map[string]any, key string) ([]any, error) {
	raw, present := doc[key]
	if !present || raw == nil {
		return nil, nil
	}
	value, ok := raw.([]any)
	if !ok {
		return nil, &SchemaError{Field: key, Want: "list"}
	}
	return value, nil
}

func requireStringList(doc map[string]any, key string) ([]string, error) {
	raw, ok := doc[key].([]any)
	if !ok || len(raw) == 0 {
		return nil, &SchemaError{Field: key, Want: "non-empty list"}
	}
	items := make([]string, 0, len(raw))
	for _, entry := range raw {
		s, ok := entry.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return nil, &SchemaError{Field: key, Want: "non-empty string items"}
		}
		items = append(items, strings.TrimSpace(s))
	}
	return items, nil
}

func requireTimestamp(doc map[string]any, key string) (time.Time, error) {
	value, err := requireString(doc, key)
	if err != nil {
		return time.Time{}, &SchemaError{Field: key, Want: "ISO-8601 timestamp"}
	}
	t, err := ParseTimestamp(value)
	if err != nil {
		return time.Time{}, &SchemaError{Field: key, Want: "ISO-8601 timestamp"}
	}
	return t, nil
}
