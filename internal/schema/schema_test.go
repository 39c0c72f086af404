package schema_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"agenteval/internal/schema"
)

// validDoc returns a minimal fully-valid case-study document. Tests
// mutate a copy to break one field at a time.
func validDoc() map[string]any {
	return map[string]any{
		"version":    "1.0",
		"id":         "cs-001",
		"title":      "Headphone hunt",
		"created_at": "2025-06-01T10:00:00Z",
		"agent": map[string]any{
			"name": "shopbot",
		},
		"task": map[string]any{
			"product_name":      "Sony WH-1000XM5",
			"currency":          "USD",
			"allowed_retailers": []any{"Amazon", "Best Buy"},
			"rules": map[string]any{
				"allow_third_party": false,
				"allow_refurbished": false,
				"require_full_set":  true,
			},
		},
		"agent_output": map[string]any{
			"raw_text":    "No offers found.",
			"captured_at": "2025-06-01T10:05:00Z",
		},
		"evidence": []any{
			map[string]any{
				"retailer":  "Amazon",
				"url":       "https://amazon.example/dp/B0001",
				"price_usd": 149.99,
				"timestamp": "2025-06-01T09:55:00Z",
			},
		},
	}
}

func TestNewCaseStudy_Valid(t *testing.T) {
	cs, err := schema.NewCaseStudy(validDoc())
	if err != nil {
		t.Fatalf("NewCaseStudy: %v", err)
	}
	if cs.ID != "cs-001" {
		t.Errorf("ID = %q, want cs-001", cs.ID)
	}
	if cs.Agent.Name != "shopbot" {
		t.Errorf("Agent.Name = %q", cs.Agent.Name)
	}
	if cs.Agent.Version != nil {
		t.Error("optional Agent.Version should be nil")
	}
	if cs.Task.BudgetUSD != nil {
		t.Error("optional BudgetUSD should be nil")
	}
	if len(cs.Task.CanonicalListings) != 0 {
		t.Error("optional canonical_listings should default to empty")
	}
	if len(cs.Evidence) != 1 {
		t.Fatalf("Evidence len = %d, want 1", len(cs.Evidence))
	}
	if cs.Evidence[0].PriceUSD == nil || *cs.Evidence[0].PriceUSD != 149.99 {
		t.Errorf("Evidence[0].PriceUSD = %v, want 149.99", cs.Evidence[0].PriceUSD)
	}
	wantCreated := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	if !cs.CreatedAt.Equal(wantCreated) {
		t.Errorf("CreatedAt = %v, want %v", cs.CreatedAt, wantCreated)
	}
}

func TestNewCaseStudy_MissingRequiredFieldNamesIt(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(doc map[string]any)
		field  string
	}{
		{"version", func(d map[string]any) { delete(d, "version") }, "version"},
		{"id", func(d map[string]any) { delete(d, "id") }, "id"},
		{"title empty", func(d map[string]any) { d["title"] = "   " }, "title"},
		{"created_at", func(d map[string]any) { delete(d, "created_at") }, "created_at"},
		{"agent", func(d map[string]any) { delete(d, "agent") }, "agent"},
		{"agent name", func(d map[string]any) { d["agent"].(map[string]any)["name"] = "" }, "name"},
		{"task", func(d map[string]any) { d["task"] = "not an object" }, "task"},
		{"product_name", func(d map[string]any) { delete(d["task"].(map[string]any), "product_name") }, "product_name"},
		{"currency", func(d map[string]any) { delete(d["task"].(map[string]any), "currency") }, "currency"},
		{"allowed_retailers empty", func(d map[string]any) { d["task"].(map[string]any)["allowed_retailers"] = []any{} }, "allowed_retailers"},
		{"rules", func(d map[string]any) { delete(d["task"].(map[string]any), "rules") }, "rules"},
		{"raw_text", func(d map[string]any) { delete(d["agent_output"].(map[string]any), "raw_text") }, "raw_text"},
		{"captured_at", func(d map[string]any) { delete(d["agent_output"].(map[string]any), "captured_at") }, "captured_at"},
		{"evidence", func(d map[string]any) { delete(d, "evidence") }, "evidence"},
		{"evidence retailer", func(d map[string]any) {
			delete(d["evidence"].([]any)[0].(map[string]any), "retailer")
		}, "retailer"},
		{"evidence timestamp", func(d map[string]any) {
			delete(d["evidence"].([]any)[0].(map[string]any), "timestamp")
		}, "timestamp"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := validDoc()
			tc.mutate(doc)
			_, err := schema.NewCaseStudy(doc)
			if err == nil {
				t.Fatal("expected error")
			}
			var serr *schema.SchemaError
			if !errors.As(err, &serr) {
				t.Fatalf("error type = %T, want *SchemaError", err)
			}
			if serr.Field != tc.field {
				t.Errorf("Field = %q, want %q", serr.Field, tc.field)
			}
		})
	}
}

func TestNewTaskRules_RejectsCoercion(t *testing.T) {
	cases := []struct {
		name  string
		value any
	}{
		{"int one", 1},
		{"string yes", "yes"},
		{"string true", "true"},
		{"float zero", 0.0},
		{"nil", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := schema.NewTaskRules(map[string]any{
				"allow_third_party": tc.value,
				"allow_refurbished": true,
				"require_full_set":  true,
			})
			if err == nil {
				t.Fatal("expected error for non-boolean rule")
			}
			var serr *schema.SchemaError
			if !errors.As(err, &serr) || serr.Field != "allow_third_party" {
				t.Errorf("got %v, want SchemaError on allow_third_party", err)
			}
		})
	}
}

func TestNewEvidenceItem_NumericStringPriceRejected(t *testing.T) {
	_, err := schema.NewEvidenceItem(map[string]any{
		"retailer":  "Amazon",
		"url":       "https://amazon.example/dp/B0001",
		"price_usd": "149.99",
		"timestamp": "2025-06-01T09:55:00Z",
	})
	if err == nil {
		t.Fatal("expected error for numeric string price")
	}
	if !strings.Contains(err.Error(), "price_usd") {
		t.Errorf("error %q should name price_usd", err)
	}
}

func TestNewEvidenceItem_NegativePriceRejected(t *testing.T) {
	_, err := schema.NewEvidenceItem(map[string]any{
		"retailer":  "Amazon",
		"url":       "https://amazon.example/dp/B0001",
		"price_usd": -1.0,
		"timestamp": "2025-06-01T09:55:00Z",
	})
	if err == nil {
		t.Fatal("expected error for negative price")
	}
}

func TestNewTaskSpec_NegativeBudgetRejected(t *testing.T) {
	doc := validDoc()["task"].(map[string]any)
	doc["budget_usd"] = -10.0
	if _, err := schema.NewTaskSpec(doc); err == nil {
		t.Fatal("expected error for negative budget")
	}
}

func TestNewTaskSpec_IntBudgetAccepted(t *testing.T) {
	doc := validDoc()["task"].(map[string]any)
	doc["budget_usd"] = 200 // untyped int, as a hand-built doc would carry
	task, err := schema.NewTaskSpec(doc)
	if err != nil {
		t.Fatalf("NewTaskSpec: %v", err)
	}
	if task.BudgetUSD == nil || *task.BudgetUSD != 200 {
		t.Errorf("BudgetUSD = %v, want 200", task.BudgetUSD)
	}
}

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		in      string
		wantErr bool
	}{
		{"2025-06-01T10:00:00Z", false},
		{"2025-06-01T10:00:00+00:00", false},
		{"2025-06-01T10:00:00.123456Z", false},
		{"2025-06-01T10:00:00-05:00", false},
		{"2025-06-01T10:00:00", false}, // naive, no offset
		{"2025-06-01", false},
		{"yesterday", true},
		{"2025-13-01T10:00:00Z", true},
		{"", true},
	}
	for _, tc := range cases {
		_, err := schema.ParseTimestamp(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseTimestamp(%q) err = %v, wantErr %v", tc.in, err, tc.wantErr)
		}
	}
}

func TestParseTimestamp_ZuluIsUTC(t *testing.T) {
	got, err := schema.ParseTimestamp("2025-06-01T10:00:00Z")
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if _, offset := got.Zone(); offset != 0 {
		t.Errorf("offset = %d, want 0", offset)
	}
}

func TestNewCaseStudy_TrimsStrings(t *testing.T) {
	doc := validDoc()
	doc["title"] = "  Headphone hunt  "
	cs, err := schema.NewCaseStudy(doc)
	if err != nil {
		t.Fatal(err)
	}
	if cs.Title != "Headphone hunt" {
		t.Errorf("Title = %q, want trimmed", cs.Title)
	}
}

func TestNewCaseStudy_CanonicalListings(t *testing.T) {
	doc := validDoc()
	doc["task"].(map[string]any)["canonical_listings"] = []any{
		map[string]any{
			"retailer":        "Amazon",
			"url":             "https://amazon.example/dp/B0001",
			"listing_id":      "B0001",
			"listing_id_type": "asin",
		},
	}
	cs, err := schema.NewCaseStudy(doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(cs.Task.CanonicalListings) != 1 {
		t.Fatalf("listings len = %d", len(cs.Task.CanonicalListings))
	}
	ref := cs.Task.CanonicalListings[0]
	if ref.ListingID == nil || *ref.ListingID != "B0001" {
		t.Errorf("ListingID = %v", ref.ListingID)
	}
	if ref.ListingIDType == nil || *ref.ListingIDType != "asin" {
		t.Errorf("ListingIDType = %v", ref.ListingIDType)
	}
}

func TestNewCaseStudy_EvidenceEntryNotObject(t *testing.T) {
	doc := validDoc()
	doc["evidence"] = []any{"not an object"}
	if _, err := schema.NewCaseStudy(doc); err == nil {
		t.Fatal("expected error")
	}
}
