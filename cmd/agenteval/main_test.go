package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("agenteval %s: %v\n%s", strings.Join(args, " "), err, buf.String())
	}
	return buf.String()
}

func fixtureDir() string {
	return filepath.Join("..", "..", "examples", "case_studies")
}

func TestCLI_List(t *testing.T) {
	out := runCLI(t, "list", fixtureDir())
	for _, id := range []string{"cs-0041", "cs-0042", "cs-0043"} {
		if !strings.Contains(out, id) {
			t.Errorf("list output missing %s:\n%s", id, out)
		}
	}
}

func TestCLI_EvaluateJSON(t *testing.T) {
	out := runCLI(t, "evaluate", fixtureDir(), "--format", "json", "--parallel", "2")

	var report struct {
		Cases []struct {
			CaseID string `json:"case_id"`
			Result struct {
				BestPriceUSD    *float64 `json:"best_qualifying_price_usd"`
				ChoiceQualified *bool    `json:"agent_choice_qualified"`
				WithinBudget    *bool    `json:"within_budget"`
			} `json:"result"`
		} `json:"cases"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("parse JSON report: %v\n%s", err, out)
	}
	if len(report.Cases) != 3 {
		t.Fatalf("expected 3 cases, got %d", len(report.Cases))
	}

	byID := make(map[string]int)
	for i, c := range report.Cases {
		byID[c.CaseID] = i
	}

	best := report.Cases[byID["cs-0041"]].Result
	if best.ChoiceQualified == nil || !*best.ChoiceQualified {
		t.Errorf("cs-0041: choice should qualify")
	}
	if best.BestPriceUSD == nil || *best.BestPriceUSD != 289.99 {
		t.Errorf("cs-0041: best price = %v, want 289.99", best.BestPriceUSD)
	}

	trap := report.Cases[byID["cs-0042"]].Result
	if trap.ChoiceQualified == nil || *trap.ChoiceQualified {
		t.Errorf("cs-0042: renewed third-party unit should not qualify")
	}
	if trap.BestPriceUSD == nil || *trap.BestPriceUSD != 149.99 {
		t.Errorf("cs-0042: best price = %v, want 149.99", trap.BestPriceUSD)
	}
	if trap.WithinBudget == nil || !*trap.WithinBudget {
		t.Errorf("cs-0042: $119 should be within the $180 budget")
	}

	drift := report.Cases[byID["cs-0043"]].Result
	if drift.WithinBudget == nil || !*drift.WithinBudget {
		t.Errorf("cs-0043: block-format verdict should parse to within budget")
	}
}

func TestCLI_EvaluateText(t *testing.T) {
	out := runCLI(t, "evaluate", fixtureDir(), "--format", "text")
	for _, want := range []string{
		"Noise-cancelling headphones",
		"Evaluation Summary",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q", want)
		}
	}
}

func TestCLI_EvaluateBadFormat(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"evaluate", fixtureDir(), "--format", "xml"})
	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected error for unknown format")
	}
	rootCmd.SetArgs([]string{"evaluate", fixtureDir(), "--format", "text"})
	evaluateFlags.format = "text"
}

func TestCLI_EvaluateTable(t *testing.T) {
	out := runCLI(t, "evaluate", fixtureDir(), "--format", "table")
	for _, want := range []string{"cs-0041", "$289.99", "───"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}

	md := runCLI(t, "evaluate", fixtureDir(), "--format", "markdown")
	if !strings.Contains(md, "| ID") {
		t.Errorf("markdown output missing header row:\n%s", md)
	}
	evaluateFlags.format = "text"
}

func TestCLI_HistoryRoundtrip(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")

	runCLI(t, "evaluate", fixtureDir(), "--db", db)
	runCLI(t, "evaluate", fixtureDir(), "--db", db)
	evaluateFlags.db = ""

	ids := runCLI(t, "history", "--db", db)
	for _, id := range []string{"cs-0041", "cs-0042", "cs-0043"} {
		if !strings.Contains(ids, id) {
			t.Errorf("history listing missing %s:\n%s", id, ids)
		}
	}

	out := runCLI(t, "history", "cs-0041", "--db", db)
	if got := strings.Count(out, "$289.99"); got < 2 {
		t.Errorf("history for cs-0041: want 2 recorded runs with best $289.99, got %d:\n%s", got, out)
	}

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"history", "cs-none", "--db", db})
	if err := rootCmd.Execute(); err == nil {
		t.Error("expected error for case with no recorded runs")
	}
}
