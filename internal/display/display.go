// Package display renders evaluation results for humans.
//
// Rule: code is for machines, words are for humans. Result fields are
// tri-state, and the rendering never hides that: an unknown field prints
// as "—", never as a fabricated false or $0.00.
//
// Display is one-way: it consumes results and case-study metadata and
// writes nothing back.
package display

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"agenteval/internal/evaluate"
	"agenteval/internal/schema"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	passStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	unknownStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	sectionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
)

// Mark renders a tri-state boolean: pass, fail, or unknown.
func Mark(v *bool) string {
	switch {
	case v == nil:
		return "—"
	case *v:
		return "✓"
	default:
		return "✗"
	}
}

// YesNo renders a tri-state boolean in words.
func YesNo(v *bool) string {
	switch {
	case v == nil:
		return "unknown"
	case *v:
		return "yes"
	default:
		return "no"
	}
}

// Money renders an optional USD amount.
func Money(v *float64) string {
	if v == nil {
		return "—"
	}
	return fmt.Sprintf("$%.2f", *v)
}

// Name renders an optional string field.
func Name(v *string) string {
	if v == nil || *v == "" {
		return "—"
	}
	return *v
}

func styledMark(v *bool) string {
	switch {
	case v == nil:
		return unknownStyle.Render("—")
	case *v:
		return passStyle.Render("✓")
	default:
		return failStyle.Render("✗")
	}
}

// Scorecard renders one case study's evaluation in full.
func Scorecard(study *schema.CaseStudy, res evaluate.Result) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("=== %s (%s) ===", study.Title, study.ID)))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Agent:    %s%s\n", study.Agent.Name, agentSuffix(study.Agent)))
	b.WriteString(fmt.Sprintf("Product:  %s%s\n", study.Task.ProductName, variantSuffix(study.Task)))
	if study.Task.BudgetUSD != nil {
		b.WriteString(fmt.Sprintf("Budget:   $%.2f %s\n", *study.Task.BudgetUSD, study.Task.Currency))
	}
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("--- Ground truth ---"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%-26s %s", "Best qualifying price", Money(res.BestPriceUSD)))
	if res.BestRetailer != nil {
		b.WriteString(" at " + *res.BestRetailer)
	}
	b.WriteString("\n\n")

	b.WriteString(sectionStyle.Render("--- Agent decision ---"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%-26s %s", "Chosen price", Money(res.ChosenPriceUSD)))
	if res.ChosenRetailer != nil {
		b.WriteString(" at " + *res.ChosenRetailer)
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%-26s %s %s\n", "Choice qualified", styledMark(res.ChoiceQualified), YesNo(res.ChoiceQualified)))
	b.WriteString(fmt.Sprintf("%-26s %s %s\n", "Found best price", styledMark(res.FoundBestPrice), YesNo(res.FoundBestPrice)))
	b.WriteString(fmt.Sprintf("%-26s %s %s\n", "Within budget", styledMark(res.WithinBudget), YesNo(res.WithinBudget)))
	b.WriteString(fmt.Sprintf("%-26s %s\n", "Money left on table", Money(res.MoneyLeftUSD)))

	return b.String()
}

// Row pairs a loaded case study with its evaluation for the summary table.
type Row struct {
	Source string
	Study  *schema.CaseStudy
	Result evaluate.Result
}

// Summary renders a one-line-per-case table across a batch.
func Summary(rows []Row) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("=== Evaluation Summary ==="))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%-12s %-34s %10s %10s  %-5s %-5s %-7s %10s\n",
		"ID", "TITLE", "BEST", "CHOSEN", "QUAL", "BEST?", "BUDGET", "LEFT"))
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("%-12s %-34s %10s %10s  %-5s %-5s %-7s %10s\n",
			r.Study.ID,
			truncate(r.Study.Title, 34),
			Money(r.Result.BestPriceUSD),
			Money(r.Result.ChosenPriceUSD),
			Mark(r.Result.ChoiceQualified),
			Mark(r.Result.FoundBestPrice),
			Mark(r.Result.WithinBudget),
			Money(r.Result.MoneyLeftUSD)))
	}
	return b.String()
}

// Failures renders per-source load failures below a summary.
func Failures(failures []string) string {
	if len(failures) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(failStyle.Render("--- Load failures ---"))
	b.WriteString("\n")
	for _, f := range failures {
		b.WriteString("  " + f + "\n")
	}
	return b.String()
}

func agentSuffix(a schema.AgentSpec) string {
	var parts []string
	if a.Version != nil && *a.Version != "" {
		parts = append(parts, "v"+*a.Version)
	}
	if a.RunMode != nil && *a.RunMode != "" {
		parts = append(parts, *a.RunMode)
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

func variantSuffix(t schema.TaskSpec) string {
	if t.ProductVariant == nil || *t.ProductVariant == "" {
		return ""
	}
	return " — " + *t.ProductVariant
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
