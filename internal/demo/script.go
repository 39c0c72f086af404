// Package demo plays a canned walkthrough of the evaluation suites for
// presentations. Every line it prints is simulated flavor: no retailer
// is queried, no payment flow runs, and nothing here feeds back into a
// real evaluation.
package demo

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	suiteStyle   = lipgloss.NewStyle().Bold(true)
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	outcomeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	noteStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
)

// Step is one simulated action and its canned outcome.
type Step struct {
	Action  string
	Outcome string
}

// Suite is one simulated evaluation suite.
type Suite struct {
	Name        string
	Description string
	Steps       []Step
}

// Suites returns the showcase suites.
func Suites() []Suite {
	return []Suite{
		{
			Name:        "Price Comparison Accuracy",
			Description: "Compares prices across retailers and scores the agent's pick against the actual best",
			Steps: []Step{
				{"Querying Amazon listing...", "Found: $149.99"},
				{"Querying Walmart listing...", "Found: $147.00"},
				{"Querying Best Buy listing...", "Found: $152.99"},
				{"Comparing agent's pick vs actual best...", "Analyzing accuracy"},
			},
		},
		{
			Name:        "Negotiation Quality",
			Description: "Tests the agent's ability to negotiate discounts and evaluates final terms",
			Steps: []Step{
				{"Initiating price negotiation...", "Requesting 15% discount"},
				{"Evaluating counter-offers...", "Seller offered 8%"},
				{"Testing bundling strategies...", "Bundle savings: $23"},
				{"Scoring final negotiation outcome...", "Analyzing quality"},
			},
		},
		{
			Name:        "Payment Flow Correctness",
			Description: "Validates the HTTP payment handshake, authorization, and testnet settlement",
			Steps: []Step{
				{"Sending HTTP request...", "Received 402 Payment Required"},
				{"Parsing payment headers...", "X-Payment-Amount: 0.0015 ETH"},
				{"Validating payment authorization...", "Checking wallet limits"},
				{"Simulating testnet tx...", "TX: 0x7f3a...c821"},
				{"Confirming settlement...", "Block confirmed: #18294721"},
			},
		},
		{
			Name:        "Safety Against Unauthorized Spends",
			Description: "Checks whether the agent respects spending limits and flags unauthorized transactions",
			Steps: []Step{
				{"Testing budget override attempts...", "Limit: $100"},
				{"Simulating unauthorized spend...", "Agent tried $250 (BLOCKED)"},
				{"Simulating malicious prompt injection...", "Checking resistance"},
				{"Verifying transaction approval flow...", "Auth required: yes"},
				{"Checking for data leakage risks...", "Scanning outputs"},
			},
		},
	}
}

// Phase is one stage of the simulated commerce protocol walkthrough.
type Phase struct {
	Name   string
	Detail string
}

// Phases returns the walkthrough stages in order.
func Phases() []Phase {
	return []Phase{
		{"Discovery", "Simulated product search across 5 marketplaces — agent discovered 12 valid offers"},
		{"Negotiation", "Tested automated price negotiation — agent secured 8% average discount"},
		{"Execution", "Validated payment flow — transaction signed and submitted correctly"},
		{"Evaluation", "Cross-verified results against ground truth — accuracy within acceptable range"},
	}
}

// Standing is one mock leaderboard row.
type Standing struct {
	Rank  int
	Agent string
	Score int
	Tests int
}

// Leaderboard returns the mock standings shown at the end of the demo.
func Leaderboard() []Standing {
	return []Standing{
		{1, "ShopBot-Pro v2.1", 94, 847},
		{2, "PriceHunter AI", 91, 523},
		{3, "CommerceGPT", 89, 412},
		{4, "BargainAgent", 86, 298},
		{5, "x402-Agent Beta", 84, 156},
	}
}

// Run plays the walkthrough to w, pausing tick between steps. A zero
// tick plays instantly, which is what tests use.
func Run(w io.Writer, tick time.Duration) {
	fmt.Fprintln(w, suiteStyle.Render("agenteval showcase"))
	fmt.Fprintln(w, noteStyle.Render("All output below is simulated. No retailer, payment, or network activity occurs."))
	fmt.Fprintln(w)

	for _, suite := range Suites() {
		fmt.Fprintln(w, suiteStyle.Render("== "+suite.Name+" =="))
		fmt.Fprintln(w, noteStyle.Render(suite.Description))
		for _, step := range suite.Steps {
			fmt.Fprintf(w, "  %s %s\n", stepStyle.Render("▸"), step.Action)
			pause(tick)
			fmt.Fprintf(w, "    %s %s\n", outcomeStyle.Render("✓"), step.Outcome)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, suiteStyle.Render("== Protocol walkthrough =="))
	for _, phase := range Phases() {
		fmt.Fprintf(w, "  %-12s %s\n", phase.Name, phase.Detail)
		pause(tick)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, suiteStyle.Render("== Mock leaderboard =="))
	fmt.Fprintf(w, "  %-4s %-20s %-6s %s\n", "#", "AGENT", "SCORE", "TESTS")
	for _, row := range Leaderboard() {
		fmt.Fprintf(w, "  %-4d %-20s %-6d %d\n", row.Rank, row.Agent, row.Score, row.Tests)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, noteStyle.Render(strings.Repeat("—", 8)+" end of simulated showcase "+strings.Repeat("—", 8)))
}

func pause(tick time.Duration) {
	if tick > 0 {
		time.Sleep(tick)
	}
}
