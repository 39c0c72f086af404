// Package evaluate applies the task's business rules to ground-truth
// evidence and the parsed agent decision, producing one EvaluationResult
// per call.
//
// Evaluation is a pure function of the case study: no shared state, no
// I/O, and no error path. Every derived field is independently nullable;
// a nil pointer means "unknown", which is never collapsed into false or
// zero. Callers may evaluate many case studies concurrently.
package evaluate

import (
	"math"
	"strings"

	"agenteval/internal/parse"
	"agenteval/internal/retailer"
	"agenteval/internal/schema"
)

// priceTolerance is the equality slack for price comparison: anything
// under one cent apart counts as the same price.
const priceTolerance = 0.01

// refurbSignals mark a listing as refurbished/used when found in its
// availability, seller, or notes text (case-insensitive substrings).
var refurbSignals = []string{"refurb", "renewed", "open-box", "used"}

// Result is the outcome of evaluating one case study. Nil means the
// field could not be established, as opposed to a computed false/zero.
type Result struct {
	BestPriceUSD    *float64 `json:"best_qualifying_price_usd"`
	BestRetailer    *string  `json:"best_qualifying_retailer"`
	ChosenPriceUSD  *float64 `json:"agent_chosen_price_usd"`
	ChosenRetailer  *string  `json:"agent_chosen_retailer"`
	ChoiceQualified *bool    `json:"agent_choice_qualified"`
	FoundBestPrice  *bool    `json:"found_best_price"`
	WithinBudget    *bool    `json:"within_budget"`
	MoneyLeftUSD    *float64 `json:"money_left_on_table_usd"`
}

// Evaluator scores case studies against a retailer catalog. The catalog
// drives both retailer recognition in the report text and first-party
// seller determination.
type Evaluator struct {
	catalog *retailer.Catalog
	parser  *parse.Parser
}

// New returns an evaluator backed by the given catalog.
func New(catalog *retailer.Catalog) *Evaluator {
	return &Evaluator{catalog: catalog, parser: parse.New(catalog)}
}

// Evaluate parses the agent's report, cross-references it against the
// evidence list, and derives the comparison metrics.
func (e *Evaluator) Evaluate(cs *schema.CaseStudy) Result {
	parsed := e.parser.Parse(cs.Output.RawText)
	rules := cs.Task.Rules

	best := e.bestQualifying(cs.Evidence, rules)

	chosen := parsed.Chosen
	chosenEvidence := matchToEvidence(chosen, cs.Evidence)

	var chosenPrice *float64
	var chosenRetailer *string
	if chosen != nil {
		chosenPrice = chosen.PriceUSD
		if chosen.Retailer != "" {
			chosenRetailer = &chosen.Retailer
		}
	}
	// Evidence is ground truth: when the chosen offer resolves to an
	// evidence item with a known price, it overrides the text extraction.
	if chosenEvidence != nil && chosenEvidence.PriceUSD != nil {
		chosenPrice = chosenEvidence.PriceUSD
		chosenRetailer = &chosenEvidence.Retailer
	}

	var choiceQualified *bool
	if chosenEvidence != nil {
		q := e.Qualifies(*chosenEvidence, rules)
		choiceQualified = &q
	}

	var foundBest *bool
	if best != nil && chosenPrice != nil {
		if choiceQualified != nil && !*choiceQualified {
			foundBest = boolPtr(false)
		} else {
			equal := PricesEqual(*chosenPrice, *best.PriceUSD)
			if chosenRetailer != nil {
				equal = equal && *chosenRetailer == best.Retailer
			}
			foundBest = &equal
		}
	}

	var withinBudget *bool
	if cs.Task.BudgetUSD != nil && chosenPrice != nil {
		within := *chosenPrice <= *cs.Task.BudgetUSD
		withinBudget = &within
	}

	var moneyLeft *float64
	if best != nil && chosenPrice != nil && (choiceQualified == nil || *choiceQualified) {
		delta := *chosenPrice - *best.PriceUSD
		if delta < 0 {
			delta = 0
		}
		rounded := math.Round(delta*100) / 100
		moneyLeft = &rounded
	}

	result := Result{
		ChosenPriceUSD:  chosenPrice,
		ChosenRetailer:  chosenRetailer,
		ChoiceQualified: choiceQualified,
		FoundBestPrice:  foundBest,
		WithinBudget:    withinBudget,
		MoneyLeftUSD:    moneyLeft,
	}
	if best != nil {
		result.BestPriceUSD = best.PriceUSD
		result.BestRetailer = &best.Retailer
	}
	return result
}

// Qualifies applies the task rules to one evidence item: known price,
// third-party and refurbished restrictions, and the variant-match
// requirement (where only an explicit true passes).
func (e *Evaluator) Qualifies(item schema.EvidenceItem, rules schema.TaskRules) bool {
	if item.PriceUSD == nil {
		return false
	}
	if rules.RequireFullSet && (item.VariantMatch == nil || !*item.VariantMatch) {
		return false
	}
	if !rules.AllowRefurbished && looksRefurbished(item) {
		return false
	}
	if !rules.AllowThirdParty && !e.isFirstParty(item) {
		return false
	}
	return true
}

// bestQualifying returns the qualifying item with the lowest price.
// Evidence order breaks ties: the first item at the minimum wins.
func (e *Evaluator) bestQualifying(evidence []schema.EvidenceItem, rules schema.TaskRules) *schema.EvidenceItem {
	var best *schema.EvidenceItem
	for i := range evidence {
		item := &evidence[i]
		if !e.Qualifies(*item, rules) {
			continue
		}
		if best == nil || *item.PriceUSD < *best.PriceUSD {
			best = item
		}
	}
	return best
}

func (e *Evaluator) isFirstParty(item schema.EvidenceItem) bool {
	if item.Seller == nil {
		return false
	}
	return e.catalog.IsFirstParty(item.Retailer, *item.Seller)
}

func looksRefurbished(item schema.EvidenceItem) bool {
	var parts []string
	for _, p := range []*string{item.Availability, item.Notes, item.Seller} {
		if p != nil {
			parts = append(parts, strings.ToLower(*p))
		}
	}
	haystack := strings.Join(parts, " ")
	for _, signal := range refurbSignals {
		if strings.Contains(haystack, signal) {
			return true
		}
	}
	return false
}

// matchToEvidence resolves the parsed chosen offer to a ground-truth
// item. Exact URL match wins; otherwise the retailer name resolves only
// when exactly one evidence item carries it — ambiguity is not guessed.
func matchToEvidence(offer *parse.Offer, evidence []schema.EvidenceItem) *schema.EvidenceItem {
	if offer == nil {
		return nil
	}
	if offer.URL != nil {
		for i := range evidence {
			if evidence[i].URL == *offer.URL {
				return &evidence[i]
			}
		}
	}
	if offer.Retailer != "" {
		var match *schema.EvidenceItem
		for i := range evidence {
			if evidence[i].Retailer == offer.Retailer {
				if match != nil {
					return nil
				}
				match = &evidence[i]
			}
		}
		return match
	}
	return nil
}

// PricesEqual compares prices with a one-cent tolerance.
func PricesEqual(a, b float64) bool {
	return math.Abs(a-b) < priceTolerance
}

func boolPtr(b bool) *bool { return &b }
