// Package parse recovers structured offers and a final decision from an
// agent's free-text report.
//
// The input is adversarial: third-party text in no particular format.
// Extraction is therefore best-effort and never fails — anything the
// parser cannot recognize is left unset, for the evaluator to treat as
// unknown. Each extraction runs two tiers: a single-line pattern first,
// then a block scan over the report's lines.
package parse

import (
	"regexp"
	"strconv"
	"strings"

	"agenteval/internal/retailer"
)

var (
	// A currency symbol followed by digits, optionally with exactly two
	// decimal places: "$149.99", "$ 200".
	rePrice = regexp.MustCompile(`\$\s*([0-9]+(?:\.[0-9]{2})?)`)
	// An absolute http/https URL, cut at whitespace or a closing paren so
	// "(https://x.example/y)" stays clean.
	reURL = regexp.MustCompile(`https?://[^\s)]+`)
	// Tier-1 chosen-offer label with the remainder on the same line. The
	// trailing whitespace class deliberately excludes newlines so block
	// format falls through to the tier-2 scan instead of being half-read.
	reChosen = regexp.MustCompile(`(?i)chosen retailer[ \t]*\+[ \t]*price[ \t]*\+[ \t]*url[ \t]*:[ \t]*(.+)`)
	// Tier-1 within-budget verdict: "Within budget ($200 hard cap)? Yes".
	reWithinBudget = regexp.MustCompile(`(?i)within budget[ \t]*\(?\$?[0-9.]+[ \t]*hard cap\)?\?[ \t]*(yes|no)`)
)

const chosenLabel = "chosen retailer + price + url"

// Offer is one retailer's offer as recovered from the report. Transient:
// produced per Parse call, never persisted.
type Offer struct {
	Retailer      string
	PriceUSD      *float64
	URL           *string
	Availability  *string
	Seller        *string
	VariantMatch  *bool
	ListingID     *string
	ListingIDType *string
}

// Output is everything the parser recovered from one report.
type Output struct {
	RawText      string
	Offers       []Offer
	Chosen       *Offer
	WithinBudget *bool
}

// Parser extracts offers using a retailer catalog for name recognition.
type Parser struct {
	catalog *retailer.Catalog
}

// New returns a parser backed by the given catalog.
func New(catalog *retailer.Catalog) *Parser {
	return &Parser{catalog: catalog}
}

// Parse scans the report text. It never fails; unrecognized content
// yields unset fields.
func (p *Parser) Parse(rawText string) Output {
	lines := splitLines(rawText)

	// One capture record per retailer, in order of first mention. A line
	// that names a known retailer switches context; every line is charged
	// to the current retailer, including the switching line itself.
	captures := map[string]*fieldCapture{}
	var order []string
	current := ""

	for _, line := range lines {
		if name := p.catalog.Match(line); name != "" {
			current = name
		}
		if current == "" {
			continue
		}
		fields, seen := captures[current]
		if !seen {
			fields = &fieldCapture{}
			captures[current] = fields
			order = append(order, current)
		}
		fields.captureLine(line)
	}

	offers := make([]Offer, 0, len(order))
	for _, name := range order {
		offers = append(offers, captures[name].toOffer(name))
	}

	return Output{
		RawText:      rawText,
		Offers:       offers,
		Chosen:       p.parseChosen(rawText, lines),
		WithinBudget: parseWithinBudget(rawText, lines),
	}
}

// fieldCapture accumulates per-retailer fields with first-match-wins
// semantics: reports describe a retailer in one contiguous block, and
// the first mention of each attribute is authoritative.
type fieldCapture struct {
	price        string
	url          string
	availability string
	seller       string
	variantMatch string // "true", "false", or ""
}

func (f *fieldCapture) captureLine(line string) {
	lower := strings.ToLower(line)

	if f.price == "" {
		if m := rePrice.FindStringSubmatch(line); m != nil {
			f.price = m[1]
		}
	}
	if f.url == "" {
		if m := reURL.FindString(line); m != "" {
			f.url = m
		}
	}
	if f.availability == "" && strings.Contains(lower, "availability") {
		f.availability = afterColon(line)
	}
	if f.seller == "" && strings.Contains(lower, "seller") {
		f.seller = afterColon(line)
	}
	if f.variantMatch == "" && strings.Contains(lower, "variant match") {
		switch strings.ToLower(afterColon(line)) {
		case "yes", "true":
			f.variantMatch = "true"
		case "no", "false":
			f.variantMatch = "false"
		}
	}
}

func (f *fieldCapture) toOffer(retailerName string) Offer {
	o := Offer{Retailer: retailerName}
	if f.price != "" {
		if v, err := strconv.ParseFloat(f.price, 64); err == nil {
			o.PriceUSD = &v
		}
	}
	if f.url != "" {
		o.URL = strPtr(f.url)
	}
	if f.availability != "" {
		o.Availability = strPtr(f.availability)
	}
	if f.seller != "" {
		o.Seller = strPtr(f.seller)
	}
	switch f.variantMatch {
	case "true":
		o.VariantMatch = boolPtr(true)
	case "false":
		o.VariantMatch = boolPtr(false)
	}
	return o
}

// parseChosen extracts the agent's claimed selection. Tier 1 matches the
// single-line label anywhere in the text; tier 2 scans for a bare label
// line and reads the next one or two lines. "no valid choice" means the
// agent declined to pick, which yields nil just like a failed match.
func (p *Parser) parseChosen(rawText string, lines []string) *Offer {
	if m := reChosen.FindStringSubmatch(rawText); m != nil {
		return p.offerFromFragment(m[1])
	}
	return p.parseChosenByLines(lines)
}

func (p *Parser) parseChosenByLines(lines []string) *Offer {
	for i, line := range lines {
		normalized := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(line)), ":")
		if normalized != chosenLabel {
			continue
		}
		next, nextNext := "", ""
		if i+1 < len(lines) {
			next = lines[i+1]
		}
		if i+2 < len(lines) {
			nextNext = lines[i+2]
		}
		if strings.Contains(strings.ToLower(next), "no valid choice") {
			return nil
		}
		// The retailer keyword is expected on the first line of the block;
		// the url may spill onto the second.
		o := &Offer{Retailer: p.catalog.Match(next)}
		if m := rePrice.FindStringSubmatch(next); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				o.PriceUSD = &v
			}
		} else if m := rePrice.FindStringSubmatch(nextNext); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				o.PriceUSD = &v
			}
		}
		if m := reURL.FindString(next); m != "" {
			o.URL = strPtr(m)
		} else if m := reURL.FindString(nextNext); m != "" {
			o.URL = strPtr(m)
		}
		return o
	}
	return nil
}

// offerFromFragment pulls retailer keyword, price, and url out of a
// short chosen-offer fragment. Fields that do not appear stay unset.
func (p *Parser) offerFromFragment(text string) *Offer {
	o := &Offer{Retailer: p.catalog.Match(text)}
	if m := rePrice.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			o.PriceUSD = &v
		}
	}
	if m := reURL.FindString(text); m != "" {
		o.URL = strPtr(m)
	}
	return o
}

// parseWithinBudget mirrors the chosen-offer two-tier strategy for the
// agent's own budget verdict.
func parseWithinBudget(rawText string, lines []string) *bool {
	if m := reWithinBudget.FindStringSubmatch(rawText); m != nil {
		return boolPtr(strings.EqualFold(m[1], "yes"))
	}
	for i, line := range lines {
		if !strings.HasPrefix(strings.ToLower(line), "within budget") {
			continue
		}
		if i+1 >= len(lines) {
			continue
		}
		// A label line followed by anything other than yes/no is not a
		// verdict; keep scanning.
		next := strings.ToLower(lines[i+1])
		if strings.HasPrefix(next, "yes") {
			return boolPtr(true)
		}
		if strings.HasPrefix(next, "no") {
			return boolPtr(false)
		}
	}
	return nil
}

func splitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

func afterColon(line string) string {
	if _, rest, found := strings.Cut(line, ":"); found {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(line)
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
