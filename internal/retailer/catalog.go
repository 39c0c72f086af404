// Package retailer holds the retailer catalog: recognition keywords for
// spotting a retailer in free text, and the expected first-party seller
// substring for each one.
//
// The catalog is data, not code. New retailers are added by editing the
// embedded default YAML or pointing the CLI at a custom catalog file.
package retailer

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultFS embed.FS

// Profile describes one retailer the parser and evaluator know about.
type Profile struct {
	// Name is the canonical retailer name, as it appears in evidence.
	Name string `yaml:"name"`
	// Keywords are case-insensitive substrings that identify the retailer
	// in agent output. Matched in declaration order.
	Keywords []string `yaml:"keywords"`
	// FirstPartySeller is the substring expected (case-insensitively) in an
	// item's seller text for the listing to count as first-party. Empty
	// means first-party can never be established for this retailer.
	FirstPartySeller string `yaml:"first_party_seller,omitempty"`
}

// Catalog is an ordered set of retailer profiles. Order matters: when a
// line of text mentions several retailers, the first profile wins.
type Catalog struct {
	profiles []Profile
	byName   map[string]*Profile
}

type catalogFile struct {
	Retailers []Profile `yaml:"retailers"`
}

// New builds a catalog from profiles, rejecting empty names and profiles
// without keywords.
func New(profiles []Profile) (*Catalog, error) {
	if len(profiles) == 0 {
		return nil, fmt.Errorf("catalog has no retailers")
	}
	c := &Catalog{
		profiles: make([]Profile, len(profiles)),
		byName:   make(map[string]*Profile, len(profiles)),
	}
	copy(c.profiles, profiles)
	for i := range c.profiles {
		p := &c.profiles[i]
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			return nil, fmt.Errorf("retailer %d: empty name", i)
		}
		if len(p.Keywords) == 0 {
			return nil, fmt.Errorf("retailer %q: no keywords", p.Name)
		}
		key := strings.ToLower(p.Name)
		if _, dup := c.byName[key]; dup {
			return nil, fmt.Errorf("retailer %q: duplicate name", p.Name)
		}
		c.byName[key] = p
	}
	return c, nil
}

// Default returns the embedded catalog (Amazon, Best Buy, Apple).
func Default() *Catalog {
	data, err := defaultFS.ReadFile("catalog.yaml")
	if err != nil {
		panic(fmt.Sprintf("embedded catalog missing: %v", err))
	}
	c, err := parseCatalog(data)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog invalid: %v", err))
	}
	return c
}

// LoadFile reads a catalog from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := parseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return c, nil
}

func parseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return New(f.Retailers)
}

// Match returns the canonical name of the first retailer whose keyword
// appears (case-insensitively) in text, or "" when none does.
func (c *Catalog) Match(text string) string {
	lower := strings.ToLower(text)
	for i := range c.profiles {
		for _, kw := range c.profiles[i].Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				return c.profiles[i].Name
			}
		}
	}
	return ""
}

// FirstPartySeller returns the expected seller substring for a retailer
// name (case-insensitive lookup). ok is false for unknown retailers and
// for retailers with no configured substring.
func (c *Catalog) FirstPartySeller(name string) (string, bool) {
	p, found := c.byName[strings.ToLower(strings.TrimSpace(name))]
	if !found || p.FirstPartySeller == "" {
		return "", false
	}
	return p.FirstPartySeller, true
}

// IsFirstParty reports whether seller text identifies the retailer itself.
// Items with no seller text, and retailers with no configured expected
// substring, are never first-party.
func (c *Catalog) IsFirstParty(retailerName, seller string) bool {
	expected, ok := c.FirstPartySeller(retailerName)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(strings.TrimSpace(seller)), strings.ToLower(expected))
}

// Names returns the canonical retailer names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.profiles))
	for i := range c.profiles {
		names[i] = c.profiles[i].Name
	}
	return names
}
