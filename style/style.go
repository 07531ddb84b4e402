// Package style maps event domains to display attributes. Colors are
// linear RGB in [0,1]; unknown domains fall back to gray so new
// domains show up immediately without a config change.
package style

// Color is linear RGB.
type Color [3]float64

// Style is the display treatment for one domain.
type Style struct {
	Color Color   `json:"color"`
	Scale float64 `json:"scale"`
}

// DefaultScale is used when no override is configured.
const DefaultScale = 1.0

// Fallback is the treatment for domains without an entry.
var Fallback = Style{Color: Color{0.5, 0.5, 0.5}, Scale: DefaultScale}

var defaults = map[string]Color{
	"graph":             {0.2, 0.7, 0.9},
	"agent":             {0.9, 0.2, 0.2},
	"workflow":          {0.2, 0.9, 0.2},
	"document":          {0.9, 0.9, 0.2},
	"person":            {0.9, 0.2, 0.9},
	"organization":      {0.2, 0.9, 0.9},
	"location":          {0.5, 0.5, 0.9},
	"dialog":            {0.9, 0.5, 0.2},
	"policy":            {0.5, 0.9, 0.5},
	"git":               {0.7, 0.4, 0.1},
	"nix":               {0.4, 0.6, 0.8},
	"conceptual_spaces": {0.8, 0.3, 0.8},
	"identity":          {0.6, 0.8, 0.4},
}

// Table resolves domains to styles. A nil *Table is valid and serves
// the built-in defaults.
type Table struct {
	overrides map[string]Style
}

// NewTable builds a table with per-domain overrides layered on top of
// the built-in palette. Overrides with a zero scale get DefaultScale.
func NewTable(overrides map[string]Style) *Table {
	if len(overrides) == 0 {
		return &Table{}
	}
	clean := make(map[string]Style, len(overrides))
	for domain, s := range overrides {
		if s.Scale == 0 {
			s.Scale = DefaultScale
		}
		clean[domain] = s
	}
	return &Table{overrides: clean}
}

// For returns the style for a domain.
func (t *Table) For(domain string) Style {
	if t != nil {
		if s, ok := t.overrides[domain]; ok {
			return s
		}
	}
	if c, ok := defaults[domain]; ok {
		return Style{Color: c, Scale: DefaultScale}
	}
	return Fallback
}

// Known reports whether the domain has an explicit entry, either
// built-in or overridden.
func (t *Table) Known(domain string) bool {
	if t != nil {
		if _, ok := t.overrides[domain]; ok {
			return true
		}
	}
	_, ok := defaults[domain]
	return ok
}
