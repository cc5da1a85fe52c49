// Package screener serves the static sector and industry symbol table.
package screener

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed sectors.yaml
var defaultTable []byte

// Industry is a named group of symbols.
type Industry struct {
	Name    string   `yaml:"name" json:"name"`
	Symbols []string `yaml:"symbols" json:"symbols"`
}

// Sector is a named group of industries.
type Sector struct {
	Name       string     `yaml:"name" json:"name"`
	Industries []Industry `yaml:"industries" json:"industries"`
}

// Table is the two-level sector -> industry -> symbols mapping.
type Table struct {
	Sectors   []Sector          `yaml:"sectors"`
	Companies map[string]string `yaml:"companies"`
}

// Default returns the built-in table.
func Default() *Table {
	t, err := Parse(defaultTable)
	if err != nil {
		panic(fmt.Sprintf("screener: embedded table: %v", err))
	}
	return t
}

// Parse decodes a table from YAML.
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse screener table: %w", err)
	}
	return &t, nil
}

// SectorNames lists sectors in table order.
func (t *Table) SectorNames() []string {
	names := make([]string, len(t.Sectors))
	for i, s := range t.Sectors {
		names[i] = s.Name
	}
	return names
}

// Industries lists the industries of sector, or nil for an unknown sector.
func (t *Table) Industries(sector string) []string {
	s := t.sector(sector)
	if s == nil {
		return nil
	}
	names := make([]string, len(s.Industries))
	for i, ind := range s.Industries {
		names[i] = ind.Name
	}
	return names
}

// Screen returns the symbols for sector and industry. A blank industry
// selects every symbol in the sector. Duplicates are dropped, first
// occurrence wins. Unknown names yield an empty list.
func (t *Table) Screen(sector, industry string) []string {
	s := t.sector(sector)
	if s == nil {
		return []string{}
	}
	seen := make(map[string]bool)
	out := []string{}
	for _, ind := range s.Industries {
		if industry != "" && ind.Name != industry {
			continue
		}
		for _, sym := range ind.Symbols {
			if !seen[sym] {
				seen[sym] = true
				out = append(out, sym)
			}
		}
	}
	return out
}

// CompanyName returns the display name for symbol.
func (t *Table) CompanyName(symbol string) string {
	if name, ok := t.Companies[symbol]; ok {
		return name
	}
	return "Unknown Company"
}

func (t *Table) sector(name string) *Sector {
	for i := range t.Sectors {
		if t.Sectors[i].Name == name {
			return &t.Sectors[i]
		}
	}
	return nil
}
