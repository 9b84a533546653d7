// Package catalog holds the closed set of module codes the campus offers.
// Every module reference entering the system is checked against it.
package catalog

import "strings"

// DefaultCodes is the reference catalog: four subject areas, three levels each.
var DefaultCodes = []string{
	"COMP1", "COMP2", "COMP3",
	"MATH1", "MATH2", "MATH3",
	"PHYS1", "PHYS2", "PHYS3",
	"CHEM1", "CHEM2", "CHEM3",
}

// Catalog answers membership queries over a fixed list of module codes.
type Catalog struct {
	codes []string
	index map[string]struct{}
}

// New builds a catalog from the given codes, trimming whitespace and dropping
// empties and duplicates while preserving first-seen order.
func New(codes []string) *Catalog {
	c := &Catalog{index: make(map[string]struct{}, len(codes))}
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if _, ok := c.index[code]; ok {
			continue
		}
		c.index[code] = struct{}{}
		c.codes = append(c.codes, code)
	}
	return c
}

// Default returns a catalog over the reference code list.
func Default() *Catalog {
	return New(DefaultCodes)
}

// Contains reports whether the code is part of the catalog.
func (c *Catalog) Contains(code string) bool {
	if c == nil {
		return false
	}
	_, ok := c.index[code]
	return ok
}

// Invalid returns the subset of codes that are not in the catalog, in input order.
func (c *Catalog) Invalid(codes []string) []string {
	var invalid []string
	for _, code := range codes {
		if !c.Contains(code) {
			invalid = append(invalid, code)
		}
	}
	return invalid
}

// Codes returns a copy of the catalog's code list.
func (c *Catalog) Codes() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.codes))
	copy(out, c.codes)
	return out
}

// Len reports the number of codes in the catalog.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.codes)
}
