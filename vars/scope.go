// Package vars resolves CSS custom properties (variables): it collects
// per-selector variable definitions into a scope table, inlines var()
// references in variable definitions by iterating to a fixed point, and
// reports unresolved references and suspected circular definitions. Style
// declarations are scanned for diagnostics but never rewritten.
package vars

import (
	"sort"

	"github.com/maruel/natural"

	"cssv/css"
	"cssv/utils/debug"
)

// Scope holds the custom-property definitions of one selector string.
// Property order is collection order; redefining a property overwrites the
// value but keeps the original position (last-declaration-wins).
type Scope struct {
	selector string
	names    []string
	values   map[string]string
}

func newScope(selector string) *Scope {
	return &Scope{selector: selector, values: make(map[string]string)}
}

// Selector returns the selector string identifying this scope.
func (s *Scope) Selector() string {
	return s.selector
}

// Set inserts or overwrites a custom-property value.
func (s *Scope) Set(name, value string) {
	if _, ok := s.values[name]; !ok {
		s.names = append(s.names, name)
	}
	s.values[name] = value
}

// Get returns the current value for name in this scope.
func (s *Scope) Get(name string) (string, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Names returns property names in collection order.
func (s *Scope) Names() []string {
	return s.names
}

// ScopeTable maps selector strings to their variable scopes. Scope order is
// collection order, which makes the cross-scope lookup below deterministic.
// A table is built fresh for every resolution run and discarded after
// write-back - no state survives between runs.
type ScopeTable struct {
	order []*Scope
	index map[string]*Scope
}

// NewScopeTable creates an empty scope table.
func NewScopeTable() *ScopeTable {
	return &ScopeTable{index: make(map[string]*Scope)}
}

// Len returns the number of scopes in the table.
func (t *ScopeTable) Len() int {
	return len(t.order)
}

// Scopes returns all scopes in collection order.
func (t *ScopeTable) Scopes() []*Scope {
	return t.order
}

// Scope returns the scope for the given selector, if present.
func (t *ScopeTable) Scope(selector string) (*Scope, bool) {
	s, ok := t.index[selector]
	return s, ok
}

// Set inserts or overwrites table[selector][name], creating the scope on
// first use.
func (t *ScopeTable) Set(selector, name, value string) {
	s, ok := t.index[selector]
	if !ok {
		s = newScope(selector)
		t.index[selector] = s
		t.order = append(t.order, s)
	}
	s.Set(name, value)
}

// Lookup resolves a variable name the way the resolver does: the requesting
// selector's own scope wins, then the first other scope (in table order)
// defining the name. The cross-scope fallback is deliberately looser than
// the CSS cascade - it serves single-root theme patterns where variables
// live on :root and are used everywhere.
func (t *ScopeTable) Lookup(selector, name string) (string, bool) {
	if s, ok := t.index[selector]; ok {
		if v, ok := s.Get(name); ok {
			return v, true
		}
	}
	for _, s := range t.order {
		if s.selector == selector {
			continue
		}
		if v, ok := s.Get(name); ok {
			return v, true
		}
	}
	return "", false
}

// String returns a readable tree of the table for manual inspection,
// scopes and names in natural sort order.
func (t *ScopeTable) String() string {
	if t == nil {
		return "<nil ScopeTable>"
	}
	tw := debug.NewTreeWriter()
	tw.Line(0, "Scopes: %d", t.Len())

	selectors := make([]string, 0, len(t.order))
	for _, s := range t.order {
		selectors = append(selectors, s.selector)
	}
	sort.Sort(natural.StringSlice(selectors))

	for _, sel := range selectors {
		s := t.index[sel]
		tw.Line(1, "Scope[%q] (%d variables)", sel, len(s.names))
		names := make([]string, len(s.names))
		copy(names, s.names)
		sort.Sort(natural.StringSlice(names))
		for _, n := range names {
			tw.Quoted(2, n, s.values[n])
		}
	}
	return tw.String()
}

// Collect walks the stylesheet once and builds the scope table: every
// declaration whose property starts with "--" lands in its selector's
// scope, raw value as-is. No name or value validation - any string goes.
func Collect(sheet *css.Stylesheet) *ScopeTable {
	table := NewScopeTable()
	for _, rule := range sheet.Rules {
		for _, d := range rule.Declarations {
			if d.IsCustomProperty() {
				table.Set(rule.Selector, d.Property, d.Value)
			}
		}
	}
	return table
}
