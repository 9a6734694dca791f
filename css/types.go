// Package css defines the in-memory stylesheet tree the rest of the program
// operates on: a flat, document-ordered sequence of rules, each holding a
// selector string and its declarations in source order.
package css

import (
	"fmt"
	"io"
	"strings"
)

// CustomPropertyPrefix marks declarations which define CSS variables.
const CustomPropertyPrefix = "--"

// Declaration is a single property declaration inside a rule.
type Declaration struct {
	Property string // Property name (e.g., "color", "--main-color")
	Value    string // Raw value text (e.g., "red", "var(--main-color)")
}

// IsCustomProperty returns true if the declaration defines a CSS variable.
func (d Declaration) IsCustomProperty() bool {
	return strings.HasPrefix(d.Property, CustomPropertyPrefix)
}

// Rule is a single CSS rule: selector plus ordered declarations.
// Rule identity is the selector string - two rules sharing a selector
// string belong to the same variable scope even if parsed separately.
type Rule struct {
	Selector     string
	Declarations []Declaration
}

// Get returns the value of the last declaration of the given property
// (last one wins, matching source order semantics).
func (r *Rule) Get(property string) (string, bool) {
	for i := len(r.Declarations) - 1; i >= 0; i-- {
		if r.Declarations[i].Property == property {
			return r.Declarations[i].Value, true
		}
	}
	return "", false
}

// Stylesheet is a parsed stylesheet: rules flattened into document order.
type Stylesheet struct {
	Rules    []*Rule  // All rules in source order, @media blocks flattened
	Warnings []string // Warnings for skipped/unsupported constructs
}

// RulesBySelector returns all rules matching the given selector string.
func (s *Stylesheet) RulesBySelector(selector string) []*Rule {
	var matches []*Rule
	for _, r := range s.Rules {
		if r.Selector == selector {
			matches = append(matches, r)
		}
	}
	return matches
}

// WriteTo writes the stylesheet to w in source order, implementing
// io.WriterTo. Declarations are written in source order - unlike property
// maps, order here is meaningful and must survive a round trip.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for i, rule := range s.Rules {
		n, err := writeRule(w, rule)
		total += int64(n)
		if err != nil {
			return total, err
		}
		if i < len(s.Rules)-1 {
			n, err = fmt.Fprint(w, "\n")
			total += int64(n)
			if err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

// String returns the CSS text of the stylesheet.
func (s *Stylesheet) String() string {
	var sb strings.Builder
	s.WriteTo(&sb) //nolint:errcheck
	return sb.String()
}

func writeRule(w io.Writer, rule *Rule) (int, error) {
	var total int
	n, err := fmt.Fprintf(w, "%s {\n", rule.Selector)
	total += n
	if err != nil {
		return total, err
	}
	for _, d := range rule.Declarations {
		n, err = fmt.Fprintf(w, "  %s: %s;\n", d.Property, d.Value)
		total += n
		if err != nil {
			return total, err
		}
	}
	n, err = fmt.Fprint(w, "}\n")
	total += n
	return total, err
}
