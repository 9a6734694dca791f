// Package transform implements the single-pass stylesheet edits surrounding
// variable resolution - property stripping and attribute-selector rewriting
// - and the pipeline which chains parsing, the edits, resolution and
// serialization.
package transform

import (
	"regexp"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"cssv/css"
)

// Transformer applies mechanical stylesheet edits. It never touches
// custom-property values - those belong to the vars engine.
type Transformer struct {
	log *zap.Logger
}

// NewTransformer creates a new Transformer.
func NewTransformer(log *zap.Logger) *Transformer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Transformer{log: log.Named("css-transform")}
}

// StripProperties removes every declaration whose property name is in the
// disallowed list. Comparison is case-insensitive, matching how CSS treats
// property names. Returns the number of declarations removed.
func (t *Transformer) StripProperties(sheet *css.Stylesheet, disallowed []string) int {
	if len(disallowed) == 0 {
		return 0
	}
	deny := make(map[string]struct{}, len(disallowed))
	for _, p := range disallowed {
		deny[strings.ToLower(p)] = struct{}{}
	}

	removed := 0
	for _, rule := range sheet.Rules {
		kept := rule.Declarations[:0]
		for _, d := range rule.Declarations {
			if _, drop := deny[strings.ToLower(d.Property)]; drop {
				removed++
				t.log.Debug("Stripping disallowed property",
					zap.String("property", d.Property), zap.String("selector", rule.Selector))
				continue
			}
			kept = append(kept, d)
		}
		rule.Declarations = kept
	}
	return removed
}

// attrSelectorPattern matches one attribute block in a selector:
// [attr], [attr=value], [attr="value"], [attr~='value'] and friends.
var attrSelectorPattern = regexp.MustCompile(`\[\s*([-\w]+)\s*(?:[~|^$*]?=\s*(?:"([^"]*)"|'([^']*)'|([^\]"']*)))?\s*\]`)

// RewriteAttributeSelectors rewrites attribute selector parts into compound
// class selectors: p[data-mode="dark"] becomes p.data-mode-dark, [hidden]
// becomes .hidden. Only selectors change; declarations are untouched.
// Returns the number of rules rewritten.
func (t *Transformer) RewriteAttributeSelectors(sheet *css.Stylesheet) int {
	rewritten := 0
	for _, rule := range sheet.Rules {
		if !strings.Contains(rule.Selector, "[") {
			continue
		}
		sel := attrSelectorPattern.ReplaceAllStringFunc(rule.Selector, func(match string) string {
			sub := attrSelectorPattern.FindStringSubmatch(match)
			if sub == nil {
				return match
			}
			attr := sub[1]
			// Group 2 is double-quoted, 3 single-quoted, 4 bare value
			value := sub[2]
			if value == "" {
				value = sub[3]
			}
			if value == "" {
				value = sub[4]
			}
			name := attr
			if strings.TrimSpace(value) != "" {
				name += " " + value
			}
			return "." + slug.Make(name)
		})
		if sel != rule.Selector {
			t.log.Debug("Rewriting attribute selector",
				zap.String("from", rule.Selector), zap.String("to", sel))
			rule.Selector = sel
			rewritten++
		}
	}
	return rewritten
}
