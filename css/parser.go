package css

import (
	"bytes"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser parses CSS stylesheets into the flat rule sequence.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses CSS text into a Stylesheet. Rules nested inside @media
// blocks are flattened into the top-level sequence in document order;
// other @-rules are skipped with a warning. The optional source parameter
// identifies what's being parsed (for debug logging).
func (p *Parser) Parse(data []byte, source ...string) *Stylesheet {
	sheet := &Stylesheet{
		Rules:    make([]*Rule, 0),
		Warnings: make([]string, 0),
	}

	if len(source) > 0 && source[0] != "" {
		p.log.Debug("Parsing CSS", zap.String("source", source[0]), zap.Int("bytes", len(data)))
	}

	input := parse.NewInput(bytes.NewReader(data))
	parser := css.NewParser(input, false)

	// selectors of a grouped rule accumulate over QualifiedRuleGrammar
	// events until the ruleset opens
	var pending []string

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			// End of input or error
			if parser.Err() != nil && parser.Err().Error() != "EOF" {
				p.log.Debug("CSS parse error", zap.Error(parser.Err()))
			}
			return sheet

		case css.BeginAtRuleGrammar:
			atRule := string(data)
			if atRule == "@media" {
				query := joinTokens(parser.Values())
				before := len(sheet.Rules)
				p.parseRulesets(parser, sheet)
				p.log.Debug("Flattened @media block", zap.String("query", query), zap.Int("rules", len(sheet.Rules)-before))
			} else {
				p.skipAtRuleBlock(parser)
				sheet.Warnings = append(sheet.Warnings, "skipped unsupported at-rule: "+atRule)
				p.log.Debug("Skipping @-rule", zap.String("rule", atRule))
			}

		case css.AtRuleGrammar:
			// Simple @-rule without block (e.g., @import)
			atRule := string(data)
			sheet.Warnings = append(sheet.Warnings, "skipped unsupported at-rule: "+atRule)
			p.log.Debug("Skipping @-rule", zap.String("rule", atRule))

		case css.QualifiedRuleGrammar:
			pending = append(pending, p.parseSelectors(data, parser.Values())...)

		case css.BeginRulesetGrammar:
			selectors := append(pending, p.parseSelectors(data, parser.Values())...)
			pending = nil
			decls := p.parseDeclarations(parser)
			appendRules(sheet, selectors, decls)
		}
	}
}

// appendRules creates one rule per selector of a grouped selector list,
// cloning declarations so rules do not alias each other.
func appendRules(sheet *Stylesheet, selectors []string, decls []Declaration) {
	for _, sel := range selectors {
		declsCopy := make([]Declaration, len(decls))
		copy(declsCopy, decls)
		sheet.Rules = append(sheet.Rules, &Rule{Selector: sel, Declarations: declsCopy})
	}
}

// parseSelectors extracts selector strings from token data.
func (p *Parser) parseSelectors(data []byte, values []css.Token) []string {
	var sb strings.Builder
	sb.Write(data)
	for _, v := range values {
		sb.Write(v.Data)
	}

	// Split by comma for grouped selectors
	var selectors []string
	for s := range strings.SplitSeq(sb.String(), ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			selectors = append(selectors, s)
		}
	}
	return selectors
}

// parseDeclarations parses property declarations until EndRulesetGrammar,
// preserving source order. Custom properties (--name) are kept - they are
// what the variable resolver feeds on.
func (p *Parser) parseDeclarations(parser *css.Parser) []Declaration {
	var decls []Declaration

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar, css.EndRulesetGrammar:
			return decls

		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			value := joinTokens(parser.Values())
			if value != "" {
				decls = append(decls, Declaration{Property: string(data), Value: value})
			}
		}
	}
}

// parseRulesets parses rules inside an @media block, appending them to the
// sheet until the matching end of the block.
func (p *Parser) parseRulesets(parser *css.Parser, sheet *Stylesheet) {
	var pending []string

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar, css.EndAtRuleGrammar:
			return

		case css.QualifiedRuleGrammar:
			pending = append(pending, p.parseSelectors(data, parser.Values())...)

		case css.BeginRulesetGrammar:
			selectors := append(pending, p.parseSelectors(data, parser.Values())...)
			pending = nil
			decls := p.parseDeclarations(parser)
			appendRules(sheet, selectors, decls)
		}
	}
}

// skipAtRuleBlock skips tokens until the matching end of an @-rule block.
func (p *Parser) skipAtRuleBlock(parser *css.Parser) {
	depth := 1
	for depth > 0 {
		gt, _, _ := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			return
		case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
			depth++
		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			depth--
		}
	}
}

// joinTokens builds a value string from CSS tokens, collapsing whitespace
// runs to single spaces.
func joinTokens(tokens []css.Token) string {
	var parts []string
	for _, t := range tokens {
		if t.TokenType != css.WhitespaceToken {
			parts = append(parts, string(t.Data))
		} else if len(parts) > 0 {
			parts = append(parts, " ")
		}
	}
	return strings.TrimSpace(strings.Join(parts, ""))
}
