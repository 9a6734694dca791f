package vars

import (
	"strings"
)

// Reference is a single var(NAME[, FALLBACK]) occurrence inside a value
// string. Start and End bound the whole occurrence in the original string,
// so substitution can splice the replacement in place. The fallback is raw
// text - it may itself contain var() references, which are never evaluated
// recursively, only substituted verbatim.
type Reference struct {
	Name        string
	Fallback    string
	HasFallback bool
	Start, End  int
}

// isNameByte reports whether b can appear in a CSS ident. Used to reject
// matches like "somevar(" where "var(" is a suffix of a longer ident.
func isNameByte(b byte) bool {
	return b == '-' || b == '_' ||
		('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z') || ('0' <= b && b <= '9')
}

// scanReferences finds all var() references in value, left to right.
// Parentheses inside the fallback are balanced, so nested constructs like
// var(--a, var(--b, c)) or var(--a, calc(1px + 2px)) produce a single
// reference with the whole tail as fallback. An unterminated var( is not a
// reference and scanning stops there.
func scanReferences(value string) []Reference {
	var refs []Reference

	for pos := 0; ; {
		i := strings.Index(value[pos:], "var(")
		if i < 0 {
			return refs
		}
		start := pos + i
		if start > 0 && isNameByte(value[start-1]) {
			pos = start + 4
			continue
		}

		depth := 1
		comma := -1 // first top-level comma, -1 if none
		end := -1
		for j := start + 4; j < len(value); j++ {
			switch value[j] {
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					end = j
				}
			case ',':
				if depth == 1 && comma < 0 {
					comma = j
				}
			}
			if end >= 0 {
				break
			}
		}
		if end < 0 {
			return refs
		}

		ref := Reference{Start: start, End: end + 1}
		if comma >= 0 {
			ref.Name = strings.TrimSpace(value[start+4 : comma])
			ref.Fallback = strings.TrimSpace(value[comma+1 : end])
			ref.HasFallback = true
		} else {
			ref.Name = strings.TrimSpace(value[start+4 : end])
		}
		refs = append(refs, ref)
		pos = ref.End
	}
}
