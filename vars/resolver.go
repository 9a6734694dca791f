package vars

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"cssv/css"
)

// DefaultMaxIterations bounds the fixed-point loop when the caller does not
// say otherwise. Chains deeper than this are indistinguishable from cycles.
const DefaultMaxIterations = 100

// WarningMaxIterations is emitted once per run when the resolver gives up
// before reaching a fixed point.
const WarningMaxIterations = "Maximum iterations reached. There might be circular references."

// Options configures a resolution run.
type Options struct {
	MaxIterations int  // iteration cap for the fixed-point loop, must be positive
	LogWarnings   bool // when false the diagnostic channel is suppressed entirely
}

// DefaultOptions returns the default resolver configuration.
func DefaultOptions() Options {
	return Options{MaxIterations: DefaultMaxIterations, LogWarnings: true}
}

// Engine inlines var() references in custom-property definitions.
type Engine struct {
	log           *zap.Logger
	maxIterations int
	logWarnings   bool
}

// NewEngine creates a resolution engine. A non-positive iteration cap falls
// back to DefaultMaxIterations.
func NewEngine(log *zap.Logger, opts Options) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	return &Engine{
		log:           log.Named("css-vars"),
		maxIterations: opts.MaxIterations,
		logWarnings:   opts.LogWarnings,
	}
}

// Result reports what a resolution run did.
type Result struct {
	Iterations   int      // passes executed, including the final no-change pass
	ReachedLimit bool     // true when the iteration cap cut resolution short
	Warnings     []string // diagnostic channel, nil when warnings are suppressed
}

// Process runs a complete resolution over the stylesheet: collect scopes,
// resolve to a fixed point, write resolved values back into custom-property
// declarations, then diagnose still-unresolved references. Style
// declarations come out byte-identical - var() usages in ordinary
// properties are always preserved literally. Process never fails; at worst
// the tree keeps partially substituted values and the result carries
// warnings.
func (e *Engine) Process(sheet *css.Stylesheet) Result {
	table := Collect(sheet)

	iterations, reachedLimit := e.Resolve(table)
	writeBack(sheet, table)

	res := Result{Iterations: iterations, ReachedLimit: reachedLimit}
	e.log.Debug("Variable resolution finished",
		zap.Int("scopes", table.Len()),
		zap.Int("iterations", iterations),
		zap.Bool("converged", !reachedLimit))

	if !e.logWarnings {
		return res
	}
	if reachedLimit {
		res.Warnings = append(res.Warnings, WarningMaxIterations)
	}
	res.Warnings = append(res.Warnings, diagnose(sheet, table)...)
	for _, w := range res.Warnings {
		e.log.Warn(w)
	}
	return res
}

// Resolve rewrites table values until no pass changes anything or the
// iteration cap is hit. One shared counter covers all scopes. Returns the
// number of passes executed and whether the cap cut the run short.
//
// A dependency-graph ordering is not worth it here: cross-scope lookups make
// edges data-dependent, so the engine just re-scans the whole table until it
// settles. The cap bounds the pathological (cyclic) case.
func (e *Engine) Resolve(table *ScopeTable) (iterations int, reachedLimit bool) {
	changed := true
	for changed && iterations < e.maxIterations {
		changed = false
		for _, scope := range table.Scopes() {
			for _, name := range scope.Names() {
				value, _ := scope.Get(name)
				if !strings.Contains(value, "var(") {
					continue
				}
				if rewritten, substituted := substitute(table, scope, value); substituted {
					scope.Set(name, rewritten)
					changed = true
				}
			}
		}
		iterations++
	}
	return iterations, changed
}

// substitute rewrites one value, replacing every resolvable var() reference
// left to right. Lookup order per reference: own scope, then other scopes in
// table order, then the verbatim fallback text; an unresolvable reference
// without fallback stays untouched. Replacement is a plain substring splice
// - surrounding syntax like calc() is none of our business here - and the
// replacement text is not re-scanned within the same call (nesting resolves
// across passes).
func substitute(table *ScopeTable, scope *Scope, value string) (string, bool) {
	refs := scanReferences(value)
	if len(refs) == 0 {
		return value, false
	}

	var sb strings.Builder
	last := 0
	substituted := false
	for _, ref := range refs {
		replacement, ok := table.Lookup(scope.Selector(), ref.Name)
		if !ok && ref.HasFallback {
			replacement, ok = ref.Fallback, true
		}
		if !ok {
			continue
		}
		sb.WriteString(value[last:ref.Start])
		sb.WriteString(replacement)
		last = ref.End
		substituted = true
	}
	if !substituted {
		return value, false
	}
	sb.WriteString(value[last:])
	return sb.String(), true
}

// writeBack overwrites every custom-property declaration with the final
// table value for its own scope and name. Style declarations are left
// alone.
func writeBack(sheet *css.Stylesheet, table *ScopeTable) {
	for _, rule := range sheet.Rules {
		scope, ok := table.Scope(rule.Selector)
		if !ok {
			continue
		}
		for i := range rule.Declarations {
			d := &rule.Declarations[i]
			if !d.IsCustomProperty() {
				continue
			}
			if v, ok := scope.Get(d.Property); ok {
				d.Value = v
			}
		}
	}
}

// diagnose makes a read-only pass over the updated tree and reports every
// var() occurrence - in custom and style declarations alike - whose name
// resolves in no scope and which carries no fallback. One warning per
// occurrence.
func diagnose(sheet *css.Stylesheet, table *ScopeTable) []string {
	var warnings []string
	for _, rule := range sheet.Rules {
		for _, d := range rule.Declarations {
			if !strings.Contains(d.Value, "var(") {
				continue
			}
			for _, ref := range scanReferences(d.Value) {
				if _, ok := table.Lookup(rule.Selector, ref.Name); ok {
					continue
				}
				if ref.HasFallback {
					continue
				}
				warnings = append(warnings, fmt.Sprintf("Undefined variable '%s' used in '%s'", ref.Name, rule.Selector))
			}
		}
	}
	return warnings
}
