package vars_test

import (
	"fmt"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"cssv/css"
	"cssv/vars"
)

func newEngine(opts vars.Options) *vars.Engine {
	return vars.NewEngine(zap.NewNop(), opts)
}

func values(t *testing.T, r *css.Rule) map[string]string {
	t.Helper()
	out := make(map[string]string, len(r.Declarations))
	for _, d := range r.Declarations {
		out[d.Property] = d.Value
	}
	return out
}

func TestProcess_ChainedResolution(t *testing.T) {
	sheet := sheetOf(
		rule(":root",
			decl("--base", "16px"),
			decl("--unit", "var(--base)"),
			decl("--large", "calc(var(--unit) * 2)"),
		),
		rule("p",
			decl("padding", "var(--large)"),
		),
	)

	res := newEngine(vars.DefaultOptions()).Process(sheet)

	if res.ReachedLimit {
		t.Error("chained scenario must converge")
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}

	got := values(t, sheet.Rules[0])
	want := map[string]string{
		"--base":  "16px",
		"--unit":  "16px",
		"--large": "calc(16px * 2)",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("resolved values = %v, want %v", got, want)
	}

	// style declarations are never rewritten, resolvable or not
	if v, _ := sheet.Rules[1].Get("padding"); v != "var(--large)" {
		t.Errorf("style declaration changed to %q, want var(--large)", v)
	}
}

func TestProcess_Idempotence(t *testing.T) {
	sheet := sheetOf(
		rule(":root",
			decl("--base", "16px"),
			decl("--unit", "var(--base)"),
		),
	)

	newEngine(vars.DefaultOptions()).Process(sheet)
	first := values(t, sheet.Rules[0])

	// a second run on the already-resolved tree must change nothing and
	// settle after the single no-op pass
	res := newEngine(vars.DefaultOptions()).Process(sheet)
	if res.Iterations != 1 {
		t.Errorf("second run iterations = %d, want 1", res.Iterations)
	}
	if res.ReachedLimit {
		t.Error("second run must converge")
	}
	second := values(t, sheet.Rules[0])
	if !reflect.DeepEqual(first, second) {
		t.Errorf("second run changed values: %v -> %v", first, second)
	}
}

func TestProcess_ScopePriority(t *testing.T) {
	// --color defined in a scope collected before .dark; the declaring
	// scope's own value must win.
	sheet := sheetOf(
		rule(":root", decl("--color", "blue")),
		rule(".dark",
			decl("--color", "black"),
			decl("--text", "var(--color)"),
		),
	)

	newEngine(vars.DefaultOptions()).Process(sheet)

	if v, _ := sheet.Rules[1].Get("--text"); v != "black" {
		t.Errorf("--text = %q, want 'black' (own scope must win)", v)
	}
}

func TestProcess_FallbackPrecedence(t *testing.T) {
	t.Run("undefined uses fallback", func(t *testing.T) {
		sheet := sheetOf(
			rule(".a", decl("--x", "var(--missing, red)")),
		)
		res := newEngine(vars.DefaultOptions()).Process(sheet)
		if v, _ := sheet.Rules[0].Get("--x"); v != "red" {
			t.Errorf("--x = %q, want 'red'", v)
		}
		if len(res.Warnings) != 0 {
			t.Errorf("fallback consumed, no warnings expected: %v", res.Warnings)
		}
	})

	t.Run("defined anywhere beats fallback", func(t *testing.T) {
		sheet := sheetOf(
			rule(".a", decl("--x", "var(--missing, red)")),
			rule(".b", decl("--missing", "green")),
		)
		newEngine(vars.DefaultOptions()).Process(sheet)
		if v, _ := sheet.Rules[0].Get("--x"); v != "green" {
			t.Errorf("--x = %q, want 'green'", v)
		}
	})
}

func TestProcess_NestedFallbackResolvesAcrossPasses(t *testing.T) {
	// the fallback is substituted verbatim, then the next pass picks up the
	// var() it carried
	sheet := sheetOf(
		rule(".a", decl("--x", "var(--m1, var(--m2, 10px))")),
	)
	res := newEngine(vars.DefaultOptions()).Process(sheet)
	if v, _ := sheet.Rules[0].Get("--x"); v != "10px" {
		t.Errorf("--x = %q, want '10px'", v)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
}

func TestProcess_MultipleReferencesInOneValue(t *testing.T) {
	sheet := sheetOf(
		rule(":root",
			decl("--top", "1px"),
			decl("--bottom", "2px"),
			decl("--pad", "var(--top) 0 var(--bottom) 0"),
		),
	)
	newEngine(vars.DefaultOptions()).Process(sheet)
	if v, _ := sheet.Rules[0].Get("--pad"); v != "1px 0 2px 0" {
		t.Errorf("--pad = %q, want '1px 0 2px 0'", v)
	}
}

func TestProcess_CycleTermination(t *testing.T) {
	sheet := sheetOf(
		rule(".loop",
			decl("--a", "var(--b)"),
			decl("--b", "var(--a)"),
		),
	)

	res := newEngine(vars.Options{MaxIterations: 10, LogWarnings: true}).Process(sheet)

	if !res.ReachedLimit {
		t.Error("cycle must hit the iteration cap")
	}
	if res.Iterations != 10 {
		t.Errorf("iterations = %d, want 10", res.Iterations)
	}
	count := 0
	for _, w := range res.Warnings {
		if w == vars.WarningMaxIterations {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one iteration cap warning, got %d in %v", count, res.Warnings)
	}
}

func TestProcess_SelfReferenceConverges(t *testing.T) {
	// var(--a) inside --a rewrites to itself; substitution keeps occurring,
	// so the run ends at the cap but the value stays stable and no undefined
	// warning is produced (the name does resolve).
	sheet := sheetOf(
		rule(".a", decl("--a", "var(--a)")),
	)
	res := newEngine(vars.Options{MaxIterations: 5, LogWarnings: true}).Process(sheet)

	if v, _ := sheet.Rules[0].Get("--a"); v != "var(--a)" {
		t.Errorf("--a = %q, want 'var(--a)'", v)
	}
	if !res.ReachedLimit {
		t.Error("self reference keeps substituting and must hit the cap")
	}
	if len(res.Warnings) != 1 || res.Warnings[0] != vars.WarningMaxIterations {
		t.Errorf("warnings = %v, want only the iteration cap warning", res.Warnings)
	}
}

func TestProcess_UndefinedWithoutFallback(t *testing.T) {
	sheet := sheetOf(
		rule(".content",
			decl("--known", "blue"),
			decl("color", "var(--unknown)"),
		),
	)

	res := newEngine(vars.DefaultOptions()).Process(sheet)

	want := fmt.Sprintf("Undefined variable '%s' used in '%s'", "--unknown", ".content")
	if len(res.Warnings) != 1 || res.Warnings[0] != want {
		t.Errorf("warnings = %v, want [%q]", res.Warnings, want)
	}
	if v, _ := sheet.Rules[0].Get("color"); v != "var(--unknown)" {
		t.Errorf("style declaration changed to %q, want var(--unknown)", v)
	}
	if res.ReachedLimit {
		t.Error("undefined reference alone must not hit the cap")
	}
}

func TestProcess_UndefinedInCustomPropertyWarnsPerOccurrence(t *testing.T) {
	sheet := sheetOf(
		rule(".a", decl("--x", "var(--gone) var(--gone)")),
	)
	res := newEngine(vars.DefaultOptions()).Process(sheet)
	if len(res.Warnings) != 2 {
		t.Errorf("expected one warning per occurrence, got %v", res.Warnings)
	}
	if v, _ := sheet.Rules[0].Get("--x"); v != "var(--gone) var(--gone)" {
		t.Errorf("unresolvable value changed to %q", v)
	}
}

func TestProcess_SuppressedWarnings(t *testing.T) {
	sheet := sheetOf(
		rule(".loop",
			decl("--a", "var(--b)"),
			decl("--b", "var(--a)"),
			decl("color", "var(--unknown)"),
		),
	)

	res := newEngine(vars.Options{MaxIterations: 5, LogWarnings: false}).Process(sheet)

	if res.Warnings != nil {
		t.Errorf("diagnostic channel must be suppressed, got %v", res.Warnings)
	}
	// resolution itself still runs and still reports the limit
	if !res.ReachedLimit {
		t.Error("ReachedLimit must be reported even with warnings off")
	}
}

func TestNewEngine_NonPositiveCapUsesDefault(t *testing.T) {
	sheet := sheetOf(
		rule(".loop",
			decl("--a", "var(--b)"),
			decl("--b", "var(--a)"),
		),
	)
	res := newEngine(vars.Options{MaxIterations: 0, LogWarnings: true}).Process(sheet)
	if res.Iterations != vars.DefaultMaxIterations {
		t.Errorf("iterations = %d, want default cap %d", res.Iterations, vars.DefaultMaxIterations)
	}
}

func TestProcess_WriteBackCoversDuplicateDeclarations(t *testing.T) {
	// both declarations of --x get the final table value
	sheet := sheetOf(
		rule(".a",
			decl("--base", "4px"),
			decl("--x", "1px"),
			decl("--x", "var(--base)"),
		),
	)
	newEngine(vars.DefaultOptions()).Process(sheet)

	for _, d := range sheet.Rules[0].Declarations {
		if d.Property == "--x" && d.Value != "4px" {
			t.Errorf("duplicate declaration value = %q, want '4px'", d.Value)
		}
	}
}

func TestProcess_NoSharedStateBetweenRuns(t *testing.T) {
	engine := newEngine(vars.DefaultOptions())

	first := sheetOf(rule(":root", decl("--theme", "dark")))
	engine.Process(first)

	// a separate stylesheet must not see the previous run's scopes
	second := sheetOf(rule(".x", decl("color", "var(--theme)")))
	res := engine.Process(second)

	if len(res.Warnings) != 1 {
		t.Fatalf("expected undefined warning, got %v", res.Warnings)
	}
	if v, _ := second.Rules[0].Get("color"); v != "var(--theme)" {
		t.Errorf("value = %q, want untouched reference", v)
	}
}
