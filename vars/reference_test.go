package vars

import (
	"reflect"
	"testing"
)

func TestScanReferences(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []Reference
	}{
		{
			name:  "no references",
			value: "16px solid red",
			want:  nil,
		},
		{
			name:  "name only",
			value: "var(--main-color)",
			want: []Reference{
				{Name: "--main-color", Start: 0, End: 17},
			},
		},
		{
			name:  "with fallback",
			value: "var(--accent, blue)",
			want: []Reference{
				{Name: "--accent", Fallback: "blue", HasFallback: true, Start: 0, End: 19},
			},
		},
		{
			name:  "empty fallback still counts",
			value: "var(--accent,)",
			want: []Reference{
				{Name: "--accent", Fallback: "", HasFallback: true, Start: 0, End: 14},
			},
		},
		{
			name:  "nested var in fallback",
			value: "var(--a, var(--b, green))",
			want: []Reference{
				{Name: "--a", Fallback: "var(--b, green)", HasFallback: true, Start: 0, End: 25},
			},
		},
		{
			name:  "nested calc in fallback",
			value: "var(--w, calc(100% - 2px))",
			want: []Reference{
				{Name: "--w", Fallback: "calc(100% - 2px)", HasFallback: true, Start: 0, End: 26},
			},
		},
		{
			name:  "inside surrounding function",
			value: "calc(var(--unit) * 2)",
			want: []Reference{
				{Name: "--unit", Start: 5, End: 16},
			},
		},
		{
			name:  "multiple references",
			value: "var(--top) var(--bottom, 0)",
			want: []Reference{
				{Name: "--top", Start: 0, End: 10},
				{Name: "--bottom", Fallback: "0", HasFallback: true, Start: 11, End: 27},
			},
		},
		{
			name:  "whitespace around name and fallback trimmed",
			value: "var( --x ,  10px )",
			want: []Reference{
				{Name: "--x", Fallback: "10px", HasFallback: true, Start: 0, End: 18},
			},
		},
		{
			name:  "ident suffix is not a reference",
			value: "somevar(--x)",
			want:  nil,
		},
		{
			name:  "unterminated reference ignored",
			value: "var(--x",
			want:  nil,
		},
		{
			name:  "valid reference before unterminated one",
			value: "var(--a) var(--b",
			want: []Reference{
				{Name: "--a", Start: 0, End: 8},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scanReferences(tt.value)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("scanReferences(%q) = %+v, want %+v", tt.value, got, tt.want)
			}
		})
	}
}

func TestScanReferences_SpliceBounds(t *testing.T) {
	value := "calc(var(--unit) * 2)"
	refs := scanReferences(value)
	if len(refs) != 1 {
		t.Fatalf("expected 1 reference, got %d", len(refs))
	}
	if got := value[refs[0].Start:refs[0].End]; got != "var(--unit)" {
		t.Errorf("bounds select %q, want %q", got, "var(--unit)")
	}
}
