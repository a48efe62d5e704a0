package typeset

import (
	"reflect"
	"testing"
	"unicode/utf8"
)

// monospace measures every rune as 10 units regardless of size.
type monospace struct{}

func (monospace) Measure(s string, _ float64) float64 { return float64(utf8.RuneCountInString(s)) * 10 }

func TestWrap(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxWidth float64
		want     []string
	}{
		{"fits", "hello", 100, []string{"hello"}},
		{"greedy", "aa bb cc dd", 50, []string{"aa bb", "cc dd"}},
		{"newline", "aa\nbb", 100, []string{"aa", "bb"}},
		{"blank line kept", "aa\n\nbb", 100, []string{"aa", "", "bb"}},
		{"long word split", "abcdefghij", 40, []string{"abcd", "efgh", "ij"}},
		{"long word after text", "ab abcdefgh", 40, []string{"ab", "abcd", "efgh"}},
		{"no wrapping", "aa bb cc", 0, []string{"aa bb cc"}},
		{"collapses spaces", "aa    bb", 100, []string{"aa bb"}},
		{"narrower than a rune", "abc", 5, []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Wrap(tt.text, tt.maxWidth, 16, monospace{}); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Wrap() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGoFontMeasure(t *testing.T) {
	f, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	small := f.Measure("Hello", 10)
	large := f.Measure("Hello", 20)
	if small <= 0 {
		t.Fatalf("Measure() = %v, want positive", small)
	}
	if large <= small {
		t.Errorf("Measure at 20 = %v, not larger than at 10 = %v", large, small)
	}
	if f.Measure("", 10) != 0 {
		t.Errorf("empty string should measure 0")
	}
	if f.Measure("Hello world", 10) <= small {
		t.Errorf("longer text should be wider")
	}
	ascent, descent := f.Metrics(16)
	if ascent <= 0 || descent <= 0 {
		t.Errorf("Metrics() = %v, %v", ascent, descent)
	}
}

func TestGoFontWrapsWithinWidth(t *testing.T) {
	f, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	lines := Wrap("the quick brown fox jumps over the lazy dog", 80, 14, f)
	if len(lines) < 2 {
		t.Fatalf("Wrap() = %q, expected several lines", lines)
	}
	for _, l := range lines {
		if w := f.Measure(l, 14); w > 80 {
			t.Errorf("line %q is %v wide, over 80", l, w)
		}
	}
}
