package helpers

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestCleanText(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "collapses whitespace runs",
			in:   "Jane  Roe\t is   an engineer",
			want: "Jane Roe is an engineer",
		},
		{
			name: "preserves paragraph breaks",
			in:   "First paragraph.\n\n\nSecond   paragraph.",
			want: "First paragraph.\n\nSecond paragraph.",
		},
		{
			name: "drops control characters",
			in:   "before\x00\x08after",
			want: "beforeafter",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanText(tt.in); got != tt.want {
				t.Fatalf("CleanText() got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncateShortInputUntouched(t *testing.T) {
	t.Parallel()
	in := "A short bio."
	if got := Truncate(in, 100); got != in {
		t.Fatalf("expected input unchanged, got %q", got)
	}
}

func TestTruncatePrefersSentenceBoundary(t *testing.T) {
	t.Parallel()
	in := strings.Repeat("x", 90) + ". " + strings.Repeat("y", 40)
	got := Truncate(in, 100)
	if !strings.HasSuffix(got, ".…") {
		t.Fatalf("expected cut after sentence end, got %q", got)
	}
	if strings.Contains(got, "y") {
		t.Fatalf("expected trailing sentence removed, got %q", got)
	}
}

func TestTruncateFallsBackToWordBoundary(t *testing.T) {
	t.Parallel()
	in := strings.Repeat("word ", 40) // no sentence enders at all
	got := Truncate(in, 100)
	if utf8.RuneCountInString(got) > 101 {
		t.Fatalf("truncated text too long: %d runes", utf8.RuneCountInString(got))
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("expected ellipsis, got %q", got)
	}
	if strings.HasSuffix(strings.TrimSuffix(got, "…"), "wor") {
		t.Fatalf("expected cut at word boundary, got %q", got)
	}
}

func TestTruncateHardCutWhenNoBoundary(t *testing.T) {
	t.Parallel()
	in := strings.Repeat("a", 500)
	got := Truncate(in, 100)
	if utf8.RuneCountInString(got) != 101 {
		t.Fatalf("expected 100 runes plus ellipsis, got %d", utf8.RuneCountInString(got))
	}
}

func TestTruncateZeroBudget(t *testing.T) {
	t.Parallel()
	if got := Truncate("anything", 0); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}
