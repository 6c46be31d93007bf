package core

import (
	"reflect"
	"testing"
)

func TestParseIceBreakers(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "numbered list",
			raw:  "1. Saw your talk on reliability\n2. Fellow sourdough baker here",
			want: []string{"Saw your talk on reliability", "Fellow sourdough baker here"},
		},
		{
			name: "bullet markers",
			raw:  "- Loved your post on hiking\n* Congrats on the new role",
			want: []string{"Loved your post on hiking", "Congrats on the new role"},
		},
		{
			name: "surrounding prose and headings",
			raw:  "Here are some suggestions:\n\n# Ice Breakers\n1. Saw your open-source work\nIce breakers above are ready to use.",
			want: []string{"Saw your open-source work"},
		},
		{
			name: "quoted lines",
			raw:  `1. "Loved your conference talk"`,
			want: []string{"Loved your conference talk"},
		},
		{
			name: "parenthesized numbering",
			raw:  "1) First opener\n2) Second opener",
			want: []string{"First opener", "Second opener"},
		},
		{
			name: "empty output",
			raw:  "",
			want: nil,
		},
		{
			name: "whitespace only",
			raw:  "   \n\t\n",
			want: nil,
		},
		{
			name: "only headings and meta lines",
			raw:  "# Results\nIce breaker suggestions:\nHere are the lines:",
			want: nil,
		},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			got := ParseIceBreakers(c.raw)
			if !reflect.DeepEqual(got, c.want) {
				t.Fatalf("ParseIceBreakers(%q) = %#v, want %#v", c.raw, got, c.want)
			}
		})
	}
}

func TestParseIceBreakersCapsAtFive(t *testing.T) {
	t.Parallel()
	raw := "1. a\n2. b\n3. c\n4. d\n5. e\n6. f\n7. g"
	got := ParseIceBreakers(raw)
	if len(got) != 5 {
		t.Fatalf("expected 5 ice breakers, got %d", len(got))
	}
	if got[4] != "e" {
		t.Fatalf("expected fifth line kept, got %q", got[4])
	}
}
