package helpers

import "testing"

func TestIsValidURL(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want bool
	}{
		{"https://www.linkedin.com/in/janeroe", true},
		{"http://example.com", true},
		{"ftp://example.com/file", false},
		{"not a url", false},
		{"", false},
		{"/relative/path", false},
	}
	for _, tt := range tests {
		if got := IsValidURL(tt.in); got != tt.want {
			t.Fatalf("IsValidURL(%q) got %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDomain(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.linkedin.com/in/janeroe", "linkedin.com"},
		{"https://Twitter.com/janeroe?lang=en", "twitter.com"},
		{"http://blog.example.com:8080/post", "blog.example.com"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Domain(tt.in); got != tt.want {
			t.Fatalf("Domain(%q) got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCanonicalProfileURL(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "strips fragment and tracking params",
			in:   "https://www.linkedin.com/in/janeroe?utm_source=feed&fbclid=abc#about",
			want: "https://www.linkedin.com/in/janeroe",
		},
		{
			name: "removes default port and trailing slash",
			in:   "https://twitter.com:443/janeroe/",
			want: "https://twitter.com/janeroe",
		},
		{
			name: "defaults scheme to https",
			in:   "github.com/janeroe",
			want: "https://github.com/janeroe",
		},
		{
			name: "keeps meaningful query parameters",
			in:   "https://example.com/profile?id=42",
			want: "https://example.com/profile?id=42",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := CanonicalProfileURL(tt.in)
			if err != nil {
				t.Fatalf("CanonicalProfileURL() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("CanonicalProfileURL() got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCanonicalProfileURLErrors(t *testing.T) {
	t.Parallel()
	if _, err := CanonicalProfileURL(""); err == nil {
		t.Fatalf("expected error for empty input")
	}
	if _, err := CanonicalProfileURL(":///bad"); err == nil {
		t.Fatalf("expected error for malformed url")
	}
}
