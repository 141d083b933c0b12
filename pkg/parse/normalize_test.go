package parse

import (
	"net/url"
	"testing"
)

func TestNormalizeURL_NilInput(t *testing.T) {
	if result := NormalizeURL(nil); result != "" {
		t.Errorf("NormalizeURL(nil) = %q, want empty string", result)
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"UppercaseSchemeHost", "HTTPS://Upload.Example.ORG/a/B.png", "https://upload.example.org/a/B.png"},
		{"DefaultHTTPPort", "http://example.com:80/img.png", "http://example.com/img.png"},
		{"DefaultHTTPSPort", "https://example.com:443/img.png", "https://example.com/img.png"},
		{"NonDefaultPortKept", "https://example.com:8443/img.png", "https://example.com:8443/img.png"},
		{"QueryKept", "https://cdn.example.com/img.jpg?w=200&v=3", "https://cdn.example.com/img.jpg?w=200&v=3"},
		{"FragmentDropped", "https://example.com/img.png#frag", "https://example.com/img.png"},
		{"EmptyPath", "https://example.com", "https://example.com/"},
		{"TrailingSlashKept", "https://example.com/images/", "https://example.com/images/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := url.Parse(tt.input)
			if err != nil {
				t.Fatalf("url.Parse(%q): %v", tt.input, err)
			}
			if result := NormalizeURL(parsed); result != tt.expected {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestParseAndNormalize(t *testing.T) {
	norm, parsed, err := ParseAndNormalize("https://Example.com/x.png?size=2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if norm != "https://example.com/x.png?size=2" {
		t.Errorf("normalized = %q", norm)
	}
	if parsed.Host != "Example.com" {
		t.Errorf("parsed URL should be untouched, host = %q", parsed.Host)
	}

	if _, _, err := ParseAndNormalize("not a url"); err == nil {
		t.Error("expected error for relative input")
	}
}
