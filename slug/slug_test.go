package slug

import (
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple name", "Acme Blender", "acme-blender"},
		{"punctuation stripped", "Acme Blender (2026 Model)!", "acme-blender-2026-model"},
		{"underscores become hyphens", "acme_blender_pro", "acme-blender-pro"},
		{"accents transliterated", "Café Crème Brülée", "cafe-creme-brulee"},
		{"hyphen runs collapsed", "a -- b --- c", "a-b-c"},
		{"leading and trailing hyphens trimmed", "--Acme--", "acme"},
		{"empty input", "", ""},
		{"only symbols", "!!!***", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Generate(tt.input); got != tt.want {
				t.Errorf("Generate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestGenerateCapsLength(t *testing.T) {
	long := strings.Repeat("word-", 40)

	got := Generate(long)

	if len(got) > 100 {
		t.Errorf("Slug length = %d, want <= 100", len(got))
	}
	if strings.HasSuffix(got, "-") {
		t.Errorf("Expected no trailing hyphen after truncation, got %q", got)
	}
}

func TestFromURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"scheme and query stripped", "https://shop.example.com/products/blender?ref=home", "shop-example-com-products-blender"},
		{"fragment stripped", "https://example.com/p/1#reviews", "example-com-p-1"},
		{"no scheme", "example.com/p", "example-com-p"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromURL(tt.url); got != tt.want {
				t.Errorf("FromURL(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestFromProduct(t *testing.T) {
	tests := []struct {
		name    string
		product string
		url     string
		want    string
	}{
		{"product name preferred", "Acme Blender", "https://example.com/p/1", "acme-blender"},
		{"falls back to URL when name empty", "", "https://example.com/p/1", "example-com-p-1"},
		{"falls back when name has no slug content", "!!!", "https://example.com/p/1", "example-com-p-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromProduct(tt.product, tt.url); got != tt.want {
				t.Errorf("FromProduct(%q, %q) = %q, want %q", tt.product, tt.url, got, tt.want)
			}
		})
	}
}
