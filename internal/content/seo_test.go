package content

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSEOBuilder_Locale(t *testing.T) {
	b, err := NewSEOBuilder(SEOConfig{Language: "ar", LocaleRegions: []string{"SA", "EG", "AE"}})
	if err != nil {
		t.Fatalf("NewSEOBuilder() error = %v", err)
	}

	tests := map[string]string{
		"SA":     "ar-SA",
		"EG":     "ar-EG",
		"AE":     "ar-AE",
		"US":     "ar",
		"GLOBAL": "ar",
	}
	for region, want := range tests {
		if got := b.Locale(region); got != want {
			t.Errorf("Locale(%q) = %q, want %q", region, got, want)
		}
	}
}

func TestSEOBuilder_Build(t *testing.T) {
	b, err := NewSEOBuilder(SEOConfig{
		Language:     "en",
		ImageBaseURL: "https://cdn.example.com/images/",
		Brand:        "Edge",
	})
	if err != nil {
		t.Fatalf("NewSEOBuilder() error = %v", err)
	}

	seo, err := b.Build("gaming laptop", "US")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if seo.Title != "gaming laptop | Best offers in US" {
		t.Errorf("Title = %q", seo.Title)
	}
	if seo.ImageURL != "https://cdn.example.com/images/gaming%20laptop.jpg" {
		t.Errorf("ImageURL = %q", seo.ImageURL)
	}
	if seo.CanonicalPath != "/gaming%20laptop" {
		t.Errorf("CanonicalPath = %q", seo.CanonicalPath)
	}
	if seo.Locale != "en" {
		t.Errorf("Locale = %q", seo.Locale)
	}

	var schema map[string]any
	if err := json.Unmarshal([]byte(seo.StructuredData), &schema); err != nil {
		t.Fatalf("structured data is not JSON: %v", err)
	}
	if schema["@type"] != "Product" || schema["name"] != "gaming laptop" || schema["brand"] != "Edge" {
		t.Errorf("schema = %v", schema)
	}
}

func TestSEOBuilder_StructuredDataSafeInScript(t *testing.T) {
	b, err := NewSEOBuilder(SEOConfig{Language: "en"})
	if err != nil {
		t.Fatalf("NewSEOBuilder() error = %v", err)
	}

	seo, err := b.Build("</script><b>", "US")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if strings.Contains(seo.StructuredData, "</script>") || strings.Contains(seo.StructuredData, "<b>") {
		t.Errorf("structured data not escaped: %s", seo.StructuredData)
	}
	if strings.Contains(seo.Title, "<b>") {
		t.Errorf("title not escaped: %s", seo.Title)
	}
}

func TestNewSEOBuilder_InvalidConfig(t *testing.T) {
	if _, err := NewSEOBuilder(SEOConfig{Language: "not a language!"}); err == nil {
		t.Error("expected error for invalid language")
	}
	if _, err := NewSEOBuilder(SEOConfig{LocaleRegions: []string{"ZZZZ"}}); err == nil {
		t.Error("expected error for invalid region")
	}
}

func TestCopyFor(t *testing.T) {
	if CopyFor("en").Dir != "ltr" {
		t.Error("expected ltr copy for en")
	}
	if CopyFor("fr").Dir != "rtl" {
		t.Error("expected Arabic copy for unknown language")
	}
}
