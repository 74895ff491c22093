package render

import (
	"strings"
	"testing"
	"time"

	"github.com/tjfontaine/edge-content-gateway/internal/content"
	"github.com/tjfontaine/edge-content-gateway/internal/core/domain"
)

func testPayload(t *testing.T, identity string) domain.ContentPayload {
	t.Helper()
	seo, err := content.NewSEOBuilder(content.SEOConfig{Language: "en", LocaleRegions: []string{"US"}})
	if err != nil {
		t.Fatalf("NewSEOBuilder() error = %v", err)
	}
	meta, err := seo.Build(identity, "US")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return domain.ContentPayload{
		Identity: identity,
		Region:   "US",
		Content:  seo.Copy().Heading(content.EscapeHTML(identity)) + "\n<p>" + content.EscapeHTML("fish & chips <b>") + "</p>",
		SEO:      meta,
	}
}

func TestContentPage_EscapesOnce(t *testing.T) {
	c := content.CopyFor("en")
	out, err := ContentPage(PageData{
		Payload:   testPayload(t, "salt & pepper"),
		Copy:      c,
		Related:   RelatedLinks(c, "salt pepper"),
		LoadTime:  42 * time.Millisecond,
		TrackPath: "/track/conversion",
	})
	if err != nil {
		t.Fatalf("ContentPage() error = %v", err)
	}
	page := string(out)

	for _, want := range []string{
		`<html lang="en-US" dir="ltr">`,
		"<title>salt &amp; pepper | Best offers in US</title>",
		"<h1>salt &amp; pepper: the smart choice for professionals</h1>",
		"<p>fish &amp; chips &lt;b&gt;</p>",
		`<meta property="og:title" content="salt &amp; pepper review">`,
		`<link rel="canonical" href="/salt%20&amp;%20pepper">`,
		`<script type="application/ld+json">{"@context":"https://schema.org"`,
		`<a href="/salt%20pepper%20price">salt pepper price</a>`,
		"Loaded in 42 ms - region US",
		"/track/conversion",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q\n%s", want, page)
		}
	}
	if strings.Contains(page, "&amp;amp;") {
		t.Error("page contains double-escaped entities")
	}
	if strings.Contains(page, "<b>") {
		t.Error("generated text was not escaped")
	}
}

func TestContentPage_NoTrackPathNoScript(t *testing.T) {
	out, err := ContentPage(PageData{Payload: testPayload(t, "shoes"), Copy: content.CopyFor("en")})
	if err != nil {
		t.Fatalf("ContentPage() error = %v", err)
	}
	if strings.Contains(string(out), "addEventListener") {
		t.Error("conversion script rendered without a track path")
	}
	if strings.Contains(string(out), "<nav>") {
		t.Error("related section rendered with no links")
	}
}

func TestRelatedLinks(t *testing.T) {
	c := content.CopyFor("en")

	links := RelatedLinks(c, "usb hub")
	if len(links) != len(c.RelatedSuffixes) {
		t.Fatalf("len(links) = %d, want %d", len(links), len(c.RelatedSuffixes))
	}
	if links[1].Text != "usb hub review" || links[1].Href != "/usb%20hub%20review" {
		t.Errorf("links[1] = %+v", links[1])
	}

	if got := RelatedLinks(c, "  "); got != nil {
		t.Errorf("RelatedLinks(blank) = %v, want nil", got)
	}
}

func TestNotFound(t *testing.T) {
	c := content.CopyFor("en")

	out, err := NotFound(c, "en", "camera")
	if err != nil {
		t.Fatalf("NotFound() error = %v", err)
	}
	for _, want := range []string{
		`<a href="/best-camera">Best camera</a>`,
		`<a href="/top-camera-reviews">camera reviews</a>`,
	} {
		if !strings.Contains(string(out), want) {
			t.Errorf("page missing %q\n%s", want, out)
		}
	}

	out, err = NotFound(c, "en", "<script>")
	if err != nil {
		t.Fatalf("NotFound() error = %v", err)
	}
	if strings.Contains(string(out), "<script>") {
		t.Errorf("suggestion not escaped:\n%s", out)
	}
}

func TestSuggestions_DefaultKeyword(t *testing.T) {
	links := Suggestions(content.CopyFor("en"), "  ")
	if len(links) != 2 {
		t.Fatalf("len(links) = %d, want 2", len(links))
	}
	if links[0].Href != "/best-product" || links[1].Href != "/top-product-reviews" {
		t.Errorf("links = %+v", links)
	}

	ar := Suggestions(content.CopyFor("ar"), "")
	if ar[0].Text != "أفضل منتج" {
		t.Errorf("arabic suggestion = %q", ar[0].Text)
	}
}

func TestErrorPage_NoDetail(t *testing.T) {
	out := string(ErrorPage(content.CopyFor("ar"), "ar"))
	if !strings.Contains(out, `dir="rtl"`) {
		t.Errorf("error page missing rtl direction:\n%s", out)
	}
	if !strings.Contains(out, "<title>500 | ") {
		t.Errorf("error page title:\n%s", out)
	}
}

func TestLanding(t *testing.T) {
	out, err := Landing(content.CopyFor("en"), "en", "Acme")
	if err != nil {
		t.Fatalf("Landing() error = %v", err)
	}
	if !strings.Contains(string(out), "<title>Your guide to the best products | Acme</title>") {
		t.Errorf("landing title:\n%s", out)
	}
}
