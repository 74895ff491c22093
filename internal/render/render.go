// Package render turns prepared page data into HTML documents.
//
// Renderers are pure: they read only their arguments. Payload fields that
// were escaped when the payload was built are passed to the templates as
// trusted HTML so they are emitted once, never escaped twice. Everything
// else is escaped by html/template.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/tjfontaine/edge-content-gateway/internal/content"
	"github.com/tjfontaine/edge-content-gateway/internal/core/domain"
)

// Link is an entry in the related searches list.
type Link struct {
	Text string
	Href string
}

// Landing renders the landing page.
func Landing(c content.Copy, lang, brand string) ([]byte, error) {
	return execute("landing", struct {
		Lang  string
		Dir   string
		Title string
		Intro string
		Brand string
	}{lang, c.Dir, c.LandingTitle, c.LandingIntro, brand})
}

// PageData is the input to ContentPage.
type PageData struct {
	Payload  domain.ContentPayload
	Copy     content.Copy
	Related  []Link
	LoadTime time.Duration
	// TrackPath receives the conversion beacon; empty disables the CTA.
	TrackPath string
}

type contentView struct {
	Lang           string
	Dir            string
	Title          template.HTML
	Description    template.HTML
	OGTitle        template.HTML
	ImageURL       template.HTML
	CanonicalPath  string
	StructuredData template.JS
	Body           template.HTML
	RelatedHeading string
	Related        []Link
	CTALabel       string
	TrackPath      string
	Identity       string
	Region         string
	Footer         string
}

// ContentPage renders a content payload with its metadata, related links
// and load-time footer.
func ContentPage(d PageData) ([]byte, error) {
	p := d.Payload
	lang := p.SEO.Locale
	if lang == "" {
		lang = "ar"
	}
	return execute("content", contentView{
		Lang:           lang,
		Dir:            d.Copy.Dir,
		Title:          template.HTML(p.SEO.Title),
		Description:    template.HTML(p.SEO.MetaDescription),
		OGTitle:        template.HTML(p.SEO.OGTitle),
		ImageURL:       template.HTML(p.SEO.ImageURL),
		CanonicalPath:  p.SEO.CanonicalPath,
		StructuredData: template.JS(p.SEO.StructuredData),
		Body:           template.HTML(p.Content),
		RelatedHeading: d.Copy.RelatedHeading,
		Related:        d.Related,
		CTALabel:       d.Copy.CTALabel,
		TrackPath:      d.TrackPath,
		Identity:       p.Identity,
		Region:         p.Region,
		Footer:         LoadTimeFooter(d.Copy, d.LoadTime, p.Region),
	})
}

// RelatedLinks suggests searches derived from a normalized identity.
func RelatedLinks(c content.Copy, identity string) []Link {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil
	}
	links := make([]Link, 0, len(c.RelatedSuffixes))
	for _, suffix := range c.RelatedSuffixes {
		text := identity + " " + suffix
		links = append(links, Link{Text: text, Href: "/" + url.PathEscape(text)})
	}
	return links
}

// LoadTimeFooter formats the generation time shown at the bottom of a page.
func LoadTimeFooter(c content.Copy, elapsed time.Duration, region string) string {
	return fmt.Sprintf(c.LoadTimeFormat, elapsed.Milliseconds(), region)
}

// Suggestions builds the links offered on the 404 page from whatever
// identity the failed route match bound. An empty keyword uses the
// copy's default.
func Suggestions(c content.Copy, keyword string) []Link {
	kw := strings.TrimSpace(keyword)
	if kw == "" {
		kw = c.DefaultSuggestion
	}
	return []Link{
		{Text: fmt.Sprintf(c.SuggestBestFormat, kw), Href: "/best-" + url.PathEscape(kw)},
		{Text: fmt.Sprintf(c.SuggestReviewsFormat, kw), Href: "/top-" + url.PathEscape(kw) + "-reviews"},
	}
}

// NotFound renders the 404 page with suggestions for keyword.
func NotFound(c content.Copy, lang, keyword string) ([]byte, error) {
	return execute("notfound", struct {
		Lang            string
		Dir             string
		Title           string
		Body            string
		SuggestionLabel string
		Suggestions     []Link
	}{lang, c.Dir, c.NotFoundTitle, c.NotFoundBody, c.SuggestionLabel, Suggestions(c, keyword)})
}

// minimalErrorPage is served if the error template itself fails.
const minimalErrorPage = "<!DOCTYPE html><html><head><meta charset=\"utf-8\"><title>500</title></head><body><h1>500</h1></body></html>"

// ErrorPage renders the generic failure page. It never fails and never
// includes request or error detail.
func ErrorPage(c content.Copy, lang string) []byte {
	out, err := execute("error", struct {
		Lang  string
		Dir   string
		Title string
		Body  string
	}{lang, c.Dir, c.ErrorTitle, c.ErrorBody})
	if err != nil {
		return []byte(minimalErrorPage)
	}
	return out
}

func execute(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
