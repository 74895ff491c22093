package content

import "fmt"

// Copy is the page text for one language. Format strings take the escaped
// identity first and, where present, the region second.
type Copy struct {
	Dir               string
	Headline          string
	Apology           string
	TitleFormat       string
	DescriptionFormat string
	OGTitleFormat     string
	SchemaDescFormat  string
	RelatedHeading    string
	RelatedSuffixes   []string

	LandingTitle string
	LandingIntro string
	CTALabel     string
	// LoadTimeFormat takes the elapsed milliseconds and the region.
	LoadTimeFormat string

	NotFoundTitle   string
	NotFoundBody    string
	SuggestionLabel string
	// DefaultSuggestion stands in when a miss carries no usable identity.
	DefaultSuggestion    string
	SuggestBestFormat    string
	SuggestReviewsFormat string

	ErrorTitle string
	ErrorBody  string
}

var copies = map[string]Copy{
	"ar": {
		Dir:               "rtl",
		Headline:          "الاختيار الذكي للمحترفين",
		Apology:           "نعتذر، حدثت مشكلة مؤقتة في توليد المحتوى. يُرجى المحاولة لاحقًا.",
		TitleFormat:       "%s | أفضل العروض في %s",
		DescriptionFormat: "مراجعة شاملة لمنتج %s - أفضل خيارات السوق في %s بدقة عالية.",
		OGTitleFormat:     "مراجعة %s",
		SchemaDescFormat:  "المراجعة الأكثر شمولاً لمنتج %s في %s",
		RelatedHeading:    "عمليات بحث ذات صلة",
		RelatedSuffixes:   []string{"سعر", "مراجعة", "أفضل"},

		LandingTitle:   "دليلك لأفضل المنتجات",
		LandingIntro:   "اكتب اسم المنتج في الرابط لتحصل على مراجعة فورية تناسب منطقتك.",
		CTALabel:       "تسوق الآن",
		LoadTimeFormat: "تم التحميل في %d مللي ثانية - المنطقة %s",

		NotFoundTitle:        "الصفحة غير موجودة",
		NotFoundBody:         "لم نعثر على ما تبحث عنه.",
		SuggestionLabel:      "ربما تبحث عن",
		DefaultSuggestion:    "منتج",
		SuggestBestFormat:    "أفضل %s",
		SuggestReviewsFormat: "مراجعات %s",

		ErrorTitle: "خطأ مؤقت",
		ErrorBody:  "حدث خطأ غير متوقع. يُرجى المحاولة لاحقًا.",
	},
	"en": {
		Dir:               "ltr",
		Headline:          "the smart choice for professionals",
		Apology:           "Sorry, content generation is temporarily unavailable. Please try again later.",
		TitleFormat:       "%s | Best offers in %s",
		DescriptionFormat: "A complete review of %s with the best market options in %s.",
		OGTitleFormat:     "%s review",
		SchemaDescFormat:  "The most complete review of %s in %s",
		RelatedHeading:    "Related searches",
		RelatedSuffixes:   []string{"price", "review", "best"},

		LandingTitle:   "Your guide to the best products",
		LandingIntro:   "Put a product name in the URL to get an instant review for your region.",
		CTALabel:       "Shop now",
		LoadTimeFormat: "Loaded in %d ms - region %s",

		NotFoundTitle:        "Page not found",
		NotFoundBody:         "We could not find what you were looking for.",
		SuggestionLabel:      "Maybe you are looking for",
		DefaultSuggestion:    "product",
		SuggestBestFormat:    "Best %s",
		SuggestReviewsFormat: "%s reviews",

		ErrorTitle: "Temporary error",
		ErrorBody:  "Something went wrong. Please try again later.",
	},
}

// CopyFor returns the copy for a base language, defaulting to Arabic.
func CopyFor(lang string) Copy {
	if c, ok := copies[lang]; ok {
		return c
	}
	return copies["ar"]
}

// Heading builds the escaped page heading.
func (c Copy) Heading(escapedIdentity string) string {
	return fmt.Sprintf("<h1>%s: %s</h1>", escapedIdentity, EscapeHTML(c.Headline))
}
