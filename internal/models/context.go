package models

// Cookie and header names used by the white-label resolution layer. The slug
// cookie is deliberately separate from the locale cookie so clearing one never
// disturbs the other.
const (
	LocaleCookie    = "NEXT_LOCALE"
	GuideSlugCookie = "wl_guide"
	GuideSlugHeader = "X-Guide-Slug"
)

// DefaultLocale is used when the locale cookie is absent or unknown.
const DefaultLocale = "ja"

var supportedLocales = map[string]bool{
	"ja":    true,
	"zh-TW": true,
	"zh-CN": true,
	"en":    true,
}

// ValidLocale reports whether l is a supported UI locale.
func ValidLocale(l string) bool {
	return supportedLocales[l]
}

// ResolvedContext is the per-request white-label decision. Invariant:
// IsWhiteLabel is true iff Guide is non-nil and its subscription is active.
// It is computed once at the request boundary and threaded through handlers.
type ResolvedContext struct {
	IsWhiteLabel bool   `json:"isWhiteLabelMode"`
	Slug         string `json:"currentSlug,omitempty"`
	Guide        *Guide `json:"guideConfig,omitempty"`

	// Degraded marks a resolution that fell back to official mode because
	// the directory lookup failed, as opposed to resolving to no guide.
	// Attribution cookies must not be discarded on a degraded resolution.
	Degraded bool `json:"-"`
}

// OfficialContext returns the default, unbranded context.
func OfficialContext() *ResolvedContext {
	return &ResolvedContext{}
}
