// internal/tenant/site.go
//
// Read-only site view handed to page rendering and email templating.
//
// Context
// -------
// A Site is what the rest of the service sees after Host-header
// resolution: either a catalog record wrapped with accessor semantics, or
// the hard-coded default configuration for hosts nobody has parked yet.
// The public page must always render something, so resolution never
// returns an error; worst case it returns Default(host).
package tenant

import (
	"github.com/gentpan/NameDeal/internal/domain"
	"github.com/gentpan/NameDeal/internal/settings"
)

// Well-known value keys accepted by Site.Get.
const (
	KeyTitle       = "title"
	KeyDescription = "description"
	KeyThemeColor  = "theme_color"
	KeyIntro       = "domain_intro"
	KeyPrice       = "domain_price"
)

// Default configuration served for unknown or unloadable hosts.
const (
	defaultTitle       = "Domain For Sale"
	defaultDescription = "The domain you are visiting is available for purchase."
)

// Site is an immutable view of one resolved domain.
type Site struct {
	Domain     string // normalized host the view was resolved for
	Configured bool   // false when serving the default configuration

	values   map[string]string
	settings *settings.Store
}

// newSite wraps a catalog record.
func newSite(key string, rec *domain.Record, st *settings.Store) *Site {
	theme := rec.ThemeColor
	if theme == "" {
		theme = domain.DefaultThemeColor
	}
	return &Site{
		Domain:     key,
		Configured: true,
		settings:   st,
		values: map[string]string{
			KeyTitle:       rec.Title,
			KeyDescription: rec.Description,
			KeyThemeColor:  theme,
			KeyIntro:       rec.Intro,
			KeyPrice:       rec.Price,
		},
	}
}

// Default returns the fallback view for an unparked host.
func Default(key string, st *settings.Store) *Site {
	return &Site{
		Domain:   key,
		settings: st,
		values: map[string]string{
			KeyTitle:       defaultTitle,
			KeyDescription: defaultDescription,
			KeyThemeColor:  domain.DefaultThemeColor,
			KeyIntro:       "",
			KeyPrice:       "",
		},
	}
}

// Get returns the stored value for key, or def when absent or empty.
func (s *Site) Get(key, def string) string {
	if v, ok := s.values[key]; ok && v != "" {
		return v
	}
	return def
}

// SiteName always consults the site-settings singleton, never the catalog
// record, so branding stays consistent across every parked domain.
func (s *Site) SiteName(def string) string {
	if s.settings != nil {
		if site, err := s.settings.Site(); err == nil && site.SiteName != "" {
			return site.SiteName
		}
	}
	return def
}

// FooterLinks returns the configured footer list, normalized, with the
// built-in defaults when nothing is stored.
func (s *Site) FooterLinks() []settings.FooterLink {
	if s.settings != nil {
		if site, err := s.settings.Site(); err == nil {
			return settings.NormalizeFooterLinks(site.FooterLinks)
		}
	}
	return settings.DefaultFooterLinks()
}

// AnalyticsCode returns the raw analytics snippet for the page footer.
func (s *Site) AnalyticsCode() string {
	if s.settings == nil {
		return ""
	}
	site, err := s.settings.Site()
	if err != nil {
		return ""
	}
	return site.FooterAnalyticsCode
}
