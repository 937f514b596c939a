// internal/settings/footer.go
//
// Footer-link validation and defaults.
//
// The parking page footer carries at most three links, each with a display
// name, a URL (the literal `{domain}` placeholder is substituted with the
// current domain at render time), and an icon.  Icons are either a
// FontAwesome class string or a raw inline `<svg>…</svg>` blob; anything
// that smells like script injection is rejected outright.
package settings

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// MaxFooterLinks caps the footer list.
const MaxFooterLinks = 3

// FooterLink is one entry in the parking-page footer.
type FooterLink struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	IconClass string `json:"icon_class"`
}

var (
	faClass = regexp.MustCompile(`^(?i)(fa-(solid|regular|brands|duotone|thin|light)\s+)?fa-[a-z0-9-]+(\s+fa-[a-z0-9-]+)*$`)

	scriptHints = regexp.MustCompile(`(?i)<script|on\w+\s*=|javascript:`)
)

// DefaultFooterLinks is used when a save leaves the list empty.
func DefaultFooterLinks() []FooterLink {
	return []FooterLink{
		{Name: "WHOIS Lookup", URL: "https://bluewhois.com/{domain}", IconClass: "fa-solid fa-magnifying-glass"},
		{Name: "West Wind", URL: "https://xifeng.net", IconClass: "fa-solid fa-wind"},
		{Name: "More Domains", URL: "https://domain.ls", IconClass: "fa-solid fa-globe"},
	}
}

// ValidateFooterLinks checks count, per-link fields, URLs, and icons.  The
// returned error message names the first offending entry.
func ValidateFooterLinks(links []FooterLink) error {
	if len(links) > MaxFooterLinks {
		return fmt.Errorf("at most %d footer links are allowed", MaxFooterLinks)
	}
	for i, l := range links {
		name := strings.TrimSpace(l.Name)
		u := strings.TrimSpace(l.URL)
		icon := strings.TrimSpace(l.IconClass)

		if name == "" || u == "" {
			return errors.New("footer link name and URL must not be empty")
		}
		if !validFooterURL(u) {
			return fmt.Errorf("link %d has an invalid URL", i+1)
		}
		if !ValidIcon(icon) {
			return fmt.Errorf("link %d has an invalid icon", i+1)
		}
	}
	return nil
}

// NormalizeFooterLinks trims fields, drops incomplete entries, defaults the
// icon, and clamps the list; an empty result falls back to the defaults.
func NormalizeFooterLinks(links []FooterLink) []FooterLink {
	out := make([]FooterLink, 0, MaxFooterLinks)
	for _, l := range links {
		name := strings.TrimSpace(l.Name)
		u := strings.TrimSpace(l.URL)
		icon := strings.TrimSpace(l.IconClass)
		if name == "" || u == "" {
			continue
		}
		if icon == "" {
			icon = "fa-solid fa-link"
		}
		out = append(out, FooterLink{Name: name, URL: u, IconClass: icon})
		if len(out) == MaxFooterLinks {
			break
		}
	}
	if len(out) == 0 {
		return DefaultFooterLinks()
	}
	return out
}

// validFooterURL accepts http(s) URLs after resolving the {domain}
// placeholder against a representative host.
func validFooterURL(raw string) bool {
	raw = strings.ReplaceAll(raw, "{domain}", "example.com")
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return true
	}
	return false
}

// ValidIcon accepts a FontAwesome class string or an inline SVG blob that
// carries no script vectors.
func ValidIcon(icon string) bool {
	if icon == "" {
		return false
	}
	if faClass.MatchString(icon) {
		return true
	}
	return validSVGIcon(icon)
}

func validSVGIcon(s string) bool {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "<svg") || !strings.Contains(lower, "</svg>") {
		return false
	}
	return !scriptHints.MatchString(s)
}
