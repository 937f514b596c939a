// internal/web/render.go
//
// Parking-page rendering.
//
// Context
// -------
// Every host resolves to a tenant.Site, and every Site renders through the
// one embedded template.  Data is assembled here so the template stays free
// of lookups: theme color is validated before it reaches a CSS context, the
// {domain} placeholder in footer URLs is substituted, and the analytics
// snippet is passed through as raw HTML (it is operator-supplied).
package web

import (
	"embed"
	"html/template"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gentpan/NameDeal/internal/domain"
	"github.com/gentpan/NameDeal/internal/settings"
	"github.com/gentpan/NameDeal/internal/tenant"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templateFS, "templates/*.html"))

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

type footerLink struct {
	Name string
	URL  string
	Icon template.HTML
}

// iconMarkup turns a stored icon into footer markup.  FontAwesome classes
// become an <i> element; inline SVG passes through as-is.  Anything that
// fails the settings-side icon check renders nothing.
func iconMarkup(icon string) template.HTML {
	icon = strings.TrimSpace(icon)
	if !settings.ValidIcon(icon) {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(icon), "<svg") {
		return template.HTML(icon)
	}
	return template.HTML(`<i class="` + template.HTMLEscapeString(icon) + `" aria-hidden="true"></i>`)
}

type pageData struct {
	Title       string
	Description string
	Domain      string
	Intro       string
	Price       string
	SiteName    string
	ThemeColor  template.CSS
	FooterLinks []footerLink
	MonthVisits int
	Year        int
	Analytics   template.HTML
}

// buildPageData flattens a resolved Site into template fields.
func buildPageData(site *tenant.Site, monthVisits int) pageData {
	theme := site.Get(tenant.KeyThemeColor, domain.DefaultThemeColor)
	if !hexColor.MatchString(theme) {
		theme = domain.DefaultThemeColor
	}

	desc := site.Get(tenant.KeyDescription, "")
	intro := site.Get(tenant.KeyIntro, "")
	if intro == "" {
		intro = desc
	}

	links := make([]footerLink, 0, 4)
	for _, l := range site.FooterLinks() {
		links = append(links, footerLink{
			Name: l.Name,
			URL:  strings.ReplaceAll(l.URL, "{domain}", site.Domain),
			Icon: iconMarkup(l.IconClass),
		})
	}

	return pageData{
		Title:       site.Get(tenant.KeyTitle, ""),
		Description: desc,
		Domain:      strings.ToUpper(site.Domain),
		Intro:       intro,
		Price:       site.Get(tenant.KeyPrice, ""),
		SiteName:    site.SiteName("NameDeal"),
		ThemeColor:  template.CSS(theme),
		FooterLinks: links,
		MonthVisits: monthVisits,
		Year:        time.Now().Year(),
		Analytics:   template.HTML(site.AnalyticsCode()),
	}
}

// renderParking writes the landing page for the resolved site.
func renderParking(w http.ResponseWriter, site *tenant.Site, monthVisits int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTmpl.ExecuteTemplate(w, "parking.html", buildPageData(site, monthVisits)); err != nil {
		zap.L().Error("parking page render failed", zap.String("domain", site.Domain), zap.Error(err))
	}
}
