// internal/mailer/templates.go
//
// Embedded HTML bodies for the four outbound email kinds.  Templates are
// parsed once at startup; a parse failure is a programming error and
// panics before the server can accept traffic.
package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/gentpan/NameDeal/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var tmpl = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Branding carries the per-site values every template can reference.
type Branding struct {
	Domain     string
	SiteName   string
	ThemeColor string
}

func (b Branding) withDefaults() Branding {
	if b.ThemeColor == "" {
		b.ThemeColor = domain.DefaultThemeColor
	}
	if b.SiteName == "" {
		b.SiteName = b.Domain
	}
	return b
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("mailer: render %s: %w", name, err)
	}
	return buf.String(), nil
}

// formatOffer renders a numeric offer for display, or a placeholder when
// the customer left the field empty.
func formatOffer(offer float64) string {
	if offer <= 0 {
		return "Not provided"
	}
	return fmt.Sprintf("$%.2f", offer)
}

func verificationBody(b Branding, code string) (string, error) {
	b = b.withDefaults()
	return render("verification_code.html", map[string]any{
		"Domain":     b.Domain,
		"ThemeColor": b.ThemeColor,
		"Code":       code,
	})
}

func adminNotificationBody(b Branding, form ContactForm) (string, error) {
	b = b.withDefaults()
	return render("admin_notification.html", map[string]any{
		"Domain":     b.Domain,
		"SiteName":   b.SiteName,
		"ThemeColor": b.ThemeColor,
		"Name":       form.Name,
		"Email":      form.Email,
		"Message":    form.Message,
		"Offer":      formatOffer(form.OfferPrice),
		"Year":       time.Now().Year(),
	})
}

func confirmationBody(b Branding, form ContactForm) (string, error) {
	b = b.withDefaults()
	return render("confirmation.html", map[string]any{
		"Domain":     b.Domain,
		"SiteName":   b.SiteName,
		"ThemeColor": b.ThemeColor,
		"Name":       form.Name,
		"Offer":      formatOffer(form.OfferPrice),
		"Year":       time.Now().Year(),
	})
}

func testEmailBody(b Branding) (string, error) {
	b = b.withDefaults()
	return render("test_email.html", map[string]any{
		"SiteName": b.SiteName,
		"SentAt":   time.Now().Format("2006-01-02 15:04:05 MST"),
	})
}
