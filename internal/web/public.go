// internal/web/public.go
//
// Public surface: the parking page and its three form actions.
//
// Notes
// -----
// POST / multiplexes on the `action` form field the same way the page's
// fetch calls submit it: send_code issues a verification code, verify_code
// redeems one, and contact runs the inquiry flow.  The contact action is
// gated on a previously verified address so the relay only carries mail
// from reachable senders.
package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gentpan/NameDeal/internal/mailer"
	"github.com/gentpan/NameDeal/internal/stats"
	"github.com/gentpan/NameDeal/internal/tenant"
)

// branding derives the email branding fields from a resolved site.
func branding(site *tenant.Site) mailer.Branding {
	return mailer.Branding{
		Domain:     site.Domain,
		SiteName:   site.SiteName(""),
		ThemeColor: site.Get(tenant.KeyThemeColor, ""),
	}
}

// handleIndex renders the parking page for the requested host and records
// the visit.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	site := s.sites.Get(r.Host)

	s.tracker.Track(r.Context(), stats.Visit{
		Domain:    r.Host,
		URI:       r.URL.RequestURI(),
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
		Referer:   r.Referer(),
	})

	var monthVisits int
	if sum, err := s.tracker.Summary(r.Context(), r.Host, 30); err == nil {
		monthVisits = sum.TotalVisits
	}

	renderParking(w, site, monthVisits)
}

// handlePublicAction dispatches the parking-page form posts.
func (s *Server) handlePublicAction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		fail(w, "Malformed request.")
		return
	}

	site := s.sites.Get(r.Host)
	b := branding(site)

	switch r.PostFormValue("action") {
	case "send_code":
		res := s.codes.Send(r.Context(), b, r.PostFormValue("email"))
		writeJSON(w, http.StatusOK, res)

	case "verify_code":
		res := s.codes.Verify(r.PostFormValue("email"), r.PostFormValue("code"))
		writeJSON(w, http.StatusOK, res)

	case "contact":
		email := strings.TrimSpace(r.PostFormValue("email"))
		if !s.codes.IsVerified(email) {
			fail(w, "Please verify your email address first.")
			return
		}
		offer, _ := strconv.ParseFloat(r.PostFormValue("offer_price"), 64)
		res := s.mail.ContactFlow(r.Context(), b, mailer.ContactForm{
			Name:       r.PostFormValue("name"),
			Email:      email,
			Message:    r.PostFormValue("message"),
			OfferPrice: offer,
		})
		writeJSON(w, http.StatusOK, res)

	default:
		fail(w, "Unknown action.")
	}
}
