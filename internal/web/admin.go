// internal/web/admin.go
//
// Back office: login, logout, and the action-multiplexed JSON API.
//
// Notes
// -----
// The API is one POST endpoint switching on the `action` form field, the
// shape the back-office front end submits.  Every response is the
// {success, message, data} envelope.  Mutating domain actions invalidate
// the tenant cache so the public page reflects changes immediately.
package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/gentpan/NameDeal/internal/domain"
	"github.com/gentpan/NameDeal/internal/mailer"
	"github.com/gentpan/NameDeal/internal/settings"
	"github.com/gentpan/NameDeal/internal/stats"
)

var fieldCheck = validator.New()

func validEmailField(v string) bool {
	return fieldCheck.Var(v, "required,email") == nil
}

/*──────────────────────────── session endpoints ───────────────────────────*/

// handleLogin authenticates the single admin credential.  A legacy
// plaintext match is rehashed on the spot, and every successful login
// issues a fresh session token plus the CSRF token the API requires.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	password := r.PostFormValue("password")
	if password == "" {
		fail(w, "Password is required.")
		return
	}

	okMatch, legacy := s.settings.VerifyAdminPassword(password)
	if !okMatch {
		zap.L().Warn("admin login rejected", zap.String("ip", clientIP(r)))
		fail(w, "Invalid password.")
		return
	}
	if legacy {
		if err := s.settings.SetAdminPassword(password); err != nil {
			zap.L().Error("legacy password migration failed", zap.Error(err))
		}
	}

	csrf, err := issueToken(purposeCSRF)
	if err == nil {
		err = startSession(w, r)
	}
	if err != nil {
		zap.L().Error("session start failed", zap.Error(err))
		fail(w, "Internal error.")
		return
	}
	ok(w, "Logged in.", map[string]string{"csrf_token": csrf})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	endSession(w)
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}

/*──────────────────────────── action dispatch ─────────────────────────────*/

// handleAdminAPI multiplexes the back-office actions.  requireAdmin and
// requireCSRF have already run by the time this handler is reached.
func (s *Server) handleAdminAPI(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		fail(w, "Malformed request.")
		return
	}

	switch r.PostFormValue("action") {
	case "get_email_settings":
		s.getEmailSettings(w)
	case "save_email_settings":
		s.saveEmailSettings(w, r)
	case "get_site_settings":
		s.getSiteSettings(w)
	case "save_site_settings":
		s.saveSiteSettings(w, r)
	case "get_footer_settings":
		s.getFooterSettings(w)
	case "save_footer_settings":
		s.saveFooterSettings(w, r)
	case "test_email":
		s.testEmail(w, r)
	case "add":
		s.addDomain(w, r)
	case "update":
		s.updateDomain(w, r)
	case "delete":
		s.deleteDomain(w, r)
	case "toggle_active":
		s.toggleDomain(w, r)
	case "get":
		s.getDomain(w, r)
	case "list":
		s.listDomains(w, r)
	case "stats":
		s.domainStats(w, r)
	default:
		fail(w, "Unknown action.")
	}
}

/*──────────────────────────── settings actions ────────────────────────────*/

func (s *Server) getEmailSettings(w http.ResponseWriter) {
	cfg, err := s.settings.Email()
	if err != nil {
		zap.L().Error("email settings read failed", zap.Error(err))
		fail(w, "Could not read email settings.")
		return
	}
	ok(w, "", cfg)
}

func (s *Server) saveEmailSettings(w http.ResponseWriter, r *http.Request) {
	fromEmail := strings.TrimSpace(r.PostFormValue("from_email"))
	defaultTo := strings.TrimSpace(r.PostFormValue("default_to_email"))
	if fromEmail != "" && !validEmailField(fromEmail) {
		fail(w, "The sender address is not a valid email.")
		return
	}
	if defaultTo != "" && !validEmailField(defaultTo) {
		fail(w, "The default recipient address is not a valid email.")
		return
	}

	port, err := strconv.Atoi(r.PostFormValue("smtp_port"))
	if err != nil || port <= 0 || port > 65535 {
		port = 587
	}
	enc := r.PostFormValue("smtp_encryption")
	if !settings.ValidEncryption(enc) {
		enc = "tls"
	}

	cfg := settings.Email{
		FromName:       strings.TrimSpace(r.PostFormValue("from_name")),
		FromEmail:      fromEmail,
		DefaultToEmail: defaultTo,
		SMTPHost:       strings.TrimSpace(r.PostFormValue("smtp_host")),
		SMTPPort:       port,
		SMTPEncryption: enc,
		SMTPUsername:   strings.TrimSpace(r.PostFormValue("smtp_username")),
		SMTPPassword:   strings.TrimSpace(r.PostFormValue("smtp_password")),
	}
	if err := s.settings.SaveEmail(cfg); err != nil {
		zap.L().Error("email settings save failed", zap.Error(err))
		fail(w, "Could not save email settings.")
		return
	}
	ok(w, "Email settings saved.", nil)
}

func (s *Server) getSiteSettings(w http.ResponseWriter) {
	site, err := s.settings.Site()
	if err != nil {
		zap.L().Error("site settings read failed", zap.Error(err))
		fail(w, "Could not read site settings.")
		return
	}
	ok(w, "", map[string]any{
		"admin_password_set": s.settings.PasswordSet(),
		"site_name":          site.SiteName,
	})
}

func (s *Server) saveSiteSettings(w http.ResponseWriter, r *http.Request) {
	oldPassword := strings.TrimSpace(r.PostFormValue("old_password"))
	newPassword := strings.TrimSpace(r.PostFormValue("admin_password"))
	confirm := strings.TrimSpace(r.PostFormValue("confirm_password"))
	siteName := strings.TrimSpace(r.PostFormValue("site_name"))

	if newPassword != "" {
		if oldPassword == "" {
			fail(w, "Enter the current password to change it.")
			return
		}
		if match, _ := s.settings.VerifyAdminPassword(oldPassword); !match {
			fail(w, "The current password is incorrect.")
			return
		}
		if len(newPassword) < 8 {
			fail(w, "The new password must be at least 8 characters.")
			return
		}
		if newPassword != confirm {
			fail(w, "The new passwords do not match.")
			return
		}
	}

	site, err := s.settings.Site()
	if err != nil {
		zap.L().Error("site settings read failed", zap.Error(err))
		fail(w, "Could not read site settings.")
		return
	}
	site.SiteName = siteName
	if err := s.settings.SaveSite(site); err != nil {
		zap.L().Error("site settings save failed", zap.Error(err))
		fail(w, "Could not save site settings.")
		return
	}

	if newPassword != "" {
		if err := s.settings.SetAdminPassword(newPassword); err != nil {
			zap.L().Error("password update failed", zap.Error(err))
			fail(w, "Could not update the password.")
			return
		}
	}
	ok(w, "Site settings saved.", nil)
}

func (s *Server) getFooterSettings(w http.ResponseWriter) {
	site, err := s.settings.Site()
	if err != nil {
		zap.L().Error("site settings read failed", zap.Error(err))
		fail(w, "Could not read footer settings.")
		return
	}
	ok(w, "", map[string]any{
		"footer_links":          settings.NormalizeFooterLinks(site.FooterLinks),
		"footer_analytics_code": site.FooterAnalyticsCode,
	})
}

func (s *Server) saveFooterSettings(w http.ResponseWriter, r *http.Request) {
	raw := r.PostFormValue("footer_links_json")
	if raw == "" {
		raw = "[]"
	}
	var links []settings.FooterLink
	if err := json.Unmarshal([]byte(raw), &links); err != nil {
		fail(w, "Footer link data is malformed.")
		return
	}
	if err := settings.ValidateFooterLinks(links); err != nil {
		fail(w, err.Error())
		return
	}

	site, err := s.settings.Site()
	if err != nil {
		zap.L().Error("site settings read failed", zap.Error(err))
		fail(w, "Could not read footer settings.")
		return
	}
	site.FooterLinks = settings.NormalizeFooterLinks(links)
	site.FooterAnalyticsCode = strings.TrimSpace(r.PostFormValue("footer_analytics_code"))
	if err := s.settings.SaveSite(site); err != nil {
		zap.L().Error("footer settings save failed", zap.Error(err))
		fail(w, "Could not save footer settings.")
		return
	}
	ok(w, "Footer settings saved.", nil)
}

func (s *Server) testEmail(w http.ResponseWriter, r *http.Request) {
	to := strings.TrimSpace(r.PostFormValue("to"))
	if !validEmailField(to) {
		fail(w, "The test recipient address is not a valid email.")
		return
	}

	var b mailer.Branding
	if site, err := s.settings.Site(); err == nil {
		b.SiteName = site.SiteName
	}
	res := s.mail.TestEmail(r.Context(), b, to)
	writeJSON(w, http.StatusOK, res)
}

/*──────────────────────────── domain actions ──────────────────────────────*/

// formRecord shapes the shared add/update fields into a Record.
func formRecord(r *http.Request, key string) *domain.Record {
	title := strings.TrimSpace(r.PostFormValue("title"))
	if title == "" {
		title = key
	}
	theme := strings.TrimSpace(r.PostFormValue("theme_color"))
	if theme == "" {
		theme = domain.DefaultThemeColor
	}
	return &domain.Record{
		Domain:      key,
		Title:       title,
		Description: strings.TrimSpace(r.PostFormValue("description")),
		ThemeColor:  theme,
		Intro:       strings.TrimSpace(r.PostFormValue("domain_intro")),
		Price:       strings.TrimSpace(r.PostFormValue("domain_price")),
		IsActive:    true,
	}
}

func formID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PostFormValue("id"), 10, 64)
	return id, err == nil && id > 0
}

func (s *Server) addDomain(w http.ResponseWriter, r *http.Request) {
	key := domain.Normalize(r.PostFormValue("domain"))
	if !domain.Valid(key) {
		fail(w, "Invalid domain name.")
		return
	}

	exists, err := s.domains.Exists(r.Context(), key, 0)
	if err != nil {
		zap.L().Error("domain existence check failed", zap.Error(err))
		fail(w, "Could not add the domain.")
		return
	}
	if exists {
		fail(w, "This domain is already configured.")
		return
	}

	id, err := s.domains.Insert(r.Context(), formRecord(r, key))
	if err != nil {
		zap.L().Error("domain insert failed", zap.String("domain", key), zap.Error(err))
		fail(w, "Could not add the domain.")
		return
	}
	s.sites.Invalidate(key)
	ok(w, "Domain added.", map[string]int64{"id": id})
}

func (s *Server) updateDomain(w http.ResponseWriter, r *http.Request) {
	id, valid := formID(r)
	if !valid {
		fail(w, "Missing domain ID.")
		return
	}
	existing, err := s.domains.ByID(r.Context(), id)
	if err != nil {
		s.domainLookupError(w, err)
		return
	}

	rec := formRecord(r, existing.Domain)
	rec.ID = id
	rec.IsActive = existing.IsActive
	if err := s.domains.Update(r.Context(), rec); err != nil {
		zap.L().Error("domain update failed", zap.Int64("id", id), zap.Error(err))
		fail(w, "Could not update the domain.")
		return
	}
	s.sites.Invalidate(existing.Domain)
	ok(w, "Domain updated.", nil)
}

func (s *Server) deleteDomain(w http.ResponseWriter, r *http.Request) {
	id, valid := formID(r)
	if !valid {
		fail(w, "Missing domain ID.")
		return
	}
	existing, err := s.domains.ByID(r.Context(), id)
	if err != nil {
		s.domainLookupError(w, err)
		return
	}

	if err := s.domains.Delete(r.Context(), id); err != nil {
		zap.L().Error("domain delete failed", zap.Int64("id", id), zap.Error(err))
		fail(w, "Could not delete the domain.")
		return
	}
	if err := s.tracker.DeleteForDomain(r.Context(), existing.Domain); err != nil {
		zap.L().Warn("visit purge failed", zap.String("domain", existing.Domain), zap.Error(err))
	}
	s.sites.Invalidate(existing.Domain)
	ok(w, "Domain deleted.", nil)
}

func (s *Server) toggleDomain(w http.ResponseWriter, r *http.Request) {
	id, valid := formID(r)
	if !valid {
		fail(w, "Missing domain ID.")
		return
	}
	existing, err := s.domains.ByID(r.Context(), id)
	if err != nil {
		s.domainLookupError(w, err)
		return
	}

	if err := s.domains.ToggleActive(r.Context(), id); err != nil {
		zap.L().Error("domain toggle failed", zap.Int64("id", id), zap.Error(err))
		fail(w, "Could not change the domain status.")
		return
	}
	s.sites.Invalidate(existing.Domain)
	ok(w, "Domain status updated.", nil)
}

func (s *Server) getDomain(w http.ResponseWriter, r *http.Request) {
	id, valid := formID(r)
	if !valid {
		fail(w, "Missing domain ID.")
		return
	}
	rec, err := s.domains.ByID(r.Context(), id)
	if err != nil {
		s.domainLookupError(w, err)
		return
	}
	ok(w, "", rec)
}

func (s *Server) domainLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		fail(w, "Domain not found.")
		return
	}
	zap.L().Error("domain lookup failed", zap.Error(err))
	fail(w, "Could not load the domain.")
}

/*──────────────────────────── listing actions ─────────────────────────────*/

// clampPerPage bounds the page size to the 10..50 window.
func clampPerPage(n int) int {
	if n < 10 {
		return 10
	}
	if n > 50 {
		return 50
	}
	return n
}

func (s *Server) listDomains(w http.ResponseWriter, r *http.Request) {
	perPage, err := strconv.Atoi(r.FormValue("per_page"))
	if err != nil {
		perPage = 10
	}
	perPage = clampPerPage(perPage)

	page, err := strconv.Atoi(r.FormValue("page"))
	if err != nil || page < 1 {
		page = 1
	}

	all, err := s.domains.All(r.Context(), false)
	if err != nil {
		zap.L().Error("domain list failed", zap.Error(err))
		fail(w, "Could not list domains.")
		return
	}

	total := len(all)
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}

	ok(w, "", map[string]any{
		"domains":  all[start:end],
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}

func (s *Server) domainStats(w http.ResponseWriter, r *http.Request) {
	days, err := strconv.Atoi(r.FormValue("days"))
	if err != nil {
		days = 30
	}
	days = stats.ClampDays(days)

	rows, err := s.tracker.AllDomains(r.Context(), days)
	if err != nil {
		zap.L().Error("domain stats failed", zap.Error(err))
		fail(w, "Could not load visit statistics.")
		return
	}
	ok(w, "", map[string]any{"domains": rows, "days": days})
}
