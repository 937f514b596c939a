// internal/settings/site.go
//
// Site-settings document: admin credential, display name, footer.
//
// Password storage
// ----------------
// The admin password is persisted as a bcrypt hash.  Installations migrated
// from older releases may still carry a plaintext `admin_password`; it is
// honoured (constant-time compare) until the first successful login, at
// which point the caller rehashes it via SetAdminPassword and the plaintext
// field is dropped.  A fresh install with neither field accepts the
// well-known bootstrap password so the operator can reach the back office
// and set a real one.
package settings

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// legacyBootstrapPassword is only accepted while no password has ever been
// saved.  First login rehashes it like any other legacy value.
const legacyBootstrapPassword = "12345678"

// Site is the singleton site-settings document.
type Site struct {
	AdminPasswordHash   string       `json:"admin_password_hash,omitempty"`
	AdminPassword       string       `json:"admin_password,omitempty"` // legacy plaintext, removed on migration
	SiteName            string       `json:"site_name"`
	FooterLinks         []FooterLink `json:"footer_links,omitempty"`
	FooterAnalyticsCode string       `json:"footer_analytics_code,omitempty"`
}

// Site returns the current document; a missing file yields the zero value.
func (s *Store) Site() (Site, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out Site
	err := s.readJSON(siteFile, &out)
	return out, err
}

// SaveSite replaces the document.  Callers read, mutate, and save so fields
// they do not touch survive.
func (s *Store) SaveSite(site Site) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeJSON(siteFile, site)
}

// VerifyAdminPassword checks input against the stored credential.  legacy
// reports that the match came from a plaintext value and the caller should
// migrate it to a hash.
func (s *Store) VerifyAdminPassword(input string) (ok, legacy bool) {
	site, err := s.Site()
	if err != nil {
		return false, false
	}

	if site.AdminPasswordHash != "" {
		err := bcrypt.CompareHashAndPassword([]byte(site.AdminPasswordHash), []byte(input))
		return err == nil, false
	}

	stored := site.AdminPassword
	if stored == "" {
		stored = legacyBootstrapPassword
	}
	ok = subtle.ConstantTimeCompare([]byte(stored), []byte(input)) == 1
	return ok, ok
}

// SetAdminPassword hashes plain with bcrypt, stores the hash, and drops any
// legacy plaintext field.
func (s *Store) SetAdminPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	site, err := s.Site()
	if err != nil {
		return err
	}
	site.AdminPasswordHash = string(hash)
	site.AdminPassword = ""
	return s.SaveSite(site)
}

// PasswordSet reports whether any credential beyond the bootstrap default
// has been stored.
func (s *Store) PasswordSet() bool {
	site, err := s.Site()
	if err != nil {
		return false
	}
	return site.AdminPasswordHash != "" || site.AdminPassword != ""
}
