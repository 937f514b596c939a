package settings

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestSiteRoundTripPreservesUntouchedFields(t *testing.T) {
	s := newTestStore(t)

	if err := s.SaveSite(Site{SiteName: "DOMAIN.LS", FooterAnalyticsCode: "<!-- ga -->"}); err != nil {
		t.Fatalf("SaveSite: %v", err)
	}

	// Read-modify-write the way handlers do: only the name changes.
	site, err := s.Site()
	if err != nil {
		t.Fatalf("Site: %v", err)
	}
	site.SiteName = "NameDeal"
	if err := s.SaveSite(site); err != nil {
		t.Fatalf("SaveSite: %v", err)
	}

	got, _ := s.Site()
	if got.SiteName != "NameDeal" {
		t.Errorf("SiteName = %q", got.SiteName)
	}
	if got.FooterAnalyticsCode != "<!-- ga -->" {
		t.Errorf("analytics code lost on save: %q", got.FooterAnalyticsCode)
	}
}

func TestMissingFilesYieldZeroValues(t *testing.T) {
	s := newTestStore(t)

	site, err := s.Site()
	if err != nil {
		t.Fatalf("Site on empty dir: %v", err)
	}
	if site.SiteName != "" {
		t.Errorf("unexpected site name %q", site.SiteName)
	}

	email, err := s.Email()
	if err != nil {
		t.Fatalf("Email on empty dir: %v", err)
	}
	if email.SMTPPort != 587 || email.SMTPEncryption != EncryptionTLS {
		t.Errorf("defaults not applied: %+v", email)
	}
}

func TestVerifyAdminPasswordBootstrap(t *testing.T) {
	s := newTestStore(t)

	ok, legacy := s.VerifyAdminPassword("12345678")
	if !ok || !legacy {
		t.Fatalf("bootstrap password: ok=%v legacy=%v", ok, legacy)
	}
	if ok, _ := s.VerifyAdminPassword("wrong"); ok {
		t.Fatal("wrong password accepted")
	}
}

func TestLegacyMigration(t *testing.T) {
	s := newTestStore(t)

	if err := s.SaveSite(Site{AdminPassword: "old-secret", SiteName: "X"}); err != nil {
		t.Fatalf("SaveSite: %v", err)
	}

	ok, legacy := s.VerifyAdminPassword("old-secret")
	if !ok || !legacy {
		t.Fatalf("legacy verify: ok=%v legacy=%v", ok, legacy)
	}

	if err := s.SetAdminPassword("old-secret"); err != nil {
		t.Fatalf("SetAdminPassword: %v", err)
	}

	site, _ := s.Site()
	if site.AdminPassword != "" {
		t.Error("plaintext password survived migration")
	}
	if site.AdminPasswordHash == "" {
		t.Fatal("hash not stored")
	}
	if site.SiteName != "X" {
		t.Error("unrelated field lost during migration")
	}

	ok, legacy = s.VerifyAdminPassword("old-secret")
	if !ok || legacy {
		t.Fatalf("post-migration verify: ok=%v legacy=%v", ok, legacy)
	}
}

func TestAtomicWriteLeavesNoTempFiles(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveEmail(Email{FromEmail: "noreply@example.com"}); err != nil {
		t.Fatalf("SaveEmail: %v", err)
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".json" {
			t.Errorf("leftover file %q", e.Name())
		}
	}
}
