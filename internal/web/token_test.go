// internal/web/token_test.go
package web

import (
	"encoding/base64"
	"testing"
)

func TestTokenRoundTrip(t *testing.T) {
	for _, purpose := range []string{purposeSession, purposeCSRF} {
		tok, err := issueToken(purpose)
		if err != nil {
			t.Fatalf("issue %s: %v", purpose, err)
		}
		if !verifyToken(purpose, tok) {
			t.Errorf("fresh %s token rejected", purpose)
		}
	}
}

func TestTokenPurposeIsolation(t *testing.T) {
	tok, err := issueToken(purposeSession)
	if err != nil {
		t.Fatal(err)
	}
	if verifyToken(purposeCSRF, tok) {
		t.Fatal("session token accepted as csrf token")
	}
}

func TestTokenTamperRejected(t *testing.T) {
	tok, err := issueToken(purposeSession)
	if err != nil {
		t.Fatal(err)
	}
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil {
		t.Fatal(err)
	}
	raw[0] ^= 0x01
	if verifyToken(purposeSession, base64.RawURLEncoding.EncodeToString(raw)) {
		t.Fatal("tampered token accepted")
	}
}

func TestTokenGarbageRejected(t *testing.T) {
	for _, tok := range []string{"", "abc", "%%%%", base64.RawURLEncoding.EncodeToString([]byte("short"))} {
		if verifyToken(purposeSession, tok) {
			t.Errorf("garbage token %q accepted", tok)
		}
	}
}
