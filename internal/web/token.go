// internal/web/token.go
//
// Stateless signed tokens for the admin session and CSRF protection.
//
// Context
// -------
// Both concerns use the same construction:
//
//	base64url( nonce | unixMicro | HMAC_SHA256(secret, purpose+nonce+unixMicro) )
//
//   - nonce: 16 random bytes, prevents replay across users
//   - unixMicro: 8 bytes big-endian, bounds token lifetime
//   - HMAC: keyed with the process secret and a purpose label, so a
//     CSRF token can never pass as a session and vice versa
//
// No server-side session store is required, which keeps the back office
// restart-safe and multi-instance friendly.
//
// Workflow
//   - issueToken(purpose)        → token string
//   - verifyToken(purpose, tok)  → constant-time verify, false on any failure
package web

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	tokenBytes   = 16 + 8 + sha256.Size // nonce + ts + sig
	secretEnvKey = "NAMEDEAL_SECRET_KEY"

	purposeSession = "session"
	purposeCSRF    = "csrf"

	sessionMaxAge = 12 * time.Hour
	csrfMaxAge    = 2 * time.Hour
)

var (
	secretOnce sync.Once
	secretKey  []byte
)

func tokenMaxAge(purpose string) time.Duration {
	if purpose == purposeSession {
		return sessionMaxAge
	}
	return csrfMaxAge
}

// issueToken creates a fresh signed token for purpose.
func issueToken(purpose string) (string, error) {
	sec := fetchSecret()

	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(time.Now().UnixMicro()))

	mac := hmac.New(sha256.New, sec)
	mac.Write([]byte(purpose))
	mac.Write(nonce)
	mac.Write(ts)
	sig := mac.Sum(nil)

	buf := make([]byte, 0, tokenBytes)
	buf = append(buf, nonce...)
	buf = append(buf, ts...)
	buf = append(buf, sig...)

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// verifyToken returns true when tok passes HMAC and age checks.
func verifyToken(purpose, tok string) bool {
	sec := fetchSecret()

	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil || len(raw) != tokenBytes {
		return false
	}

	nonce := raw[:16]
	tsBytes := raw[16:24]
	sig := raw[24:]

	ts := binary.BigEndian.Uint64(tsBytes)
	issued := time.UnixMicro(int64(ts))
	if time.Since(issued) > tokenMaxAge(purpose) || time.Until(issued) > time.Minute {
		return false
	}

	mac := hmac.New(sha256.New, sec)
	mac.Write([]byte(purpose))
	mac.Write(nonce)
	mac.Write(tsBytes)
	want := mac.Sum(nil)

	return hmac.Equal(sig, want)
}

// fetchSecret loads the process-wide token secret once.  Set
// NAMEDEAL_SECRET_KEY to a base64url string of at least 32 bytes in
// production; the random fallback invalidates sessions on restart.
func fetchSecret() []byte {
	secretOnce.Do(func() {
		if env := os.Getenv(secretEnvKey); env != "" {
			if b, err := base64.RawURLEncoding.DecodeString(env); err == nil && len(b) >= 32 {
				secretKey = b
				return
			}
		}
		secretKey = make([]byte, 32)
		_, _ = rand.Read(secretKey)
		zap.L().Warn("NAMEDEAL_SECRET_KEY not set, using a random key")
	})
	return secretKey
}
