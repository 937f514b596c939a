// internal/web/session.go
//
// Admin session cookie helpers.  The cookie value is a signed token
// rather than a server-side session ID; logging in always mints a new
// token, which serves the same purpose as session ID regeneration.
package web

import (
	"net/http"

	"go.uber.org/zap"
)

const sessionCookie = "namedeal_admin"

// startSession sets a fresh admin session cookie.
func startSession(w http.ResponseWriter, r *http.Request) error {
	tok, err := issueToken(purposeSession)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    tok,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// endSession clears the admin session cookie.
func endSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// isAdmin reports whether the request carries a valid session cookie.
func isAdmin(r *http.Request) bool {
	c, err := r.Cookie(sessionCookie)
	if err != nil || c.Value == "" {
		return false
	}
	return verifyToken(purposeSession, c.Value)
}

// requireAdmin guards the back office JSON surface.
func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isAdmin(r) {
			writeJSON(w, http.StatusUnauthorized, envelope{Success: false, Message: "Not logged in."})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireCSRF checks the token on state-changing admin requests.  The
// token is accepted from the X-CSRF-Token header or the csrf_token form
// field.
func requireCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := r.Header.Get("X-CSRF-Token")
		if tok == "" {
			tok = r.PostFormValue("csrf_token")
		}
		if !verifyToken(purposeCSRF, tok) {
			zap.L().Debug("csrf rejection", zap.String("path", r.URL.Path))
			writeJSON(w, http.StatusForbidden, envelope{Success: false, Message: "Invalid request. Refresh the page and try again."})
			return
		}
		next.ServeHTTP(w, r)
	})
}
