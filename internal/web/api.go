// internal/web/api.go
//
// Open JSON endpoints consumed by the parking page itself and by
// external tooling: per-domain visit stats and WHOIS lookups.
package web

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/gentpan/NameDeal/internal/domain"
	"github.com/gentpan/NameDeal/internal/whois"
)

// handleStatsAPI serves GET /api/stats?domain=&days=.  The domain defaults
// to the requesting host so the page can ask about itself without knowing
// its own name.
func (s *Server) handleStatsAPI(w http.ResponseWriter, r *http.Request) {
	dom := r.URL.Query().Get("domain")
	if dom == "" {
		dom = r.Host
	}
	if dom == "" {
		fail(w, "Missing domain parameter.")
		return
	}

	days, err := strconv.Atoi(r.URL.Query().Get("days"))
	if err != nil || days < 1 || days > 365 {
		days = 30
	}

	sum, err := s.tracker.Summary(r.Context(), dom, days)
	if err != nil {
		zap.L().Error("stats query failed", zap.String("domain", dom), zap.Error(err))
		fail(w, "Could not load visit statistics.")
		return
	}
	ok(w, "", sum)
}

// handleWhoisAPI serves GET /api/whois?domain=.  Unlike the form
// endpoints it answers with the bare result document, and errors carry
// real HTTP status codes.
func (s *Server) handleWhoisAPI(w http.ResponseWriter, r *http.Request) {
	dom := whois.NormalizeQuery(r.URL.Query().Get("domain"))
	if !domain.Valid(dom) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid domain parameter"})
		return
	}

	res, err := s.whois.Lookup(r.Context(), dom)
	if err != nil {
		zap.L().Warn("whois lookup failed", zap.String("domain", dom), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "WHOIS query failed"})
		return
	}
	writeJSON(w, http.StatusOK, res)
}
