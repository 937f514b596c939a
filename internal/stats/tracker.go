// internal/stats/tracker.go
//
// Per-domain visit logging.
//
// Context
// -------
// Every public page view lands here.  The tracker filters out back
// office, API, static-asset, and bot traffic, then suppresses repeats
// with two layers: an in-process marker keyed by an md5 fingerprint of
// (domain, uri, ip, user agent, minute), and a store check for the same
// (domain, uri, ip) within the last three seconds.  What survives is one
// row in the `logs` table, which lives in its own SQLite file so heavy
// traffic never contends with catalog writes.
//
// Notes
// -----
// Country resolution is best effort.  When a GeoLite2 database is
// configured the visitor IP is mapped to an ISO country code; otherwise
// the column stays empty.
package stats

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/avct/uasurfer"
	"github.com/jmoiron/sqlx"
	"github.com/oschwald/geoip2-golang"
	"go.uber.org/zap"

	"github.com/gentpan/NameDeal/internal/domain"
	"github.com/gentpan/NameDeal/internal/metrics"
)

const (
	markerTTL   = 5 * time.Minute
	burstWindow = 3 * time.Second
	timeLayout  = "2006-01-02 15:04:05"
)

const schema = `
CREATE TABLE IF NOT EXISTS logs (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    domain     TEXT NOT NULL,
    uri        TEXT,
    ip         TEXT,
    user_agent TEXT,
    referer    TEXT,
    country    TEXT DEFAULT '',
    time       TEXT NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_logs_domain ON logs(domain);
CREATE INDEX IF NOT EXISTS idx_logs_time ON logs(time);
CREATE INDEX IF NOT EXISTS idx_logs_created_at ON logs(created_at)`

var staticExtensions = []string{
	".css", ".js", ".jpg", ".jpeg", ".png", ".gif", ".svg",
	".ico", ".woff", ".woff2", ".ttf", ".eot",
}

var botHints = []string{"bot", "crawler", "spider", "scraper"}

// Visit is one page view as seen by the HTTP layer.
type Visit struct {
	Domain    string
	URI       string
	IP        string
	UserAgent string
	Referer   string
}

// Tracker writes and aggregates the visit log.
type Tracker struct {
	db  *sqlx.DB
	geo *geoip2.Reader
	now func() time.Time

	mu        sync.Mutex
	markers   map[string]int64
	lastSweep time.Time
}

// NewTracker creates the logs table and optionally opens a GeoLite2
// database.  A missing or unreadable geo database is logged and ignored.
func NewTracker(db *sqlx.DB, geoPath string) (*Tracker, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}
	t := &Tracker{
		db:      db,
		now:     time.Now,
		markers: make(map[string]int64),
	}
	if geoPath != "" {
		geo, err := geoip2.Open(geoPath)
		if err != nil {
			zap.L().Warn("geo database unavailable, country lookup disabled",
				zap.String("path", geoPath),
				zap.Error(err))
		} else {
			t.geo = geo
		}
	}
	return t, nil
}

// Close releases the geo reader.  The shared DB handle stays open.
func (t *Tracker) Close() {
	if t.geo != nil {
		_ = t.geo.Close()
	}
}

// Track records one visit.  It returns true only when a row was written.
func (t *Tracker) Track(ctx context.Context, v Visit) bool {
	v.Domain = domain.Normalize(v.Domain)

	if reason := skipReason(v.URI, v.UserAgent); reason != "" {
		metrics.VisitsSkipped.WithLabelValues(reason).Inc()
		return false
	}

	now := t.now()
	fp := fingerprint(v, now)
	if t.seenThisMinute(fp, now) {
		metrics.VisitsSkipped.WithLabelValues("repeat_minute").Inc()
		return false
	}

	// Catches concurrent requests and rapid refreshes that straddle a
	// minute boundary.
	since := now.UTC().Add(-burstWindow).Format(timeLayout)
	var n int
	const dupQ = `
        SELECT COUNT(*) FROM logs
        WHERE domain = ? AND uri = ? AND ip = ? AND created_at >= ?`
	if err := t.db.GetContext(ctx, &n, dupQ, v.Domain, v.URI, v.IP, since); err != nil {
		zap.L().Error("visit dedup check failed", zap.Error(err))
		return false
	}
	if n > 0 {
		metrics.VisitsSkipped.WithLabelValues("repeat_burst").Inc()
		return false
	}

	const insQ = `
        INSERT INTO logs (domain, uri, ip, user_agent, referer, country, time)
        VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := t.db.ExecContext(ctx, insQ,
		v.Domain, v.URI, v.IP, v.UserAgent, v.Referer,
		t.country(v.IP), now.UTC().Format(timeLayout))
	if err != nil {
		zap.L().Error("visit insert failed", zap.Error(err))
		return false
	}

	t.mark(fp, now)
	metrics.VisitsTracked.Inc()
	return true
}

// skipReason classifies traffic the log should never contain.
func skipReason(uri, userAgent string) string {
	path := uri
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if strings.HasPrefix(path, "/admin") {
		return "admin"
	}
	if strings.Contains(path, "/api/") {
		return "api"
	}
	lower := strings.ToLower(path)
	for _, ext := range staticExtensions {
		if strings.HasSuffix(lower, ext) {
			return "static"
		}
	}
	ua := strings.ToLower(userAgent)
	for _, hint := range botHints {
		if strings.Contains(ua, hint) {
			return "bot"
		}
	}
	if uasurfer.Parse(userAgent).IsBot() {
		return "bot"
	}
	return ""
}

func fingerprint(v Visit, now time.Time) string {
	sum := md5.Sum([]byte(v.Domain + v.URI + v.IP + v.UserAgent + now.UTC().Format("2006-01-02 15:04")))
	return hex.EncodeToString(sum[:])
}

// seenThisMinute checks the marker map without mutating it.
func (t *Tracker) seenThisMinute(fp string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.markers[fp]
	return ok
}

// mark records fp and opportunistically sweeps stale markers.
func (t *Tracker) mark(fp string, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.markers[fp] = now.Unix()
	if now.Sub(t.lastSweep) >= markerTTL {
		cutoff := now.Add(-markerTTL).Unix()
		for k, at := range t.markers {
			if at < cutoff {
				delete(t.markers, k)
			}
		}
		t.lastSweep = now
	}
}

// country maps ip to an ISO country code, or "" when unresolvable.
func (t *Tracker) country(ip string) string {
	if t.geo == nil {
		return ""
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}
	rec, err := t.geo.Country(parsed)
	if err != nil || rec == nil {
		return ""
	}
	return rec.Country.IsoCode
}
