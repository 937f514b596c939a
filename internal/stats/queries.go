// internal/stats/queries.go
//
// Read-side aggregates over the visit log.  Back office and API traffic
// is filtered on insert as well, but the aggregates exclude it again so
// historical rows from before a filter change never skew the numbers.
package stats

import (
	"context"
	"fmt"

	"github.com/gentpan/NameDeal/internal/domain"
)

// Exclusion applied to every aggregate.
const excludeClause = ` AND uri NOT LIKE '%admin%' AND uri NOT LIKE '%/api/%'`

// Summary is the per-domain aggregate served by /api/stats.
type Summary struct {
	Domain      string `json:"domain"`
	TotalVisits int    `json:"total_visits" db:"total_visits"`
	UniqueIPs   int    `json:"unique_ips" db:"unique_ips"`
	TodayVisits int    `json:"today_visits" db:"today_visits"`
	PeriodDays  int    `json:"period_days"`
}

// DomainSummary is one row of the all-domains listing.
type DomainSummary struct {
	Domain      string `json:"domain" db:"domain"`
	TotalVisits int    `json:"total_visits" db:"total_visits"`
	UniqueIPs   int    `json:"unique_ips" db:"unique_ips"`
	LastVisit   string `json:"last_visit" db:"last_visit"`
}

// Summary aggregates the last `days` days for one domain.
func (t *Tracker) Summary(ctx context.Context, dom string, days int) (Summary, error) {
	key := domain.Normalize(dom)
	out := Summary{Domain: key, PeriodDays: days}

	now := t.now().UTC()
	since := now.AddDate(0, 0, -days).Format(timeLayout)
	q := `
        SELECT COUNT(*) AS total_visits,
               COUNT(DISTINCT ip) AS unique_ips
        FROM   logs
        WHERE  domain = ? AND created_at >= ?` + excludeClause
	row := struct {
		TotalVisits int `db:"total_visits"`
		UniqueIPs   int `db:"unique_ips"`
	}{}
	if err := t.db.GetContext(ctx, &row, q, key, since); err != nil {
		return out, fmt.Errorf("stats: summary: %w", err)
	}
	out.TotalVisits = row.TotalVisits
	out.UniqueIPs = row.UniqueIPs

	midnight := now.Format("2006-01-02") + " 00:00:00"
	todayQ := `
        SELECT COUNT(*) FROM logs
        WHERE  domain = ? AND created_at >= ?` + excludeClause
	if err := t.db.GetContext(ctx, &out.TodayVisits, todayQ, key, midnight); err != nil {
		return out, fmt.Errorf("stats: today: %w", err)
	}
	return out, nil
}

// AllDomains lists every domain with traffic in the window, busiest first.
func (t *Tracker) AllDomains(ctx context.Context, days int) ([]DomainSummary, error) {
	since := t.now().UTC().AddDate(0, 0, -days).Format(timeLayout)
	q := `
        SELECT domain,
               COUNT(*) AS total_visits,
               COUNT(DISTINCT ip) AS unique_ips,
               MAX(created_at) AS last_visit
        FROM   logs
        WHERE  created_at >= ?` + excludeClause + `
        GROUP BY domain
        ORDER BY total_visits DESC`
	rows := make([]DomainSummary, 0, 16)
	if err := t.db.SelectContext(ctx, &rows, q, since); err != nil {
		return nil, fmt.Errorf("stats: all domains: %w", err)
	}
	return rows, nil
}

// DeleteForDomain drops every log row for a domain.  Called when the
// catalog record is removed.
func (t *Tracker) DeleteForDomain(ctx context.Context, dom string) error {
	key := domain.Normalize(dom)
	if _, err := t.db.ExecContext(ctx, `DELETE FROM logs WHERE domain = ?`, key); err != nil {
		return fmt.Errorf("stats: delete %s: %w", key, err)
	}
	return nil
}

// ClampDays bounds a requested window to something the indexes handle
// comfortably.
func ClampDays(days int) int {
	if days < 1 {
		return 30
	}
	if days > 365 {
		return 365
	}
	return days
}
