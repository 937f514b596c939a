package stats

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

const browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

func newMockTracker(t *testing.T) (*Tracker, sqlmock.Sqlmock, *time.Time) {
	t.Helper()
	raw, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { raw.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS logs").
		WillReturnResult(sqlmock.NewResult(0, 0))

	tr, err := NewTracker(sqlx.NewDb(raw, "sqlite3"), "")
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return now }
	return tr, mock, &now
}

func visit() Visit {
	return Visit{
		Domain:    "example.com",
		URI:       "/",
		IP:        "203.0.113.9",
		UserAgent: browserUA,
		Referer:   "https://search.test/",
	}
}

func expectDedupAndInsert(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM logs`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("INSERT INTO logs").
		WillReturnResult(sqlmock.NewResult(1, 1))
}

func TestTrackWritesRow(t *testing.T) {
	tr, mock, _ := newMockTracker(t)
	expectDedupAndInsert(mock)

	if !tr.Track(context.Background(), visit()) {
		t.Fatal("visit should be recorded")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestTrackSameMinuteRepeatSkipsStore(t *testing.T) {
	tr, mock, now := newMockTracker(t)
	expectDedupAndInsert(mock)

	if !tr.Track(context.Background(), visit()) {
		t.Fatal("first visit should be recorded")
	}
	// 30 seconds later, same minute: the in-process marker must short
	// circuit before any store traffic.
	*now = now.Add(30 * time.Second)
	if tr.Track(context.Background(), visit()) {
		t.Fatal("repeat within the minute should be suppressed")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestTrackBurstAcrossMinuteBoundary(t *testing.T) {
	tr, mock, now := newMockTracker(t)
	*now = time.Date(2026, 3, 1, 12, 0, 58, 0, time.UTC)
	expectDedupAndInsert(mock)

	if !tr.Track(context.Background(), visit()) {
		t.Fatal("first visit should be recorded")
	}

	// Two seconds later the minute changed, so the marker misses and
	// the three-second store check must catch the repeat.
	*now = time.Date(2026, 3, 1, 12, 1, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM logs`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	if tr.Track(context.Background(), visit()) {
		t.Fatal("burst repeat should be suppressed")
	}

	// Five seconds after the first row the window has passed.
	*now = time.Date(2026, 3, 1, 12, 1, 3, 0, time.UTC)
	expectDedupAndInsert(mock)
	if !tr.Track(context.Background(), visit()) {
		t.Fatal("visit outside the burst window should be recorded")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestTrackFilters(t *testing.T) {
	tr, mock, _ := newMockTracker(t)

	cases := []struct {
		name string
		v    Visit
	}{
		{"admin path", Visit{Domain: "example.com", URI: "/admin/login", IP: "1.2.3.4", UserAgent: browserUA}},
		{"api path", Visit{Domain: "example.com", URI: "/api/stats", IP: "1.2.3.4", UserAgent: browserUA}},
		{"stylesheet", Visit{Domain: "example.com", URI: "/assets/site.css", IP: "1.2.3.4", UserAgent: browserUA}},
		{"font", Visit{Domain: "example.com", URI: "/assets/inter.woff2", IP: "1.2.3.4", UserAgent: browserUA}},
		{"named bot", Visit{Domain: "example.com", URI: "/", IP: "1.2.3.4", UserAgent: "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"}},
		{"scraper", Visit{Domain: "example.com", URI: "/", IP: "1.2.3.4", UserAgent: "my-scraper/1.0"}},
	}
	for _, tc := range cases {
		if tr.Track(context.Background(), tc.v) {
			t.Errorf("%s should be filtered", tc.name)
		}
	}
	// None of the filtered visits may touch the store.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestTrackNormalizesDomain(t *testing.T) {
	tr, mock, _ := newMockTracker(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM logs`).
		WithArgs("example.com", "/", "203.0.113.9", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("INSERT INTO logs").
		WillReturnResult(sqlmock.NewResult(1, 1))

	v := visit()
	v.Domain = "WWW.Example.com:8080"
	if !tr.Track(context.Background(), v) {
		t.Fatal("visit should be recorded")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSummary(t *testing.T) {
	tr, mock, _ := newMockTracker(t)

	mock.ExpectQuery(regexp.QuoteMeta(`COUNT(DISTINCT ip) AS unique_ips`)).
		WithArgs("example.com", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"total_visits", "unique_ips"}).AddRow(120, 45))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM logs`).
		WithArgs("example.com", "2026-03-01 00:00:00").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	sum, err := tr.Summary(context.Background(), "www.example.com", 30)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.Domain != "example.com" {
		t.Errorf("Domain = %q", sum.Domain)
	}
	if sum.TotalVisits != 120 || sum.UniqueIPs != 45 || sum.TodayVisits != 7 {
		t.Errorf("summary = %+v", sum)
	}
	if sum.PeriodDays != 30 {
		t.Errorf("PeriodDays = %d", sum.PeriodDays)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestAllDomains(t *testing.T) {
	tr, mock, _ := newMockTracker(t)

	mock.ExpectQuery("GROUP BY domain").
		WillReturnRows(sqlmock.NewRows([]string{"domain", "total_visits", "unique_ips", "last_visit"}).
			AddRow("example.com", 120, 45, "2026-03-01 11:59:00").
			AddRow("other.test", 3, 2, "2026-02-27 08:00:00"))

	rows, err := tr.AllDomains(context.Background(), 30)
	if err != nil {
		t.Fatalf("AllDomains: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[0].Domain != "example.com" || rows[0].LastVisit != "2026-03-01 11:59:00" {
		t.Errorf("first row = %+v", rows[0])
	}
}

func TestDeleteForDomain(t *testing.T) {
	tr, mock, _ := newMockTracker(t)

	mock.ExpectExec("DELETE FROM logs WHERE domain").
		WithArgs("example.com").
		WillReturnResult(sqlmock.NewResult(0, 12))

	if err := tr.DeleteForDomain(context.Background(), "www.example.com"); err != nil {
		t.Fatalf("DeleteForDomain: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestClampDays(t *testing.T) {
	cases := map[int]int{0: 30, -4: 30, 1: 1, 30: 30, 365: 365, 900: 365}
	for in, want := range cases {
		if got := ClampDays(in); got != want {
			t.Errorf("ClampDays(%d) = %d, want %d", in, got, want)
		}
	}
}
