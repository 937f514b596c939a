// internal/web/web_test.go
//
// Shared harness for the handler tests: fake collaborators behind the
// Server interfaces, a sqlmock-backed catalog, and request helpers.
//
// Run: go test ./internal/web -v
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/gentpan/NameDeal/internal/domain"
	"github.com/gentpan/NameDeal/internal/mailer"
	"github.com/gentpan/NameDeal/internal/settings"
	"github.com/gentpan/NameDeal/internal/stats"
	"github.com/gentpan/NameDeal/internal/tenant"
	"github.com/gentpan/NameDeal/internal/verification"
	"github.com/gentpan/NameDeal/internal/whois"
)

/*──────────────────────────── fakes ───────────────────────────────────────*/

type fakeMail struct {
	contactForms []mailer.ContactForm
	contactRes   mailer.Result
	testTo       []string
	testRes      mailer.Result
}

func (f *fakeMail) ContactFlow(_ context.Context, _ mailer.Branding, form mailer.ContactForm) mailer.Result {
	f.contactForms = append(f.contactForms, form)
	return f.contactRes
}

func (f *fakeMail) TestEmail(_ context.Context, _ mailer.Branding, to string) mailer.Result {
	f.testTo = append(f.testTo, to)
	return f.testRes
}

type fakeCodes struct {
	sentTo    []string
	sendRes   verification.SendResult
	verifyRes verification.VerifyResult
	verified  map[string]bool
}

func (f *fakeCodes) Send(_ context.Context, _ mailer.Branding, email string) verification.SendResult {
	f.sentTo = append(f.sentTo, email)
	return f.sendRes
}

func (f *fakeCodes) Verify(string, string) verification.VerifyResult { return f.verifyRes }

func (f *fakeCodes) IsVerified(email string) bool { return f.verified[email] }

type fakeTracker struct {
	visits  []stats.Visit
	sum     stats.Summary
	sumErr  error
	all     []stats.DomainSummary
	allDays []int
	deleted []string
}

func (f *fakeTracker) Track(_ context.Context, v stats.Visit) bool {
	f.visits = append(f.visits, v)
	return true
}

func (f *fakeTracker) Summary(_ context.Context, dom string, days int) (stats.Summary, error) {
	if f.sumErr != nil {
		return stats.Summary{}, f.sumErr
	}
	sum := f.sum
	sum.Domain = dom
	sum.PeriodDays = days
	return sum, nil
}

func (f *fakeTracker) AllDomains(_ context.Context, days int) ([]stats.DomainSummary, error) {
	f.allDays = append(f.allDays, days)
	return f.all, nil
}

func (f *fakeTracker) DeleteForDomain(_ context.Context, dom string) error {
	f.deleted = append(f.deleted, dom)
	return nil
}

type fakeWhois struct {
	queries []string
	res     whois.Result
	err     error
}

func (f *fakeWhois) Lookup(_ context.Context, dom string) (whois.Result, error) {
	f.queries = append(f.queries, dom)
	return f.res, f.err
}

var errFake = errors.New("backend unavailable")

// contactBrandingSpy records the branding the contact action derives from
// the resolved site.
type contactBrandingSpy struct {
	inner mailService
	got   *mailer.Branding
}

func (s contactBrandingSpy) ContactFlow(ctx context.Context, b mailer.Branding, form mailer.ContactForm) mailer.Result {
	*s.got = b
	return s.inner.ContactFlow(ctx, b, form)
}

func (s contactBrandingSpy) TestEmail(ctx context.Context, b mailer.Branding, to string) mailer.Result {
	return s.inner.TestEmail(ctx, b, to)
}

/*──────────────────────────── harness ─────────────────────────────────────*/

type testEnv struct {
	srv     *Server
	handler http.Handler
	mock    sqlmock.Sqlmock
	st      *settings.Store
	mail    *fakeMail
	codes   *fakeCodes
	tracker *fakeTracker
	whois   *fakeWhois
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { raw.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS domains").
		WillReturnResult(sqlmock.NewResult(0, 0))
	domains, err := domain.NewStore(sqlx.NewDb(raw, "sqlite3"))
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	st, err := settings.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("settings: %v", err)
	}

	sites := tenant.New(domains, st, tenant.IdleTTL, tenant.MaxEntries)
	t.Cleanup(sites.Close)

	env := &testEnv{
		mock:    mock,
		st:      st,
		mail:    &fakeMail{contactRes: mailer.Result{Success: true, Message: "Email sent (SMTP)."}},
		codes:   &fakeCodes{verified: map[string]bool{}},
		tracker: &fakeTracker{},
		whois:   &fakeWhois{},
	}
	env.srv = New(sites, domains, st, env.mail, env.codes, env.tracker, env.whois)
	env.handler = env.srv.Router()
	return env
}

func recordColumns() []string {
	return []string{"id", "domain", "title", "description", "theme_color",
		"domain_intro", "domain_price", "is_active", "created_at", "updated_at"}
}

// expectSiteLookup queues the catalog query the tenant cache issues on a
// cold host.
func (e *testEnv) expectSiteLookup(key string, rows *sqlmock.Rows) {
	e.mock.ExpectQuery(`SELECT .+ FROM\s+domains\s+WHERE\s+domain = \?`).
		WithArgs(key).
		WillReturnRows(rows)
}

func exampleRow() *sqlmock.Rows {
	return sqlmock.NewRows(recordColumns()).
		AddRow(7, "example.com", "Example Domain", "A fine name", "#112233",
			"Short and brandable.", "1500", true,
			"2025-01-01 00:00:00", "2025-01-01 00:00:00")
}

/*──────────────────────────── request helpers ─────────────────────────────*/

func postForm(handler http.Handler, target string, form url.Values, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Host = "example.com"
	for _, m := range mutate {
		m(req)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func get(handler http.Handler, target string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Host = "example.com"
	for _, m := range mutate {
		m(req)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// asAdmin attaches a valid session cookie and CSRF header.
func asAdmin(t *testing.T) func(*http.Request) {
	t.Helper()
	session, err := issueToken(purposeSession)
	if err != nil {
		t.Fatalf("session token: %v", err)
	}
	csrf, err := issueToken(purposeCSRF)
	if err != nil {
		t.Fatalf("csrf token: %v", err)
	}
	return func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: sessionCookie, Value: session})
		r.Header.Set("X-CSRF-Token", csrf)
	}
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return env
}
