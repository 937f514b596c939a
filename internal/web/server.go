// internal/web/server.go
//
// HTTP surface wiring.
//
// Context
// -------
// Server owns every handler in the service: the public parking page with
// its form actions, the back office JSON API, and the open stats/WHOIS
// endpoints.  Collaborators that perform I/O behind the handlers are held
// as small interfaces so handler tests can swap in fakes; the stores the
// handlers query directly stay concrete.
package web

import (
	"context"

	"github.com/gentpan/NameDeal/internal/domain"
	"github.com/gentpan/NameDeal/internal/mailer"
	"github.com/gentpan/NameDeal/internal/settings"
	"github.com/gentpan/NameDeal/internal/stats"
	"github.com/gentpan/NameDeal/internal/tenant"
	"github.com/gentpan/NameDeal/internal/verification"
	"github.com/gentpan/NameDeal/internal/whois"
)

// mailService is the slice of *mailer.Mailer the handlers use.
type mailService interface {
	ContactFlow(ctx context.Context, b mailer.Branding, form mailer.ContactForm) mailer.Result
	TestEmail(ctx context.Context, b mailer.Branding, to string) mailer.Result
}

// codeService is satisfied by *verification.Service.
type codeService interface {
	Send(ctx context.Context, b mailer.Branding, email string) verification.SendResult
	Verify(email, code string) verification.VerifyResult
	IsVerified(email string) bool
}

// visitTracker is satisfied by *stats.Tracker.
type visitTracker interface {
	Track(ctx context.Context, v stats.Visit) bool
	Summary(ctx context.Context, dom string, days int) (stats.Summary, error)
	AllDomains(ctx context.Context, days int) ([]stats.DomainSummary, error)
	DeleteForDomain(ctx context.Context, dom string) error
}

// whoisLookup is satisfied by *whois.Client.
type whoisLookup interface {
	Lookup(ctx context.Context, dom string) (whois.Result, error)
}

// Server carries every dependency the handlers touch.
type Server struct {
	sites    *tenant.Cache
	domains  *domain.Store
	settings *settings.Store
	mail     mailService
	codes    codeService
	tracker  visitTracker
	whois    whoisLookup
}

// New assembles the handler set.
func New(
	sites *tenant.Cache,
	domains *domain.Store,
	st *settings.Store,
	mail mailService,
	codes codeService,
	tracker visitTracker,
	wh whoisLookup,
) *Server {
	return &Server{
		sites:    sites,
		domains:  domains,
		settings: st,
		mail:     mail,
		codes:    codes,
		tracker:  tracker,
		whois:    wh,
	}
}
