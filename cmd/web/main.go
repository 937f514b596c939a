// cmd/web/main.go
//
// NameDeal – HTTP entry point.
//
// Startup sequence
// ----------------
//
//  1. Load layered configuration (.env → conf/global.yaml → NAMEDEAL_*
//     environment overrides).
//
//  2. Start the daily rotating logger (tees to console when running in a
//     TTY) and install it as the zap global.
//
//  3. Open the two SQLite files under <root>/data: the domain catalog and
//     the visit log.
//
//  4. Build the service graph: settings store, tenant cache, mailer,
//     verification service, visit tracker, WHOIS client.
//
//  5. Mount the route table and serve until SIGINT/SIGTERM, then drain.
package main

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/gentpan/NameDeal/internal/config"
	"github.com/gentpan/NameDeal/internal/database"
	"github.com/gentpan/NameDeal/internal/domain"
	"github.com/gentpan/NameDeal/internal/logger"
	"github.com/gentpan/NameDeal/internal/mailer"
	"github.com/gentpan/NameDeal/internal/server"
	"github.com/gentpan/NameDeal/internal/settings"
	"github.com/gentpan/NameDeal/internal/stats"
	"github.com/gentpan/NameDeal/internal/tenant"
	"github.com/gentpan/NameDeal/internal/verification"
	"github.com/gentpan/NameDeal/internal/web"
	"github.com/gentpan/NameDeal/internal/whois"
)

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zlog, err := logger.New(cfg.Paths.Root, runningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}
	defer zlog.Sync()

	//
	// ── 1.  Storage ─────────────────────────────────────────────────────
	//
	catalogDB, err := database.Open(filepath.Join(cfg.Paths.Data, "domains.db"))
	if err != nil {
		zlog.Fatalw("open domain catalog", "err", err)
	}
	defer catalogDB.Close()

	visitDB, err := database.Open(filepath.Join(cfg.Paths.Data, "stats.db"))
	if err != nil {
		zlog.Fatalw("open visit log", "err", err)
	}
	defer visitDB.Close()

	domains, err := domain.NewStore(catalogDB)
	if err != nil {
		zlog.Fatalw("init domain catalog", "err", err)
	}
	if n, err := domains.CountActive(context.Background()); err == nil {
		zlog.Infow("domain catalog online", "active_domains", n)
	}

	st, err := settings.NewStore(cfg.Paths.Data)
	if err != nil {
		zlog.Fatalw("init settings store", "err", err)
	}

	//
	// ── 2.  Service graph ───────────────────────────────────────────────
	//
	sites := tenant.New(domains, st, tenant.IdleTTL, tenant.MaxEntries)
	defer sites.Close()

	mail := mailer.New(st, cfg.Mail.Timeout)

	codes, err := verification.New(cfg.Paths.Data, mail)
	if err != nil {
		zlog.Fatalw("init verification service", "err", err)
	}

	tracker, err := stats.NewTracker(visitDB, cfg.Geo.DBPath)
	if err != nil {
		zlog.Fatalw("init visit tracker", "err", err)
	}
	defer tracker.Close()

	wh := whois.New(cfg.Paths.Data)

	//
	// ── 3.  HTTP ────────────────────────────────────────────────────────
	//
	handler := web.New(sites, domains, st, mail, codes, tracker, wh).Router()
	srv := server.New(cfg.HTTP.ListenAddr, handler)

	zlog.Infow("serving", "addr", cfg.HTTP.ListenAddr)
	if err := server.Run(srv); err != nil {
		zlog.Fatalw("http server", "err", err)
	}
}
