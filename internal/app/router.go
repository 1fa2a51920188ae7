package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerline/ledgerline/internal/accounts"
	"github.com/ledgerline/ledgerline/internal/assets"
	"github.com/ledgerline/ledgerline/internal/bank"
	"github.com/ledgerline/ledgerline/internal/loans"
	"github.com/ledgerline/ledgerline/internal/observability"
	"github.com/ledgerline/ledgerline/internal/posting"
	"github.com/ledgerline/ledgerline/jobs"
)

// RouterParams aggregates everything the HTTP router mounts.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics

	Accounts *accounts.Handler
	Bank     *bank.Handler
	Loans    *loans.Handler
	Assets   *assets.Handler
	Posting  *posting.Handler
	Jobs     *jobs.Handler
}

// NewRouter builds the chi router with the full middleware chain and the
// API surface.
func NewRouter(p RouterParams) chi.Router {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{Logger: p.Logger, Config: p.Config, Metrics: p.Metrics}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", p.Metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Route("/accounts", p.Accounts.MountRoutes)
		api.Route("/bank-accounts", p.Bank.MountRoutes)
		api.Route("/loans", p.Loans.MountRoutes)
		api.Route("/assets", p.Assets.MountRoutes)
		api.Route("/transactions", p.Posting.MountRoutes)
		api.Route("/elements", p.Posting.MountElementRoutes)
		if p.Jobs != nil {
			api.Route("/jobs", p.Jobs.MountRoutes)
		}
	})

	return r
}
