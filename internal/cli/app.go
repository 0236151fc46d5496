// Package cli wires SentinelWatch's components into a
// github.com/spf13/cobra command tree, grounded on the teacher pack's
// cmd/root.go and cmd/serve.go (benedict-erwin-insight-collector):
// one bootstrap function every command calls, commands registered on
// a shared root.
package cli

import (
	"fmt"

	"github.com/arjunmehta/sentinelwatch/internal/config"
	"github.com/arjunmehta/sentinelwatch/internal/httpapi"
	"github.com/arjunmehta/sentinelwatch/internal/logging"
	"github.com/arjunmehta/sentinelwatch/pkg/alerts"
	"github.com/arjunmehta/sentinelwatch/pkg/engine"
	"github.com/arjunmehta/sentinelwatch/pkg/geoloc"
	"github.com/arjunmehta/sentinelwatch/pkg/ingest"
	"github.com/arjunmehta/sentinelwatch/pkg/parser"
	"github.com/arjunmehta/sentinelwatch/pkg/rules"
	"github.com/arjunmehta/sentinelwatch/pkg/store"
	"github.com/arjunmehta/sentinelwatch/pkg/store/memstore"
	"github.com/arjunmehta/sentinelwatch/pkg/store/sqlstore"
)

// app holds every long-lived collaborator a command might need.
type app struct {
	cfg          *config.Config
	resolver     *geoloc.Resolver
	orchestrator *ingest.Orchestrator
	alerts       *alerts.Manager
	events       store.EventStore
	closeFns     []func() error
}

// bootstrap loads configuration, sets up logging, and wires storage,
// geolocation, parsing, detection and alerting together. It is the
// single place every cobra command goes through before doing work.
func bootstrap() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("cli: load config: %w", err)
	}
	logging.Init(cfg.LogLevel, cfg.LogFormat)

	resolver := geoloc.NewResolver(cfg.MaxMindDBPath, cfg.GeoHTTPFallback)

	var (
		eventStore store.EventStore
		alertStore store.AlertStore
		closeFns   []func() error
	)

	if cfg.DatabaseURL != "" {
		sqlStore, err := sqlstore.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("cli: open database: %w", err)
		}
		eventStore = sqlStore
		alertStore = sqlStore
		closeFns = append(closeFns, sqlStore.Close, resolver.Close)
		logging.Get().Info().Msg("using postgres-backed storage")
	} else {
		mem := memstore.New()
		eventStore = mem
		alertStore = mem
		closeFns = append(closeFns, resolver.Close)
		logging.Get().Info().Msg("using in-memory storage (set DATABASE_URL for postgres)")
	}

	p := parser.New(resolver)
	en := engine.New(rules.Default(), cfg.RuleSettings())
	orchestrator := ingest.New(p, resolver, eventStore, alertStore, en)

	return &app{
		cfg:          cfg,
		resolver:     resolver,
		orchestrator: orchestrator,
		alerts:       alerts.New(alertStore),
		events:       eventStore,
		closeFns:     closeFns,
	}, nil
}

func (a *app) Close() {
	for _, fn := range a.closeFns {
		if err := fn(); err != nil {
			logging.Get().Warn().Err(err).Msg("error during shutdown")
		}
	}
}

func (a *app) httpServer() *httpapi.Server {
	return httpapi.NewServer(a.orchestrator, a.alerts, a.events)
}
