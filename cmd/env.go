package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/vetting-cli/internal/extract"
	"github.com/sells-group/vetting-cli/internal/session"
	"github.com/sells-group/vetting-cli/internal/store"
	"github.com/sells-group/vetting-cli/internal/validate"
	"github.com/sells-group/vetting-cli/internal/vetting"
	"github.com/sells-group/vetting-cli/internal/webfetch"
	anthropicpkg "github.com/sells-group/vetting-cli/pkg/anthropic"
	"github.com/sells-group/vetting-cli/pkg/proident"
)

// appEnv holds the initialized store and pipeline components shared by the
// extract/vet/snapshot/serve commands.
type appEnv struct {
	Store        store.Store
	Sessions     *session.Manager
	Orchestrator *vetting.Orchestrator
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv sets up the store and all pipeline components. Callers should
// defer env.Close().
func initEnv(ctx context.Context) (*appEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	var ai anthropicpkg.Client
	if cfg.Anthropic.Key != "" {
		ai = anthropicpkg.NewClient(cfg.Anthropic.Key, cfg.Anthropic.RequestsPerSec)
	} else {
		zap.L().Warn("VETTING_ANTHROPIC_KEY not set, extraction fallback and website summarization disabled")
	}

	extractor := extract.NewExtractor(ai, cfg.Anthropic)

	fetcher := webfetch.NewHTTPFetcher(
		time.Duration(cfg.Website.FetchTimeoutSecs)*time.Second,
		cfg.Website.MaxBodyBytes,
	)
	cacheTTL := time.Duration(cfg.Website.CacheTTLDays) * 24 * time.Hour
	website := validate.NewWebsiteAnalyzer(st, fetcher, ai, cfg.Anthropic, cacheTTL)

	identityClient := proident.NewClient(cfg.Identity.Key, proident.WithBaseURL(cfg.Identity.BaseURL))
	identity := validate.NewIdentityValidator(identityClient)

	budget := validate.NewBudgetAssessor()

	orch := vetting.New(st, extractor, website, identity, budget,
		time.Duration(cfg.Vetting.FreshnessHours)*time.Hour,
		time.Duration(cfg.Vetting.ValidatorTimeoutSecs)*time.Second,
		time.Duration(cfg.Vetting.ExtractionTimeoutSecs)*time.Second,
	)

	return &appEnv{
		Store:        st,
		Sessions:     session.NewManager(st, extractor),
		Orchestrator: orch,
	}, nil
}

// initStore opens the configured database backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite", "":
		st, err := store.NewSQLite(cfg.Store.DatabaseURL)
		if err != nil {
			return nil, eris.Wrap(err, "open sqlite store")
		}
		return st, nil
	case "postgres":
		st, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
		if err != nil {
			return nil, eris.Wrap(err, "open postgres store")
		}
		return st, nil
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
