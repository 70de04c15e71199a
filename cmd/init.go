package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rivalscan/internal/engine"
	"github.com/sells-group/rivalscan/internal/intent"
	"github.com/sells-group/rivalscan/internal/probe"
	"github.com/sells-group/rivalscan/internal/profile"
	"github.com/sells-group/rivalscan/internal/serp"
	"github.com/sells-group/rivalscan/internal/store"
	"github.com/sells-group/rivalscan/pkg/dataforseo"
	"github.com/sells-group/rivalscan/pkg/jina"
)

// initStore opens the snapshot store configured by store.driver.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite", "":
		st, err := store.NewSQLite(cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return st, nil
	case "postgres":
		st, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, eris.Errorf("init: unknown store driver %q", cfg.Store.Driver)
	}
}

// initEngine wires the discovery engine from config. DataForSEO is optional;
// without credentials every probe goes to the Jina fallback and keyword
// metrics are skipped.
func initEngine() *engine.Engine {
	jinaClient := jina.NewClient(cfg.Jina.Key,
		jina.WithBaseURL(cfg.Jina.BaseURL),
		jina.WithSearchBaseURL(cfg.Jina.SearchBaseURL),
	)
	fallback := serp.NewJinaProvider(jinaClient)

	var primary serp.Provider
	var metrics engine.MetricsProvider
	if cfg.DataForSEO.Login != "" && cfg.DataForSEO.Password != "" {
		dfsClient := dataforseo.NewClient(cfg.DataForSEO.Login, cfg.DataForSEO.Password,
			dataforseo.WithBaseURL(cfg.DataForSEO.BaseURL),
		)
		primary = serp.NewDataForSEOProvider(dfsClient)
		metrics = engine.NewDataForSEOMetrics(dfsClient)
	} else {
		zap.L().Info("init: no dataforseo credentials, using fallback provider only")
	}

	return engine.New(engine.Params{
		Profiles:   profile.NewBuilder(),
		SERP:       serp.NewAggregator(primary, fallback, cfg.Engine.RatePerSec, serp.WithDepth(cfg.Engine.SERPDepth)),
		Metrics:    metrics,
		Classifier: intent.NewClassifier(nil),
		Locale: probe.Locale{
			Location: cfg.Engine.Location,
			Language: cfg.Engine.Language,
		},
		CacheTTL: time.Duration(cfg.Engine.CacheTTLMinutes) * time.Minute,
		Blocked:  cfg.Engine.BlockedDomains,
	})
}
