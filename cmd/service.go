package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/mapscene/internal/config"
	"github.com/sells-group/mapscene/internal/store"
	"github.com/sells-group/mapscene/pkg/overpass"
)

// env bundles the constructed service graph for one command invocation.
type env struct {
	Service *overpass.Service
	Store   store.Store
}

// Close releases the persistent store, if any.
func (e *env) Close() {
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			zap.L().Warn("close store", zap.Error(err))
		}
	}
}

// initEnv builds the fetch service and cache store from configuration.
// The service is passed by reference everywhere; nothing holds a global
// instance.
func initEnv(ctx context.Context) (*env, error) {
	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	opts := []overpass.Option{
		overpass.WithTimeout(time.Duration(cfg.Fetch.TimeoutSecs) * time.Second),
		overpass.WithMinInterval(time.Duration(cfg.Fetch.MinIntervalMS) * time.Millisecond),
		overpass.WithTTLHours(cfg.Fetch.CacheTTLHours),
		overpass.WithCacheSize(cfg.Fetch.CacheSize),
		overpass.WithProgress(logProgress),
	}
	if st != nil {
		opts = append(opts, overpass.WithStore(st))
	}

	return &env{
		Service: overpass.NewService(cfg.Fetch.Endpoints, opts...),
		Store:   st,
	}, nil
}

func openStore(ctx context.Context, sc config.StoreConfig) (store.Store, error) {
	var st store.Store
	switch sc.Driver {
	case "", "none":
		return nil, nil
	case "sqlite":
		s, err := store.NewSQLite(sc.Path)
		if err != nil {
			return nil, err
		}
		st = s
	case "postgres":
		s, err := store.NewPostgres(ctx, sc.DatabaseURL)
		if err != nil {
			return nil, err
		}
		st = s
	default:
		return nil, eris.Errorf("unknown store driver %q", sc.Driver)
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

func logProgress(p overpass.Progress) {
	switch p.Stage {
	case "endpoint_failed":
		zap.L().Warn("fetch progress",
			zap.String("stage", p.Stage),
			zap.String("endpoint", p.Endpoint),
			zap.Error(p.Err),
		)
	default:
		zap.L().Debug("fetch progress",
			zap.String("stage", p.Stage),
			zap.String("endpoint", p.Endpoint),
		)
	}
}
