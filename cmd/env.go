package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/cnpj-cli/internal/cache"
	"github.com/sells-group/cnpj-cli/internal/config"
	"github.com/sells-group/cnpj-cli/internal/entity"
	"github.com/sells-group/cnpj-cli/internal/pipeline"
	"github.com/sells-group/cnpj-cli/internal/resilience"
	"github.com/sells-group/cnpj-cli/internal/store"
	"github.com/sells-group/cnpj-cli/internal/throttle"
	"github.com/sells-group/cnpj-cli/pkg/brasilapi"
	"github.com/sells-group/cnpj-cli/pkg/cnpjws"
	"github.com/sells-group/cnpj-cli/pkg/httpclient"
	"github.com/sells-group/cnpj-cli/pkg/minhareceita"
	"github.com/sells-group/cnpj-cli/pkg/pncp"
	"github.com/sells-group/cnpj-cli/pkg/receitaws"
	"github.com/sells-group/cnpj-cli/pkg/serpro"
	"github.com/sells-group/cnpj-cli/pkg/transparencia"
)

// Env wires the engine, the list-endpoint providers and the history store
// for one command invocation.
type Env struct {
	Engine        *pipeline.Engine
	Transparencia *transparencia.Client
	PNCP          *pncp.Client
	Store         store.Store
}

// initEnv builds the provider set and engine from loaded configuration.
func initEnv(ctx context.Context, cfg *config.Config) (*Env, error) {
	retry := resilience.DefaultRetryConfig()
	if cfg.HTTP.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.HTTP.MaxAttempts
	}
	hc := httpclient.New(httpclient.Options{
		UserAgent: cfg.HTTP.UserAgent,
		Timeout:   cfg.HTTP.Timeout,
		Retry:     retry,
	})

	trust := cfg.Resolve.Order
	if len(trust) == 0 {
		tc, err := entity.LoadTrustConfig(cfg.Resolve.TrustFile)
		if err != nil {
			return nil, err
		}
		trust = tc.Order
	}

	dump, err := cache.LoadDump(cfg.Resolve.DumpFile)
	if err != nil {
		return nil, err
	}

	engine := pipeline.New(pipeline.Options{
		Providers: []pipeline.RegistryProvider{
			serpro.NewClient(hc, cfg.Serpro),
			cnpjws.NewClient(hc, cfg.CNPJWS),
			minhareceita.NewClient(hc, cfg.MinhaReceita),
			brasilapi.NewClient(hc, cfg.BrasilAPI),
			receitaws.NewClient(hc, cfg.ReceitaWS),
		},
		TrustOrder: trust,
		Cache:      cache.New(cfg.Cache),
		Dump:       dump,
		Gate:       throttle.New(cfg.Throttle.MinInterval),
	})

	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &Env{
		Engine:        engine,
		Transparencia: transparencia.NewClient(hc, cfg.Transparencia),
		PNCP:          pncp.NewClient(hc, cfg.PNCP),
		Store:         st,
	}, nil
}

// openStore opens and migrates the configured lookup-history backend.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	case "sqlite", "":
		st, err = store.NewSQLite(cfg.Store.Path)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// Close releases the env's resources.
func (e *Env) Close() {
	if e.Store != nil {
		e.Store.Close()
	}
}
