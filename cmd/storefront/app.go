// cmd/storefront/app.go
package main

import (
	"context"
	"time"

	"storefront/internal/catalog"
	"storefront/internal/common/config"
	"storefront/internal/common/database"
	commonerrors "storefront/internal/common/errors"
	commonhttp "storefront/internal/common/http"
	"storefront/internal/common/logger"
	"storefront/internal/common/observability"
	"storefront/internal/product"
	"storefront/internal/search"
	"storefront/internal/selection"
	"storefront/internal/server"
	"storefront/internal/view"
)

const (
	connectRetries = 5
	connectDelay   = time.Second
)

// app holds the wired components shared by every subcommand.
type app struct {
	cfg    *config.Config
	logger logger.Logger
	obs    *observability.Observability

	es    *database.ElasticsearchClient
	pg    *database.PostgresClient
	redis *database.RedisClient

	options  *catalog.Fetcher
	products *product.Fetcher
	search   *search.Service
	checks   []server.ReadinessCheck
}

// newApp connects the enabled stores and picks a source for options and
// products: the HTTP backend when its URL is set, otherwise the store, and
// finally the bundled sample data.
func newApp(ctx context.Context, cfg *config.Config, log logger.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: log}

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		log.Warn("observability disabled", map[string]interface{}{"error": err})
	}
	a.obs = obs

	if err := a.connect(ctx); err != nil {
		a.Close(context.Background())
		return nil, err
	}

	a.options = catalog.NewFetcher(a.optionsSource(), catalog.Config{SKUMatchLimit: cfg.Catalog.SKUMatchLimit}, log, obs)
	a.products = product.NewFetcher(a.productSource(), log, obs)

	if a.es != nil {
		a.search = search.NewService(a.es.Client, search.Config{
			Index:   cfg.Search.Index,
			PerPage: cfg.Search.PerPage,
			Facets:  cfg.Search.Facets,
			Timeout: config.GetDuration(cfg.Search.Timeout),
		}, log)
	}
	return a, nil
}

func (a *app) connect(ctx context.Context) error {
	db := a.cfg.Database

	if db.Elasticsearch.Enabled {
		err := database.RetryWithBackoff(ctx, func() error {
			client, err := database.NewElasticsearch(db.Elasticsearch)
			if err != nil {
				return err
			}
			if err := client.Ping(ctx); err != nil {
				return err
			}
			a.es = client
			return nil
		}, connectRetries, connectDelay, a.logger, "Elasticsearch connection")
		if err != nil {
			return commonerrors.NewElasticsearchConnectionFailedError(err)
		}
		a.checks = append(a.checks, server.ReadinessCheck{Name: "elasticsearch", Ping: a.es.Ping})
		a.logger.Info("Elasticsearch connected", nil)
	}

	if db.Postgres.Enabled {
		err := database.RetryWithBackoff(ctx, func() error {
			client, err := database.NewPostgres(db.Postgres)
			if err != nil {
				return err
			}
			if err := client.Ping(ctx); err != nil {
				_ = client.Close()
				return err
			}
			a.pg = client
			return nil
		}, connectRetries, connectDelay, a.logger, "PostgreSQL connection")
		if err != nil {
			return commonerrors.NewDatabaseConnectionFailedError(err)
		}
		a.checks = append(a.checks, server.ReadinessCheck{Name: "postgres", Ping: a.pg.Ping})
		a.logger.Info("PostgreSQL connected", nil)
	}

	if db.Redis.Enabled {
		err := database.RetryWithBackoff(ctx, func() error {
			client, err := database.NewRedis(db.Redis)
			if err != nil {
				return err
			}
			if err := client.Ping(ctx); err != nil {
				_ = client.Close()
				return err
			}
			a.redis = client
			return nil
		}, connectRetries, connectDelay, a.logger, "Redis connection")
		if err != nil {
			return commonerrors.NewCacheUnavailableError(err)
		}
		a.checks = append(a.checks, server.ReadinessCheck{Name: "redis", Ping: a.redis.Ping})
		a.logger.Info("Redis connected", nil)
	}
	return nil
}

func (a *app) optionsSource() catalog.Source {
	b := a.cfg.Backends
	switch {
	case b.Options.URL != "":
		client := commonhttp.NewClient(config.GetDuration(b.Options.Timeout), b.UserAgent)
		return catalog.NewHTTPSource(client, b.Options.URL)
	case a.es != nil:
		c := a.cfg.Catalog
		return catalog.NewElasticSource(a.es.Client, catalog.ElasticConfig{
			OptionsIndex:      c.OptionsIndex,
			SKUIndex:          c.SKUIndex,
			ProductIndex:      c.ProductIndex,
			MaxOptionsPerType: c.MaxOptionsPerType,
			SKUMatchLimit:     c.SKUMatchLimit,
		})
	}
	a.logger.Info("no options backend configured, serving the sample catalog", map[string]interface{}{
		"productId": a.cfg.Catalog.DefaultProductID,
	})
	return catalog.NewSampleSource(a.cfg.Catalog.DefaultProductID)
}

func (a *app) productSource() product.Source {
	b := a.cfg.Backends
	var src product.Source
	switch {
	case b.Products.URL != "":
		client := commonhttp.NewClient(config.GetDuration(b.Products.Timeout), b.UserAgent)
		src = product.NewHTTPSource(client, b.Products.URL)
	case a.pg != nil:
		src = product.NewPostgresRepository(a.pg.DB)
	default:
		sample := product.SampleProduct
		sample.ID = a.cfg.Catalog.DefaultProductID
		src = product.NewMemoryRepository(sample)
	}

	if a.redis != nil {
		src = product.NewCachedSource(src, a.redis.Client, a.redis.TTL, a.logger)
	}
	return src
}

func (a *app) serverDeps() server.Deps {
	d := server.Deps{
		Config:   a.cfg,
		Logger:   a.logger,
		Options:  a.options,
		Products: a.products,
		Composer: view.NewComposer(a.cfg.Backends.MediaBaseURL),
		Codec:    selection.NewCodec(a.cfg.Catalog.DefaultProductID),
		Checks:   a.checks,
	}
	// a nil *search.Service must not become a non-nil interface
	if a.search != nil {
		d.Search = a.search
	}
	return d
}

// Close releases store connections and flushes telemetry.
func (a *app) Close(ctx context.Context) {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.pg != nil {
		_ = a.pg.Close()
	}
	if err := a.obs.Shutdown(ctx); err != nil {
		a.logger.Warn("observability shutdown failed", map[string]interface{}{"error": err})
	}
}
