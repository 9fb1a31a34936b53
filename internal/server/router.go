// internal/server/router.go
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"storefront/internal/common/config"
	commonerrors "storefront/internal/common/errors"
	"storefront/internal/common/logger"
	"storefront/internal/configurator"
	"storefront/internal/models"
	"storefront/internal/search"
	"storefront/internal/selection"
	"storefront/internal/view"
)

// Searcher backs the product gallery.
type Searcher interface {
	Search(ctx context.Context, q search.Query) (*models.SearchResult, error)
	PerPage() int
}

// ReadinessCheck is one backend pinged by /ready.
type ReadinessCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

type Deps struct {
	Config   *config.Config
	Logger   logger.Logger
	Options  configurator.OptionsFetcher
	Products configurator.ProductFetcher
	// Search may be nil, in which case the gallery renders empty.
	Search   Searcher
	Composer *view.Composer
	Codec    selection.Codec
	Checks   []ReadinessCheck
}

// NewRouter builds the gin engine with every storefront route.
func NewRouter(d Deps) (*gin.Engine, error) {
	if d.Config == nil || d.Logger == nil || d.Options == nil || d.Products == nil {
		return nil, fmt.Errorf("server: config, logger, options and products are required")
	}
	if d.Composer == nil {
		d.Composer = view.NewComposer(d.Config.Backends.MediaBaseURL)
	}

	tmpl, err := view.Templates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(
		RequestID(),
		Metrics(),
		RequestLogger(d.Logger),
		ErrorHandler(commonerrors.NewErrorHandler(d.Logger)),
		Recovery(d.Logger),
	)

	h := newHandlers(d)

	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/product-gallery")
	})
	r.GET("/product-gallery", h.gallery)
	r.GET("/products", h.productPage)
	r.POST("/products/select", h.selectOption)

	api := r.Group("/api")
	api.GET("/configurator", h.configuratorJSON)
	api.POST("/configurator/select", h.selectJSON)
	api.POST("/configurator/product", h.switchProductJSON)

	r.GET("/health", h.health)
	r.GET("/ready", h.ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.NoRoute(func(c *gin.Context) {
		Fail(c, commonerrors.NewNotFoundError(c.Request.URL.Path))
	})

	return r, nil
}
