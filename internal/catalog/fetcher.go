// internal/catalog/fetcher.go
package catalog

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/common/logger"
	"storefront/internal/common/observability"
	"storefront/internal/models"
	"storefront/internal/selection"
)

type Config struct {
	SKUMatchLimit int
}

// Fetcher requests the option catalog and SKU for a product and selection.
// One call issues one backend request.
type Fetcher struct {
	source Source
	config Config
	logger logger.Logger
	obs    *observability.Observability
	tracer trace.Tracer
}

func NewFetcher(source Source, config Config, log logger.Logger, obs *observability.Observability) *Fetcher {
	if config.SKUMatchLimit <= 0 {
		config.SKUMatchLimit = 3
	}
	return &Fetcher{
		source: source,
		config: config,
		logger: log.WithFields(map[string]interface{}{"component": "catalog"}),
		obs:    obs,
		tracer: obs.Tracer(),
	}
}

func (f *Fetcher) Fetch(ctx context.Context, productID string, sel *selection.Selection) (*models.CatalogResult, error) {
	if productID == "" {
		return nil, ErrInvalidProductID
	}
	joined := sel.Joined()

	ctx, span := f.tracer.Start(ctx, "catalog.Fetch", trace.WithAttributes(
		attribute.String("product.id", productID),
		attribute.String("selection", joined),
	))
	defer span.End()

	start := time.Now()
	body, err := f.source.Fetch(ctx, productID, joined)
	if err != nil {
		f.record(ctx, span, "error", start, err)
		return nil, err
	}

	result, err := Decode(body, f.config.SKUMatchLimit)
	if err != nil {
		f.record(ctx, span, "malformed", start, err)
		return nil, err
	}

	status := "ok"
	if len(result.Options) == 0 {
		status = "empty"
	}
	f.record(ctx, span, status, start, nil)

	f.logger.Debug("options fetched", map[string]interface{}{
		"productId": productID,
		"selection": joined,
		"options":   len(result.Options),
		"sku":       result.SKU,
	})
	return result, nil
}

func (f *Fetcher) record(ctx context.Context, span trace.Span, status string, start time.Time, err error) {
	f.obs.RecordFetch(ctx, BackendName, status, time.Since(start))
	if err != nil && !errors.Is(err, context.Canceled) {
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
	}
}
