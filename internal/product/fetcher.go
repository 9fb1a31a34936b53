// internal/product/fetcher.go
package product

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"storefront/internal/common/logger"
	"storefront/internal/common/observability"
	"storefront/internal/models"
)

// Fetcher resolves one product by id. Concurrent fetches of the same id share
// a single source lookup.
type Fetcher struct {
	source Source
	group  singleflight.Group
	logger logger.Logger
	obs    *observability.Observability
	tracer trace.Tracer
	// timeout bounds a shared lookup.
	timeout time.Duration
}

const defaultLookupTimeout = 10 * time.Second

func NewFetcher(source Source, log logger.Logger, obs *observability.Observability) *Fetcher {
	return &Fetcher{
		source:  source,
		logger:  log.WithFields(map[string]interface{}{"component": "product"}),
		obs:     obs,
		tracer:  obs.Tracer(),
		timeout: defaultLookupTimeout,
	}
}

// Fetch returns the first product the source yields for productID, or an
// error wrapping ErrProductNotFound when there is none.
func (f *Fetcher) Fetch(ctx context.Context, productID string) (*models.Product, error) {
	if productID == "" {
		return nil, ErrInvalidProductID
	}

	ctx, span := f.tracer.Start(ctx, "product.Fetch", trace.WithAttributes(
		attribute.String("product.id", productID),
	))
	defer span.End()

	start := time.Now()
	// shared by every caller of productID; detached from the first caller's cancellation
	ch := f.group.DoChan(productID, func() (interface{}, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
		defer cancel()
		return f.source.FindByIDs(sctx, []string{productID})
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		span.SetStatus(codes.Error, "cancelled")
		return nil, ctx.Err()
	}
	v, err, shared := res.Val, res.Err, res.Shared
	if err != nil {
		failure := Classify(err)
		f.obs.RecordFetch(ctx, BackendName, string(failure.Kind), time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, string(failure.Kind))
		return nil, err
	}

	products := v.([]models.Product)
	if len(products) == 0 {
		f.obs.RecordFetch(ctx, BackendName, string(KindNotFound), time.Since(start))
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}

	f.obs.RecordFetch(ctx, BackendName, "ok", time.Since(start))
	f.logger.Debug("product fetched", map[string]interface{}{
		"productId": productID,
		"shared":    shared,
	})

	p := products[0]
	return &p, nil
}
