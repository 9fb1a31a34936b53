// Package configurator drives the product configurator: selection changes
// trigger option re-fetches, and the product is loaded once per id.
package configurator

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"storefront/internal/common/logger"
	"storefront/internal/common/metrics"
	"storefront/internal/models"
	"storefront/internal/product"
	"storefront/internal/selection"
)

type OptionsFetcher interface {
	Fetch(ctx context.Context, productID string, sel *selection.Selection) (*models.CatalogResult, error)
}

type ProductFetcher interface {
	Fetch(ctx context.Context, productID string) (*models.Product, error)
}

// State is a point-in-time copy of the configurator.
type State struct {
	ProductID      string
	Selection      *selection.Selection
	Options        []models.Option
	SKU            string
	Summary        *models.ProductSummary
	Product        *models.Product
	ProductFailure *product.Failure
	ProductLoading bool
	OptionsLoading bool
	// OptionsKey is the joined selection the current Options were fetched for.
	OptionsKey    string
	OptionsLoaded bool
}

// Controller is safe for concurrent use. Only the response to the most
// recently issued options request is applied; older ones are dropped when
// they arrive.
type Controller struct {
	options  OptionsFetcher
	products ProductFetcher
	logger   logger.Logger

	mu               sync.Mutex
	state            State
	optionsSeq       uint64
	requestedKey     string
	productSeq       uint64
	productRequested string
}

func New(options OptionsFetcher, products ProductFetcher, log logger.Logger, st selection.State) *Controller {
	sel := st.Selection
	if sel == nil {
		sel = selection.New()
	}
	return &Controller{
		options:  options,
		products: products,
		logger:   log.WithFields(map[string]interface{}{"component": "configurator"}),
		state: State{
			ProductID: st.ProductID,
			Selection: sel.Clone(),
		},
	}
}

// Load fetches the product and the options concurrently and returns once
// both have settled. Failures are recorded in the state, not returned.
func (c *Controller) Load(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c.LoadProduct(gctx)
		return nil
	})
	g.Go(func() error {
		c.RefreshOptions(gctx)
		return nil
	})
	_ = g.Wait()
}

// LoadProduct fetches the current product unless it was already requested
// for this id. The loading flag is cleared whatever the outcome.
func (c *Controller) LoadProduct(ctx context.Context) {
	c.mu.Lock()
	id := c.state.ProductID
	if c.productRequested == id {
		c.mu.Unlock()
		return
	}
	c.productRequested = id
	c.productSeq++
	seq := c.productSeq
	c.state.ProductLoading = true
	c.mu.Unlock()

	p, err := c.products.Fetch(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.productSeq {
		return
	}
	c.state.ProductLoading = false

	if err != nil {
		failure := product.Classify(err)
		c.state.Product = nil
		c.state.ProductFailure = failure
		fields := map[string]interface{}{
			"productId": id,
			"kind":      string(failure.Kind),
			"error":     err,
		}
		if failure.Kind == product.KindNotFound {
			c.logger.Info("product not found", fields)
		} else {
			c.logger.Warn("product fetch failed", fields)
		}
		return
	}
	c.state.Product = p
	c.state.ProductFailure = nil
}

// RefreshOptions re-fetches options and SKU for the current product and
// selection. It reports whether the response was applied. On failure the
// previous options and SKU stay in place.
func (c *Controller) RefreshOptions(ctx context.Context) bool {
	c.mu.Lock()
	c.optionsSeq++
	seq := c.optionsSeq
	id := c.state.ProductID
	sel := c.state.Selection.Clone()
	key := sel.Joined()
	c.requestedKey = key
	c.state.OptionsLoading = true
	c.mu.Unlock()

	result, err := c.options.Fetch(ctx, id, sel)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.optionsSeq {
		metrics.StaleOptionResponses.Inc()
		c.logger.Debug("dropping superseded options response", map[string]interface{}{
			"productId": id,
			"selection": key,
		})
		return false
	}
	c.state.OptionsLoading = false

	if err != nil {
		if !errors.Is(err, context.Canceled) {
			c.logger.Warn("options fetch failed, keeping previous options", map[string]interface{}{
				"productId": id,
				"selection": key,
				"error":     err,
			})
		}
		return false
	}

	c.state.Options = result.Options
	c.state.SKU = result.SKU
	if result.Summary != nil {
		c.state.Summary = result.Summary
	}
	c.state.OptionsKey = key
	c.state.OptionsLoaded = true
	return true
}

// Select records a choice and re-fetches options when the joined selection
// changed. It reports whether the selection changed.
func (c *Controller) Select(ctx context.Context, optionType, optionID string) bool {
	c.mu.Lock()
	changed := c.state.Selection.Select(optionType, optionID)
	refetch := changed && c.state.Selection.Joined() != c.requestedKey
	c.mu.Unlock()

	if refetch {
		c.RefreshOptions(ctx)
	}
	return changed
}

// SetProduct switches to another product and loads it. Selection entries are
// kept as they are.
func (c *Controller) SetProduct(ctx context.Context, productID string) {
	c.mu.Lock()
	if productID == "" || productID == c.state.ProductID {
		c.mu.Unlock()
		return
	}
	c.state.ProductID = productID
	c.state.Product = nil
	c.state.ProductFailure = nil
	c.mu.Unlock()

	c.Load(ctx)
}

func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.state
	st.Selection = c.state.Selection.Clone()
	st.Options = append([]models.Option(nil), c.state.Options...)
	if c.state.Product != nil {
		p := *c.state.Product
		st.Product = &p
	}
	if c.state.Summary != nil {
		s := *c.state.Summary
		st.Summary = &s
	}
	if c.state.ProductFailure != nil {
		f := *c.state.ProductFailure
		st.ProductFailure = &f
	}
	return st
}
