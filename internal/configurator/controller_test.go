package configurator

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	commonhttp "storefront/internal/common/http"
	"storefront/internal/common/logger"
	"storefront/internal/models"
	"storefront/internal/product"
	"storefront/internal/selection"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type optionsFunc func(ctx context.Context, productID string, sel *selection.Selection) (*models.CatalogResult, error)

type fakeOptions struct {
	mu    sync.Mutex
	calls []string
	fn    optionsFunc
}

func (f *fakeOptions) Fetch(ctx context.Context, productID string, sel *selection.Selection) (*models.CatalogResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, sel.Joined())
	f.mu.Unlock()
	return f.fn(ctx, productID, sel)
}

func (f *fakeOptions) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeProducts struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeProducts) Fetch(ctx context.Context, productID string) (*models.Product, error) {
	f.mu.Lock()
	f.calls = append(f.calls, productID)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &models.Product{ID: productID, DisplayName: "Sample Product", ImageURL: "https://example.com/" + productID}, nil
}

func (f *fakeProducts) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// echoOptions returns one option per call named after the selection, so the
// applied state shows which request won.
func echoOptions(ctx context.Context, productID string, sel *selection.Selection) (*models.CatalogResult, error) {
	return &models.CatalogResult{
		Options: []models.Option{
			{OptionID: "opt-" + sel.Joined(), OptionTypeName: "Color", OptionValue: sel.Joined()},
		},
		SKU:     "sku-" + sel.Joined(),
		Summary: &models.ProductSummary{ProductName: "Cloud Sofa"},
	}, nil
}

func newController(t *testing.T, opts *fakeOptions, products *fakeProducts) *Controller {
	return New(opts, products, logger.NewTestLogger(t), selection.State{ProductID: "prod34521304"})
}

func TestController_Load(t *testing.T) {
	opts := &fakeOptions{fn: echoOptions}
	products := &fakeProducts{}
	c := newController(t, opts, products)

	c.Load(context.Background())

	st := c.Snapshot()
	assert.False(t, st.ProductLoading)
	assert.False(t, st.OptionsLoading)
	assert.True(t, st.OptionsLoaded)
	require.NotNil(t, st.Product)
	assert.Equal(t, "prod34521304", st.Product.ID)
	assert.Nil(t, st.ProductFailure)
	assert.Len(t, st.Options, 1)
	assert.Equal(t, "sku-", st.SKU)
	require.NotNil(t, st.Summary)
	assert.Equal(t, "Cloud Sofa", st.Summary.ProductName)

	c.Load(context.Background())
	assert.Equal(t, []string{"prod34521304"}, products.Calls())
	assert.Len(t, opts.Calls(), 2)
}

func TestController_Select_ReplacesType(t *testing.T) {
	opts := &fakeOptions{fn: echoOptions}
	c := newController(t, opts, &fakeProducts{})
	ctx := context.Background()

	assert.True(t, c.Select(ctx, "Color", "Red"))
	assert.True(t, c.Select(ctx, "Color", "Blue"))
	assert.False(t, c.Select(ctx, "Color", "Blue"))

	st := c.Snapshot()
	assert.Equal(t, 1, st.Selection.Len())
	got, _ := st.Selection.Get("Color")
	assert.Equal(t, "Blue", got)
	assert.Equal(t, "Blue", st.OptionsKey)
	assert.Equal(t, "sku-Blue", st.SKU)
	assert.Equal(t, []string{"Red", "Blue"}, opts.Calls())
}

func TestController_Select_EmptyValueDoesNotRefetch(t *testing.T) {
	opts := &fakeOptions{fn: echoOptions}
	c := newController(t, opts, &fakeProducts{})
	ctx := context.Background()

	c.RefreshOptions(ctx)
	assert.True(t, c.Select(ctx, "Size", ""))
	assert.Equal(t, []string{""}, opts.Calls())
}

func TestController_DropsSupersededResponse(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	opts := &fakeOptions{fn: func(ctx context.Context, productID string, sel *selection.Selection) (*models.CatalogResult, error) {
		if sel.Joined() == "Red" {
			close(started)
			<-release
		}
		return echoOptions(ctx, productID, sel)
	}}
	c := newController(t, opts, &fakeProducts{})
	ctx := context.Background()

	applied := make(chan bool)
	go func() {
		applied <- c.Select(ctx, "Color", "Red") && c.Snapshot().OptionsKey == "Red"
	}()

	<-started
	assert.True(t, c.Snapshot().OptionsLoading)
	c.Select(ctx, "Color", "Blue")

	close(release)
	assert.False(t, <-applied)

	st := c.Snapshot()
	assert.Equal(t, "Blue", st.OptionsKey)
	assert.Equal(t, "sku-Blue", st.SKU)
	assert.Equal(t, "opt-Blue", st.Options[0].OptionID)
	assert.False(t, st.OptionsLoading)
}

func TestController_FailureKeepsPreviousOptions(t *testing.T) {
	fail := false
	opts := &fakeOptions{fn: func(ctx context.Context, productID string, sel *selection.Selection) (*models.CatalogResult, error) {
		if fail {
			return nil, &commonhttp.NetworkError{Backend: "options", Err: errors.New("connection refused")}
		}
		return echoOptions(ctx, productID, sel)
	}}
	c := newController(t, opts, &fakeProducts{})
	ctx := context.Background()

	require.True(t, c.RefreshOptions(ctx))
	before := c.Snapshot()

	fail = true
	assert.False(t, c.RefreshOptions(ctx))

	after := c.Snapshot()
	assert.False(t, after.OptionsLoading)
	assert.Equal(t, before.Options, after.Options)
	assert.Equal(t, before.SKU, after.SKU)
}

func TestController_ProductFailure(t *testing.T) {
	products := &fakeProducts{err: &commonhttp.StatusError{Backend: "products", StatusCode: 503, Reason: "Service Unavailable"}}
	c := newController(t, &fakeOptions{fn: echoOptions}, products)

	c.Load(context.Background())

	st := c.Snapshot()
	assert.False(t, st.ProductLoading)
	assert.Nil(t, st.Product)
	require.NotNil(t, st.ProductFailure)
	assert.Equal(t, product.KindHTTP, st.ProductFailure.Kind)
	assert.Equal(t, "Product request failed: 503 Service Unavailable", st.ProductFailure.Message)
}

func TestController_SetProductKeepsSelection(t *testing.T) {
	opts := &fakeOptions{fn: echoOptions}
	products := &fakeProducts{}
	c := newController(t, opts, products)
	ctx := context.Background()

	c.Load(ctx)
	c.Select(ctx, "Color", "Red")
	c.SetProduct(ctx, "prod999")
	c.SetProduct(ctx, "prod999")

	st := c.Snapshot()
	assert.Equal(t, "prod999", st.ProductID)
	require.NotNil(t, st.Product)
	assert.Equal(t, "prod999", st.Product.ID)
	got, ok := st.Selection.Get("Color")
	assert.True(t, ok)
	assert.Equal(t, "Red", got)
	assert.Equal(t, []string{"prod34521304", "prod999"}, products.Calls())
}

func TestController_SnapshotIsACopy(t *testing.T) {
	c := newController(t, &fakeOptions{fn: echoOptions}, &fakeProducts{})
	c.Load(context.Background())

	st := c.Snapshot()
	st.Selection.Select("Color", "Green")
	st.Options[0].OptionValue = "mutated"
	st.Product.DisplayName = "mutated"

	again := c.Snapshot()
	assert.Equal(t, 0, again.Selection.Len())
	assert.NotEqual(t, "mutated", again.Options[0].OptionValue)
	assert.Equal(t, "Sample Product", again.Product.DisplayName)
}
