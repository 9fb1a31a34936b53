package product

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/common/logger"
	"storefront/internal/models"
)

func TestFetcher_Fetch_SampleProduct(t *testing.T) {
	f := NewFetcher(NewMemoryRepository(SampleProduct), logger.NewTestLogger(t), nil)

	p, err := f.Fetch(context.Background(), "prod34521304")
	require.NoError(t, err)
	assert.Equal(t, "prod34521304", p.ID)
	assert.Equal(t, "Sample Product", p.DisplayName)
	assert.Contains(t, p.ImageURL, "https://")
}

func TestFetcher_Fetch_NotFound(t *testing.T) {
	f := NewFetcher(NewMemoryRepository(), logger.NewTestLogger(t), nil)

	_, err := f.Fetch(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Equal(t, KindNotFound, Classify(err).Kind)
}

func TestFetcher_Fetch_FirstElementWins(t *testing.T) {
	src := sourceFunc(func(ctx context.Context, ids []string) ([]models.Product, error) {
		return []models.Product{{ID: "a", DisplayName: "first"}, {ID: "b", DisplayName: "second"}}, nil
	})
	f := NewFetcher(src, logger.NewNoOpLogger(), nil)

	p, err := f.Fetch(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "first", p.DisplayName)
}

func TestFetcher_Fetch_EmptyID(t *testing.T) {
	f := NewFetcher(NewMemoryRepository(), logger.NewNoOpLogger(), nil)
	_, err := f.Fetch(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidProductID)
}

func TestFetcher_Fetch_CollapsesConcurrentCalls(t *testing.T) {
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex
	src := sourceFunc(func(ctx context.Context, ids []string) ([]models.Product, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		<-release
		return []models.Product{SampleProduct}, nil
	})
	f := NewFetcher(src, logger.NewNoOpLogger(), nil)

	var wg sync.WaitGroup
	results := make([]*models.Product, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := f.Fetch(context.Background(), SampleProduct.ID)
			assert.NoError(t, err)
			results[i] = p
		}(i)
	}

	// let every goroutine join the in-flight call before releasing it
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, calls, 5)
	assert.GreaterOrEqual(t, calls, 1)
	for _, p := range results {
		require.NotNil(t, p)
		assert.Equal(t, SampleProduct.ID, p.ID)
	}
}

func TestFetcher_Fetch_CancelledCallerDoesNotFailOthers(t *testing.T) {
	started := make(chan struct{})
	var once sync.Once
	release := make(chan struct{})
	src := sourceFunc(func(ctx context.Context, ids []string) ([]models.Product, error) {
		once.Do(func() { close(started) })
		select {
		case <-release:
			return []models.Product{SampleProduct}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
	f := NewFetcher(src, logger.NewNoOpLogger(), nil)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := f.Fetch(ctxA, SampleProduct.ID)
		errA <- err
	}()
	<-started

	type result struct {
		p   *models.Product
		err error
	}
	resB := make(chan result, 1)
	go func() {
		p, err := f.Fetch(context.Background(), SampleProduct.ID)
		resB <- result{p, err}
	}()
	// give B time to join the in-flight lookup
	time.Sleep(50 * time.Millisecond)

	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)

	close(release)
	b := <-resB
	require.NoError(t, b.err)
	assert.Equal(t, SampleProduct.ID, b.p.ID)
}

func TestFetcher_Fetch_SourceError(t *testing.T) {
	boom := errors.New("boom")
	f := NewFetcher(sourceFunc(func(ctx context.Context, ids []string) ([]models.Product, error) {
		return nil, boom
	}), logger.NewNoOpLogger(), nil)

	_, err := f.Fetch(context.Background(), "p1")
	assert.ErrorIs(t, err, boom)
}

type sourceFunc func(ctx context.Context, ids []string) ([]models.Product, error)

func (f sourceFunc) FindByIDs(ctx context.Context, ids []string) ([]models.Product, error) {
	return f(ctx, ids)
}
