// internal/product/memory.go
package product

import (
	"context"
	"sync"

	"storefront/internal/models"
)

// SampleProduct is the product the storefront opens with when nothing else is
// configured.
var SampleProduct = models.Product{
	ID:          "prod34521304",
	DisplayName: "Sample Product",
	ImageURL:    "https://media.restorationhardware.com/is/image/rhis/prod6490266_E46747666_F_Frank_RHR?$PDP-IS-992$",
}

// MemoryRepository is an in-process Source.
type MemoryRepository struct {
	mu       sync.RWMutex
	products map[string]models.Product
}

func NewMemoryRepository(products ...models.Product) *MemoryRepository {
	r := &MemoryRepository{products: make(map[string]models.Product, len(products))}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *MemoryRepository) Put(p models.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = p
}

func (r *MemoryRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}
