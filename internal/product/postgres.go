// internal/product/postgres.go
package product

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"storefront/internal/common/metrics"
	"storefront/internal/models"
)

const findByIDsQuery = `
	SELECT id, display_name, image_url
	FROM products
	WHERE id = ANY($1)
	ORDER BY array_position($1, id)`

// PostgresRepository reads products from the products table.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Product, error) {
	start := time.Now()
	defer func() {
		metrics.BackendRequestDuration.WithLabelValues("postgres").Observe(time.Since(start).Seconds())
	}()

	rows, err := r.db.QueryContext(ctx, findByIDsQuery, pq.Array(ids))
	if err != nil {
		metrics.BackendRequests.WithLabelValues("postgres", metrics.OutcomeNetwork).Inc()
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var (
			p        models.Product
			name     sql.NullString
			imageURL sql.NullString
		)
		if err := rows.Scan(&p.ID, &name, &imageURL); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		p.DisplayName = name.String
		p.ImageURL = imageURL.String
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	metrics.BackendRequests.WithLabelValues("postgres", metrics.OutcomeSuccess).Inc()
	return products, nil
}
