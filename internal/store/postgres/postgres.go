// Package postgres implements the market store on top of pgx.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trademarket/backend-market/internal/domain"
	"github.com/trademarket/backend-market/internal/store"
)

// Store provides SQL-backed persistence for the market domain.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps an existing connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func mapRowErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return store.ErrConflict
	}
	return err
}

// ListCategories returns all product categories ordered by id.
func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name
		FROM categories
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]domain.Category, 0, 16)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// GetCategory loads one category by id.
func (s *Store) GetCategory(ctx context.Context, id int64) (domain.Category, error) {
	var c domain.Category
	err := s.pool.QueryRow(ctx, `
		SELECT id, name
		FROM categories
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Name)
	if err != nil {
		return domain.Category{}, mapRowErr(err)
	}
	return c, nil
}

// CreateCategory inserts a category and returns it with its assigned id.
func (s *Store) CreateCategory(ctx context.Context, c domain.Category) (domain.Category, error) {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO categories (name)
		VALUES ($1)
		RETURNING id
	`, c.Name).Scan(&c.ID)
	if err != nil {
		return domain.Category{}, mapRowErr(err)
	}
	return c, nil
}

// UpdateCategory persists category changes.
func (s *Store) UpdateCategory(ctx context.Context, c domain.Category) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE categories
		SET name = $2
		WHERE id = $1
	`, c.ID, c.Name)
	if err != nil {
		return mapRowErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteCategory removes a category by id.
func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return mapRowErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListProducts returns products passing the filter, ordered by id.
func (s *Store) ListProducts(ctx context.Context, filter store.ProductFilter) ([]domain.Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, category_id, name, price
		FROM products
		WHERE ($1::bigint IS NULL OR category_id = $1)
		  AND ($2::bigint IS NULL OR price >= $2)
		  AND ($3::bigint IS NULL OR price <= $3)
		ORDER BY id
	`, filter.CategoryID, filter.MinPrice, filter.MaxPrice)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 64)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Price); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// GetProduct loads one product by id.
func (s *Store) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	var p domain.Product
	err := s.pool.QueryRow(ctx, `
		SELECT id, category_id, name, price
		FROM products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.CategoryID, &p.Name, &p.Price)
	if err != nil {
		return domain.Product{}, mapRowErr(err)
	}
	return p, nil
}

// CreateProduct inserts a product and returns it with its assigned id.
func (s *Store) CreateProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO products (category_id, name, price)
		VALUES ($1, $2, $3)
		RETURNING id
	`, p.CategoryID, p.Name, p.Price).Scan(&p.ID)
	if err != nil {
		return domain.Product{}, mapRowErr(err)
	}
	return p, nil
}

// UpdateProduct persists product changes.
func (s *Store) UpdateProduct(ctx context.Context, p domain.Product) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE products
		SET category_id = $2, name = $3, price = $4
		WHERE id = $1
	`, p.ID, p.CategoryID, p.Name, p.Price)
	if err != nil {
		return mapRowErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteProduct removes a product by id.
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return mapRowErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
