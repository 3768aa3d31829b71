// Package catalog manages products and their categories.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/trademarket/backend-market/internal/common"
	"github.com/trademarket/backend-market/internal/domain"
	"github.com/trademarket/backend-market/internal/store"
)

// Querier defines the data access required by the catalog service.
type Querier interface {
	ListProducts(ctx context.Context, filter store.ProductFilter) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (domain.Product, error)
	CreateProduct(ctx context.Context, p domain.Product) (domain.Product, error)
	UpdateProduct(ctx context.Context, p domain.Product) error
	DeleteProduct(ctx context.Context, id int64) error
	ListCategories(ctx context.Context) ([]domain.Category, error)
	GetCategory(ctx context.Context, id int64) (domain.Category, error)
	CreateCategory(ctx context.Context, c domain.Category) (domain.Category, error)
	UpdateCategory(ctx context.Context, c domain.Category) error
	DeleteCategory(ctx context.Context, id int64) error
}

// Service validates catalog input and delegates persistence to the querier.
type Service struct {
	Q Querier
}

func (s *Service) ready() error {
	if s == nil || s.Q == nil {
		return fmt.Errorf("catalog service not configured")
	}
	return nil
}

func validateProduct(p domain.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return common.ValidationError("product name is empty")
	}
	if p.Price <= 0 {
		return common.ValidationError("product price must be positive")
	}
	if p.CategoryID <= 0 {
		return common.ValidationError("product category is required")
	}
	return nil
}

func validateCategory(c domain.Category) error {
	if strings.TrimSpace(c.Name) == "" {
		return common.ValidationError("category name is empty")
	}
	return nil
}

func mapStoreErr(err error, what string) error {
	if errors.Is(err, store.ErrNotFound) {
		return common.NotFoundError(what + " not found")
	}
	if errors.Is(err, store.ErrConflict) {
		return common.NewAppError(common.CodeConflict, what+" already exists", 409, err)
	}
	return err
}

// ListProducts returns products restricted by the optional filter.
func (s *Service) ListProducts(ctx context.Context, filter store.ProductFilter) ([]domain.Product, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.Q.ListProducts(ctx, filter)
}

// GetProduct loads a single product.
func (s *Service) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	if err := s.ready(); err != nil {
		return domain.Product{}, err
	}
	p, err := s.Q.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, mapStoreErr(err, "product")
	}
	return p, nil
}

// CreateProduct validates and stores a new product.
func (s *Service) CreateProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	if err := s.ready(); err != nil {
		return domain.Product{}, err
	}
	if err := validateProduct(p); err != nil {
		return domain.Product{}, err
	}
	if _, err := s.Q.GetCategory(ctx, p.CategoryID); err != nil {
		return domain.Product{}, mapStoreErr(err, "category")
	}
	created, err := s.Q.CreateProduct(ctx, p)
	if err != nil {
		return domain.Product{}, mapStoreErr(err, "product")
	}
	return created, nil
}

// UpdateProduct validates and persists product changes.
func (s *Service) UpdateProduct(ctx context.Context, p domain.Product) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := validateProduct(p); err != nil {
		return err
	}
	if err := s.Q.UpdateProduct(ctx, p); err != nil {
		return mapStoreErr(err, "product")
	}
	return nil
}

// DeleteProduct removes a product.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.Q.DeleteProduct(ctx, id); err != nil {
		return mapStoreErr(err, "product")
	}
	return nil
}

// ListCategories returns all categories.
func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.Q.ListCategories(ctx)
}

// GetCategory loads a single category.
func (s *Service) GetCategory(ctx context.Context, id int64) (domain.Category, error) {
	if err := s.ready(); err != nil {
		return domain.Category{}, err
	}
	c, err := s.Q.GetCategory(ctx, id)
	if err != nil {
		return domain.Category{}, mapStoreErr(err, "category")
	}
	return c, nil
}

// CreateCategory validates and stores a new category.
func (s *Service) CreateCategory(ctx context.Context, c domain.Category) (domain.Category, error) {
	if err := s.ready(); err != nil {
		return domain.Category{}, err
	}
	if err := validateCategory(c); err != nil {
		return domain.Category{}, err
	}
	created, err := s.Q.CreateCategory(ctx, c)
	if err != nil {
		return domain.Category{}, mapStoreErr(err, "category")
	}
	return created, nil
}

// UpdateCategory validates and persists category changes.
func (s *Service) UpdateCategory(ctx context.Context, c domain.Category) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := validateCategory(c); err != nil {
		return err
	}
	if err := s.Q.UpdateCategory(ctx, c); err != nil {
		return mapStoreErr(err, "category")
	}
	return nil
}

// DeleteCategory removes a category.
func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.Q.DeleteCategory(ctx, id); err != nil {
		return mapStoreErr(err, "category")
	}
	return nil
}
