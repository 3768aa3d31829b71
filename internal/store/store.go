// Package store defines the persistence contract shared by the Postgres
// store and the in-memory store used in tests. Service packages declare
// the narrow querier interfaces they consume; both implementations here
// satisfy all of them.
package store

import (
	"errors"

	"github.com/trademarket/backend-market/internal/domain"
)

var (
	// ErrNotFound signals the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict signals a uniqueness violation.
	ErrConflict = errors.New("conflict")
)

// ProductFilter restricts product listings. Nil fields are ignored.
type ProductFilter struct {
	CategoryID *int64
	MinPrice   *domain.Money
	MaxPrice   *domain.Money
}

// Match reports whether the product passes the filter.
func (f ProductFilter) Match(p domain.Product) bool {
	if f.CategoryID != nil && p.CategoryID != *f.CategoryID {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	return true
}
