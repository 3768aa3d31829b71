// Package customer manages customer accounts and the persons behind them.
package customer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/trademarket/backend-market/internal/common"
	"github.com/trademarket/backend-market/internal/domain"
	"github.com/trademarket/backend-market/internal/store"
)

// Querier defines the data access required by the customer service.
type Querier interface {
	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	GetCustomer(ctx context.Context, id int64) (domain.Customer, error)
	CreateCustomer(ctx context.Context, c domain.Customer) (domain.Customer, error)
	UpdateCustomer(ctx context.Context, c domain.Customer) error
	DeleteCustomer(ctx context.Context, id int64) error
	ListCustomersByProduct(ctx context.Context, productID int64) ([]domain.Customer, error)
}

// Service validates customer input and delegates persistence to the querier.
type Service struct {
	Q   Querier
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) ready() error {
	if s == nil || s.Q == nil {
		return fmt.Errorf("customer service not configured")
	}
	return nil
}

var earliestBirthDate = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

func (s *Service) validate(c domain.Customer) error {
	if strings.TrimSpace(c.Person.Name) == "" {
		return common.ValidationError("name is empty")
	}
	if strings.TrimSpace(c.Person.Surname) == "" {
		return common.ValidationError("surname is empty")
	}
	if !c.Person.BirthDate.Before(s.now()) || c.Person.BirthDate.Before(earliestBirthDate) {
		return common.ValidationError("invalid birth date")
	}
	if c.Discount < 0 || c.Discount > 100 {
		return common.ValidationError("discount must be between 0 and 100")
	}
	return nil
}

func mapStoreErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return common.NotFoundError("customer not found")
	}
	return err
}

// List returns all customers.
func (s *Service) List(ctx context.Context) ([]domain.Customer, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.Q.ListCustomers(ctx)
}

// Get loads one customer.
func (s *Service) Get(ctx context.Context, id int64) (domain.Customer, error) {
	if err := s.ready(); err != nil {
		return domain.Customer{}, err
	}
	c, err := s.Q.GetCustomer(ctx, id)
	if err != nil {
		return domain.Customer{}, mapStoreErr(err)
	}
	return c, nil
}

// Create validates and stores a new customer with its person record.
func (s *Service) Create(ctx context.Context, c domain.Customer) (domain.Customer, error) {
	if err := s.ready(); err != nil {
		return domain.Customer{}, err
	}
	if err := s.validate(c); err != nil {
		return domain.Customer{}, err
	}
	created, err := s.Q.CreateCustomer(ctx, c)
	if err != nil {
		return domain.Customer{}, mapStoreErr(err)
	}
	return created, nil
}

// Update validates and persists customer and person changes. Unlike a
// plain header update this always writes both rows.
func (s *Service) Update(ctx context.Context, c domain.Customer) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.validate(c); err != nil {
		return err
	}
	if err := s.Q.UpdateCustomer(ctx, c); err != nil {
		return mapStoreErr(err)
	}
	return nil
}

// Delete removes a customer and its person record.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.Q.DeleteCustomer(ctx, id); err != nil {
		return mapStoreErr(err)
	}
	return nil
}

// ByProduct returns the customers who bought the given product at least once.
func (s *Service) ByProduct(ctx context.Context, productID int64) ([]domain.Customer, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.Q.ListCustomersByProduct(ctx, productID)
}
