// Package receipt manages purchase documents: their lifecycle, their lines
// and the totals owed by the customer.
package receipt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/trademarket/backend-market/internal/common"
	"github.com/trademarket/backend-market/internal/domain"
	"github.com/trademarket/backend-market/internal/events"
	"github.com/trademarket/backend-market/internal/lock"
	"github.com/trademarket/backend-market/internal/obs"
	"github.com/trademarket/backend-market/internal/pricing"
	"github.com/trademarket/backend-market/internal/store"
)

// Event topics emitted by the service.
const (
	TopicCreated    = "receipt.created"
	TopicCheckedOut = "receipt.checked_out"
)

// Querier defines the data access required by the receipt service.
type Querier interface {
	CreateReceipt(ctx context.Context, r domain.Receipt) (domain.Receipt, error)
	GetReceiptWithLines(ctx context.Context, id int64) (domain.Receipt, error)
	ListReceiptsWithLines(ctx context.Context) ([]domain.Receipt, error)
	ListReceiptsByPeriod(ctx context.Context, start, end time.Time) ([]domain.Receipt, error)
	UpdateReceipt(ctx context.Context, r domain.Receipt) error
	SetReceiptCheckedOut(ctx context.Context, id int64) error
	DeleteReceipt(ctx context.Context, id int64) error
	InsertReceiptLine(ctx context.Context, line domain.ReceiptLine) (domain.ReceiptLine, error)
	UpdateReceiptLineQuantity(ctx context.Context, lineID int64, quantity int) error
	DeleteReceiptLines(ctx context.Context, lineIDs []int64) error
	GetCustomer(ctx context.Context, id int64) (domain.Customer, error)
	GetProduct(ctx context.Context, id int64) (domain.Product, error)
}

// Locker serializes mutations of a single receipt across API instances.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// Service implements receipt operations. Lock and Events are optional: a nil
// Lock runs mutations unguarded, a nil Events bus skips event emission.
type Service struct {
	Q       Querier
	Lock    Locker
	LockTTL time.Duration
	Events  *events.Bus
	Now     func() time.Time
}

func (s *Service) ready() error {
	if s == nil || s.Q == nil {
		return fmt.Errorf("receipt service not configured")
	}
	return nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Service) withLock(ctx context.Context, receiptID int64, fn func(context.Context) error) error {
	if s.Lock == nil {
		return fn(ctx)
	}
	return s.Lock.WithLock(ctx, lock.ReceiptKey(receiptID), s.LockTTL, fn)
}

func mapStoreErr(err error, what string) error {
	if errors.Is(err, store.ErrNotFound) {
		return common.NotFoundError(what + " not found")
	}
	return err
}

func (s *Service) emit(ctx context.Context, topic string, receiptID int64, payload any) {
	if s.Events == nil {
		return
	}
	// Event emission is best effort; the mutation already committed.
	_, _ = s.Events.Emit(ctx, topic, receiptID, payload)
}

// Create opens a new receipt for the customer. A zero operation date
// defaults to the current time.
func (s *Service) Create(ctx context.Context, customerID int64, operationDate time.Time) (domain.Receipt, error) {
	if err := s.ready(); err != nil {
		return domain.Receipt{}, err
	}
	if customerID <= 0 {
		return domain.Receipt{}, common.ValidationError("customer id is required")
	}
	if _, err := s.Q.GetCustomer(ctx, customerID); err != nil {
		return domain.Receipt{}, mapStoreErr(err, "customer")
	}
	if operationDate.IsZero() {
		operationDate = s.now()
	}
	created, err := s.Q.CreateReceipt(ctx, domain.Receipt{
		CustomerID:    customerID,
		OperationDate: operationDate,
	})
	if err != nil {
		return domain.Receipt{}, mapStoreErr(err, "receipt")
	}
	s.emit(ctx, TopicCreated, created.ID, map[string]any{
		"customerId":    created.CustomerID,
		"operationDate": created.OperationDate,
	})
	return created, nil
}

// Get loads a receipt with its lines and customer.
func (s *Service) Get(ctx context.Context, id int64) (domain.Receipt, error) {
	if err := s.ready(); err != nil {
		return domain.Receipt{}, err
	}
	r, err := s.Q.GetReceiptWithLines(ctx, id)
	if err != nil {
		return domain.Receipt{}, mapStoreErr(err, "receipt")
	}
	return r, nil
}

// List returns all receipts with their lines.
func (s *Service) List(ctx context.Context) ([]domain.Receipt, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.Q.ListReceiptsWithLines(ctx)
}

// ByPeriod returns receipts whose operation date falls inside [start, end].
// A reversed window matches nothing.
func (s *Service) ByPeriod(ctx context.Context, start, end time.Time) ([]domain.Receipt, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.Q.ListReceiptsByPeriod(ctx, start, end)
}

// Lines returns the lines of one receipt.
func (s *Service) Lines(ctx context.Context, id int64) ([]domain.ReceiptLine, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.Lines, nil
}

// Sum returns the amount the customer owes for the receipt: the discounted
// unit price of every line times its quantity, summed.
func (s *Service) Sum(ctx context.Context, id int64) (domain.Money, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return pricing.ReceiptTotal(&r), nil
}

// Update rewrites the receipt header (customer and operation date).
func (s *Service) Update(ctx context.Context, r domain.Receipt) error {
	if err := s.ready(); err != nil {
		return err
	}
	if r.CustomerID <= 0 {
		return common.ValidationError("customer id is required")
	}
	if _, err := s.Q.GetCustomer(ctx, r.CustomerID); err != nil {
		return mapStoreErr(err, "customer")
	}
	return s.withLock(ctx, r.ID, func(ctx context.Context) error {
		existing, err := s.Q.GetReceiptWithLines(ctx, r.ID)
		if err != nil {
			return mapStoreErr(err, "receipt")
		}
		// Header updates never reopen or close a receipt.
		r.IsCheckedOut = existing.IsCheckedOut
		if err := s.Q.UpdateReceipt(ctx, r); err != nil {
			return mapStoreErr(err, "receipt")
		}
		return nil
	})
}

// Delete removes a receipt together with all its lines.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.withLock(ctx, id, func(ctx context.Context) error {
		if err := s.Q.DeleteReceipt(ctx, id); err != nil {
			return mapStoreErr(err, "receipt")
		}
		return nil
	})
}

// CheckOut marks the receipt as paid and closes it for line edits.
func (s *Service) CheckOut(ctx context.Context, id int64) error {
	if err := s.ready(); err != nil {
		return err
	}
	var total domain.Money
	err := s.withLock(ctx, id, func(ctx context.Context) error {
		r, err := s.Q.GetReceiptWithLines(ctx, id)
		if err != nil {
			return mapStoreErr(err, "receipt")
		}
		if r.IsCheckedOut {
			return common.ValidationError("receipt is already checked out")
		}
		total = pricing.ReceiptTotal(&r)
		return s.Q.SetReceiptCheckedOut(ctx, id)
	})
	if err != nil {
		return err
	}
	obs.IncReceiptsCheckedOut()
	s.emit(ctx, TopicCheckedOut, id, map[string]any{"toPay": total})
	return nil
}

// AddProduct adds quantity of a product to an open receipt. When the receipt
// already holds a line for the product the quantity is merged into it and the
// line keeps the prices fixed on first add; otherwise a new line is created
// priced with the customer's current discount.
func (s *Service) AddProduct(ctx context.Context, receiptID, productID int64, quantity int) (domain.ReceiptLine, error) {
	if err := s.ready(); err != nil {
		return domain.ReceiptLine{}, err
	}
	if quantity <= 0 {
		return domain.ReceiptLine{}, common.ValidationError("quantity must be positive")
	}
	var result domain.ReceiptLine
	err := s.withLock(ctx, receiptID, func(ctx context.Context) error {
		r, err := s.Q.GetReceiptWithLines(ctx, receiptID)
		if err != nil {
			return mapStoreErr(err, "receipt")
		}
		if r.IsCheckedOut {
			return common.ValidationError("receipt is checked out")
		}
		product, err := s.Q.GetProduct(ctx, productID)
		if err != nil {
			return mapStoreErr(err, "product")
		}
		discount := 0
		if r.Customer != nil {
			discount = r.Customer.Discount
		}
		line, merged := pricing.AddLine(&r, product, quantity, discount)
		if merged {
			if err := s.Q.UpdateReceiptLineQuantity(ctx, line.ID, line.Quantity); err != nil {
				return mapStoreErr(err, "receipt line")
			}
			result = line
			return nil
		}
		inserted, err := s.Q.InsertReceiptLine(ctx, line)
		if err != nil {
			return mapStoreErr(err, "receipt line")
		}
		obs.IncLinesPriced()
		result = inserted
		return nil
	})
	if err != nil {
		return domain.ReceiptLine{}, err
	}
	return result, nil
}

// RemoveProduct subtracts quantity of a product from an open receipt. A line
// whose quantity would drop to zero or below is deleted.
func (s *Service) RemoveProduct(ctx context.Context, receiptID, productID int64, quantity int) error {
	if err := s.ready(); err != nil {
		return err
	}
	if quantity <= 0 {
		return common.ValidationError("quantity must be positive")
	}
	return s.withLock(ctx, receiptID, func(ctx context.Context) error {
		r, err := s.Q.GetReceiptWithLines(ctx, receiptID)
		if err != nil {
			return mapStoreErr(err, "receipt")
		}
		if r.IsCheckedOut {
			return common.ValidationError("receipt is checked out")
		}
		if r.LineByProduct(productID) < 0 {
			return common.NotFoundError("receipt line not found")
		}
		updated, removed := pricing.RemoveQuantity(&r, productID, quantity)
		for _, line := range updated {
			if err := s.Q.UpdateReceiptLineQuantity(ctx, line.ID, line.Quantity); err != nil {
				return mapStoreErr(err, "receipt line")
			}
		}
		if len(removed) > 0 {
			if err := s.Q.DeleteReceiptLines(ctx, removed); err != nil {
				return mapStoreErr(err, "receipt line")
			}
		}
		return nil
	})
}
