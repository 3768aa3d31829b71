// Package memory implements the market store with in-process maps. It
// backs unit tests and local experiments; behaviour mirrors the Postgres
// store including not-found and cascade semantics.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trademarket/backend-market/internal/domain"
	"github.com/trademarket/backend-market/internal/store"
)

// Event is a captured domain event row.
type Event struct {
	ID          uuid.UUID
	Topic       string
	AggregateID int64
	Payload     []byte
}

// Store keeps all market data in memory.
type Store struct {
	mu sync.Mutex

	categories map[int64]domain.Category
	products   map[int64]domain.Product
	persons    map[int64]domain.Person
	customers  map[int64]domain.Customer
	receipts   map[int64]domain.Receipt
	lines      map[int64]domain.ReceiptLine
	events     []Event

	nextID int64
}

// New returns an empty store.
func New() *Store {
	return &Store{
		categories: map[int64]domain.Category{},
		products:   map[int64]domain.Product{},
		persons:    map[int64]domain.Person{},
		customers:  map[int64]domain.Customer{},
		receipts:   map[int64]domain.Receipt{},
		lines:      map[int64]domain.ReceiptLine{},
	}
}

func (s *Store) nextSeq() int64 {
	s.nextID++
	return s.nextID
}

// ListCategories returns all categories ordered by id.
func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b domain.Category) int { return int(a.ID - b.ID) })
	return out, nil
}

// GetCategory loads one category.
func (s *Store) GetCategory(ctx context.Context, id int64) (domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return domain.Category{}, store.ErrNotFound
	}
	return c, nil
}

// CreateCategory assigns an id and stores the category.
func (s *Store) CreateCategory(ctx context.Context, c domain.Category) (domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.nextSeq()
	s.categories[c.ID] = c
	return c, nil
}

// UpdateCategory overwrites an existing category.
func (s *Store) UpdateCategory(ctx context.Context, c domain.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[c.ID]; !ok {
		return store.ErrNotFound
	}
	s.categories[c.ID] = c
	return nil
}

// DeleteCategory removes a category.
func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.categories, id)
	return nil
}

// ListProducts returns products matching the filter ordered by id.
func (s *Store) ListProducts(ctx context.Context, filter store.ProductFilter) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if filter.Match(p) {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b domain.Product) int { return int(a.ID - b.ID) })
	return out, nil
}

// GetProduct loads one product.
func (s *Store) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, store.ErrNotFound
	}
	return p, nil
}

// CreateProduct assigns an id and stores the product.
func (s *Store) CreateProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.nextSeq()
	s.products[p.ID] = p
	return p, nil
}

// UpdateProduct overwrites an existing product.
func (s *Store) UpdateProduct(ctx context.Context, p domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.ID]; !ok {
		return store.ErrNotFound
	}
	s.products[p.ID] = p
	return nil
}

// DeleteProduct removes a product.
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *Store) customerLocked(id int64) (domain.Customer, bool) {
	c, ok := s.customers[id]
	if !ok {
		return domain.Customer{}, false
	}
	c.Person = s.persons[c.PersonID]
	return c, true
}

// ListCustomers returns all customers with persons resolved.
func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Customer, 0, len(s.customers))
	for id := range s.customers {
		c, _ := s.customerLocked(id)
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b domain.Customer) int { return int(a.ID - b.ID) })
	return out, nil
}

// GetCustomer loads one customer with its person resolved.
func (s *Store) GetCustomer(ctx context.Context, id int64) (domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customerLocked(id)
	if !ok {
		return domain.Customer{}, store.ErrNotFound
	}
	return c, nil
}

// CreateCustomer stores the person and customer.
func (s *Store) CreateCustomer(ctx context.Context, c domain.Customer) (domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.Person.ID = s.nextSeq()
	c.PersonID = c.Person.ID
	s.persons[c.Person.ID] = c.Person
	c.ID = s.nextSeq()
	s.customers[c.ID] = c
	return c, nil
}

// UpdateCustomer overwrites customer and person fields.
func (s *Store) UpdateCustomer(ctx context.Context, c domain.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.customers[c.ID]
	if !ok {
		return store.ErrNotFound
	}
	person := s.persons[existing.PersonID]
	person.Name = c.Person.Name
	person.Surname = c.Person.Surname
	person.BirthDate = c.Person.BirthDate
	s.persons[existing.PersonID] = person
	existing.Discount = c.Discount
	s.customers[c.ID] = existing
	return nil
}

// DeleteCustomer removes the customer and its person.
func (s *Store) DeleteCustomer(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[id]
	if !ok {
		return store.ErrNotFound
	}
	delete(s.persons, c.PersonID)
	delete(s.customers, id)
	return nil
}

// ListCustomersByProduct returns customers who bought the product.
func (s *Store) ListCustomersByProduct(ctx context.Context, productID int64) ([]domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[int64]bool{}
	for _, line := range s.lines {
		if line.ProductID != productID {
			continue
		}
		if r, ok := s.receipts[line.ReceiptID]; ok {
			seen[r.CustomerID] = true
		}
	}
	out := make([]domain.Customer, 0, len(seen))
	for id := range seen {
		if c, ok := s.customerLocked(id); ok {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b domain.Customer) int { return int(a.ID - b.ID) })
	return out, nil
}

func (s *Store) receiptLocked(id int64) (domain.Receipt, bool) {
	r, ok := s.receipts[id]
	if !ok {
		return domain.Receipt{}, false
	}
	if c, ok := s.customerLocked(r.CustomerID); ok {
		r.Customer = &c
	}
	r.Lines = nil
	lineIDs := make([]int64, 0, 8)
	for lid, line := range s.lines {
		if line.ReceiptID == id {
			lineIDs = append(lineIDs, lid)
		}
	}
	slices.Sort(lineIDs)
	for _, lid := range lineIDs {
		line := s.lines[lid]
		if p, ok := s.products[line.ProductID]; ok {
			product := p
			line.Product = &product
		}
		r.Lines = append(r.Lines, line)
	}
	return r, true
}

// CreateReceipt assigns an id and stores the receipt header.
func (s *Store) CreateReceipt(ctx context.Context, r domain.Receipt) (domain.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.nextSeq()
	r.Customer = nil
	r.Lines = nil
	s.receipts[r.ID] = r
	return r, nil
}

// GetReceiptWithLines loads a fully resolved receipt.
func (s *Store) GetReceiptWithLines(ctx context.Context, id int64) (domain.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.receiptLocked(id)
	if !ok {
		return domain.Receipt{}, store.ErrNotFound
	}
	return r, nil
}

// ListReceiptsWithLines returns every receipt fully resolved.
func (s *Store) ListReceiptsWithLines(ctx context.Context) ([]domain.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Receipt, 0, len(s.receipts))
	for id := range s.receipts {
		r, _ := s.receiptLocked(id)
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b domain.Receipt) int { return int(a.ID - b.ID) })
	return out, nil
}

// ListReceiptsByPeriod returns receipts inside the inclusive window.
func (s *Store) ListReceiptsByPeriod(ctx context.Context, start, end time.Time) ([]domain.Receipt, error) {
	all, _ := s.ListReceiptsWithLines(ctx)
	out := make([]domain.Receipt, 0, len(all))
	for _, r := range all {
		if !r.OperationDate.Before(start) && !r.OperationDate.After(end) {
			out = append(out, r)
		}
	}
	return out, nil
}

// UpdateReceipt overwrites receipt header fields.
func (s *Store) UpdateReceipt(ctx context.Context, r domain.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.receipts[r.ID]
	if !ok {
		return store.ErrNotFound
	}
	existing.CustomerID = r.CustomerID
	existing.OperationDate = r.OperationDate
	existing.IsCheckedOut = r.IsCheckedOut
	s.receipts[r.ID] = existing
	return nil
}

// SetReceiptCheckedOut flips the checked-out flag.
func (s *Store) SetReceiptCheckedOut(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.receipts[id]
	if !ok {
		return store.ErrNotFound
	}
	r.IsCheckedOut = true
	s.receipts[id] = r
	return nil
}

// DeleteReceipt removes the receipt and all of its lines.
func (s *Store) DeleteReceipt(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.receipts[id]; !ok {
		return store.ErrNotFound
	}
	for lid, line := range s.lines {
		if line.ReceiptID == id {
			delete(s.lines, lid)
		}
	}
	delete(s.receipts, id)
	return nil
}

// InsertReceiptLine assigns an id and stores the line.
func (s *Store) InsertReceiptLine(ctx context.Context, line domain.ReceiptLine) (domain.ReceiptLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line.ID = s.nextSeq()
	line.Product = nil
	s.lines[line.ID] = line
	return line, nil
}

// UpdateReceiptLineQuantity sets an existing line's quantity.
func (s *Store) UpdateReceiptLineQuantity(ctx context.Context, lineID int64, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	line, ok := s.lines[lineID]
	if !ok {
		return store.ErrNotFound
	}
	line.Quantity = quantity
	s.lines[lineID] = line
	return nil
}

// DeleteReceiptLines removes lines by id.
func (s *Store) DeleteReceiptLines(ctx context.Context, lineIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range lineIDs {
		delete(s.lines, id)
	}
	return nil
}

// ListReceiptLines returns every line with its product resolved.
func (s *Store) ListReceiptLines(ctx context.Context) ([]domain.ReceiptLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.lines))
	for id := range s.lines {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]domain.ReceiptLine, 0, len(ids))
	for _, id := range ids {
		line := s.lines[id]
		if p, ok := s.products[line.ProductID]; ok {
			product := p
			line.Product = &product
		}
		out = append(out, line)
	}
	return out, nil
}

// InsertDomainEvent records an event for later inspection.
func (s *Store) InsertDomainEvent(ctx context.Context, id uuid.UUID, topic string, aggregateID int64, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, Event{ID: id, Topic: topic, AggregateID: aggregateID, Payload: payload})
	return nil
}

// Events returns a copy of the captured domain events.
func (s *Store) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.events)
}
