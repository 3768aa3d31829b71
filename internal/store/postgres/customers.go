package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/trademarket/backend-market/internal/domain"
	"github.com/trademarket/backend-market/internal/store"
)

const customerColumns = `
	c.id, c.person_id, c.discount,
	p.id, p.name, p.surname, p.birth_date`

func scanCustomer(row pgx.Row) (domain.Customer, error) {
	var c domain.Customer
	err := row.Scan(
		&c.ID, &c.PersonID, &c.Discount,
		&c.Person.ID, &c.Person.Name, &c.Person.Surname, &c.Person.BirthDate,
	)
	if err != nil {
		return domain.Customer{}, mapRowErr(err)
	}
	return c, nil
}

// ListCustomers returns all customers with their person records.
func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT`+customerColumns+`
		FROM customers c
		JOIN persons p ON p.id = c.person_id
		ORDER BY c.id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0, 32)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// GetCustomer loads one customer with its person record.
func (s *Store) GetCustomer(ctx context.Context, id int64) (domain.Customer, error) {
	return scanCustomer(s.pool.QueryRow(ctx, `
		SELECT`+customerColumns+`
		FROM customers c
		JOIN persons p ON p.id = c.person_id
		WHERE c.id = $1
	`, id))
}

// CreateCustomer inserts the person and customer rows in one transaction.
func (s *Store) CreateCustomer(ctx context.Context, c domain.Customer) (domain.Customer, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Customer{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO persons (name, surname, birth_date)
		VALUES ($1, $2, $3)
		RETURNING id
	`, c.Person.Name, c.Person.Surname, c.Person.BirthDate).Scan(&c.Person.ID)
	if err != nil {
		return domain.Customer{}, mapRowErr(err)
	}
	c.PersonID = c.Person.ID

	err = tx.QueryRow(ctx, `
		INSERT INTO customers (person_id, discount)
		VALUES ($1, $2)
		RETURNING id
	`, c.PersonID, c.Discount).Scan(&c.ID)
	if err != nil {
		return domain.Customer{}, mapRowErr(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Customer{}, err
	}
	return c, nil
}

// UpdateCustomer persists both customer and person changes in one
// transaction. Both rows are always written.
func (s *Store) UpdateCustomer(ctx context.Context, c domain.Customer) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE customers
		SET discount = $2
		WHERE id = $1
	`, c.ID, c.Discount)
	if err != nil {
		return mapRowErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}

	_, err = tx.Exec(ctx, `
		UPDATE persons
		SET name = $2, surname = $3, birth_date = $4
		WHERE id = (SELECT person_id FROM customers WHERE id = $1)
	`, c.ID, c.Person.Name, c.Person.Surname, c.Person.BirthDate)
	if err != nil {
		return mapRowErr(err)
	}
	return tx.Commit(ctx)
}

// DeleteCustomer removes the customer and its person record.
func (s *Store) DeleteCustomer(ctx context.Context, id int64) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var personID int64
	err = tx.QueryRow(ctx, `DELETE FROM customers WHERE id = $1 RETURNING person_id`, id).Scan(&personID)
	if err != nil {
		return mapRowErr(err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM persons WHERE id = $1`, personID); err != nil {
		return mapRowErr(err)
	}
	return tx.Commit(ctx)
}

// ListCustomersByProduct returns the customers holding at least one receipt
// containing the product.
func (s *Store) ListCustomersByProduct(ctx context.Context, productID int64) ([]domain.Customer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT`+customerColumns+`
		FROM customers c
		JOIN persons p ON p.id = c.person_id
		JOIN receipts r ON r.customer_id = c.id
		JOIN receipt_lines rl ON rl.receipt_id = r.id
		WHERE rl.product_id = $1
		ORDER BY c.id
	`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0, 16)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}
