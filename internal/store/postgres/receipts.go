package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/trademarket/backend-market/internal/domain"
	"github.com/trademarket/backend-market/internal/store"
)

func scanReceiptHeader(row pgx.Row) (domain.Receipt, error) {
	var (
		r domain.Receipt
		c domain.Customer
	)
	err := row.Scan(
		&r.ID, &r.CustomerID, &r.OperationDate, &r.IsCheckedOut,
		&c.ID, &c.PersonID, &c.Discount,
		&c.Person.ID, &c.Person.Name, &c.Person.Surname, &c.Person.BirthDate,
	)
	if err != nil {
		return domain.Receipt{}, mapRowErr(err)
	}
	r.Customer = &c
	return r, nil
}

const receiptHeaderQuery = `
	SELECT r.id, r.customer_id, r.operation_date, r.is_checked_out,
	       c.id, c.person_id, c.discount,
	       p.id, p.name, p.surname, p.birth_date
	FROM receipts r
	JOIN customers c ON c.id = r.customer_id
	JOIN persons p ON p.id = c.person_id`

const lineQuery = `
	SELECT rl.id, rl.receipt_id, rl.product_id, rl.quantity, rl.unit_price, rl.discounted_unit_price,
	       pr.id, pr.category_id, pr.name, pr.price
	FROM receipt_lines rl
	JOIN products pr ON pr.id = rl.product_id`

func scanLine(rows pgx.Rows) (domain.ReceiptLine, error) {
	var (
		line    domain.ReceiptLine
		product domain.Product
	)
	err := rows.Scan(
		&line.ID, &line.ReceiptID, &line.ProductID, &line.Quantity, &line.UnitPrice, &line.DiscountedUnitPrice,
		&product.ID, &product.CategoryID, &product.Name, &product.Price,
	)
	if err != nil {
		return domain.ReceiptLine{}, err
	}
	line.Product = &product
	return line, nil
}

func (s *Store) linesForReceipts(ctx context.Context, receipts []domain.Receipt) error {
	if len(receipts) == 0 {
		return nil
	}
	ids := make([]int64, len(receipts))
	index := make(map[int64]*domain.Receipt, len(receipts))
	for i := range receipts {
		ids[i] = receipts[i].ID
		index[receipts[i].ID] = &receipts[i]
	}
	rows, err := s.pool.Query(ctx, lineQuery+`
		WHERE rl.receipt_id = ANY($1)
		ORDER BY rl.id
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return err
		}
		if r, ok := index[line.ReceiptID]; ok {
			r.Lines = append(r.Lines, line)
		}
	}
	return rows.Err()
}

// CreateReceipt inserts a receipt header and returns it with its id.
func (s *Store) CreateReceipt(ctx context.Context, r domain.Receipt) (domain.Receipt, error) {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO receipts (customer_id, operation_date, is_checked_out)
		VALUES ($1, $2, $3)
		RETURNING id
	`, r.CustomerID, r.OperationDate, r.IsCheckedOut).Scan(&r.ID)
	if err != nil {
		return domain.Receipt{}, mapRowErr(err)
	}
	return r, nil
}

// GetReceiptWithLines loads a receipt with customer, lines and products.
func (s *Store) GetReceiptWithLines(ctx context.Context, id int64) (domain.Receipt, error) {
	r, err := scanReceiptHeader(s.pool.QueryRow(ctx, receiptHeaderQuery+` WHERE r.id = $1`, id))
	if err != nil {
		return domain.Receipt{}, err
	}
	receipts := []domain.Receipt{r}
	if err := s.linesForReceipts(ctx, receipts); err != nil {
		return domain.Receipt{}, err
	}
	return receipts[0], nil
}

func (s *Store) listReceipts(ctx context.Context, where string, args ...any) ([]domain.Receipt, error) {
	rows, err := s.pool.Query(ctx, receiptHeaderQuery+where+` ORDER BY r.id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	receipts := make([]domain.Receipt, 0, 64)
	for rows.Next() {
		r, err := scanReceiptHeader(rows)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.linesForReceipts(ctx, receipts); err != nil {
		return nil, err
	}
	return receipts, nil
}

// ListReceiptsWithLines returns every receipt fully resolved.
func (s *Store) ListReceiptsWithLines(ctx context.Context) ([]domain.Receipt, error) {
	return s.listReceipts(ctx, "")
}

// ListReceiptsByPeriod returns receipts whose operation date lies inside
// the inclusive [start, end] window, fully resolved.
func (s *Store) ListReceiptsByPeriod(ctx context.Context, start, end time.Time) ([]domain.Receipt, error) {
	return s.listReceipts(ctx, ` WHERE r.operation_date >= $1 AND r.operation_date <= $2`, start, end)
}

// UpdateReceipt persists receipt header changes.
func (s *Store) UpdateReceipt(ctx context.Context, r domain.Receipt) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE receipts
		SET customer_id = $2, operation_date = $3, is_checked_out = $4
		WHERE id = $1
	`, r.ID, r.CustomerID, r.OperationDate, r.IsCheckedOut)
	if err != nil {
		return mapRowErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// SetReceiptCheckedOut flips the checked-out flag.
func (s *Store) SetReceiptCheckedOut(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE receipts
		SET is_checked_out = TRUE
		WHERE id = $1
	`, id)
	if err != nil {
		return mapRowErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteReceipt removes the receipt and all of its lines.
func (s *Store) DeleteReceipt(ctx context.Context, id int64) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM receipt_lines WHERE receipt_id = $1`, id); err != nil {
		return mapRowErr(err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM receipts WHERE id = $1`, id)
	if err != nil {
		return mapRowErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return tx.Commit(ctx)
}

// InsertReceiptLine stores a freshly priced line and returns it with its id.
func (s *Store) InsertReceiptLine(ctx context.Context, line domain.ReceiptLine) (domain.ReceiptLine, error) {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO receipt_lines (receipt_id, product_id, quantity, unit_price, discounted_unit_price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, line.ReceiptID, line.ProductID, line.Quantity, line.UnitPrice, line.DiscountedUnitPrice).Scan(&line.ID)
	if err != nil {
		return domain.ReceiptLine{}, mapRowErr(err)
	}
	return line, nil
}

// UpdateReceiptLineQuantity sets the quantity of an existing line.
func (s *Store) UpdateReceiptLineQuantity(ctx context.Context, lineID int64, quantity int) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE receipt_lines
		SET quantity = $2
		WHERE id = $1
	`, lineID, quantity)
	if err != nil {
		return mapRowErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteReceiptLines removes lines by id.
func (s *Store) DeleteReceiptLines(ctx context.Context, lineIDs []int64) error {
	if len(lineIDs) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM receipt_lines WHERE id = ANY($1)`, lineIDs)
	return err
}

// ListReceiptLines returns every line with its product resolved.
func (s *Store) ListReceiptLines(ctx context.Context) ([]domain.ReceiptLine, error) {
	rows, err := s.pool.Query(ctx, lineQuery+` ORDER BY rl.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make([]domain.ReceiptLine, 0, 128)
	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}
