// Package pricing computes receipt line prices and receipt totals.
//
// All amounts are monetary values in minor units. The discounted unit
// price of a line is fixed the moment the line is created and never
// recomputed, even when the product's catalog price or the customer's
// discount changes afterwards.
package pricing

import "github.com/trademarket/backend-market/internal/domain"

// Money is a monetary value stored in minor units.
type Money = domain.Money

// DiscountedUnitPrice applies an integer percentage discount to a unit
// price. The result is truncated to whole minor units.
func DiscountedUnitPrice(unitPrice Money, discount int) Money {
	if discount <= 0 {
		return unitPrice
	}
	if discount >= 100 {
		return 0
	}
	return unitPrice * Money(100-discount) / 100
}

// AddLine merges quantity into an existing line for the product, or appends
// a new line priced with the customer's current discount. The returned bool
// reports whether an existing line was merged. Prices on a merged line are
// left untouched: they were snapshotted on first add.
//
// Callers validate qty > 0 and discount in [0,100] before calling.
func AddLine(receipt *domain.Receipt, product domain.Product, qty int, discount int) (domain.ReceiptLine, bool) {
	if i := receipt.LineByProduct(product.ID); i >= 0 {
		receipt.Lines[i].Quantity += qty
		return receipt.Lines[i], true
	}
	line := domain.ReceiptLine{
		ReceiptID:           receipt.ID,
		ProductID:           product.ID,
		Quantity:            qty,
		UnitPrice:           product.Price,
		DiscountedUnitPrice: DiscountedUnitPrice(product.Price, discount),
	}
	receipt.Lines = append(receipt.Lines, line)
	return line, false
}

// RemoveQuantity subtracts qty from every line referencing productID.
// A line whose quantity would drop to zero or below is removed from the
// receipt. It returns the surviving updated lines and the ids of removed
// lines so the caller can persist both effects.
func RemoveQuantity(receipt *domain.Receipt, productID int64, qty int) (updated []domain.ReceiptLine, removed []int64) {
	kept := receipt.Lines[:0]
	for _, line := range receipt.Lines {
		if line.ProductID != productID {
			kept = append(kept, line)
			continue
		}
		if line.Quantity <= qty {
			removed = append(removed, line.ID)
			continue
		}
		line.Quantity -= qty
		kept = append(kept, line)
		updated = append(updated, line)
	}
	receipt.Lines = kept
	return updated, removed
}

// LineTotal is the discounted price of a line times its quantity.
func LineTotal(line domain.ReceiptLine) Money {
	return line.DiscountedUnitPrice * Money(line.Quantity)
}

// ReceiptTotal sums LineTotal over all lines of the receipt.
func ReceiptTotal(receipt *domain.Receipt) Money {
	var total Money
	for _, line := range receipt.Lines {
		total += LineTotal(line)
	}
	return total
}
