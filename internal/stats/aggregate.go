// Package stats ranks products and customers over receipt data already
// loaded into memory. The aggregation functions never mutate their inputs
// and never fail on empty input.
package stats

import (
	"slices"
	"time"

	"github.com/trademarket/backend-market/internal/domain"
	"github.com/trademarket/backend-market/internal/pricing"
)

// CustomerActivity is one row of the most-valuable-customers ranking.
type CustomerActivity struct {
	CustomerID   int64         `json:"customerId"`
	CustomerName string        `json:"customerName"`
	Total        pricing.Money `json:"total"`
}

// MostPopularProducts groups lines by product, sums quantities and returns
// the topN products by summed quantity. Ties break by ascending product id.
// topN <= 0 yields an empty slice.
func MostPopularProducts(lines []domain.ReceiptLine, topN int) []domain.Product {
	if topN <= 0 || len(lines) == 0 {
		return nil
	}
	type group struct {
		product domain.Product
		qty     int
	}
	groups := make(map[int64]*group)
	for _, line := range lines {
		if g, ok := groups[line.ProductID]; ok {
			g.qty += line.Quantity
			continue
		}
		g := &group{qty: line.Quantity}
		if line.Product != nil {
			g.product = *line.Product
		} else {
			g.product = domain.Product{ID: line.ProductID}
		}
		groups[line.ProductID] = g
	}
	ranked := make([]*group, 0, len(groups))
	for _, g := range groups {
		ranked = append(ranked, g)
	}
	slices.SortFunc(ranked, func(a, b *group) int {
		if a.qty != b.qty {
			if a.qty > b.qty {
				return -1
			}
			return 1
		}
		if a.product.ID < b.product.ID {
			return -1
		}
		return 1
	})
	if topN < len(ranked) {
		ranked = ranked[:topN]
	}
	products := make([]domain.Product, len(ranked))
	for i, g := range ranked {
		products[i] = g.product
	}
	return products
}

// MostPopularProductsForCustomer restricts receipts to one customer before
// ranking products the same way MostPopularProducts does.
func MostPopularProductsForCustomer(receipts []domain.Receipt, customerID int64, topN int) []domain.Product {
	var lines []domain.ReceiptLine
	for _, r := range receipts {
		if r.CustomerID != customerID {
			continue
		}
		lines = append(lines, r.Lines...)
	}
	return MostPopularProducts(lines, topN)
}

// IncomeForCategoryInPeriod sums the discounted line totals of all lines
// whose product belongs to categoryID, over receipts whose operation date
// falls inside [start, end]. A window matching nothing yields zero.
func IncomeForCategoryInPeriod(receipts []domain.Receipt, categoryID int64, start, end time.Time) pricing.Money {
	var income pricing.Money
	for _, r := range receipts {
		if !inPeriod(r.OperationDate, start, end) {
			continue
		}
		for _, line := range r.Lines {
			if line.Product == nil || line.Product.CategoryID != categoryID {
				continue
			}
			income += pricing.LineTotal(line)
		}
	}
	return income
}

// MostValuableCustomers ranks customers by total discounted spend across
// receipts in [start, end]. Ties break by ascending customer id. The
// display name is resolved from the receipt's customer at aggregation time.
func MostValuableCustomers(receipts []domain.Receipt, topN int, start, end time.Time) []CustomerActivity {
	if topN <= 0 {
		return nil
	}
	type group struct {
		name  string
		total pricing.Money
	}
	groups := make(map[int64]*group)
	for i := range receipts {
		r := &receipts[i]
		if !inPeriod(r.OperationDate, start, end) {
			continue
		}
		g, ok := groups[r.CustomerID]
		if !ok {
			g = &group{}
			if r.Customer != nil {
				g.name = r.Customer.DisplayName()
			}
			groups[r.CustomerID] = g
		}
		g.total += pricing.ReceiptTotal(r)
	}
	if len(groups) == 0 {
		return nil
	}
	ranked := make([]CustomerActivity, 0, len(groups))
	for id, g := range groups {
		ranked = append(ranked, CustomerActivity{CustomerID: id, CustomerName: g.name, Total: g.total})
	}
	slices.SortFunc(ranked, func(a, b CustomerActivity) int {
		if a.Total != b.Total {
			if a.Total > b.Total {
				return -1
			}
			return 1
		}
		if a.CustomerID < b.CustomerID {
			return -1
		}
		return 1
	})
	if topN < len(ranked) {
		ranked = ranked[:topN]
	}
	return ranked
}

// inPeriod is inclusive on both bounds. A reversed range matches nothing.
func inPeriod(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}
