package domain

import "time"

// Money is a monetary value in minor currency units (e.g. cents).
type Money = int64

// Category groups products in the catalog.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Product is a catalog entry. Price is the current catalog price; receipt
// lines snapshot it at sale time and never follow later price changes.
type Product struct {
	ID         int64  `json:"id"`
	CategoryID int64  `json:"categoryId"`
	Name       string `json:"name"`
	Price      Money  `json:"price"`
}

// Person holds the identity attached to a customer account.
type Person struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Surname   string    `json:"surname"`
	BirthDate time.Time `json:"birthDate"`
}

// Customer owns receipts and carries a percentage discount in [0,100].
type Customer struct {
	ID       int64  `json:"id"`
	PersonID int64  `json:"personId"`
	Discount int    `json:"discount"`
	Person   Person `json:"person"`
}

// DisplayName renders the customer name as shown in reports.
func (c Customer) DisplayName() string {
	return c.Person.Name + " " + c.Person.Surname
}

// ReceiptLine is a single product entry on a receipt. UnitPrice and
// DiscountedUnitPrice are fixed when the line is first created.
type ReceiptLine struct {
	ID                  int64    `json:"id"`
	ReceiptID           int64    `json:"receiptId"`
	ProductID           int64    `json:"productId"`
	Quantity            int      `json:"quantity"`
	UnitPrice           Money    `json:"unitPrice"`
	DiscountedUnitPrice Money    `json:"discountedUnitPrice"`
	Product             *Product `json:"product,omitempty"`
}

// Receipt is a customer purchase document. Lines hold at most one entry
// per product while the receipt is open for editing.
type Receipt struct {
	ID            int64         `json:"id"`
	CustomerID    int64         `json:"customerId"`
	OperationDate time.Time     `json:"operationDate"`
	IsCheckedOut  bool          `json:"isCheckedOut"`
	Customer      *Customer     `json:"customer,omitempty"`
	Lines         []ReceiptLine `json:"lines"`
}

// LineByProduct returns the index of the line referencing productID, or -1.
func (r *Receipt) LineByProduct(productID int64) int {
	for i := range r.Lines {
		if r.Lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}
