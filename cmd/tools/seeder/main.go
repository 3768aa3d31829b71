// Command seeder loads demo catalog, customer and receipt data into the
// configured database. Intended for development environments only.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/trademarket/backend-market/internal/domain"
	"github.com/trademarket/backend-market/internal/pricing"
	"github.com/trademarket/backend-market/internal/store/postgres"
)

func main() {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("ping database: %v", err)
	}

	st := postgres.New(pool)

	log.Println("seeding categories and products...")
	categories := map[string][]domain.Product{
		"Beverages": {
			{Name: "Coffee beans 1kg", Price: 1800},
			{Name: "Green tea 50g", Price: 650},
			{Name: "Orange juice 1l", Price: 420},
		},
		"Bakery": {
			{Name: "Sourdough loaf", Price: 540},
			{Name: "Croissant", Price: 230},
		},
		"Dairy": {
			{Name: "Milk 1l", Price: 180},
			{Name: "Cheddar 300g", Price: 990},
		},
	}

	products := make([]domain.Product, 0, 8)
	for name, items := range categories {
		cat, err := st.CreateCategory(ctx, domain.Category{Name: name})
		if err != nil {
			log.Fatalf("create category %s: %v", name, err)
		}
		for _, item := range items {
			item.CategoryID = cat.ID
			created, err := st.CreateProduct(ctx, item)
			if err != nil {
				log.Fatalf("create product %s: %v", item.Name, err)
			}
			products = append(products, created)
		}
	}

	log.Println("seeding customers...")
	seedCustomers := []domain.Customer{
		{Discount: 0, Person: domain.Person{Name: "Olena", Surname: "Kovalenko", BirthDate: date(1988, 4, 12)}},
		{Discount: 10, Person: domain.Person{Name: "Taras", Surname: "Shevchuk", BirthDate: date(1975, 11, 3)}},
		{Discount: 15, Person: domain.Person{Name: "Iryna", Surname: "Bondar", BirthDate: date(1992, 7, 24)}},
		{Discount: 25, Person: domain.Person{Name: "Petro", Surname: "Melnyk", BirthDate: date(1969, 1, 30)}},
	}
	customers := make([]domain.Customer, 0, len(seedCustomers))
	for _, c := range seedCustomers {
		created, err := st.CreateCustomer(ctx, c)
		if err != nil {
			log.Fatalf("create customer %s: %v", c.DisplayName(), err)
		}
		customers = append(customers, created)
	}

	log.Println("seeding receipts...")
	baseDate := time.Now().UTC().AddDate(0, -1, 0)
	for i, c := range customers {
		r, err := st.CreateReceipt(ctx, domain.Receipt{
			CustomerID:    c.ID,
			OperationDate: baseDate.AddDate(0, 0, i*3),
		})
		if err != nil {
			log.Fatalf("create receipt: %v", err)
		}
		for j := 0; j <= i && j < len(products); j++ {
			p := products[(i+j)%len(products)]
			line, _ := pricing.AddLine(&r, p, j+1, c.Discount)
			if _, err := st.InsertReceiptLine(ctx, line); err != nil {
				log.Fatalf("create receipt line: %v", err)
			}
		}
		if i%2 == 0 {
			if err := st.SetReceiptCheckedOut(ctx, r.ID); err != nil {
				log.Fatalf("check out receipt: %v", err)
			}
		}
	}

	log.Println("seeding completed")
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
