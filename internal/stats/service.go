package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/trademarket/backend-market/internal/domain"
	"github.com/trademarket/backend-market/internal/obs"
	"github.com/trademarket/backend-market/internal/pricing"
)

// Querier defines the data access required for statistics operations.
// Receipts come back with lines, products and customers eagerly resolved.
type Querier interface {
	ListReceiptsWithLines(ctx context.Context) ([]domain.Receipt, error)
	ListReceiptLines(ctx context.Context) ([]domain.ReceiptLine, error)
}

// Service caches ranking results computed over the full receipt history.
// Results may be slightly stale relative to concurrent mutations; TTL
// bounds the staleness window.
type Service struct {
	Q   Querier
	R   *redis.Client
	TTL time.Duration
}

func (s *Service) ready() error {
	if s == nil || s.Q == nil {
		return fmt.Errorf("stats service not configured")
	}
	return nil
}

func cacheKey(parts ...any) string {
	formatted := make([]string, 0, len(parts)+1)
	formatted = append(formatted, "st")
	for _, part := range parts {
		formatted = append(formatted, fmt.Sprint(part))
	}
	return strings.Join(formatted, ":")
}

// PopularProducts returns the topN best-selling products across all receipts.
func (s *Service) PopularProducts(ctx context.Context, topN int) ([]domain.Product, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	key := cacheKey("popular", topN)
	var cached []domain.Product
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}
	lines, err := s.Q.ListReceiptLines(ctx)
	if err != nil {
		return nil, err
	}
	products := MostPopularProducts(lines, topN)
	s.store(ctx, key, products)
	return products, nil
}

// PopularProductsForCustomer returns the topN products bought most by one customer.
func (s *Service) PopularProductsForCustomer(ctx context.Context, customerID int64, topN int) ([]domain.Product, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	key := cacheKey("popular", "customer", customerID, topN)
	var cached []domain.Product
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}
	receipts, err := s.Q.ListReceiptsWithLines(ctx)
	if err != nil {
		return nil, err
	}
	products := MostPopularProductsForCustomer(receipts, customerID, topN)
	s.store(ctx, key, products)
	return products, nil
}

// CategoryIncome returns the discounted income of a category inside [start, end].
func (s *Service) CategoryIncome(ctx context.Context, categoryID int64, start, end time.Time) (pricing.Money, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	key := cacheKey("income", categoryID, start.Format("2006-01-02"), end.Format("2006-01-02"))
	var cached pricing.Money
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}
	receipts, err := s.Q.ListReceiptsWithLines(ctx)
	if err != nil {
		return 0, err
	}
	income := IncomeForCategoryInPeriod(receipts, categoryID, start, end)
	s.store(ctx, key, income)
	return income, nil
}

// ValuableCustomers returns the topN customers by spend inside [start, end].
func (s *Service) ValuableCustomers(ctx context.Context, topN int, start, end time.Time) ([]CustomerActivity, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	key := cacheKey("activity", topN, start.Format("2006-01-02"), end.Format("2006-01-02"))
	var cached []CustomerActivity
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}
	receipts, err := s.Q.ListReceiptsWithLines(ctx)
	if err != nil {
		return nil, err
	}
	activity := MostValuableCustomers(receipts, topN, start, end)
	s.store(ctx, key, activity)
	return activity, nil
}

func (s *Service) fromCache(ctx context.Context, key string, out any) bool {
	if s.R == nil || s.TTL <= 0 {
		return false
	}
	data, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		obs.IncStatsCache("miss")
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		obs.IncStatsCache("miss")
		return false
	}
	obs.IncStatsCache("hit")
	return true
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if s.R == nil || s.TTL <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = s.R.Set(ctx, key, data, s.TTL).Err()
}
