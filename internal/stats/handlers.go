package stats

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/trademarket/backend-market/internal/common"
)

// Handler exposes the statistics endpoints.
type Handler struct {
	Svc *Service
}

// PopularProducts handles GET /api/v1/statistics/popular-products?count=.
func (h *Handler) PopularProducts(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "stats service not configured", nil)
		return
	}
	count := common.AtoiDefault(r.URL.Query().Get("count"), 10)
	products, err := h.Svc.PopularProducts(r.Context(), count)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": products})
}

// CustomerPopularProducts handles GET /api/v1/statistics/customers/{id}/popular-products?count=.
func (h *Handler) CustomerPopularProducts(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "stats service not configured", nil)
		return
	}
	customerID, err := common.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	count := common.AtoiDefault(r.URL.Query().Get("count"), 10)
	products, err := h.Svc.PopularProductsForCustomer(r.Context(), customerID, count)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": products})
}

// CategoryIncome handles GET /api/v1/statistics/income/{categoryId}?start=&end=.
func (h *Handler) CategoryIncome(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "stats service not configured", nil)
		return
	}
	categoryID, err := common.ParseID(chi.URLParam(r, "categoryId"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	start, end, err := parsePeriod(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	income, err := h.Svc.CategoryIncome(r.Context(), categoryID, start, end)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"categoryId": categoryID, "income": income}})
}

// ValuableCustomers handles GET /api/v1/statistics/activity?count=&start=&end=.
func (h *Handler) ValuableCustomers(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "stats service not configured", nil)
		return
	}
	count := common.AtoiDefault(r.URL.Query().Get("count"), 10)
	start, end, err := parsePeriod(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	activity, err := h.Svc.ValuableCustomers(r.Context(), count, start, end)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": activity})
}

// parsePeriod reads the inclusive [start, end] window. A reversed window is
// accepted and simply matches nothing.
func parsePeriod(r *http.Request) (time.Time, time.Time, error) {
	start, err := common.ParseDate(r.URL.Query().Get("start"))
	if err != nil {
		return time.Time{}, time.Time{}, common.ValidationError("start is required")
	}
	end, err := common.ParseDate(r.URL.Query().Get("end"))
	if err != nil {
		return time.Time{}, time.Time{}, common.ValidationError("end is required")
	}
	// Inclusive upper bound: a bare date means the whole day.
	if end.Hour() == 0 && end.Minute() == 0 && end.Second() == 0 {
		end = end.Add(24*time.Hour - time.Nanosecond)
	}
	return start, end, nil
}
