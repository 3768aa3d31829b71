package receipt

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/trademarket/backend-market/internal/common"
	"github.com/trademarket/backend-market/internal/domain"
)

// Handler exposes the receipt endpoints.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

// Payload is the create/update request body for a receipt header.
type Payload struct {
	CustomerID    int64     `json:"customerId" validate:"required,gt=0"`
	OperationDate time.Time `json:"operationDate"`
}

func (h *Handler) decodeAndValidate(r *http.Request, payload *Payload) error {
	if err := json.NewDecoder(r.Body).Decode(payload); err != nil {
		return common.NewAppError(common.CodeValidation, "malformed JSON body", http.StatusBadRequest, err)
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(payload); err != nil {
			return common.NewAppError(common.CodeValidation, "invalid payload", http.StatusBadRequest, err)
		}
	}
	return nil
}

// List handles GET /api/v1/receipts.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	receipts, err := h.Svc.List(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": receipts})
}

// Get handles GET /api/v1/receipts/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	receipt, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": receipt})
}

// Details handles GET /api/v1/receipts/{id}/details.
func (h *Handler) Details(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	lines, err := h.Svc.Lines(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": lines})
}

// Sum handles GET /api/v1/receipts/{id}/sum.
func (h *Handler) Sum(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	total, err := h.Svc.Sum(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"receiptId": id, "toPay": total}})
}

// ByPeriod handles GET /api/v1/receipts/period?start=&end=.
func (h *Handler) ByPeriod(w http.ResponseWriter, r *http.Request) {
	start, end, err := parsePeriod(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	receipts, err := h.Svc.ByPeriod(r.Context(), start, end)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": receipts})
}

// Create handles POST /api/v1/receipts.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var payload Payload
	if err := h.decodeAndValidate(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	created, err := h.Svc.Create(r.Context(), payload.CustomerID, payload.OperationDate)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": created})
}

// Update handles PUT /api/v1/receipts/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	var payload Payload
	if err := h.decodeAndValidate(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	header := domain.Receipt{ID: id, CustomerID: payload.CustomerID, OperationDate: payload.OperationDate}
	if err := h.Svc.Update(r.Context(), header); err != nil {
		common.WriteError(w, err)
		return
	}
	updated, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": updated})
}

// Delete handles DELETE /api/v1/receipts/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if err := h.Svc.Delete(r.Context(), id); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CheckOut handles POST /api/v1/receipts/{id}/checkout.
func (h *Handler) CheckOut(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if err := h.Svc.CheckOut(r.Context(), id); err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"receiptId": id, "isCheckedOut": true}})
}

// AddProduct handles POST /api/v1/receipts/{id}/products/{productId}/add/{quantity}.
func (h *Handler) AddProduct(w http.ResponseWriter, r *http.Request) {
	id, productID, quantity, err := lineParams(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	line, err := h.Svc.AddProduct(r.Context(), id, productID, quantity)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": line})
}

// RemoveProduct handles POST /api/v1/receipts/{id}/products/{productId}/remove/{quantity}.
func (h *Handler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	id, productID, quantity, err := lineParams(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if err := h.Svc.RemoveProduct(r.Context(), id, productID, quantity); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func lineParams(r *http.Request) (receiptID, productID int64, quantity int, err error) {
	receiptID, err = common.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		return 0, 0, 0, err
	}
	productID, err = common.ParseID(chi.URLParam(r, "productId"))
	if err != nil {
		return 0, 0, 0, err
	}
	quantity = common.AtoiDefault(chi.URLParam(r, "quantity"), 0)
	if quantity <= 0 {
		return 0, 0, 0, common.ValidationError("quantity must be positive")
	}
	return receiptID, productID, quantity, nil
}

// parsePeriod reads the inclusive [start, end] window for the period listing.
func parsePeriod(r *http.Request) (time.Time, time.Time, error) {
	start, err := common.ParseDate(r.URL.Query().Get("start"))
	if err != nil {
		return time.Time{}, time.Time{}, common.ValidationError("start is required")
	}
	end, err := common.ParseDate(r.URL.Query().Get("end"))
	if err != nil {
		return time.Time{}, time.Time{}, common.ValidationError("end is required")
	}
	if end.Hour() == 0 && end.Minute() == 0 && end.Second() == 0 {
		end = end.Add(24*time.Hour - time.Nanosecond)
	}
	return start, end, nil
}
