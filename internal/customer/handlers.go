package customer

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/trademarket/backend-market/internal/common"
	"github.com/trademarket/backend-market/internal/domain"
)

// Handler exposes the customer endpoints.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

// Payload is the create/update request body for a customer.
type Payload struct {
	Name      string    `json:"name" validate:"required"`
	Surname   string    `json:"surname" validate:"required"`
	BirthDate time.Time `json:"birthDate" validate:"required"`
	Discount  int       `json:"discount" validate:"gte=0,lte=100"`
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

func toDomain(id int64, p Payload) domain.Customer {
	return domain.Customer{
		ID:       id,
		Discount: p.Discount,
		Person: domain.Person{
			Name:      p.Name,
			Surname:   p.Surname,
			BirthDate: p.BirthDate,
		},
	}
}

// List handles GET /api/v1/customers.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	customers, err := h.Svc.List(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": customers})
}

// Get handles GET /api/v1/customers/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	c, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": c})
}

// Create handles POST /api/v1/customers.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var payload Payload
	if err := h.decodeAndValidate(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	created, err := h.Svc.Create(r.Context(), toDomain(0, payload))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": created})
}

// Update handles PUT /api/v1/customers/{id}.
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
	if err := h.Svc.Update(r.Context(), toDomain(id, payload)); err != nil {
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

// Delete handles DELETE /api/v1/customers/{id}.
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

// ByProduct handles GET /api/v1/customers/products/{productId}.
func (h *Handler) ByProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := common.ParseID(chi.URLParam(r, "productId"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	customers, err := h.Svc.ByProduct(r.Context(), productID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": customers})
}
