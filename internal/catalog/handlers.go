package catalog

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/trademarket/backend-market/internal/common"
	"github.com/trademarket/backend-market/internal/domain"
	"github.com/trademarket/backend-market/internal/store"
)

// Handler exposes the catalog endpoints.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

// ProductPayload is the create/update request body for a product.
type ProductPayload struct {
	CategoryID int64  `json:"categoryId" validate:"required,gt=0"`
	Name       string `json:"name" validate:"required"`
	Price      int64  `json:"price" validate:"required,gt=0"`
}

// CategoryPayload is the create/update request body for a category.
type CategoryPayload struct {
	Name string `json:"name" validate:"required"`
}

func (h *Handler) validate(v any) error {
	if h.Validate == nil {
		return nil
	}
	if err := h.Validate.Struct(v); err != nil {
		return common.NewAppError(common.CodeValidation, "invalid payload", http.StatusBadRequest, err)
	}
	return nil
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return common.NewAppError(common.CodeValidation, "malformed JSON body", http.StatusBadRequest, err)
	}
	return nil
}

// Products handles GET /api/v1/products with optional filters.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	var filter store.ProductFilter
	q := r.URL.Query()
	if v := q.Get("categoryId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			common.WriteError(w, common.ValidationError("invalid categoryId"))
			return
		}
		filter.CategoryID = &id
	}
	if v := q.Get("minPrice"); v != "" {
		p, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			common.WriteError(w, common.ValidationError("invalid minPrice"))
			return
		}
		filter.MinPrice = &p
	}
	if v := q.Get("maxPrice"); v != "" {
		p, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			common.WriteError(w, common.ValidationError("invalid maxPrice"))
			return
		}
		filter.MaxPrice = &p
	}
	products, err := h.Svc.ListProducts(r.Context(), filter)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	page, perPage := common.ParsePagination(r, 50)
	meta := common.Pagination{Page: page, PerPage: perPage, TotalItems: len(products)}
	common.JSON(w, http.StatusOK, map[string]any{"data": paginate(products, page, perPage), "meta": meta})
}

func paginate(products []domain.Product, page, perPage int) []domain.Product {
	start := (page - 1) * perPage
	if start >= len(products) {
		return []domain.Product{}
	}
	end := start + perPage
	if end > len(products) {
		end = len(products)
	}
	return products[start:end]
}

// Product handles GET /api/v1/products/{id}.
func (h *Handler) Product(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	product, err := h.Svc.GetProduct(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": product})
}

// CreateProduct handles POST /api/v1/products.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var payload ProductPayload
	if err := decode(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	if err := h.validate(payload); err != nil {
		common.WriteError(w, err)
		return
	}
	created, err := h.Svc.CreateProduct(r.Context(), domain.Product{
		CategoryID: payload.CategoryID,
		Name:       payload.Name,
		Price:      payload.Price,
	})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": created})
}

// UpdateProduct handles PUT /api/v1/products/{id}.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	var payload ProductPayload
	if err := decode(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	if err := h.validate(payload); err != nil {
		common.WriteError(w, err)
		return
	}
	update := domain.Product{ID: id, CategoryID: payload.CategoryID, Name: payload.Name, Price: payload.Price}
	if err := h.Svc.UpdateProduct(r.Context(), update); err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": update})
}

// DeleteProduct handles DELETE /api/v1/products/{id}.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if err := h.Svc.DeleteProduct(r.Context(), id); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Categories handles GET /api/v1/categories.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Svc.ListCategories(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": categories})
}

// Category handles GET /api/v1/categories/{id}.
func (h *Handler) Category(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	category, err := h.Svc.GetCategory(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": category})
}

// CreateCategory handles POST /api/v1/categories.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var payload CategoryPayload
	if err := decode(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	if err := h.validate(payload); err != nil {
		common.WriteError(w, err)
		return
	}
	created, err := h.Svc.CreateCategory(r.Context(), domain.Category{Name: payload.Name})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": created})
}

// UpdateCategory handles PUT /api/v1/categories/{id}.
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	var payload CategoryPayload
	if err := decode(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	if err := h.validate(payload); err != nil {
		common.WriteError(w, err)
		return
	}
	update := domain.Category{ID: id, Name: payload.Name}
	if err := h.Svc.UpdateCategory(r.Context(), update); err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": update})
}

// DeleteCategory handles DELETE /api/v1/categories/{id}.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := common.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if err := h.Svc.DeleteCategory(r.Context(), id); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
