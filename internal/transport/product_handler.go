package transport

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"bot-dashboard/internal/domain"
	"bot-dashboard/internal/middleware"
	"bot-dashboard/internal/repository"
	"bot-dashboard/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateProductRequest represents the product creation payload
type CreateProductRequest struct {
	Name              string     `json:"name" validate:"required,max=255"`
	Description       *string    `json:"description"`
	BotUsername       *string    `json:"bot_username" validate:"omitempty,max=255"`
	WebsiteLink       *string    `json:"website_link" validate:"omitempty,max=500"`
	ContractMonths    int        `json:"contract_months" validate:"required,gte=1,lte=12"`
	ContractStartDate *time.Time `json:"contract_start_date"`
	ContractEndDate   *time.Time `json:"contract_end_date"`
	CustomerTelegram  *string    `json:"customer_telegram" validate:"omitempty,max=255"`
	CustomerLink      *string    `json:"customer_link" validate:"omitempty,max=500"`
}

// UpdateProductRequest represents a partial product update; omitted fields are kept
type UpdateProductRequest struct {
	Name             *string `json:"name" validate:"omitempty,min=1,max=255"`
	Description      *string `json:"description"`
	BotUsername      *string `json:"bot_username" validate:"omitempty,max=255"`
	WebsiteLink      *string `json:"website_link" validate:"omitempty,max=500"`
	ContractMonths   *int    `json:"contract_months" validate:"omitempty,gte=1,lte=12"`
	CustomerTelegram *string `json:"customer_telegram" validate:"omitempty,max=255"`
	CustomerLink     *string `json:"customer_link" validate:"omitempty,max=500"`
	IsRenewed        *bool   `json:"is_renewed"`
}

// ProductHandler handles HTTP requests for products and dashboard stats
type ProductHandler struct {
	productService   service.ProductService
	dashboardService service.DashboardService
	logger           *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, dashboardService service.DashboardService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService:   productService,
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// RegisterRoutes registers all product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Post("/", h.CreateProduct)
		r.Get("/stats", h.GetStats)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetProduct)
			r.Put("/", h.UpdateProduct)
			r.Patch("/", h.UpdateProduct)
			r.Delete("/", h.DeleteProduct)
			r.Post("/renew", h.RenewProduct)
		})
	})
}

func (h *ProductHandler) productID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		invalidParam(w, "id", "Invalid product ID")
		return uuid.Nil, false
	}
	return id, true
}

// positiveQueryInt reads an optional integer query parameter that must be within [min, max]
func positiveQueryInt(r *http.Request, name string, def, min, max int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min || v > max {
		return 0, false
	}
	return v, true
}

// CreateProduct handles product creation
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest

	// Decode and validate request
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product validation failed", zap.Error(err))
		respondDecodeError(w, err)
		return
	}

	// Create product
	product, err := h.productService.CreateProduct(r.Context(), service.CreateProductInput{
		Name:              req.Name,
		Description:       req.Description,
		BotUsername:       req.BotUsername,
		WebsiteLink:       req.WebsiteLink,
		ContractMonths:    req.ContractMonths,
		ContractStartDate: req.ContractStartDate,
		ContractEndDate:   req.ContractEndDate,
		CustomerTelegram:  req.CustomerTelegram,
		CustomerLink:      req.CustomerLink,
	})
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to create product")
		return
	}

	h.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("status", string(product.Status)),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// ListProducts handles paginated, filtered product listings
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page, ok := positiveQueryInt(r, "page", repository.DefaultPage, 1, math.MaxInt32)
	if !ok {
		invalidParam(w, "page", "Value must be greater than or equal to 1")
		return
	}

	perPage, ok := positiveQueryInt(r, "per_page", repository.DefaultPerPage, 1, repository.MaxPerPage)
	if !ok {
		invalidParam(w, "per_page", "Value must be between 1 and "+strconv.Itoa(repository.MaxPerPage))
		return
	}

	// Status is validated by the service
	filter := repository.ProductFilter{
		Status: domain.ProductStatus(r.URL.Query().Get("status")),
		Search: r.URL.Query().Get("search"),
	}

	list, err := h.productService.ListProducts(r.Context(), filter, repository.Pagination{Page: page, PerPage: perPage})
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, list)
}

// GetStats returns the dashboard counters
func (h *ProductHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboardService.GetStats(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to load dashboard stats")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, stats)
}

// GetProduct returns a single product
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	product, err := h.productService.GetProduct(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to get product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// UpdateProduct applies a partial update
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	var req UpdateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product update validation failed", zap.Error(err))
		respondDecodeError(w, err)
		return
	}

	product, err := h.productService.UpdateProduct(r.Context(), id, service.UpdateProductInput{
		Name:             req.Name,
		Description:      req.Description,
		BotUsername:      req.BotUsername,
		WebsiteLink:      req.WebsiteLink,
		ContractMonths:   req.ContractMonths,
		CustomerTelegram: req.CustomerTelegram,
		CustomerLink:     req.CustomerLink,
		IsRenewed:        req.IsRenewed,
	})
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to update product")
		return
	}

	h.logger.Info("Product updated", zap.String("product_id", id.String()))
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// DeleteProduct hard-deletes a product
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	if err := h.productService.DeleteProduct(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "failed to delete product")
		return
	}

	h.logger.Info("Product deleted", zap.String("product_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

// RenewProduct extends a contract by ?months=N
func (h *ProductHandler) RenewProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	// months is a required query parameter
	raw := r.URL.Query().Get("months")
	if raw == "" {
		invalidParam(w, "months", "This field is required")
		return
	}
	months, err := strconv.Atoi(raw)
	if err != nil {
		invalidParam(w, "months", "Value must be an integer")
		return
	}

	product, err := h.productService.RenewProduct(r.Context(), id, months)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to renew product")
		return
	}

	h.logger.Info("Product renewed",
		zap.String("product_id", id.String()),
		zap.Int("months", months),
		zap.Time("contract_end_date", product.ContractEndDate),
	)
	middleware.RespondWithJSON(w, http.StatusOK, product)
}
