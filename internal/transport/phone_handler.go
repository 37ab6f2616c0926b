package transport

import (
	"net/http"
	"strconv"

	"bot-dashboard/internal/middleware"
	"bot-dashboard/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// PhoneRequest carries a single phone number
type PhoneRequest struct {
	PhoneNumber string                 `json:"phone_number" validate:"required,max=20"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// BulkPhoneRequest carries a batch of phone numbers
type BulkPhoneRequest struct {
	PhoneNumbers []string               `json:"phone_numbers" validate:"required,min=1,max=1000,dive,required,max=20"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// PhoneHandler proxies phone registry operations
type PhoneHandler struct {
	phoneService service.PhoneService
	logger       *zap.Logger
}

// NewPhoneHandler creates a new PhoneHandler
func NewPhoneHandler(phoneService service.PhoneService, logger *zap.Logger) *PhoneHandler {
	return &PhoneHandler{
		phoneService: phoneService,
		logger:       logger,
	}
}

// RegisterRoutes registers all phone registry routes. Extra middleware (rate
// limiting) applies only to this group.
func (h *PhoneHandler) RegisterRoutes(r chi.Router, mws ...func(http.Handler) http.Handler) {
	r.Route("/api/phone", func(r chi.Router) {
		r.Use(mws...)
		r.Post("/check", h.CheckPhone)
		r.Post("/register", h.RegisterPhone)
		r.Post("/bulk-register", h.BulkRegisterPhones)
		r.Delete("/cleanup", h.CleanupOldRecords)
	})
}

// CheckPhone reports whether a number is registered
func (h *PhoneHandler) CheckPhone(w http.ResponseWriter, r *http.Request) {
	var req PhoneRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}

	result, err := h.phoneService.CheckPhone(r.Context(), req.PhoneNumber)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to check phone number")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// RegisterPhone registers a single number
func (h *PhoneHandler) RegisterPhone(w http.ResponseWriter, r *http.Request) {
	var req PhoneRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}

	result, err := h.phoneService.RegisterPhone(r.Context(), req.PhoneNumber, req.Metadata)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to register phone number")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// BulkRegisterPhones registers up to 1000 numbers at once
func (h *PhoneHandler) BulkRegisterPhones(w http.ResponseWriter, r *http.Request) {
	var req BulkPhoneRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Bulk registration rejected", zap.Error(err))
		respondDecodeError(w, err)
		return
	}

	result, err := h.phoneService.BulkRegisterPhones(r.Context(), req.PhoneNumbers, req.Metadata)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to bulk register phone numbers")
		return
	}

	h.logger.Info("Bulk registration finished",
		zap.Int("registered", result.RegisteredCount),
		zap.Int("failed", result.FailedCount),
	)
	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// CleanupOldRecords purges registry entries older than ?days=N (default 90)
func (h *PhoneHandler) CleanupOldRecords(w http.ResponseWriter, r *http.Request) {
	days := service.DefaultCleanupDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			invalidParam(w, "days", "Value must be an integer")
			return
		}
		days = v
	}

	result, err := h.phoneService.CleanupOldRecords(r.Context(), days)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to clean up phone records")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, result)
}
