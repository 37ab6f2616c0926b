package transport

import (
	"errors"
	"net/http"

	"bot-dashboard/internal/middleware"
	"bot-dashboard/internal/repository"
	"bot-dashboard/internal/service"

	"go.uber.org/zap"
)

// respondDecodeError answers a request whose body failed to decode or validate
func respondDecodeError(w http.ResponseWriter, err error) {
	if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
		middleware.RespondWithValidationErrors(w, validationErrors)
		return
	}
	middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
}

// respondServiceError maps service errors onto HTTP statuses. Anything that is
// not a validation or not-found error is logged and reported as a 500.
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error, message string) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		middleware.RespondWithValidationErrors(w, []middleware.ValidationError{
			{Field: ve.Field, Message: ve.Message},
		})
	case errors.Is(err, repository.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
	default:
		logger.Error(message, zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, message)
	}
}

// invalidParam reports a malformed query or path parameter
func invalidParam(w http.ResponseWriter, field, message string) {
	middleware.RespondWithValidationErrors(w, []middleware.ValidationError{
		{Field: field, Message: message},
	})
}
