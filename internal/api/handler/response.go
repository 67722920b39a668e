package handler

import (
	"crm-bridge/internal/api/handler/dto"
	"crm-bridge/internal/pkg/apperrors"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return fmt.Errorf("no request body")
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Default().Error("Failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":{"message":"Internal server error"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrNotRegistered), errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrAmbiguous):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrInvalidArgument), errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrUpstreamUnavailable), errors.Is(err, apperrors.ErrMalformedResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

const upstreamFailureMessage = "CRM unavailable"

func respondError(w http.ResponseWriter, err error) {
	status := errorStatus(err)
	detail := dto.ErrorDetail{Message: "An unexpected error occurred."}

	var validationError *apperrors.ValidationError
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		detail.Code = appErr.Code
	}

	switch {
	case status == http.StatusBadGateway:
		slog.Default().Error("CRM request failed", "error", err)
		detail.Message = upstreamFailureMessage
	case errors.As(err, &validationError):
		detail.Message, detail.Field = validationError.Message, validationError.Field
	case status == http.StatusInternalServerError:
		slog.Default().Error("Unhandled internal error", "error", err)
	case appErr != nil:
		detail.Message = appErr.Error()
	default:
		detail.Message = err.Error()
	}

	respondJSON(w, status, dto.ErrorResponse{Error: detail})
}
