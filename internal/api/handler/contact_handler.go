package handler

import (
	"crm-bridge/internal/api/handler/dto"
	"crm-bridge/internal/domain/contact"
	"crm-bridge/internal/pkg/apperrors"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

type ContactHandler struct {
	service contact.ContactService
	logger  *slog.Logger
}

func NewContactHandler(s contact.ContactService, l *slog.Logger) *ContactHandler {
	if s == nil {
		panic("contact service cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &ContactHandler{
		service: s,
		logger:  l.With("component", "ContactHandler"),
	}
}

func (h *ContactHandler) logServiceError(r *http.Request, msg string, err error) {
	level := slog.LevelError
	if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrNotRegistered) ||
		errors.Is(err, apperrors.ErrInvalidArgument) || errors.Is(err, apperrors.ErrValidation) {
		level = slog.LevelWarn
	}
	h.logger.Log(r.Context(), level, msg, slog.Any("error", err))
}

// SetFlag handles PUT /contacts/flags
// @Summary Toggle a yes/no flag on a CRM contact
// @Description Looks up the CRM contact for the email and sets the field to "yes" or "no". An email without a CRM contact is not an error: the response has registered=false and a message.
// @Tags Contacts
// @Accept json
// @Produce json
// @Param request body dto.SetFlagRequest true "Flag request"
// @Success 200 {object} dto.FlagResponse "Flag applied, or email not registered in the CRM"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload"
// @Failure 409 {object} dto.ErrorResponse "More than one user with this email"
// @Failure 502 {object} dto.ErrorResponse "CRM unavailable or returned an unexpected response"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /contacts/flags [put]
// @Security BearerAuth
func (h *ContactHandler) SetFlag(w http.ResponseWriter, r *http.Request) {
	var req dto.SetFlagRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		h.logger.WarnContext(r.Context(), "Validation failed", slog.Any("error", err))
		respondError(w, err)
		return
	}

	result, err := h.service.SetFlag(r.Context(), req.Email, req.Field, *req.Value)
	if err != nil {
		h.logServiceError(r, "Service failed to set flag", err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewFlagResponse(result))
}

// LookupContact handles GET /contacts/lookup
// @Summary Look up the CRM contact ID for an email
// @Tags Contacts
// @Produce json
// @Param email query string true "User email"
// @Success 200 {object} dto.LookupResponse "Contact ID found"
// @Failure 400 {object} dto.ErrorResponse "Missing email"
// @Failure 404 {object} dto.ErrorResponse "No user, or the user has no CRM contact"
// @Failure 409 {object} dto.ErrorResponse "More than one user with this email"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /contacts/lookup [get]
// @Security BearerAuth
func (h *ContactHandler) LookupContact(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		respondError(w, fmt.Errorf("%w: email query parameter is required", apperrors.ErrInvalidArgument))
		return
	}

	contactID, err := h.service.LookupContactID(r.Context(), email)
	if err != nil {
		h.logServiceError(r, "Service failed to look up contact", err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.LookupResponse{Email: email, ContactID: contactID})
}

// UpdateContact handles PUT /contacts/{contactID}
// @Summary Update fields on a CRM contact
// @Description Sends the fields to the CRM. With replace=true the CRM replaces the existing values instead of merging.
// @Tags Contacts
// @Accept json
// @Produce json
// @Param contactID path string true "CRM contact ID"
// @Param request body dto.UpdateContactRequest true "Fields to set"
// @Success 200 {object} dto.ContactResponse "Contact as returned by the CRM"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload"
// @Failure 502 {object} dto.ErrorResponse "CRM unavailable or returned an unexpected response"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /contacts/{contactID} [put]
// @Security BearerAuth
func (h *ContactHandler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	contactID := strings.TrimSpace(chi.URLParam(r, "contactID"))
	if contactID == "" {
		respondError(w, fmt.Errorf("%w: contactID not found in URL path", apperrors.ErrInvalidArgument))
		return
	}

	var req dto.UpdateContactRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, err)
		return
	}

	updated, err := h.service.UpdateContact(r.Context(), contactID, req.FieldUpdates(), req.Replace)
	if err != nil {
		h.logServiceError(r, "Service failed to update contact", err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewContactResponse(updated))
}

// UpdateContactByEmail handles PUT /contacts/by-email
// @Summary Update fields on the CRM contact of a user
// @Tags Contacts
// @Accept json
// @Produce json
// @Param request body dto.UpdateContactByEmailRequest true "Email and fields to set"
// @Success 200 {object} dto.ContactResponse "Contact as returned by the CRM"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload"
// @Failure 404 {object} dto.ErrorResponse "Email does not exist in the CRM"
// @Failure 409 {object} dto.ErrorResponse "More than one user with this email"
// @Failure 502 {object} dto.ErrorResponse "CRM unavailable or returned an unexpected response"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /contacts/by-email [put]
// @Security BearerAuth
func (h *ContactHandler) UpdateContactByEmail(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateContactByEmailRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, err)
		return
	}

	updated, err := h.service.UpdateContactByEmail(r.Context(), req.Email, req.FieldUpdates(), req.Replace)
	if err != nil {
		h.logServiceError(r, "Service failed to update contact by email", err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewContactResponse(updated))
}
