package contact

import (
	"context"
	"crm-bridge/internal/infrastructure/monitoring"
	"crm-bridge/internal/pkg/apperrors"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

type ContactService interface {
	LookupContactID(ctx context.Context, email string) (string, error)
	UpdateContact(ctx context.Context, contactID string, fields []FieldUpdate, replace bool) (*Contact, error)
	UpdateContactByEmail(ctx context.Context, email string, fields []FieldUpdate, replace bool) (*Contact, error)
	SetFlag(ctx context.Context, email, fieldName string, value bool) (*FlagResult, error)
}

var _ ContactService = (*contactService)(nil)

type contactService struct {
	repo    Repository
	gateway Gateway
	pub     EventPublisher
	crmName string
	logger  *slog.Logger
}

// NewContactService wires the lookup and the CRM gateway together. pub may be
// nil, in which case no flag events are emitted.
func NewContactService(repo Repository, gateway Gateway, pub EventPublisher, crmName string, logger *slog.Logger) ContactService {
	if repo == nil {
		panic("contact repository cannot be nil")
	}
	if gateway == nil {
		panic("CRM gateway cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewContactService, using default stderr handler")
	}
	if crmName == "" {
		crmName = "CRM"
	}
	return &contactService{
		repo:    repo,
		gateway: gateway,
		pub:     pub,
		crmName: crmName,
		logger:  logger.With(slog.String("component", "contactService")),
	}
}

func (s *contactService) LookupContactID(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", fmt.Errorf("%w: email cannot be empty", apperrors.ErrInvalidArgument)
	}
	return s.repo.FetchContactID(ctx, email)
}

func (s *contactService) UpdateContact(ctx context.Context, contactID string, fields []FieldUpdate, replace bool) (*Contact, error) {
	if strings.TrimSpace(contactID) == "" {
		return nil, fmt.Errorf("%w: contact ID cannot be empty", apperrors.ErrInvalidArgument)
	}
	logger := s.logger.With(slog.String("contactID", contactID), slog.Int("fieldCount", len(fields)), slog.Bool("replace", replace))
	logger.DebugContext(ctx, "Calling CRM gateway UpdateContact")

	c, err := s.gateway.UpdateContact(ctx, contactID, fields, replace)
	if err != nil {
		return nil, fmt.Errorf("failed to update contact %s: %w", contactID, err)
	}
	logger.InfoContext(ctx, "Contact updated in CRM")
	return c, nil
}

func (s *contactService) UpdateContactByEmail(ctx context.Context, email string, fields []FieldUpdate, replace bool) (*Contact, error) {
	contactID, err := s.LookupContactID(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s does not exist in %s: %w", apperrors.ErrNotRegistered, email, s.crmName, err)
		}
		return nil, err
	}
	return s.UpdateContact(ctx, contactID, fields, replace)
}

func (s *contactService) SetFlag(ctx context.Context, email, fieldName string, value bool) (*FlagResult, error) {
	email = strings.TrimSpace(email)
	logger := s.logger.With(slog.String("email", email), slog.String("field", fieldName))
	logger.InfoContext(ctx, "Attempting to set flag", slog.Bool("value", value))

	update := NewFlagUpdate(fieldName, value)

	contactID, err := s.LookupContactID(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrNotRegistered) {
			logger.InfoContext(ctx, "Email has no CRM contact, skipping update")
			monitoring.RecordContactNotRegistered()
			return newNotRegisteredResult(email, s.crmName, fieldName), nil
		}
		logger.DebugContext(ctx, "Contact lookup failed", slog.Any("error", err))
		return nil, fmt.Errorf("failed to look up contact for %s: %w", email, err)
	}

	logger = logger.With(slog.String("contactID", contactID))
	c, err := s.UpdateContact(ctx, contactID, []FieldUpdate{update}, false)
	if err != nil {
		return nil, err
	}

	echoed, ok := c.FirstValue(fieldName)
	if !ok {
		logger.DebugContext(ctx, "CRM response did not echo the flag field")
		return nil, fmt.Errorf("%w: field %q missing from response for contact %s", apperrors.ErrMalformedResponse, fieldName, c.ID)
	}

	result := newFlaggedResult(email, s.crmName, fieldName, c, echoed)
	monitoring.RecordFlagApplied(result.Value)
	logger.InfoContext(ctx, "Flag set successfully", slog.String("crmValue", result.Value))

	s.publishFlagApplied(ctx, logger, *result)
	return result, nil
}

func (s *contactService) publishFlagApplied(ctx context.Context, logger *slog.Logger, result FlagResult) {
	if s.pub == nil {
		return
	}
	if err := s.pub.PublishFlagApplied(ctx, result); err != nil {
		logger.ErrorContext(ctx, "Flag set, but FAILED to publish flag applied event", slog.Any("error", err))
	} else {
		logger.DebugContext(ctx, "Published flag applied event")
	}
}
