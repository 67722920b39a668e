package postgres

import (
	"context"
	"crm-bridge/internal/domain/contact"
	"crm-bridge/internal/infrastructure/monitoring"
	"crm-bridge/internal/pkg/apperrors"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const (
	fetchContactIDQuery     = `SELECT nimble_id FROM users WHERE email = $1`
	fetchContactIDQueryName = "fetch_contact_id"
)

type ContactRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ contact.Repository = (*ContactRepository)(nil)

func NewContactRepository(db DBPool, logger *slog.Logger) *ContactRepository {
	if db == nil {
		panic("DBPool cannot be nil for ContactRepository")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewContactRepository, using default stderr handler")
	}
	return &ContactRepository{
		db:     db,
		logger: logger.With("component", "ContactRepository"),
	}
}

// FetchContactID returns the CRM contact identifier stored for email. Exactly
// one users row must match; a NULL or empty identifier yields
// apperrors.ErrNotRegistered.
func (r *ContactRepository) FetchContactID(ctx context.Context, email string) (string, error) {
	logger := r.logger.With(slog.String("email", email))
	logger.DebugContext(ctx, "Attempting to fetch contact ID by email")

	start := time.Now()
	contactID, err := r.queryContactID(ctx, email)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			monitoring.RecordDBQuery(fetchContactIDQueryName, "not_found", time.Since(start))
			logger.WarnContext(ctx, "No user found for email")
			return "", fmt.Errorf("%w: no user with email %s", apperrors.ErrNotFound, email)
		case errors.Is(err, pgx.ErrTooManyRows):
			monitoring.RecordDBQuery(fetchContactIDQueryName, "ambiguous", time.Since(start))
			logger.WarnContext(ctx, "More than one user found for email")
			return "", fmt.Errorf("%w: several users with email %s", apperrors.ErrAmbiguous, email)
		default:
			monitoring.RecordDBQuery(fetchContactIDQueryName, "error", time.Since(start))
			logger.ErrorContext(ctx, "Failed to query/scan contact ID by email", slog.Any("error", err))
			return "", fmt.Errorf("%w: failed to get contact ID by email: %w", apperrors.ErrDatabase, err)
		}
	}
	monitoring.RecordDBQuery(fetchContactIDQueryName, "ok", time.Since(start))

	if !contactID.Valid || contactID.String == "" {
		logger.InfoContext(ctx, "User has no CRM contact ID")
		return "", fmt.Errorf("%w: user %s has no contact ID", apperrors.ErrNotRegistered, email)
	}

	logger.DebugContext(ctx, "Contact ID found", slog.String("contactID", contactID.String))
	return contactID.String, nil
}

func (r *ContactRepository) queryContactID(ctx context.Context, email string) (pgtype.Text, error) {
	rows, err := r.db.Query(ctx, fetchContactIDQuery, email)
	if err != nil {
		return pgtype.Text{}, err
	}
	return pgx.CollectExactlyOneRow(rows, pgx.RowTo[pgtype.Text])
}
