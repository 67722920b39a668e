package crm

import (
	"bytes"
	"context"
	"crm-bridge/internal/config"
	"crm-bridge/internal/domain/contact"
	"crm-bridge/internal/infrastructure/monitoring"
	"crm-bridge/internal/pkg/apperrors"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	recordTypePerson     = "person"
	contactPath          = "/api/v1/contact/"
	updateContactOp      = "update_contact"
	defaultTimeout       = 10 * time.Second
	maxResponseBodyBytes = 1 << 20
)

type fieldValue struct {
	Value    any    `json:"value"`
	Modifier string `json:"modifier"`
}

type updateRequest struct {
	Fields     map[string][]fieldValue `json:"fields"`
	RecordType string                  `json:"record_type"`
}

// StatusError is returned when the CRM answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("CRM responded with status %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return apperrors.ErrUpstreamUnavailable
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger
}

var _ contact.Gateway = (*Client)(nil)

// NewClient builds a CRM client. When httpClient is nil one is created with
// cfg.Timeout.
func NewClient(cfg config.CRMConfig, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("CRM base URL is empty in configuration")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("CRM API key is empty in configuration")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    httpClient,
		logger:  logger.With("component", "CRMClient"),
	}, nil
}

func newUpdateRequest(fields []contact.FieldUpdate) updateRequest {
	body := updateRequest{
		Fields:     make(map[string][]fieldValue, len(fields)),
		RecordType: recordTypePerson,
	}
	for _, f := range fields {
		body.Fields[f.Key] = []fieldValue{{Value: f.Value, Modifier: f.Modifier}}
	}
	return body
}

func (c *Client) contactEndpoint(contactID string, replace bool) string {
	endpoint := c.baseURL + contactPath + url.PathEscape(contactID)
	if replace {
		endpoint += "?replace=1"
	}
	return endpoint
}

// UpdateContact sends a PUT for contactID. With replace set the CRM drops any
// field not present in fields instead of merging.
func (c *Client) UpdateContact(ctx context.Context, contactID string, fields []contact.FieldUpdate, replace bool) (*contact.Contact, error) {
	if contactID == "" {
		return nil, fmt.Errorf("%w: contact ID cannot be empty", apperrors.ErrInvalidArgument)
	}
	logCtx := c.logger.With(slog.String("contactID", contactID), slog.Bool("replace", replace))

	payload, err := json.Marshal(newUpdateRequest(fields))
	if err != nil {
		logCtx.DebugContext(ctx, "Failed to marshal contact update", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to marshal contact update: %w", apperrors.ErrInvalidArgument, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.contactEndpoint(contactID, replace), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build CRM request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	logCtx.DebugContext(ctx, "Sending contact update to CRM", "bodySize", len(payload))
	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		monitoring.RecordCRMRequest(updateContactOp, "error", time.Since(start))
		logCtx.DebugContext(ctx, "CRM request failed", slog.Any("error", err))
		return nil, apperrors.WrapUpstreamError(err, "CRM contact update request failed")
	}
	defer res.Body.Close()
	monitoring.RecordCRMRequest(updateContactOp, strconv.Itoa(res.StatusCode), time.Since(start))

	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBodyBytes))
	if err != nil {
		logCtx.DebugContext(ctx, "Failed to read CRM response", slog.Any("error", err))
		return nil, apperrors.WrapUpstreamError(err, "failed to read CRM response")
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		logCtx.DebugContext(ctx, "CRM rejected contact update", slog.Int("status", res.StatusCode))
		return nil, &StatusError{StatusCode: res.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var updated contact.Contact
	if err := json.Unmarshal(body, &updated); err != nil {
		logCtx.DebugContext(ctx, "Failed to decode CRM response", slog.Any("error", err))
		return nil, fmt.Errorf("%w: %w", apperrors.ErrMalformedResponse, err)
	}

	logCtx.InfoContext(ctx, "CRM contact updated", slog.Int("status", res.StatusCode))
	return &updated, nil
}
