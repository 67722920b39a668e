package dto

import (
	"crm-bridge/internal/domain/contact"
	"crm-bridge/internal/pkg/apperrors"
	"fmt"
	"strings"
)

type SetFlagRequest struct {
	Email string `json:"email"`
	Field string `json:"field"`
	Value *bool  `json:"value"`
}

func (r *SetFlagRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return apperrors.NewValidationError("email", "email cannot be empty")
	}
	if strings.TrimSpace(r.Field) == "" {
		return apperrors.NewValidationError("field", "field cannot be empty")
	}
	if r.Value == nil {
		return apperrors.NewValidationError("value", "value is required")
	}
	return nil
}

// FlagResponse carries Fields for a registered contact and Message otherwise.
type FlagResponse struct {
	Registered bool              `json:"registered"`
	ID         string            `json:"id,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
	Message    string            `json:"message,omitempty"`
}

func NewFlagResponse(result *contact.FlagResult) FlagResponse {
	if result == nil {
		return FlagResponse{}
	}
	if !result.Registered {
		return FlagResponse{Message: result.String()}
	}
	return FlagResponse{
		Registered: true,
		ID:         result.ContactID,
		Fields:     map[string]string{result.Field: result.Message},
	}
}

type LookupResponse struct {
	Email     string `json:"email"`
	ContactID string `json:"contactId"`
}

type FieldUpdateRequest struct {
	Key      string `json:"key"`
	Value    any    `json:"value"`
	Modifier string `json:"modifier"`
}

type UpdateContactRequest struct {
	Fields  []FieldUpdateRequest `json:"fields"`
	Replace bool                 `json:"replace"`
}

func (r *UpdateContactRequest) Validate() error {
	for i, f := range r.Fields {
		if strings.TrimSpace(f.Key) == "" {
			return apperrors.NewValidationError(fmt.Sprintf("fields[%d].key", i), "key cannot be empty")
		}
		switch f.Value.(type) {
		case string, bool:
		default:
			return apperrors.NewValidationError(fmt.Sprintf("fields[%d].value", i), "value must be a string or a boolean")
		}
	}
	return nil
}

func (r *UpdateContactRequest) FieldUpdates() []contact.FieldUpdate {
	updates := make([]contact.FieldUpdate, 0, len(r.Fields))
	for _, f := range r.Fields {
		updates = append(updates, contact.FieldUpdate{Key: f.Key, Value: f.Value, Modifier: f.Modifier})
	}
	return updates
}

type UpdateContactByEmailRequest struct {
	Email string `json:"email"`
	UpdateContactRequest
}

func (r *UpdateContactByEmailRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return apperrors.NewValidationError("email", "email cannot be empty")
	}
	return r.UpdateContactRequest.Validate()
}

type FieldValueResponse struct {
	Value    any    `json:"value"`
	Modifier string `json:"modifier,omitempty"`
}

type ContactResponse struct {
	ID     string                          `json:"id"`
	Fields map[string][]FieldValueResponse `json:"fields"`
}

func NewContactResponse(c *contact.Contact) ContactResponse {
	if c == nil {
		return ContactResponse{}
	}
	fields := make(map[string][]FieldValueResponse, len(c.Fields))
	for key, values := range c.Fields {
		out := make([]FieldValueResponse, 0, len(values))
		for _, v := range values {
			out = append(out, FieldValueResponse{Value: v.Value, Modifier: v.Modifier})
		}
		fields[key] = out
	}
	return ContactResponse{ID: c.ID, Fields: fields}
}
