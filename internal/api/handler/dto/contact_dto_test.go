package dto

import (
	"crm-bridge/internal/domain/contact"
	"crm-bridge/internal/pkg/apperrors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestSetFlagRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     SetFlagRequest
		wantErr string
	}{
		{"valid", SetFlagRequest{Email: "a@b.com", Field: "Pro", Value: boolPtr(false)}, ""},
		{"empty email", SetFlagRequest{Email: "  ", Field: "Pro", Value: boolPtr(true)}, "email"},
		{"empty field", SetFlagRequest{Email: "a@b.com", Value: boolPtr(true)}, "field"},
		{"missing value", SetFlagRequest{Email: "a@b.com", Field: "Pro"}, "value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
			var ve *apperrors.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantErr, ve.Field)
		})
	}
}

func TestUpdateContactRequest_Validate(t *testing.T) {
	valid := UpdateContactRequest{Fields: []FieldUpdateRequest{
		{Key: "Pro", Value: "yes"},
		{Key: "Opted in", Value: true, Modifier: "set"},
	}}
	assert.NoError(t, valid.Validate())
	assert.NoError(t, (&UpdateContactRequest{}).Validate(), "no fields is a valid no-op update")

	badKey := UpdateContactRequest{Fields: []FieldUpdateRequest{{Key: "", Value: "yes"}}}
	var ve *apperrors.ValidationError
	require.ErrorAs(t, badKey.Validate(), &ve)
	assert.Equal(t, "fields[0].key", ve.Field)

	badValue := UpdateContactRequest{Fields: []FieldUpdateRequest{{Key: "Pro", Value: "yes"}, {Key: "Count", Value: 3.0}}}
	require.ErrorAs(t, badValue.Validate(), &ve)
	assert.Equal(t, "fields[1].value", ve.Field)

	byEmail := UpdateContactByEmailRequest{UpdateContactRequest: valid}
	require.ErrorAs(t, byEmail.Validate(), &ve)
	assert.Equal(t, "email", ve.Field)
}

func TestUpdateContactRequest_FieldUpdates(t *testing.T) {
	req := UpdateContactRequest{Fields: []FieldUpdateRequest{{Key: "Pro", Value: "yes", Modifier: ""}, {Key: "VIP", Value: false}}}

	assert.Equal(t, []contact.FieldUpdate{
		{Key: "Pro", Value: "yes"},
		{Key: "VIP", Value: false},
	}, req.FieldUpdates())
	assert.Empty(t, (&UpdateContactRequest{}).FieldUpdates())
}

func TestNewFlagResponse(t *testing.T) {
	registered := &contact.FlagResult{
		Email:      "a@b.com",
		Registered: true,
		ContactID:  "c-1",
		Field:      "Pro",
		Value:      "yes",
		Message:    "Flagged in Nimble: yes",
	}
	assert.Equal(t, FlagResponse{
		Registered: true,
		ID:         "c-1",
		Fields:     map[string]string{"Pro": "Flagged in Nimble: yes"},
	}, NewFlagResponse(registered))

	missing := &contact.FlagResult{Email: "a@b.com", Field: "Pro", Message: "a@b.com does not exist in Nimble"}
	assert.Equal(t, FlagResponse{Message: "a@b.com does not exist in Nimble"}, NewFlagResponse(missing))

	assert.Equal(t, FlagResponse{}, NewFlagResponse(nil))
}

func TestNewContactResponse(t *testing.T) {
	c := &contact.Contact{
		ID:     "c-1",
		Fields: map[string][]contact.FieldValue{"Pro": {{Value: "yes", Modifier: ""}}},
	}
	assert.Equal(t, ContactResponse{
		ID:     "c-1",
		Fields: map[string][]FieldValueResponse{"Pro": {{Value: "yes"}}},
	}, NewContactResponse(c))
	assert.Equal(t, ContactResponse{}, NewContactResponse(nil))
}
