package contact_test

import (
	"bytes"
	"context"
	"crm-bridge/internal/domain/contact"
	"crm-bridge/internal/pkg/apperrors"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const crmName = "Nimble"

func setupTest() (*contact.MockContactRepository, *contact.MockGateway, contact.ContactService) {
	mockRepo := new(contact.MockContactRepository)
	mockGateway := new(contact.MockGateway)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := contact.NewContactService(mockRepo, mockGateway, nil, crmName, logger)
	return mockRepo, mockGateway, service
}

func echoContact(id, field, value string) *contact.Contact {
	return &contact.Contact{
		ID: id,
		Fields: map[string][]contact.FieldValue{
			field: {{Value: value}},
		},
	}
}

func TestContactService_SetFlag(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - true sends yes", func(t *testing.T) {
		mockRepo, mockGateway, service := setupTest()
		expectedFields := []contact.FieldUpdate{{Key: "vip", Value: "yes", Modifier: ""}}

		mockRepo.On("FetchContactID", ctx, "jane@example.com").Return("42", nil).Once()
		mockGateway.On("UpdateContact", ctx, "42", expectedFields, false).Return(echoContact("42", "vip", "yes"), nil).Once()

		result, err := service.SetFlag(ctx, "jane@example.com", "vip", true)

		require.NoError(t, err)
		require.NotNil(t, result)
		assert.True(t, result.Registered)
		assert.Equal(t, map[string]string{"id": "42", "vip": "Flagged in Nimble: yes"}, result.Map())
		mockRepo.AssertExpectations(t)
		mockGateway.AssertExpectations(t)
	})

	t.Run("Success - false sends no", func(t *testing.T) {
		mockRepo, mockGateway, service := setupTest()
		expectedFields := []contact.FieldUpdate{{Key: "newsletter", Value: "no", Modifier: ""}}

		mockRepo.On("FetchContactID", ctx, "jane@example.com").Return("42", nil).Once()
		mockGateway.On("UpdateContact", ctx, "42", expectedFields, false).Return(echoContact("42", "newsletter", "no"), nil).Once()

		result, err := service.SetFlag(ctx, "jane@example.com", "newsletter", false)

		require.NoError(t, err)
		assert.Equal(t, "no", result.Value)
		assert.Equal(t, "Flagged in Nimble: no", result.Map()["newsletter"])
		mockGateway.AssertExpectations(t)
	})

	t.Run("Not found - returns message without calling CRM", func(t *testing.T) {
		mockRepo, mockGateway, service := setupTest()
		mockRepo.On("FetchContactID", ctx, "ghost@example.com").Return("", apperrors.ErrNotFound).Once()

		result, err := service.SetFlag(ctx, "ghost@example.com", "vip", true)

		require.NoError(t, err)
		require.NotNil(t, result)
		assert.False(t, result.Registered)
		assert.Equal(t, "ghost@example.com does not exist in Nimble", result.String())
		mockGateway.AssertNotCalled(t, "UpdateContact", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Null identifier - treated as not registered", func(t *testing.T) {
		mockRepo, mockGateway, service := setupTest()
		mockRepo.On("FetchContactID", ctx, "ghost@example.com").
			Return("", fmt.Errorf("%w: nimble_id is null", apperrors.ErrNotRegistered)).Once()

		result, err := service.SetFlag(ctx, "ghost@example.com", "vip", false)

		require.NoError(t, err)
		assert.Equal(t, "ghost@example.com does not exist in Nimble", result.String())
		mockGateway.AssertNotCalled(t, "UpdateContact", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Error - Ambiguous lookup is surfaced", func(t *testing.T) {
		mockRepo, mockGateway, service := setupTest()
		mockRepo.On("FetchContactID", ctx, "dup@example.com").Return("", apperrors.ErrAmbiguous).Once()

		result, err := service.SetFlag(ctx, "dup@example.com", "vip", true)

		assert.Nil(t, result)
		assert.ErrorIs(t, err, apperrors.ErrAmbiguous)
		mockGateway.AssertNotCalled(t, "UpdateContact", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Error - Database failure is surfaced", func(t *testing.T) {
		mockRepo, _, service := setupTest()
		dbErr := apperrors.WrapDatabaseError(errors.New("connection refused"), "lookup failed")
		mockRepo.On("FetchContactID", ctx, "jane@example.com").Return("", dbErr).Once()

		result, err := service.SetFlag(ctx, "jane@example.com", "vip", true)

		assert.Nil(t, result)
		assert.ErrorIs(t, err, apperrors.ErrDatabase)
	})

	t.Run("Error - CRM unavailable is surfaced", func(t *testing.T) {
		mockRepo, mockGateway, service := setupTest()
		upErr := apperrors.WrapUpstreamError(errors.New("503 Service Unavailable"), "PUT contact failed")

		mockRepo.On("FetchContactID", ctx, "jane@example.com").Return("42", nil).Once()
		mockGateway.On("UpdateContact", ctx, "42", mock.Anything, false).Return(nil, upErr).Once()

		result, err := service.SetFlag(ctx, "jane@example.com", "vip", true)

		assert.Nil(t, result)
		assert.ErrorIs(t, err, apperrors.ErrUpstreamUnavailable)
		assert.Contains(t, err.Error(), "failed to update contact 42")
	})

	t.Run("Error - Field not echoed is malformed", func(t *testing.T) {
		mockRepo, mockGateway, service := setupTest()
		mockRepo.On("FetchContactID", ctx, "jane@example.com").Return("42", nil).Once()
		mockGateway.On("UpdateContact", ctx, "42", mock.Anything, false).
			Return(&contact.Contact{ID: "42", Fields: map[string][]contact.FieldValue{}}, nil).Once()

		result, err := service.SetFlag(ctx, "jane@example.com", "vip", true)

		assert.Nil(t, result)
		assert.ErrorIs(t, err, apperrors.ErrMalformedResponse)
	})

	t.Run("Error - Empty email", func(t *testing.T) {
		mockRepo, _, service := setupTest()

		result, err := service.SetFlag(ctx, "  ", "vip", true)

		assert.Nil(t, result)
		assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
		mockRepo.AssertNotCalled(t, "FetchContactID", mock.Anything, mock.Anything)
	})
}

func TestContactService_SetFlagPublishesEvent(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("Publishes on success", func(t *testing.T) {
		mockRepo := new(contact.MockContactRepository)
		mockGateway := new(contact.MockGateway)
		mockPub := new(contact.MockEventPublisher)
		service := contact.NewContactService(mockRepo, mockGateway, mockPub, crmName, logger)

		mockRepo.On("FetchContactID", ctx, "jane@example.com").Return("42", nil).Once()
		mockGateway.On("UpdateContact", ctx, "42", mock.Anything, false).Return(echoContact("42", "vip", "yes"), nil).Once()
		mockPub.On("PublishFlagApplied", ctx, mock.MatchedBy(func(r contact.FlagResult) bool {
			return r.ContactID == "42" && r.Field == "vip" && r.Email == "jane@example.com"
		})).Return(nil).Once()

		_, err := service.SetFlag(ctx, "jane@example.com", "vip", true)
		require.NoError(t, err)
		mockPub.AssertExpectations(t)
	})

	t.Run("Publish failure does not fail the call", func(t *testing.T) {
		mockRepo := new(contact.MockContactRepository)
		mockGateway := new(contact.MockGateway)
		mockPub := new(contact.MockEventPublisher)
		service := contact.NewContactService(mockRepo, mockGateway, mockPub, crmName, logger)

		mockRepo.On("FetchContactID", ctx, "jane@example.com").Return("42", nil).Once()
		mockGateway.On("UpdateContact", ctx, "42", mock.Anything, false).Return(echoContact("42", "vip", "yes"), nil).Once()
		mockPub.On("PublishFlagApplied", ctx, mock.Anything).Return(errors.New("channel closed")).Once()

		result, err := service.SetFlag(ctx, "jane@example.com", "vip", true)
		require.NoError(t, err)
		assert.True(t, result.Registered)
	})

	t.Run("Not registered is not published", func(t *testing.T) {
		mockRepo := new(contact.MockContactRepository)
		mockGateway := new(contact.MockGateway)
		mockPub := new(contact.MockEventPublisher)
		service := contact.NewContactService(mockRepo, mockGateway, mockPub, crmName, logger)

		mockRepo.On("FetchContactID", ctx, "ghost@example.com").Return("", apperrors.ErrNotFound).Once()

		_, err := service.SetFlag(ctx, "ghost@example.com", "vip", true)
		require.NoError(t, err)
		mockPub.AssertNotCalled(t, "PublishFlagApplied", mock.Anything, mock.Anything)
	})
}

func TestContactService_SetFlagConcurrent(t *testing.T) {
	ctx := context.Background()
	mockRepo, mockGateway, service := setupTest()

	const n = 20
	for i := 0; i < n; i++ {
		email := fmt.Sprintf("user%d@example.com", i)
		id := fmt.Sprintf("c-%d", i)
		value := contact.FlagValue(i%2 == 0)
		mockRepo.On("FetchContactID", ctx, email).Return(id, nil).Once()
		mockGateway.On("UpdateContact", ctx, id, []contact.FieldUpdate{{Key: "vip", Value: value}}, false).
			Return(echoContact(id, "vip", value), nil).Once()
	}

	results := make([]*contact.FlagResult, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = service.SetFlag(ctx, fmt.Sprintf("user%d@example.com", i), "vip", i%2 == 0)
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, fmt.Sprintf("c-%d", i), results[i].ContactID)
		assert.Equal(t, contact.FlagValue(i%2 == 0), results[i].Value)
		assert.Equal(t, fmt.Sprintf("user%d@example.com", i), results[i].Email)
	}
	mockRepo.AssertExpectations(t)
	mockGateway.AssertExpectations(t)
}

func TestContactService_UpdateContact(t *testing.T) {
	ctx := context.Background()
	fields := []contact.FieldUpdate{{Key: "first name", Value: "Jane", Modifier: ""}}

	t.Run("Success", func(t *testing.T) {
		_, mockGateway, service := setupTest()
		expected := &contact.Contact{ID: "42"}
		mockGateway.On("UpdateContact", ctx, "42", fields, true).Return(expected, nil).Once()

		c, err := service.UpdateContact(ctx, "42", fields, true)
		require.NoError(t, err)
		assert.Same(t, expected, c)
	})

	t.Run("Error - Empty contact ID", func(t *testing.T) {
		_, mockGateway, service := setupTest()

		c, err := service.UpdateContact(ctx, "", fields, false)
		assert.Nil(t, c)
		assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
		mockGateway.AssertNotCalled(t, "UpdateContact", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Error - CRM failure is returned, not logged", func(t *testing.T) {
		var logs bytes.Buffer
		mockRepo := new(contact.MockContactRepository)
		mockGateway := new(contact.MockGateway)
		logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
		service := contact.NewContactService(mockRepo, mockGateway, nil, crmName, logger)

		crmErr := fmt.Errorf("%w: status 503", apperrors.ErrUpstreamUnavailable)
		mockGateway.On("UpdateContact", ctx, "42", fields, false).Return(nil, crmErr).Once()

		c, err := service.UpdateContact(ctx, "42", fields, false)
		assert.Nil(t, c)
		assert.ErrorIs(t, err, crmErr)
		assert.NotContains(t, logs.String(), `"level":"ERROR"`)
	})
}

func TestContactService_UpdateContactByEmail(t *testing.T) {
	ctx := context.Background()
	fields := []contact.FieldUpdate{{Key: "vip", Value: "yes"}}

	t.Run("Success", func(t *testing.T) {
		mockRepo, mockGateway, service := setupTest()
		mockRepo.On("FetchContactID", ctx, "jane@example.com").Return("42", nil).Once()
		mockGateway.On("UpdateContact", ctx, "42", fields, false).Return(echoContact("42", "vip", "yes"), nil).Once()

		c, err := service.UpdateContactByEmail(ctx, "jane@example.com", fields, false)
		require.NoError(t, err)
		assert.Equal(t, "42", c.ID)
	})

	t.Run("Error - Not found becomes not registered", func(t *testing.T) {
		mockRepo, _, service := setupTest()
		mockRepo.On("FetchContactID", ctx, "ghost@example.com").Return("", apperrors.ErrNotFound).Once()

		c, err := service.UpdateContactByEmail(ctx, "ghost@example.com", fields, false)
		assert.Nil(t, c)
		assert.ErrorIs(t, err, apperrors.ErrNotRegistered)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		assert.Contains(t, err.Error(), "ghost@example.com does not exist in Nimble")
	})
}

func TestNewContactServicePanicsOnNilDependencies(t *testing.T) {
	assert.Panics(t, func() {
		contact.NewContactService(nil, new(contact.MockGateway), nil, crmName, nil)
	})
	assert.Panics(t, func() {
		contact.NewContactService(new(contact.MockContactRepository), nil, nil, crmName, nil)
	})
}
