package contact

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockContactRepository struct {
	mock.Mock
}

func (_m *MockContactRepository) FetchContactID(ctx context.Context, email string) (string, error) {
	ret := _m.Called(ctx, email)

	var r0 string
	if rf, ok := ret.Get(0).(func(context.Context, string) string); ok {
		r0 = rf(ctx, email)
	} else {
		r0 = ret.String(0)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, email)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

type MockGateway struct {
	mock.Mock
}

func (_m *MockGateway) UpdateContact(ctx context.Context, contactID string, fields []FieldUpdate, replace bool) (*Contact, error) {
	ret := _m.Called(ctx, contactID, fields, replace)

	var r0 *Contact
	if rf, ok := ret.Get(0).(func(context.Context, string, []FieldUpdate, bool) *Contact); ok {
		r0 = rf(ctx, contactID, fields, replace)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*Contact)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string, []FieldUpdate, bool) error); ok {
		r1 = rf(ctx, contactID, fields, replace)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

type MockEventPublisher struct {
	mock.Mock
}

func (_m *MockEventPublisher) PublishFlagApplied(ctx context.Context, result FlagResult) error {
	ret := _m.Called(ctx, result)
	return ret.Error(0)
}
