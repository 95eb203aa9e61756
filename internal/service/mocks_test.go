package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/selfie-proxy/server-go/internal/model"
)

type mockConsentRepo struct {
	mock.Mock
}

func (m *mockConsentRepo) Create(ctx context.Context, record *model.ConsentRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *mockConsentRepo) FindByID(ctx context.Context, id string) (*model.ConsentRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ConsentRecord), args.Error(1)
}

func (m *mockConsentRepo) List(ctx context.Context) ([]model.ConsentRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ConsentRecord), args.Error(1)
}

type mockSessionRepo struct {
	mock.Mock
}

func (m *mockSessionRepo) Create(ctx context.Context, session *model.VerificationSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.VerificationSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VerificationSession), args.Error(1)
}

func (m *mockSessionRepo) Update(ctx context.Context, session *model.VerificationSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

type mockCallbackRepo struct {
	mock.Mock
}

func (m *mockCallbackRepo) Create(ctx context.Context, record *model.CallbackRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *mockCallbackRepo) List(ctx context.Context) ([]model.CallbackRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CallbackRecord), args.Error(1)
}

type mockBroker struct {
	mock.Mock
}

func (m *mockBroker) IssueSession(ctx context.Context, req IssueRequest) (*IssuedSession, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*IssuedSession), args.Error(1)
}
