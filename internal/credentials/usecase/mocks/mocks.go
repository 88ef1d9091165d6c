// Package mocks provides testify mocks for the credentials use case and its dependencies.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"golang.org/x/oauth2"

	credentialsDomain "github.com/allisson/tokenvault/internal/credentials/domain"
)

// MockCredentialRepository is a mock implementation of CredentialRepository.
type MockCredentialRepository struct {
	mock.Mock
}

func (m *MockCredentialRepository) Create(ctx context.Context, credential *credentialsDomain.Credential) error {
	return m.Called(ctx, credential).Error(0)
}

func (m *MockCredentialRepository) Update(ctx context.Context, credential *credentialsDomain.Credential) error {
	return m.Called(ctx, credential).Error(0)
}

func (m *MockCredentialRepository) GetByEmail(
	ctx context.Context,
	email string,
) (*credentialsDomain.Credential, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*credentialsDomain.Credential), args.Error(1)
}

func (m *MockCredentialRepository) Delete(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockCredentialRepository) List(
	ctx context.Context,
	offset, limit int,
) ([]*credentialsDomain.Credential, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*credentialsDomain.Credential), args.Error(1)
}

// MockCredentialUseCase is a mock implementation of CredentialUseCase.
type MockCredentialUseCase struct {
	mock.Mock
}

func (m *MockCredentialUseCase) Store(
	ctx context.Context,
	email string,
	token *oauth2.Token,
) (*credentialsDomain.Credential, error) {
	args := m.Called(ctx, email, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*credentialsDomain.Credential), args.Error(1)
}

func (m *MockCredentialUseCase) Get(ctx context.Context, email string) (*credentialsDomain.Credential, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*credentialsDomain.Credential), args.Error(1)
}

func (m *MockCredentialUseCase) Delete(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockCredentialUseCase) List(
	ctx context.Context,
	offset, limit int,
) ([]*credentialsDomain.Credential, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*credentialsDomain.Credential), args.Error(1)
}

// MockTxManager runs fn directly, without a transaction.
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx)
}
