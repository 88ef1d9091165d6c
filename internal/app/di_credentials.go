package app

import (
	"context"
	"fmt"
	"sync"

	credentialsHTTP "github.com/allisson/tokenvault/internal/credentials/http"
	credentialsRepository "github.com/allisson/tokenvault/internal/credentials/repository"
	credentialsUseCase "github.com/allisson/tokenvault/internal/credentials/usecase"
	"github.com/allisson/tokenvault/internal/database"
)

type credentialsComponents struct {
	credentialRepository credentialsUseCase.CredentialRepository
	credentialUseCase    credentialsUseCase.CredentialUseCase
	credentialHandler    *credentialsHTTP.CredentialHandler

	credentialRepositoryInit sync.Once
	credentialUseCaseInit    sync.Once
	credentialHandlerInit    sync.Once
}

// CredentialRepository returns the repository matching DB_DRIVER.
func (c *Container) CredentialRepository(ctx context.Context) (credentialsUseCase.CredentialRepository, error) {
	c.credentialRepositoryInit.Do(func() {
		var err error
		c.credentialRepository, err = c.initCredentialRepository(ctx)
		c.setInitError("credentialRepository", err)
	})
	return c.credentialRepository, c.initError("credentialRepository")
}

// CredentialUseCase returns the credential use case, decorated with business metrics.
func (c *Container) CredentialUseCase(ctx context.Context) (credentialsUseCase.CredentialUseCase, error) {
	c.credentialUseCaseInit.Do(func() {
		var err error
		c.credentialUseCase, err = c.initCredentialUseCase(ctx)
		c.setInitError("credentialUseCase", err)
	})
	return c.credentialUseCase, c.initError("credentialUseCase")
}

// CredentialHandler returns the credential HTTP handler.
func (c *Container) CredentialHandler(ctx context.Context) (*credentialsHTTP.CredentialHandler, error) {
	c.credentialHandlerInit.Do(func() {
		var err error
		c.credentialHandler, err = c.initCredentialHandler(ctx)
		c.setInitError("credentialHandler", err)
	})
	return c.credentialHandler, c.initError("credentialHandler")
}

func (c *Container) initCredentialRepository(ctx context.Context) (credentialsUseCase.CredentialRepository, error) {
	switch c.config.DBDriver {
	case database.DriverPostgres, database.DriverMySQL:
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}

	db, err := c.DB(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get database for credential repository: %w", err)
	}

	if c.config.DBDriver == database.DriverMySQL {
		return credentialsRepository.NewMySQLCredentialRepository(db), nil
	}
	return credentialsRepository.NewPostgreSQLCredentialRepository(db), nil
}

func (c *Container) initCredentialUseCase(ctx context.Context) (credentialsUseCase.CredentialUseCase, error) {
	txManager, err := c.TxManager(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for credential use case: %w", err)
	}

	repo, err := c.CredentialRepository(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get credential repository for credential use case: %w", err)
	}

	codec, err := c.EnvelopeCodec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get envelope codec for credential use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for credential use case: %w", err)
	}

	useCase := credentialsUseCase.NewCredentialUseCase(txManager, repo, codec, c.Logger())
	return credentialsUseCase.NewCredentialUseCaseWithMetrics(useCase, businessMetrics), nil
}

func (c *Container) initCredentialHandler(ctx context.Context) (*credentialsHTTP.CredentialHandler, error) {
	useCase, err := c.CredentialUseCase(ctx)
	if err != nil {
		return nil, err
	}
	return credentialsHTTP.NewCredentialHandler(useCase, c.Logger()), nil
}
