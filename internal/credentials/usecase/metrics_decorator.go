package usecase

import (
	"context"
	"time"

	"golang.org/x/oauth2"

	credentialsDomain "github.com/allisson/tokenvault/internal/credentials/domain"
	"github.com/allisson/tokenvault/internal/metrics"
)

const metricsDomain = "credentials"

// credentialUseCaseWithMetrics decorates CredentialUseCase with metrics instrumentation.
type credentialUseCaseWithMetrics struct {
	next    CredentialUseCase
	metrics metrics.BusinessMetrics
}

// NewCredentialUseCaseWithMetrics wraps a CredentialUseCase with metrics recording.
func NewCredentialUseCaseWithMetrics(useCase CredentialUseCase, m metrics.BusinessMetrics) CredentialUseCase {
	return &credentialUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Store records metrics for credential store operations.
func (c *credentialUseCaseWithMetrics) Store(
	ctx context.Context,
	email string,
	token *oauth2.Token,
) (*credentialsDomain.Credential, error) {
	start := time.Now()
	credential, err := c.next.Store(ctx, email, token)
	metrics.Observe(ctx, c.metrics, metricsDomain, "credential_store", start, err)
	return credential, err
}

// Get records metrics for credential retrieval operations.
func (c *credentialUseCaseWithMetrics) Get(ctx context.Context, email string) (*credentialsDomain.Credential, error) {
	start := time.Now()
	credential, err := c.next.Get(ctx, email)
	metrics.Observe(ctx, c.metrics, metricsDomain, "credential_get", start, err)
	return credential, err
}

// Delete records metrics for credential deletion operations.
func (c *credentialUseCaseWithMetrics) Delete(ctx context.Context, email string) error {
	start := time.Now()
	err := c.next.Delete(ctx, email)
	metrics.Observe(ctx, c.metrics, metricsDomain, "credential_delete", start, err)
	return err
}

// List records metrics for credential listing operations.
func (c *credentialUseCaseWithMetrics) List(
	ctx context.Context,
	offset, limit int,
) ([]*credentialsDomain.Credential, error) {
	start := time.Now()
	credentials, err := c.next.List(ctx, offset, limit)
	metrics.Observe(ctx, c.metrics, metricsDomain, "credential_list", start, err)
	return credentials, err
}
