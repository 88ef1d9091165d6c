package app

import (
	"context"
	"fmt"
	"sync"

	cryptoDomain "github.com/allisson/tokenvault/internal/crypto/domain"
	"github.com/allisson/tokenvault/internal/crypto/kms"
	cryptoService "github.com/allisson/tokenvault/internal/crypto/service"
)

type cryptoComponents struct {
	kmsService    kms.KMSService
	keyConfig     cryptoDomain.KeyConfig
	envelopeCodec cryptoService.EnvelopeCodec

	kmsServiceInit    sync.Once
	keyConfigInit     sync.Once
	envelopeCodecInit sync.Once
}

// KMSService returns the KMS service used to unwrap ENCRYPTION_KEY_WRAPPED.
func (c *Container) KMSService() kms.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = kms.NewKMSService()
	})
	return c.kmsService
}

// KeyConfig returns the codec key configuration, unwrapping the key through KMS when
// only the wrapped form is configured. An unset key is not an error here: the codec
// reports it on first use.
func (c *Container) KeyConfig(ctx context.Context) (cryptoDomain.KeyConfig, error) {
	c.keyConfigInit.Do(func() {
		var err error
		c.keyConfig, err = c.initKeyConfig(ctx)
		c.setInitError("keyConfig", err)
	})
	return c.keyConfig, c.initError("keyConfig")
}

// EnvelopeCodec returns the envelope codec, decorated with business metrics.
func (c *Container) EnvelopeCodec(ctx context.Context) (cryptoService.EnvelopeCodec, error) {
	c.envelopeCodecInit.Do(func() {
		var err error
		c.envelopeCodec, err = c.initEnvelopeCodec(ctx)
		c.setInitError("envelopeCodec", err)
	})
	return c.envelopeCodec, c.initError("envelopeCodec")
}

func (c *Container) initKeyConfig(ctx context.Context) (cryptoDomain.KeyConfig, error) {
	keyConfig, err := kms.ResolveKey(
		ctx,
		c.KMSService(),
		c.config.KeyConfig(),
		c.config.KMSKeyURI,
		c.config.EncryptionKeyWrapped,
	)
	if err != nil {
		return cryptoDomain.KeyConfig{}, fmt.Errorf("failed to resolve encryption key: %w", err)
	}

	if keyConfig.Key == "" {
		c.Logger().Warn("no encryption key configured, credential operations will fail")
	}
	return keyConfig, nil
}

func (c *Container) initEnvelopeCodec(ctx context.Context) (cryptoService.EnvelopeCodec, error) {
	keyConfig, err := c.KeyConfig(ctx)
	if err != nil {
		return nil, err
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for envelope codec: %w", err)
	}

	return cryptoService.NewEnvelopeCodecWithMetrics(cryptoService.NewEnvelopeCodec(keyConfig), businessMetrics), nil
}
