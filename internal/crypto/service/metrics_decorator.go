package service

import (
	"context"
	"time"

	"github.com/allisson/tokenvault/internal/metrics"
)

// envelopeCodecWithMetrics decorates EnvelopeCodec with metrics instrumentation.
// Hash and GenerateKey are cheap and pass straight through.
type envelopeCodecWithMetrics struct {
	next    EnvelopeCodec
	metrics metrics.BusinessMetrics
}

// NewEnvelopeCodecWithMetrics wraps an EnvelopeCodec with metrics recording.
func NewEnvelopeCodecWithMetrics(codec EnvelopeCodec, m metrics.BusinessMetrics) EnvelopeCodec {
	return &envelopeCodecWithMetrics{
		next:    codec,
		metrics: m,
	}
}

// Encrypt records metrics for envelope sealing.
func (e *envelopeCodecWithMetrics) Encrypt(plaintext string) (string, error) {
	start := time.Now()
	envelope, err := e.next.Encrypt(plaintext)
	metrics.Observe(context.Background(), e.metrics, "crypto", "envelope_encrypt", start, err)
	return envelope, err
}

// Decrypt records metrics for envelope opening.
func (e *envelopeCodecWithMetrics) Decrypt(envelope string) (string, error) {
	start := time.Now()
	plaintext, err := e.next.Decrypt(envelope)
	metrics.Observe(context.Background(), e.metrics, "crypto", "envelope_decrypt", start, err)
	return plaintext, err
}

// Hash delegates to the wrapped codec.
func (e *envelopeCodecWithMetrics) Hash(text string) string {
	return e.next.Hash(text)
}

// GenerateKey delegates to the wrapped codec.
func (e *envelopeCodecWithMetrics) GenerateKey() (string, error) {
	return e.next.GenerateKey()
}
