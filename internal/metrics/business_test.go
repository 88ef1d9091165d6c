package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertMetricLine checks that the Prometheus output contains a metric matching the
// given name, partial label pattern and value. The exporter injects extra OTel scope
// labels, hence the regex.
func assertMetricLine(t *testing.T, output, name, labels, value string) {
	t.Helper()
	pattern := name + `\{[^}]*` + labels + `[^}]*\} ` + value
	assert.Regexp(t, pattern, output)
}

func scrape(t *testing.T, provider *Provider) string {
	t.Helper()
	w := httptest.NewRecorder()
	provider.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestNewBusinessMetrics(t *testing.T) {
	provider, err := NewProvider("test_app")
	require.NoError(t, err)

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "test_app")
	require.NoError(t, err)
	assert.NotNil(t, bm)
}

func TestBusinessMetrics_Recording(t *testing.T) {
	provider, err := NewProvider("vault_test")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "vault_test")
	require.NoError(t, err)

	ctx := context.Background()
	bm.RecordOperation(ctx, "crypto", "envelope_encrypt", StatusSuccess)
	bm.RecordOperation(ctx, "crypto", "envelope_encrypt", StatusSuccess)
	bm.RecordOperation(ctx, "crypto", "envelope_decrypt", StatusError)
	bm.RecordOperation(ctx, "credentials", "credential_store", StatusSuccess)
	bm.RecordDuration(ctx, "crypto", "envelope_encrypt", 2*time.Millisecond, StatusSuccess)
	bm.RecordDuration(ctx, "crypto", "envelope_encrypt", 3*time.Millisecond, StatusSuccess)

	output := scrape(t, provider)

	assertMetricLine(t, output, `vault_test_operations_total`,
		`domain="crypto".*operation="envelope_encrypt".*status="success"`, `2`)
	assertMetricLine(t, output, `vault_test_operations_total`,
		`domain="crypto".*operation="envelope_decrypt".*status="error"`, `1`)
	assertMetricLine(t, output, `vault_test_operations_total`,
		`domain="credentials".*operation="credential_store".*status="success"`, `1`)
	assertMetricLine(t, output, `vault_test_operation_duration_seconds_count`,
		`domain="crypto".*operation="envelope_encrypt".*status="success"`, `2`)
}

func TestObserve(t *testing.T) {
	provider, err := NewProvider("observe_test")
	require.NoError(t, err)

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "observe_test")
	require.NoError(t, err)

	ctx := context.Background()
	Observe(ctx, bm, "credentials", "credential_get", time.Now(), nil)
	Observe(ctx, bm, "credentials", "credential_get", time.Now(), errors.New("boom"))

	output := scrape(t, provider)

	assertMetricLine(t, output, `observe_test_operations_total`,
		`domain="credentials".*operation="credential_get".*status="success"`, `1`)
	assertMetricLine(t, output, `observe_test_operations_total`,
		`domain="credentials".*operation="credential_get".*status="error"`, `1`)
	assertMetricLine(t, output, `observe_test_operation_duration_seconds_count`,
		`domain="credentials".*operation="credential_get".*status="error"`, `1`)
}

func TestNewNoOpBusinessMetrics(t *testing.T) {
	noOp := NewNoOpBusinessMetrics()

	assert.IsType(t, &NoOpBusinessMetrics{}, noOp)
	assert.NotPanics(t, func() {
		noOp.RecordOperation(context.Background(), "crypto", "envelope_encrypt", StatusSuccess)
		noOp.RecordDuration(context.Background(), "crypto", "envelope_encrypt", time.Millisecond, StatusError)
		Observe(context.Background(), noOp, "crypto", "envelope_decrypt", time.Now(), nil)
	})
}
