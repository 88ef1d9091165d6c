package commands

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/tokenvault/internal/crypto/domain"
	"github.com/allisson/tokenvault/internal/crypto/kms"
	cryptoService "github.com/allisson/tokenvault/internal/crypto/service"
)

const testKey = "01234567890123456789012345678901"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCodec(key string) cryptoService.EnvelopeCodec {
	return cryptoService.NewEnvelopeCodec(cryptoDomain.KeyConfig{Key: key})
}

type mockKMSService struct {
	mock.Mock
}

func (m *mockKMSService) OpenKeeper(ctx context.Context, uri string) (kms.Keeper, error) {
	args := m.Called(ctx, uri)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(kms.Keeper), args.Error(1)
}

type mockKeeper struct {
	mock.Mock
}

func (m *mockKeeper) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	args := m.Called(ctx, plaintext)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockKeeper) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	args := m.Called(ctx, ciphertext)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockKeeper) Close() error {
	return m.Called().Error(0)
}

func TestRunGenerateKey(t *testing.T) {
	var out bytes.Buffer

	require.NoError(t, RunGenerateKey(testCodec(""), &out))

	assert.Regexp(t, regexp.MustCompile(`^ENCRYPTION_KEY="[0-9a-f]{32}"\n$`), out.String())
}

func TestRunWrapKey(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		kmsService := &mockKMSService{}
		keeper := &mockKeeper{}
		kmsService.On("OpenKeeper", ctx, "base64key://test").Return(keeper, nil).Once()
		keeper.On("Encrypt", ctx, []byte(testKey)).Return([]byte("wrapped"), nil).Once()
		keeper.On("Close").Return(nil).Once()

		var out bytes.Buffer
		err := RunWrapKey(ctx, kmsService, testCodec(""), discardLogger(), &out, testKey, "base64key://test")
		require.NoError(t, err)

		assert.Contains(t, out.String(), `ENCRYPTION_KEY_WRAPPED="d3JhcHBlZA=="`)
		assert.Contains(t, out.String(), `KMS_KEY_URI="base64key://test"`)
		assert.NotContains(t, out.String(), testKey)
		kmsService.AssertExpectations(t)
		keeper.AssertExpectations(t)
	})

	t.Run("generates-key-when-empty", func(t *testing.T) {
		kmsService := &mockKMSService{}
		keeper := &mockKeeper{}
		kmsService.On("OpenKeeper", ctx, "base64key://test").Return(keeper, nil).Once()
		keeper.On("Encrypt", ctx, mock.MatchedBy(func(b []byte) bool { return len(b) == 32 })).
			Return([]byte("wrapped"), nil).
			Once()
		keeper.On("Close").Return(nil).Once()

		var out bytes.Buffer
		require.NoError(t, RunWrapKey(ctx, kmsService, testCodec(""), discardLogger(), &out, "", "base64key://test"))
		keeper.AssertExpectations(t)
	})

	t.Run("round-trips-through-localsecrets", func(t *testing.T) {
		keyURI := "base64key://" + strings.Repeat("A", 43) + "="

		var out bytes.Buffer
		require.NoError(t, RunWrapKey(ctx, kms.NewKMSService(), testCodec(""), discardLogger(), &out, testKey, keyURI))

		match := regexp.MustCompile(`ENCRYPTION_KEY_WRAPPED="([^"]+)"`).FindStringSubmatch(out.String())
		require.Len(t, match, 2)
		key, err := kms.UnwrapKey(ctx, kms.NewKMSService(), keyURI, match[1])
		require.NoError(t, err)
		assert.Equal(t, testKey, key)
	})

	t.Run("missing-uri", func(t *testing.T) {
		err := RunWrapKey(ctx, nil, testCodec(""), discardLogger(), io.Discard, testKey, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--kms-key-uri is required")
	})

	t.Run("invalid-key", func(t *testing.T) {
		err := RunWrapKey(ctx, &mockKMSService{}, testCodec(""), discardLogger(), io.Discard, "short", "base64key://test")
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidKeyLength)
	})
}

func TestRunEncryptDecrypt(t *testing.T) {
	codec := testCodec(testKey)

	t.Run("stdin-round-trip", func(t *testing.T) {
		var sealed bytes.Buffer
		err := RunEncrypt(codec, IOTuple{Reader: strings.NewReader("refresh-token-xyz\n"), Writer: &sealed}, "", false)
		require.NoError(t, err)

		var opened bytes.Buffer
		err = RunDecrypt(codec, IOTuple{Reader: strings.NewReader(sealed.String()), Writer: &opened}, "", false)
		require.NoError(t, err)
		assert.Equal(t, "refresh-token-xyz\n", opened.String())
	})

	t.Run("flag-value-kept-verbatim", func(t *testing.T) {
		var sealed bytes.Buffer
		require.NoError(t, RunEncrypt(codec, IOTuple{Writer: &sealed}, " padded \n", true))

		plaintext, err := codec.Decrypt(strings.TrimSuffix(sealed.String(), "\n"))
		require.NoError(t, err)
		assert.Equal(t, " padded \n", plaintext)
	})

	t.Run("decrypt-tampered", func(t *testing.T) {
		envelope, err := codec.Encrypt("refresh-token-xyz")
		require.NoError(t, err)
		tampered := envelope[:len(envelope)-4] + "AAAA"
		if tampered == envelope {
			tampered = envelope[:len(envelope)-4] + "BBBB"
		}

		err = RunDecrypt(codec, IOTuple{Writer: io.Discard}, tampered, true)
		assert.Error(t, err)
	})

	t.Run("missing-key", func(t *testing.T) {
		err := RunEncrypt(testCodec(""), IOTuple{Writer: io.Discard}, "x", true)
		assert.ErrorIs(t, err, cryptoDomain.ErrMissingKey)
	})

	t.Run("no-input", func(t *testing.T) {
		err := RunEncrypt(codec, IOTuple{Writer: io.Discard}, "", false)
		assert.ErrorContains(t, err, "no input")
	})
}

func TestRunHash(t *testing.T) {
	var out bytes.Buffer

	require.NoError(t, RunHash(testCodec(""), IOTuple{Reader: strings.NewReader("hello\n"), Writer: &out}, "", false))

	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824\n", out.String())
}

type fakeServer struct {
	startErr error
	stop     chan struct{}
	stopped  atomic.Bool
}

func newFakeServer(startErr error) *fakeServer {
	return &fakeServer{startErr: startErr, stop: make(chan struct{})}
}

func (f *fakeServer) Start(ctx context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	<-f.stop
	return nil
}

func (f *fakeServer) Shutdown(ctx context.Context) error {
	if f.stopped.CompareAndSwap(false, true) {
		close(f.stop)
	}
	return nil
}

func TestServe(t *testing.T) {
	t.Run("stops-all-on-cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		api, metricsSrv := newFakeServer(nil), newFakeServer(nil)

		done := make(chan error, 1)
		go func() { done <- serve(ctx, discardLogger(), api, metricsSrv) }()

		cancel()

		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("serve did not return")
		}
		assert.True(t, api.stopped.Load())
		assert.True(t, metricsSrv.stopped.Load())
	})

	t.Run("first-failure-stops-the-rest", func(t *testing.T) {
		startErr := errors.New("address already in use")
		failing, healthy := newFakeServer(startErr), newFakeServer(nil)

		err := serve(context.Background(), discardLogger(), failing, healthy)

		assert.ErrorIs(t, err, startErr)
		assert.True(t, healthy.stopped.Load())
	})
}
