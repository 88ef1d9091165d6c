package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/allisson/tokenvault/internal/crypto/kms"
	cryptoService "github.com/allisson/tokenvault/internal/crypto/service"
)

const kmsURIHelp = `--kms-key-uri is required

For local development, use:
  --kms-key-uri="base64key://<32-byte-base64-key>"

For production, use a cloud KMS key:
  --kms-key-uri="gcpkms://projects/.../cryptoKeys/..."
  --kms-key-uri="awskms:///alias/..."
  --kms-key-uri="azurekeyvault://..."
  --kms-key-uri="hashivault://..."`

// RunGenerateKey prints a fresh 32-character key as an ENCRYPTION_KEY assignment.
func RunGenerateKey(codec cryptoService.EnvelopeCodec, writer io.Writer) error {
	key, err := codec.GenerateKey()
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(writer, "ENCRYPTION_KEY=%q\n", key)
	return err
}

// RunWrapKey encrypts key with the KMS key at keyURI and prints the environment for a
// wrapped deployment. An empty key generates a new one.
//
// Output format:
//   - ENCRYPTION_KEY_WRAPPED="<base64 KMS ciphertext>"
//   - KMS_KEY_URI="<uri>"
func RunWrapKey(
	ctx context.Context,
	kmsService kms.KMSService,
	codec cryptoService.EnvelopeCodec,
	logger *slog.Logger,
	writer io.Writer,
	key, keyURI string,
) error {
	if keyURI == "" {
		return fmt.Errorf("%s", kmsURIHelp)
	}

	if key == "" {
		generated, err := codec.GenerateKey()
		if err != nil {
			return err
		}
		key = generated
		logger.Info("no key given, generated a new one")
	}

	wrapped, err := kms.WrapKey(ctx, kmsService, keyURI, key)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(writer,
		"# Copy these environment variables to your .env file or secrets manager\n"+
			"ENCRYPTION_KEY_WRAPPED=%q\nKMS_KEY_URI=%q\n",
		wrapped,
		keyURI,
	)
	return err
}
