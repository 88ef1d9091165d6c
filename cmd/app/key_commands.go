package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/tokenvault/cmd/app/commands"
	"github.com/allisson/tokenvault/internal/app"
	"github.com/allisson/tokenvault/internal/config"
	cryptoDomain "github.com/allisson/tokenvault/internal/crypto/domain"
	cryptoService "github.com/allisson/tokenvault/internal/crypto/service"
)

func getKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "generate-key",
			Usage: "Generate a new 32-character encryption key",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				codec := cryptoService.NewEnvelopeCodec(cryptoDomain.KeyConfig{})
				return commands.RunGenerateKey(codec, commands.DefaultIO().Writer)
			},
		},
		{
			Name:  "wrap-key",
			Usage: "Encrypt an encryption key with a KMS key for ENCRYPTION_KEY_WRAPPED",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "key",
					Usage: "Key to wrap (defaults to ENCRYPTION_KEY, or a newly generated key)",
				},
				&cli.StringFlag{
					Name:  "kms-key-uri",
					Usage: "KMS key URI (e.g., base64key://, gcpkms://projects/.../cryptoKeys/...)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				key := cmd.String("key")
				if key == "" {
					key = cfg.EncryptionKey
				}
				keyURI := cmd.String("kms-key-uri")
				if keyURI == "" {
					keyURI = cfg.KMSKeyURI
				}

				return commands.RunWrapKey(
					ctx,
					container.KMSService(),
					cryptoService.NewEnvelopeCodec(cryptoDomain.KeyConfig{}),
					container.Logger(),
					commands.DefaultIO().Writer,
					key,
					keyURI,
				)
			},
		},
	}
}
