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

type envelopeAction func(codec cryptoService.EnvelopeCodec, streams commands.IOTuple, value string, fromFlag bool) error

func valueFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "value",
		Aliases: []string{"v"},
		Usage:   "Input text (read from stdin when omitted)",
	}
}

// withCodec runs action with the envelope codec built from the configured key.
func withCodec(action envelopeAction) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		container := app.NewContainer(config.Load())
		defer func() { _ = container.Shutdown(ctx) }()

		codec, err := container.EnvelopeCodec(ctx)
		if err != nil {
			return err
		}

		return action(codec, streamsFor(cmd), cmd.String("value"), cmd.IsSet("value"))
	}
}

// withoutKey runs action with a codec that has no key. Only key-free operations
// such as Hash may be used, so no configuration or KMS is consulted.
func withoutKey(action envelopeAction) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		codec := cryptoService.NewEnvelopeCodec(cryptoDomain.KeyConfig{})
		return action(codec, streamsFor(cmd), cmd.String("value"), cmd.IsSet("value"))
	}
}

// streamsFor returns the root command's reader and writer, falling back to stdio.
func streamsFor(cmd *cli.Command) commands.IOTuple {
	streams := commands.DefaultIO()
	root := cmd.Root()
	if root.Reader != nil {
		streams.Reader = root.Reader
	}
	if root.Writer != nil {
		streams.Writer = root.Writer
	}
	return streams
}

func getEnvelopeCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:   "encrypt",
			Usage:  "Seal text into an envelope with the configured key",
			Flags:  []cli.Flag{valueFlag()},
			Action: withCodec(commands.RunEncrypt),
		},
		{
			Name:   "decrypt",
			Usage:  "Open an envelope with the configured key",
			Flags:  []cli.Flag{valueFlag()},
			Action: withCodec(commands.RunDecrypt),
		},
		{
			Name:   "hash",
			Usage:  "Print the SHA-256 hex digest of text",
			Flags:  []cli.Flag{valueFlag()},
			Action: withoutKey(commands.RunHash),
		},
	}
}
