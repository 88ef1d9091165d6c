package commands

import (
	"fmt"

	cryptoService "github.com/allisson/tokenvault/internal/crypto/service"
)

// RunEncrypt seals the input with the configured key and prints the envelope.
// The input is the --value flag when set, otherwise stdin.
func RunEncrypt(codec cryptoService.EnvelopeCodec, streams IOTuple, value string, fromFlag bool) error {
	plaintext, err := readInput(streams.Reader, value, fromFlag)
	if err != nil {
		return err
	}

	envelope, err := codec.Encrypt(plaintext)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(streams.Writer, envelope)
	return err
}

// RunDecrypt opens an envelope with the configured key and prints the plaintext.
func RunDecrypt(codec cryptoService.EnvelopeCodec, streams IOTuple, value string, fromFlag bool) error {
	envelope, err := readInput(streams.Reader, value, fromFlag)
	if err != nil {
		return err
	}

	plaintext, err := codec.Decrypt(envelope)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(streams.Writer, plaintext)
	return err
}

// RunHash prints the hex SHA-256 digest of the input.
func RunHash(codec cryptoService.EnvelopeCodec, streams IOTuple, value string, fromFlag bool) error {
	text, err := readInput(streams.Reader, value, fromFlag)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(streams.Writer, codec.Hash(text))
	return err
}
