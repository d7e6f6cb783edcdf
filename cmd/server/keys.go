package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-sfdc-login/internal/config"
	"github.com/jrsteele09/go-sfdc-login/token"
)

func keygenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Print a new random encryption key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := token.GenerateKey()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
}

// encryptCommand seals a value with the configured key, e.g. to seed a
// stored credential by hand.
func encryptCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt [value]",
		Short: "Encrypt a value with the configured key (reads stdin when no value is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCipher(cmd, *configPath, args, (*token.Cipher).Encrypt)
		},
	}
}

func decryptCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "decrypt [value]",
		Short: "Decrypt a stored credential with the configured key (reads stdin when no value is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCipher(cmd, *configPath, args, (*token.Cipher).Decrypt)
		},
	}
}

func withCipher(cmd *cobra.Command, configPath string, args []string, op func(*token.Cipher, string) (string, error)) error {
	c, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cipher, err := token.NewCipherFromString(c.GetEncryptionKey())
	if err != nil {
		return err
	}

	var value string
	if len(args) == 1 {
		value = args[0]
	} else {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return err
		}
		value = strings.TrimRight(string(b), "\r\n")
	}

	out, err := op(cipher, value)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
