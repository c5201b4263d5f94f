// Copyright 2026 The CodeChain-Go Authors

package main

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"

	ckeystore "github.com/kode-chain/codechain-go/pkg/keystore"
)

func newAccountCommand() *cobra.Command {
	var keystoreDir string

	cmd := &cobra.Command{
		Use:   "account",
		Short: "manage validator signing keys",
	}
	cmd.PersistentFlags().StringVar(&keystoreDir, "keystore", "./keystore", "key file directory")

	cmd.AddCommand(newAccountCreateCommand(&keystoreDir))
	cmd.AddCommand(newAccountImportCommand(&keystoreDir))
	cmd.AddCommand(newAccountImportRawCommand(&keystoreDir))
	cmd.AddCommand(newAccountListCommand(&keystoreDir))
	cmd.AddCommand(newAccountRemoveCommand(&keystoreDir))
	cmd.AddCommand(newAccountChangePasswordCommand(&keystoreDir))
	return cmd
}

func newAccountCreateCommand(keystoreDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "generate a new signing key and store it encrypted",
		RunE: func(cmd *cobra.Command, args []string) error {
			pass, err := promptNewPassphrase()
			if err != nil {
				return err
			}
			path := filepath.Join(*keystoreDir, fmt.Sprintf("key-%d.json", os.Getpid()))
			kp, err := ckeystore.Create(path, pass)
			if err != nil {
				return err
			}
			addr := kp.Address()
			fmt.Printf("address: %s\n", hex.EncodeToString(addr[:]))
			fmt.Printf("key file: %s\n", path)
			return nil
		},
	}
}

func newAccountImportCommand(keystoreDir *string) *cobra.Command {
	var sourcePath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "re-encrypt a foreign Web3 Secret Storage key file under this node's keystore",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(sourcePath)
			if err != nil {
				return err
			}
			oldPass, err := promptPassphrase("source passphrase: ")
			if err != nil {
				return err
			}
			newPass, err := promptNewPassphrase()
			if err != nil {
				return err
			}
			dst := filepath.Join(*keystoreDir, fmt.Sprintf("key-%d.json", os.Getpid()))
			kp, err := ckeystore.Import(dst, data, oldPass, newPass)
			if err != nil {
				return err
			}
			addr := kp.Address()
			fmt.Printf("address: %s\n", hex.EncodeToString(addr[:]))
			return nil
		},
	}
	cmd.Flags().StringVar(&sourcePath, "file", "", "path to the foreign key file")
	cmd.MarkFlagRequired("file")
	return cmd
}

func newAccountImportRawCommand(keystoreDir *string) *cobra.Command {
	var rawHex string
	cmd := &cobra.Command{
		Use:   "import-raw",
		Short: "import a raw hex-encoded secp256k1 private key",
		RunE: func(cmd *cobra.Command, args []string) error {
			priv, err := crypto.HexToECDSA(strings.TrimPrefix(rawHex, "0x"))
			if err != nil {
				return fmt.Errorf("invalid private key: %w", err)
			}
			pass, err := promptNewPassphrase()
			if err != nil {
				return err
			}
			path := filepath.Join(*keystoreDir, fmt.Sprintf("key-%d.json", os.Getpid()))
			kp, err := ckeystore.ImportRaw(path, priv, pass)
			if err != nil {
				return err
			}
			addr := kp.Address()
			fmt.Printf("address: %s\n", hex.EncodeToString(addr[:]))
			return nil
		},
	}
	cmd.Flags().StringVar(&rawHex, "private-key", "", "hex-encoded private key")
	cmd.MarkFlagRequired("private-key")
	return cmd
}

func newAccountListCommand(keystoreDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list every key file's address",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := ckeystore.List(*keystoreDir)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Printf("%s  %s\n", hex.EncodeToString(e.Address[:]), e.Path)
			}
			return nil
		},
	}
}

func newAccountRemoveCommand(keystoreDir *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "delete a key file",
		RunE: func(cmd *cobra.Command, args []string) error {
			pass, err := promptPassphrase("passphrase: ")
			if err != nil {
				return err
			}
			return ckeystore.Remove(filepath.Join(*keystoreDir, file), pass)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "key file name within the keystore directory")
	cmd.MarkFlagRequired("file")
	return cmd
}

func newAccountChangePasswordCommand(keystoreDir *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "change-password",
		Short: "re-encrypt a key file under a new passphrase",
		RunE: func(cmd *cobra.Command, args []string) error {
			oldPass, err := promptPassphrase("current passphrase: ")
			if err != nil {
				return err
			}
			newPass, err := promptNewPassphrase()
			if err != nil {
				return err
			}
			return ckeystore.ChangePassphrase(filepath.Join(*keystoreDir, file), oldPass, newPass)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "key file name within the keystore directory")
	cmd.MarkFlagRequired("file")
	return cmd
}

func promptPassphrase(prompt string) (string, error) {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func promptNewPassphrase() (string, error) {
	pass, err := promptPassphrase("passphrase: ")
	if err != nil {
		return "", err
	}
	confirm, err := promptPassphrase("confirm passphrase: ")
	if err != nil {
		return "", err
	}
	if pass != confirm {
		return "", fmt.Errorf("passphrases do not match")
	}
	return pass, nil
}
