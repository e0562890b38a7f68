// Copyright © 2025 Signet Contributors
//
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/signetauth/signet/pkg/jwk"
	"github.com/signetauth/signet/pkg/logging"
)

var (
	keyPath string
	alg     string
	kid     string
)

var rootCmd = &cobra.Command{
	Use:   "signet",
	Short: "Signet - JWT minting and validation",
	Long:  `Signet mints, validates and serves JSON Web Tokens backed by local key material.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.SetupFromEnv()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&keyPath, "key", "", "Path to key material (PEM, JWK or raw HMAC secret)")
	rootCmd.PersistentFlags().StringVar(&alg, "alg", "HS256", "Signature algorithm")
	rootCmd.PersistentFlags().StringVar(&kid, "kid", "", "Key identifier")
}

// loadKeys reads key material from path. PEM blocks and JWK documents are
// parsed as such; anything else is treated as a raw HMAC secret.
func loadKeys(path, use, alg, kid string) ([]*jwk.Key, error) {
	if path == "" {
		return nil, fmt.Errorf("--key is required")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	text := string(raw)
	trimmed := strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(trimmed, "-----BEGIN"):
		return jwk.ParsePEM(text, use, alg, kid)
	case strings.HasPrefix(trimmed, "{"):
		key, err := jwk.ParseJWK(trimmed)
		if err != nil {
			return nil, err
		}
		return []*jwk.Key{key}, nil
	default:
		secret := []byte(strings.TrimRight(text, "\r\n"))
		key, err := jwk.NewHMACKey(secret, kid, alg)
		if err != nil {
			return nil, err
		}
		return []*jwk.Key{key}, nil
	}
}

// keyByID picks the key matching kid, or the only key when kid is empty.
func keyByID(keys []*jwk.Key, kid string) (*jwk.Key, error) {
	if kid == "" {
		if len(keys) == 1 {
			return keys[0], nil
		}
		return nil, fmt.Errorf("--kid is required when the key file holds %d keys", len(keys))
	}
	for _, k := range keys {
		if k.Kid() == kid {
			return k, nil
		}
	}
	return nil, fmt.Errorf("no key with kid %q", kid)
}

func destroyKeys(keys []*jwk.Key) {
	for _, k := range keys {
		k.Destroy()
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
