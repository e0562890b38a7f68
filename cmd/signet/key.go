// Copyright © 2025 Signet Contributors
//
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/signetauth/signet/pkg/keys"
)

var (
	keyGenOut       string
	keyGenPublicOut string
	keyGenBits      int
)

var keyGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a fresh signing key for the configured algorithm",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, pemText, err := keys.Generate(alg, kid, keyGenBits)
		if err != nil {
			return err
		}
		defer key.Destroy()

		material := pemText
		if material == "" {
			material = key.Serialize()
		}
		if keyGenOut == "" {
			fmt.Fprintln(cmd.OutOrStdout(), material)
		} else if err := keys.Save(keyGenOut, material); err != nil {
			return err
		}

		if keyGenPublicOut != "" {
			pubText, err := keys.PublicPEM(key)
			if err != nil {
				return err
			}
			if err := keys.Save(keyGenPublicOut, pubText); err != nil {
				return err
			}
		}
		return nil
	},
}

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Inspect key material",
}

var keyInspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Summarise the keys in the configured key file",
	RunE: func(cmd *cobra.Command, args []string) error {
		keys, err := loadKeys(keyPath, "sig", alg, kid)
		if err != nil {
			return err
		}
		defer destroyKeys(keys)

		for _, k := range keys {
			kind := "public"
			if k.IsPrivate() {
				kind = "private"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "kty=%s kid=%s alg=%s use=%s %s\n",
				k.Kty(), k.Kid(), k.Alg(), k.Use(), kind)
		}
		return nil
	},
}

var keyPublicCmd = &cobra.Command{
	Use:   "public",
	Short: "Print the public JWK for each key in the key file",
	RunE: func(cmd *cobra.Command, args []string) error {
		keys, err := loadKeys(keyPath, "sig", alg, kid)
		if err != nil {
			return err
		}
		defer destroyKeys(keys)

		for _, k := range keys {
			pub, err := k.ToPublic()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), pub.Serialize())
			pub.Destroy()
		}
		return nil
	},
}

func init() {
	keyGenerateCmd.Flags().StringVar(&keyGenOut, "out", "", "Write the key to this path instead of stdout")
	keyGenerateCmd.Flags().StringVar(&keyGenPublicOut, "public-out", "", "Also write the public PEM to this path")
	keyGenerateCmd.Flags().IntVar(&keyGenBits, "bits", 0, "RSA modulus size (RS/PS algorithms only)")

	keyCmd.AddCommand(keyGenerateCmd)
	keyCmd.AddCommand(keyInspectCmd)
	keyCmd.AddCommand(keyPublicCmd)
	rootCmd.AddCommand(keyCmd)
}
