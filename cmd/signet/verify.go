// Copyright © 2025 Signet Contributors
//
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/signetauth/signet/pkg/errors"
)

var (
	verifyIssuer    string
	verifySubject   string
	verifyAudiences []string
	verifySkew      int64
	verifyNow       int64
)

var verifyCmd = &cobra.Command{
	Use:   "verify <token>",
	Short: "Validate a token and print its claims",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		keys, err := loadKeys(keyPath, "sig", alg, kid)
		if err != nil {
			return err
		}
		defer destroyKeys(keys)

		factory, closeFactory, err := newTokenFactory(keys, nil, alg, false)
		if err != nil {
			return err
		}
		defer closeFactory()

		if verifyIssuer != "" {
			if err := factory.SetIssuer(verifyIssuer); err != nil {
				return err
			}
		}
		if verifySubject != "" {
			if err := factory.SetSubject(verifySubject); err != nil {
				return err
			}
		}
		for _, aud := range verifyAudiences {
			if err := factory.AddAudience(aud); err != nil {
				return err
			}
		}
		if err := factory.SetDefaultSkew(verifySkew); err != nil {
			return err
		}
		if verifyNow != 0 {
			if err := factory.SetTimeFunc(func() int64 { return verifyNow }); err != nil {
				return err
			}
		}

		claims, err := factory.DecodeNow(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", errors.GetErrorCode(err), err)
			os.Exit(1)
		}
		defer claims.Destroy()

		fmt.Fprintln(cmd.OutOrStdout(), claims.Serialize())
		return nil
	},
}

func init() {
	verifyCmd.Flags().StringVar(&verifyIssuer, "issuer", "", "Require this issuer")
	verifyCmd.Flags().StringVar(&verifySubject, "subject", "", "Require this subject")
	verifyCmd.Flags().StringArrayVar(&verifyAudiences, "audience", nil, "Require one of these audiences (repeatable)")
	verifyCmd.Flags().Int64Var(&verifySkew, "skew", 0, "Clock skew tolerance in seconds")
	verifyCmd.Flags().Int64Var(&verifyNow, "now", 0, "Override the current time (unix seconds)")

	rootCmd.AddCommand(verifyCmd)
}
