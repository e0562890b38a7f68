// Copyright © 2025 Signet Contributors
//
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/signetauth/signet/pkg/jwa"
	"github.com/signetauth/signet/pkg/jwk"
	"github.com/signetauth/signet/pkg/jws"
	"github.com/signetauth/signet/pkg/jwt"
)

var (
	signIssuer    string
	signSubject   string
	signAudiences []string
	signDuration  int64
	signNotBefore int64
	signClaims    []string
	signNow       int64
)

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Mint a token with the configured key",
	RunE: func(cmd *cobra.Command, args []string) error {
		keys, err := loadKeys(keyPath, "sig", alg, kid)
		if err != nil {
			return err
		}
		defer destroyKeys(keys)

		key, err := keyByID(keys, kid)
		if err != nil {
			return err
		}
		factory, closeFactory, err := newTokenFactory(keys, key, alg, true)
		if err != nil {
			return err
		}
		defer closeFactory()

		if err := configureFactory(factory); err != nil {
			return err
		}
		if signNow != 0 {
			if err := factory.SetTimeFunc(func() int64 { return signNow }); err != nil {
				return err
			}
		}
		claims, err := buildClaims(signClaims)
		if err != nil {
			return err
		}
		defer claims.Destroy()

		token, err := factory.Sign(claims)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	signCmd.Flags().StringVar(&signIssuer, "issuer", "", "Issuer claim")
	signCmd.Flags().StringVar(&signSubject, "subject", "", "Subject claim")
	signCmd.Flags().StringArrayVar(&signAudiences, "audience", nil, "Audience claim (repeatable)")
	signCmd.Flags().Int64Var(&signDuration, "duration", 3600, "Token lifetime in seconds")
	signCmd.Flags().Int64Var(&signNotBefore, "not-before", 0, "Seconds until the token becomes valid")
	signCmd.Flags().StringArrayVar(&signClaims, "claim", nil, "Private claim as name=value (repeatable)")
	signCmd.Flags().Int64Var(&signNow, "now", 0, "Override the current time (unix seconds)")

	rootCmd.AddCommand(signCmd)
}

// newTokenFactory builds a jwt.Factory over the given key set. The signing
// key is used when signing is requested; every key in the set serves
// verification through the resolver.
func newTokenFactory(keys []*jwk.Key, signingKey *jwk.Key, alg string, signing bool) (*jwt.Factory, func(), error) {
	cfg := jws.FactoryConfig{
		Resolver: func(alg, kid string) (jwa.Verifier, error) {
			key, err := keyByID(keys, kid)
			if err != nil && kid != "" {
				return nil, err
			}
			if key == nil {
				key = keys[0]
			}
			return jwa.MakeVerifier(alg, kid, key)
		},
		VerifierCacheSize: 8,
	}
	if signing {
		signer, err := jwa.MakeSigner(alg, signingKey.Kid(), signingKey)
		if err != nil {
			return nil, nil, err
		}
		cfg.Signer = signer
	}
	jwsf, err := jws.NewFactory(cfg)
	if err != nil {
		return nil, nil, err
	}
	return jwt.NewFactory(jwsf), jwsf.Close, nil
}

func configureFactory(f *jwt.Factory) error {
	if signIssuer != "" {
		if err := f.SetIssuer(signIssuer); err != nil {
			return err
		}
	}
	if signSubject != "" {
		if err := f.SetSubject(signSubject); err != nil {
			return err
		}
	}
	for _, aud := range signAudiences {
		if err := f.AddAudience(aud); err != nil {
			return err
		}
	}
	if err := f.SetDuration(signDuration); err != nil {
		return err
	}
	return f.SetNotBefore(signNotBefore)
}

// buildClaims turns name=value pairs into a claim set. Values that parse
// as integers are stored as numbers, everything else as strings.
func buildClaims(pairs []string) (*jwt.Claims, error) {
	claims := jwt.NewClaims()
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			claims.Destroy()
			return nil, fmt.Errorf("malformed claim %q, want name=value", pair)
		}
		var err error
		if n, convErr := strconv.ParseInt(value, 10, 64); convErr == nil {
			err = claims.SetInt(name, n)
		} else {
			err = claims.SetString(name, value)
		}
		if err != nil {
			claims.Destroy()
			return nil, err
		}
	}
	return claims, nil
}
