// Copyright © 2025 Signet Contributors
//
// SPDX-License-Identifier: MIT

// Package middleware provides net/http middleware that authenticates
// requests with a bearer JWT decoded through a jwt.Factory. Validated
// claims are stored in the request context for handlers downstream.
package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/signetauth/signet/pkg/blocklist"
	"github.com/signetauth/signet/pkg/errors"
	"github.com/signetauth/signet/pkg/jwt"
	"github.com/signetauth/signet/pkg/logging"
)

// ContextKey is the type of the context keys installed by this package.
type ContextKey string

// ClaimsContextKey locates the validated *jwt.Claims in the request
// context.
const ClaimsContextKey ContextKey = "jwt_claims"

// Options configures the token middleware.
type Options struct {
	// Blocklist, when set, rejects tokens whose jti has been revoked.
	Blocklist blocklist.Store

	// Logger used for rejected requests. Defaults to the package
	// component logger.
	Logger *zerolog.Logger
}

// ClaimsFromContext returns the validated claims stored by RequireToken.
func ClaimsFromContext(ctx context.Context) (*jwt.Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*jwt.Claims)
	return claims, ok
}

// RequireToken authenticates every request with the Authorization bearer
// token. Requests without a valid token are rejected with the status
// mapped from the decode error code.
func RequireToken(factory *jwt.Factory, opts *Options) func(http.Handler) http.Handler {
	if opts == nil {
		opts = &Options{}
	}
	log := logging.Component("middleware")
	if opts.Logger != nil {
		log = *opts.Logger
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := extractBearer(r)
			if err != nil {
				reject(w, log, err)
				return
			}

			claims, err := factory.DecodeNow(raw)
			if err != nil {
				reject(w, log, err)
				return
			}

			if opts.Blocklist != nil {
				if err := checkRevocation(r.Context(), opts.Blocklist, claims); err != nil {
					claims.Destroy()
					reject(w, log, err)
					return
				}
			}

			ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractBearer(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errors.New(errors.ErrCodeSignatureInvalid, "missing authorization header")
	}
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", errors.New(errors.ErrCodeSignatureInvalid, "authorization header is not a bearer token")
	}
	return strings.TrimSpace(header[len(prefix):]), nil
}

func checkRevocation(ctx context.Context, store blocklist.Store, claims *jwt.Claims) error {
	jti, err := claims.ID()
	if err != nil {
		// tokens without a jti cannot be revoked individually
		return nil
	}
	revoked, err := store.IsRevoked(ctx, jti)
	if err != nil {
		return err
	}
	if revoked {
		return errors.New(errors.ErrCodeSignatureInvalid, "token has been revoked")
	}
	return nil
}

// RevocationTTL returns how long a revocation for the given claims must
// be kept: until the token's expiry, or fallback when it carries none.
func RevocationTTL(claims *jwt.Claims, now time.Time, fallback time.Duration) time.Duration {
	exp, err := claims.Expiration()
	if err != nil {
		return fallback
	}
	ttl := time.Unix(exp, 0).Sub(now)
	if ttl <= 0 {
		return time.Second
	}
	return ttl
}

func reject(w http.ResponseWriter, log zerolog.Logger, err error) {
	status := errors.GetHTTPStatus(err)
	logging.Failure(log, err).Msg("request rejected")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + string(errors.GetErrorCode(err)) + `"}`))
}
