// Copyright © 2025 Signet Contributors
//
// SPDX-License-Identifier: MIT

// Package logging installs the process-wide zerolog logger and hands out
// component loggers enriched with the fields the token pipeline reports:
// key coordinates on signing paths and coded rejection causes on verify
// paths. Rejection causes travel only through the debug stream here, never
// through caller-visible errors.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/signetauth/signet/pkg/errors"
)

// Environment variables consulted by SetupFromEnv.
const (
	EnvLevel   = "LOG_LEVEL"
	EnvFormat  = "LOG_FORMAT"
	EnvService = "SERVICE_NAME"
)

// Setup installs the global logger and returns it. An empty or unknown
// level means info. Format "console" writes human-readable output to
// stderr; anything else emits JSON lines. An empty service defaults to
// "signet".
func Setup(level, format, service string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var out io.Writer = os.Stderr
	if strings.EqualFold(format, "console") {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	if service == "" {
		service = "signet"
	}
	log.Logger = zerolog.New(out).With().Timestamp().Str("service", service).Logger()
	return log.Logger
}

// SetupFromEnv installs the logger described by LOG_LEVEL, LOG_FORMAT and
// SERVICE_NAME.
func SetupFromEnv() zerolog.Logger {
	return Setup(os.Getenv(EnvLevel), os.Getenv(EnvFormat), os.Getenv(EnvService))
}

// Component returns the global logger tagged with a component name.
func Component(name string) zerolog.Logger {
	return log.Logger.With().Str("component", name).Logger()
}

// WithKey enriches logger with the key coordinates a signer or verifier
// operates under. An empty kid is omitted.
func WithKey(logger zerolog.Logger, alg, kid string) zerolog.Logger {
	ctx := logger.With().Str("alg", alg)
	if kid != "" {
		ctx = ctx.Str("kid", kid)
	}
	return ctx.Logger()
}

// Failure returns a debug event annotated with err, its code and the
// HTTP status the code maps to. Callers add their own fields and the
// message.
func Failure(logger zerolog.Logger, err error) *zerolog.Event {
	return logger.Debug().
		Err(err).
		Str("code", string(errors.GetErrorCode(err))).
		Int("status", errors.GetHTTPStatus(err))
}
