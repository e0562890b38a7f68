// Copyright © 2025 Signet Contributors
//
// SPDX-License-Identifier: MIT

// Package policy decides whether a subject may be issued a token for an
// audience with a given scope. Rules are (subject, audience, scope)
// triples with keyMatch wildcards, evaluated by a casbin enforcer; the
// serve facade consults the engine before minting.
package policy

import (
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/rs/zerolog"

	"github.com/signetauth/signet/pkg/errors"
	"github.com/signetauth/signet/pkg/logging"
)

const aclModel = `
[request_definition]
r = sub, aud, scope

[policy_definition]
p = sub, aud, scope

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = keyMatch(r.sub, p.sub) && keyMatch(r.aud, p.aud) && keyMatch(r.scope, p.scope)
`

// Engine evaluates issuance rules. The zero set denies everything.
type Engine struct {
	enforcer *casbin.Enforcer
	log      zerolog.Logger
}

// NewEngine returns an engine with no rules.
func NewEngine() (*Engine, error) {
	m, err := model.NewModelFromString(aclModel)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "policy model")
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "policy enforcer")
	}
	return &Engine{enforcer: enforcer, log: logging.Component("policy")}, nil
}

// AddRule allows subject to be issued tokens for audience with scope.
// Any field may be "*".
func (e *Engine) AddRule(sub, aud, scope string) error {
	if sub == "" || aud == "" || scope == "" {
		return errors.New(errors.ErrCodeTypeMismatch, "policy rule fields must be non-empty")
	}
	if _, err := e.enforcer.AddPolicy(sub, aud, scope); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "add policy rule")
	}
	return nil
}

// LoadCSV loads rules from CSV text, one per line:
//
//	p, <subject>, <audience>, <scope>
//
// Blank lines and lines starting with # are skipped.
func (e *Engine) LoadCSV(text string) error {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) != 4 || strings.TrimSpace(fields[0]) != "p" {
			return errors.Newf(errors.ErrCodeTypeMismatch, "malformed policy line %q", line)
		}
		sub := strings.TrimSpace(fields[1])
		aud := strings.TrimSpace(fields[2])
		scope := strings.TrimSpace(fields[3])
		if err := e.AddRule(sub, aud, scope); err != nil {
			return err
		}
	}
	return nil
}

// Allow reports whether subject may be issued a token for audience with
// scope.
func (e *Engine) Allow(sub, aud, scope string) (bool, error) {
	ok, err := e.enforcer.Enforce(sub, aud, scope)
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeInternal, "policy evaluation")
	}
	if !ok {
		e.log.Debug().Str("sub", sub).Str("aud", aud).Str("scope", scope).Msg("issuance denied by policy")
	}
	return ok, nil
}
