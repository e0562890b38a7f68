// Copyright © 2025 Signet Contributors
//
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	openchamilog "github.com/openchami/chi-middleware/log"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/signetauth/signet/middleware"
	"github.com/signetauth/signet/pkg/blocklist"
	"github.com/signetauth/signet/pkg/errors"
	"github.com/signetauth/signet/pkg/jwk"
	"github.com/signetauth/signet/pkg/jwt"
	"github.com/signetauth/signet/pkg/logging"
	"github.com/signetauth/signet/pkg/policy"
)

var (
	serveAddr       string
	serveIssuer     string
	serveDuration   int64
	serveSkew       int64
	servePolicyPath string
	serveRedisAddr  string
	serveBlockBound int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the token issuance service",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logging.Component("serve")

		keys, err := loadKeys(keyPath, "sig", alg, kid)
		if err != nil {
			return err
		}
		defer destroyKeys(keys)

		key, err := keyByID(keys, kid)
		if err != nil {
			return err
		}
		log = logging.WithKey(log, alg, key.Kid())
		factory, closeFactory, err := newTokenFactory(keys, key, alg, true)
		if err != nil {
			return err
		}
		defer closeFactory()

		if err := factory.SetIssuer(serveIssuer); err != nil {
			return err
		}
		if err := factory.SetDuration(serveDuration); err != nil {
			return err
		}
		if err := factory.SetDefaultSkew(serveSkew); err != nil {
			return err
		}
		factory.Lock()

		engine, err := newPolicyEngine(log)
		if err != nil {
			return err
		}
		store, err := newBlocklist()
		if err != nil {
			return err
		}

		srv := &server{
			factory:   factory,
			engine:    engine,
			blocklist: store,
			keys:      keys,
			log:       log,
		}
		return srv.run(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	serveCmd.Flags().StringVar(&serveIssuer, "issuer", "https://signet.local", "Issuer stamped into minted tokens")
	serveCmd.Flags().Int64Var(&serveDuration, "duration", 3600, "Token lifetime in seconds")
	serveCmd.Flags().Int64Var(&serveSkew, "skew", 30, "Clock skew tolerance in seconds")
	serveCmd.Flags().StringVar(&servePolicyPath, "policy", "", "Path to issuance policy CSV")
	serveCmd.Flags().StringVar(&serveRedisAddr, "redis", "", "Redis address for the revocation blocklist")
	serveCmd.Flags().IntVar(&serveBlockBound, "blocklist-size", 65536, "In-memory blocklist bound when Redis is not used")

	rootCmd.AddCommand(serveCmd)
}

func newPolicyEngine(log zerolog.Logger) (*policy.Engine, error) {
	engine, err := policy.NewEngine()
	if err != nil {
		return nil, err
	}
	if servePolicyPath == "" {
		log.Warn().Msg("no policy file given, allowing all issuance requests")
		if err := engine.AddRule("*", "*", "*"); err != nil {
			return nil, err
		}
		return engine, nil
	}
	text, err := os.ReadFile(servePolicyPath)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	if err := engine.LoadCSV(string(text)); err != nil {
		return nil, err
	}
	return engine, nil
}

func newBlocklist() (blocklist.Store, error) {
	if serveRedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: serveRedisAddr})
		return blocklist.NewRedis(client), nil
	}
	return blocklist.NewMemory(serveBlockBound)
}

type server struct {
	factory   *jwt.Factory
	engine    *policy.Engine
	blocklist blocklist.Store
	keys      []*jwk.Key
	log       zerolog.Logger
}

func (s *server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(openchamilog.OpenCHAMILogger(s.log))
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/.well-known", func(r chi.Router) {
		r.Get("/jwks.json", s.handleJWKS)
	})
	r.Post("/token", s.handleToken)
	r.Post("/introspect", s.handleIntrospect)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireToken(s.factory, &middleware.Options{
			Blocklist: s.blocklist,
			Logger:    &s.log,
		}))
		r.Post("/revoke", s.handleRevoke)
	})
	return r
}

func (s *server) run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpSrv := &http.Server{
		Addr:         serveAddr,
		Handler:      s.router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", serveAddr).Msg("listening")
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

type tokenRequest struct {
	Subject  string            `json:"subject"`
	Audience string            `json:"audience"`
	Scope    string            `json:"scope"`
	Claims   map[string]string `json:"claims,omitempty"`
}

func (s *server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return
	}
	if req.Subject == "" || req.Audience == "" || req.Scope == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "subject, audience and scope are required"})
		return
	}

	allowed, err := s.engine.Allow(req.Subject, req.Audience, req.Scope)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !allowed {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "issuance denied by policy"})
		return
	}

	claims := jwt.NewClaims()
	defer claims.Destroy()
	if err := claims.SetSubject(req.Subject); err != nil {
		s.writeError(w, err)
		return
	}
	if err := claims.AddAudience(req.Audience); err != nil {
		s.writeError(w, err)
		return
	}
	if err := claims.SetString("scope", req.Scope); err != nil {
		s.writeError(w, err)
		return
	}
	for name, value := range req.Claims {
		if err := claims.SetString(name, value); err != nil {
			s.writeError(w, err)
			return
		}
	}

	token, err := s.factory.Sign(claims)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "Bearer",
	})
}

type introspectRequest struct {
	Token string `json:"token"`
}

func (s *server) handleIntrospect(w http.ResponseWriter, r *http.Request) {
	var req introspectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "token is required"})
		return
	}

	claims, err := s.factory.DecodeNow(req.Token)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"active": false,
			"error":  string(errors.GetErrorCode(err)),
		})
		return
	}
	defer claims.Destroy()

	if revoked, err := s.isRevoked(r.Context(), claims); err != nil {
		s.writeError(w, err)
		return
	} else if revoked {
		writeJSON(w, http.StatusOK, map[string]any{"active": false, "error": "revoked"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"active": true,
		"claims": json.RawMessage(claims.Serialize()),
	})
}

func (s *server) isRevoked(ctx context.Context, claims *jwt.Claims) (bool, error) {
	jti, err := claims.ID()
	if err != nil {
		return false, nil
	}
	return s.blocklist.IsRevoked(ctx, jti)
}

// handleRevoke revokes the token that authenticated the request. The
// revocation is held until the token would have expired anyway.
func (s *server) handleRevoke(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "no claims in context"})
		return
	}
	jti, err := claims.ID()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "token carries no jti"})
		return
	}
	ttl := middleware.RevocationTTL(claims, time.Now(), time.Duration(serveDuration)*time.Second)
	if err := s.blocklist.Revoke(r.Context(), jti, ttl); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"revoked": jti})
}

func (s *server) handleJWKS(w http.ResponseWriter, _ *http.Request) {
	set := make([]json.RawMessage, 0, len(s.keys))
	for _, k := range s.keys {
		pub, err := k.ToPublic()
		if err != nil {
			// oct keys have no public form to publish
			continue
		}
		set = append(set, json.RawMessage(pub.Serialize()))
		pub.Destroy()
	}
	writeJSON(w, http.StatusOK, map[string]any{"keys": set})
}

func (s *server) writeError(w http.ResponseWriter, err error) {
	status := errors.GetHTTPStatus(err)
	s.log.Error().Err(err).Int("status", status).Msg("request failed")
	writeJSON(w, status, map[string]string{"error": string(errors.GetErrorCode(err))})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
