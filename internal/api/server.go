/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package api

import (
	"context"
	"fmt"
	"net/http"

	"smartcare-ledger-go/internal/accounts"
	"smartcare-ledger-go/internal/catalog"
	"smartcare-ledger-go/internal/orders"
	"smartcare-ledger-go/internal/session"
	"smartcare-ledger-go/internal/topup"
	"smartcare-ledger-go/internal/wallet"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// HealthCheck probes one dependency.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// ServerConfig contains the services exposed over HTTP
type ServerConfig struct {
	Accounts     *accounts.Service
	Orders       *orders.Service
	TopUps       *topup.Service
	Wallets      *wallet.Service
	Catalog      *catalog.Catalog
	Sessions     *session.Issuer
	HealthChecks []HealthCheck
}

// Server is the customer-facing HTTP API.
type Server struct {
	accounts *accounts.Service
	orders   *orders.Service
	topUps   *topup.Service
	wallets  *wallet.Service
	catalog  *catalog.Catalog
	sessions *session.Issuer
	checks   []HealthCheck
}

func NewServer(cfg ServerConfig) *Server {
	if cfg.Catalog == nil {
		cfg.Catalog = catalog.Default()
	}
	return &Server{
		accounts: cfg.Accounts,
		orders:   cfg.Orders,
		topUps:   cfg.TopUps,
		wallets:  cfg.Wallets,
		catalog:  cfg.Catalog,
		sessions: cfg.Sessions,
		checks:   cfg.HealthChecks,
	}
}

// HealthCheck runs every configured dependency check.
func (s *Server) HealthCheck(ctx context.Context) error {
	for _, hc := range s.checks {
		if err := hc.Check(ctx); err != nil {
			return fmt.Errorf("%s health check failed: %w", hc.Name, err)
		}
	}
	return nil
}

// Router builds the chi router for all routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Get("/services", s.handleServices)

		r.Group(func(r chi.Router) {
			r.Use(s.sessions.Middleware(writeErr))

			r.Get("/profile", s.handleGetProfile)
			r.Put("/profile", s.handleUpdateProfile)
			r.Get("/dashboard", s.handleDashboard)

			r.Get("/wallet", s.handleWallet)
			r.Get("/wallet/postings", s.handlePostings)

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", s.handleListOrders)
				r.Post("/", s.handleCreateOrder)
				r.Get("/{orderId}", s.handleGetOrder)
				r.Post("/{orderId}/cancel", s.handleCancelOrder)
				r.Post("/{orderId}/reorder", s.handleReorder)
				r.Get("/{orderId}/invoice", s.handleInvoice)
			})

			r.Route("/topups", func(r chi.Router) {
				r.Get("/", s.handleListTopUps)
				r.Post("/", s.handleSubmitTopUp)
				r.Get("/{topUpId}", s.handleGetTopUp)
			})
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.HealthCheck(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
