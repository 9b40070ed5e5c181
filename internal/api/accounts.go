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
	"net/http"
	"time"

	"smartcare-ledger-go/internal/accounts"
	"smartcare-ledger-go/internal/catalog"
	"smartcare-ledger-go/internal/history"
	"smartcare-ledger-go/internal/models"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req accounts.Registration
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	user, err := s.accounts.Register(r.Context(), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	user, err := s.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeErr(w, err)
		return
	}
	token, expiresAt, err := s.sessions.Issue(*user)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expiresAt, User: *user})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.accounts.Profile(r.Context(), callerSession(r).OwnerId)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req accounts.ProfileUpdate
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	profile, err := s.accounts.UpdateProfile(r.Context(), callerSession(r).OwnerId, req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleServices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]catalog.Service{"services": s.catalog.Services()})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ownerId := callerSession(r).OwnerId
	snapshot, err := s.wallets.Snapshot(r.Context(), ownerId)
	if err != nil {
		writeErr(w, err)
		return
	}
	orders, err := s.orders.List(r.Context(), ownerId, history.OrderFilter{})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history.Summarize(*snapshot, orders))
}
