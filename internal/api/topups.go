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

	"smartcare-ledger-go/internal/history"
	"smartcare-ledger-go/internal/models"
	"smartcare-ledger-go/internal/topup"

	"github.com/go-chi/chi/v5"
)

type submitTopUpRequest struct {
	Amount         int64  `json:"amount"`
	ContactChannel string `json:"contact_channel"`
}

type topUpListResponse struct {
	TopUps       []models.TopUpRequest      `json:"topups"`
	Counts       map[models.TopUpStatus]int `json:"counts"`
	QuickAmounts []int64                    `json:"quick_amounts"`
}

func (s *Server) handleSubmitTopUp(w http.ResponseWriter, r *http.Request) {
	var req submitTopUpRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	topUp, err := s.topUps.Submit(r.Context(), callerSession(r).OwnerId, req.Amount, req.ContactChannel)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, topUp)
}

// handleListTopUps returns the latest requests for ?status=, five by default.
func (s *Server) handleListTopUps(w http.ResponseWriter, r *http.Request) {
	filter, err := history.ParseTopUpFilter(r.URL.Query().Get("status"))
	if err != nil {
		writeErr(w, err)
		return
	}
	all, err := s.topUps.List(r.Context(), callerSession(r).OwnerId, history.TopUpFilter{})
	if err != nil {
		writeErr(w, err)
		return
	}

	filtered := history.FilterTopUps(all, filter)
	if limit := queryInt(r, "limit", history.TopUpPageSize); limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}
	writeJSON(w, http.StatusOK, topUpListResponse{
		TopUps:       filtered,
		Counts:       history.CountTopUps(all),
		QuickAmounts: topup.QuickAmounts,
	})
}

func (s *Server) handleGetTopUp(w http.ResponseWriter, r *http.Request) {
	topUp, err := s.topUps.GetForOwner(r.Context(), callerSession(r).OwnerId, chi.URLParam(r, "topUpId"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, topUp)
}
