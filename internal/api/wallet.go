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

	"smartcare-ledger-go/internal/models"
)

type postingsResponse struct {
	Postings []models.Posting `json:"postings"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

// handleWallet returns the cached balance snapshot.
func (s *Server) handleWallet(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.wallets.Snapshot(r.Context(), callerSession(r).OwnerId)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handlePostings(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)
	postings, err := s.wallets.Postings(r.Context(), callerSession(r).OwnerId, limit, offset)
	if err != nil {
		writeErr(w, err)
		return
	}
	if postings == nil {
		postings = []models.Posting{}
	}
	writeJSON(w, http.StatusOK, postingsResponse{Postings: postings, Limit: limit, Offset: offset})
}
