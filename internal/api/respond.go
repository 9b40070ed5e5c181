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
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"smartcare-ledger-go/internal/ledger"
	"smartcare-ledger-go/internal/models"
	"smartcare-ledger-go/internal/session"
	"smartcare-ledger-go/internal/store"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	Field     string `json:"field,omitempty"`
	Shortfall int64  `json:"shortfall,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Warn("Failed to write response", zap.Error(err))
	}
}

// writeErr maps an error kind to a status code and a plain message.
func writeErr(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}
	status := http.StatusInternalServerError

	var ve *models.ValidationError
	var ibe *models.InsufficientBalanceError
	switch {
	case errors.As(err, &ve):
		status, resp.Kind, resp.Field = http.StatusBadRequest, "validation", ve.Field
	case errors.As(err, &ibe):
		status, resp.Kind, resp.Shortfall = http.StatusUnprocessableEntity, "insufficient_balance", ibe.Shortfall
	case errors.Is(err, models.ErrInvalidTransition):
		status, resp.Kind = http.StatusConflict, "invalid_transition"
	case errors.Is(err, models.ErrAlreadyResolved):
		status, resp.Kind = http.StatusConflict, "already_resolved"
	case errors.Is(err, models.ErrInvalidCredentials),
		errors.Is(err, session.ErrMissingToken),
		errors.Is(err, session.ErrInvalidToken):
		status, resp.Kind = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, store.ErrOrderNotFound),
		errors.Is(err, store.ErrTopUpNotFound),
		errors.Is(err, store.ErrInvoiceNotFound),
		errors.Is(err, store.ErrUserNotFound):
		status, resp.Kind = http.StatusNotFound, "not_found"
	case errors.Is(err, models.ErrStoreUnavailable):
		status, resp.Kind = http.StatusServiceUnavailable, "store_unavailable"
		resp.Error = "service temporarily unavailable, please retry"
	case errors.Is(err, ledger.ErrIdempotencyKeyReused):
		status, resp.Kind = http.StatusConflict, "conflict"
	default:
		resp.Kind, resp.Error = "internal", "internal error"
	}

	if status >= http.StatusInternalServerError {
		zap.L().Error("Request failed", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, resp)
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return models.NewValidationError("", "invalid json body: %v", err)
	}
	return nil
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

// callerSession is the explicit caller context handed to core calls.
func callerSession(r *http.Request) models.Session {
	return models.Session{OwnerId: models.OwnerIdFromContext(r.Context())}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("HTTP request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)))
	})
}
