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

package session

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"smartcare-ledger-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIssuer(t *testing.T) *Issuer {
	t.Helper()
	issuer, err := NewIssuer(models.SessionConfig{Secret: "test-secret", TTL: time.Hour})
	require.NoError(t, err)
	return issuer
}

func TestIssueAndParse(t *testing.T) {
	issuer := newIssuer(t)

	token, expiresAt, err := issuer.Issue(models.User{Id: "user-1", Email: "a@example.com", Role: models.RoleCustomer})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "a@example.com", claims.Email)
}

func TestParse_Rejects(t *testing.T) {
	issuer := newIssuer(t)
	token, _, err := issuer.Issue(models.User{Id: "user-1"})
	require.NoError(t, err)

	other, err := NewIssuer(models.SessionConfig{Secret: "other-secret", TTL: time.Hour})
	require.NoError(t, err)
	_, err = other.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	issuer.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "expired")

	_, err = issuer.Parse("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewIssuer_Validation(t *testing.T) {
	_, err := NewIssuer(models.SessionConfig{TTL: time.Hour})
	assert.Error(t, err)
	_, err = NewIssuer(models.SessionConfig{Secret: "s"})
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	issuer := newIssuer(t)
	token, _, err := issuer.Issue(models.User{Id: "user-9"})
	require.NoError(t, err)

	var seen string
	handler := issuer.Middleware(func(w http.ResponseWriter, err error) {
		status := http.StatusUnauthorized
		if errors.Is(err, ErrMissingToken) {
			status = http.StatusForbidden
		}
		w.WriteHeader(status)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = models.OwnerIdFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "user-9", seen)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
