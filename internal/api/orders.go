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

	"smartcare-ledger-go/internal/history"
	"smartcare-ledger-go/internal/models"

	"github.com/go-chi/chi/v5"
)

type createOrderRequest struct {
	Service        string     `json:"service"`
	Notes          string     `json:"notes"`
	ServiceAddress string     `json:"service_address"`
	Price          int64      `json:"price"`
	PaymentMethod  string     `json:"payment_method"`
	ScheduledAt    *time.Time `json:"scheduled_at,omitempty"`
}

type reorderRequest struct {
	PaymentMethod string `json:"payment_method"`
}

type orderListResponse struct {
	Orders []models.Order             `json:"orders"`
	Counts map[models.OrderStatus]int `json:"counts"`
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	method, err := models.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		writeErr(w, err)
		return
	}

	order, err := s.orders.Create(r.Context(), callerSession(r), models.OrderDraft{
		Description:    models.ComposeDescription(req.Service, req.Notes),
		ServiceAddress: req.ServiceAddress,
		Price:          req.Price,
		PaymentMethod:  method,
		ScheduledAt:    req.ScheduledAt,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// handleListOrders returns the caller's orders for ?status= along with counts
// over all of their orders.
func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	filter, err := history.ParseOrderFilter(r.URL.Query().Get("status"))
	if err != nil {
		writeErr(w, err)
		return
	}
	all, err := s.orders.List(r.Context(), callerSession(r).OwnerId, history.OrderFilter{})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orderListResponse{
		Orders: history.FilterOrders(all, filter),
		Counts: history.CountOrders(all),
	})
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := s.orders.GetForOwner(r.Context(), callerSession(r).OwnerId, chi.URLParam(r, "orderId"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	order, err := s.orders.GetForOwner(r.Context(), callerSession(r).OwnerId, chi.URLParam(r, "orderId"))
	if err != nil {
		writeErr(w, err)
		return
	}
	cancelled, err := s.orders.Cancel(r.Context(), order.Id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cancelled)
}

func (s *Server) handleReorder(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	method, err := models.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		writeErr(w, err)
		return
	}
	order, err := s.orders.Reorder(r.Context(), callerSession(r), chi.URLParam(r, "orderId"), method)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (s *Server) handleInvoice(w http.ResponseWriter, r *http.Request) {
	order, err := s.orders.GetForOwner(r.Context(), callerSession(r).OwnerId, chi.URLParam(r, "orderId"))
	if err != nil {
		writeErr(w, err)
		return
	}
	invoice, err := s.orders.Invoice(r.Context(), order.Id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invoice)
}
