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

// Package history builds read-only views over order and top-up snapshots.
// Nothing here fetches or mutates records.
package history

import (
	"sort"
	"strings"

	"smartcare-ledger-go/internal/models"
)

// All selects every status.
const All = "all"

const (
	DashboardOrders = 3
	TopUpPageSize   = 5
)

// OrderFilter selects orders by status. The zero value selects all.
type OrderFilter struct {
	Status models.OrderStatus
}

func (f OrderFilter) matches(o models.Order) bool {
	return f.Status == "" || o.Status == f.Status
}

// TopUpFilter selects top-ups by status. The zero value selects all.
type TopUpFilter struct {
	Status models.TopUpStatus
}

func (f TopUpFilter) matches(t models.TopUpRequest) bool {
	return f.Status == "" || t.Status == f.Status
}

// ParseOrderFilter accepts "", "all" or an order status name.
func ParseOrderFilter(s string) (OrderFilter, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == All {
		return OrderFilter{}, nil
	}
	status := models.OrderStatus(s)
	if !status.Valid() {
		return OrderFilter{}, models.NewValidationError("status", "unknown order status %q", s)
	}
	return OrderFilter{Status: status}, nil
}

// ParseTopUpFilter accepts "", "all" or a top-up status name.
func ParseTopUpFilter(s string) (TopUpFilter, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == All {
		return TopUpFilter{}, nil
	}
	status := models.TopUpStatus(s)
	if !status.Valid() {
		return TopUpFilter{}, models.NewValidationError("status", "unknown top-up status %q", s)
	}
	return TopUpFilter{Status: status}, nil
}

// FilterOrders returns the matching orders, most recent first. Ties on
// RequestedAt are broken by id. The input slice is left untouched.
func FilterOrders(orders []models.Order, filter OrderFilter) []models.Order {
	out := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if filter.matches(o) {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.RequestedAt.Equal(b.RequestedAt) {
			return a.RequestedAt.After(b.RequestedAt)
		}
		return a.Id < b.Id
	})
	return out
}

// CountOrders returns a count for every known status, zeros included.
func CountOrders(orders []models.Order) map[models.OrderStatus]int {
	counts := make(map[models.OrderStatus]int, len(models.OrderStatuses))
	for _, status := range models.OrderStatuses {
		counts[status] = 0
	}
	for _, o := range orders {
		counts[o.Status]++
	}
	return counts
}

// FilterTopUps is FilterOrders for top-up requests, ordered by SubmittedAt.
func FilterTopUps(topUps []models.TopUpRequest, filter TopUpFilter) []models.TopUpRequest {
	out := make([]models.TopUpRequest, 0, len(topUps))
	for _, t := range topUps {
		if filter.matches(t) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.SubmittedAt.Equal(b.SubmittedAt) {
			return a.SubmittedAt.After(b.SubmittedAt)
		}
		return a.Id < b.Id
	})
	return out
}

func CountTopUps(topUps []models.TopUpRequest) map[models.TopUpStatus]int {
	counts := make(map[models.TopUpStatus]int, len(models.TopUpStatuses))
	for _, status := range models.TopUpStatuses {
		counts[status] = 0
	}
	for _, t := range topUps {
		counts[t.Status]++
	}
	return counts
}

// Recent returns the n most recent orders.
func Recent(orders []models.Order, n int) []models.Order {
	sorted := FilterOrders(orders, OrderFilter{})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// RecentTopUps returns the n most recent top-up requests.
func RecentTopUps(topUps []models.TopUpRequest, n int) []models.TopUpRequest {
	sorted := FilterTopUps(topUps, TopUpFilter{})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// Summary is the dashboard view for one customer.
type Summary struct {
	Balance      int64                      `json:"balance"`
	RecentOrders []models.Order             `json:"recent_orders"`
	OrderCounts  map[models.OrderStatus]int `json:"order_counts"`
	Active       int                        `json:"active_orders"`
}

// Summarize builds the dashboard from a wallet snapshot and the owner's orders.
func Summarize(wallet models.WalletAccount, orders []models.Order) Summary {
	counts := CountOrders(orders)
	active := 0
	for status, n := range counts {
		if !status.IsTerminal() {
			active += n
		}
	}
	return Summary{
		Balance:      wallet.Balance,
		RecentOrders: Recent(orders, DashboardOrders),
		OrderCounts:  counts,
		Active:       active,
	}
}
