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

package history

import (
	"testing"
	"time"

	"smartcare-ledger-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

func order(id string, status models.OrderStatus, minutes int) models.Order {
	return models.Order{Id: id, Status: status, RequestedAt: base.Add(time.Duration(minutes) * time.Minute)}
}

func ids(orders []models.Order) []string {
	out := make([]string, len(orders))
	for i, o := range orders {
		out[i] = o.Id
	}
	return out
}

func TestFilterOrders_OrderingAndTies(t *testing.T) {
	orders := []models.Order{
		order("b", models.OrderPending, 10),
		order("a", models.OrderCompleted, 30),
		order("d", models.OrderPending, 10),
		order("c", models.OrderCancelled, 20),
		order("a2", models.OrderPending, 10),
	}
	snapshot := append([]models.Order(nil), orders...)

	got := FilterOrders(orders, OrderFilter{})
	assert.Equal(t, []string{"a", "c", "a2", "b", "d"}, ids(got))
	assert.Equal(t, snapshot, orders, "input must not be reordered")

	pending := FilterOrders(orders, OrderFilter{Status: models.OrderPending})
	assert.Equal(t, []string{"a2", "b", "d"}, ids(pending))
}

func TestFilterOrders_Empty(t *testing.T) {
	assert.Empty(t, FilterOrders(nil, OrderFilter{}))
	assert.Empty(t, FilterOrders([]models.Order{order("x", models.OrderPending, 0)}, OrderFilter{Status: models.OrderCompleted}))
}

func TestCountOrders(t *testing.T) {
	counts := CountOrders([]models.Order{
		order("1", models.OrderPending, 0),
		order("2", models.OrderPending, 1),
		order("3", models.OrderCompletedUnsettled, 2),
	})

	assert.Equal(t, 2, counts[models.OrderPending])
	assert.Equal(t, 1, counts[models.OrderCompletedUnsettled])
	assert.Equal(t, 0, counts[models.OrderCancelled])
	assert.Len(t, counts, len(models.OrderStatuses))
}

func TestParseFilters(t *testing.T) {
	f, err := ParseOrderFilter("ALL")
	require.NoError(t, err)
	assert.Equal(t, OrderFilter{}, f)

	f, err = ParseOrderFilter("in_progress")
	require.NoError(t, err)
	assert.Equal(t, models.OrderInProgress, f.Status)

	_, err = ParseOrderFilter("shipped")
	assert.ErrorIs(t, err, models.ErrValidation)

	tf, err := ParseTopUpFilter("")
	require.NoError(t, err)
	assert.Equal(t, TopUpFilter{}, tf)

	tf, err = ParseTopUpFilter("confirmed")
	require.NoError(t, err)
	assert.Equal(t, models.TopUpConfirmed, tf.Status)

	_, err = ParseTopUpFilter("refunded")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestFilterTopUps(t *testing.T) {
	topUps := []models.TopUpRequest{
		{Id: "t1", Status: models.TopUpSubmitted, SubmittedAt: base},
		{Id: "t3", Status: models.TopUpConfirmed, SubmittedAt: base.Add(time.Hour)},
		{Id: "t2", Status: models.TopUpSubmitted, SubmittedAt: base.Add(time.Hour)},
	}

	got := FilterTopUps(topUps, TopUpFilter{})
	require.Len(t, got, 3)
	assert.Equal(t, "t2", got[0].Id)
	assert.Equal(t, "t3", got[1].Id)
	assert.Equal(t, "t1", got[2].Id)

	counts := CountTopUps(topUps)
	assert.Equal(t, 2, counts[models.TopUpSubmitted])
	assert.Equal(t, 1, counts[models.TopUpConfirmed])
	assert.Equal(t, 0, counts[models.TopUpRejected])
}

func TestRecentAndSummary(t *testing.T) {
	orders := []models.Order{
		order("1", models.OrderCompleted, 1),
		order("2", models.OrderPending, 2),
		order("3", models.OrderAccepted, 3),
		order("4", models.OrderCancelled, 4),
	}

	assert.Equal(t, []string{"4", "3", "2"}, ids(Recent(orders, DashboardOrders)))
	assert.Len(t, Recent(orders, 10), 4)

	summary := Summarize(models.WalletAccount{OwnerId: "u", Balance: 75_000}, orders)
	assert.Equal(t, int64(75_000), summary.Balance)
	assert.Equal(t, 2, summary.Active)
	assert.Len(t, summary.RecentOrders, DashboardOrders)

	topUps := make([]models.TopUpRequest, 7)
	for i := range topUps {
		topUps[i] = models.TopUpRequest{Id: string(rune('a' + i)), SubmittedAt: base.Add(time.Duration(i) * time.Minute)}
	}
	recent := RecentTopUps(topUps, TopUpPageSize)
	require.Len(t, recent, TopUpPageSize)
	assert.Equal(t, "g", recent[0].Id)
}
