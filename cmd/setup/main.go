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

package main

import (
	"context"
	"flag"
	"fmt"

	"smartcare-ledger-go/internal/common"
	"smartcare-ledger-go/internal/config"
	"smartcare-ledger-go/internal/models"

	"go.uber.org/zap"
)

// walletReconciler is implemented by the SQL stores, which keep balances and
// postings side by side.
type walletReconciler interface {
	ReconcileWallet(ctx context.Context, ownerId string) error
}

func printCatalog(services *common.Services) {
	common.PrintHeader("SERVICE CATALOG", common.DefaultWidth)
	entries := services.Catalog.Services()
	for i, svc := range entries {
		fmt.Printf("%s %-22s %s\n", common.BoxPrefix(i == len(entries)-1), svc.Name, models.FormatRupiah(svc.SuggestedPrice))
	}
	common.PrintSeparator("=", common.DefaultWidth)
}

// warmWallets loads every user's authoritative wallet into the cache and, when
// the store supports it, checks each balance against its postings.
func warmWallets(ctx context.Context, services *common.Services, reconcile bool) (warmed, mismatched int) {
	users, err := services.Records.GetUsers(ctx)
	if err != nil {
		zap.L().Fatal("Failed to read users from database", zap.Error(err))
	}

	reconciler, canReconcile := services.Balances.(walletReconciler)
	if reconcile && !canReconcile {
		zap.L().Warn("Balance backend has no posting reconciliation, skipping")
	}

	for _, user := range users {
		if _, err := services.Wallets.Resync(ctx, user.Id); err != nil {
			zap.L().Error("Failed to warm wallet", zap.String("user_id", user.Id), zap.Error(err))
			continue
		}
		warmed++

		if reconcile && canReconcile {
			if err := reconciler.ReconcileWallet(ctx, user.Id); err != nil {
				zap.L().Error("Wallet does not match its postings",
					zap.String("user_id", user.Id),
					zap.String("email", user.Email),
					zap.Error(err))
				mismatched++
			}
		}
	}
	return warmed, mismatched
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	reconcileFlag := flag.Bool("reconcile", false, "Check every wallet balance against its postings")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	// Opening the store creates the SQLite schema or runs the Postgres migrations.
	zap.L().Info("Initializing store", zap.String("backend", cfg.Backend))
	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	printCatalog(services)

	warmed, mismatched := warmWallets(ctx, services, *reconcileFlag)
	common.PrintFooter(fmt.Sprintf("SETUP COMPLETE: %d wallets cached, %d mismatches", warmed, mismatched), common.DefaultWidth)

	zap.L().Info("Setup complete",
		zap.Int("wallets_cached", warmed),
		zap.Int("mismatched", mismatched))
}
