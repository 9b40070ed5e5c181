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

type balanceStats struct {
	totalUsers   int
	totalSaldo   int64
	outOfSync    int
	resynced     int
	failedChecks int
}

func formatPostingId(postingId string) string {
	if postingId == "" {
		return "none"
	}
	if len(postingId) > 8 {
		return postingId[:8] + "..."
	}
	return postingId
}

func printWallet(label string, wallet *models.WalletAccount, isLast bool) {
	prefix := common.BoxPrefix(isLast)
	if wallet == nil {
		fmt.Printf("%s %-13s: %20s\n", prefix, label, "not cached")
		return
	}
	fmt.Printf("%s %-13s: %20s (v%d, last_posting: %s, updated: %s)\n",
		prefix,
		label,
		models.FormatRupiah(wallet.Balance),
		wallet.Version,
		formatPostingId(wallet.LastPostingId),
		wallet.UpdatedAt.Format("2006-01-02 15:04:05"))
}

func printPostings(postings []models.Posting) {
	for i, p := range postings {
		isLast := i == len(postings)-1
		fmt.Printf("%s %s %-7s %12s  %s -> %s  (%s)\n",
			common.BoxDetailPrefix(false)+common.BoxPrefix(isLast),
			p.CreatedAt.Format("2006-01-02 15:04"),
			p.Kind,
			models.FormatRupiah(p.SignedAmount()),
			models.FormatRupiah(p.BalanceBefore),
			models.FormatRupiah(p.BalanceAfter),
			p.IdempotencyKey)
	}
}

func printUserHeader(user common.UserInfo) {
	fmt.Printf("\n┌─ User: %s (%s)\n", user.Name, user.Email)
	fmt.Printf("│  ID: %s\n", user.Id)
	common.PrintBoxSeparator(78)
}

func processUser(ctx context.Context, services *common.Services, user common.UserInfo, resync bool, postingLimit int, stats *balanceStats) error {
	cached, authoritative, inSync, err := services.Wallets.Drift(ctx, user.Id)
	if err != nil {
		return fmt.Errorf("failed to compare wallet: %w", err)
	}

	printUserHeader(user)
	printWallet("authoritative", authoritative, false)
	printWallet("cached", cached, inSync || !resync)
	stats.totalSaldo += authoritative.Balance

	if !inSync {
		stats.outOfSync++
		if resync {
			wallet, err := services.Wallets.Resync(ctx, user.Id)
			if err != nil {
				return fmt.Errorf("failed to resync wallet: %w", err)
			}
			stats.resynced++
			printWallet("resynced", wallet, true)
		}
	}

	if postingLimit > 0 {
		postings, err := services.Wallets.Postings(ctx, user.Id, postingLimit, 0)
		if err != nil {
			return fmt.Errorf("failed to list postings: %w", err)
		}
		printPostings(postings)
	}
	return nil
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	emailFlag := flag.String("email", "", "Filter by specific user email (optional)")
	resyncFlag := flag.Bool("resync", false, "Overwrite cached wallets that differ from the authoritative store")
	postingsFlag := flag.Int("postings", 0, "Show this many recent postings per user")
	flag.Parse()

	logger.Info("Starting balance query")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	users, err := common.InitializeUsers(ctx, services.Records, *emailFlag, logger)
	if err != nil {
		logger.Fatal("Failed to initialize users", zap.Error(err))
	}

	common.PrintHeader("WALLET BALANCE REPORT", common.DefaultWidth)

	stats := balanceStats{}
	for _, user := range users {
		stats.totalUsers++
		if err := processUser(ctx, services, user, *resyncFlag, *postingsFlag, &stats); err != nil {
			stats.failedChecks++
			logger.Error("Failed to process user",
				zap.String("user_id", user.Id),
				zap.String("user_name", user.Name),
				zap.Error(err))
		}
	}

	summary := fmt.Sprintf("SUMMARY: %d users, total saldo %s, %d out of sync, %d resynced, %d failed",
		stats.totalUsers, models.FormatRupiah(stats.totalSaldo), stats.outOfSync, stats.resynced, stats.failedChecks)
	common.PrintFooter(summary, common.DefaultWidth)

	logger.Info("Balance query completed",
		zap.Int("users_queried", stats.totalUsers),
		zap.Int("out_of_sync", stats.outOfSync),
		zap.Int("resynced", stats.resynced))
}
