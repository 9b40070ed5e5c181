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
	"errors"
	"flag"
	"fmt"

	"smartcare-ledger-go/internal/common"
	"smartcare-ledger-go/internal/config"
	"smartcare-ledger-go/internal/history"
	"smartcare-ledger-go/internal/models"

	"go.uber.org/zap"
)

type topUpAction struct {
	list    bool
	status  string
	limit   int
	confirm string
	reject  string
}

func parseAndValidateFlags() (*topUpAction, error) {
	listFlag := flag.Bool("list", false, "List top-up requests")
	statusFlag := flag.String("status", string(models.TopUpSubmitted), "Status filter for -list (submitted, confirmed, rejected, all)")
	limitFlag := flag.Int("limit", 50, "Maximum requests shown by -list")
	confirmFlag := flag.String("confirm", "", "Confirm the top-up request with this ID")
	rejectFlag := flag.String("reject", "", "Reject the top-up request with this ID")
	flag.Parse()

	actions := 0
	for _, set := range []bool{*listFlag, *confirmFlag != "", *rejectFlag != ""} {
		if set {
			actions++
		}
	}
	if actions != 1 {
		return nil, fmt.Errorf("exactly one of --list, --confirm or --reject is required")
	}

	return &topUpAction{
		list:    *listFlag,
		status:  *statusFlag,
		limit:   *limitFlag,
		confirm: *confirmFlag,
		reject:  *rejectFlag,
	}, nil
}

func printTopUps(ctx context.Context, services *common.Services, status string, limit int) error {
	filter, err := history.ParseTopUpFilter(status)
	if err != nil {
		return err
	}
	topUps, err := services.TopUps.ListAll(ctx, filter, limit)
	if err != nil {
		return err
	}

	common.PrintHeader(fmt.Sprintf("TOP-UP REQUESTS (%s)", status), common.WideWidth)
	for i, t := range topUps {
		isLast := i == len(topUps)-1
		fmt.Printf("%s %s  %-9s %14s  via %-10s  owner %s  submitted %s\n",
			common.BoxPrefix(isLast),
			t.Id,
			t.Status,
			models.FormatRupiah(t.Amount),
			t.ContactChannel,
			t.OwnerId,
			common.FormatTimestamp(t.SubmittedAt))
	}
	common.PrintFooter(fmt.Sprintf("%d requests", len(topUps)), common.WideWidth)
	return nil
}

func printResolution(topUp *models.TopUpRequest, wallet *models.WalletAccount) {
	fields := []common.Field{
		{Label: "ID", Value: topUp.Id},
		{Label: "Owner", Value: topUp.OwnerId},
		{Label: "Amount", Value: models.FormatRupiah(topUp.Amount)},
		{Label: "Status", Value: string(topUp.Status)},
	}
	if wallet != nil {
		fields = append(fields, common.Field{Label: "Saldo", Value: models.FormatRupiah(wallet.Balance)})
	}
	common.PrintCard("TOP-UP RESOLVED", fields...)
}

func resolve(ctx context.Context, services *common.Services, action *topUpAction) error {
	var (
		topUp *models.TopUpRequest
		err   error
	)
	if action.confirm != "" {
		topUp, err = services.TopUps.Confirm(ctx, action.confirm)
	} else {
		topUp, err = services.TopUps.Reject(ctx, action.reject)
	}
	if errors.Is(err, models.ErrAlreadyResolved) {
		zap.L().Warn("Top-up was already resolved", zap.Error(err))
		if topUp == nil {
			return nil
		}
	} else if err != nil {
		return err
	}

	wallet, werr := services.Wallets.Snapshot(ctx, topUp.OwnerId)
	if werr != nil {
		zap.L().Warn("Unable to read wallet after resolution", zap.String("owner_id", topUp.OwnerId), zap.Error(werr))
	}
	printResolution(topUp, wallet)
	return nil
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	action, err := parseAndValidateFlags()
	if err != nil {
		zap.L().Fatal("Invalid arguments", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	if action.list {
		err = printTopUps(ctx, services, action.status, action.limit)
	} else {
		err = resolve(ctx, services, action)
	}
	if err != nil {
		zap.L().Error("Top-up command failed", zap.Error(err))
		fmt.Printf("✗ %v\n", err)
	}
}
