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

	"smartcare-ledger-go/internal/accounts"
	"smartcare-ledger-go/internal/common"
	"smartcare-ledger-go/internal/config"
	"smartcare-ledger-go/internal/models"

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	nameFlag := flag.String("name", "", "Customer's full name (required)")
	emailFlag := flag.String("email", "", "Customer's email address (required)")
	passwordFlag := flag.String("password", "", "Login password (required)")
	addressFlag := flag.String("address", "", "Default service address (required)")
	phoneFlag := flag.String("phone", "", "Contact phone number (required)")
	flag.Parse()

	zap.L().Info("Starting user creation process",
		zap.String("name", *nameFlag),
		zap.String("email", *emailFlag))

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	user, err := services.Accounts.Register(ctx, accounts.Registration{
		Name:     *nameFlag,
		Email:    *emailFlag,
		Password: *passwordFlag,
		Address:  *addressFlag,
		Phone:    *phoneFlag,
	})
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			zap.L().Fatal("Invalid customer details", zap.String("field", verr.Field), zap.Error(err))
		}
		zap.L().Fatal("Failed to create user", zap.Error(err))
	}

	wallet, err := services.Wallets.Snapshot(ctx, user.Id)
	if err != nil {
		zap.L().Fatal("User created but wallet is unreadable", zap.String("id", user.Id), zap.Error(err))
	}

	common.PrintCard("USER CREATED",
		common.Field{Label: "ID", Value: user.Id},
		common.Field{Label: "Name", Value: user.Name},
		common.Field{Label: "Email", Value: user.Email},
		common.Field{Label: "Address", Value: user.Address},
		common.Field{Label: "Phone", Value: user.Phone},
		common.Field{Label: "Saldo", Value: models.FormatRupiah(wallet.Balance)},
	)

	zap.L().Info("User created successfully", zap.String("id", user.Id))
}
