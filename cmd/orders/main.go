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

type orderAction struct {
	list     bool
	status   string
	limit    int
	accept   string
	partner  string
	start    string
	complete string
	cancel   string
}

func parseAndValidateFlags() (*orderAction, error) {
	listFlag := flag.Bool("list", false, "List orders")
	statusFlag := flag.String("status", history.All, "Status filter for -list")
	limitFlag := flag.Int("limit", 50, "Maximum orders shown by -list")
	acceptFlag := flag.String("accept", "", "Accept the order with this ID (requires --partner)")
	partnerFlag := flag.String("partner", "", "Partner taking the order")
	startFlag := flag.String("start", "", "Start the order with this ID")
	completeFlag := flag.String("complete", "", "Complete the order with this ID")
	cancelFlag := flag.String("cancel", "", "Cancel the order with this ID")
	flag.Parse()

	actions := 0
	for _, set := range []bool{*listFlag, *acceptFlag != "", *startFlag != "", *completeFlag != "", *cancelFlag != ""} {
		if set {
			actions++
		}
	}
	if actions != 1 {
		return nil, fmt.Errorf("exactly one of --list, --accept, --start, --complete or --cancel is required")
	}
	if *acceptFlag != "" && *partnerFlag == "" {
		return nil, fmt.Errorf("--accept requires --partner")
	}

	return &orderAction{
		list:     *listFlag,
		status:   *statusFlag,
		limit:    *limitFlag,
		accept:   *acceptFlag,
		partner:  *partnerFlag,
		start:    *startFlag,
		complete: *completeFlag,
		cancel:   *cancelFlag,
	}, nil
}

func printOrders(ctx context.Context, services *common.Services, status string, limit int) error {
	filter, err := history.ParseOrderFilter(status)
	if err != nil {
		return err
	}
	orders, err := services.Orders.ListAll(ctx, filter, limit)
	if err != nil {
		return err
	}

	common.PrintHeader(fmt.Sprintf("ORDERS (%s)", status), common.WideWidth)
	for i, o := range orders {
		isLast := i == len(orders)-1
		fmt.Printf("%s %s  %-19s %-22s %14s  %-5s  owner %s\n",
			common.BoxPrefix(isLast),
			o.Id,
			o.Status,
			o.ServiceName(),
			models.FormatRupiah(o.Price),
			o.PaymentMethod,
			o.OwnerId)
		fmt.Printf("%s   %s, requested %s\n",
			common.BoxDetailPrefix(isLast),
			o.ServiceAddress,
			common.FormatTimestamp(o.RequestedAt))
	}
	common.PrintFooter(fmt.Sprintf("%d orders", len(orders)), common.WideWidth)
	return nil
}

func printOrder(title string, order *models.Order) {
	fields := []common.Field{
		{Label: "ID", Value: order.Id},
		{Label: "Service", Value: order.Description},
		{Label: "Price", Value: fmt.Sprintf("%s (%s)", models.FormatRupiah(order.Price), order.PaymentMethod)},
		{Label: "Status", Value: string(order.Status)},
		{Label: "Partner", Value: order.AssignedPartnerId},
	}
	if order.StartedAt != nil {
		fields = append(fields, common.Field{Label: "Started", Value: common.FormatTimestamp(*order.StartedAt)})
	}
	if order.CompletedAt != nil {
		fields = append(fields, common.Field{Label: "Completed", Value: common.FormatTimestamp(*order.CompletedAt)})
	}
	common.PrintCard(title, fields...)
}

func transition(ctx context.Context, services *common.Services, action *orderAction) (*models.Order, error) {
	switch {
	case action.accept != "":
		return services.Orders.Accept(ctx, action.accept, action.partner)
	case action.start != "":
		return services.Orders.Start(ctx, action.start)
	case action.complete != "":
		return services.Orders.Complete(ctx, action.complete)
	default:
		return services.Orders.Cancel(ctx, action.cancel)
	}
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
		if err := printOrders(ctx, services, action.status, action.limit); err != nil {
			zap.L().Error("Failed to list orders", zap.Error(err))
			fmt.Printf("✗ %v\n", err)
		}
		return
	}

	order, err := transition(ctx, services, action)
	if err != nil {
		var terr *models.TransitionError
		if errors.As(err, &terr) {
			zap.L().Warn("Order is not in a state that allows this action", zap.Error(err))
		} else {
			zap.L().Error("Order command failed", zap.Error(err))
		}
		fmt.Printf("✗ %v\n", err)
		return
	}

	if order.Status == models.OrderCompletedUnsettled {
		printOrder("ORDER COMPLETED, SALDO NOT SETTLED", order)
		return
	}
	printOrder("ORDER UPDATED", order)
}
