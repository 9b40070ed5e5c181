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

package common

import (
	"context"
	"fmt"
	"log"
	"strings"

	"smartcare-ledger-go/internal/accounts"
	"smartcare-ledger-go/internal/cache"
	"smartcare-ledger-go/internal/catalog"
	"smartcare-ledger-go/internal/database"
	"smartcare-ledger-go/internal/formance"
	"smartcare-ledger-go/internal/ledger"
	"smartcare-ledger-go/internal/models"
	"smartcare-ledger-go/internal/notify"
	"smartcare-ledger-go/internal/orders"
	"smartcare-ledger-go/internal/postgres"
	"smartcare-ledger-go/internal/store"
	"smartcare-ledger-go/internal/topup"
	"smartcare-ledger-go/internal/wallet"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can also be set via shell export, docker, etc.
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

// Pinger is implemented by every backend that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Check is one named dependency probe.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

type Services struct {
	Records    store.RecordStore
	Balances   store.BalanceStore
	Cache      cache.BalanceCache
	Ledger     *ledger.Reconciler
	Wallets    *wallet.Service
	Orders     *orders.Service
	TopUps     *topup.Service
	Accounts   *accounts.Service
	Catalog    *catalog.Catalog
	Dispatcher *notify.Dispatcher

	checks  []Check
	closers []func()
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeServices opens the configured backends and wires the ledger
// services on top of them. The notification dispatcher is started with ctx
// and drained by Close.
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	svcs := &Services{}

	records, err := openRecordStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	svcs.Records = records
	svcs.closers = append(svcs.closers, records.Close)
	svcs.addCheck(cfg.Backend, records)

	svcs.Balances, err = openBalanceStore(ctx, cfg, records, svcs)
	if err != nil {
		svcs.Close()
		return nil, err
	}

	svcs.Cache, err = openCache(ctx, cfg, svcs)
	if err != nil {
		svcs.Close()
		return nil, err
	}

	svcs.Catalog, err = catalog.LoadOrDefault(cfg.Catalog.Path)
	if err != nil {
		svcs.Close()
		return nil, err
	}

	svcs.Dispatcher = notify.NewDispatcher(notify.LogNotifier{}, cfg.Server.NotificationQueue)
	svcs.Dispatcher.Start(ctx)
	// Closers run in reverse, so the dispatcher drains before stores close.
	svcs.closers = append(svcs.closers, svcs.Dispatcher.Stop)

	svcs.Ledger = ledger.NewReconciler(svcs.Balances, svcs.Cache)
	svcs.Wallets = wallet.NewService(svcs.Balances, svcs.Cache)
	svcs.Orders = orders.NewService(orders.ServiceConfig{
		Records:  records,
		Ledger:   svcs.Ledger,
		Wallets:  svcs.Wallets,
		Notifier: svcs.Dispatcher,
		Catalog:  svcs.Catalog,
	})
	svcs.TopUps = topup.NewService(topup.ServiceConfig{
		Records:  records,
		Ledger:   svcs.Ledger,
		Notifier: svcs.Dispatcher,
	})
	svcs.Accounts = accounts.NewService(records, svcs.Wallets)

	zap.L().Info("Services initialized",
		zap.String("store_backend", cfg.Backend),
		zap.String("ledger_backend", cfg.Ledger.Backend),
		zap.Bool("redis_cache", cfg.Cache.RedisAddr != ""),
		zap.Int("catalog_services", len(svcs.Catalog.Services())))
	return svcs, nil
}

func openRecordStore(ctx context.Context, cfg *models.Config) (store.LedgerStore, error) {
	switch cfg.Backend {
	case models.BackendPostgres:
		pg, err := postgres.NewService(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		return pg, nil
	case models.BackendSQLite, "":
		db, err := database.NewService(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		return db, nil
	}
	return nil, fmt.Errorf("unsupported store backend %q", cfg.Backend)
}

func openBalanceStore(ctx context.Context, cfg *models.Config, records store.LedgerStore, svcs *Services) (store.BalanceStore, error) {
	switch cfg.Ledger.Backend {
	case models.LedgerBackendStore, "":
		return records, nil
	case models.LedgerBackendFormance:
		fs, err := formance.NewService(ctx, cfg.Ledger.Formance)
		if err != nil {
			return nil, err
		}
		svcs.addCheck("formance", fs)
		return fs, nil
	}
	return nil, fmt.Errorf("unsupported ledger backend %q", cfg.Ledger.Backend)
}

func openCache(ctx context.Context, cfg *models.Config, svcs *Services) (cache.BalanceCache, error) {
	if cfg.Cache.RedisAddr == "" {
		return cache.NewMemoryCache(), nil
	}
	client, err := cache.NewRedisClient(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}
	redisCache := cache.NewRedisCache(client, cfg.Cache.TTL)
	svcs.closers = append(svcs.closers, func() {
		if err := redisCache.Close(); err != nil {
			zap.L().Warn("Failed to close redis client", zap.Error(err))
		}
	})
	svcs.checks = append(svcs.checks, Check{Name: "redis", Ping: redisCache.HealthCheck})
	return redisCache, nil
}

func (cs *Services) addCheck(name string, backend any) {
	if p, ok := backend.(Pinger); ok {
		cs.checks = append(cs.checks, Check{Name: name, Ping: p.Ping})
	}
}

// Checks lists the dependency probes for the configured backends.
func (cs *Services) Checks() []Check {
	return append([]Check(nil), cs.checks...)
}

func (cs *Services) Close() {
	for i := len(cs.closers) - 1; i >= 0; i-- {
		cs.closers[i]()
	}
	cs.closers = nil
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
