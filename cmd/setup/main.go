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

	"tikflow-ledger-go/internal/catalog"
	"tikflow-ledger-go/internal/common"
	"tikflow-ledger-go/internal/config"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func seedPackages(ctx context.Context, services *common.Services, settings *common.Settings) {
	existing, err := services.Catalog.List(ctx, false)
	if err != nil {
		zap.L().Fatal("Failed to list packages", zap.Error(err))
	}

	known := make(map[string]struct{}, len(existing))
	for _, pkg := range existing {
		known[pkg.Name] = struct{}{}
	}

	var created, skipped int
	for _, seed := range settings.Packages {
		if _, ok := known[seed.Name]; ok {
			skipped++
			continue
		}

		price, err := decimal.NewFromString(seed.Price)
		if err != nil {
			zap.L().Fatal("Invalid package price",
				zap.String("name", seed.Name),
				zap.String("price", seed.Price),
				zap.Error(err))
		}

		id, err := services.Catalog.Create(ctx, seed.Name, seed.Coins, price)
		if err != nil {
			zap.L().Fatal("Failed to create package",
				zap.String("name", seed.Name),
				zap.Error(err))
		}

		zap.L().Info("Created package",
			zap.String("id", id),
			zap.String("name", seed.Name),
			zap.Int64("coins", seed.Coins),
			zap.String("price", price.String()))
		created++
	}

	zap.L().Info("Package seeding completed",
		zap.Int("created", created),
		zap.Int("skipped", skipped))
}

func printCatalog(ctx context.Context, cat *catalog.Service) {
	packages, err := cat.List(ctx, false)
	if err != nil {
		zap.L().Fatal("Failed to list packages", zap.Error(err))
	}

	common.PrintHeader("COIN PACKAGE CATALOG", common.DefaultWidth)
	for i, pkg := range packages {
		status := "active"
		if !pkg.Active {
			status = "inactive"
		}
		fmt.Printf("%s %-20s: %8d coins at %10s FCFA (%s)\n",
			common.BoxPrefix(i == len(packages)-1),
			pkg.Name,
			pkg.Coins,
			pkg.Price.String(),
			status)
	}
	common.PrintFooter(fmt.Sprintf("SUMMARY: %d packages in catalog", len(packages)), common.DefaultWidth)
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	seedFlag := flag.Bool("seed", true, "Seed coin packages from the settings file")
	flag.Parse()

	logger.Info("Starting database setup")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	logger.Info("Database schema ready", zap.String("path", cfg.Database.Path))

	if *seedFlag {
		settings, err := common.LoadSettings(cfg.Settings.File)
		if err != nil {
			logger.Warn("Settings file not loaded, seeding defaults",
				zap.String("file", cfg.Settings.File),
				zap.Error(err))
			settings = common.DefaultSettings()
		}
		seedPackages(ctx, services, settings)
	}

	printCatalog(ctx, services.Catalog)

	logger.Info("Setup complete")
}
