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

	"tikflow-ledger-go/internal/api"
	"tikflow-ledger-go/internal/common"
	"tikflow-ledger-go/internal/config"
	"tikflow-ledger-go/internal/database"
	"tikflow-ledger-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type balanceStats struct {
	totalWallets int
	totalBalance decimal.Decimal
}

func printWallet(wallet models.Wallet, isLast bool) {
	fmt.Printf("%s %-36s: %15s FCFA (v%d, updated: %s)\n",
		common.BoxPrefix(isLast),
		wallet.UserId,
		wallet.Balance.String(),
		wallet.Version,
		wallet.UpdatedAt.Format("2006-01-02 15:04:05"))
}

func printAllWallets(ctx context.Context, dbService *database.Service) (balanceStats, error) {
	stats := balanceStats{totalBalance: decimal.Zero}

	wallets, err := dbService.GetAllWallets(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to get wallets: %w", err)
	}

	for i, wallet := range wallets {
		printWallet(wallet, i == len(wallets)-1)
		stats.totalWallets++
		stats.totalBalance = stats.totalBalance.Add(wallet.Balance)
	}
	return stats, nil
}

func printUserReport(ctx context.Context, svc *api.Service, userId string) error {
	balance, err := svc.GetWalletBalance(ctx, userId)
	if err != nil {
		return fmt.Errorf("failed to get balance: %w", err)
	}

	history, err := svc.GetUserHistory(ctx, userId, 20, 0)
	if err != nil {
		return fmt.Errorf("failed to get history: %w", err)
	}

	fmt.Printf("\n┌─ User: %s\n", userId)
	fmt.Printf("│  Balance: %s FCFA\n", balance.String())
	fmt.Printf("│  Recent transactions: %d\n", len(history))
	common.PrintBoxSeparator(common.DefaultWidth - 2)

	for i, txn := range history {
		fmt.Printf("%s %s  %-9s %-10s %12s FCFA  ref=%s\n",
			common.BoxPrefix(i == len(history)-1),
			txn.CreatedAt.Format("2006-01-02 15:04"),
			txn.Kind,
			txn.Status,
			txn.Amount.String(),
			txn.RefId)
	}
	return nil
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	userFlag := flag.String("user", "", "Show one user's balance and recent history (optional)")
	flag.Parse()

	logger.Info("Starting balance query")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Connecting to database", zap.String("path", cfg.Database.Path))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	common.PrintHeader("WALLET BALANCE REPORT", common.DefaultWidth)

	if *userFlag != "" {
		if err := printUserReport(ctx, api.NewService(dbService), *userFlag); err != nil {
			logger.Fatal("Failed to generate user report",
				zap.String("user_id", *userFlag),
				zap.Error(err))
		}
		common.PrintFooter("Report complete", common.DefaultWidth)
		return
	}

	stats, err := printAllWallets(ctx, dbService)
	if err != nil {
		logger.Fatal("Failed to generate report", zap.Error(err))
	}

	summary := fmt.Sprintf("SUMMARY: %d wallets holding %s FCFA in total",
		stats.totalWallets, stats.totalBalance.String())
	common.PrintFooter(summary, common.DefaultWidth)

	logger.Info("Balance query completed",
		zap.Int("wallets", stats.totalWallets),
		zap.String("total_balance", stats.totalBalance.String()))
}
