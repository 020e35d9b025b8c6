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

	"tikflow-ledger-go/internal/common"
	"tikflow-ledger-go/internal/config"
	"tikflow-ledger-go/internal/recon"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type walletFlags struct {
	action   string
	userId   string
	amount   string
	refId    string
	method   string
	pkgId    string
	coins    int64
	username string
	password string
}

func parseFlags() walletFlags {
	var f walletFlags
	flag.StringVar(&f.action, "action", "", "One of: recharge, purchase, notifications")
	flag.StringVar(&f.userId, "user", "", "User id")
	flag.StringVar(&f.amount, "amount", "", "Recharge amount in FCFA")
	flag.StringVar(&f.refId, "ref", "", "Payment reference from the provider SMS")
	flag.StringVar(&f.method, "method", "TMoney", "Payment method")
	flag.StringVar(&f.pkgId, "package", "", "Coin package id (purchase)")
	flag.Int64Var(&f.coins, "coins", 0, "Custom coin count (purchase, alternative to -package)")
	flag.StringVar(&f.username, "tiktok-user", "", "TikTok username for coin delivery")
	flag.StringVar(&f.password, "tiktok-pass", "", "TikTok password for coin delivery")
	flag.Parse()
	return f
}

func runRecharge(ctx context.Context, services *common.Services, f walletFlags) error {
	amount, err := decimal.NewFromString(f.amount)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", f.amount, err)
	}

	txnId, err := services.Coordinator.SubmitRecharge(ctx, f.userId, amount, f.refId, f.method)
	if err != nil {
		return err
	}
	fmt.Printf("recharge submitted: txn=%s (pending admin review)\n", txnId)
	return nil
}

func runPurchase(ctx context.Context, services *common.Services, f walletFlags) error {
	pricing := recon.Pricing{PackageId: f.pkgId, CustomCoins: f.coins}
	creds := recon.Credentials{TiktokUsername: f.username, TiktokPassword: f.password}

	result, err := services.Coordinator.PurchaseWithLedger(ctx, f.userId, pricing, creds)
	if err != nil {
		return err
	}
	fmt.Printf("purchase submitted: txn=%s coins=%d new_balance=%s FCFA\n",
		result.TransactionId, result.Coins, result.NewBalance.String())
	return nil
}

func showNotifications(ctx context.Context, services *common.Services, userId string) error {
	notifications, err := services.Notify.ListForUser(ctx, userId, 20)
	if err != nil {
		return err
	}

	common.PrintHeader("NOTIFICATIONS", common.DefaultWidth)
	for i, n := range notifications {
		marker := " "
		if !n.Read {
			marker = "*"
		}
		fmt.Printf("%s%s %s  %s: %s\n",
			common.BoxPrefix(i == len(notifications)-1),
			marker,
			n.CreatedAt.Format("2006-01-02 15:04"),
			n.Title,
			n.Message)
	}
	common.PrintFooter(fmt.Sprintf("SUMMARY: %d notifications", len(notifications)), common.DefaultWidth)
	return nil
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	f := parseFlags()
	if f.userId == "" {
		logger.Fatal("-user is required")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	switch f.action {
	case "recharge":
		err = runRecharge(ctx, services, f)
	case "purchase":
		err = runPurchase(ctx, services, f)
	case "notifications":
		err = showNotifications(ctx, services, f.userId)
	default:
		logger.Fatal("Unknown action", zap.String("action", f.action))
	}

	if err != nil {
		logger.Fatal("Wallet action failed",
			zap.String("action", f.action),
			zap.Error(err))
	}
}
