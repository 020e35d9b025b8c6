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
	"time"

	"tikflow-ledger-go/internal/api"
	"tikflow-ledger-go/internal/common"
	"tikflow-ledger-go/internal/config"
	"tikflow-ledger-go/internal/models"
	"tikflow-ledger-go/internal/recon"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type adminFlags struct {
	action string
	txnId  string
	userId string
	note   string
	code   string
	amount string
}

func parseFlags() adminFlags {
	var f adminFlags
	flag.StringVar(&f.action, "action", "pending", "One of: pending, evidence, complete, reject, request-code, submit-code, adjust, dashboard")
	flag.StringVar(&f.txnId, "txn", "", "Transaction id")
	flag.StringVar(&f.userId, "user", "", "User id")
	flag.StringVar(&f.note, "note", "", "Admin note attached to the decision")
	flag.StringVar(&f.code, "code", "", "Confirmation code (submit-code)")
	flag.StringVar(&f.amount, "amount", "", "Balance delta in FCFA (adjust), negative to debit")
	flag.Parse()
	return f
}

func printTransaction(txn models.Transaction, isLast bool) {
	fmt.Printf("%s %s  %-9s %-10s %12s FCFA  ref=%s  user=%s\n",
		common.BoxPrefix(isLast),
		txn.CreatedAt.Format("2006-01-02 15:04"),
		txn.Kind,
		txn.Status,
		txn.Amount.String(),
		txn.RefId,
		txn.UserId)
}

func showPending(ctx context.Context, svc *api.Service) error {
	pending, err := svc.GetPendingTransactions(ctx)
	if err != nil {
		return err
	}

	common.PrintHeader("PENDING TRANSACTIONS", common.DefaultWidth)
	for i, txn := range pending {
		printTransaction(txn, i == len(pending)-1)
	}
	common.PrintFooter(fmt.Sprintf("SUMMARY: %d transactions awaiting review", len(pending)), common.DefaultWidth)
	return nil
}

func showEvidence(ctx context.Context, svc *api.Service, txnId string) error {
	evidence, err := svc.GetTransactionWithEvidence(ctx, txnId)
	if err != nil {
		return err
	}

	txn := evidence.Transaction
	common.PrintHeader("TRANSACTION EVIDENCE", common.DefaultWidth)
	fmt.Printf("┌─ Transaction: %s\n", txn.Id)
	fmt.Printf("│  Kind:    %s\n", txn.Kind)
	fmt.Printf("│  Status:  %s\n", txn.Status)
	fmt.Printf("│  User:    %s\n", txn.UserId)
	fmt.Printf("│  Amount:  %s FCFA\n", txn.Amount.String())
	fmt.Printf("│  Ref:     %s\n", txn.RefId)
	fmt.Printf("│  Method:  %s\n", txn.PaymentMethod)
	common.PrintBoxSeparator(common.DefaultWidth - 2)

	if evidence.Payment == nil {
		fmt.Println("└  No inbound payment record matches this reference")
		return nil
	}

	p := evidence.Payment
	fmt.Printf("│  Payment ref:    %s\n", p.RefId)
	fmt.Printf("│  Payment amount: %s FCFA\n", p.Amount.String())
	fmt.Printf("│  Sender:         %s\n", p.Sender)
	fmt.Printf("│  Status:         %s\n", p.Status)
	fmt.Printf("└  Received:       %s\n", p.ReceivedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func showDashboard(ctx context.Context, svc *api.Service) error {
	dash, err := svc.AdminDashboard(ctx, time.Now())
	if err != nil {
		return err
	}

	common.PrintHeader("ADMIN DASHBOARD", common.DefaultWidth)
	fmt.Printf("│  Today:        %d completed, %s FCFA\n", dash.TodayCount, dash.TodayVolume.String())
	fmt.Printf("│  Pending:      %d awaiting review\n", dash.PendingCount)
	fmt.Printf("│  Success rate: %d%%\n", dash.SuccessRate)
	common.PrintBoxSeparator(common.DefaultWidth - 2)
	fmt.Printf("│  Total deposits:     %s FCFA\n", dash.Stats.TotalDeposits.String())
	fmt.Printf("│  Total sales:        %s FCFA\n", dash.Stats.TotalSalesVolume.String())
	fmt.Printf("│  Total profit:       %s FCFA\n", dash.Stats.TotalProfit.String())
	fmt.Printf("│  Coins sold:         %d\n", dash.Stats.TotalCoinsSold)
	fmt.Printf("│  Transactions:       %d\n", dash.Stats.TotalTransactions)
	fmt.Printf("│  Users balance:      %s FCFA\n", dash.Stats.TotalUsersBalance.String())
	fmt.Printf("└  Avg transaction:   %s FCFA\n", dash.Stats.AverageTransactionValue.String())
	return nil
}

// resolve picks the completion decision matching the transaction kind.
func resolve(ctx context.Context, services *common.Services, txnId, note string) error {
	txn, err := services.DbService.GetTransaction(ctx, txnId)
	if err != nil {
		return err
	}

	decision := recon.CompleteRecharge()
	if txn.Kind == models.KindPurchase {
		decision = recon.CompletePurchaseDelivery()
	}
	decision.Note = note

	if err := services.Coordinator.ResolvePending(ctx, txnId, decision); err != nil {
		return err
	}
	fmt.Printf("completed: %s (%s)\n", txnId, txn.Kind)
	return nil
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	f := parseFlags()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	apiService := api.NewService(services.DbService)

	switch f.action {
	case "pending":
		err = showPending(ctx, apiService)

	case "evidence":
		if f.txnId == "" {
			logger.Fatal("-txn is required for evidence")
		}
		err = showEvidence(ctx, apiService, f.txnId)

	case "complete":
		if f.txnId == "" {
			logger.Fatal("-txn is required for complete")
		}
		err = resolve(ctx, services, f.txnId, f.note)

	case "reject":
		if f.txnId == "" {
			logger.Fatal("-txn is required for reject")
		}
		err = services.Coordinator.ResolvePending(ctx, f.txnId, recon.Reject(f.note))
		if err == nil {
			fmt.Printf("rejected: %s\n", f.txnId)
		}

	case "request-code":
		if f.txnId == "" {
			logger.Fatal("-txn is required for request-code")
		}
		err = services.Coordinator.RequestConfirmationCode(ctx, f.txnId)
		if err == nil {
			fmt.Printf("code requested: %s\n", f.txnId)
		}

	case "submit-code":
		if f.txnId == "" || f.userId == "" || f.code == "" {
			logger.Fatal("-txn, -user and -code are required for submit-code")
		}
		err = services.Coordinator.SubmitConfirmationCode(ctx, f.txnId, f.code, f.userId)
		if err == nil {
			fmt.Printf("code submitted: %s\n", f.txnId)
		}

	case "adjust":
		if f.userId == "" || f.amount == "" {
			logger.Fatal("-user and -amount are required for adjust")
		}
		delta, perr := decimal.NewFromString(f.amount)
		if perr != nil {
			logger.Fatal("Invalid amount", zap.String("amount", f.amount), zap.Error(perr))
		}
		var balance decimal.Decimal
		balance, err = services.Coordinator.AdjustBalance(ctx, f.userId, delta, f.note)
		if err == nil {
			fmt.Printf("adjusted: user=%s delta=%s new_balance=%s\n", f.userId, delta.String(), balance.String())
		}

	case "dashboard":
		err = showDashboard(ctx, apiService)

	default:
		logger.Fatal("Unknown action", zap.String("action", f.action))
	}

	if err != nil {
		logger.Fatal("Admin action failed",
			zap.String("action", f.action),
			zap.Error(err))
	}
}
