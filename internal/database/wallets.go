package database

import (
	"context"
	"database/sql"
	"fmt"

	"tikflow-ledger-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GetWalletBalance returns the current balance for a user (O(1) lookup).
// A missing wallet row means a zero balance.
func (s *Service) GetWalletBalance(ctx context.Context, userId string) (decimal.Decimal, error) {
	zap.L().Debug("Getting wallet balance", zap.String("user_id", userId))

	var balanceStr string
	err := s.db.QueryRowContext(ctx, queryGetWalletBalance, userId).Scan(&balanceStr)
	if err == sql.ErrNoRows {
		return decimal.Zero, nil
	}
	if err != nil {
		zap.L().Error("Failed to get wallet balance", zap.String("user_id", userId), zap.Error(err))
		return decimal.Zero, fmt.Errorf("failed to get wallet balance: %w", err)
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		zap.L().Error("Failed to parse balance", zap.String("balance_str", balanceStr), zap.Error(err))
		return decimal.Zero, fmt.Errorf("failed to parse balance: %w", err)
	}
	return balance, nil
}

// GetAllWallets returns every wallet, for operator tooling.
func (s *Service) GetAllWallets(ctx context.Context) ([]models.Wallet, error) {
	rows, err := s.db.QueryContext(ctx, queryGetAllWallets)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallets: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var wallets []models.Wallet
	for rows.Next() {
		var w models.Wallet
		var balanceStr string
		if err := rows.Scan(&w.UserId, &balanceStr, &w.Version, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan wallet: %w", err)
		}
		if w.Balance, err = decimal.NewFromString(balanceStr); err != nil {
			return nil, fmt.Errorf("failed to parse balance '%s': %w", balanceStr, err)
		}
		wallets = append(wallets, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wallet rows: %w", err)
	}
	return wallets, nil
}
