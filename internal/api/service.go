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

package api

import (
	"context"
	"fmt"

	"tikflow-ledger-go/internal/database"
	"tikflow-ledger-go/internal/models"
	"tikflow-ledger-go/internal/store"

	"github.com/shopspring/decimal"
)

// Service provides the read-only query surface: balances, history and
// review evidence. All writes go through the coordinator instead.
type Service struct {
	db *database.Service
}

func NewService(db *database.Service) *Service {
	return &Service{db: db}
}

func (s *Service) HealthCheck(ctx context.Context) error {
	if _, err := s.db.GetPlatformStats(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// GetWalletBalance returns a user's current balance.
func (s *Service) GetWalletBalance(ctx context.Context, userId string) (decimal.Decimal, error) {
	return s.db.GetWalletBalance(ctx, userId)
}

// GetUserHistory returns a user's transaction history, newest first.
func (s *Service) GetUserHistory(ctx context.Context, userId string, limit, offset int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.db.GetUserHistory(ctx, userId, limit, offset)
}

// GetTransactionForUser returns one transaction after checking the
// caller owns it.
func (s *Service) GetTransactionForUser(ctx context.Context, userId, txnId string) (*models.Transaction, error) {
	txn, err := s.db.GetTransaction(ctx, txnId)
	if err != nil {
		return nil, err
	}
	if txn.UserId != userId {
		return nil, fmt.Errorf("%w: transaction %s does not belong to %s", store.ErrForbidden, txnId, userId)
	}
	return txn, nil
}

// GetPendingTransactions lists everything awaiting admin review.
func (s *Service) GetPendingTransactions(ctx context.Context) ([]models.Transaction, error) {
	return s.db.GetPendingTransactions(ctx)
}

// GetAllTransactions lists the most recent transactions across users.
func (s *Service) GetAllTransactions(ctx context.Context, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.db.GetAllTransactions(ctx, limit)
}

// Evidence pairs a transaction with the payment record carrying its
// reference, if any, for admin review.
type Evidence struct {
	Transaction *models.Transaction
	Payment     *models.PaymentRecord
}

// GetTransactionWithEvidence returns a transaction together with the
// matching inbound payment record (any status).
func (s *Service) GetTransactionWithEvidence(ctx context.Context, txnId string) (*Evidence, error) {
	txn, err := s.db.GetTransaction(ctx, txnId)
	if err != nil {
		return nil, err
	}

	payment, err := s.db.GetPaymentByRef(ctx, txn.RefId)
	if err != nil {
		return nil, err
	}
	return &Evidence{Transaction: txn, Payment: payment}, nil
}

// GetReceivedPayments lists the most recent inbound payment records.
func (s *Service) GetReceivedPayments(ctx context.Context, limit int) ([]models.PaymentRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.db.GetReceivedPayments(ctx, limit)
}
