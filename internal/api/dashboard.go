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
	"time"

	"tikflow-ledger-go/internal/models"

	"github.com/shopspring/decimal"
)

// Dashboard is the admin overview: today's completed activity, the
// review backlog and the lifetime platform aggregates.
type Dashboard struct {
	TodayVolume  decimal.Decimal
	TodayCount   int
	PendingCount int
	SuccessRate  int
	Stats        *models.PlatformStats
}

// AdminDashboard assembles the admin overview as of now.
func (s *Service) AdminDashboard(ctx context.Context, now time.Time) (*Dashboard, error) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	todays, err := s.db.GetTransactionsSince(ctx, midnight)
	if err != nil {
		return nil, err
	}

	dash := &Dashboard{TodayVolume: decimal.Zero}
	for _, txn := range todays {
		if txn.Status != models.StatusCompleted {
			continue
		}
		dash.TodayCount++
		dash.TodayVolume = dash.TodayVolume.Add(txn.Amount)
	}

	pending, err := s.db.CountTransactionsByStatus(ctx, models.StatusPending)
	if err != nil {
		return nil, err
	}
	dash.PendingCount = pending

	stats, err := s.db.GetPlatformStats(ctx)
	if err != nil {
		return nil, err
	}
	dash.Stats = stats

	if total := stats.TotalTransactions + int64(pending); total > 0 {
		dash.SuccessRate = int(stats.TotalTransactions * 100 / total)
	}
	return dash, nil
}
