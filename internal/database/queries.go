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

package database

const (
	// Wallet queries
	queryGetWallet = `
		SELECT user_id, balance, version, updated_at
		FROM wallets
		WHERE user_id = ?`

	queryInsertWallet = `
		INSERT INTO wallets (user_id, balance, version) VALUES (?, ?, 1)`

	queryUpdateWalletBalance = `
		UPDATE wallets
		SET balance = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND version = ?`

	queryGetWalletBalance = `
		SELECT balance
		FROM wallets
		WHERE user_id = ?`

	queryGetAllWallets = `
		SELECT user_id, balance, version, updated_at
		FROM wallets
		ORDER BY user_id`

	// Transaction queries
	transactionColumns = `id, user_id, kind, amount, coins, payment_method, ref_id,
		       status, admin_note, requires_code, confirmation_code, rate_used,
		       cost_amount, tiktok_username, tiktok_password, version, created_at, updated_at`

	queryGetTransaction = `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE id = ?`

	queryCheckTransactionRef = `
		SELECT id FROM transactions WHERE ref_id = ? LIMIT 1`

	queryCountPendingForUser = `
		SELECT COUNT(*) FROM transactions WHERE user_id = ? AND status = 'pending'`

	queryInsertTransaction = `
		INSERT INTO transactions (
			id, user_id, kind, amount, coins, payment_method, ref_id, status,
			admin_note, requires_code, confirmation_code, rate_used, cost_amount,
			tiktok_username, tiktok_password, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`

	queryUpdateTransactionStatus = `
		UPDATE transactions
		SET status = ?, admin_note = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?`

	queryRequestTransactionCode = `
		UPDATE transactions
		SET requires_code = 1, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?`

	querySetTransactionCode = `
		UPDATE transactions
		SET confirmation_code = ?, requires_code = 0, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?`

	queryGetUserHistory = `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`

	queryGetPendingTransactions = `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE status = 'pending'
		ORDER BY created_at DESC`

	queryGetAllTransactions = `
		SELECT ` + transactionColumns + `
		FROM transactions
		ORDER BY created_at DESC
		LIMIT ?`

	queryGetTransactionsSince = `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE created_at >= ?
		ORDER BY created_at DESC`

	queryCountTransactionsByStatus = `
		SELECT COUNT(*) FROM transactions WHERE status = ?`

	// Payment record queries
	paymentColumns = `id, ref_id, amount, sender, raw_text, parsed_text, status, version, received_at`

	queryCheckPaymentRef = `
		SELECT id FROM received_payments WHERE ref_id = ? LIMIT 1`

	queryInsertPayment = `
		INSERT INTO received_payments (id, ref_id, amount, sender, raw_text, parsed_text, status, version, received_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?)`

	queryGetUnusedPaymentByRef = `
		SELECT ` + paymentColumns + `
		FROM received_payments
		WHERE ref_id = ? AND status = 'unused'
		LIMIT 1`

	queryGetPaymentByRef = `
		SELECT ` + paymentColumns + `
		FROM received_payments
		WHERE ref_id = ?
		LIMIT 1`

	queryMarkPaymentUsed = `
		UPDATE received_payments
		SET status = 'used', version = version + 1
		WHERE id = ? AND status = 'unused' AND version = ?`

	queryGetReceivedPayments = `
		SELECT ` + paymentColumns + `
		FROM received_payments
		ORDER BY received_at DESC
		LIMIT ?`

	// Notification queries
	queryInsertNotification = `
		INSERT INTO notifications (id, user_id, title, message, type, link, read_flag, created_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?)`

	queryGetNotificationsForUser = `
		SELECT id, user_id, title, message, type, link, read_flag, created_at
		FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?`

	queryMarkNotificationRead = `
		UPDATE notifications SET read_flag = 1 WHERE id = ? AND user_id = ?`

	// Package catalog queries
	packageColumns = `id, name, coins, price, active, created_at, updated_at`

	queryInsertPackage = `
		INSERT INTO packages (id, name, coins, price, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	queryGetPackage = `
		SELECT ` + packageColumns + `
		FROM packages
		WHERE id = ?`

	queryListPackages = `
		SELECT ` + packageColumns + `
		FROM packages
		ORDER BY created_at DESC`

	queryListActivePackages = `
		SELECT ` + packageColumns + `
		FROM packages
		WHERE active = 1
		ORDER BY created_at DESC`

	queryUpdatePackage = `
		UPDATE packages
		SET name = ?, coins = ?, price = ?, active = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	// Platform stats queries
	statsColumns = `total_deposits, total_sales_volume, total_cost, total_profit,
		       total_coins_sold, total_transactions, total_users_balance,
		       average_transaction_value, version, updated_at`

	queryGetStats = `
		SELECT ` + statsColumns + `
		FROM platform_stats
		WHERE id = 'main'`

	queryUpdateStats = `
		UPDATE platform_stats
		SET total_deposits = ?, total_sales_volume = ?, total_cost = ?, total_profit = ?,
		    total_coins_sold = ?, total_transactions = ?, total_users_balance = ?,
		    average_transaction_value = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = 'main' AND version = ?`

	queryGetMonthlyStat = `
		SELECT month, deposits, sales, cost, profit, transactions, version
		FROM monthly_stats
		WHERE month = ?`

	queryInsertMonthlyStat = `
		INSERT INTO monthly_stats (month, deposits, sales, cost, profit, transactions, version)
		VALUES (?, ?, ?, ?, ?, ?, 1)`

	queryUpdateMonthlyStat = `
		UPDATE monthly_stats
		SET deposits = ?, sales = ?, cost = ?, profit = ?, transactions = ?, version = version + 1
		WHERE month = ? AND version = ?`

	queryGetAllMonthlyStats = `
		SELECT month, deposits, sales, cost, profit, transactions, version
		FROM monthly_stats
		ORDER BY month`
)
