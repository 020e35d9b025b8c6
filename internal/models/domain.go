package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction kinds.
const (
	KindRecharge = "recharge"
	KindPurchase = "purchase"
)

// Transaction lifecycle states. Failed is reserved for error paths that
// are not part of the normal pending/completed/rejected flow.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusRejected  = "rejected"
	StatusFailed    = "failed"
)

// Payment record states.
const (
	PaymentUnused = "unused"
	PaymentUsed   = "used"
)

// Transaction represents a wallet recharge request or a coin purchase
// and its lifecycle state.
type Transaction struct {
	Id               string          `db:"id"`
	UserId           string          `db:"user_id"`
	Kind             string          `db:"kind"`
	Amount           decimal.Decimal `db:"amount"`
	Coins            int64           `db:"coins"`
	PaymentMethod    string          `db:"payment_method"`
	RefId            string          `db:"ref_id"`
	Status           string          `db:"status"`
	AdminNote        string          `db:"admin_note"`
	RequiresCode     bool            `db:"requires_code"`
	ConfirmationCode string          `db:"confirmation_code"`
	RateUsed         decimal.Decimal `db:"rate_used"`
	CostAmount       decimal.Decimal `db:"cost_amount"`
	TiktokUsername   string          `db:"tiktok_username"`
	TiktokPassword   string          `db:"tiktok_password"`
	Version          int64           `db:"version"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

// PaymentRecord is an inbound mobile-money payment notification parsed
// from free text. Each record is usable at most once.
type PaymentRecord struct {
	Id         string          `db:"id"`
	RefId      string          `db:"ref_id"`
	Amount     decimal.Decimal `db:"amount"`
	Sender     string          `db:"sender"`
	RawText    string          `db:"raw_text"`
	ParsedText string          `db:"parsed_text"`
	Status     string          `db:"status"`
	Version    int64           `db:"version"`
	ReceivedAt time.Time       `db:"received_at"`
}

// Wallet holds a single user balance. Mutated only inside an atomic unit.
type Wallet struct {
	UserId    string          `db:"user_id"`
	Balance   decimal.Decimal `db:"balance"`
	Version   int64           `db:"version"`
	UpdatedAt time.Time       `db:"updated_at"`
}

// CoinPackage is a catalog entry: a fixed coin bundle at a fixed price.
type CoinPackage struct {
	Id        string          `db:"id"`
	Name      string          `db:"name"`
	Coins     int64           `db:"coins"`
	Price     decimal.Decimal `db:"price"`
	Active    bool            `db:"active"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

// Notification recipient id for admin-facing alerts.
const AdminRecipient = "admin"

// Notification types.
const (
	NotifPaymentReceived = "payment_received"
	NotifRechargeSuccess = "recharge_success"
	NotifOrderDelivered  = "order_delivered"
	NotifWarning         = "warning"
	NotifSystemAlert     = "system_alert"
)

// Notification is a queued user or admin alert. The record is written in
// the same atomic unit as the state change it reports; delivery is an
// external concern.
type Notification struct {
	Id        string    `db:"id"`
	UserId    string    `db:"user_id"`
	Title     string    `db:"title"`
	Message   string    `db:"message"`
	Type      string    `db:"type"`
	Link      string    `db:"link"`
	Read      bool      `db:"read"`
	CreatedAt time.Time `db:"created_at"`
}

// MonthlyStat is one calendar-month bucket of the platform aggregate.
type MonthlyStat struct {
	Month        string          `db:"month"`
	Deposits     decimal.Decimal `db:"deposits"`
	Sales        decimal.Decimal `db:"sales"`
	Cost         decimal.Decimal `db:"cost"`
	Profit       decimal.Decimal `db:"profit"`
	Transactions int64           `db:"transactions"`
}

// PlatformStats is the singleton running aggregate, updated exactly once
// per transaction that reaches completed.
type PlatformStats struct {
	TotalDeposits           decimal.Decimal        `db:"total_deposits"`
	TotalSalesVolume        decimal.Decimal        `db:"total_sales_volume"`
	TotalCost               decimal.Decimal        `db:"total_cost"`
	TotalProfit             decimal.Decimal        `db:"total_profit"`
	TotalCoinsSold          int64                  `db:"total_coins_sold"`
	TotalTransactions       int64                  `db:"total_transactions"`
	TotalUsersBalance       decimal.Decimal        `db:"total_users_balance"`
	AverageTransactionValue decimal.Decimal        `db:"average_transaction_value"`
	Version                 int64                  `db:"version"`
	UpdatedAt               time.Time              `db:"updated_at"`
	Monthly                 map[string]MonthlyStat `db:"-"`
}
