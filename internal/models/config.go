package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig
	Recon    ReconConfig
	Settings SettingsConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
	BusyTimeout     time.Duration
}

// Policies for a purchase transaction rejected after the wallet was
// already debited at submission time.
const (
	RejectedPurchaseRefund  = "refund"
	RejectedPurchaseForfeit = "forfeit"
)

// ReconConfig holds the coordinator's operational knobs.
type ReconConfig struct {
	MaxPendingPerUser      int
	MaxRetries             int
	RetryBackoff           time.Duration
	RejectedPurchasePolicy string
	CoinRate               decimal.Decimal
	MinCustomCoins         int64
}

// MatcherConfig holds the payment-notification parsing contract: an
// explicit sender allow-list and two single-group patterns, one for the
// amount and one for the reference token.
type MatcherConfig struct {
	AllowedSenders []string
	AmountPattern  string
	RefPattern     string
}

// SettingsConfig points at the optional YAML settings file.
type SettingsConfig struct {
	File string
}
