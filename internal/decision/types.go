package decision

import (
	"time"

	"github.com/shopspring/decimal"
)

// Default decision parameters.
const (
	DefaultWalletCooldown    = 60 * time.Second
	DefaultProcessedCapacity = 10000
	DefaultProcessedRetain   = 5000
)

// DefaultMinBuyUSD is the default alert threshold in USD.
var DefaultMinBuyUSD = decimal.NewFromInt(1000)

// Config contains the alert decision parameters.
type Config struct {
	// MinBuyUSD is the inclusive USD threshold for an alert.
	MinBuyUSD decimal.Decimal

	// WalletCooldown suppresses repeat alerts for one wallet.
	WalletCooldown time.Duration

	// ProcessedCapacity is the size above which the processed set is trimmed
	// down to ProcessedRetain most recent signatures.
	ProcessedCapacity int
	ProcessedRetain   int
}

// DefaultConfig returns the default decision parameters.
func DefaultConfig() Config {
	return Config{
		MinBuyUSD:         DefaultMinBuyUSD,
		WalletCooldown:    DefaultWalletCooldown,
		ProcessedCapacity: DefaultProcessedCapacity,
		ProcessedRetain:   DefaultProcessedRetain,
	}
}

// Stats is a point-in-time view of the engine state sizes.
type Stats struct {
	Processed int `json:"processed"`
	Cooldowns int `json:"cooldowns"`
}
