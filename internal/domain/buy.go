package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL = 1_000_000_000

// BuyEvent is a detected purchase of the tracked token.
// Constructed only when a wallet shows a positive token gain.
type BuyEvent struct {
	Signature      string
	BuyerWallet    string
	SOLSpent       decimal.Decimal // >= 0
	TokensReceived decimal.Decimal // > 0
	USDValue       decimal.Decimal // > 0
	OccurredAt     time.Time
}

// ShortWallet returns the buyer wallet as first4...last4.
// Wallets of eight characters or fewer are returned unchanged.
func (b *BuyEvent) ShortWallet() string {
	return ShortAddress(b.BuyerWallet)
}

// ShortAddress truncates a base58 address to first4...last4.
func ShortAddress(addr string) string {
	if len(addr) <= 8 {
		return addr
	}
	return addr[:4] + "..." + addr[len(addr)-4:]
}
