package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Verdict is the outcome of evaluating one transaction.
type Verdict string

const (
	VerdictNotBuy         Verdict = "NOT_BUY"
	VerdictBelowThreshold Verdict = "BELOW_THRESHOLD"
	VerdictCooldown       Verdict = "COOLDOWN"
	VerdictAlert          Verdict = "ALERT"
)

// String returns the string representation of Verdict.
func (v Verdict) String() string {
	return string(v)
}

// AlertRecord is an append-only audit entry for a dispatched alert.
type AlertRecord struct {
	Signature      string
	BuyerWallet    string
	USDValue       decimal.Decimal
	SOLSpent       decimal.Decimal
	TokensReceived decimal.Decimal
	Destinations   int // destinations attempted
	Delivered      int // destinations that accepted the message
	SentAt         time.Time
}

// BuyRecord is an analytics row for every extracted buy, whatever its verdict.
type BuyRecord struct {
	Buy     BuyEvent
	Verdict Verdict
}
