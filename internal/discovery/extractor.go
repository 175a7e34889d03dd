package discovery

import (
	"context"
	"io"
	"time"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"solana-buy-alert/internal/domain"
	"solana-buy-alert/internal/solana"
)

var lamportsPerSOL = decimal.NewFromInt(domain.LamportsPerSOL)

// SnapshotSource provides the current market snapshot, or nil when none is known.
type SnapshotSource interface {
	Snapshot(ctx context.Context) *domain.MarketSnapshot
}

// ExtractorOptions configures an Extractor.
type ExtractorOptions struct {
	Mint string // tracked token mint

	// SkipOffCurveOwners ignores token owners that are program-derived
	// addresses (valid 32-byte keys off the ed25519 curve), such as pool authorities.
	SkipOffCurveOwners bool

	Logger logrus.FieldLogger
	Now    func() time.Time
}

// Extractor turns a parsed swap transaction into a BuyEvent.
type Extractor struct {
	classifier   *Classifier
	prices       SnapshotSource
	mint         string
	skipOffCurve bool
	log          logrus.FieldLogger
	now          func() time.Time
}

// NewExtractor creates a new Extractor.
func NewExtractor(classifier *Classifier, prices SnapshotSource, opts ExtractorOptions) *Extractor {
	e := &Extractor{
		classifier:   classifier,
		prices:       prices,
		mint:         opts.Mint,
		skipOffCurve: opts.SkipOffCurveOwners,
		log:          opts.Logger,
		now:          opts.Now,
	}
	if e.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		e.log = l
	}
	if e.now == nil {
		e.now = time.Now
	}
	e.log = e.log.WithField("component", "extractor")
	return e
}

// Extract returns the buy described by tx, or nil when tx is not a
// successful swap that increased some wallet's balance of the tracked mint,
// or when no USD value can be assigned.
func (e *Extractor) Extract(ctx context.Context, tx *solana.Transaction, signature string) *domain.BuyEvent {
	if tx == nil || tx.Meta == nil || tx.Meta.Err != nil {
		return nil
	}
	if !e.classifier.IsDEXSwap(tx) {
		return nil
	}

	buyer, tokens, ok := e.largestGain(tx.Meta)
	if !ok {
		return nil
	}

	solSpent := spentLamports(tx, buyer)

	snap := e.prices.Snapshot(ctx)
	if snap == nil {
		e.log.WithField("signature", signature).Debug("no market snapshot, dropping buy")
		return nil
	}

	var usdValue decimal.Decimal
	if solSpent.IsPositive() {
		usdValue = solSpent.Mul(snap.SOLPriceUSD)
	}
	if !usdValue.IsPositive() {
		// Valued from the token side. SOL spent is estimated from the same
		// figure when unknown, so usdValue stays exactly tokens * price.
		usdValue = tokens.Mul(snap.PriceUSD)
		if !solSpent.IsPositive() && snap.PriceUSD.IsPositive() && snap.HasSOLPrice() {
			solSpent = usdValue.Div(snap.SOLPriceUSD)
		}
	}
	if !usdValue.IsPositive() {
		return nil
	}

	occurred := e.now()
	if tx.BlockTime != nil {
		occurred = time.Unix(*tx.BlockTime, 0).UTC()
	}

	return &domain.BuyEvent{
		Signature:      signature,
		BuyerWallet:    buyer,
		SOLSpent:       solSpent,
		TokensReceived: tokens,
		USDValue:       usdValue,
		OccurredAt:     occurred,
	}
}

// largestGain finds the owner with the largest positive balance change of
// the tracked mint. Ties keep the first owner seen.
func (e *Extractor) largestGain(meta *solana.TransactionMeta) (string, decimal.Decimal, bool) {
	var (
		buyer string
		best  decimal.Decimal
	)

	for _, post := range meta.PostTokenBalances {
		if post.Mint != e.mint || post.Owner == "" {
			continue
		}
		if e.skipOffCurve && isProgramDerived(post.Owner) {
			continue
		}

		postAmount, ok := uiAmount(post.UITokenAmount)
		if !ok {
			return "", decimal.Zero, false
		}

		preAmount := decimal.Zero
		for _, pre := range meta.PreTokenBalances {
			if pre.Mint == e.mint && pre.Owner == post.Owner {
				if preAmount, ok = uiAmount(pre.UITokenAmount); !ok {
					return "", decimal.Zero, false
				}
				break
			}
		}

		if change := postAmount.Sub(preAmount); change.GreaterThan(best) {
			best = change
			buyer = post.Owner
		}
	}

	if buyer == "" || !best.IsPositive() {
		return "", decimal.Zero, false
	}
	return buyer, best, true
}

// spentLamports returns the SOL decrease of the first account key equal to
// the buyer, or zero when it did not decrease.
func spentLamports(tx *solana.Transaction, buyer string) decimal.Decimal {
	if tx.Message == nil {
		return decimal.Zero
	}
	pre, post := tx.Meta.PreBalances, tx.Meta.PostBalances

	for i, key := range tx.Message.AccountKeys {
		if key != buyer {
			continue
		}
		if i >= len(pre) || i >= len(post) || pre[i] <= post[i] {
			return decimal.Zero
		}
		return decimal.NewFromUint64(pre[i] - post[i]).Div(lamportsPerSOL)
	}
	return decimal.Zero
}

// uiAmount reads a UI token amount, preferring the exact string form.
// Missing amounts are zero; an unparseable string is malformed.
func uiAmount(a solana.UITokenAmount) (decimal.Decimal, bool) {
	if a.UIAmountString != "" {
		d, err := decimal.NewFromString(a.UIAmountString)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	}
	if a.UIAmount != nil {
		return decimal.NewFromFloat(*a.UIAmount), true
	}
	return decimal.Zero, true
}

// isProgramDerived reports whether addr decodes to 32 bytes that are not a
// point on the ed25519 curve.
func isProgramDerived(addr string) bool {
	raw, err := base58.Decode(addr)
	if err != nil || len(raw) != 32 {
		return false
	}
	return !isOnCurve(raw)
}

func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
