package decision

import (
	"sync"
	"time"

	"solana-buy-alert/internal/domain"
)

// Engine decides whether a detected buy should be alerted.
// It owns the processed-signature set and the per-wallet cooldown table.
// Both are in memory only and reset on restart.
type Engine struct {
	cfg Config

	mu        sync.Mutex
	processed *ProcessedSet
	cooldowns map[string]time.Time // wallet -> last alert time
}

// NewEngine creates a new decision engine. Zero fields in cfg take defaults,
// except MinBuyUSD where zero is a valid threshold.
func NewEngine(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.WalletCooldown < 0 {
		cfg.WalletCooldown = def.WalletCooldown
	}
	if cfg.ProcessedCapacity <= 0 {
		cfg.ProcessedCapacity = def.ProcessedCapacity
	}
	if cfg.ProcessedRetain <= 0 {
		cfg.ProcessedRetain = def.ProcessedRetain
	}

	return &Engine{
		cfg:       cfg,
		processed: NewProcessedSet(cfg.ProcessedCapacity, cfg.ProcessedRetain),
		cooldowns: make(map[string]time.Time),
	}
}

// Config returns the engine parameters.
func (e *Engine) Config() Config {
	return e.cfg
}

// Seen reports whether sig has already been evaluated.
func (e *Engine) Seen(sig string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.processed.Contains(sig)
}

// MarkProcessed records sig as evaluated, whatever the verdict.
func (e *Engine) MarkProcessed(sig string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.processed.Add(sig)
}

// Evaluate returns the verdict for buy at time now. A nil buy is VerdictNotBuy.
// Evaluate does not change state; see MarkProcessed and Record.
func (e *Engine) Evaluate(buy *domain.BuyEvent, now time.Time) domain.Verdict {
	if buy == nil {
		return domain.VerdictNotBuy
	}
	if buy.USDValue.LessThan(e.cfg.MinBuyUSD) {
		return domain.VerdictBelowThreshold
	}

	e.mu.Lock()
	last, ok := e.cooldowns[buy.BuyerWallet]
	e.mu.Unlock()

	if ok && now.Sub(last) < e.cfg.WalletCooldown {
		return domain.VerdictCooldown
	}
	return domain.VerdictAlert
}

// Record starts the cooldown window for the buyer. Call it only after an
// alert was actually dispatched.
func (e *Engine) Record(buy *domain.BuyEvent, now time.Time) {
	if buy == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cooldowns[buy.BuyerWallet] = now
}

// PruneCooldowns drops wallets whose cooldown has expired and returns how
// many were removed.
func (e *Engine) PruneCooldowns(now time.Time) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	removed := 0
	for wallet, last := range e.cooldowns {
		if now.Sub(last) >= e.cfg.WalletCooldown {
			delete(e.cooldowns, wallet)
			removed++
		}
	}
	return removed
}

// Stats returns the current state sizes.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Stats{
		Processed: e.processed.Len(),
		Cooldowns: len(e.cooldowns),
	}
}
