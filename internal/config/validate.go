package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"solana-buy-alert/internal/discovery"
)

// Validate checks required values and address formats. All problems are
// reported together.
func (c *Config) Validate() error {
	var errs []error

	if c.BotToken == "" {
		errs = append(errs, errors.New("bot token is required (BOT_TOKEN or --bot-token)"))
	}
	if err := checkURL(c.RPCHTTP, "http", "https"); err != nil {
		errs = append(errs, fmt.Errorf("rpc endpoint: %w", err))
	}
	if c.RPCWS != "" {
		if err := checkURL(c.RPCWS, "ws", "wss"); err != nil {
			errs = append(errs, fmt.Errorf("ws endpoint: %w", err))
		}
	}
	if err := checkURL(c.DexScreenerAPI, "http", "https"); err != nil {
		errs = append(errs, fmt.Errorf("dexscreener api: %w", err))
	}

	for _, a := range []struct{ name, addr string }{
		{"mint", c.Mint},
		{"pair", c.DexScreenerPair},
		{"sol-usdc pair", c.SOLUSDCPair},
	} {
		if _, err := solanago.PublicKeyFromBase58(a.addr); err != nil {
			errs = append(errs, fmt.Errorf("%s %q: %w", a.name, a.addr, err))
		}
	}

	programs, err := c.ResolvePrograms()
	if err != nil {
		errs = append(errs, err)
	} else if len(programs) == 0 {
		errs = append(errs, errors.New("no DEX programs specified, use --programs or --dex"))
	}

	if c.MinBuyUSD.IsNegative() {
		errs = append(errs, errors.New("min buy usd must not be negative"))
	}
	if c.WalletCooldown < 0 {
		errs = append(errs, errors.New("wallet cooldown must not be negative"))
	}
	if c.DeleteDelay < 0 {
		errs = append(errs, errors.New("delete delay must not be negative"))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, errors.New("poll interval must be positive"))
	}
	if c.PriceCacheTTL <= 0 {
		errs = append(errs, errors.New("price cache ttl must be positive"))
	}
	if c.RPCMaxRetries < 0 {
		errs = append(errs, errors.New("rpc max retries must not be negative"))
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}

	return errors.Join(errs...)
}

// ResolvePrograms returns the DEX allow-list from --programs and --dex,
// rejecting program IDs that are not valid public keys.
func (c *Config) ResolvePrograms() ([]string, error) {
	for _, p := range strings.Split(c.Programs, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, err := solanago.PublicKeyFromBase58(p); err != nil {
			return nil, fmt.Errorf("program %q: %w", p, err)
		}
	}
	return discovery.ResolvePrograms(c.Programs, c.DEX), nil
}

// ImageIsURL reports whether AlertImage should be sent by URL.
func (c *Config) ImageIsURL() bool {
	return strings.HasPrefix(c.AlertImage, "http://") || strings.HasPrefix(c.AlertImage, "https://")
}

func checkURL(raw string, schemes ...string) error {
	if raw == "" {
		return errors.New("required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	for _, s := range schemes {
		if u.Scheme == s && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("%q must be a %s URL", raw, strings.Join(schemes, "/"))
}
