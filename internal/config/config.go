// Package config loads service configuration from the environment, an
// optional .env file and command-line flags. Flags win over the environment,
// and the environment wins over .env.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Defaults for the tracked token and its market.
const (
	DefaultMint            = "CY1P83KnKwFYostvjQcoR2HJLyEJWRBRaVQmYyyD3cR8"
	DefaultSymbol          = "SUOLALA"
	DefaultDexScreenerPair = "79Qaq5b1JfC8bFuXkAvXTR67fRPmMjMVNkEA3bb8bLzi"
	DefaultSOLUSDCPair     = "8sLbNZoA1cfnvMJLPfp98ZLAnFSYCFApfJKMbiXNLwxj"
	DefaultDexScreenerAPI  = "https://api.dexscreener.com"
	DefaultRPCHTTP         = "https://api.mainnet-beta.solana.com"
	DefaultKnownChatsFile  = "known_chats.txt"
	DefaultAlertImage      = "buy.png"
	DefaultMetricsAddr     = ":9090"
	DefaultDEX             = "raydium,jupiter"
	DefaultMinBuyUSD       = "1000"
	DefaultDeleteDelaySec  = 120
	DefaultCooldownSec     = 60
	DefaultPollInterval    = 5 * time.Second
	DefaultPriceCacheTTL   = 10 * time.Second
	DefaultRPCMaxRetries   = 3
)

// Config is the complete service configuration.
type Config struct {
	BotToken string

	RPCHTTP       string
	RPCWS         string // empty disables the logs subscription wake trigger
	RPCMaxRetries int

	Mint   string
	Symbol string

	DexScreenerAPI  string
	DexScreenerPair string
	SOLUSDCPair     string
	PriceCacheTTL   time.Duration

	MinBuyUSD      decimal.Decimal
	WalletCooldown time.Duration
	PollInterval   time.Duration
	DEX            string // comma-separated aliases
	Programs       string // comma-separated program IDs

	SkipOffCurveOwners bool

	AlertImage       string // file path or http(s) URL
	DeleteDelay      time.Duration
	AwaitRetractions bool

	KnownChatsFile string
	ChatIDs        []int64
	RegisterChats  bool // record chats the bot sees in the registry

	PostgresDSN   string
	ClickHouseDSN string

	MetricsAddr string
	LogLevel    string
	LogFormat   string
}

// Env resolves configuration keys. The process environment takes precedence
// over values read from a .env file.
type Env struct {
	dotenv map[string]string
	lookup func(string) (string, bool)
}

// NewEnv creates an Env backed by the process environment and the given
// .env files. Missing files are ignored.
func NewEnv(files ...string) (*Env, error) {
	e := &Env{dotenv: make(map[string]string), lookup: os.LookupEnv}
	for _, f := range files {
		vals, err := godotenv.Read(f)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("read %s: %w", f, err)
		}
		for k, v := range vals {
			if _, ok := e.dotenv[k]; !ok {
				e.dotenv[k] = v
			}
		}
	}
	return e, nil
}

// MapEnv returns an Env over a fixed set of values.
func MapEnv(vals map[string]string) *Env {
	return &Env{
		dotenv: make(map[string]string),
		lookup: func(k string) (string, bool) {
			v, ok := vals[k]
			return v, ok
		},
	}
}

// Get returns the value for key, or "" when unset.
func (e *Env) Get(key string) string {
	if v, ok := e.lookup(key); ok {
		return v
	}
	return e.dotenv[key]
}

// Load reads .env from the working directory and parses args.
func Load(args []string) (*Config, error) {
	env, err := NewEnv(".env")
	if err != nil {
		return nil, err
	}
	return Parse(flag.NewFlagSet("buyalert", flag.ContinueOnError), args, env)
}

// Parse registers flags on flags with defaults taken from env, then parses args.
func Parse(flags *flag.FlagSet, args []string, env *Env) (*Config, error) {
	d := defaults{env: env}
	cfg := &Config{}

	flags.StringVar(&cfg.BotToken, "bot-token", d.str("BOT_TOKEN", ""), "Telegram bot token")
	flags.StringVar(&cfg.RPCHTTP, "rpc-endpoint", d.str("SOLANA_RPC_HTTP", DefaultRPCHTTP), "Solana RPC HTTP endpoint")
	flags.StringVar(&cfg.RPCWS, "ws-endpoint", d.str("SOLANA_RPC_WS", ""), "Solana WebSocket endpoint (optional wake trigger)")
	flags.IntVar(&cfg.RPCMaxRetries, "rpc-max-retries", d.int("RPC_MAX_RETRIES", DefaultRPCMaxRetries), "Retries for transient RPC failures")
	flags.StringVar(&cfg.Mint, "mint", d.str("TOKEN_MINT", DefaultMint), "Token mint address to monitor")
	flags.StringVar(&cfg.Symbol, "symbol", d.str("TOKEN_SYMBOL", DefaultSymbol), "Token symbol shown in alerts")
	flags.StringVar(&cfg.DexScreenerAPI, "dexscreener-api", d.str("DEXSCREENER_API", DefaultDexScreenerAPI), "DexScreener API origin")
	flags.StringVar(&cfg.DexScreenerPair, "pair", d.str("DEXSCREENER_PAIR", DefaultDexScreenerPair), "DexScreener pair address of the token")
	flags.StringVar(&cfg.SOLUSDCPair, "sol-usdc-pair", d.str("SOL_USDC_PAIR", DefaultSOLUSDCPair), "DexScreener SOL/USDC pair for the SOL price fallback")
	flags.DurationVar(&cfg.PriceCacheTTL, "price-cache-ttl", d.duration("PRICE_CACHE_TTL", DefaultPriceCacheTTL), "Market data cache lifetime")

	cfg.MinBuyUSD = d.decimal("MIN_BUY_USD", DefaultMinBuyUSD)
	flags.Var((*decimalValue)(&cfg.MinBuyUSD), "min-buy-usd", "Minimum buy size in USD that triggers an alert")
	flags.DurationVar(&cfg.WalletCooldown, "wallet-cooldown", d.seconds("WALLET_COOLDOWN_SECONDS", DefaultCooldownSec), "Suppress repeat alerts for one wallet within this window")
	flags.DurationVar(&cfg.PollInterval, "poll-interval", d.duration("POLL_INTERVAL", DefaultPollInterval), "Pause between polls")
	flags.StringVar(&cfg.DEX, "dex", d.str("DEX", DefaultDEX), "Comma-separated DEX aliases (raydium, jupiter)")
	flags.StringVar(&cfg.Programs, "programs", d.str("PROGRAMS", ""), "Comma-separated DEX program IDs")
	flags.BoolVar(&cfg.SkipOffCurveOwners, "skip-off-curve-owners", d.bool("SKIP_OFF_CURVE_OWNERS", false), "Ignore program-derived token owners when picking the buyer")

	flags.StringVar(&cfg.AlertImage, "alert-image", d.str("ALERT_IMAGE", DefaultAlertImage), "Alert image file path or URL; empty sends text only")
	flags.DurationVar(&cfg.DeleteDelay, "delete-delay", d.seconds("ALERT_DELETE_DELAY", DefaultDeleteDelaySec), "Retract alerts after this delay, 0 keeps them")
	flags.BoolVar(&cfg.AwaitRetractions, "await-retractions", d.bool("AWAIT_RETRACTIONS", false), "On shutdown wait for pending retractions instead of abandoning them")

	flags.StringVar(&cfg.KnownChatsFile, "known-chats", d.str("KNOWN_CHATS_FILE", DefaultKnownChatsFile), "File with one destination chat ID per line")
	flags.BoolVar(&cfg.RegisterChats, "register-chats", d.bool("REGISTER_CHATS", true), "Add chats the bot receives updates from to the registry")
	chatIDs := flags.String("chat-ids", d.str("CHAT_IDS", ""), "Comma-separated extra destination chat IDs")

	flags.StringVar(&cfg.PostgresDSN, "postgres-dsn", d.str("POSTGRES_DSN", ""), "PostgreSQL connection string (destinations and alert log)")
	flags.StringVar(&cfg.ClickHouseDSN, "clickhouse-dsn", d.str("CLICKHOUSE_DSN", ""), "ClickHouse connection string (buy analytics)")

	flags.StringVar(&cfg.MetricsAddr, "metrics-addr", d.str("METRICS_ADDR", DefaultMetricsAddr), "HTTP address for /health, /metrics and /status")
	flags.StringVar(&cfg.LogLevel, "log-level", d.str("LOG_LEVEL", "info"), "Log level")
	flags.StringVar(&cfg.LogFormat, "log-format", d.str("LOG_FORMAT", "text"), "Log format (text or json)")

	if err := errors.Join(d.errs...); err != nil {
		return nil, err
	}
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	ids, err := ParseChatIDs(*chatIDs)
	if err != nil {
		return nil, err
	}
	cfg.ChatIDs = ids

	return cfg, nil
}

// ParseChatIDs parses a comma-separated list of chat IDs.
func ParseChatIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("invalid chat id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// defaults reads flag defaults from the environment, collecting parse errors.
type defaults struct {
	env  *Env
	errs []error
}

func (d *defaults) str(key, def string) string {
	if v := d.env.Get(key); v != "" {
		return v
	}
	return def
}

func (d *defaults) int(key string, def int) int {
	v := d.env.Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		d.errs = append(d.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (d *defaults) bool(key string, def bool) bool {
	v := d.env.Get(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		d.errs = append(d.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

func (d *defaults) duration(key string, def time.Duration) time.Duration {
	v := d.env.Get(key)
	if v == "" {
		return def
	}
	dur, err := time.ParseDuration(v)
	if err != nil {
		d.errs = append(d.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return dur
}

// seconds reads an integer number of seconds.
func (d *defaults) seconds(key string, def int) time.Duration {
	return time.Duration(d.int(key, def)) * time.Second
}

func (d *defaults) decimal(key, def string) decimal.Decimal {
	v := d.str(key, def)
	n, err := decimal.NewFromString(v)
	if err != nil {
		d.errs = append(d.errs, fmt.Errorf("%s: %w", key, err))
		return decimal.RequireFromString(def)
	}
	return n
}

// decimalValue adapts decimal.Decimal to flag.Value.
type decimalValue decimal.Decimal

func (v *decimalValue) String() string {
	return (*decimal.Decimal)(v).String()
}

func (v *decimalValue) Set(s string) error {
	n, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	*v = decimalValue(n)
	return nil
}
