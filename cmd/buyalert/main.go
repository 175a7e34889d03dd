// Package main runs the token buy-alert service: it polls the Solana RPC for
// transactions touching the mint, values buys with DexScreener prices and
// posts large ones to Telegram chats.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"solana-buy-alert/internal/alert"
	"solana-buy-alert/internal/config"
	"solana-buy-alert/internal/decision"
	"solana-buy-alert/internal/monitor"
	"solana-buy-alert/internal/observability"
	"solana-buy-alert/internal/oracle"
	"solana-buy-alert/internal/solana"
	"solana-buy-alert/internal/storage"
	chstore "solana-buy-alert/internal/storage/clickhouse"
	"solana-buy-alert/internal/storage/file"
	"solana-buy-alert/internal/storage/memory"
	"solana-buy-alert/internal/storage/migrations"
	pgstore "solana-buy-alert/internal/storage/postgres"
	"solana-buy-alert/internal/telegram"
)

// shutdownTimeout bounds graceful shutdown before the process is forced to exit.
const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	logger, err := cfg.NewLogger(os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("buy alert service failed")
	}
	logger.Info("shutdown complete")
}

func run(cfg *config.Config, logger *logrus.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.WithField("mint", cfg.Mint).Infof("starting buy alert monitor for %s", cfg.Symbol)
	logger.WithField("min_buy_usd", cfg.MinBuyUSD.String()).Info("minimum buy threshold")

	programs, err := cfg.ResolvePrograms()
	if err != nil {
		return err
	}
	logger.WithField("programs", programs).Info("monitoring DEX programs")

	stores, cleanup, err := createStores(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("create stores: %w", err)
	}
	defer cleanup()

	sink, err := telegram.New(cfg.BotToken, telegram.Options{Logger: logger})
	if err != nil {
		return err
	}
	logger.WithField("bot", sink.Username()).Info("connected to telegram")

	rpc := solana.NewHTTPClient(cfg.RPCHTTP,
		solana.WithMaxRetries(cfg.RPCMaxRetries),
		solana.WithCommitment(solana.CommitmentConfirmed),
		solana.WithCallObserver(func(method string, elapsed time.Duration, err error) {
			observability.RecordRPCCall(method, elapsed.Seconds(), err)
		}),
	)

	prices := oracle.New(oracle.Config{
		BaseURL:     cfg.DexScreenerAPI,
		PairAddress: cfg.DexScreenerPair,
		SOLUSDCPair: cfg.SOLUSDCPair,
		TTL:         cfg.PriceCacheTTL,
		Logger:      logger,
	})

	var ws solana.WSClient
	if cfg.RPCWS != "" {
		client, err := solana.NewWSClient(ctx, cfg.RPCWS, nil)
		if err != nil {
			logger.WithError(err).Warn("websocket unavailable, polling only")
		} else {
			ws = client
		}
	}

	decisionCfg := decision.DefaultConfig()
	decisionCfg.MinBuyUSD = cfg.MinBuyUSD
	decisionCfg.WalletCooldown = cfg.WalletCooldown

	sup := monitor.NewSupervisor(logger)
	handle, err := sup.Start(ctx, monitor.Options{
		Mint:               cfg.Mint,
		RPC:                rpc,
		WS:                 ws,
		Prices:             prices,
		Sink:               sink,
		Destinations:       stores.destinations,
		Alerts:             stores.alerts,
		BuyEvents:          stores.buyEvents,
		Decision:           &decisionCfg,
		Programs:           programs,
		SkipOffCurveOwners: cfg.SkipOffCurveOwners,
		Symbol:             cfg.Symbol,
		Image:              alertImage(cfg),
		DeleteDelay:        cfg.DeleteDelay,
		AwaitRetractions:   cfg.AwaitRetractions,
		PollInterval:       cfg.PollInterval,
		Logger:             logger,
	})
	if err != nil {
		if ws != nil {
			ws.Close()
		}
		if errors.Is(err, monitor.ErrNoDestinations) {
			return fmt.Errorf("%w: add chat IDs to %s or set CHAT_IDS", err, cfg.KnownChatsFile)
		}
		return fmt.Errorf("start monitor: %w", err)
	}

	srv := newHTTPServer(cfg.MetricsAddr, sup, logger)
	go srv.listen()

	if cfg.RegisterChats {
		// New chats are persisted and join the alert rotation on the next start.
		go sink.Registrar(stores.registry).Run(ctx)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.WithField("signal", sig.String()).Info("initiating graceful shutdown")
	case <-handle.Done():
		logger.Warn("monitor loop exited")
	}
	cancel()

	done := make(chan struct{})
	go func() {
		// A second signal or a stuck shutdown forces exit.
		select {
		case sig := <-sigCh:
			logger.WithField("signal", sig.String()).Warn("received second signal, forcing immediate shutdown")
			os.Exit(1)
		case <-time.After(shutdownTimeout + 5*time.Second):
			logger.Error("graceful shutdown timed out, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()
	defer close(done)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()

	if err := sup.Stop(stopCtx); err != nil {
		logger.WithError(err).Warn("monitor did not stop cleanly")
	}
	if err := srv.shutdown(stopCtx); err != nil {
		logger.WithError(err).Warn("http server shutdown")
	}
	return nil
}

// serviceStores holds the storage used by the monitor.
type serviceStores struct {
	registry     storage.DestinationStore // persistent, updated by the chat registrar
	destinations storage.DestinationStore // snapshot handed to the monitor
	alerts       storage.AlertStore
	buyEvents    storage.BuyEventStore // nil when analytics are disabled
}

// createStores opens the destination registry and the audit and analytics
// stores. PostgreSQL replaces the known-chats file when a DSN is set; chat
// IDs from CHAT_IDS are merged into the registry snapshot.
func createStores(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (*serviceStores, func(), error) {
	var (
		registry storage.DestinationStore
		alerts   storage.AlertStore
		closers  []func()
	)
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, pool.Close)

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
		registry = pgstore.NewDestinationStore(pool)
		alerts = pgstore.NewAlertStore(pool)
		logger.Info("using postgres destination registry and alert log")
	} else {
		registry = file.NewDestinationStore(cfg.KnownChatsFile)
		alerts = memory.NewAlertStore()
		logger.WithField("file", cfg.KnownChatsFile).Info("using known chats file")
	}

	ids, err := registry.List(ctx)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("load destinations: %w", err)
	}
	ids = mergeIDs(ids, cfg.ChatIDs)
	logger.WithField("count", len(ids)).Info("loaded alert destinations")

	stores := &serviceStores{
		registry:     registry,
		destinations: memory.NewDestinationStore(ids...),
		alerts:       alerts,
	}

	if cfg.ClickHouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouseDSN)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		closers = append(closers, func() { conn.Close() })
		stores.buyEvents = chstore.NewBuyEventStore(conn)
		logger.Info("recording buy events to clickhouse")
	}

	return stores, cleanup, nil
}

// mergeIDs returns the sorted union of a and b.
func mergeIDs(a, b []int64) []int64 {
	seen := make(map[int64]bool, len(a)+len(b))
	var out []int64
	for _, ids := range [][]int64{a, b} {
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func alertImage(cfg *config.Config) alert.Image {
	if cfg.AlertImage == "" {
		return alert.Image{}
	}
	if cfg.ImageIsURL() {
		return alert.Image{URL: cfg.AlertImage}
	}
	return alert.Image{Path: cfg.AlertImage}
}
