package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/fundvault/fundvault/internal/api"
	"github.com/fundvault/fundvault/internal/config"
	"github.com/fundvault/fundvault/internal/db"
	"github.com/fundvault/fundvault/internal/ethereum"
	"github.com/fundvault/fundvault/internal/ledger"
	"github.com/fundvault/fundvault/internal/notifications"
	"github.com/fundvault/fundvault/internal/oracle"
	"github.com/fundvault/fundvault/internal/repository"
	"github.com/fundvault/fundvault/internal/transfer"
)

const banner = `
╔══════════════════════════════════════╗
║            FundVault v0.1            ║
║   minimum-value ETH funding vault    ║
╚══════════════════════════════════════╝
`

func main() {
	fmt.Print(banner)

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config load", zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("config validation", zap.Error(err))
	}
	for _, w := range cfg.Warnings() {
		logger.Warn(w)
	}

	owner := common.HexToAddress(cfg.OwnerAddress)
	logger.Info("vault configured",
		zap.String("owner", owner.Hex()),
		zap.String("feed", cfg.FeedAddress),
		zap.Bool("paperMode", cfg.PaperModeEnabled))

	// Database (journal). Optional: the vault runs without it.
	var pool *pgxpool.Pool
	var journal *repository.JournalRepo
	if cfg.DBUser != "" {
		pool, err = db.Connect(cfg.DSN())
		if err != nil {
			logger.Fatal("database connect", zap.Error(err))
		}
		defer pool.Close()

		if err := db.EnsureSchema(context.Background(), pool); err != nil {
			logger.Fatal("database schema", zap.Error(err))
		}
		journal = repository.NewJournalRepo(pool)
		logger.Info("deposit journal enabled",
			zap.String("host", cfg.DBHost), zap.String("db", cfg.DBName))
	} else {
		logger.Warn("DB_USER not set — deposit journal disabled")
	}

	var ethClient *ethereum.Client
	if cfg.EthereumAPIEndpoint != "" {
		ethClient, err = ethereum.NewClient(cfg.EthereumAPIEndpoint, cfg.PrivateKey,
			int64(cfg.ChainID), cfg.GasLimit, cfg.GasMultiplier)
		if err != nil {
			logger.Fatal("ethereum client", zap.Error(err))
		}
		defer ethClient.Close()
	}

	// Oracle feed: on-chain aggregator by default, HTTP or static price
	// for deployments without chain access.
	var feed oracle.Feed
	switch {
	case cfg.FeedSource == "coingecko":
		feed = oracle.NewCoinGeckoFeed(logger)
	case cfg.FeedSource == "chainlink" && ethClient != nil:
		feed, err = oracle.NewChainlinkFeed(ethClient, cfg.FeedAddress)
		if err != nil {
			logger.Fatal("price feed", zap.Error(err))
		}
	default:
		feed = oracle.NewStaticFeed(usdToFeedUnits(cfg.PaperPriceUSD, cfg.FeedDecimals))
	}

	adapter, err := oracle.NewAdapter(feed, cfg.FeedDecimals)
	if err != nil {
		logger.Fatal("price adapter", zap.Error(err))
	}

	// Asset-transfer primitive: simulated book in paper mode, signed
	// transactions in live mode.
	var sender ledger.Sender
	var credit api.Crediter
	if cfg.PaperModeEnabled {
		sim := transfer.NewSimSender(ethToWei(cfg.PaperInitialETH), logger)
		sender = sim
		credit = sim
	} else {
		sender = transfer.NewEthSender(ethClient, logger)
	}

	led := ledger.New(owner, adapter, sender, logger)

	notify := notifications.NewSender(cfg.WebhookURL, cfg.ServiceName, logger)

	// Graceful shutdown context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := api.NewServer(api.ServerConfig{
		Vault:      led,
		Oracle:     adapter,
		Journal:    journal,
		Notify:     notify,
		Credit:     credit,
		Pool:       pool,
		Port:       cfg.APIPort,
		APIKey:     cfg.APIKey,
		CORSOrigin: cfg.CORSAllowOrigin,
		Log:        logger,
	})
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("api server", zap.Error(err))
		}
	}()

	logger.Info("all services started")

	<-ctx.Done()
	logger.Info("shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("api shutdown", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func ethToWei(eth float64) *big.Int {
	f := new(big.Float).Mul(big.NewFloat(eth), big.NewFloat(1e18))
	i, _ := f.Int(nil)
	return i
}

func usdToFeedUnits(usd float64, feedDecimals int) *big.Int {
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(feedDecimals)), nil))
	f := new(big.Float).Mul(big.NewFloat(usd), scale)
	i, _ := f.Int(nil)
	return i
}
