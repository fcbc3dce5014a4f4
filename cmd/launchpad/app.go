package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"launchpad/internal/api"
	"launchpad/internal/chain"
	"launchpad/internal/config"
	"launchpad/internal/registry"
	"launchpad/internal/sale"
	"launchpad/internal/staking"
	"launchpad/internal/store"
	"launchpad/internal/tier"
	"launchpad/internal/txmgr"
	"launchpad/internal/types"
	"launchpad/internal/vesting"
	"launchpad/internal/wallet"
)

// app bundles the wired services for one command invocation.
type app struct {
	cfg       config.Config
	logger    *zap.Logger
	connector *wallet.Connector
	registry  *registry.Registry
	journal   *txmgr.Journal
	mgr       *txmgr.Manager
	sales     *sale.Service
	staking   *staking.Service
	tiers     *tier.Service
	vesting   *vesting.Service
	cache     *store.SaleCache
	profiles  store.ProfileStore
	client    *chain.Client
}

// newApp loads config and wires every service. An absent RPC endpoint
// leaves the connector provider-less; demo data still works.
func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}

	var backend chain.Backend
	if len(cfg.RPCURLs) > 0 {
		client, err := chain.New(ctx, chain.Options{
			URLs:          cfg.RPCURLs,
			RetryAttempts: uint(cfg.RetryAttempts),
			RetryDelay:    cfg.RetryBackoff,
			RateLimit:     rate.Limit(cfg.RateLimit),
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("connect rpc: %w", err)
		}
		a.client = client
		backend = client
	}

	signer, err := cfg.Signer()
	if err != nil {
		return nil, err
	}

	dial := func(ctx context.Context, rpcURL string) (chain.Backend, error) {
		return chain.New(ctx, chain.Options{
			URLs:          []string{rpcURL},
			RetryAttempts: uint(cfg.RetryAttempts),
			RetryDelay:    cfg.RetryBackoff,
			RateLimit:     rate.Limit(cfg.RateLimit),
		}, logger)
	}

	a.connector = wallet.NewConnector(backend, signer, cfg.RequiredNetwork(), cfg.NetworkTable(), dial, logger)
	a.registry = registry.New(cfg.Addresses)

	a.journal, err = txmgr.OpenJournal(cfg.JournalPath)
	if err != nil {
		return nil, err
	}

	var approver txmgr.Approver
	if cfg.AutoApprove {
		approver = txmgr.AutoApprove
	} else {
		approver = consoleApprover{}
	}
	a.mgr = txmgr.New(a.connector, approver, a.journal, logger, txmgr.Options{
		PollInterval: cfg.TxPollInterval,
		MineTimeout:  cfg.TxTimeout,
	})

	if a.sales, err = sale.NewService(a.connector, a.registry, a.mgr, logger); err != nil {
		return nil, err
	}
	if a.staking, err = staking.NewService(a.connector, a.registry, a.mgr, logger); err != nil {
		return nil, err
	}
	if a.tiers, err = tier.NewService(a.connector, a.registry, a.mgr, logger); err != nil {
		return nil, err
	}
	if a.vesting, err = vesting.NewService(a.connector, a.registry, a.mgr, logger); err != nil {
		return nil, err
	}

	demo := store.NewDemoFetcher(time.Now())
	var fetch, fallback store.FetchFunc
	if backend != nil && a.registry.Available(registry.TokenSaleFactory) {
		fetch = store.NewChainFetcher(a.sales, a.connector, logger)
		fallback = demo
	} else {
		logger.Info("no factory configured, serving demo sale data")
		fetch = demo
	}
	a.cache = store.NewSaleCache(fetch, fallback, cfg.CacheTTL, logger)

	if cfg.PGDSN != "" {
		pg, err := store.NewPostgresStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.profiles = pg
	} else {
		a.profiles = store.NewFileProfileStore(cfg.ProfilesPath)
	}

	return a, nil
}

func (a *app) close() {
	if a.profiles != nil {
		a.profiles.Close()
	}
	if a.client != nil {
		a.client.Close()
	}
	_ = a.logger.Sync()
}

// connect establishes the signer-backed session required by mutating
// commands and refreshes the local profile for the connected address.
func (a *app) connect(ctx context.Context) error {
	addr, err := a.connector.Connect(ctx)
	if err != nil {
		return err
	}
	a.logger.Info("session ready", zap.String("address", addr.Hex()))

	profile, err := a.profiles.GetProfile(ctx, addr.Hex())
	if err != nil {
		if !errors.Is(err, store.ErrProfileNotFound) {
			a.logger.Warn("profile load failed", zap.Error(err))
			return nil
		}
		profile = types.Profile{Address: addr.Hex()}
	}
	// a failed tier lookup keeps the previously known tier
	if res, err := a.tiers.Resolve(ctx, addr); err == nil {
		profile.Tier = res.Tier
		profile.StakedAmount = res.StakedAmount.String()
	} else {
		a.logger.Debug("tier refresh failed", zap.Error(err))
	}
	if err := a.profiles.UpsertProfile(ctx, profile); err != nil {
		a.logger.Warn("profile save failed", zap.Error(err))
	}
	return nil
}

// archiveHistory copies the journal into postgres when one is
// configured, so transaction history outlives the local file.
func (a *app) archiveHistory(ctx context.Context) error {
	pg, ok := a.profiles.(*store.PostgresStore)
	if !ok {
		return nil
	}
	records := a.journal.All()
	rows := make([]store.TransactionRow, 0, len(records))
	for _, record := range records {
		rows = append(rows, store.TransactionRow{
			OpID:      record.OpID,
			Hash:      record.Hash.Hex(),
			Method:    record.Method,
			To:        record.To.Hex(),
			Value:     record.Value,
			Status:    string(record.Status),
			Submitted: record.Submitted.Format(time.RFC3339),
		})
	}
	return pg.ArchiveTransactions(ctx, rows)
}

func (a *app) server() *api.Server {
	return api.New(a.cache, a.staking, a.tiers, a.vesting, a.profiles, a.logger)
}

// consoleApprover shows the transaction preview on the terminal and asks
// for confirmation before anything is signed.
type consoleApprover struct{}

func (consoleApprover) Approve(_ context.Context, p txmgr.Preview) (bool, error) {
	fmt.Printf("about to send %s\n", p.Method)
	fmt.Printf("  to:        %s\n", p.To.Hex())
	fmt.Printf("  from:      %s\n", p.From.Hex())
	fmt.Printf("  value:     %s wei\n", p.Value)
	fmt.Printf("  gas limit: %d\n", p.GasLimit)
	fmt.Printf("  gas price: %s\n", p.GasPrice)
	fmt.Print("proceed? [y/N]: ")

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
