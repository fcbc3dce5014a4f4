package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"launchpad/internal/amount"
	"launchpad/internal/contracts"
	"launchpad/internal/sale"
)

func main() {
	root := &cobra.Command{
		Use:          "launchpad",
		Short:        "Token launch platform client",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().StringSlice("rpc", nil, "RPC URLs (comma-separated, first is primary)")
	root.PersistentFlags().Uint64("chain-id", 11155111, "required chain id")
	root.PersistentFlags().String("factory-address", "", "token sale factory address")
	root.PersistentFlags().String("staking-address", "", "staking contract address")
	root.PersistentFlags().String("staking-token-address", "", "staking token address")
	root.PersistentFlags().String("tier-system-address", "", "tier system address")
	root.PersistentFlags().String("tier-nft-address", "", "tier NFT address")
	root.PersistentFlags().String("vesting-address", "", "vesting contract address")
	root.PersistentFlags().String("private-key", "", "hex private key")
	root.PersistentFlags().String("keystore", "", "keystore file path")
	root.PersistentFlags().String("keystore-pass", "", "keystore passphrase")
	root.PersistentFlags().String("mnemonic", "", "BIP39 mnemonic")
	root.PersistentFlags().Uint32("mnemonic-index", 0, "BIP44 account index")
	root.PersistentFlags().Bool("yes", false, "approve transactions without prompting")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(
		salesCmd(),
		buyCmd(),
		createSaleCmd(),
		claimCmd(),
		finalizeCmd(),
		stakeCmd(),
		unstakeCmd(),
		claimRewardsCmd(),
		stakingInfoCmd(),
		faucetCmd(),
		balanceCmd(),
		tierCmd(),
		stakeTierCmd(),
		unstakeTierCmd(),
		mintNFTCmd(),
		vestingCmd(),
		claimVestedCmd(),
		txCmd(),
		serveCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func salesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sales [sale-id]",
		Short: "List sales or show one sale",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if len(args) == 1 {
				id, err := strconv.ParseUint(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid sale id %q", args[0])
				}
				record, _, err := a.cache.Sale(ctx, id)
				if err != nil {
					return err
				}
				if record.Token == "" {
					return fmt.Errorf("sale %d not found", id)
				}
				printSale(record.ID, record.TokenName, record.TokenSymbol, record.Status, record.Progress().String())
				fmt.Printf("  price:        %s\n", amount.Format(mustBig(record.TokenPrice)))
				fmt.Printf("  supply:       %s\n", amount.Format(mustBig(record.TotalSupply)))
				fmt.Printf("  sold:         %s\n", amount.Format(mustBig(record.SoldAmount)))
				fmt.Printf("  raised:       %s\n", amount.Format(mustBig(record.RaisedAmount)))
				fmt.Printf("  window:       %s .. %s\n", record.StartTime.Format(time.RFC3339), record.EndTime.Format(time.RFC3339))
				fmt.Printf("  participants: %d\n", record.ParticipantCount)
				return nil
			}

			records, stale, err := a.cache.Sales(ctx)
			if err != nil {
				return err
			}
			if stale {
				fmt.Println("(showing last known data, refresh failed)")
			}
			for _, record := range records {
				printSale(record.ID, record.TokenName, record.TokenSymbol, record.Status, record.Progress().String())
			}
			return nil
		},
	}
	return cmd
}

func printSale(id uint64, name, symbol, status, progress string) {
	fmt.Printf("#%-3d %-24s %-8s %-10s %s%%\n", id, name, symbol, status, progress)
}

func mustBig(raw string) *big.Int {
	value, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return new(big.Int)
	}
	return value
}

func buyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "buy <sale-id> <token-amount> [eth-amount]",
		Short: "Buy tokens from an active sale",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.connect(ctx); err != nil {
				return err
			}

			saleID, ok := new(big.Int).SetString(args[0], 10)
			if !ok {
				return fmt.Errorf("invalid sale id %q", args[0])
			}
			tokens, err := amount.Parse(args[1])
			if err != nil {
				return err
			}

			var payment *big.Int
			if len(args) == 3 {
				if payment, err = amount.Parse(args[2]); err != nil {
					return err
				}
			} else {
				info, err := a.sales.GetSaleInfo(ctx, saleID)
				if err != nil {
					return err
				}
				payment = sale.Cost(tokens, info.TokenPrice)
				fmt.Printf("paying %s native for %s tokens\n", amount.Format(payment), args[1])
			}

			receipt, err := a.sales.BuyTokens(ctx, saleID, tokens, payment)
			if err != nil {
				return err
			}
			fmt.Printf("purchase confirmed in tx %s\n", receipt.TxHash.Hex())
			return nil
		},
	}
}

func createSaleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-sale",
		Short: "Create a new token sale",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.connect(ctx); err != nil {
				return err
			}

			flags := cmd.Flags()
			token, _ := flags.GetString("token")
			if !common.IsHexAddress(token) {
				return fmt.Errorf("invalid token address %q", token)
			}

			price, err := parseFlagAmount(flags.GetString("price"))
			if err != nil {
				return fmt.Errorf("price: %w", err)
			}
			supply, err := parseFlagAmount(flags.GetString("supply"))
			if err != nil {
				return fmt.Errorf("supply: %w", err)
			}
			softCap, err := parseFlagAmount(flags.GetString("soft-cap"))
			if err != nil {
				return fmt.Errorf("soft cap: %w", err)
			}
			hardCap, err := parseFlagAmount(flags.GetString("hard-cap"))
			if err != nil {
				return fmt.Errorf("hard cap: %w", err)
			}

			start, err := parseFlagTime(flags.GetString("start"))
			if err != nil {
				return fmt.Errorf("start: %w", err)
			}
			end, err := parseFlagTime(flags.GetString("end"))
			if err != nil {
				return fmt.Errorf("end: %w", err)
			}

			saleTypeName, _ := flags.GetString("type")
			saleType, err := parseSaleType(saleTypeName)
			if err != nil {
				return err
			}
			whitelist, _ := flags.GetBool("whitelist")

			receipt, err := a.sales.CreateSale(ctx, sale.CreateSaleParams{
				Token:            common.HexToAddress(token),
				TokenPrice:       price,
				TotalSupply:      supply,
				SoftCap:          softCap,
				HardCap:          hardCap,
				StartTime:        big.NewInt(start.Unix()),
				EndTime:          big.NewInt(end.Unix()),
				SaleType:         saleType,
				WhitelistEnabled: whitelist,
			})
			if err != nil {
				return err
			}
			fmt.Printf("sale created in tx %s\n", receipt.TxHash.Hex())
			return nil
		},
	}

	cmd.Flags().String("token", "", "token contract address")
	cmd.Flags().String("price", "", "price per whole token, in native units")
	cmd.Flags().String("supply", "", "total sale supply, in tokens")
	cmd.Flags().String("soft-cap", "", "soft cap, in native units")
	cmd.Flags().String("hard-cap", "", "hard cap, in native units")
	cmd.Flags().String("start", "", "start time (RFC3339 or unix seconds)")
	cmd.Flags().String("end", "", "end time (RFC3339 or unix seconds)")
	cmd.Flags().String("type", "fixed", "sale type (fixed, dutch, lottery)")
	cmd.Flags().Bool("whitelist", false, "enable the whitelist")
	return cmd
}

func claimCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "claim <sale-id>",
		Short: "Claim purchased tokens after a sale finalizes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSaleAction(cmd, args[0], func(ctx context.Context, a *app, id *big.Int) (common.Hash, error) {
				receipt, err := a.sales.ClaimTokens(ctx, id)
				if err != nil {
					return common.Hash{}, err
				}
				return receipt.TxHash, nil
			})
		},
	}
}

func finalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "finalize <sale-id>",
		Short: "Finalize an ended sale",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSaleAction(cmd, args[0], func(ctx context.Context, a *app, id *big.Int) (common.Hash, error) {
				receipt, err := a.sales.FinalizeSale(ctx, id)
				if err != nil {
					return common.Hash{}, err
				}
				return receipt.TxHash, nil
			})
		},
	}
}

func runSaleAction(cmd *cobra.Command, rawID string, action func(context.Context, *app, *big.Int) (common.Hash, error)) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.connect(ctx); err != nil {
		return err
	}

	saleID, ok := new(big.Int).SetString(rawID, 10)
	if !ok {
		return fmt.Errorf("invalid sale id %q", rawID)
	}
	hash, err := action(ctx, a, saleID)
	if err != nil {
		return err
	}
	fmt.Printf("confirmed in tx %s\n", hash.Hex())
	return nil
}

func stakeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stake <amount>",
		Short: "Stake tokens in the staking contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAmountAction(cmd, args[0], func(ctx context.Context, a *app, value *big.Int) (common.Hash, error) {
				receipt, err := a.staking.Stake(ctx, value)
				if err != nil {
					return common.Hash{}, err
				}
				return receipt.TxHash, nil
			})
		},
	}
}

func unstakeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unstake <amount>",
		Short: "Withdraw staked tokens after the lock period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAmountAction(cmd, args[0], func(ctx context.Context, a *app, value *big.Int) (common.Hash, error) {
				receipt, err := a.staking.Unstake(ctx, value)
				if err != nil {
					return common.Hash{}, err
				}
				return receipt.TxHash, nil
			})
		},
	}
}

func claimRewardsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "claim-rewards",
		Short: "Claim pending staking rewards",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.connect(ctx); err != nil {
				return err
			}
			receipt, err := a.staking.ClaimRewards(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("rewards claimed in tx %s\n", receipt.TxHash.Hex())
			return nil
		},
	}
}

func stakingInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "staking-info [address]",
		Short: "Show a staking position",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.close()

			addr, err := resolveAddress(ctx, a, args)
			if err != nil {
				return err
			}
			info, err := a.staking.GetStakeInfo(ctx, addr)
			if err != nil {
				return err
			}
			fmt.Printf("staked:          %s\n", amount.Format(info.StakedAmount))
			fmt.Printf("tier:            %d\n", info.Tier)
			fmt.Printf("pending rewards: %s\n", amount.Format(info.PendingRewards))
			if info.UnlockTime.Sign() > 0 {
				fmt.Printf("unlocks:         %s\n", time.Unix(info.UnlockTime.Int64(), 0).Format(time.RFC3339))
			}
			return nil
		},
	}
}

func faucetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "faucet <amount>",
		Short: "Mint test tokens (max 1000 per request)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAmountAction(cmd, args[0], func(ctx context.Context, a *app, value *big.Int) (common.Hash, error) {
				receipt, err := a.staking.Faucet(ctx, value)
				if err != nil {
					return common.Hash{}, err
				}
				return receipt.TxHash, nil
			})
		},
	}
}

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance [address]",
		Short: "Show native and staking token balances",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.close()

			addr, err := resolveAddress(ctx, a, args)
			if err != nil {
				return err
			}

			native, err := a.connector.NativeBalance(ctx, addr)
			if err != nil {
				return err
			}
			fmt.Printf("native: %s\n", amount.Format(native))

			if tokens, err := a.staking.TokenBalance(ctx, addr); err == nil {
				fmt.Printf("tokens: %s\n", amount.Format(tokens))
			}
			return nil
		},
	}
}

func tierCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tier [address]",
		Short: "Show a user's resolved tier",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.close()

			addr, err := resolveAddress(ctx, a, args)
			if err != nil {
				return err
			}
			res, err := a.tiers.Resolve(ctx, addr)
			if err != nil {
				return err
			}
			fmt.Printf("tier:         %d (via %s)\n", res.Tier, res.Source)
			fmt.Printf("staked:       %s\n", amount.Format(res.StakedAmount))
			fmt.Printf("multiplier:   %sx/100\n", res.AllocationMultiplier)
			fmt.Printf("early access: %sh\n", res.EarlyAccessHours)
			return nil
		},
	}
}

func stakeTierCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stake-tier <amount>",
		Short: "Stake through the tier system contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAmountAction(cmd, args[0], func(ctx context.Context, a *app, value *big.Int) (common.Hash, error) {
				receipt, err := a.tiers.StakeTokens(ctx, value)
				if err != nil {
					return common.Hash{}, err
				}
				return receipt.TxHash, nil
			})
		},
	}
}

func unstakeTierCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unstake-tier <amount>",
		Short: "Withdraw from the tier system contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAmountAction(cmd, args[0], func(ctx context.Context, a *app, value *big.Int) (common.Hash, error) {
				receipt, err := a.tiers.UnstakeTokens(ctx, value)
				if err != nil {
					return common.Hash{}, err
				}
				return receipt.TxHash, nil
			})
		},
	}
}

func mintNFTCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mint-nft",
		Short: "Mint a tier NFT",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.connect(ctx); err != nil {
				return err
			}
			receipt, err := a.tiers.MintTierNFT(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("minted in tx %s\n", receipt.TxHash.Hex())
			return nil
		},
	}
}

func vestingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vesting [address]",
		Short: "List vesting schedules for an address",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.close()

			addr, err := resolveAddress(ctx, a, args)
			if err != nil {
				return err
			}
			ids, err := a.vesting.UserSchedules(ctx, addr)
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				fmt.Println("no vesting schedules")
				return nil
			}
			for _, id := range ids {
				sched, err := a.vesting.Schedule(ctx, id)
				if err != nil {
					return err
				}
				claimable := "?"
				if c, err := a.vesting.ClaimableAmount(ctx, id); err == nil {
					claimable = amount.Format(c)
				}
				fmt.Printf("%s\n", common.Hash(id).Hex())
				fmt.Printf("  total %s, claimed %s, claimable %s\n",
					amount.Format(sched.TotalAmount), amount.Format(sched.ClaimedAmount), claimable)
				if unlock, err := a.vesting.NextUnlock(ctx, id); err == nil && unlock.Time.Sign() > 0 {
					fmt.Printf("  next unlock %s (%s)\n",
						time.Unix(unlock.Time.Int64(), 0).Format(time.RFC3339), amount.Format(unlock.Amount))
				}
			}
			return nil
		},
	}
}

func claimVestedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "claim-vested <schedule-id>",
		Short: "Claim unlocked tokens from a vesting schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.connect(ctx); err != nil {
				return err
			}

			var id [32]byte
			hash := common.HexToHash(args[0])
			copy(id[:], hash[:])

			receipt, err := a.vesting.ClaimTokens(ctx, id)
			if err != nil {
				return err
			}
			fmt.Printf("claimed in tx %s\n", receipt.TxHash.Hex())
			return nil
		},
	}
}

func txCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Inspect the transaction journal",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "pending",
		Short: "List journaled transactions still awaiting a receipt",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.close()

			pending := a.journal.Pending()
			if len(pending) == 0 {
				fmt.Println("no pending transactions")
				return nil
			}
			for _, record := range pending {
				fmt.Printf("%s %-16s %s\n", record.Submitted.Format(time.RFC3339), record.Method, record.Hash.Hex())
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reconcile",
		Short: "Re-check pending transactions against the chain",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.close()

			backend := a.connector.Backend()
			if backend == nil {
				return fmt.Errorf("an rpc endpoint is required to reconcile")
			}
			still, err := a.journal.Reconcile(ctx, backend, a.logger)
			if err != nil {
				return err
			}
			if err := a.archiveHistory(ctx); err != nil {
				a.logger.Warn("history archive failed", zap.Error(err))
			}
			fmt.Printf("%d transaction(s) still pending\n", len(still))
			return nil
		},
	})

	return cmd
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read API over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.close()

			return a.server().Serve(a.cfg.ListenAddr)
		},
	}
	cmd.Flags().String("listen", ":8080", "listen address")
	return cmd
}

// runAmountAction wires the common connect-parse-submit flow of the
// amount-taking commands.
func runAmountAction(cmd *cobra.Command, raw string, action func(context.Context, *app, *big.Int) (common.Hash, error)) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.connect(ctx); err != nil {
		return err
	}

	value, err := amount.Parse(raw)
	if err != nil {
		return err
	}
	hash, err := action(ctx, a, value)
	if err != nil {
		return err
	}
	fmt.Printf("confirmed in tx %s\n", hash.Hex())
	return nil
}

// resolveAddress picks the explicit argument or falls back to the
// configured signer's address.
func resolveAddress(ctx context.Context, a *app, args []string) (common.Address, error) {
	if len(args) == 1 {
		if !common.IsHexAddress(args[0]) {
			return common.Address{}, fmt.Errorf("invalid address %q", args[0])
		}
		return common.HexToAddress(args[0]), nil
	}
	if signer := a.connector.Signer(); signer != nil {
		return signer.Address(), nil
	}
	return common.Address{}, fmt.Errorf("an address argument or signer configuration is required")
}

func parseFlagAmount(raw string, flagErr error) (*big.Int, error) {
	if flagErr != nil {
		return nil, flagErr
	}
	return amount.Parse(raw)
}

func parseFlagTime(raw string, flagErr error) (time.Time, error) {
	if flagErr != nil {
		return time.Time{}, flagErr
	}
	if unix, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(unix, 0), nil
	}
	return time.Parse(time.RFC3339, raw)
}

func parseSaleType(name string) (contracts.SaleType, error) {
	switch name {
	case "fixed":
		return contracts.SaleTypeFixed, nil
	case "dutch":
		return contracts.SaleTypeDutch, nil
	case "lottery":
		return contracts.SaleTypeLottery, nil
	default:
		return 0, fmt.Errorf("unknown sale type %q (fixed, dutch, lottery)", name)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
