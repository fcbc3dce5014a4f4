package store

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"launchpad/internal/chain"
	"launchpad/internal/contracts"
	"launchpad/internal/sale"
	"launchpad/internal/types"
	"launchpad/internal/wallet"
)

// SaleSource is the subset of the sale service the fetcher needs.
type SaleSource interface {
	SaleCounter(ctx context.Context) (*big.Int, error)
	GetSaleInfo(ctx context.Context, saleID *big.Int) (contracts.SaleInfo, error)
}

// NewChainFetcher enumerates every sale through the factory and decorates
// each with best-effort token metadata. A sale that fails to read is
// skipped with a warning rather than failing the whole snapshot; token
// name and symbol fall back to placeholders. getSaleInfo does not expose
// the whitelist and vesting flags, so they stay false for chain-sourced
// sales.
func NewChainFetcher(source SaleSource, connector *wallet.Connector, logger *zap.Logger) FetchFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context) ([]types.SaleRecord, error) {
		counter, err := source.SaleCounter(ctx)
		if err != nil {
			return nil, err
		}

		erc20, err := contracts.ERC20ABI()
		if err != nil {
			return nil, fmt.Errorf("erc20 abi: %w", err)
		}
		backend := connector.Backend()

		total := counter.Uint64()
		records := make([]types.SaleRecord, 0, total)
		for id := uint64(0); id < total; id++ {
			info, err := source.GetSaleInfo(ctx, new(big.Int).SetUint64(id))
			if err != nil {
				logger.Warn("skipping unreadable sale", zap.Uint64("sale_id", id), zap.Error(err))
				continue
			}

			record := types.SaleRecord{
				ID:               id,
				Token:            info.Token.Hex(),
				TokenName:        "Unknown Token",
				TokenSymbol:      "UNKNOWN",
				Creator:          info.Creator.Hex(),
				TokenPrice:       info.TokenPrice.String(),
				TotalSupply:      info.TotalSupply.String(),
				SoldAmount:       info.SoldAmount.String(),
				RaisedAmount:     sale.Cost(info.SoldAmount, info.TokenPrice).String(),
				SoftCap:          info.SoftCap.String(),
				HardCap:          info.HardCap.String(),
				StartTime:        time.Unix(info.StartTime.Int64(), 0).UTC(),
				EndTime:          time.Unix(info.EndTime.Int64(), 0).UTC(),
				SaleType:         info.SaleType.String(),
				Status:           info.Status.String(),
				ParticipantCount: info.ParticipantCount.Uint64(),
			}

			if backend != nil {
				if name, err := chain.CallString(ctx, backend, info.Token, erc20, "name"); err == nil {
					record.TokenName = name
				}
				if symbol, err := chain.CallString(ctx, backend, info.Token, erc20, "symbol"); err == nil {
					record.TokenSymbol = symbol
				}
			}
			records = append(records, record)
		}
		return records, nil
	}
}
