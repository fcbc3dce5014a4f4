// Package sale drives the token sale factory: browsing sales, creating
// them, and buying into active ones.
package sale

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"launchpad/internal/cerrors"
	"launchpad/internal/chain"
	"launchpad/internal/contracts"
	"launchpad/internal/registry"
	"launchpad/internal/txmgr"
	"launchpad/internal/wallet"
)

// weiPerToken converts a token amount priced per whole token into the
// native value owed: cost = amount * price / 1e18.
var weiPerToken = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// CreateSaleParams carries the positional createSale arguments. MerkleRoot
// stays zero when the whitelist is disabled.
type CreateSaleParams struct {
	Token            common.Address
	TokenPrice       *big.Int
	TotalSupply      *big.Int
	SoftCap          *big.Int
	HardCap          *big.Int
	StartTime        *big.Int
	EndTime          *big.Int
	SaleType         contracts.SaleType
	WhitelistEnabled bool
	MerkleRoot       [32]byte
}

// Service exposes the sale factory operations.
type Service struct {
	connector *wallet.Connector
	registry  *registry.Registry
	mgr       *txmgr.Manager
	logger    *zap.Logger
	factory   abi.ABI
	now       func() time.Time
}

// NewService builds the sale service.
func NewService(connector *wallet.Connector, reg *registry.Registry, mgr *txmgr.Manager, logger *zap.Logger) (*Service, error) {
	factory, err := contracts.FactoryABI()
	if err != nil {
		return nil, fmt.Errorf("factory abi: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		connector: connector,
		registry:  reg,
		mgr:       mgr,
		logger:    logger,
		factory:   factory,
		now:       time.Now,
	}, nil
}

func (s *Service) backend() (chain.Backend, error) {
	backend := s.connector.Backend()
	if backend == nil {
		return nil, fmt.Errorf("%w: no rpc endpoint configured", cerrors.ErrProviderMissing)
	}
	return backend, nil
}

func (s *Service) factoryAddress() (common.Address, error) {
	return s.registry.Require(registry.TokenSaleFactory)
}

// SaleCounter returns the number of sales ever created; sale ids run
// from 0 to counter-1.
func (s *Service) SaleCounter(ctx context.Context) (*big.Int, error) {
	backend, err := s.backend()
	if err != nil {
		return nil, err
	}
	factory, err := s.factoryAddress()
	if err != nil {
		return nil, err
	}
	return chain.CallBigInt(ctx, backend, factory, s.factory, "saleCounter")
}

// GetSaleInfo reads one sale's full on-chain state.
func (s *Service) GetSaleInfo(ctx context.Context, saleID *big.Int) (contracts.SaleInfo, error) {
	backend, err := s.backend()
	if err != nil {
		return contracts.SaleInfo{}, err
	}
	factory, err := s.factoryAddress()
	if err != nil {
		return contracts.SaleInfo{}, err
	}
	values, err := chain.Call(ctx, backend, factory, s.factory, "getSaleInfo", saleID)
	if err != nil {
		return contracts.SaleInfo{}, err
	}
	info, err := contracts.DecodeSaleInfo(values)
	if err != nil {
		return contracts.SaleInfo{}, cerrors.ReadError("getSaleInfo", err)
	}
	return info, nil
}

// GetUserContribution reads how much native currency a user has put into
// a sale.
func (s *Service) GetUserContribution(ctx context.Context, saleID *big.Int, user common.Address) (*big.Int, error) {
	backend, err := s.backend()
	if err != nil {
		return nil, err
	}
	factory, err := s.factoryAddress()
	if err != nil {
		return nil, err
	}
	return chain.CallBigInt(ctx, backend, factory, s.factory, "getUserContribution", saleID, user)
}

// GetUserSales lists the sale ids a user created.
func (s *Service) GetUserSales(ctx context.Context, user common.Address) ([]*big.Int, error) {
	backend, err := s.backend()
	if err != nil {
		return nil, err
	}
	factory, err := s.factoryAddress()
	if err != nil {
		return nil, err
	}
	values, err := chain.Call(ctx, backend, factory, s.factory, "getUserSales", user)
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, cerrors.ReadError("getUserSales", fmt.Errorf("expected 1 value, got %d", len(values)))
	}
	ids, ok := values[0].([]*big.Int)
	if !ok {
		return nil, cerrors.ReadError("getUserSales", fmt.Errorf("unsupported type %T", values[0]))
	}
	return ids, nil
}

// Cost returns the native value owed for a token amount at a sale's price.
func Cost(tokenAmount, tokenPrice *big.Int) *big.Int {
	cost := new(big.Int).Mul(tokenAmount, tokenPrice)
	return cost.Div(cost, weiPerToken)
}

// BuyTokens purchases from an active sale, attaching ethAmount as the
// native value. Obvious failures (bad amounts, inactive sale) are
// rejected locally before the chain sees anything.
func (s *Service) BuyTokens(ctx context.Context, saleID, tokenAmount, ethAmount *big.Int) (*types.Receipt, error) {
	if tokenAmount == nil || tokenAmount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: token amount must be positive", cerrors.ErrInvalidAmount)
	}
	if ethAmount == nil || ethAmount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: payment amount must be positive", cerrors.ErrInvalidAmount)
	}

	info, err := s.GetSaleInfo(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if err := s.checkActive(info); err != nil {
		return nil, err
	}

	factory, err := s.factoryAddress()
	if err != nil {
		return nil, err
	}

	s.logger.Info("buying tokens",
		zap.String("sale_id", saleID.String()),
		zap.String("token_amount", tokenAmount.String()),
		zap.String("value_wei", ethAmount.String()))

	return s.mgr.Execute(ctx, txmgr.Call{
		To:     factory,
		ABI:    s.factory,
		Method: "buyTokens",
		Args:   []interface{}{saleID, tokenAmount},
		Value:  ethAmount,
	})
}

func (s *Service) checkActive(info contracts.SaleInfo) error {
	if info.Status != contracts.SaleActive {
		return fmt.Errorf("%w: sale is %s", cerrors.ErrSaleNotActive, info.Status)
	}
	now := big.NewInt(s.now().Unix())
	if now.Cmp(info.StartTime) < 0 {
		return fmt.Errorf("%w: sale has not started", cerrors.ErrSaleNotActive)
	}
	if now.Cmp(info.EndTime) > 0 {
		return fmt.Errorf("%w: sale has ended", cerrors.ErrSaleNotActive)
	}
	return nil
}

// CreateSale lists a new sale. The factory pulls the sale supply from the
// creator, so the token allowance is topped up first and the createSale
// transaction only goes out once the approval has mined.
func (s *Service) CreateSale(ctx context.Context, params CreateSaleParams) (*types.Receipt, error) {
	if err := validateCreate(params); err != nil {
		return nil, err
	}
	factory, err := s.factoryAddress()
	if err != nil {
		return nil, err
	}

	if err := s.mgr.EnsureAllowance(ctx, params.Token, factory, params.TotalSupply); err != nil {
		return nil, err
	}

	s.logger.Info("creating sale",
		zap.String("token", params.Token.Hex()),
		zap.String("supply", params.TotalSupply.String()),
		zap.String("type", params.SaleType.String()))

	return s.mgr.Execute(ctx, txmgr.Call{
		To:     factory,
		ABI:    s.factory,
		Method: "createSale",
		Args: []interface{}{
			params.Token,
			params.TokenPrice,
			params.TotalSupply,
			params.SoftCap,
			params.HardCap,
			params.StartTime,
			params.EndTime,
			uint8(params.SaleType),
			params.WhitelistEnabled,
			params.MerkleRoot,
		},
	})
}

func validateCreate(params CreateSaleParams) error {
	for name, value := range map[string]*big.Int{
		"token price":  params.TokenPrice,
		"total supply": params.TotalSupply,
		"soft cap":     params.SoftCap,
		"hard cap":     params.HardCap,
	} {
		if value == nil || value.Sign() <= 0 {
			return fmt.Errorf("%w: %s must be positive", cerrors.ErrInvalidAmount, name)
		}
	}
	if params.StartTime == nil || params.EndTime == nil || params.StartTime.Cmp(params.EndTime) >= 0 {
		return fmt.Errorf("%w: start time must be before end time", cerrors.ErrInvalidAmount)
	}
	if params.SoftCap.Cmp(params.HardCap) > 0 {
		return fmt.Errorf("%w: soft cap exceeds hard cap", cerrors.ErrInvalidAmount)
	}
	if !params.WhitelistEnabled && params.MerkleRoot != [32]byte{} {
		return fmt.Errorf("%w: merkle root set without whitelist", cerrors.ErrInvalidAmount)
	}
	return nil
}

// ClaimTokens claims purchased tokens after a sale finalizes.
func (s *Service) ClaimTokens(ctx context.Context, saleID *big.Int) (*types.Receipt, error) {
	factory, err := s.factoryAddress()
	if err != nil {
		return nil, err
	}
	return s.mgr.Execute(ctx, txmgr.Call{
		To:     factory,
		ABI:    s.factory,
		Method: "claimTokens",
		Args:   []interface{}{saleID},
	})
}

// FinalizeSale settles a sale after it ends. Creator-only on-chain.
func (s *Service) FinalizeSale(ctx context.Context, saleID *big.Int) (*types.Receipt, error) {
	factory, err := s.factoryAddress()
	if err != nil {
		return nil, err
	}
	return s.mgr.Execute(ctx, txmgr.Call{
		To:     factory,
		ABI:    s.factory,
		Method: "finalizeSale",
		Args:   []interface{}{saleID},
	})
}
