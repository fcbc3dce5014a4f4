package store

import (
	"context"
	"fmt"
	"time"

	_ "embed"

	"gopkg.in/yaml.v3"

	"launchpad/internal/types"
)

//go:embed demo_sales.yaml
var demoSalesYAML []byte

type demoFile struct {
	Sales []demoSale `yaml:"sales"`
}

type demoSale struct {
	TokenName    string `yaml:"token_name"`
	TokenSymbol  string `yaml:"token_symbol"`
	Token        string `yaml:"token"`
	Creator      string `yaml:"creator"`
	TokenPrice   string `yaml:"token_price"`
	TotalSupply  string `yaml:"total_supply"`
	SoldAmount   string `yaml:"sold_amount"`
	RaisedAmount string `yaml:"raised_amount"`
	SoftCap      string `yaml:"soft_cap"`
	HardCap      string `yaml:"hard_cap"`
	StartOffset  string `yaml:"start_offset"`
	EndOffset    string `yaml:"end_offset"`
	SaleType     string `yaml:"sale_type"`
	Status       string `yaml:"status"`
	Whitelist    bool   `yaml:"whitelist_enabled"`
	Vesting      bool   `yaml:"vesting_enabled"`
	Participants uint64 `yaml:"participants"`
}

// LoadDemoSales parses the embedded dataset, anchoring the relative sale
// windows at the given time.
func LoadDemoSales(anchor time.Time) ([]types.SaleRecord, error) {
	var file demoFile
	if err := yaml.Unmarshal(demoSalesYAML, &file); err != nil {
		return nil, fmt.Errorf("parse demo dataset: %w", err)
	}

	records := make([]types.SaleRecord, 0, len(file.Sales))
	for i, sale := range file.Sales {
		start, err := time.ParseDuration(sale.StartOffset)
		if err != nil {
			return nil, fmt.Errorf("demo sale %d start offset: %w", i, err)
		}
		end, err := time.ParseDuration(sale.EndOffset)
		if err != nil {
			return nil, fmt.Errorf("demo sale %d end offset: %w", i, err)
		}

		records = append(records, types.SaleRecord{
			ID:               uint64(i),
			Token:            sale.Token,
			TokenName:        sale.TokenName,
			TokenSymbol:      sale.TokenSymbol,
			Creator:          sale.Creator,
			TokenPrice:       sale.TokenPrice,
			TotalSupply:      sale.TotalSupply,
			SoldAmount:       sale.SoldAmount,
			RaisedAmount:     sale.RaisedAmount,
			SoftCap:          sale.SoftCap,
			HardCap:          sale.HardCap,
			StartTime:        anchor.Add(start).UTC(),
			EndTime:          anchor.Add(end).UTC(),
			SaleType:         sale.SaleType,
			Status:           sale.Status,
			WhitelistEnabled: sale.Whitelist,
			VestingEnabled:   sale.Vesting,
			ParticipantCount: sale.Participants,
		})
	}
	return records, nil
}

// NewDemoFetcher serves the embedded dataset as a FetchFunc so the cache
// and API work without any deployed contracts.
func NewDemoFetcher(anchor time.Time) FetchFunc {
	return func(context.Context) ([]types.SaleRecord, error) {
		return LoadDemoSales(anchor)
	}
}
