package store

import (
	"context"
	"errors"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"launchpad/internal/contracts"
	"launchpad/internal/types"
	"launchpad/internal/wallet"
)

func TestSaleCacheServesFreshSnapshot(t *testing.T) {
	fetches := 0
	fetch := func(context.Context) ([]types.SaleRecord, error) {
		fetches++
		return []types.SaleRecord{{ID: 0, TokenSymbol: "NEB"}}, nil
	}

	clock := time.Unix(1_700_000_000, 0)
	cache := NewSaleCache(fetch, nil, 30*time.Second, nil)
	cache.now = func() time.Time { return clock }

	for i := 0; i < 3; i++ {
		records, stale, err := cache.Sales(context.Background())
		if err != nil {
			t.Fatalf("Sales: %v", err)
		}
		if stale || len(records) != 1 {
			t.Fatalf("records = %v, stale = %v", records, stale)
		}
	}
	if fetches != 1 {
		t.Fatalf("fetches = %d, want 1 within the TTL", fetches)
	}

	clock = clock.Add(31 * time.Second)
	if _, _, err := cache.Sales(context.Background()); err != nil {
		t.Fatal(err)
	}
	if fetches != 2 {
		t.Fatalf("fetches = %d, want 2 after the TTL expired", fetches)
	}
}

func TestSaleCacheDegradesToLastKnownGood(t *testing.T) {
	fail := false
	fetch := func(context.Context) ([]types.SaleRecord, error) {
		if fail {
			return nil, errors.New("rpc down")
		}
		return []types.SaleRecord{{ID: 0, TokenSymbol: "NEB"}}, nil
	}

	clock := time.Unix(1_700_000_000, 0)
	cache := NewSaleCache(fetch, nil, 30*time.Second, nil)
	cache.now = func() time.Time { return clock }

	if _, _, err := cache.Sales(context.Background()); err != nil {
		t.Fatal(err)
	}

	fail = true
	clock = clock.Add(time.Minute)
	records, stale, err := cache.Sales(context.Background())
	if err != nil {
		t.Fatalf("expected degraded snapshot, got error %v", err)
	}
	if !stale || len(records) != 1 {
		t.Fatalf("records = %v, stale = %v, want stale last known snapshot", records, stale)
	}
}

func TestSaleCacheErrorsWithNoSnapshotOrFallback(t *testing.T) {
	fetch := func(context.Context) ([]types.SaleRecord, error) {
		return nil, errors.New("rpc down")
	}
	cache := NewSaleCache(fetch, nil, time.Second, nil)
	if _, _, err := cache.Sales(context.Background()); err == nil {
		t.Fatal("expected error with nothing cached and no fallback")
	}
}

func TestSaleCacheFallsBackToDemoDataset(t *testing.T) {
	fail := true
	fetch := func(context.Context) ([]types.SaleRecord, error) {
		if fail {
			return nil, errors.New("rpc down")
		}
		return []types.SaleRecord{{ID: 0, TokenSymbol: "NEB"}}, nil
	}

	clock := time.Unix(1_700_000_000, 0)
	cache := NewSaleCache(fetch, NewDemoFetcher(clock), 30*time.Second, nil)
	cache.now = func() time.Time { return clock }

	// first fetch fails with nothing cached: the list must not be empty
	records, stale, err := cache.Sales(context.Background())
	if err != nil {
		t.Fatalf("expected fallback dataset, got error %v", err)
	}
	if !stale || len(records) != 6 {
		t.Fatalf("records = %d, stale = %v, want the 6 demo sales flagged stale", len(records), stale)
	}

	// the fallback snapshot stays flagged within the TTL
	if _, stale, err := cache.Sales(context.Background()); err != nil || !stale {
		t.Fatalf("stale = %v, err = %v, want cached fallback still flagged", stale, err)
	}

	// a recovered fetch replaces the fallback data
	fail = false
	clock = clock.Add(time.Minute)
	records, stale, err = cache.Sales(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stale || len(records) != 1 {
		t.Fatalf("records = %d, stale = %v after recovery", len(records), stale)
	}
}

func TestSaleCacheLookupByID(t *testing.T) {
	fetch := func(context.Context) ([]types.SaleRecord, error) {
		return []types.SaleRecord{{ID: 0}, {ID: 4, TokenSymbol: "HLS"}}, nil
	}
	cache := NewSaleCache(fetch, nil, time.Minute, nil)

	record, _, err := cache.Sale(context.Background(), 4)
	if err != nil {
		t.Fatal(err)
	}
	if record.TokenSymbol != "HLS" {
		t.Fatalf("record = %+v", record)
	}

	missing, _, err := cache.Sale(context.Background(), 99)
	if err != nil {
		t.Fatal(err)
	}
	if missing.TokenSymbol != "" {
		t.Fatalf("expected zero record for unknown id, got %+v", missing)
	}
}

func TestLoadDemoSales(t *testing.T) {
	anchor := time.Unix(1_700_000_000, 0)
	records, err := LoadDemoSales(anchor)
	if err != nil {
		t.Fatalf("LoadDemoSales: %v", err)
	}
	if len(records) != 6 {
		t.Fatalf("got %d demo sales, want 6", len(records))
	}

	first := records[0]
	if first.TokenSymbol != "NEB" || first.Status != "active" {
		t.Fatalf("first record = %+v", first)
	}
	if !first.StartTime.Equal(anchor.Add(-48 * time.Hour)) {
		t.Fatalf("start = %v, want anchor-48h", first.StartTime)
	}
	if !first.EndTime.After(anchor) {
		t.Fatalf("active demo sale ended before the anchor: %v", first.EndTime)
	}
	if !first.VestingEnabled || first.WhitelistEnabled {
		t.Fatalf("first record flags = %+v", first)
	}
	if !records[1].WhitelistEnabled {
		t.Fatalf("second record flags = %+v", records[1])
	}

	for _, record := range records {
		if !record.StartTime.Before(record.EndTime) {
			t.Fatalf("sale %d window inverted: %v .. %v", record.ID, record.StartTime, record.EndTime)
		}
		raised, ok := new(big.Int).SetString(record.RaisedAmount, 10)
		if !ok {
			t.Fatalf("sale %d raised amount %q is not a number", record.ID, record.RaisedAmount)
		}
		hardCap, ok := new(big.Int).SetString(record.HardCap, 10)
		if !ok {
			t.Fatalf("sale %d hard cap %q is not a number", record.ID, record.HardCap)
		}
		if raised.Cmp(hardCap) > 0 {
			t.Fatalf("sale %d raised %s above hard cap %s", record.ID, raised, hardCap)
		}
	}
}

type fakeSaleSource struct {
	info contracts.SaleInfo
}

func (f fakeSaleSource) SaleCounter(context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

func (f fakeSaleSource) GetSaleInfo(context.Context, *big.Int) (contracts.SaleInfo, error) {
	return f.info, nil
}

func TestChainFetcherComputesRaised(t *testing.T) {
	oneToken := big.NewInt(1e18)
	src := fakeSaleSource{info: contracts.SaleInfo{
		TokenPrice:       big.NewInt(1e15),
		TotalSupply:      new(big.Int).Mul(big.NewInt(1_000_000), oneToken),
		SoldAmount:       new(big.Int).Mul(big.NewInt(450_000), oneToken),
		SoftCap:          new(big.Int).Mul(big.NewInt(100), oneToken),
		HardCap:          new(big.Int).Mul(big.NewInt(1000), oneToken),
		StartTime:        big.NewInt(1_700_000_000),
		EndTime:          big.NewInt(1_700_100_000),
		ParticipantCount: big.NewInt(5),
	}}
	connector := wallet.NewConnector(nil, nil, wallet.Sepolia, nil, nil, nil)

	records, err := NewChainFetcher(src, connector, nil)(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	// 450000 tokens at 0.001 native each
	want := new(big.Int).Mul(big.NewInt(450), oneToken)
	if records[0].RaisedAmount != want.String() {
		t.Fatalf("raised = %s, want %s", records[0].RaisedAmount, want)
	}
	if records[0].WhitelistEnabled || records[0].VestingEnabled {
		t.Fatalf("chain-sourced flags should default false: %+v", records[0])
	}
}

func TestSaleRecordProgress(t *testing.T) {
	record := types.SaleRecord{TotalSupply: "1000", SoldAmount: "450"}
	if got := record.Progress().String(); got != "45" {
		t.Fatalf("progress = %s, want 45", got)
	}
	empty := types.SaleRecord{TotalSupply: "0", SoldAmount: "0"}
	if !empty.Progress().IsZero() {
		t.Fatal("zero supply should report zero progress")
	}
}

func TestFileProfileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.json")
	s := NewFileProfileStore(path)
	ctx := context.Background()

	if _, err := s.GetProfile(ctx, "0xAbC"); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("err = %v, want ErrProfileNotFound", err)
	}

	profile := types.Profile{Address: "0xAbC", DisplayName: "alice"}
	if err := s.UpsertProfile(ctx, profile); err != nil {
		t.Fatalf("UpsertProfile: %v", err)
	}

	// lookup is case-insensitive on the address
	got, err := s.GetProfile(ctx, "0xabc")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if got.DisplayName != "alice" || got.CreatedAt.IsZero() {
		t.Fatalf("profile = %+v", got)
	}

	created := got.CreatedAt
	profile.DisplayName = "alice2"
	if err := s.UpsertProfile(ctx, profile); err != nil {
		t.Fatal(err)
	}
	got, err = s.GetProfile(ctx, "0xABC")
	if err != nil {
		t.Fatal(err)
	}
	if got.DisplayName != "alice2" {
		t.Fatalf("profile = %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatal("update rewrote created_at")
	}

	// a fresh store over the same file sees the data
	reopened := NewFileProfileStore(path)
	if _, err := reopened.GetProfile(ctx, "0xabc"); err != nil {
		t.Fatalf("reopened GetProfile: %v", err)
	}
}
