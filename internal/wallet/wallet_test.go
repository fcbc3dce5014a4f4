package wallet

import (
	"context"
	"errors"
	"testing"

	"launchpad/internal/cerrors"
	"launchpad/internal/chain"
	"launchpad/internal/chain/chaintest"
)

// well-known anvil/hardhat test key, never used with real funds
const testKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

const testMnemonic = "test test test test test test test test test test test junk"

func TestSignerFromHex(t *testing.T) {
	signer, err := NewSignerFromHex("0x" + testKeyHex)
	if err != nil {
		t.Fatalf("NewSignerFromHex: %v", err)
	}
	want := "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	if got := signer.Address().Hex(); got != want {
		t.Fatalf("address = %s, want %s", got, want)
	}

	bare, err := NewSignerFromHex(testKeyHex)
	if err != nil {
		t.Fatalf("NewSignerFromHex without prefix: %v", err)
	}
	if bare.Address() != signer.Address() {
		t.Fatal("prefix handling changed the derived address")
	}
}

func TestSignerFromMnemonic(t *testing.T) {
	signer, err := NewSignerFromMnemonic(testMnemonic, "", 0)
	if err != nil {
		t.Fatalf("NewSignerFromMnemonic: %v", err)
	}
	// first account of the standard test mnemonic at m/44'/60'/0'/0/0
	want := "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	if got := signer.Address().Hex(); got != want {
		t.Fatalf("address = %s, want %s", got, want)
	}

	second, err := NewSignerFromMnemonic(testMnemonic, "", 1)
	if err != nil {
		t.Fatalf("index 1: %v", err)
	}
	if second.Address() == signer.Address() {
		t.Fatal("different indexes derived the same address")
	}

	if _, err := NewSignerFromMnemonic("not a valid mnemonic phrase", "", 0); err == nil {
		t.Fatal("expected error for invalid mnemonic")
	}
}

func TestConnectWithoutProvider(t *testing.T) {
	signer, err := NewSignerFromHex(testKeyHex)
	if err != nil {
		t.Fatal(err)
	}
	c := NewConnector(nil, signer, Sepolia, nil, nil, nil)
	if _, err := c.Connect(context.Background()); !errors.Is(err, cerrors.ErrProviderMissing) {
		t.Fatalf("err = %v, want ErrProviderMissing", err)
	}
	if c.Session().State != StateDisconnected {
		t.Fatalf("state = %v, want disconnected", c.Session().State)
	}
}

func TestConnectWithoutSigner(t *testing.T) {
	backend := chaintest.New(int64(Sepolia.ChainID))
	c := NewConnector(backend, nil, Sepolia, nil, nil, nil)
	if _, err := c.Connect(context.Background()); !errors.Is(err, cerrors.ErrProviderMissing) {
		t.Fatalf("err = %v, want ErrProviderMissing", err)
	}
}

func TestConnectHappyPath(t *testing.T) {
	signer, err := NewSignerFromHex(testKeyHex)
	if err != nil {
		t.Fatal(err)
	}
	backend := chaintest.New(int64(Sepolia.ChainID))
	c := NewConnector(backend, signer, Sepolia, nil, nil, nil)

	addr, err := c.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if addr != signer.Address() {
		t.Fatalf("address = %s, want %s", addr.Hex(), signer.Address().Hex())
	}

	session := c.Session()
	if session.State != StateConnected {
		t.Fatalf("state = %v, want connected", session.State)
	}
	if session.ChainID.Uint64() != Sepolia.ChainID {
		t.Fatalf("chain id = %d, want %d", session.ChainID.Uint64(), Sepolia.ChainID)
	}
	if session.NativeBalance == nil || session.NativeBalance.Sign() <= 0 {
		t.Fatal("expected a positive native balance")
	}

	if _, err := c.RequireConnected(); err != nil {
		t.Fatalf("RequireConnected: %v", err)
	}

	c.Disconnect()
	if c.Session().State != StateDisconnected {
		t.Fatal("disconnect did not clear the session")
	}
	if _, err := c.RequireConnected(); !errors.Is(err, cerrors.ErrNotConnected) {
		t.Fatalf("err = %v, want ErrNotConnected", err)
	}
}

func TestConnectSwitchesToRequiredChain(t *testing.T) {
	signer, err := NewSignerFromHex(testKeyHex)
	if err != nil {
		t.Fatal(err)
	}

	wrong := chaintest.New(1)
	right := chaintest.New(int64(Sepolia.ChainID))

	networks := NetworkTable{
		Sepolia.ChainID: {
			ChainID: Sepolia.ChainID,
			Name:    Sepolia.Name,
			RPCURL:  "https://sepolia.example/rpc",
		},
	}
	dial := func(_ context.Context, rpcURL string) (chain.Backend, error) {
		if rpcURL != "https://sepolia.example/rpc" {
			return nil, errors.New("unexpected url")
		}
		return right, nil
	}

	c := NewConnector(wrong, signer, Sepolia, networks, dial, nil)
	if _, err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	session := c.Session()
	if session.State != StateConnected {
		t.Fatalf("state = %v, want connected after switch", session.State)
	}
	if session.ChainID.Uint64() != Sepolia.ChainID {
		t.Fatalf("chain id = %d after switch", session.ChainID.Uint64())
	}
	if c.Backend() != chain.Backend(right) {
		t.Fatal("backend was not swapped to the required chain endpoint")
	}
}

func TestConnectUnknownNetwork(t *testing.T) {
	signer, err := NewSignerFromHex(testKeyHex)
	if err != nil {
		t.Fatal(err)
	}
	wrong := chaintest.New(1)

	c := NewConnector(wrong, signer, Sepolia, NetworkTable{}, nil, nil)
	_, err = c.Connect(context.Background())
	if !errors.Is(err, cerrors.ErrUnknownNetwork) {
		t.Fatalf("err = %v, want ErrUnknownNetwork", err)
	}
	if c.Session().State != StateWrongNetwork {
		t.Fatalf("state = %v, want wrong-network", c.Session().State)
	}
	if _, err := c.RequireConnected(); !errors.Is(err, cerrors.ErrWrongNetwork) {
		t.Fatalf("RequireConnected err = %v, want ErrWrongNetwork", err)
	}
}

func TestRefreshTracksChain(t *testing.T) {
	signer, err := NewSignerFromHex(testKeyHex)
	if err != nil {
		t.Fatal(err)
	}
	backend := chaintest.New(int64(Sepolia.ChainID))
	c := NewConnector(backend, signer, Sepolia, nil, nil, nil)
	if _, err := c.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if c.Session().State != StateConnected {
		t.Fatal("refresh flipped a healthy session")
	}

	c.Disconnect()
	if err := c.Refresh(context.Background()); !errors.Is(err, cerrors.ErrNotConnected) {
		t.Fatalf("err = %v, want ErrNotConnected", err)
	}
}
