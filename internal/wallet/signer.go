package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"
)

// ethCoinType is the BIP44 coin type for Ethereum (m/44'/60'/...).
const ethCoinType uint32 = 60

// Signer holds a secp256k1 key and signs transactions for its address.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewSignerFromHex builds a signer from a raw hex-encoded private key.
func NewSignerFromHex(hexKey string) (*Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return newSigner(key), nil
}

// NewSignerFromKeystore decrypts a go-ethereum keystore file.
func NewSignerFromKeystore(path, passphrase string) (*Signer, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keystore: %w", err)
	}
	key, err := keystore.DecryptKey(blob, passphrase)
	if err != nil {
		return nil, fmt.Errorf("decrypt keystore: %w", err)
	}
	return newSigner(key.PrivateKey), nil
}

// NewSignerFromMnemonic derives the key at BIP44 path m/44'/60'/0'/0/index
// from a BIP39 mnemonic.
func NewSignerFromMnemonic(mnemonic, passphrase string, index uint32) (*Signer, error) {
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, fmt.Errorf("mnemonic: %w", err)
	}

	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("master key: %w", err)
	}

	path := []uint32{
		bip32.FirstHardenedChild + 44,
		bip32.FirstHardenedChild + ethCoinType,
		bip32.FirstHardenedChild + 0,
		0,
		index,
	}
	child := master
	for _, step := range path {
		child, err = child.NewChildKey(step)
		if err != nil {
			return nil, fmt.Errorf("derive child %d: %w", step, err)
		}
	}

	key, err := crypto.ToECDSA(child.Key)
	if err != nil {
		return nil, fmt.Errorf("derived key: %w", err)
	}
	return newSigner(key), nil
}

func newSigner(key *ecdsa.PrivateKey) *Signer {
	return &Signer{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}
}

// Address returns the signer's account address.
func (s *Signer) Address() common.Address {
	return s.address
}

// SignTx signs a transaction for the given chain id (EIP-155).
func (s *Signer) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
}
