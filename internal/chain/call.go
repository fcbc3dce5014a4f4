package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"launchpad/internal/cerrors"
)

// Call packs a method call, executes it as an eth_call against the latest
// block, and unpacks the raw return data. Usable before a wallet is
// connected; failures classify as contract read errors.
func Call(ctx context.Context, backend Backend, to common.Address, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	msg := ethereum.CallMsg{To: &to, Data: data}
	resp, err := backend.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, cerrors.ReadError(method, err)
	}

	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, cerrors.ReadError(method, fmt.Errorf("unpack: %w", err))
	}
	return values, nil
}

// CallBigInt executes a call whose single return value is a uint256.
func CallBigInt(ctx context.Context, backend Backend, to common.Address, parsed abi.ABI, method string, args ...interface{}) (*big.Int, error) {
	values, err := Call(ctx, backend, to, parsed, method, args...)
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, cerrors.ReadError(method, fmt.Errorf("expected 1 value, got %d", len(values)))
	}
	value, ok := values[0].(*big.Int)
	if !ok {
		return nil, cerrors.ReadError(method, fmt.Errorf("unsupported type %T", values[0]))
	}
	return new(big.Int).Set(value), nil
}

// CallString executes a call whose single return value is a string.
func CallString(ctx context.Context, backend Backend, to common.Address, parsed abi.ABI, method string, args ...interface{}) (string, error) {
	values, err := Call(ctx, backend, to, parsed, method, args...)
	if err != nil {
		return "", err
	}
	if len(values) != 1 {
		return "", cerrors.ReadError(method, fmt.Errorf("expected 1 value, got %d", len(values)))
	}
	value, ok := values[0].(string)
	if !ok {
		return "", cerrors.ReadError(method, fmt.Errorf("unsupported type %T", values[0]))
	}
	return value, nil
}
