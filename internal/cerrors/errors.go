// Package cerrors defines the classified error taxonomy shared by every
// chain-facing component. Callers branch on the sentinel kinds with
// errors.Is instead of string-matching provider errors.
package cerrors

import (
	"errors"
	"fmt"
)

var (
	// ErrProviderMissing indicates no RPC endpoint or signer material is
	// configured. Not recoverable without operator action.
	ErrProviderMissing = errors.New("provider missing")

	// ErrNotConnected indicates a mutating operation was attempted without
	// an established session.
	ErrNotConnected = errors.New("wallet not connected")

	// ErrUserRejected indicates the user declined an approval prompt.
	// Expected outcome, callers abort the flow without alarming output.
	ErrUserRejected = errors.New("user rejected request")

	// ErrWrongNetwork indicates the connected chain id does not match the
	// platform's required chain. Recoverable via a chain switch.
	ErrWrongNetwork = errors.New("wrong network")

	// ErrUnknownNetwork indicates the required chain has no registered
	// network parameters, so a switch cannot be performed.
	ErrUnknownNetwork = errors.New("unknown network")

	// ErrContractRead indicates a non-mutating call failed.
	ErrContractRead = errors.New("contract read failed")

	// ErrContractCall indicates a mutating call was rejected before
	// inclusion (revert on estimation, RPC refusal). No gas was spent.
	ErrContractCall = errors.New("contract call failed")

	// ErrTransactionFailed indicates the transaction was mined but the
	// receipt reports reversion. Gas was spent.
	ErrTransactionFailed = errors.New("transaction reverted on chain")

	// ErrCapabilityUnavailable indicates a required contract address is
	// not configured.
	ErrCapabilityUnavailable = errors.New("capability unavailable")

	// ErrInvalidAmount indicates a non-positive or malformed monetary input,
	// rejected before any network interaction.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrSaleNotActive indicates the targeted sale is not in the active
	// window, detected locally before spending gas.
	ErrSaleNotActive = errors.New("sale is not active")

	// ErrStakeLocked indicates the lock period has not elapsed yet.
	ErrStakeLocked = errors.New("stake is still locked")
)

// ReadError wraps err as a classified contract read failure.
func ReadError(method string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrContractRead, method, err)
}

// CallError wraps err as a classified contract call failure.
func CallError(method string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrContractCall, method, err)
}

// Unavailable reports a missing contract capability by logical name.
func Unavailable(name string) error {
	return fmt.Errorf("%w: %s is not configured", ErrCapabilityUnavailable, name)
}
