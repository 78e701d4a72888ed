package vault

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"github.com/nspcc-dev/nft-vault-contract/common"
	"github.com/nspcc-dev/nft-vault-contract/contracts/vault/vaultconst"
)

// Errors of NFT Vault contract methods. Errors returned by ParseError,
// CheckResult and CheckInvoke wrap one of them if the exception is known.
var (
	ErrAlreadyDeposited       = errors.New("already deposited")
	ErrNotDeposited           = errors.New("not deposited")
	ErrNotApprover            = errors.New("not an approver")
	ErrNotOwner               = errors.New("not an owner")
	ErrApprovalPending        = errors.New("approval pending")
	ErrRegistryTransferFailed = errors.New("registry transfer failed")
	ErrInvalidArgument        = errors.New("invalid argument")
)

var exceptions = []struct {
	msg string
	err error
}{
	{vaultconst.ErrAlreadyDeposited, ErrAlreadyDeposited},
	{vaultconst.ErrNotDeposited, ErrNotDeposited},
	{vaultconst.ErrNotApprover, ErrNotApprover},
	{vaultconst.ErrNotOwner, ErrNotOwner},
	{common.ErrOwnerWitnessFailed, ErrNotOwner},
	{vaultconst.ErrApprovalPending, ErrApprovalPending},
	{vaultconst.ErrRegistryTransferFailed, ErrRegistryTransferFailed},
	{vaultconst.ErrInvalidOwner, ErrInvalidArgument},
	{vaultconst.ErrInvalidCollection, ErrInvalidArgument},
	{vaultconst.ErrInvalidSecondSigner, ErrInvalidArgument},
	{vaultconst.ErrInvalidTokenID, ErrInvalidArgument},
	{vaultconst.ErrInvalidAmount, ErrInvalidArgument},
}

// ParseError converts FAULT exception of the contract invocation into error.
// Returns nil for empty exception.
func ParseError(exception string) error {
	if exception == "" {
		return nil
	}

	for i := range exceptions {
		if strings.Contains(exception, exceptions[i].msg) {
			return fmt.Errorf("%w: %s", exceptions[i].err, exception)
		}
	}

	return errors.New(exception)
}

// CheckResult returns an error if the persisted transaction has not been
// executed successfully.
func CheckResult(res *state.AppExecResult) error {
	if res.VMState == vmstate.Halt {
		return nil
	}

	if err := ParseError(res.FaultException); err != nil {
		return err
	}

	return fmt.Errorf("unexpected VM state %s", res.VMState)
}

// CheckInvoke returns an error if the test invocation has not been executed
// successfully.
func CheckInvoke(res *result.Invoke) error {
	if res.State == vmstate.Halt.String() {
		return nil
	}

	if err := ParseError(res.FaultException); err != nil {
		return err
	}

	return fmt.Errorf("unexpected VM state %s", res.State)
}
