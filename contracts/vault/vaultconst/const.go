// Package vaultconst contains constants shared between the NFT Vault contract
// and its off-chain clients.
package vaultconst

// Exception messages of the NFT Vault contract. Clients match FAULT
// exceptions against them, so they must never change.
const (
	// ErrAlreadyDeposited is thrown on attempt to deposit an asset which is
	// already held in custody.
	ErrAlreadyDeposited = "asset is already deposited"
	// ErrNotDeposited is thrown when there is no custody record for the asset.
	ErrNotDeposited = "asset is not deposited"
	// ErrNotApprover is thrown when approval is changed by anyone but the
	// second signer of the record.
	ErrNotApprover = "caller is not an approver"
	// ErrNotOwner is thrown when the asset is withdrawn by anyone but its
	// owner.
	ErrNotOwner = "caller is not an owner of the asset"
	// ErrApprovalPending is thrown on withdrawal before the second signer
	// has approved it.
	ErrApprovalPending = "second signer has not approved withdrawal"
	// ErrRegistryTransferFailed is thrown when the asset collection refuses
	// to move the asset.
	ErrRegistryTransferFailed = "asset registry transfer failed"
)

// Argument validation messages.
const (
	ErrInvalidOwner        = "invalid owner"
	ErrInvalidCollection   = "invalid collection"
	ErrInvalidSecondSigner = "invalid second signer"
	ErrInvalidTokenID      = "invalid token ID"
	ErrInvalidAmount       = "only a whole non-divisible asset can be deposited"
)

// Notification names.
const (
	DepositEvent  = "Deposit"
	ApprovalEvent = "Approval"
	WithdrawEvent = "Withdraw"
)

// MaxTokenIDLength is the maximum length of NEP-11 token ID accepted by the
// vault.
const MaxTokenIDLength = 64
