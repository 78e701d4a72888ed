// Package vault contains RPC wrappers for NFT Vault contract.
package vault

import (
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/unwrap"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"math/big"
)

// VaultCustody is a contract-specific vault.Custody type used by its methods.
type VaultCustody struct {
	Collection util.Uint160
	TokenID []byte
	Owner util.Uint160
	SecondSigner util.Uint160
	Approved bool
}

// VaultCustodyRecord is a contract-specific vault.CustodyRecord type used by its methods.
type VaultCustodyRecord struct {
	Owner util.Uint160
	SecondSigner util.Uint160
	Approved bool
}

// Invoker is used by ContractReader to call various safe methods.
type Invoker interface {
	Call(contract util.Uint160, operation string, params ...any) (*result.Invoke, error)
	CallAndExpandIterator(contract util.Uint160, method string, maxItems int, params ...any) (*result.Invoke, error)
	TerminateSession(sessionID uuid.UUID) error
	TraverseIterator(sessionID uuid.UUID, iterator *result.Iterator, num int) ([]stackitem.Item, error)
}

// Actor is used by Contract to call state-changing methods.
type Actor interface {
	Invoker

	MakeCall(contract util.Uint160, method string, params ...any) (*transaction.Transaction, error)
	MakeRun(script []byte) (*transaction.Transaction, error)
	MakeUnsignedCall(contract util.Uint160, method string, attrs []transaction.Attribute, params ...any) (*transaction.Transaction, error)
	MakeUnsignedRun(script []byte, attrs []transaction.Attribute) (*transaction.Transaction, error)
	SendCall(contract util.Uint160, method string, params ...any) (util.Uint256, uint32, error)
	SendRun(script []byte) (util.Uint256, uint32, error)
}

// ContractReader implements safe contract methods.
type ContractReader struct {
	invoker Invoker
	hash util.Uint160
}

// Contract implements all contract methods.
type Contract struct {
	ContractReader
	actor Actor
	hash util.Uint160
}

// NewReader creates an instance of ContractReader using provided contract hash and the given Invoker.
func NewReader(invoker Invoker, hash util.Uint160) *ContractReader {
	return &ContractReader{invoker, hash}
}

// New creates an instance of Contract using provided contract hash and the given Actor.
func New(actor Actor, hash util.Uint160) *Contract {
	return &Contract{ContractReader{actor, hash}, actor, hash}
}

// GetApproval invokes `getApproval` method of contract.
func (c *ContractReader) GetApproval(collection util.Uint160, tokenID []byte) (*VaultCustodyRecord, error) {
	return itemToVaultCustodyRecord(unwrap.Item(c.invoker.Call(c.hash, "getApproval", collection, tokenID)))
}

// IsDeposited invokes `isDeposited` method of contract.
func (c *ContractReader) IsDeposited(collection util.Uint160, tokenID []byte) (bool, error) {
	return unwrap.Bool(c.invoker.Call(c.hash, "isDeposited", collection, tokenID))
}

// Records invokes `records` method of contract.
func (c *ContractReader) Records() (uuid.UUID, result.Iterator, error) {
	return unwrap.SessionIterator(c.invoker.Call(c.hash, "records"))
}

// RecordsExpanded is similar to Records (uses the same contract
// method), but can be useful if the server used doesn't support sessions and
// doesn't expand iterators. It creates a script that will get the specified
// number of result items from the iterator right in the VM and return them to
// you. It's only limited by VM stack and GAS available for RPC invocations.
func (c *ContractReader) RecordsExpanded(_numOfIteratorItems int) ([]stackitem.Item, error) {
	return unwrap.Array(c.invoker.CallAndExpandIterator(c.hash, "records", _numOfIteratorItems))
}

// Version invokes `version` method of contract.
func (c *ContractReader) Version() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "version"))
}

// ApproveWithdraw creates a transaction invoking `approveWithdraw` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) ApproveWithdraw(collection util.Uint160, tokenID []byte) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "approveWithdraw", collection, tokenID)
}

// ApproveWithdrawTransaction creates a transaction invoking `approveWithdraw` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) ApproveWithdrawTransaction(collection util.Uint160, tokenID []byte) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "approveWithdraw", collection, tokenID)
}

// ApproveWithdrawUnsigned creates a transaction invoking `approveWithdraw` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) ApproveWithdrawUnsigned(collection util.Uint160, tokenID []byte) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "approveWithdraw", nil, collection, tokenID)
}

// DepositNFT creates a transaction invoking `depositNFT` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) DepositNFT(owner util.Uint160, collection util.Uint160, tokenID []byte, secondSigner util.Uint160) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "depositNFT", owner, collection, tokenID, secondSigner)
}

// DepositNFTTransaction creates a transaction invoking `depositNFT` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) DepositNFTTransaction(owner util.Uint160, collection util.Uint160, tokenID []byte, secondSigner util.Uint160) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "depositNFT", owner, collection, tokenID, secondSigner)
}

// DepositNFTUnsigned creates a transaction invoking `depositNFT` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) DepositNFTUnsigned(owner util.Uint160, collection util.Uint160, tokenID []byte, secondSigner util.Uint160) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "depositNFT", nil, owner, collection, tokenID, secondSigner)
}

// RemoveApproval creates a transaction invoking `removeApproval` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) RemoveApproval(collection util.Uint160, tokenID []byte) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "removeApproval", collection, tokenID)
}

// RemoveApprovalTransaction creates a transaction invoking `removeApproval` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) RemoveApprovalTransaction(collection util.Uint160, tokenID []byte) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "removeApproval", collection, tokenID)
}

// RemoveApprovalUnsigned creates a transaction invoking `removeApproval` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) RemoveApprovalUnsigned(collection util.Uint160, tokenID []byte) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "removeApproval", nil, collection, tokenID)
}

// Update creates a transaction invoking `update` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Update(script []byte, manifest []byte, data any) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "update", script, manifest, data)
}

// UpdateTransaction creates a transaction invoking `update` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) UpdateTransaction(script []byte, manifest []byte, data any) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "update", script, manifest, data)
}

// UpdateUnsigned creates a transaction invoking `update` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) UpdateUnsigned(script []byte, manifest []byte, data any) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "update", nil, script, manifest, data)
}

// WithdrawNFT creates a transaction invoking `withdrawNFT` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) WithdrawNFT(collection util.Uint160, tokenID []byte) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "withdrawNFT", collection, tokenID)
}

// WithdrawNFTTransaction creates a transaction invoking `withdrawNFT` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) WithdrawNFTTransaction(collection util.Uint160, tokenID []byte) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "withdrawNFT", collection, tokenID)
}

// WithdrawNFTUnsigned creates a transaction invoking `withdrawNFT` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) WithdrawNFTUnsigned(collection util.Uint160, tokenID []byte) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "withdrawNFT", nil, collection, tokenID)
}

// itemToVaultCustody converts stack item into *VaultCustody.
func itemToVaultCustody(item stackitem.Item, err error) (*VaultCustody, error) {
	if err != nil {
		return nil, err
	}
	var res = new(VaultCustody)
	err = res.FromStackItem(item)
	return res, err
}

// FromStackItem retrieves fields of VaultCustody from the given
// [stackitem.Item] or returns an error if it's not possible to do to so.
func (res *VaultCustody) FromStackItem(item stackitem.Item) error {
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return errors.New("not an array")
	}
	if len(arr) != 5 {
		return errors.New("wrong number of structure elements")
	}

	var (
		index = -1
		err error
	)
	index++
	res.Collection, err = func (item stackitem.Item) (util.Uint160, error) {
		b, err := item.TryBytes()
		if err != nil {
			return util.Uint160{}, err
		}
		u, err := util.Uint160DecodeBytesBE(b)
		if err != nil {
			return util.Uint160{}, err
		}
		return u, nil
	} (arr[index])
	if err != nil {
		return fmt.Errorf("field Collection: %w", err)
	}

	index++
	res.TokenID, err = arr[index].TryBytes()
	if err != nil {
		return fmt.Errorf("field TokenID: %w", err)
	}

	index++
	res.Owner, err = func (item stackitem.Item) (util.Uint160, error) {
		b, err := item.TryBytes()
		if err != nil {
			return util.Uint160{}, err
		}
		u, err := util.Uint160DecodeBytesBE(b)
		if err != nil {
			return util.Uint160{}, err
		}
		return u, nil
	} (arr[index])
	if err != nil {
		return fmt.Errorf("field Owner: %w", err)
	}

	index++
	res.SecondSigner, err = func (item stackitem.Item) (util.Uint160, error) {
		b, err := item.TryBytes()
		if err != nil {
			return util.Uint160{}, err
		}
		u, err := util.Uint160DecodeBytesBE(b)
		if err != nil {
			return util.Uint160{}, err
		}
		return u, nil
	} (arr[index])
	if err != nil {
		return fmt.Errorf("field SecondSigner: %w", err)
	}

	index++
	res.Approved, err = arr[index].TryBool()
	if err != nil {
		return fmt.Errorf("field Approved: %w", err)
	}

	return nil
}

// itemToVaultCustodyRecord converts stack item into *VaultCustodyRecord.
func itemToVaultCustodyRecord(item stackitem.Item, err error) (*VaultCustodyRecord, error) {
	if err != nil {
		return nil, err
	}
	var res = new(VaultCustodyRecord)
	err = res.FromStackItem(item)
	return res, err
}

// FromStackItem retrieves fields of VaultCustodyRecord from the given
// [stackitem.Item] or returns an error if it's not possible to do to so.
func (res *VaultCustodyRecord) FromStackItem(item stackitem.Item) error {
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return errors.New("not an array")
	}
	if len(arr) != 3 {
		return errors.New("wrong number of structure elements")
	}

	var (
		index = -1
		err error
	)
	index++
	res.Owner, err = func (item stackitem.Item) (util.Uint160, error) {
		b, err := item.TryBytes()
		if err != nil {
			return util.Uint160{}, err
		}
		u, err := util.Uint160DecodeBytesBE(b)
		if err != nil {
			return util.Uint160{}, err
		}
		return u, nil
	} (arr[index])
	if err != nil {
		return fmt.Errorf("field Owner: %w", err)
	}

	index++
	res.SecondSigner, err = func (item stackitem.Item) (util.Uint160, error) {
		b, err := item.TryBytes()
		if err != nil {
			return util.Uint160{}, err
		}
		u, err := util.Uint160DecodeBytesBE(b)
		if err != nil {
			return util.Uint160{}, err
		}
		return u, nil
	} (arr[index])
	if err != nil {
		return fmt.Errorf("field SecondSigner: %w", err)
	}

	index++
	res.Approved, err = arr[index].TryBool()
	if err != nil {
		return fmt.Errorf("field Approved: %w", err)
	}

	return nil
}
