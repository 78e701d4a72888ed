package vault

import (
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/iterator"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/crypto"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/management"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/std"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
	"github.com/nspcc-dev/nft-vault-contract/common"
	"github.com/nspcc-dev/nft-vault-contract/contracts/vault/vaultconst"
)

type (
	// CustodyRecord is a custody state of a single asset returned by
	// GetApproval.
	CustodyRecord struct {
		Owner        interop.Hash160
		SecondSigner interop.Hash160
		Approved     bool
	}

	// Custody is a stored custody entry of an asset held by the vault.
	Custody struct {
		Collection   interop.Hash160
		TokenID      []byte
		Owner        interop.Hash160
		SecondSigner interop.Hash160
		Approved     bool
	}
)

const (
	recordPrefix  = 'r'
	pendingPrefix = 'p'

	// byteStringType is a serialization prefix of ByteString stack items.
	byteStringType = 0x28
)

// nolint:deadcode,unused
func _deploy(data any, isUpdate bool) {
	if isUpdate {
		args := data.([]any)
		common.CheckVersion(args[len(args)-1].(int))
		return
	}

	runtime.Log("NFT vault contract initialized")
}

// Update method updates contract source code and manifest. It can be invoked
// only by committee.
func Update(script []byte, manifest []byte, data any) {
	if !common.HasUpdateAccess() {
		panic("only committee can update contract")
	}

	contract.Call(interop.Hash160(management.Hash), "update",
		contract.All, script, manifest, common.AppendVersion(data))
	runtime.Log("NFT vault contract updated")
}

// DepositNFT moves the token from the owner's account to the vault and puts
// it into custody. The token can be withdrawn back to the owner only after
// secondSigner approves it.
//
// Transaction must be witnessed by the owner in a scope allowing the
// collection contract to check it. The collection must call back
// onNEP11Payment of the vault with the owner as a sender.
func DepositNFT(owner, collection interop.Hash160, tokenID []byte, secondSigner interop.Hash160) {
	if !common.IsValidAddress(owner) {
		panic(vaultconst.ErrInvalidOwner)
	}
	checkAssetKey(collection, tokenID)
	if !common.IsValidAddress(secondSigner) {
		panic(vaultconst.ErrInvalidSecondSigner)
	}

	common.CheckOwnerWitness(owner)

	ctx := storage.GetContext()
	key := recordKey(collection, tokenID)
	if storage.Get(ctx, key) != nil {
		panic(vaultconst.ErrAlreadyDeposited)
	}

	pKey := pendingKey(collection, tokenID)
	storage.Put(ctx, pKey, owner)

	self := runtime.GetExecutingScriptHash()
	ok := contract.Call(collection, "transfer", contract.All, self, tokenID, nil).(bool)
	if !ok {
		panic(vaultconst.ErrRegistryTransferFailed)
	}

	// onNEP11Payment removes the mark, otherwise the asset has never arrived
	if storage.Get(ctx, pKey) != nil {
		panic(vaultconst.ErrRegistryTransferFailed)
	}

	putCustody(ctx, key, Custody{
		Collection:   collection,
		TokenID:      tokenID,
		Owner:        owner,
		SecondSigner: secondSigner,
	})
}

// OnNEP11Payment accepts tokens transferred to the vault. Transfers made by
// DepositNFT are checked against the depositor. Direct transfers must carry
// the second signer script hash in data; the sender becomes the owner.
// Any other payment is rejected.
func OnNEP11Payment(from interop.Hash160, amount int, tokenID []byte, data any) {
	if amount != 1 {
		panic(vaultconst.ErrInvalidAmount)
	}

	collection := runtime.GetCallingScriptHash()
	if management.GetContract(collection) == nil {
		panic(vaultconst.ErrInvalidCollection)
	}
	checkAssetKey(collection, tokenID)

	ctx := storage.GetContext()

	pKey := pendingKey(collection, tokenID)
	depositor := storage.Get(ctx, pKey)
	if depositor != nil {
		storage.Delete(ctx, pKey)
		if !from.Equals(depositor.(interop.Hash160)) {
			panic(vaultconst.ErrNotOwner)
		}
		return
	}

	secondSigner := secondSignerFromData(data)

	key := recordKey(collection, tokenID)
	if storage.Get(ctx, key) != nil {
		panic(vaultconst.ErrAlreadyDeposited)
	}

	putCustody(ctx, key, Custody{
		Collection:   collection,
		TokenID:      tokenID,
		Owner:        from,
		SecondSigner: secondSigner,
	})
}

// ApproveWithdraw allows the owner to withdraw the asset. It can be invoked
// only by the second signer of the custody record. Approving already approved
// withdrawal does nothing.
func ApproveWithdraw(collection interop.Hash160, tokenID []byte) {
	setApproval(collection, tokenID, true)
}

// RemoveApproval revokes previously given approval. It can be invoked only by
// the second signer of the custody record. Revoking missing approval does
// nothing.
func RemoveApproval(collection interop.Hash160, tokenID []byte) {
	setApproval(collection, tokenID, false)
}

// WithdrawNFT returns the asset to its owner and drops the custody record.
// It can be invoked only by the owner after the second signer has approved
// the withdrawal.
func WithdrawNFT(collection interop.Hash160, tokenID []byte) {
	checkAssetKey(collection, tokenID)

	ctx := storage.GetContext()
	key := recordKey(collection, tokenID)
	c := getCustody(ctx, key)

	if !runtime.CheckWitness(c.Owner) {
		panic(vaultconst.ErrNotOwner)
	}
	if !c.Approved {
		panic(vaultconst.ErrApprovalPending)
	}

	ok := contract.Call(collection, "transfer", contract.All, c.Owner, tokenID, nil).(bool)
	if !ok {
		panic(vaultconst.ErrRegistryTransferFailed)
	}

	storage.Delete(ctx, key)
	runtime.Notify(vaultconst.WithdrawEvent, collection, tokenID, c.Owner)
}

// GetApproval returns custody record of the asset. If the asset is not held
// by the vault, a record with zero owner and second signer is returned.
func GetApproval(collection interop.Hash160, tokenID []byte) CustodyRecord {
	checkAssetKey(collection, tokenID)

	ctx := storage.GetReadOnlyContext()
	data := common.GetSerialized(ctx, recordKey(collection, tokenID))
	if data == nil {
		return CustodyRecord{
			Owner:        interop.Hash160(common.ZeroAddress),
			SecondSigner: interop.Hash160(common.ZeroAddress),
		}
	}

	c := data.(Custody)
	return CustodyRecord{
		Owner:        c.Owner,
		SecondSigner: c.SecondSigner,
		Approved:     c.Approved,
	}
}

// IsDeposited checks whether the asset is held by the vault.
func IsDeposited(collection interop.Hash160, tokenID []byte) bool {
	checkAssetKey(collection, tokenID)

	ctx := storage.GetReadOnlyContext()
	return storage.Get(ctx, recordKey(collection, tokenID)) != nil
}

// Records returns iterator over all custody entries of the vault.
func Records() iterator.Iterator {
	ctx := storage.GetReadOnlyContext()
	return storage.Find(ctx, []byte{recordPrefix}, storage.ValuesOnly|storage.DeserializeValues)
}

// Version returns the version of the contract.
func Version() int {
	return common.Version
}

func setApproval(collection interop.Hash160, tokenID []byte, approved bool) {
	checkAssetKey(collection, tokenID)

	ctx := storage.GetContext()
	key := recordKey(collection, tokenID)
	c := getCustody(ctx, key)

	if !runtime.CheckWitness(c.SecondSigner) {
		panic(vaultconst.ErrNotApprover)
	}
	if c.Approved == approved {
		return
	}

	c.Approved = approved
	common.SetSerialized(ctx, key, c)
	runtime.Notify(vaultconst.ApprovalEvent, collection, tokenID, approved)
}

func putCustody(ctx storage.Context, key []byte, c Custody) {
	common.SetSerialized(ctx, key, c)
	runtime.Notify(vaultconst.DepositEvent, c.Collection, c.TokenID, c.Owner, c.SecondSigner)
}

// getCustody returns custody entry stored by the key. It panics with
// vaultconst.ErrNotDeposited if there is no such entry.
func getCustody(ctx storage.Context, key []byte) Custody {
	data := common.GetSerialized(ctx, key)
	if data == nil {
		panic(vaultconst.ErrNotDeposited)
	}
	return data.(Custody)
}

// secondSignerFromData returns second signer passed as NEP-11 transfer data.
// Only a 20-byte ByteString is accepted.
func secondSignerFromData(data any) interop.Hash160 {
	if data == nil {
		panic(vaultconst.ErrInvalidSecondSigner)
	}

	raw := std.Serialize(data)
	if len(raw) != 2+interop.Hash160Len || raw[0] != byteStringType || raw[1] != interop.Hash160Len {
		panic(vaultconst.ErrInvalidSecondSigner)
	}

	return data.(interop.Hash160)
}

func checkAssetKey(collection interop.Hash160, tokenID []byte) {
	if !common.IsValidAddress(collection) {
		panic(vaultconst.ErrInvalidCollection)
	}
	if len(tokenID) == 0 || len(tokenID) > vaultconst.MaxTokenIDLength {
		panic(vaultconst.ErrInvalidTokenID)
	}
}

// recordKey returns storage key of the custody entry. Token ID is hashed to
// fit storage key length limit.
func recordKey(collection interop.Hash160, tokenID []byte) []byte {
	return assetKey(recordPrefix, collection, tokenID)
}

// pendingKey returns storage key of the depositor mark living for the time of
// DepositNFT transfer.
func pendingKey(collection interop.Hash160, tokenID []byte) []byte {
	return assetKey(pendingPrefix, collection, tokenID)
}

func assetKey(prefix byte, collection interop.Hash160, tokenID []byte) []byte {
	key := append([]byte{prefix}, collection...)
	return append(key, crypto.Ripemd160(tokenID)...)
}
