// Package nft implements a minimal non-divisible NEP-11 collection used as an
// asset registry in tests. Tokens can be frozen by anyone, frozen tokens can't
// be transferred.
package nft

import (
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/management"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
)

const (
	ownerPrefix  = 'o'
	frozenPrefix = 'f'
)

func Symbol() string {
	return "SNFT"
}

func Decimals() int {
	return 0
}

// Mint creates a new token owned by the owner.
func Mint(owner interop.Hash160, tokenID []byte) {
	if len(owner) != interop.Hash160Len {
		panic("invalid owner")
	}
	if !runtime.CheckWitness(owner) {
		panic("owner witness check failed")
	}

	ctx := storage.GetContext()
	key := append([]byte{ownerPrefix}, tokenID...)
	if storage.Get(ctx, key) != nil {
		panic("token already exists")
	}
	storage.Put(ctx, key, owner)

	postTransfer(nil, owner, tokenID, nil)
}

func OwnerOf(tokenID []byte) interop.Hash160 {
	ctx := storage.GetReadOnlyContext()
	owner := storage.Get(ctx, append([]byte{ownerPrefix}, tokenID...))
	if owner == nil {
		panic("token not found")
	}
	return owner.(interop.Hash160)
}

// SetFrozen forbids or allows transfers of the token.
func SetFrozen(tokenID []byte, frozen bool) {
	ctx := storage.GetContext()
	key := append([]byte{frozenPrefix}, tokenID...)
	if frozen {
		storage.Put(ctx, key, []byte{1})
	} else {
		storage.Delete(ctx, key)
	}
}

func Transfer(to interop.Hash160, tokenID []byte, data any) bool {
	if len(to) != interop.Hash160Len {
		panic("invalid receiver")
	}

	ctx := storage.GetContext()
	key := append([]byte{ownerPrefix}, tokenID...)
	owner := storage.Get(ctx, key)
	if owner == nil {
		panic("token not found")
	}
	from := owner.(interop.Hash160)

	if storage.Get(ctx, append([]byte{frozenPrefix}, tokenID...)) != nil {
		return false
	}
	if !runtime.CheckWitness(from) {
		return false
	}

	storage.Put(ctx, key, to)
	postTransfer(from, to, tokenID, data)
	return true
}

func postTransfer(from, to interop.Hash160, tokenID []byte, data any) {
	runtime.Notify("Transfer", from, to, 1, tokenID)
	if management.GetContract(to) != nil {
		contract.Call(to, "onNEP11Payment", contract.All, from, 1, tokenID, data)
	}
}
