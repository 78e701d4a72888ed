package vault_test

import (
	"encoding/json"
	"math/big"
	"path"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/core/interop/storage"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/neotest"
	"github.com/nspcc-dev/neo-go/pkg/neotest/chain"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/nspcc-dev/nft-vault-contract/common"
	"github.com/nspcc-dev/nft-vault-contract/contracts/vault/vaultconst"
	vaultrpc "github.com/nspcc-dev/nft-vault-contract/rpc/vault"
	"github.com/stretchr/testify/require"
)

const (
	vaultPath = "."
	nftPath   = "../../internal/testcontracts/nft"
)

type vaultEnv struct {
	e     *neotest.Executor
	vault *neotest.Contract
	nft   util.Uint160

	owner    neotest.Signer
	signer   neotest.Signer
	stranger neotest.Signer
}

func newVaultEnv(t *testing.T) *vaultEnv {
	bc, acc := chain.NewSingle(t)
	e := neotest.NewExecutor(t, bc, acc, acc)

	nftCtr := neotest.CompileFile(t, e.CommitteeHash, nftPath, path.Join(nftPath, "config.yml"))
	e.DeployContract(t, nftCtr, nil)

	vaultCtr := neotest.CompileFile(t, e.CommitteeHash, vaultPath, path.Join(vaultPath, "config.yml"))
	e.DeployContract(t, vaultCtr, nil)

	return &vaultEnv{
		e:        e,
		vault:    vaultCtr,
		nft:      nftCtr.Hash,
		owner:    e.NewAccount(t),
		signer:   e.NewAccount(t),
		stranger: e.NewAccount(t),
	}
}

func (v *vaultEnv) vaultAs(s neotest.Signer) *neotest.ContractInvoker {
	return v.e.NewInvoker(v.vault.Hash, s)
}

func (v *vaultEnv) nftAs(s neotest.Signer) *neotest.ContractInvoker {
	return v.e.NewInvoker(v.nft, s)
}

func (v *vaultEnv) mint(t *testing.T, owner neotest.Signer, tokenID []byte) {
	v.nftAs(owner).Invoke(t, stackitem.Null{}, "mint", owner.ScriptHash(), tokenID)
}

// deposit mints a new token for the owner and puts it into custody.
func (v *vaultEnv) deposit(t *testing.T, tokenID []byte) {
	v.mint(t, v.owner, tokenID)
	v.vaultAs(v.owner).Invoke(t, stackitem.Null{}, "depositNFT",
		v.owner.ScriptHash(), v.nft, tokenID, v.signer.ScriptHash())
}

func (v *vaultEnv) approval(t *testing.T, tokenID []byte) *vaultrpc.VaultCustodyRecord {
	s, err := v.vaultAs(v.stranger).TestInvoke(t, "getApproval", v.nft, tokenID)
	require.NoError(t, err)

	rec := new(vaultrpc.VaultCustodyRecord)
	require.NoError(t, rec.FromStackItem(s.Pop().Item()))
	return rec
}

func (v *vaultEnv) ownerOf(t *testing.T, tokenID []byte) util.Uint160 {
	s, err := v.nftAs(v.stranger).TestInvoke(t, "ownerOf", tokenID)
	require.NoError(t, err)

	b, err := s.Pop().Item().TryBytes()
	require.NoError(t, err)

	u, err := util.Uint160DecodeBytesBE(b)
	require.NoError(t, err)
	return u
}

func (v *vaultEnv) requireRecord(t *testing.T, tokenID []byte, approved bool) {
	rec := v.approval(t, tokenID)
	require.Equal(t, v.owner.ScriptHash(), rec.Owner)
	require.Equal(t, v.signer.ScriptHash(), rec.SecondSigner)
	require.Equal(t, approved, rec.Approved)
}

func (v *vaultEnv) requireAbsent(t *testing.T, tokenID []byte) {
	rec := v.approval(t, tokenID)
	require.Equal(t, util.Uint160{}, rec.Owner)
	require.Equal(t, util.Uint160{}, rec.SecondSigner)
	require.False(t, rec.Approved)

	v.vaultAs(v.stranger).Invoke(t, false, "isDeposited", v.nft, tokenID)
}

func (v *vaultEnv) appLog(t *testing.T, h util.Uint256) *result.ApplicationLog {
	res := v.e.GetTxExecResult(t, h)
	return &result.ApplicationLog{
		Container:     h,
		IsTransaction: true,
		Executions:    []state.Execution{res.Execution},
	}
}

func TestDeposit(t *testing.T) {
	v := newVaultEnv(t)
	tokenID := []byte("token-1")

	v.requireAbsent(t, tokenID)

	v.deposit(t, tokenID)
	v.requireRecord(t, tokenID, false)
	require.Equal(t, v.vault.Hash, v.ownerOf(t, tokenID))
	v.vaultAs(v.stranger).Invoke(t, true, "isDeposited", v.nft, tokenID)

	t.Run("already deposited", func(t *testing.T) {
		v.vaultAs(v.owner).InvokeFail(t, vaultconst.ErrAlreadyDeposited, "depositNFT",
			v.owner.ScriptHash(), v.nft, tokenID, v.signer.ScriptHash())
		v.requireRecord(t, tokenID, false)
	})

	t.Run("token of another account", func(t *testing.T) {
		id := []byte("token-2")
		v.mint(t, v.owner, id)

		v.vaultAs(v.stranger).InvokeFail(t, vaultconst.ErrRegistryTransferFailed, "depositNFT",
			v.stranger.ScriptHash(), v.nft, id, v.signer.ScriptHash())
		v.requireAbsent(t, id)
		require.Equal(t, v.owner.ScriptHash(), v.ownerOf(t, id))
	})

	t.Run("on behalf of the owner", func(t *testing.T) {
		id := []byte("token-3")
		v.mint(t, v.owner, id)

		v.vaultAs(v.stranger).InvokeFail(t, common.ErrOwnerWitnessFailed, "depositNFT",
			v.owner.ScriptHash(), v.nft, id, v.signer.ScriptHash())
		v.requireAbsent(t, id)
	})

	t.Run("frozen token", func(t *testing.T) {
		id := []byte("token-4")
		v.mint(t, v.owner, id)
		v.nftAs(v.stranger).Invoke(t, stackitem.Null{}, "setFrozen", id, true)

		v.vaultAs(v.owner).InvokeFail(t, vaultconst.ErrRegistryTransferFailed, "depositNFT",
			v.owner.ScriptHash(), v.nft, id, v.signer.ScriptHash())
		v.requireAbsent(t, id)
		require.Equal(t, v.owner.ScriptHash(), v.ownerOf(t, id))
	})

	t.Run("invalid arguments", func(t *testing.T) {
		c := v.vaultAs(v.owner)
		owner, signer := v.owner.ScriptHash(), v.signer.ScriptHash()

		c.InvokeFail(t, vaultconst.ErrInvalidOwner, "depositNFT",
			[]byte{1, 2, 3}, v.nft, tokenID, signer)
		c.InvokeFail(t, vaultconst.ErrInvalidCollection, "depositNFT",
			owner, []byte{1, 2, 3}, tokenID, signer)
		c.InvokeFail(t, vaultconst.ErrInvalidTokenID, "depositNFT",
			owner, v.nft, []byte{}, signer)
		c.InvokeFail(t, vaultconst.ErrInvalidTokenID, "depositNFT",
			owner, v.nft, make([]byte, vaultconst.MaxTokenIDLength+1), signer)
		c.InvokeFail(t, vaultconst.ErrInvalidSecondSigner, "depositNFT",
			owner, v.nft, tokenID, []byte{1, 2, 3})
	})
}

func TestPushDeposit(t *testing.T) {
	v := newVaultEnv(t)
	tokenID := []byte("pushed")

	v.mint(t, v.owner, tokenID)

	t.Run("without second signer", func(t *testing.T) {
		v.nftAs(v.owner).InvokeFail(t, vaultconst.ErrInvalidSecondSigner, "transfer",
			v.vault.Hash, tokenID, nil)
		require.Equal(t, v.owner.ScriptHash(), v.ownerOf(t, tokenID))
	})

	v.nftAs(v.owner).Invoke(t, true, "transfer", v.vault.Hash, tokenID, v.signer.ScriptHash())
	v.requireRecord(t, tokenID, false)
	require.Equal(t, v.vault.Hash, v.ownerOf(t, tokenID))
}

func TestDepositPullPath(t *testing.T) {
	v := newVaultEnv(t)
	tokenID := []byte("pulled")

	v.mint(t, v.owner, tokenID)
	h := v.vaultAs(v.owner).Invoke(t, stackitem.Null{}, "depositNFT",
		v.owner.ScriptHash(), v.nft, tokenID, v.signer.ScriptHash())

	v.requireRecord(t, tokenID, false)
	require.Equal(t, v.vault.Hash, v.ownerOf(t, tokenID))

	deposits, err := vaultrpc.DepositEventsFromApplicationLog(v.appLog(t, h))
	require.NoError(t, err)
	require.Len(t, deposits, 1)
	require.Equal(t, v.owner.ScriptHash(), deposits[0].Owner)
}

func TestPushDepositSecondSignerType(t *testing.T) {
	v := newVaultEnv(t)
	tokenID := []byte("pushed")

	v.mint(t, v.owner, tokenID)

	// 20-byte Integer
	num := new(big.Int).Lsh(big.NewInt(1), 152)
	v.nftAs(v.owner).InvokeFail(t, vaultconst.ErrInvalidSecondSigner, "transfer",
		v.vault.Hash, tokenID, num)
	v.nftAs(v.owner).InvokeFail(t, vaultconst.ErrInvalidSecondSigner, "transfer",
		v.vault.Hash, tokenID, []byte{1, 2, 3})
	v.requireAbsent(t, tokenID)
	require.Equal(t, v.owner.ScriptHash(), v.ownerOf(t, tokenID))
}

func TestOnNEP11PaymentDirectCall(t *testing.T) {
	v := newVaultEnv(t)

	v.vaultAs(v.owner).InvokeFail(t, vaultconst.ErrInvalidCollection, "onNEP11Payment",
		v.owner.ScriptHash(), 1, []byte("token"), v.signer.ScriptHash())
	v.vaultAs(v.owner).InvokeFail(t, vaultconst.ErrInvalidAmount, "onNEP11Payment",
		v.owner.ScriptHash(), 2, []byte("token"), v.signer.ScriptHash())
}

func TestApproval(t *testing.T) {
	v := newVaultEnv(t)
	tokenID := []byte("token")

	t.Run("not deposited", func(t *testing.T) {
		v.vaultAs(v.signer).InvokeFail(t, vaultconst.ErrNotDeposited, "approveWithdraw", v.nft, tokenID)
		v.vaultAs(v.signer).InvokeFail(t, vaultconst.ErrNotDeposited, "removeApproval", v.nft, tokenID)
	})

	v.deposit(t, tokenID)

	for _, s := range []neotest.Signer{v.owner, v.stranger} {
		v.vaultAs(s).InvokeFail(t, vaultconst.ErrNotApprover, "approveWithdraw", v.nft, tokenID)
	}
	v.requireRecord(t, tokenID, false)

	c := v.vaultAs(v.signer)
	c.Invoke(t, stackitem.Null{}, "approveWithdraw", v.nft, tokenID)
	v.requireRecord(t, tokenID, true)

	c.Invoke(t, stackitem.Null{}, "approveWithdraw", v.nft, tokenID)
	v.requireRecord(t, tokenID, true)

	for _, s := range []neotest.Signer{v.owner, v.stranger} {
		v.vaultAs(s).InvokeFail(t, vaultconst.ErrNotApprover, "removeApproval", v.nft, tokenID)
	}
	v.requireRecord(t, tokenID, true)

	c.Invoke(t, stackitem.Null{}, "removeApproval", v.nft, tokenID)
	v.requireRecord(t, tokenID, false)

	c.Invoke(t, stackitem.Null{}, "removeApproval", v.nft, tokenID)
	v.requireRecord(t, tokenID, false)

	v.vaultAs(v.owner).InvokeFail(t, vaultconst.ErrApprovalPending, "withdrawNFT", v.nft, tokenID)
}

func TestWithdraw(t *testing.T) {
	v := newVaultEnv(t)
	tokenID := []byte("token")

	v.vaultAs(v.owner).InvokeFail(t, vaultconst.ErrNotDeposited, "withdrawNFT", v.nft, tokenID)

	v.deposit(t, tokenID)

	v.vaultAs(v.owner).InvokeFail(t, vaultconst.ErrApprovalPending, "withdrawNFT", v.nft, tokenID)

	v.vaultAs(v.signer).Invoke(t, stackitem.Null{}, "approveWithdraw", v.nft, tokenID)

	for _, s := range []neotest.Signer{v.signer, v.stranger} {
		v.vaultAs(s).InvokeFail(t, vaultconst.ErrNotOwner, "withdrawNFT", v.nft, tokenID)
	}
	v.requireRecord(t, tokenID, true)

	v.vaultAs(v.owner).Invoke(t, stackitem.Null{}, "withdrawNFT", v.nft, tokenID)
	v.requireAbsent(t, tokenID)
	require.Equal(t, v.owner.ScriptHash(), v.ownerOf(t, tokenID))

	v.vaultAs(v.owner).InvokeFail(t, vaultconst.ErrNotDeposited, "withdrawNFT", v.nft, tokenID)
	v.vaultAs(v.signer).InvokeFail(t, vaultconst.ErrNotDeposited, "approveWithdraw", v.nft, tokenID)
	v.vaultAs(v.signer).InvokeFail(t, vaultconst.ErrNotDeposited, "removeApproval", v.nft, tokenID)

	t.Run("deposit again", func(t *testing.T) {
		v.vaultAs(v.owner).Invoke(t, stackitem.Null{}, "depositNFT",
			v.owner.ScriptHash(), v.nft, tokenID, v.signer.ScriptHash())
		v.requireRecord(t, tokenID, false)
	})
}

func TestWithdrawTransferFailed(t *testing.T) {
	v := newVaultEnv(t)
	tokenID := []byte("token")

	v.deposit(t, tokenID)
	v.vaultAs(v.signer).Invoke(t, stackitem.Null{}, "approveWithdraw", v.nft, tokenID)

	v.nftAs(v.stranger).Invoke(t, stackitem.Null{}, "setFrozen", tokenID, true)
	v.vaultAs(v.owner).InvokeFail(t, vaultconst.ErrRegistryTransferFailed, "withdrawNFT", v.nft, tokenID)
	v.requireRecord(t, tokenID, true)
	require.Equal(t, v.vault.Hash, v.ownerOf(t, tokenID))

	v.nftAs(v.stranger).Invoke(t, stackitem.Null{}, "setFrozen", tokenID, false)
	v.vaultAs(v.owner).Invoke(t, stackitem.Null{}, "withdrawNFT", v.nft, tokenID)
	v.requireAbsent(t, tokenID)
	require.Equal(t, v.owner.ScriptHash(), v.ownerOf(t, tokenID))
}

func TestRecords(t *testing.T) {
	v := newVaultEnv(t)
	ids := [][]byte{[]byte("first"), []byte("second"), []byte("third")}

	for _, id := range ids {
		v.deposit(t, id)
	}
	v.vaultAs(v.signer).Invoke(t, stackitem.Null{}, "approveWithdraw", v.nft, ids[1])
	v.vaultAs(v.owner).Invoke(t, stackitem.Null{}, "withdrawNFT", v.nft, ids[1])
	v.vaultAs(v.signer).Invoke(t, stackitem.Null{}, "approveWithdraw", v.nft, ids[2])

	s, err := v.vaultAs(v.stranger).TestInvoke(t, "records")
	require.NoError(t, err)

	iter := s.Pop().Value().(*storage.Iterator)
	var items []stackitem.Item
	for iter.Next() {
		items = append(items, iter.Value())
	}

	records, err := vaultrpc.ParseRecords(items)
	require.NoError(t, err)
	require.Len(t, records, 2)

	actual := make(map[string]bool, len(records))
	for _, r := range records {
		require.Equal(t, v.nft, r.Collection)
		require.Equal(t, v.owner.ScriptHash(), r.Owner)
		require.Equal(t, v.signer.ScriptHash(), r.SecondSigner)
		actual[string(r.TokenID)] = r.Approved
	}
	require.Equal(t, map[string]bool{"first": false, "third": true}, actual)
}

func TestVersion(t *testing.T) {
	v := newVaultEnv(t)

	v.vaultAs(v.stranger).Invoke(t, common.Version, "version")
}

func TestUpdate(t *testing.T) {
	v := newVaultEnv(t)

	rawManifest, err := json.Marshal(v.vault.Manifest)
	require.NoError(t, err)
	rawNef, err := v.vault.NEF.Bytes()
	require.NoError(t, err)

	v.vaultAs(v.stranger).InvokeFail(t, "only committee can update contract", "update",
		rawNef, rawManifest, nil)

	v.e.CommitteeInvoker(v.vault.Hash).InvokeFail(t, common.ErrAlreadyUpdated, "update",
		rawNef, rawManifest, nil)
}

func TestEvents(t *testing.T) {
	v := newVaultEnv(t)
	tokenID := []byte("token")

	v.mint(t, v.owner, tokenID)
	h := v.vaultAs(v.owner).Invoke(t, stackitem.Null{}, "depositNFT",
		v.owner.ScriptHash(), v.nft, tokenID, v.signer.ScriptHash())

	deposits, err := vaultrpc.DepositEventsFromApplicationLog(v.appLog(t, h))
	require.NoError(t, err)
	require.Equal(t, []*vaultrpc.DepositEvent{{
		Collection:   v.nft,
		TokenID:      tokenID,
		Owner:        v.owner.ScriptHash(),
		SecondSigner: v.signer.ScriptHash(),
	}}, deposits)

	c := v.vaultAs(v.signer)
	h = c.Invoke(t, stackitem.Null{}, "approveWithdraw", v.nft, tokenID)

	approvals, err := vaultrpc.ApprovalEventsFromApplicationLog(v.appLog(t, h))
	require.NoError(t, err)
	require.Equal(t, []*vaultrpc.ApprovalEvent{{
		Collection: v.nft,
		TokenID:    tokenID,
		Approved:   true,
	}}, approvals)

	h = c.Invoke(t, stackitem.Null{}, "approveWithdraw", v.nft, tokenID)

	approvals, err = vaultrpc.ApprovalEventsFromApplicationLog(v.appLog(t, h))
	require.NoError(t, err)
	require.Empty(t, approvals)

	h = v.vaultAs(v.owner).Invoke(t, stackitem.Null{}, "withdrawNFT", v.nft, tokenID)

	withdrawals, err := vaultrpc.WithdrawEventsFromApplicationLog(v.appLog(t, h))
	require.NoError(t, err)
	require.Equal(t, []*vaultrpc.WithdrawEvent{{
		Collection: v.nft,
		TokenID:    tokenID,
		Owner:      v.owner.ScriptHash(),
	}}, withdrawals)
}
