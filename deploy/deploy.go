package deploy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/invoker"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/management"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/manifest"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/nef"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
	"github.com/nspcc-dev/nft-vault-contract/common"
	"github.com/nspcc-dev/nft-vault-contract/rpc/vault"
	"go.uber.org/zap"
)

// ErrCommitteeAccountMissing is returned by Deploy when the on-chain contract
// is outdated but Prm.CommitteeAccount is not set.
var ErrCommitteeAccountMissing = errors.New("committee account is required to update the contract")

// Blockchain groups services provided by particular Neo blockchain network
// that are required for the NFT vault deployment.
type Blockchain interface {
	// RPCActor groups functions needed to compose and send transactions to
	// the blockchain.
	actor.RPCActor

	// GetContractStateByHash returns network state of the smart contract by
	// its address. GetContractStateByHash returns error with 'Unknown contract'
	// substring if requested contract is missing.
	GetContractStateByHash(util.Uint160) (*state.Contract, error)
}

// CommonDeployPrm groups common deployment parameters of the smart contract.
type CommonDeployPrm struct {
	NEF      nef.File
	Manifest manifest.Manifest
}

// Prm groups all parameters of the NFT vault deployment procedure.
type Prm struct {
	// Writes progress into the log.
	Logger *zap.Logger

	// Particular Neo blockchain instance the vault is deployed to.
	Blockchain Blockchain

	// Local process account used for transaction signing (must be unlocked).
	// Address of a newly deployed contract depends on it.
	LocalAccount *wallet.Account

	// Committee multi-sig account witnessing contract updates (must be
	// unlocked). Optional, required only if the on-chain contract is
	// outdated.
	CommitteeAccount *wallet.Account

	// Address of the already deployed contract. Zero value means the address
	// derived from LocalAccount and the contract itself.
	Address util.Uint160

	Contract CommonDeployPrm
}

// Deploy synchronizes the NFT vault contract with the Neo network represented
// by Prm.Blockchain and returns its on-chain address.
//
// The contract is deployed if it is missing, updated through its own update
// method if the on-chain version is older than the local one and left
// untouched otherwise. Deploy waits for every sent transaction to be
// persisted and aborts by context.
func Deploy(ctx context.Context, prm Prm) (util.Uint160, error) {
	// wrap the parent context into the context of the current function so that
	// transaction wait routines do not leak
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	localActor, err := actor.NewSimple(prm.Blockchain, prm.LocalAccount)
	if err != nil {
		return util.Uint160{}, fmt.Errorf("init transaction sender from single local account: %w", err)
	}

	syncPrm := syncContractPrm{
		logger:        prm.Logger,
		blockchain:    prm.Blockchain,
		localAcc:      prm.LocalAccount.ScriptHash(),
		address:       prm.Address,
		localNEF:      prm.Contract.NEF,
		localManifest: prm.Contract.Manifest,
		localVersion:  common.Version,
		deployer:      managementDeployer{actor: localActor, mgmt: management.New(localActor)},
		readVersion: func(addr util.Uint160) (*big.Int, error) {
			return vault.NewReader(invoker.New(prm.Blockchain, nil), addr).Version()
		},
	}

	if prm.CommitteeAccount != nil {
		committeeActor, err := actor.NewSimple(prm.Blockchain, prm.CommitteeAccount)
		if err != nil {
			return util.Uint160{}, fmt.Errorf("init transaction sender from committee account: %w", err)
		}

		syncPrm.updater = vaultUpdater{actor: committeeActor}
	}

	return syncContract(ctx, syncPrm)
}

// contractDeployer deploys new contracts and waits for the result.
type contractDeployer interface {
	deploy(nef.File, manifest.Manifest) (*state.AppExecResult, error)
}

// contractUpdater updates the deployed vault contract and waits for the result.
type contractUpdater interface {
	update(util.Uint160, nef.File, manifest.Manifest) (*state.AppExecResult, error)
}

type managementDeployer struct {
	actor *actor.Actor
	mgmt  *management.Contract
}

func (x managementDeployer) deploy(n nef.File, m manifest.Manifest) (*state.AppExecResult, error) {
	return x.actor.Wait(x.mgmt.Deploy(&n, &m, nil))
}

type vaultUpdater struct {
	actor *actor.Actor
}

func (x vaultUpdater) update(addr util.Uint160, n nef.File, m manifest.Manifest) (*state.AppExecResult, error) {
	rawNEF, err := n.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encode NEF: %w", err)
	}

	rawManifest, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}

	return x.actor.Wait(vault.New(x.actor, addr).Update(rawNEF, rawManifest, nil))
}

type syncContractPrm struct {
	logger *zap.Logger

	blockchain interface {
		GetContractStateByHash(util.Uint160) (*state.Contract, error)
	}

	localAcc util.Uint160
	address  util.Uint160

	localNEF      nef.File
	localManifest manifest.Manifest
	localVersion  int

	deployer    contractDeployer
	updater     contractUpdater
	readVersion func(util.Uint160) (*big.Int, error)
}

func syncContract(ctx context.Context, prm syncContractPrm) (util.Uint160, error) {
	addr := prm.address
	if addr.Equals(util.Uint160{}) {
		addr = state.CreateContractHash(prm.localAcc, prm.localNEF.Checksum, prm.localManifest.Name)
	}

	l := prm.logger.With(zap.String("contract", prm.localManifest.Name), zap.Stringer("address", addr))

	if err := ctx.Err(); err != nil {
		return util.Uint160{}, err
	}

	l.Info("reading on-chain state of the contract...")

	st, err := prm.blockchain.GetContractStateByHash(addr)
	if err != nil {
		if !isErrContractNotFound(err) {
			return util.Uint160{}, fmt.Errorf("get state of the contract %s: %w", addr.StringLE(), err)
		}

		if !prm.address.Equals(util.Uint160{}) {
			return util.Uint160{}, fmt.Errorf("contract %s is missing on the chain", addr.StringLE())
		}

		l.Info("contract is missing on the chain, deploying...")

		res, err := await(ctx, func() (*state.AppExecResult, error) {
			return prm.deployer.deploy(prm.localNEF, prm.localManifest)
		})
		if err != nil {
			return util.Uint160{}, fmt.Errorf("deploy contract: %w", err)
		}

		if err = vault.CheckResult(res); err != nil {
			return util.Uint160{}, fmt.Errorf("deploy contract: %w", err)
		}

		l.Info("contract successfully deployed", zap.Stringer("tx", res.Container))

		return addr, nil
	}

	if st.Manifest.Name != prm.localManifest.Name {
		return util.Uint160{}, fmt.Errorf("unexpected contract %q at the address %s", st.Manifest.Name, addr.StringLE())
	}

	onChainVersion, err := prm.readVersion(addr)
	if err != nil {
		return util.Uint160{}, fmt.Errorf("read version of the on-chain contract: %w", err)
	}

	if onChainVersion.Cmp(big.NewInt(int64(prm.localVersion))) >= 0 {
		l.Info("on-chain contract is up to date", zap.Stringer("version", onChainVersion))
		return addr, nil
	}

	if prm.updater == nil {
		return util.Uint160{}, ErrCommitteeAccountMissing
	}

	l.Info("on-chain contract is outdated, updating...",
		zap.Stringer("on-chain version", onChainVersion), zap.Int("local version", prm.localVersion))

	res, err := await(ctx, func() (*state.AppExecResult, error) {
		return prm.updater.update(addr, prm.localNEF, prm.localManifest)
	})
	if err != nil {
		return util.Uint160{}, fmt.Errorf("update contract: %w", err)
	}

	if err = vault.CheckResult(res); err != nil {
		return util.Uint160{}, fmt.Errorf("update contract: %w", err)
	}

	l.Info("contract successfully updated", zap.Stringer("tx", res.Container))

	return addr, nil
}

// await runs f and waits for its result until the context is done.
func await(ctx context.Context, f func() (*state.AppExecResult, error)) (*state.AppExecResult, error) {
	type result struct {
		res *state.AppExecResult
		err error
	}

	ch := make(chan result, 1)

	go func() {
		res, err := f()
		ch <- result{res, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.res, r.err
	}
}

func isErrContractNotFound(err error) bool {
	return strings.Contains(err.Error(), "Unknown contract")
}
