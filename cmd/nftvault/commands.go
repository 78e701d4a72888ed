package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/manifest"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/nef"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
	"github.com/nspcc-dev/nft-vault-contract/deploy"
	"github.com/nspcc-dev/nft-vault-contract/rpc/vault"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

const deployTimeout = 5 * time.Minute

var (
	rpcFlag = cli.StringFlag{
		Name:   "rpc, r",
		Usage:  "Network address of the Neo RPC server",
		EnvVar: "NFTVAULT_RPC",
	}
	vaultFlag = cli.StringFlag{
		Name:   "vault",
		Usage:  "Address of the NFT Vault contract",
		EnvVar: "NFTVAULT_CONTRACT",
	}
)

func deployCommand() cli.Command {
	return cli.Command{
		Name:  "deploy",
		Usage: "Deploy the contract or update it if the on-chain version is older",
		Flags: []cli.Flag{
			rpcFlag,
			cli.StringFlag{
				Name:   "wallet, w",
				Usage:  "Path to the NEP-6 wallet",
				EnvVar: "NFTVAULT_WALLET",
			},
			cli.StringFlag{
				Name:   "address, a",
				Usage:  "Wallet account sending transactions",
				EnvVar: "NFTVAULT_ADDRESS",
			},
			cli.StringFlag{
				Name:   "committee",
				Usage:  "Wallet account of the committee, required for updates",
				EnvVar: "NFTVAULT_COMMITTEE",
			},
			cli.StringFlag{
				Name:   "password, p",
				Usage:  "Password of the wallet accounts",
				EnvVar: "NFTVAULT_PASSWORD",
			},
			cli.StringFlag{
				Name:   "nef",
				Usage:  "Path to the compiled contract",
				EnvVar: "NFTVAULT_NEF",
			},
			cli.StringFlag{
				Name:   "manifest, m",
				Usage:  "Path to the contract manifest",
				EnvVar: "NFTVAULT_MANIFEST",
			},
			vaultFlag,
		},
		Action: deployAction,
	}
}

func getCommand() cli.Command {
	return cli.Command{
		Name:  "get",
		Usage: "Print custody record of the asset",
		Flags: []cli.Flag{
			rpcFlag,
			vaultFlag,
			cli.StringFlag{
				Name:  "collection, c",
				Usage: "Address of the NEP-11 collection",
			},
			cli.StringFlag{
				Name:  "token, t",
				Usage: "Token ID",
			},
			cli.StringFlag{
				Name:  "token-encoding",
				Usage: "Token ID encoding: hex, base58 or string",
				Value: encodingHex,
			},
		},
		Action: getAction,
	}
}

func listCommand() cli.Command {
	return cli.Command{
		Name:  "list",
		Usage: "Print all assets held by the vault",
		Flags: []cli.Flag{
			rpcFlag,
			vaultFlag,
			cli.IntFlag{
				Name:  "max",
				Usage: "Maximum number of printed records",
				Value: 1000,
			},
		},
		Action: listAction,
	}
}

func deployAction(c *cli.Context) error {
	if c.String("rpc") == "" {
		return cli.NewExitError("missing Neo RPC endpoint", 1)
	}

	w, err := wallet.NewWalletFromFile(c.String("wallet"))
	if err != nil {
		return cli.NewExitError(fmt.Errorf("open wallet: %w", err), 1)
	}
	defer w.Close()

	localAcc, err := unlockAccount(w, c.String("address"), c.String("password"))
	if err != nil {
		return cli.NewExitError(fmt.Errorf("local account: %w", err), 1)
	}

	var committeeAcc *wallet.Account
	if c.String("committee") != "" {
		committeeAcc, err = unlockAccount(w, c.String("committee"), c.String("password"))
		if err != nil {
			return cli.NewExitError(fmt.Errorf("committee account: %w", err), 1)
		}
	}

	ctr, err := readContract(c.String("nef"), c.String("manifest"))
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	var addr util.Uint160
	if c.String("vault") != "" {
		addr, err = parseAccount(c.String("vault"))
		if err != nil {
			return cli.NewExitError(fmt.Errorf("vault address: %w", err), 1)
		}
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return cli.NewExitError(fmt.Errorf("init logger: %w", err), 1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), deployTimeout)
	defer cancel()

	rpc, err := newRPCClient(ctx, c.String("rpc"))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer rpc.Close()

	res, err := deploy.Deploy(ctx, deploy.Prm{
		Logger:           logger,
		Blockchain:       rpc,
		LocalAccount:     localAcc,
		CommitteeAccount: committeeAcc,
		Address:          addr,
		Contract:         ctr,
	})
	if err != nil {
		return cli.NewExitError(fmt.Errorf("deploy NFT Vault contract: %w", err), 1)
	}

	fmt.Fprintf(c.App.Writer, "NFT Vault contract: %s\n", res.StringLE())
	return nil
}

func getAction(c *cli.Context) error {
	vaultAddr, err := parseAccount(c.String("vault"))
	if err != nil {
		return cli.NewExitError(fmt.Errorf("vault address: %w", err), 1)
	}

	collection, err := parseAccount(c.String("collection"))
	if err != nil {
		return cli.NewExitError(fmt.Errorf("collection: %w", err), 1)
	}

	tokenID, err := parseTokenID(c.String("token"), c.String("token-encoding"))
	if err != nil {
		return cli.NewExitError(fmt.Errorf("token: %w", err), 1)
	}

	r, closeFn, err := newVaultReader(context.Background(), c.String("rpc"), vaultAddr)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer closeFn()

	deposited, err := r.IsDeposited(collection, tokenID)
	if err != nil {
		return cli.NewExitError(fmt.Errorf("check presence: %w", err), 1)
	}

	if !deposited {
		fmt.Fprintln(c.App.Writer, "asset is not deposited")
		return nil
	}

	rec, err := r.GetApproval(collection, tokenID)
	if err != nil {
		return cli.NewExitError(fmt.Errorf("get custody record: %w", err), 1)
	}

	printRecord(c.App.Writer, &vault.VaultCustody{
		Collection:   collection,
		TokenID:      tokenID,
		Owner:        rec.Owner,
		SecondSigner: rec.SecondSigner,
		Approved:     rec.Approved,
	})
	return nil
}

func listAction(c *cli.Context) error {
	vaultAddr, err := parseAccount(c.String("vault"))
	if err != nil {
		return cli.NewExitError(fmt.Errorf("vault address: %w", err), 1)
	}

	r, closeFn, err := newVaultReader(context.Background(), c.String("rpc"), vaultAddr)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer closeFn()

	items, err := r.RecordsExpanded(c.Int("max"))
	if err != nil {
		return cli.NewExitError(fmt.Errorf("list records: %w", err), 1)
	}

	records, err := vault.ParseRecords(items)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	for i := range records {
		printRecord(c.App.Writer, records[i])
	}
	return nil
}

func printRecord(w io.Writer, r *vault.VaultCustody) {
	fmt.Fprintf(w, "collection:    %s\n", r.Collection.StringLE())
	fmt.Fprintf(w, "token:         %x\n", r.TokenID)
	fmt.Fprintf(w, "owner:         %s\n", address.Uint160ToString(r.Owner))
	fmt.Fprintf(w, "second signer: %s\n", address.Uint160ToString(r.SecondSigner))
	fmt.Fprintf(w, "approved:      %t\n\n", r.Approved)
}

func unlockAccount(w *wallet.Wallet, addr, password string) (*wallet.Account, error) {
	h, err := parseAccount(addr)
	if err != nil {
		return nil, err
	}

	acc := w.GetAccount(h)
	if acc == nil {
		return nil, fmt.Errorf("account %s is missing in the wallet", addr)
	}

	if err = acc.Decrypt(password, w.Scrypt); err != nil {
		return nil, fmt.Errorf("decrypt account %s: %w", addr, err)
	}

	return acc, nil
}

func readContract(nefPath, manifestPath string) (deploy.CommonDeployPrm, error) {
	var res deploy.CommonDeployPrm

	rawNEF, err := os.ReadFile(nefPath)
	if err != nil {
		return res, fmt.Errorf("read NEF: %w", err)
	}

	res.NEF, err = nef.FileFromBytes(rawNEF)
	if err != nil {
		return res, fmt.Errorf("decode NEF: %w", err)
	}

	rawManifest, err := os.ReadFile(manifestPath)
	if err != nil {
		return res, fmt.Errorf("read manifest: %w", err)
	}

	var m manifest.Manifest
	if err = json.Unmarshal(rawManifest, &m); err != nil {
		return res, fmt.Errorf("decode manifest: %w", err)
	}
	res.Manifest = m

	return res, nil
}
