package main

import (
	"context"
	"fmt"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/rpcclient"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/invoker"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/nft-vault-contract/rpc/vault"
)

const rpcTimeout = 15 * time.Second

// newRPCClient dials Neo RPC server. Connection and all requests are done
// within 15s timeout.
func newRPCClient(ctx context.Context, endpoint string) (*rpcclient.Client, error) {
	c, err := rpcclient.New(ctx, endpoint, rpcclient.Options{
		DialTimeout:    rpcTimeout,
		RequestTimeout: rpcTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("RPC client dial: %w", err)
	}

	if err = c.Init(); err != nil {
		c.Close()
		return nil, fmt.Errorf("RPC client init: %w", err)
	}

	return c, nil
}

// newVaultReader returns reader of the vault contract deployed at the given
// address. Returned function releases the connection.
func newVaultReader(ctx context.Context, endpoint string, addr util.Uint160) (*vault.ContractReader, func(), error) {
	c, err := newRPCClient(ctx, endpoint)
	if err != nil {
		return nil, nil, err
	}

	return vault.NewReader(invoker.New(c, nil), addr), c.Close, nil
}
