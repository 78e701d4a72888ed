package main

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/nft-vault-contract/contracts/vault/vaultconst"
)

// Token ID encodings accepted by --token-encoding flag.
const (
	encodingHex    = "hex"
	encodingBase58 = "base58"
	encodingString = "string"
)

var errMissingValue = errors.New("missing value")

// parseAccount decodes Neo address or LE hex script hash.
func parseAccount(s string) (util.Uint160, error) {
	if s == "" {
		return util.Uint160{}, errMissingValue
	}

	u, err := address.StringToUint160(s)
	if err == nil {
		return u, nil
	}

	u, err = util.Uint160DecodeStringLE(s)
	if err != nil {
		return util.Uint160{}, fmt.Errorf("neither Neo address nor LE script hash: %s", s)
	}

	return u, nil
}

// parseTokenID decodes NEP-11 token ID in the given encoding.
func parseTokenID(s, encoding string) ([]byte, error) {
	if s == "" {
		return nil, errMissingValue
	}

	var (
		id  []byte
		err error
	)

	switch encoding {
	case encodingHex:
		id, err = hex.DecodeString(s)
	case encodingBase58:
		id, err = base58.Decode(s)
	case encodingString:
		id = []byte(s)
	default:
		return nil, fmt.Errorf("unsupported token encoding %q", encoding)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s token ID: %w", encoding, err)
	}

	if len(id) == 0 || len(id) > vaultconst.MaxTokenIDLength {
		return nil, fmt.Errorf("token ID length must be in [1, %d] range", vaultconst.MaxTokenIDLength)
	}

	return id, nil
}
