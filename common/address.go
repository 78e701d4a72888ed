package common

import "github.com/nspcc-dev/neo-go/pkg/interop"

// ZeroAddress is a 20-byte zero script hash. It is never a valid owner of
// anything and is used as an "empty" account value in method results.
const ZeroAddress = "\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00"

// IsValidAddress checks that the passed value is a 20-byte script hash.
func IsValidAddress(addr interop.Hash160) bool {
	return addr != nil && len(addr) == interop.Hash160Len
}
