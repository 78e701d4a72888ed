package vault

import (
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
)

// ParseRecords converts items of `records` iterator into custody entries.
func ParseRecords(items []stackitem.Item) ([]*VaultCustody, error) {
	res := make([]*VaultCustody, 0, len(items))

	for i := range items {
		c, err := itemToVaultCustody(items[i], nil)
		if err != nil {
			return nil, fmt.Errorf("record #%d: %w", i, err)
		}

		res = append(res, c)
	}

	return res, nil
}

