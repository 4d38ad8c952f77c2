package state

import (
	"fmt"
	"math/big"

	"github.com/iden3/go-iden3-crypto/poseidon"

	"github.com/zkpay/shieldpool/types"
)

// EmptyTreeRoot computes the root of an empty commitment tree of the given
// depth: the zero leaf hashed with itself at every level. The result uses the
// same little-endian 32-byte encoding the circuit public signals carry, so it
// compares directly against proof roots.
func EmptyTreeRoot(depth uint8) ([types.HashLen]byte, error) {
	var out [types.HashLen]byte
	node := big.NewInt(0)
	for level := uint8(0); level < depth; level++ {
		h, err := poseidon.Hash([]*big.Int{node, node})
		if err != nil {
			return out, fmt.Errorf("hash level %d: %w", level, err)
		}
		node = h
	}
	node.FillBytes(out[:])
	// big.Int serializes big-endian; flip to the signal encoding.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
