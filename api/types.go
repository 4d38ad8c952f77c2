package api

import (
	"github.com/zkpay/shieldpool/bundle"
	"github.com/zkpay/shieldpool/engine"
	"github.com/zkpay/shieldpool/types"
)

// DepositRequest is the JSON body of POST /deposits. Bundle carries the
// companion operations of the enclosing atomic unit, in execution order, with
// the pool operation last.
type DepositRequest struct {
	DepositHash   types.HexBytes      `json:"depositHash"`
	Proof         types.HexBytes      `json:"proof"`
	PublicSignals types.HexBytes      `json:"publicSignals"`
	Bundle        []*bundle.Operation `json:"bundle"`
}

// SpendRequest is the JSON body of POST /transfers and POST /withdrawals.
type SpendRequest struct {
	Nullifier     types.HexBytes `json:"nullifier"`
	Proof         types.HexBytes `json:"proof"`
	PublicSignals types.HexBytes `json:"publicSignals"`
}

// PoolInfo is the response of GET /pool.
type PoolInfo struct {
	Root          types.HexBytes `json:"root"`
	NextLeafIndex uint32         `json:"nextLeafIndex"`
	Depth         uint8          `json:"depth"`
	RootHistory   int            `json:"rootHistory"`
	VaultBalance  uint64         `json:"vaultBalance"`
	Stats         engine.Stats   `json:"stats"`
}

// RootStatus is the response of GET /roots/{root}.
type RootStatus struct {
	Root  types.HexBytes `json:"root"`
	Known bool           `json:"known"`
}
