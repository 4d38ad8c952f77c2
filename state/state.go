// Package state persists the shielded-pool state in a prefixed key-value
// store: the commitment-tree tip, the bounded history of recent roots, the
// nullifier registry, the processed-deposit markers and the internal value
// ledger. The following prefixes are used:
//   - 'ts/' for the commitment-tree tip (root, next leaf index, depth)
//   - 'rc/' for the root-history cache
//   - 'nf/' for consumed nullifiers
//   - 'dm/' for processed-deposit markers
//   - 'va/' for value-ledger account balances
//
// Every state transition runs its checks and mutations inside a single write
// transaction, so a failed operation leaves no partial writes behind.
package state

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
	"go.vocdoni.io/dvote/log"

	"github.com/zkpay/shieldpool/types"
)

var (
	treePrefix      = []byte("ts/")
	rootCachePrefix = []byte("rc/")
	nullifierPrefix = []byte("nf/")
	markerPrefix    = []byte("dm/")
	accountPrefix   = []byte("va/")
)

var (
	treeStateKey = []byte("tip")
	rootCacheKey = []byte("list")
)

var (
	// ErrOldRootMismatch is returned when a transfer is built on a root
	// that is no longer the tree tip.
	ErrOldRootMismatch = errors.New("old root does not match current tree root")
	// ErrLeafIndexMismatch is returned when the claimed next leaf index
	// does not advance the tree by the expected amount.
	ErrLeafIndexMismatch = errors.New("next leaf index mismatch")
	// ErrUnknownRoot is returned when a withdrawal references a root that
	// is neither the tip nor in the recent-root history.
	ErrUnknownRoot = errors.New("unknown merkle root")
	// ErrNullifierUsed is returned on nullifier replay.
	ErrNullifierUsed = errors.New("nullifier already used")
	// ErrInsufficientFunds is returned when the vault cannot cover a
	// withdrawal.
	ErrInsufficientFunds = errors.New("insufficient vault balance")
	// ErrAmountOverflow is returned when a balance operation would wrap.
	ErrAmountOverflow = errors.New("amount overflows balance")
	// ErrLeafIndexOverflow is returned when advancing the tree would wrap
	// the leaf cursor. The tree is full at that point.
	ErrLeafIndexOverflow = errors.New("leaf index overflow")
)

// TreeState is the persisted commitment-tree tip.
type TreeState struct {
	Root          types.HexBytes `cbor:"0,keyasint"`
	NextLeafIndex uint32         `cbor:"1,keyasint"`
	Depth         uint8          `cbor:"2,keyasint"`
}

// Pool is the persistent state of a shielded pool. All methods are safe for
// concurrent use as long as state transitions are serialized by the caller;
// the engine holds a mutex across each operation.
type Pool struct {
	db       db.Database
	capacity int
}

// Open returns a Pool over the given database, initializing the genesis tree
// state on first use. The genesis root is the root of an empty tree of the
// given depth, and it seeds the root-history cache.
func Open(database db.Database, depth uint8, cacheCapacity int) (*Pool, error) {
	if cacheCapacity <= 0 {
		cacheCapacity = types.DefaultRootCacheCapacity
	}
	p := &Pool{db: database, capacity: cacheCapacity}
	_, err := p.TreeState()
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, db.ErrKeyNotFound) {
		return nil, err
	}

	root, err := EmptyTreeRoot(depth)
	if err != nil {
		return nil, fmt.Errorf("compute genesis root: %w", err)
	}
	tx := database.WriteTx()
	defer tx.Discard()
	ts := &TreeState{Root: root[:], NextLeafIndex: 0, Depth: depth}
	if err := setTreeState(tx, ts); err != nil {
		return nil, err
	}
	if err := p.insertRoots(tx, root); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	log.Infow("initialized genesis pool state", "root", fmt.Sprintf("%x", root), "depth", depth)
	return p, nil
}

// Close releases the underlying database.
func (p *Pool) Close() {
	if err := p.db.Close(); err != nil {
		log.Warnw("cannot close state database", "error", err.Error())
	}
}

// TreeState returns the current commitment-tree tip.
func (p *Pool) TreeState() (*TreeState, error) {
	rTx := prefixeddb.NewPrefixedReader(p.db, treePrefix)
	data, err := rTx.Get(treeStateKey)
	if err != nil {
		return nil, err
	}
	ts := &TreeState{}
	if err := decodeRecord(data, ts); err != nil {
		return nil, fmt.Errorf("decode tree state: %w", err)
	}
	return ts, nil
}

func setTreeState(tx db.WriteTx, ts *TreeState) error {
	data, err := encodeRecord(ts)
	if err != nil {
		return fmt.Errorf("encode tree state: %w", err)
	}
	return prefixeddb.NewPrefixedWriteTx(tx, treePrefix).Set(treeStateKey, data)
}

func encodeRecord(v any) ([]byte, error) {
	encOpts := cbor.CoreDetEncOptions()
	em, err := encOpts.EncMode()
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return em.Marshal(v)
}

func decodeRecord(data []byte, out any) error {
	return cbor.Unmarshal(data, out)
}
