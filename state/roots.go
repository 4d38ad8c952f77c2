package state

import (
	"bytes"
	"errors"
	"fmt"

	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"

	"github.com/zkpay/shieldpool/types"
)

// rootHistory is the persisted root-history cache: a deduplicated,
// insertion-ordered list bounded by the pool's capacity. It is small enough
// (capacity * 32 bytes) to live in a single record.
type rootHistory struct {
	Roots []types.HexBytes `cbor:"0,keyasint"`
}

// ContainsRoot reports whether the given root is the tip or any of the
// retained historical roots.
func (p *Pool) ContainsRoot(root [types.HashLen]byte) (bool, error) {
	rTx := prefixeddb.NewPrefixedReader(p.db, rootCachePrefix)
	hist, err := readRootHistory(rTx)
	if err != nil {
		return false, err
	}
	for _, r := range hist.Roots {
		if bytes.Equal(r, root[:]) {
			return true, nil
		}
	}
	return false, nil
}

// Roots returns the retained root history, oldest first.
func (p *Pool) Roots() ([]types.HexBytes, error) {
	rTx := prefixeddb.NewPrefixedReader(p.db, rootCachePrefix)
	hist, err := readRootHistory(rTx)
	if err != nil {
		return nil, err
	}
	return hist.Roots, nil
}

// insertRoots appends the given roots to the history inside tx, skipping
// roots already present and evicting the oldest entries once the capacity is
// exceeded. Insertion order is preserved so eviction is strictly
// oldest-first.
func (p *Pool) insertRoots(tx db.WriteTx, roots ...[types.HashLen]byte) error {
	wTx := prefixeddb.NewPrefixedWriteTx(tx, rootCachePrefix)
	hist, err := readRootHistory(wTx)
	if err != nil {
		return err
	}
	for _, root := range roots {
		known := false
		for _, r := range hist.Roots {
			if bytes.Equal(r, root[:]) {
				known = true
				break
			}
		}
		if known {
			continue
		}
		hist.Roots = append(hist.Roots, append(types.HexBytes{}, root[:]...))
		if len(hist.Roots) > p.capacity {
			hist.Roots = hist.Roots[1:]
		}
	}
	data, err := encodeRecord(hist)
	if err != nil {
		return fmt.Errorf("encode root history: %w", err)
	}
	return wTx.Set(rootCacheKey, data)
}

func readRootHistory(r db.Reader) (*rootHistory, error) {
	hist := &rootHistory{}
	data, err := r.Get(rootCacheKey)
	if errors.Is(err, db.ErrKeyNotFound) {
		return hist, nil
	}
	if err != nil {
		return nil, err
	}
	if err := decodeRecord(data, hist); err != nil {
		return nil, fmt.Errorf("decode root history: %w", err)
	}
	return hist, nil
}
