package state

import (
	"errors"
	"fmt"

	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"

	"github.com/zkpay/shieldpool/types"
)

// NullifierUsed reports whether the nullifier has been consumed.
func (p *Pool) NullifierUsed(nullifier [types.HashLen]byte) (bool, error) {
	rTx := prefixeddb.NewPrefixedReader(p.db, nullifierPrefix)
	_, err := rTx.Get(nullifier[:])
	if errors.Is(err, db.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// consumeNullifier records the nullifier inside tx, failing on replay. The
// check and the write share the transaction so concurrent spends of the same
// note cannot both succeed.
func consumeNullifier(tx db.WriteTx, nullifier [types.HashLen]byte) error {
	wTx := prefixeddb.NewPrefixedWriteTx(tx, nullifierPrefix)
	_, err := wTx.Get(nullifier[:])
	if err == nil {
		return fmt.Errorf("%w: %x", ErrNullifierUsed, nullifier)
	}
	if !errors.Is(err, db.ErrKeyNotFound) {
		return err
	}
	return wTx.Set(nullifier[:], []byte{1})
}

// DepositProcessed reports whether the deposit hash has already been applied.
func (p *Pool) DepositProcessed(hash [types.HashLen]byte) (bool, error) {
	rTx := prefixeddb.NewPrefixedReader(p.db, markerPrefix)
	_, err := rTx.Get(hash[:])
	if errors.Is(err, db.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func markDeposit(tx db.WriteTx, hash [types.HashLen]byte) error {
	return prefixeddb.NewPrefixedWriteTx(tx, markerPrefix).Set(hash[:], []byte{1})
}
