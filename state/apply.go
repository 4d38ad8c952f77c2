package state

import (
	"bytes"
	"fmt"
	"math"

	"github.com/zkpay/shieldpool/types"
)

// ApplyDeposit advances the tree tip by one leaf, records the new root in the
// history, marks the deposit hash as processed and credits the vault ledger.
// The claimed next leaf index must be exactly one past the current one.
func (p *Pool) ApplyDeposit(newRoot [types.HashLen]byte, newNextLeafIndex uint32,
	depositHash [types.HashLen]byte, vaultAccount []byte, amount uint64,
) error {
	tx := p.db.WriteTx()
	defer tx.Discard()

	ts, err := p.TreeState()
	if err != nil {
		return err
	}
	if ts.NextLeafIndex > math.MaxUint32-1 {
		return fmt.Errorf("%w: cursor at %d", ErrLeafIndexOverflow, ts.NextLeafIndex)
	}
	if newNextLeafIndex != ts.NextLeafIndex+1 {
		return fmt.Errorf("%w: claimed %d, expected %d",
			ErrLeafIndexMismatch, newNextLeafIndex, ts.NextLeafIndex+1)
	}

	ts.Root = newRoot[:]
	ts.NextLeafIndex = newNextLeafIndex
	if err := setTreeState(tx, ts); err != nil {
		return err
	}
	if err := p.insertRoots(tx, newRoot); err != nil {
		return err
	}
	if err := markDeposit(tx, depositHash); err != nil {
		return err
	}
	if err := creditAccount(tx, vaultAccount, amount); err != nil {
		return err
	}
	return tx.Commit()
}

// ApplyTransfer consumes the spent note's nullifier and advances the tree tip
// by two leaves, recording both intermediate roots. The proof must be built
// on the exact current root; historical roots are not accepted for spends.
func (p *Pool) ApplyTransfer(oldRoot, rootAfter1, rootAfter2 [types.HashLen]byte,
	newNextLeafIndex uint32, nullifier [types.HashLen]byte,
) error {
	tx := p.db.WriteTx()
	defer tx.Discard()

	ts, err := p.TreeState()
	if err != nil {
		return err
	}
	if !bytes.Equal(oldRoot[:], ts.Root) {
		return fmt.Errorf("%w: claimed %x, current %x", ErrOldRootMismatch, oldRoot, ts.Root)
	}
	if ts.NextLeafIndex > math.MaxUint32-2 {
		return fmt.Errorf("%w: cursor at %d", ErrLeafIndexOverflow, ts.NextLeafIndex)
	}
	if newNextLeafIndex != ts.NextLeafIndex+2 {
		return fmt.Errorf("%w: claimed %d, expected %d",
			ErrLeafIndexMismatch, newNextLeafIndex, ts.NextLeafIndex+2)
	}
	if err := consumeNullifier(tx, nullifier); err != nil {
		return err
	}

	ts.Root = rootAfter2[:]
	ts.NextLeafIndex = newNextLeafIndex
	if err := setTreeState(tx, ts); err != nil {
		return err
	}
	if err := p.insertRoots(tx, rootAfter1, rootAfter2); err != nil {
		return err
	}
	return tx.Commit()
}

// ApplyWithdraw consumes the nullifier and moves value from the vault to the
// recipient account. The referenced root may be the tip or any retained
// historical root; the tree itself is never mutated by a withdrawal.
func (p *Pool) ApplyWithdraw(root, nullifier [types.HashLen]byte,
	vaultAccount, recipient []byte, amount uint64,
) error {
	tx := p.db.WriteTx()
	defer tx.Discard()

	known, err := p.ContainsRoot(root)
	if err != nil {
		return err
	}
	if !known {
		return fmt.Errorf("%w: %x", ErrUnknownRoot, root)
	}
	if err := consumeNullifier(tx, nullifier); err != nil {
		return err
	}
	if err := moveBalance(tx, vaultAccount, recipient, amount); err != nil {
		return err
	}
	return tx.Commit()
}
