package state

import (
	"encoding/binary"
	"errors"
	"fmt"

	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

// Balance returns the ledger balance of the given account, zero for accounts
// never seen.
func (p *Pool) Balance(account []byte) (uint64, error) {
	rTx := prefixeddb.NewPrefixedReader(p.db, accountPrefix)
	return readBalance(rTx, account)
}

func readBalance(r db.Reader, account []byte) (uint64, error) {
	data, err := r.Get(account)
	if errors.Is(err, db.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("corrupt balance record for %x: %d bytes", account, len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}

func writeBalance(tx db.WriteTx, account []byte, balance uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], balance)
	return tx.Set(account, buf[:])
}

// creditAccount adds amount to the account balance inside tx, failing on
// uint64 overflow rather than wrapping.
func creditAccount(tx db.WriteTx, account []byte, amount uint64) error {
	wTx := prefixeddb.NewPrefixedWriteTx(tx, accountPrefix)
	cur, err := readBalance(wTx, account)
	if err != nil {
		return err
	}
	if cur > ^uint64(0)-amount {
		return fmt.Errorf("%w: %x", ErrAmountOverflow, account)
	}
	return writeBalance(wTx, account, cur+amount)
}

// moveBalance transfers amount between two ledger accounts inside tx.
func moveBalance(tx db.WriteTx, from, to []byte, amount uint64) error {
	wTx := prefixeddb.NewPrefixedWriteTx(tx, accountPrefix)
	fromCur, err := readBalance(wTx, from)
	if err != nil {
		return err
	}
	if fromCur < amount {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, fromCur, amount)
	}
	toCur, err := readBalance(wTx, to)
	if err != nil {
		return err
	}
	if toCur > ^uint64(0)-amount {
		return fmt.Errorf("%w: %x", ErrAmountOverflow, to)
	}
	if err := writeBalance(wTx, from, fromCur-amount); err != nil {
		return err
	}
	return writeBalance(wTx, to, toCur+amount)
}
