package engine

import (
	"fmt"

	"go.vocdoni.io/dvote/log"

	"github.com/zkpay/shieldpool/bundle"
	"github.com/zkpay/shieldpool/circuits"
	"github.com/zkpay/shieldpool/types"
)

// DepositRequest shields external value into the pool. The companion
// operations of the enclosing atomic unit must carry the matching value
// transfer into the vault and the authenticity tag for DepositHash.
type DepositRequest struct {
	DepositHash   [types.HashLen]byte
	Proof         []byte
	PublicSignals []byte
	Bundle        bundle.Inspector
}

// TransferRequest spends one note inside the pool, producing two new ones.
type TransferRequest struct {
	Nullifier     [types.HashLen]byte
	Proof         []byte
	PublicSignals []byte
}

// WithdrawRequest unshields value from the vault to a recipient account.
type WithdrawRequest struct {
	Nullifier     [types.HashLen]byte
	Proof         []byte
	PublicSignals []byte
}

// Deposit verifies the deposit proof, checks the companion operations and
// advances the tree by one leaf. Replaying an already processed deposit hash
// is a no-op that returns a receipt marked as replayed: the enclosing unit
// may be retried as a whole and the pool must not fail it.
func (e *Engine) Deposit(req *DepositRequest) (*Receipt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	processed, err := e.pool.DepositProcessed(req.DepositHash)
	if err != nil {
		return nil, err
	}
	if processed {
		e.stats.ReplayedDeposits++
		log.Infow("deposit replayed", "hash", fmt.Sprintf("%x", req.DepositHash))
		return e.receipt(types.CircuitDeposit, true)
	}

	signals, err := e.verifyAndDecode(types.CircuitDeposit, req.Proof, req.PublicSignals)
	if err != nil {
		return nil, e.reject(types.CircuitDeposit, err)
	}
	if signals[circuits.DepositHash] != req.DepositHash {
		return nil, e.reject(types.CircuitDeposit,
			fmt.Errorf("%w: deposit hash", ErrBindingMismatch))
	}
	amount, err := signalUint64(signals[circuits.DepositAmount])
	if err != nil {
		return nil, e.reject(types.CircuitDeposit, err)
	}
	newNextLeafIndex, err := signalUint32(signals[circuits.DepositNewNextLeafIndex])
	if err != nil {
		return nil, e.reject(types.CircuitDeposit, err)
	}

	if err := bundle.FindValueTransfer(req.Bundle, e.cfg.TokenProgram, e.cfg.VaultAccount, amount); err != nil {
		return nil, e.reject(types.CircuitDeposit, err)
	}
	if err := bundle.FindMemo(req.Bundle, e.cfg.MemoProgram, req.DepositHash); err != nil {
		return nil, e.reject(types.CircuitDeposit, err)
	}

	newRoot := signals[circuits.DepositNewRoot]
	if err := e.pool.ApplyDeposit(newRoot, newNextLeafIndex, req.DepositHash,
		e.cfg.VaultAccount, amount); err != nil {
		return nil, e.reject(types.CircuitDeposit, err)
	}

	e.stats.Deposits++
	log.Infow("deposit applied",
		"hash", fmt.Sprintf("%x", req.DepositHash),
		"root", fmt.Sprintf("%x", newRoot),
		"nextLeafIndex", newNextLeafIndex,
		"amount", amount)
	return e.receipt(types.CircuitDeposit, false)
}

// Transfer verifies the transfer proof and advances the tree by two leaves,
// consuming the spent note's nullifier. The proof must be built on the exact
// current root; a stale root means the caller has to re-prove.
func (e *Engine) Transfer(req *TransferRequest) (*Receipt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	signals, err := e.verifyAndDecode(types.CircuitTransfer, req.Proof, req.PublicSignals)
	if err != nil {
		return nil, e.reject(types.CircuitTransfer, err)
	}
	if signals[circuits.TransferNullifier] != req.Nullifier {
		return nil, e.reject(types.CircuitTransfer,
			fmt.Errorf("%w: nullifier", ErrBindingMismatch))
	}
	newNextLeafIndex, err := signalUint32(signals[circuits.TransferNewNextLeafIndex])
	if err != nil {
		return nil, e.reject(types.CircuitTransfer, err)
	}

	if err := e.pool.ApplyTransfer(
		signals[circuits.TransferRootBefore],
		signals[circuits.TransferRootAfter1],
		signals[circuits.TransferRootAfter2],
		newNextLeafIndex,
		req.Nullifier,
	); err != nil {
		return nil, e.reject(types.CircuitTransfer, err)
	}

	e.stats.Transfers++
	log.Infow("transfer applied",
		"nullifier", fmt.Sprintf("%x", req.Nullifier),
		"root", fmt.Sprintf("%x", signals[circuits.TransferRootAfter2]),
		"nextLeafIndex", newNextLeafIndex)
	return e.receipt(types.CircuitTransfer, false)
}

// Withdraw verifies the withdraw proof against the tip or a retained
// historical root, consumes the nullifier and moves value from the vault to
// the recipient named in the proof. The tree is never mutated.
func (e *Engine) Withdraw(req *WithdrawRequest) (*Receipt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	signals, err := e.verifyAndDecode(types.CircuitWithdraw, req.Proof, req.PublicSignals)
	if err != nil {
		return nil, e.reject(types.CircuitWithdraw, err)
	}
	if signals[circuits.WithdrawNullifier] != req.Nullifier {
		return nil, e.reject(types.CircuitWithdraw,
			fmt.Errorf("%w: nullifier", ErrBindingMismatch))
	}
	amount, err := signalUint64(signals[circuits.WithdrawAmount])
	if err != nil {
		return nil, e.reject(types.CircuitWithdraw, err)
	}
	recipient := signals[circuits.WithdrawRecipient]

	if err := e.pool.ApplyWithdraw(
		signals[circuits.WithdrawRoot],
		req.Nullifier,
		e.cfg.VaultAccount,
		recipient[:],
		amount,
	); err != nil {
		return nil, e.reject(types.CircuitWithdraw, err)
	}

	e.stats.Withdrawals++
	log.Infow("withdrawal applied",
		"nullifier", fmt.Sprintf("%x", req.Nullifier),
		"recipient", fmt.Sprintf("%x", recipient),
		"amount", amount)
	return e.receipt(types.CircuitWithdraw, false)
}
