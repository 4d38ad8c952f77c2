// Package engine orchestrates the three shielded-pool operations. Each
// request carries a proof, its public signals and the caller-declared
// bindings; the engine verifies the proof, cross-checks every binding
// against the signals and applies the state transition. Proof verification
// failures are reported opaquely, with no detail about which check failed.
package engine

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.vocdoni.io/dvote/log"

	"github.com/zkpay/shieldpool/state"
	"github.com/zkpay/shieldpool/types"
	"github.com/zkpay/shieldpool/zkverifier"
)

var (
	// ErrUnknownCircuit is returned when no verifier is registered for
	// the requested operation.
	ErrUnknownCircuit = errors.New("no verifier for circuit")
	// ErrBindingMismatch is returned when a caller-declared value does
	// not match the corresponding proof signal.
	ErrBindingMismatch = errors.New("request does not match proof signals")
	// ErrSignalRange is returned when a numeric signal exceeds the width
	// its consumer expects.
	ErrSignalRange = errors.New("numeric signal out of range")
)

// Config carries the environment bindings of the engine: the programs whose
// companion operations are trusted during deposit, and the vault account
// value flows through.
type Config struct {
	TokenProgram types.HexBytes
	MemoProgram  types.HexBytes
	VaultAccount types.HexBytes
}

// Engine applies pool operations against persistent state. State transitions
// are serialized with a mutex, so checks always observe the state they will
// be committed against.
type Engine struct {
	mu        sync.Mutex
	pool      *state.Pool
	verifiers map[string]zkverifier.ProofVerifier
	cfg       Config
	stats     Stats
}

// Stats counts applied operations since startup.
type Stats struct {
	Deposits         uint64 `json:"deposits"`
	ReplayedDeposits uint64 `json:"replayedDeposits"`
	Transfers        uint64 `json:"transfers"`
	Withdrawals      uint64 `json:"withdrawals"`
	Rejected         uint64 `json:"rejected"`
}

// Receipt reports the outcome of an applied operation.
type Receipt struct {
	ID            string         `json:"id"`
	Circuit       string         `json:"circuit"`
	Root          types.HexBytes `json:"root"`
	NextLeafIndex uint32         `json:"nextLeafIndex"`
	Replayed      bool           `json:"replayed,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
}

// New creates an Engine over the given pool state and verifier registry. The
// registry maps circuit names to verifiers built from their verifying keys.
func New(pool *state.Pool, verifiers map[string]zkverifier.ProofVerifier, cfg Config) *Engine {
	return &Engine{pool: pool, verifiers: verifiers, cfg: cfg}
}

// Pool exposes the underlying state for read-only queries.
func (e *Engine) Pool() *state.Pool {
	return e.pool
}

// VaultBalance returns the current ledger balance of the vault account.
func (e *Engine) VaultBalance() (uint64, error) {
	return e.pool.Balance(e.cfg.VaultAccount)
}

// Stats returns a copy of the operation counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

func (e *Engine) verifier(circuit string) (zkverifier.ProofVerifier, error) {
	v, ok := e.verifiers[circuit]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCircuit, circuit)
	}
	return v, nil
}

// verifyAndDecode runs the proof through the circuit's verifier and returns
// the decoded public signals. Callers must treat the signals as untrusted
// until each one is checked against its declared binding.
func (e *Engine) verifyAndDecode(circuit string, proof, publicSignals []byte) ([][types.BytesField]byte, error) {
	v, err := e.verifier(circuit)
	if err != nil {
		return nil, err
	}
	if err := v.Verify(proof, publicSignals); err != nil {
		return nil, err
	}
	return zkverifier.DecodePublicSignals(publicSignals, v.NumPublicInputs())
}

func (e *Engine) receipt(circuit string, replayed bool) (*Receipt, error) {
	ts, err := e.pool.TreeState()
	if err != nil {
		return nil, err
	}
	return &Receipt{
		ID:            uuid.New().String(),
		Circuit:       circuit,
		Root:          ts.Root,
		NextLeafIndex: ts.NextLeafIndex,
		Replayed:      replayed,
		Timestamp:     time.Now().UTC(),
	}, nil
}

func (e *Engine) reject(circuit string, err error) error {
	e.stats.Rejected++
	log.Debugw("operation rejected", "circuit", circuit, "error", err.Error())
	return err
}

// signalUint64 interprets a little-endian field-element signal as a u64,
// rejecting values that spill past eight bytes.
func signalUint64(signal [types.BytesField]byte) (uint64, error) {
	for _, b := range signal[8:] {
		if b != 0 {
			return 0, fmt.Errorf("%w: value exceeds 64 bits", ErrSignalRange)
		}
	}
	return binary.LittleEndian.Uint64(signal[:8]), nil
}

// signalUint32 is signalUint64 narrowed to leaf indices.
func signalUint32(signal [types.BytesField]byte) (uint32, error) {
	v, err := signalUint64(signal)
	if err != nil {
		return 0, err
	}
	if v > uint64(^uint32(0)) {
		return 0, fmt.Errorf("%w: value exceeds 32 bits", ErrSignalRange)
	}
	return uint32(v), nil
}
