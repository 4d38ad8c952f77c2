// Package bundle inspects the atomic execution unit a pool operation is
// embedded in. A deposit is only valid when the same unit carries a value
// transfer into the pool vault and an authenticity tag binding the unit to
// the deposit hash; this package locates and checks those companion
// operations.
package bundle

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/zkpay/shieldpool/types"
)

var (
	// ErrTransferNotFound is returned when no companion operation moves
	// the expected amount to the expected destination.
	ErrTransferNotFound = errors.New("required value transfer not found in bundle")
	// ErrMemoNotFound is returned when no authenticity tag matches the
	// deposit hash.
	ErrMemoNotFound = errors.New("required authenticity tag not found in bundle")
	// ErrIndexOutOfRange is returned by inspectors for invalid positions.
	ErrIndexOutOfRange = errors.New("operation index out of range")
)

// Value-transfer instruction tags understood by FindValueTransfer.
const (
	tagTransfer        = 3
	tagTransferChecked = 12
)

// memoPrefix is the textual form of an authenticity tag: the prefix followed
// by the lowercase hex encoding of the 32-byte hash. The raw 32-byte form is
// also accepted.
const memoPrefix = "deposit:"

// Operation is one instruction of the enclosing atomic unit: the program it
// targets, the accounts it touches in program-defined order, and its raw
// payload.
type Operation struct {
	ProgramID types.HexBytes   `json:"programId"`
	Accounts  []types.HexBytes `json:"accounts"`
	Data      types.HexBytes   `json:"data"`
}

// Inspector gives ordered access to the operations of the enclosing unit up
// to and including the one being executed.
type Inspector interface {
	// CurrentIndex is the position of the operation being executed.
	CurrentIndex() (int, error)
	// OperationAt returns the operation at the given position.
	OperationAt(index int) (*Operation, error)
}

// FindValueTransfer scans positions 0 through the current one for a value
// transfer on tokenProgram moving exactly amount to dest. A zero amount
// matches any transferred amount. Operations that do not parse as transfers
// are skipped rather than rejected; foreign instructions may share the unit.
func FindValueTransfer(insp Inspector, tokenProgram, dest []byte, amount uint64) error {
	current, err := insp.CurrentIndex()
	if err != nil {
		return fmt.Errorf("bundle introspection: %w", err)
	}
	for i := 0; i <= current; i++ {
		op, err := insp.OperationAt(i)
		if err != nil {
			return fmt.Errorf("bundle introspection at %d: %w", i, err)
		}
		if !bytes.Equal(op.ProgramID, tokenProgram) {
			continue
		}
		opDest, opAmount, ok := parseTransfer(op)
		if !ok {
			continue
		}
		if !bytes.Equal(opDest, dest) {
			continue
		}
		if amount != 0 && opAmount != amount {
			continue
		}
		return nil
	}
	return fmt.Errorf("%w: dest %x amount %d", ErrTransferNotFound, dest, amount)
}

// parseTransfer decodes the destination and amount of a token transfer
// instruction. Transfer carries (source, dest, authority) accounts and
// TransferChecked (source, mint, dest, authority); both carry a little-endian
// u64 amount right after the tag, and TransferChecked a decimals byte after
// the amount.
func parseTransfer(op *Operation) (dest []byte, amount uint64, ok bool) {
	if len(op.Data) < 9 {
		return nil, 0, false
	}
	switch op.Data[0] {
	case tagTransfer:
		if len(op.Accounts) < 3 {
			return nil, 0, false
		}
		return op.Accounts[1], binary.LittleEndian.Uint64(op.Data[1:9]), true
	case tagTransferChecked:
		if len(op.Accounts) < 4 || len(op.Data) < 10 {
			return nil, 0, false
		}
		return op.Accounts[2], binary.LittleEndian.Uint64(op.Data[1:9]), true
	default:
		return nil, 0, false
	}
}

// FindMemo scans positions 0 through the current one for an authenticity tag
// on memoProgram whose payload matches the given hash, either as the raw 32
// bytes or as the textual "deposit:<hex>" form with lowercase hex.
func FindMemo(insp Inspector, memoProgram []byte, hash [types.HashLen]byte) error {
	current, err := insp.CurrentIndex()
	if err != nil {
		return fmt.Errorf("bundle introspection: %w", err)
	}
	want := memoPrefix + hex.EncodeToString(hash[:])
	for i := 0; i <= current; i++ {
		op, err := insp.OperationAt(i)
		if err != nil {
			return fmt.Errorf("bundle introspection at %d: %w", i, err)
		}
		if !bytes.Equal(op.ProgramID, memoProgram) {
			continue
		}
		if len(op.Data) == types.HashLen && bytes.Equal(op.Data, hash[:]) {
			return nil
		}
		if memoMatchesText(op.Data, want) {
			return nil
		}
	}
	return fmt.Errorf("%w: hash %x", ErrMemoNotFound, hash)
}

func memoMatchesText(data []byte, want string) bool {
	s := string(data)
	if !strings.HasPrefix(s, memoPrefix) {
		return false
	}
	return s == want
}

// Slice is an Inspector over an in-memory operation list, with the current
// position at the last element. The API layer builds one from the companion
// operations submitted alongside a deposit.
type Slice []*Operation

// CurrentIndex implements Inspector.
func (s Slice) CurrentIndex() (int, error) {
	if len(s) == 0 {
		return 0, errors.New("empty bundle")
	}
	return len(s) - 1, nil
}

// OperationAt implements Inspector.
func (s Slice) OperationAt(index int) (*Operation, error) {
	if index < 0 || index >= len(s) {
		return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	return s[index], nil
}
