package bundle

import (
	"encoding/binary"
	"encoding/hex"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/zkpay/shieldpool/types"
)

var (
	tokenProgram = []byte("token-program-id")
	memoProgram  = []byte("memo-program-id")
	vault        = []byte("vault-account")
)

func transferOp(tag byte, accounts [][]byte, amount uint64) *Operation {
	data := make([]byte, 9)
	data[0] = tag
	binary.LittleEndian.PutUint64(data[1:], amount)
	if tag == tagTransferChecked {
		data = append(data, 9) // decimals
	}
	op := &Operation{ProgramID: tokenProgram, Data: data}
	for _, a := range accounts {
		op.Accounts = append(op.Accounts, a)
	}
	return op
}

func memoOp(data []byte) *Operation {
	return &Operation{ProgramID: memoProgram, Data: data}
}

func TestFindValueTransfer(t *testing.T) {
	c := qt.New(t)

	src, auth, mint := []byte("src"), []byte("auth"), []byte("mint")
	b := Slice{
		memoOp([]byte("unrelated")),
		transferOp(tagTransfer, [][]byte{src, vault, auth}, 500),
		{ProgramID: []byte("pool-program")},
	}

	c.Assert(FindValueTransfer(b, tokenProgram, vault, 500), qt.IsNil)
	// Zero expected amount matches any transferred amount.
	c.Assert(FindValueTransfer(b, tokenProgram, vault, 0), qt.IsNil)

	c.Assert(FindValueTransfer(b, tokenProgram, vault, 501), qt.ErrorIs, ErrTransferNotFound)
	c.Assert(FindValueTransfer(b, tokenProgram, []byte("elsewhere"), 500), qt.ErrorIs, ErrTransferNotFound)
	// Same payload on a different program does not count.
	c.Assert(FindValueTransfer(b, []byte("fake-token"), vault, 500), qt.ErrorIs, ErrTransferNotFound)

	// TransferChecked carries the destination at position 2.
	bc := Slice{
		transferOp(tagTransferChecked, [][]byte{src, mint, vault, auth}, 42),
		{ProgramID: []byte("pool-program")},
	}
	c.Assert(FindValueTransfer(bc, tokenProgram, vault, 42), qt.IsNil)

	// A TransferChecked payload missing its decimals byte is skipped.
	truncated := transferOp(tagTransferChecked, [][]byte{src, mint, vault, auth}, 42)
	truncated.Data = truncated.Data[:9]
	bt := Slice{truncated, {ProgramID: []byte("pool-program")}}
	c.Assert(FindValueTransfer(bt, tokenProgram, vault, 42), qt.ErrorIs, ErrTransferNotFound)

	// A Transfer-shaped payload with too few accounts is skipped.
	short := Slice{
		transferOp(tagTransfer, [][]byte{src, vault}, 500),
		{ProgramID: []byte("pool-program")},
	}
	c.Assert(FindValueTransfer(short, tokenProgram, vault, 500), qt.ErrorIs, ErrTransferNotFound)
}

func TestFindValueTransferIgnoresLaterOps(t *testing.T) {
	c := qt.New(t)

	// Only operations up to the current index are inspected; a Slice's
	// current index is its last element, so the transfer must be present
	// at or before it. An empty bundle errors outright.
	c.Assert(FindValueTransfer(Slice{}, tokenProgram, vault, 1), qt.IsNotNil)
}

func TestFindMemo(t *testing.T) {
	c := qt.New(t)

	var hash [types.HashLen]byte
	for i := range hash {
		hash[i] = byte(i)
	}

	// Raw 32-byte payload.
	raw := Slice{memoOp(hash[:]), {ProgramID: []byte("pool-program")}}
	c.Assert(FindMemo(raw, memoProgram, hash), qt.IsNil)

	// Textual form with lowercase hex.
	text := Slice{
		memoOp([]byte("deposit:" + hex.EncodeToString(hash[:]))),
		{ProgramID: []byte("pool-program")},
	}
	c.Assert(FindMemo(text, memoProgram, hash), qt.IsNil)

	// Uppercase hex is rejected.
	upper := Slice{
		memoOp([]byte("deposit:" + strings.ToUpper(hex.EncodeToString(hash[:])))),
		{ProgramID: []byte("pool-program")},
	}
	c.Assert(FindMemo(upper, memoProgram, hash), qt.ErrorIs, ErrMemoNotFound)

	// Wrong hash.
	var other [types.HashLen]byte
	other[0] = 0xff
	c.Assert(FindMemo(raw, memoProgram, other), qt.ErrorIs, ErrMemoNotFound)

	// Right payload on the wrong program.
	wrongProg := Slice{
		{ProgramID: tokenProgram, Data: hash[:]},
		{ProgramID: []byte("pool-program")},
	}
	c.Assert(FindMemo(wrongProg, memoProgram, hash), qt.ErrorIs, ErrMemoNotFound)
}

func TestSliceInspector(t *testing.T) {
	c := qt.New(t)

	s := Slice{memoOp([]byte("a")), memoOp([]byte("b"))}
	idx, err := s.CurrentIndex()
	c.Assert(err, qt.IsNil)
	c.Assert(idx, qt.Equals, 1)

	op, err := s.OperationAt(0)
	c.Assert(err, qt.IsNil)
	c.Assert(string(op.Data), qt.Equals, "a")

	_, err = s.OperationAt(2)
	c.Assert(err, qt.ErrorIs, ErrIndexOutOfRange)
	_, err = s.OperationAt(-1)
	c.Assert(err, qt.ErrorIs, ErrIndexOutOfRange)

	_, err = Slice{}.CurrentIndex()
	c.Assert(err, qt.IsNotNil)
}
