package api

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/metadb"
	"go.vocdoni.io/dvote/log"

	"github.com/zkpay/shieldpool/bundle"
	"github.com/zkpay/shieldpool/circuits"
	"github.com/zkpay/shieldpool/engine"
	"github.com/zkpay/shieldpool/state"
	"github.com/zkpay/shieldpool/types"
	"github.com/zkpay/shieldpool/zkverifier"
)

func init() {
	log.Init("debug", "stdout", nil)
}

var (
	testToken = types.HexBytes("test-token-program")
	testMemo  = types.HexBytes("test-memo-program")
	testVault = types.HexBytes("test-vault-account")
)

func newTestAPI(t *testing.T) *API {
	t.Helper()
	c := qt.New(t)
	database, err := metadb.New(db.TypePebble, filepath.Join(t.TempDir(), "db"))
	c.Assert(err, qt.IsNil)
	pool, err := state.Open(database, types.DefaultTreeDepth, 0)
	c.Assert(err, qt.IsNil)
	t.Cleanup(pool.Close)

	e := engine.New(pool, map[string]zkverifier.ProofVerifier{
		types.CircuitDeposit:  &zkverifier.StubVerifier{N: circuits.DepositNumInputs},
		types.CircuitTransfer: &zkverifier.StubVerifier{N: circuits.TransferNumInputs},
		types.CircuitWithdraw: &zkverifier.StubVerifier{N: circuits.WithdrawNumInputs},
	}, engine.Config{
		TokenProgram: testToken,
		MemoProgram:  testMemo,
		VaultAccount: testVault,
	})
	a := &API{engine: e}
	a.initRouter()
	return a
}

func doRequest(t *testing.T, a *API, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	c := qt.New(t)
	var buf bytes.Buffer
	if body != nil {
		c.Assert(json.NewEncoder(&buf).Encode(body), qt.IsNil)
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, req)
	return rec
}

func hashOf(b byte) types.HexBytes {
	h := make(types.HexBytes, types.HashLen)
	for i := range h {
		h[i] = b
	}
	return h
}

func signalBlob(n int, set map[int]types.HexBytes) types.HexBytes {
	blob := make(types.HexBytes, n*types.BytesField)
	for i, v := range set {
		copy(blob[i*types.BytesField:], v)
	}
	return blob
}

func uintSignal(v uint64) types.HexBytes {
	s := make(types.HexBytes, types.BytesField)
	binary.LittleEndian.PutUint64(s[:8], v)
	return s
}

func depositBody(hash, newRoot types.HexBytes, nextIndex uint32, amount uint64) *DepositRequest {
	transferData := make(types.HexBytes, 9)
	transferData[0] = 3
	binary.LittleEndian.PutUint64(transferData[1:], amount)
	return &DepositRequest{
		DepositHash: hash,
		Proof:       make(types.HexBytes, types.BytesProof),
		PublicSignals: signalBlob(circuits.DepositNumInputs, map[int]types.HexBytes{
			circuits.DepositNewRoot:          newRoot,
			circuits.DepositNewNextLeafIndex: uintSignal(uint64(nextIndex)),
			circuits.DepositAmount:           uintSignal(amount),
			circuits.DepositHash:             hash,
		}),
		Bundle: []*bundle.Operation{
			{
				ProgramID: testToken,
				Accounts:  []types.HexBytes{[]byte("depositor"), testVault, []byte("authority")},
				Data:      transferData,
			},
			{
				ProgramID: testMemo,
				Data:      types.HexBytes("deposit:" + hex.EncodeToString(hash)),
			},
			{ProgramID: types.HexBytes("pool-program")},
		},
	}
}

func TestPing(t *testing.T) {
	c := qt.New(t)
	a := newTestAPI(t)
	rec := doRequest(t, a, http.MethodGet, PingEndpoint, nil)
	c.Assert(rec.Code, qt.Equals, http.StatusOK)
}

func TestDepositEndpoint(t *testing.T) {
	c := qt.New(t)
	a := newTestAPI(t)

	hash, root := hashOf(0xd1), hashOf(0x10)
	rec := doRequest(t, a, http.MethodPost, DepositsEndpoint, depositBody(hash, root, 1, 500))
	c.Assert(rec.Code, qt.Equals, http.StatusOK)

	receipt := &engine.Receipt{}
	c.Assert(json.Unmarshal(rec.Body.Bytes(), receipt), qt.IsNil)
	c.Assert(receipt.Circuit, qt.Equals, types.CircuitDeposit)
	c.Assert(receipt.NextLeafIndex, qt.Equals, uint32(1))
	c.Assert(receipt.Replayed, qt.IsFalse)
	c.Assert(receipt.ID, qt.Not(qt.Equals), "")

	// Replay returns OK with the replayed marker.
	rec = doRequest(t, a, http.MethodPost, DepositsEndpoint, depositBody(hash, root, 1, 500))
	c.Assert(rec.Code, qt.Equals, http.StatusOK)
	c.Assert(json.Unmarshal(rec.Body.Bytes(), receipt), qt.IsNil)
	c.Assert(receipt.Replayed, qt.IsTrue)
}

func TestDepositEndpointRejections(t *testing.T) {
	c := qt.New(t)
	a := newTestAPI(t)

	// Malformed JSON body.
	req := httptest.NewRequest(http.MethodPost, DepositsEndpoint, bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, req)
	c.Assert(rec.Code, qt.Equals, http.StatusBadRequest)

	// Deposit hash of the wrong size.
	body := depositBody(hashOf(0xd1), hashOf(0x10), 1, 500)
	body.DepositHash = body.DepositHash[:16]
	rec = doRequest(t, a, http.MethodPost, DepositsEndpoint, body)
	c.Assert(rec.Code, qt.Equals, http.StatusBadRequest)

	// Bundle missing the value transfer.
	body = depositBody(hashOf(0xd1), hashOf(0x10), 1, 500)
	body.Bundle = body.Bundle[1:]
	rec = doRequest(t, a, http.MethodPost, DepositsEndpoint, body)
	c.Assert(rec.Code, qt.Equals, http.StatusBadRequest)

	// Wrong leaf index claim maps to a conflict.
	body = depositBody(hashOf(0xd1), hashOf(0x10), 7, 500)
	rec = doRequest(t, a, http.MethodPost, DepositsEndpoint, body)
	c.Assert(rec.Code, qt.Equals, http.StatusConflict)
}

func TestSpendEndpoints(t *testing.T) {
	c := qt.New(t)
	a := newTestAPI(t)

	hash, rootD := hashOf(0xd1), hashOf(0x10)
	rec := doRequest(t, a, http.MethodPost, DepositsEndpoint, depositBody(hash, rootD, 1, 500))
	c.Assert(rec.Code, qt.Equals, http.StatusOK)

	nullifier, root1, root2 := hashOf(0xa1), hashOf(0x21), hashOf(0x22)
	transfer := &SpendRequest{
		Nullifier: nullifier,
		Proof:     make(types.HexBytes, types.BytesProof),
		PublicSignals: signalBlob(circuits.TransferNumInputs, map[int]types.HexBytes{
			circuits.TransferNullifier:        nullifier,
			circuits.TransferRootBefore:       rootD,
			circuits.TransferRootAfter1:       root1,
			circuits.TransferRootAfter2:       root2,
			circuits.TransferNewNextLeafIndex: uintSignal(3),
		}),
	}
	rec = doRequest(t, a, http.MethodPost, TransfersEndpoint, transfer)
	c.Assert(rec.Code, qt.Equals, http.StatusOK)

	// Nullifier replay on the withdraw path.
	withdraw := &SpendRequest{
		Nullifier: nullifier,
		Proof:     make(types.HexBytes, types.BytesProof),
		PublicSignals: signalBlob(circuits.WithdrawNumInputs, map[int]types.HexBytes{
			circuits.WithdrawNullifier: nullifier,
			circuits.WithdrawRoot:      root2,
			circuits.WithdrawRecipient: hashOf(0x77),
			circuits.WithdrawAmount:    uintSignal(100),
		}),
	}
	rec = doRequest(t, a, http.MethodPost, WithdrawalsEndpoint, withdraw)
	c.Assert(rec.Code, qt.Equals, http.StatusBadRequest)

	// Fresh nullifier withdraws against the historical root.
	withdraw.Nullifier = hashOf(0xa2)
	copy(withdraw.PublicSignals[circuits.WithdrawNullifier*types.BytesField:], withdraw.Nullifier)
	rec = doRequest(t, a, http.MethodPost, WithdrawalsEndpoint, withdraw)
	c.Assert(rec.Code, qt.Equals, http.StatusOK)
}

func TestPoolAndRootEndpoints(t *testing.T) {
	c := qt.New(t)
	a := newTestAPI(t)

	hash, root := hashOf(0xd1), hashOf(0x10)
	rec := doRequest(t, a, http.MethodPost, DepositsEndpoint, depositBody(hash, root, 1, 500))
	c.Assert(rec.Code, qt.Equals, http.StatusOK)

	rec = doRequest(t, a, http.MethodGet, PoolEndpoint, nil)
	c.Assert(rec.Code, qt.Equals, http.StatusOK)
	info := &PoolInfo{}
	c.Assert(json.Unmarshal(rec.Body.Bytes(), info), qt.IsNil)
	c.Assert(info.NextLeafIndex, qt.Equals, uint32(1))
	c.Assert(info.VaultBalance, qt.Equals, uint64(500))
	c.Assert([]byte(info.Root), qt.DeepEquals, []byte(root))
	c.Assert(info.Stats.Deposits, qt.Equals, uint64(1))

	rec = doRequest(t, a, http.MethodGet, "/roots/"+root.String(), nil)
	c.Assert(rec.Code, qt.Equals, http.StatusOK)
	status := &RootStatus{}
	c.Assert(json.Unmarshal(rec.Body.Bytes(), status), qt.IsNil)
	c.Assert(status.Known, qt.IsTrue)

	rec = doRequest(t, a, http.MethodGet, "/roots/"+hashOf(0xee).String(), nil)
	c.Assert(rec.Code, qt.Equals, http.StatusBadRequest)

	rec = doRequest(t, a, http.MethodGet, "/roots/zz", nil)
	c.Assert(rec.Code, qt.Equals, http.StatusBadRequest)
}
