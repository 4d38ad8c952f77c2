package tests

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/metadb"

	"github.com/zkpay/shieldpool/api"
	"github.com/zkpay/shieldpool/bundle"
	"github.com/zkpay/shieldpool/circuits"
	"github.com/zkpay/shieldpool/engine"
	"github.com/zkpay/shieldpool/service"
	"github.com/zkpay/shieldpool/state"
	"github.com/zkpay/shieldpool/types"
	"github.com/zkpay/shieldpool/zkverifier"
)

var (
	testToken = types.HexBytes("itest-token-program")
	testMemo  = types.HexBytes("itest-memo-program")
	testVault = types.HexBytes("itest-vault-account")
)

// NewTestService starts a full API service over a fresh pool with stub
// verifiers on a free port and returns it together with the port.
func NewTestService(t *testing.T, ctx context.Context) (*service.APIService, int) {
	c := qt.New(t)

	database, err := metadb.New(db.TypePebble, filepath.Join(t.TempDir(), "db"))
	c.Assert(err, qt.IsNil)
	pool, err := state.Open(database, types.DefaultTreeDepth, 0)
	c.Assert(err, qt.IsNil)

	eng := engine.New(pool, map[string]zkverifier.ProofVerifier{
		types.CircuitDeposit:  &zkverifier.StubVerifier{N: circuits.DepositNumInputs},
		types.CircuitTransfer: &zkverifier.StubVerifier{N: circuits.TransferNumInputs},
		types.CircuitWithdraw: &zkverifier.StubVerifier{N: circuits.WithdrawNumInputs},
	}, engine.Config{
		TokenProgram: testToken,
		MemoProgram:  testMemo,
		VaultAccount: testVault,
	})

	port := freePort(t)
	srv := service.NewAPI(eng, "127.0.0.1", port)
	c.Assert(srv.Start(ctx), qt.IsNil)
	t.Cleanup(srv.Stop)

	waitUntilReady(t, port)
	return srv, port
}

func freePort(t *testing.T) int {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("cannot grab a free port: %v", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	if err := l.Close(); err != nil {
		t.Fatalf("cannot release port: %v", err)
	}
	return port
}

func waitUntilReady(t *testing.T, port int) {
	deadline := time.Now().Add(5 * time.Second)
	url := fmt.Sprintf("http://127.0.0.1:%d%s", port, api.PingEndpoint)
	for time.Now().Before(deadline) {
		res, err := http.Get(url)
		if err == nil {
			_ = res.Body.Close()
			if res.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("API server did not become ready")
}

// TestClient is a thin JSON client for the pool API.
type TestClient struct {
	base string
	http *http.Client
}

// NewTestClient returns a client bound to the given local port.
func NewTestClient(port int) (*TestClient, error) {
	return &TestClient{
		base: fmt.Sprintf("http://127.0.0.1:%d", port),
		http: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Post sends body as JSON and decodes the response into out when the status
// is 200. It returns the HTTP status code.
func (tc *TestClient) Post(path string, body, out any) (int, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, err
	}
	res, err := tc.http.Post(tc.base+path, "application/json", &buf)
	if err != nil {
		return 0, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode == http.StatusOK && out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return res.StatusCode, err
		}
	}
	return res.StatusCode, nil
}

// Get decodes a JSON response into out when the status is 200. It returns the
// HTTP status code.
func (tc *TestClient) Get(path string, out any) (int, error) {
	res, err := tc.http.Get(tc.base + path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode == http.StatusOK && out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return res.StatusCode, err
		}
	}
	return res.StatusCode, nil
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

func depositRequest(hash, newRoot types.HexBytes, nextIndex uint32, amount uint64) *api.DepositRequest {
	transferData := make(types.HexBytes, 9)
	transferData[0] = 3
	binary.LittleEndian.PutUint64(transferData[1:], amount)
	return &api.DepositRequest{
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

func transferRequest(nullifier, oldRoot, root1, root2 types.HexBytes, nextIndex uint32) *api.SpendRequest {
	return &api.SpendRequest{
		Nullifier: nullifier,
		Proof:     make(types.HexBytes, types.BytesProof),
		PublicSignals: signalBlob(circuits.TransferNumInputs, map[int]types.HexBytes{
			circuits.TransferNullifier:        nullifier,
			circuits.TransferRootBefore:       oldRoot,
			circuits.TransferRootAfter1:       root1,
			circuits.TransferRootAfter2:       root2,
			circuits.TransferNewNextLeafIndex: uintSignal(uint64(nextIndex)),
		}),
	}
}

func withdrawRequest(nullifier, root, recipient types.HexBytes, amount uint64) *api.SpendRequest {
	return &api.SpendRequest{
		Nullifier: nullifier,
		Proof:     make(types.HexBytes, types.BytesProof),
		PublicSignals: signalBlob(circuits.WithdrawNumInputs, map[int]types.HexBytes{
			circuits.WithdrawNullifier: nullifier,
			circuits.WithdrawRoot:      root,
			circuits.WithdrawRecipient: recipient,
			circuits.WithdrawAmount:    uintSignal(amount),
		}),
	}
}
