// Package circuits describes the zk circuits the pool accepts proofs for and
// loads their verifying keys from the artifact cache.
package circuits

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/zkpay/shieldpool/config"
	"github.com/zkpay/shieldpool/types"
	"github.com/zkpay/shieldpool/zkverifier"
)

// Public-signal indices of the deposit circuit.
const (
	DepositNewCommitment = iota
	DepositOwnerKey
	DepositNewRoot
	DepositNewNextLeafIndex
	DepositAmount
	DepositHash
	DepositNumInputs
)

// Public-signal indices of the transfer circuit.
const (
	TransferOutCommitment1 = iota
	TransferOutCommitment2
	TransferNullifier
	TransferRootBefore
	TransferRootAfter1
	TransferRootAfter2
	TransferNewNextLeafIndex
	TransferEncNote1Hash
	TransferEncNote2Hash
	TransferNumInputs
)

// Public-signal indices of the withdraw circuit.
const (
	WithdrawNullifier = iota
	WithdrawRoot
	WithdrawRecipient
	WithdrawAmount
	WithdrawTokenID
	WithdrawNumInputs
)

// Circuit binds a circuit name to its expected public-signal arity and the
// artifact holding its verifying key.
type Circuit struct {
	Name         string
	NumInputs    int
	VerifyingKey *Artifact
}

// Definitions returns the three pool circuits with their verifying-key
// artifacts wired to the default remote locations.
func Definitions() []*Circuit {
	return []*Circuit{
		{
			Name:      types.CircuitDeposit,
			NumInputs: DepositNumInputs,
			VerifyingKey: &Artifact{
				RemoteURL: config.DepositVerifyingKeyURL,
				Hash:      mustHex(config.DepositVerifyingKeyHash),
			},
		},
		{
			Name:      types.CircuitTransfer,
			NumInputs: TransferNumInputs,
			VerifyingKey: &Artifact{
				RemoteURL: config.TransferVerifyingKeyURL,
				Hash:      mustHex(config.TransferVerifyingKeyHash),
			},
		},
		{
			Name:      types.CircuitWithdraw,
			NumInputs: WithdrawNumInputs,
			VerifyingKey: &Artifact{
				RemoteURL: config.WithdrawVerifyingKeyURL,
				Hash:      mustHex(config.WithdrawVerifyingKeyHash),
			},
		},
	}
}

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(fmt.Sprintf("invalid artifact hash constant %q: %v", s, err))
	}
	return b
}

// BuildVerifiers loads every circuit's verifying key and constructs a Groth16
// verifier per circuit. A verifying key whose IC table does not match the
// circuit's declared arity is a configuration error and aborts the whole
// registry: a pool running with a mismatched key would reject every proof.
func BuildVerifiers(ctx context.Context, defs []*Circuit, cfg zkverifier.Config) (map[string]zkverifier.ProofVerifier, error) {
	verifiers := make(map[string]zkverifier.ProofVerifier, len(defs))
	for _, def := range defs {
		if err := def.VerifyingKey.Load(); err != nil {
			if err := def.VerifyingKey.Download(ctx); err != nil {
				return nil, fmt.Errorf("circuit %s: %w", def.Name, err)
			}
			if err := def.VerifyingKey.Load(); err != nil {
				return nil, fmt.Errorf("circuit %s: %w", def.Name, err)
			}
		}
		v, err := zkverifier.NewGroth16Verifier(def.VerifyingKey.Content, cfg)
		if err != nil {
			return nil, fmt.Errorf("circuit %s: %w", def.Name, err)
		}
		if got := v.NumPublicInputs(); got != def.NumInputs {
			return nil, fmt.Errorf("circuit %s: verifying key carries %d public inputs, want %d",
				def.Name, got, def.NumInputs)
		}
		verifiers[def.Name] = v
	}
	return verifiers, nil
}
