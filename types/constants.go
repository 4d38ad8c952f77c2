package types

const (
	// BytesField is the size of a serialized field element.
	BytesField = 32
	// BytesG1 is the size of an uncompressed G1 point (x | y).
	BytesG1 = 64
	// BytesG2 is the size of an uncompressed G2 point (two Fp2 coordinates).
	BytesG2 = 128
	// BytesProof is the wire size of a Groth16 proof: A(G1) | B(G2) | C(G1).
	BytesProof = BytesG1 + BytesG2 + BytesG1

	// HashLen is the length of commitment-tree roots, nullifiers and
	// deposit hashes.
	HashLen = 32

	// DefaultTreeDepth is the depth of the commitment tree backing the pool.
	DefaultTreeDepth = 16
	// DefaultRootCacheCapacity bounds the root history cache.
	DefaultRootCacheCapacity = 512
)

// Circuit identifiers for the three shielded operations.
const (
	CircuitDeposit  = "deposit"
	CircuitTransfer = "transfer"
	CircuitWithdraw = "withdraw"
)
