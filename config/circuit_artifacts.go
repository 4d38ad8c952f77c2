package config

const (
	// Verifying-key artifacts for the deposit circuit.
	DepositVerifyingKeyURL  = "https://artifacts.zkpay.dev/circuits/v1/deposit_vkey.bin"
	DepositVerifyingKeyHash = "7d1e6af0a1c1d62b6ba2f8a7dcdd5f5f4f3f0eab84a2ce32f6a40ba55e87c131"
	// Verifying-key artifacts for the transfer circuit.
	TransferVerifyingKeyURL  = "https://artifacts.zkpay.dev/circuits/v1/transfer_vkey.bin"
	TransferVerifyingKeyHash = "2c0b8f44a0cc0b6f8e27d189e1a3ddfd0a1f0b3a5a8f0c9ab43d2b9f83a6c55e"
	// Verifying-key artifacts for the withdraw circuit.
	WithdrawVerifyingKeyURL  = "https://artifacts.zkpay.dev/circuits/v1/withdraw_vkey.bin"
	WithdrawVerifyingKeyHash = "9f3d7a61c5b02e88a4c6d9e0f1b2a3c4d5e6f708192a3b4c5d6e7f8091a2b3c4"
)
