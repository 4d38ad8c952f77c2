package api

const (
	// PingEndpoint is the endpoint for checking the API status
	PingEndpoint = "/ping"
	// DepositsEndpoint is the endpoint for submitting a deposit
	DepositsEndpoint = "/deposits"
	// TransfersEndpoint is the endpoint for submitting an in-pool transfer
	TransfersEndpoint = "/transfers"
	// WithdrawalsEndpoint is the endpoint for submitting a withdrawal
	WithdrawalsEndpoint = "/withdrawals"
	// PoolEndpoint is the endpoint to get the pool state summary
	PoolEndpoint = "/pool"
	// RootEndpoint is the endpoint to check whether a merkle root is
	// the tip or a retained historical root
	RootURLParam = "root"
	RootEndpoint = "/roots/{" + RootURLParam + "}"
)
