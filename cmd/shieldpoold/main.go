// Command shieldpoold runs the shielded-pool transaction engine and its HTTP
// API. Verifying keys are fetched from the artifact cache (or the remote
// locations) unless local files are given; the stub verifier flag replaces
// the cryptographic verifiers with shape-only checks for local development.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	flag "github.com/spf13/pflag"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/metadb"
	"go.vocdoni.io/dvote/log"

	"github.com/zkpay/shieldpool/circuits"
	"github.com/zkpay/shieldpool/engine"
	"github.com/zkpay/shieldpool/service"
	"github.com/zkpay/shieldpool/state"
	"github.com/zkpay/shieldpool/types"
	"github.com/zkpay/shieldpool/zkverifier"
)

func main() {
	host := flag.String("host", "0.0.0.0", "API host to bind")
	port := flag.Int("port", 8080, "API port")
	dataDir := flag.String("dataDir", "", "data directory (defaults to ~/.shieldpool)")
	logLevel := flag.String("logLevel", "info", "log level (debug, info, warn, error)")
	treeDepth := flag.Int("treeDepth", types.DefaultTreeDepth, "commitment tree depth")
	rootCache := flag.Int("rootCacheCapacity", types.DefaultRootCacheCapacity, "retained root history size")
	tokenProgram := flag.String("tokenProgram", "", "hex id of the trusted value-transfer program")
	memoProgram := flag.String("memoProgram", "", "hex id of the trusted authenticity-tag program")
	vaultAccount := flag.String("vaultAccount", "", "hex id of the pool vault account")
	stubVerifiers := flag.Bool("stubVerifiers", false, "accept any well-formed proof (development only)")
	depositVK := flag.String("depositVK", "", "local deposit verifying-key file (overrides artifact)")
	transferVK := flag.String("transferVK", "", "local transfer verifying-key file (overrides artifact)")
	withdrawVK := flag.String("withdrawVK", "", "local withdraw verifying-key file (overrides artifact)")
	flag.Parse()

	log.Init(*logLevel, "stdout", nil)

	if *dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("cannot resolve home directory: %v", err)
		}
		*dataDir = filepath.Join(home, ".shieldpool")
	}

	cfg := engine.Config{}
	for _, bind := range []struct {
		name string
		flag *string
		dst  *types.HexBytes
	}{
		{"tokenProgram", tokenProgram, &cfg.TokenProgram},
		{"memoProgram", memoProgram, &cfg.MemoProgram},
		{"vaultAccount", vaultAccount, &cfg.VaultAccount},
	} {
		if *bind.flag == "" {
			log.Fatalf("missing required flag -%s", bind.name)
		}
		if err := bind.dst.SetString(*bind.flag); err != nil {
			log.Fatalf("invalid -%s: %v", bind.name, err)
		}
	}

	database, err := metadb.New(db.TypePebble, filepath.Join(*dataDir, "db"))
	if err != nil {
		log.Fatalf("cannot open database: %v", err)
	}
	pool, err := state.Open(database, uint8(*treeDepth), *rootCache)
	if err != nil {
		log.Fatalf("cannot open pool state: %v", err)
	}

	verifiers, err := buildVerifiers(*stubVerifiers, *depositVK, *transferVK, *withdrawVK)
	if err != nil {
		// A pool with a broken verifier set would reject every proof,
		// so refuse to start instead.
		log.Fatalf("cannot build verifiers: %v", err)
	}

	eng := engine.New(pool, verifiers, cfg)
	apiService := service.NewAPI(eng, *host, *port)
	if err := apiService.Start(context.Background()); err != nil {
		log.Fatalf("cannot start API service: %v", err)
	}
	log.Infow("shieldpool started",
		"dataDir", *dataDir,
		"treeDepth", *treeDepth,
		"rootCacheCapacity", *rootCache,
		"stubVerifiers", *stubVerifiers)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info("shutting down")
	apiService.Stop()
}

func buildVerifiers(stub bool, depositVK, transferVK, withdrawVK string) (map[string]zkverifier.ProofVerifier, error) {
	defs := circuits.Definitions()
	if stub {
		verifiers := make(map[string]zkverifier.ProofVerifier, len(defs))
		for _, def := range defs {
			verifiers[def.Name] = &zkverifier.StubVerifier{N: def.NumInputs}
		}
		log.Warnf("running with stub verifiers, proofs are NOT checked")
		return verifiers, nil
	}
	local := map[string]string{
		types.CircuitDeposit:  depositVK,
		types.CircuitTransfer: transferVK,
		types.CircuitWithdraw: withdrawVK,
	}
	for _, def := range defs {
		path := local[def.Name]
		if path == "" {
			continue
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		def.VerifyingKey.Content = content
		log.Infow("using local verifying key", "circuit", def.Name, "path", path)
	}
	return circuits.BuildVerifiers(context.Background(), defs, zkverifier.DefaultConfig())
}
