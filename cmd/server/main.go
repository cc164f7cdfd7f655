package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"gosolbridge/EVMRPC"
	"gosolbridge/SOLRPC"
	"gosolbridge/bridge"
	"gosolbridge/config"
	"gosolbridge/ledger"
	"gosolbridge/types"
	"gosolbridge/workers"
	"gosolbridge/workers/handlers"
)

func main() {
	log.Print("Starting Solana bridge relay")

	f, err := os.OpenFile(fmt.Sprintf("logs/log_%s.txt", time.Now().Format("2006-01-02")), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file for writing: %v", err)
	}
	defer f.Close()

	log.SetOutput(f)

	// .env carries the signing keys shared with the contract deploy tooling
	if err := godotenv.Load(); err != nil {
		log.Print("no .env file found, relying on process environment")
	}

	config.Init()

	store, err := ledger.Open(config.LedgerFile())
	if err != nil {
		log.Fatalf("error opening deposit ledger: %v", err)
	}
	defer store.Close()

	token := types.AssetMetadata{
		Name:     config.Config.Token.Name,
		Symbol:   config.Config.Token.Symbol,
		Decimals: config.Config.Token.Decimals,
	}

	// mint path is disabled until the factory address is configured
	var minter bridge.Minter
	if config.Config.EVM.BridgeFactoryAddr != "" {
		minter = EVMRPC.Factory{}
	}

	proc := &bridge.Processor{
		Source: SOLRPC.GetClient(),
		Minter: minter,
		Ledger: store,
		Guard:  bridge.NewGuard(),
		Vault:  config.Config.Solana.VaultAddress,
		Mints:  config.Mints(),
		Token:  token,
	}

	// reverse bridge needs the vault keypair to sign releases
	var releaser bridge.VaultReleaser
	if SOLRPC.GetClient().HasVaultKey() {
		releaser = SOLRPC.GetClient()
	}

	unwrapper := &bridge.Unwrapper{
		Wrapped:     EVMRPC.Factory{},
		Vault:       releaser,
		PrimaryMint: config.PrimaryMint(),
		Token:       token,
	}

	dest := bridge.NewDestinations(config.Config.EVM.DefaultDestAddress)

	handlers.Setup(proc, unwrapper, store, dest)

	// there are 3 worker threads:
	// * poll the Solana vault for new deposit signatures
	// * daily staking reward distribution
	// * static app service and API serving HTTPS server (serves as main worker thread)
	go workers.Worker_pollSolana(proc, store, dest)
	go workers.Worker_rewards()

	workers.Worker_HTTP()
}
