package config

import "strings"

type Configuration struct {
	// Server config
	Server struct {
		UseSSL bool `yaml:"ssl"`
		Port   int  `yaml:"port"`
	} `yaml:"server"`
	// Solana-related config
	Solana struct {
		RPCHost      string `yaml:"rpc"`
		VaultAddress string `yaml:"vault_address"`
		// comma-separated list of accepted SPL mints, first one is primary
		MintList        string `yaml:"mint_list"`
		PollIntervalSec int    `yaml:"poll_interval_sec"`
		SignatureLimit  int    `yaml:"signature_limit"`
		// important private stuff, base58 or JSON byte array
		VaultPrivateKey string `yaml:"vault_private_key" envconfig:"SOLANA_WALLET_PRIVATE_KEY"`
	} `yaml:"solana"`
	// EVM-related config
	EVM struct {
		ChainID            int      `yaml:"chain_id"`
		RPCList            []string `yaml:"rpc_list"`
		BridgeFactoryAddr  string   `yaml:"bridge_factory"`
		StakingAddr        string   `yaml:"staking_contract"`
		PublicAddress      string   `yaml:"address"`
		PrivateKey         string   `yaml:"private_key" envconfig:"VALIDATOR_PRIVATE_KEY"`
		DefaultDestAddress string   `yaml:"default_dest_address"`
	} `yaml:"EVM"`
	// bridged SPL token metadata, loaded once and immutable afterwards
	Token struct {
		Name        string `yaml:"name"`
		Symbol      string `yaml:"symbol"`
		Decimals    uint8  `yaml:"decimals"`
		MetadataURI string `yaml:"metadata_uri"`
	} `yaml:"token"`
	LedgerPath  string  `yaml:"ledger_path"`
	OraclePrice float64 `yaml:"oracle_price" envconfig:"FAKE_PRICE"`
}

var Config Configuration

// maximum number of EVM RPC retries
const EVM_RETRIES = 3

// unwrap requests older (or further in the future) than this are rejected
const UNWRAP_FRESHNESS_SEC = 600

// Mints returns the accepted SPL mint allowlist.
func Mints() []string {
	parts := strings.Split(Config.Solana.MintList, ",")
	mints := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			mints = append(mints, s)
		}
	}
	return mints
}

// PrimaryMint is the mint served by the reverse bridge (first configured).
func PrimaryMint() string {
	mints := Mints()
	if len(mints) == 0 {
		return ""
	}
	return mints[0]
}

// PollInterval in seconds, defaulted when config omits it.
func PollInterval() int {
	if Config.Solana.PollIntervalSec <= 0 {
		return 10
	}
	return Config.Solana.PollIntervalSec
}

// LedgerFile is the deposit ledger path, defaulted when config omits it.
func LedgerFile() string {
	if Config.LedgerPath == "" {
		return "processed-deposits.db"
	}
	return Config.LedgerPath
}

// SignatureLimit bounds one page of vault signatures per poll tick.
func SignatureLimit() int {
	if Config.Solana.SignatureLimit <= 0 {
		return 20
	}
	return Config.Solana.SignatureLimit
}
