package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Status is the wire-visible outcome of one deposit processing attempt.
// API responses always carry one of these so clients can tell "retry later"
// (pending, processing) from terminal outcomes.
type Status string

const (
	StatusNotConfigured    Status = "not_configured"
	StatusAlreadyProcessed Status = "already_processed"
	StatusProcessing       Status = "processing"
	StatusPending          Status = "pending"
	StatusFailed           Status = "failed"
	StatusNoDeposit        Status = "no_deposit"
	StatusNoDestination    Status = "no_destination"
	StatusMinted           Status = "minted"
	StatusError            Status = "error"
)

// DepositRecord is one persisted entry per successfully minted transfer.
// A record exists for a signature if and only if a mint has been durably
// confirmed for it. Records are append-only.
//
// JSON keys are kept byte-compatible with the previous relay's
// processed-deposits.json so an existing ledger can be carried over;
// fields added later must default when absent instead of failing the load.
type DepositRecord struct {
	SolanaSignature string `json:"solanaSignature"`
	SolanaMint      string `json:"solanaMint"`
	Vault           string `json:"vault"`
	Recipient       string `json:"recipient"`
	Amount          string `json:"amount"` // base units, decimal string
	Decimals        uint8  `json:"decimals"`
	EVMTxHash       string `json:"evmTxHash"`
	Timestamp       int64  `json:"timestamp"` // unix milliseconds, time of record
}

// Outcome is the disposition of one processing attempt.
type Outcome struct {
	Status  Status         `json:"status"`
	Record  *DepositRecord `json:"record,omitempty"`
	Message string         `json:"message,omitempty"`
}

// AssetMetadata labels and scales the bridged token. Loaded once at startup,
// immutable for the process lifetime.
type AssetMetadata struct {
	Name     string
	Symbol   string
	Decimals uint8
}

// MintRequest is one destination-chain mint dispatch.
type MintRequest struct {
	MintKey   common.Hash // keccak256 of the SPL mint string, stable per asset
	Mint      string
	Name      string
	Symbol    string
	Decimals  uint8
	Recipient string // EVM address
	Amount    *big.Int
}

// UnwrapRequest is one reverse-bridge call. Ephemeral: validated then
// discarded, never persisted.
type UnwrapRequest struct {
	Amount        string `json:"amount"`
	SolanaAddress string `json:"solanaAddress"`
	EVMAddress    string `json:"evmAddress"`
	Timestamp     int64  `json:"timestamp"`
	Signature     string `json:"signature"`
}

// UnwrapReceipt is the two-transaction result of burn-then-release.
type UnwrapReceipt struct {
	EVMTxHash string `json:"evmTxHash"`
	SolanaTx  string `json:"solanaTx"`
}
