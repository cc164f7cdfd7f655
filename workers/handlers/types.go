package handlers

import (
	"gosolbridge/bridge"
	"gosolbridge/ledger"
)

type APIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
}

type APIUnwrapResponse struct {
	Status    string `json:"status"`
	EVMTxHash string `json:"evmTxHash,omitempty"`
	SolanaTx  string `json:"solanaTx,omitempty"`
	Message   string `json:"message,omitempty"`
}

type APIDestResponse struct {
	Status  string `json:"status"`
	Address string `json:"address"`
}

type APITxResponse struct {
	Status string `json:"status"`
	TxHash string `json:"txHash"`
}

// wired by main before the HTTP worker starts
var (
	Proc      *bridge.Processor
	Unwrapper *bridge.Unwrapper
	Ledger    *ledger.Store
	Dest      *bridge.Destinations
)

func Setup(proc *bridge.Processor, unwrapper *bridge.Unwrapper, store *ledger.Store, dest *bridge.Destinations) {
	Proc = proc
	Unwrapper = unwrapper
	Ledger = store
	Dest = dest
}
