package handlers

import (
	"log"
	"net/http"

	"gosolbridge/EVMRPC"
	"gosolbridge/SOLRPC"
	"gosolbridge/bridge"
	"gosolbridge/config"

	"github.com/ethereum/go-ethereum/common"
)

// BalanceVault returns the vault's primary-mint SPL balance in base units.
func BalanceVault(w http.ResponseWriter, r *http.Request) {
	balance, err := SOLRPC.GetClient().VaultTokenBalance(r.Context())
	if err != nil {
		log.Printf("Error getting vault balance: %s", err.Error())
		responsePlain(w, []byte("error"), http.StatusInternalServerError)
		return
	}
	responsePlain(w, []byte(balance), http.StatusOK)
}

// BalanceWrapped returns an account's wrapped-token balance in base units.
func BalanceWrapped(w http.ResponseWriter, r *http.Request) {
	account := r.URL.Query().Get("account")
	if !common.IsHexAddress(account) {
		responsePlain(w, []byte("error"), http.StatusBadRequest)
		return
	}

	mint := config.PrimaryMint()
	if mint == "" {
		log.Print("Error getting wrapped balance: primary mint not configured")
		responsePlain(w, []byte("error"), http.StatusInternalServerError)
		return
	}

	factory := EVMRPC.Factory{}
	wrapped, err := factory.LookupWrapped(r.Context(), bridge.MintKey(mint))
	if err != nil {
		log.Printf("Error looking up wrapped token: %s", err.Error())
		responsePlain(w, []byte("error"), http.StatusInternalServerError)
		return
	}
	if wrapped == (common.Address{}) {
		responsePlain(w, []byte("0"), http.StatusOK)
		return
	}

	balance, err := factory.BalanceOf(r.Context(), wrapped, common.HexToAddress(account))
	if err != nil {
		log.Printf("Error getting wrapped balance: %s", err.Error())
		responsePlain(w, []byte("error"), http.StatusInternalServerError)
		return
	}
	responsePlain(w, []byte(balance.String()), http.StatusOK)
}
