package handlers

import (
	"log"
	"net/http"

	"gosolbridge/EVMRPC"
	"gosolbridge/config"
)

// UpdatePrice pushes the configured oracle price to the staking contract on
// demand. Stateless side effect, no correctness-critical state.
func UpdatePrice(w http.ResponseWriter, r *http.Request) {
	txHash, err := EVMRPC.UpdatePrice(r.Context(), config.Config.OraclePrice)
	if err != nil {
		log.Printf("Error updating price: %s", err.Error())
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: err.Error(),
		}, http.StatusInternalServerError)
		return
	}

	log.Printf("Price update tx: %s", txHash)
	responseJSON(w, &APITxResponse{
		Status: "ok",
		TxHash: txHash,
	}, http.StatusOK)
}
