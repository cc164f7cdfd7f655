package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"gosolbridge/bridge"
	"gosolbridge/types"

	"github.com/google/uuid"
)

// Unwrap burns wrapped tokens on the EVM chain and releases the original SPL
// asset from the vault. The request is authenticated by a personal_sign
// signature over "UNWRAP:<amount>:<solanaAddress>:<timestamp>".
func Unwrap(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.New().String()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("[%s] Error reading request body: %s", reqID, err.Error())
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "Error reading request body",
		}, http.StatusBadRequest)
		return
	}

	var req types.UnwrapRequest
	err = json.Unmarshal(body, &req)
	if err != nil {
		log.Printf("[%s] Error unmarshalling request body: %s", reqID, err.Error())
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "Cannot unmarshal input JSON",
		}, http.StatusBadRequest)
		return
	}

	receipt, err := Unwrapper.Execute(r.Context(), req)
	if err != nil {
		var authErr *bridge.AuthError
		var incErr *bridge.InconsistentError

		switch {
		case errors.As(err, &authErr):
			log.Printf("[%s] Unwrap rejected: %s", reqID, authErr.Reason)
			responseJSON(w, &APIResponse{
				Status:  "bad_request",
				Message: authErr.Reason,
			}, http.StatusBadRequest)
		case errors.As(err, &incErr):
			// burn is confirmed, the vault kept the SPL: operator must
			// reconcile by hand, reported distinctly from ordinary errors
			log.Printf("[%s] ERROR: inconsistent unwrap: %s", reqID, incErr.Error())
			responseJSON(w, &APIUnwrapResponse{
				Status:    "inconsistent",
				EVMTxHash: incErr.BurnTxHash,
				Message:   "burn confirmed but vault release failed, contact the operator",
			}, http.StatusInternalServerError)
		case errors.Is(err, bridge.ErrNotConfigured):
			responseJSON(w, &APIResponse{
				Status:  "not_configured",
				Message: "Reverse bridge is not configured",
			}, http.StatusInternalServerError)
		default:
			log.Printf("[%s] Unwrap error: %s", reqID, err.Error())
			responseJSON(w, &APIResponse{
				Status:  "error",
				Message: err.Error(),
			}, http.StatusInternalServerError)
		}
		return
	}

	log.Printf("[%s] Unwrap complete: burn=%s, release=%s", reqID, receipt.EVMTxHash, receipt.SolanaTx)
	responseJSON(w, &APIUnwrapResponse{
		Status:    "ok",
		EVMTxHash: receipt.EVMTxHash,
		SolanaTx:  receipt.SolanaTx,
	}, http.StatusOK)
}
