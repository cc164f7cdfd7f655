package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
)

type ConfirmBridgeRequest struct {
	Signature string `json:"signature"`
}

// ConfirmBridge is the manual retry path: it runs the same disposition
// machine the poll worker runs, so a duplicate call can at worst observe
// already_processed or processing. The outcome status string tells the
// caller whether to retry later or treat the result as final.
func ConfirmBridge(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("Error reading request body: %s", err.Error())
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "Error reading request body",
		}, http.StatusBadRequest)
		return
	}

	var req ConfirmBridgeRequest
	err = json.Unmarshal(body, &req)
	if err != nil {
		log.Printf("Error unmarshalling request body: %s\n", err.Error())
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "Cannot unmarshal input JSON",
		}, http.StatusBadRequest)
		return
	}

	sig := strings.TrimSpace(req.Signature)
	if sig == "" {
		responseJSON(w, &APIResponse{
			Status:  "bad_request",
			Field:   "signature",
			Message: "No transaction signature provided",
		}, http.StatusBadRequest)
		return
	}

	outcome := Proc.Process(r.Context(), sig, Dest.Get())
	responseJSON(w, outcome, http.StatusOK)
}
