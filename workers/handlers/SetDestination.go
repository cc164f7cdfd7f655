package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	ethav "github.com/KOREAN139/ethereum-address-validator"
	"github.com/ethereum/go-ethereum/common"
)

type SetDestAddressRequest struct {
	Address string `json:"address"`
}

// SetDestAddress mutates the recipient for the next inbound mint.
// Unauthenticated operator surface, same as the dashboard expects.
func SetDestAddress(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("Error reading request body: %s", err.Error())
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "Error reading request body",
		}, http.StatusBadRequest)
		return
	}

	var req SetDestAddressRequest
	err = json.Unmarshal(body, &req)
	if err != nil {
		log.Printf("Error unmarshalling request body: %s\n", err.Error())
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "Cannot unmarshal input JSON",
		}, http.StatusBadRequest)
		return
	}

	addr := strings.TrimSpace(req.Address)
	if !common.IsHexAddress(addr) {
		responseJSON(w, &APIResponse{
			Status:  "bad_request",
			Field:   "address",
			Message: "No EVM address or invalid address provided",
		}, http.StatusBadRequest)
		return
	}

	checksummed := common.HexToAddress(addr).Hex()
	if err := ethav.Validate(checksummed); err != nil {
		log.Printf("Error validating EVM address '%s': %s\n", addr, err.Error())
		responseJSON(w, &APIResponse{
			Status:  "bad_request",
			Field:   "address",
			Message: "No EVM address or invalid address provided",
		}, http.StatusBadRequest)
		return
	}

	Dest.Set(checksummed)
	log.Printf("Destination EVM address set to: %s", checksummed)

	responseJSON(w, &APIDestResponse{
		Status:  "ok",
		Address: checksummed,
	}, http.StatusOK)
}
