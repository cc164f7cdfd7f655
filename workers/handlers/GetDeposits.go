package handlers

import (
	"net/http"

	"gosolbridge/types"
)

// GetDeposits dumps the full mint ledger; the audit surface for the
// dashboard and operator scripts.
func GetDeposits(w http.ResponseWriter, r *http.Request) {
	deposits := make([]*types.DepositRecord, 0)

	err := Ledger.Scan(func(rec *types.DepositRecord) error {
		deposits = append(deposits, rec)
		return nil
	})
	if err != nil {
		responseJSON(w, nil, http.StatusInternalServerError)
		return
	}

	responseJSON(w, deposits, http.StatusOK)
}
