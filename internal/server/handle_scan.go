package server

import (
	"net/http"
	"strings"

	"github.com/rayarayu/checkin/internal/kiosk"
	"github.com/rayarayu/checkin/internal/station"
)

type ScanRequest struct {
	Text string `json:"text"`
}

type PickRequest struct {
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
	PartySize  int    `json:"partySize"`
}

// handleScan feeds a decoded payload to the coordinator. Invalid payloads are
// not rejected here: the coordinator reports them through the view.
func handleScan(st *station.Station) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ScanRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		st.OnDetected(req.Text)
		writeJSON(w, http.StatusAccepted, st.View())
	}
}

func handlePick(st *station.Station) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PickRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.Identifier) == "" {
			writeError(w, http.StatusBadRequest, "identifier is required")
			return
		}
		if req.PartySize < 0 {
			writeError(w, http.StatusBadRequest, "partySize must not be negative")
			return
		}

		st.OnManualPick(kiosk.Identifier(req.Identifier), req.Name, req.PartySize)
		writeJSON(w, http.StatusAccepted, st.View())
	}
}
