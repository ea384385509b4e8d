package server

import (
	"net/http"

	"github.com/rayarayu/checkin/internal/station"
)

type QueryRequest struct {
	Text string `json:"text"`
}

func handleQuery(st *station.Station) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req QueryRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		st.OnQueryChanged(req.Text)
		writeJSON(w, http.StatusAccepted, st.View())
	}
}

func handleSummaryRefresh(st *station.Station) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st.RefreshSummary()
		writeJSON(w, http.StatusAccepted, st.View())
	}
}
