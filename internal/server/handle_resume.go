package server

import (
	"net/http"

	"github.com/rayarayu/checkin/internal/station"
)

func handleResume(st *station.Station) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !st.Resume() {
			writeError(w, http.StatusConflict, "check-in in progress")
			return
		}
		writeJSON(w, http.StatusOK, st.View())
	}
}
