package server

import (
	"net/http"

	"github.com/rayarayu/checkin/internal/station"
)

func handleState(st *station.Station) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, st.View())
	}
}
