package guestd

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// CheckInResponse is the body of PATCH /api/invitations/checkin/{slug}.
type CheckInResponse struct {
	Slug        string     `json:"slug"`
	Name        string     `json:"name"`
	QtyRecorded int        `json:"qty_recorded"`
	Message     string     `json:"message"`
	Already     bool       `json:"already"`
	CheckedInAt *time.Time `json:"checked_in_at,omitempty"`
}

// SummaryResponse is the body of GET /api/summary.
type SummaryResponse struct {
	TotalGuests     int `json:"totalTamu"`
	CheckedInGuests int `json:"checkedInTamu"`
	NotCheckedIn    int `json:"belumCheckInTamu"`
}

func handleCheckIn(store *Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")
		if s, err := url.PathUnescape(slug); err == nil {
			slug = s
		}

		inv, already, err := store.CheckIn(r.Context(), slug)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "Invitation not found")
			return
		}
		if err != nil {
			logger.Error("check-in failed", "slug", slug, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		msg := "Check-in recorded."
		if already {
			msg = "Guest already checked in."
		}
		logger.Info("check-in", "slug", inv.Slug, "operator", operatorFrom(r).Username, "already", already)

		writeJSON(w, http.StatusOK, CheckInResponse{
			Slug:        inv.Slug,
			Name:        inv.Name,
			QtyRecorded: inv.QtyRecorded,
			Message:     msg,
			Already:     already,
			CheckedInAt: inv.CheckedInAt,
		})
	}
}

func handleSearch(store *Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		found, err := store.Search(r.Context(), r.URL.Query().Get("q"), limit)
		if err != nil {
			logger.Error("search failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if found == nil {
			found = []Invitation{}
		}
		writeJSON(w, http.StatusOK, found)
	}
}

func handleSummary(store *Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := store.Totals(r.Context())
		if err != nil {
			logger.Error("summary failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, SummaryResponse{
			TotalGuests:     t.Guests,
			CheckedInGuests: t.CheckedInGuests,
			NotCheckedIn:    t.Guests - t.CheckedInGuests,
		})
	}
}
