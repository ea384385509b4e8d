package directory

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rayarayu/checkin/internal/kiosk"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func fakeDirectory(t *testing.T) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()

	r.Post("/api/login", func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"role": string(req.Role), "token": "tok-123"})
	})

	r.Patch("/api/invitations/checkin/{slug}", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
			return
		}
		switch chi.URLParam(r, "slug") {
		case "slug1":
			writeJSON(w, http.StatusOK, map[string]any{
				"name": "Jane", "qty_recorded": 2, "message": "Check-in recorded.", "already": false,
			})
		case "jane doe":
			writeJSON(w, http.StatusOK, map[string]any{"name": "Jane Doe", "qty_recorded": "3", "already": 1})
		case "broken":
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "database is locked"})
		case "slow":
			time.Sleep(200 * time.Millisecond)
			writeJSON(w, http.StatusOK, map[string]any{"name": "Late"})
		default:
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Invitation not found"})
		}
	})

	r.Get("/api/invitations/search", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("q") {
		case "jan":
			writeJSON(w, http.StatusOK, []map[string]any{
				{"slug": "slug1", "name": "Jane", "qty": 2, "checked_in": 1},
				{"slug": "slug2", "name": "Janet", "real_qty": 4, "checked_in": false},
				{"name": "no slug"},
			})
		case "wrapped":
			writeJSON(w, http.StatusOK, map[string]any{
				"results": []map[string]any{{"slug": "w1", "name": "Wrapped", "qty_use": 3, "checked_in": true}},
			})
		default:
			writeJSON(w, http.StatusOK, []any{})
		}
	})

	r.Get("/api/summary", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"checkedInTamu": 12, "estimasi_tamu": "40"})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func loggedIn(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c := New(srv.URL+"/", "", time.Second)
	sess, err := c.Login(context.Background(), "usher1", "secret", kiosk.RoleUsher)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sess.Token != "tok-123" || sess.Role != kiosk.RoleUsher || sess.Operator != "usher1" {
		t.Fatalf("session = %+v", sess)
	}
	return c
}

func TestLoginRejected(t *testing.T) {
	srv := fakeDirectory(t)
	c := New(srv.URL, "", time.Second)

	_, err := c.Login(context.Background(), "usher1", "wrong", kiosk.RoleUsher)
	var se *kiosk.ServiceError
	if !errors.As(err, &se) || se.Status != http.StatusUnauthorized {
		t.Fatalf("err = %v, want 401 service error", err)
	}
}

func TestCheckIn(t *testing.T) {
	c := loggedIn(t, fakeDirectory(t))
	ctx := context.Background()

	res, err := c.CheckIn(ctx, "slug1")
	if err != nil {
		t.Fatalf("check in: %v", err)
	}
	want := kiosk.CheckInResult{DisplayName: "Jane", PartySize: 2, Message: "Check-in recorded."}
	if res != want {
		t.Errorf("result = %+v, want %+v", res, want)
	}

	res, err = c.CheckIn(ctx, "jane doe")
	if err != nil {
		t.Fatalf("check in escaped slug: %v", err)
	}
	if !res.AlreadyCheckedIn || res.PartySize != 3 {
		t.Errorf("result = %+v, want already checked in party of 3", res)
	}
}

func TestCheckInErrors(t *testing.T) {
	c := loggedIn(t, fakeDirectory(t))

	tests := []struct {
		slug    kiosk.Identifier
		kind    error
		message string
	}{
		{"ghost", kiosk.ErrNotFound, "Invitation not found"},
		{"broken", kiosk.ErrServiceUnavailable, "database is locked"},
	}
	for _, tt := range tests {
		t.Run(string(tt.slug), func(t *testing.T) {
			_, err := c.CheckIn(context.Background(), tt.slug)
			if !errors.Is(err, tt.kind) {
				t.Fatalf("err = %v, want %v", err, tt.kind)
			}
			if err.Error() != tt.message {
				t.Errorf("message = %q, want %q", err.Error(), tt.message)
			}
		})
	}
}

func TestCheckInTimeout(t *testing.T) {
	c := loggedIn(t, fakeDirectory(t))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.CheckIn(ctx, "slow")
	if !errors.Is(err, kiosk.ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}

func TestUnreachableDirectory(t *testing.T) {
	srv := fakeDirectory(t)
	url := srv.URL
	srv.Close()

	_, err := New(url, "tok", time.Second).FetchSummary(context.Background())
	if !errors.Is(err, kiosk.ErrServiceUnavailable) {
		t.Fatalf("err = %v, want ErrServiceUnavailable", err)
	}
}

func TestSearch(t *testing.T) {
	c := loggedIn(t, fakeDirectory(t))
	ctx := context.Background()

	got, err := c.Search(ctx, "jan")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	want := []kiosk.SearchResult{
		{Identifier: "slug1", DisplayName: "Jane", PartySize: 2, AlreadyCheckedIn: true},
		{Identifier: "slug2", DisplayName: "Janet", PartySize: 4},
	}
	if len(got) != len(want) {
		t.Fatalf("results = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("result[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}

	got, err = c.Search(ctx, "wrapped")
	if err != nil {
		t.Fatalf("search wrapped: %v", err)
	}
	if len(got) != 1 || got[0].PartySize != 3 || !got[0].AlreadyCheckedIn {
		t.Errorf("wrapped results = %+v", got)
	}
}

func TestFetchSummary(t *testing.T) {
	c := loggedIn(t, fakeDirectory(t))

	s, err := c.FetchSummary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s.CheckedInGuests != 12 || s.TotalGuests != 40 {
		t.Errorf("summary = %+v, want 12 of 40", s)
	}
}
