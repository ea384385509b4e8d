package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/rayarayu/checkin/internal/station"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse maps each checked dependency to its status.
type HealthResponse map[string]struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Check-in Kiosk API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Local control surface of a guest check-in kiosk.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Reports whether the guest directory is reachable.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /ws/decoder
	getFeed, _ := r.NewOperationContext(http.MethodGet, "/ws/decoder")
	getFeed.SetSummary("Decoder feed")
	getFeed.SetDescription("Upgrades to a WebSocket. Each text frame is handled as one decoded code.")
	getFeed.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getFeed)

	// GET /api/state
	getState, _ := r.NewOperationContext(http.MethodGet, "/api/state")
	getState.SetSummary("Kiosk state")
	getState.SetDescription("Returns the lock state, last outcome, search results and summary.")
	getState.AddRespStructure(station.View{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getState)

	// GET /api/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/events")
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Server-Sent Events stream. Each state event carries the full kiosk state.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	// POST /api/scan
	postScan, _ := r.NewOperationContext(http.MethodPost, "/api/scan")
	postScan.SetSummary("Submit decoded code")
	postScan.SetDescription("Feeds a decoded payload as if the camera had read it. Ignored while a check-in is locked.")
	postScan.AddReqStructure(ScanRequest{})
	postScan.AddRespStructure(station.View{}, openapi.WithHTTPStatus(http.StatusAccepted))
	postScan.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postScan)

	// POST /api/pick
	postPick, _ := r.NewOperationContext(http.MethodPost, "/api/pick")
	postPick.SetSummary("Check in a search result")
	postPick.SetDescription("Starts a check-in for a guest chosen from search results.")
	postPick.AddReqStructure(PickRequest{})
	postPick.AddRespStructure(station.View{}, openapi.WithHTTPStatus(http.StatusAccepted))
	postPick.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postPick)

	// POST /api/resume
	postResume, _ := r.NewOperationContext(http.MethodPost, "/api/resume")
	postResume.SetSummary("Resume scanning")
	postResume.SetDescription("Releases a settled lock. Refused while a check-in is in flight.")
	postResume.AddRespStructure(station.View{}, openapi.WithHTTPStatus(http.StatusOK))
	postResume.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postResume)

	// POST /api/query
	postQuery, _ := r.NewOperationContext(http.MethodPost, "/api/query")
	postQuery.SetSummary("Update search query")
	postQuery.SetDescription("Sets the search text. The search runs once the text has been quiet for the debounce period.")
	postQuery.AddReqStructure(QueryRequest{})
	postQuery.AddRespStructure(station.View{}, openapi.WithHTTPStatus(http.StatusAccepted))
	postQuery.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postQuery)

	// POST /api/summary/refresh
	postRefresh, _ := r.NewOperationContext(http.MethodPost, "/api/summary/refresh")
	postRefresh.SetSummary("Refresh summary")
	postRefresh.SetDescription("Fetches fresh attendance counters from the directory.")
	postRefresh.AddRespStructure(station.View{}, openapi.WithHTTPStatus(http.StatusAccepted))
	_ = r.AddOperation(postRefresh)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
