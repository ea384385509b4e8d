package server

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/rayarayu/checkin/internal/decoder"
	"github.com/rayarayu/checkin/internal/handler/health"
	"github.com/rayarayu/checkin/internal/station"
)

// Deps is what the kiosk HTTP surface drives and reports on.
type Deps struct {
	Station *station.Station
	Feed    *decoder.Hub
	Checks  map[string]health.Checker
	SPADir  string
}

// Kiosk is the local control surface of one check-in station.
type Kiosk struct {
	deps   Deps
	broker *Broker
	logger *slog.Logger
}

func NewKiosk(logger *slog.Logger, deps Deps) *Kiosk {
	k := &Kiosk{deps: deps, broker: NewBroker(), logger: logger}
	deps.Station.OnChange(func() {
		k.broker.Publish(deps.Station.View())
	})
	return k
}

// Close ends open event streams so the HTTP server can drain.
func (k *Kiosk) Close() {
	k.broker.Close()
}

func (k *Kiosk) Mount(r chi.Router) {
	st := k.deps.Station

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Check-in Kiosk API", "/openapi.json", "/docs"))
	r.Mount("/healthz", health.NewHandler(k.logger, k.deps.Checks).Routes())
	if k.deps.Feed != nil {
		r.Get("/ws/decoder", k.deps.Feed.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", handleState(st))
		r.Get("/events", handleEvents(st, k.broker))
		r.Post("/scan", handleScan(st))
		r.Post("/pick", handlePick(st))
		r.Post("/resume", handleResume(st))
		r.Post("/query", handleQuery(st))
		r.Post("/summary/refresh", handleSummaryRefresh(st))
	})

	if dir := k.deps.SPADir; dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			k.logger.Info("serving SPA", "dir", dir)
			r.NotFound(handleSPA(dir))
		}
	}
}
