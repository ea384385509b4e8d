package decoder

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"
)

// Hub is a source fed by browser camera pages over websocket. Each text
// message is one decoded frame.
type Hub struct {
	fanout
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{logger: logger}
}

// Publish injects a payload as if a connected camera had decoded it.
func (h *Hub) Publish(text string) {
	h.emit(text)
}

// Handler accepts a camera connection and forwards its frames until the
// client goes away.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			h.logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx, cancel := context.WithTimeout(r.Context(), 12*time.Hour)
		defer cancel()

		h.logger.Info("camera connected", "remote", r.RemoteAddr)
		for {
			typ, msg, err := conn.Read(ctx)
			if err != nil {
				h.logger.Debug("camera stream ended", "error", err)
				return
			}
			if typ != websocket.MessageText {
				continue
			}
			h.emit(string(msg))
		}
	}
}
