package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/rangoli/internal/detector"
	"github.com/ayusman/rangoli/internal/log"
	"github.com/ayusman/rangoli/internal/notify"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// EventsHandler pushes notifications to websocket clients as JSON.
type EventsHandler struct {
	hub    *notify.Hub
	logger *slog.Logger
}

// NewEventsHandler creates an EventsHandler fed by hub.
func NewEventsHandler(hub *notify.Hub) *EventsHandler {
	return &EventsHandler{hub: hub, logger: log.WithComponent("ws.events")}
}

// ServeHTTP upgrades the connection and forwards notifications until the
// client goes away or the hub closes.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade", slog.Any("err", err))
		return
	}
	defer conn.Close()

	events, cancel := h.hub.Subscribe()
	defer cancel()

	// Reads only detect the client closing.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case n, ok := <-events:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(writeWait))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(n); err != nil {
				h.logger.Debug("websocket write", slog.Any("err", err))
				return
			}
		}
	}
}

// FrameSink accepts one frame's primary hand.
type FrameSink interface {
	Submit(hand *detector.HandLandmarks) bool
}

// LandmarksHandler ingests landmark frames from a browser-side detector.
// Each text message is {"hands":[...]}; an empty list means no hand. Every
// message is answered with an ingestAck.
type LandmarksHandler struct {
	sink   FrameSink
	logger *slog.Logger
}

type ingestAck struct {
	Accepted bool   `json:"accepted"`
	Hands    int    `json:"hands"`
	Error    string `json:"error,omitempty"`
}

// NewLandmarksHandler creates a LandmarksHandler submitting to sink.
func NewLandmarksHandler(sink FrameSink) *LandmarksHandler {
	return &LandmarksHandler{sink: sink, logger: log.WithComponent("ws.landmarks")}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *LandmarksHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade", slog.Any("err", err))
		return
	}
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var ack ingestAck
		hands, err := detector.ParseHands(data)
		if err != nil {
			ack.Error = err.Error()
		} else {
			ack.Hands = len(hands)
			ack.Accepted = h.sink.Submit(detector.Primary(hands))
		}

		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(ack); err != nil {
			return
		}
	}
}
