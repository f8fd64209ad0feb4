package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wenxinhu03/christmas-tree2/internal/interaction"
	"github.com/wenxinhu03/christmas-tree2/internal/state"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// PointerEvent is a pointer message sent by a browser client.
type PointerEvent struct {
	Type    string  `json:"type"` // down, move, up or double
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Pressed bool    `json:"pressed"`
}

// LiveHandler pushes state snapshots to websocket clients as they change
// and forwards their pointer events to the controller.
type LiveHandler struct {
	state   *state.State
	pointer PointerInput
	logger  *slog.Logger
}

// NewLiveHandler creates a LiveHandler. pointer may be nil, in which case
// incoming events are ignored.
func NewLiveHandler(st *state.State, pointer PointerInput, logger *slog.Logger) *LiveHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LiveHandler{state: st, pointer: pointer, logger: logger}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade error", "error", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.state.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go h.writeLoop(conn, updates, done)

	if h.readLoop(conn) && h.pointer != nil {
		h.logger.Debug("client left mid-press, releasing pointer")
		h.pointer.Release()
	}
	close(done)
}

func (h *LiveHandler) writeLoop(conn *websocket.Conn, updates <-chan state.Snapshot, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	if err := h.send(conn, h.state.Snapshot()); err != nil {
		return
	}

	for {
		select {
		case <-done:
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if err := h.send(conn, snap); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *LiveHandler) send(conn *websocket.Conn, snap state.Snapshot) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(snap); err != nil {
		h.logger.Debug("websocket write failed", "error", err)
		return err
	}
	return nil
}

// readLoop dispatches events until the connection fails. It reports whether
// the client still held a press when it went away.
func (h *LiveHandler) readLoop(conn *websocket.Conn) (held bool) {
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return held
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		var ev PointerEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			h.logger.Debug("ignoring malformed pointer event", "error", err)
			continue
		}
		h.dispatch(ev)

		switch ev.Type {
		case "down":
			held = true
		case "up":
			held = false
		}
	}
}

func (h *LiveHandler) dispatch(ev PointerEvent) {
	if h.pointer == nil {
		return
	}

	switch ev.Type {
	case "down":
		h.pointer.Press(ev.X, ev.Y)
	case "move":
		h.pointer.Move(interaction.Pointer{
			X: ev.X, Y: ev.Y,
			Width: ev.Width, Height: ev.Height,
			Pressed: ev.Pressed,
		})
	case "up":
		h.pointer.Release()
	case "double":
		h.pointer.DoublePress()
	default:
		h.logger.Debug("ignoring unknown pointer event", "type", ev.Type)
	}
}
