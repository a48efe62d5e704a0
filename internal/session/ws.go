package session

import (
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// ServeWS upgrades the request and runs the connection until it closes.
// The caller has already authorized userID for projectID.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID, projectID string, opts *websocket.AcceptOptions) {
	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	client := newClient(h, conn, userID, projectID, uuid.New().String())
	if !h.Register(client) {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
