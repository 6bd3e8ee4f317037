package streaming

import (
	"net/http"

	"github.com/coder/websocket"
)

// ServeWebSocket upgrades r to a WebSocket connection and relays every
// payload sub receives as a text frame until the client disconnects or ctx
// is cancelled. It is the WebSocket counterpart to the handler's SSE path
// for the thread-stream endpoint (spec §6), sharing the same Subscription.
func ServeWebSocket(w http.ResponseWriter, r *http.Request, sub *Subscription) error {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return err
	}
	defer conn.CloseNow()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return conn.Close(websocket.StatusNormalClosure, "stream closed")
		case payload, ok := <-sub.Receive():
			if !ok {
				return conn.Close(websocket.StatusNormalClosure, "thread stream ended")
			}
			if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
				return err
			}
		}
	}
}

// IsWebSocketUpgrade reports whether r is requesting a WebSocket upgrade,
// used by the stream handler to choose between the SSE and WebSocket
// transports for the same per-thread Subscription.
func IsWebSocketUpgrade(r *http.Request) bool {
	return r.Header.Get("Upgrade") == "websocket"
}
