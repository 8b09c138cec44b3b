package websocket

import (
	"net/http"
	"strings"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"rankkit/realtime"
)

const writeWait = 5 * time.Second

// Handler returns an http.Handler that upgrades to WebSocket and streams events from the hub.
// The optional board query parameter (comma separated) restricts the stream to those boards.
func Handler(hub *realtime.Hub) http.Handler {
	upgrader := gorillaws.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var boards []string
		if q := r.URL.Query().Get("board"); q != "" {
			for _, b := range strings.Split(q, ",") {
				if b = strings.TrimSpace(b); b != "" {
					boards = append(boards, b)
				}
			}
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		id, ch := hub.Subscribe(256, boards...)
		defer hub.Unsubscribe(id)

		// Drain client frames so a close from the peer ends the stream.
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-closed:
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(gorillaws.TextMessage, realtime.MarshalJSON(ev)); err != nil {
					return
				}
			}
		}
	})
}
