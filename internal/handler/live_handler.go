package handler

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"watch-me-run-api/internal/live"
)

// The default origin check stands: browser requests must come from the
// serving host, since the upgrade also accepts the session cookie.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// handleLive streams snapshot updates over a websocket. The client picks
// topics with ?topics=races,watching,details; all topics are scoped to the
// authenticated user.
func (h *Handler) handleLive(w http.ResponseWriter, r *http.Request) {
	userID := uid(r)

	requested := strings.Split(r.URL.Query().Get("topics"), ",")
	var topics []string
	for _, t := range requested {
		switch strings.TrimSpace(t) {
		case "races":
			topics = append(topics, live.RacesTopic(userID))
		case "watching":
			topics = append(topics, live.WatchingTopic(userID))
		case "details":
			topics = append(topics, live.DetailsTopic(userID))
		}
	}
	if len(topics) == 0 {
		topics = []string{
			live.RacesTopic(userID),
			live.WatchingTopic(userID),
			live.DetailsTopic(userID),
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("handler: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	snapshots, cancel := h.hub.Subscribe(topics)
	defer cancel()

	// Drain reads so close frames are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(snap); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
