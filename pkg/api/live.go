package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rubiojr/basket/pkg/core"
)

const (
	liveWriteWait  = 10 * time.Second
	livePingPeriod = 30 * time.Second
	livePongWait   = 2 * livePingPeriod
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleLive streams newly stored searches over a websocket. The first
// message is an init snapshot of recent products, followed by one message per
// stored search.
func (s *Server) HandleLive(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		s.writeError(w, http.StatusServiceUnavailable, CodeUnavailable, "Live feed is not enabled")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied
		s.logger.Warnf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	id, events := s.hub.Register()
	defer s.hub.Unregister(id)

	snapshot, err := s.searcher.Recent(r.Context(), s.recentLimit)
	if err != nil && !errors.Is(err, core.ErrNoResults) {
		s.logger.Warnf("live snapshot: %v", err)
	}
	if snapshot == nil {
		snapshot = []core.ProductRecord{}
	}

	conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
	if err := conn.WriteJSON(LiveInitMessage{Type: "init", Matches: snapshot, Count: len(snapshot)}); err != nil {
		return
	}

	// The reader only drains control frames and notices the client leaving.
	closed := make(chan struct{})
	conn.SetReadDeadline(time.Now().Add(livePongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(livePongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(livePingPeriod)
	defer ticker.Stop()

	s.logger.Debugf("live listener %d connected (%d active)", id, s.hub.Size())
	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
