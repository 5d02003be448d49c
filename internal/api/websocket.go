package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/AaronLay10/BlindEngine/internal/events"
)

const (
	defaultReplay = 50
	maxReplay     = 256

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// RequireAnyRole guards the route before the upgrade.
	CheckOrigin: func(*http.Request) bool { return true },
}

// eventStream is one websocket client following the event feed.
type eventStream struct {
	conn      *websocket.Conn
	prefix    string
	sessionID string
	sub       events.Subscriber
}

// wsEventsHandler replays buffered events and then streams live ones.
//
//	?event=<prefix>   only events named prefix*, e.g. "trap."
//	?session=<id>     only events of one verification session
//	?replay=<n>       buffered events to send first (default 50, 0 for none)
func wsEventsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	replay := queryInt(r, "replay", defaultReplay)
	if replay > maxReplay {
		replay = maxReplay
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		events.Logger().Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	s := &eventStream{
		conn:      conn,
		prefix:    q.Get("event"),
		sessionID: q.Get("session"),
	}
	s.sub = events.SubscribePrefix(s.prefix)
	defer events.Unsubscribe(s.sub)
	defer conn.Close()

	if replay > 0 {
		for _, e := range events.RecentMatching(replay, s.prefix, s.sessionID) {
			if err := s.write(e); err != nil {
				return
			}
		}
	}
	s.run(s.readLoop())
}

// readLoop consumes control frames. The returned channel closes when the
// peer goes away.
func (s *eventStream) readLoop() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		s.conn.SetPongHandler(func(string) error {
			return s.conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := s.conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	return done
}

func (s *eventStream) run(done <-chan struct{}) {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case e, ok := <-s.sub:
			if !ok {
				// hub shut down
				return
			}
			if !s.wants(e) {
				continue
			}
			if err := s.write(e); err != nil {
				events.Logger().Debug().Err(err).Msg("ws write failed")
				return
			}
		case <-ping.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *eventStream) wants(e events.Event) bool {
	if s.sessionID == "" {
		return true
	}
	id, _ := e.Fields["session_id"].(string)
	return id == s.sessionID
}

func (s *eventStream) write(e events.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return nil
	}
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}
