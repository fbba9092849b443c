package httpapi

import (
	"net/http"

	"github.com/gorilla/websocket"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/blindbox/internal/app/game"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type eventMessage struct {
	Type       string        `json:"type"`
	SequenceNo uint64        `json:"sequenceNo"`
	State      game.Snapshot `json:"state"`
}

// wsSink adapts a websocket connection to the notify.Sink contract.
// Writes are funneled through a channel so only one goroutine touches the
// connection.
type wsSink struct {
	send chan game.Event
}

func (s *wsSink) Send(e game.Event) error {
	select {
	case s.send <- e:
	default:
		// Slow consumer; drop, the next snapshot supersedes this one.
	}
	return nil
}

// gameEvents upgrades the request to a websocket and streams machine events.
// The first message is the current state so late joiners render immediately.
func (h *Handler) gameEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zlog.Warn().Msgf("httpapi: ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	initial := eventMessage{
		Type:       "initial_state",
		SequenceNo: h.notify.NextSequenceNo(),
		State:      h.machine.Snapshot(),
	}
	if err := conn.WriteJSON(initial); err != nil {
		return
	}

	sink := &wsSink{send: make(chan game.Event, 16)}
	subscriptionID := h.notify.Subscribe(sink)
	defer h.notify.Unsubscribe(subscriptionID)

	done := make(chan struct{})

	// Reader goroutine: only watches for the client going away.
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case e := <-sink.send:
			msg := eventMessage{
				Type:       e.Type.String(),
				SequenceNo: h.notify.NextSequenceNo(),
				State:      e.Snapshot,
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
