package http

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	wsWriteWait  = 5 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsMaxFrame   = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// HoverSocket handles GET /v1/sessions/{id}/hover/ws. Each inbound
// HoverEvent frame is applied to the session and answered with a HoverAck.
func (h *Handlers) HoverSocket(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		log.Warn().Err(err).Str("session", s.ID()).Msg("Hover websocket upgrade failed")
		return
	}
	defer conn.Close()

	conn.SetReadLimit(wsMaxFrame)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(wsPingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
					return
				}
			}
		}
	}()

	log.Debug().Str("session", s.ID()).Msg("Hover websocket opened")
	for {
		var ev HoverEvent
		if err := conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Str("session", s.ID()).Msg("Hover websocket closed unexpectedly")
			}
			return
		}

		ack := HoverAck{Candidate: ev.Candidate, Action: ev.Action}
		if err := h.applyHover(s, ev); err != nil {
			ack.Error = err.Error()
		} else {
			ack.TotalMS = s.HoverSnapshot()[ev.Candidate]
		}

		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(ack); err != nil {
			log.Warn().Err(err).Str("session", s.ID()).Msg("Hover websocket write failed")
			return
		}
	}
}
