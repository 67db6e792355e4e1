package http

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"gamified-lms/internal/app"
	"gamified-lms/internal/domain"
	"gamified-lms/internal/logger"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

// WSHandler streams leaderboard snapshots to websocket clients.
type WSHandler struct {
	leaderboard *app.LeaderboardService
	tokens      TokenVerifier
	log         *logger.Logger
	upgrader    websocket.Upgrader
}

func NewWSHandler(leaderboard *app.LeaderboardService, tokens TokenVerifier, log *logger.Logger) *WSHandler {
	return &WSHandler{
		leaderboard: leaderboard,
		tokens:      tokens,
		log:         log.With("component", "ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS authenticates with a bearer header or a ?token= query parameter.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		respondError(w, r, h.log, domain.ErrUnauthenticated)
		return
	}
	actor, err := h.tokens.Verify(token)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	updates, cancel, err := h.leaderboard.Subscribe(r.Context(), actor)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// Reader: only needed to process control frames and notice the client leaving.
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(outboundMessage[domain.Leaderboard]{Type: "leaderboard", Payload: update}); err != nil {
				h.log.Debug("ws write failed", "user_id", actor.UserID, "error", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		case <-readerDone:
			return
		case <-r.Context().Done():
			return
		}
	}
}
