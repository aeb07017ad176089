// Package transport adapts one WebSocket connection to one session.Session,
// in the upgrade/read-loop shape of the teacher's delivery/game/game.go.
package transport

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"igoserver/internal/session"
)

const (
	writeTimeout  = 10 * time.Second
	pongTimeout   = 60 * time.Second
	pingInterval  = (pongTimeout * 9) / 10
	maxFrameBytes = 1 << 20
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades incoming HTTP requests to WebSocket connections and runs
// one session.Session per connection.
type Handler struct {
	gateway   session.Gateway
	cache     session.Cache
	listener  session.Listener
	archive   session.Archive // nil when archiving is disabled
	managerID string          // one per process, per §6
	log       *zap.SugaredLogger
}

// NewHandler builds the /ws route handler. gateway/cache/listener are the
// shared store adapters handed to every connection's Session; archive may
// be nil if MONGO_URI was not configured. managerID is minted once at
// process startup (keys.ManagerID) and shared by every connection this
// process serves, so do_cleanup(manager_id) can reclaim all of them after
// a crash in one sweep.
func NewHandler(gateway session.Gateway, cache session.Cache, listener session.Listener, archive session.Archive, managerID string, log *zap.SugaredLogger) *Handler {
	return &Handler{gateway: gateway, cache: cache, listener: listener, archive: archive, managerID: managerID, log: log}
}

// ServeHTTP upgrades the request and runs the connection's read loop until
// the client disconnects or a fatal write error occurs.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnw("transport: upgrade failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var writeMu sync.Mutex
	send := func(v any) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		return conn.WriteJSON(v)
	}

	sess := session.New(ctx, h.gateway, h.cache, h.listener, h.archive, h.managerID, h.log, send)
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), writeTimeout)
		defer closeCancel()
		if err := sess.Close(closeCtx); err != nil {
			h.log.Warnw("transport: session close failed", "error", err)
		}
		conn.Close()
	}()

	conn.SetReadLimit(maxFrameBytes)
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})
	conn.SetReadDeadline(time.Now().Add(pongTimeout))

	go h.pingLoop(ctx, conn, &writeMu)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Infow("transport: read error", "error", err)
			}
			return
		}
		if err := sess.Handle(ctx, raw); err != nil {
			h.log.Warnw("transport: handle failed", "error", err)
			return
		}
	}
}

// pingLoop keeps the connection alive against intermediaries that drop
// idle TCP connections, mirroring gorilla's documented ping/pong pattern.
func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn, writeMu *sync.Mutex) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			writeMu.Unlock()
			if err != nil {
				h.log.Warnw("transport: ping failed", "error", err)
				return
			}
		}
	}
}

// Healthz answers a liveness probe with no store dependency, matching the
// teacher's preference for a cheap, dependency-free check at the edge.
func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
