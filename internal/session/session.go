// Package session implements the per-connection state machine of §4.E: it
// reconciles inbound client messages with the authoritative store under
// optimistic concurrency, and relays store notifications back out. Each
// connection owns exactly one Session; the transport layer feeds it raw
// inbound frames and supplies a Send callback for outbound ones.
package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"igoserver/internal/apperrors"
	"igoserver/internal/board"
	"igoserver/internal/gamestate"
	"igoserver/internal/keys"
	"igoserver/internal/messages"
	"igoserver/internal/store"
)

// Clock abstracts wall-clock time so tests can supply a fixed value; the
// store layer needs it for chat timestamps (§4.E: "write_chat with a
// server-supplied timestamp").
type Clock func() time.Time

// Session holds everything one WebSocket connection needs to process
// inbound messages in arrival order and push store-driven updates back.
// Per §4.E it holds: the bound player key (once joined), the last game
// version seen, and a reference to the shared store. Inbound messages are
// processed in arrival order because Handle is only ever called from one
// goroutine per connection (matching the read loop in the teacher's
// delivery/game/game.go); notification-driven messages are sent from the
// relay goroutines, so they are not ordered against Handle's replies.
type Session struct {
	gateway   Gateway
	cache     Cache
	listener  Listener
	archive   Archive // nil when archiving is disabled
	managerID string
	log      *zap.SugaredLogger
	clock    Clock
	send     func(v any) error

	mu          sync.Mutex
	key         string
	color       board.Color
	opponentKey string
	bound       bool
	lastVersion int
	lastChatID  int64

	subs []notifySub

	// bgCtx/cancel outlive any single Handle call — they bound the
	// subscription-relay goroutines for the connection's full lifetime,
	// not just the request that happened to trigger the subscribe.
	bgCtx  context.Context
	cancel context.CancelFunc
}

type notifySub struct {
	kind string
	key  string
	ch   <-chan store.Notification
}

// New constructs a Session for one connection. ctx bounds the connection's
// entire lifetime (the transport layer should derive it from the
// WebSocket's own lifetime, cancelling it on disconnect). send delivers
// one outbound wire message. Session calls it from Handle and from its
// notification-relay goroutines without holding mu, so send must be safe
// for concurrent use.
func New(ctx context.Context, gateway Gateway, cache Cache, listener Listener, archive Archive, managerID string, log *zap.SugaredLogger, send func(v any) error) *Session {
	bgCtx, cancel := context.WithCancel(ctx)
	return &Session{
		gateway:   gateway,
		cache:     cache,
		listener:  listener,
		archive:   archive,
		managerID: managerID,
		bgCtx:     bgCtx,
		cancel:    cancel,
		log:       log,
		clock:     time.Now,
		send:      send,
	}
}

// Handle processes one inbound raw frame, dispatching on its type tag.
func (s *Session) Handle(ctx context.Context, raw []byte) error {
	env, err := messages.DecodeEnvelope(raw)
	if err != nil {
		return s.sendError(apperrors.Wrap(apperrors.KindClientProtocol, "malformed message", err))
	}

	switch env.Type {
	case messages.TypeNewGame:
		return s.handleNewGame(ctx, raw)
	case messages.TypeJoinGame:
		return s.handleJoinGame(ctx, raw)
	case messages.TypeGameAction:
		return s.handleGameAction(ctx, raw)
	case messages.TypeChat:
		return s.handleChat(ctx, raw)
	case messages.TypeDisconnect:
		return s.Close(ctx)
	default:
		return s.sendError(apperrors.New(apperrors.KindClientProtocol, "unknown message type "+env.Type))
	}
}

// Close releases the session's key binding and subscriptions. Safe to call
// more than once and safe to call on an unbound session (a no-op), matching
// the cleanup path run both on an explicit "disconnect" message and on
// transport drop.
func (s *Session) Close(ctx context.Context) error {
	s.cancel()

	s.mu.Lock()
	key := s.key
	bound := s.bound
	subs := s.subs
	s.subs = nil
	s.bound = false
	s.mu.Unlock()

	for _, sub := range subs {
		s.listener.Unsubscribe(ctx, sub.kind, sub.key, sub.ch)
	}

	if !bound {
		return nil
	}
	_, err := s.gateway.Unsubscribe(ctx, key, s.managerID)
	return err
}

func (s *Session) sendError(err *apperrors.Error) error {
	return s.send(messages.NewError(err))
}

// subscribe registers for all three per-key channels and starts one
// goroutine per channel relaying deliveries into handleNotification. It is
// called once per bound key, from handleNewGame/handleJoinGame.
func (s *Session) subscribe(ctx context.Context, key string) error {
	for _, kind := range []string{"game_status", "chat", "opponent_connected"} {
		ch, err := s.listener.Subscribe(ctx, kind, key)
		if err != nil {
			return apperrors.Wrap(apperrors.KindStoreUnavailable, "subscribe", err)
		}
		s.mu.Lock()
		s.subs = append(s.subs, notifySub{kind: kind, key: key, ch: ch})
		s.mu.Unlock()
		go s.relay(s.bgCtx, kind, ch)
	}
	return nil
}

func (s *Session) relay(ctx context.Context, kind string, ch <-chan store.Notification) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			if err := s.handleNotification(ctx, n); err != nil {
				s.log.Warnw("session: notification handling failed", "kind", kind, "error", err)
			}
		}
	}
}

// handleNotification implements §4.E's three notification behaviors:
// game_status re-fetches and pushes only strictly-newer versions; chat
// fetches the single new row by id and pushes it; opponent_connected
// pushes the boolean straight through.
func (s *Session) handleNotification(ctx context.Context, n store.Notification) error {
	s.mu.Lock()
	key := s.key
	bound := s.bound
	s.mu.Unlock()
	if !bound || key != n.Key {
		return nil
	}

	switch n.Kind {
	case "game_status":
		return s.pushGameStatus(ctx)
	case "chat":
		return s.pushChat(ctx, n.Payload)
	case "opponent_connected":
		connected, err := s.gateway.GetOpponentConnected(ctx, key)
		if err != nil {
			return err
		}
		return s.send(messages.OpponentConnected{Type: messages.TypeOpponentConnected, Connected: connected})
	}
	return nil
}

func (s *Session) pushGameStatus(ctx context.Context) error {
	s.mu.Lock()
	key := s.key
	last := s.lastVersion
	s.mu.Unlock()

	status, err := s.cache.GetGameStatus(ctx, key)
	if err != nil {
		return err
	}
	if status.Version <= last {
		return nil
	}

	g, err := gamestate.Deserialize(status.Data)
	if err != nil {
		return apperrors.Wrap(apperrors.KindInternal, "decode stored game", err)
	}

	s.mu.Lock()
	s.lastVersion = status.Version
	s.mu.Unlock()

	return s.send(messages.GameStatus{Type: messages.TypeGameStatus, Version: status.Version, GameState: g.View()})
}

func (s *Session) pushChat(ctx context.Context, payload string) error {
	s.mu.Lock()
	key := s.key
	s.mu.Unlock()

	var sinceID *int64
	if id, ok := parseChatID(payload); ok {
		sinceID = &id
	}

	rows, err := s.gateway.GetChatUpdates(ctx, key, sinceID)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := s.send(messages.ChatMessage{
			Type:      messages.TypeChatMessage,
			ID:        row.ID,
			Timestamp: row.Timestamp,
			Color:     row.Color,
			Text:      row.Message,
		}); err != nil {
			return err
		}
	}
	return nil
}

// bindKey finalises a key binding shared by the new-game and join-game
// paths: records key/color, subscribes to all three channels, and
// requests an immediate snapshot via trigger_update_all.
func (s *Session) bindKey(ctx context.Context, key string, color board.Color, opponentKey string) error {
	s.mu.Lock()
	if s.bound {
		s.mu.Unlock()
		return apperrors.New(apperrors.KindUnauthorised, "session already has a key bound")
	}
	s.key = key
	s.color = color
	s.opponentKey = opponentKey
	s.bound = true
	s.lastVersion = 0
	s.mu.Unlock()

	if err := s.subscribe(ctx, key); err != nil {
		return err
	}
	return s.gateway.TriggerUpdateAll(ctx, key)
}

func existsCheck(gw Gateway) func(ctx context.Context, key string) (bool, error) {
	return func(ctx context.Context, key string) (bool, error) {
		_, err := gw.GetGameStatus(ctx, key)
		if err == nil {
			return true, nil
		}
		if appErr, ok := err.(*apperrors.Error); ok && appErr.Kind == apperrors.KindKeyState {
			return false, nil
		}
		return false, err
	}
}

// newManagerKeys generates a fresh, collision-free key pair against the
// store.
func newManagerKeys(ctx context.Context, gw Gateway) (white, black string, err error) {
	return keys.Pair(ctx, existsCheck(gw))
}
