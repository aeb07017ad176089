package store

import (
	"context"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// Notification is one pg_notify payload, classified by channel prefix and
// carrying the player key it concerns.
type Notification struct {
	Kind    string // "game_status", "chat", "opponent_connected"
	Key     string
	Payload string
}

// Listener owns a single dedicated LISTEN connection and fans out
// pg_notify deliveries to per-key subscriber channels. Per §4.C, a
// subscriber receives notifications only while explicitly subscribed; the
// session layer subscribes on join_game/new_game success and unsubscribes
// before releasing the key.
type Listener struct {
	log *zap.SugaredLogger

	mu   sync.Mutex
	subs map[string][]chan Notification // keyed by "<kind>:<key>"

	conn *pgx.Conn
}

// NewListener opens a dedicated connection (distinct from the pool used for
// queries, since LISTEN must live on one held connection) and starts the
// dispatch loop.
func NewListener(ctx context.Context, databaseURL string, log *zap.SugaredLogger) (*Listener, error) {
	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	l := &Listener{
		log:  log,
		subs: make(map[string][]chan Notification),
		conn: conn,
	}
	go l.run(ctx)
	return l, nil
}

func (l *Listener) Close(ctx context.Context) error {
	return l.conn.Close(ctx)
}

// Subscribe registers chan Notification for the given kind/key pair,
// issuing the underlying LISTEN. Callers must call Unsubscribe when done.
func (l *Listener) Subscribe(ctx context.Context, kind, key string) (<-chan Notification, error) {
	channel := kind + "_" + key
	if _, err := l.conn.Exec(ctx, `LISTEN "`+channel+`"`); err != nil {
		return nil, err
	}

	ch := make(chan Notification, 16)
	topic := kind + ":" + key
	l.mu.Lock()
	l.subs[topic] = append(l.subs[topic], ch)
	l.mu.Unlock()
	return ch, nil
}

// Unsubscribe removes ch from the fan-out table and, if it was the last
// subscriber for that kind/key pair, issues UNLISTEN.
func (l *Listener) Unsubscribe(ctx context.Context, kind, key string, ch <-chan Notification) {
	channel := kind + "_" + key
	topic := kind + ":" + key

	l.mu.Lock()
	subs := l.subs[topic]
	for i, existing := range subs {
		if existing == ch {
			subs = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	empty := len(subs) == 0
	if empty {
		delete(l.subs, topic)
	} else {
		l.subs[topic] = subs
	}
	l.mu.Unlock()

	if empty {
		_, _ = l.conn.Exec(ctx, `UNLISTEN "`+channel+`"`)
	}
}

// run drains pgx's notification stream for the lifetime of ctx, routing
// each delivery to the subscribers registered for its channel.
func (l *Listener) run(ctx context.Context) {
	for {
		n, err := l.conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			l.log.Errorw("listener: WaitForNotification failed", "error", err)
			return
		}
		l.dispatch(n)
	}
}

func (l *Listener) dispatch(n *pgconn.Notification) {
	kind, key, ok := splitChannel(n.Channel)
	if !ok {
		return
	}
	topic := kind + ":" + key

	l.mu.Lock()
	subs := append([]chan Notification(nil), l.subs[topic]...)
	l.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- Notification{Kind: kind, Key: key, Payload: n.Payload}:
		default:
			l.log.Warnw("listener: subscriber channel full, dropping notification", "topic", topic)
		}
	}
}

// splitChannel recovers the kind/key pair from a channel name, reversing
// the "<kind>_<key>" convention. kind is one of the three fixed prefixes;
// key is everything after the first matching prefix's underscore.
func splitChannel(channel string) (kind, key string, ok bool) {
	for _, prefix := range []string{"game_status_", "chat_", "opponent_connected_"} {
		if strings.HasPrefix(channel, prefix) {
			return strings.TrimSuffix(prefix, "_"), strings.TrimPrefix(channel, prefix), true
		}
	}
	return "", "", false
}
