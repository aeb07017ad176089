package session

import (
	"context"

	"igoserver/internal/archive"
	"igoserver/internal/store"
)

// Gateway is the subset of *store.Gateway the session layer calls. Defined
// as an interface (rather than depending on the concrete type directly) so
// session logic can be tested against a fake store without a live
// Postgres connection.
type Gateway interface {
	CreateGame(ctx context.Context, p store.NewGameParams) error
	JoinGame(ctx context.Context, key, managerID string) (store.JoinResult, string, string, error)
	WriteGame(ctx context.Context, key string, blob []byte, version int) (float64, bool, error)
	WriteChat(ctx context.Context, ts float64, message, key string) (int64, error)
	Unsubscribe(ctx context.Context, key, managerID string) (bool, error)
	GetGameStatus(ctx context.Context, key string) (store.GameStatus, error)
	GetChatUpdates(ctx context.Context, key string, sinceID *int64) ([]store.ChatRow, error)
	GetOpponentConnected(ctx context.Context, key string) (bool, error)
	TriggerUpdateAll(ctx context.Context, key string) error
}

// Cache is the subset of *store.Cache the session layer calls.
type Cache interface {
	GetGameStatus(ctx context.Context, key string) (store.GameStatus, error)
	Invalidate(ctx context.Context, key string)
}

// Listener is the subset of *store.Listener the session layer calls.
type Listener interface {
	Subscribe(ctx context.Context, kind, key string) (<-chan store.Notification, error)
	Unsubscribe(ctx context.Context, kind, key string, ch <-chan store.Notification)
}

// Archive is the subset of *archive.Archive the session layer calls. A nil
// Archive means archiving is disabled (MONGO_URI unset, per §6).
type Archive interface {
	RecordCompletion(ctx context.Context, entry archive.Entry) error
}
