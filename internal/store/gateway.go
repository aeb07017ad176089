// Package store is the sole path from the rest of the server to
// PostgreSQL: opaque-blob persistence with a monotonic version, pub/sub
// notification fan-out, and stored-procedure invocation. Per §4.C, no ad
// hoc SQL reaches the database from outside this package.
package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"igoserver/internal/apperrors"
)

// JoinResult is the three-way outcome of join_game.
type JoinResult string

const (
	JoinDNE     JoinResult = "dne"
	JoinInUse   JoinResult = "in_use"
	JoinSuccess JoinResult = "success"
)

// GameStatus is the tuple returned by get_game_status.
type GameStatus struct {
	Data        []byte
	TimePlayed  float64
	Version     int
}

// ChatRow is one row returned by get_chat_updates.
type ChatRow struct {
	ID        int64
	Timestamp float64
	Color     string
	Message   string
}

// NewGameParams bundles create_game's optional fields.
type NewGameParams struct {
	Data            []byte
	KeyWhite        string
	KeyBlack        string
	JoiningColor    string // "white", "black", or "" for neither
	ManagerID       string
	UnsubscribeKey  string // optional
	AISecretWhite   string // optional
	AISecretBlack   string // optional
}

// Gateway wraps a pgxpool.Pool and exposes the store's stored-procedure
// contract from §4.C. It owns no game logic; callers pass already-
// serialised blobs and receive opaque blobs back.
type Gateway struct {
	pool *pgxpool.Pool
	log  *zap.SugaredLogger
}

// New connects a pool against databaseURL. Callers should also start a
// Listener (see listen.go) against the same URL to receive notifications.
func New(ctx context.Context, databaseURL string, log *zap.SugaredLogger) (*Gateway, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindStoreUnavailable, "connect to postgres", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, apperrors.Wrap(apperrors.KindStoreUnavailable, "ping postgres", err)
	}
	return &Gateway{pool: pool, log: log}, nil
}

func (g *Gateway) Close() {
	g.pool.Close()
}

// CreateGame persists a brand new game and its two player-key rows.
func (g *Gateway) CreateGame(ctx context.Context, p NewGameParams) error {
	_, err := g.pool.Exec(ctx,
		`CALL new_game($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.Data, p.KeyWhite, p.KeyBlack,
		nullableString(p.JoiningColor), nullableString(p.ManagerID),
		nullableString(p.UnsubscribeKey), nullableString(p.AISecretWhite), nullableString(p.AISecretBlack),
	)
	if err != nil {
		return apperrors.Wrap(apperrors.KindStoreUnavailable, "new_game", err)
	}
	return nil
}

// JoinGame attempts to bind key to managerID. On success it also returns
// the game's white and black keys, so the caller can resolve which color
// it just joined.
func (g *Gateway) JoinGame(ctx context.Context, key, managerID string) (result JoinResult, whiteKey, blackKey string, err error) {
	var r string
	var w, b *string
	err = g.pool.QueryRow(ctx, `SELECT result, white_key, black_key FROM join_game($1, $2)`, key, managerID).Scan(&r, &w, &b)
	if err != nil {
		return "", "", "", apperrors.Wrap(apperrors.KindStoreUnavailable, "join_game", err)
	}
	if w != nil {
		whiteKey = *w
	}
	if b != nil {
		blackKey = *b
	}
	return JoinResult(r), whiteKey, blackKey, nil
}

// WriteGame writes blob under optimistic concurrency: it only succeeds if
// the game's current version equals version-1. Returns (newTimePlayed,
// true) on success, (0, false) on a version conflict.
func (g *Gateway) WriteGame(ctx context.Context, key string, blob []byte, version int) (float64, bool, error) {
	var newTimePlayed *float64
	err := g.pool.QueryRow(ctx, `SELECT write_game($1, $2, $3)`, key, blob, version).Scan(&newTimePlayed)
	if err != nil {
		return 0, false, apperrors.Wrap(apperrors.KindStoreUnavailable, "write_game", err)
	}
	if newTimePlayed == nil {
		return 0, false, nil
	}
	return *newTimePlayed, true, nil
}

// WriteChat inserts a chat row and returns its assigned id.
func (g *Gateway) WriteChat(ctx context.Context, ts float64, message, key string) (int64, error) {
	var id *int64
	err := g.pool.QueryRow(ctx, `SELECT write_chat($1, $2, $3)`, ts, message, key).Scan(&id)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.KindStoreUnavailable, "write_chat", err)
	}
	if id == nil {
		return 0, apperrors.New(apperrors.KindKeyState, "write_chat: key not found")
	}
	return *id, nil
}

// Unsubscribe releases key if it is currently managed by managerID.
func (g *Gateway) Unsubscribe(ctx context.Context, key, managerID string) (bool, error) {
	var ok bool
	err := g.pool.QueryRow(ctx, `SELECT unsubscribe($1, $2)`, key, managerID).Scan(&ok)
	if err != nil {
		return false, apperrors.Wrap(apperrors.KindStoreUnavailable, "unsubscribe", err)
	}
	return ok, nil
}

// GetGameStatus fetches the current blob/time_played/version for key.
func (g *Gateway) GetGameStatus(ctx context.Context, key string) (GameStatus, error) {
	var s GameStatus
	err := g.pool.QueryRow(ctx, `SELECT data, time_played, version FROM get_game_status($1)`, key).
		Scan(&s.Data, &s.TimePlayed, &s.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return GameStatus{}, apperrors.New(apperrors.KindKeyState, "get_game_status: key not found")
	}
	if err != nil {
		return GameStatus{}, apperrors.Wrap(apperrors.KindStoreUnavailable, "get_game_status", err)
	}
	return s, nil
}

// GetChatUpdates returns chat rows for key. When sinceID is non-nil, only
// the single row with that id is returned (matching the self-notification
// use, where the inserter already knows the id and only needs that row).
func (g *Gateway) GetChatUpdates(ctx context.Context, key string, sinceID *int64) ([]ChatRow, error) {
	rows, err := g.pool.Query(ctx, `SELECT id, ts, color, message FROM get_chat_updates($1, $2)`, key, sinceID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindStoreUnavailable, "get_chat_updates", err)
	}
	defer rows.Close()

	var out []ChatRow
	for rows.Next() {
		var c ChatRow
		if err := rows.Scan(&c.ID, &c.Timestamp, &c.Color, &c.Message); err != nil {
			return nil, apperrors.Wrap(apperrors.KindStoreUnavailable, "get_chat_updates scan", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetOpponentConnected reports whether key's opponent currently has a live
// managed_by binding.
func (g *Gateway) GetOpponentConnected(ctx context.Context, key string) (bool, error) {
	var connected bool
	err := g.pool.QueryRow(ctx, `SELECT get_opponent_connected($1)`, key).Scan(&connected)
	if err != nil {
		return false, apperrors.Wrap(apperrors.KindStoreUnavailable, "get_opponent_connected", err)
	}
	return connected, nil
}

// Cleanup releases every key still managed by managerID. Run once on
// startup under the process's own manager_id to reclaim keys orphaned by
// an unexpected prior exit.
func (g *Gateway) Cleanup(ctx context.Context, managerID string) error {
	_, err := g.pool.Exec(ctx, `CALL do_cleanup($1)`, managerID)
	if err != nil {
		return apperrors.Wrap(apperrors.KindStoreUnavailable, "do_cleanup", err)
	}
	return nil
}

// TriggerUpdateAll re-fires all three notification channels for key, used
// right after a successful join so the new subscriber gets an immediate
// snapshot rather than waiting for the next write.
func (g *Gateway) TriggerUpdateAll(ctx context.Context, key string) error {
	_, err := g.pool.Exec(ctx, `CALL trigger_update_all($1)`, key)
	if err != nil {
		return apperrors.Wrap(apperrors.KindStoreUnavailable, "trigger_update_all", err)
	}
	return nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
