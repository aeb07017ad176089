package session

import (
	"context"
	"strconv"
	"sync"

	"igoserver/internal/apperrors"
	"igoserver/internal/archive"
	"igoserver/internal/store"
)

// fakeGateway is an in-memory stand-in for *store.Gateway, grounded in the
// exact contract of §4.C's stored procedures without requiring a live
// Postgres connection.
type fakeGateway struct {
	mu sync.Mutex

	nextGameID int
	games      map[string]*fakeGame // gameID -> row
	keys       map[string]*fakeKey  // player key -> row
	nextChatID int64
}

type fakeGame struct {
	data       []byte
	version    int
	timePlayed float64
	whiteKey   string
	blackKey   string
	chat       []store.ChatRow
}

type fakeKey struct {
	gameID      string
	color       string
	opponentKey string
	managedBy   string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{games: map[string]*fakeGame{}, keys: map[string]*fakeKey{}}
}

func (f *fakeGateway) CreateGame(ctx context.Context, p store.NewGameParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextGameID++
	gameID := strconv.Itoa(f.nextGameID)
	g := &fakeGame{data: p.Data, whiteKey: p.KeyWhite, blackKey: p.KeyBlack}
	f.games[gameID] = g

	whiteManaged, blackManaged := "", ""
	if p.JoiningColor == "white" {
		whiteManaged = p.ManagerID
	} else if p.JoiningColor == "black" {
		blackManaged = p.ManagerID
	}
	f.keys[p.KeyWhite] = &fakeKey{gameID: gameID, color: "white", opponentKey: p.KeyBlack, managedBy: whiteManaged}
	f.keys[p.KeyBlack] = &fakeKey{gameID: gameID, color: "black", opponentKey: p.KeyWhite, managedBy: blackManaged}
	return nil
}

func (f *fakeGateway) JoinGame(ctx context.Context, key, managerID string) (store.JoinResult, string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	row, ok := f.keys[key]
	if !ok {
		return store.JoinDNE, "", "", nil
	}
	if row.managedBy != "" {
		return store.JoinInUse, "", "", nil
	}
	row.managedBy = managerID
	game := f.games[row.gameID]
	return store.JoinSuccess, game.whiteKey, game.blackKey, nil
}

func (f *fakeGateway) WriteGame(ctx context.Context, key string, blob []byte, version int) (float64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	row, ok := f.keys[key]
	if !ok {
		return 0, false, nil
	}
	game := f.games[row.gameID]
	if game.version != version-1 {
		return 0, false, nil
	}
	game.version = version
	game.data = blob
	return game.timePlayed, true, nil
}

func (f *fakeGateway) WriteChat(ctx context.Context, ts float64, message, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	row, ok := f.keys[key]
	if !ok {
		return 0, apperrors.New(apperrors.KindKeyState, "key not found")
	}
	game := f.games[row.gameID]
	f.nextChatID++
	chatRow := store.ChatRow{ID: f.nextChatID, Timestamp: ts, Color: row.color, Message: message}
	game.chat = append(game.chat, chatRow)
	return chatRow.ID, nil
}

func (f *fakeGateway) Unsubscribe(ctx context.Context, key, managerID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	row, ok := f.keys[key]
	if !ok || row.managedBy != managerID {
		return false, nil
	}
	row.managedBy = ""
	return true, nil
}

func (f *fakeGateway) GetGameStatus(ctx context.Context, key string) (store.GameStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	row, ok := f.keys[key]
	if !ok {
		return store.GameStatus{}, apperrors.New(apperrors.KindKeyState, "key not found")
	}
	game := f.games[row.gameID]
	return store.GameStatus{Data: game.data, TimePlayed: game.timePlayed, Version: game.version}, nil
}

func (f *fakeGateway) GetChatUpdates(ctx context.Context, key string, sinceID *int64) ([]store.ChatRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	row, ok := f.keys[key]
	if !ok {
		return nil, apperrors.New(apperrors.KindKeyState, "key not found")
	}
	game := f.games[row.gameID]
	if sinceID == nil {
		return append([]store.ChatRow(nil), game.chat...), nil
	}
	var out []store.ChatRow
	for _, c := range game.chat {
		if c.ID == *sinceID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeGateway) GetOpponentConnected(ctx context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	row, ok := f.keys[key]
	if !ok {
		return false, apperrors.New(apperrors.KindKeyState, "key not found")
	}
	opponent := f.keys[row.opponentKey]
	return opponent != nil && opponent.managedBy != "", nil
}

func (f *fakeGateway) TriggerUpdateAll(ctx context.Context, key string) error {
	return nil
}

// fakeCache bypasses actual caching and reads straight through, suitable
// for exercising session logic without a Redis dependency.
type fakeCache struct {
	gateway Gateway
}

func (c *fakeCache) GetGameStatus(ctx context.Context, key string) (store.GameStatus, error) {
	return c.gateway.GetGameStatus(ctx, key)
}

func (c *fakeCache) Invalidate(ctx context.Context, key string) {}

// fakeListener hands back a channel per kind/key pair without any real
// LISTEN/NOTIFY transport; tests that need to simulate a store
// notification send directly into the returned channel.
type fakeListener struct {
	mu    sync.Mutex
	chans map[string]chan store.Notification
}

func newFakeListener() *fakeListener {
	return &fakeListener{chans: map[string]chan store.Notification{}}
}

func (l *fakeListener) Subscribe(ctx context.Context, kind, key string) (<-chan store.Notification, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch := make(chan store.Notification, 8)
	l.chans[kind+":"+key] = ch
	return ch, nil
}

func (l *fakeListener) Unsubscribe(ctx context.Context, kind, key string, ch <-chan store.Notification) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.chans, kind+":"+key)
}

// fakeArchive records every completed-game entry handed to it, for tests
// to assert archiving fired (or didn't) without a live Mongo collection.
type fakeArchive struct {
	mu      sync.Mutex
	entries []archive.Entry
}

func (a *fakeArchive) RecordCompletion(ctx context.Context, entry archive.Entry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
	return nil
}

func (l *fakeListener) push(kind, key, payload string) {
	l.mu.Lock()
	ch := l.chans[kind+":"+key]
	l.mu.Unlock()
	if ch != nil {
		ch <- store.Notification{Kind: kind, Key: key, Payload: payload}
	}
}
