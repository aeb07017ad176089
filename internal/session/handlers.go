package session

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"igoserver/internal/apperrors"
	"igoserver/internal/archive"
	"igoserver/internal/board"
	"igoserver/internal/gamestate"
	"igoserver/internal/messages"
	"igoserver/internal/store"
)

// handleNewGame implements §4.E's new_game row: 4.D generates keys, 4.C's
// create_game persists and subscribes the requester to its own side.
func (s *Session) handleNewGame(ctx context.Context, raw []byte) error {
	var req messages.NewGame
	if err := json.Unmarshal(raw, &req); err != nil {
		return s.sendError(apperrors.Wrap(apperrors.KindClientProtocol, "malformed new_game", err))
	}

	joiningColor := board.Empty
	if req.YourColor != "" {
		color, err := messages.ColorFromString(req.YourColor)
		if err != nil {
			return s.sendError(apperrors.Wrap(apperrors.KindClientProtocol, "invalid your_color", err))
		}
		joiningColor = color
	}

	whiteKey, blackKey, err := newManagerKeys(ctx, s.gateway)
	if err != nil {
		return s.sendError(apperrors.Wrap(apperrors.KindStoreUnavailable, "generate keys", err))
	}

	g := gamestate.New(req.Size, req.Komi, req.Handicap)
	blob, err := g.Serialize()
	if err != nil {
		return s.sendError(apperrors.Wrap(apperrors.KindInternal, "serialize new game", err))
	}

	params := store.NewGameParams{
		Data:     blob,
		KeyWhite: whiteKey,
		KeyBlack: blackKey,
	}
	if joiningColor != board.Empty {
		params.JoiningColor = joiningColor.String()
		params.ManagerID = s.managerID
	}

	// §9's AI secret: the opponent of the human joiner gets a secret, stored
	// on that key's row and returned in the response. join_game does not
	// take or check it; an AI worker attaches through an ordinary join_game.
	var aiSecret string
	if req.VsAI && joiningColor != board.Empty {
		aiSecret = newAISecret()
		if joiningColor == board.Black {
			params.AISecretWhite = aiSecret
		} else {
			params.AISecretBlack = aiSecret
		}
	}

	if err := s.gateway.CreateGame(ctx, params); err != nil {
		return s.sendError(apperrors.Wrap(apperrors.KindStoreUnavailable, "create_game", err))
	}

	if joiningColor != board.Empty {
		yourKey, opponentKey := whiteKey, blackKey
		if joiningColor == board.Black {
			yourKey, opponentKey = blackKey, whiteKey
		}
		if err := s.bindKey(ctx, yourKey, joiningColor, opponentKey); err != nil {
			return s.sendError(apperrors.Wrap(apperrors.KindStoreUnavailable, "bind new game", err))
		}
	}

	return s.send(messages.NewGameResponse{
		Type:      messages.TypeNewGameResponse,
		WhiteKey:  whiteKey,
		BlackKey:  blackKey,
		YourKey:   pick(joiningColor, whiteKey, blackKey),
		AISecret:  aiSecret,
		GameState: g.View(),
	})
}

func newAISecret() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

func pick(color board.Color, whiteVal, blackVal string) string {
	if color == board.Black {
		return blackVal
	}
	if color == board.White {
		return whiteVal
	}
	return ""
}

// handleJoinGame implements §4.E's join_game row.
func (s *Session) handleJoinGame(ctx context.Context, raw []byte) error {
	s.mu.Lock()
	alreadyBound := s.bound
	s.mu.Unlock()
	if alreadyBound {
		return s.sendError(apperrors.New(apperrors.KindUnauthorised, "session already has a key bound"))
	}

	var req messages.JoinGame
	if err := json.Unmarshal(raw, &req); err != nil {
		return s.sendError(apperrors.Wrap(apperrors.KindClientProtocol, "malformed join_game", err))
	}

	result, whiteKey, blackKey, err := s.gateway.JoinGame(ctx, req.Key, s.managerID)
	if err != nil {
		return s.sendError(apperrors.Wrap(apperrors.KindStoreUnavailable, "join_game", err))
	}

	switch result {
	case store.JoinDNE:
		return s.sendError(apperrors.New(apperrors.KindKeyState, "key does not exist"))
	case store.JoinInUse:
		return s.sendError(apperrors.New(apperrors.KindKeyState, "key already in use"))
	}

	status, err := s.gateway.GetGameStatus(ctx, req.Key)
	if err != nil {
		return s.sendError(apperrors.Wrap(apperrors.KindStoreUnavailable, "get_game_status after join", err))
	}
	g, err := gamestate.Deserialize(status.Data)
	if err != nil {
		return s.sendError(apperrors.Wrap(apperrors.KindInternal, "decode stored game", err))
	}

	color, opponentKey := board.White, blackKey
	if req.Key == blackKey {
		color, opponentKey = board.Black, whiteKey
	}

	if err := s.bindKey(ctx, req.Key, color, opponentKey); err != nil {
		return s.sendError(apperrors.Wrap(apperrors.KindStoreUnavailable, "bind join_game", err))
	}

	if err := s.send(messages.JoinGameResponse{Type: messages.TypeJoinGameResponse, Key: req.Key}); err != nil {
		return err
	}

	s.mu.Lock()
	s.lastVersion = status.Version
	s.mu.Unlock()
	if err := s.send(messages.GameStatus{Type: messages.TypeGameStatus, Version: status.Version, GameState: g.View()}); err != nil {
		return err
	}

	connected, err := s.gateway.GetOpponentConnected(ctx, req.Key)
	if err != nil {
		return err
	}
	return s.send(messages.OpponentConnected{Type: messages.TypeOpponentConnected, Connected: connected})
}

// handleGameAction implements §4.E's game_action row: load, apply, write
// under optimistic concurrency, and on a version conflict, silently
// re-sync rather than surface a client-facing error (per §7).
func (s *Session) handleGameAction(ctx context.Context, raw []byte) error {
	s.mu.Lock()
	key, color, opponentKey, bound := s.key, s.color, s.opponentKey, s.bound
	s.mu.Unlock()
	if !bound {
		return s.sendError(apperrors.New(apperrors.KindUnauthorised, "no key bound"))
	}

	var req messages.GameAction
	if err := json.Unmarshal(raw, &req); err != nil {
		return s.sendError(apperrors.Wrap(apperrors.KindClientProtocol, "malformed game_action", err))
	}
	mv, err := messages.ToMove(color, req.Action)
	if err != nil {
		return s.sendError(apperrors.Wrap(apperrors.KindClientProtocol, "malformed action", err))
	}

	status, err := s.gateway.GetGameStatus(ctx, key)
	if err != nil {
		return s.sendError(apperrors.Wrap(apperrors.KindStoreUnavailable, "get_game_status", err))
	}
	g, err := gamestate.Deserialize(status.Data)
	if err != nil {
		return s.sendError(apperrors.Wrap(apperrors.KindInternal, "decode stored game", err))
	}

	next, err := applyMove(g, mv)
	if err != nil {
		return s.sendError(apperrors.Wrap(apperrors.KindIllegalMove, "illegal action", err))
	}

	blob, err := next.Serialize()
	if err != nil {
		return s.sendError(apperrors.Wrap(apperrors.KindInternal, "serialize game", err))
	}

	timePlayed, ok, err := s.gateway.WriteGame(ctx, key, blob, status.Version+1)
	if err != nil {
		return s.sendError(apperrors.Wrap(apperrors.KindStoreUnavailable, "write_game", err))
	}
	if !ok {
		// Version conflict: another writer won this round. No client error;
		// the authoritative state arrives through the normal game_status
		// notification path (§7).
		s.cache.Invalidate(ctx, key)
		return nil
	}

	s.cache.Invalidate(ctx, key)
	s.cache.Invalidate(ctx, opponentKey)
	s.mu.Lock()
	s.lastVersion = status.Version + 1
	s.mu.Unlock()

	if next.Phase == gamestate.PhaseComplete || next.Phase == gamestate.PhaseResigned {
		s.recordArchive(ctx, next, timePlayed)
	}

	if err := s.send(messages.GameActionResponse{Type: messages.TypeGameActionResponse, Version: status.Version + 1}); err != nil {
		return err
	}
	return s.send(messages.GameStatus{Type: messages.TypeGameStatus, Version: status.Version + 1, GameState: next.View()})
}

// recordArchive writes the finished-game record (§4.G) if archiving is
// configured. Failures are logged, not surfaced: archiving is supplemental
// and must never block the game_action_response the client is waiting on.
func (s *Session) recordArchive(ctx context.Context, g *gamestate.Game, timePlayed float64) {
	if s.archive == nil {
		return
	}

	s.mu.Lock()
	key, color, opponentKey := s.key, s.color, s.opponentKey
	s.mu.Unlock()

	whiteKey, blackKey := key, opponentKey
	if color == board.Black {
		whiteKey, blackKey = opponentKey, key
	}

	result := ""
	if g.Result != nil {
		result = g.Result.Winner.String()
	}

	entry := archive.Entry{
		GameID:                whiteKey,
		BoardSize:             g.BoardSize,
		Komi:                  g.Komi,
		Players:               map[string]string{"white": whiteKey, "black": blackKey},
		Result:                result,
		CompletedAt:           s.clock(),
		DurationPlayedSeconds: timePlayed,
	}
	if err := s.archive.RecordCompletion(ctx, entry); err != nil {
		s.log.Warnw("session: archive record_completion failed", "key", key, "error", err)
	}
}

func applyMove(g *gamestate.Game, mv gamestate.Move) (*gamestate.Game, error) {
	switch mv.Kind {
	case gamestate.MovePlay:
		return g.Play(mv.Color, mv.Row, mv.Col)
	case gamestate.MovePass:
		return g.Pass(mv.Color)
	case gamestate.MoveResign:
		return g.Resign(mv.Color)
	case gamestate.MoveMarkDead:
		return g.MarkDead(mv.Color, mv.Row, mv.Col, mv.Flag)
	case gamestate.MoveRequestUndo:
		return g.RequestUndo(mv.Color)
	case gamestate.MoveAcceptUndo:
		return g.AcceptUndo(mv.Color)
	case gamestate.MoveRequestTally:
		return g.RequestTally(mv.Color)
	case gamestate.MoveAcceptTally:
		return g.AcceptTally(mv.Color)
	default:
		return nil, apperrors.New(apperrors.KindClientProtocol, "unknown action kind")
	}
}

// handleChat implements §4.E's chat row: write with a server timestamp, no
// local echo (the server answers its own NOTIFY).
func (s *Session) handleChat(ctx context.Context, raw []byte) error {
	s.mu.Lock()
	key, bound := s.key, s.bound
	s.mu.Unlock()
	if !bound {
		return s.sendError(apperrors.New(apperrors.KindUnauthorised, "no key bound"))
	}

	var req messages.Chat
	if err := json.Unmarshal(raw, &req); err != nil {
		return s.sendError(apperrors.Wrap(apperrors.KindClientProtocol, "malformed chat", err))
	}

	ts := float64(s.clock().UnixNano()) / 1e9
	_, err := s.gateway.WriteChat(ctx, ts, req.Message, key)
	if err != nil {
		return s.sendError(apperrors.Wrap(apperrors.KindStoreUnavailable, "write_chat", err))
	}
	return nil
}

func parseChatID(payload string) (int64, bool) {
	id, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
