package messages

import (
	"fmt"

	"igoserver/internal/board"
	"igoserver/internal/gamestate"
)

var kindToMove = map[string]gamestate.MoveKind{
	"play":          gamestate.MovePlay,
	"pass":          gamestate.MovePass,
	"resign":        gamestate.MoveResign,
	"mark_dead":     gamestate.MoveMarkDead,
	"request_undo":  gamestate.MoveRequestUndo,
	"accept_undo":   gamestate.MoveAcceptUndo,
	"request_tally": gamestate.MoveRequestTally,
	"accept_tally":  gamestate.MoveAcceptTally,
}

// ToMove translates an inbound ActionPayload into a gamestate.Move for the
// given color, validating the kind tag against the known vocabulary.
func ToMove(color board.Color, p ActionPayload) (gamestate.Move, error) {
	kind, ok := kindToMove[p.Kind]
	if !ok {
		return gamestate.Move{}, fmt.Errorf("messages: unknown action kind %q", p.Kind)
	}
	return gamestate.Move{Kind: kind, Color: color, Row: p.Row, Col: p.Col, Flag: p.Flag}, nil
}

// ColorFromString parses the "your_color"/"color" wire vocabulary.
func ColorFromString(s string) (board.Color, error) {
	switch s {
	case "black":
		return board.Black, nil
	case "white":
		return board.White, nil
	default:
		return board.Empty, fmt.Errorf("messages: unknown color %q", s)
	}
}
