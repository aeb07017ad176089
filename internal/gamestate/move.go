// Package gamestate wraps package board with turn order, prisoners, the
// endgame protocol and undo/tally reconciliation. A Game is a pure value:
// every operation returns a new Game rather than mutating the receiver, so
// that the session layer can treat it as an ephemeral reconstruction from
// the store's opaque blob on every action (see store.Gateway).
package gamestate

import (
	"fmt"

	"igoserver/internal/board"
)

// Phase is the game's position in the endgame protocol.
type Phase string

const (
	PhasePlay     Phase = "play"
	PhaseEndgame  Phase = "endgame"
	PhaseComplete Phase = "complete"
	PhaseResigned Phase = "resigned"
)

// MoveKind tags the variant of a Move.
type MoveKind string

const (
	MovePlay         MoveKind = "play"
	MovePass         MoveKind = "pass"
	MoveResign       MoveKind = "resign"
	MoveMarkDead     MoveKind = "mark_dead"
	MoveRequestUndo  MoveKind = "request_undo"
	MoveAcceptUndo   MoveKind = "accept_undo"
	MoveRequestTally MoveKind = "request_tally"
	MoveAcceptTally  MoveKind = "accept_tally"
)

// Move is the tagged union of every action that can be applied to a Game.
// The action stack is an append-only log of these, replayed from New to
// reconstruct state for undo rather than carrying deep board snapshots.
type Move struct {
	Kind  MoveKind
	Color board.Color
	Row   int
	Col   int
	Flag  bool // MarkDead: true marks dead, false un-marks
}

// PendingKind tags the kind of a PendingRequest.
type PendingKind string

const (
	PendingUndo  PendingKind = "undo"
	PendingTally PendingKind = "tally"
)

// PendingRequest records an outstanding request awaiting the other player's
// response.
type PendingRequest struct {
	Kind PendingKind
	By   board.Color
}

// Result is present once phase is complete or resigned.
type Result struct {
	Winner     board.Color
	WhiteScore float64
	BlackScore float64
}

// ErrorKind classifies why an action was rejected by the game object,
// distinct from board.IllegalKind: these are preconditions the board has no
// visibility into (turn order, phase, request eligibility).
type ErrorKind string

const (
	ErrNotYourTurn      ErrorKind = "not_your_turn"
	ErrWrongPhase       ErrorKind = "wrong_phase"
	ErrIllegalMove      ErrorKind = "illegal_move"
	ErrNoPendingRequest ErrorKind = "no_pending_request"
	ErrNotEligible      ErrorKind = "not_eligible"
	ErrInternal         ErrorKind = "internal"
)

// ActionError reports why an action was rejected. Cause holds the
// underlying board.IllegalMoveError when Kind is ErrIllegalMove.
type ActionError struct {
	Kind   ErrorKind
	Reason string
	Cause  error
}

func (e *ActionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("gamestate: %s: %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("gamestate: %s: %s", e.Kind, e.Reason)
}

func (e *ActionError) Unwrap() error { return e.Cause }
