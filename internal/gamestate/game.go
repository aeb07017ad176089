package gamestate

import "igoserver/internal/board"

// Game is the authoritative state of one igo game: a board history plus the
// turn, prisoner, phase and request bookkeeping the board itself has no
// notion of. It is never shared between sessions within a process — the
// session layer reconstructs one from the store's blob on every action,
// mutates it by calling one of its methods, and writes the result back.
type Game struct {
	BoardSize int
	Komi      float64
	Handicap  int

	Turn      board.Color
	Prisoners map[board.Color]int
	Board     *board.Board

	// History is every board hash reached so far this game, used for
	// positional superko. It is never cleared (see design notes on
	// positional superko).
	History []board.Hash

	Phase Phase

	DeadMarks     map[[2]int]bool
	Pending       *PendingRequest
	TallyAccepted map[board.Color]bool

	ActionStack []Move
	Result      *Result
}

// New creates a game with handicap stones placed and the initial turn set:
// black moves first in an even game, white moves first when black has
// received handicap stones.
func New(size int, komi float64, handicap int) *Game {
	b := board.New(size)
	points := handicapPoints(size)
	if handicap > len(points) {
		handicap = len(points)
	}
	for i := 0; i < handicap; i++ {
		b = b.WithStone(points[i].Row, points[i].Col, board.Black)
	}

	turn := board.Black
	if handicap > 0 {
		turn = board.White
	}

	return &Game{
		BoardSize:     size,
		Komi:          komi,
		Handicap:      handicap,
		Turn:          turn,
		Prisoners:     map[board.Color]int{board.Black: 0, board.White: 0},
		Board:         b,
		History:       []board.Hash{b.Hash()},
		Phase:         PhasePlay,
		DeadMarks:     map[[2]int]bool{},
		TallyAccepted: map[board.Color]bool{},
		ActionStack:   nil,
		Result:        nil,
	}
}

func (g *Game) clone() *Game {
	cp := *g
	cp.Prisoners = map[board.Color]int{board.Black: g.Prisoners[board.Black], board.White: g.Prisoners[board.White]}
	cp.History = append([]board.Hash(nil), g.History...)
	cp.DeadMarks = make(map[[2]int]bool, len(g.DeadMarks))
	for k, v := range g.DeadMarks {
		cp.DeadMarks[k] = v
	}
	cp.TallyAccepted = make(map[board.Color]bool, len(g.TallyAccepted))
	for k, v := range g.TallyAccepted {
		cp.TallyAccepted[k] = v
	}
	cp.ActionStack = append([]Move(nil), g.ActionStack...)
	if g.Pending != nil {
		p := *g.Pending
		cp.Pending = &p
	}
	if g.Result != nil {
		r := *g.Result
		cp.Result = &r
	}
	return &cp
}

func (g *Game) historySet() map[board.Hash]bool {
	set := make(map[board.Hash]bool, len(g.History))
	for _, h := range g.History {
		set[h] = true
	}
	return set
}

// apply is the single dispatch point for every Move variant, used both by
// the public methods below and by replay (for undo reconstruction), so the
// two can never drift apart.
func (g *Game) apply(mv Move) (*Game, error) {
	switch mv.Kind {
	case MovePlay:
		return g.play(mv.Color, mv.Row, mv.Col)
	case MovePass:
		return g.pass(mv.Color)
	case MoveResign:
		return g.resign(mv.Color)
	case MoveMarkDead:
		return g.markDead(mv.Color, mv.Row, mv.Col, mv.Flag)
	case MoveRequestUndo:
		return g.requestUndo(mv.Color)
	case MoveAcceptUndo:
		return g.acceptUndo(mv.Color)
	case MoveRequestTally:
		return g.requestTally(mv.Color)
	case MoveAcceptTally:
		return g.acceptTally(mv.Color)
	default:
		return nil, &ActionError{Kind: ErrInternal, Reason: "unknown move kind " + string(mv.Kind)}
	}
}

// replay rebuilds a Game from scratch by applying moves in order, per the
// design note preferring replay over deep board snapshots for undo.
func replay(size int, komi float64, handicap int, moves []Move) (*Game, error) {
	g := New(size, komi, handicap)
	for _, mv := range moves {
		next, err := g.apply(mv)
		if err != nil {
			return nil, err
		}
		g = next
	}
	return g, nil
}

// Play places a stone for color at (row, col). See package board for
// legality precedence; endgame placement reverts phase to play per the
// resolved "continue play" rule (see design notes).
func (g *Game) Play(color board.Color, row, col int) (*Game, error) {
	return g.play(color, row, col)
}

func (g *Game) play(color board.Color, row, col int) (*Game, error) {
	if g.Phase != PhasePlay && g.Phase != PhaseEndgame {
		return nil, &ActionError{Kind: ErrWrongPhase, Reason: "play requires phase play or endgame"}
	}
	if color != g.Turn {
		return nil, &ActionError{Kind: ErrNotYourTurn}
	}

	next, captured, err := g.Board.Place(color, row, col, g.historySet())
	if err != nil {
		return nil, &ActionError{Kind: ErrIllegalMove, Cause: err}
	}

	out := g.clone()
	out.Board = next
	out.Prisoners[color] += captured
	out.Turn = color.Opponent()
	out.History = append(out.History, next.Hash())
	out.ActionStack = append(out.ActionStack, Move{Kind: MovePlay, Color: color, Row: row, Col: col})

	// A play during endgame withdraws the tally proposal and returns to
	// ordinary play; both sides must pass again to re-enter endgame.
	out.Phase = PhasePlay
	out.DeadMarks = map[[2]int]bool{}
	out.TallyAccepted = map[board.Color]bool{}
	out.Pending = nil

	return out, nil
}

// Pass passes the turn for color. Two consecutive passes by opposite
// colors move the game to the endgame phase.
func (g *Game) Pass(color board.Color) (*Game, error) {
	return g.pass(color)
}

func (g *Game) pass(color board.Color) (*Game, error) {
	if g.Phase != PhasePlay {
		return nil, &ActionError{Kind: ErrWrongPhase, Reason: "pass requires phase play"}
	}
	if color != g.Turn {
		return nil, &ActionError{Kind: ErrNotYourTurn}
	}

	out := g.clone()
	out.Turn = color.Opponent()
	out.ActionStack = append(out.ActionStack, Move{Kind: MovePass, Color: color})

	if n := len(g.ActionStack); n > 0 {
		prior := g.ActionStack[n-1]
		if prior.Kind == MovePass && prior.Color == color.Opponent() {
			out.Phase = PhaseEndgame
			out.Pending = &PendingRequest{Kind: PendingTally, By: color}
		}
	}

	return out, nil
}

// Resign ends the game immediately in favor of the opponent. An
// informational score (komi and prisoners only — territory was never
// resolved) is still recorded, since the scoring model flips when a game
// ends before the endgame phase (see design notes).
func (g *Game) Resign(color board.Color) (*Game, error) {
	return g.resign(color)
}

func (g *Game) resign(color board.Color) (*Game, error) {
	if g.Phase == PhaseComplete || g.Phase == PhaseResigned {
		return nil, &ActionError{Kind: ErrWrongPhase, Reason: "game already finished"}
	}

	out := g.clone()
	out.Phase = PhaseResigned
	out.ActionStack = append(out.ActionStack, Move{Kind: MoveResign, Color: color})
	out.Pending = nil

	winner := color.Opponent()
	out.Result = &Result{
		Winner:     winner,
		WhiteScore: out.Komi + float64(out.Prisoners[board.White]),
		BlackScore: float64(out.Prisoners[board.Black]),
	}

	return out, nil
}

// MarkDead toggles (row, col)'s dead-stone status during endgame. Any edit
// invalidates a pending tally acceptance from either side.
func (g *Game) MarkDead(color board.Color, row, col int, flag bool) (*Game, error) {
	return g.markDead(color, row, col, flag)
}

func (g *Game) markDead(color board.Color, row, col int, flag bool) (*Game, error) {
	if g.Phase != PhaseEndgame {
		return nil, &ActionError{Kind: ErrWrongPhase, Reason: "mark_dead requires phase endgame"}
	}
	if !g.Board.InBounds(row, col) {
		return nil, &ActionError{Kind: ErrIllegalMove, Cause: &board.IllegalMoveError{Kind: board.IllegalOffBoard, Row: row, Col: col}}
	}
	if g.Board.At(row, col) == board.Empty {
		return nil, &ActionError{Kind: ErrIllegalMove, Reason: "cannot mark an empty point dead"}
	}

	out := g.clone()
	key := [2]int{row, col}
	if flag {
		out.DeadMarks[key] = true
	} else {
		delete(out.DeadMarks, key)
	}
	out.TallyAccepted = map[board.Color]bool{}
	out.ActionStack = append(out.ActionStack, Move{Kind: MoveMarkDead, Color: color, Row: row, Col: col, Flag: flag})

	return out, nil
}

// RequestUndo may only be called by the player not currently to move (the
// player who just moved).
func (g *Game) RequestUndo(color board.Color) (*Game, error) {
	return g.requestUndo(color)
}

func (g *Game) requestUndo(color board.Color) (*Game, error) {
	if g.Phase != PhasePlay && g.Phase != PhaseEndgame {
		return nil, &ActionError{Kind: ErrWrongPhase, Reason: "undo requires an active game"}
	}
	if color == g.Turn {
		return nil, &ActionError{Kind: ErrNotEligible, Reason: "only the player not to move may request undo"}
	}

	out := g.clone()
	out.Pending = &PendingRequest{Kind: PendingUndo, By: color}
	out.ActionStack = append(out.ActionStack, Move{Kind: MoveRequestUndo, Color: color})
	return out, nil
}

// AcceptUndo may only be called by the opponent of the requester. It pops
// the action stack back to the point where it is again the requester's
// turn, rebuilding state by replay rather than by storing deep snapshots.
func (g *Game) AcceptUndo(color board.Color) (*Game, error) {
	return g.acceptUndo(color)
}

func (g *Game) acceptUndo(color board.Color) (*Game, error) {
	if g.Pending == nil || g.Pending.Kind != PendingUndo {
		return nil, &ActionError{Kind: ErrNoPendingRequest}
	}
	if g.Pending.By == color {
		return nil, &ActionError{Kind: ErrNotEligible, Reason: "only the other player may accept undo"}
	}
	requester := g.Pending.By

	for pop := 1; pop <= len(g.ActionStack); pop++ {
		trimmed := g.ActionStack[:len(g.ActionStack)-pop]
		candidate, err := replay(g.BoardSize, g.Komi, g.Handicap, trimmed)
		if err != nil {
			continue
		}
		if candidate.Turn == requester {
			candidate.ActionStack = append(candidate.ActionStack, Move{Kind: MoveAcceptUndo, Color: color})
			candidate.Pending = nil
			return candidate, nil
		}
	}

	return nil, &ActionError{Kind: ErrInternal, Reason: "undo could not restore requester's turn"}
}

// RequestTally may only be called in endgame; it flags that color wants the
// current dead-stone marks scored.
func (g *Game) RequestTally(color board.Color) (*Game, error) {
	return g.requestTally(color)
}

func (g *Game) requestTally(color board.Color) (*Game, error) {
	if g.Phase != PhaseEndgame {
		return nil, &ActionError{Kind: ErrWrongPhase, Reason: "request_tally requires phase endgame"}
	}

	out := g.clone()
	out.Pending = &PendingRequest{Kind: PendingTally, By: color}
	out.ActionStack = append(out.ActionStack, Move{Kind: MoveRequestTally, Color: color})
	return out, nil
}

// AcceptTally records color's acceptance of the current dead-stone marks.
// Once both colors have accepted without an intervening MarkDead edit, the
// result is computed and the game completes.
func (g *Game) AcceptTally(color board.Color) (*Game, error) {
	return g.acceptTally(color)
}

func (g *Game) acceptTally(color board.Color) (*Game, error) {
	if g.Phase != PhaseEndgame {
		return nil, &ActionError{Kind: ErrWrongPhase, Reason: "accept_tally requires phase endgame"}
	}

	out := g.clone()
	out.TallyAccepted[color] = true
	out.ActionStack = append(out.ActionStack, Move{Kind: MoveAcceptTally, Color: color})

	if out.TallyAccepted[board.Black] && out.TallyAccepted[board.White] {
		whiteScore, blackScore := out.Board.Score(out.Komi, out.DeadMarks)
		winner := board.Black
		if whiteScore > blackScore {
			winner = board.White
		}
		out.Phase = PhaseComplete
		out.Pending = nil
		out.Result = &Result{Winner: winner, WhiteScore: whiteScore, BlackScore: blackScore}
	} else {
		out.Pending = &PendingRequest{Kind: PendingTally, By: color}
	}

	return out, nil
}
