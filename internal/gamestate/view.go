package gamestate

import "igoserver/internal/board"

// View is the wire-facing projection of a Game for the game_status message,
// distinct from the persisted Serialize blob: it flattens the board into a
// plain point grid and exposes only what a client needs to render and act
// on the current state.
type View struct {
	BoardSize int           `json:"board_size"`
	Komi      float64       `json:"komi"`
	Turn      board.Color   `json:"turn"`
	Points    []board.Color `json:"points"`
	Prisoners map[int]int   `json:"prisoners"`
	Phase     Phase         `json:"phase"`
	DeadMarks []board.Point `json:"dead_marks"`
	Pending   *PendingRequest `json:"pending,omitempty"`
	Result    *Result       `json:"result,omitempty"`
}

// View projects the current game into its wire-facing shape.
func (g *Game) View() View {
	dead := make([]board.Point, 0, len(g.DeadMarks))
	for k := range g.DeadMarks {
		dead = append(dead, board.Point{Row: k[0], Col: k[1]})
	}

	return View{
		BoardSize: g.BoardSize,
		Komi:      g.Komi,
		Turn:      g.Turn,
		Points:    append([]board.Color(nil), g.Board.Points...),
		Prisoners: map[int]int{int(board.Black): g.Prisoners[board.Black], int(board.White): g.Prisoners[board.White]},
		Phase:     g.Phase,
		DeadMarks: dead,
		Pending:   g.Pending,
		Result:    g.Result,
	}
}
