package gamestate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"igoserver/internal/board"
)

// schemaVersion is the leading byte of every serialised blob, so that a
// future incompatible change to the snapshot shape can be detected before
// decoding the JSON payload that follows it.
const schemaVersion byte = 1

// snapshot is the wire shape of a Game: a self-describing, tagged-field
// encoding (field names, not positional), per the design note that the
// persisted blob must be portable across future server versions. It exists
// separately from Game because map[[2]int]bool is not directly
// JSON-representable (array-typed map keys are not supported).
type snapshot struct {
	BoardSize int           `json:"board_size"`
	Komi      float64       `json:"komi"`
	Handicap  int           `json:"handicap"`
	Turn      board.Color   `json:"turn"`
	Prisoners map[int]int   `json:"prisoners"`
	Points    []board.Color `json:"points"`
	History   []board.Hash  `json:"history"`
	Phase     Phase         `json:"phase"`
	DeadMarks []board.Point `json:"dead_marks"`
	Pending   *PendingRequest `json:"pending,omitempty"`
	Accepted  map[int]bool  `json:"tally_accepted"`
	Actions   []Move        `json:"actions"`
	Result    *Result       `json:"result,omitempty"`
}

// Serialize encodes the game as a schema-versioned, self-describing blob
// suitable for the store gateway's opaque "data" column.
func (g *Game) Serialize() ([]byte, error) {
	s := snapshot{
		BoardSize: g.BoardSize,
		Komi:      g.Komi,
		Handicap:  g.Handicap,
		Turn:      g.Turn,
		Prisoners: map[int]int{int(board.Black): g.Prisoners[board.Black], int(board.White): g.Prisoners[board.White]},
		Points:    g.Board.Points,
		History:   g.History,
		Phase:     g.Phase,
		Accepted:  map[int]bool{},
		Actions:   g.ActionStack,
		Result:    g.Result,
		Pending:   g.Pending,
	}
	for k := range g.DeadMarks {
		s.DeadMarks = append(s.DeadMarks, board.Point{Row: k[0], Col: k[1]})
	}
	for c, v := range g.TallyAccepted {
		s.Accepted[int(c)] = v
	}

	payload, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("gamestate: serialize: %w", err)
	}

	out := make([]byte, 0, len(payload)+1)
	out = append(out, schemaVersion)
	out = append(out, payload...)
	return out, nil
}

// Deserialize decodes a blob produced by Serialize.
func Deserialize(blob []byte) (*Game, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("gamestate: deserialize: empty blob")
	}
	version, payload := blob[0], blob[1:]
	if version != schemaVersion {
		return nil, fmt.Errorf("gamestate: deserialize: unsupported schema version %d", version)
	}

	var s snapshot
	if err := json.NewDecoder(bytes.NewReader(payload)).Decode(&s); err != nil {
		return nil, fmt.Errorf("gamestate: deserialize: %w", err)
	}

	b := &board.Board{Size: s.BoardSize, Points: s.Points}

	g := &Game{
		BoardSize:     s.BoardSize,
		Komi:          s.Komi,
		Handicap:      s.Handicap,
		Turn:          s.Turn,
		Prisoners:     map[board.Color]int{board.Black: s.Prisoners[int(board.Black)], board.White: s.Prisoners[int(board.White)]},
		Board:         b,
		History:       s.History,
		Phase:         s.Phase,
		DeadMarks:     map[[2]int]bool{},
		Pending:       s.Pending,
		TallyAccepted: map[board.Color]bool{},
		ActionStack:   s.Actions,
		Result:        s.Result,
	}
	for _, p := range s.DeadMarks {
		g.DeadMarks[[2]int{p.Row, p.Col}] = true
	}
	for c, v := range s.Accepted {
		g.TallyAccepted[board.Color(c)] = v
	}

	return g, nil
}
