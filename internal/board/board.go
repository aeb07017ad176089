// Package board implements the Go (igo) point grid: legality, capture,
// liberties and area scoring. It has no knowledge of turns, phases or
// persistence — those live in package gamestate.
package board

import (
	"fmt"
)

// Color is the occupant of a point.
type Color int8

const (
	Empty Color = iota
	Black
	White
)

func (c Color) String() string {
	switch c {
	case Black:
		return "black"
	case White:
		return "white"
	default:
		return "empty"
	}
}

// Opponent returns the other playing color. Calling it on Empty is a
// programmer error and panics, since it is never a meaningful operation.
func (c Color) Opponent() Color {
	switch c {
	case Black:
		return White
	case White:
		return Black
	default:
		panic("board: Opponent called on Empty")
	}
}

// IllegalKind enumerates the ways a placement can be rejected by the board
// itself. "not_your_turn" is deliberately absent: the board has no notion of
// whose turn it is, so that check belongs to package gamestate.
type IllegalKind string

const (
	IllegalOffBoard IllegalKind = "off_board"
	IllegalOccupied IllegalKind = "occupied"
	IllegalSuicide  IllegalKind = "suicide"
	IllegalKo       IllegalKind = "ko"
)

// IllegalMoveError reports why a placement was rejected.
type IllegalMoveError struct {
	Kind IllegalKind
	Row  int
	Col  int
}

func (e *IllegalMoveError) Error() string {
	return fmt.Sprintf("illegal move at (%d,%d): %s", e.Row, e.Col, e.Kind)
}

// Board is a square grid of points. It is a plain data structure: callers
// are expected to use Place to obtain new, validated boards rather than
// mutate Points directly except when constructing a scratch board.
type Board struct {
	Size   int
	Points []Color // row-major, len == Size*Size
}

// New returns an empty board of the given size.
func New(size int) *Board {
	return &Board{Size: size, Points: make([]Color, size*size)}
}

func (b *Board) idx(row, col int) int { return row*b.Size + col }

// InBounds reports whether (row, col) is a valid point on this board.
func (b *Board) InBounds(row, col int) bool {
	return row >= 0 && row < b.Size && col >= 0 && col < b.Size
}

// At returns the occupant of (row, col). Panics if out of bounds, mirroring
// the conventional slice-index contract; callers that need a bounds-checked
// read should call InBounds first.
func (b *Board) At(row, col int) Color {
	return b.Points[b.idx(row, col)]
}

func (b *Board) set(row, col int, c Color) {
	b.Points[b.idx(row, col)] = c
}

// WithStone returns a clone of the board with (row, col) forced to color c,
// bypassing legality checks. Used only for initial handicap-stone placement,
// never for a player's move.
func (b *Board) WithStone(row, col int, c Color) *Board {
	cp := b.Clone()
	cp.set(row, col, c)
	return cp
}

// Clone returns a deep copy of the board.
func (b *Board) Clone() *Board {
	cp := &Board{Size: b.Size, Points: make([]Color, len(b.Points))}
	copy(cp.Points, b.Points)
	return cp
}

// Equal compares two boards by their point grids (and size).
func (b *Board) Equal(o *Board) bool {
	if o == nil || b.Size != o.Size {
		return false
	}
	for i, c := range b.Points {
		if o.Points[i] != c {
			return false
		}
	}
	return true
}

// Point is an (row, col) coordinate on a board.
type Point struct{ Row, Col int }

type point = Point

// Neighbors returns the up-to-4 orthogonally adjacent points of (row, col)
// that lie on the board.
func (b *Board) Neighbors(row, col int) []Point {
	candidates := [4]point{{row - 1, col}, {row + 1, col}, {row, col - 1}, {row, col + 1}}
	out := make([]point, 0, 4)
	for _, p := range candidates {
		if b.InBounds(p.Row, p.Col) {
			out = append(out, p)
		}
	}
	return out
}

// GroupAt flood-fills the maximal same-colored group containing (row, col)
// and returns its member points together with its liberty count (the number
// of distinct empty points adjacent to the group). Calling it on an empty
// point returns an empty group with zero liberties.
func (b *Board) GroupAt(row, col int) (members []Point, liberties int) {
	color := b.At(row, col)
	if color == Empty {
		return nil, 0
	}

	visited := make(map[point]bool)
	libs := make(map[point]bool)
	stack := []point{{row, col}}
	visited[point{row, col}] = true

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		members = append(members, p)

		for _, n := range b.Neighbors(p.Row, p.Col) {
			switch b.At(n.Row, n.Col) {
			case Empty:
				libs[n] = true
			case color:
				if !visited[n] {
					visited[n] = true
					stack = append(stack, n)
				}
			}
		}
	}

	return members, len(libs)
}

// Place attempts to play color at (row, col) against history, the set of
// prior position hashes relevant for positional superko. On success it
// returns a new board (the receiver is never mutated), the number of enemy
// stones captured, and a nil error. Legality is checked in the order bounds,
// occupancy, provisional placement + capture sweep, suicide, ko — matching
// the rules engine's specified precedence.
func (b *Board) Place(color Color, row, col int, history map[Hash]bool) (*Board, int, error) {
	if !b.InBounds(row, col) {
		return nil, 0, &IllegalMoveError{Kind: IllegalOffBoard, Row: row, Col: col}
	}
	if b.At(row, col) != Empty {
		return nil, 0, &IllegalMoveError{Kind: IllegalOccupied, Row: row, Col: col}
	}

	next := b.Clone()
	next.set(row, col, color)

	opponent := color.Opponent()
	captured := 0
	for _, n := range next.Neighbors(row, col) {
		if next.At(n.Row, n.Col) != opponent {
			continue
		}
		members, libs := next.GroupAt(n.Row, n.Col)
		if libs == 0 {
			for _, m := range members {
				next.set(m.Row, m.Col, Empty)
			}
			captured += len(members)
		}
	}

	if captured == 0 {
		if _, libs := next.GroupAt(row, col); libs == 0 {
			return nil, 0, &IllegalMoveError{Kind: IllegalSuicide, Row: row, Col: col}
		}
	}

	if history[next.Hash()] {
		return nil, 0, &IllegalMoveError{Kind: IllegalKo, Row: row, Col: col}
	}

	return next, captured, nil
}

// Territory partitions the empty points of the board into the colors whose
// stones exclusively border each maximal empty region, given a set of dead
// stones to treat as absent for this computation. Regions touching both
// colors, or neither, belong to no one.
func (b *Board) Territory(dead map[[2]int]bool) map[Color][]Point {
	result := map[Color][]Point{Black: nil, White: nil}
	visited := make(map[point]bool)
	effective := func(row, col int) Color {
		c := b.At(row, col)
		if c != Empty && dead[[2]int{row, col}] {
			return Empty
		}
		return c
	}

	for row := 0; row < b.Size; row++ {
		for col := 0; col < b.Size; col++ {
			start := point{row, col}
			if visited[start] || effective(row, col) != Empty {
				continue
			}

			region := []point{}
			borders := make(map[Color]bool)
			stack := []point{start}
			visited[start] = true
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				region = append(region, p)
				for _, n := range b.Neighbors(p.Row, p.Col) {
					c := effective(n.Row, n.Col)
					if c == Empty {
						if !visited[n] {
							visited[n] = true
							stack = append(stack, n)
						}
					} else {
						borders[c] = true
					}
				}
			}

			if len(borders) == 1 {
				var owner Color
				for c := range borders {
					owner = c
				}
				result[owner] = append(result[owner], region...)
			}
		}
	}

	return result
}

// Score computes the area score for both colors: stones on the board plus
// owned territory, komi added to White (area scoring, not Japanese/territory
// scoring — prisoners are not added here). A dead stone's point is excluded
// from its own color's stone count and instead flows into the capturing
// side's territory count through Territory's dead-adjusted flood fill.
func (b *Board) Score(komi float64, dead map[[2]int]bool) (whiteScore, blackScore float64) {
	territory := b.Territory(dead)

	var blackStones, whiteStones int
	for row := 0; row < b.Size; row++ {
		for col := 0; col < b.Size; col++ {
			c := b.At(row, col)
			if c == Empty {
				continue
			}
			if dead[[2]int{row, col}] {
				// A dead stone still on the board becomes the opponent's
				// territory point for area-scoring purposes.
				continue
			}
			switch c {
			case Black:
				blackStones++
			case White:
				whiteStones++
			}
		}
	}

	blackScore = float64(blackStones + len(territory[Black]))
	whiteScore = float64(whiteStones+len(territory[White])) + komi
	return whiteScore, blackScore
}
