package gamestate

import "igoserver/internal/board"

// handicapPoints returns the canonical star points for a board of the given
// size, in placement order, for up to 9 handicap stones. Board size is
// restricted to {9, 13, 19} per the data model; any other size yields no
// points (handicap 0 is the only option for an unrecognised size).
func handicapPoints(size int) []board.Point {
	var margin int
	switch size {
	case 9:
		margin = 2
	case 13:
		margin = 3
	case 19:
		margin = 3
	default:
		return nil
	}

	lo, hi, mid := margin, size-1-margin, size/2

	// Placement order: far corners first, then the remaining two corners,
	// then edge midpoints, then tengen. Simplified from tournament convention (which
	// drops tengen again at 6-7 stones); adequate for an initial-placement
	// policy rather than a ranked-play ruleset.
	return []board.Point{
		{Row: lo, Col: hi},
		{Row: hi, Col: lo},
		{Row: hi, Col: hi},
		{Row: lo, Col: lo},
		{Row: lo, Col: mid},
		{Row: hi, Col: mid},
		{Row: mid, Col: lo},
		{Row: mid, Col: hi},
		{Row: mid, Col: mid},
	}
}
