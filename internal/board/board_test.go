package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceOnEmptyPoint(t *testing.T) {
	b := New(9)
	next, captured, err := b.Place(Black, 4, 4, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, captured)
	assert.Equal(t, Black, next.At(4, 4))
	assert.Equal(t, Empty, b.At(4, 4), "original board must not be mutated")
}

func TestOccupiedPointRejected(t *testing.T) {
	b := New(9)
	b.set(4, 4, Black)
	_, _, err := b.Place(White, 4, 4, nil)
	var ime *IllegalMoveError
	require.ErrorAs(t, err, &ime)
	assert.Equal(t, IllegalOccupied, ime.Kind)
}

func TestOffBoardRejected(t *testing.T) {
	b := New(9)
	_, _, err := b.Place(Black, -1, 0, nil)
	var ime *IllegalMoveError
	require.ErrorAs(t, err, &ime)
	assert.Equal(t, IllegalOffBoard, ime.Kind)
}

// Capture scenario: empty 9x9, B(4,4) W(3,4) W(4,3) W(4,5) W(5,4). The board
// has no notion of turns, so Black's passes between the White stones are
// left out. Afterwards (4,4) is empty and the last placement captured one
// stone.
func TestCaptureScenario(t *testing.T) {
	b := New(9)
	var err error
	var captured int

	b, _, err = b.Place(Black, 4, 4, nil)
	require.NoError(t, err)
	b, _, err = b.Place(White, 3, 4, nil)
	require.NoError(t, err)
	b, _, err = b.Place(White, 4, 3, nil)
	require.NoError(t, err)
	b, _, err = b.Place(White, 4, 5, nil)
	require.NoError(t, err)
	b, captured, err = b.Place(White, 5, 4, nil)
	require.NoError(t, err)

	assert.Equal(t, Empty, b.At(4, 4))
	assert.Equal(t, 1, captured)
}

// Suicide forbidden except on capture: 5x5 with White on (1,0) and (0,1),
// the only neighbours of the empty corner (0,0). Black at (0,0) captures
// nothing and is suicide.
func TestSuicideForbiddenExceptOnCapture(t *testing.T) {
	b := New(5)
	b.set(1, 0, White)
	b.set(0, 1, White)

	_, _, err := b.Place(Black, 0, 0, nil)
	var ime *IllegalMoveError
	require.ErrorAs(t, err, &ime)
	assert.Equal(t, IllegalSuicide, ime.Kind)
}

func TestSuicideLegalWhenItCaptures(t *testing.T) {
	// A single white stone at (1,1) with its only liberty at (1,2); black
	// stones surround it everywhere else, and white stones occupy the other
	// neighbours of (1,2). Playing black at (1,2) would be suicide in
	// isolation, but it captures the white stone first.
	b := New(5)
	b.set(0, 1, Black)
	b.set(1, 0, Black)
	b.set(2, 1, Black)
	b.set(1, 1, White)
	b.set(0, 2, White)
	b.set(2, 2, White)
	b.set(1, 3, White)

	result, captured, err := b.Place(Black, 1, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, captured)
	assert.Equal(t, Empty, result.At(1, 1))
	assert.Equal(t, Black, result.At(1, 2))
}

// Ko: classic 4-stone corner ko. After the capturing move, immediate
// recapture is illegal; legal again once the position has changed.
func TestKoRule(t *testing.T) {
	//   .  B  W  .
	//   B  W  .  W
	//   .  B  W  .
	b := New(4)
	b.set(0, 1, Black)
	b.set(0, 2, White)
	b.set(1, 0, Black)
	b.set(1, 1, White)
	b.set(1, 3, White)
	b.set(2, 1, Black)
	b.set(2, 2, White)

	history := map[Hash]bool{b.Hash(): true}

	afterCapture, captured, err := b.Place(Black, 1, 2, history)
	require.NoError(t, err)
	require.Equal(t, 1, captured)
	assert.Equal(t, Empty, afterCapture.At(1, 1))

	history[afterCapture.Hash()] = true

	_, _, err = afterCapture.Place(White, 1, 1, history)
	var ime *IllegalMoveError
	require.ErrorAs(t, err, &ime)
	assert.Equal(t, IllegalKo, ime.Kind)

	// Black plays elsewhere, changing the position; now white may retake.
	elsewhere, _, err := afterCapture.Place(Black, 3, 3, history)
	require.NoError(t, err)
	history[elsewhere.Hash()] = true

	recapture, captured, err := elsewhere.Place(White, 1, 1, history)
	require.NoError(t, err)
	assert.Equal(t, 1, captured)
	assert.Equal(t, White, recapture.At(1, 1))
}

// The identity only holds when no empty region borders both colors, so the
// two walls are adjacent: row 0 is Black's territory, rows 3-4 White's.
func TestTerritoryAndAreaScoreIdentity(t *testing.T) {
	b := New(5)
	for i := 0; i < 5; i++ {
		b.set(1, i, Black)
	}
	for i := 0; i < 5; i++ {
		b.set(2, i, White)
	}

	white, black := b.Score(6.5, nil)
	area := float64(5 * 5)
	assert.InDelta(t, area+6.5, white+black, 1e-9)
}

// A marked-dead stone's point must be counted exactly once: Territory's
// dead-adjusted flood fill already credits it to the enclosing color, so
// Score must not also add it to that color's stone tally.
func TestTerritoryAndAreaScoreIdentityWithDeadStone(t *testing.T) {
	b := New(5)
	for row := 0; row < 5; row++ {
		for col := 0; col < 5; col++ {
			b.set(row, col, Black)
		}
	}
	b.set(2, 2, White)
	dead := map[[2]int]bool{{2, 2}: true}

	white, black := b.Score(6.5, dead)
	area := float64(5 * 5)
	assert.InDelta(t, area+6.5, white+black, 1e-9)
	assert.Equal(t, float64(25), black)
	assert.Equal(t, float64(6.5), white)
}

func TestHashIsDeterministicOverGrid(t *testing.T) {
	a := New(9)
	a.set(2, 2, Black)
	b := New(9)
	b.set(2, 2, Black)
	assert.Equal(t, a.Hash(), b.Hash())

	b.set(3, 3, White)
	assert.NotEqual(t, a.Hash(), b.Hash())
}
