package gamestate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igoserver/internal/board"
)

func TestCaptureScenarioFlipsTurnAndCreditsPrisoner(t *testing.T) {
	g := New(9, 6.5, 0)
	var err error

	g, err = g.Play(board.Black, 4, 4)
	require.NoError(t, err)
	g, err = g.Play(board.White, 3, 4)
	require.NoError(t, err)
	g, err = g.Pass(board.Black)
	require.NoError(t, err)
	g, err = g.Play(board.White, 4, 3)
	require.NoError(t, err)
	g, err = g.Pass(board.Black)
	require.NoError(t, err)
	g, err = g.Play(board.White, 4, 5)
	require.NoError(t, err)
	g, err = g.Pass(board.Black)
	require.NoError(t, err)
	g, err = g.Play(board.White, 5, 4)
	require.NoError(t, err)

	assert.Equal(t, board.Empty, g.Board.At(4, 4))
	assert.Equal(t, 1, g.Prisoners[board.White])
	assert.Equal(t, board.Black, g.Turn)
}

func TestPlayOutOfTurnRejected(t *testing.T) {
	g := New(9, 6.5, 0)
	_, err := g.Play(board.White, 4, 4)
	var ae *ActionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, ErrNotYourTurn, ae.Kind)
}

func TestTwoPassesEnterEndgameWithImplicitTallyProposal(t *testing.T) {
	g := New(9, 6.5, 0)
	var err error

	g, err = g.Pass(board.Black)
	require.NoError(t, err)
	assert.Equal(t, PhasePlay, g.Phase)

	g, err = g.Pass(board.White)
	require.NoError(t, err)
	assert.Equal(t, PhaseEndgame, g.Phase)
	require.NotNil(t, g.Pending)
	assert.Equal(t, PendingTally, g.Pending.Kind)
	assert.Equal(t, board.White, g.Pending.By)
}

func TestEndgameToTallyToComplete(t *testing.T) {
	// A full row of Black stones splits the board into two regions that
	// each border only Black, so the whole board is owned — no neutral
	// points — letting the area-scoring identity be checked exactly.
	g := New(9, 6.5, 0)
	var err error

	for col := 0; col < 9; col++ {
		g, err = g.Play(board.Black, 4, col)
		require.NoError(t, err)
		g, err = g.Pass(board.White)
		require.NoError(t, err)
	}

	g, err = g.Pass(board.Black)
	require.NoError(t, err)
	require.Equal(t, PhaseEndgame, g.Phase)

	g, err = g.AcceptTally(board.Black)
	require.NoError(t, err)
	assert.Equal(t, PhaseEndgame, g.Phase, "phase stays endgame until both accept")

	g, err = g.AcceptTally(board.White)
	require.NoError(t, err)
	assert.Equal(t, PhaseComplete, g.Phase)
	require.NotNil(t, g.Result)

	white, black := g.Board.Score(g.Komi, g.DeadMarks)
	assert.Equal(t, white, g.Result.WhiteScore)
	assert.Equal(t, black, g.Result.BlackScore)
	assert.Equal(t, white+black, float64(9*9)+g.Komi, "area scoring identity")
}

// A dead-marked stone's point must be counted exactly once in the final
// tally: it is both excluded from its own color's stone count and folded
// into the enclosing color's territory by Board.Score, never both.
func TestEndgameToTallyToCompleteWithDeadStone(t *testing.T) {
	g := New(9, 6.5, 0)
	var err error

	g, err = g.Play(board.Black, 4, 4)
	require.NoError(t, err)
	g, err = g.Play(board.White, 3, 4)
	require.NoError(t, err)
	g, err = g.Pass(board.Black)
	require.NoError(t, err)
	g, err = g.Pass(board.White)
	require.NoError(t, err)
	require.Equal(t, PhaseEndgame, g.Phase)

	g, err = g.MarkDead(board.Black, 3, 4, true)
	require.NoError(t, err)
	require.True(t, g.DeadMarks[[2]int{3, 4}])

	g, err = g.AcceptTally(board.Black)
	require.NoError(t, err)
	g, err = g.AcceptTally(board.White)
	require.NoError(t, err)
	assert.Equal(t, PhaseComplete, g.Phase)
	require.NotNil(t, g.Result)

	white, black := g.Board.Score(g.Komi, g.DeadMarks)
	assert.Equal(t, white, g.Result.WhiteScore)
	assert.Equal(t, black, g.Result.BlackScore)
	assert.Equal(t, white+black, float64(9*9)+g.Komi, "area scoring identity holds with a dead stone on the board")
}

func TestPlayDuringEndgameRevertsToPlay(t *testing.T) {
	g := New(9, 6.5, 0)
	var err error

	g, err = g.Pass(board.Black)
	require.NoError(t, err)
	g, err = g.Pass(board.White)
	require.NoError(t, err)
	require.Equal(t, PhaseEndgame, g.Phase)

	g, err = g.Play(board.Black, 4, 4)
	require.NoError(t, err)
	assert.Equal(t, PhasePlay, g.Phase)
	assert.Empty(t, g.DeadMarks)
	assert.Nil(t, g.Pending)

	g, err = g.Pass(board.White)
	require.NoError(t, err)
	assert.Equal(t, PhasePlay, g.Phase, "single pass does not re-enter endgame")
	g, err = g.Pass(board.Black)
	require.NoError(t, err)
	assert.Equal(t, PhaseEndgame, g.Phase, "both must pass again")
}

func TestMarkDeadClearsTallyAcceptance(t *testing.T) {
	g := New(9, 6.5, 0)
	var err error
	g, err = g.Play(board.Black, 4, 4)
	require.NoError(t, err)
	g, err = g.Pass(board.White)
	require.NoError(t, err)
	g, err = g.Pass(board.Black)
	require.NoError(t, err)
	require.Equal(t, PhaseEndgame, g.Phase)

	g, err = g.AcceptTally(board.White)
	require.NoError(t, err)
	assert.True(t, g.TallyAccepted[board.White])

	g, err = g.MarkDead(board.Black, 4, 4, true)
	require.NoError(t, err)
	assert.Empty(t, g.TallyAccepted, "an edit resets acceptance for both sides")
}

func TestResignSetsWinnerAndIsTerminal(t *testing.T) {
	g := New(9, 6.5, 0)
	g, err := g.Resign(board.Black)
	require.NoError(t, err)
	assert.Equal(t, PhaseResigned, g.Phase)
	require.NotNil(t, g.Result)
	assert.Equal(t, board.White, g.Result.Winner)

	_, err = g.Play(board.White, 0, 0)
	var ae *ActionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, ErrWrongPhase, ae.Kind)
}

func TestUndoRequestAndAcceptRestoresRequesterTurn(t *testing.T) {
	g := New(9, 6.5, 0)
	var err error
	g, err = g.Play(board.Black, 4, 4)
	require.NoError(t, err)
	require.Equal(t, board.White, g.Turn)

	_, err = g.RequestUndo(board.White)
	var ae *ActionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, ErrNotEligible, ae.Kind, "only the player not to move may request")

	g, err = g.RequestUndo(board.Black)
	require.NoError(t, err)

	g, err = g.AcceptUndo(board.White)
	require.NoError(t, err)
	assert.Equal(t, board.Black, g.Turn)
	assert.Equal(t, board.Empty, g.Board.At(4, 4))
	assert.Nil(t, g.Pending)
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	g := New(9, 6.5, 0)
	var err error
	g, err = g.Play(board.Black, 4, 4)
	require.NoError(t, err)
	g, err = g.Play(board.White, 3, 4)
	require.NoError(t, err)

	blob, err := g.Serialize()
	require.NoError(t, err)

	restored, err := Deserialize(blob)
	require.NoError(t, err)

	assert.True(t, g.Board.Equal(restored.Board))
	assert.Equal(t, g.Turn, restored.Turn)
	assert.Equal(t, g.Prisoners, restored.Prisoners)
	assert.Equal(t, g.History, restored.History)
	assert.Equal(t, g.Phase, restored.Phase)
	assert.Equal(t, g.ActionStack, restored.ActionStack)
}

func TestPositionalSuperko(t *testing.T) {
	// Builds the classic corner-ko shape through ordinary alternating play
	// (with two Black passes as filler, since the shape needs White one
	// stone ahead of Black locally): Black then captures a single White
	// stone, and White's immediate recapture reproduces the prior position.
	g := New(5, 0, 0)
	var err error

	g, err = g.Play(board.Black, 0, 1)
	require.NoError(t, err)
	g, err = g.Play(board.White, 4, 4) // filler, far from the ko shape
	require.NoError(t, err)
	g, err = g.Pass(board.Black)
	require.NoError(t, err)
	g, err = g.Play(board.White, 0, 2)
	require.NoError(t, err)
	g, err = g.Play(board.Black, 1, 0)
	require.NoError(t, err)
	g, err = g.Play(board.White, 1, 1)
	require.NoError(t, err)
	g, err = g.Play(board.Black, 2, 1)
	require.NoError(t, err)
	g, err = g.Play(board.White, 1, 3)
	require.NoError(t, err)
	g, err = g.Pass(board.Black)
	require.NoError(t, err)
	g, err = g.Play(board.White, 2, 2)
	require.NoError(t, err)

	g, err = g.Play(board.Black, 1, 2)
	require.NoError(t, err)
	require.Equal(t, 1, g.Prisoners[board.Black])
	require.Equal(t, board.Empty, g.Board.At(1, 1))

	_, err = g.Play(board.White, 1, 1)
	var ae *ActionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, ErrIllegalMove, ae.Kind)
	var ime *board.IllegalMoveError
	require.ErrorAs(t, err, &ime)
	assert.Equal(t, board.IllegalKo, ime.Kind)
}

func TestHandicapGameStartsWithWhiteToMove(t *testing.T) {
	g := New(19, 0.5, 2)
	assert.Equal(t, board.White, g.Turn)
	assert.Equal(t, board.Black, g.Board.At(3, 15))
	assert.Equal(t, board.Black, g.Board.At(15, 3))
}
