package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connectgame/go-server/internal/puzzle"
)

var t0 = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

// testPuzzle builds a 4x4 puzzle with groups A..D and blocks a1..d4.
func testPuzzle(maxAttempts int) *puzzle.Puzzle {
	p := &puzzle.Puzzle{ID: "puz", MaxAttempts: maxAttempts, CreatedAt: t0}
	for _, gid := range []string{"A", "B", "C", "D"} {
		g := puzzle.Group{ID: gid, Description: "group " + gid}
		for i := 1; i <= puzzle.BlocksPerGroup; i++ {
			g.Blocks = append(g.Blocks, puzzle.Block{
				ID:            gid + string(rune('0'+i)),
				PuzzleGroupID: gid,
				Value:         gid + string(rune('0'+i)),
			})
		}
		p.Groups = append(p.Groups, g)
	}
	return p
}

func selectGroup(t *testing.T, p *puzzle.Puzzle, s State, gid string) (State, Outcome) {
	t.Helper()
	g := p.Group(gid)
	require.NotNil(t, g)
	var out Outcome
	for _, b := range g.Blocks {
		s, out = SelectBlock(p, s, b, t0)
	}
	return s, out
}

func TestSelectBlock_AccumulatesBelowFour(t *testing.T) {
	p := testPuzzle(4)
	s := NewState()

	s, out := SelectBlock(p, s, p.Groups[0].Blocks[0], t0)
	assert.Equal(t, OutcomeSelected, out)
	s, out = SelectBlock(p, s, p.Groups[1].Blocks[0], t0)
	assert.Equal(t, OutcomeSelected, out)

	assert.Len(t, s.Selected, 2)
	assert.Empty(t, s.Attempts, "no submission before the fourth block")
}

func TestSelectBlock_ToggleDeselects(t *testing.T) {
	p := testPuzzle(4)
	s := NewState()
	b := p.Groups[0].Blocks[0]

	before := s
	s, _ = SelectBlock(p, s, b, t0)
	s, out := SelectBlock(p, s, b, t0)

	assert.Equal(t, OutcomeDeselected, out)
	assert.Empty(t, s.Selected)
	assert.Equal(t, before.Attempts, s.Attempts, "a toggle is not an attempt")
	assert.Equal(t, before.Score, s.Score)
}

func TestSelectBlock_CorrectSubmissionSolvesGroup(t *testing.T) {
	p := testPuzzle(4)
	s, out := selectGroup(t, p, NewState(), "A")

	assert.Equal(t, OutcomeSolved, out)
	assert.Equal(t, []string{"A"}, s.Correct)
	assert.Equal(t, 1, s.Score)
	assert.Len(t, s.Attempts, 1)
	assert.Equal(t, []string{"A1", "A2", "A3", "A4"}, s.Attempts[0])
	assert.Empty(t, s.Selected, "selection clears immediately on a match")
	assert.Nil(t, s.CompletedAt)
}

func TestSelectBlock_WrongSubmissionHoldsSelection(t *testing.T) {
	p := testPuzzle(4)
	s := NewState()
	var out Outcome
	mixed := []puzzle.Block{
		p.Groups[0].Blocks[0], p.Groups[0].Blocks[1],
		p.Groups[0].Blocks[2], p.Groups[1].Blocks[0],
	}
	for _, b := range mixed {
		s, out = SelectBlock(p, s, b, t0)
	}

	assert.Equal(t, OutcomeWrong, out)
	assert.True(t, s.WrongOpen)
	assert.Len(t, s.Selected, 4, "selection stays visible through the reveal window")
	assert.Equal(t, 1, s.WrongAttempts())
	assert.Nil(t, s.CompletedAt)

	// Input is rejected until the window is cleared.
	next, out := SelectBlock(p, s, p.Groups[2].Blocks[0], t0)
	assert.Equal(t, OutcomeNone, out)
	assert.Equal(t, s.Attempts, next.Attempts)

	s = ClearWrong(s)
	assert.False(t, s.WrongOpen)
	assert.Empty(t, s.Selected)
}

func TestSelectBlock_WinScenario(t *testing.T) {
	p := testPuzzle(6)
	s := NewState()
	var out Outcome

	s, out = selectGroup(t, p, s, "A")
	require.Equal(t, OutcomeSolved, out)
	s, out = selectGroup(t, p, s, "B")
	require.Equal(t, OutcomeSolved, out)
	assert.Equal(t, 2, s.Score)
	assert.Nil(t, s.CompletedAt)

	// Solving the third group auto-resolves the fourth.
	s, out = selectGroup(t, p, s, "C")
	assert.Equal(t, OutcomeWon, out)
	assert.Equal(t, []string{"A", "B", "C", "D"}, s.Correct)
	assert.Equal(t, 4, s.Score, "final group sets the full score, not +1")
	assert.Len(t, s.Attempts, 4, "the auto-resolved group records a synthetic attempt")
	assert.Equal(t, []string{"D1", "D2", "D3", "D4"}, s.Attempts[3])
	require.NotNil(t, s.CompletedAt)
	assert.Equal(t, t0, *s.CompletedAt)
	assert.True(t, s.Won(p))
	assert.Empty(t, s.Selected)
}

func TestSelectBlock_LossAtMaxAttempts(t *testing.T) {
	p := testPuzzle(1)
	s := NewState()
	var out Outcome
	mixed := []puzzle.Block{
		p.Groups[0].Blocks[0], p.Groups[1].Blocks[0],
		p.Groups[2].Blocks[0], p.Groups[3].Blocks[0],
	}
	for _, b := range mixed {
		s, out = SelectBlock(p, s, b, t0)
	}

	assert.Equal(t, OutcomeLost, out)
	require.NotNil(t, s.CompletedAt)
	assert.Empty(t, s.Correct)
	assert.True(t, s.Lost(p))
	assert.Equal(t, 1, s.WrongAttempts())
}

func TestSelectBlock_UnlimitedAttemptsNeverLoses(t *testing.T) {
	p := testPuzzle(0)
	s := NewState()
	mixed := []puzzle.Block{
		p.Groups[0].Blocks[0], p.Groups[1].Blocks[0],
		p.Groups[2].Blocks[0], p.Groups[3].Blocks[0],
	}
	for i := 0; i < 10; i++ {
		var out Outcome
		for _, b := range mixed {
			s, out = SelectBlock(p, s, b, t0)
		}
		require.Equal(t, OutcomeWrong, out, "attempt %d", i)
		s = ClearWrong(s)
	}
	assert.Equal(t, 10, s.WrongAttempts())
	assert.Nil(t, s.CompletedAt)
}

func TestSelectBlock_CompletedGameIsInert(t *testing.T) {
	p := testPuzzle(4)
	s, _ := GiveUp(NewState(), t0)
	require.True(t, s.Completed())

	for _, g := range p.Groups {
		for _, b := range g.Blocks {
			next, out := SelectBlock(p, s, b, t0)
			assert.Equal(t, OutcomeNone, out)
			assert.Equal(t, s, next)
		}
	}
}

func TestSelectBlock_SolvedGroupBlocksRejected(t *testing.T) {
	p := testPuzzle(4)
	s, out := selectGroup(t, p, NewState(), "A")
	require.Equal(t, OutcomeSolved, out)

	next, out := SelectBlock(p, s, p.Groups[0].Blocks[2], t0)
	assert.Equal(t, OutcomeNone, out)
	assert.Empty(t, next.Selected)
}

func TestGiveUp(t *testing.T) {
	p := testPuzzle(4)
	s, out := selectGroup(t, p, NewState(), "A")
	require.Equal(t, OutcomeSolved, out)

	s, out = GiveUp(s, t0)
	assert.Equal(t, OutcomeGaveUp, out)
	require.NotNil(t, s.CompletedAt)
	assert.True(t, s.Lost(p), "giving up counts as a loss regardless of attempts left")
	assert.Empty(t, s.Selected)

	// Completion is stamped once; a second give-up changes nothing.
	later := t0.Add(time.Hour)
	again, out := GiveUp(s, later)
	assert.Equal(t, OutcomeNone, out)
	assert.Equal(t, t0, *again.CompletedAt)
}

func TestNormalize_AutoResolvesRestoredGame(t *testing.T) {
	p := testPuzzle(4)
	s := NewState()
	s.Attempts = [][]string{
		{"A1", "A2", "A3", "A4"},
		{"B1", "B2", "B3", "B4"},
		{"C1", "C2", "C3", "C4"},
	}
	s.Correct = []string{"A", "B", "C"}
	s.Score = 3

	s, out := Normalize(p, s, t0)
	assert.Equal(t, OutcomeWon, out)
	assert.Len(t, s.Correct, 4)
	assert.Equal(t, 4, s.Score)
	require.NotNil(t, s.CompletedAt)

	// Already-complete and mid-progress games are untouched.
	_, out = Normalize(p, s, t0)
	assert.Equal(t, OutcomeNone, out)
	fresh := NewState()
	_, out = Normalize(p, fresh, t0)
	assert.Equal(t, OutcomeNone, out)
}

func TestInvariants_RandomPlaySequence(t *testing.T) {
	// Walk a scripted mix of good and bad submissions and check the state
	// invariants after every single click.
	p := testPuzzle(3)
	s := NewState()
	clicks := []puzzle.Block{
		p.Groups[0].Blocks[0], p.Groups[0].Blocks[0], // toggle on/off
		p.Groups[0].Blocks[0], p.Groups[1].Blocks[0], p.Groups[2].Blocks[0], p.Groups[3].Blocks[0], // wrong
		p.Groups[0].Blocks[0], p.Groups[0].Blocks[1], p.Groups[0].Blocks[2], p.Groups[0].Blocks[3], // solve A
		p.Groups[1].Blocks[0], p.Groups[1].Blocks[1], p.Groups[1].Blocks[2], p.Groups[2].Blocks[0], // wrong
		p.Groups[1].Blocks[0], p.Groups[1].Blocks[1], p.Groups[1].Blocks[2], p.Groups[1].Blocks[3], // solve B
		p.Groups[2].Blocks[0], p.Groups[2].Blocks[1], p.Groups[2].Blocks[2], p.Groups[2].Blocks[3], // solve C → win
	}
	for i, b := range clicks {
		var out Outcome
		s, out = SelectBlock(p, s, b, t0)
		if out == OutcomeWrong {
			s = ClearWrong(s)
		}

		assert.LessOrEqual(t, len(s.Selected), puzzle.BlocksPerGroup, "click %d", i)
		assert.GreaterOrEqual(t, s.WrongAttempts(), 0, "click %d", i)
		assert.LessOrEqual(t, s.WrongAttempts(), p.MaxAttempts, "click %d", i)
		seen := map[string]bool{}
		for _, g := range s.Correct {
			assert.False(t, seen[g], "click %d: duplicate correct group %s", i, g)
			seen[g] = true
			assert.NotNil(t, p.Group(g), "click %d: unknown group %s", i, g)
		}
		assert.Equal(t, s.Completed(), s.CompletedAt != nil)
	}
	assert.True(t, s.Won(p))
}
