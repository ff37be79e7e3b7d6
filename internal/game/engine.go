// internal/game/engine.go
//
// Core engine for a single grouping-puzzle game.
// Responsibilities:
//   - Apply block selections: toggle, accumulate, submit at four.
//   - Score submissions: record the attempt, solve the group or count a miss.
//   - Track state transitions: playing → won/lost, including the
//     auto-resolution of the final group once the other three are solved.
//
// Notes:
//   - All transitions are pure: (State, input, now) → (State, Outcome).
//     Callers own scheduling (the wrong-reveal window) and persistence.
//   - Invalid input is a silent no-op, never an error. The UI is expected
//     to disable controls, but the engine must not depend on that.
package game

import (
	"time"

	"github.com/connectgame/go-server/internal/puzzle"
)

// SelectBlock applies one click on a block.
//
// Rejected outright (OutcomeNone) when:
//   - the game is already completed,
//   - the block's group is already solved,
//   - wrong attempts have reached the puzzle's limit,
//   - four blocks are already selected (a submission is resolving),
//   - a missed submission is still being revealed.
//
// A click on an already-selected block deselects it. Otherwise the block is
// added, and the fourth added block submits the selection as an attempt.
func SelectBlock(p *puzzle.Puzzle, s State, b puzzle.Block, now time.Time) (State, Outcome) {
	switch {
	case s.Completed():
		return s, OutcomeNone
	case s.solvedGroup(b.PuzzleGroupID):
		return s, OutcomeNone
	case p.MaxAttempts > 0 && s.WrongAttempts() >= p.MaxAttempts:
		return s, OutcomeNone
	case len(s.Selected) == puzzle.BlocksPerGroup:
		return s, OutcomeNone
	case s.WrongOpen:
		return s, OutcomeNone
	}

	for i, sel := range s.Selected {
		if sel.ID == b.ID {
			next := s.clone()
			next.Selected = append(next.Selected[:i], next.Selected[i+1:]...)
			return next, OutcomeDeselected
		}
	}

	next := s.clone()
	next.Selected = append(next.Selected, b)
	if len(next.Selected) < puzzle.BlocksPerGroup {
		return next, OutcomeSelected
	}
	return submit(p, next, now)
}

// submit records the four selected blocks as an attempt and resolves it.
func submit(p *puzzle.Puzzle, s State, now time.Time) (State, Outcome) {
	ids := make([]string, 0, puzzle.BlocksPerGroup)
	for _, b := range s.Selected {
		ids = append(ids, b.ID)
	}
	s.Attempts = append(s.Attempts, ids)

	groupID := s.Selected[0].PuzzleGroupID
	match := true
	for _, b := range s.Selected[1:] {
		if b.PuzzleGroupID != groupID {
			match = false
			break
		}
	}

	if !match {
		// Selection stays visible through the reveal window; the caller
		// clears it via ClearWrong once the window elapses.
		s.WrongOpen = true
		if p.MaxAttempts > 0 && s.WrongAttempts() >= p.MaxAttempts {
			t := now
			s.CompletedAt = &t
			return s, OutcomeLost
		}
		return s, OutcomeWrong
	}

	s.Correct = append(s.Correct, groupID)
	s.Selected = s.Selected[:0]
	if len(s.Correct) == len(p.Groups)-1 {
		return resolveLast(p, s, now)
	}
	if len(s.Correct) == len(p.Groups) {
		// Only reachable with a degenerate single-group puzzle.
		s.Score = len(p.Groups)
		t := now
		s.CompletedAt = &t
		return s, OutcomeWon
	}
	s.Score++
	return s, OutcomeSolved
}

// resolveLast solves the one remaining group automatically: with three of
// four groups identified the fourth is fully determined, so the player is
// not asked to submit it. Its blocks are recorded as a synthetic attempt and
// the score jumps to the full group count rather than incrementing.
func resolveLast(p *puzzle.Puzzle, s State, now time.Time) (State, Outcome) {
	for _, g := range p.Groups {
		if s.solvedGroup(g.ID) {
			continue
		}
		ids := make([]string, 0, puzzle.BlocksPerGroup)
		for _, b := range g.Blocks {
			ids = append(ids, b.ID)
		}
		s.Attempts = append(s.Attempts, ids)
		s.Correct = append(s.Correct, g.ID)
		break
	}
	s.Score = len(p.Groups)
	s.Selected = s.Selected[:0]
	t := now
	s.CompletedAt = &t
	return s, OutcomeWon
}

// Normalize applies pending automatic transitions to a state that arrived
// from persistence: a game restored with all but one group solved completes
// immediately, exactly as if the last match had just landed.
func Normalize(p *puzzle.Puzzle, s State, now time.Time) (State, Outcome) {
	if s.Completed() || len(s.Correct) != len(p.Groups)-1 {
		return s, OutcomeNone
	}
	return resolveLast(p, s.clone(), now)
}

// ClearWrong ends the wrong-reveal window: the missed selection is dropped
// and input is accepted again. No-op when no window is open.
func ClearWrong(s State) State {
	if !s.WrongOpen {
		return s
	}
	next := s.clone()
	next.Selected = next.Selected[:0]
	next.WrongOpen = false
	return next
}

// GiveUp abandons the game: selection cleared, completion stamped, counted
// as a loss regardless of attempts remaining. No-op if already completed.
func GiveUp(s State, now time.Time) (State, Outcome) {
	if s.Completed() {
		return s, OutcomeNone
	}
	next := s.clone()
	next.Selected = next.Selected[:0]
	next.WrongOpen = false
	t := now
	next.CompletedAt = &t
	return next, OutcomeGaveUp
}
