// internal/game/types.go
//
// Core type definitions for the grouping-puzzle engine.
// Defines:
//   - State: play-state for a single in-progress or finished game.
//   - Outcome: what a transition did, for callers that react to it.

package game

import (
	"time"

	"github.com/connectgame/go-server/internal/puzzle"
)

// State holds the play-state of one (player, puzzle) pair.
//
// Attempts and Correct are append-only and chronological. Selected and
// WrongOpen are transient UI-facing fields and are never persisted.
type State struct {
	Attempts    [][]string     // every 4-block submission, in call order
	Correct     []string       // solved group ids, in solve order
	Score       int            // solved-group count, full score on the final group
	CompletedAt *time.Time     // set exactly once on win, loss, or give-up
	Selected    []puzzle.Block // 0–4 blocks highlighted before a submission
	WrongOpen   bool           // a missed submission is still being revealed
}

// NewState returns the empty state a player starts from.
func NewState() State {
	return State{Attempts: [][]string{}, Correct: []string{}}
}

// Completed reports whether the game has ended (win, loss, or give-up).
func (s State) Completed() bool { return s.CompletedAt != nil }

// WrongAttempts is the number of missed submissions. A correct submission
// and a solved group are 1:1, so the difference is exactly the misses.
func (s State) WrongAttempts() int { return len(s.Attempts) - len(s.Correct) }

// Won reports whether every group of p has been solved.
func (s State) Won(p *puzzle.Puzzle) bool {
	return len(s.Correct) == len(p.Groups) && len(p.Groups) > 0
}

// Lost reports whether the game ended without solving every group.
func (s State) Lost(p *puzzle.Puzzle) bool {
	return s.Completed() && !s.Won(p)
}

// solvedGroup reports whether the given group id is already in Correct.
func (s State) solvedGroup(id string) bool {
	for _, g := range s.Correct {
		if g == id {
			return true
		}
	}
	return false
}

// clone copies the slice headers that transitions append to, so a returned
// State never aliases its input's growth path. Attempt rows are immutable
// once appended and are shared.
func (s State) clone() State {
	out := s
	out.Attempts = append(make([][]string, 0, len(s.Attempts)+1), s.Attempts...)
	out.Correct = append(make([]string, 0, len(s.Correct)+1), s.Correct...)
	out.Selected = append(make([]puzzle.Block, 0, len(s.Selected)+1), s.Selected...)
	return out
}

// Outcome tells the caller what a transition did, so the session layer can
// schedule the wrong-reveal timer or persist progress without diffing states.
type Outcome int

const (
	OutcomeNone       Outcome = iota // rejected input or no observable change
	OutcomeSelected                  // block highlighted, submission not yet full
	OutcomeDeselected                // block un-highlighted
	OutcomeWrong                     // submission missed, game continues
	OutcomeLost                      // submission missed and attempts exhausted
	OutcomeSolved                    // group solved, game continues
	OutcomeWon                       // final group solved (incl. auto-resolve)
	OutcomeGaveUp                    // player abandoned the game
)

// String is for logs only.
func (o Outcome) String() string {
	switch o {
	case OutcomeSelected:
		return "selected"
	case OutcomeDeselected:
		return "deselected"
	case OutcomeWrong:
		return "wrong"
	case OutcomeLost:
		return "lost"
	case OutcomeSolved:
		return "solved"
	case OutcomeWon:
		return "won"
	case OutcomeGaveUp:
		return "gave_up"
	default:
		return "none"
	}
}
