// internal/game/payload.go
//
// GamePayload: the minimal serializable subset of a game, exchanged with the
// remote store and written to the local store. Also home of the policy that
// picks between a local and a server copy of the same game.

package game

import (
	"fmt"
	"time"

	"github.com/connectgame/go-server/internal/puzzle"
)

// Payload is what a Game looks like at rest. Selected/WrongOpen are
// UI-transient and deliberately absent. CompletedAt marshals as an RFC3339
// string or null.
type Payload struct {
	Attempts    [][]string `json:"attempts"`
	Correct     []string   `json:"correct"`
	Score       int        `json:"score"`
	CompletedAt *time.Time `json:"completed_at"`
}

// NewPayload returns the empty payload of a game that has not been played.
func NewPayload() Payload {
	return Payload{Attempts: [][]string{}, Correct: []string{}}
}

// Validate checks a payload that arrived from storage or the wire. Corrupt
// and legacy entries must be droppable without crashing a loader, so every
// structural rule lives here rather than in the consumers.
func (p Payload) Validate() error {
	if p.Attempts == nil {
		return fmt.Errorf("attempts missing")
	}
	if p.Correct == nil {
		return fmt.Errorf("correct missing")
	}
	if p.Score < 0 {
		return fmt.Errorf("negative score")
	}
	for i, row := range p.Attempts {
		if len(row) != puzzle.BlocksPerGroup {
			return fmt.Errorf("attempt %d has %d blocks", i, len(row))
		}
		for _, id := range row {
			if id == "" {
				return fmt.Errorf("attempt %d has an empty block id", i)
			}
		}
	}
	seen := make(map[string]bool, len(p.Correct))
	for _, g := range p.Correct {
		if g == "" {
			return fmt.Errorf("empty group id in correct")
		}
		if seen[g] {
			return fmt.Errorf("duplicate group id %s in correct", g)
		}
		seen[g] = true
	}
	if len(p.Correct) > len(p.Attempts) {
		return fmt.Errorf("more solved groups (%d) than attempts (%d)", len(p.Correct), len(p.Attempts))
	}
	return nil
}

// State rehydrates play-state from a payload. The transient fields start
// empty; a reveal window never survives a reload.
func (p Payload) State() State {
	s := NewState()
	s.Attempts = append(s.Attempts, p.Attempts...)
	s.Correct = append(s.Correct, p.Correct...)
	s.Score = p.Score
	if p.CompletedAt != nil {
		t := *p.CompletedAt
		s.CompletedAt = &t
	}
	return s
}

// Payload projects the persistable subset of a state.
func (s State) Payload() Payload {
	p := NewPayload()
	p.Attempts = append(p.Attempts, s.Attempts...)
	p.Correct = append(p.Correct, s.Correct...)
	p.Score = s.Score
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		p.CompletedAt = &t
	}
	return p
}

// PickLatest chooses between a server-fetched and a locally-cached copy of
// the same game. More recorded attempts wins, as a proxy for more progress;
// on a tie the server copy wins since it is the authoritative one. The two
// payloads are never field-merged.
func PickLatest(server, local *Payload) Payload {
	switch {
	case server == nil && local == nil:
		return NewPayload()
	case server == nil:
		return *local
	case local == nil:
		return *server
	case len(local.Attempts) > len(server.Attempts):
		return *local
	default:
		return *server
	}
}
