// internal/puzzle/types.go
//
// Core type definitions for the grouping puzzle.
// Defines:
//   - Block: a single selectable tile belonging to exactly one group.
//   - Group: four blocks sharing a hidden connection.
//   - Puzzle: the immutable definition of four groups plus metadata.

package puzzle

import (
	"fmt"
	"time"
)

const (
	// GroupsPerPuzzle is the number of groups in this puzzle format.
	GroupsPerPuzzle = 4
	// BlocksPerGroup is the number of blocks in each group.
	BlocksPerGroup = 4
)

// Block is one selectable tile. Value is the user-facing label.
type Block struct {
	ID            string `json:"id"`
	PuzzleGroupID string `json:"puzzle_group_id"`
	Value         string `json:"value"`
}

// Group is a set of four blocks sharing a hidden connection.
// Description is revealed once the group is solved.
type Group struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Blocks      []Block `json:"blocks"`
}

// Puzzle is the full immutable definition of a playable puzzle.
// MaxAttempts of 0 means unlimited wrong attempts.
type Puzzle struct {
	ID          string     `json:"id"`
	Difficulty  string     `json:"difficulty"`
	MaxAttempts int        `json:"max_attempts"`
	Groups      []Group    `json:"groups"`
	CreatedBy   string     `json:"created_by"`
	NumOfLikes  int        `json:"num_of_likes"`
	LikedAt     *time.Time `json:"liked_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Blocks flattens all groups into a single slice in definition order.
// The result is a fresh slice; callers may reorder it freely.
func (p *Puzzle) Blocks() []Block {
	out := make([]Block, 0, GroupsPerPuzzle*BlocksPerGroup)
	for _, g := range p.Groups {
		out = append(out, g.Blocks...)
	}
	return out
}

// Group returns the group with the given id, or nil.
func (p *Puzzle) Group(id string) *Group {
	for i := range p.Groups {
		if p.Groups[i].ID == id {
			return &p.Groups[i]
		}
	}
	return nil
}

// GroupIDs returns the ids of all groups in definition order.
func (p *Puzzle) GroupIDs() []string {
	out := make([]string, 0, len(p.Groups))
	for _, g := range p.Groups {
		out = append(out, g.ID)
	}
	return out
}

// Validate checks the structural rules of the format: exactly four groups of
// exactly four blocks, every id unique and non-empty, and every block's
// PuzzleGroupID pointing at its containing group.
func (p *Puzzle) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("puzzle has no id")
	}
	if len(p.Groups) != GroupsPerPuzzle {
		return fmt.Errorf("puzzle %s: want %d groups, got %d", p.ID, GroupsPerPuzzle, len(p.Groups))
	}
	if p.MaxAttempts < 0 {
		return fmt.Errorf("puzzle %s: negative max_attempts", p.ID)
	}
	seenGroups := make(map[string]bool, GroupsPerPuzzle)
	seenBlocks := make(map[string]bool, GroupsPerPuzzle*BlocksPerGroup)
	for _, g := range p.Groups {
		if g.ID == "" {
			return fmt.Errorf("puzzle %s: group has no id", p.ID)
		}
		if seenGroups[g.ID] {
			return fmt.Errorf("puzzle %s: duplicate group id %s", p.ID, g.ID)
		}
		seenGroups[g.ID] = true
		if len(g.Blocks) != BlocksPerGroup {
			return fmt.Errorf("puzzle %s group %s: want %d blocks, got %d", p.ID, g.ID, BlocksPerGroup, len(g.Blocks))
		}
		for _, b := range g.Blocks {
			if b.ID == "" {
				return fmt.Errorf("puzzle %s group %s: block has no id", p.ID, g.ID)
			}
			if seenBlocks[b.ID] {
				return fmt.Errorf("puzzle %s: duplicate block id %s", p.ID, b.ID)
			}
			seenBlocks[b.ID] = true
			if b.PuzzleGroupID != g.ID {
				return fmt.Errorf("puzzle %s: block %s claims group %s but sits in %s", p.ID, b.ID, b.PuzzleGroupID, g.ID)
			}
		}
	}
	return nil
}
