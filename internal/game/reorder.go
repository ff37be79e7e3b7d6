// internal/game/reorder.go
//
// Render-order policy for the block grid. Solved groups are pinned to the
// top as contiguous rows; everything else is shuffled.

package game

import (
	"math/rand"

	"github.com/connectgame/go-server/internal/puzzle"
)

// Reorder computes the render order for blocks given the solved group ids.
//
// Blocks of solved groups come first, grouped by group id in solve order and
// keeping each group's original 4-block order. The remaining blocks follow;
// they are shuffled when rng is non-nil and keep their incoming order when
// it is nil (used on load, where an unshuffled restore must not move tiles).
// The result is de-duplicated by block id, first occurrence wins.
func Reorder(blocks []puzzle.Block, correct []string, rng *rand.Rand) []puzzle.Block {
	solved := make(map[string][]puzzle.Block, len(correct))
	var rest []puzzle.Block
	for _, b := range blocks {
		if containsID(correct, b.PuzzleGroupID) {
			solved[b.PuzzleGroupID] = append(solved[b.PuzzleGroupID], b)
		} else {
			rest = append(rest, b)
		}
	}

	out := make([]puzzle.Block, 0, len(blocks))
	for _, id := range correct {
		out = append(out, solved[id]...)
	}
	if rng != nil {
		rng.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
	}
	out = append(out, rest...)

	seen := make(map[string]bool, len(out))
	dedup := out[:0]
	for _, b := range out {
		if seen[b.ID] {
			continue
		}
		seen[b.ID] = true
		dedup = append(dedup, b)
	}
	return dedup
}

func containsID(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
