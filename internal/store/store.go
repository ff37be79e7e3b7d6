// internal/store/store.go
//
// Persistence interfaces for the server side: the puzzle source and the
// authoritative game store. Implementations may be backed by memory (tests,
// ephemeral dev) or SQLite (production).

package store

import (
	"context"
	"errors"

	"github.com/connectgame/go-server/internal/game"
	"github.com/connectgame/go-server/internal/puzzle"
)

// ErrNotFound distinguishes "no such row" from an actual failure. Handlers
// map it to 404; anything else is a 5xx.
var ErrNotFound = errors.New("store: not found")

// PuzzleStore supplies immutable puzzle definitions plus the like counter,
// the one mutable bit of puzzle metadata.
type PuzzleStore interface {
	// PutPuzzle inserts a puzzle. Used by seeding.
	PutPuzzle(ctx context.Context, p puzzle.Puzzle) error

	// GetPuzzle returns one puzzle with its groups and blocks, with likes
	// resolved for playerID (LikedAt set when that player liked it).
	GetPuzzle(ctx context.Context, id, playerID string) (puzzle.Puzzle, error)

	// ListPuzzles returns every puzzle, newest first.
	ListPuzzles(ctx context.Context, playerID string) ([]puzzle.Puzzle, error)

	// ToggleLike flips playerID's like on a puzzle and returns the new
	// puzzle view.
	ToggleLike(ctx context.Context, id, playerID string) (puzzle.Puzzle, error)
}

// GameStore is the authoritative copy of saved games, keyed by
// (player, puzzle).
type GameStore interface {
	// SaveGame upserts the payload for one (player, puzzle) pair.
	SaveGame(ctx context.Context, playerID, puzzleID string, p game.Payload) error

	// GetGame returns the saved payload, or ErrNotFound.
	GetGame(ctx context.Context, playerID, puzzleID string) (game.Payload, error)
}
