// internal/store/memory.go
//
// In-memory implementation of PuzzleStore and GameStore.
// This is a lightweight persistence layer used in development and tests,
// when durability is not required.
//
// Characteristics:
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.
//   - ErrNotFound is returned for missing ids on reads.

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/connectgame/go-server/internal/game"
	"github.com/connectgame/go-server/internal/puzzle"
)

// Memory implements both PuzzleStore and GameStore over maps.
type Memory struct {
	mu      sync.RWMutex
	puzzles map[string]puzzle.Puzzle
	likes   map[string]map[string]time.Time // puzzle id → player id → liked at
	games   map[string]map[string]game.Payload // player id → puzzle id → payload
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		puzzles: map[string]puzzle.Puzzle{},
		likes:   map[string]map[string]time.Time{},
		games:   map[string]map[string]game.Payload{},
	}
}

func (m *Memory) PutPuzzle(ctx context.Context, p puzzle.Puzzle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puzzles[p.ID] = p
	return nil
}

func (m *Memory) GetPuzzle(ctx context.Context, id, playerID string) (puzzle.Puzzle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.puzzles[id]
	if !ok {
		return puzzle.Puzzle{}, ErrNotFound
	}
	return m.decorate(p, playerID), nil
}

func (m *Memory) ListPuzzles(ctx context.Context, playerID string) ([]puzzle.Puzzle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]puzzle.Puzzle, 0, len(m.puzzles))
	for _, p := range m.puzzles {
		out = append(out, m.decorate(p, playerID))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) ToggleLike(ctx context.Context, id, playerID string) (puzzle.Puzzle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.puzzles[id]
	if !ok {
		return puzzle.Puzzle{}, ErrNotFound
	}
	byPlayer, ok := m.likes[id]
	if !ok {
		byPlayer = map[string]time.Time{}
		m.likes[id] = byPlayer
	}
	if _, liked := byPlayer[playerID]; liked {
		delete(byPlayer, playerID)
	} else {
		byPlayer[playerID] = time.Now().UTC()
	}
	return m.decorate(p, playerID), nil
}

// decorate fills the per-request like fields. Callers hold at least mu.RLock.
func (m *Memory) decorate(p puzzle.Puzzle, playerID string) puzzle.Puzzle {
	p.NumOfLikes = len(m.likes[p.ID])
	p.LikedAt = nil
	if at, ok := m.likes[p.ID][playerID]; ok {
		t := at
		p.LikedAt = &t
	}
	return p
}

func (m *Memory) SaveGame(ctx context.Context, playerID, puzzleID string, p game.Payload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	byPuzzle, ok := m.games[playerID]
	if !ok {
		byPuzzle = map[string]game.Payload{}
		m.games[playerID] = byPuzzle
	}
	byPuzzle[puzzleID] = p
	return nil
}

func (m *Memory) GetGame(ctx context.Context, playerID, puzzleID string) (game.Payload, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.games[playerID][puzzleID]; ok {
		return p, nil
	}
	return game.Payload{}, ErrNotFound
}
