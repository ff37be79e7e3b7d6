// internal/store/sqlite.go
//
// SQLite implementation of PuzzleStore and GameStore. Schema lives in
// sql/*.sql and is applied by the migration runner in main; this file only
// assumes the tables exist.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/connectgame/go-server/internal/game"
	"github.com/connectgame/go-server/internal/puzzle"
)

// SQLite wraps a database handle opened by openDB in main.
type SQLite struct {
	db *sql.DB
}

// NewSQLite constructs the store over an already-migrated handle.
func NewSQLite(db *sql.DB) *SQLite { return &SQLite{db: db} }

func (s *SQLite) PutPuzzle(ctx context.Context, p puzzle.Puzzle) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
        INSERT OR IGNORE INTO puzzles (id, difficulty, max_attempts, created_by, created_at)
        VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Difficulty, p.MaxAttempts, p.CreatedBy, p.CreatedAt.UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("insert puzzle %s: %w", p.ID, err)
	}
	for gi, g := range p.Groups {
		if _, err := tx.ExecContext(ctx, `
            INSERT OR IGNORE INTO puzzle_groups (id, puzzle_id, description, position)
            VALUES (?, ?, ?, ?)`, g.ID, p.ID, g.Description, gi,
		); err != nil {
			return fmt.Errorf("insert group %s: %w", g.ID, err)
		}
		for bi, b := range g.Blocks {
			if _, err := tx.ExecContext(ctx, `
                INSERT OR IGNORE INTO blocks (id, group_id, value, position)
                VALUES (?, ?, ?, ?)`, b.ID, g.ID, b.Value, bi,
			); err != nil {
				return fmt.Errorf("insert block %s: %w", b.ID, err)
			}
		}
	}
	return tx.Commit()
}

func (s *SQLite) GetPuzzle(ctx context.Context, id, playerID string) (puzzle.Puzzle, error) {
	var (
		p         puzzle.Puzzle
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, `
        SELECT id, difficulty, max_attempts, created_by, created_at
        FROM puzzles WHERE id=?`, id,
	).Scan(&p.ID, &p.Difficulty, &p.MaxAttempts, &p.CreatedBy, &createdAt)
	if err == sql.ErrNoRows {
		return puzzle.Puzzle{}, ErrNotFound
	}
	if err != nil {
		return puzzle.Puzzle{}, err
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	if p.Groups, err = s.loadGroups(ctx, id); err != nil {
		return puzzle.Puzzle{}, err
	}
	if err := s.decorate(ctx, &p, playerID); err != nil {
		return puzzle.Puzzle{}, err
	}
	return p, nil
}

func (s *SQLite) ListPuzzles(ctx context.Context, playerID string) ([]puzzle.Puzzle, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, difficulty, max_attempts, created_by, created_at
        FROM puzzles ORDER BY created_at DESC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []puzzle.Puzzle
	for rows.Next() {
		var (
			p         puzzle.Puzzle
			createdAt string
		)
		if err := rows.Scan(&p.ID, &p.Difficulty, &p.MaxAttempts, &p.CreatedBy, &createdAt); err != nil {
			return nil, err
		}
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Groups, err = s.loadGroups(ctx, out[i].ID); err != nil {
			return nil, err
		}
		if err := s.decorate(ctx, &out[i], playerID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *SQLite) ToggleLike(ctx context.Context, id, playerID string) (puzzle.Puzzle, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM puzzles WHERE id=?`, id).Scan(&exists)
	if err != nil {
		return puzzle.Puzzle{}, err
	}
	if exists == 0 {
		return puzzle.Puzzle{}, ErrNotFound
	}

	var liked int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM puzzle_likes WHERE puzzle_id=? AND player_id=?`,
		id, playerID,
	).Scan(&liked); err != nil {
		return puzzle.Puzzle{}, err
	}
	if liked > 0 {
		_, err = s.db.ExecContext(ctx,
			`DELETE FROM puzzle_likes WHERE puzzle_id=? AND player_id=?`, id, playerID)
	} else {
		_, err = s.db.ExecContext(ctx, `
            INSERT OR IGNORE INTO puzzle_likes (puzzle_id, player_id, created_at)
            VALUES (?, ?, ?)`, id, playerID, time.Now().UTC().Format(time.RFC3339))
	}
	if err != nil {
		return puzzle.Puzzle{}, err
	}
	return s.GetPuzzle(ctx, id, playerID)
}

// loadGroups reads the groups and blocks of one puzzle in stored position
// order, so the definition order of the seed survives round-trips.
func (s *SQLite) loadGroups(ctx context.Context, puzzleID string) ([]puzzle.Group, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, description FROM puzzle_groups
        WHERE puzzle_id=? ORDER BY position ASC`, puzzleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []puzzle.Group
	for rows.Next() {
		var g puzzle.Group
		if err := rows.Scan(&g.ID, &g.Description); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range groups {
		brows, err := s.db.QueryContext(ctx, `
            SELECT id, value FROM blocks
            WHERE group_id=? ORDER BY position ASC`, groups[i].ID)
		if err != nil {
			return nil, err
		}
		for brows.Next() {
			var b puzzle.Block
			if err := brows.Scan(&b.ID, &b.Value); err != nil {
				brows.Close()
				return nil, err
			}
			b.PuzzleGroupID = groups[i].ID
			groups[i].Blocks = append(groups[i].Blocks, b)
		}
		if err := brows.Err(); err != nil {
			brows.Close()
			return nil, err
		}
		brows.Close()
	}
	return groups, nil
}

// decorate fills NumOfLikes and the requesting player's LikedAt.
func (s *SQLite) decorate(ctx context.Context, p *puzzle.Puzzle, playerID string) error {
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM puzzle_likes WHERE puzzle_id=?`, p.ID,
	).Scan(&p.NumOfLikes); err != nil {
		return err
	}
	p.LikedAt = nil
	if playerID == "" {
		return nil
	}
	var at string
	err := s.db.QueryRowContext(ctx,
		`SELECT created_at FROM puzzle_likes WHERE puzzle_id=? AND player_id=?`,
		p.ID, playerID,
	).Scan(&at)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}
	if t, perr := time.Parse(time.RFC3339, at); perr == nil {
		p.LikedAt = &t
	}
	return nil
}

func (s *SQLite) SaveGame(ctx context.Context, playerID, puzzleID string, p game.Payload) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO games (player_id, puzzle_id, payload, updated_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(player_id, puzzle_id) DO UPDATE SET
            payload=excluded.payload, updated_at=excluded.updated_at`,
		playerID, puzzleID, string(raw), time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

func (s *SQLite) GetGame(ctx context.Context, playerID, puzzleID string) (game.Payload, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM games WHERE player_id=? AND puzzle_id=?`,
		playerID, puzzleID,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return game.Payload{}, ErrNotFound
	}
	if err != nil {
		return game.Payload{}, err
	}
	var p game.Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return game.Payload{}, fmt.Errorf("unmarshal payload: %w", err)
	}
	return p, nil
}
