// internal/client/client.go
//
// HTTP client for the remote game store. Implements the two contracts the
// engine relies on: fetch (absence is a clean "not found", distinguishable
// from failure) and push (success or failure, nothing in between).

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/connectgame/go-server/internal/game"
	"github.com/connectgame/go-server/internal/puzzle"
)

// Remote talks to one puzzle backend on behalf of one player. PlayerID is
// sent as X-Player-ID so saved games land in that player's namespace.
type Remote struct {
	base     string
	playerID string
	http     *http.Client
}

// New constructs a Remote for the given base URL ("http://host:port").
func New(base, playerID string) *Remote {
	return &Remote{
		base:     base,
		playerID: playerID,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

// FetchGame returns the server's copy of the saved game for a puzzle.
// ok=false with a nil error means the server has none.
func (r *Remote) FetchGame(ctx context.Context, puzzleID string) (game.Payload, bool, error) {
	req, err := r.request(ctx, http.MethodGet, "/games/"+puzzleID, nil)
	if err != nil {
		return game.Payload{}, false, err
	}
	res, err := r.http.Do(req)
	if err != nil {
		return game.Payload{}, false, err
	}
	defer drain(res)

	switch {
	case res.StatusCode == http.StatusNotFound:
		return game.Payload{}, false, nil
	case res.StatusCode != http.StatusOK:
		return game.Payload{}, false, fmt.Errorf("fetch game %s: status %d", puzzleID, res.StatusCode)
	}
	var p game.Payload
	if err := json.NewDecoder(res.Body).Decode(&p); err != nil {
		return game.Payload{}, false, fmt.Errorf("fetch game %s: %w", puzzleID, err)
	}
	return p, true, nil
}

// PushGame uploads a payload as the new authoritative copy.
func (r *Remote) PushGame(ctx context.Context, puzzleID string, p game.Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	req, err := r.request(ctx, http.MethodPut, "/games/"+puzzleID, bytes.NewReader(body))
	if err != nil {
		return err
	}
	res, err := r.http.Do(req)
	if err != nil {
		return err
	}
	defer drain(res)

	if res.StatusCode != http.StatusNoContent && res.StatusCode != http.StatusOK {
		return fmt.Errorf("push game %s: status %d", puzzleID, res.StatusCode)
	}
	return nil
}

// FetchPuzzle loads a puzzle definition.
func (r *Remote) FetchPuzzle(ctx context.Context, id string) (puzzle.Puzzle, error) {
	req, err := r.request(ctx, http.MethodGet, "/puzzles/"+id, nil)
	if err != nil {
		return puzzle.Puzzle{}, err
	}
	res, err := r.http.Do(req)
	if err != nil {
		return puzzle.Puzzle{}, err
	}
	defer drain(res)

	if res.StatusCode != http.StatusOK {
		return puzzle.Puzzle{}, fmt.Errorf("fetch puzzle %s: status %d", id, res.StatusCode)
	}
	var p puzzle.Puzzle
	if err := json.NewDecoder(res.Body).Decode(&p); err != nil {
		return puzzle.Puzzle{}, fmt.Errorf("fetch puzzle %s: %w", id, err)
	}
	return p, nil
}

func (r *Remote) request(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, r.base+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Player-ID", r.playerID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func drain(res *http.Response) {
	_, _ = io.Copy(io.Discard, res.Body)
	_ = res.Body.Close()
}
