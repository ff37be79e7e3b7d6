// internal/syncer/syncer.go
//
// Sync Coordinator: pushes every locally-held saved game to the remote
// store, one at a time. A successful push removes the local entry; a failed
// push leaves it in place so the next run can retry it. Progress is
// reported after every item so a caller can render live status.

package syncer

import (
	"context"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/connectgame/go-server/internal/game"
	"github.com/connectgame/go-server/internal/localstore"
)

// PushFunc sends one payload to the remote store. A nil return means the
// remote accepted and stored it.
type PushFunc func(ctx context.Context, puzzleID string, p game.Payload) error

// Progress is emitted after each item. Succeeded/Failed are running totals,
// so the last Progress of a run equals its Result.
type Progress struct {
	PuzzleID  string
	Err       error // nil when the item synced
	Succeeded int
	Failed    int
}

// Result is the aggregate outcome of one sync run.
type Result struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Coordinator walks the local store and pushes each entry remote.
type Coordinator struct {
	local *localstore.Store
	push  PushFunc
}

// New constructs a Coordinator over a local store and a push operation.
func New(local *localstore.Store, push PushFunc) *Coordinator {
	return &Coordinator{local: local, push: push}
}

// SyncAll pushes every saved game sequentially. Iteration is in sorted
// puzzle-id order so runs are deterministic; items are never pushed in
// parallel, keeping progress reporting simple and avoiding write bursts.
// There is no retry within a run — a failed item waits for the next call.
//
// onProgress may be nil. The returned error covers only the inability to
// enumerate the local store; per-item push failures are counted, not
// returned.
func (c *Coordinator) SyncAll(ctx context.Context, onProgress func(Progress)) (Result, error) {
	games, err := c.local.LoadAll(ctx)
	if err != nil {
		return Result{}, err
	}

	ids := make([]string, 0, len(games))
	for id := range games {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var res Result
	for _, id := range ids {
		err := c.push(ctx, id, games[id])
		if err == nil {
			// Only drop the local copy once the remote has it.
			if rmErr := c.local.Remove(ctx, id); rmErr != nil {
				log.Warn().Str("puzzle", id).Err(rmErr).Msg("synced but could not remove local entry")
			}
			res.Succeeded++
		} else {
			log.Warn().Str("puzzle", id).Err(err).Msg("push failed, keeping local entry")
			res.Failed++
		}
		if onProgress != nil {
			onProgress(Progress{PuzzleID: id, Err: err, Succeeded: res.Succeeded, Failed: res.Failed})
		}
	}
	return res, nil
}
