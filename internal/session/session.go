// internal/session/session.go
//
// One player's live session against one puzzle: the adapter between the
// pure engine reducers and whatever UI drives them.
// Responsibilities:
//   - Open: reconcile the server copy with the locally-cached copy, pick
//     the fresher one, and build the initial render order.
//   - Drive transitions: SelectBlock / GiveUp / Shuffle, serialized behind
//     one mutex (the Go analogue of the browser event loop).
//   - Run the wrong-reveal window on the injected scheduler, with
//     cancellation on Close so a torn-down session never mutates state.
//   - Persist progress to the local store after every recorded attempt and
//     adopt fresher copies written by other sessions over the same backend.

package session

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/connectgame/go-server/internal/game"
	"github.com/connectgame/go-server/internal/localstore"
	"github.com/connectgame/go-server/internal/puzzle"
)

// RemoteStore is the slice of the remote game store a session needs when it
// opens: a fetch whose "not found" is distinguishable from failure.
type RemoteStore interface {
	FetchGame(ctx context.Context, puzzleID string) (game.Payload, bool, error)
}

// Snapshot is the read-only projection handed to the UI.
type Snapshot struct {
	Game          game.State
	Blocks        []puzzle.Block
	IsLoading     bool
	IsWon         bool
	IsGameOver    bool // completed without a win
	WrongAttempts int
}

// Config wires a session's collaborators. Remote may be nil (offline play);
// Clock, Scheduler, and Rand default to the production implementations.
type Config struct {
	Puzzle    *puzzle.Puzzle
	Local     *localstore.Store
	Remote    RemoteStore
	Clock     game.Clock
	Scheduler game.Scheduler
	Rand      *rand.Rand
	OnChange  func(Snapshot) // called after every observable transition
}

// Session owns one game until it is closed or synced away.
type Session struct {
	mu          sync.Mutex
	puzzle      *puzzle.Puzzle
	state       game.State
	blocks      []puzzle.Block
	local       *localstore.Store
	clock       game.Clock
	sched       game.Scheduler
	rng         *rand.Rand
	onChange    func(Snapshot)
	cancelWrong game.CancelFunc
	unsubscribe func()
	loading     bool
	closed      bool
}

// Open builds a session: fetches the server copy (best effort), loads the
// local copy, keeps whichever recorded more attempts, and lays out the
// grid — shuffled for a fresh or unsolved game, stable when solved groups
// must stay pinned.
func Open(ctx context.Context, cfg Config) (*Session, error) {
	if err := cfg.Puzzle.Validate(); err != nil {
		return nil, err
	}
	s := &Session{
		puzzle:   cfg.Puzzle,
		local:    cfg.Local,
		clock:    cfg.Clock,
		sched:    cfg.Scheduler,
		rng:      cfg.Rand,
		onChange: cfg.OnChange,
		loading:  true,
	}
	if s.clock == nil {
		s.clock = game.SystemClock()
	}
	if s.sched == nil {
		s.sched = game.TimerScheduler()
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	var server *game.Payload
	if cfg.Remote != nil {
		p, ok, err := cfg.Remote.FetchGame(ctx, cfg.Puzzle.ID)
		if err != nil {
			// Best-available data beats no play at all.
			log.Warn().Str("puzzle", cfg.Puzzle.ID).Err(err).Msg("remote fetch failed, using local copy")
		} else if ok {
			server = &p
		}
	}
	var local *game.Payload
	if p, ok, err := s.local.Load(ctx, cfg.Puzzle.ID); err != nil {
		return nil, err
	} else if ok {
		local = &p
	}

	picked := game.PickLatest(server, local)
	s.state = picked.State()
	if st, out := game.Normalize(s.puzzle, s.state, s.clock.Now()); out != game.OutcomeNone {
		s.state = st
		s.saveLocked(ctx)
	}

	if len(s.state.Correct) == 0 {
		s.blocks = game.Reorder(s.puzzle.Blocks(), nil, s.rng)
	} else {
		s.blocks = game.Reorder(s.puzzle.Blocks(), s.state.Correct, nil)
	}
	s.loading = false

	s.unsubscribe = s.local.Subscribe(s.onLocalChange)
	return s, nil
}

// SelectBlock applies one click. All invalid clicks are silent no-ops.
func (s *Session) SelectBlock(b puzzle.Block) {
	s.mu.Lock()
	if s.closed || s.loading {
		s.mu.Unlock()
		return
	}
	next, out := game.SelectBlock(s.puzzle, s.state, b, s.clock.Now())
	s.state = next

	switch out {
	case game.OutcomeNone:
		s.mu.Unlock()
		return
	case game.OutcomeWrong, game.OutcomeLost:
		s.saveLocked(context.Background())
		// Hold the missed selection visible, then clear and re-enable input.
		if s.cancelWrong != nil {
			s.cancelWrong()
		}
		s.cancelWrong = s.sched.AfterFunc(game.WrongRevealWindow, s.expireWrong)
	case game.OutcomeSolved, game.OutcomeWon:
		s.saveLocked(context.Background())
		s.blocks = game.Reorder(s.blocks, s.state.Correct, nil)
	}
	s.emitLocked()
}

// GiveUp abandons the game. No-op once completed.
func (s *Session) GiveUp() {
	s.mu.Lock()
	if s.closed || s.loading {
		s.mu.Unlock()
		return
	}
	next, out := game.GiveUp(s.state, s.clock.Now())
	if out == game.OutcomeNone {
		s.mu.Unlock()
		return
	}
	s.state = next
	if s.cancelWrong != nil {
		s.cancelWrong()
		s.cancelWrong = nil
	}
	s.saveLocked(context.Background())
	s.emitLocked()
}

// Shuffle re-randomizes the unsolved blocks. Solved groups never move.
// Allowed only while the game is in progress.
func (s *Session) Shuffle() {
	s.mu.Lock()
	if s.closed || s.loading || s.state.Completed() {
		s.mu.Unlock()
		return
	}
	s.blocks = game.Reorder(s.blocks, s.state.Correct, s.rng)
	s.emitLocked()
}

// Snapshot returns the current read-only projection.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Close tears the session down: the pending reveal timer (if any) is
// cancelled, not fired, and further calls are no-ops.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.cancelWrong != nil {
		s.cancelWrong()
		s.cancelWrong = nil
	}
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

// expireWrong is the scheduled end of the wrong-reveal window.
func (s *Session) expireWrong() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.cancelWrong = nil
	s.state = game.ClearWrong(s.state)
	s.emitLocked()
}

// onLocalChange runs when any session over the same backend writes this
// namespace. A fresher copy of our puzzle (more attempts recorded) replaces
// the in-memory view, keeping parallel sessions eventually consistent.
func (s *Session) onLocalChange(puzzleID string) {
	s.mu.Lock()
	if s.closed || s.loading || puzzleID != s.puzzle.ID || s.state.WrongOpen {
		s.mu.Unlock()
		return
	}
	p, ok, err := s.local.Load(context.Background(), puzzleID)
	if err != nil || !ok {
		s.mu.Unlock()
		return
	}
	if len(p.Attempts) <= len(s.state.Attempts) {
		s.mu.Unlock()
		return
	}
	s.state = p.State()
	s.blocks = game.Reorder(s.blocks, s.state.Correct, nil)
	s.emitLocked()
}

// saveLocked persists the current payload, best effort. A casual game
// prefers staying playable over guaranteed persistence.
func (s *Session) saveLocked(ctx context.Context) {
	if err := s.local.Save(ctx, s.puzzle.ID, s.state.Payload()); err != nil {
		log.Warn().Str("puzzle", s.puzzle.ID).Err(err).Msg("local save failed")
	}
}

func (s *Session) snapshotLocked() Snapshot {
	blocks := make([]puzzle.Block, len(s.blocks))
	copy(blocks, s.blocks)
	won := s.state.Won(s.puzzle)
	return Snapshot{
		Game:          s.state,
		Blocks:        blocks,
		IsLoading:     s.loading,
		IsWon:         won,
		IsGameOver:    s.state.Completed() && !won,
		WrongAttempts: s.state.WrongAttempts(),
	}
}

// emitLocked releases the mutex and then notifies the UI, so a callback may
// call back into the session.
func (s *Session) emitLocked() {
	snap := s.snapshotLocked()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
}
