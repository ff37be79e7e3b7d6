package session

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connectgame/go-server/internal/game"
	"github.com/connectgame/go-server/internal/localstore"
	"github.com/connectgame/go-server/internal/puzzle"
)

var t0 = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func testPuzzle(maxAttempts int) *puzzle.Puzzle {
	p := &puzzle.Puzzle{ID: "puz", MaxAttempts: maxAttempts, CreatedAt: t0}
	for _, gid := range []string{"A", "B", "C", "D"} {
		g := puzzle.Group{ID: gid, Description: "group " + gid}
		for i := 1; i <= puzzle.BlocksPerGroup; i++ {
			g.Blocks = append(g.Blocks, puzzle.Block{
				ID:            gid + string(rune('0'+i)),
				PuzzleGroupID: gid,
				Value:         gid + string(rune('0'+i)),
			})
		}
		p.Groups = append(p.Groups, g)
	}
	return p
}

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time { return f.now }

// manualScheduler collects callbacks and fires them only when told to.
type manualScheduler struct {
	mu      sync.Mutex
	pending []*scheduledFn
}

type scheduledFn struct {
	fn        func()
	cancelled bool
}

func (m *manualScheduler) AfterFunc(d time.Duration, fn func()) game.CancelFunc {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &scheduledFn{fn: fn}
	m.pending = append(m.pending, s)
	return func() {
		m.mu.Lock()
		s.cancelled = true
		m.mu.Unlock()
	}
}

// fire runs every pending, non-cancelled callback.
func (m *manualScheduler) fire() {
	m.mu.Lock()
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()
	for _, s := range pending {
		if !s.cancelled {
			s.fn()
		}
	}
}

type stubRemote struct {
	payload game.Payload
	found   bool
	err     error
}

func (s *stubRemote) FetchGame(ctx context.Context, puzzleID string) (game.Payload, bool, error) {
	return s.payload, s.found, s.err
}

func open(t *testing.T, cfg Config) *Session {
	t.Helper()
	if cfg.Puzzle == nil {
		cfg.Puzzle = testPuzzle(4)
	}
	if cfg.Local == nil {
		cfg.Local = localstore.New(localstore.NewMemoryBackend(), "player-1")
	}
	if cfg.Clock == nil {
		cfg.Clock = &fakeClock{now: t0}
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = &manualScheduler{}
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(1))
	}
	s, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func selectGroup(s *Session, p *puzzle.Puzzle, gid string) {
	for _, b := range p.Group(gid).Blocks {
		s.SelectBlock(b)
	}
}

func TestOpen_FreshGame(t *testing.T) {
	p := testPuzzle(4)
	s := open(t, Config{Puzzle: p})

	snap := s.Snapshot()
	assert.False(t, snap.IsLoading)
	assert.False(t, snap.IsWon)
	assert.False(t, snap.IsGameOver)
	assert.Len(t, snap.Blocks, 16)
	assert.Empty(t, snap.Game.Attempts)
}

func TestOpen_PrefersCopyWithMoreAttempts(t *testing.T) {
	p := testPuzzle(4)
	ctx := context.Background()

	serverCopy := game.NewPayload()
	serverCopy.Attempts = [][]string{{"A1", "B1", "C1", "D1"}, {"A1", "A2", "B1", "B2"}}

	localCopy := game.NewPayload()
	localCopy.Attempts = append(serverCopy.Attempts, []string{"A1", "A2", "A3", "B4"})

	local := localstore.New(localstore.NewMemoryBackend(), "player-1")
	require.NoError(t, local.Save(ctx, p.ID, localCopy))

	s := open(t, Config{Puzzle: p, Local: local, Remote: &stubRemote{payload: serverCopy, found: true}})
	assert.Len(t, s.Snapshot().Game.Attempts, 3, "local copy recorded more progress")

	// On an exact tie the authoritative server copy wins.
	tied := serverCopy
	tied.Score = 7 // marker to tell the copies apart
	require.NoError(t, local.Save(ctx, p.ID, serverCopy))
	s2 := open(t, Config{Puzzle: p, Local: local, Remote: &stubRemote{payload: tied, found: true}})
	assert.Equal(t, 7, s2.Snapshot().Game.Score, "tie resolved in the server's favor")
}

func TestOpen_RemoteFailureFallsBackToLocal(t *testing.T) {
	p := testPuzzle(4)
	ctx := context.Background()

	localCopy := game.NewPayload()
	localCopy.Attempts = [][]string{{"A1", "B1", "C1", "D1"}}
	local := localstore.New(localstore.NewMemoryBackend(), "player-1")
	require.NoError(t, local.Save(ctx, p.ID, localCopy))

	s := open(t, Config{Puzzle: p, Local: local, Remote: &stubRemote{err: errors.New("transport down")}})
	assert.Len(t, s.Snapshot().Game.Attempts, 1)
}

func TestOpen_AutoResolvesAlmostFinishedGame(t *testing.T) {
	p := testPuzzle(4)
	ctx := context.Background()

	saved := game.NewPayload()
	saved.Attempts = [][]string{
		{"A1", "A2", "A3", "A4"},
		{"B1", "B2", "B3", "B4"},
		{"C1", "C2", "C3", "C4"},
	}
	saved.Correct = []string{"A", "B", "C"}
	saved.Score = 3
	local := localstore.New(localstore.NewMemoryBackend(), "player-1")
	require.NoError(t, local.Save(ctx, p.ID, saved))

	s := open(t, Config{Puzzle: p, Local: local})
	snap := s.Snapshot()
	assert.True(t, snap.IsWon, "one determined group left means the game is over")
	assert.Equal(t, 4, snap.Game.Score)
	assert.Len(t, snap.Game.Correct, 4)

	// The completed state was written back.
	persisted, ok, err := local.Load(ctx, p.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotNil(t, persisted.CompletedAt)
}

func TestSelectBlock_WrongRevealWindow(t *testing.T) {
	p := testPuzzle(4)
	sched := &manualScheduler{}
	local := localstore.New(localstore.NewMemoryBackend(), "player-1")
	s := open(t, Config{Puzzle: p, Local: local, Scheduler: sched})

	for _, b := range []puzzle.Block{
		p.Group("A").Blocks[0], p.Group("A").Blocks[1],
		p.Group("A").Blocks[2], p.Group("B").Blocks[0],
	} {
		s.SelectBlock(b)
	}

	snap := s.Snapshot()
	assert.Equal(t, 1, snap.WrongAttempts)
	assert.Len(t, snap.Game.Selected, 4, "missed selection stays visible")

	// Clicks during the reveal window are swallowed.
	s.SelectBlock(p.Group("C").Blocks[0])
	assert.Len(t, s.Snapshot().Game.Attempts, 1)

	sched.fire()
	snap = s.Snapshot()
	assert.Empty(t, snap.Game.Selected)
	assert.False(t, snap.Game.WrongOpen)

	// Input works again after the window.
	s.SelectBlock(p.Group("C").Blocks[0])
	assert.Len(t, s.Snapshot().Game.Selected, 1)

	// The attempt was persisted when it was recorded.
	persisted, ok, err := local.Load(context.Background(), p.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, persisted.Attempts, 1)
}

func TestClose_CancelsPendingRevealTimer(t *testing.T) {
	p := testPuzzle(4)
	sched := &manualScheduler{}
	s := open(t, Config{Puzzle: p, Scheduler: sched})

	for _, b := range []puzzle.Block{
		p.Group("A").Blocks[0], p.Group("A").Blocks[1],
		p.Group("A").Blocks[2], p.Group("B").Blocks[0],
	} {
		s.SelectBlock(b)
	}
	before := s.Snapshot()
	s.Close()
	sched.fire()

	after := s.Snapshot()
	assert.Equal(t, before.Game, after.Game, "a torn-down session never mutates state")

	s.SelectBlock(p.Group("C").Blocks[0])
	assert.Equal(t, before.Game, s.Snapshot().Game)
}

func TestPlayThrough_WinUpdatesFlagsAndOrder(t *testing.T) {
	p := testPuzzle(6)
	var notified int
	s := open(t, Config{Puzzle: p, OnChange: func(Snapshot) { notified++ }})

	selectGroup(s, p, "A")
	selectGroup(s, p, "B")
	selectGroup(s, p, "C")

	snap := s.Snapshot()
	assert.True(t, snap.IsWon)
	assert.False(t, snap.IsGameOver)
	assert.Equal(t, 4, snap.Game.Score)
	require.NotNil(t, snap.Game.CompletedAt)
	assert.Equal(t, t0, *snap.Game.CompletedAt)
	assert.Positive(t, notified)

	// Render order: solved rows pinned in solve order.
	ids := make([]string, 0, 8)
	for _, b := range snap.Blocks[:8] {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []string{"A1", "A2", "A3", "A4", "B1", "B2", "B3", "B4"}, ids)
}

func TestShuffle_KeepsSolvedGroupsPinned(t *testing.T) {
	p := testPuzzle(6)
	s := open(t, Config{Puzzle: p})
	selectGroup(s, p, "A")

	for i := 0; i < 10; i++ {
		s.Shuffle()
		blocks := s.Snapshot().Blocks
		require.Len(t, blocks, 16)
		for j, want := range []string{"A1", "A2", "A3", "A4"} {
			assert.Equal(t, want, blocks[j].ID, "shuffle %d", i)
		}
	}
}

func TestGiveUp_PersistsLoss(t *testing.T) {
	p := testPuzzle(4)
	local := localstore.New(localstore.NewMemoryBackend(), "player-1")
	s := open(t, Config{Puzzle: p, Local: local})

	s.GiveUp()
	snap := s.Snapshot()
	assert.True(t, snap.IsGameOver)
	assert.False(t, snap.IsWon)

	persisted, ok, err := local.Load(context.Background(), p.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, persisted.CompletedAt)
	assert.Equal(t, t0, *persisted.CompletedAt)

	// Further actions are no-ops.
	selectGroup(s, p, "A")
	assert.Empty(t, s.Snapshot().Game.Correct)
}

func TestSession_AdoptsFresherLocalCopy(t *testing.T) {
	p := testPuzzle(6)
	backend := localstore.NewMemoryBackend()
	tabA := open(t, Config{Puzzle: p, Local: localstore.New(backend, "player-1")})

	// A second session over the same backend makes progress.
	tabB := open(t, Config{Puzzle: p, Local: localstore.New(backend, "player-1")})
	selectGroup(tabB, p, "A")

	require.Eventually(t, func() bool {
		return len(tabA.Snapshot().Game.Correct) == 1
	}, 2*time.Second, 5*time.Millisecond, "tab A adopts tab B's saved progress")
	assert.Equal(t, []string{"A"}, tabA.Snapshot().Game.Correct)
}
