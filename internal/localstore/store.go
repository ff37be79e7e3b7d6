// internal/localstore/store.go
//
// The Local Persistence Store: one in-progress game payload per puzzle id,
// namespaced per player (or the anonymous namespace when there is no
// session). Values are compressed on write, validated on read, and every
// write is broadcast to subscribers so other store views of the same
// backend can refresh — the analogue of cross-tab storage events.

package localstore

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/connectgame/go-server/internal/game"
)

// AnonNamespace keys saved games when no player identity exists yet.
const AnonNamespace = "anonymous"

// Store is a validated, compressed view over one namespace of a Backend.
// Multiple Stores may share a Backend; writes through any of them notify
// the subscribers of all of them.
type Store struct {
	backend   Backend
	namespace string
	hub       *hub
}

// hub fans a change notification out to every Store sharing a backend.
type hub struct {
	mu   sync.Mutex
	next int
	subs map[int]func(namespace, puzzleID string)
}

var (
	hubsMu sync.Mutex
	hubs   = map[Backend]*hub{}
)

func hubFor(b Backend) *hub {
	hubsMu.Lock()
	defer hubsMu.Unlock()
	h, ok := hubs[b]
	if !ok {
		h = &hub{subs: map[int]func(string, string){}}
		hubs[b] = h
	}
	return h
}

// broadcast delivers asynchronously, like the browser storage events it
// stands in for: a subscriber may call back into the store (or the writer)
// without deadlocking.
func (h *hub) broadcast(namespace, puzzleID string) {
	h.mu.Lock()
	fns := make([]func(string, string), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.Unlock()
	go func() {
		for _, fn := range fns {
			fn(namespace, puzzleID)
		}
	}()
}

// New returns a Store over the given backend and namespace.
func New(backend Backend, namespace string) *Store {
	if namespace == "" {
		namespace = AnonNamespace
	}
	return &Store{backend: backend, namespace: namespace, hub: hubFor(backend)}
}

// Namespace reports which player's games this store holds.
func (s *Store) Namespace() string { return s.namespace }

// Save upserts the payload for a puzzle, overwriting any prior value.
func (s *Store) Save(ctx context.Context, puzzleID string, p game.Payload) error {
	b, err := encodePayload(p)
	if err != nil {
		return err
	}
	if err := s.backend.Put(ctx, s.namespace, puzzleID, b); err != nil {
		return err
	}
	s.hub.broadcast(s.namespace, puzzleID)
	return nil
}

// Remove deletes the entry for a puzzle, typically after a successful sync.
func (s *Store) Remove(ctx context.Context, puzzleID string) error {
	if err := s.backend.Delete(ctx, s.namespace, puzzleID); err != nil {
		return err
	}
	s.hub.broadcast(s.namespace, puzzleID)
	return nil
}

// Load returns the payload for one puzzle. A missing or corrupt entry is
// reported as absent via ok=false, never as an error the caller must
// distinguish; the stored bytes of a corrupt entry are not deleted.
func (s *Store) Load(ctx context.Context, puzzleID string) (game.Payload, bool, error) {
	b, err := s.backend.Get(ctx, s.namespace, puzzleID)
	if errors.Is(err, ErrNotFound) {
		return game.Payload{}, false, nil
	}
	if err != nil {
		return game.Payload{}, false, err
	}
	p, err := decodePayload(b)
	if err != nil {
		log.Debug().Str("puzzle", puzzleID).Err(err).Msg("dropping unreadable saved game")
		return game.Payload{}, false, nil
	}
	return p, true, nil
}

// LoadAll returns every readable saved game in the namespace. Entries that
// fail decompression or validation are silently dropped from the view;
// legacy data must never crash the loader.
func (s *Store) LoadAll(ctx context.Context) (map[string]game.Payload, error) {
	raw, err := s.backend.List(ctx, s.namespace)
	if err != nil {
		return nil, err
	}
	out := make(map[string]game.Payload, len(raw))
	for id, b := range raw {
		p, err := decodePayload(b)
		if err != nil {
			log.Debug().Str("puzzle", id).Err(err).Msg("dropping unreadable saved game")
			continue
		}
		out[id] = p
	}
	return out, nil
}

// Subscribe registers fn to run after every write or removal in this
// store's namespace, including ones made through other Stores over the same
// backend. The returned func unsubscribes; it is safe to call twice.
func (s *Store) Subscribe(fn func(puzzleID string)) func() {
	s.hub.mu.Lock()
	id := s.hub.next
	s.hub.next++
	ns := s.namespace
	s.hub.subs[id] = func(namespace, puzzleID string) {
		if namespace == ns {
			fn(puzzleID)
		}
	}
	s.hub.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.hub.mu.Lock()
			delete(s.hub.subs, id)
			s.hub.mu.Unlock()
		})
	}
}
