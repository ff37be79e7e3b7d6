// internal/httpserver/server.go
//
// HTTP server wiring for the puzzle backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health".
//   - Puzzle endpoints: GET /puzzles, GET /puzzles/{puzzleID},
//     POST /puzzles/{puzzleID}/like.
//   - Saved-game endpoints (the remote game store the clients sync against):
//     GET /games/{puzzleID}, PUT /games/{puzzleID}.
//   - Anonymous player cookie: every caller gets a stable random id; it only
//     namespaces saved games and likes, it is not authentication.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so the cookie works).
//   - A missing saved game is a clean 404; clients must be able to tell
//     "not found" apart from a failed request.

package httpserver

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/connectgame/go-server/internal/game"
	"github.com/connectgame/go-server/internal/store"
)

const playerCookieName = "cg_player"

// Server bundles the router with the puzzle and game stores.
type Server struct {
	r       *chi.Mux
	puzzles store.PuzzleStore
	games   store.GameStore
}

// New constructs a Server, installs middleware, and registers routes.
func New(puzzles store.PuzzleStore, games store.GameStore) *Server {
	s := &Server{r: chi.NewRouter(), puzzles: puzzles, games: games}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(corsFromEnv)                     // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"connect-go","endpoints":["/health","GET /puzzles","GET /puzzles/{id}","POST /puzzles/{id}/like","GET /games/{puzzleId}","PUT /games/{puzzleId}"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	// Puzzles
	s.r.Get("/puzzles", s.handleListPuzzles)
	s.r.Get("/puzzles/{puzzleID}", s.handleGetPuzzle)
	s.r.Post("/puzzles/{puzzleID}/like", s.handleToggleLike)

	// Saved games (authoritative copies clients sync against)
	s.r.Get("/games/{puzzleID}", s.handleGetGame)
	s.r.Put("/games/{puzzleID}", s.handlePutGame)

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFromEnv enables credentialed CORS for a single origin.
// Uses CLIENT_ORIGIN env var; defaults to http://localhost:5173.
func corsFromEnv(next http.Handler) http.Handler {
	origin := os.Getenv("CLIENT_ORIGIN")
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Player-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------ identity ------------------------------------

// playerID returns a stable identifier for the caller: the X-Player-ID
// header when a non-browser client sets one, otherwise the player cookie,
// minted on first contact.
func (s *Server) playerID(w http.ResponseWriter, r *http.Request) string {
	if id := r.Header.Get("X-Player-ID"); id != "" {
		return id
	}
	if c, err := r.Cookie(playerCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := genID()
	http.SetCookie(w, &http.Cookie{
		Name:     playerCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   os.Getenv("APP_ENV") == "production",
		SameSite: func() http.SameSite {
			if os.Getenv("APP_ENV") == "production" {
				return http.SameSiteNoneMode
			}
			return http.SameSiteLaxMode
		}(),
		Expires: time.Now().Add(180 * 24 * time.Hour),
	})
	return id
}

// genID returns a compact 16-hex-char identifier.
func genID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// ------------------------------ puzzles -------------------------------------

func (s *Server) handleListPuzzles(w http.ResponseWriter, r *http.Request) {
	ps, err := s.puzzles.ListPuzzles(r.Context(), s.playerID(w, r))
	if err != nil {
		log.Error().Err(err).Msg("list puzzles")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(ps)
}

func (s *Server) handleGetPuzzle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "puzzleID")
	p, err := s.puzzles.GetPuzzle(r.Context(), id, s.playerID(w, r))
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("puzzle", id).Msg("get puzzle")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(p)
}

func (s *Server) handleToggleLike(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "puzzleID")
	p, err := s.puzzles.ToggleLike(r.Context(), id, s.playerID(w, r))
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("puzzle", id).Msg("toggle like")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(p)
}

// ------------------------------ saved games ---------------------------------

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	puzzleID := chi.URLParam(r, "puzzleID")
	p, err := s.games.GetGame(r.Context(), s.playerID(w, r), puzzleID)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("puzzle", puzzleID).Msg("get game")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(p)
}

func (s *Server) handlePutGame(w http.ResponseWriter, r *http.Request) {
	puzzleID := chi.URLParam(r, "puzzleID")
	var p game.Payload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	if err := p.Validate(); err != nil {
		http.Error(w, `{"error":"invalid_payload"}`, http.StatusUnprocessableEntity)
		return
	}
	// The saved game is only meaningful for a puzzle that exists.
	if _, err := s.puzzles.GetPuzzle(r.Context(), puzzleID, ""); errors.Is(err, store.ErrNotFound) {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	} else if err != nil {
		log.Error().Err(err).Str("puzzle", puzzleID).Msg("check puzzle")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	if err := s.games.SaveGame(r.Context(), s.playerID(w, r), puzzleID, p); err != nil {
		log.Error().Err(err).Str("puzzle", puzzleID).Msg("save game")
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
