package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/connectgame/go-server/internal/httpserver"
	"github.com/connectgame/go-server/internal/puzzle"
	"github.com/connectgame/go-server/internal/store"
	"os"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	db, err := openDB(getEnv("DB_PATH", "./data/app.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	if err := migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	st := store.NewSQLite(db)
	if err := seedPuzzles(st); err != nil {
		log.Fatal().Err(err).Msg("failed to seed puzzle catalog")
	}

	srv := httpserver.New(st, st)
	port := getEnv("PORT", "5175")
	log.Info().Str("port", port).Msg("starting go-server")
	if err := srv.Start(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

// seedPuzzles loads the catalog into the store. Existing rows are kept
// (inserts are INSERT OR IGNORE), so reseeding on every boot is harmless
// when a fixed catalog file carries stable content.
func seedPuzzles(st store.PuzzleStore) error {
	ps, err := puzzle.Load(time.Now().UTC())
	if err != nil {
		return err
	}
	ctx := context.Background()
	for _, p := range ps {
		if err := st.PutPuzzle(ctx, p); err != nil {
			return err
		}
	}
	log.Info().Int("puzzles", len(ps)).Msg("seed catalog loaded")
	return nil
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" { return v }
	return def
}
