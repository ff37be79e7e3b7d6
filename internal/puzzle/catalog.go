// internal/puzzle/catalog.go
//
// Seed catalog for the puzzle source.
//
// Responsibilities:
//   - Load puzzle definitions from an environment-provided YAML file or fall
//     back to the embedded default catalog.
//   - Mint stable uuids for puzzles/groups/blocks that the YAML leaves out.
//   - Validate every definition before it is offered to the store.
//
// Initialization behavior (Load):
//   1. If PUZZLES_FILE is set, load definitions from that file.
//   2. Otherwise fall back to the embedded `seed_puzzles.yaml`.
//
// Ids are name-based uuids derived from the definition's content, so
// reloading an unchanged catalog reproduces the same ids and reseeding on
// every boot stays idempotent.
//
// Environment variables:
//   PUZZLES_FILE=/path/to/puzzles.yaml
//
// Constraints:
//   • Each definition must describe exactly 4 groups of 4 block values.
//   • Definitions failing Validate are rejected, failing the whole load
//     (a bad seed file is a deployment error, not a runtime condition).

package puzzle

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

//go:embed seed_puzzles.yaml
var embeddedCatalog []byte

// seedDef is the YAML shape of one puzzle definition. Ids are minted at load
// time; the file only carries content.
type seedDef struct {
	Difficulty  string `yaml:"difficulty"`
	MaxAttempts int    `yaml:"max_attempts"`
	CreatedBy   string `yaml:"created_by"`
	Groups      []struct {
		Description string   `yaml:"description"`
		Blocks      []string `yaml:"blocks"`
	} `yaml:"groups"`
}

type seedFile struct {
	Puzzles []seedDef `yaml:"puzzles"`
}

// Load reads the seed catalog and returns fully-formed, validated puzzles.
func Load(now time.Time) ([]Puzzle, error) {
	raw := embeddedCatalog
	if path := os.Getenv("PUZZLES_FILE"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		raw = b
	}
	return parseCatalog(raw, now)
}

func parseCatalog(raw []byte, now time.Time) ([]Puzzle, error) {
	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed catalog: %w", err)
	}
	if len(f.Puzzles) == 0 {
		return nil, fmt.Errorf("seed catalog is empty")
	}

	out := make([]Puzzle, 0, len(f.Puzzles))
	for i, def := range f.Puzzles {
		p := Puzzle{
			ID:          seedID("puzzle", def.CreatedBy, def.Difficulty, fmt.Sprint(i)),
			Difficulty:  def.Difficulty,
			MaxAttempts: def.MaxAttempts,
			CreatedBy:   def.CreatedBy,
			CreatedAt:   now,
		}
		for gi, gd := range def.Groups {
			g := Group{
				ID:          seedID("group", p.ID, gd.Description, fmt.Sprint(gi)),
				Description: gd.Description,
			}
			for bi, v := range gd.Blocks {
				g.Blocks = append(g.Blocks, Block{
					ID:            seedID("block", g.ID, v, fmt.Sprint(bi)),
					PuzzleGroupID: g.ID,
					Value:         v,
				})
			}
			p.Groups = append(p.Groups, g)
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("seed puzzle %d: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// seedID derives a stable name-based uuid from the parts that identify a
// catalog element.
func seedID(parts ...string) string {
	name := ""
	for _, p := range parts {
		name += p + "\x00"
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}
