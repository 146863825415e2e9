package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/roach88/icetime/internal/ir"
)

// Format is an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// AllFormats lists every output encoding in write order.
var AllFormats = []Format{FormatJSON, FormatCSV}

// ParseFormats validates format names. An empty list selects AllFormats.
func ParseFormats(names []string) ([]Format, error) {
	if len(names) == 0 {
		return AllFormats, nil
	}
	seen := map[Format]bool{}
	var out []Format
	for _, n := range names {
		f := Format(n)
		if f != FormatJSON && f != FormatCSV {
			return nil, fmt.Errorf("unknown output format %q (want json or csv)", n)
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

// Store resolves paths below a data directory.
type Store struct {
	root string
}

// Open returns a Store rooted at dir. The directory must exist.
func Open(dir string) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("open data dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open data dir: %s is not a directory", dir)
	}
	return &Store{root: dir}, nil
}

// Root returns the data directory.
func (s *Store) Root() string {
	return s.root
}

func id(gameID int64) string {
	return strconv.FormatInt(gameID, 10)
}

// ShiftsPath is the shift chart for one side of a game.
func (s *Store) ShiftsPath(season string, gameID int64, side ir.Side) string {
	return filepath.Join(s.root, season, "shifts", fmt.Sprintf("%s_%s.json", id(gameID), side))
}

// PlaysPath is the play-by-play document of a game.
func (s *Store) PlaysPath(season string, gameID int64) string {
	return filepath.Join(s.root, season, "plays", id(gameID)+".json")
}

// BoxscorePath is the boxscore document of a game.
func (s *Store) BoxscorePath(season string, gameID int64) string {
	return filepath.Join(s.root, season, "boxscores", id(gameID)+".json")
}

// TimelinePath is where a generated timeline is written. Unverified
// timelines share one directory for both encodings.
func (s *Store) TimelinePath(season string, gameID int64, format Format, verified bool) string {
	dir := filepath.Join(s.root, season, "generated", "timelines")
	if verified {
		dir = filepath.Join(dir, string(format))
	} else {
		dir = filepath.Join(dir, "unverified")
	}
	return filepath.Join(dir, id(gameID)+"."+string(format))
}

// GameID builds the upstream game id {season start year}{type:02}{number:04}.
// The season is either both years ("20232024") or the start year alone
// ("2023").
func GameID(season string, gameType, number int) (int64, error) {
	start, err := seasonStartYear(season)
	if err != nil {
		return 0, err
	}
	if gameType < 1 || gameType > 99 {
		return 0, fmt.Errorf("game type %d out of range", gameType)
	}
	if number < 1 || number > 9999 {
		return 0, fmt.Errorf("game number %d out of range", number)
	}
	return int64(start)*1_000_000 + int64(gameType)*10_000 + int64(number), nil
}

// seasonStartYear returns the year a season partition starts in.
func seasonStartYear(season string) (int, error) {
	switch len(season) {
	case 4, 8:
	default:
		return 0, fmt.Errorf("season %q: want 20232024 or 2023", season)
	}
	start, err := strconv.Atoi(season[:4])
	if err != nil || start < 1000 {
		return 0, fmt.Errorf("season %q: start year is not a number", season)
	}
	if len(season) == 8 {
		end, err := strconv.Atoi(season[4:])
		if err != nil || end != start+1 {
			return 0, fmt.Errorf("season %q: second year must follow the first", season)
		}
	}
	return start, nil
}
