package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/icetime/internal/engine"
	"github.com/roach88/icetime/internal/ir"
	"github.com/roach88/icetime/internal/source"
)

// inputPaths lists the raw documents of a game in load order.
func (s *Store) inputPaths(season string, gameID int64) []string {
	return []string{
		s.ShiftsPath(season, gameID, ir.SideHome),
		s.ShiftsPath(season, gameID, ir.SideAway),
		s.PlaysPath(season, gameID),
		s.BoxscorePath(season, gameID),
	}
}

// errEmptyInput marks a raw document that exists but holds no bytes.
var errEmptyInput = errors.New("file is empty")

// LoadDocuments reads the four raw documents of a game. A missing or empty
// file is reported as a MISSING_INPUT game error naming its path.
func (s *Store) LoadDocuments(season string, gameID int64) (source.Documents, error) {
	var docs source.Documents
	dsts := []*[]byte{&docs.HomeShifts, &docs.AwayShifts, &docs.PlayByPlay, &docs.Boxscore}
	for i, path := range s.inputPaths(season, gameID) {
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			return source.Documents{}, engine.NewMissingInputError(gameID, path, err)
		}
		if err != nil {
			return source.Documents{}, fmt.Errorf("read %s: %w", path, err)
		}
		if len(data) == 0 {
			return source.Documents{}, engine.NewMissingInputError(gameID, path, errEmptyInput)
		}
		*dsts[i] = data
	}
	return docs, nil
}

// MissingInputs lists the raw document paths of a game that do not exist
// or are empty.
func (s *Store) MissingInputs(season string, gameID int64) []string {
	var missing []string
	for _, p := range s.inputPaths(season, gameID) {
		if info, err := os.Stat(p); err != nil || info.Size() == 0 {
			missing = append(missing, p)
		}
	}
	return missing
}

// ReadTimeline returns a written timeline encoding.
func (s *Store) ReadTimeline(season string, gameID int64, format Format, verified bool) ([]byte, error) {
	path := s.TimelinePath(season, gameID, format, verified)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read timeline: %w", err)
	}
	return data, nil
}

// Inventory lists the ids of games with a play-by-play document in season,
// in ascending order.
func (s *Store) Inventory(season string) ([]int64, error) {
	dir := filepath.Join(s.root, season, "plays")
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var ids []int64
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), ".json")
		if e.IsDir() || !ok {
			continue
		}
		gameID, err := strconv.ParseInt(name, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, gameID)
	}
	slices.Sort(ids)
	return ids, nil
}
