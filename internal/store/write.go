package store

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/roach88/icetime/internal/ir"
	"github.com/roach88/icetime/internal/source"
	"github.com/roach88/icetime/internal/timeline"
)

// WriteTimeline writes tl in each requested format and returns the paths
// written. Verified timelines go to the per-format directories; unverified
// ones are written only when keepUnverified is set. Outputs left by an
// earlier run with the opposite verdict are removed first.
func (s *Store) WriteTimeline(season string, tl *timeline.Timeline, formats []Format, keepUnverified bool) ([]string, error) {
	if err := s.removeTimelines(season, tl.Info.GameID, !tl.Verified); err != nil {
		return nil, err
	}
	if !tl.Verified && !keepUnverified {
		return nil, nil
	}
	var written []string
	for _, f := range formats {
		var buf bytes.Buffer
		var err error
		switch f {
		case FormatJSON:
			err = timeline.EncodeJSON(&buf, tl)
		case FormatCSV:
			err = timeline.EncodeCSV(&buf, tl)
		default:
			err = fmt.Errorf("unknown output format %q", f)
		}
		if err != nil {
			return written, fmt.Errorf("write timeline %d: %w", tl.Info.GameID, err)
		}

		path := s.TimelinePath(season, tl.Info.GameID, f, tl.Verified)
		if err := writeAtomic(path, buf.Bytes()); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// removeTimelines deletes every encoding of a game's timeline from the
// verified or unverified directory.
func (s *Store) removeTimelines(season string, gameID int64, verified bool) error {
	for _, f := range AllFormats {
		path := s.TimelinePath(season, gameID, f, verified)
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove stale timeline: %w", err)
		}
	}
	return nil
}

// writeAtomic stages data beside path and renames it into place.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("stage %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("stage %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("stage %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("stage %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}

// WriteInputs writes raw documents into the layout. It is used to seed data
// directories for tests and scenarios.
func (s *Store) WriteInputs(season string, gameID int64, docs source.Documents) error {
	for path, data := range map[string][]byte{
		s.ShiftsPath(season, gameID, ir.SideHome): docs.HomeShifts,
		s.ShiftsPath(season, gameID, ir.SideAway): docs.AwayShifts,
		s.PlaysPath(season, gameID):               docs.PlayByPlay,
		s.BoxscorePath(season, gameID):            docs.Boxscore,
	} {
		if data == nil {
			continue
		}
		if err := writeAtomic(path, data); err != nil {
			return err
		}
	}
	return nil
}

