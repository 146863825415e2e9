package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/roach88/icetime/internal/engine"
	"github.com/roach88/icetime/internal/ir"
	"github.com/roach88/icetime/internal/source"
	"github.com/roach88/icetime/internal/testutil"
)

const season = "20232024"

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	return s
}

func TestOpen_RequiresDirectory(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("Open() on a missing directory should fail")
	}

	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(file); err == nil {
		t.Error("Open() on a regular file should fail")
	}
}

func TestPaths(t *testing.T) {
	s := &Store{root: "data"}
	tests := []struct {
		got, want string
	}{
		{s.ShiftsPath(season, 2023020001, ir.SideHome), "data/20232024/shifts/2023020001_home.json"},
		{s.ShiftsPath(season, 2023020001, ir.SideAway), "data/20232024/shifts/2023020001_away.json"},
		{s.PlaysPath(season, 2023020001), "data/20232024/plays/2023020001.json"},
		{s.BoxscorePath(season, 2023020001), "data/20232024/boxscores/2023020001.json"},
		{s.TimelinePath(season, 2023020001, FormatJSON, true), "data/20232024/generated/timelines/json/2023020001.json"},
		{s.TimelinePath(season, 2023020001, FormatCSV, true), "data/20232024/generated/timelines/csv/2023020001.csv"},
		{s.TimelinePath(season, 2023020001, FormatCSV, false), "data/20232024/generated/timelines/unverified/2023020001.csv"},
	}
	for _, tt := range tests {
		if filepath.ToSlash(tt.got) != tt.want {
			t.Errorf("got %s, want %s", tt.got, tt.want)
		}
	}
}

func TestGameID(t *testing.T) {
	tests := []struct {
		name     string
		season   string
		gameType int
		number   int
		want     int64
		wantErr  bool
	}{
		{"two-year season", season, 2, 1, 2023020001, false},
		{"two-year playoffs", season, 3, 417, 2023030417, false},
		{"start-year season", "2025", 2, 591, 2025020591, false},
		{"start-year matches two-year", "2023", 2, 1, 2023020001, false},
		{"years not consecutive", "20232025", 2, 1, 0, true},
		{"six digits", "202324", 2, 1, 0, true},
		{"not a number", "abcd", 2, 1, 0, true},
		{"game type zero", season, 0, 1, 0, true},
		{"game number zero", season, 2, 0, 0, true},
		{"game number too large", "2023", 2, 10000, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GameID(tt.season, tt.gameType, tt.number)
			if tt.wantErr {
				if err == nil {
					t.Errorf("GameID(%q, %d, %d) = %d, want error", tt.season, tt.gameType, tt.number, got)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("GameID(%q, %d, %d) = %d, %v; want %d", tt.season, tt.gameType, tt.number, got, err, tt.want)
			}
		})
	}
}

func TestParseFormats(t *testing.T) {
	all, err := ParseFormats(nil)
	if err != nil || len(all) != 2 {
		t.Fatalf("ParseFormats(nil) = %v, %v", all, err)
	}
	got, err := ParseFormats([]string{"csv", "csv"})
	if err != nil || len(got) != 1 || got[0] != FormatCSV {
		t.Errorf("ParseFormats(csv, csv) = %v, %v", got, err)
	}
	if _, err := ParseFormats([]string{"xml"}); err == nil {
		t.Error("ParseFormats(xml) should fail")
	}
}

func TestLoadDocuments_RoundTrip(t *testing.T) {
	s := openTemp(t)
	b := testutil.NewGame(20232024, 2, 1).StandardRosters().Lineup(1).Period(1)
	docs := source.Documents(b.Documents())
	if err := s.WriteInputs(season, b.GameID(), docs); err != nil {
		t.Fatalf("WriteInputs() failed: %v", err)
	}

	got, err := s.LoadDocuments(season, b.GameID())
	if err != nil {
		t.Fatalf("LoadDocuments() failed: %v", err)
	}
	if string(got.PlayByPlay) != string(docs.PlayByPlay) || string(got.AwayShifts) != string(docs.AwayShifts) {
		t.Error("loaded documents differ from written ones")
	}
	if missing := s.MissingInputs(season, b.GameID()); len(missing) != 0 {
		t.Errorf("MissingInputs() = %v, want none", missing)
	}
}

func TestLoadDocuments_Missing(t *testing.T) {
	s := openTemp(t)
	b := testutil.NewGame(20232024, 2, 1).StandardRosters()
	docs := source.Documents(b.Documents())
	docs.Boxscore = nil
	if err := s.WriteInputs(season, b.GameID(), docs); err != nil {
		t.Fatal(err)
	}

	_, err := s.LoadDocuments(season, b.GameID())
	if !engine.IsMissingInputError(err) {
		t.Fatalf("LoadDocuments() error = %v, want MISSING_INPUT", err)
	}
	missing := s.MissingInputs(season, b.GameID())
	if len(missing) != 1 || missing[0] != s.BoxscorePath(season, b.GameID()) {
		t.Errorf("MissingInputs() = %v", missing)
	}
}

func TestLoadDocuments_EmptyFile(t *testing.T) {
	s := openTemp(t)
	b := testutil.NewGame(20232024, 2, 1).StandardRosters()
	docs := source.Documents(b.Documents())
	docs.PlayByPlay = []byte{}
	if err := s.WriteInputs(season, b.GameID(), docs); err != nil {
		t.Fatal(err)
	}

	_, err := s.LoadDocuments(season, b.GameID())
	if !engine.IsMissingInputError(err) {
		t.Fatalf("LoadDocuments() error = %v, want MISSING_INPUT", err)
	}
	missing := s.MissingInputs(season, b.GameID())
	if len(missing) != 1 || missing[0] != s.PlaysPath(season, b.GameID()) {
		t.Errorf("MissingInputs() = %v, want the empty play-by-play", missing)
	}
}

func TestInventory(t *testing.T) {
	s := openTemp(t)
	for _, n := range []int{3, 1, 2} {
		b := testutil.NewGame(20232024, 2, n)
		if err := s.WriteInputs(season, b.GameID(), source.Documents{PlayByPlay: []byte("{}")}); err != nil {
			t.Fatal(err)
		}
	}
	stray := filepath.Join(s.Root(), season, "plays", "notes.txt")
	if err := os.WriteFile(stray, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	ids, err := s.Inventory(season)
	if err != nil {
		t.Fatalf("Inventory() failed: %v", err)
	}
	want := []int64{2023020001, 2023020002, 2023020003}
	if len(ids) != len(want) {
		t.Fatalf("Inventory() = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("Inventory()[%d] = %d, want %d", i, ids[i], want[i])
		}
	}

	empty, err := s.Inventory("19992000")
	if err != nil || len(empty) != 0 {
		t.Errorf("Inventory() on an empty season = %v, %v", empty, err)
	}
}

func TestWriteTimeline(t *testing.T) {
	s := openTemp(t)
	b := testutil.NewGame(20232024, 2, 1).StandardRosters().Lineup(1).Period(1)
	e, err := engine.New()
	if err != nil {
		t.Fatal(err)
	}
	res, err := e.ReconstructDocuments(source.Documents(b.Documents()))
	if err != nil {
		t.Fatalf("ReconstructDocuments() failed: %v", err)
	}

	paths, err := s.WriteTimeline(season, res.Timeline, AllFormats, false)
	if err != nil {
		t.Fatalf("WriteTimeline() failed: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("WriteTimeline() wrote %v", paths)
	}
	data, err := s.ReadTimeline(season, b.GameID(), FormatJSON, true)
	if err != nil {
		t.Fatalf("ReadTimeline() failed: %v", err)
	}
	doc, err := timelineDocument(data)
	if err != nil {
		t.Fatal(err)
	}
	if doc != res.Timeline.Digest {
		t.Errorf("written digest %s, want %s", doc, res.Timeline.Digest)
	}

	leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(paths[0]), ".*"))
	if len(leftovers) != 0 {
		t.Errorf("staging files left behind: %v", leftovers)
	}
}

func TestWriteTimeline_Unverified(t *testing.T) {
	s := openTemp(t)
	b := testutil.NewGame(20232024, 2, 1).StandardRosters().Lineup(1).Period(1).ReportTOI(2, 10)
	e, err := engine.New()
	if err != nil {
		t.Fatal(err)
	}
	res, err := e.ReconstructDocuments(source.Documents(b.Documents()))
	if !engine.IsReconciliationError(err) {
		t.Fatalf("want reconciliation failure, got %v", err)
	}

	paths, err := s.WriteTimeline(season, res.Timeline, AllFormats, false)
	if err != nil || len(paths) != 0 {
		t.Fatalf("unverified timeline written without keep flag: %v, %v", paths, err)
	}

	paths, err = s.WriteTimeline(season, res.Timeline, []Format{FormatCSV}, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 1 || paths[0] != s.TimelinePath(season, b.GameID(), FormatCSV, false) {
		t.Errorf("WriteTimeline() = %v", paths)
	}
}

func TestWriteTimeline_ReplacesOppositeVerdict(t *testing.T) {
	s := openTemp(t)
	e, err := engine.New()
	if err != nil {
		t.Fatal(err)
	}
	good := testutil.NewGame(20232024, 2, 1).StandardRosters().Lineup(1).Period(1)
	verified, err := e.ReconstructDocuments(source.Documents(good.Documents()))
	if err != nil {
		t.Fatal(err)
	}
	bad := testutil.NewGame(20232024, 2, 1).StandardRosters().Lineup(1).Period(1).ReportTOI(2, 10)
	unverified, _ := e.ReconstructDocuments(source.Documents(bad.Documents()))
	if unverified == nil || unverified.Timeline.Verified {
		t.Fatal("want an unverified timeline")
	}

	exists := func(format Format, verified bool) bool {
		_, err := os.Stat(s.TimelinePath(season, good.GameID(), format, verified))
		return err == nil
	}

	if _, err := s.WriteTimeline(season, verified.Timeline, AllFormats, false); err != nil {
		t.Fatal(err)
	}
	if _, err := s.WriteTimeline(season, unverified.Timeline, AllFormats, false); err != nil {
		t.Fatal(err)
	}
	for _, f := range AllFormats {
		if exists(f, true) {
			t.Errorf("stale verified %s output left after an unverified run", f)
		}
	}

	if _, err := s.WriteTimeline(season, unverified.Timeline, AllFormats, true); err != nil {
		t.Fatal(err)
	}
	if _, err := s.WriteTimeline(season, verified.Timeline, []Format{FormatJSON}, false); err != nil {
		t.Fatal(err)
	}
	for _, f := range AllFormats {
		if exists(f, false) {
			t.Errorf("stale unverified %s output left after a verified run", f)
		}
	}
	if !exists(FormatJSON, true) {
		t.Error("verified JSON output missing")
	}
}
