package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/icetime/internal/ir"
	"github.com/roach88/icetime/internal/source"
	"github.com/roach88/icetime/internal/store"
	"github.com/roach88/icetime/internal/testutil"
)

const testSeason = "20232024"

func minorGame(number int) *testutil.GameBuilder {
	return testutil.NewGame(20232024, 2, number).
		StandardRosters().
		Lineup(1).
		Period(1).
		Penalty(ir.SideHome, 1, 100, 2, "MIN", 2)
}

// seedDataDir writes game 1 (verifies), game 2 (fails reconciliation) and
// game 3 (broken play-by-play). Game 4 has no inputs.
func seedDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(dir)
	require.NoError(t, err)

	write := func(b *testutil.GameBuilder, mutate func(*source.Documents)) {
		docs := source.Documents(b.Documents())
		if mutate != nil {
			mutate(&docs)
		}
		require.NoError(t, st.WriteInputs(testSeason, b.GameID(), docs))
	}
	write(minorGame(1), nil)
	write(minorGame(2).ReportTOI(3, 1195), nil)
	write(minorGame(3), func(d *source.Documents) { d.PlayByPlay = []byte(`{"id": `) })
	return dir
}

// execute runs the root command against dataDir and returns stdout.
func execute(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("ICETIME_CONFIG", "")

	cmd := NewRootCommand()
	stdout := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--data-dir", dataDir, "--season", testSeason}, args...))

	err := cmd.Execute()
	return stdout.String(), err
}

type envelope[T any] struct {
	Status string    `json:"status"`
	Data   T         `json:"data"`
	Error  *CLIError `json:"error"`
	RunID  string    `json:"run_id"`
}

func decode[T any](t *testing.T, out string) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal([]byte(out), &env), out)
	return env
}

func timelinePath(dir string, number int, format store.Format, verified bool) string {
	st, _ := store.Open(dir)
	id, _ := store.GameID(testSeason, 2, number)
	return st.TimelinePath(testSeason, id, format, verified)
}

func TestGenerate(t *testing.T) {
	t.Run("verified game writes every format", func(t *testing.T) {
		dir := seedDataDir(t)
		out, err := execute(t, dir, "generate", "1")
		require.NoError(t, err)
		assert.Contains(t, out, "Game 2023020001: verified (1201 seconds")

		assert.FileExists(t, timelinePath(dir, 1, store.FormatJSON, true))
		assert.FileExists(t, timelinePath(dir, 1, store.FormatCSV, true))
	})

	t.Run("--formats limits the outputs", func(t *testing.T) {
		dir := seedDataDir(t)
		_, err := execute(t, dir, "generate", "--game-id", "2023020001", "--formats", "csv")
		require.NoError(t, err)

		assert.FileExists(t, timelinePath(dir, 1, store.FormatCSV, true))
		assert.NoFileExists(t, timelinePath(dir, 1, store.FormatJSON, true))
	})

	t.Run("unverified game exits 1 and writes nothing", func(t *testing.T) {
		dir := seedDataDir(t)
		out, err := execute(t, dir, "--format", "json", "generate", "2")
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))

		env := decode[GenerateResult](t, out)
		assert.Equal(t, "error", env.Status)
		require.NotNil(t, env.Error)
		assert.Equal(t, "RECONCILIATION_FAILED", env.Error.Code)
		assert.Equal(t, "unverified", env.Data.Status)
		require.Len(t, env.Data.Mismatches, 1)
		assert.Equal(t, ir.PlayerID(3), env.Data.Mismatches[0].PlayerID)
		assert.Empty(t, env.Data.Paths)
		assert.NoFileExists(t, timelinePath(dir, 2, store.FormatJSON, false))
	})

	t.Run("--keep-unverified writes to the unverified directory", func(t *testing.T) {
		dir := seedDataDir(t)
		_, err := execute(t, dir, "generate", "2", "--keep-unverified")
		assert.Equal(t, ExitFailure, GetExitCode(err))

		assert.FileExists(t, timelinePath(dir, 2, store.FormatJSON, false))
		assert.NoFileExists(t, timelinePath(dir, 2, store.FormatJSON, true))
	})

	t.Run("malformed input exits 1", func(t *testing.T) {
		out, err := execute(t, seedDataDir(t), "generate", "3")
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.Contains(t, out, "Error [MALFORMED_INPUT]")
	})

	t.Run("missing input exits 2", func(t *testing.T) {
		out, err := execute(t, seedDataDir(t), "generate", "4")
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, out, "Error [MISSING_INPUT]")
	})

	t.Run("argument errors exit 2", func(t *testing.T) {
		dir := seedDataDir(t)
		for _, args := range [][]string{
			{"generate"},
			{"generate", "1", "--game-id", "2023020001"},
			{"generate", "first"},
			{"generate", "1", "--formats", "xml"},
			{"generate", "1", "--game-type", "0"},
		} {
			_, err := execute(t, dir, args...)
			assert.Equal(t, ExitCommandError, GetExitCode(err), "%v", args)
		}
	})
}

func TestGenerate_StartYearSeason(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(dir)
	require.NoError(t, err)
	b := testutil.NewGame(20252026, 2, 591).StandardRosters().Lineup(1).Period(1)
	require.Equal(t, int64(2025020591), b.GameID())
	require.NoError(t, st.WriteInputs("2025", b.GameID(), source.Documents(b.Documents())))

	out, err := execute(t, dir, "--season", "2025", "generate", "591")
	require.NoError(t, err)
	assert.Contains(t, out, "Game 2025020591: verified")
	assert.FileExists(t, st.TimelinePath("2025", b.GameID(), store.FormatJSON, true))

	out, err = execute(t, dir, "--season", "2025", "--format", "json", "batch", "--from", "591", "--to", "591")
	require.NoError(t, err)
	r := decode[BatchResult](t, out).Data
	assert.Equal(t, 1, r.Verified)
}

func TestGenerate_ConfigFile(t *testing.T) {
	dir := seedDataDir(t)
	cfgPath := filepath.Join(t.TempDir(), "icetime.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("data_dir: "+dir+"\nseason: \"20232024\"\nformats: [json]\n"), 0o644))

	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", cfgPath, "generate", "1"})
	require.NoError(t, cmd.Execute())

	assert.FileExists(t, timelinePath(dir, 1, store.FormatJSON, true))
	assert.NoFileExists(t, timelinePath(dir, 1, store.FormatCSV, true))
}

func TestBatch(t *testing.T) {
	t.Run("range reports every game", func(t *testing.T) {
		dir := seedDataDir(t)
		metricsFile := filepath.Join(t.TempDir(), "batch.prom")

		out, err := execute(t, dir, "--format", "json", "batch", "--from", "1", "--to", "4", "--workers", "2", "--metrics-file", metricsFile)
		assert.Equal(t, ExitFailure, GetExitCode(err))

		env := decode[BatchResult](t, out)
		assert.Equal(t, "error", env.Status)
		assert.Equal(t, ErrCodeBatchFailed, env.Error.Code)
		assert.NotEmpty(t, env.RunID)
		assert.Equal(t, env.RunID, env.Data.RunID)

		r := env.Data
		assert.Equal(t, 4, r.Total)
		assert.Equal(t, 1, r.Verified)
		assert.Equal(t, 1, r.Unverified)
		assert.Equal(t, 1, r.Failed)
		assert.Equal(t, 1, r.Missing)
		assert.Zero(t, r.Skipped)
		require.Len(t, r.Games, 4)

		codes := map[int64]string{}
		for _, g := range r.Games {
			codes[g.GameID] = g.ErrorCode
		}
		assert.Equal(t, "", codes[2023020001])
		assert.Equal(t, "RECONCILIATION_FAILED", codes[2023020002])
		assert.Equal(t, "MALFORMED_INPUT", codes[2023020003])
		assert.Equal(t, "MISSING_INPUT", codes[2023020004])

		prom, err := os.ReadFile(metricsFile)
		require.NoError(t, err)
		assert.Contains(t, string(prom), "icetime_batch_games_total")
		assert.Contains(t, string(prom), "icetime_batch_workers 2")
	})

	t.Run("inventory of verified games succeeds", func(t *testing.T) {
		dir := t.TempDir()
		st, err := store.Open(dir)
		require.NoError(t, err)
		for _, n := range []int{1, 5} {
			b := minorGame(n)
			require.NoError(t, st.WriteInputs(testSeason, b.GameID(), source.Documents(b.Documents())))
		}

		out, err := execute(t, dir, "batch")
		require.NoError(t, err)
		assert.Contains(t, out, "✓ 2023020001 verified")
		assert.Contains(t, out, "✓ 2023020005 verified")
		assert.Contains(t, out, "Batch Summary: 2 verified, 0 unverified, 0 failed, 0 missing, 0 skipped, 2 total")
	})

	t.Run("empty inventory exits 2", func(t *testing.T) {
		_, err := execute(t, t.TempDir(), "batch")
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})

	t.Run("bad range exits 2", func(t *testing.T) {
		_, err := execute(t, seedDataDir(t), "batch", "--from", "5", "--to", "2")
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})
}

func TestValidate(t *testing.T) {
	dir := seedDataDir(t)

	t.Run("single valid game", func(t *testing.T) {
		out, err := execute(t, dir, "validate", "1")
		require.NoError(t, err)
		assert.Contains(t, out, "✓ 2023020001")
		assert.Contains(t, out, "1 valid, 0 invalid, 1 total")
	})

	t.Run("range reports missing and malformed inputs", func(t *testing.T) {
		out, err := execute(t, dir, "--format", "json", "validate", "--from", "1", "--to", "4")
		assert.Equal(t, ExitFailure, GetExitCode(err))

		env := decode[ValidationResult](t, out)
		assert.Equal(t, ErrCodeInvalid, env.Error.Code)
		r := env.Data
		assert.False(t, r.Valid)
		assert.Equal(t, 2, r.Invalid)
		require.Len(t, r.Games, 4)

		assert.True(t, r.Games[0].Valid)
		// Inputs of game 2 are well formed; only reconstruction fails it.
		assert.True(t, r.Games[1].Valid)
		assert.False(t, r.Games[2].Valid)
		assert.Equal(t, "MALFORMED_INPUT", r.Games[2].Code)
		assert.False(t, r.Games[3].Valid)
		assert.Equal(t, "MISSING_INPUT", r.Games[3].Code)
		assert.Len(t, r.Games[3].Missing, 4)
	})

	t.Run("empty input counts as missing", func(t *testing.T) {
		st, err := store.Open(dir)
		require.NoError(t, err)
		id, err := store.GameID(testSeason, 2, 5)
		require.NoError(t, err)
		docs := source.Documents(minorGame(5).Documents())
		docs.Boxscore = []byte{}
		require.NoError(t, st.WriteInputs(testSeason, id, docs))

		out, err := execute(t, dir, "--format", "json", "validate", "5")
		assert.Equal(t, ExitFailure, GetExitCode(err))

		r := decode[ValidationResult](t, out).Data
		require.Len(t, r.Games, 1)
		assert.Equal(t, "MISSING_INPUT", r.Games[0].Code)
		assert.Equal(t, []string{st.BoxscorePath(testSeason, id)}, r.Games[0].Missing)
	})
}

func TestReplay(t *testing.T) {
	t.Run("written timeline reproduces", func(t *testing.T) {
		dir := seedDataDir(t)
		_, err := execute(t, dir, "generate", "1")
		require.NoError(t, err)

		out, err := execute(t, dir, "--format", "json", "replay", "1")
		require.NoError(t, err)

		env := decode[ReplayResult](t, out)
		assert.Equal(t, "ok", env.Status)
		assert.True(t, env.Data.Identical)
		assert.True(t, env.Data.DigestMatch)
		assert.True(t, env.Data.EventsMatch)
		assert.True(t, env.Data.SelfConsistent)
		assert.True(t, env.Data.SchemaValid)
		assert.Equal(t, -1, env.Data.FirstDivergence)
	})

	t.Run("unverified timeline reproduces with --unverified", func(t *testing.T) {
		dir := seedDataDir(t)
		_, _ = execute(t, dir, "generate", "2", "--keep-unverified")

		out, err := execute(t, dir, "replay", "2", "--unverified")
		require.NoError(t, err)
		assert.Contains(t, out, "byte identical:  true")
	})

	t.Run("edited timeline fails", func(t *testing.T) {
		dir := seedDataDir(t)
		_, err := execute(t, dir, "generate", "1")
		require.NoError(t, err)

		path := timelinePath(dir, 1, store.FormatJSON, true)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var doc map[string]any
		require.NoError(t, json.Unmarshal(data, &doc))
		doc["digest"] = "0000"
		edited, err := json.Marshal(doc)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, edited, 0o644))

		out, err := execute(t, dir, "replay", "1")
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.Contains(t, out, "✗ 2023020001")
		assert.Contains(t, out, "digest match:    false")
	})

	t.Run("edited events digest fails", func(t *testing.T) {
		dir := seedDataDir(t)
		_, err := execute(t, dir, "generate", "1")
		require.NoError(t, err)

		path := timelinePath(dir, 1, store.FormatJSON, true)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var doc map[string]any
		require.NoError(t, json.Unmarshal(data, &doc))
		doc["eventsDigest"] = strings.Repeat("0", 64)
		edited, err := json.Marshal(doc)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, edited, 0o644))

		out, err := execute(t, dir, "replay", "1")
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.Contains(t, out, "digest match:    true")
		assert.Contains(t, out, "events match:    false")
		assert.Contains(t, out, "self consistent: false")
	})

	t.Run("no written timeline exits 2", func(t *testing.T) {
		_, err := execute(t, seedDataDir(t), "replay", "1")
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})
}

const harnessScenarios = "../harness/testdata/scenarios"

func TestTestCommand(t *testing.T) {
	t.Run("checked-in scenarios pass", func(t *testing.T) {
		out, err := execute(t, t.TempDir(), "test", harnessScenarios)
		require.NoError(t, err, out)
		assert.Contains(t, out, "✓ single_minor")
		assert.Contains(t, out, "0 failed")
		assert.Contains(t, out, "✓ All scenarios passed")
	})

	t.Run("filter and json output", func(t *testing.T) {
		out, err := execute(t, t.TempDir(), "--format", "json", "test", harnessScenarios, "--filter", "single_*")
		require.NoError(t, err)

		env := decode[struct {
			Total  int `json:"total"`
			Passed int `json:"passed"`
		}](t, out)
		assert.Equal(t, "ok", env.Status)
		assert.Equal(t, 1, env.Data.Total)
		assert.Equal(t, 1, env.Data.Passed)
	})

	t.Run("failing scenario exits 1", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "scenarios")
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong.yaml"), []byte(`
name: wrong
description: "expects a penalty that never happens"
game:
  season: 20232024
  game_type: 2
  number: 1
  standard_rosters: true
  lineups: [1]
  periods: [1]
expect:
  status: verified
assertions:
  - { type: event_count, event: penalty-expired, count: 1 }
`), 0o644))

		out, err := execute(t, t.TempDir(), "--format", "json", "test", dir)
		assert.Equal(t, ExitFailure, GetExitCode(err))
		env := decode[json.RawMessage](t, out)
		assert.Equal(t, ErrCodeTestFailed, env.Error.Code)
	})

	t.Run("--update writes golden files beside the scenarios", func(t *testing.T) {
		root := t.TempDir()
		dir := filepath.Join(root, "scenarios")
		require.NoError(t, os.MkdirAll(dir, 0o755))
		src, err := os.ReadFile(filepath.Join(harnessScenarios, "single_minor.yaml"))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "single_minor.yaml"), src, 0o644))

		out, err := execute(t, t.TempDir(), "test", dir, "--update")
		require.NoError(t, err)
		assert.Contains(t, out, "✓ single_minor (golden updated)")
		assert.FileExists(t, filepath.Join(root, "golden", "single_minor.golden"))
	})

	t.Run("missing directory exits 2", func(t *testing.T) {
		_, err := execute(t, t.TempDir(), "test", filepath.Join(t.TempDir(), "nope"))
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})
}
