package timeline

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/roach88/icetime/internal/ir"
)

// CSVHeader is the column layout of the flat encoding.
var CSVHeader = []string{
	"period",
	"secondsIntoPeriod",
	"secondsElapsedGame",
	"situationCode",
	"strength",
	"awayGoalie",
	"awaySkaterCount",
	"awaySkaters",
	"homeSkaterCount",
	"homeGoalie",
	"homeSkaters",
}

// SkaterSeparator joins player IDs inside one CSV cell.
const SkaterSeparator = "|"

// EncodeCSV writes one row per game second.
func EncodeCSV(w io.Writer, tl *Timeline) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range tl.Entries {
		if err := cw.Write(csvRow(e)); err != nil {
			return fmt.Errorf("write csv row %d: %w", e.GameSecond, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalCSV returns the flat encoding of tl as bytes.
func MarshalCSV(tl *Timeline) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeCSV(&buf, tl); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func csvRow(e ir.TimelineEntry) []string {
	return []string{
		strconv.Itoa(e.Period),
		strconv.Itoa(e.SecondsIntoPeriod),
		strconv.Itoa(e.GameSecond),
		string(e.Situation),
		e.Strength,
		goalieCell(e.Away),
		strconv.Itoa(len(e.Away.Skaters)),
		joinIDs(e.Away.Skaters),
		strconv.Itoa(len(e.Home.Skaters)),
		goalieCell(e.Home),
		joinIDs(e.Home.Skaters),
	}
}

func goalieCell(o ir.OnIceSecond) string {
	if !o.HasGoaltender() {
		return ""
	}
	return strconv.FormatInt(int64(o.Goaltender), 10)
}

func joinIDs(ids []ir.PlayerID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(int64(id), 10)
	}
	return strings.Join(parts, SkaterSeparator)
}
