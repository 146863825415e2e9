package situation

import (
	"fmt"

	"github.com/roach88/icetime/internal/ir"
)

// Severity classifies a penalty by its effect on strength.
type Severity string

const (
	SeverityMinor      Severity = "minor"
	SeverityMajor      Severity = "major"
	SeverityMisconduct Severity = "misconduct"
)

// AffectsStrength reports whether penalties of this severity remove a skater.
// Misconducts are tracked but never change skater counts.
func (s Severity) AffectsStrength() bool {
	return s == SeverityMinor || s == SeverityMajor
}

// Penalty type codes from the play-by-play feed.
const (
	TypeMinor          = "MIN"
	TypeBenchMinor     = "BEN"
	TypeMajor          = "MAJ"
	TypeMatch          = "MAT"
	TypeMisconduct     = "MIS"
	TypeGameMisconduct = "GAM"
	TypePenaltyShot    = "PS"
)

// MinorLength is the length of one minor penalty unit in seconds.
const MinorLength = 120

// SeverityFor maps a feed type code to a severity. ledgered is false for
// codes that never enter the ledger, such as an awarded penalty shot.
func SeverityFor(typeCode string) (sev Severity, ledgered bool, err error) {
	switch typeCode {
	case TypeMinor, TypeBenchMinor:
		return SeverityMinor, true, nil
	case TypeMajor, TypeMatch:
		return SeverityMajor, true, nil
	case TypeMisconduct, TypeGameMisconduct:
		return SeverityMisconduct, true, nil
	case TypePenaltyShot:
		return "", false, nil
	}
	return "", false, fmt.Errorf("unknown penalty type code %q", typeCode)
}

// EndReason records why a penalty stopped running.
type EndReason string

const (
	EndNatural         EndReason = "natural"
	EndGoal            EndReason = "goal"
	EndMissingDuration EndReason = "missing-duration"
)

// State is the lifecycle state of a penalty. It is a closed set: Pending,
// Active, and Expired are the only implementations, and each exposes only
// the transitions that are legal from it.
type State interface {
	// Name returns the lowercase state label used in output documents.
	Name() string
	sealed()
}

// Pending is a penalty waiting for a free box slot; its clock has not started.
type Pending struct {
	QueuedAt int
}

// Active is a running penalty. Times are elapsed game-clock seconds.
type Active struct {
	Start   int
	Expires int
}

// Expired is terminal.
type Expired struct {
	Start  int
	Ended  int
	Reason EndReason
}

func (Pending) Name() string { return "pending" }
func (Active) Name() string  { return "active" }
func (Expired) Name() string { return "expired" }

func (Pending) sealed() {}
func (Active) sealed()  {}
func (Expired) sealed() {}

// Activate starts the clock at the moment a slot frees.
func (p Pending) Activate(at, duration int) Active {
	return Active{Start: at, Expires: at + duration}
}

// Expire ends a running penalty.
func (a Active) Expire(at int, reason EndReason) Expired {
	return Expired{Start: a.Start, Ended: at, Reason: reason}
}

// Remaining returns the seconds left at now.
func (a Active) Remaining(now int) int {
	return a.Expires - now
}

// Penalty is one ledger entry after coincidental resolution and merging.
type Penalty struct {
	EventID  int64
	Side     ir.Side
	TeamID   ir.TeamID
	PlayerID ir.PlayerID
	TypeCode string
	DescKey  string
	Severity Severity

	// Duration is in seconds. Zero means the feed omitted it.
	Duration int

	// CalledAt is the elapsed second of the call.
	CalledAt int

	State State
}

// Active returns the running state, if any.
func (p *Penalty) Active() (Active, bool) {
	a, ok := p.State.(Active)
	return a, ok
}

// Expired returns the terminal state, if reached.
func (p *Penalty) Expired() (Expired, bool) {
	e, ok := p.State.(Expired)
	return e, ok
}

// expiration builds the event-log detail for a penalty that just ended.
func (p *Penalty) expiration(reason EndReason) *ir.Expiration {
	return &ir.Expiration{
		OriginalEventID: p.EventID,
		TeamID:          p.TeamID,
		PlayerID:        p.PlayerID,
		Severity:        string(p.Severity),
		DurationSeconds: p.Duration,
		Reason:          string(reason),
	}
}

// Record is the flat, serializable view of a penalty.
type Record struct {
	EventID         int64       `json:"eventId"`
	Side            ir.Side     `json:"side"`
	TeamID          ir.TeamID   `json:"teamId"`
	PlayerID        ir.PlayerID `json:"playerId"`
	TypeCode        string      `json:"typeCode"`
	DescKey         string      `json:"descKey,omitempty"`
	Severity        Severity    `json:"severity"`
	DurationSeconds int         `json:"durationSeconds"`
	CalledAt        int         `json:"calledAt"`
	State           string      `json:"state"`
	Start           *int        `json:"start,omitempty"`
	End             *int        `json:"end,omitempty"`
	EndReason       EndReason   `json:"endReason,omitempty"`
}

// Record flattens the penalty and its state for serialization.
func (p *Penalty) Record() Record {
	r := Record{
		EventID:         p.EventID,
		Side:            p.Side,
		TeamID:          p.TeamID,
		PlayerID:        p.PlayerID,
		TypeCode:        p.TypeCode,
		DescKey:         p.DescKey,
		Severity:        p.Severity,
		DurationSeconds: p.Duration,
		CalledAt:        p.CalledAt,
		State:           p.State.Name(),
	}
	switch st := p.State.(type) {
	case Active:
		r.Start, r.End = &st.Start, &st.Expires
	case Expired:
		r.Start, r.End = &st.Start, &st.Ended
		r.EndReason = st.Reason
	}
	return r
}
