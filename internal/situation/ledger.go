package situation

import (
	"github.com/roach88/icetime/internal/ir"
)

// MaxConcurrentStrength is the number of strength-affecting penalties a team
// can serve at once. Further penalties wait as Pending.
const MaxConcurrentStrength = 2

// Transition reports one state change made by the ledger.
type Transition struct {
	Penalty *Penalty
	At      int
	Reason  EndReason

	// Shortened is set when a goal consumed only the running unit of a
	// multi-unit minor; the penalty stays active.
	Shortened bool

	// Activated lists pending penalties whose clocks started at At.
	Activated []*Penalty
}

// Ledger is the private, single-owner penalty state of one game scan.
// It must never be shared across games.
type Ledger struct {
	penalties []*Penalty
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Penalties returns every ledger entry in call order.
func (l *Ledger) Penalties() []*Penalty {
	return l.penalties
}

// Add enters a resolved penalty at elapsed second now. A penalty without a
// duration is entered already expired.
func (l *Ledger) Add(p *Penalty, now int) {
	p.CalledAt = now
	switch {
	case p.Duration <= 0:
		p.State = Expired{Start: now, Ended: now, Reason: EndMissingDuration}
	case p.Severity.AffectsStrength() && l.ActiveStrength(p.Side) >= MaxConcurrentStrength:
		p.State = Pending{QueuedAt: now}
	default:
		p.State = Pending{QueuedAt: now}.Activate(now, p.Duration)
	}
	l.penalties = append(l.penalties, p)
}

// ActiveStrength counts running strength-affecting penalties for side.
func (l *Ledger) ActiveStrength(side ir.Side) int {
	n := 0
	for _, p := range l.penalties {
		if _, ok := p.Active(); ok && p.Side == side && p.Severity.AffectsStrength() {
			n++
		}
	}
	return n
}

// ExpireNext expires the earliest running penalty with expiry <= now.
// Ties go to the earlier call. It returns false when nothing is due.
func (l *Ledger) ExpireNext(now int) (Transition, bool) {
	var due *Penalty
	var dueAt Active
	for _, p := range l.penalties {
		a, ok := p.Active()
		if !ok || a.Expires > now {
			continue
		}
		if due == nil || a.Expires < dueAt.Expires {
			due, dueAt = p, a
		}
	}
	if due == nil {
		return Transition{}, false
	}

	due.State = dueAt.Expire(dueAt.Expires, EndNatural)
	return Transition{
		Penalty:   due,
		At:        dueAt.Expires,
		Reason:    EndNatural,
		Activated: l.activatePending(due.Side, dueAt.Expires),
	}, true
}

// ExpireThrough expires everything due at or before now, in expiry order.
func (l *Ledger) ExpireThrough(now int) []Transition {
	var out []Transition
	for {
		tr, ok := l.ExpireNext(now)
		if !ok {
			return out
		}
		out = append(out, tr)
	}
}

// ReleaseOnGoal applies the goal-against rule: the soonest-expiring running
// minor of the side that did not score ends at now. A minor with more than
// one unit left loses only the running unit. Majors are never released.
func (l *Ledger) ReleaseOnGoal(scorer ir.Side, now int) (Transition, bool) {
	victim := scorer.Opponent()
	var target *Penalty
	var running Active
	for _, p := range l.penalties {
		a, ok := p.Active()
		if !ok || p.Side != victim || p.Severity != SeverityMinor || a.Expires <= now {
			continue
		}
		if target == nil || a.Expires < running.Expires {
			target, running = p, a
		}
	}
	if target == nil {
		return Transition{}, false
	}

	if remaining := running.Remaining(now); remaining > MinorLength {
		running.Expires = now + ((remaining-1)/MinorLength)*MinorLength
		target.State = running
		return Transition{Penalty: target, At: now, Reason: EndGoal, Shortened: true}, true
	}

	target.State = running.Expire(now, EndGoal)
	return Transition{
		Penalty:   target,
		At:        now,
		Reason:    EndGoal,
		Activated: l.activatePending(victim, now),
	}, true
}

// activatePending starts queued penalties for side while box slots are free.
func (l *Ledger) activatePending(side ir.Side, at int) []*Penalty {
	var started []*Penalty
	for _, p := range l.penalties {
		if l.ActiveStrength(side) >= MaxConcurrentStrength {
			break
		}
		if pend, ok := p.State.(Pending); ok && p.Side == side {
			p.State = pend.Activate(at, p.Duration)
			started = append(started, p)
		}
	}
	return started
}

// window is the half-open interval (start, end] of elapsed seconds during
// which a penalty removed a skater.
type window struct {
	side       ir.Side
	start, end int
}

// windows returns the strength windows of every penalty that ever ran.
// Penalties still running at the end of the scan run to their expiry.
func (l *Ledger) windows() []window {
	var out []window
	for _, p := range l.penalties {
		if !p.Severity.AffectsStrength() {
			continue
		}
		switch st := p.State.(type) {
		case Active:
			out = append(out, window{p.Side, st.Start, st.Expires})
		case Expired:
			if st.Ended > st.Start {
				out = append(out, window{p.Side, st.Start, st.Ended})
			}
		}
	}
	return out
}
