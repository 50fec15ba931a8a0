package alerting

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Directions derive purely from the sign of the delta. An exact 0 classifies
// DOWN, which never matters in practice because 0 cannot breach a positive
// threshold.
const (
	DirectionUp   = "UP"
	DirectionDown = "DOWN"
)

// Event describes one absent-to-fired transition.
type Event struct {
	ID        string
	NEMO      string
	Direction string
	DeltaPct  decimal.Decimal
}

// State tracks which {NEMO}_{direction} identifiers already fired, so a
// persisting breach notifies exactly once. It is scoped to a single dashboard
// session, held in memory only, and passed by reference into every cycle.
type State struct {
	fired map[string]struct{}
}

// NewState starts an empty session alert state.
func NewState() *State {
	return &State{fired: make(map[string]struct{})}
}

// Evaluate runs one instrument through the machine. It returns the fired
// event and true only on the absent-to-fired transition. When the current
// |delta| sits under the threshold, both direction identifiers for the
// instrument are cleared, re-arming it (clear-all-on-recovery).
func (s *State) Evaluate(nemo string, deltaPct, thresholdPct decimal.Decimal) (Event, bool) {
	direction := DirectionDown
	if deltaPct.Sign() > 0 {
		direction = DirectionUp
	}
	id := nemo + "_" + direction

	if deltaPct.Abs().GreaterThanOrEqual(thresholdPct) {
		if _, already := s.fired[id]; already {
			return Event{}, false
		}
		s.fired[id] = struct{}{}
		return Event{ID: id, NEMO: nemo, Direction: direction, DeltaPct: deltaPct}, true
	}

	delete(s.fired, nemo+"_"+DirectionUp)
	delete(s.fired, nemo+"_"+DirectionDown)
	return Event{}, false
}

// Reset drops every fired identifier. Wired to the clear-history action.
func (s *State) Reset() {
	s.fired = make(map[string]struct{})
}

// FiredIDs lists the currently suppressed identifiers in stable order.
func (s *State) FiredIDs() []string {
	ids := make([]string, 0, len(s.fired))
	for id := range s.fired {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
