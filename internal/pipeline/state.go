// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

// State is a stage of one enrichment run.
type State int

const (
	StateReceived State = iota
	StateReduced
	StateResolved
	StateSearched
	StateMerged
	StateRanked
	StateDelivered
)

var stateNames = [...]string{
	StateReceived:  "received",
	StateReduced:   "reduced",
	StateResolved:  "resolved",
	StateSearched:  "searched",
	StateMerged:    "merged",
	StateRanked:    "ranked",
	StateDelivered: "delivered",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
