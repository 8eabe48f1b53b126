package domain

// Stage is a session's position in the call lifecycle. Transitions are
// monotonic along the matching path; ended is reachable from any non-idle
// stage and idle is re-enterable after ended.
type Stage string

const (
	StageIdle      Stage = "idle"
	StageQueued    Stage = "queued"
	StageSearching Stage = "searching"
	StagePairing   Stage = "pairing"
	StageMatched   Stage = "matched"
	StageEnded     Stage = "ended"
)

var stageRank = map[Stage]int{
	StageIdle:      0,
	StageQueued:    1,
	StageSearching: 2,
	StagePairing:   3,
	StageMatched:   4,
}

// CanAdvance is the single authoritative transition check.
func (s Stage) CanAdvance(next Stage) bool {
	if next == StageEnded {
		return s != StageIdle
	}
	if s == StageEnded {
		return next == StageIdle
	}
	cur, ok := stageRank[s]
	if !ok {
		return false
	}
	nxt, ok := stageRank[next]
	if !ok {
		return false
	}
	return nxt == cur+1
}
