package domain

import "testing"

func TestStageHappyPath(t *testing.T) {
	t.Parallel()
	path := []Stage{StageIdle, StageQueued, StageSearching, StagePairing, StageMatched}
	for i := 0; i < len(path)-1; i++ {
		if !path[i].CanAdvance(path[i+1]) {
			t.Errorf("CanAdvance(%s → %s): got false, want true", path[i], path[i+1])
		}
	}
}

func TestStageEndedFromAnyNonIdle(t *testing.T) {
	t.Parallel()
	for _, s := range []Stage{StageQueued, StageSearching, StagePairing, StageMatched, StageEnded} {
		if !s.CanAdvance(StageEnded) {
			t.Errorf("CanAdvance(%s → ended): got false, want true", s)
		}
	}
	if StageIdle.CanAdvance(StageEnded) {
		t.Error("CanAdvance(idle → ended): got true, want false")
	}
}

func TestStageNoSkippingOrRegression(t *testing.T) {
	t.Parallel()
	cases := []struct{ from, to Stage }{
		{StageIdle, StageSearching},
		{StageQueued, StagePairing},
		{StageMatched, StageQueued},
		{StageSearching, StageQueued},
		{StageMatched, StageIdle},
	}
	for _, c := range cases {
		if c.from.CanAdvance(c.to) {
			t.Errorf("CanAdvance(%s → %s): got true, want false", c.from, c.to)
		}
	}
}

func TestStageIdleReenterableAfterEnded(t *testing.T) {
	t.Parallel()
	if !StageEnded.CanAdvance(StageIdle) {
		t.Error("CanAdvance(ended → idle): got false, want true")
	}
	if StageEnded.CanAdvance(StageQueued) {
		t.Error("CanAdvance(ended → queued): got true, want false")
	}
}
