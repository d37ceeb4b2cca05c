package services

import "testing"

func TestSubtractSameDayLoad(t *testing.T) {
	candidates := []operatorCandidate{
		{OperatorID: 1, RemainingMinutes: 480},
		{OperatorID: 2, RemainingMinutes: 240},
	}
	sameDay := map[uint]map[uint]int{
		1: {10: 2, 11: 1}, // 2 tasks of area 10, 1 of area 11
		2: {10: 1},
	}
	durations := map[uint]int{10: 90, 11: 45}

	out := subtractSameDayLoad(candidates, sameDay, durations)

	if out[0].RemainingMinutes != 480-2*90-45 {
		t.Errorf("operator 1 remaining = %d, want %d", out[0].RemainingMinutes, 480-2*90-45)
	}
	if out[1].RemainingMinutes != 240-90 {
		t.Errorf("operator 2 remaining = %d, want %d", out[1].RemainingMinutes, 240-90)
	}
}

func TestSubtractSameDayLoadUnknownAreaDefaults(t *testing.T) {
	candidates := []operatorCandidate{{OperatorID: 1, RemainingMinutes: 120}}
	sameDay := map[uint]map[uint]int{1: {99: 1}}

	out := subtractSameDayLoad(candidates, sameDay, map[uint]int{})
	if out[0].RemainingMinutes != 60 {
		t.Errorf("remaining = %d, want 60 (unknown area costs the 60-minute default)", out[0].RemainingMinutes)
	}
}

func TestFilterByHeadroom(t *testing.T) {
	candidates := []operatorCandidate{
		{OperatorID: 1, RemainingMinutes: 120},
		{OperatorID: 2, RemainingMinutes: 90},
		{OperatorID: 3, RemainingMinutes: 89},
	}

	out := filterByHeadroom(candidates, 90)
	if len(out) != 2 {
		t.Fatalf("kept %d candidates, want 2", len(out))
	}
	if out[0].OperatorID != 1 || out[1].OperatorID != 2 {
		t.Errorf("kept = %v", out)
	}
}

func TestFilterByHeadroomExactFit(t *testing.T) {
	candidates := []operatorCandidate{{OperatorID: 1, RemainingMinutes: 60}}
	if out := filterByHeadroom(candidates, 60); len(out) != 1 {
		t.Error("exact fit must pass the headroom filter")
	}
}

func TestPickLeastLoaded(t *testing.T) {
	counts := map[uint]int{1: 5, 2: 3, 3: 7}
	if got := pickLeastLoaded([]uint{1, 2, 3}, counts); got != 2 {
		t.Errorf("least loaded = %d, want 2", got)
	}
}

func TestPickLeastLoadedTieKeepsEarlier(t *testing.T) {
	counts := map[uint]int{1: 4, 2: 4, 3: 4}
	if got := pickLeastLoaded([]uint{3, 1, 2}, counts); got != 3 {
		t.Errorf("tie pick = %d, want 3 (first in candidate order)", got)
	}
}

// The documented capacity scenario: two operators with 8h and 4h days, a
// 90-minute area. After three same-day tasks each, only the 8h operator
// still has headroom.
func TestCapacityScenario(t *testing.T) {
	candidates := []operatorCandidate{
		{OperatorID: 1, RemainingMinutes: 480},
		{OperatorID: 2, RemainingMinutes: 240},
	}
	sameDay := map[uint]map[uint]int{
		1: {10: 3},
		2: {10: 2},
	}
	durations := map[uint]int{10: 90}

	candidates = subtractSameDayLoad(candidates, sameDay, durations)
	candidates = filterByHeadroom(candidates, 90)

	if len(candidates) != 1 || candidates[0].OperatorID != 1 {
		t.Errorf("remaining candidates = %v, want only operator 1", candidates)
	}
}
