package models

import "testing"

func TestGetSettingsDefaults(t *testing.T) {
	area := Area{}
	s := area.GetSettings()

	if s.TaskDurationMinutes != 60 {
		t.Errorf("default duration = %d, want 60", s.TaskDurationMinutes)
	}
	if s.DailyInterval != 1 {
		t.Errorf("default daily interval = %d, want 1", s.DailyInterval)
	}
}

func TestGetSettingsRoundTrip(t *testing.T) {
	area := Area{}
	want := AreaSettings{
		TaskDurationMinutes: 90,
		OperatorIDs:         []uint{3, 4},
		SchedulingTypes:     []string{"checkout", "daily"},
		AutoAssign:          true,
		PassQuant:           2,
	}
	if err := area.SetSettings(want); err != nil {
		t.Fatalf("SetSettings: %v", err)
	}

	got := area.GetSettings()
	if got.TaskDurationMinutes != 90 || !got.AutoAssign || got.PassQuant != 2 {
		t.Errorf("settings round trip = %+v", got)
	}
	if len(got.OperatorIDs) != 2 || got.OperatorIDs[0] != 3 {
		t.Errorf("operator IDs = %v", got.OperatorIDs)
	}
}

func TestDefaultStatusEnum(t *testing.T) {
	area := Area{
		StatusEnums: `[
			{"name":"Done","ordering":2,"statuses":[{"enum":"done","ordering":1}]},
			{"name":"Open","ordering":1,"statuses":[
				{"enum":"in_progress","ordering":2},
				{"enum":"todo","ordering":1}
			]}
		]`,
	}

	// group ordering first, then status ordering inside the group
	if got := area.DefaultStatusEnum(); got != "todo" {
		t.Errorf("default status = %q, want todo", got)
	}
}

func TestDefaultStatusEnumFallback(t *testing.T) {
	area := Area{}
	if got := area.DefaultStatusEnum(); got != "todo" {
		t.Errorf("fallback status = %q, want todo", got)
	}
}

func TestIsListingEligible(t *testing.T) {
	open := Area{}
	if !open.IsListingEligible(42) {
		t.Error("empty listing set must make every listing eligible")
	}

	restricted := Area{Settings: `{"listing_ids":[7,9]}`}
	if !restricted.IsListingEligible(7) {
		t.Error("listed listing must be eligible")
	}
	if restricted.IsListingEligible(8) {
		t.Error("unlisted listing must not be eligible")
	}
}
