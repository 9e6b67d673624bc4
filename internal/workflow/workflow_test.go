package workflow

import "testing"

func TestProgress_FixedTable(t *testing.T) {
	want := map[Stage]int{
		StageEstimate:          10,
		StageEstimateAccepted:  25,
		StageCarrierSubmitted:  35,
		StageCarrierInProgress: 45,
		StageCarrierComplete:   55,
		StagePortingSubmitted:  65,
		StagePortingScheduled:  75,
		StagePortingComplete:   85,
		StageUserConfig:        90,
		StageCompleted:         100,
		StageOnHold:            0,
		StageCancelled:         0,
	}
	for s, p := range want {
		if got := Progress(s); got != p {
			t.Fatalf("%s: expected %d, got %d", s, p, got)
		}
	}
}

func TestValid(t *testing.T) {
	for _, s := range All() {
		if !Valid(string(s)) {
			t.Fatalf("expected %s valid", s)
		}
	}
	if len(All()) != 12 {
		t.Fatalf("expected 12 stages, got %d", len(All()))
	}
	for _, s := range []string{"", "Estimate", "porting", "done"} {
		if Valid(s) {
			t.Fatalf("expected %q invalid", s)
		}
	}
}

func TestPhases_ParallelTracksAfterCarrier(t *testing.T) {
	got := statuses(Phases(StageCarrierComplete))
	want := []PhaseStatus{StatusDone, StatusDone, StatusActive, StatusActive}
	assertStatuses(t, got, want)

	got = statuses(Phases(StagePortingComplete))
	want = []PhaseStatus{StatusDone, StatusDone, StatusDone, StatusActive}
	assertStatuses(t, got, want)
}

func TestPhases_Boundaries(t *testing.T) {
	assertStatuses(t, statuses(Phases(StageEstimate)), []PhaseStatus{StatusActive, StatusPending, StatusPending, StatusPending})
	assertStatuses(t, statuses(Phases(StageEstimateAccepted)), []PhaseStatus{StatusDone, StatusActive, StatusPending, StatusPending})
	assertStatuses(t, statuses(Phases(StageCompleted)), []PhaseStatus{StatusDone, StatusDone, StatusDone, StatusDone})
	assertStatuses(t, statuses(Phases(StageOnHold)), []PhaseStatus{StatusPending, StatusPending, StatusPending, StatusPending})
}

func TestMetadata_CoversAllStages(t *testing.T) {
	if err := CheckMetadata(); err != nil {
		t.Fatalf("metadata: %v", err)
	}
	cat := Catalog()
	if len(cat) != 12 {
		t.Fatalf("expected 12 entries, got %d", len(cat))
	}
	if cat[0].Name != StageEstimate || cat[0].Progress != 10 {
		t.Fatalf("unexpected first entry: %+v", cat[0])
	}
	if Describe(StageCarrierSubmitted).Phase != PhaseCarrier {
		t.Fatalf("expected carrier phase")
	}
	if Describe(StageCancelled).Label != "Cancelled" {
		t.Fatalf("unexpected label %q", Describe(StageCancelled).Label)
	}
}

func TestProject(t *testing.T) {
	s := Project(StageOnHold)
	if !s.Parked || s.Progress != 0 {
		t.Fatalf("unexpected snapshot: %+v", s)
	}
}

func statuses(ps []PhaseState) []PhaseStatus {
	out := make([]PhaseStatus, len(ps))
	for i, p := range ps {
		out[i] = p.Status
	}
	return out
}

func assertStatuses(t *testing.T, got, want []PhaseStatus) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d phases, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("phase %d: expected %s, got %s (all=%v)", i, want[i], got[i], got)
		}
	}
}
