package workflow

type Phase string

const (
	PhaseEstimate Phase = "estimate"
	PhaseCarrier  Phase = "carrier"
	PhasePorting  Phase = "porting"
	PhaseTeams    Phase = "teams"
)

type PhaseStatus string

const (
	StatusDone    PhaseStatus = "done"
	StatusActive  PhaseStatus = "active"
	StatusPending PhaseStatus = "pending"
)

type PhaseState struct {
	Phase  Phase       `json:"phase"`
	Name   string      `json:"name"`
	Status PhaseStatus `json:"status"`
}

// Porting and Teams share their active list from verizon_complete on: both
// tracks run in parallel once carrier setup is done.
var phaseTable = []struct {
	phase  Phase
	name   string
	active []Stage
	done   []Stage
}{
	{
		phase:  PhaseEstimate,
		name:   "Estimate",
		active: []Stage{StageEstimate},
		done: []Stage{StageEstimateAccepted, StageCarrierSubmitted, StageCarrierInProgress, StageCarrierComplete,
			StagePortingSubmitted, StagePortingScheduled, StagePortingComplete, StageUserConfig, StageCompleted},
	},
	{
		phase:  PhaseCarrier,
		name:   "Carrier Setup",
		active: []Stage{StageEstimateAccepted, StageCarrierSubmitted, StageCarrierInProgress},
		done: []Stage{StageCarrierComplete, StagePortingSubmitted, StagePortingScheduled, StagePortingComplete,
			StageUserConfig, StageCompleted},
	},
	{
		phase:  PhasePorting,
		name:   "Number Porting",
		active: []Stage{StageCarrierComplete, StagePortingSubmitted, StagePortingScheduled},
		done:   []Stage{StagePortingComplete, StageUserConfig, StageCompleted},
	},
	{
		phase:  PhaseTeams,
		name:   "Teams Config",
		active: []Stage{StageCarrierComplete, StagePortingSubmitted, StagePortingScheduled, StagePortingComplete, StageUserConfig},
		done:   []Stage{StageCompleted},
	},
}

// Phases projects s onto the four phases. Side states report every phase as
// pending because the stage scalar keeps no history.
func Phases(s Stage) []PhaseState {
	out := make([]PhaseState, 0, len(phaseTable))
	for _, p := range phaseTable {
		st := StatusPending
		switch {
		case contains(p.done, s):
			st = StatusDone
		case contains(p.active, s):
			st = StatusActive
		}
		out = append(out, PhaseState{Phase: p.phase, Name: p.name, Status: st})
	}
	return out
}

// Snapshot is the progress view returned to clients.
type Snapshot struct {
	Stage    Stage        `json:"stage"`
	Label    string       `json:"label"`
	Progress int          `json:"progress"`
	Parked   bool         `json:"parked"`
	Phases   []PhaseState `json:"phases"`
}

func Project(s Stage) Snapshot {
	return Snapshot{
		Stage:    s,
		Label:    Describe(s).Label,
		Progress: Progress(s),
		Parked:   IsParked(s),
		Phases:   Phases(s),
	}
}

func contains(list []Stage, s Stage) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
