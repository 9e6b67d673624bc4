package workflow

// Stage is the value of a migration's workflow_stage column.
type Stage string

const (
	StageEstimate          Stage = "estimate"
	StageEstimateAccepted  Stage = "estimate_accepted"
	StageCarrierSubmitted  Stage = "verizon_submitted"
	StageCarrierInProgress Stage = "verizon_in_progress"
	StageCarrierComplete   Stage = "verizon_complete"
	StagePortingSubmitted  Stage = "porting_submitted"
	StagePortingScheduled  Stage = "porting_scheduled"
	StagePortingComplete   Stage = "porting_complete"
	StageUserConfig        Stage = "user_config"
	StageCompleted         Stage = "completed"

	// Side states reachable from any stage by manual override.
	StageOnHold    Stage = "on_hold"
	StageCancelled Stage = "cancelled"
)

// linear is ordered by progress rank.
var linear = []Stage{
	StageEstimate,
	StageEstimateAccepted,
	StageCarrierSubmitted,
	StageCarrierInProgress,
	StageCarrierComplete,
	StagePortingSubmitted,
	StagePortingScheduled,
	StagePortingComplete,
	StageUserConfig,
	StageCompleted,
}

// progress is a presentation table, not a count of finished steps.
var progress = map[Stage]int{
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
}

// Linear returns the ten ranked stages in order.
func Linear() []Stage {
	out := make([]Stage, len(linear))
	copy(out, linear)
	return out
}

// All returns every accepted stage name, side states last.
func All() []Stage {
	return append(Linear(), StageOnHold, StageCancelled)
}

// Valid reports whether s is one of the twelve stage names.
func Valid(s string) bool {
	switch Stage(s) {
	case StageOnHold, StageCancelled:
		return true
	}
	return Rank(Stage(s)) >= 0
}

// Rank returns the position of s in the linear order, or -1 for side states
// and unknown names.
func Rank(s Stage) int {
	for i, st := range linear {
		if st == s {
			return i
		}
	}
	return -1
}

// IsParked reports whether s is a side state.
func IsParked(s Stage) bool { return s == StageOnHold || s == StageCancelled }

// Progress returns the completion percentage shown for s. Side states and
// unknown names return 0.
func Progress(s Stage) int { return progress[s] }
