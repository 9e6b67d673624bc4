package reporting

import (
	"ev-tracker/internal/phonenumber"
	"ev-tracker/internal/workflow"
)

// Counts are the raw aggregates a Repository returns.
type Counts struct {
	Stages  map[workflow.Stage]int
	Porting map[phonenumber.PortingStatus]int
}

// StageCount is one row of the per-stage breakdown, in workflow order.
type StageCount struct {
	Stage workflow.Stage `json:"stage"`
	Label string         `json:"label"`
	Count int            `json:"count"`
}

// PhaseCount tallies how many migrations sit in each status of one phase.
type PhaseCount struct {
	Phase   workflow.Phase `json:"phase"`
	Name    string         `json:"name"`
	Done    int            `json:"done"`
	Active  int            `json:"active"`
	Pending int            `json:"pending"`
}

// Dashboard is the summary shown on the staff landing page.
type Dashboard struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Parked    int `json:"parked"`
	Completed int `json:"completed"`

	// AverageProgress is taken over non-parked migrations.
	AverageProgress float64 `json:"average_progress"`

	ByStage []StageCount `json:"by_stage"`
	ByPhase []PhaseCount `json:"by_phase"`

	NumbersTotal     int                               `json:"numbers_total"`
	NumbersByPorting map[phonenumber.PortingStatus]int `json:"numbers_by_porting_status"`
}
