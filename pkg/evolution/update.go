package evolution

import "github.com/theoryforge/lagrangia/pkg/fitness"

// RunStatus is the externally visible lifecycle state of a search session.
type RunStatus string

const (
	StatusIdle      RunStatus = "idle"
	StatusRunning   RunStatus = "running"
	StatusStopped   RunStatus = "stopped"
	StatusCompleted RunStatus = "completed"
)

// Update is the per-generation snapshot streamed to external collaborators
// (dashboard, persistence, report layer). The core never depends on anyone
// consuming these.
type Update struct {
	RunID      string              `json:"run_id"`
	Generation int                 `json:"generation"`
	Best       *fitness.Candidate  `json:"best,omitempty"`
	TopK       []fitness.Candidate `json:"top_k"`

	EvalsPerSecond float64   `json:"evals_per_second"`
	Status         RunStatus `json:"status"`
	Phase          Phase     `json:"phase"`
	Locked         bool      `json:"locked"`
	Emergency      bool      `json:"emergency"`

	DigitsC     int `json:"digits_c"`
	DigitsAlpha int `json:"digits_alpha"`
	DigitsG     int `json:"digits_g"`
}
