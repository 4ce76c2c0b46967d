// Package config defines the YAML-backed configuration surface of the search
// runtime and its validation rules. Search parameters are intentionally
// forgiving: out-of-range values are clamped downstream rather than rejected
// here, so a long-running experiment never dies on a config edit.
package config

import (
	"github.com/theoryforge/lagrangia/pkg/evolution"
	"github.com/theoryforge/lagrangia/pkg/fitness"
)

// Config represents the complete configuration for a search deployment.
type Config struct {
	// Search configuration
	Search SearchConfig `yaml:"search" validate:"required"`

	// Constraint gate configuration
	Gate GateConfig `yaml:"gate,omitempty" validate:"omitempty"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging,omitempty" validate:"omitempty"`

	// Persistence configuration
	Persistence PersistenceConfig `yaml:"persistence,omitempty" validate:"omitempty"`

	// Export configuration
	Export ExportConfig `yaml:"export,omitempty" validate:"omitempty"`
}

// SearchConfig holds the evolutionary search parameters.
type SearchConfig struct {
	// Number of individuals per generation
	PopulationSize int `yaml:"population_size" validate:"min=0"`

	// Number of top candidates copied unchanged into the next generation
	EliteCount int `yaml:"elite_count" validate:"min=0"`

	// Parallel evaluation workers; 0 means one per CPU
	Workers int `yaml:"workers" validate:"min=0"`

	// Generation cap for the run
	MaxGenerations int `yaml:"max_generations" validate:"min=0"`

	// Per-gene mutation probability
	MutationRate float64 `yaml:"mutation_rate" validate:"min=0,max=1"`

	// Gaussian mutation spread per gene class
	SigmaKinetic  float64 `yaml:"sigma_kinetic" validate:"min=0"`
	SigmaShape    float64 `yaml:"sigma_shape" validate:"min=0"`
	SigmaCoupling float64 `yaml:"sigma_coupling" validate:"min=0"`

	// Single-point crossover probability
	CrossoverRate float64 `yaml:"crossover_rate" validate:"min=0,max=1"`

	// Enable auto-activation of the directed coupling-locked regime
	LockedMode bool `yaml:"locked_mode"`

	// Random seed; 0 means time-seeded
	Seed int64 `yaml:"seed"`

	// Stagnation recovery thresholds
	Stagnation StagnationConfig `yaml:"stagnation,omitempty"`
}

// StagnationConfig mirrors the escalating recovery thresholds.
type StagnationConfig struct {
	ShortTerm           int `yaml:"short_term" validate:"min=0"`
	Gravity             int `yaml:"gravity" validate:"min=0"`
	DeepWindow          int `yaml:"deep_window" validate:"min=0"`
	LongTerm            int `yaml:"long_term" validate:"min=0"`
	InjectEvery         int `yaml:"inject_every" validate:"min=0"`
	CrossoverBurstEvery int `yaml:"crossover_burst_every" validate:"min=0"`
	MutationBurstEvery  int `yaml:"mutation_burst_every" validate:"min=0"`
}

// GateConfig holds the progressive constraint-gate tolerances.
type GateConfig struct {
	// Warmup tolerances applied before tightening starts
	RelaxedEpsC float64 `yaml:"relaxed_eps_c" validate:"min=0"`
	RelaxedEpsG float64 `yaml:"relaxed_eps_g" validate:"min=0"`

	// Final tolerances the gate tightens toward
	StrictEpsC float64 `yaml:"strict_eps_c" validate:"min=0"`
	StrictEpsG float64 `yaml:"strict_eps_g" validate:"min=0"`

	// Generations of pure relaxed gating
	WarmupGenerations int `yaml:"warmup_generations" validate:"min=0"`

	// Generation by which the gate reaches the strict tolerances
	TightenUntil int `yaml:"tighten_until" validate:"min=0"`

	// Emergency relaxation for very long runs
	EmergencyAfter     int     `yaml:"emergency_after" validate:"min=0"`
	EmergencyRate      float64 `yaml:"emergency_rate" validate:"min=0"`
	EmergencyMaxFactor float64 `yaml:"emergency_max_factor" validate:"min=0"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Log level (DEBUG, INFO, WARN, ERROR, FATAL)
	Level string `yaml:"level" validate:"omitempty,oneof=DEBUG INFO WARN ERROR FATAL"`

	// Log outputs
	Outputs []LogOutputConfig `yaml:"outputs,omitempty"`
}

// LogOutputConfig represents a single log output destination.
type LogOutputConfig struct {
	// Output type (console, file)
	Type string `yaml:"type" validate:"required,oneof=console file"`

	// Whether to use colored output (console only)
	Colors bool `yaml:"colors"`

	// File path (file only)
	FilePath string `yaml:"file_path" validate:"required_if=Type file"`
}

// PersistenceConfig holds checkpoint storage configuration.
type PersistenceConfig struct {
	// Enable SQLite checkpointing
	Enabled bool `yaml:"enabled"`

	// SQLite database path
	Path string `yaml:"path" validate:"required_if=Enabled true"`

	// Minimum wall-clock time between checkpoints
	Interval Duration `yaml:"interval" validate:"min=0"`
}

// ExportConfig holds run-history export configuration.
type ExportConfig struct {
	// Enable Parquet export at the end of a run
	Enabled bool `yaml:"enabled"`

	// Output directory for Parquet files
	Dir string `yaml:"dir" validate:"required_if=Enabled true"`
}

// SearchParams maps the configuration onto the runtime parameter set. Zero
// values pass through; the runtime substitutes defaults and clamps.
func (c *Config) SearchParams() evolution.Params {
	s := c.Search
	return evolution.Params{
		PopulationSize: s.PopulationSize,
		EliteCount:     s.EliteCount,
		Workers:        s.Workers,
		MaxGenerations: s.MaxGenerations,
		MutationRate:   s.MutationRate,
		SigmaKinetic:   s.SigmaKinetic,
		SigmaShape:     s.SigmaShape,
		SigmaCoupling:  s.SigmaCoupling,
		CrossoverRate:  s.CrossoverRate,
		StrictEpsC:     c.Gate.StrictEpsC,
		StrictEpsG:     c.Gate.StrictEpsG,
		LockedMode:     s.LockedMode,
		Seed:           s.Seed,
		Stagnation: evolution.StagnationThresholds{
			ShortTerm:           s.Stagnation.ShortTerm,
			Gravity:             s.Stagnation.Gravity,
			DeepWindow:          s.Stagnation.DeepWindow,
			LongTerm:            s.Stagnation.LongTerm,
			InjectEvery:         s.Stagnation.InjectEvery,
			CrossoverBurstEvery: s.Stagnation.CrossoverBurstEvery,
			MutationBurstEvery:  s.Stagnation.MutationBurstEvery,
		},
	}
}

// GateSchedule maps the gate configuration onto the fitness schedule.
func (c *Config) GateSchedule() fitness.GateSchedule {
	g := c.Gate
	return fitness.GateSchedule{
		RelaxedEpsC:        g.RelaxedEpsC,
		RelaxedEpsG:        g.RelaxedEpsG,
		StrictEpsC:         g.StrictEpsC,
		StrictEpsG:         g.StrictEpsG,
		WarmupGenerations:  g.WarmupGenerations,
		TightenUntil:       g.TightenUntil,
		EmergencyAfter:     g.EmergencyAfter,
		EmergencyRate:      g.EmergencyRate,
		EmergencyMaxFactor: g.EmergencyMaxFactor,
	}
}
