package config

import (
	"time"

	"github.com/theoryforge/lagrangia/pkg/evolution"
	"github.com/theoryforge/lagrangia/pkg/fitness"
)

// DefaultConfig returns the configuration used when no file is present. It
// mirrors the runtime defaults exactly, so a default-config run and a
// no-config run behave the same.
func DefaultConfig() *Config {
	params := evolution.DefaultParams()
	gate := fitness.DefaultGateSchedule()

	return &Config{
		Search: SearchConfig{
			PopulationSize: params.PopulationSize,
			EliteCount:     params.EliteCount,
			Workers:        params.Workers,
			MaxGenerations: params.MaxGenerations,
			MutationRate:   params.MutationRate,
			SigmaKinetic:   params.SigmaKinetic,
			SigmaShape:     params.SigmaShape,
			SigmaCoupling:  params.SigmaCoupling,
			CrossoverRate:  params.CrossoverRate,
			LockedMode:     params.LockedMode,
			Stagnation: StagnationConfig{
				ShortTerm:           params.Stagnation.ShortTerm,
				Gravity:             params.Stagnation.Gravity,
				DeepWindow:          params.Stagnation.DeepWindow,
				LongTerm:            params.Stagnation.LongTerm,
				InjectEvery:         params.Stagnation.InjectEvery,
				CrossoverBurstEvery: params.Stagnation.CrossoverBurstEvery,
				MutationBurstEvery:  params.Stagnation.MutationBurstEvery,
			},
		},
		Gate: GateConfig{
			RelaxedEpsC:        gate.RelaxedEpsC,
			RelaxedEpsG:        gate.RelaxedEpsG,
			StrictEpsC:         gate.StrictEpsC,
			StrictEpsG:         gate.StrictEpsG,
			WarmupGenerations:  gate.WarmupGenerations,
			TightenUntil:       gate.TightenUntil,
			EmergencyAfter:     gate.EmergencyAfter,
			EmergencyRate:      gate.EmergencyRate,
			EmergencyMaxFactor: gate.EmergencyMaxFactor,
		},
		Logging: LoggingConfig{
			Level: "INFO",
			Outputs: []LogOutputConfig{
				{Type: "console", Colors: true},
			},
		},
		Persistence: PersistenceConfig{
			Enabled:  false,
			Path:     "lagrangia.db",
			Interval: Duration(30 * time.Second),
		},
		Export: ExportConfig{
			Enabled: false,
			Dir:     "runs",
		},
	}
}
