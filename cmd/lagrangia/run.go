package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/theoryforge/lagrangia/pkg/evolution"
	"github.com/theoryforge/lagrangia/pkg/export"
	"github.com/theoryforge/lagrangia/pkg/logging"
	"github.com/theoryforge/lagrangia/pkg/persistence"
)

type runFlags struct {
	generations int
	population  int
	seed        int64
	dbPath      string
	exportDir   string
}

func newRunCmd() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a search session to the generation cap",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), flags)
		},
	}

	cmd.Flags().IntVar(&flags.generations, "generations", 0, "override the generation cap")
	cmd.Flags().IntVar(&flags.population, "population", 0, "override the population size")
	cmd.Flags().Int64Var(&flags.seed, "seed", 0, "override the random seed (0 = time-seeded)")
	cmd.Flags().StringVar(&flags.dbPath, "db", "", "override the checkpoint database path")
	cmd.Flags().StringVar(&flags.exportDir, "export-dir", "", "override the Parquet export directory")

	return cmd
}

func runSearch(ctx context.Context, flags runFlags) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	params := cfg.SearchParams()
	if flags.generations > 0 {
		params.MaxGenerations = flags.generations
	}
	if flags.population > 0 {
		params.PopulationSize = flags.population
	}
	if flags.seed != 0 {
		params.Seed = flags.seed
	}
	if flags.dbPath != "" {
		cfg.Persistence.Enabled = true
		cfg.Persistence.Path = flags.dbPath
	}
	if flags.exportDir != "" {
		cfg.Export.Enabled = true
		cfg.Export.Dir = flags.exportDir
	}

	ctrl := evolution.NewController()

	var store *persistence.Store
	if cfg.Persistence.Enabled {
		store, err = persistence.Open(cfg.Persistence.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		ctrl.SetCheckpointer(store, cfg.Persistence.Interval.Std())
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := ctrl.Start(context.Background(), params); err != nil {
		return err
	}

	status := streamProgress(ctx, ctrl, store)

	if cfg.Export.Enabled && store != nil {
		exportRun(ctrl.Status().RunID, cfg.Export.Dir, store)
	}

	printSummary(ctrl, status)
	return nil
}

// streamProgress consumes the update stream until the run reaches a terminal
// status, recording history rows and logging progress along the way.
func streamProgress(ctx context.Context, ctrl *evolution.Controller, store *persistence.Store) evolution.RunStatus {
	logger := logging.GetLogger()
	printer := message.NewPrinter(language.English)

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	interrupt := ctx.Done()
	for {
		select {
		case <-interrupt:
			interrupt = nil
			logger.Info(context.Background(), "Interrupt received, finishing in-flight generation")
			go func() { _ = ctrl.Stop() }()

		case u := <-ctrl.Updates():
			if store != nil && u.Best != nil {
				if err := store.RecordGeneration(context.Background(), u); err != nil {
					logger.Warn(context.Background(), "History write failed: %v", err)
				}
			}
			if u.Best != nil && u.Generation%25 == 0 {
				logger.Info(context.Background(),
					"gen %s: fitness=%.6e digits=[c:%d a:%d g:%d] phase=%s locked=%v evals/s=%s",
					printer.Sprintf("%d", u.Generation), u.Best.Fitness,
					u.DigitsC, u.DigitsAlpha, u.DigitsG,
					u.Phase, u.Locked, printer.Sprintf("%.0f", u.EvalsPerSecond))
			}

		case <-ticker.C:
			if st := ctrl.Status(); st.Status != evolution.StatusRunning {
				return st.Status
			}
		}
	}
}

func exportRun(runID, dir string, store *persistence.Store) {
	logger := logging.GetLogger()
	ctx := context.Background()

	records, err := store.History(ctx, runID)
	if err != nil {
		logger.Error(ctx, "Export failed reading history: %v", err)
		return
	}

	path := filepath.Join(dir, runID+".parquet")
	if err := export.WriteRunHistory(path, records); err != nil {
		logger.Error(ctx, "Export failed: %v", err)
		return
	}
	logger.Info(ctx, "Exported %d generations to %s", len(records), path)
}

func printSummary(ctrl *evolution.Controller, status evolution.RunStatus) {
	logger := logging.GetLogger()
	ctx := context.Background()
	st := ctrl.Status()

	if st.Best == nil {
		logger.Warn(ctx, "Run %s %s after %d generations with no valid candidate", st.RunID, status, st.Generation)
		return
	}

	best := st.Best
	logger.Info(ctx, "Run %s %s after %d generations", st.RunID, status, st.Generation)
	logger.Info(ctx, "Best: fitness=%.6e c=%.9e alpha=%.12e G=%.6e",
		best.Fitness, best.CModel, best.AlphaModel, best.GModel)
	logger.Info(ctx, "Digits solved: c=%d alpha=%d G=%d (archive=%d)",
		best.DigitsC(), best.DigitsAlpha(), best.DigitsG(), st.Archived)
	logger.Info(ctx, "Genes: c0=%.9g c1=%.9g c2=%.9g c3=%.9g gEM=%.12g xi=%.12g",
		best.Genes[0], best.Genes[1], best.Genes[2], best.Genes[3], best.Genes[4], best.Genes[5])
}
