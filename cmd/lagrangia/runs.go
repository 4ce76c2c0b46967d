package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theoryforge/lagrangia/pkg/persistence"
)

func newRunsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs in the checkpoint database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			store, err := persistence.Open(cfg.Persistence.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := context.Background()
			runs, err := store.Runs(ctx)
			if err != nil {
				return err
			}

			for _, runID := range runs {
				records, err := store.History(ctx, runID)
				if err != nil {
					return err
				}
				if len(records) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t(empty)\n", runID)
					continue
				}
				last := records[len(records)-1]
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tgenerations=%d\tbest_fitness=%.6e\tdigits=[c:%d a:%d g:%d]\n",
					runID, last.Generation+1, last.BestFitness, last.DigitsC, last.DigitsAlpha, last.DigitsG)
			}
			return nil
		},
	}
}
