package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/theoryforge/lagrangia/pkg/export"
	"github.com/theoryforge/lagrangia/pkg/persistence"
)

func newExportCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "export [run-id]",
		Short: "Export a recorded run's history to Parquet",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if outDir == "" {
				outDir = cfg.Export.Dir
			}

			store, err := persistence.Open(cfg.Persistence.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := context.Background()

			runID := ""
			if len(args) > 0 {
				runID = args[0]
			} else {
				runs, err := store.Runs(ctx)
				if err != nil {
					return err
				}
				if len(runs) == 0 {
					return fmt.Errorf("no recorded runs in %s", cfg.Persistence.Path)
				}
				runID = runs[0]
			}

			records, err := store.History(ctx, runID)
			if err != nil {
				return err
			}

			path := filepath.Join(outDir, runID+".parquet")
			if err := export.WriteRunHistory(path, records); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d generations to %s\n", len(records), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "out", "", "output directory (defaults to the configured export dir)")

	return cmd
}
