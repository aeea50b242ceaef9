package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/streeteats/cleanup-cli/internal/cleanup"
	"github.com/streeteats/cleanup-cli/internal/model"
)

var (
	cleanupBatchSize int
	cleanupDryRun    bool
	cleanupOps       []string
	cleanupLimit     int
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Batch data cleanup over the record store",
}

var cleanupRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a batch cleanup pass over all records",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("cleanup"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		svc := initService(st)

		ops := make([]model.OperationType, 0, len(cleanupOps))
		for _, op := range cleanupOps {
			ops = append(ops, model.OperationType(op))
		}

		batchSize := cleanupBatchSize
		if batchSize == 0 {
			batchSize = cfg.Cleanup.BatchSize
		}

		result, err := svc.RunFullCleanup(ctx, cleanup.Options{
			BatchSize:  batchSize,
			DryRun:     cleanupDryRun,
			Operations: ops,
			MaxRecords: cleanupLimit,
		})
		if err != nil {
			return eris.Wrap(err, "cleanup run")
		}

		zap.L().Info("cleanup complete",
			zap.Int("processed", result.TotalProcessed),
			zap.Int("improved", result.Summary.TrucksImproved),
			zap.Int("duplicates_removed", result.Summary.DuplicatesRemoved),
			zap.Int64("duration_ms", result.DurationMS),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	cleanupRunCmd.Flags().IntVar(&cleanupBatchSize, "batch-size", 0, "records per page (default from config)")
	cleanupRunCmd.Flags().BoolVar(&cleanupDryRun, "dry-run", false, "report changes without writing")
	cleanupRunCmd.Flags().StringSliceVar(&cleanupOps, "ops", nil, "operations to run (default: remove_placeholders,normalize_phone,fix_coordinates,update_quality_scores)")
	cleanupRunCmd.Flags().IntVar(&cleanupLimit, "limit", 0, "max records to process (0 = all)")
	cleanupCmd.AddCommand(cleanupRunCmd)
	rootCmd.AddCommand(cleanupCmd)
}
