package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	dupCheckID      string
	dupCheckAgainst string
	dupMergePrim    string
	dupMergeDup     string
	dupMergeDryRun  bool
)

var duplicatesCmd = &cobra.Command{
	Use:   "duplicates",
	Short: "Inspect and merge duplicate records",
}

var duplicatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all likely-duplicate pairs, best matches first",
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

		pairs, err := initService(st).FindDuplicates(ctx, cfg.Cleanup.BatchSize)
		if err != nil {
			return eris.Wrap(err, "find duplicates")
		}

		zap.L().Info("duplicate scan complete", zap.Int("pairs", len(pairs)))

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(pairs)
	},
}

var duplicatesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check one record for duplicates across the store",
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
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		// With --against, score just that pair; otherwise scan the store.
		if dupCheckAgainst != "" {
			pair, err := svc.CompareRecords(ctx, dupCheckID, dupCheckAgainst)
			if err != nil {
				return eris.Wrapf(err, "compare %s against %s", dupCheckID, dupCheckAgainst)
			}
			return enc.Encode(pair)
		}

		pairs, err := svc.CheckRecord(ctx, dupCheckID, cfg.Cleanup.BatchSize)
		if err != nil {
			return eris.Wrapf(err, "check record %s", dupCheckID)
		}
		return enc.Encode(pairs)
	},
}

var duplicatesMergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge a duplicate record into its primary",
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

		outcome, err := initService(st).Merge(ctx, dupMergePrim, dupMergeDup, dupMergeDryRun)
		if err != nil {
			return eris.Wrap(err, "merge records")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(outcome)
	},
}

func init() {
	duplicatesCheckCmd.Flags().StringVar(&dupCheckID, "id", "", "record id to check (required)")
	duplicatesCheckCmd.Flags().StringVar(&dupCheckAgainst, "against", "", "score only against this record id")
	_ = duplicatesCheckCmd.MarkFlagRequired("id")

	duplicatesMergeCmd.Flags().StringVar(&dupMergePrim, "primary", "", "record id that survives (required)")
	duplicatesMergeCmd.Flags().StringVar(&dupMergeDup, "duplicate", "", "record id to merge and delete (required)")
	duplicatesMergeCmd.Flags().BoolVar(&dupMergeDryRun, "dry-run", false, "report the merge without writing")
	_ = duplicatesMergeCmd.MarkFlagRequired("primary")
	_ = duplicatesMergeCmd.MarkFlagRequired("duplicate")

	duplicatesCmd.AddCommand(duplicatesListCmd, duplicatesCheckCmd, duplicatesMergeCmd)
	rootCmd.AddCommand(duplicatesCmd)
}
