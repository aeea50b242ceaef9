package main

import (
	"encoding/json"
	"os"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/streeteats/cleanup-cli/internal/model"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load records from a JSON file into the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("cleanup"); err != nil {
			return err
		}

		data, err := os.ReadFile(seedFile)
		if err != nil {
			return eris.Wrapf(err, "read seed file %s", seedFile)
		}

		var records []model.FoodTruckRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return eris.Wrap(err, "parse seed file")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		inserted := 0
		for i := range records {
			r := &records[i]
			if r.ID == "" {
				r.ID = uuid.NewString()
			}
			if err := st.Insert(ctx, r); err != nil {
				zap.L().Warn("seed insert failed",
					zap.String("id", r.ID),
					zap.String("name", r.Name),
					zap.Error(err),
				)
				continue
			}
			inserted++
		}

		zap.L().Info("seed complete",
			zap.Int("inserted", inserted),
			zap.Int("total", len(records)),
		)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "JSON file of records to load (required)")
	_ = seedCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(seedCmd)
}
