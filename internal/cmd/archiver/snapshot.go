package archiver

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mdubravic83/POtranslate/internal/archiver"
	"github.com/mdubravic83/POtranslate/internal/config"
	"github.com/mdubravic83/POtranslate/internal/parquet"
)

func newSnapshotCommand() *cobra.Command {
	var configPath string
	var limit int
	v := config.NewViper()

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Invokes a snapshot. Jobs are read from the store and preserved as parquet.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			c, err := config.Load(configPath, v)
			if err != nil {
				return err
			}
			if c.Archiver.Repository.Type == "" {
				return fmt.Errorf("archiver.repository is required")
			}
			if cmd.Flags().Changed("limit") {
				c.Archiver.Limit = limit
			}

			logger, err := config.NewLogger(c.Global.Logger)
			if err != nil {
				return err
			}
			defer logger.Sync()
			l := logger.Named("archiver.snapshot")

			sid := uuid.Must(uuid.NewUUID())

			st, err := config.InitializeStore(ctx, c.Store, logger)
			if err != nil {
				return err
			}
			defer st.Close(context.Background())

			repository, err := config.InitializeRepository(c.Archiver.Repository, sid.String(), logger)
			if err != nil {
				return err
			}

			preserver, err := parquet.New(
				parquet.WithLogger(l),
				parquet.WithRepository(repository),
				parquet.WithBatchSizeNumRecords(c.Archiver.BatchSizeNumRecords),
			)
			if err != nil {
				return err
			}

			a := archiver.New(
				archiver.WithLogger(l),
				archiver.WithStore(st),
				archiver.WithPreserver(preserver),
				archiver.WithRepository(repository),
				archiver.WithSourceName(c.Store.Type),
			)

			m, err := a.Snapshot(ctx, sid, c.Archiver.Limit)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), m.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of most recent jobs to archive")
	cmd.MarkFlagRequired("config")

	return cmd
}
