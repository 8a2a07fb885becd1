package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jurix/jurix/internal/bootstrap"
)

func auditCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Maintain the audit trail",
	}
	cmd.AddCommand(auditReplayCommand())
	return cmd
}

func auditReplayCommand() *cobra.Command {
	var max int

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Write audit entries parked in the Redis retry queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			rdb, err := bootstrap.OpenRedis(cmd.Context(), e.cfg)
			if err != nil {
				return err
			}
			if rdb == nil {
				return errors.New("REDIS_URL is required to replay audit entries")
			}
			defer rdb.Close()

			services, err := bootstrap.NewServices(e.cfg, e.db, rdb, nil, e.log)
			if err != nil {
				return err
			}

			n, err := services.AuditUseCase.ReplayDeferred(cmd.Context(), max)
			fmt.Fprintf(cmd.OutOrStdout(), "replayed %d audit entries\n", n)
			return err
		},
	}

	cmd.Flags().IntVar(&max, "max", 0, "stop after this many entries (0 drains the queue)")
	return cmd
}
