// Command jurixctl runs operational tasks against a jurix deployment:
// schema migrations, account bootstrap, token issuance and audit replay.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jurix/jurix/infrastructure/service/logger"
	"github.com/jurix/jurix/internal/bootstrap"
	"github.com/jurix/jurix/internal/config"
)

const programName = "jurixctl"

// Version and build information
var (
	Version   = "development"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// env is the state shared by every subcommand
type env struct {
	cfg *config.Config
	log logger.Logger
	db  *sql.DB
}

func newEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	log := bootstrap.NewLogger(cfg).WithFields(map[string]interface{}{"component": programName})

	db, err := bootstrap.OpenDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: log, db: db}, nil
}

func (e *env) Close() error {
	return e.db.Close()
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (commit %s, built %s)\n", programName, Version, GitCommit, BuildTime)
		},
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Administrative tasks for the jurix contract service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		versionCommand(),
		migrateCommand(),
		userCommand(),
		tokenCommand(),
		auditCommand(),
	)
	return rootCmd
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		os.Exit(1)
	}
}
