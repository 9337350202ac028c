package main

import (
	"context"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "opsdesk",
		Short:         "Back-office API for recurring jobs and preset projects",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}

	root.AddCommand(newServeCmd(), newMigrateCmd(), newRunJobCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the recurrence scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			a.log.Info().Msg("migrations applied")
			return nil
		},
	}
}

func newRunJobCmd() *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "run-job <id>",
		Short: "Execute one cron job immediately",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil || id == 0 {
				return fmt.Errorf("invalid cron job id %q", args[0])
			}

			now := time.Now()
			if at != "" {
				if now, err = time.Parse(time.RFC3339, at); err != nil {
					return fmt.Errorf("invalid --at: %w", err)
				}
			}

			a, err := bootstrap()
			if err != nil {
				return err
			}

			result, err := a.recurrences.Execute(cmd.Context(), id, now)
			if err != nil {
				return err
			}

			a.log.Info().
				Uint64("cron_job_id", id).
				Uint64("project_id", result.Project.ID).
				Time("next_run", result.Job.NextRun).
				Msg("cron job executed")
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "execution instant (RFC 3339), defaults to now")
	return cmd
}

func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap()
	if err != nil {
		return err
	}
	return a.serve(ctx)
}
