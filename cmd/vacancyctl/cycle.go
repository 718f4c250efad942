package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"lawjobs-workers/internal/common/camunda"
	"lawjobs-workers/internal/common/logger"
	"lawjobs-workers/internal/scheduler"
)

func cycleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cycle",
		Short: "Control the daily posting cycle",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Start one posting cycle now",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				client, err := camunda.NewClient(cfg.Camunda.BrokerAddress)
				if err != nil {
					return err
				}
				defer client.Close()

				s, err := scheduler.New(cfg.Scheduler, client, logger.NewStructured(cfg.Logging.Level, "console", "stderr"))
				if err != nil {
					return err
				}
				runID, err := s.Trigger(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "started run %s\n", runID)
				return nil
			},
		},
		&cobra.Command{
			Use:   "next",
			Short: "Print the next scheduled run",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				s, err := scheduler.New(cfg.Scheduler, nil, logger.NewNoOpLogger())
				if err != nil {
					return err
				}
				next, err := s.Next(time.Now())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", next.Format(time.RFC3339), cfg.Scheduler.Spec)
				return nil
			},
		},
	)
	return cmd
}
