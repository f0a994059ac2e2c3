package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"taskfeed/pkg/activity"
)

func newActivityCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Activity log operations (list, verify)",
	}

	var (
		taskID string
		limit  int
		format string
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "Show recent activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stores, err := e.Stores(cmd.Context())
			if err != nil {
				return err
			}
			var events []activity.Event
			if taskID != "" {
				events, err = stores.Activity.ByTask(cmd.Context(), taskID, limit)
			} else {
				events, err = stores.Activity.Recent(cmd.Context(), limit)
			}
			if err != nil {
				return fmt.Errorf("list activity: %w", err)
			}
			if format == "short" {
				printShortEvents(cmd.OutOrStdout(), events)
				return nil
			}
			return printJSON(cmd.OutOrStdout(), events)
		},
	}
	list.Flags().StringVar(&taskID, "task", "", "only activity of this task")
	list.Flags().IntVar(&limit, "limit", 20, "maximum number of events")
	list.Flags().StringVar(&format, "format", "json", "output format: json or short")

	verify := &cobra.Command{
		Use:   "verify",
		Short: "Verify the activity hash chain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stores, err := e.Stores(cmd.Context())
			if err != nil {
				return err
			}
			if err := stores.Activity.VerifyChain(cmd.Context()); err != nil {
				return fmt.Errorf("chain verification failed: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{"status": "ok", "message": "hash chain verified"})
		},
	}

	cmd.AddCommand(list, verify)
	return cmd
}

func printShortEvents(w io.Writer, events []activity.Event) {
	for _, e := range events {
		content := ""
		if b, err := json.Marshal(e.Content); err == nil {
			content = string(b)
		}
		fmt.Fprintf(w, "%-8s  %-16s  %-8s  %-8s  %s\n",
			e.Timestamp.Format("15:04:05"), truncStr(e.Type, 16), truncStr(e.Actor, 8), truncStr(e.TaskID, 8), truncStr(content, 60))
	}
}
