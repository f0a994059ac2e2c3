package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"taskfeed/internal/identity"
	"taskfeed/pkg/task"
)

func newTaskCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Task operations (list, get, delete)",
	}

	var format string
	list := &cobra.Command{
		Use:   "list",
		Short: "List tasks, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stores, err := e.Stores(cmd.Context())
			if err != nil {
				return err
			}
			tasks, err := stores.Service(e.log).ListTasks(cmd.Context())
			if err != nil {
				return fmt.Errorf("list tasks: %w", err)
			}
			if format == "short" {
				printShortTasks(cmd.OutOrStdout(), tasks)
				return nil
			}
			return printJSON(cmd.OutOrStdout(), tasks)
		},
	}
	list.Flags().StringVar(&format, "format", "json", "output format: json or short")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stores, err := e.Stores(cmd.Context())
			if err != nil {
				return err
			}
			t, err := stores.Service(e.log).GetTask(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("get task: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), t)
		},
	}

	var as string
	del := &cobra.Command{
		Use:   "delete <id> --as <user-id>",
		Short: "Delete a task on behalf of its owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stores, err := e.Stores(cmd.Context())
			if err != nil {
				return err
			}
			if err := stores.Service(e.log).DeleteTask(cmd.Context(), args[0], identity.Trusted(as)); err != nil {
				return fmt.Errorf("delete task: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), map[string]bool{"success": true})
		},
	}
	del.Flags().StringVar(&as, "as", "", "user id the deletion is performed as")
	_ = del.MarkFlagRequired("as")

	cmd.AddCommand(list, get, del)
	return cmd
}

func printShortTasks(w io.Writer, tasks []task.Task) {
	for _, t := range tasks {
		fmt.Fprintf(w, "%-8s  %-8s  %3d♥  %3d✎  %s\n",
			truncStr(t.ID, 8), truncStr(t.User, 8), t.Likes.Len(), len(t.Comments), truncStr(t.Text, 60))
	}
}
