package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/CrowderSoup/taskflow-pro/model"
	"github.com/CrowderSoup/taskflow-pro/tasks"
)

// loadTasks returns a task store loaded for the signed-in identity.
func (a *app) loadTasks(ctx context.Context) (*tasks.Store, error) {
	c, err := a.client()
	if err != nil {
		return nil, err
	}
	store := tasks.NewStore(c)
	if err := store.Load(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func newListCmd(a *app) *cobra.Command {
	var priority, status string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks, in progress first and done last",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pf, err := tasks.ParsePriorityFilter(priority)
			if err != nil {
				return err
			}
			sf, err := tasks.ParseStatusFilter(status)
			if err != nil {
				return err
			}

			store, err := a.loadTasks(cmd.Context())
			if err != nil {
				return err
			}
			all := store.List()
			theme := a.preferences(cmd.Context()).Theme()
			renderTasks(a.out, theme, all, tasks.Derive(all, pf, sf))
			return nil
		},
	}
	cmd.Flags().StringVarP(&priority, "priority", "p", tasks.All, "Filter by priority (all, high, medium, low)")
	cmd.Flags().StringVarP(&status, "status", "s", tasks.All, "Filter by status (all, pending, in-progress, done)")
	return cmd
}

func newAddCmd(a *app) *cobra.Command {
	var draft model.TaskDraft
	var priority, status string
	cmd := &cobra.Command{
		Use:   "add <title>...",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			draft.Title = strings.Join(args, " ")
			draft.Priority = model.Priority(priority)
			draft.Status = model.Status(status)

			store, err := a.loadTasks(cmd.Context())
			if err != nil {
				return err
			}
			created, err := store.Add(cmd.Context(), draft)
			if err != nil {
				return err
			}
			success(a.out, "✅ Created %s (%s)\n", created.Title, created.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&priority, "priority", "p", string(model.PriorityMedium), "Priority (high, medium, low)")
	cmd.Flags().StringVarP(&status, "status", "s", "", "Status (pending, in-progress, done)")
	cmd.Flags().StringVar(&draft.StartDate, "start", "", "Start date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVarP(&draft.Notes, "notes", "n", "", "Free-form notes")
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var title, priority, status, start, notes string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch model.TaskPatch
			flags := cmd.Flags()
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("priority") {
				p := model.Priority(priority)
				patch.Priority = &p
			}
			if flags.Changed("status") {
				s := model.Status(status)
				patch.Status = &s
			}
			if flags.Changed("start") {
				patch.StartDate = &start
			}
			if flags.Changed("notes") {
				patch.Notes = &notes
			}
			if patch.Empty() {
				return fmt.Errorf("nothing to update; pass at least one field flag")
			}

			store, err := a.loadTasks(cmd.Context())
			if err != nil {
				return err
			}
			updated, err := store.Update(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			success(a.out, "✅ Updated %s\n", updated.Title)
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "New priority")
	cmd.Flags().StringVarP(&status, "status", "s", "", "New status")
	cmd.Flags().StringVar(&start, "start", "", "New start date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&notes, "notes", "n", "", "New notes")
	return cmd
}

func newToggleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Mark a task done, or reopen a done task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.loadTasks(cmd.Context())
			if err != nil {
				return err
			}
			t, err := store.Toggle(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s is now %s\n", t.Title, t.Status)
			return nil
		},
	}
}

func newRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task and its subtasks",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.loadTasks(cmd.Context())
			if err != nil {
				return err
			}
			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			success(a.out, "🗑️  Deleted %s\n", args[0])
			return nil
		},
	}
}
