package main

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/CrowderSoup/taskflow-pro/client"
	"github.com/CrowderSoup/taskflow-pro/model"
	"github.com/CrowderSoup/taskflow-pro/tasks"
)

// loadSubtasks returns the parent task and a subtask store loaded for it.
func (a *app) loadSubtasks(ctx context.Context, parentID string) (model.Task, *tasks.SubtaskStore, error) {
	store, err := a.loadTasks(ctx)
	if err != nil {
		return model.Task{}, nil, err
	}
	parent, ok := store.Get(parentID)
	if !ok {
		return model.Task{}, nil, tasks.ErrTaskNotFound
	}
	c, err := a.client()
	if err != nil {
		return model.Task{}, nil, err
	}
	subs := tasks.NewSubtaskStore(c, parentID)
	if err := subs.Load(ctx); err != nil {
		return model.Task{}, nil, err
	}
	return parent, subs, nil
}

func newSubtasksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "subtasks",
		Aliases: []string{"sub"},
		Short:   "Manage the subtasks of a task",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list <task-id>",
		Short: "List subtasks in creation order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parent, subs, err := a.loadSubtasks(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			renderSubtasks(a.out, a.preferences(cmd.Context()).Theme(), parent, subs.List())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <task-id> <title>...",
		Short: "Add a subtask",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, subs, err := a.loadSubtasks(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			created, err := subs.Add(cmd.Context(), model.SubtaskDraft{Title: strings.Join(args[1:], " ")})
			if err != nil {
				return err
			}
			success(a.out, "✅ Added %s (%s)\n", created.Title, created.ID)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <task-id> <subtask-id>",
		Short: "Mark a subtask done, or reopen it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, subs, err := a.loadSubtasks(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			s, err := subs.Toggle(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s is now %s\n", s.Title, s.Status)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <task-id> <subtask-id>",
		Short: "Delete a subtask",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, subs, err := a.loadSubtasks(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := subs.Delete(cmd.Context(), args[1]); err != nil {
				return err
			}
			success(a.out, "🗑️  Deleted %s\n", args[1])
			return nil
		},
	})

	cmd.AddCommand(newSuggestCmd(a))
	return cmd
}

func newSuggestCmd(a *app) *cobra.Command {
	var accept []int
	var acceptAll bool
	cmd := &cobra.Command{
		Use:   "suggest <task-id>",
		Short: "Ask the AI for subtask ideas and optionally save some",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			parent, subs, err := a.loadSubtasks(ctx, args[0])
			if err != nil {
				return err
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			items, err := client.NewGenerator(c).Generate(ctx, parent.Title)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintln(a.out, "No suggestions for this task.")
				return nil
			}

			suggestions := tasks.NewSuggestions(items)
			picked, err := pickSuggestions(items, accept, acceptAll)
			if err != nil {
				return err
			}
			for _, title := range picked {
				if _, err := suggestions.Accept(ctx, subs, title); err != nil {
					return fmt.Errorf("save %q: %w", title, err)
				}
				success(a.out, "✅ Added %s\n", title)
			}

			for i, item := range items {
				if slices.Contains(suggestions.Items(), item) {
					fmt.Fprintf(a.out, "%d. %s\n", i+1, item)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntSliceVarP(&accept, "accept", "a", nil, "Save the suggestions with these numbers")
	cmd.Flags().BoolVar(&acceptAll, "all", false, "Save every suggestion")
	return cmd
}

// pickSuggestions resolves 1-based suggestion numbers to titles.
func pickSuggestions(items []string, numbers []int, all bool) ([]string, error) {
	if all {
		return items, nil
	}
	picked := make([]string, 0, len(numbers))
	for _, n := range numbers {
		if n < 1 || n > len(items) {
			return nil, fmt.Errorf("no suggestion number %d", n)
		}
		picked = append(picked, items[n-1])
	}
	return picked, nil
}
