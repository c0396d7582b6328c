package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/CrowderSoup/taskflow-pro/client"
)

func newSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>...",
		Short: "Find tasks by meaning rather than exact words",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			results, err := client.NewSearcher(c, a.session.UserID).Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintln(a.out, "No matching tasks.")
				return nil
			}
			renderResults(a.out, a.preferences(cmd.Context()).Theme(), results)
			return nil
		},
	}
}
