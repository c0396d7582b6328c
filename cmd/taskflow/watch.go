package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/CrowderSoup/taskflow-pro/client"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream changes to your tasks until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, "👀 Watching for changes (Ctrl+C to stop)")
			return c.Subscribe(cmd.Context(), func(ev client.Event) {
				fmt.Fprintf(a.out, "%s  %s %s\n", time.Now().Format("15:04:05"), color.CyanString("%-20s", ev.Type), ev.Data)
			})
		},
	}
}
