package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/CrowderSoup/taskflow-pro/model"
)

func newThemeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "theme [light|classic-dark]",
		Short:     "Show or switch the color theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(model.ThemeLight), string(model.ThemeClassicDark)},
		RunE: func(cmd *cobra.Command, args []string) error {
			store := a.preferences(cmd.Context())
			if len(args) == 0 {
				fmt.Fprintln(a.out, store.Theme())
				return nil
			}
			if _, err := a.client(); err != nil {
				return err
			}
			if err := store.UpdateTheme(cmd.Context(), model.Theme(args[0])); err != nil {
				return err
			}
			success(a.out, "🎨 Theme set to %s\n", store.Theme())
			return nil
		},
	}
}

func newPrefsCmd(a *app) *cobra.Command {
	var previews, commandMenu bool
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := a.preferences(cmd.Context())

			var patch model.PreferencesPatch
			if cmd.Flags().Changed("feature-previews") {
				patch.FeaturePreviews = &previews
			}
			if cmd.Flags().Changed("command-menu") {
				patch.CommandMenuEnabled = &commandMenu
			}
			if patch.FeaturePreviews != nil || patch.CommandMenuEnabled != nil {
				if _, err := a.client(); err != nil {
					return err
				}
				if err := store.UpdatePreferences(cmd.Context(), patch); err != nil {
					return err
				}
			}

			p := store.Preferences()
			t := newTable(a.out, p.Theme)
			t.AppendHeader(table.Row{"Preference", "Value"})
			t.AppendRows([]table.Row{
				{"theme", p.Theme},
				{"feature previews", p.FeaturePreviews},
				{"command menu", p.CommandMenuEnabled},
			})
			t.Render()
			return nil
		},
	}
	cmd.Flags().BoolVar(&previews, "feature-previews", false, "Enable feature previews")
	cmd.Flags().BoolVar(&commandMenu, "command-menu", true, "Enable the command menu")
	return cmd
}
