package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/CrowderSoup/taskflow-pro/model"
	"github.com/CrowderSoup/taskflow-pro/tasks"
)

var (
	success = color.New(color.FgHiGreen).FprintfFunc()
	notice  = color.New(color.FgCyan).FprintfFunc()
	failure = color.New(color.FgRed, color.Bold).FprintfFunc()
)

// setColor enables colors only when out is a terminal.
func setColor(out io.Writer) {
	f, ok := out.(*os.File)
	if ok && isatty.IsTerminal(f.Fd()) {
		color.NoColor = false
		text.EnableColors()
		return
	}
	color.NoColor = true
	text.DisableColors()
}

// styleFor maps the UI theme onto a table style.
func styleFor(theme model.Theme) table.Style {
	if theme == model.ThemeClassicDark {
		return table.StyleColoredDark
	}
	return table.StyleLight
}

func newTable(out io.Writer, theme model.Theme) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(styleFor(theme))
	return t
}

func colorStatus(s model.Status) string {
	switch s {
	case model.StatusDone:
		return text.FgHiGreen.Sprint(s)
	case model.StatusInProgress:
		return text.FgHiYellow.Sprint(s)
	default:
		return text.FgHiBlue.Sprint(s)
	}
}

func colorPriority(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return text.FgHiRed.Sprint(p)
	case model.PriorityMedium:
		return text.FgHiYellow.Sprint(p)
	default:
		return string(p)
	}
}

func renderTasks(out io.Writer, theme model.Theme, all, shown []model.Task) {
	t := newTable(out, theme)
	t.SetTitle(filterSummary(all))
	t.AppendHeader(table.Row{"ID", "Title", "Priority", "Status", "Start"})
	for _, task := range shown {
		t.AppendRow(table.Row{task.ID, task.Title, colorPriority(task.Priority), colorStatus(task.Status), task.StartDate})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d of %d", len(shown), len(all))})
	t.Render()
}

// filterSummary shows the filter chip counts, always over the unfiltered set.
func filterSummary(all []model.Task) string {
	return fmt.Sprintf("all %d · high %d · medium %d · low %d | pending %d · in-progress %d · done %d",
		tasks.CountPriority(all, tasks.All),
		tasks.CountPriority(all, tasks.PriorityFilter(model.PriorityHigh)),
		tasks.CountPriority(all, tasks.PriorityFilter(model.PriorityMedium)),
		tasks.CountPriority(all, tasks.PriorityFilter(model.PriorityLow)),
		tasks.CountStatus(all, tasks.StatusFilter(model.StatusPending)),
		tasks.CountStatus(all, tasks.StatusFilter(model.StatusInProgress)),
		tasks.CountStatus(all, tasks.StatusFilter(model.StatusDone)),
	)
}

func renderSubtasks(out io.Writer, theme model.Theme, parent model.Task, subs []model.Subtask) {
	t := newTable(out, theme)
	t.SetTitle(parent.Title)
	t.AppendHeader(table.Row{"ID", "Title", "Status"})
	for _, s := range subs {
		t.AppendRow(table.Row{s.ID, s.Title, colorStatus(s.Status)})
	}
	t.Render()
}

func renderResults(out io.Writer, theme model.Theme, results []model.SearchResult) {
	t := newTable(out, theme)
	t.AppendHeader(table.Row{"Match", "ID", "Title", "Priority", "Status"})
	for _, r := range results {
		t.AppendRow(table.Row{
			fmt.Sprintf("%.0f%%", r.Similarity*100),
			r.ID, r.Title, colorPriority(r.Priority), colorStatus(r.Status),
		})
	}
	t.Render()
}
