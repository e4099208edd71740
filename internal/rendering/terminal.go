package rendering

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pterm/pterm"

	"github.com/jonathan/jobplus/internal/session"
	"github.com/jonathan/jobplus/internal/types"
)

// Terminal renders state for the command line.
type Terminal struct {
	out io.Writer
}

// NewTerminal creates a terminal renderer writing to out.
func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out}
}

// Items prints the item list as a table, favorites marked with a heart.
func (t *Terminal) Items(items []types.JobItem) {
	tw := table.NewWriter()
	tw.SetOutputMirror(t.out)
	tw.AppendHeader(table.Row{"", "ID", "Name", "Keywords", "Address"})

	for _, item := range items {
		fav := "♡"
		if item.Favorite {
			fav = "♥"
		}
		tw.AppendRow(table.Row{
			fav,
			item.ItemID,
			item.Name,
			strings.Join(item.Keywords, ", "),
			strings.Join(trimAll(AddressLines(item.Address)), "\n"),
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, WidthMax: 40},
		{Number: 4, WidthMax: 30},
	})
	tw.SetStyle(table.StyleRounded)
	tw.Render()
}

// Notice prints a notice with a prefix matching its kind.
func (t *Terminal) Notice(n session.Notice) {
	var printer *pterm.PrefixPrinter
	switch n.Kind {
	case session.NoticeLoading:
		printer = pterm.Info.WithWriter(t.out)
	case session.NoticeWarning:
		printer = pterm.Warning.WithWriter(t.out)
	default:
		printer = pterm.Error.WithWriter(t.out)
	}
	printer.Println(n.Message)
}

// Success prints a confirmation line.
func (t *Terminal) Success(message string) {
	pterm.Success.WithWriter(t.out).Println(message)
}

// State prints the welcome line and then the notice or the items.
func (t *Terminal) State(s *session.State) {
	if s.Authenticated() {
		_, _ = fmt.Fprintln(t.out, s.Welcome())
	}
	if s.Notice != nil {
		t.Notice(*s.Notice)
		return
	}
	t.Items(s.Items)
}

// Spin shows a spinner with message until the returned func is called.
func (t *Terminal) Spin(message string) func() {
	spinner, err := pterm.DefaultSpinner.WithWriter(t.out).WithRemoveWhenDone(true).Start(message)
	if err != nil {
		return func() {}
	}
	return func() { _ = spinner.Stop() }
}

func trimAll(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
