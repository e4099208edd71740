// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jonathan/jobplus/internal/config"
	"github.com/jonathan/jobplus/internal/geo"
	"github.com/jonathan/jobplus/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-3]) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		line = truncate(line, boxWidth-4)
		// %-*s pads by bytes, so pad by runes by hand
		pad := boxWidth - 4 - utf8.RuneCountInString(line)
		fmt.Fprintf(p.out, "│ %s%s │\n", line, strings.Repeat(" ", pad))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintConfig outputs the effective configuration.
func (p *Printer) PrintConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Backend:   %s\n", cfg.BackendURL))
	sb.WriteString(fmt.Sprintf("IP lookup: %s\n", cfg.IPLookupURL))
	sb.WriteString(fmt.Sprintf("Timeout:   %s\n", time.Duration(cfg.Timeout)))
	sb.WriteString(fmt.Sprintf("Fix age:   %s\n", time.Duration(cfg.LocationAge)))
	sb.WriteString(fmt.Sprintf("Default:   %.4f,%.4f", cfg.DefaultLatitude, cfg.DefaultLongitude))
	if cfg.HasDevicePosition() {
		sb.WriteString(fmt.Sprintf("\nDevice:    %.4f,%.4f", *cfg.DeviceLatitude, *cfg.DeviceLongitude))
	}

	p.printBox("CONFIGURATION", sb.String())
}

// PrintSession outputs the signed in user.
func (p *Printer) PrintSession(sess *types.Session) {
	if sess == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("User ID: %s\n", sess.UserID))
	sb.WriteString(fmt.Sprintf("Name:    %s", sess.FullName))

	p.printBox("SESSION", sb.String())
}

// PrintLocation outputs where the coordinates used for searches came from.
func (p *Printer) PrintLocation(res geo.Result) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Source:      %s\n", res.Source))
	sb.WriteString(fmt.Sprintf("Coordinates: %s", res.Coordinates))
	if res.Err != nil {
		sb.WriteString(fmt.Sprintf("\n⚠ %v", res.Err))
	}

	p.printBox("LOCATION", sb.String())
}

// PrintItems outputs the first items of a list with their keywords and address.
func (p *Printer) PrintItems(title string, items []types.JobItem) {
	if len(items) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total items: %d\n\n", len(items)))

	count := min(len(items), maxItemsToShow)
	for i := 0; i < count; i++ {
		item := items[i]
		marker := " "
		if item.Favorite {
			marker = "♥"
		}
		sb.WriteString(fmt.Sprintf("%s %s  %s\n", marker, item.ItemID, item.Name))
		if len(item.Keywords) > 0 {
			sb.WriteString(fmt.Sprintf("    Keywords: %s\n", truncate(strings.Join(item.Keywords, ", "), 40)))
		}
		if address := strings.Trim(item.Address, `"`); address != "" {
			sb.WriteString(fmt.Sprintf("    Address:  %s\n", truncate(address, 40)))
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(items) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more items", len(items)-maxItemsToShow))
	}

	p.printBox(strings.ToUpper(title), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintFavoriteChange outputs the result of a favorite toggle.
func (p *Printer) PrintFavoriteChange(item types.JobItem, err error) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Item:     %s  %s\n", item.ItemID, item.Name))
	if err != nil {
		sb.WriteString(fmt.Sprintf("⚠ unchanged: %v", err))
	} else if item.Favorite {
		sb.WriteString("Favorite: added ♥")
	} else {
		sb.WriteString("Favorite: removed ♡")
	}

	p.printBox("FAVORITE", sb.String())
}
