package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/rubiojr/basket/pkg/aggregator"
	"github.com/rubiojr/basket/pkg/core"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1).
			Margin(0, 0, 1, 0)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("32"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("160"))

	noDataStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true).
			Margin(1, 0)
)

// renderProducts prints products as a table under title.
func renderProducts(w io.Writer, title string, products []core.ProductRecord, withQuery bool) {
	fmt.Fprintln(w, titleStyle.Render(title))

	if len(products) == 0 {
		fmt.Fprintln(w, noDataStyle.Render("No products found"))
		return
	}

	headers := []string{"Platform", "Name", "Weight", "Price", "Availability"}
	if withQuery {
		headers = append([]string{"Query"}, headers...)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, p := range products {
		row := []string{p.Platform, p.Name, p.Weight, p.Price, p.Availability}
		if withQuery {
			row = append([]string{p.SearchQuery}, row...)
		}
		t.Row(row...)
	}

	fmt.Fprintln(w, t.Render())
}

// renderOutcome prints a one-line status for a source that finished.
func renderOutcome(w io.Writer, o aggregator.Outcome) {
	elapsed := o.Elapsed.Round(10 * time.Millisecond)
	if o.OK() {
		fmt.Fprintf(w, "%s %s %s\n", okStyle.Render("✓"), o.Source,
			metaStyle.Render(fmt.Sprintf("%d products in %s", len(o.Records), elapsed)))
		return
	}
	fmt.Fprintf(w, "%s %s %s\n", failStyle.Render("✗"), o.Source,
		metaStyle.Render(fmt.Sprintf("%s after %s", firstLine(o.Err.Error()), elapsed)))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
