// Package report renders a dashboard snapshot for the terminal.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"fintrack/internal/core"
)

const (
	barWidth   = 30
	labelWidth = 16
)

type Options struct {
	// Recent caps the transaction table; zero hides it.
	Recent int
}

type styles struct {
	title   lipgloss.Style
	heading lipgloss.Style
	box     lipgloss.Style
	muted   lipgloss.Style
	label   lipgloss.Style
	ok      lipgloss.Style
	warning lipgloss.Style
	over    lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#89b4fa")),
		heading: r.NewStyle().Bold(true).MarginTop(1),
		box:     r.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
		muted:   r.NewStyle().Foreground(lipgloss.Color("#7f849c")),
		label:   r.NewStyle().Width(labelWidth),
		ok:      r.NewStyle().Foreground(lipgloss.Color("#a6e3a1")),
		warning: r.NewStyle().Foreground(lipgloss.Color("#f9e2af")),
		over:    r.NewStyle().Foreground(lipgloss.Color("#f38ba8")).Bold(true),
	}
}

// Render writes the dashboard to w. Colors are used only when w is a
// terminal that supports them.
func Render(w io.Writer, d core.Dashboard, txs []core.Transaction, opts Options) error {
	st := newStyles(lipgloss.NewRenderer(w))

	sections := []string{
		st.title.Render("Finance Tracker"),
		summaryBox(st, d.Summary),
		st.heading.Render("Spending by category"),
		categoryLines(st, d.Categories, d.Colors),
		st.heading.Render("Budgets"),
		budgetLines(st, d.Budgets),
	}
	if opts.Recent > 0 {
		sections = append(sections, st.heading.Render("Recent transactions"), recentLines(st, txs, opts.Recent))
	}

	_, err := fmt.Fprintln(w, lipgloss.JoinVertical(lipgloss.Left, sections...))
	return err
}

func summaryBox(st styles, s core.Summary) string {
	rows := [][2]string{
		{"Total spent", s.TotalSpent.Format()},
		{"Transactions", fmt.Sprint(s.TransactionCount)},
		{"Average", s.AverageTransaction.Format()},
		{"Top category", s.TopCategory},
		{"Most recent", s.MostRecentDate.String()},
	}
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, st.label.Render(r[0])+r[1])
	}
	return st.box.Render(strings.Join(lines, "\n"))
}

func categoryLines(st styles, cats []core.CategoryAmount, colors map[string]string) string {
	if len(cats) == 0 {
		return st.muted.Render("No transactions yet.")
	}
	max := cats[0].Value.Cents
	lines := make([]string, 0, len(cats))
	for _, c := range cats {
		color := colors[string(c.Name)]
		if color == "" {
			color = core.CategoryColor(c.Name)
		}
		bar := st.label.UnsetWidth().Foreground(lipgloss.Color(color)).Render(bar(c.Value.Cents, max))
		lines = append(lines, fmt.Sprintf("%s%s %s", st.label.Render(string(c.Name)), bar, c.Value.Format()))
	}
	return strings.Join(lines, "\n")
}

// bar scales value against max; anything non-zero gets at least one cell.
func bar(value, max int64) string {
	if max <= 0 || value <= 0 {
		return ""
	}
	n := int((value*barWidth + max/2) / max)
	if n < 1 {
		n = 1
	}
	if n > barWidth {
		n = barWidth
	}
	return strings.Repeat("█", n)
}

func budgetLines(st styles, budgets []core.BudgetStatus) string {
	if len(budgets) == 0 {
		return st.muted.Render("No budgets configured.")
	}
	lines := make([]string, 0, len(budgets))
	for _, b := range budgets {
		state, style := "ok", st.ok
		switch {
		case b.OverBudget():
			state, style = "over", st.over
		case b.NearLimit():
			state, style = "warning", st.warning
		}
		lines = append(lines, fmt.Sprintf("%s%s / %s  %3d%%  left %s  %s",
			st.label.Render(string(b.Category)),
			b.Spent.Format(), b.Budget.Format(), b.Percentage,
			b.Remaining.Format(), style.Render(state)))
	}
	return strings.Join(lines, "\n")
}

func recentLines(st styles, txs []core.Transaction, limit int) string {
	if len(txs) == 0 {
		return st.muted.Render("No transactions yet.")
	}
	if len(txs) > limit {
		txs = txs[:limit]
	}
	lines := make([]string, 0, len(txs))
	for _, t := range txs {
		lines = append(lines, fmt.Sprintf("%s  %-14s %10s  %s",
			t.Date.String(), t.Category, t.Amount.Format(), t.Description))
	}
	return strings.Join(lines, "\n")
}
