package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/savelydental/Savely/internal/application/services"
	"github.com/savelydental/Savely/internal/web"
)

const bestValueMark = "★ Best price"

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0F766E"))
	headerStyle    = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle      = lipgloss.NewStyle().Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(lipgloss.Color("#16A34A"))
	separatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8"))
)

// table renders rows as aligned columns; highlighted rows stand out
type table struct {
	title     string
	headers   []string
	rows      [][]string
	highlight []bool
}

func newTable(title string, headers ...string) *table {
	return &table{title: title, headers: headers}
}

func (t *table) addRow(highlight bool, cells ...string) {
	t.rows = append(t.rows, cells)
	t.highlight = append(t.highlight, highlight)
}

func (t *table) render() string {
	if len(t.rows) == 0 {
		return "No results\n"
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}
	// padding
	for i := range widths {
		widths[i] += 2
	}

	var sb strings.Builder
	if t.title != "" {
		sb.WriteString(titleStyle.Render(t.title))
		sb.WriteString("\n")
	}

	sb.WriteString(t.line(t.headers, widths, headerStyle))
	total := len(widths) - 1
	for _, w := range widths {
		total += w
	}
	sb.WriteString(separatorStyle.Render(strings.Repeat("-", total)))
	sb.WriteString("\n")

	for i, row := range t.rows {
		style := cellStyle
		if t.highlight[i] {
			style = highlightStyle
		}
		sb.WriteString(t.line(row, widths, style))
	}
	return sb.String()
}

func (t *table) line(cells []string, widths []int, style lipgloss.Style) string {
	var sb strings.Builder
	for i := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		sb.WriteString(style.Width(widths[i]).Render(cell))
		if i < len(widths)-1 {
			sb.WriteString(separatorStyle.Render("|"))
		}
	}
	sb.WriteString("\n")
	return sb.String()
}

func comparisonTable(treatmentName string, cards []services.ComparisonCard) *table {
	t := newTable(treatmentName, "Clinic", "City", "Rating", "Price", "Days", "Warranty", "Includes", "")
	for _, card := range cards {
		includes := web.Join(card.IncludesPreview)
		if card.MoreIncludes > 0 {
			includes += fmt.Sprintf(" +%d more", card.MoreIncludes)
		}
		mark := ""
		if card.BestValue {
			mark = bestValueMark
		}
		t.addRow(card.BestValue,
			card.Clinic.Name,
			card.Clinic.City,
			web.Rating(card.Clinic.Rating),
			web.Euro(card.Offer.Price),
			fmt.Sprintf("%d", card.Offer.DurationDays),
			fmt.Sprintf("%d months", card.Offer.WarrantyMonths),
			includes,
			mark,
		)
	}
	return t
}
