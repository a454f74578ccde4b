package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/AbdelilahOu/simplesql/pkg/simplesql"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	nullStyle   = cellStyle.Foreground(lipgloss.Color("240"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))
	footerStyle = lipgloss.NewStyle().Faint(true)
)

// renderRows writes rows in the given format: "table" or "json".
func renderRows(w io.Writer, format string, columns []string, rows []simplesql.Row) error {
	switch format {
	case "json":
		return renderJSON(w, rows)
	case "table", "":
		renderTable(w, columns, rows)
		return nil
	}
	return fmt.Errorf("unknown format '%s': use table or json", format)
}

func renderJSON(w io.Writer, rows []simplesql.Row) error {
	out := make([]map[string]any, len(rows))
	for i, r := range rows {
		out[i] = r.Map()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func renderTable(w io.Writer, columns []string, rows []simplesql.Row) {
	if len(columns) == 0 && len(rows) > 0 {
		columns = rows[0].Columns
	}
	nulls := make(map[[2]int]bool)
	cells := make([][]string, len(rows))
	for i, r := range rows {
		cells[i] = make([]string, len(r.Values))
		for j, v := range r.Values {
			if v == nil {
				cells[i][j] = "NULL"
				nulls[[2]int{i, j}] = true
				continue
			}
			cells[i][j] = fmt.Sprint(v)
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(columns...).
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case nulls[[2]int{row, col}]:
				return nullStyle
			}
			return cellStyle
		})

	fmt.Fprintln(w, t.String())
	fmt.Fprintln(w, footerStyle.Render(fmt.Sprintf("(%d rows)", len(rows))))
}
