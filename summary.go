package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pivolan/climate_charts/domain/models"
)

// summaryTable lists every pipeline with its output file or error.
func summaryTable(results []result) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Pipeline", "Status", "Output", "Rows", "Matrix", "Null cells", "Duration"})
	for _, r := range results {
		if r.Err != nil {
			t.AppendRow(table.Row{r.Pipeline, "failed", r.Err.Error(), r.Rows, "", "", ""})
			continue
		}
		shape, nulls := "", ""
		if r.Matrix != nil {
			shape = fmt.Sprintf("%dx%d", r.Figure.Rows, r.Figure.Cols)
			nulls = strconv.Itoa(r.Figure.NullCells)
		}
		t.AppendRow(table.Row{r.Pipeline, "ok", r.Figure.Path, r.Rows, shape, nulls, r.Figure.Duration.Round(time.Millisecond)})
	}
	t.SetStyle(table.StyleLight)
	return t.Render()
}

// matrixPreview renders the first maxRows rows of m; null cells are blank.
func matrixPreview(m *models.Matrix, maxRows int) string {
	t := table.NewWriter()
	header := table.Row{m.Rows.Name}
	for j := 0; j < m.Cols.Len(); j++ {
		header = append(header, m.Cols.Label(j))
	}
	t.AppendHeader(header)

	for i := 0; i < m.Rows.Len() && i < maxRows; i++ {
		row := table.Row{m.Rows.Label(i)}
		for j := 0; j < m.Cols.Len(); j++ {
			if c := m.At(i, j); c.Valid {
				row = append(row, strconv.FormatFloat(c.Value, 'f', 2, 64))
			} else {
				row = append(row, "")
			}
		}
		t.AppendRow(row)
	}
	if hidden := m.Rows.Len() - maxRows; hidden > 0 {
		t.AppendFooter(table.Row{fmt.Sprintf("+%d rows", hidden)})
	}
	t.SetStyle(table.StyleDefault)
	return t.Render()
}
