package tables

import "sort"

// streamDetector infers tables from whitespace alignment alone: text
// fragments that line up in the same x columns across three or more
// consecutive rows are treated as tabular. Used when a page draws no
// ruling lines.
type streamDetector struct {
	rowTolerance float64 // max y distance for fragments on one row
	colTolerance float64 // max x distance to share a column
	minRows      int
	minCols      int
}

func newStreamDetector() streamDetector {
	return streamDetector{
		rowTolerance: 4.0,
		colTolerance: 6.0,
		minRows:      3,
		minCols:      2,
	}
}

func (d streamDetector) name() string { return "stream" }

func (d streamDetector) detect(frags []fragment, _ []segment) []table {
	if len(frags) == 0 {
		return nil
	}

	rows := d.groupRows(frags)

	// A row is a table candidate when it has at least minCols fragments.
	// Runs of consecutive candidate rows with consistent column starts
	// become one table each.
	var tables []table
	var run [][]fragment
	flush := func() {
		if len(run) >= d.minRows {
			if tb := d.buildTable(run); tb != nil {
				tables = append(tables, *tb)
			}
		}
		run = nil
	}

	for _, row := range rows {
		if len(row) >= d.minCols {
			run = append(run, row)
		} else {
			flush()
		}
	}
	flush()

	return tables
}

// groupRows buckets fragments into visual rows by y proximity, top to
// bottom, each row sorted left to right.
func (d streamDetector) groupRows(frags []fragment) [][]fragment {
	sorted := make([]fragment, len(frags))
	copy(sorted, frags)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].y > sorted[j].y })

	var rows [][]fragment
	current := []fragment{sorted[0]}
	for _, f := range sorted[1:] {
		if current[len(current)-1].y-f.y > d.rowTolerance {
			rows = append(rows, current)
			current = nil
		}
		current = append(current, f)
	}
	rows = append(rows, current)

	for _, row := range rows {
		sort.Slice(row, func(i, j int) bool { return row[i].x < row[j].x })
	}
	return rows
}

// buildTable checks that the candidate rows share column positions and
// materializes the cell grid. Rows whose fragment starts drift from the
// column profile of the first row break the table.
func (d streamDetector) buildTable(run [][]fragment) *table {
	cols := make([]float64, 0, len(run[0]))
	for _, f := range run[0] {
		cols = append(cols, f.x)
	}

	var cells [][]string
	for _, row := range run {
		rowCells := make([]string, len(cols))
		matched := 0
		for _, f := range row {
			c := d.nearestColumn(cols, f.x)
			if c < 0 {
				continue
			}
			matched++
			if rowCells[c] == "" {
				rowCells[c] = f.text
			} else {
				rowCells[c] += " " + f.text
			}
		}
		if matched < d.minCols {
			break
		}
		cells = append(cells, rowCells)
	}

	if len(cells) < d.minRows {
		return nil
	}
	return &table{rows: cells}
}

func (d streamDetector) nearestColumn(cols []float64, x float64) int {
	best, bestDist := -1, d.colTolerance
	for i, c := range cols {
		if dist := abs(c - x); dist <= bestDist {
			best, bestDist = i, dist
		}
	}
	return best
}
