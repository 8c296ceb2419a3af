package tables

// fallbackDetector is the last-resort backend: a run of three or more
// consecutive rows carrying the same number of fragments (two or more)
// is emitted as a table, with fragments taken as cells in left-to-right
// order. It skips the column-alignment demand of the stream detector,
// so it recovers something from pages with ragged layouts, while the
// uniform-count requirement keeps it off ordinary prose.
type fallbackDetector struct {
	minRows int
	minCols int
}

func newFallbackDetector() fallbackDetector {
	return fallbackDetector{minRows: 3, minCols: 2}
}

func (d fallbackDetector) name() string { return "fallback" }

func (d fallbackDetector) detect(frags []fragment, _ []segment) []table {
	if len(frags) == 0 {
		return nil
	}

	rows := streamDetector{rowTolerance: 4.0}.groupRows(frags)

	var tables []table
	var run [][]string
	flush := func() {
		if len(run) >= d.minRows {
			tables = append(tables, table{rows: run})
		}
		run = nil
	}

	for _, row := range rows {
		if len(row) < d.minCols {
			flush()
			continue
		}
		if len(run) > 0 && len(row) != len(run[len(run)-1]) {
			flush()
		}
		cells := make([]string, 0, len(row))
		for _, f := range row {
			cells = append(cells, f.text)
		}
		run = append(run, cells)
	}
	flush()

	return tables
}
