package tables

import "sort"

// latticeDetector recovers tables from ruled lines: a grid of at least
// two horizontal and two vertical drawn segments whose intersections
// form cells. Text fragments are binned into cells by position.
type latticeDetector struct {
	// tolerance for clustering nearly-collinear lines, in points
	alignTolerance float64
}

func newLatticeDetector() latticeDetector {
	return latticeDetector{alignTolerance: 3.0}
}

func (d latticeDetector) name() string { return "lattice" }

func (d latticeDetector) detect(frags []fragment, segs []segment) []table {
	var rowLines, colLines []float64
	for _, s := range segs {
		if s.horizontal() {
			rowLines = append(rowLines, s.y1)
		} else if s.vertical() {
			colLines = append(colLines, s.x1)
		}
	}

	rows := cluster(rowLines, d.alignTolerance)
	cols := cluster(colLines, d.alignTolerance)
	if len(rows) < 2 || len(cols) < 2 {
		return nil
	}

	// rows top-to-bottom (descending y), cols left-to-right
	sort.Sort(sort.Reverse(sort.Float64Slice(rows)))
	sort.Float64s(cols)

	nRows, nCols := len(rows)-1, len(cols)-1
	cells := make([][]string, nRows)
	for i := range cells {
		cells[i] = make([]string, nCols)
	}

	filled := 0
	for _, f := range frags {
		r := bandIndexDesc(rows, f.y)
		c := bandIndexAsc(cols, f.x)
		if r < 0 || c < 0 {
			continue
		}
		if cells[r][c] == "" {
			filled++
			cells[r][c] = f.text
		} else {
			cells[r][c] += " " + f.text
		}
	}
	if filled == 0 {
		return nil
	}

	return []table{{rows: cells}}
}

// cluster merges values within tol of each other and returns one
// representative per cluster, sorted ascending.
func cluster(vals []float64, tol float64) []float64 {
	if len(vals) == 0 {
		return nil
	}
	sort.Float64s(vals)
	out := []float64{vals[0]}
	for _, v := range vals[1:] {
		if v-out[len(out)-1] > tol {
			out = append(out, v)
		}
	}
	return out
}

// bandIndexDesc finds which band of the descending boundary list
// contains v, -1 when v lies outside the grid.
func bandIndexDesc(bounds []float64, v float64) int {
	for i := 0; i < len(bounds)-1; i++ {
		if v <= bounds[i] && v >= bounds[i+1] {
			return i
		}
	}
	return -1
}

// bandIndexAsc is the ascending-order counterpart of bandIndexDesc.
func bandIndexAsc(bounds []float64, v float64) int {
	for i := 0; i < len(bounds)-1; i++ {
		if v >= bounds[i] && v <= bounds[i+1] {
			return i
		}
	}
	return -1
}
