package tables

import (
	"bytes"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// fragment is a run of text at a known position on the page, in PDF
// user-space coordinates (origin bottom-left, y grows upward).
type fragment struct {
	x, y float64
	text string
}

// segment is a drawn line on the page. Ruled tables are built from
// horizontal and vertical segments.
type segment struct {
	x1, y1, x2, y2 float64
}

func (s segment) horizontal() bool { return abs(s.y1-s.y2) < 1.0 && abs(s.x1-s.x2) >= 1.0 }
func (s segment) vertical() bool   { return abs(s.x1-s.x2) < 1.0 && abs(s.y1-s.y2) >= 1.0 }

var stringLiteralRe = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)`)

// pageGeometry walks one page's content stream and collects positioned
// text fragments plus drawn line segments.
func pageGeometry(path string, pageNr int) ([]fragment, []segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, nil, err
	}
	r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
	if err != nil {
		return nil, nil, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}

	frags, segs := parseGeometry(data)
	return frags, segs, nil
}

// parseGeometry tracks the text cursor through Tm/Td/TD operators and
// the path point through m/l/re operators. It is deliberately partial:
// tables only need positions, not full rendering state.
func parseGeometry(data []byte) ([]fragment, []segment) {
	var frags []fragment
	var segs []segment

	var curX, curY float64     // text cursor
	var pathX, pathY float64   // current path point
	var lineX, lineY float64   // Td/TD line start
	var pending []segment      // path segments awaiting a stroke op

	for _, raw := range bytes.Split(data, []byte{'\n'}) {
		line := strings.TrimSpace(string(raw))
		if line == "" {
			continue
		}
		op, nums := splitOperator(line)

		switch op {
		case "Tm":
			if len(nums) >= 6 {
				curX, curY = nums[len(nums)-2], nums[len(nums)-1]
				lineX, lineY = curX, curY
			}
		case "Td", "TD":
			if len(nums) >= 2 {
				lineX += nums[len(nums)-2]
				lineY += nums[len(nums)-1]
				curX, curY = lineX, lineY
			}
		case "Tj", "TJ", "'":
			text := collectLiterals(line)
			if strings.TrimSpace(text) != "" {
				frags = append(frags, fragment{x: curX, y: curY, text: text})
				curX += float64(len(text)) * 5 // rough advance, enough for column grouping
			}
		case "m":
			if len(nums) >= 2 {
				pathX, pathY = nums[len(nums)-2], nums[len(nums)-1]
			}
		case "l":
			if len(nums) >= 2 {
				x, y := nums[len(nums)-2], nums[len(nums)-1]
				pending = append(pending, segment{pathX, pathY, x, y})
				pathX, pathY = x, y
			}
		case "re":
			if len(nums) >= 4 {
				x, y, w, h := nums[len(nums)-4], nums[len(nums)-3], nums[len(nums)-2], nums[len(nums)-1]
				pending = append(pending, rectEdges(x, y, w, h)...)
			}
		case "S", "s", "B", "b", "f", "F", "B*", "b*", "f*":
			segs = append(segs, pending...)
			pending = nil
		case "n":
			pending = nil
		}
	}

	return frags, segs
}

// rectEdges decomposes a rectangle into its four edges. Thin rectangles
// (the usual encoding of ruled lines) collapse to a single segment.
func rectEdges(x, y, w, h float64) []segment {
	if abs(h) < 2 {
		return []segment{{x, y, x + w, y}}
	}
	if abs(w) < 2 {
		return []segment{{x, y, x, y + h}}
	}
	return []segment{
		{x, y, x + w, y},
		{x, y + h, x + w, y + h},
		{x, y, x, y + h},
		{x + w, y, x + w, y + h},
	}
}

// splitOperator pulls the trailing operator name off a content line and
// parses any leading numeric operands.
func splitOperator(line string) (string, []float64) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	op := fields[len(fields)-1]
	var nums []float64
	for _, f := range fields[:len(fields)-1] {
		if v, err := strconv.ParseFloat(f, 64); err == nil {
			nums = append(nums, v)
		}
	}
	return op, nums
}

func collectLiterals(line string) string {
	var sb strings.Builder
	for _, m := range stringLiteralRe.FindAllStringSubmatch(line, -1) {
		sb.WriteString(unescapeLiteral(m[1]))
	}
	return sb.String()
}

func unescapeLiteral(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				sb.WriteByte(s[i])
			}
		} else {
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
