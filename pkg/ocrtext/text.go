package ocrtext

import (
	"math"
	"sort"
	"strings"
)

// Block is a recognized text block with its bounding box in pixels.
type Block struct {
	Text   string
	Top    int
	Left   int
	Bottom int
	Right  int
}

// Lines returns the text of the blocks in reading order. Blocks whose left
// edges are closer than mergeDistance form a column; columns are read top to
// bottom, and blocks whose tops differ by less than horizontalDistance are
// joined on one line.
func Lines(blocks []Block, mergeDistance float64, horizontalDistance float64) []string {
	var columns [][]Block
	for _, b := range blocks {
		placed := false
		for i, c := range columns {
			if math.Abs(float64(c[0].Left-b.Left)) < mergeDistance {
				columns[i] = append(c, b)
				placed = true
				break
			}
		}
		if !placed {
			columns = append(columns, []Block{b})
		}
	}

	sameRow := func(a, b Block) bool {
		return math.Abs(float64(a.Top-b.Top)) < horizontalDistance
	}
	before := func(a, b Block) bool {
		if sameRow(a, b) {
			return a.Left < b.Left
		}
		return a.Top < b.Top
	}

	for _, c := range columns {
		sort.SliceStable(c, func(i, j int) bool { return before(c[i], c[j]) })
	}
	sort.SliceStable(columns, func(i, j int) bool { return before(columns[i][0], columns[j][0]) })

	var lines []string
	for _, c := range columns {
		var row []string
		for i, b := range c {
			if i > 0 && !sameRow(c[i-1], b) {
				lines = appendRow(lines, row)
				row = nil
			}
			row = append(row, strings.TrimSpace(b.Text))
		}
		lines = appendRow(lines, row)
	}
	return lines
}

func appendRow(lines []string, row []string) []string {
	line := strings.TrimSpace(strings.Join(row, " "))
	if line == "" {
		return lines
	}
	return append(lines, line)
}
