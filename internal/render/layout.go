package render

import (
	"strings"
	"unicode"
)

// line is one laid-out line of styled words.
type line []Run

// wrapRuns breaks runs into lines no wider than width. Explicit newlines force
// a break. A single word wider than width gets a line of its own.
func wrapRuns(runs []Run, width float64, measure func(string, Style) float64) []line {
	var (
		lines []line
		cur   line
		curW  float64
		space bool // whitespace seen since the last placed word
	)
	flush := func() {
		lines = append(lines, cur)
		cur = nil
		curW = 0
		space = false
	}
	for _, r := range runs {
		for si, seg := range strings.Split(r.Text, "\n") {
			if si > 0 {
				flush()
			}
			if seg != "" && unicode.IsSpace(rune(seg[0])) {
				space = true
			}
			for _, word := range strings.Fields(seg) {
				sep := ""
				if len(cur) > 0 && space {
					sep = " "
				}
				w := measure(sep+word, r.Style)
				if len(cur) > 0 && curW+w > width {
					flush()
					sep = ""
					w = measure(word, r.Style)
				}
				cur = append(cur, Run{Text: sep + word, Style: r.Style})
				curW += w
				space = true
			}
			// Words inside one segment are space separated; only trailing
			// whitespace carries over into the next run.
			space = seg != "" && unicode.IsSpace(rune(seg[len(seg)-1]))
		}
	}
	if len(cur) > 0 {
		flush()
	}
	return lines
}

// lineWidth sums the measured width of a laid-out line.
func lineWidth(l line, measure func(string, Style) float64) float64 {
	var w float64
	for _, r := range l {
		w += measure(r.Text, r.Style)
	}
	return w
}
