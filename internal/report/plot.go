package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"golang.org/x/term"
)

// Series is a named run of values on the 0-100 score scale.
type Series struct {
	Name   string
	Values []float64
}

const (
	defaultPlotHeight   = 8
	minPlotWidth        = 10
	axisLabelWidth      = 3
	axisSeparator       = " ┤"
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
	scoreMax            = 100.0
)

var seriesColors = []string{"\x1b[36m", "\x1b[33m", "\x1b[35m", "\x1b[32m"}

// braille dot bits indexed by [row][column] within one 2x4 cell.
var brailleBits = [4][2]uint8{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// MovingAverage computes a trailing mean over the given window.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		n := i + 1
		if i >= window {
			sum -= values[i-window]
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}

// PlotScores renders series on a fixed 0-100 axis using braille cells.
// Width is the plot area in cells; zero sizes it to the terminal.
func PlotScores(w io.Writer, title string, series []Series, width, height int, forceColor bool) error {
	var plotted []Series
	for _, s := range series {
		if len(s.Values) > 0 {
			plotted = append(plotted, s)
		}
	}
	if len(plotted) == 0 {
		return nil
	}
	if height <= 0 {
		height = defaultPlotHeight
	}
	if width <= 0 {
		width = PlotWidthFor(terminalWidth())
	}
	if width < minPlotWidth {
		width = minPlotWidth
	}

	dotsX, dotsY := width*2, height*4
	layers := make([][][]uint8, len(plotted))
	for si, s := range plotted {
		cells := make([][]uint8, height)
		for y := range cells {
			cells[y] = make([]uint8, width)
		}
		values := resample(s.Values, dotsX)
		prevX, prevY := -1, -1
		for x, v := range values {
			y := scoreToDotRow(v, dotsY)
			if prevX < 0 {
				setDot(cells, x, y)
			} else {
				drawLine(prevX, prevY, x, y, func(px, py int) { setDot(cells, px, py) })
			}
			prevX, prevY = x, y
		}
		layers[si] = cells
	}

	useColor := shouldUseColor(w, forceColor)
	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	for y := 0; y < height; y++ {
		var b strings.Builder
		fmt.Fprintf(&b, "%*s%s", axisLabelWidth, axisLabel(y, height), axisSeparator)
		for x := 0; x < width; x++ {
			var mask uint8
			owner := -1
			for si, cells := range layers {
				if cells[y][x] != 0 {
					mask |= cells[y][x]
					if owner < 0 {
						owner = si
					}
				}
			}
			ch := rune(0x2800 + int(mask))
			if useColor && owner >= 0 {
				b.WriteString(seriesColors[owner%len(seriesColors)])
				b.WriteRune(ch)
				b.WriteString(colorReset)
			} else {
				b.WriteRune(ch)
			}
		}
		if _, err := fmt.Fprintln(w, b.String()); err != nil {
			return err
		}
	}
	legend := make([]string, len(plotted))
	for i, s := range plotted {
		last := s.Values[len(s.Values)-1]
		label := fmt.Sprintf("%s (last %.0f)", s.Name, last)
		if useColor {
			label = seriesColors[i%len(seriesColors)] + label + colorReset
		}
		legend[i] = label
	}
	_, err := fmt.Fprintf(w, "%*s  %s\n", axisLabelWidth, "", strings.Join(legend, "  "))
	return err
}

// PlotWidthFor computes a plot width that fits within the total available width.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	width := totalWidth - axisLabelWidth - len([]rune(axisSeparator))
	if width < minPlotWidth {
		return minPlotWidth
	}
	return width
}

func axisLabel(row, height int) string {
	switch {
	case row == 0:
		return "100"
	case row == height-1:
		return "0"
	case height > 2 && row == height/2:
		return "50"
	default:
		return ""
	}
}

func scoreToDotRow(v float64, dotsY int) int {
	v = math.Max(0, math.Min(scoreMax, v))
	return int(math.Round((1 - v/scoreMax) * float64(dotsY-1)))
}

func setDot(cells [][]uint8, x, y int) {
	cy, cx := y/4, x/2
	if y < 0 || x < 0 || cy >= len(cells) || cx >= len(cells[cy]) {
		return
	}
	cells[cy][cx] |= brailleBits[y%4][x%2]
}

// resample stretches or averages values onto n points.
func resample(values []float64, n int) []float64 {
	out := make([]float64, n)
	switch {
	case n == 0:
		return out
	case len(values) == 1 || n == 1:
		for i := range out {
			out[i] = values[0]
		}
		return out
	case len(values) > n:
		for i := range out {
			start := i * len(values) / n
			end := (i + 1) * len(values) / n
			if end <= start {
				end = start + 1
			}
			var sum float64
			for _, v := range values[start:end] {
				sum += v
			}
			out[i] = sum / float64(end-start)
		}
		return out
	}
	for i := range out {
		pos := float64(i) * float64(len(values)-1) / float64(n-1)
		lo := int(pos)
		if lo >= len(values)-1 {
			out[i] = values[len(values)-1]
			continue
		}
		frac := pos - float64(lo)
		out[i] = values[lo]*(1-frac) + values[lo+1]*frac
	}
	return out
}

// drawLine walks a Bresenham line between two dots.
func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
