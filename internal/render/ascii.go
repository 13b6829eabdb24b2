// Package render draws sampled functions as text.
package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/njchilds90/umlcalc"
)

// Default preview size.
const (
	DefaultWidth  = 50
	DefaultHeight = 10
)

var (
	ErrTooFewPoints  = errors.New("render: not enough points to plot")
	ErrNoValidPoints = errors.New("render: no valid points to plot")
)

// ASCII renders set on a width x height character grid. Valid points are
// drawn as '*'. The x axis ('-') and y axis ('|') are drawn where zero lies
// strictly inside the plotted range. Two footer lines give the y and x ranges.
func ASCII(set umlcalc.SampleSet, width, height int) (string, error) {
	if width < 2 || height < 2 {
		return "", fmt.Errorf("render: grid %dx%d is too small", width, height)
	}
	if set.Len() < 2 {
		return "", ErrTooFewPoints
	}

	var xs, ys []float64
	for i, y := range set.Ys {
		if y.Valid {
			xs = append(xs, set.Xs[i])
			ys = append(ys, y.Value)
		}
	}
	if len(xs) == 0 {
		return "", ErrNoValidPoints
	}

	xMin, xMax := xs[0], xs[0]
	for _, x := range xs {
		xMin = min(xMin, x)
		xMax = max(xMax, x)
	}
	yMin, yMax, _ := set.YRange()
	if yMin == yMax {
		yMin--
		yMax++
	}

	grid := make([][]byte, height)
	for r := range grid {
		grid[r] = []byte(strings.Repeat(" ", width))
	}

	col := func(x float64) int {
		if xMax == xMin {
			return width / 2
		}
		return int((x - xMin) / (xMax - xMin) * float64(width-1))
	}
	row := func(y float64) int {
		return height - 1 - int((y-yMin)/(yMax-yMin)*float64(height-1))
	}

	for i := range xs {
		c, r := col(xs[i]), row(ys[i])
		if c >= 0 && c < width && r >= 0 && r < height {
			grid[r][c] = '*'
		}
	}

	if yMin < 0 && 0 < yMax {
		r := row(0)
		for c := 0; c < width; c++ {
			if grid[r][c] == ' ' {
				grid[r][c] = '-'
			}
		}
	}
	if xMin < 0 && 0 < xMax {
		c := col(0)
		for r := 0; r < height; r++ {
			if grid[r][c] == ' ' {
				grid[r][c] = '|'
			}
		}
	}

	var b strings.Builder
	for _, line := range grid {
		b.Write(line)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "y-range: [%.2f, %.2f]\n", yMin, yMax)
	fmt.Fprintf(&b, "x-range: [%.2f, %.2f]\n", xMin, xMax)
	return b.String(), nil
}
