package viz

import (
	"math"
	"strings"
)

// Braille cells hold 2x4 dots:
//
//	1 4
//	2 5
//	3 6
//	7 8
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Canvas is a grid of Braille cells addressed in dots, Width*2 by Height*4.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, Grid: make([][]rune, h)}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set lights the dot at (x, y). Dots outside the canvas are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx, dy := absInt(x1-x0), absInt(y1-y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy
	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Viewport maps world coordinates onto canvas dots with equal scale on both
// axes and y pointing up.
type Viewport struct {
	MinX, MinY, MaxX, MaxY float64
}

// Fit returns the smallest square viewport around the points, padded by 10%.
func Fit(xs, ys []float64) Viewport {
	if len(xs) == 0 {
		return Viewport{-1, -1, 1, 1}
	}
	v := Viewport{xs[0], ys[0], xs[0], ys[0]}
	for i := range xs {
		v.MinX, v.MaxX = math.Min(v.MinX, xs[i]), math.Max(v.MaxX, xs[i])
		v.MinY, v.MaxY = math.Min(v.MinY, ys[i]), math.Max(v.MaxY, ys[i])
	}
	span := math.Max(math.Max(v.MaxX-v.MinX, v.MaxY-v.MinY), 1) * 1.1
	cx, cy := (v.MinX+v.MaxX)/2, (v.MinY+v.MaxY)/2
	return Viewport{cx - span/2, cy - span/2, cx + span/2, cy + span/2}
}

// Project returns the dot for world point (x, y).
func (v Viewport) Project(c *Canvas, x, y float64) (int, int) {
	w, h := float64(c.Width*2-1), float64(c.Height*4-1)
	scale := math.Min(w/(v.MaxX-v.MinX), h/(v.MaxY-v.MinY))
	px := (x-v.MinX)*scale + (w-(v.MaxX-v.MinX)*scale)/2
	py := h - ((y-v.MinY)*scale + (h-(v.MaxY-v.MinY)*scale)/2)
	return int(math.Round(px)), int(math.Round(py))
}

// Path draws the polyline through the points.
func (c *Canvas) Path(v Viewport, xs, ys []float64) {
	for i := range xs {
		x1, y1 := v.Project(c, xs[i], ys[i])
		if i == 0 {
			c.Set(x1, y1)
			continue
		}
		x0, y0 := v.Project(c, xs[i-1], ys[i-1])
		c.DrawLine(x0, y0, x1, y1)
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
