// Package export renders stored runs as standalone SVG images.
package export

import (
	"bufio"
	"fmt"
	"io"

	"github.com/san-kum/flatsim/internal/viz"
)

// PathOptions sizes and colors a path image.
type PathOptions struct {
	Width, Height int
	Stroke        string
	Background    string
}

func DefaultPathOptions() PathOptions {
	return PathOptions{Width: 480, Height: 480, Stroke: "#00ffff", Background: "#0a0a0a"}
}

// WritePath draws the top-down path through (xs[i], ys[i]) with equal scale
// on both axes. The start is marked with a dot.
func WritePath(w io.Writer, xs, ys []float64, opts PathOptions) error {
	if len(xs) != len(ys) {
		return fmt.Errorf("export: %d x values but %d y values", len(xs), len(ys))
	}
	if len(xs) < 2 {
		return fmt.Errorf("export: path needs at least 2 points, got %d", len(xs))
	}

	vp := viz.Fit(xs, ys)
	sx := float64(opts.Width) / (vp.MaxX - vp.MinX)
	sy := float64(opts.Height) / (vp.MaxY - vp.MinY)
	project := func(i int) (float64, float64) {
		return (xs[i] - vp.MinX) * sx, float64(opts.Height) - (ys[i]-vp.MinY)*sy
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="`,
		opts.Width, opts.Height, opts.Width, opts.Height, opts.Background, opts.Stroke)

	for i := range xs {
		x, y := project(i)
		if i == 0 {
			fmt.Fprintf(bw, "M%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(bw, " L%.1f,%.1f", x, y)
		}
	}

	x0, y0 := project(0)
	fmt.Fprintf(bw, "\"/>\n<circle cx=\"%.1f\" cy=\"%.1f\" r=\"3\" fill=\"%s\"/>\n</svg>\n", x0, y0, opts.Stroke)
	return bw.Flush()
}
