package export

import (
	"fmt"
	"image/color"
	"io"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

var tan = color.RGBA{R: 210, G: 180, B: 140, A: 255}

// MonthlyPanel is one bar chart of a value per calendar month.
type MonthlyPanel struct {
	Label  string
	Values [12]float64 // January first; months without data are zero
}

// MonthlyBarsPNG renders up to four monthly panels in a 2x2 grid.
func MonthlyBarsPNG(w io.Writer, title string, panels []MonthlyPanel) error {
	const cols = 2
	rows := (len(panels) + cols - 1) / cols
	grid := make([][]*plot.Plot, rows)
	for r := range grid {
		grid[r] = make([]*plot.Plot, cols)
	}

	for i, panel := range panels {
		p, err := monthlyPlot(panel)
		if err != nil {
			return fmt.Errorf("%s: %w", panel.Label, err)
		}
		if i == 0 {
			p.Title.Text = title + "\n" + p.Title.Text
		}
		grid[i/cols][i%cols] = p
	}

	img := vgimg.New(10*vg.Inch, 8*vg.Inch)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: rows, Cols: cols,
		PadX: vg.Millimeter * 6, PadY: vg.Millimeter * 6,
		PadTop: vg.Millimeter * 4, PadBottom: vg.Millimeter * 4,
		PadLeft: vg.Millimeter * 4, PadRight: vg.Millimeter * 4,
	}
	canvases := plot.Align(grid, tiles, dc)
	for r := range grid {
		for c := range grid[r] {
			if grid[r][c] != nil {
				grid[r][c].Draw(canvases[r][c])
			}
		}
	}

	_, err := vgimg.PngCanvas{Canvas: img}.WriteTo(w)
	return err
}

func monthlyPlot(panel MonthlyPanel) (*plot.Plot, error) {
	p := plot.New()

	sum, peak := 0.0, 0.0
	for _, v := range panel.Values {
		sum += v
		peak = max(peak, v)
	}
	p.Title.Text = fmt.Sprintf("Sum: %.2f", sum)
	p.Y.Label.Text = panel.Label
	p.Y.Min = 0
	if peak > 0 {
		p.Y.Max = peak * 1.15
	}

	bars, err := plotter.NewBarChart(plotter.Values(panel.Values[:]), vg.Points(14))
	if err != nil {
		return nil, err
	}
	bars.Color = tan
	bars.LineStyle.Width = vg.Length(0)

	labels, err := barLabels(panel.Values)
	if err != nil {
		return nil, err
	}
	p.Add(plotter.NewGrid(), bars, labels)

	names := make([]string, 12)
	for m := range names {
		names[m] = time.Month(m + 1).String()[:3]
	}
	p.NominalX(names...)
	return p, nil
}

// barLabels prints each bar's value just above it.
func barLabels(values [12]float64) (*plotter.Labels, error) {
	xys := make(plotter.XYs, len(values))
	text := make([]string, len(values))
	for i, v := range values {
		xys[i] = plotter.XY{X: float64(i), Y: v}
		text[i] = fmt.Sprintf("%.1f", v)
	}
	return plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: text})
}
