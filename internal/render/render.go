// Package render draws processed spectrum data to images: overlay line
// charts for averaged datasets and derived series, and waterfall heatmaps
// for per-sweep data. It is a pure sink; all statistics are computed by the
// caller.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/rf-tools/rtl-spectrum/internal/bands"
	"github.com/rf-tools/rtl-spectrum/internal/spectrum"
)

const (
	topBorder    = 40
	leftBorder   = 70
	bottomBorder = 60
	rightBorder  = 30

	chartHeight    = 400
	minChartWidth  = 640
	maxChartWidth  = 1600
	waterfallWidth = 1024

	tickMarkSize   = 5
	pixelsPerLabel = 150
)

// Series is one named dataset on an overlay chart.
type Series struct {
	Name string
	Bins []*spectrum.BinData
}

// Config holds rendering options. FontPath points at a TrueType font used
// for titles and scale labels; when empty, images render without text.
// Bands, when set, annotates frequency ticks with the allocation that
// contains them.
type Config struct {
	Theme    ColorTheme
	FontPath string
	Bands    *bands.Table
}

// Renderer draws spectrum charts and waterfalls.
type Renderer struct {
	config Config
	ann    *annotator
}

// New creates a renderer. The font file, if configured, is loaded once up
// front.
func New(config Config) (*Renderer, error) {
	if config.Theme == "" {
		config.Theme = ClassicTheme
	}
	if !ValidTheme(config.Theme) {
		return nil, fmt.Errorf("unknown color theme: %s", config.Theme)
	}

	r := &Renderer{config: config}
	if config.FontPath != "" {
		ann, err := newAnnotator(config.FontPath)
		if err != nil {
			return nil, err
		}
		r.ann = ann
	}
	return r, nil
}

// Close releases the font face, if any.
func (r *Renderer) Close() error {
	if r.ann != nil {
		return r.ann.Close()
	}
	return nil
}

// Spectrum draws one or more finalised datasets as overlaid line charts
// sharing a frequency axis.
func (r *Renderer) Spectrum(series []Series, title string) (*image.RGBA, error) {
	freqMin, freqMax := int64(0), int64(0)
	var powers []float64
	maxBins := 0
	for _, s := range series {
		for _, b := range s.Bins {
			if len(powers) == 0 || b.FreqStartHz < freqMin {
				freqMin = b.FreqStartHz
			}
			if len(powers) == 0 || b.FreqStartHz > freqMax {
				freqMax = b.FreqStartHz
			}
			powers = append(powers, b.DbmAvg)
		}
		maxBins = max(maxBins, len(s.Bins))
	}
	if len(powers) == 0 {
		return nil, errors.New("no data to render")
	}
	if freqMax == freqMin {
		freqMax = freqMin + 1
	}

	plotWidth := min(max(maxBins, minChartWidth), maxChartWidth)
	img := newCanvas(plotWidth, chartHeight)
	plot := plotArea(plotWidth, chartHeight)

	lo, hi := powerBounds(powers, 0, 1)
	pad := (hi - lo) * 0.05
	lo, hi = lo-pad, hi+pad

	xFor := func(freq int64) int {
		return plot.Min.X + int(float64(freq-freqMin)/float64(freqMax-freqMin)*float64(plotWidth-1))
	}
	yFor := func(dbm float64) int {
		return plot.Max.Y - 1 - int((dbm-lo)/(hi-lo)*float64(chartHeight-1))
	}

	drawFrame(img, plot)
	for si, s := range series {
		col := seriesPalette[si%len(seriesPalette)]
		prevX, prevY := -1, -1
		for _, b := range s.Bins {
			x, y := xFor(b.FreqStartHz), yFor(b.DbmAvg)
			if prevX >= 0 {
				drawLine(img, prevX, prevY, x, y, col)
			} else {
				img.Set(x, y, col)
			}
			prevX, prevY = x, y
		}
	}

	if r.ann != nil {
		r.drawTitle(img, title)
		r.drawFrequencyScale(img, plot, freqMin, freqMax)
		r.drawPowerScale(img, plot, lo, hi)
		r.drawLegend(img, plot, series)
	}
	return img, nil
}

// Envelope draws the min/max/average series of an envelope computation as
// one overlay chart.
func (r *Renderer) Envelope(minSeries, maxSeries, avgSeries []*spectrum.BinData, title string) (*image.RGBA, error) {
	return r.Spectrum([]Series{
		{Name: "Min", Bins: minSeries},
		{Name: "Max", Bins: maxSeries},
		{Name: "Avg", Bins: avgSeries},
	}, title)
}

// Waterfall draws per-sweep data as a heatmap: one row band per sweep, top
// to bottom in sweep order, colored by power.
func (r *Renderer) Waterfall(sweeps []spectrum.Sweep, title string) (*image.RGBA, error) {
	if len(sweeps) == 0 {
		return nil, errors.New("no sweeps to render")
	}

	freqMin, freqMax := int64(0), int64(0)
	var powers []float64
	for _, sweep := range sweeps {
		for _, b := range sweep.Bins {
			if len(powers) == 0 || b.FreqStartHz < freqMin {
				freqMin = b.FreqStartHz
			}
			if len(powers) == 0 || b.FreqStartHz > freqMax {
				freqMax = b.FreqStartHz
			}
			powers = append(powers, b.DbmAvg)
		}
	}
	if len(powers) == 0 {
		return nil, errors.New("no data to render")
	}
	if freqMax == freqMin {
		freqMax = freqMin + 1
	}

	rowHeight := min(max(600/len(sweeps), 1), 8)
	plotHeight := rowHeight * len(sweeps)
	img := newCanvas(waterfallWidth, plotHeight)
	plot := plotArea(waterfallWidth, plotHeight)

	// Percentile bounds keep single spikes from washing out the scale.
	lo, hi := powerBounds(powers, 0.05, 0.95)
	cm := NewColorMapper(r.config.Theme, lo, hi)

	xFor := func(freq int64) int {
		return plot.Min.X + int(float64(freq-freqMin)/float64(freqMax-freqMin)*float64(waterfallWidth-1))
	}

	for row, sweep := range sweeps {
		y0 := plot.Min.Y + row*rowHeight
		for i, b := range sweep.Bins {
			x0 := xFor(b.FreqStartHz)
			x1 := x0 + 1
			if i+1 < len(sweep.Bins) {
				x1 = max(x1, xFor(sweep.Bins[i+1].FreqStartHz))
			}
			fillRect(img, image.Rect(x0, y0, x1, y0+rowHeight), cm.GetColor(b.DbmAvg))
		}
	}

	if r.ann != nil {
		r.drawTitle(img, title)
		r.drawFrequencyScale(img, plot, freqMin, freqMax)
		r.drawSweepScale(img, plot, sweeps, rowHeight)
	}
	return img, nil
}

func newCanvas(plotWidth, plotHeight int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0,
		plotWidth+leftBorder+rightBorder,
		plotHeight+topBorder+bottomBorder))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	return img
}

func plotArea(plotWidth, plotHeight int) image.Rectangle {
	return image.Rect(leftBorder, topBorder, leftBorder+plotWidth, topBorder+plotHeight)
}

func (r *Renderer) drawTitle(img *image.RGBA, title string) {
	if title == "" {
		return
	}
	r.ann.drawString(img, title, leftBorder, topBorder/2+r.ann.fontHeight()/2)
}

func (r *Renderer) drawFrequencyScale(img *image.RGBA, plot image.Rectangle, freqMin, freqMax int64) {
	count := max(plot.Dx()/pixelsPerLabel, 1)
	hzPerLabel := float64(freqMax-freqMin) / float64(count)

	for si := 0; si <= count; si++ {
		hz := float64(freqMin) + float64(si)*hzPerLabel
		x := plot.Min.X + si*(plot.Dx()/count)
		if x >= plot.Max.X {
			x = plot.Max.X - 1
		}

		for y := plot.Max.Y; y < plot.Max.Y+tickMarkSize; y++ {
			img.Set(x, y, color.Black)
		}

		label := humanHz(hz)
		lx := x - r.ann.measure(label)/2
		ly := plot.Max.Y + tickMarkSize + r.ann.fontHeight()
		r.ann.drawString(img, label, lx, ly)

		if r.config.Bands != nil {
			if band := r.config.Bands.Lookup(int64(hz)); band != nil {
				usage := truncate(band.Usage, pixelsPerLabel-10, r.ann)
				r.ann.drawString(img, usage, lx, ly+r.ann.fontHeight()+2)
			}
		}
	}
}

func (r *Renderer) drawPowerScale(img *image.RGBA, plot image.Rectangle, lo, hi float64) {
	count := max(plot.Dy()/60, 1)
	dbmPerLabel := (hi - lo) / float64(count)

	for si := 0; si <= count; si++ {
		dbm := lo + float64(si)*dbmPerLabel
		y := plot.Max.Y - 1 - si*(plot.Dy()/count)

		for x := plot.Min.X - tickMarkSize; x < plot.Min.X; x++ {
			img.Set(x, y, color.Black)
		}

		label := spectrum.FormatPower(dbm) + " dBm"
		r.ann.drawString(img, label, plot.Min.X-tickMarkSize-r.ann.measure(label)-3, y+r.ann.fontHeight()/2)
	}
}

func (r *Renderer) drawSweepScale(img *image.RGBA, plot image.Rectangle, sweeps []spectrum.Sweep, rowHeight int) {
	rowsPerLabel := max(80/rowHeight, 1)

	for row := 0; row < len(sweeps); row += rowsPerLabel {
		y := plot.Min.Y + row*rowHeight

		for x := plot.Min.X - tickMarkSize; x < plot.Min.X; x++ {
			img.Set(x, y, color.Black)
		}

		label := sweeps[row].Label
		r.ann.drawString(img, label, 3, y+r.ann.fontHeight())
	}
}

func (r *Renderer) drawLegend(img *image.RGBA, plot image.Rectangle, series []Series) {
	if len(series) < 2 {
		return
	}

	x := plot.Max.X - 150
	y := plot.Min.Y + 10
	for si, s := range series {
		col := seriesPalette[si%len(seriesPalette)]
		fillRect(img, image.Rect(x, y, x+10, y+10), col)
		r.ann.drawString(img, s.Name, x+15, y+10)
		y += r.ann.fontHeight() + 6
	}
}

func drawFrame(img *image.RGBA, plot image.Rectangle) {
	for x := plot.Min.X; x < plot.Max.X; x++ {
		img.Set(x, plot.Min.Y, color.Black)
		img.Set(x, plot.Max.Y-1, color.Black)
	}
	for y := plot.Min.Y; y < plot.Max.Y; y++ {
		img.Set(plot.Min.X, y, color.Black)
		img.Set(plot.Max.X-1, y, color.Black)
	}
}

func fillRect(img *image.RGBA, rect image.Rectangle, col color.Color) {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			img.Set(x, y, col)
		}
	}
}

// drawLine draws a straight segment using Bresenham's algorithm.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, col color.Color) {
	dx := abs(x1 - x0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	dy := -abs(y1 - y0)
	sy := 1
	if y0 > y1 {
		sy = -1
	}

	err := dx + dy
	for {
		img.Set(x0, y0, col)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func truncate(s string, maxWidth int, ann *annotator) string {
	for len(s) > 0 && ann.measure(s) > maxWidth {
		s = s[:len(s)-1]
	}
	return s
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
