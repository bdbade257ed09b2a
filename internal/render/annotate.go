package render

import (
	"fmt"
	"image"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
)

const (
	dpi      = 72.0
	fontSize = 12.0
)

// annotator draws scale labels and titles with a TrueType font. It is
// created only when a font file is configured; without one, images render
// with no text.
type annotator struct {
	context *freetype.Context
	face    font.Face
}

func newAnnotator(fontPath string) (*annotator, error) {
	data, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("reading font file: %w", err)
	}

	parsedFont, err := freetype.ParseFont(data)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(fontSize)
	ctx.SetHinting(font.HintingFull)
	ctx.SetSrc(image.Black)

	return &annotator{
		context: ctx,
		face: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    fontSize,
			DPI:     dpi,
			Hinting: font.HintingFull,
		}),
	}, nil
}

func (a *annotator) Close() error {
	if a.face != nil {
		return a.face.Close()
	}
	return nil
}

// drawString renders s with its baseline at (x, y).
func (a *annotator) drawString(img *image.RGBA, s string, x, y int) {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)
	_, _ = a.context.DrawString(s, freetype.Pt(x, y))
}

// measure returns the pixel width of s in the annotator's face.
func (a *annotator) measure(s string) int {
	return font.MeasureString(a.face, s).Round()
}

func (a *annotator) fontHeight() int {
	metrics := a.face.Metrics()
	return (metrics.Ascent + metrics.Descent).Round()
}

// humanHz formats a frequency with an SI prefix, e.g. "433.92 MHz".
func humanHz(hz float64) string {
	fract, suffix := humanize.ComputeSI(hz)
	return fmt.Sprintf("%0.2f %sHz", fract, suffix)
}
