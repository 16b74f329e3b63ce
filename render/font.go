package render

import (
	"image"
	"image/color"
	"strings"

	"gocv.io/x/gocv"
)

// Labeler measures and draws label text on an image
type Labeler interface {
	// TextSize returns the width and height in pixels of text
	TextSize(text string) image.Point
	// PutText draws text with its baseline starting at origin
	PutText(img *gocv.Mat, text string, origin image.Point, clr color.RGBA) error
}

// Font defines the parameters for rendering text on an image using GoCV's
// built in Hershey fonts
type Font struct {
	Face      gocv.HersheyFont
	Scale     float64
	Thickness int
	LineType  gocv.LineType
}

// DefaultFont returns default font settings
func DefaultFont() Font {
	return Font{
		Face:      gocv.FontHersheySimplex,
		Scale:     0.6,
		Thickness: 2,
		LineType:  gocv.LineAA,
	}
}

// hersheyText replaces characters the Hershey fonts have no glyph for
var hersheyText = strings.NewReplacer("≈", "~")

// TextSize returns the rendered size of text
func (f Font) TextSize(text string) image.Point {
	return gocv.GetTextSize(hersheyText.Replace(text), f.Face, f.Scale, f.Thickness)
}

// PutText draws text on img
func (f Font) PutText(img *gocv.Mat, text string, origin image.Point, clr color.RGBA) error {
	gocv.PutTextWithParams(img, hersheyText.Replace(text), origin, f.Face, f.Scale,
		clr, f.Thickness, f.LineType, false)
	return nil
}
