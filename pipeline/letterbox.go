package pipeline

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// LetterboxFit describes how a source frame is placed in a working frame
// whilst maintaining its aspect
type LetterboxFit struct {
	// Scale is the factor applied to both source axes
	Scale float64
	// Size is the scaled source size
	Size image.Point
	// Pad is the top left offset of the scaled source in the working frame
	Pad image.Point
}

// FitLetterbox calculates the letterbox placement of a src sized frame in a
// width x height working frame
func FitLetterbox(src image.Point, width, height int) LetterboxFit {

	fit := LetterboxFit{Size: image.Pt(width, height)}

	if src.X <= 0 || src.Y <= 0 {
		return fit
	}

	scaleW := float64(width) / float64(src.X)
	scaleH := float64(height) / float64(src.Y)
	fit.Scale = scaleH

	if scaleW < scaleH {
		fit.Scale = scaleW
		fit.Size.Y = int(float64(src.Y) * fit.Scale)
	} else {
		fit.Size.X = int(float64(src.X) * fit.Scale)
	}

	fit.Pad = image.Pt((width-fit.Size.X)/2, (height-fit.Size.Y)/2)

	return fit
}

// Letterbox resizes src into a width x height dest with the same scale on
// both axes, padding the remainder with clr.  Unlike a plain resize, lengths
// along both axes keep the same pixels per unit ratio.
func Letterbox(src gocv.Mat, dest *gocv.Mat, width, height int, clr color.RGBA) {

	fit := FitLetterbox(image.Pt(src.Cols(), src.Rows()), width, height)

	tmp := gocv.NewMat()
	defer tmp.Close()

	gocv.Resize(src, &tmp, fit.Size, 0, 0, gocv.InterpolationArea)

	gocv.CopyMakeBorder(tmp, dest, fit.Pad.Y, height-fit.Size.Y-fit.Pad.Y,
		fit.Pad.X, width-fit.Size.X-fit.Pad.X, gocv.BorderConstant, clr)
}
