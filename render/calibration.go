package render

import (
	"image"
	"image/color"

	"github.com/swdee/go-objsize/calibration"
	"github.com/swdee/go-objsize/geometry"
	"gocv.io/x/gocv"
)

// CalibrationStyle defines how the calibration clicks are drawn
type CalibrationStyle struct {
	PointColor    color.RGBA
	PointRadius   int
	LineColor     color.RGBA
	LineThickness int
	TextColor     color.RGBA
	// Labeler draws the distance label, nil uses DefaultFont
	Labeler Labeler
}

// DefaultCalibrationStyle returns default calibration overlay settings
func DefaultCalibrationStyle() CalibrationStyle {
	return CalibrationStyle{
		PointColor:    Red,
		PointRadius:   5,
		LineColor:     Green,
		LineThickness: 2,
		TextColor:     Yellow,
	}
}

// Calibration draws the pending click points and, when last holds a completed
// pair, the line between them labelled with its distance
func Calibration(img *gocv.Mat, pending []geometry.Point, last *calibration.Result,
	style CalibrationStyle) error {

	points := pending

	if last != nil && len(last.Points) == 2 {
		a := geometry.ToImagePoint(last.Points[0])
		b := geometry.ToImagePoint(last.Points[1])

		gocv.Line(img, a, b, style.LineColor, style.LineThickness)

		points = append(append([]geometry.Point(nil), last.Points...), pending...)

		if text := last.Label(); text != "" {
			labeler := style.Labeler

			if labeler == nil {
				labeler = DefaultFont()
			}

			mid := image.Pt((a.X+b.X)/2, (a.Y+b.Y)/2-10)

			if err := labeler.PutText(img, text, mid, style.TextColor); err != nil {
				return err
			}
		}
	}

	for _, p := range points {
		gocv.Circle(img, geometry.ToImagePoint(p), style.PointRadius, style.PointColor, -1)
	}

	return nil
}
