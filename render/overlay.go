package render

import (
	"image"
	"image/color"

	"github.com/swdee/go-objsize/geometry"
	"github.com/swdee/go-objsize/measure"
	"gocv.io/x/gocv"
)

// Style defines how measurements are drawn
type Style struct {
	// Alpha is the opacity of the polygon fill, 0 disables the fill
	Alpha float64
	// FillColor is the polygon fill color.  If FillByTrack is set the track
	// palette is used instead so neighbouring objects are distinguishable
	FillColor   color.RGBA
	FillByTrack bool
	// LineThickness of outlines and axes
	LineThickness int
	OutlineColor  color.RGBA
	// CentroidRadius of the dot drawn at the centroid, 0 disables it
	CentroidRadius int
	CentroidColor  color.RGBA
	WidthColor     color.RGBA
	HeightColor    color.RGBA
	// LabelOffset is the distance above an axis start its label is placed
	LabelOffset int
	// LabelPad is the padding around label text inside its box
	LabelPad       int
	LabelTextColor color.RGBA
	// HeightLabelColor is the box color of the height label, the width label
	// box uses WidthColor
	HeightLabelColor color.RGBA
	ClassTextColor   color.RGBA
	ClassLabelColor  color.RGBA
	// Labeler draws the text, nil uses DefaultFont
	Labeler Labeler
}

// DefaultStyle returns the default measurement overlay style
func DefaultStyle() Style {
	return Style{
		Alpha:            0.5,
		FillColor:        Red,
		LineThickness:    2,
		OutlineColor:     Green,
		CentroidRadius:   5,
		CentroidColor:    White,
		WidthColor:       Green,
		HeightColor:      Blue,
		LabelOffset:      30,
		LabelPad:         4,
		LabelTextColor:   Black,
		HeightLabelColor: Magenta,
		ClassTextColor:   White,
		ClassLabelColor:  Red,
	}
}

func (s Style) labeler() Labeler {
	if s.Labeler == nil {
		return DefaultFont()
	}
	return s.Labeler
}

func (s Style) fillColor(m measure.Measurement) color.RGBA {
	if s.FillByTrack && m.Detection.HasTrack() {
		return TrackColor(m.Detection.TrackID)
	}
	return s.FillColor
}

// textLabel defines a label to be rendered on the image
type textLabel struct {
	text    string
	origin  image.Point
	textClr color.RGBA
	boxClr  color.RGBA
}

// Measurements draws each measurement on img: a translucent polygon fill,
// the outline, the centroid, both clipped axes and their labels, and the
// class name beside the centroid.  Measurements without a polygon are
// skipped and invalid ones only get their outline.
func Measurements(img *gocv.Mat, ms []measure.Measurement, style Style) error {

	if len(ms) == 0 {
		return nil
	}

	if style.Alpha > 0 {
		fillLayer(img, ms, style)
	}

	// keep a record of all labels for later rendering
	labels := make([]textLabel, 0, len(ms)*3)

	for _, m := range ms {

		if len(m.Detection.Polygon) < 3 {
			continue
		}

		drawPolyline(img, m.Detection.Polygon, style.OutlineColor, style.LineThickness)

		if !m.Valid {
			continue
		}

		center := geometry.ToImagePoint(m.Centroid)

		if style.CentroidRadius > 0 {
			gocv.Circle(img, center, style.CentroidRadius, style.CentroidColor, -1)
		}

		if m.WidthAxis != nil {
			a := geometry.ToImagePoint(m.WidthAxis.A)
			gocv.Line(img, a, geometry.ToImagePoint(m.WidthAxis.B), style.WidthColor, style.LineThickness)

			labels = append(labels, textLabel{
				text:    m.WidthLabel(),
				origin:  image.Pt(a.X, a.Y-style.LabelOffset),
				textClr: style.LabelTextColor,
				boxClr:  style.WidthColor,
			})
		}

		if m.HeightAxis != nil {
			a := geometry.ToImagePoint(m.HeightAxis.A)
			gocv.Line(img, a, geometry.ToImagePoint(m.HeightAxis.B), style.HeightColor, style.LineThickness)

			labels = append(labels, textLabel{
				text:    m.HeightLabel(),
				origin:  image.Pt(a.X, a.Y-style.LabelOffset),
				textClr: style.LabelTextColor,
				boxClr:  style.HeightLabelColor,
			})
		}

		labels = append(labels, textLabel{
			text:    m.ClassLabel(),
			origin:  image.Pt(center.X+10, center.Y-10),
			textClr: style.ClassTextColor,
			boxClr:  style.ClassLabelColor,
		})
	}

	// draw all labels last so they are the top most layer on the image and
	// don't get overlapped by outlines or axes of other objects
	return drawLabels(img, labels, style.labeler(), style.LabelPad)
}

// fillLayer blends the filled polygons of all measurements onto img
func fillLayer(img *gocv.Mat, ms []measure.Measurement, style Style) {

	layer := img.Clone()
	defer layer.Close()

	filled := false

	for _, m := range ms {
		if len(m.Detection.Polygon) < 3 {
			continue
		}

		ptsVec := gocv.NewPointsVectorFromPoints([][]image.Point{m.Detection.Polygon.ImagePoints()})
		gocv.FillPoly(&layer, ptsVec, style.fillColor(m))
		ptsVec.Close()

		filled = true
	}

	if filled {
		gocv.AddWeighted(layer, style.Alpha, *img, 1-style.Alpha, 0, img)
	}
}

// drawPolyline draws the closed polygon outline
func drawPolyline(img *gocv.Mat, poly geometry.Polygon, clr color.RGBA, thickness int) {
	ptsVec := gocv.NewPointsVectorFromPoints([][]image.Point{poly.ImagePoints()})
	defer ptsVec.Close()

	gocv.Polylines(img, ptsVec, true, clr, thickness)
}

// drawLabels draws each label as text on a filled box
func drawLabels(img *gocv.Mat, labels []textLabel, labeler Labeler, pad int) error {

	for _, l := range labels {
		size := labeler.TextSize(l.text)

		rect := image.Rect(l.origin.X-pad, l.origin.Y-size.Y-pad,
			l.origin.X+size.X+pad, l.origin.Y+pad)

		gocv.Rectangle(img, rect, l.boxClr, -1)

		if err := labeler.PutText(img, l.text, l.origin, l.textClr); err != nil {
			return err
		}
	}

	return nil
}
