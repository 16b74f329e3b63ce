package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"

	"gocv.io/x/gocv"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// DefaultTTFSize is the font size in points used when none is given
const DefaultTTFSize = 18

// TTFLabeler draws text using a TrueType font, supporting characters the
// Hershey fonts lack such as "≈"
type TTFLabeler struct {
	face font.Face
}

// LoadTTFLabeler reads the TrueType or OpenType font file at path
func LoadTTFLabeler(path string, size float64) (*TTFLabeler, error) {

	fontBytes, err := os.ReadFile(path)

	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}

	return NewTTFLabeler(fontBytes, size)
}

// NewTTFLabeler parses font data and creates a face of the given point size
func NewTTFLabeler(fontBytes []byte, size float64) (*TTFLabeler, error) {

	if size <= 0 {
		size = DefaultTTFSize
	}

	f, err := opentype.Parse(fontBytes)

	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})

	if err != nil {
		return nil, fmt.Errorf("failed to create type face: %w", err)
	}

	return &TTFLabeler{face: face}, nil
}

// TextSize returns the advance width and ascent of text
func (t *TTFLabeler) TextSize(text string) image.Point {
	return image.Pt(
		font.MeasureString(t.face, text).Ceil(),
		t.face.Metrics().Ascent.Ceil(),
	)
}

// PutText draws text on img.  The region under the text is copied out to an
// RGBA image, drawn on, then copied back so the text is alpha composited over
// whatever is already on the frame.
func (t *TTFLabeler) PutText(img *gocv.Mat, text string, origin image.Point, clr color.RGBA) error {

	size := t.TextSize(text)
	descent := t.face.Metrics().Descent.Ceil()

	area := image.Rect(origin.X, origin.Y-size.Y, origin.X+size.X, origin.Y+descent).
		Intersect(image.Rect(0, 0, img.Cols(), img.Rows()))

	if area.Empty() {
		return nil
	}

	region := img.Region(area)
	defer region.Close()

	// the region is not continuous in memory so clone before reading bytes
	src := region.Clone()
	defer src.Close()

	srcImg, err := src.ToImage()

	if err != nil {
		return fmt.Errorf("error reading label region: %w", err)
	}

	rgba := image.NewRGBA(image.Rect(0, 0, area.Dx(), area.Dy()))
	draw.Draw(rgba, rgba.Bounds(), srcImg, srcImg.Bounds().Min, draw.Src)

	dr := &font.Drawer{
		Dst:  rgba,
		Src:  image.NewUniform(clr),
		Face: t.face,
		Dot: fixed.Point26_6{
			X: fixed.I(origin.X - area.Min.X),
			Y: fixed.I(origin.Y - area.Min.Y),
		},
	}
	dr.DrawString(text)

	drawn, err := gocv.NewMatFromBytes(rgba.Bounds().Dy(), rgba.Bounds().Dx(),
		gocv.MatTypeCV8UC4, rgba.Pix)

	if err != nil {
		return fmt.Errorf("error creating Mat from RGBA: %w", err)
	}

	defer drawn.Close()

	gocv.CvtColor(drawn, &drawn, gocv.ColorRGBAToBGR)
	drawn.CopyTo(&region)

	return nil
}

// Close releases the font face
func (t *TTFLabeler) Close() error {
	return t.face.Close()
}
