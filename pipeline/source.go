package pipeline

import (
	"fmt"
	"strings"

	"gocv.io/x/gocv"
)

// Source provides video frames
type Source interface {
	// Read reads the next frame into frame, returning false when no frame
	// could be read
	Read(frame *gocv.Mat) bool
	Close() error
}

// VideoSource reads frames from a camera or video file
type VideoSource struct {
	capture *gocv.VideoCapture
}

// OpenSource opens a camera by index, eg: "0", or a video file or stream URL
func OpenSource(device string) (*VideoSource, error) {

	capture, err := gocv.OpenVideoCapture(device)

	if err != nil {
		return nil, fmt.Errorf("error opening video source %s: %w", device, err)
	}

	return &VideoSource{capture: capture}, nil
}

// Read the next frame
func (v *VideoSource) Read(frame *gocv.Mat) bool {
	return v.capture.Read(frame)
}

// Close releases the capture device
func (v *VideoSource) Close() error {
	return v.capture.Close()
}

// Display shows processed frames and reports key presses
type Display interface {
	Show(frame gocv.Mat)
	// WaitKey waits up to delay milliseconds for a key press and returns
	// its code or -1
	WaitKey(delay int) int
	Close() error
}

// WindowDisplay shows frames in a HighGUI window
type WindowDisplay struct {
	window *gocv.Window
}

// NewWindowDisplay opens a window with the given title
func NewWindowDisplay(title string) *WindowDisplay {
	return &WindowDisplay{window: gocv.NewWindow(title)}
}

// Show draws frame in the window
func (w *WindowDisplay) Show(frame gocv.Mat) {
	w.window.IMShow(frame)
}

// WaitKey waits for a key press
func (w *WindowDisplay) WaitKey(delay int) int {
	return w.window.WaitKey(delay)
}

// Close closes the window
func (w *WindowDisplay) Close() error {
	return w.window.Close()
}

// Flip is the frame flip applied after resizing
type Flip int

const (
	FlipNone Flip = iota
	FlipHorizontal
	FlipVertical
	FlipBoth
)

// ParseFlip parses a flip name: none, horizontal, vertical or both
func ParseFlip(name string) (Flip, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return FlipNone, nil
	case "horizontal":
		return FlipHorizontal, nil
	case "vertical":
		return FlipVertical, nil
	case "both":
		return FlipBoth, nil
	}
	return FlipNone, fmt.Errorf("unknown flip %q, use none, horizontal, vertical or both", name)
}

// code returns the OpenCV flip code
func (f Flip) code() int {
	switch f {
	case FlipHorizontal:
		return 1
	case FlipVertical:
		return 0
	}
	return -1
}
