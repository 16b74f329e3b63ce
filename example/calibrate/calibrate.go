package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/swdee/go-objsize"
	"github.com/swdee/go-objsize/calibration"
	"github.com/swdee/go-objsize/config"
	"github.com/swdee/go-objsize/geometry"
	"github.com/swdee/go-objsize/pipeline"
	"github.com/swdee/go-objsize/render"
	"github.com/swdee/go-objsize/store"
	"gocv.io/x/gocv"
)

func main() {
	// disable logging timestamps
	log.SetFlags(0)

	// read in cli flags
	configFile := flag.String("c", "objsize.toml", "TOML configuration file")
	device := flag.String("v", "", "Camera index or video file, overrides capture.device")
	skip := flag.Int("s", 10, "Number of frames to skip before grabbing the calibration frame")
	saveFile := flag.String("o", "calibration-frame.jpg", "JPG file the annotated calibration frame is written to")
	flip := flag.String("flip", "", "Frame flip [none|horizontal|vertical|both], overrides capture.flip")
	headless := flag.Bool("headless", false, "Do not open a window, only write the annotated frame")

	flag.Parse()

	cfg, err := config.Load(*configFile)

	if err != nil {
		log.Fatal("Error loading config: ", err)
	}

	if *device != "" {
		cfg.Capture.Device = *device
	}

	if *flip != "" {
		cfg.Capture.Flip = *flip
	}

	logger := objsize.NewLogger(os.Stderr, objsize.ParseLevel(cfg.Log.Level), cfg.Log.JSON)

	st, err := store.Open(cfg.Calibration.Store, cfg.Calibration.Path, cfg.Calibration.Key)

	if err != nil {
		log.Fatal("Error opening calibration store: ", err)
	}

	defer st.Close()

	scale := objsize.NewScale(st, logger)

	if _, _, err := scale.Load(); err != nil {
		log.Fatal("Error loading calibration: ", err)
	}

	frame, err := grabFrame(cfg.Capture, *skip)

	if err != nil {
		log.Fatal(err)
	}

	defer frame.Close()

	var win *gocv.Window

	if !*headless {
		win = gocv.NewWindow("Calibration")
		defer win.Close()
	}

	prompter := calibration.NewStdinPrompter(os.Stdin, os.Stdout)
	sess := calibration.NewSession(scale, prompter, cfg.Measure.Unit, logger)

	style := render.DefaultCalibrationStyle()

	if cfg.Render.Font != "" {
		ttf, err := render.LoadTTFLabeler(cfg.Render.Font, cfg.Render.FontSize)

		if err != nil {
			log.Fatal(err)
		}

		defer ttf.Close()
		style.Labeler = ttf
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var last *calibration.Result

	show := func() {
		annotated := frame.Clone()
		defer annotated.Close()

		if err := render.Calibration(&annotated, sess.Points(), last, style); err != nil {
			log.Printf("Error drawing calibration: %v", err)
		}

		if win != nil {
			win.IMShow(annotated)
			win.WaitKey(1)
		}

		if ok := gocv.IMWrite(*saveFile, annotated); !ok {
			log.Printf("Failed to write %s", *saveFile)
		}
	}

	fmt.Printf("Frame saved to %s (%dx%d).  Enter click coordinates as \"x y\", "+
		"\"r\" to reset or \"q\" to quit.\n", *saveFile, frame.Cols(), frame.Rows())

	show()

	in := prompter.Scanner()

	for ctx.Err() == nil {
		fmt.Print("> ")

		if !in.Scan() {
			break
		}

		line := strings.TrimSpace(in.Text())

		switch line {
		case "":
			continue
		case "q":
			return
		case "r":
			sess.Reset()
			last = nil
			show()
			continue
		}

		pt, err := parsePoint(line)

		if err != nil {
			fmt.Println(err)
			continue
		}

		res, err := sess.Click(ctx, pt)

		if err != nil {
			log.Fatal(err)
		}

		switch res.Outcome {
		case calibration.Calibrated:
			fmt.Printf("Calibrated: %.2f px/%s\n", res.Scale, res.Unit)
		case calibration.Measured:
			fmt.Printf("%.1fpx = %s\n", res.Pixels, res.Label())
		case calibration.Cancelled:
			fmt.Println("Calibration cancelled.")
		}

		if res.Outcome != calibration.Pending {
			last = &res
		}

		show()
	}
}

// grabFrame reads a single working frame from the device after skipping the
// first frames while a camera adjusts its exposure
func grabFrame(capture config.Capture, skip int) (gocv.Mat, error) {

	flip, err := pipeline.ParseFlip(capture.Flip)

	if err != nil {
		return gocv.Mat{}, err
	}

	source, err := pipeline.OpenSource(capture.Device)

	if err != nil {
		return gocv.Mat{}, err
	}

	defer source.Close()

	img := gocv.NewMat()
	defer img.Close()

	next := gocv.NewMat()
	defer next.Close()

	// keep the last good frame in case a short video ends while skipping
	for i := 0; i <= skip; i++ {
		if ok := source.Read(&next); !ok || next.Empty() {
			break
		}
		next.CopyTo(&img)
	}

	if img.Empty() {
		return gocv.Mat{}, fmt.Errorf("error reading frame from %s", capture.Device)
	}

	out := gocv.NewMat()
	pipeline.Prepare(img, &out, capture.Width, capture.Height, capture.Letterbox, flip)

	return out, nil
}

// parsePoint parses "x y" or "x,y" into a point
func parsePoint(s string) (geometry.Point, error) {

	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t'
	})

	if len(fields) != 2 {
		return geometry.Point{}, fmt.Errorf("expected \"x y\", got %q", s)
	}

	x, err := strconv.ParseFloat(fields[0], 64)

	if err != nil {
		return geometry.Point{}, fmt.Errorf("invalid x: %w", err)
	}

	y, err := strconv.ParseFloat(fields[1], 64)

	if err != nil {
		return geometry.Point{}, fmt.Errorf("invalid y: %w", err)
	}

	return geometry.Pt(x, y), nil
}
