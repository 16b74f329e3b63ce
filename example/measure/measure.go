package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/swdee/go-objsize"
	"github.com/swdee/go-objsize/clip"
	"github.com/swdee/go-objsize/config"
	"github.com/swdee/go-objsize/detect"
	"github.com/swdee/go-objsize/measure"
	"github.com/swdee/go-objsize/pipeline"
	"github.com/swdee/go-objsize/render"
	"github.com/swdee/go-objsize/report"
	"github.com/swdee/go-objsize/store"
	"github.com/swdee/go-objsize/track"
)

func main() {
	// disable logging timestamps
	log.SetFlags(0)

	// read in cli flags
	configFile := flag.String("c", "objsize.toml", "TOML configuration file")
	device := flag.String("v", "", "Camera index or video file, overrides capture.device")
	replayFile := flag.String("replay", "", "JSON lines detections to replay instead of the color detector")
	recordFile := flag.String("record", "", "Write detections of every processed frame to this JSON lines file")
	labelFile := flag.String("l", "", "Text file containing class labels, overrides detect.labels")
	headless := flag.Bool("headless", false, "Process without opening a window")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	cfg, err := config.Load(*configFile)

	if err != nil {
		log.Fatal("Error loading config: ", err)
	}

	if *device != "" {
		cfg.Capture.Device = *device
	}

	if *replayFile != "" {
		cfg.Detect.Source = config.SourceReplay
		cfg.Detect.Replay = *replayFile
	}

	if *recordFile != "" {
		cfg.Detect.Record = *recordFile
	}

	if *labelFile != "" {
		cfg.Detect.Labels = *labelFile
	}

	if *debug {
		cfg.Log.Level = "debug"
	}

	logger := objsize.NewLogger(os.Stderr, objsize.ParseLevel(cfg.Log.Level), cfg.Log.JSON)

	// load calibration
	st, err := store.Open(cfg.Calibration.Store, cfg.Calibration.Path, cfg.Calibration.Key)

	if err != nil {
		log.Fatal("Error opening calibration store: ", err)
	}

	defer st.Close()

	scale := objsize.NewScale(st, logger)

	if _, _, err := scale.Load(); err != nil {
		log.Fatal("Error loading calibration: ", err)
	}

	var labels objsize.Labels

	if cfg.Detect.Labels != "" {
		labels, err = objsize.LoadLabels(cfg.Detect.Labels)

		if err != nil {
			log.Fatal("Error loading labels: ", err)
		}
	}

	// measurement
	sel, err := clip.ParseSelection(cfg.Measure.Selection)

	if err != nil {
		log.Fatal(err)
	}

	clipper, err := clip.New(clip.Kind(cfg.Measure.Clipper), cfg.Capture.Width, cfg.Capture.Height, sel)

	if err != nil {
		log.Fatal(err)
	}

	composer := measure.NewComposer(clipper, scale, measure.Options{
		Unit:    cfg.Measure.Unit,
		Inset:   cfg.Measure.Inset,
		MinArea: cfg.Measure.MinArea,
		Labels:  labels,
		Logger:  logger,
	})

	detector, closeDetector, err := newDetector(cfg)

	if err != nil {
		log.Fatal("Error creating detector: ", err)
	}

	defer closeDetector()

	// give untracked detections an identity for trails and the report
	if cfg.Track.Enabled {
		tracker := track.New(track.Options{
			MaxDistance: cfg.Track.MaxDistance,
			MaxAge:      cfg.Track.MaxAge,
			Logger:      logger,
		})
		detector = tracker.Wrap(detector)
	}

	// video
	source, err := pipeline.OpenSource(cfg.Capture.Device)

	if err != nil {
		log.Fatal(err)
	}

	var display pipeline.Display

	if !*headless {
		win := pipeline.NewWindowDisplay("Object Size")
		defer win.Close()
		display = win
	}

	flip, err := pipeline.ParseFlip(cfg.Capture.Flip)

	if err != nil {
		log.Fatal(err)
	}

	opts := pipeline.DefaultOptions()
	opts.Width = cfg.Capture.Width
	opts.Height = cfg.Capture.Height
	opts.FrameStride = cfg.Capture.FrameStride
	opts.Letterbox = cfg.Capture.Letterbox
	opts.Flip = flip
	opts.Logger = logger

	opts.Style.Alpha = cfg.Render.Alpha
	opts.Style.LineThickness = cfg.Render.LineThickness
	opts.Style.FillByTrack = cfg.Render.FillByTrack

	if cfg.Render.Font != "" {
		ttf, err := render.LoadTTFLabeler(cfg.Render.Font, cfg.Render.FontSize)

		if err != nil {
			log.Fatal(err)
		}

		defer ttf.Close()
		opts.Style.Labeler = ttf
	}

	if cfg.Render.Trail > 0 {
		// keep trails through occlusions as long as the tracker keeps the track
		opts.Trail = render.NewTrail(cfg.Render.Trail, cfg.Track.MaxAge)
	}

	collector := report.NewCollector()
	opts.OnFrame = func(_ int, ms []measure.Measurement) {
		collector.Add(ms)
	}

	if !scale.Calibrated() {
		logger.Warn("no calibration, lengths are reported in pixels")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = pipeline.New(source, detector, composer, display, opts).Run(ctx)

	collector.Log(logger)

	if err != nil && !errors.Is(err, pipeline.ErrSourceExhausted) && !errors.Is(err, context.Canceled) {
		log.Fatal("Error running pipeline: ", err)
	}
}

// newDetector creates the configured detector, wrapping it to record results
// if a record file is set
func newDetector(cfg *config.Config) (objsize.Detector, func(), error) {

	var detector objsize.Detector
	closers := make([]func() error, 0, 2)

	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Printf("Error closing detector: %v", err)
			}
		}
	}

	switch strings.ToLower(cfg.Detect.Source) {
	case config.SourceReplay:
		replay, err := detect.OpenReplay(cfg.Detect.Replay)

		if err != nil {
			return nil, nil, err
		}

		closers = append(closers, replay.Close)
		detector = replay

	default:
		lo, hi := cfg.Detect.Lower, cfg.Detect.Upper
		detector = detect.NewColorDetector(
			detect.HSV{H: lo[0], S: lo[1], V: lo[2]},
			detect.HSV{H: hi[0], S: hi[1], V: hi[2]},
			cfg.Detect.Class, cfg.Detect.MinArea, cfg.Detect.Epsilon,
		)
	}

	if cfg.Detect.Record != "" {
		f, err := os.Create(cfg.Detect.Record)

		if err != nil {
			closeAll()
			return nil, nil, err
		}

		closers = append(closers, f.Close)
		detector = detect.NewRecorder(f).Tee(detector)
	}

	return detector, closeAll, nil
}
