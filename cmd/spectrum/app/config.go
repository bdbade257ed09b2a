package app

import (
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/rf-tools/rtl-spectrum/internal/render"
	"github.com/rf-tools/rtl-spectrum/internal/scan"
)

const (
	ModeAverage   Mode = "average"   // merge all sweeps into one averaged spectrum
	ModeWaterfall Mode = "waterfall" // per-sweep heatmap
	ModePeak      Mode = "peak"      // peak-hold across sweeps
	ModeEnvelope  Mode = "envelope"  // min/max/avg envelope across sweeps
	ModeSubtract  Mode = "subtract"  // signal minus baseline
	ModeExport    Mode = "export"    // re-export a dataset to CSV
	ModeScan      Mode = "scan"      // run rtl_power and capture a dataset
	ModeSessions  Mode = "sessions"  // list archived sessions

	ImagePNG  ImageFormat = "png"
	ImageJPEG ImageFormat = "jpeg"
)

type Mode string

type ImageFormat string

var validModes = map[Mode]struct{}{
	ModeAverage:   {},
	ModeWaterfall: {},
	ModePeak:      {},
	ModeEnvelope:  {},
	ModeSubtract:  {},
	ModeExport:    {},
	ModeScan:      {},
	ModeSessions:  {},
}

var validImageFormats = map[ImageFormat]struct{}{
	ImagePNG:  {},
	ImageJPEG: {},
}

// Config is the CLI configuration for a single invocation.
type Config struct {
	Mode  Mode
	Files []string // positional CSV inputs

	// Subtract inputs
	Signal   string
	Baseline string

	// Outputs
	ImageOutput string
	Format      ImageFormat
	CSVOutput   string

	// Rendering
	Title    string
	Theme    render.ColorTheme
	FontPath string

	// Collaborators
	BandsPath string
	DBPath    string
	SessionID int64

	Verbose bool

	Scan *scan.Config
}

func NewConfig() *Config {
	return &Config{
		Mode:   ModeAverage,
		Format: ImagePNG,
		Theme:  render.ClassicTheme,
		Title:  "RF Spectrum",
		Scan:   scan.NewConfig(),
	}
}

// NewConfigFromCLI parses and validates command line flags.
func NewConfigFromCLI() (*Config, error) {
	c := NewConfig()

	var mode, imageFormat, theme string
	var interval time.Duration
	var crop float64

	flag.StringVar(&mode, "mode", string(ModeAverage),
		"Operation mode. [average, waterfall, peak, envelope, subtract, export, scan, sessions]")
	flag.StringVar(&c.Signal, "signal", "", "Signal CSV file (subtract mode)")
	flag.StringVar(&c.Baseline, "baseline", "", "Baseline CSV file to subtract (subtract mode)")
	flag.StringVar(&c.ImageOutput, "o", "", "Path to the output image file")
	flag.StringVar(&imageFormat, "f", string(ImagePNG), "Output image format. [png, jpeg]")
	flag.StringVar(&c.CSVOutput, "out", "", "Path to the output CSV file")
	flag.StringVar(&c.Title, "title", c.Title, "Chart title")
	flag.StringVar(&theme, "theme", string(c.Theme), "Waterfall color theme. [classic, grayscale, thermal]")
	flag.StringVar(&c.FontPath, "font", "", "TrueType font file for chart labels")
	flag.StringVar(&c.BandsPath, "bands", "", "Frequency allocation YAML file for band annotations")
	flag.StringVar(&c.DBPath, "db", "", "SQLite database for archiving datasets")
	flag.Int64Var(&c.SessionID, "session", 0, "Archived session ID to use as input")
	flag.BoolVar(&c.Verbose, "verbose", false, "Enable more verbose output")

	flag.Int64Var(&c.Scan.FrequencyStart, "freq-start", c.Scan.FrequencyStart, "Scan start frequency in Hz")
	flag.Int64Var(&c.Scan.FrequencyEnd, "freq-end", c.Scan.FrequencyEnd, "Scan end frequency in Hz")
	flag.Int64Var(&c.Scan.BinWidth, "bin-width", c.Scan.BinWidth, "Scan bin width in Hz")
	flag.DurationVar(&interval, "interval", time.Duration(c.Scan.Interval), "Scan integration interval")
	flag.IntVar(&c.Scan.Gain, "gain", 0, "Tuner gain in dB, 0 for automatic")
	flag.IntVar(&c.Scan.DeviceIndex, "device", 0, "SDR device index")
	flag.Float64Var(&crop, "crop", float64(c.Scan.Crop), "Scan crop fraction, 0-1")
	flag.Parse()

	c.Files = flag.Args()
	c.Scan.Interval = scan.TimeDuration(interval)
	c.Scan.Crop = float32(crop)

	mode = strings.ToLower(mode)
	imageFormat = strings.ToLower(imageFormat)

	var err error
	switch {
	case !isValidMode(Mode(mode)):
		err = fmt.Errorf("invalid mode: %s", mode)
	case !isValidImageFormat(ImageFormat(imageFormat)):
		err = fmt.Errorf("invalid image format: %s", imageFormat)
	case !render.ValidTheme(render.ColorTheme(theme)):
		err = fmt.Errorf("invalid color theme: %s", theme)
	default:
		c.Mode = Mode(mode)
		c.Format = ImageFormat(imageFormat)
		c.Theme = render.ColorTheme(theme)
		err = c.validate()
	}

	if err != nil {
		flag.Usage()
		return nil, err
	}
	return c, nil
}

func (c *Config) validate() error {
	switch c.Mode {
	case ModeSubtract:
		if c.Signal == "" || c.Baseline == "" {
			return errors.New("subtract mode requires -signal and -baseline")
		}

	case ModeExport:
		if c.CSVOutput == "" {
			return errors.New("export mode requires -out")
		}
		if len(c.Files) == 0 && !c.hasSessionInput() {
			return errors.New("export mode requires an input file or -db with -session")
		}

	case ModeScan:
		if err := c.Scan.Validate(); err != nil {
			return err
		}

	case ModeSessions:
		if c.DBPath == "" {
			return errors.New("sessions mode requires -db")
		}

	case ModeWaterfall, ModePeak, ModeEnvelope:
		if len(c.Files) != 1 {
			return fmt.Errorf("%s mode requires exactly one input file", c.Mode)
		}

	case ModeAverage:
		if len(c.Files) == 0 && !c.hasSessionInput() {
			return errors.New("average mode requires input files or -db with -session")
		}
	}

	if c.SessionID != 0 && c.DBPath == "" {
		return errors.New("-session requires -db")
	}
	return nil
}

func (c *Config) hasSessionInput() bool {
	return c.DBPath != "" && c.SessionID > 0
}

func isValidMode(m Mode) bool {
	_, ok := validModes[m]
	return ok
}

func isValidImageFormat(f ImageFormat) bool {
	_, ok := validImageFormats[f]
	return ok
}
