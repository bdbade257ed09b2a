package scan

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	BinWidthMin = 1
	BinWidthMax = 2_800_000

	// Survey defaults: a slow full sweep of the RTL-SDR tuning range.
	DefaultFreqStart int64   = 24_000_000
	DefaultFreqEnd   int64   = 1_700_000_000
	DefaultBinWidth  int64   = 1_000_000
	DefaultCrop      float32 = 0.2

	DefaultInterval = 120 * time.Second

	WindowFunctionRectangle      WindowFunction = "rectangle"
	WindowFunctionHamming        WindowFunction = "hamming"
	WindowFunctionBlackman       WindowFunction = "blackman"
	WindowFunctionBlackmanHarris WindowFunction = "blackman-harris"
	WindowFunctionHannPoisson    WindowFunction = "hann-poisson"
	WindowFunctionBartlett       WindowFunction = "bartlett"
	WindowFunctionYoussef        WindowFunction = "youssef"
	WindowFunctionKaiser         WindowFunction = "kaiser"

	SmoothingAvg SmoothingMethod = "avg"
	SmoothingIIR SmoothingMethod = "iir"
)

var (
	validWindowFunctions = map[WindowFunction]struct{}{
		WindowFunctionRectangle:      {},
		WindowFunctionHamming:        {},
		WindowFunctionBlackman:       {},
		WindowFunctionBlackmanHarris: {},
		WindowFunctionHannPoisson:    {},
		WindowFunctionBartlett:       {},
		WindowFunctionYoussef:        {},
		WindowFunctionKaiser:         {},
	}

	validSmoothingMethods = map[SmoothingMethod]struct{}{
		SmoothingAvg: {},
		SmoothingIIR: {},
	}
)

type WindowFunction string

func (w WindowFunction) String() string {
	return string(w)
}

type SmoothingMethod string

func (s SmoothingMethod) String() string {
	return string(s)
}

// TimeDuration wraps time.Duration with the whole-unit rendering rtl_power
// expects in its -i and -e arguments.
type TimeDuration time.Duration

func (d TimeDuration) Validate() error {
	duration := time.Duration(d)
	if duration < 0 {
		return fmt.Errorf("scan.TimeDuration: must not be negative: %s", duration)
	}
	if duration > 0 && duration < time.Second {
		return fmt.Errorf("scan.TimeDuration: must be at least 1 second: %s given", duration)
	}
	return nil
}

func (d TimeDuration) String() string {
	duration := time.Duration(d)
	switch {
	case duration%time.Hour == 0:
		return fmt.Sprintf("%dh", int(duration/time.Hour))
	case duration%time.Minute == 0:
		return fmt.Sprintf("%dm", int(duration/time.Minute))
	default:
		return fmt.Sprintf("%ds", int(duration/time.Second))
	}
}

func (d TimeDuration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// Config is the rtl_power invocation configuration. See `man rtl_power`:
// https://manpages.debian.org/bookworm/rtl-sdr/rtl_power.1.en.html
type Config struct {
	// Required
	FrequencyStart int64 `json:"frequencyStart"` // -f lower, Hz
	FrequencyEnd   int64 `json:"frequencyEnd"`   // -f upper, Hz
	BinWidth       int64 `json:"binWidth"`       // -f bin_size, Hz (1Hz - 2.8MHz)

	// Common optional parameters
	Interval    TimeDuration `json:"interval"`    // -i integration interval
	DeviceIndex int          `json:"deviceIndex"` // -d device index
	Gain        int          `json:"gain"`        // -g tuner gain, dB (0 = automatic)
	PPMError    int          `json:"ppmError"`    // -p frequency correction
	SingleShot  bool         `json:"singleShot"`  // -1 exit after a single sweep
	ExitTimer   TimeDuration `json:"exitTimer"`   // -e exit timer

	// Processing options
	Smoothing  SmoothingMethod `json:"smoothing"`  // -s [avg|iir]
	FFTThreads int             `json:"fftThreads"` // -t FFT threads

	// Advanced options
	WindowFunction WindowFunction `json:"windowFunction"` // -w window function
	Crop           float32        `json:"crop"`           // -c crop fraction, 0-1
	FIRSize        *int           `json:"firSize"`        // -F fir_size (0 or 9)

	// Hardware options
	PeakHold       bool `json:"peakHold"`       // -P
	DirectSampling bool `json:"directSampling"` // -D
	OffsetTuning   bool `json:"offsetTuning"`   // -O
	BiasTee        bool `json:"biasTee"`        // -T
}

// NewConfig returns a config prefilled with the full-range survey defaults.
func NewConfig() *Config {
	return &Config{
		FrequencyStart: DefaultFreqStart,
		FrequencyEnd:   DefaultFreqEnd,
		BinWidth:       DefaultBinWidth,
		Interval:       TimeDuration(DefaultInterval),
		Crop:           DefaultCrop,
		SingleShot:     true,
	}
}

func (c *Config) Validate() error {
	if c.FrequencyStart <= 0 {
		return fmt.Errorf("scan.Config: frequency start must be positive: %d", c.FrequencyStart)
	}
	if c.FrequencyEnd <= 0 {
		return fmt.Errorf("scan.Config: frequency end must be positive: %d", c.FrequencyEnd)
	}
	if c.FrequencyEnd <= c.FrequencyStart {
		return fmt.Errorf("scan.Config: frequency end must be greater than start: %d <= %d", c.FrequencyEnd, c.FrequencyStart)
	}

	if c.BinWidth < BinWidthMin || c.BinWidth > BinWidthMax {
		return fmt.Errorf("scan.Config: invalid bin width: %d, must be between %d and %d Hz", c.BinWidth, BinWidthMin, BinWidthMax)
	}

	if c.Interval > 0 {
		if err := c.Interval.Validate(); err != nil {
			return fmt.Errorf("scan.Config: invalid interval: %w", err)
		}
	}
	if c.ExitTimer > 0 {
		if err := c.ExitTimer.Validate(); err != nil {
			return fmt.Errorf("scan.Config: invalid exit timer: %w", err)
		}
	}

	if c.WindowFunction != "" {
		if _, ok := validWindowFunctions[c.WindowFunction]; !ok {
			return fmt.Errorf("scan.Config: invalid window function: %s", c.WindowFunction)
		}
	}
	if c.Smoothing != "" {
		if _, ok := validSmoothingMethods[c.Smoothing]; !ok {
			return fmt.Errorf("scan.Config: invalid smoothing method: %s", c.Smoothing)
		}
	}

	if c.Crop < 0 || c.Crop > 1 {
		return fmt.Errorf("scan.Config: crop fraction must be between 0 and 1: %0.2f given", c.Crop)
	}

	if c.FIRSize != nil && *c.FIRSize != 0 && *c.FIRSize != 9 {
		return fmt.Errorf("scan.Config: FIR size must be 0 or 9: %d given", *c.FIRSize)
	}

	return nil
}

// Args returns the rtl_power command line arguments for this config.
func (c *Config) Args() ([]string, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	args := []string{
		"-f", fmt.Sprintf("%d:%d:%d", c.FrequencyStart, c.FrequencyEnd, c.BinWidth),
	}

	if c.Interval > 0 {
		args = append(args, "-i", c.Interval.String())
	}

	args = append(args, "-d", strconv.Itoa(c.DeviceIndex))

	if c.Gain > 0 {
		args = append(args, "-g", strconv.Itoa(c.Gain))
	}
	if c.PPMError != 0 {
		args = append(args, "-p", strconv.Itoa(c.PPMError))
	}
	if c.ExitTimer > 0 {
		args = append(args, "-e", c.ExitTimer.String())
	}

	if c.Smoothing != "" {
		args = append(args, "-s", c.Smoothing.String())
	}
	if c.FFTThreads > 0 {
		args = append(args, "-t", strconv.Itoa(c.FFTThreads))
	}

	if c.WindowFunction != "" {
		args = append(args, "-w", c.WindowFunction.String())
	}
	if c.Crop > 0 {
		args = append(args, "-c", strconv.FormatFloat(float64(c.Crop), 'f', 2, 32))
	}
	if c.FIRSize != nil {
		args = append(args, "-F", strconv.Itoa(*c.FIRSize))
	}

	if c.PeakHold {
		args = append(args, "-P")
	}
	if c.DirectSampling {
		args = append(args, "-D")
	}
	if c.OffsetTuning {
		args = append(args, "-O")
	}
	if c.BiasTee {
		args = append(args, "-T")
	}

	if c.SingleShot {
		args = append(args, "-1")
	}

	args = append(args, "-") // always dump to stdout

	return args, nil
}

func (c *Config) String() string {
	args, err := c.Args()
	if err != nil {
		return fmt.Sprintf("scan.Config: failed to build args: %s", err)
	}
	return fmt.Sprintf("%s %s", Runtime, strings.Join(args, " "))
}
