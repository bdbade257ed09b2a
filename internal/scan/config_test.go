package scan

import (
	"strings"
	"testing"
	"time"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "zero start frequency",
			mutate:  func(c *Config) { c.FrequencyStart = 0 },
			wantErr: "frequency start must be positive",
		},
		{
			name:    "end below start",
			mutate:  func(c *Config) { c.FrequencyEnd = c.FrequencyStart - 1 },
			wantErr: "frequency end must be greater than start",
		},
		{
			name:    "bin width too wide",
			mutate:  func(c *Config) { c.BinWidth = BinWidthMax + 1 },
			wantErr: "invalid bin width",
		},
		{
			name:    "sub-second interval",
			mutate:  func(c *Config) { c.Interval = TimeDuration(500 * time.Millisecond) },
			wantErr: "invalid interval",
		},
		{
			name:    "unknown window function",
			mutate:  func(c *Config) { c.WindowFunction = "triangle" },
			wantErr: "invalid window function",
		},
		{
			name:    "unknown smoothing method",
			mutate:  func(c *Config) { c.Smoothing = "median" },
			wantErr: "invalid smoothing method",
		},
		{
			name:    "crop above one",
			mutate:  func(c *Config) { c.Crop = 1.5 },
			wantErr: "crop fraction",
		},
		{
			name: "bad FIR size",
			mutate: func(c *Config) {
				size := 5
				c.FIRSize = &size
			},
			wantErr: "FIR size must be 0 or 9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Expected valid config, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfig_Args(t *testing.T) {
	c := NewConfig()
	c.Gain = 28
	c.Smoothing = SmoothingIIR

	args, err := c.Args()
	if err != nil {
		t.Fatalf("Args failed: %v", err)
	}

	got := strings.Join(args, " ")
	want := "-f 24000000:1700000000:1000000 -i 2m -d 0 -g 28 -s iir -c 0.20 -1 -"
	if got != want {
		t.Errorf("Args mismatch:\n got: %s\nwant: %s", got, want)
	}
}

func TestConfig_ArgsEndWithStdout(t *testing.T) {
	c := NewConfig()
	c.SingleShot = false
	c.ExitTimer = TimeDuration(time.Hour)

	args, err := c.Args()
	if err != nil {
		t.Fatalf("Args failed: %v", err)
	}
	if args[len(args)-1] != "-" {
		t.Errorf("Last argument must be '-', got %q", args[len(args)-1])
	}
	for _, a := range args {
		if a == "-1" {
			t.Error("Single shot flag present with SingleShot disabled")
		}
	}

	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-e 1h") {
		t.Errorf("Expected whole-hour exit timer, got: %s", joined)
	}
}

func TestTimeDuration_String(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{2 * time.Hour, "2h"},
		{90 * time.Minute, "90m"},
		{2 * time.Minute, "2m"},
		{45 * time.Second, "45s"},
		{150 * time.Second, "150s"},
	}

	for _, tt := range tests {
		if got := TimeDuration(tt.d).String(); got != tt.want {
			t.Errorf("TimeDuration(%s).String() = %q, want %q", tt.d, got, tt.want)
		}
	}
}
