// Package scan runs the external rtl_power tool and streams its CSV output
// into an accumulating parser, line by line, as the sweep progresses.
package scan

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/rf-tools/rtl-spectrum/internal/spectrum"
)

// Runtime is the name of the scanning executable located on the host.
const Runtime = "rtl_power"

const maxLineBytes = 1 << 20

// rtl_power reports hardware problems on stderr and may still exit zero;
// these prefixes mark a scan that produced no usable data.
var knownErrors = []string{
	"no supported devices found",
	"usb_claim_interface",
	"stdbuf:",
}

// Run executes rtl_power with the given config and feeds every stdout line
// into the parser as it arrives. It returns once the process exits or the
// context is cancelled; the parser keeps whatever lines were ingested
// before either event.
func Run(ctx context.Context, config *Config, parser *spectrum.Parser, logger *slog.Logger) error {
	binPath, err := FindRuntime(Runtime)
	if err != nil {
		return fmt.Errorf("finding %s: %w", Runtime, err)
	}

	args, err := config.Args()
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, binPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("opening stdout pipe: %w", err)
	}

	logger.Info("starting scan",
		slog.String("cmd", binPath+" "+strings.Join(args, " ")))

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", Runtime, err)
	}

	var lines int
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			parser.AddLine(line)
			lines++
		}
	}
	scanErr := scanner.Err()
	waitErr := cmd.Wait()

	if err := checkStderr(stderr.String()); err != nil {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if scanErr != nil {
		return fmt.Errorf("reading %s output: %w", Runtime, scanErr)
	}
	if waitErr != nil {
		return fmt.Errorf("%s: %w", Runtime, waitErr)
	}

	logger.Info("scan finished", slog.Int("lines", lines))
	return nil
}

func checkStderr(output string) error {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		for _, known := range knownErrors {
			if strings.Contains(lower, known) {
				return fmt.Errorf("%s error: %s", Runtime, line)
			}
		}
	}
	return nil
}
