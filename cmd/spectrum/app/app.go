package app

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/rf-tools/rtl-spectrum/internal/analysis"
	"github.com/rf-tools/rtl-spectrum/internal/bands"
	"github.com/rf-tools/rtl-spectrum/internal/render"
	"github.com/rf-tools/rtl-spectrum/internal/scan"
	"github.com/rf-tools/rtl-spectrum/internal/spectrum"
	"github.com/rf-tools/rtl-spectrum/internal/storage"
)

// Run executes one CLI invocation: load inputs, apply the selected
// analysis, then write the requested CSV, image and archive outputs.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	var store *storage.Store
	if config.DBPath != "" {
		store = storage.New(config.DBPath)
		defer store.Close()
	}

	var table *bands.Table
	if config.BandsPath != "" {
		var err error
		if table, err = bands.Load(config.BandsPath); err != nil {
			return err
		}
		logger.Info("loaded band allocation table", slog.Int("entries", table.Len()))
	}

	switch config.Mode {
	case ModeSessions:
		return listSessions(ctx, store, logger)

	case ModeScan:
		return runScan(ctx, config, store, table, logger)

	case ModeSubtract:
		return runSubtract(ctx, config, store, table, logger)

	case ModeExport:
		return runExport(ctx, config, store, logger)

	case ModeWaterfall, ModePeak, ModeEnvelope:
		return runSweepMode(ctx, config, store, table, logger)

	default:
		return runAverage(ctx, config, store, table, logger)
	}
}

func runAverage(ctx context.Context, config *Config, store *storage.Store, table *bands.Table, logger *slog.Logger) error {
	var series []render.Series

	if config.hasSessionInput() {
		data, err := store.Dataset(ctx, config.SessionID)
		if err != nil {
			return err
		}
		logger.Info("loaded archived dataset",
			slog.Int64("session", config.SessionID),
			slog.String("bins", humanize.Comma(int64(len(data)))))
		series = append(series, render.Series{Name: fmt.Sprintf("Session %d", config.SessionID), Bins: data})
	}

	for _, file := range config.Files {
		data, err := spectrum.Load(file)
		if err != nil {
			return err
		}
		logger.Info("loaded dataset",
			slog.String("file", file),
			slog.String("bins", humanize.Comma(int64(len(data)))))
		series = append(series, render.Series{Name: fileStem(file), Bins: data})

		if store != nil {
			if err := archive(ctx, store, file, config.Mode, nil, data, logger); err != nil {
				return err
			}
		}
	}

	if config.CSVOutput != "" && len(series) == 1 {
		if err := spectrum.Save(series[0].Bins, config.CSVOutput); err != nil {
			return err
		}
		logger.Info("saved dataset", slog.String("file", config.CSVOutput))
	}

	return renderSpectrum(config, table, series, logger)
}

func runSweepMode(ctx context.Context, config *Config, store *storage.Store, table *bands.Table, logger *slog.Logger) error {
	file := config.Files[0]
	sweeps, err := spectrum.LoadSweeps(file)
	if err != nil {
		return err
	}

	var total int
	for _, sweep := range sweeps {
		total += len(sweep.Bins)
	}
	logger.Info("loaded sweeps",
		slog.String("file", file),
		slog.Int("sweeps", len(sweeps)),
		slog.String("bins", humanize.Comma(int64(total))))

	switch config.Mode {
	case ModeWaterfall:
		if config.ImageOutput == "" {
			return nil
		}
		renderer, err := newRenderer(config, table)
		if err != nil {
			return err
		}
		defer renderer.Close()

		img, err := renderer.Waterfall(sweeps, config.Title)
		if err != nil {
			return fmt.Errorf("rendering waterfall: %w", err)
		}
		return saveImage(img, config, logger)

	case ModePeak:
		peaks, err := analysis.PeakHold(sweeps)
		if err != nil {
			return err
		}
		logger.Info("computed peak hold", slog.Int("bins", len(peaks)))

		if store != nil {
			if err := archive(ctx, store, file, config.Mode, nil, peaks, logger); err != nil {
				return err
			}
		}
		if config.CSVOutput != "" {
			if err := spectrum.Save(peaks, config.CSVOutput); err != nil {
				return err
			}
			logger.Info("saved dataset", slog.String("file", config.CSVOutput))
		}
		return renderSpectrum(config, table, []render.Series{{Name: "Peak Hold", Bins: peaks}}, logger)

	default: // ModeEnvelope
		minS, maxS, avgS, err := analysis.Envelope(sweeps)
		if err != nil {
			return err
		}
		logger.Info("computed envelope", slog.Int("bins", len(avgS)))

		if config.ImageOutput == "" {
			return nil
		}
		renderer, err := newRenderer(config, table)
		if err != nil {
			return err
		}
		defer renderer.Close()

		img, err := renderer.Envelope(minS, maxS, avgS, config.Title)
		if err != nil {
			return fmt.Errorf("rendering envelope: %w", err)
		}
		return saveImage(img, config, logger)
	}
}

func runSubtract(ctx context.Context, config *Config, store *storage.Store, table *bands.Table, logger *slog.Logger) error {
	signal, err := spectrum.Load(config.Signal)
	if err != nil {
		return err
	}
	baseline, err := spectrum.Load(config.Baseline)
	if err != nil {
		return err
	}

	result := analysis.Subtract(signal, baseline)
	logger.Info("subtracted baseline",
		slog.String("signal", config.Signal),
		slog.String("baseline", config.Baseline),
		slog.Int("bins", len(result)))

	if store != nil {
		if err := archive(ctx, store, config.Signal, config.Mode, nil, result, logger); err != nil {
			return err
		}
	}
	if config.CSVOutput != "" {
		if err := spectrum.Save(result, config.CSVOutput); err != nil {
			return err
		}
		logger.Info("saved dataset", slog.String("file", config.CSVOutput))
	}
	return renderSpectrum(config, table, []render.Series{{Name: "Subtracted", Bins: result}}, logger)
}

func runExport(ctx context.Context, config *Config, store *storage.Store, logger *slog.Logger) error {
	var data []*spectrum.BinData
	var err error

	if config.hasSessionInput() {
		if data, err = store.Dataset(ctx, config.SessionID); err != nil {
			return err
		}
	} else {
		if data, err = spectrum.Load(config.Files[0]); err != nil {
			return err
		}
	}

	if err := spectrum.Save(data, config.CSVOutput); err != nil {
		return err
	}
	logger.Info("exported dataset",
		slog.String("file", config.CSVOutput),
		slog.String("bins", humanize.Comma(int64(len(data)))))
	return nil
}

func runScan(ctx context.Context, config *Config, store *storage.Store, table *bands.Table, logger *slog.Logger) error {
	parser := spectrum.NewParser()
	if err := scan.Run(ctx, config.Scan, parser, logger); err != nil {
		return err
	}

	data := parser.Convert()
	logger.Info("captured dataset", slog.String("bins", humanize.Comma(int64(len(data)))))

	if store != nil {
		if err := archive(ctx, store, scan.Runtime, config.Mode, config.Scan, data, logger); err != nil {
			return err
		}
	}
	if config.CSVOutput != "" {
		if err := spectrum.Save(data, config.CSVOutput); err != nil {
			return err
		}
		logger.Info("saved dataset", slog.String("file", config.CSVOutput))
	}
	return renderSpectrum(config, table, []render.Series{{Name: "Scan", Bins: data}}, logger)
}

func listSessions(ctx context.Context, store *storage.Store, logger *slog.Logger) error {
	sessions, err := store.Sessions(ctx)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		logger.Info("no archived sessions")
		return nil
	}

	for _, sess := range sessions {
		fmt.Printf("%d\t%s\t%s\t%s\n",
			sess.ID, sess.CreatedAt.Format("2006-01-02 15:04:05"), sess.Mode, sess.Source)
	}
	return nil
}

func archive(ctx context.Context, store *storage.Store, source string, mode Mode, config any, bins []*spectrum.BinData, logger *slog.Logger) error {
	id, err := store.CreateSession(ctx, source, string(mode), config)
	if err != nil {
		return fmt.Errorf("creating archive session: %w", err)
	}
	if err := store.StoreDataset(ctx, id, bins); err != nil {
		return fmt.Errorf("archiving dataset: %w", err)
	}

	logger.Info("archived dataset",
		slog.Int64("session", id),
		slog.String("bins", humanize.Comma(int64(len(bins)))))
	return nil
}

func renderSpectrum(config *Config, table *bands.Table, series []render.Series, logger *slog.Logger) error {
	if config.ImageOutput == "" {
		return nil
	}

	renderer, err := newRenderer(config, table)
	if err != nil {
		return err
	}
	defer renderer.Close()

	img, err := renderer.Spectrum(series, config.Title)
	if err != nil {
		return fmt.Errorf("rendering spectrum: %w", err)
	}
	return saveImage(img, config, logger)
}

func newRenderer(config *Config, table *bands.Table) (*render.Renderer, error) {
	renderer, err := render.New(render.Config{
		Theme:    config.Theme,
		FontPath: config.FontPath,
		Bands:    table,
	})
	if err != nil {
		return nil, fmt.Errorf("creating renderer: %w", err)
	}
	return renderer, nil
}

func saveImage(img *image.RGBA, config *Config, logger *slog.Logger) (err error) {
	out, err := os.Create(config.ImageOutput)
	if err != nil {
		return fmt.Errorf("creating image file: %w", err)
	}
	defer func() {
		if cErr := out.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	switch config.Format {
	case ImageJPEG:
		err = jpeg.Encode(out, img, &jpeg.Options{Quality: 98})
	default:
		err = png.Encode(out, img)
	}
	if err != nil {
		return fmt.Errorf("encoding image: %w", err)
	}

	logger.Info("saved image",
		slog.String("file", config.ImageOutput),
		slog.String("format", string(config.Format)))
	return nil
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
