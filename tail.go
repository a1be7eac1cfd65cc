package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/luki/weighplot/internal/chart"
	"github.com/luki/weighplot/internal/config"
	"github.com/luki/weighplot/internal/decoder"
	"github.com/luki/weighplot/internal/ingest"
	"github.com/luki/weighplot/internal/logging"
	"github.com/luki/weighplot/internal/series"
	"github.com/luki/weighplot/internal/transport"
)

const tailBufSize = 4096

func runTail(args []string) int {
	cfg, err := loadConfig("weighplot tail", args, os.Stderr)
	if err != nil {
		return reportConfigError(err)
	}
	return tailWith(cfg)
}

func tailWith(cfg config.Config) int {
	log := logging.New(cfg.LogFile, cfg.Debug)
	defer func() { _ = log.Sync() }()
	logStartup(log, "tail", cfg)

	// Ctrl+C ends the stream cleanly.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := tail(ctx, cfg, transport.Open, os.Stdout, log); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFail
	}
	return exitOK
}

// tail polls the transport every cfg.PollInterval and prints one line per
// sample: index, weight and running max. It returns nil when ctx is done
// and an error when the link fails.
func tail(ctx context.Context, cfg config.Config, open transport.Opener, out io.Writer, log *zap.Logger) error {
	tr, err := open(cfg.Port, cfg.BaudRate)
	if err != nil {
		return fmt.Errorf("failed to open port: %w", err)
	}
	defer tr.Close()
	log.Info("connected", zap.String("port", cfg.Port), zap.Int("baud", cfg.BaudRate))

	delim, err := cfg.DelimiterRune()
	if err != nil {
		return err
	}
	pipe := ingest.New(decoder.New(delim, cfg.MaxPending), series.New(cfg.MaxPoints))

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	buf := make([]byte, tailBufSize)
	overflows := 0
	for {
		select {
		case <-ctx.Done():
			fields := []zap.Field{zap.Int("samples", pipe.Store.Total())}
			if sum, ok := pipe.Store.Summary(); ok {
				fields = append(fields,
					zap.Float64("window_min_g", sum.Min),
					zap.Float64("window_mean_g", sum.Mean),
					zap.Float64("window_sd_g", sum.StdDev))
			}
			log.Info("tail stopped", fields...)
			return nil
		case <-ticker.C:
		}

		n, err := tr.Read(buf)
		if err != nil {
			log.Error("uart error", zap.String("port", cfg.Port), zap.Error(err))
			return fmt.Errorf("UART error: %w", err)
		}
		if n == 0 {
			continue
		}

		var werr error
		pipe.IngestEach(buf[:n], func(s series.Sample) {
			if werr != nil {
				return
			}
			peak, hasPeak := pipe.Store.Max()
			_, werr = fmt.Fprintf(out, "%d\t%s\t%s\n", s.Index,
				chart.FormatKg(s.Value, true), chart.FormatKg(peak, hasPeak))
		})
		if werr != nil {
			return fmt.Errorf("write output: %w", werr)
		}

		if st := pipe.Decoder.Stats(); st.Overflows > overflows {
			log.Warn("pending buffer overflow, resyncing", zap.Int("total", st.Overflows))
			overflows = st.Overflows
		}
	}
}
