package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/conejoswing/restoeasy/internal/domain/ledger"
	"github.com/conejoswing/restoeasy/internal/storage/postgres"
)

const maxConcurrentDays = 4

type options struct {
	databaseURL string
	outDir      string
	from        string
	to          string
	timezone    string
}

func main() {
	var opts options

	flag.StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&opts.outDir, "out", "export", "output directory for ledger-YYYY-MM-DD.jsonl.gz files")
	flag.StringVar(&opts.from, "from", "", "first business day to export, YYYY-MM-DD (default: today)")
	flag.StringVar(&opts.to, "to", "", "last business day to export, YYYY-MM-DD (default: from)")
	flag.StringVar(&opts.timezone, "timezone", "Local", "IANA time zone defining business days")
	flag.Parse()

	if opts.databaseURL == "" {
		opts.databaseURL = os.Getenv("DATABASE_URL")
	}
	if opts.databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, opts); err != nil {
		slog.Error("ledger export failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("ledger export completed successfully")
}

func run(ctx context.Context, opts options) error {
	loc, err := time.LoadLocation(opts.timezone)
	if err != nil {
		return errors.Wrapf(err, "load time zone %q", opts.timezone)
	}
	days, err := businessDays(opts.from, opts.to, time.Now(), loc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return errors.Wrap(err, "create output directory")
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, opts.databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	repo := postgres.NewLedgerRepository(pool)

	slog.Info("exporting ledger", slog.Int("days", len(days)), slog.String("out", opts.outDir))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentDays)
	for _, day := range days {
		g.Go(func() error {
			return exportDay(ctx, repo, day, loc, opts.outDir)
		})
	}
	return g.Wait()
}

// businessDays expands the inclusive [from, to] date range. An empty from
// means the day of now; an empty to means from.
func businessDays(from, to string, now time.Time, loc *time.Location) ([]time.Time, error) {
	start, _ := ledger.DayBounds(now, loc)
	if from != "" {
		d, err := time.ParseInLocation(time.DateOnly, from, loc)
		if err != nil {
			return nil, errors.Wrapf(err, "parse from %q", from)
		}
		start = d
	}
	end := start
	if to != "" {
		d, err := time.ParseInLocation(time.DateOnly, to, loc)
		if err != nil {
			return nil, errors.Wrapf(err, "parse to %q", to)
		}
		end = d
	}
	if end.Before(start) {
		return nil, errors.Errorf("to %s is before from %s", end.Format(time.DateOnly), start.Format(time.DateOnly))
	}

	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days, nil
}

func exportDay(ctx context.Context, repo ledger.Repository, day time.Time, loc *time.Location, outDir string) error {
	from, to := ledger.DayBounds(day, loc)
	movements, err := repo.List(ctx, from, to)
	if err != nil {
		return errors.Wrapf(err, "list movements of %s", day.Format(time.DateOnly))
	}

	path := filepath.Join(outDir, fmt.Sprintf("ledger-%s.jsonl.gz", day.Format(time.DateOnly)))
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer func() { _ = f.Close() }()

	if err := writeGzipJSONL(f, movements); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "close %s", path)
	}

	c := ledger.Summarize(from, to, movements)
	slog.Info("day exported",
		slog.String("day", day.Format(time.DateOnly)),
		slog.Int("movements", len(movements)),
		slog.String("collected", c.Collected.String()),
	)
	return nil
}

// writeGzipJSONL writes one JSON document per line, gzip-compressed.
func writeGzipJSONL(w io.Writer, movements []ledger.Movement) error {
	gz := pgzip.NewWriter(w)
	buf := bufio.NewWriter(gz)
	enc := json.NewEncoder(buf)
	for _, m := range movements {
		if err := enc.Encode(m); err != nil {
			_ = gz.Close()
			return errors.Wrapf(err, "encode movement %s", m.ID)
		}
	}
	if err := buf.Flush(); err != nil {
		_ = gz.Close()
		return errors.Wrap(err, "flush")
	}
	return gz.Close()
}
