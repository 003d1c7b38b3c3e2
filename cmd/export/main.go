package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"carspa/internal/config"
	"carspa/internal/database"
	"carspa/internal/export"
	"carspa/internal/logging"
	"carspa/internal/models"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", envOr("CONFIG_PATH", "configs/config.yaml"), "path to config.yaml")
		fromRaw    = flag.String("from", "", "first day, YYYY-MM-DD (default: 30 days before -to)")
		toRaw      = flag.String("to", "", "last day, YYYY-MM-DD (default: today)")
		outDir     = flag.String("out", "", "output directory (default: exports.path from config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}
	logger := logging.Component(baseLogger, "export")

	loc, err := cfg.Booking.Location()
	if err != nil {
		return err
	}
	from, to, err := exportRange(*fromRaw, *toRaw, time.Now().In(loc))
	if err != nil {
		return err
	}

	dir := cfg.Exports.Path
	if strings.TrimSpace(*outDir) != "" {
		dir = *outDir
	}

	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	path, err := export.NewExporter(db, dir, loc, logger).Export(ctx, from, to)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func exportRange(fromRaw, toRaw string, now time.Time) (models.Date, models.Date, error) {
	to := models.DateOf(now)
	if toRaw != "" {
		d, err := models.ParseDate(toRaw)
		if err != nil {
			return models.Date{}, models.Date{}, fmt.Errorf("-to: %w", err)
		}
		to = d
	}

	from := to.AddDays(-models.DefaultExportRangeDays)
	if fromRaw != "" {
		d, err := models.ParseDate(fromRaw)
		if err != nil {
			return models.Date{}, models.Date{}, fmt.Errorf("-from: %w", err)
		}
		from = d
	}

	if to.Before(from) {
		return models.Date{}, models.Date{}, fmt.Errorf("-to %s is before -from %s", to, from)
	}
	return from, to, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
