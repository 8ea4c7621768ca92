package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/emandor/kyc_service/internal/config"
	"github.com/emandor/kyc_service/internal/db"
	"github.com/emandor/kyc_service/internal/ingest"
	"github.com/emandor/kyc_service/internal/region"
	"github.com/emandor/kyc_service/internal/telemetry"
)

func main() {
	glob := flag.String("glob", "data/api_data_*.csv", "csv shards to aggregate")
	dryRun := flag.Bool("dry-run", false, "aggregate and report without writing")
	flag.Parse()
	config.LoadDotEnv()

	tlog := telemetry.Init(telemetry.FromEnv(config.GetEnv))

	files, err := filepath.Glob(*glob)
	if err != nil {
		tlog.Fatal().Err(err).Str("glob", *glob).Msg("ingest_bad_glob")
	}
	if len(files) == 0 {
		tlog.Fatal().Str("glob", *glob).Msg("ingest_no_shards")
	}
	sort.Strings(files)
	tlog.Info().Int("shards", len(files)).Msg("ingest_start")

	agg := ingest.NewAggregator()
	for _, name := range files {
		f, err := os.Open(name)
		if err != nil {
			tlog.Warn().Err(err).Str("file", name).Msg("ingest_shard_skipped")
			continue
		}
		if err := agg.Add(f); err != nil {
			tlog.Warn().Err(err).Str("file", name).Msg("ingest_shard_skipped")
		} else {
			tlog.Info().Str("file", filepath.Base(name)).Msg("ingest_shard_done")
		}
		_ = f.Close()
	}

	records := agg.Records()
	rows, skipped, districts := agg.Stats()
	tlog.Info().Int("rows", rows).Int("skipped", skipped).Int("districts", districts).
		Int("pincodes", len(records)).Msg("ingest_aggregated")
	if len(records) == 0 {
		tlog.Fatal().Msg("ingest_nothing_to_write")
	}

	var table interface {
		Replace(ctx context.Context, rows []region.Record) error
	}
	if *dryRun {
		table = region.NewMemoryTable(nil)
	} else {
		sqlxDB := db.MustConnect(config.GetEnv("DB_DSN", ""))
		db.MustMigrate(sqlxDB)
		table = region.NewSQLTable(sqlxDB)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	if err := table.Replace(ctx, records); err != nil {
		tlog.Fatal().Err(err).Msg("ingest_write_failed")
	}
	tlog.Info().Bool("dry_run", *dryRun).Msg("ingest_done")
}
