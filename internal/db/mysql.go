package db

import (
	"embed"
	"errors"

	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/emandor/kyc_service/internal/telemetry"
)

//go:embed migrations/*.sql
var fs embed.FS

func MustConnect(dsn string) *sqlx.DB {
	db, err := sqlx.Connect("mysql", dsn)
	if err != nil {
		log := telemetry.L()
		log.Fatal().Err(err).Msg("mysql_connect_failed")
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	return db
}

func MustMigrate(db *sqlx.DB) {
	log := telemetry.L()
	d, err := mysql.WithInstance(db.DB, &mysql.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("migrate_driver_failed")
	}
	s, err := iofs.New(fs, "migrations")
	if err != nil {
		log.Fatal().Err(err).Msg("migrate_source_failed")
	}
	m, err := migrate.NewWithInstance("iofs", s, "mysql", d)
	if err != nil {
		log.Fatal().Err(err).Msg("migrate_init_failed")
	}
	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatal().Err(err).Msg("migrate_up_failed")
	}
}
