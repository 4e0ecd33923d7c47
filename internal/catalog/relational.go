// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package catalog

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/ClusterCockpit/cc-compute-worker/pkg/log"
	sq "github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/qustavo/sqlhooks/v2"

	sqlite3driver "github.com/mattn/go-sqlite3"

	_ "github.com/go-sql-driver/mysql"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// RelationalConfig names the SQL driver and DSN the RelationalProvider
// connects to; its fields map onto the CATALOG.* config group.
type RelationalConfig struct {
	Driver string // "sqlite3" or "mysql"
	DSN    string
	Table  string // defaults to "detectors"
}

// RelationalProvider reads (run_id, name, class_ref) rows from an
// external relational store.
type RelationalProvider struct {
	db    *sqlx.DB
	table string
}

// NewRelationalProvider opens the configured database, applies the
// embedded schema migration if needed, and returns a ready Provider.
func NewRelationalProvider(cfg RelationalConfig) (*RelationalProvider, error) {
	table := cfg.Table
	if table == "" {
		table = "detectors"
	}

	db, err := connect(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("catalog: connect: %w", err)
	}

	if err := migrateSchema(db.DB, cfg.Driver); err != nil {
		return nil, fmt.Errorf("catalog: migrate: %w", err)
	}

	return &RelationalProvider{db: db, table: table}, nil
}

func connect(driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case "sqlite3":
		sql.Register("sqlite3WithHooks", sqlhooks.Wrap(&sqlite3driver.SQLiteDriver{}, &sqlHooks{}))
		db, err := sqlx.Open("sqlite3WithHooks", fmt.Sprintf("%s?_foreign_keys=on", dsn))
		if err != nil {
			return nil, err
		}
		// sqlite does not multithread; one connection avoids lock waits.
		db.SetMaxOpenConns(1)
		return db, nil
	case "mysql":
		db, err := sqlx.Open("mysql", fmt.Sprintf("%s?multiStatements=true", dsn))
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		return db, nil
	default:
		return nil, fmt.Errorf("catalog: unsupported driver %q", driver)
	}
}

func migrateSchema(db *sql.DB, driver string) error {
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("load migration source: %w", err)
	}

	var dbDriver database.Driver
	switch driver {
	case "sqlite3":
		dbDriver, err = sqlite3.WithInstance(db, &sqlite3.Config{})
	case "mysql":
		dbDriver, err = mysql.WithInstance(db, &mysql.Config{})
	default:
		return fmt.Errorf("unsupported driver %q", driver)
	}
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, driver, dbDriver)
	if err != nil {
		return fmt.Errorf("new migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	log.Info("catalog: schema up to date")
	return nil
}

func (p *RelationalProvider) List(ctx context.Context) ([]Signature, error) {
	query, args, err := sq.Select("run_id", "name", "class_ref").From(p.table).ToSql()
	if err != nil {
		return nil, fmt.Errorf("catalog: build query: %w", err)
	}

	rows, err := p.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog: query: %w", err)
	}
	defer rows.Close()

	var out []Signature
	for rows.Next() {
		var rawID, name, classRef string
		if err := rows.Scan(&rawID, &name, &classRef); err != nil {
			return nil, fmt.Errorf("catalog: scan: %w", err)
		}
		runID, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("catalog: invalid run_id %q: %w", rawID, err)
		}
		out = append(out, Signature{RunID: runID, Name: name, ClassRef: classRef})
	}
	return out, rows.Err()
}
