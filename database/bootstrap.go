// database/bootstrap.go
package database

import (
	"fmt"
	"strings"

	sqlite "github.com/glebarez/sqlite" // CGO-free driver
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/advisorpages/trainingBuilder-sub002/entities"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/topic/matcher"
)

type Options struct {
	Driver string // sqlite | postgres
	Path   string // sqlite file, ":memory:" allowed
	DSN    string // postgres
}

func Open(opts Options) (*gorm.DB, error) {
	var dial gorm.Dialector
	switch strings.ToLower(opts.Driver) {
	case "", "sqlite":
		dial = sqlite.Open(opts.Path)
	case "postgres", "postgresql":
		if opts.DSN == "" {
			return nil, fmt.Errorf("postgres driver needs DATABASE_URL")
		}
		dial = postgres.Open(opts.DSN)
	default:
		return nil, fmt.Errorf("unknown db driver %q", opts.Driver)
	}

	db, err := gorm.Open(dial, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", opts.Driver, err)
	}
	if strings.Contains(opts.Path, ":memory:") {
		// every pooled connection would otherwise see its own empty database
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// OpenInMemory is a migrated throwaway sqlite database.
func OpenInMemory() (*gorm.DB, error) {
	return Open(Options{Driver: "sqlite", Path: ":memory:"})
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&entities.Topic{},
		&entities.Session{},
		&entities.Draft{},
		&entities.KBDocument{},
		&entities.KBChunk{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	if err := backfillTopicNormalizedNames(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// backfillTopicNormalizedNames fills normalized_name for topics imported
// before the column existed, so name lookups find them.
func backfillTopicNormalizedNames(db *gorm.DB) error {
	type row struct {
		ID   uint
		Name string
	}
	var rows []row
	if err := db.Raw(`SELECT id, name FROM topics WHERE normalized_name IS NULL OR normalized_name = ''`).Scan(&rows).Error; err != nil {
		return fmt.Errorf("scan topics: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}
	return db.Transaction(func(tx *gorm.DB) error {
		for _, r := range rows {
			if err := tx.Exec(`UPDATE topics SET normalized_name = ? WHERE id = ?`, matcher.NormalizeName(r.Name), r.ID).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
