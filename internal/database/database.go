package database

import (
	"fmt"
	"log"
	"strings"

	"github.com/ededdyj/Baby-Data/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New creates a GORM database connection.
// When databaseURL is provided PostgreSQL is used, otherwise the local
// SQLite file at databasePath is created/opened.
func New(databaseURL, databasePath string) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	if databaseURL != "" {
		db, err = gorm.Open(postgres.Open(databaseURL), gormConfig)
	} else {
		db, err = gorm.Open(sqlite.Open(databasePath), gormConfig)
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(&model.Event{}, &model.Baby{}, &model.WeightEntry{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	logBackend(db, databasePath)
	return db, nil
}

func logBackend(db *gorm.DB, databasePath string) {
	dialector := db.Dialector.Name()
	switch strings.ToLower(dialector) {
	case "postgres":
		log.Printf("database: connected to PostgreSQL")
	case "sqlite":
		log.Printf("database: using SQLite %s", databasePath)
	default:
		log.Printf("database: connected via %s", dialector)
	}
}
