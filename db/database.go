package db

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"smapi-profiles/logger"

	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/ncruces/go-sqlite3/gormlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Store is the durable record of mods, profiles and memberships. It owns its
// connection; one Store per database file.
type Store struct {
	DB  *gorm.DB
	log *zap.SugaredLogger
}

// Open connects to the SQLite database at dbPath with foreign keys enforced
// and migrates the schema. Failure here invalidates every later guarantee, so
// callers treat it as fatal.
func Open(dbPath string, log *zap.SugaredLogger) (*Store, error) {
	log = logger.Or(log)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Configure GORM logger
	newLogger := gormlogger.New(
		zap.NewStdLog(log.Desugar()),
		gormlogger.Config{
			SlowThreshold:             time.Second,     // Slow SQL threshold
			LogLevel:                  gormlogger.Warn, // Log level (Warn, Error, Info)
			IgnoreRecordNotFoundError: true,            // Ignore ErrRecordNotFound error
			ParameterizedQueries:      true,
			Colorful:                  false,
		},
	)

	// Cascading deletes depend on foreign_keys, which SQLite enables per
	// connection, so it goes in the DSN rather than a one-off PRAGMA.
	dsn := "file:" + filepath.ToSlash(dbPath) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(full)"

	gdb, err := gorm.Open(gormlite.Open(dsn), &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := gdb.AutoMigrate(&Mod{}, &Profile{}, &ProfileMod{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database schema: %w", err)
	}

	log.Debugw("Database opened", zap.String("path", dbPath))
	return &Store{DB: gdb, log: log}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
