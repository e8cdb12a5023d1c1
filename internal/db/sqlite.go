package db

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/herbtrace/herbtrace-backend/internal/logger"
	"github.com/herbtrace/herbtrace-backend/internal/types"
	"github.com/herbtrace/herbtrace-backend/internal/utils"
)

// SQLiteService backs the single-node local mode (DB_DRIVER=sqlite). Same
// schema and repos as Postgres; the per-subject-key append serialization
// happens in the appender, so the storage engine only needs atomic row writes.
type SQLiteService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSQLiteService(log *logger.Logger) (*SQLiteService, error) {
	serviceLog := log.With("service", "SQLiteService")

	path := utils.GetEnv("SQLITE_PATH", "herbtrace.db", log)

	log.Info("Opening SQLite database...", "path", path)
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Error("Failed to open SQLite database", "error", err)
		return nil, fmt.Errorf("Failed to open SQLite database: %w", err)
	}

	return &SQLiteService{db: db, log: serviceLog}, nil
}

func (s *SQLiteService) AutoMigrateAll() error {
	s.log.Info("Auto migrating sqlite tables...")
	err := s.db.AutoMigrate(
		&types.CollectionEvent{},
		&types.ProcessingStep{},
		&types.QualityTest{},
		&types.Product{},
		&types.LedgerTransaction{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for sqlite tables", "error", err)
		return err
	}
	return nil
}

func (s *SQLiteService) DB() *gorm.DB {
	return s.db
}
