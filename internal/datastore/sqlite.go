package datastore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/memobread/memobread/internal/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// SQLiteStore keeps recordings in a private in-memory SQLite database.
// It offers the same semantics as MemoryStore through SQL and is dropped on Close.
type SQLiteStore struct {
	DB  *gorm.DB
	log logger.Logger
}

// NewSQLiteStore opens a uniquely named shared-cache in-memory database
func NewSQLiteStore(log logger.Logger) (*SQLiteStore, error) {
	if log == nil {
		log = logger.Global().Module("datastore").Module("sqlite")
	}

	dsn := fmt.Sprintf("file:memobread-%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.NewGormLoggerAdapter(log, slowQueryThreshold),
	})
	if err != nil {
		return nil, dbError(err, "open")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, dbError(err, "open")
	}
	// the database lives only as long as a connection stays open
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := db.AutoMigrate(&Recording{}); err != nil {
		_ = sqlDB.Close()
		return nil, dbError(err, "migrate")
	}

	log.Debug("sqlite store opened", logger.String("dsn", dsn))
	return &SQLiteStore{DB: db, log: log}, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, rec *Recording) error {
	stored := rec.Clone()

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&Recording{}).Where("id = ?", stored.ID).Count(&existing).Error; err != nil {
			return dbError(err, "insert", "id", stored.ID)
		}
		if existing > 0 {
			return conflictError(stored.ID)
		}
		if err := tx.Create(&stored).Error; err != nil {
			return dbError(err, "insert", "id", stored.ID)
		}
		return nil
	})
}

func (s *SQLiteStore) List(ctx context.Context) ([]Recording, error) {
	records := make([]Recording, 0)
	if err := s.DB.WithContext(ctx).Order("rowid ASC").Find(&records).Error; err != nil {
		return nil, dbError(err, "list")
	}
	return records, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (Recording, error) {
	var rec Recording
	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return Recording{}, notFoundError(id)
	case err != nil:
		return Recording{}, dbError(err, "get", "id", id)
	}
	return rec, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	result := s.DB.WithContext(ctx).Where("id = ?", id).Delete(&Recording{})
	if result.Error != nil {
		return dbError(result.Error, "delete", "id", id)
	}
	if result.RowsAffected == 0 {
		return notFoundError(id)
	}
	return nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&Recording{}).Count(&count).Error; err != nil {
		return 0, dbError(err, "count")
	}
	return int(count), nil
}

// Close closes the only connection, which discards the database
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return dbError(err, "close")
	}
	if err := sqlDB.Close(); err != nil {
		return dbError(err, "close")
	}
	return nil
}
