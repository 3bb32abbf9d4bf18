package datastore

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kuzamma/surah-recognition-go/internal/errors"
)

// SQLiteStore implements Store on an SQLite database.
type SQLiteStore struct {
	db *gorm.DB
}

// OpenSQLite opens (or creates) the SQLite database at path and migrates the
// key-value schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("path", path).
			Build()
	}

	if err := db.AutoMigrate(&KVRecord{}); err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("path", path).
			Build()
	}

	return &SQLiteStore{db: db}, nil
}

// Get implements Store.
func (s *SQLiteStore) Get(key string) ([]byte, bool, error) {
	var record KVRecord
	err := s.db.First(&record, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("key", key).
			Build()
	}
	return record.Value, true, nil
}

// Set implements Store, upserting on the key column.
func (s *SQLiteStore) Set(key string, value []byte) error {
	record := KVRecord{Key: key, Value: value}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("key", key).
			Build()
	}
	return nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(key string) error {
	if err := s.db.Delete(&KVRecord{}, "key = ?", key).Error; err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("key", key).
			Build()
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
