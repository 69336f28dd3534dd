package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/SAP-F-2025/classroom-session/internal/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Record is one path-addressed JSON document.
type Record struct {
	Path      string         `gorm:"primaryKey;size:512"`
	Data      datatypes.JSON `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time
}

func (Record) TableName() string {
	return "records"
}

// GormStore keeps records in a single table keyed by path. Writes are upserts.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// AutoMigrate creates the records table.
func (s *GormStore) AutoMigrate() error {
	return s.db.AutoMigrate(&Record{})
}

func (s *GormStore) Get(ctx context.Context, path string, dest interface{}) (bool, error) {
	var record Record
	err := s.db.WithContext(ctx).Where("path = ?", path).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.FromTransport(err)
	}
	if err := json.Unmarshal(record.Data, dest); err != nil {
		return false, fmt.Errorf("failed to decode record %s: %w", path, err)
	}
	return true, nil
}

func (s *GormStore) Set(ctx context.Context, path string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", path, err)
	}
	record := Record{Path: path, Data: datatypes.JSON(data), UpdatedAt: time.Now()}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "path"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return apperrors.FromTransport(err)
	}
	return nil
}
