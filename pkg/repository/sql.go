package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/config"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type storeBlob struct {
	Key       string    `gorm:"primaryKey;type:varchar(64)"`
	Data      []byte    `gorm:"type:longblob"`
	UpdatedAt time.Time
}

func (storeBlob) TableName() string {
	return "store_blobs"
}

// SQLBackend persists blobs in a single gorm-managed table.
type SQLBackend struct {
	db *gorm.DB
}

func NewMySQLBackend(cfg *config.MySQLConfig) (*SQLBackend, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	return NewSQLBackend(db)
}

// NewSQLBackend wraps an open gorm handle and migrates the blob table.
func NewSQLBackend(db *gorm.DB) (*SQLBackend, error) {
	if err := db.AutoMigrate(&storeBlob{}); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return &SQLBackend{db: db}, nil
}

func (s *SQLBackend) Load(ctx context.Context, key string) ([]byte, bool, error) {
	if err := validateKey(key); err != nil {
		return nil, false, err
	}
	var row storeBlob
	if err := s.db.WithContext(ctx).Where(&storeBlob{Key: key}).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return row.Data, true, nil
}

func (s *SQLBackend) Save(ctx context.Context, key string, data []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	row := storeBlob{Key: key, Data: data, UpdatedAt: time.Now()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}

func (s *SQLBackend) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Delete(&storeBlob{Key: key}).Error
}

func (s *SQLBackend) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
