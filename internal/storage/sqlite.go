package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/himanishpuri/SampleSensei/pkg/models"
)

const DefaultDBFile = "sample_index.sqlite3"

const batchSize = 500

type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

// sampleRow is the persisted form of models.SampleMetadata. ID preserves insertion order.
type sampleRow struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	FilePath  string `gorm:"uniqueIndex:idx_sample_path;not null"`
	FileName  string `gorm:"not null"`
	Folder    string `gorm:"index:idx_sample_folder"`
	Extension string `gorm:"type:varchar(8)"`
	SizeBytes int64
	Duration  *float64
	BPM       *float64 `gorm:"column:bpm;index:idx_sample_bpm"`
	Key       *string  `gorm:"column:musical_key;type:varchar(16)"`
	Tags      datatypes.JSONSlice[string]
	Category  string `gorm:"type:varchar(16);index:idx_sample_category"`
	IndexedAt time.Time
}

func (sampleRow) TableName() string { return "samples" }

func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&sampleRow{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DBClient{DB: db, db: sqlDB}, nil
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.DB, c.db = nil, nil
	return err
}

func (c *DBClient) LoadAll() ([]models.SampleMetadata, error) {
	if c == nil || c.DB == nil {
		return nil, ErrStoreClosed
	}
	var rows []sampleRow
	if err := c.DB.Order("id asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("loading samples: %w", err)
	}
	out := make([]models.SampleMetadata, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func (c *DBClient) SaveSamples(samples []models.SampleMetadata) error {
	if c == nil || c.DB == nil {
		return ErrStoreClosed
	}
	if len(samples) == 0 {
		return nil
	}

	rows := make([]sampleRow, 0, len(samples))
	for _, m := range samples {
		rows = append(rows, fromModel(m))
	}

	return c.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "file_path"}},
			DoNothing: true,
		}).CreateInBatches(rows, batchSize).Error
		if err != nil {
			return fmt.Errorf("batch insert samples: %w", err)
		}
		return nil
	})
}

// Clear deletes every stored sample.
func (c *DBClient) Clear() error {
	if c == nil || c.DB == nil {
		return ErrStoreClosed
	}
	if err := c.DB.Where("1 = 1").Delete(&sampleRow{}).Error; err != nil {
		return fmt.Errorf("clearing samples: %w", err)
	}
	return nil
}

// Count returns the number of stored rows.
func (c *DBClient) Count() (int64, error) {
	if c == nil || c.DB == nil {
		return 0, ErrStoreClosed
	}
	var n int64
	if err := c.DB.Model(&sampleRow{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting samples: %w", err)
	}
	return n, nil
}

func fromModel(m models.SampleMetadata) sampleRow {
	tags := make(datatypes.JSONSlice[string], len(m.Tags))
	copy(tags, m.Tags)
	return sampleRow{
		FilePath:  m.FilePath,
		FileName:  m.FileName,
		Folder:    m.Folder,
		Extension: m.Extension,
		SizeBytes: m.SizeBytes,
		Duration:  m.Duration,
		BPM:       m.BPM,
		Key:       m.Key,
		Tags:      tags,
		Category:  m.Category,
		IndexedAt: m.IndexedAt,
	}
}

func (r sampleRow) toModel() models.SampleMetadata {
	tags := make([]string, len(r.Tags))
	copy(tags, r.Tags)
	return models.SampleMetadata{
		FilePath:  r.FilePath,
		FileName:  r.FileName,
		Folder:    r.Folder,
		Extension: r.Extension,
		SizeBytes: r.SizeBytes,
		Duration:  r.Duration,
		BPM:       r.BPM,
		Key:       r.Key,
		Tags:      tags,
		Category:  r.Category,
		IndexedAt: r.IndexedAt,
	}
}
