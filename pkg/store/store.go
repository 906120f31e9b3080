// Package store persists widget instances, keyed by widget id base and
// instance number, in a SQL table through gorm.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/goliatone/go-widgets/pkg/schema"
)

// ErrNotFound is returned when no instance is stored under a key.
var ErrNotFound = errors.New("store: instance not found")

// Record is one stored widget instance.
type Record struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	IDBase    string         `gorm:"column:id_base;size:191;not null;uniqueIndex:idx_widget_instance" json:"id_base"`
	Number    string         `gorm:"column:number;size:32;not null;uniqueIndex:idx_widget_instance" json:"number"`
	Data      datatypes.JSON `gorm:"column:data;type:json;not null" json:"data"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// TableName keeps the table name stable regardless of naming strategy.
func (Record) TableName() string { return "widget_instances" }

// Instance decodes the stored data.
func (r Record) Instance() (schema.Instance, error) {
	inst := make(schema.Instance)
	if len(r.Data) == 0 {
		return inst, nil
	}
	if err := json.Unmarshal(r.Data, &inst); err != nil {
		return nil, fmt.Errorf("store: decode %s/%s: %w", r.IDBase, r.Number, err)
	}
	return inst, nil
}

// Store reads and writes widget instances.
type Store struct {
	db *gorm.DB
}

// Open connects to the SQLite database at path and migrates the schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if path == ":memory:" {
		// Every pooled connection would otherwise see its own empty database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return New(db)
}

// New wraps an existing connection and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("store: database is required")
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// DB exposes the underlying connection.
func (s *Store) DB() *gorm.DB { return s.db }

// Load returns the instance stored for idBase/number.
func (s *Store) Load(ctx context.Context, idBase, number string) (schema.Instance, error) {
	var rec Record
	err := s.db.WithContext(ctx).
		Where("id_base = ? AND number = ?", idBase, number).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, idBase, number)
	}
	if err != nil {
		return nil, fmt.Errorf("store: load %s/%s: %w", idBase, number, err)
	}
	return rec.Instance()
}

// Save stores inst, replacing any previous instance under the same key.
func (s *Store) Save(ctx context.Context, idBase, number string, inst schema.Instance) error {
	if inst == nil {
		inst = schema.Instance{}
	}
	payload, err := json.Marshal(inst)
	if err != nil {
		return fmt.Errorf("store: encode %s/%s: %w", idBase, number, err)
	}
	rec := Record{IDBase: idBase, Number: number, Data: datatypes.JSON(payload)}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id_base"}, {Name: "number"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).
		Create(&rec).Error
	if err != nil {
		return fmt.Errorf("store: save %s/%s: %w", idBase, number, err)
	}
	return nil
}

// Delete removes the instance stored for idBase/number.
func (s *Store) Delete(ctx context.Context, idBase, number string) error {
	res := s.db.WithContext(ctx).
		Where("id_base = ? AND number = ?", idBase, number).
		Delete(&Record{})
	if res.Error != nil {
		return fmt.Errorf("store: delete %s/%s: %w", idBase, number, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, idBase, number)
	}
	return nil
}

// List returns every stored instance of idBase ordered by number.
func (s *Store) List(ctx context.Context, idBase string) ([]Record, error) {
	var records []Record
	err := s.db.WithContext(ctx).
		Where("id_base = ?", idBase).
		Order("number").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("store: list %s: %w", idBase, err)
	}
	return records, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
