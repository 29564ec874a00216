// Package meta stores document metadata (name and owner) outside the sync
// core and serves it over HTTP.
package meta

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	ErrNotFound     = errors.New("meta: document not found")
	ErrUnauthorized = errors.New("meta: not allowed")
	ErrInvalidName  = errors.New("meta: name is required")
)

// DocumentMeta is one document's metadata row.
type DocumentMeta struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	OwnerID   string    `gorm:"size:128;not null;index" json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (DocumentMeta) TableName() string {
	return "documents"
}

type Store struct {
	db *gorm.DB
}

// Open connects to the SQLite database at path (":memory:" works) and
// migrates the schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return NewStore(db)
}

func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&DocumentMeta{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Get(ctx context.Context, id string) (DocumentMeta, error) {
	var m DocumentMeta
	err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return DocumentMeta{}, ErrNotFound
	}
	if err != nil {
		return DocumentMeta{}, fmt.Errorf("get %s: %w", id, err)
	}
	return m, nil
}

// Create registers a new document owned by ownerID.
func (s *Store) Create(ctx context.Context, name, ownerID string) (DocumentMeta, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return DocumentMeta{}, ErrInvalidName
	}
	m := DocumentMeta{ID: uuid.NewString(), Name: name, OwnerID: ownerID}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return DocumentMeta{}, fmt.Errorf("create: %w", err)
	}
	return m, nil
}

// Rename changes a document's name. Only the owner may rename.
func (s *Store) Rename(ctx context.Context, id, name, userID string) (DocumentMeta, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return DocumentMeta{}, ErrInvalidName
	}
	m, err := s.Get(ctx, id)
	if err != nil {
		return DocumentMeta{}, err
	}
	if m.OwnerID != userID {
		return DocumentMeta{}, ErrUnauthorized
	}
	if err := s.db.WithContext(ctx).Model(&m).Update("name", name).Error; err != nil {
		return DocumentMeta{}, fmt.Errorf("rename %s: %w", id, err)
	}
	m.Name = name
	return m, nil
}

// List returns the documents owned by ownerID, most recently updated first.
// A non-empty query keeps only names containing it, ignoring case.
func (s *Store) List(ctx context.Context, ownerID, query string) ([]DocumentMeta, error) {
	q := s.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if query = strings.TrimSpace(query); query != "" {
		q = q.Where("instr(lower(name), lower(?)) > 0", query)
	}
	docs := []DocumentMeta{}
	if err := q.Order("updated_at DESC").Order("id").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", ownerID, err)
	}
	return docs, nil
}

// Delete removes a document's metadata. Only the owner may delete.
func (s *Store) Delete(ctx context.Context, id, userID string) error {
	m, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if m.OwnerID != userID {
		return ErrUnauthorized
	}
	if err := s.db.WithContext(ctx).Delete(&m).Error; err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return nil
}
