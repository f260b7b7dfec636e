package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// documento is one row of the SQL-backed document table. The body is kept as
// JSON text so Postgres and SQLite share the same schema.
type documento struct {
	Coleccion string `gorm:"primaryKey;size:64"`
	Clave     string `gorm:"primaryKey;size:64"`
	Campos    string `gorm:"type:text;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (documento) TableName() string { return "documentos" }

// GormStore implements Store on a relational database through GORM.
// Filtering and ordering run in Go after loading the collection, which is
// fine for warehouse-sized collections.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open connection. Call Migrate once before use.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates the documentos table. It is the only table, so AutoMigrate
// is enough here.
func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(&documento{})
}

func (s *GormStore) Get(ctx context.Context, collection, key string) (*Document, error) {
	var row documento
	err := s.db.WithContext(ctx).
		Where("coleccion = ? AND clave = ?", collection, key).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("sql get %s/%s: %w", collection, key, err)
	}
	return rowToDocument(row)
}

func (s *GormStore) Query(ctx context.Context, q Query) ([]Document, error) {
	var rows []documento
	if err := s.db.WithContext(ctx).Where("coleccion = ?", q.Collection).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("sql query %s: %w", q.Collection, err)
	}
	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		doc, err := rowToDocument(row)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return selectDocs(docs, q), nil
}

func (s *GormStore) Create(ctx context.Context, collection, key string, fields Fields) (string, error) {
	if key == "" {
		key = uuid.NewString()
	}
	body, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("sql encode %s: %w", collection, err)
	}
	row := documento{Coleccion: collection, Clave: key, Campos: string(body)}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", ErrDuplicateKey
		}
		return "", fmt.Errorf("sql create %s: %w", collection, err)
	}
	return key, nil
}

// Patch runs read-merge-write inside a transaction. The row is read with
// SELECT ... FOR UPDATE so concurrent patches to one document serialize
// instead of overwriting each other's fields.
func (s *GormStore) Patch(ctx context.Context, ref Ref, mask []string, fields Fields) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row documento
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("coleccion = ? AND clave = ?", ref.Collection, ref.Key).
			First(&row).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("sql patch %s: %w", ref, err)
		}
		body := Fields{}
		if err := json.Unmarshal([]byte(row.Campos), &body); err != nil {
			return fmt.Errorf("sql decode %s: %w", ref, err)
		}
		applyPatch(body, mask, fields)
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("sql encode %s: %w", ref, err)
		}
		return tx.Model(&documento{}).
			Where("coleccion = ? AND clave = ?", ref.Collection, ref.Key).
			Updates(map[string]any{"campos": string(encoded), "updated_at": time.Now()}).Error
	})
}

func (s *GormStore) Delete(ctx context.Context, ref Ref) error {
	res := s.db.WithContext(ctx).
		Where("coleccion = ? AND clave = ?", ref.Collection, ref.Key).
		Delete(&documento{})
	if res.Error != nil {
		return fmt.Errorf("sql delete %s: %w", ref, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func rowToDocument(row documento) (*Document, error) {
	fields := Fields{}
	if err := json.Unmarshal([]byte(row.Campos), &fields); err != nil {
		return nil, fmt.Errorf("sql decode %s/%s: %w", row.Coleccion, row.Clave, err)
	}
	return &Document{Collection: row.Coleccion, Key: row.Clave, Fields: fields}, nil
}
