package registry

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"docuchat/internal/apperr"
)

// Registry provides data access methods for indexes and their documents.
type Registry struct {
	db *gorm.DB
}

// New creates a Registry and migrates its tables.
func New(db *gorm.DB) (*Registry, error) {
	if err := db.AutoMigrate(&Index{}, &IndexDocument{}); err != nil {
		return nil, err
	}
	return &Registry{db: db}, nil
}

// CreateIndex records a new index. A duplicate name yields a conflict
// error.
func (r *Registry) CreateIndex(ctx context.Context, name, fingerprint string) (*Index, error) {
	idx := &Index{
		UUID:        uuid.New().String(),
		Name:        name,
		Fingerprint: fingerprint,
	}

	result := r.db.WithContext(ctx).Create(idx)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("index '%s' already exists", name)
		}
		return nil, result.Error
	}
	return idx, nil
}

// GetIndex looks an index up by name.
func (r *Registry) GetIndex(ctx context.Context, name string) (*Index, error) {
	var idx Index
	result := r.db.WithContext(ctx).Where("name = ?", name).First(&idx)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("index '%s' does not exist", name)
		}
		return nil, result.Error
	}
	return &idx, nil
}

// ListIndexes returns all indexes ordered by name.
func (r *Registry) ListIndexes(ctx context.Context) ([]*Index, error) {
	var indexes []*Index
	result := r.db.WithContext(ctx).Order("name").Find(&indexes)
	if result.Error != nil {
		return nil, result.Error
	}
	return indexes, nil
}

// DeleteIndex removes an index and its document records.
func (r *Registry) DeleteIndex(ctx context.Context, name string) error {
	idx, err := r.GetIndex(ctx, name)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("index_id = ?", idx.ID).Delete(&IndexDocument{}).Error; err != nil {
			return err
		}
		return tx.Delete(idx).Error
	})
}

// AddDocument appends a document record and bumps the index counters.
func (r *Registry) AddDocument(ctx context.Context, indexID uint, doc *IndexDocument, chunksAdded int) error {
	doc.IndexID = indexID
	if doc.UUID == "" {
		doc.UUID = uuid.New().String()
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(doc).Error; err != nil {
			return err
		}
		return tx.Model(&Index{}).Where("id = ?", indexID).Updates(map[string]interface{}{
			"doc_count":   gorm.Expr("doc_count + 1"),
			"chunk_count": gorm.Expr("chunk_count + ?", chunksAdded),
		}).Error
	})
}

// SetDimension records the vector dimension once the first batch of
// embeddings fixes it.
func (r *Registry) SetDimension(ctx context.Context, indexID uint, dimension int) error {
	return r.db.WithContext(ctx).Model(&Index{}).Where("id = ?", indexID).
		Update("dimension", dimension).Error
}

// ListDocuments returns the document records of an index in ingestion
// order.
func (r *Registry) ListDocuments(ctx context.Context, indexID uint) ([]*IndexDocument, error) {
	var docs []*IndexDocument
	result := r.db.WithContext(ctx).Where("index_id = ?", indexID).Order("id").Find(&docs)
	if result.Error != nil {
		return nil, result.Error
	}
	return docs, nil
}
