// Package registry records which indexes exist and which documents each
// one contains. It is the source of truth for index existence; the
// vector store only holds the vectors.
package registry

import (
	"time"

	"gorm.io/datatypes"
)

// Index is one named document index.
type Index struct {
	ID          uint   `gorm:"primaryKey"`
	UUID        string `gorm:"uniqueIndex;not null;size:36"`
	Name        string `gorm:"uniqueIndex;not null;size:255"`
	Fingerprint string `gorm:"not null;size:255"` // embedding space, "provider/model"
	Dimension   int    `gorm:"not null"`
	ChunkCount  int    `gorm:"not null;default:0"`
	DocCount    int    `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IndexDocument is the audit record of one document ingested into an index.
type IndexDocument struct {
	ID         uint   `gorm:"primaryKey"`
	UUID       string `gorm:"uniqueIndex;not null;size:36"`
	IndexID    uint   `gorm:"index;not null"`
	FileName   string `gorm:"not null;size:512"`
	Format     string `gorm:"not null;size:32"` // "pdf", "docx", "txt", ...
	Pages      int    `gorm:"not null;default:0"`
	Characters int    `gorm:"not null;default:0"`
	Metadata   datatypes.JSON
	CreatedAt  time.Time
}
