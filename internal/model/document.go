package model

import (
	"time"

	"gorm.io/gorm"
)

// DocumentPG model for PostgreSQL storage of session documents
type DocumentPG struct {
	ID      string `gorm:"primaryKey"`
	GeoJSON string `gorm:"column:geo_json;type:text;not null"`
	Count   int    `gorm:"column:count;not null"`

	UpdatedAt time.Time      `gorm:"column:updated_at"`
	CreatedAt time.Time      `gorm:"column:created_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

// TableName overrides the table name
func (DocumentPG) TableName() string {
	return "documents"
}

// Document in-memory snapshot of a session document
type Document struct {
	ID      string
	GeoJSON []byte
	Count   int

	UpdatedAt time.Time
	CreatedAt time.Time
}

// DocumentFromPG creates a Document from DocumentPG
func DocumentFromPG(pg *DocumentPG) *Document {
	return &Document{
		ID:        pg.ID,
		GeoJSON:   []byte(pg.GeoJSON),
		Count:     pg.Count,
		UpdatedAt: pg.UpdatedAt,
		CreatedAt: pg.CreatedAt,
	}
}

// ToPG converts the snapshot into its PostgreSQL model
func (d *Document) ToPG() *DocumentPG {
	return &DocumentPG{
		ID:        d.ID,
		GeoJSON:   string(d.GeoJSON),
		Count:     d.Count,
		UpdatedAt: d.UpdatedAt,
		CreatedAt: d.CreatedAt,
	}
}
