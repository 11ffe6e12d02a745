package postgres

import (
	"context"
	"errors"
	"fmt"

	"geoeditor/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Documents stores session document snapshots in the documents table
type Documents struct {
	db *gorm.DB
}

func NewDocuments(db *gorm.DB) *Documents {
	return &Documents{db: db}
}

// Save upserts the snapshot of a session document
func (d *Documents) Save(ctx context.Context, doc *model.Document) error {
	pg := doc.ToPG()
	err := d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"geo_json", "count", "updated_at", "deleted_at"}),
	}).Create(pg).Error
	if err != nil {
		return fmt.Errorf("save document %s: %w", doc.ID, err)
	}
	return nil
}

// Load returns the snapshot of a session, nil when there is none
func (d *Documents) Load(ctx context.Context, id string) (*model.Document, error) {
	var pg model.DocumentPG
	err := d.db.WithContext(ctx).First(&pg, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load document %s: %w", id, err)
	}
	return model.DocumentFromPG(&pg), nil
}

// All returns every stored snapshot
func (d *Documents) All(ctx context.Context) ([]*model.Document, error) {
	var rows []model.DocumentPG
	if err := d.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	docs := make([]*model.Document, 0, len(rows))
	for i := range rows {
		docs = append(docs, model.DocumentFromPG(&rows[i]))
	}
	return docs, nil
}

// Delete soft-deletes the snapshot of a session
func (d *Documents) Delete(ctx context.Context, id string) error {
	return d.db.WithContext(ctx).Delete(&model.DocumentPG{}, "id = ?", id).Error
}
