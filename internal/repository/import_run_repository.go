package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"product-import-service/internal/importer"
	"product-import-service/internal/models"
)

// ImportRunRepository stores the audit trail of completed imports
type ImportRunRepository struct {
	db *gorm.DB
}

var _ importer.RunRecorder = (*ImportRunRepository)(nil)

func NewImportRunRepository(db *gorm.DB) *ImportRunRepository {
	return &ImportRunRepository{db: db}
}

// RecordRun inserts one completed import
func (r *ImportRunRepository) RecordRun(ctx context.Context, run *models.ImportRun) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(run).Error
}

// ListRuns returns a tenant's imports, newest first
func (r *ImportRunRepository) ListRuns(ctx context.Context, tenantID string, page, limit int) ([]models.ImportRun, int64, error) {
	var runs []models.ImportRun
	var total int64

	query := r.db.WithContext(ctx).Model(&models.ImportRun{}).Where("tenant_id = ?", tenantID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&runs).Error; err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}
