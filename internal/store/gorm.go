package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecordRow is the relational representation of a Record.
type RecordRow struct {
	Seq        uint64            `gorm:"primaryKey;autoIncrement"`
	Collection string            `gorm:"type:varchar(63);not null;uniqueIndex:idx_records_collection_id,priority:1;index:idx_records_collection_tenant,priority:1"`
	RecordID   string            `gorm:"column:record_id;type:varchar(64);not null;uniqueIndex:idx_records_collection_id,priority:2"`
	TenantID   string            `gorm:"type:varchar(64);not null;index:idx_records_collection_tenant,priority:2"`
	Data       datatypes.JSONMap `gorm:"type:jsonb;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName pins the table name
func (RecordRow) TableName() string {
	return "records"
}

// GormBackend stores every collection in a single jsonb-backed table.
type GormBackend struct {
	db *gorm.DB
}

// NewGormBackend wraps an initialized *gorm.DB
func NewGormBackend(db *gorm.DB) *GormBackend {
	return &GormBackend{db: db}
}

// Models lists the tables the backend needs migrated
func (b *GormBackend) Models() []interface{} {
	return []interface{}{&RecordRow{}}
}

// scoped restricts a query to one collection of one tenant.
func (b *GormBackend) scoped(ctx context.Context, db *gorm.DB, collection, tenantID string) *gorm.DB {
	return db.WithContext(ctx).
		Model(&RecordRow{}).
		Where("collection = ?", collection).
		Where("tenant_id = ?", tenantID)
}

// List returns the tenant's records in insertion order
func (b *GormBackend) List(ctx context.Context, collection, tenantID string) ([]Record, error) {
	var rows []RecordRow
	if err := b.scoped(ctx, b.db, collection, tenantID).Order("seq").Find(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]Record, 0, len(rows))
	for _, row := range rows {
		result = append(result, Record(row.Data))
	}
	return result, nil
}

// Insert creates a row for rec
func (b *GormBackend) Insert(ctx context.Context, collection string, rec Record) error {
	row := RecordRow{
		Collection: collection,
		RecordID:   rec.ID(),
		TenantID:   rec.TenantID(),
		Data:       datatypes.JSONMap(rec),
	}
	err := b.db.WithContext(ctx).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateID
	}
	return err
}

// Patch merges patch into the row under a row lock
func (b *GormBackend) Patch(ctx context.Context, collection, tenantID, id string, patch Record) (Record, error) {
	var merged Record
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row RecordRow
		err := b.scoped(ctx, tx, collection, tenantID).
			Where("record_id = ?", id).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		merged = merge(Record(row.Data), patch)
		row.Data = datatypes.JSONMap(merged)
		return tx.Save(&row).Error
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}

// Remove hard-deletes the tenant's row
func (b *GormBackend) Remove(ctx context.Context, collection, tenantID, id string) error {
	result := b.scoped(ctx, b.db, collection, tenantID).
		Where("record_id = ?", id).
		Delete(&RecordRow{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the underlying connection pool
func (b *GormBackend) Close(context.Context) error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
