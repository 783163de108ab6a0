package content

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository defines persistence operations for records and their custom fields.
type Repository interface {
	Create(ctx context.Context, record *Record) error
	Get(ctx context.Context, id uint) (*Record, error)
	Update(ctx context.Context, record *Record) error
	Delete(ctx context.Context, id uint) error
	SetMeta(ctx context.Context, id uint, key, value string) error
	Recent(ctx context.Context, recordType string, limit int) ([]Record, error)
	Count(ctx context.Context, recordType string) (int64, error)
}

// GormRepository persists records using a Gorm database connection.
type GormRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

var _ Repository = (*GormRepository)(nil)

// NewRepository constructs a Gorm-backed repository implementation.
func NewRepository(db *gorm.DB, logger *logrus.Logger) (*GormRepository, error) {
	if db == nil {
		return nil, eris.New("gorm DB is required")
	}

	return &GormRepository{db: db, logger: logger}, nil
}

// Create inserts the record and its meta in one transaction and sets the generated ID.
func (r *GormRepository) Create(ctx context.Context, record *Record) error {
	if record == nil {
		return eris.New("record is nil")
	}

	recordType := strings.TrimSpace(record.Type)
	if recordType == "" {
		return eris.New("record type is required")
	}

	row := &RecordRow{
		Type:    recordType,
		Title:   record.Title,
		Body:    record.Body,
		Content: SerializeBlocks(record.Blocks),
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(row).Error; err != nil {
			return eris.Wrap(err, "inserting record")
		}

		for key, value := range record.Meta {
			if err := upsertMeta(tx, row.ID, key, value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		r.logError(logrus.Fields{"record_type": recordType}, err, "creating record")
		return eris.Wrapf(err, "creating %s record", recordType)
	}

	record.ID = row.ID
	record.Type = recordType
	record.CreatedAt = row.CreatedAt
	record.UpdatedAt = row.UpdatedAt
	return nil
}

// Get returns the record with its meta, or nil when it does not exist.
func (r *GormRepository) Get(ctx context.Context, id uint) (*Record, error) {
	var row RecordRow
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logError(logrus.Fields{"record_id": id}, err, "fetching record")
		return nil, eris.Wrapf(err, "fetching record %d", id)
	}

	var meta []MetaRow
	if err := r.db.WithContext(ctx).Where("record_id = ?", id).Find(&meta).Error; err != nil {
		r.logError(logrus.Fields{"record_id": id}, err, "fetching record meta")
		return nil, eris.Wrapf(err, "fetching meta for record %d", id)
	}

	return toRecord(&row, meta), nil
}

// Update persists title, body and block content. Meta is written through SetMeta.
func (r *GormRepository) Update(ctx context.Context, record *Record) error {
	if record == nil {
		return eris.New("record is nil")
	}

	result := r.db.WithContext(ctx).
		Model(&RecordRow{}).
		Where("id = ?", record.ID).
		Updates(map[string]any{
			"title":   record.Title,
			"body":    record.Body,
			"content": SerializeBlocks(record.Blocks),
		})
	if result.Error != nil {
		r.logError(logrus.Fields{"record_id": record.ID}, result.Error, "updating record")
		return eris.Wrapf(result.Error, "updating record %d", record.ID)
	}
	if result.RowsAffected == 0 {
		return eris.Wrapf(ErrNotFound, "updating record %d", record.ID)
	}

	return nil
}

// Delete removes the record. Its meta rows stay behind with the soft-deleted row.
func (r *GormRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&RecordRow{}, id)
	if result.Error != nil {
		r.logError(logrus.Fields{"record_id": id}, result.Error, "deleting record")
		return eris.Wrapf(result.Error, "deleting record %d", id)
	}
	if result.RowsAffected == 0 {
		return eris.Wrapf(ErrNotFound, "deleting record %d", id)
	}
	return nil
}

// SetMeta inserts or replaces one custom field value.
func (r *GormRepository) SetMeta(ctx context.Context, id uint, key, value string) error {
	if err := upsertMeta(r.db.WithContext(ctx), id, key, value); err != nil {
		r.logError(logrus.Fields{"record_id": id, "meta_key": key}, err, "writing record meta")
		return err
	}
	return nil
}

// Recent returns up to limit records of the type, newest first.
func (r *GormRepository) Recent(ctx context.Context, recordType string, limit int) ([]Record, error) {
	if limit <= 0 {
		return []Record{}, nil
	}

	var rows []RecordRow
	err := r.db.WithContext(ctx).
		Where("type = ?", recordType).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		r.logError(logrus.Fields{"record_type": recordType}, err, "listing recent records")
		return nil, eris.Wrapf(err, "listing recent %s records", recordType)
	}

	if len(rows) == 0 {
		return []Record{}, nil
	}

	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}

	var meta []MetaRow
	if err := r.db.WithContext(ctx).Where("record_id IN ?", ids).Find(&meta).Error; err != nil {
		r.logError(logrus.Fields{"record_type": recordType}, err, "listing recent record meta")
		return nil, eris.Wrapf(err, "listing meta for recent %s records", recordType)
	}

	byRecord := make(map[uint][]MetaRow, len(rows))
	for _, m := range meta {
		byRecord[m.RecordID] = append(byRecord[m.RecordID], m)
	}

	records := make([]Record, 0, len(rows))
	for i := range rows {
		records = append(records, *toRecord(&rows[i], byRecord[rows[i].ID]))
	}
	return records, nil
}

// Count returns the number of live records of the type.
func (r *GormRepository) Count(ctx context.Context, recordType string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&RecordRow{}).Where("type = ?", recordType).Count(&count).Error; err != nil {
		r.logError(logrus.Fields{"record_type": recordType}, err, "counting records")
		return 0, eris.Wrapf(err, "counting %s records", recordType)
	}
	return count, nil
}

func upsertMeta(tx *gorm.DB, id uint, key, value string) error {
	row := &MetaRow{RecordID: id, Key: key, Value: value}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "record_id"}, {Name: "meta_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"meta_value"}),
	}).Create(row).Error
	if err != nil {
		return eris.Wrapf(err, "writing meta %s for record %d", key, id)
	}
	return nil
}

func (r *GormRepository) logError(fields logrus.Fields, err error, message string) {
	if r.logger == nil || err == nil {
		return
	}

	entry := r.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}
