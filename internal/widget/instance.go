package widget

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Instance is a widget placed in a sidebar.
type Instance struct {
	ID        uint
	Sidebar   string
	Position  int
	IDBase    string
	Settings  Settings
	UpdatedAt time.Time
}

// InstanceRow is the persisted form of an Instance.
type InstanceRow struct {
	gorm.Model
	Sidebar  string            `gorm:"size:128;index:idx_widget_instances_sidebar,priority:1;not null"`
	Position int               `gorm:"index:idx_widget_instances_sidebar,priority:2;not null;default:0"`
	IDBase   string            `gorm:"column:id_base;size:128;not null"`
	Settings map[string]string `gorm:"type:text;serializer:json"`
}

// TableName defines the table name for InstanceRow.
func (InstanceRow) TableName() string {
	return "widget_instances"
}

func (row InstanceRow) toInstance() Instance {
	settings := make(Settings, len(row.Settings))
	for k, v := range row.Settings {
		settings[k] = v
	}
	return Instance{
		ID:        row.ID,
		Sidebar:   row.Sidebar,
		Position:  row.Position,
		IDBase:    row.IDBase,
		Settings:  settings,
		UpdatedAt: row.UpdatedAt,
	}
}

// InstanceRepository persists widget instances.
type InstanceRepository interface {
	Create(ctx context.Context, instance *Instance) error
	Get(ctx context.Context, id uint) (*Instance, error)
	UpdateSettings(ctx context.Context, id uint, settings Settings) error
	ListBySidebar(ctx context.Context, sidebar string) ([]Instance, error)
	CountBySidebar(ctx context.Context, sidebar string) (int64, error)
}

// GormInstanceRepository stores instances with gorm.
type GormInstanceRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

var _ InstanceRepository = (*GormInstanceRepository)(nil)

// NewInstanceRepository constructs a gorm-backed instance repository.
func NewInstanceRepository(db *gorm.DB, logger *logrus.Logger) (*GormInstanceRepository, error) {
	if db == nil {
		return nil, eris.New("gorm DB is required")
	}
	return &GormInstanceRepository{db: db, logger: logger}, nil
}

// Create inserts the instance and sets its ID.
func (r *GormInstanceRepository) Create(ctx context.Context, instance *Instance) error {
	if instance == nil {
		return eris.New("widget instance is nil")
	}

	row := &InstanceRow{
		Sidebar:  instance.Sidebar,
		Position: instance.Position,
		IDBase:   instance.IDBase,
		Settings: map[string]string(instance.Settings.Clone()),
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		r.logError(logrus.Fields{"sidebar": instance.Sidebar, "id_base": instance.IDBase}, err, "creating widget instance")
		return eris.Wrap(err, "creating widget instance")
	}

	instance.ID = row.ID
	instance.UpdatedAt = row.UpdatedAt
	return nil
}

// Get returns the instance, or nil when it does not exist.
func (r *GormInstanceRepository) Get(ctx context.Context, id uint) (*Instance, error) {
	var row InstanceRow
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logError(logrus.Fields{"instance_id": id}, err, "fetching widget instance")
		return nil, eris.Wrapf(err, "fetching widget instance %d", id)
	}

	instance := row.toInstance()
	return &instance, nil
}

// UpdateSettings replaces the stored settings.
func (r *GormInstanceRepository) UpdateSettings(ctx context.Context, id uint, settings Settings) error {
	result := r.db.WithContext(ctx).
		Model(&InstanceRow{Model: gorm.Model{ID: id}}).
		Select("Settings").
		Updates(&InstanceRow{Settings: map[string]string(settings.Clone())})
	if result.Error != nil {
		r.logError(logrus.Fields{"instance_id": id}, result.Error, "updating widget instance")
		return eris.Wrapf(result.Error, "updating widget instance %d", id)
	}
	if result.RowsAffected == 0 {
		return eris.Wrapf(ErrInstanceNotFound, "updating widget instance %d", id)
	}
	return nil
}

// ListBySidebar returns the sidebar's instances in position order.
func (r *GormInstanceRepository) ListBySidebar(ctx context.Context, sidebar string) ([]Instance, error) {
	var rows []InstanceRow
	err := r.db.WithContext(ctx).
		Where("sidebar = ?", sidebar).
		Order("position ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		r.logError(logrus.Fields{"sidebar": sidebar}, err, "listing widget instances")
		return nil, eris.Wrapf(err, "listing widget instances of %s", sidebar)
	}

	instances := make([]Instance, 0, len(rows))
	for _, row := range rows {
		instances = append(instances, row.toInstance())
	}
	return instances, nil
}

// CountBySidebar counts the sidebar's instances.
func (r *GormInstanceRepository) CountBySidebar(ctx context.Context, sidebar string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&InstanceRow{}).Where("sidebar = ?", sidebar).Count(&count).Error; err != nil {
		r.logError(logrus.Fields{"sidebar": sidebar}, err, "counting widget instances")
		return 0, eris.Wrapf(err, "counting widget instances of %s", sidebar)
	}
	return count, nil
}

func (r *GormInstanceRepository) logError(fields logrus.Fields, err error, message string) {
	if r.logger == nil || err == nil {
		return
	}

	entry := r.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}
