package widget

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Migrate applies the schema for widget instances.
func Migrate(ctx context.Context, db *gorm.DB, logger *logrus.Logger) error {
	if db == nil {
		return eris.New("gorm DB is required")
	}

	if err := db.WithContext(ctx).AutoMigrate(&InstanceRow{}); err != nil {
		if logger != nil {
			logger.WithError(err).Error("widget migration failed")
		}
		return eris.Wrap(err, "auto-migrating widget instances")
	}

	if logger != nil {
		logger.Debug("widget migrations applied")
	}
	return nil
}
