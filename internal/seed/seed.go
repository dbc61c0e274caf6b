package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	devicedomain "github.com/smallbiznis/wattbill/internal/device/domain"
	"gorm.io/gorm"
)

// EnsureDevices creates one device per configured measuring point so a
// fresh install can invoice end to end. Existing mappings are left
// untouched.
func EnsureDevices(db *gorm.DB, node *snowflake.Node, measuringPoints []string) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, mp := range measuringPoints {
			var existing devicedomain.Device
			err := tx.First(&existing, "measuring_point_id = ?", mp).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			prefix := mp
			if len(prefix) > 8 {
				prefix = prefix[:8]
			}
			device := devicedomain.Device{
				ID:               node.Generate(),
				ModelNumber:      "DCC-10",
				SerialNumber:     fmt.Sprintf("DCC-%s", prefix),
				Location:         "Unassigned",
				MaxAmperage:      48,
				EVSECount:        1,
				MeasuringPointID: mp,
			}
			if err := tx.Create(&device).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
