package devices

import (
	"context"
	"errors"

	"github.com/isgnet/devreg/internal/common"
	"github.com/isgnet/devreg/internal/database"
	"github.com/isgnet/devreg/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DeviceRepository interface {
	WithTx(tx *gorm.DB) DeviceRepository
	Exists(ctx context.Context, keys DeviceKeys, excludeIDs ...uint) (bool, error)
	Create(ctx context.Context, device *model.Device) error
	List(ctx context.Context, pageNumber, pageSize int) ([]*model.Device, int64, error)
	Get(ctx context.Context, id uint) (*model.Device, error)
	UpdateFields(ctx context.Context, device *model.Device, columns map[string]interface{}) (*model.Device, error)
	Delete(ctx context.Context, device *model.Device) error
	Snapshot(device *model.Device) map[string]interface{}
}

type deviceRepository struct {
	db *gorm.DB
}

func (r *deviceRepository) WithTx(tx *gorm.DB) DeviceRepository {
	return NewDeviceRepository(tx)
}

// Exists reports whether a stored device shares the uid or the ip address of
// keys. It is a fast path only; the unique indexes decide under concurrency.
func (r *deviceRepository) Exists(ctx context.Context, keys DeviceKeys, excludeIDs ...uint) (bool, error) {
	if keys.IsEmpty() {
		return false, nil
	}
	var matches []clause.Expression
	if keys.UID != "" {
		matches = append(matches, clause.Eq{Column: clause.Column{Name: FieldUID}, Value: keys.UID})
	}
	if keys.IPAddress != "" {
		matches = append(matches, clause.Eq{Column: clause.Column{Name: FieldIPAddress}, Value: keys.IPAddress})
	}

	tx := r.db.WithContext(ctx).Model(&model.Device{}).Where(clause.Or(matches...))
	if len(excludeIDs) > 0 {
		tx = tx.Where(clause.Not(clause.IN{Column: clause.PrimaryColumn, Values: toValues(excludeIDs)}))
	}
	var count int64
	if err := tx.Limit(1).Count(&count).Error; err != nil {
		return false, database.NewStorageError("check device exists", err)
	}
	return count > 0, nil
}

func (r *deviceRepository) Create(ctx context.Context, device *model.Device) error {
	err := r.db.WithContext(ctx).Create(device).Error
	if database.IsDuplicateKey(err) {
		return ErrDuplicateDevice
	}
	if err != nil {
		return database.NewStorageError("create device", err)
	}
	return nil
}

func (r *deviceRepository) List(ctx context.Context, pageNumber, pageSize int) ([]*model.Device, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Device{}).Count(&total).Error; err != nil {
		return nil, 0, database.NewStorageError("count devices", err)
	}

	var devices []*model.Device
	err := r.db.WithContext(ctx).
		Order(clause.OrderByColumn{Column: clause.PrimaryColumn}).
		Offset(common.Offset(pageNumber, pageSize)).
		Limit(pageSize).
		Find(&devices).Error
	if err != nil {
		return nil, 0, database.NewStorageError("list devices", err)
	}
	return devices, total, nil
}

// Get returns nil without error when no device has the given id.
func (r *deviceRepository) Get(ctx context.Context, id uint) (*model.Device, error) {
	var device model.Device
	err := r.db.WithContext(ctx).Take(&device, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, database.NewStorageError("get device", err)
	}
	return &device, nil
}

func (r *deviceRepository) UpdateFields(ctx context.Context, device *model.Device, columns map[string]interface{}) (*model.Device, error) {
	if len(columns) > 0 {
		err := r.db.WithContext(ctx).Model(device).Updates(columns).Error
		if database.IsDuplicateKey(err) {
			return nil, ErrDuplicateDevice
		}
		if err != nil {
			return nil, database.NewStorageError("update device", err)
		}
	}

	var refreshed model.Device
	if err := r.db.WithContext(ctx).Take(&refreshed, device.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeviceNotFound
		}
		return nil, database.NewStorageError("reload device", err)
	}
	return &refreshed, nil
}

func (r *deviceRepository) Delete(ctx context.Context, device *model.Device) error {
	ret := r.db.WithContext(ctx).Delete(&model.Device{}, device.ID)
	if ret.Error != nil {
		return database.NewStorageError("delete device", ret.Error)
	}
	if ret.RowsAffected == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// Snapshot captures the current value of every stored field of device.
func (r *deviceRepository) Snapshot(device *model.Device) map[string]interface{} {
	return snapshotDevice(device)
}

func toValues(ids []uint) []interface{} {
	values := make([]interface{}, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	return values
}

func NewDeviceRepository(db *gorm.DB) DeviceRepository {
	return &deviceRepository{db}
}
