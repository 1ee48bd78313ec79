package devices

import (
	"context"
	"errors"
	"log/slog"

	"github.com/isgnet/devreg/internal/audit"
	"github.com/isgnet/devreg/internal/common"
	"github.com/isgnet/devreg/internal/database"
	"github.com/isgnet/devreg/internal/metrics"
	"github.com/isgnet/devreg/model"
	"gorm.io/gorm"
)

// DeviceService is the only writer of device records. Every mutation and
// its audit entry commit in one transaction.
type DeviceService struct {
	db         *gorm.DB
	deviceRepo DeviceRepository
	auditRepo  audit.AuditLogRepository
}

type txFunc func(deviceRepo DeviceRepository, auditRepo audit.AuditLogRepository) error

func (s *DeviceService) withTx(ctx context.Context, fn txFunc) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(s.deviceRepo.WithTx(tx), s.auditRepo.WithTx(tx))
	})
	if err == nil ||
		errors.Is(err, ErrDuplicateDevice) ||
		errors.Is(err, ErrDeviceNotFound) ||
		database.IsStorageError(err) {
		return err
	}
	return database.NewStorageError("device transaction", err)
}

func (s *DeviceService) CreateDevice(ctx context.Context, opts CreateDeviceOptions, actorID uint) (*model.Device, error) {
	device := &model.Device{
		UID:           opts.UID,
		IPAddress:     opts.IPAddress,
		Port:          opts.Port,
		AdminUsername: opts.AdminUsername,
		AdminPassword: opts.AdminPassword,
	}
	err := s.withTx(ctx, func(deviceRepo DeviceRepository, auditRepo audit.AuditLogRepository) error {
		exists, err := deviceRepo.Exists(ctx, DeviceKeys{UID: opts.UID, IPAddress: opts.IPAddress, Port: opts.Port})
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateDevice
		}
		if err := deviceRepo.Create(ctx, device); err != nil {
			return err
		}
		details := maskSecrets(deviceRepo.Snapshot(device))
		_, err = auditRepo.Append(ctx, actorID, audit.ActionCreate, audit.ObjectTypeISGDevice, device.ID, details)
		return err
	})
	recordMutation(audit.ActionCreate, err)
	if err != nil {
		return nil, err
	}
	slog.Info("Device created", "deviceID", device.ID, "uid", device.UID, "actorID", actorID)
	return device, nil
}

func (s *DeviceService) GetDevice(ctx context.Context, id uint) (*model.Device, error) {
	device, err := s.deviceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, ErrDeviceNotFound
	}
	return device, nil
}

func (s *DeviceService) ListDevices(ctx context.Context, pageNumber, pageSize int) (*common.Page[*model.Device], error) {
	devices, total, err := s.deviceRepo.List(ctx, pageNumber, pageSize)
	if err != nil {
		return nil, err
	}
	return common.NewPage(devices, pageNumber, pageSize, total), nil
}

// UpdateDevice applies a partial update. An update that changes no tracked
// field writes no audit entry.
func (s *DeviceService) UpdateDevice(ctx context.Context, id uint, update DeviceUpdate, actorID uint) (*model.Device, error) {
	var (
		updated *model.Device
		changes map[string]interface{}
	)
	err := s.withTx(ctx, func(deviceRepo DeviceRepository, auditRepo audit.AuditLogRepository) error {
		device, err := deviceRepo.Get(ctx, id)
		if err != nil {
			return err
		}
		if device == nil {
			return ErrDeviceNotFound
		}

		var keys DeviceKeys
		if update.UID != nil && *update.UID != device.UID {
			keys.UID = *update.UID
		}
		if update.IPAddress != nil && *update.IPAddress != device.IPAddress {
			keys.IPAddress = *update.IPAddress
		}
		exists, err := deviceRepo.Exists(ctx, keys, device.ID)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateDevice
		}

		oldValues := deviceRepo.Snapshot(device)
		updated, err = deviceRepo.UpdateFields(ctx, device, update.Columns())
		if err != nil {
			return err
		}
		changes = diffSnapshots(oldValues, deviceRepo.Snapshot(updated))
		if len(changes) == 0 {
			return nil
		}
		_, err = auditRepo.Append(ctx, actorID, audit.ActionUpdate, audit.ObjectTypeISGDevice, device.ID, maskSecrets(changes))
		return err
	})
	if err == nil && len(changes) == 0 {
		metrics.DeviceMutations.WithLabelValues(audit.ActionUpdate, metrics.OutcomeNoop).Inc()
		return updated, nil
	}
	recordMutation(audit.ActionUpdate, err)
	if err != nil {
		return nil, err
	}
	slog.Info("Device updated", "deviceID", id, "fields", len(changes), "actorID", actorID)
	return updated, nil
}

func (s *DeviceService) DeleteDevice(ctx context.Context, id uint, actorID uint) error {
	err := s.withTx(ctx, func(deviceRepo DeviceRepository, auditRepo audit.AuditLogRepository) error {
		device, err := deviceRepo.Get(ctx, id)
		if err != nil {
			return err
		}
		if device == nil {
			return ErrDeviceNotFound
		}
		snapshot := maskSecrets(deviceRepo.Snapshot(device))
		if err := deviceRepo.Delete(ctx, device); err != nil {
			return err
		}
		_, err = auditRepo.Append(ctx, actorID, audit.ActionDelete, audit.ObjectTypeISGDevice, id, snapshot)
		return err
	})
	recordMutation(audit.ActionDelete, err)
	if err != nil {
		return err
	}
	slog.Info("Device deleted", "deviceID", id, "actorID", actorID)
	return nil
}

func recordMutation(action string, err error) {
	outcome := metrics.OutcomeSuccess
	switch {
	case err == nil:
		metrics.AuditEntries.WithLabelValues(action).Inc()
	case errors.Is(err, ErrDuplicateDevice):
		outcome = metrics.OutcomeDuplicate
	case errors.Is(err, ErrDeviceNotFound):
		outcome = metrics.OutcomeNotFound
	default:
		outcome = metrics.OutcomeError
		slog.Error("Device mutation failed", "action", action, "error", err)
	}
	metrics.DeviceMutations.WithLabelValues(action, outcome).Inc()
}

func NewDeviceService(db *gorm.DB, deviceRepo DeviceRepository, auditRepo audit.AuditLogRepository) *DeviceService {
	return &DeviceService{
		db:         db,
		deviceRepo: deviceRepo,
		auditRepo:  auditRepo,
	}
}
