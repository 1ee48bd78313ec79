package api

import (
	"context"
	"time"

	"github.com/isgnet/devreg/internal/audit"
	"github.com/isgnet/devreg/internal/common"
	"github.com/isgnet/devreg/internal/devices"
	"github.com/isgnet/devreg/internal/users"
	"github.com/isgnet/devreg/model"
)

type DeviceService interface {
	CreateDevice(ctx context.Context, opts devices.CreateDeviceOptions, actorID uint) (*model.Device, error)
	GetDevice(ctx context.Context, id uint) (*model.Device, error)
	ListDevices(ctx context.Context, pageNumber, pageSize int) (*common.Page[*model.Device], error)
	UpdateDevice(ctx context.Context, id uint, update devices.DeviceUpdate, actorID uint) (*model.Device, error)
	DeleteDevice(ctx context.Context, id uint, actorID uint) error
}

type AuditService interface {
	GetAuditLogs(ctx context.Context, pageNumber, pageSize int, filter audit.Filter) (*common.Page[*model.AuditLog], error)
}

type UserService interface {
	Register(ctx context.Context, opts users.CreateUserOptions) (*model.User, error)
	Authenticate(ctx context.Context, identifier string, password string) (*model.User, error)
	ChangePassword(ctx context.Context, user *model.User, oldPassword, newPassword string) error
	RequestPasswordReset(ctx context.Context, email string) (*model.User, string, error)
	VerifyResetCode(ctx context.Context, email string, code string) error
	SetNewPassword(ctx context.Context, email string, code string, newPassword string) error
}

type TokenIssuer interface {
	Issue(userID uint) (string, time.Time, error)
}
