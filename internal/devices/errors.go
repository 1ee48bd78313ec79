package devices

import "errors"

var (
	ErrDuplicateDevice = errors.New("device with these parameters already exists")
	ErrDeviceNotFound  = errors.New("device not found")
)
