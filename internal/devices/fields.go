package devices

import "github.com/isgnet/devreg/model"

// Columns of a device that are tracked by the audit log.
const (
	FieldID            = "id"
	FieldUID           = "uid"
	FieldIPAddress     = "ip_address"
	FieldPort          = "port"
	FieldAdminUsername = "admin_username"
	FieldAdminPassword = "admin_password"
)

const maskedValue = "***"

// trackedFields is the fixed set of columns compared when diffing an update.
var trackedFields = []string{
	FieldUID,
	FieldIPAddress,
	FieldPort,
	FieldAdminUsername,
	FieldAdminPassword,
}

var secretFields = map[string]bool{
	FieldAdminPassword: true,
}

// CreateDeviceOptions holds the caller supplied fields of a new device.
type CreateDeviceOptions struct {
	UID           string
	IPAddress     string
	Port          int
	AdminUsername string
	AdminPassword string
}

// DeviceUpdate is a partial update; nil fields are left untouched.
type DeviceUpdate struct {
	UID           *string
	IPAddress     *string
	Port          *int
	AdminUsername *string
	AdminPassword *string
}

func (u DeviceUpdate) Columns() map[string]interface{} {
	columns := make(map[string]interface{})
	if u.UID != nil {
		columns[FieldUID] = *u.UID
	}
	if u.IPAddress != nil {
		columns[FieldIPAddress] = *u.IPAddress
	}
	if u.Port != nil {
		columns[FieldPort] = *u.Port
	}
	if u.AdminUsername != nil {
		columns[FieldAdminUsername] = *u.AdminUsername
	}
	if u.AdminPassword != nil {
		columns[FieldAdminPassword] = *u.AdminPassword
	}
	return columns
}

// DeviceKeys are the lookup criteria of Exists. Empty fields are ignored.
type DeviceKeys struct {
	UID       string
	IPAddress string
	Port      int
}

func (k DeviceKeys) IsEmpty() bool {
	return k.UID == "" && k.IPAddress == ""
}

func snapshotDevice(device *model.Device) map[string]interface{} {
	return map[string]interface{}{
		FieldID:            device.ID,
		FieldUID:           device.UID,
		FieldIPAddress:     device.IPAddress,
		FieldPort:          device.Port,
		FieldAdminUsername: device.AdminUsername,
		FieldAdminPassword: device.AdminPassword,
	}
}

// diffSnapshots returns {field: {"old": x, "new": y}} for every tracked field
// whose value differs between the two snapshots.
func diffSnapshots(oldValues, newValues map[string]interface{}) map[string]interface{} {
	changes := make(map[string]interface{})
	for _, field := range trackedFields {
		oldVal, newVal := oldValues[field], newValues[field]
		if oldVal == newVal {
			continue
		}
		changes[field] = map[string]interface{}{
			"old": oldVal,
			"new": newVal,
		}
	}
	return changes
}

// maskSecrets replaces credential values in an audit payload. Diff entries
// keep their shape so a credential change is still recorded.
func maskSecrets(details map[string]interface{}) map[string]interface{} {
	masked := make(map[string]interface{}, len(details))
	for field, val := range details {
		if !secretFields[field] {
			masked[field] = val
			continue
		}
		if _, isDiff := val.(map[string]interface{}); isDiff {
			masked[field] = map[string]interface{}{"old": maskedValue, "new": maskedValue}
			continue
		}
		masked[field] = maskedValue
	}
	return masked
}
