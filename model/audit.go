package model

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog is an immutable record of one device registry mutation.
type AuditLog struct {
	ID         uint64            `gorm:"primaryKey;autoIncrement"`
	UserID     uint              `gorm:"index;not null"`                // actor id
	User       *User             `gorm:"foreignKey:UserID"`             // read joined for display only
	Action     string            `gorm:"size:16;not null;index"`        // create, update, delete
	ObjectType string            `gorm:"size:64;not null;index"`        // isg_device
	ObjectID   uint              `gorm:"not null;index"`                // id of the mutated entity
	Timestamp  time.Time         `gorm:"autoCreateTime;not null;index"` // server clock at write time
	Details    datatypes.JSONMap // snapshot for create/delete, {field: {old, new}} for update
}

// ActorName returns the username of the actor, or an empty string when the
// account no longer exists.
func (l *AuditLog) ActorName() string {
	if l.User == nil {
		return ""
	}
	return l.User.Username
}
