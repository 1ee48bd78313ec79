package audit

import (
	"context"

	"github.com/isgnet/devreg/internal/common"
	"github.com/isgnet/devreg/internal/database"
	"github.com/isgnet/devreg/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AuditLogRepository interface {
	WithTx(tx *gorm.DB) AuditLogRepository
	Append(ctx context.Context, userID uint, action, objectType string, objectID uint, details map[string]interface{}) (*model.AuditLog, error)
	Query(ctx context.Context, pageNumber, pageSize int, filter Filter) ([]*model.AuditLog, int64, error)
}

type auditLogRepository struct {
	db *gorm.DB
}

func (r *auditLogRepository) WithTx(tx *gorm.DB) AuditLogRepository {
	return NewAuditLogRepository(tx)
}

func (r *auditLogRepository) Append(ctx context.Context, userID uint, action, objectType string, objectID uint, details map[string]interface{}) (*model.AuditLog, error) {
	entry := &model.AuditLog{
		UserID:     userID,
		Action:     action,
		ObjectType: objectType,
		ObjectID:   objectID,
		Details:    datatypes.JSONMap(details),
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, database.NewStorageError("append audit log", err)
	}
	return entry, nil
}

func (r *auditLogRepository) Query(ctx context.Context, pageNumber, pageSize int, filter Filter) ([]*model.AuditLog, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.AuditLog{}).Scopes(filterScope(filter)).Count(&total).Error; err != nil {
		return nil, 0, database.NewStorageError("count audit logs", err)
	}

	var logs []*model.AuditLog
	err := r.db.WithContext(ctx).
		Joins("User").
		Scopes(filterScope(filter)).
		Order(clause.OrderBy{Columns: []clause.OrderByColumn{
			{Column: clause.Column{Table: clause.CurrentTable, Name: "timestamp"}, Desc: true},
			{Column: clause.Column{Table: clause.CurrentTable, Name: "id"}, Desc: true},
		}}).
		Offset(common.Offset(pageNumber, pageSize)).
		Limit(pageSize).
		Find(&logs).Error
	if err != nil {
		return nil, 0, database.NewStorageError("query audit logs", err)
	}
	return logs, total, nil
}

func filterScope(filter Filter) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if filter.ObjectType != "" {
			tx = tx.Where(currentTableEq("object_type", filter.ObjectType))
		}
		if filter.ObjectID != 0 {
			tx = tx.Where(currentTableEq("object_id", filter.ObjectID))
		}
		if filter.UserID != 0 {
			tx = tx.Where(currentTableEq("user_id", filter.UserID))
		}
		return tx
	}
}

func currentTableEq(column string, value interface{}) clause.Expression {
	return clause.Eq{Column: clause.Column{Table: clause.CurrentTable, Name: column}, Value: value}
}

func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepository{db}
}
