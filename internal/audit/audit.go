package audit

import (
	"context"

	"github.com/isgnet/devreg/internal/common"
	"github.com/isgnet/devreg/model"
)

const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

const ObjectTypeISGDevice = "isg_device"

// Filter narrows an audit query. Zero valued fields are not applied; set
// fields are combined with AND.
type Filter struct {
	ObjectType string
	ObjectID   uint
	UserID     uint
}

type AuditService struct {
	auditRepo AuditLogRepository
}

// GetAuditLogs returns one page of audit entries, newest first, with the
// actor relation loaded.
func (s *AuditService) GetAuditLogs(ctx context.Context, pageNumber, pageSize int, filter Filter) (*common.Page[*model.AuditLog], error) {
	logs, total, err := s.auditRepo.Query(ctx, pageNumber, pageSize, filter)
	if err != nil {
		return nil, err
	}
	return common.NewPage(logs, pageNumber, pageSize, total), nil
}

func NewAuditService(auditRepo AuditLogRepository) *AuditService {
	return &AuditService{
		auditRepo: auditRepo,
	}
}
