package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/isgnet/devreg/internal/audit"
	"github.com/isgnet/devreg/internal/common"
)

type auditFilterQuery struct {
	ObjectType string `query:"object_type"`
	ObjectID   uint   `query:"object_id"`
	UserID     uint   `query:"user_id"`
}

type AuditHandler struct {
	auditService AuditService
}

func (h *AuditHandler) GetAuditLogs(ctx *fiber.Ctx) error {
	var pageQuery PageQuery
	if err := parsePageQuery(ctx, &pageQuery); err != nil {
		return err
	}
	var filter auditFilterQuery
	if err := ctx.QueryParser(&filter); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid query parameters")
	}

	page, err := h.auditService.GetAuditLogs(ctx.UserContext(), pageQuery.PageNumber, pageQuery.PageSize, audit.Filter{
		ObjectType: filter.ObjectType,
		ObjectID:   filter.ObjectID,
		UserID:     filter.UserID,
	})
	if err != nil {
		return err
	}
	return ctx.JSON(NewDataResponse(common.MapPage(page, newAuditLogResponse)))
}

func NewAuditHandler(auditService AuditService) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
	}
}
