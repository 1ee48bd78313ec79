package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/isgnet/devreg/model"
	"github.com/isgnet/devreg/params"
)

// LocalsUser is the ctx.Locals key holding the authenticated *model.User.
const LocalsUser = "user"

type APIResponse struct {
	APIVersion string        `json:"apiVersion"`
	Data       any           `json:"data,omitempty"`
	Error      *APIErrorInfo `json:"error,omitempty"`
}

type APIErrorInfo struct {
	Code    int              `json:"code"`
	Message string           `json:"message"`
	Errors  []APIErrorDetail `json:"errors,omitempty"`
}

type APIErrorDetail struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

func NewDataResponse(data any) APIResponse {
	return APIResponse{
		APIVersion: params.APIVersion,
		Data:       data,
	}
}

func NewErrorResponse(code int, message string, details ...APIErrorDetail) APIResponse {
	return APIResponse{
		APIVersion: params.APIVersion,
		Error: &APIErrorInfo{
			Code:    code,
			Message: message,
			Errors:  details,
		},
	}
}

// ValidationError carries per field problems of a request.
type ValidationError struct {
	Details []APIErrorDetail
}

func (e *ValidationError) Error() string {
	messages := make([]string, 0, len(e.Details))
	for _, detail := range e.Details {
		messages = append(messages, detail.Message)
	}
	return "validation failed: " + strings.Join(messages, "; ")
}

type fieldErrors []APIErrorDetail

func (f *fieldErrors) add(field string, message string) {
	*f = append(*f, APIErrorDetail{Domain: field, Reason: "invalid", Message: message})
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Details: f}
}

type MessageResponse struct {
	Message string `json:"message"`
}

type UserInfoResponse struct {
	UserID    uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserInfoResponse(user *model.User) UserInfoResponse {
	return UserInfoResponse{
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
		IsActive:  user.IsActive(),
		CreatedAt: user.CreatedAt,
	}
}

type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// DeviceResponse never carries the device admin password.
type DeviceResponse struct {
	ID            uint      `json:"id"`
	UID           string    `json:"uid"`
	IPAddress     string    `json:"ip_address"`
	Port          int       `json:"port"`
	AdminUsername string    `json:"admin_username"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func newDeviceResponse(device *model.Device) DeviceResponse {
	return DeviceResponse{
		ID:            device.ID,
		UID:           device.UID,
		IPAddress:     device.IPAddress,
		Port:          device.Port,
		AdminUsername: device.AdminUsername,
		CreatedAt:     device.CreatedAt,
		UpdatedAt:     device.UpdatedAt,
	}
}

type AuditLogResponse struct {
	ID         uint64                 `json:"id"`
	UserID     uint                   `json:"user_id"`
	Username   string                 `json:"username"`
	Action     string                 `json:"action"`
	ObjectType string                 `json:"object_type"`
	ObjectID   uint                   `json:"object_id"`
	Timestamp  time.Time              `json:"timestamp"`
	Details    map[string]interface{} `json:"details"`
}

func newAuditLogResponse(entry *model.AuditLog) AuditLogResponse {
	return AuditLogResponse{
		ID:         entry.ID,
		UserID:     entry.UserID,
		Username:   entry.ActorName(),
		Action:     entry.Action,
		ObjectType: entry.ObjectType,
		ObjectID:   entry.ObjectID,
		Timestamp:  entry.Timestamp,
		Details:    entry.Details,
	}
}

type PageQuery struct {
	PageNumber int `query:"page_number"`
	PageSize   int `query:"page_size"`
}

func parsePageQuery(ctx *fiber.Ctx, query *PageQuery) error {
	query.PageNumber = 1
	query.PageSize = params.DefaultPageSize
	if err := ctx.QueryParser(query); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid query parameters")
	}
	var errs fieldErrors
	if query.PageNumber < 1 {
		errs.add("page_number", "page_number must be greater than or equal to 1")
	}
	if query.PageSize < 1 || query.PageSize > params.MaxPageSize {
		errs.add("page_size", fmt.Sprintf("page_size must be between 1 and %d", params.MaxPageSize))
	}
	return errs.err()
}

func currentUser(ctx *fiber.Ctx) *model.User {
	user, _ := ctx.Locals(LocalsUser).(*model.User)
	return user
}
