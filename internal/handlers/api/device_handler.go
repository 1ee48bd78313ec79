package api

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/isgnet/devreg/internal/common"
	"github.com/isgnet/devreg/internal/devices"
)

type createDeviceRequest struct {
	UID           string `json:"uid"`
	IPAddress     string `json:"ip_address"`
	Port          int    `json:"port"`
	AdminUsername string `json:"admin_username"`
	AdminPassword string `json:"admin_password"`
}

func (r *createDeviceRequest) validate() error {
	var errs fieldErrors
	validateUID(&errs, r.UID)
	validateIPAddress(&errs, r.IPAddress)
	validatePort(&errs, r.Port)
	return errs.err()
}

// updateDeviceRequest fields left out of the body stay nil and are not
// touched.
type updateDeviceRequest struct {
	UID           *string `json:"uid"`
	IPAddress     *string `json:"ip_address"`
	Port          *int    `json:"port"`
	AdminUsername *string `json:"admin_username"`
	AdminPassword *string `json:"admin_password"`
}

func (r *updateDeviceRequest) validate() error {
	var errs fieldErrors
	if r.UID != nil {
		validateUID(&errs, *r.UID)
	}
	if r.IPAddress != nil {
		validateIPAddress(&errs, *r.IPAddress)
	}
	if r.Port != nil {
		validatePort(&errs, *r.Port)
	}
	return errs.err()
}

type DeviceHandler struct {
	deviceService DeviceService
}

func (h *DeviceHandler) PostDevice(ctx *fiber.Ctx) error {
	var req createDeviceRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := req.validate(); err != nil {
		return err
	}

	device, err := h.deviceService.CreateDevice(ctx.UserContext(), devices.CreateDeviceOptions{
		UID:           req.UID,
		IPAddress:     req.IPAddress,
		Port:          req.Port,
		AdminUsername: req.AdminUsername,
		AdminPassword: req.AdminPassword,
	}, currentUser(ctx).ID)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(NewDataResponse(newDeviceResponse(device)))
}

func (h *DeviceHandler) GetDevices(ctx *fiber.Ctx) error {
	var query PageQuery
	if err := parsePageQuery(ctx, &query); err != nil {
		return err
	}
	page, err := h.deviceService.ListDevices(ctx.UserContext(), query.PageNumber, query.PageSize)
	if err != nil {
		return err
	}
	return ctx.JSON(NewDataResponse(common.MapPage(page, newDeviceResponse)))
}

func (h *DeviceHandler) GetDevice(ctx *fiber.Ctx) error {
	deviceID, err := parseID(ctx, "id")
	if err != nil {
		return err
	}
	device, err := h.deviceService.GetDevice(ctx.UserContext(), deviceID)
	if err != nil {
		return err
	}
	return ctx.JSON(NewDataResponse(newDeviceResponse(device)))
}

func (h *DeviceHandler) PutDevice(ctx *fiber.Ctx) error {
	deviceID, err := parseID(ctx, "id")
	if err != nil {
		return err
	}
	var req updateDeviceRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := req.validate(); err != nil {
		return err
	}

	device, err := h.deviceService.UpdateDevice(ctx.UserContext(), deviceID, devices.DeviceUpdate{
		UID:           req.UID,
		IPAddress:     req.IPAddress,
		Port:          req.Port,
		AdminUsername: req.AdminUsername,
		AdminPassword: req.AdminPassword,
	}, currentUser(ctx).ID)
	if err != nil {
		return err
	}
	return ctx.JSON(NewDataResponse(newDeviceResponse(device)))
}

func (h *DeviceHandler) DeleteDevice(ctx *fiber.Ctx) error {
	deviceID, err := parseID(ctx, "id")
	if err != nil {
		return err
	}
	if err := h.deviceService.DeleteDevice(ctx.UserContext(), deviceID, currentUser(ctx).ID); err != nil {
		return err
	}
	return ctx.JSON(NewDataResponse(MessageResponse{
		Message: fmt.Sprintf("device %d deleted", deviceID),
	}))
}

func NewDeviceHandler(deviceService DeviceService) *DeviceHandler {
	return &DeviceHandler{
		deviceService: deviceService,
	}
}
