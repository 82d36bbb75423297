package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"nexus-response-backend/internal/model"
	"nexus-response-backend/internal/store"
)

// deviceStatusResponse is the per-device row for GET /api/devices/status.
type deviceStatusResponse struct {
	ID                int64              `json:"id"`
	Name              string             `json:"name"`
	Type              string             `json:"type"`
	Status            model.DeviceStatus `json:"status"`
	LastCommunication time.Time          `json:"lastCommunication"`
}

// ListDeviceStatus handles GET /api/devices/status.
func (h *Handler) ListDeviceStatus(c *gin.Context) {
	devices, err := h.store.Devices(c.Request.Context())
	if err != nil {
		internalError(c, err)
		return
	}

	resp := make([]deviceStatusResponse, 0, len(devices))
	for _, d := range devices {
		resp = append(resp, deviceStatusResponse{
			ID:                d.ID,
			Name:              d.Name,
			Type:              d.Type,
			Status:            d.Status,
			LastCommunication: d.LastCommunication,
		})
	}
	c.JSON(http.StatusOK, resp)
}

type createDeviceRequest struct {
	Name      string  `json:"name" binding:"required"`
	Type      string  `json:"type" binding:"required"`
	Location  string  `json:"location"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// RegisterDevice handles POST /api/devices. New devices start Online.
func (h *Handler) RegisterDevice(c *gin.Context) {
	var req createDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	now := time.Now().UTC()
	device := model.Device{
		Name:              req.Name,
		Type:              req.Type,
		Location:          req.Location,
		Latitude:          req.Latitude,
		Longitude:         req.Longitude,
		Status:            model.DeviceOnline,
		LastCommunication: now,
		CreatedAt:         now,
	}
	if err := h.store.AddDevice(c.Request.Context(), &device); err != nil {
		internalError(c, err)
		return
	}

	c.JSON(http.StatusCreated, device)
}

type updateDeviceStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateDeviceStatus handles PUT /api/devices/:id/status.
func (h *Handler) UpdateDeviceStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid device id"})
		return
	}

	var req updateDeviceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	status, err := model.ParseDeviceStatus(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	device, err := h.store.Device(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
			return
		}
		internalError(c, err)
		return
	}

	device.Status = status
	device.LastCommunication = time.Now().UTC()
	if err := h.store.UpdateDevice(c.Request.Context(), &device); err != nil {
		internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "device status updated"})
}
