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

// dashboardResponse is the consolidated dashboard summary.
type dashboardResponse struct {
	TotalIncidents      int64                 `json:"totalIncidents"`
	CriticalIncidents   int64                 `json:"criticalIncidents"`
	ActiveDevices       int64                 `json:"activeDevices"`
	LastUpdate          time.Time             `json:"lastUpdate"`
	LatestTemperature   *float64              `json:"latestTemperature"`
	LatestHumidity      *float64              `json:"latestHumidity"`
	LatestDistance      *float64              `json:"latestDistance"`
	LatestAccelerometer *accelerometerPayload `json:"latestAccelerometer"`
	LatestReadingAt     *time.Time            `json:"latestReadingAt"`
}

// GetDashboard handles GET /api/stats/dashboard. It scans the full incident,
// device and reading collections on each call.
func (h *Handler) GetDashboard(c *gin.Context) {
	ctx := c.Request.Context()

	total, critical, err := h.store.IncidentCounts(ctx)
	if err != nil {
		internalError(c, err)
		return
	}

	online, err := h.store.OnlineDeviceCount(ctx)
	if err != nil {
		internalError(c, err)
		return
	}

	latest, err := h.store.LatestReading(ctx)
	if err != nil {
		internalError(c, err)
		return
	}

	resp := dashboardResponse{
		TotalIncidents:    total,
		CriticalIncidents: critical,
		ActiveDevices:     online,
		LastUpdate:        time.Now().UTC(),
	}
	if latest != nil {
		resp.LatestTemperature = latest.Temperature
		resp.LatestHumidity = latest.Humidity
		resp.LatestDistance = latest.Distance
		resp.LatestAccelerometer = &accelerometerPayload{
			X: latest.AccelerometerX,
			Y: latest.AccelerometerY,
			Z: latest.AccelerometerZ,
		}
		at := latest.Timestamp
		resp.LatestReadingAt = &at
	}

	c.JSON(http.StatusOK, resp)
}

// incidentHistoryResponse joins an incident with its ordered comments and
// associated readings.
type incidentHistoryResponse struct {
	Incident model.Incident     `json:"incident"`
	Comments []model.Comment    `json:"comments"`
	Readings []model.IoTReading `json:"readings"`
}

// GetIncidentHistory handles GET /api/stats/history/incident/:id.
func (h *Handler) GetIncidentHistory(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident id"})
		return
	}
	ctx := c.Request.Context()

	incident, err := h.store.Incident(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "incident not found"})
			return
		}
		internalError(c, err)
		return
	}

	comments, err := h.store.CommentsByIncident(ctx, id)
	if err != nil {
		internalError(c, err)
		return
	}

	readings, err := h.store.ReadingsByIncident(ctx, id)
	if err != nil {
		internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, incidentHistoryResponse{
		Incident: incident,
		Comments: comments,
		Readings: readings,
	})
}
