package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"nexus-response-backend/internal/intake"
	"nexus-response-backend/internal/model"
	"nexus-response-backend/internal/store"
)

type accelerometerPayload struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
	Z *float64 `json:"z"`
}

// telemetryData is the decoded shape of a reading payload. Any subset of
// fields may be absent.
type telemetryData struct {
	Temperature   *float64              `json:"temperature_c"`
	Humidity      *float64              `json:"humidity_percent"`
	Distance      *float64              `json:"distance_cm"`
	Accelerometer *accelerometerPayload `json:"accelerometer"`
}

type telemetryRequest struct {
	DeviceID  int64           `json:"deviceId" binding:"required"`
	Type      string          `json:"type" binding:"required"`
	Data      json.RawMessage `json:"data" binding:"required"`
	Timestamp time.Time       `json:"timestamp"`
}

// PostTelemetry handles POST /api/incidents/telemetry: persist the reading and
// its derived incident atomically and report the computed urgency.
func (h *Handler) PostTelemetry(c *gin.Context) {
	var req telemetryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	var data telemetryData
	if err := json.Unmarshal(req.Data, &data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reading payload"})
		return
	}

	in := intake.TelemetryInput{
		DeviceID:    req.DeviceID,
		Type:        req.Type,
		RawPayload:  string(req.Data), // verbatim, for replay/audit
		Timestamp:   req.Timestamp,
		Temperature: data.Temperature,
		Humidity:    data.Humidity,
		Distance:    data.Distance,
	}
	if data.Accelerometer != nil {
		in.AccelerometerX = data.Accelerometer.X
		in.AccelerometerY = data.Accelerometer.Y
		in.AccelerometerZ = data.Accelerometer.Z
	}

	incident, _, err := h.intake.Telemetry(c.Request.Context(), in)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
			return
		}
		internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "telemetry received and incident processed",
		"urgency": incident.UrgencyLevel,
	})
}

type locationPayload struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type manualIncidentRequest struct {
	Description  string          `json:"description" binding:"required"`
	Location     locationPayload `json:"location"`
	StatusReport string          `json:"statusReport" binding:"required"`
	Source       string          `json:"source" binding:"required"`
	ReportedBy   string          `json:"reportedBy" binding:"required,email"`
}

// PostManualIncident handles POST /api/incidents/manual.
func (h *Handler) PostManualIncident(c *gin.Context) {
	var req manualIncidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	source, err := model.ParseSource(req.Source)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	incident, err := h.intake.Manual(c.Request.Context(), intake.ManualInput{
		Description:   req.Description,
		Latitude:      req.Location.Lat,
		Longitude:     req.Location.Lng,
		StatusReport:  req.StatusReport,
		Source:        source,
		ReporterEmail: req.ReportedBy,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "reporting user not found"})
			return
		}
		internalError(c, err)
		return
	}

	c.JSON(http.StatusCreated, incident)
}

// GetIncidentUrgency handles GET /api/incidents/:id/urgency.
func (h *Handler) GetIncidentUrgency(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident id"})
		return
	}

	incident, err := h.store.Incident(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "incident not found"})
			return
		}
		internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"level":   incident.UrgencyLevel,
		"score":   incident.UrgencyScore,
		"factors": []string(incident.UrgencyFactors),
	})
}

// ListIncidents handles GET /api/incidents with optional case-insensitive
// status and urgency filters.
func (h *Handler) ListIncidents(c *gin.Context) {
	incidents, err := h.store.Incidents(c.Request.Context(), c.Query("status"), c.Query("urgency"))
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, incidents)
}

// GetIncident handles GET /api/incidents/:id.
func (h *Handler) GetIncident(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident id"})
		return
	}

	incident, err := h.store.Incident(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "incident not found"})
			return
		}
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, incident)
}

type createCommentRequest struct {
	Content  string `json:"content" binding:"required"`
	UserID   int64  `json:"userId" binding:"required"`
	UserName string `json:"userName"`
}

// PostComment handles POST /api/incidents/:id/comment.
func (h *Handler) PostComment(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident id"})
		return
	}

	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if _, err := h.store.Incident(c.Request.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "incident not found"})
			return
		}
		internalError(c, err)
		return
	}

	comment := model.Comment{
		IncidentID: id,
		Content:    req.Content,
		UserID:     req.UserID,
		UserName:   req.UserName,
		Timestamp:  time.Now().UTC(),
	}
	if err := h.store.AddComment(c.Request.Context(), &comment); err != nil {
		internalError(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}
