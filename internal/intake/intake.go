// Package intake implements the two entry flows that turn raw input into a
// classified, persisted Incident: telemetry intake (device reading → reading
// + derived incident in one atomic commit) and manual intake (operator report
// → incident). Classification happens exactly once at creation; incidents are
// never re-scored on later edits.
package intake

import (
	"context"
	"fmt"
	"time"

	"nexus-response-backend/internal/model"
	"nexus-response-backend/internal/notification"
	"nexus-response-backend/internal/store"
	"nexus-response-backend/internal/urgency"
)

// Service runs the intake flows against the persistence gateway.
type Service struct {
	store  store.Store
	system model.User
	alerts *notification.WorkerPool
}

// NewService resolves the configured system reporter identity (the user that
// owns telemetry-derived incidents) and returns a ready intake service. The
// alert pool may be nil, in which case no push alerts are dispatched.
func NewService(ctx context.Context, s store.Store, systemReporterEmail string, alerts *notification.WorkerPool) (*Service, error) {
	system, err := s.UserByEmail(ctx, systemReporterEmail)
	if err != nil {
		return nil, fmt.Errorf("resolve system reporter %q: %w", systemReporterEmail, err)
	}
	return &Service{store: s, system: system, alerts: alerts}, nil
}

// TelemetryInput is a structured reading payload from a device, possibly
// partial. RawPayload carries the undecoded wire payload for replay/audit.
type TelemetryInput struct {
	DeviceID       int64
	Type           string
	RawPayload     string
	Timestamp      time.Time
	Temperature    *float64
	Humidity       *float64
	Distance       *float64
	AccelerometerX *float64
	AccelerometerY *float64
	AccelerometerZ *float64
}

// Telemetry resolves the device, classifies the reading, and persists the
// reading plus the derived incident atomically. An unknown device aborts
// before any write.
func (s *Service) Telemetry(ctx context.Context, in TelemetryInput) (*model.Incident, *model.IoTReading, error) {
	device, err := s.store.Device(ctx, in.DeviceID)
	if err != nil {
		return nil, nil, err
	}

	ts := in.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	reading := &model.IoTReading{
		DeviceID:       device.ID,
		Type:           in.Type,
		RawPayload:     in.RawPayload,
		Temperature:    in.Temperature,
		Humidity:       in.Humidity,
		Distance:       in.Distance,
		AccelerometerX: in.AccelerometerX,
		AccelerometerY: in.AccelerometerY,
		AccelerometerZ: in.AccelerometerZ,
		Timestamp:      ts,
	}

	classification := urgency.Classify(urgency.Telemetry{
		Temperature:    in.Temperature,
		Humidity:       in.Humidity,
		Distance:       in.Distance,
		AccelerometerX: in.AccelerometerX,
		AccelerometerY: in.AccelerometerY,
		AccelerometerZ: in.AccelerometerZ,
	})

	incident := &model.Incident{
		Description:    fmt.Sprintf("Incident derived from telemetry of device %q (#%d), classified %s", device.Name, device.ID, classification.Level),
		Latitude:       device.Latitude,
		Longitude:      device.Longitude,
		StatusReport:   "New telemetry received",
		Source:         model.SourceIoT,
		UrgencyLevel:   classification.Level,
		UrgencyScore:   classification.Score,
		UrgencyFactors: model.Factors(classification.Factors),
		Status:         model.IncidentOpen,
		Timestamp:      time.Now().UTC(),
		ReportedByID:   s.system.ID,
	}

	if err := s.store.AddReadingWithIncident(ctx, reading, incident); err != nil {
		return nil, nil, err
	}

	s.alertIfCritical(incident)
	return incident, reading, nil
}

// ManualInput is an operator-submitted report. The reporter is identified by
// email.
type ManualInput struct {
	Description   string
	Latitude      float64
	Longitude     float64
	StatusReport  string
	Source        model.Source
	ReporterEmail string
}

// Manual resolves the reporter, classifies the report text, and persists the
// incident. An unknown reporter aborts before any write.
func (s *Service) Manual(ctx context.Context, in ManualInput) (*model.Incident, error) {
	reporter, err := s.store.UserByEmail(ctx, in.ReporterEmail)
	if err != nil {
		return nil, err
	}

	classification := urgency.Classify(urgency.Report{
		Description: in.Description,
		Source:      string(in.Source),
	})

	incident := &model.Incident{
		Description:    in.Description,
		Latitude:       in.Latitude,
		Longitude:      in.Longitude,
		StatusReport:   in.StatusReport,
		Source:         in.Source,
		UrgencyLevel:   classification.Level,
		UrgencyScore:   classification.Score,
		UrgencyFactors: model.Factors(classification.Factors),
		Status:         model.IncidentOpen,
		Timestamp:      time.Now().UTC(),
		ReportedByID:   reporter.ID,
	}

	if err := s.store.AddIncident(ctx, incident); err != nil {
		return nil, err
	}

	s.alertIfCritical(incident)
	return incident, nil
}

func (s *Service) alertIfCritical(incident *model.Incident) {
	if s.alerts == nil || incident.UrgencyLevel != urgency.LevelCritical {
		return
	}
	s.alerts.Dispatch(incident.ID)
}
