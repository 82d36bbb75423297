// Package store is the persistence gateway. It owns every database access and
// translates driver errors into the service error taxonomy, so the rest of
// the code never sees gorm internals beyond the escape hatch DB().
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"nexus-response-backend/internal/model"
)

var (
	// ErrNotFound means a referenced entity id or email does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a uniqueness or referential-integrity constraint
	// rejected the operation.
	ErrConflict = errors.New("conflict")
)

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	Device(ctx context.Context, id int64) (model.Device, error)
	Devices(ctx context.Context) ([]model.Device, error)
	AddDevice(ctx context.Context, device *model.Device) error
	UpdateDevice(ctx context.Context, device *model.Device) error

	Incident(ctx context.Context, id int64) (model.Incident, error)
	Incidents(ctx context.Context, status, urgencyLevel string) ([]model.Incident, error)
	AddIncident(ctx context.Context, incident *model.Incident) error
	AddReadingWithIncident(ctx context.Context, reading *model.IoTReading, incident *model.Incident) error

	AddComment(ctx context.Context, comment *model.Comment) error
	CommentsByIncident(ctx context.Context, incidentID int64) ([]model.Comment, error)
	ReadingsByIncident(ctx context.Context, incidentID int64) ([]model.IoTReading, error)
	LatestReading(ctx context.Context) (*model.IoTReading, error)

	User(ctx context.Context, id int64) (model.User, error)
	UserByEmail(ctx context.Context, email string) (model.User, error)
	Users(ctx context.Context) ([]model.User, error)
	AddUser(ctx context.Context, user *model.User) error
	UpdateUser(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, id int64) error

	IncidentCounts(ctx context.Context) (total, critical int64, err error)
	OnlineDeviceCount(ctx context.Context) (int64, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// translate maps gorm/driver errors onto the service error taxonomy.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	case strings.Contains(err.Error(), "UNIQUE constraint failed"):
		// The sqlite driver used in tests predates gorm error translation.
		return ErrConflict
	}
	return err
}

func (s *gormStore) Device(ctx context.Context, id int64) (model.Device, error) {
	var device model.Device
	if err := s.db.WithContext(ctx).First(&device, id).Error; err != nil {
		return model.Device{}, fmt.Errorf("get device %d: %w", id, translate(err))
	}
	return device, nil
}

func (s *gormStore) Devices(ctx context.Context) ([]model.Device, error) {
	var devices []model.Device
	if err := s.db.WithContext(ctx).Order("id").Find(&devices).Error; err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	return devices, nil
}

func (s *gormStore) AddDevice(ctx context.Context, device *model.Device) error {
	if err := s.db.WithContext(ctx).Create(device).Error; err != nil {
		return fmt.Errorf("create device: %w", translate(err))
	}
	return nil
}

func (s *gormStore) UpdateDevice(ctx context.Context, device *model.Device) error {
	if err := s.db.WithContext(ctx).Save(device).Error; err != nil {
		return fmt.Errorf("update device %d: %w", device.ID, translate(err))
	}
	return nil
}

func (s *gormStore) Incident(ctx context.Context, id int64) (model.Incident, error) {
	var incident model.Incident
	if err := s.db.WithContext(ctx).First(&incident, id).Error; err != nil {
		return model.Incident{}, fmt.Errorf("get incident %d: %w", id, translate(err))
	}
	return incident, nil
}

// Incidents lists incidents, optionally filtered by lifecycle status and
// urgency level. Filters are case-insensitive exact matches.
func (s *gormStore) Incidents(ctx context.Context, status, urgencyLevel string) ([]model.Incident, error) {
	q := s.db.WithContext(ctx).Model(&model.Incident{})
	if status != "" {
		q = q.Where("LOWER(status) = LOWER(?)", status)
	}
	if urgencyLevel != "" {
		q = q.Where("LOWER(urgency_level) = LOWER(?)", urgencyLevel)
	}

	var incidents []model.Incident
	if err := q.Order("id").Find(&incidents).Error; err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	return incidents, nil
}

func (s *gormStore) AddIncident(ctx context.Context, incident *model.Incident) error {
	if err := s.db.WithContext(ctx).Create(incident).Error; err != nil {
		return fmt.Errorf("create incident: %w", translate(err))
	}
	return nil
}

// AddReadingWithIncident persists a telemetry reading together with its
// derived incident as one atomic unit. A partially applied intake (reading
// without incident, or an unlinked reading) is never visible to readers. The
// owning device's last-communication timestamp is refreshed in the same
// transaction.
func (s *gormStore) AddReadingWithIncident(ctx context.Context, reading *model.IoTReading, incident *model.Incident) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(reading).Error; err != nil {
			return fmt.Errorf("create reading: %w", err)
		}
		if err := tx.Create(incident).Error; err != nil {
			return fmt.Errorf("create incident: %w", err)
		}
		if err := tx.Model(reading).Update("incident_id", incident.ID).Error; err != nil {
			return fmt.Errorf("link reading %d to incident %d: %w", reading.ID, incident.ID, err)
		}
		if err := tx.Model(&model.Device{}).Where("id = ?", reading.DeviceID).
			Update("last_communication", reading.Timestamp).Error; err != nil {
			return fmt.Errorf("refresh device %d last communication: %w", reading.DeviceID, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("telemetry intake: %w", translate(err))
	}
	reading.IncidentID = &incident.ID
	return nil
}

func (s *gormStore) AddComment(ctx context.Context, comment *model.Comment) error {
	if err := s.db.WithContext(ctx).Create(comment).Error; err != nil {
		return fmt.Errorf("create comment: %w", translate(err))
	}
	return nil
}

func (s *gormStore) CommentsByIncident(ctx context.Context, incidentID int64) ([]model.Comment, error) {
	var comments []model.Comment
	if err := s.db.WithContext(ctx).
		Where("incident_id = ?", incidentID).
		Order("timestamp ASC").
		Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("list comments for incident %d: %w", incidentID, err)
	}
	return comments, nil
}

func (s *gormStore) ReadingsByIncident(ctx context.Context, incidentID int64) ([]model.IoTReading, error) {
	var readings []model.IoTReading
	if err := s.db.WithContext(ctx).
		Where("incident_id = ?", incidentID).
		Order("timestamp ASC").
		Find(&readings).Error; err != nil {
		return nil, fmt.Errorf("list readings for incident %d: %w", incidentID, err)
	}
	return readings, nil
}

// LatestReading returns the most recently received reading, or nil if none
// has ever been stored.
func (s *gormStore) LatestReading(ctx context.Context) (*model.IoTReading, error) {
	var reading model.IoTReading
	err := s.db.WithContext(ctx).Order("timestamp DESC").First(&reading).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest reading: %w", err)
	}
	return &reading, nil
}

func (s *gormStore) User(ctx context.Context, id int64) (model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return model.User{}, fmt.Errorf("get user %d: %w", id, translate(err))
	}
	return user, nil
}

func (s *gormStore) UserByEmail(ctx context.Context, email string) (model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return model.User{}, fmt.Errorf("get user by email: %w", translate(err))
	}
	return user, nil
}

func (s *gormStore) Users(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := s.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *gormStore) AddUser(ctx context.Context, user *model.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", translate(err))
	}
	return nil
}

func (s *gormStore) UpdateUser(ctx context.Context, user *model.User) error {
	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return fmt.Errorf("update user %d: %w", user.ID, translate(err))
	}
	return nil
}

// DeleteUser removes a user unless incidents still reference it.
func (s *gormStore) DeleteUser(ctx context.Context, id int64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.First(&user, id).Error; err != nil {
			return err
		}

		var referenced int64
		if err := tx.Model(&model.Incident{}).Where("reported_by_id = ?", id).Count(&referenced).Error; err != nil {
			return err
		}
		if referenced > 0 {
			return fmt.Errorf("%w: user %d is referenced by %d incidents", ErrConflict, id, referenced)
		}

		return tx.Delete(&user).Error
	})
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, translate(err))
	}
	return nil
}

// IncidentCounts counts all incidents and the Critical subset for the
// dashboard.
func (s *gormStore) IncidentCounts(ctx context.Context) (total, critical int64, err error) {
	if err = s.db.WithContext(ctx).Model(&model.Incident{}).Count(&total).Error; err != nil {
		return 0, 0, fmt.Errorf("count incidents: %w", err)
	}
	if err = s.db.WithContext(ctx).Model(&model.Incident{}).
		Where("urgency_level = ?", "Critical").
		Count(&critical).Error; err != nil {
		return 0, 0, fmt.Errorf("count critical incidents: %w", err)
	}
	return total, critical, nil
}

func (s *gormStore) OnlineDeviceCount(ctx context.Context) (int64, error) {
	var online int64
	if err := s.db.WithContext(ctx).Model(&model.Device{}).
		Where("status = ?", model.DeviceOnline).
		Count(&online).Error; err != nil {
		return 0, fmt.Errorf("count online devices: %w", err)
	}
	return online, nil
}
