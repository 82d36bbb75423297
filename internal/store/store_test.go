package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"nexus-response-backend/internal/model"
	"nexus-response-backend/internal/urgency"
)

func newMockStore(t *testing.T) (Store, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return NewGormStore(gormDB), mock
}

func newSQLiteStore(t *testing.T, name string) (Store, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Device{},
		&model.Incident{},
		&model.IoTReading{},
		&model.Comment{},
		&model.AlertSubscription{},
	))
	return NewGormStore(db), db
}

func newIncident(reporterID int64, status model.IncidentStatus, level urgency.Level) model.Incident {
	return model.Incident{
		Description:  "test incident",
		StatusReport: "filed",
		Source:       model.SourceManual,
		UrgencyLevel: level,
		Status:       status,
		Timestamp:    time.Now().UTC(),
		ReportedByID: reporterID,
	}
}

func TestDeviceNotFoundTranslation(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT \* FROM "devices"`).
		WithArgs(int64(42), 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.Device(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncidentCountsQueries(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "incidents"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "incidents" WHERE urgency_level`).
		WithArgs("Critical").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	total, critical, err := s.IncidentCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), total)
	assert.Equal(t, int64(2), critical)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncidentFiltersAreCaseInsensitive(t *testing.T) {
	s, db := newSQLiteStore(t, "store_filters")
	ctx := context.Background()

	reporter := model.User{Name: "r", NationalID: "n1", Email: "r@test.local", PasswordHash: "x", CreatedAt: time.Now().UTC()}
	require.NoError(t, db.Create(&reporter).Error)

	open := newIncident(reporter.ID, model.IncidentOpen, urgency.LevelMedium)
	closed := newIncident(reporter.ID, model.IncidentClosed, urgency.LevelMedium)
	critical := newIncident(reporter.ID, model.IncidentOpen, urgency.LevelCritical)
	for _, inc := range []*model.Incident{&open, &closed, &critical} {
		require.NoError(t, s.AddIncident(ctx, inc))
	}

	byStatus, err := s.Incidents(ctx, "OPEN", "")
	require.NoError(t, err)
	assert.Len(t, byStatus, 2)

	byUrgency, err := s.Incidents(ctx, "", "critical")
	require.NoError(t, err)
	require.Len(t, byUrgency, 1)
	assert.Equal(t, critical.ID, byUrgency[0].ID)

	both, err := s.Incidents(ctx, "closed", "medium")
	require.NoError(t, err)
	require.Len(t, both, 1)
	assert.Equal(t, closed.ID, both[0].ID)

	all, err := s.Incidents(ctx, "", "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestHistoryIsOrderedByTimestamp(t *testing.T) {
	s, db := newSQLiteStore(t, "store_history")
	ctx := context.Background()

	reporter := model.User{Name: "r", NationalID: "n2", Email: "h@test.local", PasswordHash: "x", CreatedAt: time.Now().UTC()}
	require.NoError(t, db.Create(&reporter).Error)
	incident := newIncident(reporter.ID, model.IncidentOpen, urgency.LevelLow)
	require.NoError(t, s.AddIncident(ctx, &incident))

	base := time.Now().UTC().Truncate(time.Second)
	later := model.Comment{IncidentID: incident.ID, Content: "second", UserID: reporter.ID, Timestamp: base.Add(time.Hour)}
	earlier := model.Comment{IncidentID: incident.ID, Content: "first", UserID: reporter.ID, Timestamp: base}
	// Inserted newest-first; reads must still come back oldest-first.
	require.NoError(t, s.AddComment(ctx, &later))
	require.NoError(t, s.AddComment(ctx, &earlier))

	comments, err := s.CommentsByIncident(ctx, incident.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Content)
	assert.Equal(t, "second", comments[1].Content)
}

func TestLatestReading(t *testing.T) {
	s, db := newSQLiteStore(t, "store_latest_reading")
	ctx := context.Background()

	reading, err := s.LatestReading(ctx)
	require.NoError(t, err)
	assert.Nil(t, reading, "no readings stored yet")

	base := time.Now().UTC().Truncate(time.Second)
	old := model.IoTReading{DeviceID: 1, Type: "environment", RawPayload: "{}", Timestamp: base.Add(-time.Hour)}
	newest := model.IoTReading{DeviceID: 1, Type: "environment", RawPayload: "{}", Timestamp: base}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Create(&newest).Error)

	reading, err = s.LatestReading(ctx)
	require.NoError(t, err)
	require.NotNil(t, reading)
	assert.Equal(t, newest.ID, reading.ID)
}

func TestAddUserDuplicateEmailConflict(t *testing.T) {
	s, _ := newSQLiteStore(t, "store_dup_user")
	ctx := context.Background()

	first := model.User{Name: "a", NationalID: "dup-1", Email: "dup@test.local", PasswordHash: "x", CreatedAt: time.Now().UTC()}
	require.NoError(t, s.AddUser(ctx, &first))

	second := model.User{Name: "b", NationalID: "dup-2", Email: "dup@test.local", PasswordHash: "x", CreatedAt: time.Now().UTC()}
	err := s.AddUser(ctx, &second)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestDeleteUser(t *testing.T) {
	s, db := newSQLiteStore(t, "store_delete_user")
	ctx := context.Background()

	reporter := model.User{Name: "r", NationalID: "n3", Email: "del@test.local", PasswordHash: "x", CreatedAt: time.Now().UTC()}
	require.NoError(t, db.Create(&reporter).Error)
	incident := newIncident(reporter.ID, model.IncidentOpen, urgency.LevelLow)
	require.NoError(t, s.AddIncident(ctx, &incident))

	err := s.DeleteUser(ctx, reporter.ID)
	assert.ErrorIs(t, err, ErrConflict, "reporter with incidents must not be deletable")

	idle := model.User{Name: "i", NationalID: "n4", Email: "idle@test.local", PasswordHash: "x", CreatedAt: time.Now().UTC()}
	require.NoError(t, db.Create(&idle).Error)
	require.NoError(t, s.DeleteUser(ctx, idle.ID))

	_, err = s.User(ctx, idle.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.DeleteUser(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddReadingWithIncidentIsAtomic(t *testing.T) {
	s, db := newSQLiteStore(t, "store_atomic_intake")
	ctx := context.Background()

	reporter := model.User{Name: "sys", NationalID: "sys", Email: "sys@test.local", PasswordHash: "x", CreatedAt: time.Now().UTC()}
	require.NoError(t, db.Create(&reporter).Error)
	device := model.Device{Name: "d", Type: "environment", Status: model.DeviceOnline, CreatedAt: time.Now().UTC()}
	require.NoError(t, db.Create(&device).Error)

	existing := newIncident(reporter.ID, model.IncidentOpen, urgency.LevelLow)
	require.NoError(t, s.AddIncident(ctx, &existing))

	reading := model.IoTReading{DeviceID: device.ID, Type: "environment", RawPayload: "{}", Timestamp: time.Now().UTC()}
	// Reusing an existing primary key makes the incident insert fail after
	// the reading was already written inside the transaction.
	colliding := newIncident(reporter.ID, model.IncidentOpen, urgency.LevelLow)
	colliding.ID = existing.ID

	err := s.AddReadingWithIncident(ctx, &reading, &colliding)
	require.Error(t, err)

	var readings int64
	db.Model(&model.IoTReading{}).Count(&readings)
	assert.Zero(t, readings, "failed intake must roll the reading back")
}

func TestAddReadingWithIncidentLinksAndRefreshesDevice(t *testing.T) {
	s, db := newSQLiteStore(t, "store_linked_intake")
	ctx := context.Background()

	reporter := model.User{Name: "sys", NationalID: "sys2", Email: "sys2@test.local", PasswordHash: "x", CreatedAt: time.Now().UTC()}
	require.NoError(t, db.Create(&reporter).Error)
	device := model.Device{Name: "d", Type: "environment", Status: model.DeviceOnline, CreatedAt: time.Now().UTC()}
	require.NoError(t, db.Create(&device).Error)

	ts := time.Now().UTC().Truncate(time.Second)
	reading := model.IoTReading{DeviceID: device.ID, Type: "environment", RawPayload: "{}", Timestamp: ts}
	incident := newIncident(reporter.ID, model.IncidentOpen, urgency.LevelLow)
	incident.Source = model.SourceIoT

	require.NoError(t, s.AddReadingWithIncident(ctx, &reading, &incident))
	require.NotNil(t, reading.IncidentID)
	assert.Equal(t, incident.ID, *reading.IncidentID)

	var storedDevice model.Device
	require.NoError(t, db.First(&storedDevice, device.ID).Error)
	assert.Equal(t, ts.Unix(), storedDevice.LastCommunication.Unix())

	linked, err := s.ReadingsByIncident(ctx, incident.ID)
	require.NoError(t, err)
	require.Len(t, linked, 1)
	assert.Equal(t, reading.ID, linked[0].ID)
}

func TestFactorsRoundTrip(t *testing.T) {
	s, _ := newSQLiteStore(t, "store_factors")
	ctx := context.Background()

	reporter := model.User{Name: "r", NationalID: "n5", Email: "f@test.local", PasswordHash: "x", CreatedAt: time.Now().UTC()}
	require.NoError(t, s.AddUser(ctx, &reporter))

	incident := newIncident(reporter.ID, model.IncidentOpen, urgency.LevelHigh)
	incident.UrgencyFactors = model.Factors{"keyword: fire", "keyword: flood"}
	require.NoError(t, s.AddIncident(ctx, &incident))

	stored, err := s.Incident(ctx, incident.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Factors{"keyword: fire", "keyword: flood"}, stored.UrgencyFactors)

	empty := newIncident(reporter.ID, model.IncidentOpen, urgency.LevelLow)
	require.NoError(t, s.AddIncident(ctx, &empty))
	stored, err = s.Incident(ctx, empty.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.UrgencyFactors)
}
