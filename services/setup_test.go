package services

import (
	"testing"

	"boxtrack/models"
	"boxtrack/storage"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an in-memory database with the full schema and the seeded
// activity catalog.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// a single pooled connection keeps every goroutine on the same in-memory
	// database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, storage.AutoMigrate(db))
	require.NoError(t, storage.SeedActivityTemplates(db))
	return db
}

func newTestWorkflow(t *testing.T) (*Workflow, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return NewWorkflow(db, nil), db
}

func testUser(name string) models.CurrentUser {
	return models.CurrentUser{ID: uuid.New(), Name: name}
}

func makeBox(t *testing.T, wf *Workflow, user models.CurrentUser, tag string) *models.Box {
	t.Helper()
	box, err := wf.Boxes.Create(user, models.CreateBoxRequest{
		BoxTag:    tag,
		BoxName:   "pod " + tag,
		ProjectID: 7,
		Floor:     "L3",
	})
	require.NoError(t, err)
	return box
}

// activityByCode resolves a box activity by its catalog template code.
func activityByCode(t *testing.T, db *gorm.DB, boxID uuid.UUID, code string) models.BoxActivity {
	t.Helper()
	var activity models.BoxActivity
	err := db.Preload("Template").
		Joins("JOIN activity_templates ON activity_templates.id = box_activities.template_id").
		Where("box_activities.box_id = ? AND activity_templates.code = ?", boxID, code).
		First(&activity).Error
	require.NoError(t, err)
	return activity
}

func recordProgress(t *testing.T, wf *Workflow, user models.CurrentUser, activity models.BoxActivity, pct float64) *models.ProgressUpdate {
	t.Helper()
	event, err := wf.Progress.RecordProgress(user, models.RecordProgressRequest{
		BoxActivityID: activity.BoxActivityID,
		BoxID:         activity.BoxID,
		Percentage:    pct,
		Description:   "test update",
	})
	require.NoError(t, err)
	return event
}

func reloadBox(t *testing.T, db *gorm.DB, boxID uuid.UUID) models.Box {
	t.Helper()
	var box models.Box
	require.NoError(t, db.First(&box, "box_id = ?", boxID).Error)
	return box
}

func reloadActivity(t *testing.T, db *gorm.DB, id uuid.UUID) models.BoxActivity {
	t.Helper()
	var activity models.BoxActivity
	require.NoError(t, db.First(&activity, "box_activity_id = ?", id).Error)
	return activity
}
