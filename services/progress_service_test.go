package services

import (
	"testing"

	"boxtrack/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRecordProgressRejectsOutOfRangePercentage(t *testing.T) {
	wf, db := newTestWorkflow(t)
	user := testUser("Ravi")
	box := makeBox(t, wf, user, "BX-100")
	activity := activityByCode(t, db, box.BoxID, "ACT-01")

	for _, pct := range []float64{-5, 100.01, 250} {
		_, err := wf.Progress.RecordProgress(user, models.RecordProgressRequest{
			BoxActivityID: activity.BoxActivityID,
			BoxID:         box.BoxID,
			Percentage:    pct,
		})
		require.Error(t, err)
		assert.Equal(t, KindValidation, KindOf(err))
	}
}

func TestRecordProgressUnknownActivity(t *testing.T) {
	wf, _ := newTestWorkflow(t)
	user := testUser("Ravi")
	box := makeBox(t, wf, user, "BX-101")

	_, err := wf.Progress.RecordProgress(user, models.RecordProgressRequest{
		BoxActivityID: uuid.New(),
		BoxID:         box.BoxID,
		Percentage:    10,
	})
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestRecordProgressInfersStatusAndDates(t *testing.T) {
	wf, db := newTestWorkflow(t)
	user := testUser("Ravi")
	box := makeBox(t, wf, user, "BX-102")
	activity := activityByCode(t, db, box.BoxID, "ACT-01")

	recordProgress(t, wf, user, activity, 0)
	got := reloadActivity(t, db, activity.BoxActivityID)
	assert.Equal(t, models.StatusNotStarted, got.Status)
	assert.Nil(t, got.ActualStartDate)

	recordProgress(t, wf, user, activity, 40)
	got = reloadActivity(t, db, activity.BoxActivityID)
	assert.Equal(t, models.StatusInProgress, got.Status)
	require.NotNil(t, got.ActualStartDate)
	startedAt := *got.ActualStartDate

	recordProgress(t, wf, user, activity, 100)
	got = reloadActivity(t, db, activity.BoxActivityID)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Equal(t, 100.0, got.Progress)
	require.NotNil(t, got.ActualEndDate)
	// the start stamp survives later updates
	assert.Equal(t, startedAt, *got.ActualStartDate)
}

func TestRecordProgressOnCompletedActivityConflicts(t *testing.T) {
	wf, db := newTestWorkflow(t)
	user := testUser("Ravi")
	box := makeBox(t, wf, user, "BX-103")
	activity := activityByCode(t, db, box.BoxID, "ACT-01")

	recordProgress(t, wf, user, activity, 100)

	_, err := wf.Progress.RecordProgress(user, models.RecordProgressRequest{
		BoxActivityID: activity.BoxActivityID,
		BoxID:         box.BoxID,
		Percentage:    50,
	})
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestRecordProgressAppendsImmutableTrail(t *testing.T) {
	wf, db := newTestWorkflow(t)
	user := testUser("Ravi")
	box := makeBox(t, wf, user, "BX-104")
	activity := activityByCode(t, db, box.BoxID, "ACT-02")

	recordProgress(t, wf, user, activity, 25)
	recordProgress(t, wf, user, activity, 60)

	trail, err := wf.Progress.ListByBox(box.BoxID)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	// newest first
	assert.Equal(t, 60.0, trail[0].Percentage)
	assert.Equal(t, 25.0, trail[1].Percentage)
}

func TestBoxAggregateIsMeanOfActivities(t *testing.T) {
	wf, db := newTestWorkflow(t)
	user := testUser("Ravi")
	box := makeBox(t, wf, user, "BX-105")

	recordProgress(t, wf, user, activityByCode(t, db, box.BoxID, "ACT-01"), 100)
	recordProgress(t, wf, user, activityByCode(t, db, box.BoxID, "ACT-02"), 50)

	got := reloadBox(t, db, box.BoxID)
	// 150 over 17 activities
	assert.Equal(t, 8.82, got.Progress)
	assert.Equal(t, models.StatusInProgress, got.Status)
	assert.NotNil(t, got.ActualStartDate)
	assert.Nil(t, got.ActualEndDate)
}

func TestBoxCompletesWhenAllActivitiesComplete(t *testing.T) {
	wf, db := newTestWorkflow(t)
	user := testUser("Ravi")
	box := makeBox(t, wf, user, "BX-106")

	var activities []models.BoxActivity
	require.NoError(t, db.Where("box_id = ?", box.BoxID).Order("sequence ASC").Find(&activities).Error)
	require.Len(t, activities, 17)

	for _, activity := range activities {
		recordProgress(t, wf, user, activity, 100)
	}

	got := reloadBox(t, db, box.BoxID)
	assert.Equal(t, 100.0, got.Progress)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.NotNil(t, got.ActualEndDate)

	// each of the six checkpoint completions opened an inspection request
	records, err := wf.WIRs.ListByBox(box.BoxID)
	require.NoError(t, err)
	assert.Len(t, records, 6)
	for _, record := range records {
		assert.Equal(t, models.WIRStatusPending, record.Status)
	}
}

func TestRecomputeEmptyBoxReportsZero(t *testing.T) {
	wf, db := newTestWorkflow(t)
	user := testUser("Ravi")
	box := makeBox(t, wf, user, "BX-107")

	// deactivate every activity so the aggregate has nothing to average
	require.NoError(t, db.Model(&models.BoxActivity{}).
		Where("box_id = ?", box.BoxID).
		Update("is_active", false).Error)

	var progress float64
	var status string
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		progress, status, err = wf.Aggregator.Recompute(tx, box.BoxID, user)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, progress)
	assert.Equal(t, models.StatusNotStarted, status)
}
