package services

import (
	"testing"

	"boxtrack/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBoxStampsWorkflowRows(t *testing.T) {
	wf, db := newTestWorkflow(t)
	user := testUser("Dev")

	box := makeBox(t, wf, user, "BX-500")
	assert.Equal(t, "BOX/P7/0001", box.SerialNumber)
	assert.Equal(t, "BOXTRACK|BOX/P7/0001|BX-500", box.QRCodeString)
	assert.Equal(t, "Pod Bx-500", box.BoxName)
	assert.Equal(t, models.StatusNotStarted, box.Status)

	var activityCount int64
	require.NoError(t, db.Model(&models.BoxActivity{}).Where("box_id = ?", box.BoxID).Count(&activityCount).Error)
	assert.EqualValues(t, 17, activityCount)

	// the serial sequence runs per project
	second := makeBox(t, wf, user, "BX-501")
	assert.Equal(t, "BOX/P7/0002", second.SerialNumber)
}

func TestCreateBoxValidation(t *testing.T) {
	wf, _ := newTestWorkflow(t)
	user := testUser("Dev")

	_, err := wf.Boxes.Create(user, models.CreateBoxRequest{BoxTag: "   "})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))

	makeBox(t, wf, user, "BX-502")
	_, err = wf.Boxes.Create(user, models.CreateBoxRequest{BoxTag: "BX-502", ProjectID: 7})
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestGetBoxLoadsOrderedActivities(t *testing.T) {
	wf, _ := newTestWorkflow(t)
	user := testUser("Dev")
	box := makeBox(t, wf, user, "BX-503")

	loaded, err := wf.Boxes.Get(box.BoxID)
	require.NoError(t, err)
	require.Len(t, loaded.Activities, 17)
	for i, activity := range loaded.Activities {
		assert.Equal(t, i+1, activity.Sequence)
		assert.NotEmpty(t, activity.Template.Code)
	}

	_, err = wf.Boxes.Get(uuid.New())
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestResolveByQRRoundtrip(t *testing.T) {
	wf, _ := newTestWorkflow(t)
	user := testUser("Dev")
	box := makeBox(t, wf, user, "BX-504")

	resolved, err := wf.Boxes.ResolveByQR(box.QRCodeString)
	require.NoError(t, err)
	assert.Equal(t, box.BoxID, resolved.BoxID)

	_, err = wf.Boxes.ResolveByQR("BOXTRACK|BOX/P9/9999|ghost")
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))

	_, err = wf.Boxes.ResolveByQR("  ")
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestDeactivateBoxHidesItEverywhere(t *testing.T) {
	wf, db := newTestWorkflow(t)
	user := testUser("Dev")
	box := makeBox(t, wf, user, "BX-505")
	activity := activityByCode(t, db, box.BoxID, "ACT-01")

	require.NoError(t, wf.Boxes.Deactivate(user, box.BoxID))

	_, err := wf.Boxes.Get(box.BoxID)
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))

	boxes, err := wf.Boxes.List(7, "")
	require.NoError(t, err)
	assert.Empty(t, boxes)

	// progress can no longer be recorded against its activities
	_, err = wf.Progress.RecordProgress(user, models.RecordProgressRequest{
		BoxActivityID: activity.BoxActivityID,
		BoxID:         box.BoxID,
		Percentage:    10,
	})
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))

	// deactivating twice is a not-found, not a silent success
	err = wf.Boxes.Deactivate(user, box.BoxID)
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestListBoxesFilters(t *testing.T) {
	wf, _ := newTestWorkflow(t)
	user := testUser("Dev")
	makeBox(t, wf, user, "BX-506")
	other, err := wf.Boxes.Create(user, models.CreateBoxRequest{BoxTag: "BX-507", ProjectID: 9})
	require.NoError(t, err)

	all, err := wf.Boxes.List(0, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	project9, err := wf.Boxes.List(9, "")
	require.NoError(t, err)
	require.Len(t, project9, 1)
	assert.Equal(t, other.BoxID, project9[0].BoxID)

	none, err := wf.Boxes.List(9, models.StatusCompleted)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestTemplatesReturnCatalogInOrder(t *testing.T) {
	wf, _ := newTestWorkflow(t)

	templates, err := wf.Boxes.Templates()
	require.NoError(t, err)
	require.Len(t, templates, 17)

	checkpoints := 0
	for i, tpl := range templates {
		assert.Equal(t, i+1, tpl.Sequence)
		if tpl.IsCheckpoint {
			checkpoints++
			assert.NotEmpty(t, tpl.CheckpointCode)
		}
	}
	assert.Equal(t, 6, checkpoints)
}
