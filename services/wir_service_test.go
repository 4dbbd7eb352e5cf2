package services

import (
	"sync"
	"testing"
	"time"

	"boxtrack/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// completing a checkpoint activity is the normal way a WIR comes into being
func openWIR(t *testing.T, wf *Workflow, db *gorm.DB, user models.CurrentUser, box *models.Box, code string) models.WIRRecord {
	t.Helper()
	activity := activityByCode(t, db, box.BoxID, code)
	recordProgress(t, wf, user, activity, 100)

	records, err := wf.WIRs.ListByActivity(activity.BoxActivityID)
	require.NoError(t, err)
	require.NotEmpty(t, records)
	return records[len(records)-1]
}

func TestConcurrentCompletionsKeepOneOpenWIR(t *testing.T) {
	wf, db := newTestWorkflow(t)
	user := testUser("Anita")
	box := makeBox(t, wf, user, "BX-208")
	activity := activityByCode(t, db, box.BoxID, "ACT-08")

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = wf.Progress.RecordProgress(user, models.RecordProgressRequest{
				BoxActivityID: activity.BoxActivityID,
				BoxID:         box.BoxID,
				Percentage:    100,
			})
		}(i)
	}
	wg.Wait()

	// exactly one completion lands; the others hit the completed activity
	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.Equal(t, KindConflict, KindOf(err))
	}
	assert.Equal(t, 1, wins)

	var pending int64
	require.NoError(t, db.Model(&models.WIRRecord{}).
		Where("box_activity_id = ? AND status = ?", activity.BoxActivityID, models.WIRStatusPending).
		Count(&pending).Error)
	assert.EqualValues(t, 1, pending)
}

func TestOpenRequestIndexRejectsSecondPending(t *testing.T) {
	wf, db := newTestWorkflow(t)
	user := testUser("Anita")
	box := makeBox(t, wf, user, "BX-209")

	record := openWIR(t, wf, db, user, box, "ACT-08")

	// the write a racing transaction would attempt after both existence
	// checks passed: the partial unique index is the backstop
	dup := models.WIRRecord{
		WIRRecordID:   uuid.New(),
		BoxActivityID: record.BoxActivityID,
		WIRCode:       record.WIRCode,
		Status:        models.WIRStatusPending,
		RequestedBy:   user.ID,
		RequestedDate: time.Now().UTC(),
		CreatedAt:     time.Now().UTC(),
	}
	err := db.Create(&dup).Error
	require.Error(t, err)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestCheckpointCompletionOpensPendingWIR(t *testing.T) {
	wf, db := newTestWorkflow(t)
	user := testUser("Anita")
	box := makeBox(t, wf, user, "BX-200")

	record := openWIR(t, wf, db, user, box, "ACT-08")
	assert.Equal(t, models.WIRStatusPending, record.Status)
	assert.Equal(t, "WIR-1", record.WIRCode)
	assert.Equal(t, user.ID, record.RequestedBy)
}

func TestNonCheckpointCompletionOpensNothing(t *testing.T) {
	wf, db := newTestWorkflow(t)
	user := testUser("Anita")
	box := makeBox(t, wf, user, "BX-201")

	activity := activityByCode(t, db, box.BoxID, "ACT-01")
	recordProgress(t, wf, user, activity, 100)

	records, err := wf.WIRs.ListByActivity(activity.BoxActivityID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCreateOnNonCheckpointActivityIsValidationError(t *testing.T) {
	wf, db := newTestWorkflow(t)
	user := testUser("Anita")
	box := makeBox(t, wf, user, "BX-202")

	activity := activityByCode(t, db, box.BoxID, "ACT-02")
	_, err := wf.WIRs.Create(user, activity.BoxActivityID)
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestCreateWithOpenRequestConflicts(t *testing.T) {
	wf, db := newTestWorkflow(t)
	user := testUser("Anita")
	box := makeBox(t, wf, user, "BX-203")

	record := openWIR(t, wf, db, user, box, "ACT-08")
	_, err := wf.WIRs.Create(user, record.BoxActivityID)
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestApproveAndDoubleApprove(t *testing.T) {
	wf, db := newTestWorkflow(t)
	requester := testUser("Anita")
	inspector := testUser("Farid")
	box := makeBox(t, wf, requester, "BX-204")

	record := openWIR(t, wf, db, requester, box, "ACT-08")

	approved, err := wf.WIRs.Approve(inspector, record.WIRRecordID, "all good", "photo-1.jpg")
	require.NoError(t, err)
	assert.Equal(t, models.WIRStatusApproved, approved.Status)
	require.NotNil(t, approved.InspectedBy)
	assert.Equal(t, inspector.ID, *approved.InspectedBy)
	assert.Equal(t, "photo-1.jpg", approved.Photos)

	_, err = wf.WIRs.Approve(inspector, record.WIRRecordID, "again", "")
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestRejectRequiresReason(t *testing.T) {
	wf, _ := newTestWorkflow(t)
	_, err := wf.WIRs.Reject(testUser("Farid"), uuid.New(), "", "notes")
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestRejectCascadesReworkAndNextCycleOpensFreshWIR(t *testing.T) {
	wf, db := newTestWorkflow(t)
	requester := testUser("Anita")
	inspector := testUser("Farid")
	box := makeBox(t, wf, requester, "BX-205")

	record := openWIR(t, wf, db, requester, box, "ACT-08")

	rejected, err := wf.WIRs.Reject(inspector, record.WIRRecordID, "honeycombing on north wall", "see photos")
	require.NoError(t, err)
	assert.Equal(t, models.WIRStatusRejected, rejected.Status)
	assert.Equal(t, "honeycombing on north wall", rejected.RejectionReason)

	activity := reloadActivity(t, db, record.BoxActivityID)
	assert.Equal(t, models.StatusOnHold, activity.Status)
	assert.Equal(t, "WIR Rejected: honeycombing on north wall", activity.IssuesEncountered)

	// the rework cycle: fix and complete again opens a fresh request while the
	// rejected one stays behind as history
	recordProgress(t, wf, requester, activity, 100)

	records, err := wf.WIRs.ListByActivity(record.BoxActivityID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, models.WIRStatusRejected, records[0].Status)
	assert.Equal(t, models.WIRStatusPending, records[1].Status)
}

func TestApproveRejectedRequestRecovers(t *testing.T) {
	wf, db := newTestWorkflow(t)
	requester := testUser("Anita")
	inspector := testUser("Farid")
	box := makeBox(t, wf, requester, "BX-206")

	record := openWIR(t, wf, db, requester, box, "ACT-08")
	_, err := wf.WIRs.Reject(inspector, record.WIRRecordID, "wrong call", "")
	require.NoError(t, err)

	// the rejection was itself wrong; approving the rejected record is allowed
	approved, err := wf.WIRs.Approve(inspector, record.WIRRecordID, "re-checked, acceptable", "")
	require.NoError(t, err)
	assert.Equal(t, models.WIRStatusApproved, approved.Status)
}

func TestDoubleRejectConflicts(t *testing.T) {
	wf, db := newTestWorkflow(t)
	requester := testUser("Anita")
	inspector := testUser("Farid")
	box := makeBox(t, wf, requester, "BX-207")

	record := openWIR(t, wf, db, requester, box, "ACT-08")
	_, err := wf.WIRs.Reject(inspector, record.WIRRecordID, "bad", "")
	require.NoError(t, err)

	_, err = wf.WIRs.Reject(inspector, record.WIRRecordID, "still bad", "")
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestVerdictsNotifyRequester(t *testing.T) {
	wf, db := newTestWorkflow(t)
	requester := testUser("Anita")
	inspector := testUser("Farid")
	box := makeBox(t, wf, requester, "BX-208")

	record := openWIR(t, wf, db, requester, box, "ACT-08")
	_, err := wf.WIRs.Approve(inspector, record.WIRRecordID, "", "")
	require.NoError(t, err)

	rows, err := wf.Notifications.ListForUser(requester.ID, false)
	require.NoError(t, err)
	// one for the request, one for the verdict
	assert.Len(t, rows, 2)
}
