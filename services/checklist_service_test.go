package services

import (
	"testing"

	"boxtrack/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoxCreationStampsCheckpoints(t *testing.T) {
	wf, _ := newTestWorkflow(t)
	user := testUser("Meera")
	box := makeBox(t, wf, user, "BX-300")

	checkpoints, err := wf.Checklists.ListByBox(box.BoxID)
	require.NoError(t, err)
	require.Len(t, checkpoints, 6)

	codes := make([]string, 0, len(checkpoints))
	for _, cp := range checkpoints {
		codes = append(codes, cp.WIRCode)
		assert.Equal(t, models.CheckpointStatusPending, cp.Status)
		require.NotEmpty(t, cp.Sections, "checkpoint %s has no checklist sections", cp.WIRCode)
		for _, section := range cp.Sections {
			assert.NotEmpty(t, section.Items)
		}
	}
	assert.Equal(t, []string{"WIR-1", "WIR-2", "WIR-3", "WIR-4", "WIR-5", "WIR-6"}, codes)
}

func TestSubmitVerdictValidation(t *testing.T) {
	wf, _ := newTestWorkflow(t)
	user := testUser("Meera")
	box := makeBox(t, wf, user, "BX-301")

	checkpoints, err := wf.Checklists.ListByBox(box.BoxID)
	require.NoError(t, err)
	cp := checkpoints[0]

	_, err = wf.Checklists.SubmitVerdict(user, cp.WIRId, models.SubmitVerdictRequest{Verdict: "Maybe"})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = wf.Checklists.SubmitVerdict(user, cp.WIRId, models.SubmitVerdictRequest{
		Verdict: models.CheckpointStatusRejected,
	})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Contains(t, err.Error(), "requires a comment")
}

func TestVerdictBlockedWhileItemsUngraded(t *testing.T) {
	wf, _ := newTestWorkflow(t)
	user := testUser("Meera")
	box := makeBox(t, wf, user, "BX-302")

	checkpoints, err := wf.Checklists.ListByBox(box.BoxID)
	require.NoError(t, err)
	cp := checkpoints[0]

	_, err = wf.Checklists.SubmitVerdict(user, cp.WIRId, models.SubmitVerdictRequest{
		Verdict: models.CheckpointStatusApproved,
	})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Contains(t, err.Error(), "still ungraded")
	// the gate names the first pending item in section/sequence order
	assert.Contains(t, err.Error(), cp.Sections[0].Title)

	// grading everything except the last item still blocks
	updates := gradeAll(&cp, models.ChecklistItemPass)
	_, err = wf.Checklists.SubmitVerdict(user, cp.WIRId, models.SubmitVerdictRequest{
		Verdict: models.CheckpointStatusApproved,
		Items:   updates[:len(updates)-1],
	})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Contains(t, err.Error(), "still ungraded")

	// the gate applies to rejections too: no verdict on ungraded items
	_, err = wf.Checklists.SubmitVerdict(user, cp.WIRId, models.SubmitVerdictRequest{
		Verdict: models.CheckpointStatusRejected,
		Comment: "unfinished review",
	})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Contains(t, err.Error(), "still ungraded")
}

func gradeAll(cp *models.WIRCheckpoint, status string) []models.ChecklistItemUpdate {
	var updates []models.ChecklistItemUpdate
	for _, section := range cp.Sections {
		for _, item := range section.Items {
			updates = append(updates, models.ChecklistItemUpdate{
				ChecklistItemID: item.ChecklistItemID,
				Status:          status,
			})
		}
	}
	return updates
}

func TestApproveFullyGradedCheckpoint(t *testing.T) {
	wf, _ := newTestWorkflow(t)
	user := testUser("Meera")
	box := makeBox(t, wf, user, "BX-303")

	checkpoints, err := wf.Checklists.ListByBox(box.BoxID)
	require.NoError(t, err)
	cp := checkpoints[0]

	approved, err := wf.Checklists.SubmitVerdict(user, cp.WIRId, models.SubmitVerdictRequest{
		Verdict:       models.CheckpointStatusApproved,
		InspectorRole: "QA Engineer",
		Items:         gradeAll(&cp, models.ChecklistItemPass),
	})
	require.NoError(t, err)
	assert.Equal(t, models.CheckpointStatusApproved, approved.Status)
	assert.Equal(t, user.Name, approved.InspectorName)
	assert.Equal(t, "QA Engineer", approved.InspectorRole)
	assert.NotNil(t, approved.InspectionDate)
	assert.NotNil(t, approved.ApprovalDate)
	assert.Equal(t, 100.0, CheckpointProgress(approved))

	// a second verdict on the reviewed checkpoint conflicts
	_, err = wf.Checklists.SubmitVerdict(user, cp.WIRId, models.SubmitVerdictRequest{
		Verdict: models.CheckpointStatusApproved,
	})
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestRejectedVerdictReopensCheckpointActivity(t *testing.T) {
	wf, db := newTestWorkflow(t)
	user := testUser("Meera")
	box := makeBox(t, wf, user, "BX-304")

	checkpoints, err := wf.Checklists.ListByBox(box.BoxID)
	require.NoError(t, err)
	var cp models.WIRCheckpoint
	for _, c := range checkpoints {
		if c.WIRCode == "WIR-1" {
			cp = c
		}
	}

	updates := gradeAll(&cp, models.ChecklistItemPass)
	updates[0].Status = models.ChecklistItemFail
	updates[0].Remarks = "gap visible at threshold"
	rejected, err := wf.Checklists.SubmitVerdict(user, cp.WIRId, models.SubmitVerdictRequest{
		Verdict: models.CheckpointStatusRejected,
		Comment: "sealant missing at door threshold",
		Items:   updates,
	})
	require.NoError(t, err)
	assert.Equal(t, models.CheckpointStatusRejected, rejected.Status)
	assert.Nil(t, rejected.ApprovalDate)

	activity := activityByCode(t, db, box.BoxID, "ACT-08")
	assert.Equal(t, models.StatusOnHold, activity.Status)
	assert.Equal(t, "WIR Rejected: sealant missing at door threshold", activity.IssuesEncountered)
}

func TestReopenKeepsItemGrades(t *testing.T) {
	wf, _ := newTestWorkflow(t)
	user := testUser("Meera")
	box := makeBox(t, wf, user, "BX-305")

	checkpoints, err := wf.Checklists.ListByBox(box.BoxID)
	require.NoError(t, err)
	cp := checkpoints[0]

	_, err = wf.Checklists.Reopen(user, cp.WIRId)
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))

	_, err = wf.Checklists.SubmitVerdict(user, cp.WIRId, models.SubmitVerdictRequest{
		Verdict: models.CheckpointStatusConditionalApproval,
		Comment: "approved pending paint touch-up",
		Items:   gradeAll(&cp, models.ChecklistItemPass),
	})
	require.NoError(t, err)

	reopened, err := wf.Checklists.Reopen(user, cp.WIRId)
	require.NoError(t, err)
	assert.Equal(t, models.CheckpointStatusPending, reopened.Status)
	assert.Nil(t, reopened.InspectionDate)
	assert.Nil(t, reopened.ApprovalDate)
	// grades survive the reopen so the next round starts from the prior state
	assert.Equal(t, 100.0, CheckpointProgress(reopened))
}

func TestSubmitVerdictRejectsForeignAndBadItems(t *testing.T) {
	wf, _ := newTestWorkflow(t)
	user := testUser("Meera")
	boxA := makeBox(t, wf, user, "BX-306")
	boxB := makeBox(t, wf, user, "BX-307")

	cpsA, err := wf.Checklists.ListByBox(boxA.BoxID)
	require.NoError(t, err)
	cpsB, err := wf.Checklists.ListByBox(boxB.BoxID)
	require.NoError(t, err)

	foreignItem := cpsB[0].Sections[0].Items[0]
	_, err = wf.Checklists.SubmitVerdict(user, cpsA[0].WIRId, models.SubmitVerdictRequest{
		Verdict: models.CheckpointStatusApproved,
		Items: []models.ChecklistItemUpdate{
			{ChecklistItemID: foreignItem.ChecklistItemID, Status: models.ChecklistItemPass},
		},
	})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))

	ownItem := cpsA[0].Sections[0].Items[0]
	_, err = wf.Checklists.SubmitVerdict(user, cpsA[0].WIRId, models.SubmitVerdictRequest{
		Verdict: models.CheckpointStatusApproved,
		Items: []models.ChecklistItemUpdate{
			{ChecklistItemID: ownItem.ChecklistItemID, Status: "Skipped"},
		},
	})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestCheckpointProgressDerivation(t *testing.T) {
	empty := &models.WIRCheckpoint{}
	assert.Equal(t, 0.0, CheckpointProgress(empty))

	cp := &models.WIRCheckpoint{
		Sections: []models.ChecklistSection{
			{Items: []models.ChecklistItem{
				{Status: models.ChecklistItemPass},
				{Status: models.ChecklistItemFail},
				{Status: models.ChecklistItemPending},
			}},
		},
	}
	assert.Equal(t, 66.67, CheckpointProgress(cp))
}
