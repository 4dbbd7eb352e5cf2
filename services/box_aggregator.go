package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"boxtrack/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BoxAggregator recomputes a box's derived progress and status from its live
// activities. The aggregate is never trusted as stored truth: every activity
// mutation calls Recompute synchronously inside the same transaction.
type BoxAggregator struct{}

func NewBoxAggregator() *BoxAggregator {
	return &BoxAggregator{}
}

// Recompute derives the box percentage (unweighted mean of active activities)
// and status, persisting them only when they changed. A box with no active
// activities reports 0 and keeps its current status.
func (a *BoxAggregator) Recompute(tx *gorm.DB, boxID uuid.UUID, user models.CurrentUser) (float64, string, error) {
	var box models.Box
	if err := tx.First(&box, "box_id = ?", boxID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, "", notFoundErr("box %s not found", boxID)
		}
		return 0, "", infraErr(err, "failed to load box")
	}

	var activities []models.BoxActivity
	if err := tx.Where("box_id = ? AND is_active = ?", boxID, true).Find(&activities).Error; err != nil {
		return 0, "", infraErr(err, "failed to load box activities")
	}
	if len(activities) == 0 {
		return 0, box.Status, nil
	}

	var sum float64
	allCompleted := true
	for _, act := range activities {
		sum += act.Progress
		if act.Status != models.StatusCompleted {
			allCompleted = false
		}
	}
	average := round2(sum / float64(len(activities)))

	oldProgress := box.Progress
	oldStatus := box.Status
	oldStart := box.ActualStartDate
	oldEnd := box.ActualEndDate

	progressChanged := oldProgress != average
	statusChanged := false

	box.Progress = average
	now := time.Now().UTC()

	if allCompleted && oldStatus != models.StatusCompleted {
		box.Status = models.StatusCompleted
		if box.ActualEndDate == nil {
			box.ActualEndDate = &now
		}
		statusChanged = true
	} else if !allCompleted && average > 0 && oldStatus != models.StatusInProgress {
		box.Status = models.StatusInProgress
		if box.ActualStartDate == nil {
			box.ActualStartDate = &now
		}
		statusChanged = true
	} else if !allCompleted && average == 0 && oldStatus == models.StatusCompleted {
		// An activity was reopened for rework after the box had completed.
		box.Status = models.StatusInProgress
		box.ActualEndDate = nil
		statusChanged = true
	}

	if progressChanged || statusChanged {
		box.ModifiedAt = &now
		box.ModifiedBy = &user.ID
		if err := tx.Save(&box).Error; err != nil {
			return 0, "", infraErr(err, "failed to save box aggregate")
		}

		action := "ProgressAutoUpdate"
		if statusChanged {
			action = "StatusAutoChange"
		}
		oldVals := fmt.Sprintf("Progress: %.2f%%, Status: %s, Start: %s, End: %s",
			oldProgress, oldStatus, formatDate(oldStart), formatDate(oldEnd))
		newVals := fmt.Sprintf("Progress: %.2f%%, Status: %s, Start: %s, End: %s",
			box.Progress, box.Status, formatDate(box.ActualStartDate), formatDate(box.ActualEndDate))
		desc := fmt.Sprintf("Box progress recomputed from %.2f%% to %.2f%%.", oldProgress, box.Progress)
		if err := writeAudit(tx, "boxes", box.BoxID, action, oldVals, newVals, user, desc); err != nil {
			return 0, "", err
		}
	}

	return box.Progress, box.Status, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
