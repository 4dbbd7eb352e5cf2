package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"boxtrack/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProgressService validates and persists field-reported progress updates and
// owns the single mutation path for box activities. The WIR rejection cascade
// re-enters through ReopenForRework so both writers share the same rules.
type ProgressService struct {
	db     *gorm.DB
	agg    *BoxAggregator
	wir    *WIRService
	notify *NotificationService
}

func NewProgressService(db *gorm.DB, agg *BoxAggregator, wir *WIRService, notify *NotificationService) *ProgressService {
	return &ProgressService{db: db, agg: agg, wir: wir, notify: notify}
}

// RecordProgress appends an immutable progress event and mutates the activity
// aggregate in one transaction. Completing a checkpoint-flagged activity
// opens a WIR unless one is already open or approved; the box aggregate is
// recomputed unconditionally before commit.
func (s *ProgressService) RecordProgress(user models.CurrentUser, req models.RecordProgressRequest) (*models.ProgressUpdate, error) {
	if req.Percentage < 0 || req.Percentage > 100 {
		return nil, validationErr("percentage must be between 0 and 100, got %.2f", req.Percentage)
	}

	var (
		event      models.ProgressUpdate
		wirCreated *models.WIRRecord
	)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var activity models.BoxActivity
		err := tx.Preload("Template").
			Where("box_activity_id = ? AND box_id = ? AND is_active = ?", req.BoxActivityID, req.BoxID, true).
			First(&activity).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundErr("activity %s not found for box %s", req.BoxActivityID, req.BoxID)
			}
			return infraErr(err, "failed to load activity")
		}

		if activity.Status == models.StatusCompleted {
			return conflictErr("activity %s is already completed; it can only be reopened through an inspection rejection", activity.BoxActivityID)
		}

		oldStatus := activity.Status
		oldProgress := activity.Progress
		oldStart := activity.ActualStartDate
		oldEnd := activity.ActualEndDate

		newStatus := inferStatus(req.Percentage, activity.Status)
		newProgress := round2(req.Percentage)
		now := time.Now().UTC()

		activity.Progress = newProgress
		activity.Status = newStatus
		activity.WorkDescription = req.Description
		activity.IssuesEncountered = req.Issues
		activity.ModifiedAt = &now
		activity.ModifiedBy = &user.ID

		if (newStatus == models.StatusInProgress || newStatus == models.StatusCompleted) && activity.ActualStartDate == nil {
			activity.ActualStartDate = &now
		}
		if newStatus == models.StatusCompleted && oldStatus != models.StatusCompleted {
			// actual end is stamped exactly once, on the first completion
			if activity.ActualEndDate == nil {
				activity.ActualEndDate = &now
			}
			activity.Progress = 100
			newProgress = 100
		}

		channel := strings.TrimSpace(req.Channel)
		if channel == "" {
			channel = "Web"
		}
		if len(channel) > 50 {
			channel = channel[:50]
		}

		event = models.ProgressUpdate{
			ProgressUpdateID: uuid.New(),
			BoxActivityID:    activity.BoxActivityID,
			BoxID:            activity.BoxID,
			Percentage:       newProgress,
			Status:           newStatus,
			Description:      req.Description,
			Issues:           req.Issues,
			Latitude:         req.Latitude,
			Longitude:        req.Longitude,
			Photos:           strings.Join(req.Photos, ","),
			Channel:          channel,
			UpdatedBy:        user.ID,
			CreatedAt:        now,
		}
		if err := tx.Create(&event).Error; err != nil {
			return infraErr(err, "failed to append progress event")
		}

		if err := tx.Save(&activity).Error; err != nil {
			return infraErr(err, "failed to save activity")
		}

		oldVals := fmt.Sprintf("Progress: %.2f%%, Status: %s, Start: %s, End: %s",
			oldProgress, oldStatus, formatDate(oldStart), formatDate(oldEnd))
		newVals := fmt.Sprintf("Progress: %.2f%%, Status: %s, Start: %s, End: %s",
			activity.Progress, activity.Status, formatDate(activity.ActualStartDate), formatDate(activity.ActualEndDate))
		desc := fmt.Sprintf("Progress updated to %.2f%%. Status inferred to %s.", activity.Progress, activity.Status)
		if err := writeAudit(tx, "box_activities", activity.BoxActivityID, "ProgressUpdate", oldVals, newVals, user, desc); err != nil {
			return err
		}

		if newStatus == models.StatusCompleted && activity.Template.IsCheckpoint {
			record, err := s.wir.openForActivity(tx, &activity, user)
			if err != nil {
				return err
			}
			wirCreated = record
		}

		if _, _, err := s.agg.Recompute(tx, activity.BoxID, user); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if wirCreated != nil && s.notify != nil {
		s.notify.WIRRequested(wirCreated)
	}
	return &event, nil
}

// ReopenForRework is the cross-aggregate command issued by the inspection
// lifecycle when a verdict is rejected: the activity drops out of Completed
// into OnHold with the rejection reason recorded, and the box aggregate is
// recomputed through the same path every other mutation uses.
func (s *ProgressService) ReopenForRework(tx *gorm.DB, boxActivityID uuid.UUID, reason string, user models.CurrentUser) error {
	var activity models.BoxActivity
	if err := tx.First(&activity, "box_activity_id = ?", boxActivityID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundErr("activity %s not found", boxActivityID)
		}
		return infraErr(err, "failed to load activity for rework")
	}

	oldStatus := activity.Status
	now := time.Now().UTC()
	activity.Status = models.StatusOnHold
	activity.IssuesEncountered = "WIR Rejected: " + reason
	activity.ModifiedAt = &now
	activity.ModifiedBy = &user.ID

	if err := tx.Save(&activity).Error; err != nil {
		return infraErr(err, "failed to reopen activity for rework")
	}

	oldVals := fmt.Sprintf("Status: %s", oldStatus)
	newVals := fmt.Sprintf("Status: %s, Issues: %s", activity.Status, activity.IssuesEncountered)
	desc := "Activity reopened for rework after inspection rejection."
	if err := writeAudit(tx, "box_activities", activity.BoxActivityID, "ReworkReopen", oldVals, newVals, user, desc); err != nil {
		return err
	}

	_, _, err := s.agg.Recompute(tx, activity.BoxID, user)
	return err
}

// ListByBox returns the append-only progress trail for a box, newest first.
func (s *ProgressService) ListByBox(boxID uuid.UUID) ([]models.ProgressUpdate, error) {
	var updates []models.ProgressUpdate
	err := s.db.Where("box_id = ?", boxID).Order("created_at DESC").Find(&updates).Error
	if err != nil {
		return nil, infraErr(err, "failed to list progress updates")
	}
	return updates, nil
}

func inferStatus(percentage float64, current string) string {
	switch {
	case percentage >= 100:
		return models.StatusCompleted
	case percentage > 0:
		return models.StatusInProgress
	case current == models.StatusOnHold:
		// a zero-percent update on a held activity keeps it held
		return models.StatusOnHold
	default:
		return models.StatusNotStarted
	}
}
