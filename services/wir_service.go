package services

import (
	"errors"
	"fmt"
	"time"

	"boxtrack/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WIRService drives the work inspection request state machine:
// Pending -> Approved | Rejected. Terminal transitions use a check-and-set
// write so racing verdicts surface as Conflict instead of overwriting, and
// rejection cascades a rework command back through the progress recorder's
// mutation path.
type WIRService struct {
	db     *gorm.DB
	notify *NotificationService

	// rework is the reopen-activity command owned by ProgressService,
	// assigned at wiring time to avoid the two services owning each other.
	rework func(tx *gorm.DB, boxActivityID uuid.UUID, reason string, user models.CurrentUser) error
}

func NewWIRService(db *gorm.DB, notify *NotificationService) *WIRService {
	return &WIRService{db: db, notify: notify}
}

// openForActivity creates a Pending request for a completed checkpoint
// activity unless one is already open or the checkpoint was already approved.
// A rejected request never blocks: each completion cycle opens a fresh record
// and the rejected one stays behind as history. The partial unique index on
// open requests makes the concurrent double-create fail closed, which is
// swallowed here as a benign no-op.
func (s *WIRService) openForActivity(tx *gorm.DB, activity *models.BoxActivity, user models.CurrentUser) (*models.WIRRecord, error) {
	var existing models.WIRRecord
	err := tx.Where("box_activity_id = ? AND status IN ?", activity.BoxActivityID,
		[]string{models.WIRStatusPending, models.WIRStatusApproved}).
		First(&existing).Error
	if err == nil {
		return nil, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, infraErr(err, "failed to check for existing inspection request")
	}

	code := activity.Template.CheckpointCode
	if code == "" {
		code = "WIR"
	}
	record := models.WIRRecord{
		WIRRecordID:   uuid.New(),
		BoxActivityID: activity.BoxActivityID,
		WIRCode:       code,
		Status:        models.WIRStatusPending,
		RequestedBy:   user.ID,
		RequestedDate: time.Now().UTC(),
		CreatedAt:     time.Now().UTC(),
	}
	if err := tx.Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost the race against a concurrent progress update; the
			// other request is the open one
			return nil, nil
		}
		return nil, infraErr(err, "failed to create inspection request")
	}
	return &record, nil
}

// Create opens an inspection request for a checkpoint activity outside the
// progress-update flow (e.g. a supervisor raising the gate manually).
func (s *WIRService) Create(user models.CurrentUser, boxActivityID uuid.UUID) (*models.WIRRecord, error) {
	var record *models.WIRRecord
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var activity models.BoxActivity
		err := tx.Preload("Template").First(&activity, "box_activity_id = ?", boxActivityID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundErr("activity %s not found", boxActivityID)
			}
			return infraErr(err, "failed to load activity")
		}
		if !activity.Template.IsCheckpoint {
			return validationErr("activity %s is not an inspection checkpoint", boxActivityID)
		}

		created, err := s.openForActivity(tx, &activity, user)
		if err != nil {
			return err
		}
		if created == nil {
			return conflictErr("an open or approved inspection request already exists for activity %s", boxActivityID)
		}
		record = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.notify != nil {
		s.notify.WIRRequested(record)
	}
	return record, nil
}

// Approve records an approval verdict. Approving an already-approved request
// is a Conflict; approving a rejected one is allowed and models recovery from
// an earlier bad verdict. The photo reference is appended to the accumulated
// comma-joined list, never overwritten.
func (s *WIRService) Approve(user models.CurrentUser, requestID uuid.UUID, notes, photo string) (*models.WIRRecord, error) {
	var record models.WIRRecord
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&record, "wir_record_id = ?", requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundErr("inspection request %s not found", requestID)
			}
			return infraErr(err, "failed to load inspection request")
		}
		if record.Status == models.WIRStatusApproved {
			return conflictErr("inspection request %s is already approved", requestID)
		}

		now := time.Now().UTC()
		photos := record.Photos
		if photo != "" {
			if photos == "" {
				photos = photo
			} else {
				photos = photos + "," + photo
			}
		}

		res := tx.Model(&models.WIRRecord{}).
			Where("wir_record_id = ? AND status <> ?", requestID, models.WIRStatusApproved).
			Updates(map[string]interface{}{
				"status":           models.WIRStatusApproved,
				"inspected_by":     user.ID,
				"inspection_date":  now,
				"inspection_notes": notes,
				"photos":           photos,
				"modified_at":      now,
			})
		if res.Error != nil {
			return infraErr(res.Error, "failed to approve inspection request")
		}
		if res.RowsAffected == 0 {
			return conflictErr("inspection request %s was approved concurrently", requestID)
		}

		oldVals := fmt.Sprintf("Status: %s", record.Status)
		newVals := fmt.Sprintf("Status: %s, Inspector: %s", models.WIRStatusApproved, user.Name)
		if err := writeAudit(tx, "wir_records", record.WIRRecordID, "WIRApproved", oldVals, newVals, user,
			fmt.Sprintf("WIR %s approved.", record.WIRCode)); err != nil {
			return err
		}

		record.Status = models.WIRStatusApproved
		record.InspectedBy = &user.ID
		record.InspectionDate = &now
		record.InspectionNotes = notes
		record.Photos = photos
		record.ModifiedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.notify != nil {
		s.notify.WIRVerdict(&record, "")
	}
	return &record, nil
}

// Reject records a rejection verdict and cascades the rework command: the
// originating activity is pushed to OnHold with the rejection reason stamped
// into its issue notes, so the next completion cycle opens a fresh request.
func (s *WIRService) Reject(user models.CurrentUser, requestID uuid.UUID, reason, notes string) (*models.WIRRecord, error) {
	if reason == "" {
		return nil, validationErr("rejection reason is required")
	}

	var record models.WIRRecord
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&record, "wir_record_id = ?", requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundErr("inspection request %s not found", requestID)
			}
			return infraErr(err, "failed to load inspection request")
		}
		if record.Status == models.WIRStatusRejected {
			return conflictErr("inspection request %s is already rejected", requestID)
		}

		now := time.Now().UTC()
		res := tx.Model(&models.WIRRecord{}).
			Where("wir_record_id = ? AND status <> ?", requestID, models.WIRStatusRejected).
			Updates(map[string]interface{}{
				"status":           models.WIRStatusRejected,
				"inspected_by":     user.ID,
				"inspection_date":  now,
				"inspection_notes": notes,
				"rejection_reason": reason,
				"modified_at":      now,
			})
		if res.Error != nil {
			return infraErr(res.Error, "failed to reject inspection request")
		}
		if res.RowsAffected == 0 {
			return conflictErr("inspection request %s was rejected concurrently", requestID)
		}

		if err := s.rework(tx, record.BoxActivityID, reason, user); err != nil {
			return err
		}

		oldVals := fmt.Sprintf("Status: %s", record.Status)
		newVals := fmt.Sprintf("Status: %s, Reason: %s", models.WIRStatusRejected, reason)
		if err := writeAudit(tx, "wir_records", record.WIRRecordID, "WIRRejected", oldVals, newVals, user,
			fmt.Sprintf("WIR %s rejected; activity reopened for rework.", record.WIRCode)); err != nil {
			return err
		}

		record.Status = models.WIRStatusRejected
		record.InspectedBy = &user.ID
		record.InspectionDate = &now
		record.InspectionNotes = notes
		record.RejectionReason = reason
		record.ModifiedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.notify != nil {
		s.notify.WIRVerdict(&record, reason)
	}
	return &record, nil
}

// ListByActivity returns every inspection request raised against an activity,
// including terminal history, oldest first.
func (s *WIRService) ListByActivity(boxActivityID uuid.UUID) ([]models.WIRRecord, error) {
	var records []models.WIRRecord
	err := s.db.Where("box_activity_id = ?", boxActivityID).Order("requested_date ASC").Find(&records).Error
	if err != nil {
		return nil, infraErr(err, "failed to list inspection requests")
	}
	return records, nil
}

// ListByBox returns inspection requests for all activities of a box.
func (s *WIRService) ListByBox(boxID uuid.UUID) ([]models.WIRRecord, error) {
	var records []models.WIRRecord
	err := s.db.
		Joins("JOIN box_activities ON box_activities.box_activity_id = wir_records.box_activity_id").
		Where("box_activities.box_id = ?", boxID).
		Order("wir_records.requested_date ASC").
		Find(&records).Error
	if err != nil {
		return nil, infraErr(err, "failed to list inspection requests for box")
	}
	return records, nil
}
