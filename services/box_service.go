package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"boxtrack/models"
	"boxtrack/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BoxService creates boxes and their per-box workflow rows: one activity per
// catalog template plus one itemized checkpoint per checkpoint template. A box
// is never created bare.
type BoxService struct {
	db         *gorm.DB
	checklists *ChecklistService
}

func NewBoxService(db *gorm.DB, checklists *ChecklistService) *BoxService {
	return &BoxService{db: db, checklists: checklists}
}

// Create registers a box and stamps out its activities and inspection
// checkpoints from the catalog in one transaction. The serial number and QR
// payload are derived from the project's running sequence.
func (s *BoxService) Create(user models.CurrentUser, req models.CreateBoxRequest) (*models.Box, error) {
	tag := strings.TrimSpace(req.BoxTag)
	if tag == "" {
		return nil, validationErr("box tag is required")
	}

	var box models.Box
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Box{}).Where("box_tag = ? AND is_active = ?", tag, true).Count(&count).Error; err != nil {
			return infraErr(err, "failed to check box tag")
		}
		if count > 0 {
			return conflictErr("a box with tag %q already exists", tag)
		}

		var templates []models.ActivityTemplate
		if err := tx.Where("is_active = ?", true).Order("sequence ASC").Find(&templates).Error; err != nil {
			return infraErr(err, "failed to load activity catalog")
		}
		if len(templates) == 0 {
			return infraErr(nil, "activity catalog is empty; was the database seeded?")
		}

		var seq int64
		if err := tx.Model(&models.Box{}).Where("project_id = ?", req.ProjectID).Count(&seq).Error; err != nil {
			return infraErr(err, "failed to count project boxes")
		}
		serial := repository.GenerateSerialNumber(fmt.Sprintf("P%d", req.ProjectID), int(seq)+1)

		now := time.Now().UTC()
		box = models.Box{
			BoxID:        uuid.New(),
			ProjectID:    req.ProjectID,
			BoxTag:       tag,
			SerialNumber: serial,
			BoxName:      repository.NormalizeBoxName(req.BoxName),
			Floor:        req.Floor,
			QRCodeString: repository.GenerateQRPayload(serial, tag),
			Status:       models.StatusNotStarted,
			IsActive:     true,
			CreatedAt:    now,
			CreatedBy:    user.ID,
		}
		if err := tx.Create(&box).Error; err != nil {
			return infraErr(err, "failed to create box")
		}

		for _, tpl := range templates {
			activity := models.BoxActivity{
				BoxActivityID: uuid.New(),
				BoxID:         box.BoxID,
				TemplateID:    tpl.ID,
				Sequence:      tpl.Sequence,
				Status:        models.StatusNotStarted,
				IsActive:      true,
				CreatedAt:     now,
			}
			if err := tx.Create(&activity).Error; err != nil {
				return infraErr(err, "failed to create box activity")
			}
		}

		if err := s.checklists.GenerateForBox(tx, &box, templates); err != nil {
			return err
		}

		newVals := fmt.Sprintf("Tag: %s, Serial: %s, Activities: %d", box.BoxTag, box.SerialNumber, len(templates))
		desc := fmt.Sprintf("Box %s created with %d activities.", box.BoxTag, len(templates))
		return writeAudit(tx, "boxes", box.BoxID, "BoxCreated", "", newVals, user, desc)
	})
	if err != nil {
		return nil, err
	}
	return &box, nil
}

// Get loads a box with its activities and their catalog templates, ordered by
// workflow sequence.
func (s *BoxService) Get(boxID uuid.UUID) (*models.Box, error) {
	var box models.Box
	err := s.db.
		Preload("Activities", func(db *gorm.DB) *gorm.DB { return db.Order("box_activities.sequence ASC") }).
		Preload("Activities.Template").
		First(&box, "box_id = ? AND is_active = ?", boxID, true).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("box %s not found", boxID)
		}
		return nil, infraErr(err, "failed to load box")
	}
	return &box, nil
}

// ResolveByQR finds the box behind a scanned QR payload.
func (s *BoxService) ResolveByQR(payload string) (*models.Box, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, validationErr("QR payload is required")
	}
	var box models.Box
	err := s.db.First(&box, "qr_code_string = ? AND is_active = ?", payload, true).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("no box matches the scanned code")
		}
		return nil, infraErr(err, "failed to resolve QR code")
	}
	return &box, nil
}

// List returns active boxes, optionally filtered by project and status,
// newest first.
func (s *BoxService) List(projectID int, status string) ([]models.Box, error) {
	q := s.db.Where("is_active = ?", true)
	if projectID > 0 {
		q = q.Where("project_id = ?", projectID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var boxes []models.Box
	if err := q.Order("created_at DESC").Find(&boxes).Error; err != nil {
		return nil, infraErr(err, "failed to list boxes")
	}
	return boxes, nil
}

// Deactivate soft-deletes a box. Its history stays queryable but it drops out
// of listings and progress can no longer be recorded against it.
func (s *BoxService) Deactivate(user models.CurrentUser, boxID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var box models.Box
		if err := tx.First(&box, "box_id = ? AND is_active = ?", boxID, true).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundErr("box %s not found", boxID)
			}
			return infraErr(err, "failed to load box")
		}

		now := time.Now().UTC()
		box.IsActive = false
		box.ModifiedAt = &now
		box.ModifiedBy = &user.ID
		if err := tx.Save(&box).Error; err != nil {
			return infraErr(err, "failed to deactivate box")
		}

		res := tx.Model(&models.BoxActivity{}).
			Where("box_id = ?", boxID).
			Updates(map[string]interface{}{"is_active": false, "modified_at": now, "modified_by": user.ID})
		if res.Error != nil {
			return infraErr(res.Error, "failed to deactivate box activities")
		}

		desc := fmt.Sprintf("Box %s deactivated.", box.BoxTag)
		return writeAudit(tx, "boxes", box.BoxID, "BoxDeactivated", "IsActive: true", "IsActive: false", user, desc)
	})
}

// Templates returns the active activity catalog in workflow order.
func (s *BoxService) Templates() ([]models.ActivityTemplate, error) {
	var templates []models.ActivityTemplate
	if err := s.db.Where("is_active = ?", true).Order("sequence ASC").Find(&templates).Error; err != nil {
		return nil, infraErr(err, "failed to load activity catalog")
	}
	return templates, nil
}
