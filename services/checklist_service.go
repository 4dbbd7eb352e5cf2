package services

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"boxtrack/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChecklistService manages the itemized inspection checkpoints: per-box
// checklist copies stamped from the blueprint catalog, item grading, and the
// verdict gate that refuses any verdict while an item is still ungraded.
type ChecklistService struct {
	db *gorm.DB

	// rework mirrors WIRService: a rejected checkpoint verdict reopens the
	// matching checkpoint activity through the progress recorder.
	rework func(tx *gorm.DB, boxActivityID uuid.UUID, reason string, user models.CurrentUser) error
}

func NewChecklistService(db *gorm.DB) *ChecklistService {
	return &ChecklistService{db: db}
}

// GenerateForBox stamps out one checkpoint with its checklist sections and
// items for every checkpoint-flagged template, inside the caller's
// transaction. Called once at box creation.
func (s *ChecklistService) GenerateForBox(tx *gorm.DB, box *models.Box, templates []models.ActivityTemplate) error {
	now := time.Now().UTC()
	for _, tpl := range templates {
		if !tpl.IsCheckpoint || tpl.CheckpointCode == "" {
			continue
		}
		checkpoint := models.WIRCheckpoint{
			WIRId:     uuid.New(),
			BoxID:     box.BoxID,
			WIRCode:   tpl.CheckpointCode,
			Name:      tpl.Name,
			Status:    models.CheckpointStatusPending,
			CreatedAt: now,
		}
		if err := tx.Create(&checkpoint).Error; err != nil {
			return infraErr(err, "failed to create inspection checkpoint")
		}

		for si, sectionSpec := range checklistFor(tpl.CheckpointCode) {
			section := models.ChecklistSection{
				SectionID: uuid.New(),
				WIRId:     checkpoint.WIRId,
				Title:     sectionSpec.Title,
				Sequence:  si + 1,
			}
			if err := tx.Create(&section).Error; err != nil {
				return infraErr(err, "failed to create checklist section")
			}
			for ii, itemSpec := range sectionSpec.Items {
				item := models.ChecklistItem{
					ChecklistItemID: uuid.New(),
					SectionID:       section.SectionID,
					Description:     itemSpec.Description,
					ReferenceDoc:    itemSpec.ReferenceDoc,
					Sequence:        ii + 1,
					Status:          models.ChecklistItemPending,
				}
				if err := tx.Create(&item).Error; err != nil {
					return infraErr(err, "failed to create checklist item")
				}
			}
		}
	}
	return nil
}

// SubmitVerdict grades checklist items and records the checkpoint verdict in
// one transaction. Every verdict requires every item graded; the error names
// the first ungraded item in section/sequence order. A rejected verdict
// reopens the matching checkpoint activity for rework.
func (s *ChecklistService) SubmitVerdict(user models.CurrentUser, wirID uuid.UUID, req models.SubmitVerdictRequest) (*models.WIRCheckpoint, error) {
	switch req.Verdict {
	case models.CheckpointStatusApproved, models.CheckpointStatusRejected, models.CheckpointStatusConditionalApproval:
	default:
		return nil, validationErr("verdict must be Approved, Rejected or ConditionalApproval, got %q", req.Verdict)
	}
	if req.Verdict == models.CheckpointStatusRejected && req.Comment == "" {
		return nil, validationErr("a rejection verdict requires a comment")
	}

	var checkpoint models.WIRCheckpoint
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := loadCheckpoint(tx, wirID, &checkpoint); err != nil {
			return err
		}
		if checkpoint.Status != models.CheckpointStatusPending {
			return conflictErr("checkpoint %s already has verdict %s", checkpoint.WIRCode, checkpoint.Status)
		}

		items := make(map[uuid.UUID]*models.ChecklistItem)
		for si := range checkpoint.Sections {
			for ii := range checkpoint.Sections[si].Items {
				item := &checkpoint.Sections[si].Items[ii]
				items[item.ChecklistItemID] = item
			}
		}

		for _, update := range req.Items {
			item, ok := items[update.ChecklistItemID]
			if !ok {
				return validationErr("checklist item %s does not belong to checkpoint %s", update.ChecklistItemID, checkpoint.WIRCode)
			}
			if update.Status != models.ChecklistItemPass && update.Status != models.ChecklistItemFail {
				return validationErr("checklist item status must be Pass or Fail, got %q", update.Status)
			}
			item.Status = update.Status
			item.Remarks = update.Remarks
			if err := tx.Save(item).Error; err != nil {
				return infraErr(err, "failed to save checklist item")
			}
		}

		for _, section := range checkpoint.Sections {
			for _, item := range section.Items {
				if item.Status == models.ChecklistItemPending {
					return validationErr("cannot record a verdict for checkpoint %s: item %d in section %q is still ungraded",
						checkpoint.WIRCode, item.Sequence, section.Title)
				}
			}
		}

		now := time.Now().UTC()
		oldStatus := checkpoint.Status
		checkpoint.Status = req.Verdict
		checkpoint.InspectorName = user.Name
		checkpoint.InspectorRole = req.InspectorRole
		checkpoint.InspectionDate = &now
		checkpoint.Comments = req.Comment
		if req.Verdict != models.CheckpointStatusRejected {
			checkpoint.ApprovalDate = &now
		}
		if err := tx.Save(&checkpoint).Error; err != nil {
			return infraErr(err, "failed to save checkpoint verdict")
		}

		if req.Verdict == models.CheckpointStatusRejected {
			activityID, err := s.checkpointActivity(tx, checkpoint.BoxID, checkpoint.WIRCode)
			if err != nil {
				return err
			}
			if activityID != nil {
				if err := s.rework(tx, *activityID, req.Comment, user); err != nil {
					return err
				}
			}
		}

		oldVals := fmt.Sprintf("Status: %s", oldStatus)
		newVals := fmt.Sprintf("Status: %s, Inspector: %s", checkpoint.Status, user.Name)
		desc := fmt.Sprintf("Checkpoint %s reviewed with verdict %s.", checkpoint.WIRCode, checkpoint.Status)
		return writeAudit(tx, "wir_checkpoints", checkpoint.WIRId, "CheckpointVerdict", oldVals, newVals, user, desc)
	})
	if err != nil {
		return nil, err
	}
	return &checkpoint, nil
}

// Reopen puts a reviewed checkpoint back to Pending for a fresh inspection
// round. Graded items keep their grades so the next review starts from the
// previous state.
func (s *ChecklistService) Reopen(user models.CurrentUser, wirID uuid.UUID) (*models.WIRCheckpoint, error) {
	var checkpoint models.WIRCheckpoint
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := loadCheckpoint(tx, wirID, &checkpoint); err != nil {
			return err
		}
		if checkpoint.Status == models.CheckpointStatusPending {
			return conflictErr("checkpoint %s is already pending review", checkpoint.WIRCode)
		}

		oldStatus := checkpoint.Status
		checkpoint.Status = models.CheckpointStatusPending
		checkpoint.InspectionDate = nil
		checkpoint.ApprovalDate = nil
		if err := tx.Save(&checkpoint).Error; err != nil {
			return infraErr(err, "failed to reopen checkpoint")
		}

		oldVals := fmt.Sprintf("Status: %s", oldStatus)
		newVals := fmt.Sprintf("Status: %s", checkpoint.Status)
		desc := fmt.Sprintf("Checkpoint %s reopened for re-inspection.", checkpoint.WIRCode)
		return writeAudit(tx, "wir_checkpoints", checkpoint.WIRId, "CheckpointReopen", oldVals, newVals, user, desc)
	})
	if err != nil {
		return nil, err
	}
	return &checkpoint, nil
}

// GetByID loads a checkpoint with its sections and items ordered by sequence.
func (s *ChecklistService) GetByID(wirID uuid.UUID) (*models.WIRCheckpoint, error) {
	var checkpoint models.WIRCheckpoint
	if err := loadCheckpoint(s.db, wirID, &checkpoint); err != nil {
		return nil, err
	}
	return &checkpoint, nil
}

// ListByBox returns a box's checkpoints with sections and items, ordered by
// the checkpoint activity sequence they mirror.
func (s *ChecklistService) ListByBox(boxID uuid.UUID) ([]models.WIRCheckpoint, error) {
	var checkpoints []models.WIRCheckpoint
	err := s.db.
		Preload("Sections", func(db *gorm.DB) *gorm.DB { return db.Order("checklist_sections.sequence ASC") }).
		Preload("Sections.Items", func(db *gorm.DB) *gorm.DB { return db.Order("checklist_items.sequence ASC") }).
		Where("box_id = ?", boxID).
		Order("wir_code ASC").
		Find(&checkpoints).Error
	if err != nil {
		return nil, infraErr(err, "failed to list checkpoints")
	}
	return checkpoints, nil
}

// CheckpointProgress derives the review completion ratio from item grades. It
// is never stored: graded items over total items, rounded to two decimals.
func CheckpointProgress(checkpoint *models.WIRCheckpoint) float64 {
	total := 0
	graded := 0
	for _, section := range checkpoint.Sections {
		for _, item := range section.Items {
			total++
			if item.Status != models.ChecklistItemPending {
				graded++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return round2(float64(graded) / float64(total) * 100)
}

func loadCheckpoint(db *gorm.DB, wirID uuid.UUID, dst *models.WIRCheckpoint) error {
	err := db.
		Preload("Sections", func(db *gorm.DB) *gorm.DB { return db.Order("checklist_sections.sequence ASC") }).
		Preload("Sections.Items", func(db *gorm.DB) *gorm.DB { return db.Order("checklist_items.sequence ASC") }).
		First(dst, "wir_id = ?", wirID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundErr("checkpoint %s not found", wirID)
		}
		return infraErr(err, "failed to load checkpoint")
	}
	sort.Slice(dst.Sections, func(i, j int) bool { return dst.Sections[i].Sequence < dst.Sections[j].Sequence })
	return nil
}

// checkpointActivity finds the box activity whose template carries the
// checkpoint's WIR code, if any. Boxes created before a catalog change may
// legitimately have no matching activity.
func (s *ChecklistService) checkpointActivity(tx *gorm.DB, boxID uuid.UUID, wirCode string) (*uuid.UUID, error) {
	var activity models.BoxActivity
	err := tx.
		Joins("JOIN activity_templates ON activity_templates.id = box_activities.template_id").
		Where("box_activities.box_id = ? AND activity_templates.checkpoint_code = ?", boxID, wirCode).
		First(&activity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, infraErr(err, "failed to resolve checkpoint activity")
	}
	return &activity.BoxActivityID, nil
}
