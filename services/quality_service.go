package services

import (
	"errors"
	"fmt"
	"time"

	"boxtrack/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QualityService owns quality issue lifecycle, team assignment and the
// two-level comment threads. Status changes append synthetic comments so the
// thread doubles as the issue's history.
type QualityService struct {
	db     *gorm.DB
	notify *NotificationService
}

func NewQualityService(db *gorm.DB, notify *NotificationService) *QualityService {
	return &QualityService{db: db, notify: notify}
}

// CreateIssue registers a new quality issue against a box, optionally linked
// to an inspection checkpoint, with any photo references stored as ordered
// image rows.
func (s *QualityService) CreateIssue(user models.CurrentUser, req models.CreateIssueRequest) (*models.QualityIssue, error) {
	issueType := req.IssueType
	if issueType == "" {
		issueType = models.IssueTypeDefect
	}
	severity := req.Severity
	if severity == "" {
		severity = models.SeverityMinor
	}
	if req.Description == "" {
		return nil, validationErr("issue description is required")
	}

	var issue models.QualityIssue
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var box models.Box
		if err := tx.First(&box, "box_id = ?", req.BoxID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundErr("box %s not found", req.BoxID)
			}
			return infraErr(err, "failed to load box")
		}

		now := time.Now().UTC()
		issue = models.QualityIssue{
			IssueID:          uuid.New(),
			BoxID:            req.BoxID,
			WIRId:            req.WIRId,
			IssueType:        issueType,
			Severity:         severity,
			Status:           models.IssueStatusOpen,
			IssueDescription: req.Description,
			ReportedBy:       user.Name,
			DueDate:          req.DueDate,
			CreatedAt:        now,
			CreatedBy:        user.ID,
		}
		if err := tx.Create(&issue).Error; err != nil {
			return infraErr(err, "failed to create quality issue")
		}

		for i, path := range req.Images {
			image := models.QualityIssueImage{
				ImageID:   uuid.New(),
				IssueID:   issue.IssueID,
				ImagePath: path,
				Sequence:  i + 1,
				CreatedAt: now,
			}
			if err := tx.Create(&image).Error; err != nil {
				return infraErr(err, "failed to attach issue image")
			}
		}

		newVals := fmt.Sprintf("Type: %s, Severity: %s, Box: %s", issueType, severity, box.BoxTag)
		desc := fmt.Sprintf("Quality issue raised on box %s.", box.BoxTag)
		return writeAudit(tx, "quality_issues", issue.IssueID, "IssueCreated", "", newVals, user, desc)
	})
	if err != nil {
		return nil, err
	}
	return &issue, nil
}

// Assign sets or clears the issue's team, member and cc assignment targets.
// Each target is validated when present; a nil target clears the previous
// value, and the assigned member must belong to the assigned team.
func (s *QualityService) Assign(user models.CurrentUser, issueID uuid.UUID, req models.AssignIssueRequest) (*models.QualityIssue, error) {
	var issue models.QualityIssue
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := loadIssue(tx, issueID, &issue); err != nil {
			return err
		}

		if req.TeamID != nil {
			var team models.Team
			if err := tx.First(&team, "team_id = ? AND is_active = ?", *req.TeamID, true).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return validationErr("team %s not found or inactive", *req.TeamID)
				}
				return infraErr(err, "failed to load team")
			}
		}
		if req.MemberID != nil {
			if req.TeamID == nil {
				return validationErr("a member assignment requires a team")
			}
			var member models.TeamMember
			err := tx.First(&member, "member_id = ? AND team_id = ? AND is_active = ?", *req.MemberID, *req.TeamID, true).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return validationErr("member %s does not belong to team %s", *req.MemberID, *req.TeamID)
				}
				return infraErr(err, "failed to load team member")
			}
		}
		if req.CcUserID != nil {
			var cc models.User
			if err := tx.First(&cc, "id = ? AND is_active = ?", *req.CcUserID, true).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return validationErr("cc user %s not found or inactive", *req.CcUserID)
				}
				return infraErr(err, "failed to load cc user")
			}
		}

		oldVals := fmt.Sprintf("Team: %s, Member: %s, Cc: %s",
			formatUUID(issue.AssignedToTeamID), formatUUID(issue.AssignedToMemberID), formatUUID(issue.CcUserID))

		issue.AssignedToTeamID = req.TeamID
		issue.AssignedToMemberID = req.MemberID
		issue.CcUserID = req.CcUserID
		issue.UpdatedBy = &user.ID
		if err := tx.Save(&issue).Error; err != nil {
			return infraErr(err, "failed to save issue assignment")
		}

		newVals := fmt.Sprintf("Team: %s, Member: %s, Cc: %s",
			formatUUID(issue.AssignedToTeamID), formatUUID(issue.AssignedToMemberID), formatUUID(issue.CcUserID))
		return writeAudit(tx, "quality_issues", issue.IssueID, "IssueAssigned", oldVals, newVals, user, "Quality issue assignment changed.")
	})
	if err != nil {
		return nil, err
	}
	return &issue, nil
}

// ChangeStatus moves the issue through its lifecycle. Resolved and Closed
// require resolution text; moving back to Open or InProgress clears the
// previous resolution. Every change appends a synthetic status-update comment
// so the thread reads as a history.
func (s *QualityService) ChangeStatus(user models.CurrentUser, issueID uuid.UUID, req models.ChangeIssueStatusRequest) (*models.QualityIssue, error) {
	switch req.Status {
	case models.IssueStatusOpen, models.IssueStatusInProgress, models.IssueStatusResolved, models.IssueStatusClosed:
	default:
		return nil, validationErr("unknown issue status %q", req.Status)
	}

	var issue models.QualityIssue
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := loadIssue(tx, issueID, &issue); err != nil {
			return err
		}
		if issue.Status == req.Status {
			return conflictErr("issue is already %s", req.Status)
		}

		now := time.Now().UTC()
		oldStatus := issue.Status
		issue.Status = req.Status
		issue.UpdatedBy = &user.ID

		commentText := fmt.Sprintf("Status changed from %s to %s.", oldStatus, req.Status)
		switch req.Status {
		case models.IssueStatusResolved, models.IssueStatusClosed:
			if req.ResolutionText == "" {
				return validationErr("%s requires resolution text", req.Status)
			}
			issue.ResolutionDescription = req.ResolutionText
			issue.ResolutionDate = &now
			commentText = fmt.Sprintf("%s Resolution: %s", commentText, req.ResolutionText)
		default:
			issue.ResolutionDescription = ""
			issue.ResolutionDate = nil
		}

		if err := tx.Save(&issue).Error; err != nil {
			return infraErr(err, "failed to save issue status")
		}

		comment := models.IssueComment{
			CommentID:      uuid.New(),
			IssueID:        issue.IssueID,
			AuthorID:       user.ID,
			AuthorName:     user.Name,
			CommentText:    commentText,
			CreatedAt:      now,
			IsStatusUpdate: true,
			RelatedStatus:  req.Status,
		}
		if err := tx.Create(&comment).Error; err != nil {
			return infraErr(err, "failed to append status comment")
		}

		oldVals := fmt.Sprintf("Status: %s", oldStatus)
		newVals := fmt.Sprintf("Status: %s", issue.Status)
		return writeAudit(tx, "quality_issues", issue.IssueID, "IssueStatusChange", oldVals, newVals, user, commentText)
	})
	if err != nil {
		return nil, err
	}
	return &issue, nil
}

// AddComment appends a comment to the issue thread. Threading is two levels
// deep: replies must target a top-level, non-deleted comment on the same
// issue.
func (s *QualityService) AddComment(user models.CurrentUser, issueID uuid.UUID, req models.AddCommentRequest) (*models.IssueComment, error) {
	if req.Text == "" {
		return nil, validationErr("comment text is required")
	}

	var comment models.IssueComment
	var parentAuthor *uuid.UUID
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var issue models.QualityIssue
		if err := loadIssue(tx, issueID, &issue); err != nil {
			return err
		}

		if req.ParentCommentID != nil {
			var parent models.IssueComment
			err := tx.First(&parent, "comment_id = ? AND issue_id = ?", *req.ParentCommentID, issueID).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return validationErr("parent comment %s not found on this issue", *req.ParentCommentID)
				}
				return infraErr(err, "failed to load parent comment")
			}
			if parent.IsDeleted {
				return validationErr("cannot reply to a deleted comment")
			}
			if parent.ParentCommentID != nil {
				return validationErr("replies cannot be nested more than one level deep")
			}
			parentAuthor = &parent.AuthorID
		}

		comment = models.IssueComment{
			CommentID:       uuid.New(),
			IssueID:         issueID,
			ParentCommentID: req.ParentCommentID,
			AuthorID:        user.ID,
			AuthorName:      user.Name,
			CommentText:     req.Text,
			CreatedAt:       time.Now().UTC(),
		}
		if err := tx.Create(&comment).Error; err != nil {
			return infraErr(err, "failed to create comment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.notify != nil && parentAuthor != nil && *parentAuthor != user.ID {
		s.notify.CommentReply(*parentAuthor, &comment)
	}
	return &comment, nil
}

// EditComment replaces a comment's text. Only the author may edit, and
// deleted or synthetic status-update comments are immutable.
func (s *QualityService) EditComment(user models.CurrentUser, commentID uuid.UUID, text string) (*models.IssueComment, error) {
	if text == "" {
		return nil, validationErr("comment text is required")
	}

	var comment models.IssueComment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := loadComment(tx, commentID, &comment); err != nil {
			return err
		}
		if comment.AuthorID != user.ID {
			return conflictErr("only the comment author can edit it")
		}
		if comment.IsStatusUpdate {
			return conflictErr("status-update comments cannot be edited")
		}

		now := time.Now().UTC()
		comment.CommentText = text
		comment.UpdatedAt = &now
		if err := tx.Save(&comment).Error; err != nil {
			return infraErr(err, "failed to save comment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// DeleteComment soft-deletes a comment, keeping the row so replies stay
// anchored in the thread. Author-only, same as edit.
func (s *QualityService) DeleteComment(user models.CurrentUser, commentID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var comment models.IssueComment
		if err := loadComment(tx, commentID, &comment); err != nil {
			return err
		}
		if comment.AuthorID != user.ID {
			return conflictErr("only the comment author can delete it")
		}
		if comment.IsStatusUpdate {
			return conflictErr("status-update comments cannot be deleted")
		}

		now := time.Now().UTC()
		comment.IsDeleted = true
		comment.DeletedDate = &now
		if err := tx.Save(&comment).Error; err != nil {
			return infraErr(err, "failed to delete comment")
		}
		return nil
	})
}

// GetIssue loads an issue with its images and full comment thread. Deleted
// comments stay in the result flagged is_deleted so clients can render
// tombstones under surviving replies.
func (s *QualityService) GetIssue(issueID uuid.UUID) (*models.QualityIssue, error) {
	var issue models.QualityIssue
	err := s.db.
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("quality_issue_images.sequence ASC") }).
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("issue_comments.created_at ASC") }).
		First(&issue, "issue_id = ?", issueID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("issue %s not found", issueID)
		}
		return nil, infraErr(err, "failed to load issue")
	}
	return &issue, nil
}

// ListByBox returns a box's issues newest first, optionally filtered by
// status.
func (s *QualityService) ListByBox(boxID uuid.UUID, status string) ([]models.QualityIssue, error) {
	q := s.db.Where("box_id = ?", boxID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var issues []models.QualityIssue
	if err := q.Order("created_at DESC").Find(&issues).Error; err != nil {
		return nil, infraErr(err, "failed to list issues")
	}
	return issues, nil
}

func loadIssue(tx *gorm.DB, issueID uuid.UUID, dst *models.QualityIssue) error {
	if err := tx.First(dst, "issue_id = ?", issueID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundErr("issue %s not found", issueID)
		}
		return infraErr(err, "failed to load issue")
	}
	return nil
}

func loadComment(tx *gorm.DB, commentID uuid.UUID, dst *models.IssueComment) error {
	err := tx.First(dst, "comment_id = ? AND is_deleted = ?", commentID, false).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundErr("comment %s not found", commentID)
		}
		return infraErr(err, "failed to load comment")
	}
	return nil
}

func formatUUID(id *uuid.UUID) string {
	if id == nil {
		return "N/A"
	}
	return id.String()
}
