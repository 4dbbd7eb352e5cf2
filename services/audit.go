package services

import (
	"time"

	"boxtrack/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const auditDateFormat = "2006-01-02 15:04:05"

// writeAudit appends an audit_logs row inside the caller's transaction so the
// snapshot commits or rolls back together with the mutation it describes.
func writeAudit(tx *gorm.DB, table string, recordID uuid.UUID, action, oldValues, newValues string, user models.CurrentUser, description string) error {
	entry := models.AuditLog{
		EntityTable: table,
		RecordID:    recordID,
		Action:      action,
		OldValues:   oldValues,
		NewValues:   newValues,
		ChangedBy:   user.ID,
		ChangedDate: time.Now().UTC(),
		Description: description,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return infraErr(err, "failed to write audit log")
	}
	return nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "N/A"
	}
	return t.Format(auditDateFormat)
}
