package services

import "gorm.io/gorm"

// Workflow bundles the wired services. Construction order matters: the
// inspection services get the progress recorder's rework command after both
// sides exist, since rejection re-enters the activity mutation path.
type Workflow struct {
	Boxes         *BoxService
	Progress      *ProgressService
	Aggregator    *BoxAggregator
	WIRs          *WIRService
	Checklists    *ChecklistService
	Quality       *QualityService
	Notifications *NotificationService
}

// NewWorkflow wires the service graph on top of a single gorm handle. fcm may
// be nil when push notifications are not configured.
func NewWorkflow(db *gorm.DB, fcm *FCMService) *Workflow {
	notify := NewNotificationService(db, fcm)
	agg := NewBoxAggregator()
	wirs := NewWIRService(db, notify)
	progress := NewProgressService(db, agg, wirs, notify)
	checklists := NewChecklistService(db)
	quality := NewQualityService(db, notify)
	boxes := NewBoxService(db, checklists)

	wirs.rework = progress.ReopenForRework
	checklists.rework = progress.ReopenForRework

	return &Workflow{
		Boxes:         boxes,
		Progress:      progress,
		Aggregator:    agg,
		WIRs:          wirs,
		Checklists:    checklists,
		Quality:       quality,
		Notifications: notify,
	}
}
