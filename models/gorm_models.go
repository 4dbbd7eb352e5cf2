package models

import (
	"time"

	"github.com/google/uuid"
)

// GORM-compatible models with proper tags

// ActivityTemplate represents the activity_templates catalog table. Seeded at
// startup and read-only afterwards; checkpoint-flagged rows gate box
// completion behind a WIR.
type ActivityTemplate struct {
	ID             int    `gorm:"primaryKey;column:id" json:"id"`
	Code           string `gorm:"column:code;not null;uniqueIndex" json:"code"`
	Name           string `gorm:"column:name;not null" json:"name"`
	Description    string `gorm:"column:description" json:"description"`
	Stage          int    `gorm:"column:stage;not null" json:"stage"`
	StageSequence  int    `gorm:"column:stage_sequence;not null" json:"stage_sequence"`
	Sequence       int    `gorm:"column:sequence;not null" json:"sequence"`
	IsCheckpoint   bool   `gorm:"column:is_checkpoint;default:false" json:"is_checkpoint"`
	CheckpointCode string `gorm:"column:checkpoint_code" json:"checkpoint_code"`
	IsActive       bool   `gorm:"column:is_active;default:true" json:"is_active"`
}

// TableName specifies the table name for ActivityTemplate
func (ActivityTemplate) TableName() string {
	return "activity_templates"
}

// Box represents the boxes table with GORM tags
type Box struct {
	BoxID           uuid.UUID  `gorm:"primaryKey;column:box_id;type:uuid" json:"box_id"`
	ProjectID       int        `gorm:"column:project_id" json:"project_id"`
	BoxTag          string     `gorm:"column:box_tag;not null;index" json:"box_tag"`
	SerialNumber    string     `gorm:"column:serial_number" json:"serial_number"`
	BoxName         string     `gorm:"column:box_name" json:"box_name"`
	Floor           string     `gorm:"column:floor" json:"floor"`
	QRCodeString    string     `gorm:"column:qr_code_string" json:"qr_code_string"`
	QRImagePath     string     `gorm:"column:qr_image_path" json:"qr_image_path"`
	Progress        float64    `gorm:"column:progress;type:numeric(5,2);default:0" json:"progress"`
	Status          string     `gorm:"column:status;not null;default:'NotStarted'" json:"status"`
	ActualStartDate *time.Time `gorm:"column:actual_start_date" json:"actual_start_date,omitempty"`
	ActualEndDate   *time.Time `gorm:"column:actual_end_date" json:"actual_end_date,omitempty"`
	IsActive        bool       `gorm:"column:is_active;default:true" json:"is_active"`
	CreatedAt       time.Time  `gorm:"column:created_at;not null" json:"created_at"`
	CreatedBy       uuid.UUID  `gorm:"column:created_by;type:uuid" json:"created_by"`
	ModifiedAt      *time.Time `gorm:"column:modified_at" json:"modified_at,omitempty"`
	ModifiedBy      *uuid.UUID `gorm:"column:modified_by;type:uuid" json:"modified_by,omitempty"`

	Activities []BoxActivity `gorm:"foreignKey:BoxID" json:"activities,omitempty"`
}

// TableName specifies the table name for Box
func (Box) TableName() string {
	return "boxes"
}

// BoxActivity represents the box_activities table with GORM tags. One row per
// box per catalog template; mutated only through the progress recorder and the
// WIR rejection rework path.
type BoxActivity struct {
	BoxActivityID     uuid.UUID  `gorm:"primaryKey;column:box_activity_id;type:uuid" json:"box_activity_id"`
	BoxID             uuid.UUID  `gorm:"column:box_id;type:uuid;not null;index" json:"box_id"`
	TemplateID        int        `gorm:"column:template_id;not null" json:"template_id"`
	Sequence          int        `gorm:"column:sequence;not null" json:"sequence"`
	Status            string     `gorm:"column:status;not null;default:'NotStarted'" json:"status"`
	Progress          float64    `gorm:"column:progress;type:numeric(5,2);default:0" json:"progress"`
	WorkDescription   string     `gorm:"column:work_description" json:"work_description"`
	IssuesEncountered string     `gorm:"column:issues_encountered" json:"issues_encountered"`
	ActualStartDate   *time.Time `gorm:"column:actual_start_date" json:"actual_start_date,omitempty"`
	ActualEndDate     *time.Time `gorm:"column:actual_end_date" json:"actual_end_date,omitempty"`
	IsActive          bool       `gorm:"column:is_active;default:true" json:"is_active"`
	CreatedAt         time.Time  `gorm:"column:created_at;not null" json:"created_at"`
	ModifiedAt        *time.Time `gorm:"column:modified_at" json:"modified_at,omitempty"`
	ModifiedBy        *uuid.UUID `gorm:"column:modified_by;type:uuid" json:"modified_by,omitempty"`

	Template ActivityTemplate `gorm:"foreignKey:TemplateID" json:"template,omitempty"`
}

// TableName specifies the table name for BoxActivity
func (BoxActivity) TableName() string {
	return "box_activities"
}

// ProgressUpdate represents the progress_updates table with GORM tags.
// Append-only: rows are never mutated or deleted after insertion.
type ProgressUpdate struct {
	ProgressUpdateID uuid.UUID `gorm:"primaryKey;column:progress_update_id;type:uuid" json:"progress_update_id"`
	BoxActivityID    uuid.UUID `gorm:"column:box_activity_id;type:uuid;not null;index" json:"box_activity_id"`
	BoxID            uuid.UUID `gorm:"column:box_id;type:uuid;not null;index" json:"box_id"`
	Percentage       float64   `gorm:"column:percentage;type:numeric(5,2);not null" json:"percentage"`
	Status           string    `gorm:"column:status;not null" json:"status"`
	Description      string    `gorm:"column:description" json:"description"`
	Issues           string    `gorm:"column:issues" json:"issues"`
	Latitude         *float64  `gorm:"column:latitude" json:"latitude,omitempty"`
	Longitude        *float64  `gorm:"column:longitude" json:"longitude,omitempty"`
	Photos           string    `gorm:"column:photos" json:"photos"`
	Channel          string    `gorm:"column:channel" json:"channel"`
	UpdatedBy        uuid.UUID `gorm:"column:updated_by;type:uuid" json:"updated_by"`
	CreatedAt        time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

// TableName specifies the table name for ProgressUpdate
func (ProgressUpdate) TableName() string {
	return "progress_updates"
}

// WIRRecord represents the wir_records table with GORM tags. The partial
// unique index keeps at most one open (Pending) request per activity; a
// concurrent duplicate insert fails closed on the constraint.
type WIRRecord struct {
	WIRRecordID     uuid.UUID  `gorm:"primaryKey;column:wir_record_id;type:uuid" json:"wir_record_id"`
	BoxActivityID   uuid.UUID  `gorm:"column:box_activity_id;type:uuid;not null;index:idx_open_wir_per_activity,unique,where:status = 'Pending'" json:"box_activity_id"`
	WIRCode         string     `gorm:"column:wir_code;not null" json:"wir_code"`
	Status          string     `gorm:"column:status;not null;default:'Pending'" json:"status"`
	RequestedBy     uuid.UUID  `gorm:"column:requested_by;type:uuid" json:"requested_by"`
	RequestedDate   time.Time  `gorm:"column:requested_date;not null" json:"requested_date"`
	InspectedBy     *uuid.UUID `gorm:"column:inspected_by;type:uuid" json:"inspected_by,omitempty"`
	InspectionDate  *time.Time `gorm:"column:inspection_date" json:"inspection_date,omitempty"`
	InspectionNotes string     `gorm:"column:inspection_notes" json:"inspection_notes"`
	RejectionReason string     `gorm:"column:rejection_reason" json:"rejection_reason"`
	Photos          string     `gorm:"column:photos" json:"photos"`
	CreatedAt       time.Time  `gorm:"column:created_at;not null" json:"created_at"`
	ModifiedAt      *time.Time `gorm:"column:modified_at" json:"modified_at,omitempty"`
}

// TableName specifies the table name for WIRRecord
func (WIRRecord) TableName() string {
	return "wir_records"
}

// WIRCheckpoint represents the wir_checkpoints table with GORM tags. The
// richer, itemized inspection variant: checklist items grouped in sections,
// progress always derived from item statuses.
type WIRCheckpoint struct {
	WIRId          uuid.UUID  `gorm:"primaryKey;column:wir_id;type:uuid" json:"wir_id"`
	BoxID          uuid.UUID  `gorm:"column:box_id;type:uuid;not null;index" json:"box_id"`
	WIRCode        string     `gorm:"column:wir_code;not null" json:"wir_code"`
	Name           string     `gorm:"column:name" json:"name"`
	Status         string     `gorm:"column:status;not null;default:'Pending'" json:"status"`
	InspectorName  string     `gorm:"column:inspector_name" json:"inspector_name"`
	InspectorRole  string     `gorm:"column:inspector_role" json:"inspector_role"`
	RequestedDate  *time.Time `gorm:"column:requested_date" json:"requested_date,omitempty"`
	InspectionDate *time.Time `gorm:"column:inspection_date" json:"inspection_date,omitempty"`
	ApprovalDate   *time.Time `gorm:"column:approval_date" json:"approval_date,omitempty"`
	Comments       string     `gorm:"column:comments" json:"comments"`
	CreatedAt      time.Time  `gorm:"column:created_at;not null" json:"created_at"`

	Sections []ChecklistSection `gorm:"foreignKey:WIRId" json:"sections,omitempty"`
}

// TableName specifies the table name for WIRCheckpoint
func (WIRCheckpoint) TableName() string {
	return "wir_checkpoints"
}

// ChecklistSection represents the checklist_sections table with GORM tags
type ChecklistSection struct {
	SectionID uuid.UUID `gorm:"primaryKey;column:section_id;type:uuid" json:"section_id"`
	WIRId     uuid.UUID `gorm:"column:wir_id;type:uuid;not null;index" json:"wir_id"`
	Title     string    `gorm:"column:title;not null" json:"title"`
	Sequence  int       `gorm:"column:sequence;not null" json:"sequence"`

	Items []ChecklistItem `gorm:"foreignKey:SectionID" json:"items,omitempty"`
}

// TableName specifies the table name for ChecklistSection
func (ChecklistSection) TableName() string {
	return "checklist_sections"
}

// ChecklistItem represents the checklist_items table with GORM tags
type ChecklistItem struct {
	ChecklistItemID uuid.UUID `gorm:"primaryKey;column:checklist_item_id;type:uuid" json:"checklist_item_id"`
	SectionID       uuid.UUID `gorm:"column:section_id;type:uuid;not null;index" json:"section_id"`
	Description     string    `gorm:"column:description;not null" json:"description"`
	ReferenceDoc    string    `gorm:"column:reference_doc" json:"reference_doc"`
	Sequence        int       `gorm:"column:sequence;not null" json:"sequence"`
	Status          string    `gorm:"column:status;not null;default:'Pending'" json:"status"`
	Remarks         string    `gorm:"column:remarks" json:"remarks"`
}

// TableName specifies the table name for ChecklistItem
func (ChecklistItem) TableName() string {
	return "checklist_items"
}

// QualityIssue represents the quality_issues table with GORM tags
type QualityIssue struct {
	IssueID               uuid.UUID  `gorm:"primaryKey;column:issue_id;type:uuid" json:"issue_id"`
	BoxID                 uuid.UUID  `gorm:"column:box_id;type:uuid;not null;index" json:"box_id"`
	WIRId                 *uuid.UUID `gorm:"column:wir_id;type:uuid" json:"wir_id,omitempty"`
	IssueType             string     `gorm:"column:issue_type" json:"issue_type"`
	Severity              string     `gorm:"column:severity" json:"severity"`
	Status                string     `gorm:"column:status;not null;default:'Open';index" json:"status"`
	IssueDescription      string     `gorm:"column:issue_description" json:"issue_description"`
	ReportedBy            string     `gorm:"column:reported_by" json:"reported_by"`
	AssignedToTeamID      *uuid.UUID `gorm:"column:assigned_to_team_id;type:uuid" json:"assigned_to_team_id,omitempty"`
	AssignedToMemberID    *uuid.UUID `gorm:"column:assigned_to_member_id;type:uuid" json:"assigned_to_member_id,omitempty"`
	CcUserID              *uuid.UUID `gorm:"column:cc_user_id;type:uuid" json:"cc_user_id,omitempty"`
	DueDate               *time.Time `gorm:"column:due_date" json:"due_date,omitempty"`
	ResolutionDescription string     `gorm:"column:resolution_description" json:"resolution_description"`
	ResolutionDate        *time.Time `gorm:"column:resolution_date" json:"resolution_date,omitempty"`
	CreatedAt             time.Time  `gorm:"column:created_at;not null" json:"created_at"`
	CreatedBy             uuid.UUID  `gorm:"column:created_by;type:uuid" json:"created_by"`
	UpdatedBy             *uuid.UUID `gorm:"column:updated_by;type:uuid" json:"updated_by,omitempty"`

	Images   []QualityIssueImage `gorm:"foreignKey:IssueID" json:"images,omitempty"`
	Comments []IssueComment      `gorm:"foreignKey:IssueID" json:"comments,omitempty"`
}

// TableName specifies the table name for QualityIssue
func (QualityIssue) TableName() string {
	return "quality_issues"
}

// QualityIssueImage represents the quality_issue_images table with GORM tags
type QualityIssueImage struct {
	ImageID   uuid.UUID `gorm:"primaryKey;column:image_id;type:uuid" json:"image_id"`
	IssueID   uuid.UUID `gorm:"column:issue_id;type:uuid;not null;index" json:"issue_id"`
	ImagePath string    `gorm:"column:image_path;not null" json:"image_path"`
	Sequence  int       `gorm:"column:sequence;not null" json:"sequence"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

// TableName specifies the table name for QualityIssueImage
func (QualityIssueImage) TableName() string {
	return "quality_issue_images"
}

// IssueComment represents the issue_comments table with GORM tags. Two-level
// threading: a comment either has no parent or points at a top-level comment.
// Deletes are soft to preserve thread integrity.
type IssueComment struct {
	CommentID       uuid.UUID  `gorm:"primaryKey;column:comment_id;type:uuid" json:"comment_id"`
	IssueID         uuid.UUID  `gorm:"column:issue_id;type:uuid;not null;index" json:"issue_id"`
	ParentCommentID *uuid.UUID `gorm:"column:parent_comment_id;type:uuid" json:"parent_comment_id,omitempty"`
	AuthorID        uuid.UUID  `gorm:"column:author_id;type:uuid;not null" json:"author_id"`
	AuthorName      string     `gorm:"column:author_name" json:"author_name"`
	CommentText     string     `gorm:"column:comment_text;not null" json:"comment_text"`
	CreatedAt       time.Time  `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt       *time.Time `gorm:"column:updated_at" json:"updated_at,omitempty"`
	IsDeleted       bool       `gorm:"column:is_deleted;default:false" json:"is_deleted"`
	DeletedDate     *time.Time `gorm:"column:deleted_date" json:"deleted_date,omitempty"`
	IsStatusUpdate  bool       `gorm:"column:is_status_update;default:false" json:"is_status_update"`
	RelatedStatus   string     `gorm:"column:related_status" json:"related_status,omitempty"`
}

// TableName specifies the table name for IssueComment
func (IssueComment) TableName() string {
	return "issue_comments"
}

// AuditLog represents the audit_logs table with GORM tags. Written on every
// cross-entity mutation with before/after snapshots.
type AuditLog struct {
	ID          uint      `gorm:"primaryKey;column:id" json:"id"`
	EntityTable string    `gorm:"column:table_name;not null" json:"table_name"`
	RecordID    uuid.UUID `gorm:"column:record_id;type:uuid;not null" json:"record_id"`
	Action      string    `gorm:"column:action;not null" json:"action"`
	OldValues   string    `gorm:"column:old_values" json:"old_values"`
	NewValues   string    `gorm:"column:new_values" json:"new_values"`
	ChangedBy   uuid.UUID `gorm:"column:changed_by;type:uuid" json:"changed_by"`
	ChangedDate time.Time `gorm:"column:changed_date;not null" json:"changed_date"`
	Description string    `gorm:"column:description" json:"description"`
}

// TableName specifies the table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}

// User represents the users table with GORM tags
type User struct {
	ID        uuid.UUID `gorm:"primaryKey;column:id;type:uuid" json:"id"`
	Email     string    `gorm:"column:email;uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"column:password;not null" json:"-"`
	FirstName string    `gorm:"column:first_name;not null" json:"first_name"`
	LastName  string    `gorm:"column:last_name;not null" json:"last_name"`
	IsActive  bool      `gorm:"column:is_active;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// Team represents the teams table with GORM tags
type Team struct {
	TeamID   uuid.UUID `gorm:"primaryKey;column:team_id;type:uuid" json:"team_id"`
	TeamName string    `gorm:"column:team_name;not null" json:"team_name"`
	IsActive bool      `gorm:"column:is_active;default:true" json:"is_active"`
}

// TableName specifies the table name for Team
func (Team) TableName() string {
	return "teams"
}

// TeamMember represents the team_members table with GORM tags
type TeamMember struct {
	MemberID     uuid.UUID `gorm:"primaryKey;column:member_id;type:uuid" json:"member_id"`
	TeamID       uuid.UUID `gorm:"column:team_id;type:uuid;not null;index" json:"team_id"`
	EmployeeName string    `gorm:"column:employee_name;not null" json:"employee_name"`
	IsActive     bool      `gorm:"column:is_active;default:true" json:"is_active"`
}

// TableName specifies the table name for TeamMember
func (TeamMember) TableName() string {
	return "team_members"
}

// Notification represents the notifications table with GORM tags
type Notification struct {
	ID        uint      `gorm:"primaryKey;column:id" json:"id"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Title     string    `gorm:"column:title;not null" json:"title"`
	Body      string    `gorm:"column:body" json:"body"`
	IsRead    bool      `gorm:"column:is_read;default:false" json:"is_read"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

// TableName specifies the table name for Notification
func (Notification) TableName() string {
	return "notifications"
}

// DeviceToken represents the device_tokens table with GORM tags
type DeviceToken struct {
	ID        uint      `gorm:"primaryKey;column:id" json:"id"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Token     string    `gorm:"column:token;uniqueIndex;not null" json:"token"`
	Platform  string    `gorm:"column:platform" json:"platform"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

// TableName specifies the table name for DeviceToken
func (DeviceToken) TableName() string {
	return "device_tokens"
}
