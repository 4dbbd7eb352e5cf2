package models

import (
	"time"

	"github.com/google/uuid"
)

// Box / activity lifecycle statuses. Stored as plain strings.
const (
	StatusNotStarted = "NotStarted"
	StatusInProgress = "InProgress"
	StatusCompleted  = "Completed"
	StatusOnHold     = "OnHold"
	StatusDelayed    = "Delayed"
	StatusDispatched = "Dispatched"
)

// WIR record statuses. Pending is the only non-terminal state.
const (
	WIRStatusPending  = "Pending"
	WIRStatusApproved = "Approved"
	WIRStatusRejected = "Rejected"
)

// WIR checkpoint verdicts. ConditionalApproval counts as terminal.
const (
	CheckpointStatusPending             = "Pending"
	CheckpointStatusApproved            = "Approved"
	CheckpointStatusRejected            = "Rejected"
	CheckpointStatusConditionalApproval = "ConditionalApproval"
)

// Checklist item grades.
const (
	ChecklistItemPending = "Pending"
	ChecklistItemPass    = "Pass"
	ChecklistItemFail    = "Fail"
)

// Quality issue statuses.
const (
	IssueStatusOpen       = "Open"
	IssueStatusInProgress = "InProgress"
	IssueStatusResolved   = "Resolved"
	IssueStatusClosed     = "Closed"
)

// Quality issue types and severities.
const (
	IssueTypeDefect         = "Defect"
	IssueTypeNonConformance = "NonConformance"
	IssueTypeObservation    = "Observation"

	SeverityCritical = "Critical"
	SeverityMajor    = "Major"
	SeverityMinor    = "Minor"
)

// CurrentUser identifies the caller of a service operation, resolved from the
// session by the handler layer and used for audit stamping.
type CurrentUser struct {
	ID   uuid.UUID
	Name string
}

type Session struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	SessionID string    `json:"session_id"`
	HostName  string    `json:"host_name"`
	IPAddress string    `json:"ip_address"`
	Timestamp time.Time `json:"timestp"`
	ExpiresAt time.Time `json:"expires_at"`
	UserUUID  uuid.UUID `json:"user_uuid"`
}

type ActivityLog struct {
	ID           int       `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UserName     string    `json:"user_name"`
	HostName     string    `json:"host_name"`
	EventContext string    `json:"event_context"`
	IPAddress    string    `json:"ip_address"`
	Description  string    `json:"description"`
	EventName    string    `json:"event_name"`
	ProjectID    int       `json:"project_id"`
}

// RecordProgressRequest is the body for the progress update endpoint.
type RecordProgressRequest struct {
	BoxActivityID uuid.UUID `json:"box_activity_id" binding:"required"`
	BoxID         uuid.UUID `json:"box_id" binding:"required"`
	Percentage    float64   `json:"percentage"`
	Description   string    `json:"description"`
	Issues        string    `json:"issues"`
	Photos        []string  `json:"photos"`
	Latitude      *float64  `json:"latitude"`
	Longitude     *float64  `json:"longitude"`
	Channel       string    `json:"channel"`
}

// ChecklistItemUpdate grades a single checklist item during a review.
type ChecklistItemUpdate struct {
	ChecklistItemID uuid.UUID `json:"checklist_item_id" binding:"required"`
	Status          string    `json:"status" binding:"required"`
	Remarks         string    `json:"remarks"`
}

// SubmitVerdictRequest is the body for the checkpoint review endpoint.
type SubmitVerdictRequest struct {
	Verdict       string                `json:"verdict" binding:"required"`
	InspectorRole string                `json:"inspector_role"`
	Comment       string                `json:"comment"`
	Items         []ChecklistItemUpdate `json:"items"`
}

// AssignIssueRequest carries the optional assignment targets; all three are
// independently nullable and a nil value clears the previous assignment.
type AssignIssueRequest struct {
	TeamID   *uuid.UUID `json:"team_id"`
	MemberID *uuid.UUID `json:"member_id"`
	CcUserID *uuid.UUID `json:"cc_user_id"`
}

type ChangeIssueStatusRequest struct {
	Status         string `json:"status" binding:"required"`
	ResolutionText string `json:"resolution_text"`
}

type AddCommentRequest struct {
	ParentCommentID *uuid.UUID `json:"parent_comment_id"`
	Text            string     `json:"text" binding:"required"`
}

type CreateIssueRequest struct {
	BoxID       uuid.UUID  `json:"box_id" binding:"required"`
	WIRId       *uuid.UUID `json:"wir_id"`
	IssueType   string     `json:"issue_type"`
	Severity    string     `json:"severity"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	Images      []string   `json:"images"`
}

type CreateBoxRequest struct {
	BoxTag    string `json:"box_tag" binding:"required"`
	BoxName   string `json:"box_name"`
	ProjectID int    `json:"project_id"`
	Floor     string `json:"floor"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
