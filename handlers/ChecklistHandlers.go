package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"boxtrack/models"
	"boxtrack/services"

	"github.com/gin-gonic/gin"
)

// checkpointView wraps a checkpoint with its derived review progress.
type checkpointView struct {
	models.WIRCheckpoint
	Progress float64 `json:"progress"`
}

// GetChecklistHandler godoc
// @Summary      Get an inspection checkpoint with its checklist
// @Tags         checklists
// @Produce      json
// @Param        Authorization header string true "Bearer token"
// @Param        id   path      string  true  "Checkpoint (WIR) ID"
// @Success      200  {object}  object
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/checkpoints/{id} [get]
func GetChecklistHandler(db *sql.DB, wf *services.Workflow) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, _, ok := currentUser(c, db); !ok {
			return
		}
		wirID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		checkpoint, err := wf.Checklists.GetByID(wirID)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, checkpointView{
			WIRCheckpoint: *checkpoint,
			Progress:      services.CheckpointProgress(checkpoint),
		})
	}
}

// ListBoxChecklistsHandler godoc
// @Summary      List a box's inspection checkpoints
// @Tags         checklists
// @Produce      json
// @Param        Authorization header string true "Bearer token"
// @Param        id   path      string  true  "Box ID"
// @Success      200  {array}  object
// @Router       /api/boxes/{id}/checkpoints [get]
func ListBoxChecklistsHandler(db *sql.DB, wf *services.Workflow) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, _, ok := currentUser(c, db); !ok {
			return
		}
		boxID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		checkpoints, err := wf.Checklists.ListByBox(boxID)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		views := make([]checkpointView, 0, len(checkpoints))
		for i := range checkpoints {
			views = append(views, checkpointView{
				WIRCheckpoint: checkpoints[i],
				Progress:      services.CheckpointProgress(&checkpoints[i]),
			})
		}
		c.JSON(http.StatusOK, views)
	}
}

// SubmitVerdictHandler godoc
// @Summary      Review a checkpoint
// @Description  Grade checklist items and record the verdict. Every verdict requires every item graded; rejection reopens the checkpoint activity for rework.
// @Tags         checklists
// @Accept       json
// @Produce      json
// @Param        Authorization header string true "Bearer token"
// @Param        id       path  string                       true  "Checkpoint (WIR) ID"
// @Param        request  body  models.SubmitVerdictRequest  true  "Verdict and item grades"
// @Success      200  {object}  models.WIRCheckpoint
// @Failure      400  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Failure      409  {object}  models.ErrorResponse
// @Router       /api/checkpoints/{id}/verdict [post]
func SubmitVerdictHandler(db *sql.DB, wf *services.Workflow) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, session, ok := currentUser(c, db)
		if !ok {
			return
		}
		wirID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}

		var req models.SubmitVerdictRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		checkpoint, err := wf.Checklists.SubmitVerdict(user, wirID, req)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		SaveActivityLog(db, models.ActivityLog{
			CreatedAt:    time.Now(),
			UserName:     user.Name,
			HostName:     session.HostName,
			EventContext: "Checklists",
			IPAddress:    session.IPAddress,
			Description:  "Checkpoint " + checkpoint.WIRCode + " reviewed: " + checkpoint.Status + ".",
			EventName:    "CheckpointVerdict",
		})

		c.JSON(http.StatusOK, checkpoint)
	}
}

// ReopenChecklistHandler godoc
// @Summary      Reopen a reviewed checkpoint
// @Tags         checklists
// @Produce      json
// @Param        Authorization header string true "Bearer token"
// @Param        id   path      string  true  "Checkpoint (WIR) ID"
// @Success      200  {object}  models.WIRCheckpoint
// @Failure      404  {object}  models.ErrorResponse
// @Failure      409  {object}  models.ErrorResponse
// @Router       /api/checkpoints/{id}/reopen [post]
func ReopenChecklistHandler(db *sql.DB, wf *services.Workflow) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, session, ok := currentUser(c, db)
		if !ok {
			return
		}
		wirID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		checkpoint, err := wf.Checklists.Reopen(user, wirID)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		SaveActivityLog(db, models.ActivityLog{
			CreatedAt:    time.Now(),
			UserName:     user.Name,
			HostName:     session.HostName,
			EventContext: "Checklists",
			IPAddress:    session.IPAddress,
			Description:  "Checkpoint " + checkpoint.WIRCode + " reopened for re-inspection.",
			EventName:    "CheckpointReopen",
		})

		c.JSON(http.StatusOK, checkpoint)
	}
}
