package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"boxtrack/models"
	"boxtrack/services"

	"github.com/gin-gonic/gin"
)

// RecordProgressHandler godoc
// @Summary      Record a progress update
// @Description  Append a progress event, mutate the activity and recompute the box aggregate. Completing a checkpoint activity opens an inspection request.
// @Tags         progress
// @Accept       json
// @Produce      json
// @Param        Authorization header string true "Bearer token"
// @Param        request body models.RecordProgressRequest true "Progress update"
// @Success      201  {object}  models.ProgressUpdate
// @Failure      400  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Failure      409  {object}  models.ErrorResponse
// @Router       /api/progress [post]
func RecordProgressHandler(db *sql.DB, wf *services.Workflow) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, session, ok := currentUser(c, db)
		if !ok {
			return
		}

		var req models.RecordProgressRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		event, err := wf.Progress.RecordProgress(user, req)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		SaveActivityLog(db, models.ActivityLog{
			CreatedAt:    time.Now(),
			UserName:     user.Name,
			HostName:     session.HostName,
			EventContext: "Progress",
			IPAddress:    session.IPAddress,
			Description:  fmt.Sprintf("Recorded %.2f%% on activity %s.", event.Percentage, event.BoxActivityID),
			EventName:    "ProgressUpdate",
		})

		c.JSON(http.StatusCreated, event)
	}
}

// ListProgressHandler godoc
// @Summary      List a box's progress trail
// @Tags         progress
// @Produce      json
// @Param        Authorization header string true "Bearer token"
// @Param        id   path      string  true  "Box ID"
// @Success      200  {array}  models.ProgressUpdate
// @Router       /api/boxes/{id}/progress [get]
func ListProgressHandler(db *sql.DB, wf *services.Workflow) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, _, ok := currentUser(c, db); !ok {
			return
		}
		boxID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		updates, err := wf.Progress.ListByBox(boxID)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, updates)
	}
}
