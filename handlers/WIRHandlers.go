package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"boxtrack/models"
	"boxtrack/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CreateWIRHandler godoc
// @Summary      Raise an inspection request manually
// @Tags         wir
// @Accept       json
// @Produce      json
// @Param        Authorization header string true "Bearer token"
// @Success      201  {object}  models.WIRRecord
// @Failure      400  {object}  models.ErrorResponse
// @Failure      409  {object}  models.ErrorResponse
// @Router       /api/wir [post]
func CreateWIRHandler(db *sql.DB, wf *services.Workflow) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, session, ok := currentUser(c, db)
		if !ok {
			return
		}

		var req struct {
			BoxActivityID string `json:"box_activity_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
			return
		}
		activityID, err := uuid.Parse(req.BoxActivityID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid box_activity_id"})
			return
		}

		record, err := wf.WIRs.Create(user, activityID)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		SaveActivityLog(db, models.ActivityLog{
			CreatedAt:    time.Now(),
			UserName:     user.Name,
			HostName:     session.HostName,
			EventContext: "Inspections",
			IPAddress:    session.IPAddress,
			Description:  "Raised inspection request " + record.WIRCode + ".",
			EventName:    "WIRCreated",
		})

		c.JSON(http.StatusCreated, record)
	}
}

// ApproveWIRHandler godoc
// @Summary      Approve an inspection request
// @Description  Approving an already-approved request is a conflict; approving a rejected one is allowed (verdict recovery)
// @Tags         wir
// @Accept       json
// @Produce      json
// @Param        Authorization header string true "Bearer token"
// @Param        id   path      string  true  "WIR record ID"
// @Success      200  {object}  models.WIRRecord
// @Failure      404  {object}  models.ErrorResponse
// @Failure      409  {object}  models.ErrorResponse
// @Router       /api/wir/{id}/approve [post]
func ApproveWIRHandler(db *sql.DB, wf *services.Workflow) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, session, ok := currentUser(c, db)
		if !ok {
			return
		}
		requestID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}

		var req struct {
			Notes string `json:"notes"`
			Photo string `json:"photo"`
		}
		if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
			return
		}

		record, err := wf.WIRs.Approve(user, requestID, req.Notes, req.Photo)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		SaveActivityLog(db, models.ActivityLog{
			CreatedAt:    time.Now(),
			UserName:     user.Name,
			HostName:     session.HostName,
			EventContext: "Inspections",
			IPAddress:    session.IPAddress,
			Description:  "Approved inspection request " + record.WIRCode + ".",
			EventName:    "WIRApproved",
		})

		c.JSON(http.StatusOK, record)
	}
}

// RejectWIRHandler godoc
// @Summary      Reject an inspection request
// @Description  Requires a reason; pushes the originating activity to OnHold for rework
// @Tags         wir
// @Accept       json
// @Produce      json
// @Param        Authorization header string true "Bearer token"
// @Param        id   path      string  true  "WIR record ID"
// @Success      200  {object}  models.WIRRecord
// @Failure      400  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Failure      409  {object}  models.ErrorResponse
// @Router       /api/wir/{id}/reject [post]
func RejectWIRHandler(db *sql.DB, wf *services.Workflow) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, session, ok := currentUser(c, db)
		if !ok {
			return
		}
		requestID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}

		var req struct {
			Reason string `json:"reason" binding:"required"`
			Notes  string `json:"notes"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Rejection reason is required"})
			return
		}

		record, err := wf.WIRs.Reject(user, requestID, req.Reason, req.Notes)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		SaveActivityLog(db, models.ActivityLog{
			CreatedAt:    time.Now(),
			UserName:     user.Name,
			HostName:     session.HostName,
			EventContext: "Inspections",
			IPAddress:    session.IPAddress,
			Description:  "Rejected inspection request " + record.WIRCode + ": " + req.Reason,
			EventName:    "WIRRejected",
		})

		c.JSON(http.StatusOK, record)
	}
}

// ListBoxWIRsHandler godoc
// @Summary      List inspection requests for a box
// @Tags         wir
// @Produce      json
// @Param        Authorization header string true "Bearer token"
// @Param        id   path      string  true  "Box ID"
// @Success      200  {array}  models.WIRRecord
// @Router       /api/boxes/{id}/wir [get]
func ListBoxWIRsHandler(db *sql.DB, wf *services.Workflow) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, _, ok := currentUser(c, db); !ok {
			return
		}
		boxID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		records, err := wf.WIRs.ListByBox(boxID)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, records)
	}
}

// ListActivityWIRsHandler godoc
// @Summary      List inspection requests for an activity
// @Tags         wir
// @Produce      json
// @Param        Authorization header string true "Bearer token"
// @Param        id   path      string  true  "Box activity ID"
// @Success      200  {array}  models.WIRRecord
// @Router       /api/activities/{id}/wir [get]
func ListActivityWIRsHandler(db *sql.DB, wf *services.Workflow) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, _, ok := currentUser(c, db); !ok {
			return
		}
		activityID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		records, err := wf.WIRs.ListByActivity(activityID)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, records)
	}
}
