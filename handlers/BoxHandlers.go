package handlers

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"boxtrack/models"
	"boxtrack/services"

	"github.com/gin-gonic/gin"
)

// CreateBoxHandler godoc
// @Summary      Create a box
// @Description  Register a box and stamp out its activities and inspection checkpoints from the catalog
// @Tags         boxes
// @Accept       json
// @Produce      json
// @Param        Authorization header string true "Bearer token"
// @Param        request body models.CreateBoxRequest true "Box details"
// @Success      201  {object}  models.Box
// @Failure      400  {object}  models.ErrorResponse
// @Failure      409  {object}  models.ErrorResponse
// @Router       /api/boxes [post]
func CreateBoxHandler(db *sql.DB, wf *services.Workflow) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, session, ok := currentUser(c, db)
		if !ok {
			return
		}

		var req models.CreateBoxRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		box, err := wf.Boxes.Create(user, req)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		SaveActivityLog(db, models.ActivityLog{
			CreatedAt:    time.Now(),
			UserName:     user.Name,
			HostName:     session.HostName,
			EventContext: "Boxes",
			IPAddress:    session.IPAddress,
			Description:  "Created box " + box.BoxTag + ".",
			EventName:    "BoxCreated",
			ProjectID:    box.ProjectID,
		})

		c.JSON(http.StatusCreated, box)
	}
}

// GetBoxHandler godoc
// @Summary      Get a box
// @Description  Box with its activities in workflow order
// @Tags         boxes
// @Produce      json
// @Param        Authorization header string true "Bearer token"
// @Param        id   path      string  true  "Box ID"
// @Success      200  {object}  models.Box
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/boxes/{id} [get]
func GetBoxHandler(db *sql.DB, wf *services.Workflow) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, _, ok := currentUser(c, db); !ok {
			return
		}
		boxID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		box, err := wf.Boxes.Get(boxID)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, box)
	}
}

// ListBoxesHandler godoc
// @Summary      List boxes
// @Tags         boxes
// @Produce      json
// @Param        Authorization header string true "Bearer token"
// @Param        project_id  query  int     false  "Project filter"
// @Param        status      query  string  false  "Status filter"
// @Success      200  {array}  models.Box
// @Router       /api/boxes [get]
func ListBoxesHandler(db *sql.DB, wf *services.Workflow) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, _, ok := currentUser(c, db); !ok {
			return
		}
		projectID, _ := strconv.Atoi(c.DefaultQuery("project_id", "0"))
		boxes, err := wf.Boxes.List(projectID, c.Query("status"))
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, boxes)
	}
}

// DeactivateBoxHandler godoc
// @Summary      Deactivate a box
// @Description  Soft-delete; history stays queryable
// @Tags         boxes
// @Produce      json
// @Param        Authorization header string true "Bearer token"
// @Param        id   path      string  true  "Box ID"
// @Success      200  {object}  models.MessageResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/boxes/{id} [delete]
func DeactivateBoxHandler(db *sql.DB, wf *services.Workflow) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, session, ok := currentUser(c, db)
		if !ok {
			return
		}
		boxID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		if err := wf.Boxes.Deactivate(user, boxID); err != nil {
			respondServiceError(c, err)
			return
		}

		SaveActivityLog(db, models.ActivityLog{
			CreatedAt:    time.Now(),
			UserName:     user.Name,
			HostName:     session.HostName,
			EventContext: "Boxes",
			IPAddress:    session.IPAddress,
			Description:  "Deactivated box " + boxID.String() + ".",
			EventName:    "BoxDeactivated",
		})

		c.JSON(http.StatusOK, gin.H{"message": "Box deactivated"})
	}
}

// ResolveQRHandler godoc
// @Summary      Resolve a scanned QR payload to a box
// @Tags         boxes
// @Accept       json
// @Produce      json
// @Param        Authorization header string true "Bearer token"
// @Success      200  {object}  models.Box
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/boxes/resolve-qr [post]
func ResolveQRHandler(db *sql.DB, wf *services.Workflow) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, _, ok := currentUser(c, db); !ok {
			return
		}
		var req struct {
			Payload string `json:"payload" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
			return
		}
		box, err := wf.Boxes.ResolveByQR(req.Payload)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, box)
	}
}

// ListTemplatesHandler godoc
// @Summary      List the activity catalog
// @Tags         boxes
// @Produce      json
// @Param        Authorization header string true "Bearer token"
// @Success      200  {array}  models.ActivityTemplate
// @Router       /api/activity-templates [get]
func ListTemplatesHandler(db *sql.DB, wf *services.Workflow) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, _, ok := currentUser(c, db); !ok {
			return
		}
		templates, err := wf.Boxes.Templates()
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, templates)
	}
}
