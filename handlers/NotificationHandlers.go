package handlers

import (
	"database/sql"
	"net/http"
	"strconv"

	"boxtrack/services"

	"github.com/gin-gonic/gin"
)

// ListNotificationsHandler godoc
// @Summary      List the caller's notifications
// @Tags         notifications
// @Produce      json
// @Param        Authorization header string true "Bearer token"
// @Param        unread  query  bool  false  "Unread only"
// @Success      200  {array}  models.Notification
// @Router       /api/notifications [get]
func ListNotificationsHandler(db *sql.DB, wf *services.Workflow) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _, ok := currentUser(c, db)
		if !ok {
			return
		}
		unreadOnly := c.Query("unread") == "true"
		rows, err := wf.Notifications.ListForUser(user.ID, unreadOnly)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

// MarkNotificationReadHandler godoc
// @Summary      Mark a notification as read
// @Tags         notifications
// @Produce      json
// @Param        Authorization header string true "Bearer token"
// @Param        id   path      int  true  "Notification ID"
// @Success      200  {object}  models.MessageResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/notifications/{id}/read [post]
func MarkNotificationReadHandler(db *sql.DB, wf *services.Workflow) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _, ok := currentUser(c, db)
		if !ok {
			return
		}
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification ID"})
			return
		}
		if err := wf.Notifications.MarkRead(user.ID, uint(id)); err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Notification marked read"})
	}
}

// RegisterDeviceTokenHandler godoc
// @Summary      Register a device token for push notifications
// @Tags         notifications
// @Accept       json
// @Produce      json
// @Param        Authorization header string true "Bearer token"
// @Success      200  {object}  models.MessageResponse
// @Failure      400  {object}  models.ErrorResponse
// @Router       /api/device-tokens [post]
func RegisterDeviceTokenHandler(db *sql.DB, fcm *services.FCMService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _, ok := currentUser(c, db)
		if !ok {
			return
		}
		if fcm == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Push notifications are not configured"})
			return
		}

		var req struct {
			Token    string `json:"token" binding:"required"`
			Platform string `json:"platform"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Device token is required"})
			return
		}

		if err := fcm.SaveDeviceToken(user.ID, req.Token, req.Platform); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save device token"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Device token registered"})
	}
}
