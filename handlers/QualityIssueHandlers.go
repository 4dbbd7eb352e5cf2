package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"boxtrack/models"
	"boxtrack/services"

	"github.com/gin-gonic/gin"
)

// CreateIssueHandler godoc
// @Summary      Raise a quality issue
// @Tags         quality
// @Accept       json
// @Produce      json
// @Param        Authorization header string true "Bearer token"
// @Param        request body models.CreateIssueRequest true "Issue details"
// @Success      201  {object}  models.QualityIssue
// @Failure      400  {object}  models.ErrorResponse
// @Router       /api/issues [post]
func CreateIssueHandler(db *sql.DB, wf *services.Workflow) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, session, ok := currentUser(c, db)
		if !ok {
			return
		}

		var req models.CreateIssueRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		issue, err := wf.Quality.CreateIssue(user, req)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		SaveActivityLog(db, models.ActivityLog{
			CreatedAt:    time.Now(),
			UserName:     user.Name,
			HostName:     session.HostName,
			EventContext: "Quality",
			IPAddress:    session.IPAddress,
			Description:  "Raised " + issue.Severity + " " + issue.IssueType + " issue.",
			EventName:    "IssueCreated",
		})

		c.JSON(http.StatusCreated, issue)
	}
}

// GetIssueHandler godoc
// @Summary      Get a quality issue with images and comment thread
// @Tags         quality
// @Produce      json
// @Param        Authorization header string true "Bearer token"
// @Param        id   path      string  true  "Issue ID"
// @Success      200  {object}  models.QualityIssue
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/issues/{id} [get]
func GetIssueHandler(db *sql.DB, wf *services.Workflow) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, _, ok := currentUser(c, db); !ok {
			return
		}
		issueID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		issue, err := wf.Quality.GetIssue(issueID)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, issue)
	}
}

// ListBoxIssuesHandler godoc
// @Summary      List a box's quality issues
// @Tags         quality
// @Produce      json
// @Param        Authorization header string true "Bearer token"
// @Param        id      path   string  true   "Box ID"
// @Param        status  query  string  false  "Status filter"
// @Success      200  {array}  models.QualityIssue
// @Router       /api/boxes/{id}/issues [get]
func ListBoxIssuesHandler(db *sql.DB, wf *services.Workflow) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, _, ok := currentUser(c, db); !ok {
			return
		}
		boxID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		issues, err := wf.Quality.ListByBox(boxID, c.Query("status"))
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, issues)
	}
}

// AssignIssueHandler godoc
// @Summary      Assign a quality issue
// @Description  Sets or clears the team, member and cc targets; a nil target clears the previous value
// @Tags         quality
// @Accept       json
// @Produce      json
// @Param        Authorization header string true "Bearer token"
// @Param        id       path  string                     true  "Issue ID"
// @Param        request  body  models.AssignIssueRequest  true  "Assignment targets"
// @Success      200  {object}  models.QualityIssue
// @Failure      400  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/issues/{id}/assign [post]
func AssignIssueHandler(db *sql.DB, wf *services.Workflow) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, session, ok := currentUser(c, db)
		if !ok {
			return
		}
		issueID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}

		var req models.AssignIssueRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
			return
		}

		issue, err := wf.Quality.Assign(user, issueID, req)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		SaveActivityLog(db, models.ActivityLog{
			CreatedAt:    time.Now(),
			UserName:     user.Name,
			HostName:     session.HostName,
			EventContext: "Quality",
			IPAddress:    session.IPAddress,
			Description:  "Changed assignment on issue " + issueID.String() + ".",
			EventName:    "IssueAssigned",
		})

		c.JSON(http.StatusOK, issue)
	}
}

// ChangeIssueStatusHandler godoc
// @Summary      Change a quality issue's status
// @Description  Resolved and Closed require resolution text; every change appends a status-update comment
// @Tags         quality
// @Accept       json
// @Produce      json
// @Param        Authorization header string true "Bearer token"
// @Param        id       path  string                           true  "Issue ID"
// @Param        request  body  models.ChangeIssueStatusRequest  true  "New status"
// @Success      200  {object}  models.QualityIssue
// @Failure      400  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Failure      409  {object}  models.ErrorResponse
// @Router       /api/issues/{id}/status [post]
func ChangeIssueStatusHandler(db *sql.DB, wf *services.Workflow) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, session, ok := currentUser(c, db)
		if !ok {
			return
		}
		issueID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}

		var req models.ChangeIssueStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		issue, err := wf.Quality.ChangeStatus(user, issueID, req)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		SaveActivityLog(db, models.ActivityLog{
			CreatedAt:    time.Now(),
			UserName:     user.Name,
			HostName:     session.HostName,
			EventContext: "Quality",
			IPAddress:    session.IPAddress,
			Description:  "Issue " + issueID.String() + " moved to " + issue.Status + ".",
			EventName:    "IssueStatusChange",
		})

		c.JSON(http.StatusOK, issue)
	}
}

// AddCommentHandler godoc
// @Summary      Comment on a quality issue
// @Description  Two-level threading: replies must target a top-level comment
// @Tags         quality
// @Accept       json
// @Produce      json
// @Param        Authorization header string true "Bearer token"
// @Param        id       path  string                    true  "Issue ID"
// @Param        request  body  models.AddCommentRequest  true  "Comment"
// @Success      201  {object}  models.IssueComment
// @Failure      400  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/issues/{id}/comments [post]
func AddCommentHandler(db *sql.DB, wf *services.Workflow) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _, ok := currentUser(c, db)
		if !ok {
			return
		}
		issueID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}

		var req models.AddCommentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		comment, err := wf.Quality.AddComment(user, issueID, req)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusCreated, comment)
	}
}

// EditCommentHandler godoc
// @Summary      Edit a comment
// @Description  Author-only; status-update comments are immutable
// @Tags         quality
// @Accept       json
// @Produce      json
// @Param        Authorization header string true "Bearer token"
// @Param        id   path      string  true  "Comment ID"
// @Success      200  {object}  models.IssueComment
// @Failure      400  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Failure      409  {object}  models.ErrorResponse
// @Router       /api/comments/{id} [put]
func EditCommentHandler(db *sql.DB, wf *services.Workflow) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _, ok := currentUser(c, db)
		if !ok {
			return
		}
		commentID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}

		var req struct {
			Text string `json:"text" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Comment text is required"})
			return
		}

		comment, err := wf.Quality.EditComment(user, commentID, req.Text)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, comment)
	}
}

// DeleteCommentHandler godoc
// @Summary      Delete a comment
// @Description  Author-only soft delete; replies stay anchored under a tombstone
// @Tags         quality
// @Produce      json
// @Param        Authorization header string true "Bearer token"
// @Param        id   path      string  true  "Comment ID"
// @Success      200  {object}  models.MessageResponse
// @Failure      404  {object}  models.ErrorResponse
// @Failure      409  {object}  models.ErrorResponse
// @Router       /api/comments/{id} [delete]
func DeleteCommentHandler(db *sql.DB, wf *services.Workflow) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _, ok := currentUser(c, db)
		if !ok {
			return
		}
		commentID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		if err := wf.Quality.DeleteComment(user, commentID); err != nil {
			respondServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Comment deleted"})
	}
}
