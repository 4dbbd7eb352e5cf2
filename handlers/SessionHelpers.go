package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"boxtrack/models"
	"boxtrack/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Helper to fetch session details
func GetSessionDetails(db *sql.DB, sessionID string) (models.Session, string, error) {
	var session models.Session
	var userName string

	query := `
        SELECT s.user_uuid, CONCAT(u.first_name, ' ', u.last_name) AS user_name, s.host_name, s.ip_address
        FROM sessions s
        JOIN users u ON s.user_uuid = u.id
        WHERE s.session_id = $1 AND s.expires_at > NOW()`

	err := db.QueryRow(query, sessionID).Scan(
		&session.UserUUID,
		&userName,
		&session.HostName,
		&session.IPAddress,
	)
	if err != nil {
		return models.Session{}, "", err
	}
	session.SessionID = sessionID
	return session, userName, nil
}

// Helper to save activity logs
func SaveActivityLog(db *sql.DB, log models.ActivityLog) error {
	query := `
    INSERT INTO activity_logs (
        created_at, user_name, host_name, event_context, ip_address,
        description, event_name, project_id
    ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := db.Exec(query,
		log.CreatedAt, log.UserName, log.HostName, log.EventContext, log.IPAddress,
		log.Description, log.EventName, log.ProjectID,
	)
	return err
}

// sessionToken extracts the bearer token from the Authorization header.
func sessionToken(c *gin.Context) string {
	token := strings.TrimSpace(c.GetHeader("Authorization"))
	token = strings.TrimPrefix(token, "Bearer ")
	return strings.TrimSpace(token)
}

// currentUser resolves the caller from the session. Writes a 401 and returns
// false when the session is missing or expired.
func currentUser(c *gin.Context, db *sql.DB) (models.CurrentUser, models.Session, bool) {
	token := sessionToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing Authorization header"})
		return models.CurrentUser{}, models.Session{}, false
	}

	session, userName, err := GetSessionDetails(db, token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
		return models.CurrentUser{}, models.Session{}, false
	}
	return models.CurrentUser{ID: session.UserUUID, Name: userName}, session, true
}

// respondServiceError maps the service error taxonomy onto HTTP status codes.
func respondServiceError(c *gin.Context, err error) {
	var status int
	switch services.KindOf(err) {
	case services.KindValidation:
		status = http.StatusBadRequest
	case services.KindNotFound:
		status = http.StatusNotFound
	case services.KindConflict:
		status = http.StatusConflict
	default:
		status = http.StatusInternalServerError
	}

	msg := err.Error()
	var se *services.ServiceError
	if errors.As(err, &se) {
		msg = se.Message
	}
	c.JSON(status, gin.H{"error": msg})
}

// parseUUIDParam reads a UUID path parameter, writing a 400 on failure.
func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}
