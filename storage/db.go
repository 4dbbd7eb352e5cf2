package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"boxtrack/models"
	"boxtrack/utils"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

var db *sql.DB

func InitDB() *sql.DB {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	user := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASSWORD")
	dbname := os.Getenv("DB_NAME")
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")

	connStr := fmt.Sprintf("user=%s password=%s dbname=%s host=%s port=%s sslmode=disable",
		user, password, dbname, host, port)

	var err error
	db, err = sql.Open("postgres", connStr)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Pool settings sized for light server load
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	return db
}

func GetDB() *sql.DB {
	return db
}

// SaveSession saves a new session for a user. Only one session per user is
// kept: existing sessions are replaced on login.
func SaveSession(db *sql.DB, session *models.Session) error {
	ctx, cancel := utils.GetFastQueryContext(nil)
	defer cancel()

	if _, err := db.ExecContext(ctx, `DELETE FROM sessions WHERE user_uuid = $1`, session.UserUUID); err != nil {
		return fmt.Errorf("failed to delete previous sessions: %v", err)
	}

	insertQuery := `INSERT INTO sessions (user_uuid, session_id, host_name, ip_address, timestp, expires_at)
                    VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := db.ExecContext(ctx, insertQuery,
		session.UserUUID, session.SessionID, session.HostName, session.IPAddress, session.Timestamp, session.ExpiresAt); err != nil {
		return fmt.Errorf("failed to insert new session: %v", err)
	}
	return nil
}

// GetSessionBySessionID retrieves an unexpired session row.
func GetSessionBySessionID(db *sql.DB, sessionID string) (*models.Session, error) {
	ctx, cancel := utils.GetFastQueryContext(nil)
	defer cancel()

	var session models.Session
	query := `SELECT user_uuid, session_id, host_name, ip_address, timestp, expires_at
	          FROM sessions WHERE session_id = $1 AND expires_at > NOW()`
	err := db.QueryRowContext(ctx, query, sessionID).Scan(
		&session.UserUUID, &session.SessionID, &session.HostName,
		&session.IPAddress, &session.Timestamp, &session.ExpiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New("session not found or expired")
		}
		return nil, err
	}
	return &session, nil
}

func DeleteSession(db *sql.DB, sessionID string) error {
	ctx, cancel := utils.GetFastQueryContext(nil)
	defer cancel()

	_, err := db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = $1`, sessionID)
	return err
}

func CleanupExpiredSessions(db *sql.DB) error {
	ctx, cancel := utils.GetDefaultQueryContext(nil)
	defer cancel()

	threshold := time.Now().Add(-24 * time.Hour)
	_, err := db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < $1`, threshold)
	return err
}

// GetUserBySessionID resolves the user behind an active session.
func GetUserBySessionID(db *sql.DB, sessionID string) (*models.User, error) {
	ctx, cancel := utils.GetFastQueryContext(nil)
	defer cancel()

	query := `
		SELECT u.id, u.email, u.first_name, u.last_name, u.is_active
		FROM sessions s
		JOIN users u ON s.user_uuid = u.id
		WHERE s.session_id = $1 AND s.expires_at > NOW()
	`

	var user models.User
	err := db.QueryRowContext(ctx, query, sessionID).Scan(
		&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.IsActive)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New("user not found for the given session ID")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, errors.New("account is suspended")
	}
	return &user, nil
}

func GetUserByEmail(db *sql.DB, email string) (*models.User, error) {
	ctx, cancel := utils.GetFastQueryContext(nil)
	defer cancel()

	var user models.User
	query := `SELECT id, email, password, first_name, last_name, is_active FROM users WHERE LOWER(email) = LOWER($1)`
	err := db.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.Password, &user.FirstName, &user.LastName, &user.IsActive)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user with email %s not found", email)
		}
		return nil, fmt.Errorf("failed to query user: %v", err)
	}
	return &user, nil
}

// LogChange writes a row to the activity_logs trail used by the HTTP layer.
func LogChange(db *sql.DB, userName, hostName, eventContext, ipAddress, description, eventName string, projectID int) error {
	ctx, cancel := utils.GetFastQueryContext(nil)
	defer cancel()

	query := `INSERT INTO activity_logs (created_at, user_name, host_name, event_context, ip_address, description, event_name, project_id)
	          VALUES (NOW(), $1, $2, $3, $4, $5, $6, $7)`
	_, err := db.ExecContext(ctx, query, userName, hostName, eventContext, ipAddress, description, eventName, projectID)
	return err
}

// EnsureSessionTables creates the sql-side tables the session layer needs.
// The workflow tables are migrated by GORM; these two predate that path.
func EnsureSessionTables(db *sql.DB) error {
	ctx, cancel := utils.GetDefaultQueryContext(nil)
	defer cancel()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id SERIAL PRIMARY KEY,
			user_uuid UUID NOT NULL,
			session_id TEXT NOT NULL,
			host_name TEXT,
			ip_address TEXT,
			timestp TIMESTAMPTZ NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_session_id ON sessions (session_id)`,
		`CREATE TABLE IF NOT EXISTS activity_logs (
			id SERIAL PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL,
			user_name TEXT,
			host_name TEXT,
			event_context TEXT,
			ip_address TEXT,
			description TEXT,
			event_name TEXT,
			project_id INT
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
