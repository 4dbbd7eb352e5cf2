package services

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"boxtrack/models"

	"github.com/google/uuid"
	"golang.org/x/net/html"
	"gorm.io/gorm"
)

// convertHTMLToText converts HTML content to plain text for email sending
func convertHTMLToText(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		// If parsing fails, return the original content
		return htmlContent
	}

	var text strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			text.WriteString(n.Data)
		case html.ElementNode:
			switch n.Data {
			case "p", "div", "br", "h1", "h2", "h3", "h4", "h5", "h6", "table", "tr":
				text.WriteString("\n")
			case "li":
				text.WriteString("- ")
			case "td", "th":
				text.WriteString(" | ")
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			extractText(child)
		}
	}
	extractText(doc)

	result := text.String()
	result = strings.ReplaceAll(result, "\n\n\n", "\n\n")
	return strings.TrimSpace(result)
}

// NotificationService fans workflow events out to in-app notification rows,
// push notifications and email. Delivery is best effort: failures are logged
// and never fail the workflow transaction that produced the event.
type NotificationService struct {
	db  *gorm.DB
	fcm *FCMService
}

func NewNotificationService(db *gorm.DB, fcm *FCMService) *NotificationService {
	return &NotificationService{db: db, fcm: fcm}
}

// WIRRequested announces a newly opened inspection request to the inspection
// desk mailbox and confirms it to the requester.
func (n *NotificationService) WIRRequested(record *models.WIRRecord) {
	title := fmt.Sprintf("Inspection requested: %s", record.WIRCode)
	body := fmt.Sprintf("Inspection request %s is awaiting review.", record.WIRCode)
	n.deliver(record.RequestedBy, title, body, map[string]string{
		"type":          "wir_requested",
		"wir_record_id": record.WIRRecordID.String(),
	})

	if inbox := os.Getenv("INSPECTION_EMAIL"); inbox != "" {
		htmlBody := fmt.Sprintf("<p>A new inspection request <b>%s</b> was raised on %s.</p><p>Please schedule the inspection.</p>",
			record.WIRCode, record.RequestedDate.Format("2006-01-02 15:04"))
		if err := sendEmail(inbox, title, convertHTMLToText(htmlBody)); err != nil {
			log.Printf("failed to email inspection desk: %v", err)
		}
	}
}

// WIRVerdict notifies the requester of an approval or rejection.
func (n *NotificationService) WIRVerdict(record *models.WIRRecord, reason string) {
	title := fmt.Sprintf("Inspection %s: %s", strings.ToLower(record.Status), record.WIRCode)
	body := fmt.Sprintf("Inspection request %s was %s.", record.WIRCode, strings.ToLower(record.Status))
	if reason != "" {
		body = fmt.Sprintf("%s Reason: %s", body, reason)
	}
	n.deliver(record.RequestedBy, title, body, map[string]string{
		"type":          "wir_verdict",
		"wir_record_id": record.WIRRecordID.String(),
		"status":        record.Status,
	})
}

// CommentReply notifies the author of a comment that someone replied.
func (n *NotificationService) CommentReply(parentAuthorID uuid.UUID, reply *models.IssueComment) {
	title := "New reply on quality issue"
	body := fmt.Sprintf("%s replied: %s", reply.AuthorName, truncate(reply.CommentText, 120))
	n.deliver(parentAuthorID, title, body, map[string]string{
		"type":     "comment_reply",
		"issue_id": reply.IssueID.String(),
	})
}

// NotifyOverdueWIRs reminds requesters about inspection requests still
// pending after the given age. Run from the scheduler.
func (n *NotificationService) NotifyOverdueWIRs(olderThan time.Duration) error {
	cutoff := time.Now().UTC().Add(-olderThan)
	var records []models.WIRRecord
	err := n.db.Where("status = ? AND requested_date < ?", models.WIRStatusPending, cutoff).Find(&records).Error
	if err != nil {
		return infraErr(err, "failed to load overdue inspection requests")
	}
	for i := range records {
		record := &records[i]
		title := fmt.Sprintf("Inspection overdue: %s", record.WIRCode)
		body := fmt.Sprintf("Inspection request %s has been pending since %s.",
			record.WIRCode, record.RequestedDate.Format("2006-01-02"))
		n.deliver(record.RequestedBy, title, body, map[string]string{
			"type":          "wir_overdue",
			"wir_record_id": record.WIRRecordID.String(),
		})
	}
	return nil
}

// ListForUser returns a user's notifications newest first.
func (n *NotificationService) ListForUser(userID uuid.UUID, unreadOnly bool) ([]models.Notification, error) {
	q := n.db.Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var rows []models.Notification
	if err := q.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, infraErr(err, "failed to list notifications")
	}
	return rows, nil
}

// MarkRead marks a user's notification as read.
func (n *NotificationService) MarkRead(userID uuid.UUID, id uint) error {
	res := n.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return infraErr(res.Error, "failed to mark notification read")
	}
	if res.RowsAffected == 0 {
		return notFoundErr("notification %d not found", id)
	}
	return nil
}

// deliver writes the in-app row and fires a push. Both best effort.
func (n *NotificationService) deliver(userID uuid.UUID, title, body string, data map[string]string) {
	row := models.Notification{
		UserID:    userID,
		Title:     title,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	if err := n.db.Create(&row).Error; err != nil {
		log.Printf("failed to save notification for user %s: %v", userID, err)
	}
	if n.fcm != nil {
		if err := n.fcm.SendNotificationToUser(context.Background(), userID, title, body, data); err != nil {
			log.Printf("failed to push notification to user %s: %v", userID, err)
		}
	}
}

// sendEmail sends a plain text email over SMTP configured from the
// environment.
func sendEmail(to, subject, body string) error {
	host := os.Getenv("SMTP_HOST")
	port := os.Getenv("SMTP_PORT")
	user := os.Getenv("SMTP_USER")
	pass := os.Getenv("SMTP_PASSWORD")
	from := os.Getenv("SMTP_FROM")
	if host == "" || from == "" {
		return fmt.Errorf("SMTP is not configured")
	}
	if port == "" {
		port = "587"
	}

	msg := []byte(strings.Join([]string{
		"From: " + from,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n") + "\r\n")

	var auth smtp.Auth
	if user != "" {
		auth = smtp.PlainAuth("", user, pass, host)
	}
	return smtp.SendMail(host+":"+port, auth, from, []string{to}, msg)
}

// truncate shortens s to at most max runes so a multibyte character at the
// boundary is never split.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}
