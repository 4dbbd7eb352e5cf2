package services

import (
	"testing"
	"time"

	"boxtrack/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeIssue(t *testing.T, wf *Workflow, user models.CurrentUser, box *models.Box) *models.QualityIssue {
	t.Helper()
	issue, err := wf.Quality.CreateIssue(user, models.CreateIssueRequest{
		BoxID:       box.BoxID,
		Description: "hairline crack near drain",
		Images:      []string{"crack-1.jpg", "crack-2.jpg"},
	})
	require.NoError(t, err)
	return issue
}

func TestCreateIssueDefaultsAndValidation(t *testing.T) {
	wf, _ := newTestWorkflow(t)
	user := testUser("Noor")
	box := makeBox(t, wf, user, "BX-400")

	issue := makeIssue(t, wf, user, box)
	assert.Equal(t, models.IssueTypeDefect, issue.IssueType)
	assert.Equal(t, models.SeverityMinor, issue.Severity)
	assert.Equal(t, models.IssueStatusOpen, issue.Status)
	assert.Equal(t, user.Name, issue.ReportedBy)

	_, err := wf.Quality.CreateIssue(user, models.CreateIssueRequest{BoxID: box.BoxID})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = wf.Quality.CreateIssue(user, models.CreateIssueRequest{
		BoxID:       uuid.New(),
		Description: "phantom box",
	})
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestGetIssueLoadsImagesInOrder(t *testing.T) {
	wf, _ := newTestWorkflow(t)
	user := testUser("Noor")
	box := makeBox(t, wf, user, "BX-401")
	issue := makeIssue(t, wf, user, box)

	loaded, err := wf.Quality.GetIssue(issue.IssueID)
	require.NoError(t, err)
	require.Len(t, loaded.Images, 2)
	assert.Equal(t, "crack-1.jpg", loaded.Images[0].ImagePath)
	assert.Equal(t, 1, loaded.Images[0].Sequence)
	assert.Equal(t, "crack-2.jpg", loaded.Images[1].ImagePath)
}

func TestChangeStatusRules(t *testing.T) {
	wf, _ := newTestWorkflow(t)
	user := testUser("Noor")
	box := makeBox(t, wf, user, "BX-402")
	issue := makeIssue(t, wf, user, box)

	_, err := wf.Quality.ChangeStatus(user, issue.IssueID, models.ChangeIssueStatusRequest{Status: "Escalated"})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = wf.Quality.ChangeStatus(user, issue.IssueID, models.ChangeIssueStatusRequest{Status: models.IssueStatusOpen})
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))

	_, err = wf.Quality.ChangeStatus(user, issue.IssueID, models.ChangeIssueStatusRequest{Status: models.IssueStatusResolved})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))

	resolved, err := wf.Quality.ChangeStatus(user, issue.IssueID, models.ChangeIssueStatusRequest{
		Status:         models.IssueStatusResolved,
		ResolutionText: "crack injected and sealed",
	})
	require.NoError(t, err)
	assert.Equal(t, "crack injected and sealed", resolved.ResolutionDescription)
	assert.NotNil(t, resolved.ResolutionDate)

	// every change appends a synthetic status-update comment
	loaded, err := wf.Quality.GetIssue(issue.IssueID)
	require.NoError(t, err)
	require.Len(t, loaded.Comments, 1)
	assert.True(t, loaded.Comments[0].IsStatusUpdate)
	assert.Contains(t, loaded.Comments[0].CommentText, "Status changed from Open to Resolved.")
	assert.Contains(t, loaded.Comments[0].CommentText, "Resolution: crack injected and sealed")

	// reopening clears the resolution
	reopened, err := wf.Quality.ChangeStatus(user, issue.IssueID, models.ChangeIssueStatusRequest{Status: models.IssueStatusOpen})
	require.NoError(t, err)
	assert.Empty(t, reopened.ResolutionDescription)
	assert.Nil(t, reopened.ResolutionDate)
}

func TestCommentThreadingRules(t *testing.T) {
	wf, _ := newTestWorkflow(t)
	author := testUser("Noor")
	replier := testUser("Sami")
	box := makeBox(t, wf, author, "BX-403")
	issue := makeIssue(t, wf, author, box)

	top, err := wf.Quality.AddComment(author, issue.IssueID, models.AddCommentRequest{Text: "please recheck after curing"})
	require.NoError(t, err)

	reply, err := wf.Quality.AddComment(replier, issue.IssueID, models.AddCommentRequest{
		ParentCommentID: &top.CommentID,
		Text:            "rechecked, still visible",
	})
	require.NoError(t, err)

	// replies to replies are refused: the thread is two levels deep, max
	_, err = wf.Quality.AddComment(author, issue.IssueID, models.AddCommentRequest{
		ParentCommentID: &reply.CommentID,
		Text:            "noted",
	})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))

	// the reply notified the parent author
	rows, err := wf.Notifications.ListForUser(author.ID, true)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Contains(t, rows[0].Body, "Sami")
}

func TestReplyToDeletedCommentRefused(t *testing.T) {
	wf, _ := newTestWorkflow(t)
	author := testUser("Noor")
	box := makeBox(t, wf, author, "BX-404")
	issue := makeIssue(t, wf, author, box)

	top, err := wf.Quality.AddComment(author, issue.IssueID, models.AddCommentRequest{Text: "first"})
	require.NoError(t, err)
	require.NoError(t, wf.Quality.DeleteComment(author, top.CommentID))

	_, err = wf.Quality.AddComment(author, issue.IssueID, models.AddCommentRequest{
		ParentCommentID: &top.CommentID,
		Text:            "reply to ghost",
	})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestEditAndDeleteAreAuthorOnly(t *testing.T) {
	wf, _ := newTestWorkflow(t)
	author := testUser("Noor")
	other := testUser("Sami")
	box := makeBox(t, wf, author, "BX-405")
	issue := makeIssue(t, wf, author, box)

	comment, err := wf.Quality.AddComment(author, issue.IssueID, models.AddCommentRequest{Text: "typo here"})
	require.NoError(t, err)

	_, err = wf.Quality.EditComment(other, comment.CommentID, "hijacked")
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))

	err = wf.Quality.DeleteComment(other, comment.CommentID)
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))

	edited, err := wf.Quality.EditComment(author, comment.CommentID, "typo fixed")
	require.NoError(t, err)
	assert.Equal(t, "typo fixed", edited.CommentText)
	assert.NotNil(t, edited.UpdatedAt)

	require.NoError(t, wf.Quality.DeleteComment(author, comment.CommentID))

	// soft delete: the row survives, flagged, so replies stay anchored
	loaded, err := wf.Quality.GetIssue(issue.IssueID)
	require.NoError(t, err)
	require.Len(t, loaded.Comments, 1)
	assert.True(t, loaded.Comments[0].IsDeleted)
	assert.NotNil(t, loaded.Comments[0].DeletedDate)
}

func TestStatusUpdateCommentsAreImmutable(t *testing.T) {
	wf, db := newTestWorkflow(t)
	user := testUser("Noor")
	box := makeBox(t, wf, user, "BX-406")
	issue := makeIssue(t, wf, user, box)

	_, err := wf.Quality.ChangeStatus(user, issue.IssueID, models.ChangeIssueStatusRequest{Status: models.IssueStatusInProgress})
	require.NoError(t, err)

	var synthetic models.IssueComment
	require.NoError(t, db.First(&synthetic, "issue_id = ? AND is_status_update = ?", issue.IssueID, true).Error)

	_, err = wf.Quality.EditComment(user, synthetic.CommentID, "rewriting history")
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))

	err = wf.Quality.DeleteComment(user, synthetic.CommentID)
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestAssignValidatesTargets(t *testing.T) {
	wf, db := newTestWorkflow(t)
	user := testUser("Noor")
	box := makeBox(t, wf, user, "BX-407")
	issue := makeIssue(t, wf, user, box)

	team := models.Team{TeamID: uuid.New(), TeamName: "MEP Crew", IsActive: true}
	require.NoError(t, db.Create(&team).Error)
	member := models.TeamMember{MemberID: uuid.New(), TeamID: team.TeamID, EmployeeName: "K. Das", IsActive: true}
	require.NoError(t, db.Create(&member).Error)
	cc := models.User{ID: uuid.New(), Email: "lead@example.com", Password: "x", FirstName: "Site", LastName: "Lead", IsActive: true, CreatedAt: time.Now()}
	require.NoError(t, db.Create(&cc).Error)

	// member without a team is invalid
	_, err := wf.Quality.Assign(user, issue.IssueID, models.AssignIssueRequest{MemberID: &member.MemberID})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))

	// member must belong to the named team
	otherTeam := models.Team{TeamID: uuid.New(), TeamName: "Tiling Crew", IsActive: true}
	require.NoError(t, db.Create(&otherTeam).Error)
	_, err = wf.Quality.Assign(user, issue.IssueID, models.AssignIssueRequest{TeamID: &otherTeam.TeamID, MemberID: &member.MemberID})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))

	assigned, err := wf.Quality.Assign(user, issue.IssueID, models.AssignIssueRequest{
		TeamID:   &team.TeamID,
		MemberID: &member.MemberID,
		CcUserID: &cc.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, assigned.AssignedToTeamID)
	assert.Equal(t, team.TeamID, *assigned.AssignedToTeamID)
	require.NotNil(t, assigned.AssignedToMemberID)
	assert.Equal(t, member.MemberID, *assigned.AssignedToMemberID)

	// a nil target clears the previous assignment
	cleared, err := wf.Quality.Assign(user, issue.IssueID, models.AssignIssueRequest{TeamID: &team.TeamID})
	require.NoError(t, err)
	assert.Nil(t, cleared.AssignedToMemberID)
	assert.Nil(t, cleared.CcUserID)
}

func TestListByBoxFiltersStatus(t *testing.T) {
	wf, _ := newTestWorkflow(t)
	user := testUser("Noor")
	box := makeBox(t, wf, user, "BX-408")

	first := makeIssue(t, wf, user, box)
	makeIssue(t, wf, user, box)

	_, err := wf.Quality.ChangeStatus(user, first.IssueID, models.ChangeIssueStatusRequest{
		Status:         models.IssueStatusClosed,
		ResolutionText: "not reproducible",
	})
	require.NoError(t, err)

	all, err := wf.Quality.ListByBox(box.BoxID, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	open, err := wf.Quality.ListByBox(box.BoxID, models.IssueStatusOpen)
	require.NoError(t, err)
	assert.Len(t, open, 1)
}
