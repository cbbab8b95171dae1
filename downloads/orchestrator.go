package downloads

import (
	"time"

	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"

	"github.com/craftista/godownload/access"
	"github.com/craftista/godownload/models"
	"github.com/craftista/godownload/tokens"
)

// Denial reasons recorded on ACCESS_DENIED audit entries and returned by
// ValidateAccess.
const (
	ReasonInvalidToken    = "invalid_token"
	ReasonTokenExpired    = "token_expired"
	ReasonSessionNotFound = "session_not_found"
	ReasonSessionExpired  = "session_expired"
	ReasonProjectNotFound = "project_not_found"
	ReasonFileMissing     = "file_missing"
	ReasonNotApproved     = "project_not_approved"
	ReasonNoEntitlement   = "no_entitlement"
	ReasonLockedOut       = "locked_out"
)

// CreateSessionResult is returned when a download session is opened.
type CreateSessionResult struct {
	SessionID  string    `json:"session_id"`
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expires_at"`
	AccessType string    `json:"access_type"`
}

// ValidationResult reports the outcome of a capability validation. An
// invalid or expired token is not an error: the result carries the
// reason instead.
type ValidationResult struct {
	Valid   bool                    `json:"valid"`
	Reason  string                  `json:"reason,omitempty"`
	Session *models.DownloadSession `json:"session,omitempty"`
	Project *models.Project         `json:"project,omitempty"`
}

// ProjectAnalytics aggregates a project's download activity for its
// owner or an administrator.
type ProjectAnalytics struct {
	ProjectID         string     `json:"project_id"`
	TotalSessions     uint64     `json:"total_sessions"`
	CompletedSessions uint64     `json:"completed_sessions"`
	FailedSessions    uint64     `json:"failed_sessions"`
	ActiveSessions    uint64     `json:"active_sessions"`
	TotalDownloads    uint64     `json:"total_downloads"`
	UniqueUsers       uint64     `json:"unique_users"`
	LastDownloadAt    *time.Time `json:"last_download_at,omitempty"`
}

// Orchestrator composes entitlement resolution, capability issuance and
// session tracking into the create -> validate -> stream -> finalize
// protocol.
type Orchestrator struct {
	db       *gorm.DB
	resolver *access.Resolver
	codec    *tokens.Codec
	sessions *SessionStore
	audit    AuditLogger
	files    *FileResolver
	log      logrus.FieldLogger
}

// NewOrchestrator wires the download core over the given database, codec
// and storage root.
func NewOrchestrator(db *gorm.DB, codec *tokens.Codec, storageRoot string) *Orchestrator {
	audit := NewAuditLogger(db)
	return &Orchestrator{
		db:       db,
		resolver: access.NewResolver(db),
		codec:    codec,
		sessions: NewSessionStore(db, audit),
		audit:    audit,
		files:    NewFileResolver(storageRoot),
		log:      logrus.WithField("component", "downloads"),
	}
}

// Sessions exposes the underlying session store.
func (o *Orchestrator) Sessions() *SessionStore {
	return o.sessions
}

// CreateSession resolves the user's entitlement to the project, opens an
// INITIATED session and issues the capability token bound to it. The
// admin override short-circuits before the resolver so no purchase
// lookups run for administrators.
func (o *Orchestrator) CreateSession(userID, projectID string, isAdmin bool, client *ClientContext) (*CreateSessionResult, error) {
	var decision *access.Decision
	if isAdmin {
		if _, err := models.FindProject(o.db, projectID); err != nil {
			return nil, o.mapLookupError(err, "project")
		}
		decision = &access.Decision{AccessType: models.AccessAdmin}
	} else {
		var err error
		decision, err = o.resolver.Resolve(userID, projectID)
		if err != nil {
			return nil, o.mapLookupError(err, "project")
		}
	}

	if decision == nil {
		o.audit.Log(auditEntry("", projectID, userID, models.AuditAccessDenied, client,
			map[string]interface{}{"reason": ReasonNoEntitlement}))
		return nil, ForbiddenError("No download access to this project")
	}

	session, err := o.sessions.Create(projectID, userID, decision.AccessType, decision.SourceTransactionID, o.codec.TTL(), client)
	if err != nil {
		return nil, err
	}

	token, err := o.codec.Issue(projectID, userID, decision.AccessType, session.ID)
	if err != nil {
		return nil, err
	}

	return &CreateSessionResult{
		SessionID:  session.ID,
		Token:      token,
		ExpiresAt:  session.ExpiresAt,
		AccessType: decision.AccessType,
	}, nil
}

// ValidateAccess verifies a presented capability and re-checks that the
// grant still holds. Denials never surface as errors; every denial is
// recorded on the audit trail with its reason, using whatever claims
// could still be decoded. The stored session's expiry is canonical; the
// token is possession proof only.
func (o *Orchestrator) ValidateAccess(token string, callerIsAdmin bool, client *ClientContext) (*ValidationResult, error) {
	claims, err := o.codec.Verify(token)
	switch err {
	case nil:
	case tokens.ErrExpiredToken:
		return o.deny(claims, nil, ReasonTokenExpired, client), nil
	case tokens.ErrInvalidToken:
		return o.deny(claims, nil, ReasonInvalidToken, client), nil
	default:
		return nil, err
	}

	session, err := o.sessions.Get(claims.SessionID)
	if err != nil {
		if IsKind(err, KindNotFound) {
			return o.deny(claims, nil, ReasonSessionNotFound, client), nil
		}
		return nil, err
	}

	if session.Status == models.SessionExpired {
		return o.deny(claims, session, ReasonSessionExpired, client), nil
	}
	if session.Expired(time.Now()) {
		o.expireSession(session)
		return o.deny(claims, session, ReasonSessionExpired, client), nil
	}

	project, err := models.FindProject(o.db, session.ProjectID)
	if err != nil {
		if models.IsNotFoundError(err) {
			return o.deny(claims, session, ReasonProjectNotFound, client), nil
		}
		return nil, err
	}

	if !project.HasFile() {
		return o.deny(claims, session, ReasonFileMissing, client), nil
	}

	ownerAccess := session.AccessType == models.AccessOwner || session.AccessType == models.AccessAdmin
	if !ownerAccess && !callerIsAdmin && !project.Approved() {
		return o.deny(claims, session, ReasonNotApproved, client), nil
	}

	o.audit.Log(auditEntry(session.ID, session.ProjectID, session.UserID, models.AuditAccessValidated, client,
		map[string]interface{}{"access_type": session.AccessType}))

	return &ValidationResult{Valid: true, Session: session, Project: project}, nil
}

// StartDownload authorizes one redemption of the session: it re-checks
// expiry, locates the deliverable file and moves the session to
// IN_PROGRESS. Sessions already COMPLETED or FAILED may be redeemed
// again within their validity window; each redemption bumps the counter.
func (o *Orchestrator) StartDownload(sessionID string, client *ClientContext) (*FileInfo, *models.DownloadSession, error) {
	session, err := o.sessions.Get(sessionID)
	if err != nil {
		return nil, nil, err
	}

	if session.Status == models.SessionExpired {
		o.audit.Log(auditEntry(session.ID, session.ProjectID, session.UserID, models.AuditAccessDenied, client,
			map[string]interface{}{"reason": ReasonSessionExpired}))
		return nil, nil, ExpiredError("Download session has expired")
	}
	if session.Expired(time.Now()) {
		o.expireSession(session)
		o.audit.Log(auditEntry(session.ID, session.ProjectID, session.UserID, models.AuditAccessDenied, client,
			map[string]interface{}{"reason": ReasonSessionExpired}))
		return nil, nil, ExpiredError("Download session has expired")
	}

	project, err := models.FindProject(o.db, session.ProjectID)
	if err != nil {
		return nil, nil, o.mapLookupError(err, "project")
	}

	fileInfo, err := o.files.Resolve(project)
	if err != nil {
		return nil, nil, err
	}

	if _, err := o.sessions.Transition(sessionID, models.SessionInProgress, map[string]interface{}{
		"file_name": fileInfo.Name,
		"file_size": fileInfo.Size,
	}); err != nil {
		return nil, nil, err
	}

	session, err = o.sessions.IncrementDownloadCount(sessionID)
	if err != nil {
		return nil, nil, err
	}

	if err := models.BumpDownloadCount(o.db, project.ID); err != nil {
		return nil, nil, err
	}

	return fileInfo, session, nil
}

// CompleteDownload finalizes a redemption. It never fails the caller: by
// the time it runs the byte transfer has already succeeded or failed on
// its own, so bookkeeping problems are swallowed, logged and counted.
func (o *Orchestrator) CompleteDownload(sessionID string, success bool, bytesTransferred int64) {
	target := models.SessionCompleted
	if !success {
		target = models.SessionFailed
	}

	meta := map[string]interface{}{"success": success}
	if bytesTransferred > 0 {
		meta["bytes_transferred"] = bytesTransferred
	}

	if _, err := o.sessions.Transition(sessionID, target, meta); err != nil {
		o.log.WithError(err).WithFields(logrus.Fields{
			"session_id": sessionID,
			"success":    success,
		}).Error("failed to finalize download session")
		bookkeepingFailures.Inc()
	}
}

// History returns the user's sessions, newest first, with the total
// count for pagination.
func (o *Orchestrator) History(userID string, offset, limit int) ([]models.DownloadSession, uint64, error) {
	query := o.db.Model(&models.DownloadSession{}).Where("user_id = ?", userID)

	var total uint64
	if result := query.Count(&total); result.Error != nil {
		return nil, 0, result.Error
	}

	var sessions []models.DownloadSession
	result := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&sessions)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	return sessions, total, nil
}

// Analytics aggregates the project's download activity. Only the project
// owner or an administrator may read it.
func (o *Orchestrator) Analytics(projectID, requesterID string, isAdmin bool) (*ProjectAnalytics, error) {
	project, err := models.FindProject(o.db, projectID)
	if err != nil {
		return nil, o.mapLookupError(err, "project")
	}

	if !isAdmin && project.OwnerID != requesterID {
		return nil, ForbiddenError("Only the project owner can view download analytics")
	}

	stats := &ProjectAnalytics{
		ProjectID:      projectID,
		TotalDownloads: project.DownloadCount,
	}

	rows, err := o.db.Model(&models.DownloadSession{}).
		Select("status, count(*)").
		Where("project_id = ?", projectID).
		Group("status").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count uint64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.TotalSessions += count
		switch status {
		case models.SessionCompleted:
			stats.CompletedSessions = count
		case models.SessionFailed:
			stats.FailedSessions = count
		case models.SessionInitiated, models.SessionInProgress:
			stats.ActiveSessions += count
		}
	}

	userRows, err := o.db.Model(&models.DownloadSession{}).
		Select("count(distinct(user_id))").
		Where("project_id = ?", projectID).
		Rows()
	if err != nil {
		return nil, err
	}
	defer userRows.Close()
	for userRows.Next() {
		if err := userRows.Scan(&stats.UniqueUsers); err != nil {
			return nil, err
		}
	}

	last := &models.DownloadSession{}
	result := o.db.
		Where("project_id = ? AND last_download_at IS NOT NULL", projectID).
		Order("last_download_at desc").
		First(last)
	if result.Error == nil {
		stats.LastDownloadAt = last.LastDownloadAt
	} else if !result.RecordNotFound() {
		return nil, result.Error
	}

	return stats, nil
}

// AuditTrail returns a session's audit entries in the order they were
// written.
func (o *Orchestrator) AuditTrail(sessionID string) ([]models.AuditEntry, error) {
	if _, err := o.sessions.Get(sessionID); err != nil {
		return nil, err
	}

	entries := []models.AuditEntry{}
	if result := o.db.Where("session_id = ?", sessionID).Order("id asc").Find(&entries); result.Error != nil {
		return nil, result.Error
	}
	return entries, nil
}

// deny records the denial on the audit trail with whatever identifiers
// are known and returns the negative validation result.
func (o *Orchestrator) deny(claims *tokens.Claims, session *models.DownloadSession, reason string, client *ClientContext) *ValidationResult {
	var sessionID, projectID, userID string
	if session != nil {
		sessionID, projectID, userID = session.ID, session.ProjectID, session.UserID
	} else if claims != nil {
		sessionID, projectID, userID = claims.SessionID, claims.ProjectID, claims.UserID
	}

	o.audit.Log(auditEntry(sessionID, projectID, userID, models.AuditAccessDenied, client,
		map[string]interface{}{"reason": reason}))

	return &ValidationResult{Valid: false, Reason: reason}
}

// expireSession lazily moves a session past its horizon to EXPIRED.
func (o *Orchestrator) expireSession(session *models.DownloadSession) {
	if _, err := o.sessions.Transition(session.ID, models.SessionExpired, nil); err != nil {
		o.log.WithError(err).WithField("session_id", session.ID).Warn("failed to expire session")
	} else {
		session.Status = models.SessionExpired
	}
}

func (o *Orchestrator) mapLookupError(err error, what string) error {
	if models.IsNotFoundError(err) {
		return NotFoundError("No such %s", what)
	}
	return err
}
