package downloads

import (
	"time"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/craftista/godownload/models"
)

// allowedTransitions is the session state machine. Transitions are
// monotone: nothing re-enters INITIATED and EXPIRED is terminal.
// COMPLETED and FAILED may re-enter IN_PROGRESS because a capability can
// be redeemed repeatedly until it expires.
var allowedTransitions = map[string][]string{
	models.SessionInitiated:  {models.SessionInProgress, models.SessionFailed, models.SessionExpired},
	models.SessionInProgress: {models.SessionCompleted, models.SessionFailed, models.SessionExpired},
	models.SessionCompleted:  {models.SessionInProgress, models.SessionExpired},
	models.SessionFailed:     {models.SessionInProgress, models.SessionExpired},
	models.SessionExpired:    {},
}

// transitionAudit maps each target status to the audit action recorded
// for the transition.
var transitionAudit = map[string]string{
	models.SessionInProgress: models.AuditDownloadStarted,
	models.SessionCompleted:  models.AuditDownloadCompleted,
	models.SessionFailed:     models.AuditDownloadFailed,
	models.SessionExpired:    models.AuditSessionExpired,
}

// SessionStore persists download sessions and emits an audit entry for
// every state change.
type SessionStore struct {
	db    *gorm.DB
	audit AuditLogger
	log   logrus.FieldLogger
}

// NewSessionStore returns a store over the given database.
func NewSessionStore(db *gorm.DB, audit AuditLogger) *SessionStore {
	return &SessionStore{
		db:    db,
		audit: audit,
		log:   logrus.WithField("component", "sessions"),
	}
}

// Create persists a new INITIATED session.
func (s *SessionStore) Create(projectID, userID, accessType, sourceTransactionID string, ttl time.Duration, client *ClientContext) (*models.DownloadSession, error) {
	session := models.NewDownloadSession(projectID, userID, accessType, sourceTransactionID, ttl)
	if client != nil {
		session.IP = client.IP
		session.UserAgent = client.UserAgent
	}

	if err := s.db.Create(session).Error; err != nil {
		return nil, errors.Wrap(err, "creating download session")
	}

	meta := map[string]interface{}{
		"access_type": accessType,
		"expires_at":  session.ExpiresAt,
	}
	if sourceTransactionID != "" {
		meta["source_transaction_id"] = sourceTransactionID
	}
	s.audit.Log(auditEntry(session.ID, projectID, userID, models.AuditSessionCreated, client, meta))

	return session, nil
}

// Get loads a session by id.
func (s *SessionStore) Get(sessionID string) (*models.DownloadSession, error) {
	session := &models.DownloadSession{}
	if result := s.db.Where("id = ?", sessionID).First(session); result.Error != nil {
		if result.RecordNotFound() {
			return nil, NotFoundError("Download session not found")
		}
		return nil, errors.Wrap(result.Error, "loading download session")
	}
	return session, nil
}

// Transition moves the session to newStatus, enforcing the state machine
// and recording the change in the audit trail.
func (s *SessionStore) Transition(sessionID, newStatus string, meta map[string]interface{}) (*models.DownloadSession, error) {
	session, err := s.Get(sessionID)
	if err != nil {
		return nil, err
	}

	if !transitionAllowed(session.Status, newStatus) {
		return nil, errors.Errorf("invalid session transition %s -> %s", session.Status, newStatus)
	}

	result := s.db.Model(&models.DownloadSession{}).
		Where("id = ?", sessionID).
		Update("status", newStatus)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "updating session status")
	}
	session.Status = newStatus

	action, ok := transitionAudit[newStatus]
	if ok {
		s.audit.Log(auditEntry(session.ID, session.ProjectID, session.UserID, action, nil, meta))
	}

	return session, nil
}

// IncrementDownloadCount bumps the session's counter as a single atomic
// update in place. Concurrent redemptions must not lose updates, so this
// is never a read-modify-write pair.
func (s *SessionStore) IncrementDownloadCount(sessionID string) (*models.DownloadSession, error) {
	now := time.Now()
	result := s.db.Model(&models.DownloadSession{}).
		Where("id = ?", sessionID).
		Updates(map[string]interface{}{
			"download_count":   gorm.Expr("download_count + 1"),
			"last_download_at": now,
		})
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "incrementing download count")
	}
	if result.RowsAffected == 0 {
		return nil, NotFoundError("Download session not found")
	}

	return s.Get(sessionID)
}

func transitionAllowed(from, to string) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
