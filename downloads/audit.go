package downloads

import (
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"

	"github.com/craftista/godownload/models"
)

// ClientContext is the advisory origin of a request. It is recorded for
// audit purposes and never consulted for authorization.
type ClientContext struct {
	IP        string
	UserAgent string
}

// AuditLogger appends immutable records of authorization decisions and
// download lifecycle events.
type AuditLogger interface {
	// Log appends the entry. Failures are logged and counted, never
	// returned: a broken audit sink must not fail the operation it is
	// recording.
	Log(entry *models.AuditEntry)
}

type dbAuditLogger struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// NewAuditLogger returns an audit logger appending to the database.
func NewAuditLogger(db *gorm.DB) AuditLogger {
	return &dbAuditLogger{
		db:  db,
		log: logrus.WithField("component", "audit"),
	}
}

func (a *dbAuditLogger) Log(entry *models.AuditEntry) {
	if err := a.db.Create(entry).Error; err != nil {
		a.log.WithError(err).WithFields(logrus.Fields{
			"action":     entry.Action,
			"session_id": entry.SessionID,
		}).Error("failed to write audit entry")
		auditWriteFailures.Inc()
	}
}

// LockoutDenied builds the ACCESS_DENIED entry for a lockout veto. The
// guard fires before any session or project is known, so only the guard
// identifier and client context get recorded.
func LockoutDenied(identifier string, client *ClientContext) *models.AuditEntry {
	return auditEntry("", "", "", models.AuditAccessDenied, client, map[string]interface{}{
		"reason":     ReasonLockedOut,
		"identifier": identifier,
	})
}

// auditEntry builds an entry, attaching client context and serialized
// metadata when present.
func auditEntry(sessionID, projectID, userID, action string, client *ClientContext, meta map[string]interface{}) *models.AuditEntry {
	entry := &models.AuditEntry{
		SessionID: sessionID,
		ProjectID: projectID,
		UserID:    userID,
		Action:    action,
	}
	if client != nil {
		entry.IP = client.IP
		entry.UserAgent = client.UserAgent
	}
	entry.SetMetadata(meta)
	return entry
}
