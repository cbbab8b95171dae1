package models

import (
	"time"

	"github.com/pborman/uuid"
)

// Access classifications for a download session. The classification is
// computed once at session creation and recorded on the session.
const (
	AccessOwner     = "OWNER"
	AccessPurchased = "PURCHASED"
	AccessFree      = "FREE"
	AccessAdmin     = "ADMIN"
)

// Session statuses. Transitions are monotone: a session never re-enters
// INITIATED, and EXPIRED is terminal.
const (
	SessionInitiated  = "INITIATED"
	SessionInProgress = "IN_PROGRESS"
	SessionCompleted  = "COMPLETED"
	SessionFailed     = "FAILED"
	SessionExpired    = "EXPIRED"
)

// DownloadSession represents one authorized download lifecycle. Terminal
// sessions are retained for history and analytics, never deleted.
type DownloadSession struct {
	ID string `json:"id"`

	ProjectID string `json:"project_id" sql:"index"`
	UserID    string `json:"user_id" sql:"index"`

	AccessType string `json:"access_type"`
	Status     string `json:"status"`

	DownloadCount uint64 `json:"download_count"`

	// SourceTransactionID is a weak reference back to the purchase that
	// granted access. Only set for PURCHASED sessions.
	SourceTransactionID string `json:"source_transaction_id,omitempty"`

	// Advisory client context. Never consulted for authorization.
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`

	CreatedAt      time.Time  `json:"created_at"`
	ExpiresAt      time.Time  `json:"expires_at"`
	LastDownloadAt *time.Time `json:"last_download_at,omitempty"`
}

// TableName returns the database table name for the DownloadSession model.
func (DownloadSession) TableName() string {
	return tableName("download_sessions")
}

// NewDownloadSession creates a session in the INITIATED state. ExpiresAt
// is fixed here and never extended afterwards.
func NewDownloadSession(projectID, userID, accessType, sourceTransactionID string, ttl time.Duration) *DownloadSession {
	now := time.Now()
	return &DownloadSession{
		ID:                  uuid.NewRandom().String(),
		ProjectID:           projectID,
		UserID:              userID,
		AccessType:          accessType,
		Status:              SessionInitiated,
		SourceTransactionID: sourceTransactionID,
		CreatedAt:           now,
		ExpiresAt:           now.Add(ttl),
	}
}

// Expired reports whether the session's validity window has passed. The
// stored ExpiresAt is the sole timing oracle for authorization decisions.
func (s *DownloadSession) Expired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}
