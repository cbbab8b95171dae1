package models

import (
	"encoding/json"
	"time"
)

// Audit actions emitted by the download authorization core.
const (
	AuditSessionCreated    = "SESSION_CREATED"
	AuditSessionExpired    = "SESSION_EXPIRED"
	AuditAccessValidated   = "ACCESS_VALIDATED"
	AuditAccessDenied      = "ACCESS_DENIED"
	AuditDownloadStarted   = "DOWNLOAD_STARTED"
	AuditDownloadCompleted = "DOWNLOAD_COMPLETED"
	AuditDownloadFailed    = "DOWNLOAD_FAILED"
)

// AuditEntry is an append-only record of an authorization decision or a
// download lifecycle event. Entries are never updated or deleted.
type AuditEntry struct {
	ID uint64 `json:"-"`

	SessionID string `json:"session_id,omitempty" sql:"index"`
	ProjectID string `json:"project_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`

	Action string `json:"action"`

	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`

	// Metadata holds action-specific fields as a JSON document.
	Metadata string `json:"metadata,omitempty" sql:"type:text"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for the AuditEntry model.
func (AuditEntry) TableName() string {
	return tableName("download_audit")
}

// SetMetadata serializes the given fields into the entry's metadata
// document. Marshal failures leave the metadata empty rather than
// blocking the write.
func (e *AuditEntry) SetMetadata(fields map[string]interface{}) {
	if len(fields) == 0 {
		return
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return
	}
	e.Metadata = string(raw)
}
