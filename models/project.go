package models

import (
	"time"

	"github.com/jinzhu/gorm"
)

// ApprovedState marks a project cleared by moderation for distribution.
const ApprovedState = "approved"

// Project is the marketplace's product record. The download core treats
// it as an external collaborator: read-only, except for the aggregate
// download counter bumped on each started download.
type Project struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id" sql:"index"`

	Title string `json:"title"`

	// Price in the smallest currency unit. Zero means free.
	Price    uint64 `json:"price"`
	Currency string `json:"currency"`

	ApprovalStatus string `json:"approval_status"`

	FilePath        string `json:"file_path"`
	FileName        string `json:"file_name"`
	FileSize        int64  `json:"file_size"`
	FileContentType string `json:"file_content_type"`

	DownloadCount uint64 `json:"download_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for the Project model.
func (Project) TableName() string {
	return tableName("projects")
}

// Approved reports whether moderation has cleared the project.
func (p *Project) Approved() bool {
	return p.ApprovalStatus == ApprovedState
}

// HasFile reports whether the project declares a deliverable file.
func (p *Project) HasFile() bool {
	return p.FilePath != ""
}

// FindProject loads a project by id.
func FindProject(db *gorm.DB, id string) (*Project, error) {
	project := &Project{}
	if result := db.Where("id = ?", id).First(project); result.Error != nil {
		if result.RecordNotFound() {
			return nil, NotFoundError("project")
		}
		return nil, result.Error
	}
	return project, nil
}

// BumpDownloadCount atomically increments the project's aggregate
// download counter in place.
func BumpDownloadCount(db *gorm.DB, projectID string) error {
	return db.Model(&Project{}).
		Where("id = ?", projectID).
		UpdateColumn("download_count", gorm.Expr("download_count + 1")).Error
}
