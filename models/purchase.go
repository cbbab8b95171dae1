package models

import (
	"time"

	"github.com/jinzhu/gorm"
)

// PurchaseTransactionType is the transaction type that grants access.
// Refunds and chargebacks never do.
const PurchaseTransactionType = "purchase"

// CompletedState is the purchase status required for entitlement.
const CompletedState = "completed"

// Purchase is the marketplace's payment record for a project. The
// download core only ever reads it.
type Purchase struct {
	ID string `json:"id"`

	UserID    string `json:"user_id" sql:"index"`
	ProjectID string `json:"project_id" sql:"index"`

	Amount   uint64 `json:"amount"`
	Currency string `json:"currency"`

	Status string `json:"status"`
	Type   string `json:"type"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TableName returns the database table name for the Purchase model.
func (Purchase) TableName() string {
	return tableName("purchases")
}

// FindCompletedPurchase returns the most recently completed purchase of
// the project by the user, or a not-found error when none exists.
func FindCompletedPurchase(db *gorm.DB, userID, projectID string) (*Purchase, error) {
	purchase := &Purchase{}
	result := db.
		Where("user_id = ? AND project_id = ? AND status = ? AND type = ?",
			userID, projectID, CompletedState, PurchaseTransactionType).
		Order("completed_at desc").
		First(purchase)
	if result.Error != nil {
		if result.RecordNotFound() {
			return nil, NotFoundError("purchase")
		}
		return nil, result.Error
	}
	return purchase, nil
}
