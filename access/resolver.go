package access

import (
	"github.com/jinzhu/gorm"

	"github.com/craftista/godownload/models"
)

// Decision is the outcome of entitlement resolution for a (user, project)
// pair. SourceTransactionID is only set for purchased access.
type Decision struct {
	AccessType          string
	SourceTransactionID string
}

// Resolver computes the access classification for a user on a project.
// It only reads the marketplace's project and purchase records and has
// no side effects. The admin override is the caller's concern: it must
// short-circuit before resolution so no lookups run for admins.
type Resolver struct {
	db *gorm.DB
}

// NewResolver returns a resolver reading from the given database.
func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// Resolve classifies the user's access to the project. Precedence, first
// match wins: project owner, free project, completed purchase. A nil
// decision with a nil error means no entitlement exists.
func (r *Resolver) Resolve(userID, projectID string) (*Decision, error) {
	project, err := models.FindProject(r.db, projectID)
	if err != nil {
		return nil, err
	}

	if project.OwnerID == userID {
		return &Decision{AccessType: models.AccessOwner}, nil
	}

	if project.Price == 0 {
		return &Decision{AccessType: models.AccessFree}, nil
	}

	purchase, err := models.FindCompletedPurchase(r.db, userID, projectID)
	if err != nil {
		if models.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}

	return &Decision{
		AccessType:          models.AccessPurchased,
		SourceTransactionID: purchase.ID,
	}, nil
}
