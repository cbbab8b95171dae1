package testutils

import (
	"io/ioutil"
	"path/filepath"
	"time"

	"github.com/jinzhu/gorm"
	"github.com/pborman/uuid"

	"github.com/craftista/godownload/models"
)

// Fixtures is a pre-wired marketplace snapshot for tests: three users,
// a free and a paid approved project with files on disk, an unapproved
// project, and a completed purchase of the paid project by the buyer.
type Fixtures struct {
	Buyer  *models.User
	Seller *models.User
	Admin  *models.User

	FreeProject       *models.Project
	PaidProject       *models.Project
	UnapprovedProject *models.Project

	Purchase *models.Purchase
}

// Passwords used by the fixture accounts.
const (
	BuyerPassword  = "buyer-password"
	SellerPassword = "seller-password"
	AdminPassword  = "admin-password"
)

// LoadTestData populates the database and storage root with the
// fixture snapshot.
func LoadTestData(db *gorm.DB, storageRoot string) (*Fixtures, error) {
	f := &Fixtures{}
	var err error

	if f.Buyer, err = createUser(db, "buyer@example.com", BuyerPassword, ""); err != nil {
		return nil, err
	}
	if f.Seller, err = createUser(db, "seller@example.com", SellerPassword, ""); err != nil {
		return nil, err
	}
	if f.Admin, err = createUser(db, "admin@example.com", AdminPassword, models.AdminRole); err != nil {
		return nil, err
	}

	if f.FreeProject, err = createProject(db, storageRoot, f.Seller.ID, 0, models.ApprovedState); err != nil {
		return nil, err
	}
	if f.PaidProject, err = createProject(db, storageRoot, f.Seller.ID, 2500, models.ApprovedState); err != nil {
		return nil, err
	}
	if f.UnapprovedProject, err = createProject(db, storageRoot, f.Seller.ID, 1500, "pending"); err != nil {
		return nil, err
	}

	now := time.Now()
	f.Purchase = &models.Purchase{
		ID:          uuid.NewRandom().String(),
		UserID:      f.Buyer.ID,
		ProjectID:   f.PaidProject.ID,
		Amount:      f.PaidProject.Price,
		Currency:    "usd",
		Status:      models.CompletedState,
		Type:        models.PurchaseTransactionType,
		CompletedAt: &now,
	}
	if err := db.Create(f.Purchase).Error; err != nil {
		return nil, err
	}

	return f, nil
}

func createUser(db *gorm.DB, email, password, role string) (*models.User, error) {
	user := &models.User{
		ID:    uuid.NewRandom().String(),
		Email: email,
		Role:  role,
	}
	if err := user.SetPassword(password); err != nil {
		return nil, err
	}
	if err := db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func createProject(db *gorm.DB, storageRoot, ownerID string, price uint64, approvalStatus string) (*models.Project, error) {
	project := &models.Project{
		ID:              uuid.NewRandom().String(),
		OwnerID:         ownerID,
		Title:           "fixture project",
		Price:           price,
		Currency:        "usd",
		ApprovalStatus:  approvalStatus,
		FilePath:        uuid.NewRandom().String() + ".zip",
		FileName:        "bundle.zip",
		FileContentType: "application/zip",
	}

	content := []byte("fixture archive contents")
	if err := ioutil.WriteFile(filepath.Join(storageRoot, project.FilePath), content, 0644); err != nil {
		return nil, err
	}
	project.FileSize = int64(len(content))

	if err := db.Create(project).Error; err != nil {
		return nil, err
	}
	return project, nil
}
