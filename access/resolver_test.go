package access

import (
	"io/ioutil"
	"os"
	"testing"
	"time"

	"github.com/jinzhu/gorm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftista/godownload/conf"
	"github.com/craftista/godownload/models"
)

var db *gorm.DB

func TestMain(m *testing.M) {
	f, err := ioutil.TempFile("", "test-db")
	if err != nil {
		panic(err)
	}
	defer os.Remove(f.Name())

	config := &conf.Configuration{}
	config.DB.Driver = "sqlite3"
	config.DB.ConnURL = f.Name()

	db, err = models.Connect(config)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	os.Exit(m.Run())
}

func createProject(t *testing.T, id, ownerID string, price uint64) *models.Project {
	project := &models.Project{
		ID:             id,
		OwnerID:        ownerID,
		Title:          "test project " + id,
		Price:          price,
		Currency:       "usd",
		ApprovalStatus: models.ApprovedState,
		FilePath:       id + ".zip",
	}
	require.NoError(t, db.Create(project).Error)
	return project
}

func createPurchase(t *testing.T, id, userID, projectID, status, purchaseType string, completedAt time.Time) *models.Purchase {
	purchase := &models.Purchase{
		ID:          id,
		UserID:      userID,
		ProjectID:   projectID,
		Amount:      1500,
		Currency:    "usd",
		Status:      status,
		Type:        purchaseType,
		CompletedAt: &completedAt,
	}
	require.NoError(t, db.Create(purchase).Error)
	return purchase
}

func TestResolveOwner(t *testing.T) {
	createProject(t, "owned", "seller", 1500)

	decision, err := NewResolver(db).Resolve("seller", "owned")
	require.NoError(t, err)
	require.NotNil(t, decision)
	assert.Equal(t, models.AccessOwner, decision.AccessType)
	assert.Empty(t, decision.SourceTransactionID)
}

func TestResolveOwnerPrecedesPurchase(t *testing.T) {
	// the seller somehow bought their own project; ownership still wins
	createProject(t, "owned-and-bought", "seller2", 1500)
	createPurchase(t, "tx-own", "seller2", "owned-and-bought", models.CompletedState, models.PurchaseTransactionType, time.Now())

	decision, err := NewResolver(db).Resolve("seller2", "owned-and-bought")
	require.NoError(t, err)
	require.NotNil(t, decision)
	assert.Equal(t, models.AccessOwner, decision.AccessType)
}

func TestResolveFree(t *testing.T) {
	createProject(t, "freebie", "seller", 0)

	decision, err := NewResolver(db).Resolve("anyone-at-all", "freebie")
	require.NoError(t, err)
	require.NotNil(t, decision)
	assert.Equal(t, models.AccessFree, decision.AccessType)
}

func TestResolvePurchasedMostRecent(t *testing.T) {
	createProject(t, "paid", "seller", 2500)
	createPurchase(t, "tx-old", "buyer", "paid", models.CompletedState, models.PurchaseTransactionType, time.Now().Add(-48*time.Hour))
	createPurchase(t, "tx-new", "buyer", "paid", models.CompletedState, models.PurchaseTransactionType, time.Now().Add(-time.Hour))

	decision, err := NewResolver(db).Resolve("buyer", "paid")
	require.NoError(t, err)
	require.NotNil(t, decision)
	assert.Equal(t, models.AccessPurchased, decision.AccessType)
	assert.Equal(t, "tx-new", decision.SourceTransactionID)
}

func TestResolveIgnoresNonQualifyingPurchases(t *testing.T) {
	createProject(t, "paid2", "seller", 2500)
	createPurchase(t, "tx-pending", "buyer2", "paid2", "pending", models.PurchaseTransactionType, time.Now())
	createPurchase(t, "tx-refund", "buyer2", "paid2", models.CompletedState, "refund", time.Now())

	decision, err := NewResolver(db).Resolve("buyer2", "paid2")
	require.NoError(t, err)
	assert.Nil(t, decision)
}

func TestResolveNoEntitlement(t *testing.T) {
	createProject(t, "paid3", "seller", 2500)

	decision, err := NewResolver(db).Resolve("stranger", "paid3")
	require.NoError(t, err)
	assert.Nil(t, decision)
}

func TestResolveMissingProject(t *testing.T) {
	decision, err := NewResolver(db).Resolve("anyone", "no-such-project")
	assert.Nil(t, decision)
	require.Error(t, err)
	assert.True(t, models.IsNotFoundError(err))
}
