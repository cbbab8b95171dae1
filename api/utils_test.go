package api

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/jinzhu/gorm"
	"github.com/stretchr/testify/require"

	"github.com/craftista/godownload/claims"
	"github.com/craftista/godownload/conf"
	"github.com/craftista/godownload/lockout"
	"github.com/craftista/godownload/models"
	"github.com/craftista/godownload/testutils"
)

const testLockoutDuration = 200 * time.Millisecond

var (
	testDB       *gorm.DB
	testConfig   *conf.Configuration
	testAPI      *API
	testFixtures *testutils.Fixtures
)

func TestMain(m *testing.M) {
	f, err := ioutil.TempFile("", "test-db")
	if err != nil {
		panic(err)
	}
	defer os.Remove(f.Name())

	storageRoot, err := ioutil.TempDir("", "test-storage")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(storageRoot)

	testConfig = &conf.Configuration{}
	testConfig.DB.Driver = "sqlite3"
	testConfig.DB.ConnURL = f.Name()
	testConfig.JWT.Secret = "test-signing-secret"
	testConfig.JWT.AdminGroupName = "admin"
	testConfig.Downloads.TokenTTL = time.Hour
	testConfig.Downloads.StorageRoot = storageRoot
	testConfig.Lockout.MaxAttempts = 5
	testConfig.Lockout.Duration = testLockoutDuration

	testDB, err = models.Connect(testConfig)
	if err != nil {
		panic(err)
	}
	defer testDB.Close()

	testFixtures, err = testutils.LoadTestData(testDB, storageRoot)
	if err != nil {
		panic(err)
	}

	guard := lockout.New(lockout.NewMemoryStore(), testConfig.Lockout.MaxAttempts, testConfig.Lockout.Duration)
	testAPI, err = NewAPIWithVersion(testConfig, testDB, guard, "testing")
	if err != nil {
		panic(err)
	}

	os.Exit(m.Run())
}

func signedTestToken(t *testing.T, user *models.User) string {
	userClaims := &claims.JWTClaims{
		ID:    user.ID,
		Email: user.Email,
		StandardClaims: jwt.StandardClaims{
			Subject:   user.ID,
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
	}
	if user.Role != "" {
		userClaims.AppMetaData = map[string]interface{}{
			"roles": []interface{}{user.Role},
		}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, userClaims).SignedString([]byte(testConfig.JWT.Secret))
	require.NoError(t, err)
	return signed
}

func testRequest(t *testing.T, method, path string, body interface{}, user *models.User) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if user != nil {
		req.Header.Set("Authorization", "Bearer "+signedTestToken(t, user))
	}

	w := httptest.NewRecorder()
	testAPI.ServeHTTP(w, req)
	return w
}

func extractPayload(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	require.NoError(t, json.NewDecoder(w.Body).Decode(out), "body: %s", w.Body.String())
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	require.Equal(t, expected, w.Code, "body: %s", w.Body.String())
}

func validateError(t *testing.T, w *httptest.ResponseRecorder, expectedCode int) *HTTPError {
	requireStatus(t, w, expectedCode)

	httpErr := &HTTPError{}
	extractPayload(t, w, httpErr)
	require.Equal(t, expectedCode, httpErr.Code)
	require.NotEmpty(t, httpErr.Message)
	return httpErr
}
