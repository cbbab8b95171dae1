package conf

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigWithOverrides(t *testing.T) {
	original := Configuration{}
	original.JWT.Secret = "jwt-secret"
	original.DB.Driver = "db-driver"
	original.DB.ConnURL = "conn-url"
	original.API.Host = "api-host"
	original.API.Port = 12356
	original.Downloads.StorageRoot = "/srv/files"
	original.Lockout.MaxAttempts = 3

	tmpfile, err := ioutil.TempFile("", "godownload-test")
	assert.Nil(t, err)

	fname := tmpfile.Name() + ".json"
	err = os.Rename(tmpfile.Name(), fname)
	assert.Nil(t, err)
	defer os.Remove(fname)

	content, err := json.Marshal(&original)
	assert.Nil(t, err)

	err = ioutil.WriteFile(fname, content, 0755)
	assert.Nil(t, err)

	// override some values
	os.Setenv("GODOWNLOAD_JWT_SECRET", "env-jwt-secret")
	os.Setenv("GODOWNLOAD_DB_DRIVER", "env-db-driver")
	os.Setenv("GODOWNLOAD_API_PORT", "456456")
	os.Setenv("GODOWNLOAD_LOCKOUT_REDIS_URL", "redis://env-redis:6379")
	defer func() {
		os.Unsetenv("GODOWNLOAD_JWT_SECRET")
		os.Unsetenv("GODOWNLOAD_DB_DRIVER")
		os.Unsetenv("GODOWNLOAD_API_PORT")
		os.Unsetenv("GODOWNLOAD_LOCKOUT_REDIS_URL")
	}()

	config, err := Load(fname)
	assert.Nil(t, err)
	assert.NotNil(t, config)

	// check we loaded from the file
	assert.Equal(t, original.DB.ConnURL, config.DB.ConnURL)
	assert.Equal(t, original.API.Host, config.API.Host)
	assert.Equal(t, original.Downloads.StorageRoot, config.Downloads.StorageRoot)
	assert.Equal(t, original.Lockout.MaxAttempts, config.Lockout.MaxAttempts)

	// check we got the overrides
	assert.Equal(t, "env-jwt-secret", config.JWT.Secret)
	assert.Equal(t, "env-db-driver", config.DB.Driver)
	assert.EqualValues(t, 456456, config.API.Port)
	assert.Equal(t, "redis://env-redis:6379", config.Lockout.RedisURL)
}

func TestConfigDefaults(t *testing.T) {
	config := applyDefaults(&Configuration{})

	assert.Equal(t, 24*time.Hour, config.Downloads.TokenTTL)
	assert.Equal(t, 5, config.Lockout.MaxAttempts)
	assert.Equal(t, 15*time.Minute, config.Lockout.Duration)
}
