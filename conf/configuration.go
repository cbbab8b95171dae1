package conf

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultTokenTTL        = 24 * time.Hour
	defaultLockoutAttempts = 5
	defaultLockoutDuration = 15 * time.Minute
)

// Configuration holds all the configuration for godownload.
type Configuration struct {
	JWT struct {
		Secret         string `mapstructure:"secret" json:"secret"`
		AdminGroupName string `mapstructure:"admin_group_name" json:"admin_group_name"`
	} `mapstructure:"jwt" json:"jwt"`

	DB struct {
		Driver    string `mapstructure:"driver" json:"driver"`
		ConnURL   string `mapstructure:"url" json:"url"`
		Namespace string `mapstructure:"namespace" json:"namespace"`
	} `mapstructure:"db" json:"db"`

	API struct {
		Host string `mapstructure:"host" json:"host"`
		Port int    `mapstructure:"port" json:"port"`
	} `mapstructure:"api" json:"api"`

	Downloads struct {
		// TokenTTL bounds the validity of sessions and their capability
		// tokens. The expiry is fixed at session creation.
		TokenTTL    time.Duration `mapstructure:"token_ttl" json:"token_ttl"`
		StorageRoot string        `mapstructure:"storage_root" json:"storage_root"`
	} `mapstructure:"downloads" json:"downloads"`

	Lockout struct {
		MaxAttempts int           `mapstructure:"max_attempts" json:"max_attempts"`
		Duration    time.Duration `mapstructure:"duration" json:"duration"`
		// RedisURL selects the shared lockout store. Empty keeps lockout
		// state in process, which only suits single-instance deployments.
		RedisURL string `mapstructure:"redis_url" json:"redis_url"`
	} `mapstructure:"lockout" json:"lockout"`

	LogLevel string `mapstructure:"log_level" json:"log_level"`
}

// Load will construct the config from the file `config.json`.
func Load(configFile string) (*Configuration, error) {
	loadEnvironment()

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath("./")
		viper.AddConfigPath("$HOME/.godownload/")
	}

	viper.SetEnvPrefix("GODOWNLOAD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	config := new(Configuration)
	if err := viper.Unmarshal(config); err != nil {
		return nil, err
	}

	return applyDefaults(handleNested(config)), nil
}

func loadEnvironment() {
	// .env is optional
	if _, err := os.Stat(".env"); err == nil {
		godotenv.Load()
	}
}

// This is b/c the unmarshal function doesn't work on nested values. The
// overrides work, but the unmarshal won't discover them.
// see: https://github.com/spf13/viper/issues/190
func handleNested(config *Configuration) *Configuration {
	config.JWT.Secret = viper.GetString("jwt.secret")
	config.JWT.AdminGroupName = viper.GetString("jwt.admin_group_name")

	config.DB.Driver = viper.GetString("db.driver")
	config.DB.ConnURL = viper.GetString("db.url")
	config.DB.Namespace = viper.GetString("db.namespace")

	config.API.Host = viper.GetString("api.host")
	config.API.Port = viper.GetInt("api.port")

	config.Downloads.TokenTTL = viper.GetDuration("downloads.token_ttl")
	config.Downloads.StorageRoot = viper.GetString("downloads.storage_root")

	config.Lockout.MaxAttempts = viper.GetInt("lockout.max_attempts")
	config.Lockout.Duration = viper.GetDuration("lockout.duration")
	config.Lockout.RedisURL = viper.GetString("lockout.redis_url")

	config.LogLevel = viper.GetString("log_level")

	return config
}

func applyDefaults(config *Configuration) *Configuration {
	if config.Downloads.TokenTTL == 0 {
		config.Downloads.TokenTTL = defaultTokenTTL
	}
	if config.Lockout.MaxAttempts == 0 {
		config.Lockout.MaxAttempts = defaultLockoutAttempts
	}
	if config.Lockout.Duration == 0 {
		config.Lockout.Duration = defaultLockoutDuration
	}
	if config.JWT.AdminGroupName == "" {
		config.JWT.AdminGroupName = "admin"
	}
	return config
}
