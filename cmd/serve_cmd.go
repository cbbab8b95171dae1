package cmd

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/craftista/godownload/api"
	"github.com/craftista/godownload/conf"
	"github.com/craftista/godownload/lockout"
	"github.com/craftista/godownload/models"
)

var serveCmd = cobra.Command{
	Use:  "serve",
	Long: "Start API server",
	Run: func(cmd *cobra.Command, args []string) {
		execWithConfig(cmd, serve)
	},
}

func serve(config *conf.Configuration) {
	db, err := models.Connect(config)
	if err != nil {
		logrus.Fatalf("Error opening database: %+v", err)
	}
	defer db.Close()

	guard, err := buildGuard(config)
	if err != nil {
		logrus.Fatalf("Error setting up lockout store: %+v", err)
	}

	apiInstance, err := api.NewAPIWithVersion(config, db, guard, Version)
	if err != nil {
		logrus.Fatalf("Error starting API: %+v", err)
	}

	l := fmt.Sprintf("%v:%v", config.API.Host, config.API.Port)
	logrus.Infof("GoDownload API started on: %s", l)
	if err := apiInstance.ListenAndServe(l); err != nil {
		logrus.Fatalf("Error serving API: %+v", err)
	}
}

// buildGuard selects the lockout backend. A configured redis URL shares
// lockout state across instances, otherwise it stays in process.
func buildGuard(config *conf.Configuration) (*lockout.Guard, error) {
	var store lockout.Store
	if config.Lockout.RedisURL != "" {
		redisStore, err := lockout.NewRedisStoreFromURL(context.Background(), config.Lockout.RedisURL)
		if err != nil {
			return nil, err
		}
		store = redisStore
	} else {
		store = lockout.NewMemoryStore()
	}

	return lockout.New(store, config.Lockout.MaxAttempts, config.Lockout.Duration), nil
}
