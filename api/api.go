package api

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"time"

	chimiddleware "github.com/go-chi/chi/middleware"
	"github.com/jinzhu/gorm"
	"github.com/pborman/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/sebest/xff"
	"github.com/sirupsen/logrus"

	"github.com/craftista/godownload/conf"
	"github.com/craftista/godownload/downloads"
	"github.com/craftista/godownload/graceful"
	"github.com/craftista/godownload/lockout"
	"github.com/craftista/godownload/tokens"
)

var bearerRegexp = regexp.MustCompile(`^(?:B|b)earer (\S+$)`)

const shutdownTimeout = 10 * time.Second

// API is the exposed HTTP interface of the download service.
type API struct {
	handler      http.Handler
	db           *gorm.DB
	config       *conf.Configuration
	orchestrator *downloads.Orchestrator
	guard        *lockout.Guard
	audit        downloads.AuditLogger
	version      string
}

// NewAPI instantiates a new REST API.
func NewAPI(config *conf.Configuration, db *gorm.DB, guard *lockout.Guard) (*API, error) {
	return NewAPIWithVersion(config, db, guard, "unknown")
}

// NewAPIWithVersion instantiates a new REST API with the build version.
// It fails when the capability signing secret is missing, so a
// misconfigured instance never serves unverifiable grants.
func NewAPIWithVersion(config *conf.Configuration, db *gorm.DB, guard *lockout.Guard, version string) (*API, error) {
	codec, err := tokens.NewCodec(config.JWT.Secret, config.Downloads.TokenTTL)
	if err != nil {
		return nil, err
	}

	api := &API{
		db:           db,
		config:       config,
		orchestrator: downloads.NewOrchestrator(db, codec, config.Downloads.StorageRoot),
		guard:        guard,
		audit:        downloads.NewAuditLogger(db),
		version:      version,
	}

	xffmw, err := xff.Default()
	if err != nil {
		return nil, err
	}

	r := newRouter()
	r.UseBypass(xffmw.Handler)
	r.Use(withRequestID)
	r.UseBypass(newStructuredLogger(logrus.StandardLogger()))
	r.UseBypass(chimiddleware.Recoverer)
	r.Use(api.withToken)

	r.Get("/", api.Index)
	r.Get("/health", api.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/login", api.Login)

	r.Route("/downloads", func(r *router) {
		r.Post("/validate", api.DownloadValidate)
		r.With(authRequired).Get("/", api.DownloadList)
		r.Route("/{session_id}", func(r *router) {
			r.Use(authRequired)
			r.With(adminRequired).Get("/", api.SessionView)
			r.Post("/start", api.DownloadStart)
			r.Post("/complete", api.DownloadComplete)
		})
	})

	r.Route("/projects/{project_id}/downloads", func(r *router) {
		r.Use(authRequired)
		r.Post("/", api.DownloadCreate)
		r.Get("/analytics", api.DownloadAnalytics)
	})

	corsHandler := cors.New(cors.Options{
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-Total-Count"},
		AllowCredentials: true,
	})

	api.handler = corsHandler.Handler(r)
	return api, nil
}

func withRequestID(w http.ResponseWriter, r *http.Request) (context.Context, error) {
	id := uuid.NewRandom().String()
	return withRequestIDContext(r.Context(), id), nil
}

// Index answers with the service name and version.
func (a *API) Index(w http.ResponseWriter, r *http.Request) error {
	sendJSON(w, http.StatusOK, map[string]string{
		"version":     a.version,
		"name":        "GoDownload",
		"description": "GoDownload is a purchase-gated download authorization service",
	})
	return nil
}

// HealthCheck reports liveness, including database reachability.
func (a *API) HealthCheck(w http.ResponseWriter, r *http.Request) error {
	if err := a.db.DB().Ping(); err != nil {
		return internalServerError("Database is unreachable").WithInternalError(err)
	}
	sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	return nil
}

// ListenAndServe starts the REST API and blocks until shutdown.
func (a *API) ListenAndServe(hostAndPort string) error {
	log := logrus.WithField("component", "api")
	server := &http.Server{
		Addr:    hostAndPort,
		Handler: a.handler,
	}

	done, _ := graceful.DetectShutdown(log)
	done.Register("api", server, shutdownTimeout)

	err := server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// ServeHTTP implements http.Handler, mostly for tests.
func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

func (a *API) String() string {
	return fmt.Sprintf("GoDownload %s", a.version)
}
