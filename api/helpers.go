package api

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/craftista/godownload/downloads"
)

func sendJSON(w http.ResponseWriter, status int, obj interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(obj); err != nil {
		logrus.WithError(err).Errorf("Error encoding json response: %v", obj)
	}
}

// clientContext captures the request's advisory origin. The xff
// middleware has already resolved RemoteAddr to the trusted client IP.
func clientContext(r *http.Request) *downloads.ClientContext {
	return &downloads.ClientContext{
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
