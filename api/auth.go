package api

import (
	"context"
	"fmt"
	"net/http"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/sirupsen/logrus"

	"github.com/craftista/godownload/claims"
)

func (a *API) withToken(w http.ResponseWriter, r *http.Request) (context.Context, error) {
	ctx := r.Context()
	log := getLogEntry(r)
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		log.Debug("Making unauthenticated request")
		return ctx, nil
	}

	matches := bearerRegexp.FindStringSubmatch(authHeader)
	if len(matches) != 2 {
		return nil, unauthorizedError("Bad authentication header").WithInternalMessage("Invalid auth header format: %s", authHeader)
	}

	token, err := jwt.ParseWithClaims(matches[1], &claims.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Name {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Method.Alg())
		}
		return []byte(a.config.JWT.Secret), nil
	})
	if err != nil {
		return nil, unauthorizedError("Invalid token").WithInternalError(err)
	}

	userClaims := token.Claims.(*claims.JWTClaims)
	admin := userClaims.HasRole(a.config.JWT.AdminGroupName)

	log.WithFields(logrus.Fields{
		"claims_id":    userClaims.ID,
		"claims_email": userClaims.Email,
		"is_admin":     admin,
	}).Debug("successfully parsed claims")

	ctx = withAdminFlag(ctx, admin)
	ctx = withTokenContext(ctx, token)
	return ctx, nil
}

func authRequired(w http.ResponseWriter, r *http.Request) (context.Context, error) {
	ctx := r.Context()
	if getClaims(ctx) == nil {
		return nil, unauthorizedError("No authentication provided")
	}
	return ctx, nil
}

func adminRequired(w http.ResponseWriter, r *http.Request) (context.Context, error) {
	ctx := r.Context()
	userClaims := getClaims(ctx)
	if userClaims == nil || !isAdmin(ctx) {
		return nil, forbiddenError("Admin permissions required")
	}

	logEntrySetField(r, "admin_id", userClaims.ID)
	return ctx, nil
}
