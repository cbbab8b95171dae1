package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	jwt "github.com/dgrijalva/jwt-go"

	"github.com/craftista/godownload/claims"
	"github.com/craftista/godownload/downloads"
	"github.com/craftista/godownload/models"
)

// LoginParams are the credentials for the authentication entry point.
type LoginParams struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued identity token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
}

// invalidCredentials is returned for unknown accounts and wrong
// passwords alike, so responses never disclose whether an account
// exists.
func invalidCredentials() *HTTPError {
	return unauthorizedError("Invalid email or password")
}

// Login authenticates a user. The lockout guard is consulted before any
// credential check: a locked identifier short-circuits without touching
// the user table.
func (a *API) Login(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	log := getLogEntry(r)

	params := &LoginParams{}
	if err := json.NewDecoder(r.Body).Decode(params); err != nil {
		return badRequestError("Could not read login params: %v", err)
	}
	if params.Email == "" || params.Password == "" {
		return badRequestError("Email and password are required")
	}

	email := strings.ToLower(params.Email)
	identifier := lockoutIdentifier(clientIP(r), email)

	locked, err := a.guard.IsLocked(ctx, identifier)
	if err != nil {
		return internalServerError("Error checking lockout state").WithInternalError(err)
	}
	if locked {
		return a.lockedResponse(w, r, identifier)
	}

	user, err := models.FindUserByEmail(a.db, email)
	if err != nil {
		if !models.IsNotFoundError(err) {
			return internalServerError("Error during database query").WithInternalError(err)
		}
		// burn an attempt for unknown accounts too, same as a bad password
		if _, err := a.guard.RecordFailure(ctx, identifier); err != nil {
			log.WithError(err).Error("failed to record login failure")
		}
		return invalidCredentials()
	}

	if !user.Authenticate(params.Password) {
		nowLocked, err := a.guard.RecordFailure(ctx, identifier)
		if err != nil {
			log.WithError(err).Error("failed to record login failure")
		}
		if nowLocked {
			log.WithField("identifier", identifier).Info("identifier locked out")
		}
		return invalidCredentials()
	}

	if err := a.guard.Reset(ctx, identifier); err != nil {
		log.WithError(err).Error("failed to reset lockout record")
	}

	response, err := a.issueIdentityToken(user)
	if err != nil {
		return internalServerError("Error issuing token").WithInternalError(err)
	}

	logEntrySetField(r, "user_id", user.ID)
	sendJSON(w, http.StatusOK, response)
	return nil
}

func (a *API) lockedResponse(w http.ResponseWriter, r *http.Request, identifier string) error {
	a.audit.Log(downloads.LockoutDenied(identifier, clientContext(r)))

	remaining, err := a.guard.RemainingLockout(r.Context(), identifier)
	if err != nil {
		return internalServerError("Error checking lockout state").WithInternalError(err)
	}

	seconds := int(remaining.Seconds()) + 1
	w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
	return lockedError("Too many failed login attempts. Try again in %d seconds", seconds)
}

func (a *API) issueIdentityToken(user *models.User) (*LoginResponse, error) {
	expiresAt := time.Now().Add(a.config.Downloads.TokenTTL)

	userClaims := &claims.JWTClaims{
		ID:    user.ID,
		Email: user.Email,
		StandardClaims: jwt.StandardClaims{
			Subject:   user.ID,
			ExpiresAt: expiresAt.Unix(),
		},
	}
	if user.Role != "" {
		userClaims.AppMetaData = map[string]interface{}{
			"roles": []interface{}{user.Role},
		}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, userClaims)
	signed, err := token.SignedString([]byte(a.config.JWT.Secret))
	if err != nil {
		return nil, err
	}

	return &LoginResponse{Token: signed, ExpiresAt: expiresAt, UserID: user.ID}, nil
}

// lockoutIdentifier composes the guard key from the client origin and
// the account, so distributed guessing against one account and
// single-host guessing across accounts both trip it.
func lockoutIdentifier(ip, email string) string {
	return ip + "|" + email
}
